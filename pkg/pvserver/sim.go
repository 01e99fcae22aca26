package pvserver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/pvmon/pvmon-go/pkg/pv"
)

// Simulation kinds.
const (
	SimStatic  = "static"
	SimRamp    = "ramp"
	SimWave    = "wave"
	SimToggle  = "toggle"
	SimCounter = "counter"
)

// DefaultSimPeriod is the update period of a simulated record without one.
const DefaultSimPeriod = time.Second

// ErrDefinition is returned for an unusable record definition.
var ErrDefinition = errors.New("invalid record definition")

// Definition describes one simulated record.
type Definition struct {
	Name   string        `yaml:"name"`
	Type   string        `yaml:"type"`
	Count  int           `yaml:"count,omitempty"`
	Sim    string        `yaml:"sim,omitempty"`
	Period time.Duration `yaml:"period,omitempty"`

	// Min and Max bound ramp, wave and counter values.
	Min float64 `yaml:"min,omitempty"`
	Max float64 `yaml:"max,omitempty"`

	// Initial is the starting value, parsed for the record type.
	Initial string `yaml:"initial,omitempty"`

	Precision  int16    `yaml:"precision,omitempty"`
	Units      string   `yaml:"units,omitempty"`
	States     []string `yaml:"states,omitempty"`
	NoMetadata bool     `yaml:"no_metadata,omitempty"`
	DenyRead   bool     `yaml:"deny_read,omitempty"`
	DenyWrite  bool     `yaml:"deny_write,omitempty"`

	// HighAlarm and LowAlarm raise a MAJOR alarm when crossed.
	HighAlarm *float64 `yaml:"high_alarm,omitempty"`
	LowAlarm  *float64 `yaml:"low_alarm,omitempty"`
}

// FieldType parses the definition type.
func (d Definition) FieldType() (pv.FieldType, error) {
	if d.Type == "" {
		return pv.FieldTypeDouble, nil
	}
	return pv.ParseFieldType(strings.ToUpper(d.Type))
}

// Validate checks the definition.
func (d Definition) Validate() error {
	if d.Name == "" {
		return fmt.Errorf("%w: name required", ErrDefinition)
	}
	if _, err := d.FieldType(); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrDefinition, d.Name, err)
	}
	switch d.Sim {
	case "", SimStatic, SimRamp, SimWave, SimToggle, SimCounter:
	default:
		return fmt.Errorf("%w: %s: unknown sim %q", ErrDefinition, d.Name, d.Sim)
	}
	if d.Count < 0 {
		return fmt.Errorf("%w: %s: negative count", ErrDefinition, d.Name)
	}
	if d.Max < d.Min {
		return fmt.Errorf("%w: %s: max below min", ErrDefinition, d.Name)
	}
	return nil
}

func (d Definition) count() int {
	return max(d.Count, 1)
}

func (d Definition) period() time.Duration {
	if d.Period <= 0 {
		return DefaultSimPeriod
	}
	return d.Period
}

func (d Definition) options() Options {
	return Options{
		Precision:  d.Precision,
		Units:      d.Units,
		NoMetadata: d.NoMetadata,
		States:     d.States,
		DenyRead:   d.DenyRead,
		DenyWrite:  d.DenyWrite,
	}
}

// initial builds the starting value of the record.
func (d Definition) initial() (pv.Value, error) {
	t, err := d.FieldType()
	if err != nil {
		return nil, err
	}
	n := d.count()
	if t == pv.FieldTypeString {
		out := make(pv.StringValue, n)
		for i := range out {
			out[i] = d.Initial
		}
		return out, nil
	}
	start := d.Min
	if d.Initial != "" {
		f, err := strconv.ParseFloat(d.Initial, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: initial %q", ErrDefinition, d.Name, d.Initial)
		}
		start = f
	}
	nums := make([]float64, n)
	for i := range nums {
		nums[i] = start
	}
	return pv.FromFloat64s(t, nums), nil
}

// sample computes the value of d at tick k.
func (d Definition) sample(k int, t pv.FieldType) pv.Value {
	n := d.count()
	span := d.Max - d.Min
	nums := make([]float64, n)
	for i := range nums {
		switch d.Sim {
		case SimRamp:
			steps := 20.0
			if t != pv.FieldTypeFloat && t != pv.FieldTypeDouble {
				steps = math.Max(span, 1)
			}
			pos := math.Mod(float64(k+i), steps+1) / steps
			nums[i] = d.Min + span*pos
		case SimWave:
			phase := 2 * math.Pi * float64(k+i) / 20
			nums[i] = d.Min + span*(math.Sin(phase)+1)/2
		case SimToggle:
			nums[i] = float64((k + i) % 2)
		case SimCounter:
			if span <= 0 {
				nums[i] = d.Min + float64(k)
			} else {
				nums[i] = d.Min + math.Mod(float64(k), span+1)
			}
		}
	}
	if t == pv.FieldTypeString {
		out := make(pv.StringValue, n)
		for i, f := range nums {
			out[i] = strconv.FormatFloat(f, 'f', int(d.Precision), 64)
		}
		return out
	}
	return pv.FromFloat64s(t, nums)
}

// alarm classifies the first element against the limits.
func (d Definition) alarm(v pv.Value) (pv.AlarmStatus, pv.AlarmSeverity) {
	nums := pv.Float64s(v)
	if len(nums) == 0 {
		return pv.AlarmNone, pv.SeverityNone
	}
	switch {
	case d.HighAlarm != nil && nums[0] >= *d.HighAlarm:
		return pv.AlarmHiHi, pv.SeverityMajor
	case d.LowAlarm != nil && nums[0] <= *d.LowAlarm:
		return pv.AlarmLoLo, pv.SeverityMajor
	}
	return pv.AlarmNone, pv.SeverityNone
}

// DefaultDefinitions returns the records served when no definitions are
// configured.
func DefaultDefinitions() []Definition {
	high := 90.0
	return []Definition{
		{Name: "sim:ramp", Type: "double", Sim: SimRamp, Max: 100, Precision: 2, Units: "mm", HighAlarm: &high},
		{Name: "sim:wave", Type: "float", Sim: SimWave, Min: -1, Max: 1, Precision: 3, Units: "V", Period: 500 * time.Millisecond},
		{Name: "sim:counter", Type: "long", Sim: SimCounter, Max: 1000},
		{Name: "sim:toggle", Type: "enum", Sim: SimToggle, States: []string{"Off", "On"}, Period: 2 * time.Second},
		{Name: "sim:array", Type: "short", Count: 12, Sim: SimRamp, Max: 50},
		{Name: "sim:message", Type: "string", Initial: "idle"},
		{Name: "sim:noprec", Type: "double", Sim: SimRamp, Max: 10, NoMetadata: true},
		{Name: "sim:secret", Type: "long", Sim: SimCounter, DenyRead: true},
	}
}

// Simulator adds records to a server and animates them.
type Simulator struct {
	server *Server
	defs   []Definition
	logger *slog.Logger
}

// NewSimulator validates defs and adds their records to srv.
func NewSimulator(srv *Server, defs []Definition, logger *slog.Logger) (*Simulator, error) {
	if logger == nil {
		logger = slog.Default()
	}
	for _, d := range defs {
		if err := d.Validate(); err != nil {
			return nil, err
		}
		v, err := d.initial()
		if err != nil {
			return nil, err
		}
		if err := srv.Add(d.Name, v, d.options()); err != nil {
			return nil, err
		}
	}
	return &Simulator{server: srv, defs: defs, logger: logger}, nil
}

// Run animates the records until ctx is done.
func (s *Simulator) Run(ctx context.Context) error {
	done := make(chan struct{}, len(s.defs))
	running := 0
	for _, d := range s.defs {
		if d.Sim == "" || d.Sim == SimStatic {
			continue
		}
		running++
		go func(d Definition) {
			defer func() { done <- struct{}{} }()
			s.animate(ctx, d)
		}(d)
	}
	for range running {
		<-done
	}
	return ctx.Err()
}

func (s *Simulator) animate(ctx context.Context, d Definition) {
	t, _ := d.FieldType()
	ticker := time.NewTicker(d.period())
	defer ticker.Stop()

	for k := 1; ; k++ {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		v := d.sample(k, t)
		status, severity := d.alarm(v)
		err := s.server.modify(d.Name, func(r *record) error {
			r.value = v
			r.alarm, r.severity = status, severity
			return nil
		})
		if err != nil {
			s.logger.Debug("simulation stopped", "pv", d.Name, "error", err)
			return
		}
	}
}
