package action

import (
	"log/slog"
	"strconv"
	"time"

	"github.com/pvmon/pvmon-go/pkg/log"
)

// Spawner starts a program without waiting for it.
type Spawner interface {
	Spawn(path string, args ...string) (int, error)
}

var _ Spawner = (*Supervisor)(nil)

// DispatcherConfig configures a Dispatcher.
type DispatcherConfig struct {
	Logger  *slog.Logger
	Capture log.Logger
	Metrics Recorder
}

// Dispatcher runs the script once per distinct value of a channel.
type Dispatcher struct {
	script  string
	spawner Spawner
	logger  *slog.Logger
	capture log.Logger
	metrics Recorder

	// last holds the last value seen per channel. A channel never seen
	// compares equal to the empty string.
	last map[string]string
}

// NewDispatcher creates a dispatcher running script through spawner.
func NewDispatcher(script string, spawner Spawner, config DispatcherConfig) *Dispatcher {
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	metrics := config.Metrics
	if metrics == nil {
		metrics = nopRecorder{}
	}
	return &Dispatcher{
		script:  script,
		spawner: spawner,
		logger:  logger,
		capture: log.OrNoop(config.Capture),
		metrics: metrics,
		last:    make(map[string]string),
	}
}

// HandleUpdate starts the script for a changed value. It reports whether
// the value differed from the last one seen.
func (d *Dispatcher) HandleUpdate(name, value string) bool {
	if d.last[name] == value {
		d.metrics.ActionSuppressed()
		return false
	}
	d.last[name] = value

	ev := &log.MonitorEvent{Value: value}
	pid, err := d.spawner.Spawn(d.script, name, value)
	if err != nil {
		d.logger.Error("cannot start action", "script", d.script, "channel", name, "error", err)
		ev.Detail = err.Error()
	} else {
		d.logger.Debug("action started", "script", d.script, "channel", name, "pid", pid)
		ev.Detail = "pid=" + strconv.Itoa(pid)
	}

	d.capture.Log(log.Event{
		Timestamp: time.Now(),
		Direction: log.DirectionOut,
		Layer:     log.LayerMonitor,
		Category:  log.CategoryAction,
		Channel:   name,
		Monitor:   ev,
	})
	return true
}

// LastValue returns the last value seen for name.
func (d *Dispatcher) LastValue(name string) string {
	return d.last[name]
}
