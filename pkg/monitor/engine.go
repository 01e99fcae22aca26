package monitor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/pvmon/pvmon-go/pkg/log"
	"github.com/pvmon/pvmon-go/pkg/pv"
)

// Engine defaults.
const (
	DefaultWaitForConnect = 3 * time.Second
	DefaultPumpSlice      = 100 * time.Millisecond
)

// RequestPolicy selects the request kind used for subscriptions.
type RequestPolicy uint8

const (
	// NativeRequests subscribes with the time request of the field type and
	// negotiates precision for float and double channels.
	NativeRequests RequestPolicy = iota

	// StringRequests subscribes every channel as a single string.
	StringRequests
)

// String returns the policy name.
func (p RequestPolicy) String() string {
	switch p {
	case NativeRequests:
		return "native"
	case StringRequests:
		return "string"
	default:
		return "unknown"
	}
}

// Config configures an Engine.
type Config struct {
	// Out receives monitor lines and notices. Defaults to os.Stdout.
	Out io.Writer

	// Err receives diagnostics. Defaults to os.Stderr.
	Err io.Writer

	// Sink overrides the printing sink built from Out and Err.
	Sink Sink

	// Formatter renders updates for the default sink.
	Formatter Formatter

	// Logger is used for operational logging. Defaults to slog.Default().
	Logger *slog.Logger

	// Capture mirrors channel events into a capture log.
	Capture log.Logger

	// Metrics receives counters. nil disables them.
	Metrics Recorder

	RegistryCapacity int

	// WaitForConnect bounds how long AddMonitor waits for the channel to
	// connect. Zero selects DefaultWaitForConnect; negative disables waiting.
	WaitForConnect time.Duration

	// PumpSlice is the PumpEvents timeout used while waiting.
	PumpSlice time.Duration

	// RegisterOnlyOnConnect drops channels that do not connect in time
	// instead of leaving them pending.
	RegisterOnlyOnConnect bool

	Requests RequestPolicy

	ExceptionLimit int

	// Debug prints trace lines to Out.
	Debug bool
}

func (c *Config) applyDefaults() {
	if c.Out == nil {
		c.Out = os.Stdout
	}
	if c.Err == nil {
		c.Err = os.Stderr
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
	if c.WaitForConnect == 0 {
		c.WaitForConnect = DefaultWaitForConnect
	}
	if c.PumpSlice <= 0 {
		c.PumpSlice = DefaultPumpSlice
	}
	if c.Metrics == nil {
		c.Metrics = nopRecorder{}
	}
}

// Engine drives the lifecycle of every monitored channel.
type Engine struct {
	transport Transport
	config    Config
	logger    *slog.Logger
	capture   log.Logger
	metrics   Recorder
	sink      Sink
	registry  *Registry
	guard     *ExceptionGuard

	channels map[pv.Handle]*channel

	ctx    context.Context
	cancel context.CancelFunc
	closed bool
}

// NewEngine creates an engine on t and installs its exception handler.
func NewEngine(t Transport, config Config) *Engine {
	config.applyDefaults()

	ctx, cancel := context.WithCancel(context.Background())
	e := &Engine{
		transport: t,
		config:    config,
		logger:    config.Logger,
		capture:   log.OrNoop(config.Capture),
		metrics:   config.Metrics,
		sink:      config.Sink,
		registry:  NewRegistry(config.RegistryCapacity),
		channels:  make(map[pv.Handle]*channel),
		ctx:       ctx,
		cancel:    cancel,
	}
	if e.sink == nil {
		e.sink = NewPrintSink(config.Out, config.Err, config.Formatter)
	}
	e.guard = NewExceptionGuard(config.ExceptionLimit, config.Err, t.Info, func() {
		t.SetExceptionHandler(nil)
	})
	t.SetExceptionHandler(e.handleException)
	return e
}

// Registry returns the channel registry.
func (e *Engine) Registry() *Registry {
	return e.registry
}

// Guard returns the exception guard.
func (e *Engine) Guard() *ExceptionGuard {
	return e.guard
}

// ChannelState returns the state of the first channel called name.
func (e *Engine) ChannelState(name string) (ChannelState, bool) {
	if ch := e.lookup(name); ch != nil {
		return ch.state, true
	}
	return StateConnecting, false
}

// Precision returns the negotiated precision of the channel called name.
func (e *Engine) Precision(name string) (int, bool) {
	if ch := e.lookup(name); ch != nil && ch.precision != NoPrecision {
		return ch.precision, true
	}
	return NoPrecision, false
}

// ChannelCount returns the number of live channels, registered or pending.
func (e *Engine) ChannelCount() int {
	return len(e.channels)
}

// PumpEvents runs queued transport callbacks for at most timeout.
func (e *Engine) PumpEvents(ctx context.Context, timeout time.Duration) error {
	return e.transport.PumpEvents(ctx, timeout)
}

// Ready is signalled when transport callbacks are queued.
func (e *Engine) Ready() <-chan struct{} {
	return e.transport.Ready()
}

// AddMonitor connects to name, optionally waits for the connection and
// registers the channel.
func (e *Engine) AddMonitor(name string) error {
	if e.closed {
		return ErrEngineClosed
	}
	e.debugf("addMonitor for [%s]\n", name)

	ch := newChannel(name)
	h, err := e.transport.Connect(name, func(ev pv.ConnectionEvent) {
		e.handleConnection(ch, ev)
	})
	if err != nil {
		e.logger.Error("connect failed", "channel", name, "error", err)
		return fmt.Errorf("connect %s: %w", name, err)
	}
	ch.handle = h
	e.channels[h] = ch

	if e.config.WaitForConnect > 0 && !e.waitConnected(ch) {
		e.sink.NotConnected(name)
		e.record(log.CategoryConnection, ch, &log.MonitorEvent{State: ch.state.String(), Detail: "connect wait timed out"})
		if e.config.RegisterOnlyOnConnect {
			e.drop(ch)
			return fmt.Errorf("%s: %w", name, ErrNotConnected)
		}
	}

	if err := e.registry.Add(name, h); err != nil {
		e.logger.Warn("registry overflow", "channel", name, "capacity", e.registry.Capacity())
		e.metrics.RegistryOverflow()
		e.drop(ch)
		return err
	}
	e.metrics.RegistrySize(e.registry.Len())
	return nil
}

// RemoveMonitor unregisters name and clears its channel.
func (e *Engine) RemoveMonitor(name string) error {
	if e.closed {
		return ErrEngineClosed
	}
	h, err := e.registry.Remove(name)
	if err != nil {
		return err
	}
	e.metrics.RegistrySize(e.registry.Len())
	if ch, ok := e.channels[h]; ok {
		e.drop(ch)
	}
	e.logger.Debug("monitor removed", "channel", name)
	return nil
}

// Close clears every channel and deregisters the exception handler.
func (e *Engine) Close() error {
	if e.closed {
		return nil
	}
	e.closed = true
	e.cancel()

	var errs []error
	for _, ch := range e.channels {
		e.registry.removeHandle(ch.handle)
		ch.removed = true
		if err := e.transport.Clear(ch.handle); err != nil {
			errs = append(errs, fmt.Errorf("clear %s: %w", ch.name, err))
		}
	}
	clear(e.channels)
	e.transport.SetExceptionHandler(nil)
	e.metrics.RegistrySize(0)

	if f, ok := e.sink.(interface{ Flush() error }); ok {
		errs = append(errs, f.Flush())
	}
	return errors.Join(errs...)
}

func (e *Engine) waitConnected(ch *channel) bool {
	deadline := time.Now().Add(e.config.WaitForConnect)
	for !ch.connected {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return false
		}
		err := e.transport.PumpEvents(e.ctx, min(e.config.PumpSlice, remaining))
		if e.ctx.Err() != nil {
			return false
		}
		if err != nil {
			e.logger.Debug("pump events", "error", err)
		}
	}
	return true
}

// drop clears a channel that is not (or no longer) registered.
func (e *Engine) drop(ch *channel) {
	ch.removed = true
	delete(e.channels, ch.handle)
	if err := e.transport.Clear(ch.handle); err != nil {
		e.logger.Warn("clear channel failed", "channel", ch.name, "error", err)
	}
}

func (e *Engine) lookup(name string) *channel {
	if h, ok := e.registry.Lookup(name); ok {
		if ch, ok := e.channels[h]; ok {
			return ch
		}
	}
	for _, ch := range e.channels {
		if ch.name == name {
			return ch
		}
	}
	return nil
}

func (e *Engine) handleConnection(ch *channel, ev pv.ConnectionEvent) {
	if ch.removed {
		return
	}
	e.debugf("processChangeConnectionEvent for [%s]\n", ch.name)
	e.metrics.ConnectionChanged(ev.Up)

	if !ev.Up {
		if ch.state != StateDisconnected {
			ch.resume = ch.state
		}
		ch.connected = false
		ch.state = StateDisconnected
		e.sink.NotConnected(ch.name)
		e.record(log.CategoryConnection, ch, &log.MonitorEvent{State: ch.state.String()})
		return
	}

	ch.connected = true
	if info, ok := e.transport.Info(ch.handle); ok {
		ch.fieldType = info.FieldType
		ch.count = info.ElementCount
	}

	if ch.subscriptionStarted {
		if ch.state == StateDisconnected {
			ch.state = ch.resume
		}
		e.record(log.CategoryConnection, ch, &log.MonitorEvent{State: ch.state.String(), Detail: "reconnected"})
		return
	}
	ch.subscriptionStarted = true
	ch.state = StateConnected
	e.debugf("Number of elements  for [%s] is %d\n", ch.name, ch.count)
	e.record(log.CategoryConnection, ch, &log.MonitorEvent{
		State:     ch.state.String(),
		FieldType: ch.fieldType.String(),
		Count:     ch.count,
	})

	if e.config.Requests == NativeRequests && ch.fieldType.IsFloating() {
		e.negotiate(ch)
	} else {
		e.subscribe(ch)
	}
	e.installAccessRights(ch)
}

// subscribe issues the value subscription of ch.
func (e *Engine) subscribe(ch *channel) {
	kind, count := pv.TimeRequestFor(ch.fieldType), ch.count
	if e.config.Requests == StringRequests {
		kind, count = pv.RequestTimeString, 1
	}

	id, err := e.transport.Subscribe(ch.handle, kind, count, func(_ pv.Handle, u pv.Update) {
		e.handleUpdate(ch, u)
	})
	if err != nil {
		e.logger.Error("subscribe failed", "channel", ch.name, "kind", kind, "error", err)
		ch.settle(StateFailed)
		return
	}
	ch.subscription = id
	ch.settle(StateSubscribed)
	e.logger.Debug("subscribed", "channel", ch.name, "kind", kind, "count", count)
}

func (e *Engine) installAccessRights(ch *channel) {
	if ch.accessInstalled {
		return
	}
	err := e.transport.OnAccessRightsChange(ch.handle, func(_ pv.Handle, rights pv.AccessRights) {
		e.handleAccessRights(ch, rights)
	})
	if err != nil {
		e.logger.Warn("access rights handler not installed", "channel", ch.name, "error", err)
		return
	}
	ch.accessInstalled = true
	e.handleAccessRights(ch, e.transport.AccessRights(ch.handle))
}

func (e *Engine) handleAccessRights(ch *channel, rights pv.AccessRights) {
	if ch.removed || !ch.connected {
		return
	}
	e.debugf("processAccessRightsEvent for [%s]\n", ch.name)
	e.sink.AccessRights(ch.name, rights)
	e.record(log.CategoryAccess, ch, &log.MonitorEvent{Read: rights.Read, Write: rights.Write})
}

func (e *Engine) handleUpdate(ch *channel, u pv.Update) {
	if ch.removed {
		return
	}
	e.debugf("processNewEvent for [%s]\n", ch.name)
	e.metrics.UpdateReceived(u.Status.IsNormal())
	e.sink.Update(ch.name, u, ch.precision)

	ev := &log.MonitorEvent{Detail: u.Status.String()}
	if u.Status.IsNormal() {
		ev = &log.MonitorEvent{
			Value:    ValueString(u.Value, ch.precision),
			Alarm:    u.Alarm.String(),
			Severity: u.Severity.String(),
		}
	}
	e.record(log.CategoryUpdate, ch, ev)
}

func (e *Engine) handleException(ex pv.Exception) {
	printed := e.guard.Handle(ex)
	e.metrics.ExceptionObserved(!printed)

	var name string
	if info, ok := e.transport.Info(ex.Handle); ok {
		name = info.Name
	}
	e.capture.Log(log.Event{
		Timestamp: time.Now(),
		Layer:     log.LayerMonitor,
		Category:  log.CategoryException,
		Channel:   name,
		Error: &log.ErrorEvent{
			Layer:   log.LayerMonitor,
			Message: ex.Status.String(),
			Context: ex.Context,
		},
	})
}

func (e *Engine) record(cat log.Category, ch *channel, ev *log.MonitorEvent) {
	e.capture.Log(log.Event{
		Timestamp: time.Now(),
		Layer:     log.LayerMonitor,
		Category:  cat,
		Channel:   ch.name,
		Monitor:   ev,
	})
}

func (e *Engine) debugf(format string, args ...any) {
	if e.config.Debug {
		fmt.Fprintf(e.config.Out, format, args...)
	}
}
