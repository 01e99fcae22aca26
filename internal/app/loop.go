package app

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/pvmon/pvmon-go/pkg/action"
	"github.com/pvmon/pvmon-go/pkg/monitor"
)

// DefaultTick is the idle wake-up interval of the loop.
const DefaultTick = time.Second

// Loop is the control loop of one monitor program.
type Loop struct {
	engine     *monitor.Engine
	feed       *monitor.Feed
	lines      <-chan string
	supervisor *action.Supervisor
	logger     *slog.Logger
	tick       time.Duration
}

// LoopConfig configures a Loop.
type LoopConfig struct {
	Engine *monitor.Engine

	// Feed and Lines enable the command feed. Lines is read until closed.
	Feed  *monitor.Feed
	Lines <-chan string

	// Supervisor is reaped on every tick when set.
	Supervisor *action.Supervisor

	Logger *slog.Logger
	Tick   time.Duration
}

// NewLoop creates a loop.
func NewLoop(config LoopConfig) *Loop {
	if config.Tick <= 0 {
		config.Tick = DefaultTick
	}
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	lines := config.Lines
	if config.Feed == nil {
		lines = nil
	}
	return &Loop{
		engine:     config.Engine,
		feed:       config.Feed,
		lines:      lines,
		supervisor: config.Supervisor,
		logger:     config.Logger,
		tick:       config.Tick,
	}
}

// Run dispatches events until ctx ends, then closes the engine.
func (l *Loop) Run(ctx context.Context) error {
	ticker := time.NewTicker(l.tick)
	defer ticker.Stop()

	lines := l.lines
	for {
		select {
		case <-ctx.Done():
			l.reap()
			return l.engine.Close()

		case <-l.engine.Ready():
			l.pump(ctx)

		case line, ok := <-lines:
			if !ok {
				l.logger.Debug("command input ended")
				lines = nil
				continue
			}
			l.feed.HandleLine(line)

		case <-ticker.C:
			l.pump(ctx)
			l.reap()
		}
	}
}

func (l *Loop) pump(ctx context.Context) {
	err := l.engine.PumpEvents(ctx, 0)
	if err != nil && !errors.Is(err, context.Canceled) {
		l.logger.Debug("pump events", "error", err)
	}
}

func (l *Loop) reap() {
	if l.supervisor == nil {
		return
	}
	l.supervisor.Reap()
}
