package action

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"sync"
	"time"
)

// ArgZero is the argv[0] every action is started with.
const ArgZero = "user_script"

// exitBacklog is the number of exits buffered between reaps.
const exitBacklog = 64

// Exit describes a finished child.
type Exit struct {
	PID      int
	Err      error
	Duration time.Duration
}

// Success reports whether the child exited with status zero.
func (e Exit) Success() bool {
	return e.Err == nil
}

// SupervisorConfig configures a Supervisor.
type SupervisorConfig struct {
	// Stdin, Stdout and Stderr default to the process streams.
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer

	Logger  *slog.Logger
	Metrics Recorder
}

// Supervisor starts children and tracks them until they are reaped.
type Supervisor struct {
	config  SupervisorConfig
	logger  *slog.Logger
	metrics Recorder

	// running is touched only by the owning goroutine.
	running map[int]time.Time
	exits   chan Exit
	wg      sync.WaitGroup
}

// NewSupervisor creates a supervisor.
func NewSupervisor(config SupervisorConfig) *Supervisor {
	if config.Stdin == nil {
		config.Stdin = os.Stdin
	}
	if config.Stdout == nil {
		config.Stdout = os.Stdout
	}
	if config.Stderr == nil {
		config.Stderr = os.Stderr
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	metrics := config.Metrics
	if metrics == nil {
		metrics = nopRecorder{}
	}
	return &Supervisor{
		config:  config,
		logger:  logger,
		metrics: metrics,
		running: make(map[int]time.Time),
		exits:   make(chan Exit, exitBacklog),
	}
}

// Spawn starts path with args and returns the child's pid. The program is
// looked up in PATH when path has no separator.
func (s *Supervisor) Spawn(path string, args ...string) (int, error) {
	cmd := exec.Command(path, args...)
	cmd.Args[0] = ArgZero
	cmd.Stdin = s.config.Stdin
	cmd.Stdout = s.config.Stdout
	cmd.Stderr = s.config.Stderr

	if err := cmd.Start(); err != nil {
		s.metrics.ActionStarted(false)
		return 0, fmt.Errorf("start %s: %w", path, err)
	}
	s.metrics.ActionStarted(true)

	pid := cmd.Process.Pid
	started := time.Now()
	s.running[pid] = started

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		err := cmd.Wait()
		s.exits <- Exit{PID: pid, Err: err, Duration: time.Since(started)}
	}()
	return pid, nil
}

// Reap collects the children that have exited since the last call without
// blocking.
func (s *Supervisor) Reap() []Exit {
	var done []Exit
	for {
		select {
		case ex := <-s.exits:
			s.collect(ex)
			done = append(done, ex)
		default:
			return done
		}
	}
}

// Outstanding returns the number of children not yet reaped.
func (s *Supervisor) Outstanding() int {
	return len(s.running)
}

// Wait reaps children until none is outstanding or ctx is done.
func (s *Supervisor) Wait(ctx context.Context) error {
	for len(s.running) > 0 {
		select {
		case ex := <-s.exits:
			s.collect(ex)
		case <-ctx.Done():
			return fmt.Errorf("%d actions still running: %w", len(s.running), ctx.Err())
		}
	}
	s.wg.Wait()
	return nil
}

func (s *Supervisor) collect(ex Exit) {
	delete(s.running, ex.PID)
	s.metrics.ActionExited(ex.Success())

	var exitErr *exec.ExitError
	switch {
	case ex.Err == nil:
		s.logger.Debug("action finished", "pid", ex.PID, "duration", ex.Duration)
	case errors.As(ex.Err, &exitErr):
		s.logger.Warn("action failed", "pid", ex.PID, "code", exitErr.ExitCode(), "duration", ex.Duration)
	default:
		s.logger.Warn("action failed", "pid", ex.PID, "error", ex.Err)
	}
}
