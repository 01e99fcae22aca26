package monitor

import (
	"bufio"
	"context"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/pvmon/pvmon-go/pkg/log"
)

// Commander is what a Feed drives.
type Commander interface {
	AddMonitor(name string) error
	RemoveMonitor(name string) error
}

var _ Commander = (*Engine)(nil)

// LineSource yields input lines without their terminator. It returns io.EOF
// when the input ends.
type LineSource interface {
	ReadLine() (string, error)
}

// FeedConfig configures a Feed.
type FeedConfig struct {
	Logger  *slog.Logger
	Capture log.Logger
}

// Feed applies "<name> START" and "<name> STOP" command lines.
type Feed struct {
	cmd     Commander
	logger  *slog.Logger
	capture log.Logger
}

// NewFeed creates a feed driving cmd.
func NewFeed(cmd Commander, config FeedConfig) *Feed {
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Feed{cmd: cmd, logger: logger, capture: log.OrNoop(config.Capture)}
}

// HandleLine applies one command line. The channel name is the text before
// the first space; the line starts the monitor when it contains "START"
// anywhere and stops it otherwise. Lines without a space are ignored.
func (f *Feed) HandleLine(line string) {
	line = strings.TrimRight(line, "\r\n")
	name, _, ok := strings.Cut(line, " ")
	if !ok || name == "" {
		return
	}

	start := strings.Contains(line, "START")
	f.capture.Log(log.Event{
		Timestamp: time.Now(),
		Direction: log.DirectionIn,
		Layer:     log.LayerMonitor,
		Category:  log.CategoryCommand,
		Channel:   name,
		Monitor:   &log.MonitorEvent{Detail: line},
	})

	if start {
		if err := f.cmd.AddMonitor(name); err != nil {
			f.logger.Warn("start monitor", "channel", name, "error", err)
		}
		return
	}
	if err := f.cmd.RemoveMonitor(name); err != nil {
		f.logger.Warn("stop monitor", "channel", name, "error", err)
	}
}

// Run reads lines from r on its own goroutine. The returned channel is
// closed when r ends or ctx is done; lines are meant to be passed to
// HandleLine by the control goroutine.
func (f *Feed) Run(ctx context.Context, r io.Reader) <-chan string {
	return f.RunSource(ctx, NewReaderSource(r))
}

// RunSource is Run for an arbitrary line source.
func (f *Feed) RunSource(ctx context.Context, src LineSource) <-chan string {
	lines := make(chan string)
	go func() {
		defer close(lines)
		for {
			line, err := src.ReadLine()
			if err != nil {
				if err != io.EOF {
					f.logger.Debug("command input closed", "error", err)
				}
				return
			}
			select {
			case lines <- line:
			case <-ctx.Done():
				return
			}
		}
	}()
	return lines
}

// ReaderSource reads newline-terminated lines from an io.Reader.
type ReaderSource struct {
	scanner *bufio.Scanner
}

// NewReaderSource creates a line source on r.
func NewReaderSource(r io.Reader) *ReaderSource {
	return &ReaderSource{scanner: bufio.NewScanner(r)}
}

// ReadLine returns the next line.
func (s *ReaderSource) ReadLine() (string, error) {
	if s.scanner.Scan() {
		return s.scanner.Text(), nil
	}
	if err := s.scanner.Err(); err != nil {
		return "", err
	}
	return "", io.EOF
}
