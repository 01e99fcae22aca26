package app

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/pvmon/pvmon-go/pkg/action"
	"github.com/pvmon/pvmon-go/pkg/config"
	"github.com/pvmon/pvmon-go/pkg/discovery"
	"github.com/pvmon/pvmon-go/pkg/log"
	"github.com/pvmon/pvmon-go/pkg/metrics"
	"github.com/pvmon/pvmon-go/pkg/monitor"
	"github.com/pvmon/pvmon-go/pkg/pvclient"
	"github.com/pvmon/pvmon-go/pkg/transport"
)

// ExitBanner is printed by the script variant on graceful shutdown.
const ExitBanner = "PV monitor program is exiting!"

// Variant selects the behaviour of a monitor program.
type Variant uint8

const (
	// Static monitors the channels named on the command line.
	Static Variant = iota

	// Dynamic also takes "<name> START|STOP" lines and registers channels
	// only once they connect.
	Dynamic

	// Script runs a program on every distinct value of one channel.
	Script
)

// String returns the variant name.
func (v Variant) String() string {
	switch v {
	case Static:
		return "static"
	case Dynamic:
		return "dynamic"
	case Script:
		return "script"
	default:
		return "unknown"
	}
}

// Options describes one program run.
type Options struct {
	Variant Variant
	Config  *config.Config

	// Names are monitored from the start.
	Names []string

	// Script is the program run by the Script variant.
	Script string

	Debug bool

	// Input feeds commands to the Dynamic variant. Defaults to stdin.
	Input monitor.LineSource

	Stdout io.Writer
	Stderr io.Writer
	Logger *slog.Logger

	// Transport replaces the PV data client. The caller owns its
	// lifecycle.
	Transport monitor.Transport

	// Tick overrides DefaultTick.
	Tick time.Duration
}

// Run executes a monitor program until ctx ends.
func Run(ctx context.Context, opts Options) error {
	if opts.Config == nil {
		opts.Config = config.Default()
	}
	if opts.Stdout == nil {
		opts.Stdout = os.Stdout
	}
	if opts.Stderr == nil {
		opts.Stderr = os.Stderr
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	cfg := opts.Config
	logger := opts.Logger.With("program", opts.Variant.String())

	if opts.Variant == Script {
		if err := action.CheckExecutable(opts.Script); err != nil {
			return err
		}
	}

	capture, closeCapture, err := openCapture(cfg.Capture.Path)
	if err != nil {
		return err
	}
	defer closeCapture()

	var (
		engineMetrics monitor.Recorder
		actionMetrics action.Recorder
		clientMetrics pvclient.Recorder
	)
	if cfg.Metrics.Addr != "" {
		m := metrics.New()
		srv := metrics.NewServer(cfg.Metrics.Addr, m, logger)
		if err := srv.Start(); err != nil {
			return fmt.Errorf("metrics: %w", err)
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
		engineMetrics, actionMetrics, clientMetrics = m, m, m
	}

	g, gctx := errgroup.WithContext(ctx)

	t := opts.Transport
	if t == nil {
		client, err := newClient(cfg, logger, capture, clientMetrics)
		if err != nil {
			return err
		}
		if err := client.Start(gctx); err != nil {
			return fmt.Errorf("start client: %w", err)
		}
		defer client.Close()
		t = client

		if cfg.Client.Discover {
			browser := discovery.NewBrowser(discovery.BrowserConfig{Interface: cfg.Client.Interface, Logger: logger})
			g.Go(func() error {
				err := discovery.Watch(gctx, browser, client, logger)
				if err != nil && !errors.Is(err, context.Canceled) {
					logger.Warn("server discovery stopped", "error", err)
				}
				return nil
			})
		}
	}

	engineConfig := monitor.Config{
		Out:                   opts.Stdout,
		Err:                   opts.Stderr,
		Logger:                logger,
		Capture:               capture,
		Metrics:               engineMetrics,
		RegistryCapacity:      cfg.Monitor.RegistryCapacity,
		WaitForConnect:        cfg.Monitor.WaitForConnect,
		RegisterOnlyOnConnect: opts.Variant == Dynamic,
		Requests:              cfg.Monitor.RequestPolicy(),
		ExceptionLimit:        cfg.Monitor.ExceptionLimit,
		Debug:                 opts.Debug,
	}

	loopConfig := LoopConfig{Logger: logger, Tick: opts.Tick}
	if opts.Variant == Script {
		supervisor := action.NewSupervisor(action.SupervisorConfig{
			Stdout:  opts.Stdout,
			Stderr:  opts.Stderr,
			Logger:  logger,
			Metrics: actionMetrics,
		})
		dispatcher := action.NewDispatcher(opts.Script, supervisor, action.DispatcherConfig{
			Logger:  logger,
			Capture: capture,
			Metrics: actionMetrics,
		})
		engineConfig.Sink = action.NewSink(dispatcher, opts.Stderr)
		engineConfig.Requests = monitor.StringRequests
		loopConfig.Supervisor = supervisor
	}

	engine := monitor.NewEngine(t, engineConfig)
	loopConfig.Engine = engine

	for _, name := range opts.Names {
		// Failures are reported by the engine; the channel stays inactive.
		_ = engine.AddMonitor(name)
	}
	if opts.Debug {
		fmt.Fprintf(opts.Stdout, "pvcount = %d\n", engine.Registry().Len())
	}

	if opts.Variant == Dynamic {
		input := opts.Input
		if input == nil {
			input = monitor.NewReaderSource(os.Stdin)
		}
		loopConfig.Feed = monitor.NewFeed(engine, monitor.FeedConfig{Logger: logger, Capture: capture})
		loopConfig.Lines = loopConfig.Feed.RunSource(gctx, input)
	}

	loop := NewLoop(loopConfig)
	g.Go(func() error {
		return loop.Run(gctx)
	})

	err = g.Wait()
	if opts.Variant == Script {
		fmt.Fprintln(opts.Stdout, ExitBanner)
	}
	return err
}

func newClient(cfg *config.Config, logger *slog.Logger, capture log.Logger, m pvclient.Recorder) (*pvclient.Client, error) {
	var tlsConfig *tls.Config
	if cfg.Client.TLS.Enabled {
		var err error
		tlsConfig, err = transport.NewClientTLSConfig(cfg.Client.TLS.Files())
		if err != nil {
			return nil, fmt.Errorf("client tls: %w", err)
		}
	}
	return pvclient.New(pvclient.Config{
		Servers:        cfg.Client.Servers,
		TLS:            tlsConfig,
		ConnectTimeout: cfg.Client.ConnectTimeout,
		RequestTimeout: cfg.Client.RequestTimeout,
		SearchInterval: cfg.Client.SearchInterval,
		KeepAlive:      cfg.Client.KeepAlive.Transport(),
		Logger:         logger,
		Capture:        capture,
		Metrics:        m,
	}), nil
}

func openCapture(path string) (log.Logger, func(), error) {
	if path == "" {
		return nil, func() {}, nil
	}
	fl, err := log.NewFileLogger(path)
	if err != nil {
		return nil, nil, fmt.Errorf("capture: %w", err)
	}
	return fl, func() { _ = fl.Close() }, nil
}
