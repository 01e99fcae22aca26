// Command pvd-sim is a PV data server with simulated process variables,
// for trying out the monitor programs without a control system.
//
// Usage:
//
//	pvd-sim [flags]
//
// Flags:
//
//	-config string        Configuration file path (server.pvs defines the PVs)
//	-listen string        Listen address (default ":5075")
//	-advertise            Announce the server via mDNS
//	-name string          mDNS instance name (default: host name)
//	-log-level string     Log level: debug, info, warn, error
//	-capture string       Write a capture file of all server traffic
//	-metrics-addr string  Serve Prometheus metrics on this address
//
// Without a configuration file a default set of ramps, waves, counters,
// toggling enums and arrays is served under the "sim:" prefix.
package main

import (
	"context"
	"crypto/tls"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/pvmon/pvmon-go/internal/app"
	"github.com/pvmon/pvmon-go/pkg/config"
	"github.com/pvmon/pvmon-go/pkg/discovery"
	"github.com/pvmon/pvmon-go/pkg/log"
	"github.com/pvmon/pvmon-go/pkg/metrics"
	"github.com/pvmon/pvmon-go/pkg/pvserver"
	"github.com/pvmon/pvmon-go/pkg/transport"
	"github.com/pvmon/pvmon-go/pkg/version"
)

var (
	configPath  = flag.String("config", "", "Configuration file path")
	listen      = flag.String("listen", "", "Listen address")
	advertise   = flag.Bool("advertise", false, "Announce the server via mDNS")
	name        = flag.String("name", "", "mDNS instance name")
	logLevel    = flag.String("log-level", "", "Log level: debug, info, warn, error")
	capturePath = flag.String("capture", "", "Write a capture file of all server traffic")
	metricsAddr = flag.String("metrics-addr", "", "Serve Prometheus metrics on this address")
	showVersion = flag.Bool("version", false, "Print version and exit")
)

func main() {
	flag.Parse()

	if *showVersion {
		fmt.Println(version.Banner("pvd-sim"))
		return
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "pvd-sim: %v\n", err)
		os.Exit(1)
	}
	applyFlags(cfg)

	logger, err := app.NewLogger(os.Stderr, cfg.Log.Level)
	if err != nil {
		fmt.Fprintf(os.Stderr, "pvd-sim: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := app.SignalContext(context.Background())
	defer stop()

	if err := serve(ctx, cfg, logger); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("server stopped", "error", err)
		os.Exit(1)
	}
	logger.Info("server stopped")
}

func applyFlags(cfg *config.Config) {
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "listen":
			cfg.Server.Listen = *listen
		case "advertise":
			cfg.Server.Advertise = *advertise
		case "name":
			cfg.Server.Name = *name
		case "log-level":
			cfg.Log.Level = *logLevel
		case "capture":
			cfg.Capture.Path = *capturePath
		case "metrics-addr":
			cfg.Metrics.Addr = *metricsAddr
		}
	})
}

func serve(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	var tlsConfig *tls.Config
	if cfg.Server.TLS.Enabled {
		var err error
		if tlsConfig, err = transport.NewServerTLSConfig(cfg.Server.TLS.Files()); err != nil {
			return fmt.Errorf("server tls: %w", err)
		}
	}

	var capture log.Logger
	if cfg.Capture.Path != "" {
		fl, err := log.NewFileLogger(cfg.Capture.Path)
		if err != nil {
			return err
		}
		defer fl.Close()
		capture = fl
	}

	var recorder pvserver.Recorder
	if cfg.Metrics.Addr != "" {
		m := metrics.New()
		ms := metrics.NewServer(cfg.Metrics.Addr, m, logger)
		if err := ms.Start(); err != nil {
			return fmt.Errorf("metrics: %w", err)
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Second)
			defer cancel()
			_ = ms.Shutdown(shutdownCtx)
		}()
		recorder = m
	}

	srv := pvserver.New(pvserver.Config{
		Address: cfg.Server.Listen,
		TLS:     tlsConfig,
		Logger:  logger,
		Capture: capture,
		Metrics: recorder,
	})
	sim, err := pvserver.NewSimulator(srv, cfg.Server.PVs, logger)
	if err != nil {
		return err
	}
	if err := srv.Start(ctx); err != nil {
		return fmt.Errorf("start server: %w", err)
	}
	defer srv.Stop()
	logger.Info("serving", "address", srv.Addr().String(), "pvs", srv.Len(), "version", version.Release)

	if cfg.Server.Advertise {
		adv := discovery.NewAdvertiser(discovery.AdvertiserConfig{Interface: cfg.Server.Interface})
		info := &discovery.ServerInfo{
			Name:        cfg.Server.Name,
			Port:        srv.Port(),
			Version:     version.Protocol,
			PVCount:     srv.Len(),
			TLS:         tlsConfig != nil,
			Description: cfg.Server.Description,
		}
		if err := adv.Advertise(info); err != nil {
			return fmt.Errorf("advertise: %w", err)
		}
		defer adv.Stop()
		logger.Info("advertising", "service", discovery.ServiceType, "port", info.Port)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return sim.Run(gctx)
	})
	return g.Wait()
}
