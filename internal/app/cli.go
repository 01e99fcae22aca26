package app

import (
	"context"
	"flag"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/pvmon/pvmon-go/pkg/config"
)

// Flags are the command-line options shared by the monitor programs.
type Flags struct {
	ConfigPath  string
	Servers     string
	Discover    bool
	LogLevel    string
	Capture     string
	MetricsAddr string
	Debug       bool
	Version     bool
}

// Register adds the flags to fs.
func (f *Flags) Register(fs *flag.FlagSet) {
	fs.StringVar(&f.ConfigPath, "config", "", "Configuration file path")
	fs.StringVar(&f.Servers, "server", "", "Comma-separated PV server addresses (host[:port])")
	fs.BoolVar(&f.Discover, "discover", false, "Discover PV servers via mDNS")
	fs.StringVar(&f.LogLevel, "log-level", "", "Log level: debug, info, warn, error")
	fs.StringVar(&f.Capture, "capture", "", "Write a capture file of all events")
	fs.StringVar(&f.MetricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address")
	fs.BoolVar(&f.Debug, "debug", false, "Print debug traces")
	fs.BoolVar(&f.Version, "version", false, "Print version and exit")
	fs.BoolVar(&f.Version, "v", false, "Print version and exit")
}

// Load reads the configuration file and applies the flags set on fs over
// it.
func (f *Flags) Load(fs *flag.FlagSet) (*config.Config, error) {
	cfg, err := config.Load(f.ConfigPath)
	if err != nil {
		return nil, err
	}

	set := make(map[string]bool)
	fs.Visit(func(fl *flag.Flag) { set[fl.Name] = true })

	if set["server"] {
		cfg.Client.Servers = nil
		for _, s := range config.SplitList(f.Servers) {
			cfg.Client.Servers = append(cfg.Client.Servers, config.NormalizeAddr(s))
		}
	}
	if set["discover"] {
		cfg.Client.Discover = f.Discover
		if f.Discover && !set["server"] && f.ConfigPath == "" {
			// Only discovered servers unless some were named.
			cfg.Client.Servers = nil
		}
	}
	if set["log-level"] {
		cfg.Log.Level = f.LogLevel
	}
	if f.Debug {
		cfg.Log.Level = "debug"
	}
	if set["capture"] {
		cfg.Capture.Path = f.Capture
	}
	if set["metrics-addr"] {
		cfg.Metrics.Addr = f.MetricsAddr
	}
	return cfg, cfg.Validate()
}

// ExitCodes returns the exit codes from the configuration file named by the
// flags, or the defaults when it cannot be read.
func (f *Flags) ExitCodes() config.ExitCodes {
	if cfg, err := config.Load(f.ConfigPath); err == nil {
		return cfg.ExitCodes
	}
	return config.Default().ExitCodes
}

// NewLogger creates the operational text logger.
func NewLogger(w io.Writer, level string) (*slog.Logger, error) {
	lvl, err := config.ParseLevel(level)
	if err != nil {
		return nil, err
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: lvl})), nil
}

// NormalizeLegacyArgs rewrites the backslash spellings \debug, \v and
// \version and the lone "?" into their flag forms.
func NormalizeLegacyArgs(args []string) []string {
	out := make([]string, len(args))
	for i, a := range args {
		switch a {
		case `\debug`:
			a = "-debug"
		case `\v`:
			a = "-v"
		case `\version`:
			a = "-version"
		case "?":
			a = "-help"
		}
		out[i] = a
	}
	return out
}

// SignalContext returns a context cancelled by SIGINT, SIGTERM, SIGQUIT or
// SIGHUP.
func SignalContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM, syscall.SIGQUIT, syscall.SIGHUP)
}
