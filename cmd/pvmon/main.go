// Command pvmon prints every change of the process variables named on the
// command line.
//
// Usage:
//
//	pvmon [-debug|-v|-version|?] [flags] PVname...
//
// The legacy spellings \debug, \v and \version are accepted too.
//
// Flags:
//
//	-config string        Configuration file path
//	-server string        Comma-separated PV server addresses (host[:port])
//	-discover             Discover PV servers via mDNS
//	-log-level string     Log level: debug, info, warn, error
//	-capture string       Write a capture file of all events
//	-metrics-addr string  Serve Prometheus metrics on this address
//
// Example:
//
//	pvmon -server ioc1 sim:ramp sim:wave
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/pvmon/pvmon-go/internal/app"
	"github.com/pvmon/pvmon-go/pkg/version"
)

const usage = "Usage: pvmon [-debug|-v|-version|?] [flags] PVname..."

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	var f app.Flags
	fs := flag.NewFlagSet("pvmon", flag.ContinueOnError)
	f.Register(fs)
	fs.Usage = func() {
		fmt.Fprintln(fs.Output(), usage)
		fs.PrintDefaults()
	}

	if err := fs.Parse(app.NormalizeLegacyArgs(args)); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return f.ExitCodes().Help
		}
		return f.ExitCodes().Usage
	}
	if f.Version {
		fmt.Println(version.Banner("pvmon"))
		return f.ExitCodes().Version
	}
	if fs.NArg() == 0 {
		return 0
	}

	cfg, err := f.Load(fs)
	if err != nil {
		fmt.Fprintf(os.Stderr, "pvmon: %v\n", err)
		return 1
	}
	logger, err := app.NewLogger(os.Stderr, cfg.Log.Level)
	if err != nil {
		fmt.Fprintf(os.Stderr, "pvmon: %v\n", err)
		return 1
	}

	ctx, stop := app.SignalContext(context.Background())
	defer stop()

	err = app.Run(ctx, app.Options{
		Variant: app.Static,
		Config:  cfg,
		Names:   fs.Args(),
		Debug:   f.Debug,
		Logger:  logger,
	})
	if err != nil {
		logger.Error("monitor stopped", "error", err)
		return 1
	}
	return 0
}
