// Command pvscript runs a program every time a process variable takes a
// new value.
//
// Usage:
//
//	pvscript PV_to_monitor script_to_run
//
// The script is started as "user_script <PV name> <value>" and not waited
// for. Consecutive identical values run it once. Connection settings come
// from the configuration file named by $PVMON_CONFIG, if set.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/pvmon/pvmon-go/internal/app"
	"github.com/pvmon/pvmon-go/pkg/action"
	"github.com/pvmon/pvmon-go/pkg/config"
)

// ConfigEnv names the configuration file.
const ConfigEnv = "PVMON_CONFIG"

func main() {
	os.Exit(run(os.Args))
}

func run(argv []string) int {
	cfg, err := config.Load(os.Getenv(ConfigEnv))
	if err != nil {
		fmt.Fprintf(os.Stderr, "pvscript: %v\n", err)
		return 1
	}

	if len(argv) != 3 {
		fmt.Fprintf(os.Stderr, "Usage: %s PV_to_monitor script_to_run\n", argv[0])
		return cfg.ExitCodes.Usage
	}
	name, script := argv[1], argv[2]

	if err := action.CheckExecutable(script); err != nil {
		fmt.Fprintf(os.Stderr, "Script %s: %v\n", script, err)
		return 1
	}

	logger, err := app.NewLogger(os.Stderr, cfg.Log.Level)
	if err != nil {
		fmt.Fprintf(os.Stderr, "pvscript: %v\n", err)
		return 1
	}

	ctx, stop := app.SignalContext(context.Background())
	defer stop()

	err = app.Run(ctx, app.Options{
		Variant: app.Script,
		Config:  cfg,
		Names:   []string{name},
		Script:  script,
		Logger:  logger,
	})
	if err != nil {
		logger.Error("monitor stopped", "error", err)
		return 1
	}
	return 0
}
