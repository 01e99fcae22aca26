// Command pvmond monitors process variables that can be started and stopped
// at run time.
//
// Usage:
//
//	pvmond [flags] [PVname...]
//
// Each line read from standard input is a command:
//
//	<name> START   start monitoring <name>
//	<name> STOP    stop monitoring <name>
//
// A channel is only registered once it has connected. Flags are those of
// pvmon.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/chzyer/readline"

	"github.com/pvmon/pvmon-go/internal/app"
	"github.com/pvmon/pvmon-go/pkg/monitor"
	"github.com/pvmon/pvmon-go/pkg/version"
)

const usage = "Usage: pvmond [-debug|-v|-version|?] [flags] [PVname...]"

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	var f app.Flags
	fs := flag.NewFlagSet("pvmond", flag.ContinueOnError)
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
		fmt.Println(version.Banner("pvmond"))
		return f.ExitCodes().Version
	}

	cfg, err := f.Load(fs)
	if err != nil {
		fmt.Fprintf(os.Stderr, "pvmond: %v\n", err)
		return 1
	}

	ctx, stop := app.SignalContext(context.Background())
	defer stop()

	opts := app.Options{
		Variant: app.Dynamic,
		Config:  cfg,
		Names:   fs.Args(),
		Debug:   f.Debug,
	}

	var stderr io.Writer = os.Stderr
	if readline.IsTerminal(int(os.Stdin.Fd())) {
		src, err := newPromptSource(stop)
		if err != nil {
			fmt.Fprintf(os.Stderr, "pvmond: %v\n", err)
			return 1
		}
		defer src.Close()
		opts.Input = src
		opts.Stdout = src.rl.Stdout()
		stderr = src.rl.Stderr()
		opts.Stderr = stderr
	} else {
		opts.Input = monitor.NewReaderSource(os.Stdin)
	}

	logger, err := app.NewLogger(stderr, cfg.Log.Level)
	if err != nil {
		fmt.Fprintf(os.Stderr, "pvmond: %v\n", err)
		return 1
	}
	opts.Logger = logger

	if err := app.Run(ctx, opts); err != nil {
		logger.Error("monitor stopped", "error", err)
		return 1
	}
	return 0
}

// promptSource reads commands from an interactive terminal.
type promptSource struct {
	rl     *readline.Instance
	cancel context.CancelFunc
}

func newPromptSource(cancel context.CancelFunc) (*promptSource, error) {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "pvmond> ",
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create readline: %w", err)
	}
	return &promptSource{rl: rl, cancel: cancel}, nil
}

// ReadLine returns the next command. Ctrl-C stops the program since the
// terminal is in raw mode and no SIGINT is delivered.
func (p *promptSource) ReadLine() (string, error) {
	line, err := p.rl.Readline()
	if errors.Is(err, readline.ErrInterrupt) {
		p.cancel()
		return "", io.EOF
	}
	return line, err
}

func (p *promptSource) Close() error {
	return p.rl.Close()
}
