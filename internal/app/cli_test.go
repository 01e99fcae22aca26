package app

import (
	"bytes"
	"flag"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pvmon/pvmon-go/pkg/config"
)

func parseFlags(t *testing.T, args ...string) (*Flags, *flag.FlagSet) {
	t.Helper()
	var f Flags
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	fs.SetOutput(&bytes.Buffer{})
	f.Register(fs)
	if err := fs.Parse(NormalizeLegacyArgs(args)); err != nil {
		t.Fatalf("Parse: %v", err)
	}
	return &f, fs
}

func TestNormalizeLegacyArgs(t *testing.T) {
	got := NormalizeLegacyArgs([]string{`\debug`, `\v`, `\version`, "?", "pv:a", "-x"})
	want := []string{"-debug", "-v", "-version", "-help", "pv:a", "-x"}
	if strings.Join(got, " ") != strings.Join(want, " ") {
		t.Errorf("NormalizeLegacyArgs = %v, want %v", got, want)
	}
}

func TestFlagsLegacyVersion(t *testing.T) {
	f, _ := parseFlags(t, `\v`)
	if !f.Version {
		t.Error(`\v did not set Version`)
	}
	f, fs := parseFlags(t, `\debug`, "a", "b")
	if !f.Debug || fs.NArg() != 2 {
		t.Errorf("Debug = %v, NArg = %d", f.Debug, fs.NArg())
	}
}

func TestFlagsHelp(t *testing.T) {
	var f Flags
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	fs.SetOutput(&bytes.Buffer{})
	f.Register(fs)
	if err := fs.Parse(NormalizeLegacyArgs([]string{"?"})); err != flag.ErrHelp {
		t.Errorf("Parse(?) = %v, want ErrHelp", err)
	}
}

func TestFlagsLoadOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pvmon.yaml")
	data := "client:\n  servers: [a]\nmetrics:\n  addr: \":9100\"\nexit_codes:\n  version: 0\n"
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatal(err)
	}

	f, fs := parseFlags(t, "-config", path, "-server", "b, c:7000", "-debug", "-capture", "x.pvlog")
	cfg, err := f.Load(fs)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if strings.Join(cfg.Client.Servers, ",") != "b:5075,c:7000" {
		t.Errorf("Servers = %v", cfg.Client.Servers)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("Level = %q", cfg.Log.Level)
	}
	if cfg.Capture.Path != "x.pvlog" || cfg.Metrics.Addr != ":9100" {
		t.Errorf("Capture = %q Metrics = %q", cfg.Capture.Path, cfg.Metrics.Addr)
	}
	if f.ExitCodes().Version != 0 {
		t.Errorf("ExitCodes = %+v", f.ExitCodes())
	}
}

func TestFlagsDiscoverOnly(t *testing.T) {
	f, fs := parseFlags(t, "-discover")
	cfg, err := f.Load(fs)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !cfg.Client.Discover || len(cfg.Client.Servers) != 0 {
		t.Errorf("Discover = %v Servers = %v", cfg.Client.Discover, cfg.Client.Servers)
	}
}

func TestFlagsExitCodesDefault(t *testing.T) {
	f, _ := parseFlags(t, "-config", filepath.Join(t.TempDir(), "missing.yaml"))
	if f.ExitCodes() != config.Default().ExitCodes {
		t.Errorf("ExitCodes = %+v", f.ExitCodes())
	}
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	logger, err := NewLogger(&buf, "warn")
	if err != nil {
		t.Fatalf("NewLogger: %v", err)
	}
	logger.Info("hidden")
	logger.Warn("shown")
	if strings.Contains(buf.String(), "hidden") || !strings.Contains(buf.String(), "shown") {
		t.Errorf("output = %q", buf.String())
	}
	if _, err := NewLogger(&buf, "chatty"); err == nil {
		t.Error("expected error for bad level")
	}
}
