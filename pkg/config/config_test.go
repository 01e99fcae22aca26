package config

import (
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/pvmon/pvmon-go/pkg/monitor"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if len(cfg.Client.Servers) != 1 || cfg.Client.Servers[0] != DefaultServer {
		t.Errorf("Servers = %v, want [%s]", cfg.Client.Servers, DefaultServer)
	}
	if cfg.Monitor.RegistryCapacity != monitor.DefaultRegistryCapacity {
		t.Errorf("RegistryCapacity = %d", cfg.Monitor.RegistryCapacity)
	}
	if cfg.Monitor.ExceptionLimit != monitor.DefaultExceptionLimit {
		t.Errorf("ExceptionLimit = %d", cfg.Monitor.ExceptionLimit)
	}
	if cfg.ExitCodes != (ExitCodes{Help: 1, Version: 1, Usage: 1}) {
		t.Errorf("ExitCodes = %+v", cfg.ExitCodes)
	}
	if cfg.Server.Listen != ":5075" {
		t.Errorf("Listen = %q", cfg.Server.Listen)
	}
	if len(cfg.Server.PVs) == 0 {
		t.Error("no default PVs")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}
}

func TestParse(t *testing.T) {
	raw := []byte(`
log:
  level: debug
client:
  servers: [ioc1, "ioc2:6000"]
  search_interval: 250ms
  keep_alive:
    ping_interval: 2s
monitor:
  wait_for_connect: 500ms
  requests: string
exit_codes:
  help: 0
  version: 0
  usage: 2
metrics:
  addr: ":9100"
server:
  pvs:
    - name: test:ai
      type: double
      sim: ramp
      max: 10
`)
	cfg, err := Parse(raw)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	want := []string{"ioc1:5075", "ioc2:6000"}
	if len(cfg.Client.Servers) != 2 || cfg.Client.Servers[0] != want[0] || cfg.Client.Servers[1] != want[1] {
		t.Errorf("Servers = %v, want %v", cfg.Client.Servers, want)
	}
	if cfg.Client.SearchInterval != 250*time.Millisecond {
		t.Errorf("SearchInterval = %v", cfg.Client.SearchInterval)
	}
	ka := cfg.Client.KeepAlive.Transport()
	if ka.PingInterval != 2*time.Second || ka.MaxMissedPongs == 0 {
		t.Errorf("KeepAlive = %+v", ka)
	}
	if cfg.Monitor.WaitForConnect != 500*time.Millisecond {
		t.Errorf("WaitForConnect = %v", cfg.Monitor.WaitForConnect)
	}
	if cfg.Monitor.RequestPolicy() != monitor.StringRequests {
		t.Errorf("RequestPolicy = %v", cfg.Monitor.RequestPolicy())
	}
	if cfg.ExitCodes != (ExitCodes{Help: 0, Version: 0, Usage: 2}) {
		t.Errorf("ExitCodes = %+v", cfg.ExitCodes)
	}
	if cfg.Metrics.Addr != ":9100" {
		t.Errorf("Metrics.Addr = %q", cfg.Metrics.Addr)
	}
	if len(cfg.Server.PVs) != 1 || cfg.Server.PVs[0].Name != "test:ai" {
		t.Errorf("PVs = %+v", cfg.Server.PVs)
	}
}

func TestParseDiscoverOnly(t *testing.T) {
	cfg, err := Parse([]byte("client:\n  discover: true\n"))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(cfg.Client.Servers) != 0 {
		t.Errorf("Servers = %v, want none with discovery", cfg.Client.Servers)
	}
}

func TestValidateErrors(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"level", "log:\n  level: loud\n"},
		{"requests", "monitor:\n  requests: binary\n"},
		{"capacity", "monitor:\n  registry_capacity: -1\n"},
		{"exit code", "exit_codes:\n  usage: 300\n"},
		{"client tls", "client:\n  tls:\n    enabled: true\n    cert_file: a.pem\n"},
		{"server tls", "server:\n  tls:\n    enabled: true\n"},
		{"pv type", "server:\n  pvs:\n    - name: x\n      type: blob\n"},
		{"pv duplicate", "server:\n  pvs:\n    - name: x\n    - name: x\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			if !errors.Is(err, ErrInvalid) {
				t.Errorf("Parse = %v, want ErrInvalid", err)
			}
		})
	}
}

func TestLoad(t *testing.T) {
	cfg, err := Load("")
	if err != nil || cfg == nil {
		t.Fatalf("Load(\"\") = %v, %v", cfg, err)
	}

	path := filepath.Join(t.TempDir(), "pvmon.yaml")
	if err := os.WriteFile(path, []byte("capture:\n  path: /tmp/x.pvlog\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	cfg, err = Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Capture.Path != "/tmp/x.pvlog" {
		t.Errorf("Capture.Path = %q", cfg.Capture.Path)
	}

	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("Load(missing) = %v", err)
	}
}

func TestHelpers(t *testing.T) {
	if got := NormalizeAddr(" 10.0.0.1 "); got != "10.0.0.1:5075" {
		t.Errorf("NormalizeAddr = %q", got)
	}
	if got := NormalizeAddr("::1"); got != "[::1]:5075" {
		t.Errorf("NormalizeAddr(::1) = %q", got)
	}
	if got := SplitList("a, b,,c "); len(got) != 3 || got[2] != "c" {
		t.Errorf("SplitList = %v", got)
	}
	if lvl, err := ParseLevel("warn"); err != nil || lvl != slog.LevelWarn {
		t.Errorf("ParseLevel = %v, %v", lvl, err)
	}
}
