// Package config loads the YAML configuration shared by the pvmon
// programs. Command-line flags override file values after Load.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/pvmon/pvmon-go/pkg/monitor"
	"github.com/pvmon/pvmon-go/pkg/pvserver"
	"github.com/pvmon/pvmon-go/pkg/transport"
)

// ErrInvalid is wrapped by every validation error.
var ErrInvalid = errors.New("invalid configuration")

// DefaultServer is used when no server is configured and discovery is off.
const DefaultServer = "localhost:5075"

// Config is the root of the configuration file.
type Config struct {
	Log       LogConfig     `yaml:"log"`
	Client    ClientConfig  `yaml:"client"`
	Monitor   MonitorConfig `yaml:"monitor"`
	Script    ScriptConfig  `yaml:"script"`
	Metrics   MetricsConfig `yaml:"metrics"`
	Capture   CaptureConfig `yaml:"capture"`
	ExitCodes ExitCodes     `yaml:"exit_codes"`
	Server    ServerConfig  `yaml:"server"`
}

type LogConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `yaml:"level"`
}

// ClientConfig configures the connection to PV data servers.
type ClientConfig struct {
	Servers []string `yaml:"servers"`

	// Discover browses mDNS for servers in addition to Servers.
	Discover  bool   `yaml:"discover"`
	Interface string `yaml:"interface"`

	ConnectTimeout time.Duration   `yaml:"connect_timeout"`
	RequestTimeout time.Duration   `yaml:"request_timeout"`
	SearchInterval time.Duration   `yaml:"search_interval"`
	KeepAlive      KeepAliveConfig `yaml:"keep_alive"`
	TLS            TLSConfig       `yaml:"tls"`
}

type KeepAliveConfig struct {
	PingInterval   time.Duration `yaml:"ping_interval"`
	PongTimeout    time.Duration `yaml:"pong_timeout"`
	MaxMissedPongs int           `yaml:"max_missed_pongs"`
}

// Transport converts the section for the transport package.
func (k KeepAliveConfig) Transport() transport.KeepAliveConfig {
	return transport.KeepAliveConfig{
		PingInterval:   k.PingInterval,
		PongTimeout:    k.PongTimeout,
		MaxMissedPongs: k.MaxMissedPongs,
	}
}

// TLSConfig names certificate files. TLS is off unless Enabled is set.
type TLSConfig struct {
	Enabled            bool   `yaml:"enabled"`
	CertFile           string `yaml:"cert_file"`
	KeyFile            string `yaml:"key_file"`
	CAFile             string `yaml:"ca_file"`
	ServerName         string `yaml:"server_name"`
	InsecureSkipVerify bool   `yaml:"insecure_skip_verify"`
}

// Files converts the section for the transport package.
func (t TLSConfig) Files() transport.TLSFiles {
	return transport.TLSFiles{
		CertFile:           t.CertFile,
		KeyFile:            t.KeyFile,
		CAFile:             t.CAFile,
		ServerName:         t.ServerName,
		InsecureSkipVerify: t.InsecureSkipVerify,
	}
}

// MonitorConfig tunes the monitor engine.
type MonitorConfig struct {
	RegistryCapacity int           `yaml:"registry_capacity"`
	WaitForConnect   time.Duration `yaml:"wait_for_connect"`
	ExceptionLimit   int           `yaml:"exception_limit"`

	// Requests is "native" or "string".
	Requests string `yaml:"requests"`
}

// RequestPolicy returns the parsed Requests value.
func (m MonitorConfig) RequestPolicy() monitor.RequestPolicy {
	if m.Requests == "string" {
		return monitor.StringRequests
	}
	return monitor.NativeRequests
}

type ScriptConfig struct {
	Path string `yaml:"path"`
}

// MetricsConfig enables the Prometheus endpoint when Addr is set.
type MetricsConfig struct {
	Addr string `yaml:"addr"`
}

// CaptureConfig enables the event capture file when Path is set.
type CaptureConfig struct {
	Path string `yaml:"path"`
}

// ExitCodes are the process exit codes of the informational paths.
type ExitCodes struct {
	Help    int `yaml:"help"`
	Version int `yaml:"version"`
	Usage   int `yaml:"usage"`
}

// ServerConfig configures pvd-sim.
type ServerConfig struct {
	Listen      string                `yaml:"listen"`
	Advertise   bool                  `yaml:"advertise"`
	Name        string                `yaml:"name"`
	Description string                `yaml:"description"`
	Interface   string                `yaml:"interface"`
	TLS         TLSConfig             `yaml:"tls"`
	PVs         []pvserver.Definition `yaml:"pvs"`
}

var defaultExitCodes = ExitCodes{Help: 1, Version: 1, Usage: 1}

// Default returns a configuration with every default applied.
func Default() *Config {
	cfg := &Config{ExitCodes: defaultExitCodes}
	cfg.ApplyDefaults()
	return cfg
}

// Load reads and validates the file at path. An empty path yields the
// defaults.
func Load(path string) (*Config, error) {
	if path == "" {
		return Default(), nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg, err := Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes, defaults and validates raw YAML.
func Parse(raw []byte) (*Config, error) {
	// Exit codes keep their defaults unless the file sets them.
	cfg := Config{ExitCodes: defaultExitCodes}
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return nil, err
	}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// ApplyDefaults fills unset fields. Exit codes are not touched since zero
// is a valid code; Default and Parse seed them.
func (c *Config) ApplyDefaults() {
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}

	if len(c.Client.Servers) == 0 && !c.Client.Discover {
		c.Client.Servers = []string{DefaultServer}
	}
	for i, s := range c.Client.Servers {
		c.Client.Servers[i] = NormalizeAddr(s)
	}
	if c.Client.ConnectTimeout == 0 {
		c.Client.ConnectTimeout = transport.DefaultConnectTimeout
	}
	if c.Client.RequestTimeout == 0 {
		c.Client.RequestTimeout = 5 * time.Second
	}
	if c.Client.SearchInterval == 0 {
		c.Client.SearchInterval = time.Second
	}
	if c.Client.KeepAlive.PingInterval == 0 {
		c.Client.KeepAlive.PingInterval = transport.DefaultPingInterval
	}
	if c.Client.KeepAlive.PongTimeout == 0 {
		c.Client.KeepAlive.PongTimeout = transport.DefaultPongTimeout
	}
	if c.Client.KeepAlive.MaxMissedPongs == 0 {
		c.Client.KeepAlive.MaxMissedPongs = transport.DefaultMaxMissedPongs
	}

	if c.Monitor.RegistryCapacity == 0 {
		c.Monitor.RegistryCapacity = monitor.DefaultRegistryCapacity
	}
	if c.Monitor.WaitForConnect == 0 {
		c.Monitor.WaitForConnect = monitor.DefaultWaitForConnect
	}
	if c.Monitor.ExceptionLimit == 0 {
		c.Monitor.ExceptionLimit = monitor.DefaultExceptionLimit
	}
	if c.Monitor.Requests == "" {
		c.Monitor.Requests = "native"
	}

	if c.Server.Listen == "" {
		c.Server.Listen = ":" + strconv.Itoa(transport.DefaultPort)
	}
	if len(c.Server.PVs) == 0 {
		c.Server.PVs = pvserver.DefaultDefinitions()
	}
}

// Validate checks the configuration after defaults.
func (c *Config) Validate() error {
	if _, err := ParseLevel(c.Log.Level); err != nil {
		return err
	}
	for _, s := range c.Client.Servers {
		if _, _, err := net.SplitHostPort(s); err != nil {
			return fmt.Errorf("%w: client.servers: %q: %v", ErrInvalid, s, err)
		}
	}
	if c.Client.ConnectTimeout < 0 || c.Client.RequestTimeout < 0 || c.Client.SearchInterval < 0 {
		return fmt.Errorf("%w: client timeouts must not be negative", ErrInvalid)
	}
	if err := c.Client.TLS.validate("client.tls", false); err != nil {
		return err
	}

	if c.Monitor.RegistryCapacity < 0 {
		return fmt.Errorf("%w: monitor.registry_capacity must not be negative", ErrInvalid)
	}
	if c.Monitor.ExceptionLimit < 0 {
		return fmt.Errorf("%w: monitor.exception_limit must not be negative", ErrInvalid)
	}
	switch c.Monitor.Requests {
	case "native", "string":
	default:
		return fmt.Errorf("%w: monitor.requests: %q is not native or string", ErrInvalid, c.Monitor.Requests)
	}

	for name, code := range map[string]int{"help": c.ExitCodes.Help, "version": c.ExitCodes.Version, "usage": c.ExitCodes.Usage} {
		if code < 0 || code > 255 {
			return fmt.Errorf("%w: exit_codes.%s: %d out of range", ErrInvalid, name, code)
		}
	}

	if err := c.Server.TLS.validate("server.tls", true); err != nil {
		return err
	}
	seen := make(map[string]bool, len(c.Server.PVs))
	for i, d := range c.Server.PVs {
		if err := d.Validate(); err != nil {
			return fmt.Errorf("%w: server.pvs[%d]: %w", ErrInvalid, i, err)
		}
		if seen[d.Name] {
			return fmt.Errorf("%w: server.pvs[%d]: duplicate name %q", ErrInvalid, i, d.Name)
		}
		seen[d.Name] = true
	}
	return nil
}

func (t TLSConfig) validate(section string, needCert bool) error {
	if !t.Enabled {
		return nil
	}
	if (t.CertFile == "") != (t.KeyFile == "") {
		return fmt.Errorf("%w: %s: cert_file and key_file go together", ErrInvalid, section)
	}
	if needCert && t.CertFile == "" {
		return fmt.Errorf("%w: %s: cert_file is required", ErrInvalid, section)
	}
	return nil
}

// NormalizeAddr appends the default port to an address without one.
func NormalizeAddr(addr string) string {
	addr = strings.TrimSpace(addr)
	if _, _, err := net.SplitHostPort(addr); err == nil {
		return addr
	}
	return net.JoinHostPort(strings.Trim(addr, "[]"), strconv.Itoa(transport.DefaultPort))
}

// SplitList splits a comma-separated flag value, dropping empty items.
func SplitList(s string) []string {
	var out []string
	for _, item := range strings.Split(s, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

// ParseLevel parses a log level name.
func ParseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("%w: log.level: %q", ErrInvalid, s)
	}
	return level, nil
}
