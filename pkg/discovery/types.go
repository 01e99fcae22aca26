package discovery

import (
	"errors"
	"net"
	"strconv"
	"time"
)

// Service constants.
const (
	// ServiceType is the DNS-SD service type of PV data servers.
	ServiceType = "_pvd._tcp"

	// Domain is the mDNS domain.
	Domain = "local."

	// BrowseTimeout bounds a one-shot browse.
	BrowseTimeout = 3 * time.Second

	// MaxInstanceNameLen is the DNS label limit.
	MaxInstanceNameLen = 63
)

// TXT record keys.
const (
	TXTKeyVersion     = "ver"
	TXTKeyPVCount     = "pvs"
	TXTKeyTLS         = "tls"
	TXTKeyDescription = "desc"
)

// Discovery errors.
var (
	ErrMissingRequired     = errors.New("missing required TXT record")
	ErrInvalidTXT          = errors.New("invalid TXT record value")
	ErrInvalidInstanceName = errors.New("invalid instance name")
	ErrNotAdvertising      = errors.New("not advertising")
)

// ServerInfo is what a server announces about itself.
type ServerInfo struct {
	// Name is the instance name. Defaults to the host name.
	Name string

	Port        int
	Version     string
	PVCount     int
	TLS         bool
	Description string
}

// Service is a discovered server.
type Service struct {
	Instance string
	Host     string
	Port     int

	// Addresses are the IPs seen for the instance, IPv4 first.
	Addresses []string

	Version     string
	PVCount     int
	TLS         bool
	Description string
}

// Addr returns a dialable host:port, preferring the first address.
func (s *Service) Addr() string {
	host := s.Host
	if len(s.Addresses) > 0 {
		host = s.Addresses[0]
	}
	return net.JoinHostPort(host, strconv.Itoa(s.Port))
}
