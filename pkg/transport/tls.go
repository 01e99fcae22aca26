package transport

import (
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"os"

	"github.com/pvmon/pvmon-go/pkg/version"
)

// DefaultPort is the default PV data server port.
const DefaultPort = 5075

// ErrNoCertificate is returned when a server TLS config lacks a key pair.
var ErrNoCertificate = errors.New("server certificate is required")

// TLSFiles names the PEM files used to build a TLS configuration.
type TLSFiles struct {
	CertFile string
	KeyFile  string
	CAFile   string

	// ServerName overrides the name checked against the server certificate.
	ServerName string

	// InsecureSkipVerify disables server certificate checks. Test use only.
	InsecureSkipVerify bool
}

// Enabled reports whether any TLS material is configured.
func (f TLSFiles) Enabled() bool {
	return f.CertFile != "" || f.CAFile != "" || f.InsecureSkipVerify
}

func loadPool(path string) (*x509.CertPool, error) {
	if path == "" {
		return nil, nil
	}
	pem, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read CA file: %w", err)
	}
	pool := x509.NewCertPool()
	if !pool.AppendCertsFromPEM(pem) {
		return nil, fmt.Errorf("no certificates in %s", path)
	}
	return pool, nil
}

// NewClientTLSConfig builds a TLS 1.3 client configuration. It returns nil
// when no TLS material is configured.
func NewClientTLSConfig(files TLSFiles) (*tls.Config, error) {
	if !files.Enabled() {
		return nil, nil
	}

	roots, err := loadPool(files.CAFile)
	if err != nil {
		return nil, err
	}

	conf := &tls.Config{
		MinVersion:         tls.VersionTLS13,
		RootCAs:            roots,
		ServerName:         files.ServerName,
		NextProtos:         version.SupportedALPNProtocols(),
		InsecureSkipVerify: files.InsecureSkipVerify,
	}
	if files.CertFile != "" {
		cert, err := tls.LoadX509KeyPair(files.CertFile, files.KeyFile)
		if err != nil {
			return nil, fmt.Errorf("load client key pair: %w", err)
		}
		conf.Certificates = []tls.Certificate{cert}
	}
	return conf, nil
}

// NewServerTLSConfig builds a TLS 1.3 server configuration. A CA file turns
// on mandatory client certificates.
func NewServerTLSConfig(files TLSFiles) (*tls.Config, error) {
	if files.CertFile == "" {
		return nil, ErrNoCertificate
	}
	cert, err := tls.LoadX509KeyPair(files.CertFile, files.KeyFile)
	if err != nil {
		return nil, fmt.Errorf("load server key pair: %w", err)
	}
	clientCAs, err := loadPool(files.CAFile)
	if err != nil {
		return nil, err
	}

	conf := &tls.Config{
		MinVersion:   tls.VersionTLS13,
		Certificates: []tls.Certificate{cert},
		NextProtos:   version.SupportedALPNProtocols(),
	}
	if clientCAs != nil {
		conf.ClientCAs = clientCAs
		conf.ClientAuth = tls.RequireAndVerifyClientCert
	}
	return conf, nil
}

// VerifyConnection checks the negotiated version and ALPN protocol.
func VerifyConnection(state tls.ConnectionState) error {
	if state.Version != tls.VersionTLS13 {
		return fmt.Errorf("TLS version %x is not TLS 1.3", state.Version)
	}
	major, err := version.MajorFromALPN(state.NegotiatedProtocol)
	if err != nil {
		return err
	}
	if !version.Current().Compatible(version.ProtocolVersion{Major: major}) {
		return fmt.Errorf("protocol major version %d not supported", major)
	}
	return nil
}
