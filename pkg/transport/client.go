package transport

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"time"

	"github.com/pvmon/pvmon-go/pkg/log"
)

// DefaultConnectTimeout bounds a dial when the context has no deadline.
const DefaultConnectTimeout = 5 * time.Second

// ClientConfig configures a Dialer.
type ClientConfig struct {
	// TLS enables TLS when non-nil.
	TLS *tls.Config

	MaxMessageSize uint32
	ConnectTimeout time.Duration

	// Capture receives frame and envelope events (optional).
	Capture log.Logger
}

// Dialer opens client connections to PV data servers.
type Dialer struct {
	config ClientConfig
}

// NewDialer creates a dialer.
func NewDialer(config ClientConfig) *Dialer {
	if config.MaxMessageSize == 0 {
		config.MaxMessageSize = DefaultMaxMessageSize
	}
	if config.ConnectTimeout == 0 {
		config.ConnectTimeout = DefaultConnectTimeout
	}
	return &Dialer{config: config}
}

// Dial connects to address, performing the TLS handshake when configured.
func (d *Dialer) Dial(ctx context.Context, address string) (*Conn, error) {
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.config.ConnectTimeout)
		defer cancel()
	}

	var nd net.Dialer
	nc, err := nd.DialContext(ctx, "tcp", address)
	if err != nil {
		return nil, fmt.Errorf("dial failed: %w", err)
	}

	if d.config.TLS != nil {
		tc := tls.Client(nc, d.config.TLS)
		if err := tc.HandshakeContext(ctx); err != nil {
			nc.Close()
			return nil, fmt.Errorf("TLS handshake failed: %w", err)
		}
		if err := VerifyConnection(tc.ConnectionState()); err != nil {
			tc.Close()
			return nil, fmt.Errorf("connection verification failed: %w", err)
		}
		nc = tc
	}

	return newConn(nc, d.config.MaxMessageSize, d.config.Capture), nil
}
