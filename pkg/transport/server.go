package transport

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/pvmon/pvmon-go/pkg/log"
	"github.com/pvmon/pvmon-go/pkg/wire"
)

// ErrServerRunning is returned by Start on a running server.
var ErrServerRunning = errors.New("server already running")

// ServerConfig configures a Server.
type ServerConfig struct {
	// Address to listen on, e.g. ":5075" or "127.0.0.1:0".
	Address string

	// TLS enables TLS when non-nil.
	TLS *tls.Config

	MaxMessageSize uint32

	Logger  *slog.Logger
	Capture log.Logger

	// OnConnect is called after a connection is accepted.
	OnConnect func(conn *Conn)

	// OnDisconnect is called once the read loop ends.
	OnDisconnect func(conn *Conn)

	// OnMessage receives every non-control envelope, on the connection's
	// read goroutine.
	OnMessage func(conn *Conn, env *wire.Envelope)
}

// Server accepts client connections and answers keep-alive pings.
type Server struct {
	config   ServerConfig
	logger   *slog.Logger
	listener net.Listener

	connsMu sync.RWMutex
	conns   map[*Conn]struct{}

	running atomic.Bool
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// NewServer creates a server.
func NewServer(config ServerConfig) *Server {
	if config.Address == "" {
		config.Address = fmt.Sprintf(":%d", DefaultPort)
	}
	if config.MaxMessageSize == 0 {
		config.MaxMessageSize = DefaultMaxMessageSize
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		config: config,
		logger: logger,
		conns:  make(map[*Conn]struct{}),
	}
}

// Start listens and begins accepting connections.
func (s *Server) Start(ctx context.Context) error {
	if s.running.Load() {
		return ErrServerRunning
	}

	ln, err := net.Listen("tcp", s.config.Address)
	if err != nil {
		return fmt.Errorf("failed to listen: %w", err)
	}
	if s.config.TLS != nil {
		ln = tls.NewListener(ln, s.config.TLS)
	}
	s.listener = ln
	s.ctx, s.cancel = context.WithCancel(ctx)
	s.running.Store(true)

	s.wg.Add(1)
	go s.acceptLoop()
	return nil
}

// Stop closes the listener and every connection, then waits for the
// connection goroutines.
func (s *Server) Stop() error {
	if !s.running.Swap(false) {
		return nil
	}
	s.cancel()
	s.listener.Close()

	s.connsMu.Lock()
	for c := range s.conns {
		_ = c.SendClose()
		c.Close()
	}
	s.connsMu.Unlock()

	s.wg.Wait()
	return nil
}

// Addr returns the listen address.
func (s *Server) Addr() net.Addr {
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// ConnectionCount returns the number of open connections.
func (s *Server) ConnectionCount() int {
	s.connsMu.RLock()
	defer s.connsMu.RUnlock()
	return len(s.conns)
}

// Broadcast sends env to every open connection.
func (s *Server) Broadcast(env *wire.Envelope) {
	s.connsMu.RLock()
	defer s.connsMu.RUnlock()
	for c := range s.conns {
		_ = c.Send(env)
	}
}

func (s *Server) acceptLoop() {
	defer s.wg.Done()

	for {
		nc, err := s.listener.Accept()
		if err != nil {
			if !s.running.Load() {
				return
			}
			s.logger.Warn("accept failed", "error", err)
			select {
			case <-s.ctx.Done():
				return
			case <-time.After(50 * time.Millisecond):
			}
			continue
		}

		s.wg.Add(1)
		go s.serve(nc)
	}
}

func (s *Server) serve(nc net.Conn) {
	defer s.wg.Done()

	if tc, ok := nc.(*tls.Conn); ok {
		if err := tc.HandshakeContext(s.ctx); err != nil {
			s.logger.Warn("TLS handshake failed", "remote", nc.RemoteAddr(), "error", err)
			nc.Close()
			return
		}
		if err := VerifyConnection(tc.ConnectionState()); err != nil {
			s.logger.Warn("connection rejected", "remote", nc.RemoteAddr(), "error", err)
			nc.Close()
			return
		}
	}

	conn := newConn(nc, s.config.MaxMessageSize, s.config.Capture)
	s.recordState(conn, "", "CONNECTED")

	s.connsMu.Lock()
	s.conns[conn] = struct{}{}
	s.connsMu.Unlock()

	if s.config.OnConnect != nil {
		s.config.OnConnect(conn)
	}

	s.readLoop(conn)

	s.connsMu.Lock()
	delete(s.conns, conn)
	s.connsMu.Unlock()

	conn.Close()
	s.recordState(conn, "CONNECTED", "DISCONNECTED")
	if s.config.OnDisconnect != nil {
		s.config.OnDisconnect(conn)
	}
}

func (s *Server) readLoop(conn *Conn) {
	for {
		env, err := conn.Receive(0)
		if err != nil {
			if s.running.Load() && !conn.IsClosed() && !errors.Is(err, io.EOF) {
				s.logger.Debug("connection read failed", "session", conn.ID(), "error", err)
			}
			return
		}

		if env.Kind == wire.KindControl {
			switch env.Control() {
			case wire.ControlPing:
				_ = conn.SendPong(env.MessageID)
			case wire.ControlClose:
				_ = conn.SendClose()
				return
			}
			continue
		}

		if s.config.OnMessage != nil {
			s.config.OnMessage(conn, env)
		}
	}
}

func (s *Server) recordState(conn *Conn, oldState, newState string) {
	if s.config.Capture == nil {
		return
	}
	s.config.Capture.Log(log.Event{
		Timestamp:  time.Now(),
		SessionID:  conn.ID(),
		Layer:      log.LayerTransport,
		Category:   log.CategoryState,
		RemoteAddr: conn.RemoteAddr().String(),
		State: &log.StateChangeEvent{
			Entity:   log.StateEntitySession,
			OldState: oldState,
			NewState: newState,
		},
	})
}
