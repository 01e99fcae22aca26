package pvclient

import (
	"context"
	"errors"
	"io"
	"sync"
	"time"

	"github.com/pvmon/pvmon-go/pkg/connection"
	"github.com/pvmon/pvmon-go/pkg/transport"
	"github.com/pvmon/pvmon-go/pkg/wire"
)

// responseFunc receives the response to a request, or the error that
// ended it. It runs on the read goroutine or a timer.
type responseFunc func(env *wire.Envelope, err error)

type pendingRequest struct {
	fn    responseFunc
	timer *time.Timer
}

// session is the client side of one server connection.
type session struct {
	addr    string
	client  *Client
	manager *connection.Manager

	mu        sync.Mutex
	conn      *transport.Conn
	keepAlive *transport.KeepAlive
	nextMsg   uint32
	pending   map[uint32]*pendingRequest

	// bound maps server channel ids to channels. Guarded by Client.mu.
	bound map[uint32]*channel
}

func newSession(c *Client, addr string) *session {
	s := &session{
		addr:    addr,
		client:  c,
		pending: make(map[uint32]*pendingRequest),
		bound:   make(map[uint32]*channel),
	}
	s.manager = connection.NewManager(s.connect, connection.Config{
		Name:           addr,
		Backoff:        c.config.Backoff,
		AttemptTimeout: c.config.ConnectTimeout,
		Logger:         c.logger,
	})
	s.manager.OnConnected(s.connected)
	s.manager.OnDisconnected(func() {
		c.metrics.SessionChanged(addr, false)
	})
	return s
}

func (s *session) isUp() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn != nil
}

func (s *session) connect(ctx context.Context) error {
	conn, err := s.client.dialer.Dial(ctx, s.addr)
	if err != nil {
		return err
	}
	ka := transport.NewKeepAlive(s.client.config.KeepAlive, conn.SendPing, func() {
		s.lost(conn, errors.New("keep-alive timeout"))
	})

	s.mu.Lock()
	s.conn = conn
	s.keepAlive = ka
	s.mu.Unlock()

	s.client.wg.Add(1)
	go func() {
		defer s.client.wg.Done()
		s.readLoop(conn, ka)
	}()
	ka.Start(s.client.ctx)
	return nil
}

// connected runs once the manager reports the session up.
func (s *session) connected() {
	if !s.isUp() {
		// Lost before the manager noticed; start over.
		s.manager.NotifyConnectionLost()
		return
	}
	s.client.logger.Info("server session up", "server", s.addr)
	s.client.metrics.SessionChanged(s.addr, true)
	s.client.captureSession(s.addr, "CONNECTING", "CONNECTED", "")
	s.client.kickSearch()
}

func (s *session) readLoop(conn *transport.Conn, ka *transport.KeepAlive) {
	for {
		env, err := conn.Receive(0)
		if err != nil {
			s.lost(conn, err)
			return
		}

		switch env.Kind {
		case wire.KindControl:
			switch env.Control() {
			case wire.ControlPing:
				_ = conn.SendPong(env.MessageID)
			case wire.ControlPong:
				ka.PongReceived(env.MessageID)
			case wire.ControlClose:
				s.lost(conn, io.EOF)
				return
			}
		case wire.KindResponse:
			s.complete(env)
		case wire.KindEvent:
			s.client.handleEvent(s, env)
		default:
			s.client.logger.Debug("unexpected message", "server", s.addr, "message", env)
		}
	}
}

// lost tears down conn if it is still the current connection.
func (s *session) lost(conn *transport.Conn, cause error) {
	s.mu.Lock()
	if s.conn != conn {
		s.mu.Unlock()
		return
	}
	s.conn = nil
	ka := s.keepAlive
	s.keepAlive = nil
	pending := s.pending
	s.pending = make(map[uint32]*pendingRequest)
	s.mu.Unlock()

	ka.Stop()
	conn.Close()

	reason := "closed"
	if cause != nil && !errors.Is(cause, io.EOF) {
		reason = cause.Error()
	}
	if s.client.ctx.Err() == nil {
		s.client.logger.Warn("server session lost", "server", s.addr, "reason", reason)
	}
	s.client.captureSession(s.addr, "CONNECTED", "DISCONNECTED", reason)

	for _, p := range pending {
		p.timer.Stop()
		if p.fn != nil {
			p.fn(nil, ErrSessionLost)
		}
	}
	s.client.sessionLost(s)
	s.manager.NotifyConnectionLost()
}

// request sends a request and arranges for fn to see its outcome exactly
// once. fn may be nil. An error means the request was not sent and fn will
// not be called.
func (s *session) request(op wire.Operation, channelID uint32, body any, fn responseFunc) error {
	s.mu.Lock()
	conn := s.conn
	if conn == nil {
		s.mu.Unlock()
		return ErrSessionLost
	}
	s.nextMsg++
	if s.nextMsg == 0 {
		s.nextMsg = 1
	}
	id := s.nextMsg
	env, err := wire.NewRequest(id, op, channelID, body)
	if err != nil {
		s.mu.Unlock()
		return err
	}
	p := &pendingRequest{fn: fn}
	p.timer = time.AfterFunc(s.client.config.RequestTimeout, func() {
		s.expire(id)
	})
	s.pending[id] = p
	s.mu.Unlock()

	if err := conn.Send(env); err != nil {
		s.mu.Lock()
		delete(s.pending, id)
		s.mu.Unlock()
		p.timer.Stop()
		return err
	}
	return nil
}

func (s *session) take(id uint32) *pendingRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.pending[id]
	if !ok {
		return nil
	}
	delete(s.pending, id)
	return p
}

func (s *session) complete(env *wire.Envelope) {
	p := s.take(env.MessageID)
	if p == nil {
		s.client.logger.Debug("response without request", "server", s.addr, "message", env)
		return
	}
	p.timer.Stop()
	if p.fn != nil {
		p.fn(env, nil)
	}
}

func (s *session) expire(id uint32) {
	p := s.take(id)
	if p == nil {
		return
	}
	s.client.metrics.RequestTimedOut()
	if p.fn != nil {
		p.fn(nil, ErrTimeout)
	}
}

func (s *session) close() {
	s.manager.Close()

	s.mu.Lock()
	conn := s.conn
	s.mu.Unlock()
	if conn != nil {
		_ = conn.SendClose()
		s.lost(conn, io.EOF)
	}
}

// responseError converts a failed response into an error.
func responseError(env *wire.Envelope) error {
	if env.Status().IsSuccess() {
		return nil
	}
	var body wire.ErrorBody
	_ = wire.DecodeBody(env, &body)
	if body.Message == "" {
		return &StatusError{Status: env.Status()}
	}
	return &StatusError{Status: env.Status(), Message: body.Message}
}

// StatusError is a failed response.
type StatusError struct {
	Status  wire.Status
	Message string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return ErrRequestFailed.Error() + ": " + e.Status.String()
	}
	return ErrRequestFailed.Error() + ": " + e.Status.String() + ": " + e.Message
}

// Is matches ErrRequestFailed.
func (e *StatusError) Is(target error) bool {
	return target == ErrRequestFailed
}
