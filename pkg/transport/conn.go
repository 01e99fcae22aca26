package transport

import (
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/pvmon/pvmon-go/pkg/log"
	"github.com/pvmon/pvmon-go/pkg/wire"
)

// ErrConnectionClosed is returned for I/O on a closed Conn.
var ErrConnectionClosed = errors.New("connection closed")

// Conn is one framed envelope stream, client or server side.
type Conn struct {
	nc      net.Conn
	framer  *Framer
	id      string
	capture log.Logger

	closeOnce sync.Once
	closeCh   chan struct{}
}

func newConn(nc net.Conn, maxSize uint32, capture log.Logger) *Conn {
	c := &Conn{
		nc:      nc,
		framer:  NewFramerWithMaxSize(nc, maxSize),
		id:      uuid.New().String(),
		capture: capture,
		closeCh: make(chan struct{}),
	}
	if capture != nil {
		c.framer.SetCapture(capture, c.id)
	}
	return c
}

// NewConn wraps an established net.Conn, e.g. one side of net.Pipe.
func NewConn(nc net.Conn, capture log.Logger) *Conn {
	return newConn(nc, DefaultMaxMessageSize, capture)
}

// ID returns the session identifier used in capture events.
func (c *Conn) ID() string { return c.id }

// RemoteAddr returns the peer address.
func (c *Conn) RemoteAddr() net.Addr { return c.nc.RemoteAddr() }

// LocalAddr returns the local address.
func (c *Conn) LocalAddr() net.Addr { return c.nc.LocalAddr() }

// Done is closed when the connection is closed.
func (c *Conn) Done() <-chan struct{} { return c.closeCh }

// Send encodes and writes an envelope.
func (c *Conn) Send(env *wire.Envelope) error {
	select {
	case <-c.closeCh:
		return ErrConnectionClosed
	default:
	}

	data, err := wire.Encode(env)
	if err != nil {
		return err
	}
	if err := c.framer.WriteFrame(data); err != nil {
		return err
	}
	c.recordEnvelope(env, log.DirectionOut)
	return nil
}

// Receive reads the next envelope. A zero timeout blocks indefinitely.
func (c *Conn) Receive(timeout time.Duration) (*wire.Envelope, error) {
	select {
	case <-c.closeCh:
		return nil, ErrConnectionClosed
	default:
	}

	if timeout > 0 {
		_ = c.nc.SetReadDeadline(time.Now().Add(timeout))
		defer c.nc.SetReadDeadline(time.Time{})
	}

	data, err := c.framer.ReadFrame()
	if err != nil {
		return nil, err
	}
	env, err := wire.Decode(data)
	if err != nil {
		return nil, err
	}
	c.recordEnvelope(env, log.DirectionIn)
	return env, nil
}

// SendPing sends a ping with the given sequence.
func (c *Conn) SendPing(seq uint32) error {
	return c.Send(wire.NewControl(wire.ControlPing, seq))
}

// SendPong answers a ping.
func (c *Conn) SendPong(seq uint32) error {
	return c.Send(wire.NewControl(wire.ControlPong, seq))
}

// SendClose announces a graceful close.
func (c *Conn) SendClose() error {
	return c.Send(wire.NewControl(wire.ControlClose, 0))
}

// Close closes the connection. It is safe to call more than once.
func (c *Conn) Close() error {
	var err error
	c.closeOnce.Do(func() {
		close(c.closeCh)
		err = c.nc.Close()
	})
	return err
}

// IsClosed reports whether Close has been called.
func (c *Conn) IsClosed() bool {
	select {
	case <-c.closeCh:
		return true
	default:
		return false
	}
}

func (c *Conn) recordEnvelope(env *wire.Envelope, dir log.Direction) {
	if c.capture == nil {
		return
	}
	ev := log.Event{
		Timestamp:  time.Now(),
		SessionID:  c.id,
		Direction:  dir,
		Layer:      log.LayerWire,
		RemoteAddr: c.nc.RemoteAddr().String(),
	}
	if env.Kind == wire.KindControl {
		ev.Category = log.CategoryControl
		ev.Control = &log.ControlEvent{Type: env.Control().String(), Sequence: env.MessageID}
	} else {
		ev.Category = log.CategoryMessage
		ev.Message = &log.MessageEvent{
			Kind:      env.Kind.String(),
			Code:      codeName(env),
			MessageID: env.MessageID,
			ChannelID: env.ChannelID,
		}
	}
	c.capture.Log(ev)
}

func codeName(env *wire.Envelope) string {
	switch env.Kind {
	case wire.KindRequest:
		return env.Operation().String()
	case wire.KindResponse:
		return env.Status().String()
	case wire.KindEvent:
		return env.Event().String()
	case wire.KindControl:
		return env.Control().String()
	default:
		return fmt.Sprintf("code %d", env.Code)
	}
}
