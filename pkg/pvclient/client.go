package pvclient

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/pvmon/pvmon-go/pkg/connection"
	"github.com/pvmon/pvmon-go/pkg/log"
	"github.com/pvmon/pvmon-go/pkg/monitor"
	"github.com/pvmon/pvmon-go/pkg/pv"
	"github.com/pvmon/pvmon-go/pkg/transport"
	"github.com/pvmon/pvmon-go/pkg/wire"
)

// Client defaults.
const (
	DefaultRequestTimeout = 5 * time.Second
	DefaultSearchInterval = time.Second
)

// Config configures a Client.
type Config struct {
	// Servers are dialled on Start. More can be added with AddServer.
	Servers []string

	// TLS enables TLS when non-nil.
	TLS *tls.Config

	ConnectTimeout time.Duration
	RequestTimeout time.Duration
	SearchInterval time.Duration
	KeepAlive      transport.KeepAliveConfig
	Backoff        connection.BackoffConfig

	Logger  *slog.Logger
	Capture log.Logger
	Metrics Recorder
}

// Client resolves channels on a set of PV data servers.
type Client struct {
	config  Config
	logger  *slog.Logger
	capture log.Logger
	metrics Recorder
	dialer  *transport.Dialer

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	search chan struct{}

	mu         sync.Mutex
	started    bool
	closed     bool
	nextHandle pv.Handle
	nextSub    uint32
	channels   map[pv.Handle]*channel
	sessions   []*session
	exHandler  pv.ExceptionHandler

	qmu   sync.Mutex
	queue []func()
	ready chan struct{}
}

var _ monitor.Transport = (*Client)(nil)

// channel is the client view of one named channel. Guarded by Client.mu.
type channel struct {
	handle   pv.Handle
	info     pv.ChannelInfo
	onConn   pv.ConnectionHandler
	onAccess pv.AccessRightsHandler
	subs     map[pv.SubscriptionID]*subscription

	// sess and remote are set while bound to a server.
	sess   *session
	remote uint32

	// searching counts create-channel requests in flight.
	searching int
}

type subscription struct {
	id    pv.SubscriptionID
	kind  pv.RequestKind
	count int
	fn    pv.UpdateHandler
}

// New creates a client. Call Start to begin connecting.
func New(config Config) *Client {
	if config.RequestTimeout <= 0 {
		config.RequestTimeout = DefaultRequestTimeout
	}
	if config.SearchInterval <= 0 {
		config.SearchInterval = DefaultSearchInterval
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	metrics := config.Metrics
	if metrics == nil {
		metrics = nopRecorder{}
	}
	c := &Client{
		config:  config,
		logger:  logger,
		capture: log.OrNoop(config.Capture),
		metrics: metrics,
		dialer: transport.NewDialer(transport.ClientConfig{
			TLS:            config.TLS,
			ConnectTimeout: config.ConnectTimeout,
			Capture:        config.Capture,
		}),
		search:   make(chan struct{}, 1),
		channels: make(map[pv.Handle]*channel),
		ready:    make(chan struct{}, 1),
	}
	for _, addr := range config.Servers {
		c.sessions = append(c.sessions, newSession(c, addr))
	}
	return c
}

// Start dials the configured servers and starts the channel search.
func (c *Client) Start(ctx context.Context) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	if c.started {
		c.mu.Unlock()
		return nil
	}
	c.started = true
	c.ctx, c.cancel = context.WithCancel(ctx)
	sessions := append([]*session(nil), c.sessions...)
	c.mu.Unlock()

	var errs []error
	for _, s := range sessions {
		errs = append(errs, s.manager.Start(c.ctx))
	}

	c.wg.Add(1)
	go c.searchLoop()
	return errors.Join(errs...)
}

// AddServer adds a server to dial. Known addresses are ignored.
func (c *Client) AddServer(addr string) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	for _, s := range c.sessions {
		if s.addr == addr {
			c.mu.Unlock()
			return nil
		}
	}
	s := newSession(c, addr)
	c.sessions = append(c.sessions, s)
	started := c.started
	c.mu.Unlock()

	c.logger.Debug("server added", "server", addr)
	if started {
		return s.manager.Start(c.ctx)
	}
	return nil
}

// Servers returns the known server addresses.
func (c *Client) Servers() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, len(c.sessions))
	for i, s := range c.sessions {
		out[i] = s.addr
	}
	return out
}

// Close ends every session and stops the search.
func (c *Client) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	sessions := append([]*session(nil), c.sessions...)
	cancel := c.cancel
	c.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	for _, s := range sessions {
		s.close()
	}
	c.wg.Wait()
	return nil
}

// Connect registers a channel and starts searching for it.
func (c *Client) Connect(name string, fn pv.ConnectionHandler) (pv.Handle, error) {
	if name == "" {
		return pv.NoHandle, errors.New("empty channel name")
	}
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return pv.NoHandle, ErrClosed
	}
	c.nextHandle++
	h := c.nextHandle
	c.channels[h] = &channel{
		handle: h,
		info: pv.ChannelInfo{
			Name:      name,
			FieldType: pv.FieldTypeNotConnected,
			State:     pv.ChannelNeverConnected,
		},
		onConn: fn,
		subs:   make(map[pv.SubscriptionID]*subscription),
	}
	c.mu.Unlock()

	c.kickSearch()
	return h, nil
}

// Subscribe adds a subscription. On an unbound channel it is issued once
// the channel connects.
func (c *Client) Subscribe(h pv.Handle, kind pv.RequestKind, count int, fn pv.UpdateHandler) (pv.SubscriptionID, error) {
	c.mu.Lock()
	ch, ok := c.channels[h]
	if !ok {
		c.mu.Unlock()
		return 0, fmt.Errorf("%w: %d", ErrUnknownHandle, h)
	}
	c.nextSub++
	sub := &subscription{id: pv.SubscriptionID(c.nextSub), kind: kind, count: count, fn: fn}
	ch.subs[sub.id] = sub
	sess, remote := ch.sess, ch.remote
	c.mu.Unlock()

	if sess != nil {
		c.sendSubscribe(sess, remote, h, sub)
	}
	return sub.id, nil
}

func (c *Client) sendSubscribe(sess *session, remote uint32, h pv.Handle, sub *subscription) {
	req := wire.SubscribeRequest{
		Kind:           uint8(sub.kind),
		Count:          uint32(max(sub.count, 0)),
		SubscriptionID: uint32(sub.id),
	}
	err := sess.request(wire.OpSubscribe, remote, req, func(env *wire.Envelope, err error) {
		if err == nil {
			err = responseError(env)
		}
		if err == nil || errors.Is(err, ErrSessionLost) {
			return
		}
		c.raise(pv.Exception{
			Handle:  h,
			Type:    sub.kind,
			Count:   sub.count,
			Status:  statusOf(err),
			Context: "subscribe: " + err.Error(),
		})
	})
	if err != nil {
		c.logger.Debug("subscribe not sent", "server", sess.addr, "error", err)
	}
}

// GetMetadata reads the graphic metadata of a bound channel.
func (c *Client) GetMetadata(h pv.Handle, fn pv.MetadataHandler) error {
	c.mu.Lock()
	ch, ok := c.channels[h]
	if !ok {
		c.mu.Unlock()
		return fmt.Errorf("%w: %d", ErrUnknownHandle, h)
	}
	sess, remote := ch.sess, ch.remote
	c.mu.Unlock()
	if sess == nil {
		return ErrNotBound
	}

	return sess.request(wire.OpGetMetadata, remote, nil, func(env *wire.Envelope, err error) {
		var md pv.Metadata
		if err == nil {
			err = responseError(env)
		}
		if err == nil {
			var body wire.Metadata
			if err = wire.DecodeBody(env, &body); err == nil {
				md = pv.Metadata{Precision: body.Precision, Units: body.Units}
			}
		}
		c.enqueue(func() { fn(h, md, err) })
	})
}

// AccessRights returns the last known rights of a channel.
func (c *Client) AccessRights(h pv.Handle) pv.AccessRights {
	c.mu.Lock()
	defer c.mu.Unlock()
	if ch, ok := c.channels[h]; ok {
		return ch.info.Access
	}
	return pv.AccessRights{}
}

// OnAccessRightsChange replaces the access rights handler of a channel.
func (c *Client) OnAccessRightsChange(h pv.Handle, fn pv.AccessRightsHandler) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	ch, ok := c.channels[h]
	if !ok {
		return fmt.Errorf("%w: %d", ErrUnknownHandle, h)
	}
	ch.onAccess = fn
	return nil
}

// Info describes a channel.
func (c *Client) Info(h pv.Handle) (pv.ChannelInfo, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	ch, ok := c.channels[h]
	if !ok {
		return pv.ChannelInfo{}, false
	}
	return ch.info, true
}

// Clear forgets a channel and releases it on its server.
func (c *Client) Clear(h pv.Handle) error {
	c.mu.Lock()
	ch, ok := c.channels[h]
	if !ok {
		c.mu.Unlock()
		return fmt.Errorf("%w: %d", ErrUnknownHandle, h)
	}
	delete(c.channels, h)
	ch.info.State = pv.ChannelClosed
	sess, remote := ch.sess, ch.remote
	if sess != nil {
		delete(sess.bound, remote)
	}
	c.mu.Unlock()

	if sess != nil {
		_ = sess.request(wire.OpClearChannel, remote, nil, nil)
	}
	return nil
}

// SetExceptionHandler replaces the exception handler. nil deregisters.
func (c *Client) SetExceptionHandler(fn pv.ExceptionHandler) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.exHandler = fn
}

// Ready is signalled when callbacks are queued.
func (c *Client) Ready() <-chan struct{} {
	return c.ready
}

// PumpEvents runs queued callbacks. With an empty queue it waits up to
// timeout for the first one.
func (c *Client) PumpEvents(ctx context.Context, timeout time.Duration) error {
	queue := c.drain()
	if len(queue) == 0 {
		timer := time.NewTimer(timeout)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		case <-c.ready:
		}
		queue = c.drain()
	}
	for _, fn := range queue {
		fn()
	}
	return nil
}

func (c *Client) drain() []func() {
	c.qmu.Lock()
	defer c.qmu.Unlock()
	q := c.queue
	c.queue = nil
	return q
}

func (c *Client) enqueue(fn func()) {
	c.qmu.Lock()
	c.queue = append(c.queue, fn)
	c.qmu.Unlock()

	select {
	case c.ready <- struct{}{}:
	default:
	}
}

// raise queues ex for the exception handler current at run time.
func (c *Client) raise(ex pv.Exception) {
	c.enqueue(func() {
		c.mu.Lock()
		fn := c.exHandler
		c.mu.Unlock()
		if fn != nil {
			fn(ex)
			return
		}
		c.logger.Warn("unhandled exception", "status", ex.Status, "context", ex.Context)
	})
}

func (c *Client) captureSession(addr, oldState, newState, reason string) {
	c.capture.Log(log.Event{
		Timestamp:  time.Now(),
		Layer:      log.LayerWire,
		Category:   log.CategoryState,
		RemoteAddr: addr,
		State: &log.StateChangeEvent{
			Entity:   log.StateEntitySession,
			OldState: oldState,
			NewState: newState,
			Reason:   reason,
		},
	})
}

// statusOf maps a request error to the status reported in exceptions.
func statusOf(err error) pv.Status {
	var se *StatusError
	switch {
	case errors.As(err, &se):
		switch se.Status {
		case wire.StatusUnknownChannel:
			return pv.StatusUnknownChannel
		case wire.StatusNoReadAccess:
			return pv.StatusNoReadAccess
		case wire.StatusBadRequest, wire.StatusUnsupported:
			return pv.StatusBadType
		default:
			return pv.StatusServerError
		}
	case errors.Is(err, ErrTimeout):
		return pv.StatusTimeout
	case errors.Is(err, ErrSessionLost):
		return pv.StatusDisconnected
	default:
		return pv.StatusGetFailed
	}
}
