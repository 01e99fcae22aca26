package pvserver

import (
	"context"
	"crypto/tls"
	"fmt"
	"log/slog"
	"net"
	"sort"
	"sync"
	"time"

	"github.com/pvmon/pvmon-go/pkg/log"
	"github.com/pvmon/pvmon-go/pkg/pv"
	"github.com/pvmon/pvmon-go/pkg/transport"
	"github.com/pvmon/pvmon-go/pkg/wire"
)

// Config configures a Server.
type Config struct {
	// Address to listen on. Defaults to ":5075".
	Address string

	// TLS enables TLS when non-nil.
	TLS *tls.Config

	// Host is reported to clients as the channel host. Defaults to the
	// listen address.
	Host string

	Logger  *slog.Logger
	Capture log.Logger
	Metrics Recorder
}

// Recorder receives server counters.
type Recorder interface {
	ClientsConnected(n int)
	UpdatesPublished(n int)
}

type nopRecorder struct{}

func (nopRecorder) ClientsConnected(int) {}
func (nopRecorder) UpdatesPublished(int) {}

// Server serves records to clients.
type Server struct {
	config  Config
	logger  *slog.Logger
	metrics Recorder
	ts      *transport.Server

	mu       sync.RWMutex
	records  map[string]*record
	sessions map[*transport.Conn]*session
}

// session is the per-connection binding state. Guarded by Server.mu.
type session struct {
	conn        *transport.Conn
	nextChannel uint32
	nextSub     uint32
	channels    map[uint32]*binding
}

type binding struct {
	id   uint32
	name string
	subs map[uint32]*subscription
}

type subscription struct {
	id    uint32
	kind  pv.RequestKind
	count int
}

// New creates a server. Call Start to begin listening.
func New(config Config) *Server {
	if config.Address == "" {
		config.Address = fmt.Sprintf(":%d", transport.DefaultPort)
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	metrics := config.Metrics
	if metrics == nil {
		metrics = nopRecorder{}
	}
	s := &Server{
		config:   config,
		logger:   logger,
		metrics:  metrics,
		records:  make(map[string]*record),
		sessions: make(map[*transport.Conn]*session),
	}
	s.ts = transport.NewServer(transport.ServerConfig{
		Address:      config.Address,
		TLS:          config.TLS,
		Logger:       logger,
		Capture:      config.Capture,
		OnConnect:    s.onConnect,
		OnDisconnect: s.onDisconnect,
		OnMessage:    s.onMessage,
	})
	return s
}

// Start begins accepting clients.
func (s *Server) Start(ctx context.Context) error {
	if err := s.ts.Start(ctx); err != nil {
		return err
	}
	if s.config.Host == "" {
		s.config.Host = s.ts.Addr().String()
	}
	s.logger.Info("PV server listening", "address", s.ts.Addr(), "pvs", s.Len())
	return nil
}

// Stop disconnects every client and stops listening.
func (s *Server) Stop() error {
	return s.ts.Stop()
}

// Addr returns the listen address.
func (s *Server) Addr() net.Addr {
	return s.ts.Addr()
}

// Port returns the listen port, or 0 before Start.
func (s *Server) Port() int {
	if a, ok := s.ts.Addr().(*net.TCPAddr); ok {
		return a.Port
	}
	return 0
}

// Len returns the number of records.
func (s *Server) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

// Names returns the record names in order.
func (s *Server) Names() []string {
	s.mu.RLock()
	names := make([]string, 0, len(s.records))
	for name := range s.records {
		names = append(names, name)
	}
	s.mu.RUnlock()
	sort.Strings(names)
	return names
}

// Add creates a record with an initial value.
func (s *Server) Add(name string, value pv.Value, opts Options) error {
	if value == nil {
		return fmt.Errorf("%s: %w", name, ErrConvert)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.records[name]; ok {
		return fmt.Errorf("%s: %w", name, ErrExists)
	}
	s.records[name] = &record{
		name:   name,
		value:  value,
		stamp:  time.Now(),
		access: pv.AccessRights{Read: !opts.DenyRead, Write: !opts.DenyWrite},
		opts:   opts,
	}
	return nil
}

// Get returns the current value of a record.
func (s *Server) Get(name string) (pv.Value, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.records[name]
	if !ok {
		return nil, false
	}
	return r.value, true
}

// Set stores a new value and pushes it to every subscriber. The value must
// keep the record's field type.
func (s *Server) Set(name string, value pv.Value) error {
	return s.modify(name, func(r *record) error {
		if value == nil || value.FieldType() != r.fieldType() {
			return fmt.Errorf("%s: %w", name, ErrTypeChange)
		}
		r.value = value
		return nil
	})
}

// SetAlarm changes the alarm state and pushes it with the current value.
func (s *Server) SetAlarm(name string, status pv.AlarmStatus, severity pv.AlarmSeverity) error {
	return s.modify(name, func(r *record) error {
		r.alarm, r.severity = status, severity
		return nil
	})
}

// SetAccess changes the access rights and notifies bound clients.
func (s *Server) SetAccess(name string, rights pv.AccessRights) error {
	s.mu.Lock()
	r, ok := s.records[name]
	if !ok {
		s.mu.Unlock()
		return fmt.Errorf("%s: %w", name, ErrUnknownPV)
	}
	r.access = rights
	var out []outbound
	for _, sess := range s.sessions {
		for _, b := range sess.channels {
			if b.name != name {
				continue
			}
			env, err := wire.NewEvent(wire.EventAccessRights, b.id, wire.AccessRightsEvent{Read: rights.Read, Write: rights.Write})
			if err == nil {
				out = append(out, outbound{sess.conn, env})
			}
		}
	}
	s.mu.Unlock()

	s.send(out)
	return nil
}

// Remove deletes a record. Bound clients get a channel-down event.
func (s *Server) Remove(name string) error {
	s.mu.Lock()
	if _, ok := s.records[name]; !ok {
		s.mu.Unlock()
		return fmt.Errorf("%s: %w", name, ErrUnknownPV)
	}
	delete(s.records, name)
	var out []outbound
	for _, sess := range s.sessions {
		for id, b := range sess.channels {
			if b.name != name {
				continue
			}
			delete(sess.channels, id)
			env, err := wire.NewEvent(wire.EventChannelDown, id, wire.ChannelDownEvent{Reason: "removed"})
			if err == nil {
				out = append(out, outbound{sess.conn, env})
			}
		}
	}
	s.mu.Unlock()

	s.send(out)
	return nil
}

// RaiseException sends an exception event to every client bound to name,
// or to every client when name is empty.
func (s *Server) RaiseException(name string, status pv.Status, detail string) {
	body := wire.ExceptionEvent{Status: uint8(status), Context: detail}

	s.mu.RLock()
	var out []outbound
	for _, sess := range s.sessions {
		if name == "" {
			if env, err := wire.NewEvent(wire.EventException, 0, body); err == nil {
				out = append(out, outbound{sess.conn, env})
			}
			continue
		}
		for _, b := range sess.channels {
			if b.name != name {
				continue
			}
			if env, err := wire.NewEvent(wire.EventException, b.id, body); err == nil {
				out = append(out, outbound{sess.conn, env})
			}
		}
	}
	s.mu.RUnlock()

	s.send(out)
}

type outbound struct {
	conn *transport.Conn
	env  *wire.Envelope
}

func (s *Server) send(out []outbound) {
	for _, o := range out {
		if err := o.conn.Send(o.env); err != nil {
			s.logger.Debug("send failed", "session", o.conn.ID(), "error", err)
		}
	}
}

// modify applies fn to a record and publishes the result.
func (s *Server) modify(name string, fn func(*record) error) error {
	s.mu.Lock()
	r, ok := s.records[name]
	if !ok {
		s.mu.Unlock()
		return fmt.Errorf("%s: %w", name, ErrUnknownPV)
	}
	if err := fn(r); err != nil {
		s.mu.Unlock()
		return err
	}
	r.stamp = time.Now()

	var out []outbound
	for _, sess := range s.sessions {
		for _, b := range sess.channels {
			if b.name != name {
				continue
			}
			for _, sub := range b.subs {
				if env := s.updateEnvelope(r, b.id, sub); env != nil {
					out = append(out, outbound{sess.conn, env})
				}
			}
		}
	}
	s.mu.Unlock()

	s.send(out)
	s.metrics.UpdatesPublished(len(out))
	return nil
}

// updateEnvelope renders the current value of r for sub. Called with s.mu
// held.
func (s *Server) updateEnvelope(r *record, channelID uint32, sub *subscription) *wire.Envelope {
	ev := wire.UpdateEvent{
		SubscriptionID: sub.id,
		Time:           r.stamp.UnixNano(),
		Alarm:          uint16(r.alarm),
		Severity:       uint16(r.severity),
	}
	switch v, err := convert(r, sub.kind); {
	case !r.access.Read:
		ev.Status = uint8(pv.StatusNoReadAccess)
	case err != nil:
		ev.Status = uint8(pv.StatusBadType)
	default:
		ev.Value = wire.ValueFrom(pv.Truncate(v, sub.count))
	}

	env, err := wire.NewEvent(wire.EventUpdate, channelID, ev)
	if err != nil {
		s.logger.Warn("encode update failed", "pv", r.name, "error", err)
		return nil
	}
	return env
}

func (s *Server) onConnect(conn *transport.Conn) {
	s.mu.Lock()
	s.sessions[conn] = &session{conn: conn, channels: make(map[uint32]*binding)}
	n := len(s.sessions)
	s.mu.Unlock()

	s.metrics.ClientsConnected(n)
	s.logger.Debug("client connected", "session", conn.ID(), "remote", conn.RemoteAddr())
}

func (s *Server) onDisconnect(conn *transport.Conn) {
	s.mu.Lock()
	delete(s.sessions, conn)
	n := len(s.sessions)
	s.mu.Unlock()

	s.metrics.ClientsConnected(n)
	s.logger.Debug("client disconnected", "session", conn.ID())
}
