package pvserver

import (
	"github.com/pvmon/pvmon-go/pkg/pv"
	"github.com/pvmon/pvmon-go/pkg/transport"
	"github.com/pvmon/pvmon-go/pkg/wire"
)

// reply is the outcome of one request.
type reply struct {
	status    wire.Status
	body      any
	channelID uint32
}

// serverSubBit marks subscription ids picked by the server.
const serverSubBit = 1 << 31

func failure(status wire.Status, msg string) reply {
	return reply{status: status, body: wire.ErrorBody{Message: msg}}
}

func (s *Server) onMessage(conn *transport.Conn, env *wire.Envelope) {
	if env.Kind != wire.KindRequest {
		s.logger.Debug("ignoring message", "session", conn.ID(), "message", env)
		return
	}

	var r reply
	switch env.Operation() {
	case wire.OpCreateChannel:
		r = s.createChannel(conn, env)
	case wire.OpClearChannel:
		r = s.clearChannel(conn, env)
	case wire.OpSubscribe:
		r = s.subscribe(conn, env)
	case wire.OpUnsubscribe:
		r = s.unsubscribe(conn, env)
	case wire.OpGetMetadata:
		r = s.getMetadata(conn, env)
	default:
		r = failure(wire.StatusUnsupported, "unsupported operation")
	}

	resp, err := wire.NewResponse(env, r.status, r.body)
	if err != nil {
		s.logger.Warn("encode response failed", "operation", env.Operation(), "error", err)
		return
	}
	if r.channelID != 0 {
		resp.ChannelID = r.channelID
	}
	if err := conn.Send(resp); err != nil {
		s.logger.Debug("send response failed", "session", conn.ID(), "error", err)
	}
}

func (s *Server) createChannel(conn *transport.Conn, env *wire.Envelope) reply {
	var req wire.CreateChannelRequest
	if err := wire.DecodeBody(env, &req); err != nil || req.Name == "" {
		return failure(wire.StatusBadRequest, "channel name required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.records[req.Name]
	if !ok {
		return failure(wire.StatusUnknownChannel, req.Name)
	}
	sess, ok := s.sessions[conn]
	if !ok {
		return failure(wire.StatusServerError, "no session")
	}

	sess.nextChannel++
	id := sess.nextChannel
	sess.channels[id] = &binding{id: id, name: req.Name, subs: make(map[uint32]*subscription)}

	return reply{
		status:    wire.StatusSuccess,
		channelID: id,
		body: wire.ChannelDescriptor{
			FieldType: int8(r.fieldType()),
			Count:     uint32(r.value.Len()),
			Host:      s.config.Host,
			Read:      r.access.Read,
			Write:     r.access.Write,
		},
	}
}

func (s *Server) clearChannel(conn *transport.Conn, env *wire.Envelope) reply {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[conn]
	if !ok || sess.channels[env.ChannelID] == nil {
		return failure(wire.StatusUnknownChannel, "unknown channel id")
	}
	delete(sess.channels, env.ChannelID)
	return reply{status: wire.StatusSuccess}
}

func (s *Server) subscribe(conn *transport.Conn, env *wire.Envelope) reply {
	var req wire.SubscribeRequest
	if err := wire.DecodeBody(env, &req); err != nil {
		return failure(wire.StatusBadRequest, err.Error())
	}
	kind := pv.RequestKind(req.Kind)
	if !kind.FieldType().IsValid() || kind == pv.RequestGrFloat {
		return failure(wire.StatusBadRequest, "invalid request kind")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	b, r, st := s.lookup(conn, env.ChannelID)
	if st != wire.StatusSuccess {
		return failure(st, "unknown channel id")
	}
	if !r.access.Read {
		return failure(wire.StatusNoReadAccess, r.name)
	}
	if _, err := convert(r, kind); err != nil {
		return failure(wire.StatusUnsupported, err.Error())
	}

	id := req.SubscriptionID
	if id == 0 {
		sess := s.sessions[conn]
		sess.nextSub++
		id = sess.nextSub | serverSubBit
	}
	if _, dup := b.subs[id]; dup {
		return failure(wire.StatusBadRequest, "subscription id in use")
	}
	sub := &subscription{id: id, kind: kind, count: int(req.Count)}
	b.subs[id] = sub

	// The initial value goes out under the lock so that no later update
	// can overtake it.
	if env := s.updateEnvelope(r, b.id, sub); env != nil {
		s.send([]outbound{{conn, env}})
		s.metrics.UpdatesPublished(1)
	}

	return reply{
		status: wire.StatusSuccess,
		body:   wire.SubscribeResponse{SubscriptionID: id},
	}
}

func (s *Server) unsubscribe(conn *transport.Conn, env *wire.Envelope) reply {
	var req wire.UnsubscribeRequest
	if err := wire.DecodeBody(env, &req); err != nil {
		return failure(wire.StatusBadRequest, err.Error())
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	b, _, st := s.lookup(conn, env.ChannelID)
	if st != wire.StatusSuccess {
		return failure(st, "unknown channel id")
	}
	if _, ok := b.subs[req.SubscriptionID]; !ok {
		return failure(wire.StatusUnknownSubscription, "unknown subscription")
	}
	delete(b.subs, req.SubscriptionID)
	return reply{status: wire.StatusSuccess}
}

func (s *Server) getMetadata(conn *transport.Conn, env *wire.Envelope) reply {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, r, st := s.lookup(conn, env.ChannelID)
	if st != wire.StatusSuccess {
		return failure(st, "unknown channel id")
	}
	if r.opts.NoMetadata {
		return failure(wire.StatusNoMetadata, "metadata not available")
	}
	return reply{
		status: wire.StatusSuccess,
		body:   wire.Metadata{Precision: r.opts.Precision, Units: r.opts.Units},
	}
}

// lookup resolves a channel id of conn. Called with s.mu held.
func (s *Server) lookup(conn *transport.Conn, channelID uint32) (*binding, *record, wire.Status) {
	sess, ok := s.sessions[conn]
	if !ok {
		return nil, nil, wire.StatusServerError
	}
	b, ok := sess.channels[channelID]
	if !ok {
		return nil, nil, wire.StatusUnknownChannel
	}
	r, ok := s.records[b.name]
	if !ok {
		return nil, nil, wire.StatusUnknownChannel
	}
	return b, r, wire.StatusSuccess
}
