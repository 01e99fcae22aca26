package pvclient

import (
	"time"

	"github.com/pvmon/pvmon-go/pkg/log"
	"github.com/pvmon/pvmon-go/pkg/pv"
	"github.com/pvmon/pvmon-go/pkg/wire"
)

func (c *Client) kickSearch() {
	select {
	case c.search <- struct{}{}:
	default:
	}
}

func (c *Client) searchLoop() {
	defer c.wg.Done()

	ticker := time.NewTicker(c.config.SearchInterval)
	defer ticker.Stop()
	for {
		select {
		case <-c.ctx.Done():
			return
		case <-ticker.C:
		case <-c.search:
		}
		c.searchOnce()
	}
}

type searchRequest struct {
	sess *session
	ch   *channel
	name string
}

// searchOnce asks every connected server for every unbound channel.
func (c *Client) searchOnce() {
	var up []*session
	c.mu.Lock()
	for _, s := range c.sessions {
		if s.isUp() {
			up = append(up, s)
		}
	}
	var reqs []searchRequest
	if len(up) > 0 {
		for _, ch := range c.channels {
			if ch.sess != nil || ch.searching > 0 {
				continue
			}
			for _, s := range up {
				ch.searching++
				reqs = append(reqs, searchRequest{sess: s, ch: ch, name: ch.info.Name})
			}
		}
	}
	c.mu.Unlock()

	for _, r := range reqs {
		err := r.sess.request(wire.OpCreateChannel, 0, wire.CreateChannelRequest{Name: r.name}, func(env *wire.Envelope, err error) {
			c.searchDone(r, env, err)
		})
		if err != nil {
			c.searchDone(r, nil, err)
		}
	}
}

func (c *Client) searchDone(r searchRequest, env *wire.Envelope, err error) {
	if err == nil {
		err = responseError(env)
	}
	var desc wire.ChannelDescriptor
	if err == nil {
		err = wire.DecodeBody(env, &desc)
	}

	c.mu.Lock()
	r.ch.searching--
	if err != nil {
		c.mu.Unlock()
		return
	}
	current := c.channels[r.ch.handle] == r.ch
	if !current || r.ch.sess != nil || !r.sess.isUp() {
		c.mu.Unlock()
		// Another server answered first or the channel is gone.
		_ = r.sess.request(wire.OpClearChannel, env.ChannelID, nil, nil)
		return
	}
	subs := c.bind(r.sess, r.ch, env.ChannelID, desc)
	c.mu.Unlock()

	for _, sub := range subs {
		c.sendSubscribe(r.sess, env.ChannelID, r.ch.handle, sub)
	}
}

// bind attaches ch to a server channel and queues the connection and
// access callbacks. It returns the subscriptions to re-issue. Called with
// c.mu held.
func (c *Client) bind(s *session, ch *channel, remote uint32, desc wire.ChannelDescriptor) []*subscription {
	ch.sess = s
	ch.remote = remote
	s.bound[remote] = ch

	ch.info.FieldType = pv.FieldType(desc.FieldType)
	ch.info.ElementCount = int(desc.Count)
	ch.info.Host = desc.Host
	ch.info.Access = pv.AccessRights{Read: desc.Read, Write: desc.Write}
	ch.info.State = pv.ChannelConnected

	h := ch.handle
	if fn := ch.onAccess; fn != nil {
		rights := ch.info.Access
		c.enqueue(func() { fn(h, rights) })
	}
	if fn := ch.onConn; fn != nil {
		c.enqueue(func() { fn(pv.ConnectionEvent{Handle: h, Up: true}) })
	}
	c.captureChannel(ch, "CONNECTED", "")

	subs := make([]*subscription, 0, len(ch.subs))
	for _, sub := range ch.subs {
		subs = append(subs, sub)
	}
	return subs
}

// unbind detaches ch and queues the down callback. Called with c.mu held.
func (c *Client) unbind(ch *channel, reason string) {
	if ch.sess != nil {
		delete(ch.sess.bound, ch.remote)
	}
	ch.sess = nil
	ch.remote = 0
	ch.info.State = pv.ChannelDisconnected
	ch.info.Access = pv.AccessRights{}

	h := ch.handle
	if fn := ch.onConn; fn != nil {
		c.enqueue(func() { fn(pv.ConnectionEvent{Handle: h, Up: false}) })
	}
	c.captureChannel(ch, "DISCONNECTED", reason)
}

// sessionLost unbinds every channel of s.
func (c *Client) sessionLost(s *session) {
	c.mu.Lock()
	for _, ch := range s.bound {
		c.unbind(ch, "session lost")
	}
	c.mu.Unlock()
	c.kickSearch()
}

func (c *Client) handleEvent(s *session, env *wire.Envelope) {
	switch env.Event() {
	case wire.EventUpdate:
		c.handleUpdate(s, env)

	case wire.EventAccessRights:
		var body wire.AccessRightsEvent
		if err := wire.DecodeBody(env, &body); err != nil {
			c.logger.Debug("bad access event", "server", s.addr, "error", err)
			return
		}
		c.mu.Lock()
		ch, ok := s.bound[env.ChannelID]
		if ok {
			ch.info.Access = pv.AccessRights{Read: body.Read, Write: body.Write}
			if fn := ch.onAccess; fn != nil {
				h, rights := ch.handle, ch.info.Access
				c.enqueue(func() { fn(h, rights) })
			}
		}
		c.mu.Unlock()

	case wire.EventChannelDown:
		var body wire.ChannelDownEvent
		_ = wire.DecodeBody(env, &body)
		c.mu.Lock()
		if ch, ok := s.bound[env.ChannelID]; ok {
			c.unbind(ch, body.Reason)
		}
		c.mu.Unlock()
		c.kickSearch()

	case wire.EventException:
		var body wire.ExceptionEvent
		if err := wire.DecodeBody(env, &body); err != nil {
			c.logger.Debug("bad exception event", "server", s.addr, "error", err)
			return
		}
		ex := pv.Exception{
			Type:    pv.RequestKind(body.Kind),
			Count:   int(body.Count),
			Status:  pv.Status(body.Status),
			Context: body.Context,
		}
		if env.ChannelID != 0 {
			c.mu.Lock()
			if ch, ok := s.bound[env.ChannelID]; ok {
				ex.Handle = ch.handle
			}
			c.mu.Unlock()
		}
		c.raise(ex)
	}
}

func (c *Client) handleUpdate(s *session, env *wire.Envelope) {
	var body wire.UpdateEvent
	if err := wire.DecodeBody(env, &body); err != nil {
		c.logger.Debug("bad update event", "server", s.addr, "error", err)
		return
	}

	c.mu.Lock()
	ch, ok := s.bound[env.ChannelID]
	var sub *subscription
	if ok {
		sub = ch.subs[pv.SubscriptionID(body.SubscriptionID)]
	}
	c.mu.Unlock()
	if sub == nil || sub.fn == nil {
		return
	}

	u := pv.Update{
		Status:    pv.Status(body.Status),
		Timestamp: time.Unix(0, body.Time),
		Alarm:     pv.AlarmStatus(body.Alarm),
		Severity:  pv.AlarmSeverity(body.Severity),
	}
	if u.Status.IsNormal() {
		v, err := body.Value.PV()
		if err != nil {
			u.Status = pv.StatusBadType
		} else {
			u.Value = v
		}
	}
	h, fn := ch.handle, sub.fn
	c.enqueue(func() { fn(h, u) })
}

func (c *Client) captureChannel(ch *channel, state, reason string) {
	c.capture.Log(log.Event{
		Timestamp: time.Now(),
		Layer:     log.LayerWire,
		Category:  log.CategoryState,
		Channel:   ch.info.Name,
		State: &log.StateChangeEvent{
			Entity:   log.StateEntityChannel,
			NewState: state,
			Reason:   reason,
		},
	})
}
