package pvserver

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/pvmon/pvmon-go/pkg/pv"
	"github.com/pvmon/pvmon-go/pkg/transport"
	"github.com/pvmon/pvmon-go/pkg/wire"
)

func startServer(t *testing.T) *Server {
	t.Helper()
	s := New(Config{Address: "127.0.0.1:0", Host: "testhost"})
	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	t.Cleanup(func() { s.Stop() })
	return s
}

type testClient struct {
	t     *testing.T
	conn  *transport.Conn
	msgID uint32
}

func dial(t *testing.T, s *Server) *testClient {
	t.Helper()
	conn, err := transport.NewDialer(transport.ClientConfig{}).Dial(context.Background(), s.Addr().String())
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return &testClient{t: t, conn: conn}
}

// request sends a request and returns its response, collecting any events
// that arrive first.
func (c *testClient) request(op wire.Operation, channelID uint32, body any) (*wire.Envelope, []*wire.Envelope) {
	c.t.Helper()
	c.msgID++
	req, err := wire.NewRequest(c.msgID, op, channelID, body)
	if err != nil {
		c.t.Fatalf("NewRequest: %v", err)
	}
	if err := c.conn.Send(req); err != nil {
		c.t.Fatalf("Send: %v", err)
	}
	var events []*wire.Envelope
	for {
		env := c.next()
		if env.Kind == wire.KindResponse && env.MessageID == c.msgID {
			return env, events
		}
		events = append(events, env)
	}
}

func (c *testClient) next() *wire.Envelope {
	c.t.Helper()
	env, err := c.conn.Receive(2 * time.Second)
	if err != nil {
		c.t.Fatalf("Receive: %v", err)
	}
	return env
}

func (c *testClient) create(name string) (uint32, wire.ChannelDescriptor) {
	c.t.Helper()
	resp, _ := c.request(wire.OpCreateChannel, 0, wire.CreateChannelRequest{Name: name})
	if resp.Status() != wire.StatusSuccess {
		c.t.Fatalf("create %s: status %s", name, resp.Status())
	}
	var desc wire.ChannelDescriptor
	if err := wire.DecodeBody(resp, &desc); err != nil {
		c.t.Fatalf("DecodeBody: %v", err)
	}
	return resp.ChannelID, desc
}

func decodeUpdate(t *testing.T, env *wire.Envelope) (wire.UpdateEvent, pv.Value) {
	t.Helper()
	if env.Kind != wire.KindEvent || env.Event() != wire.EventUpdate {
		t.Fatalf("got %s, want update event", env)
	}
	var ev wire.UpdateEvent
	if err := wire.DecodeBody(env, &ev); err != nil {
		t.Fatalf("DecodeBody: %v", err)
	}
	if ev.Status != 0 {
		return ev, nil
	}
	v, err := ev.Value.PV()
	if err != nil {
		t.Fatalf("PV: %v", err)
	}
	return ev, v
}

func TestCreateChannel(t *testing.T) {
	s := startServer(t)
	if err := s.Add("temp", pv.DoubleValue{1, 2, 3}, Options{DenyWrite: true}); err != nil {
		t.Fatalf("Add: %v", err)
	}
	c := dial(t, s)

	id, desc := c.create("temp")
	if id == 0 {
		t.Error("channel id = 0")
	}
	if pv.FieldType(desc.FieldType) != pv.FieldTypeDouble || desc.Count != 3 {
		t.Errorf("descriptor = %+v", desc)
	}
	if desc.Host != "testhost" || !desc.Read || desc.Write {
		t.Errorf("descriptor = %+v", desc)
	}

	resp, _ := c.request(wire.OpCreateChannel, 0, wire.CreateChannelRequest{Name: "missing"})
	if resp.Status() != wire.StatusUnknownChannel {
		t.Errorf("unknown create status = %s", resp.Status())
	}
}

func TestSubscribeDeliversInitialAndLaterValues(t *testing.T) {
	s := startServer(t)
	s.Add("temp", pv.DoubleValue{21.5}, Options{})
	c := dial(t, s)
	id, _ := c.create("temp")

	resp, events := c.request(wire.OpSubscribe, id, wire.SubscribeRequest{Kind: uint8(pv.RequestTimeDouble), SubscriptionID: 7})
	if resp.Status() != wire.StatusSuccess {
		t.Fatalf("subscribe status = %s", resp.Status())
	}
	var sr wire.SubscribeResponse
	wire.DecodeBody(resp, &sr)
	if sr.SubscriptionID != 7 {
		t.Errorf("subscription id = %d, want 7", sr.SubscriptionID)
	}
	if len(events) != 1 {
		t.Fatalf("events before response = %d, want 1", len(events))
	}
	ev, v := decodeUpdate(t, events[0])
	if ev.SubscriptionID != 7 || events[0].ChannelID != id {
		t.Errorf("update = %+v", ev)
	}
	if got, ok := v.(pv.DoubleValue); !ok || got[0] != 21.5 {
		t.Errorf("initial value = %#v", v)
	}

	if err := s.Set("temp", pv.DoubleValue{22}); err != nil {
		t.Fatalf("Set: %v", err)
	}
	_, v = decodeUpdate(t, c.next())
	if got := v.(pv.DoubleValue); got[0] != 22 {
		t.Errorf("pushed value = %v", got)
	}

	if err := s.Set("temp", pv.LongValue{1}); !errors.Is(err, ErrTypeChange) {
		t.Errorf("Set with other type = %v, want ErrTypeChange", err)
	}
}

func TestSubscribeConvertsToString(t *testing.T) {
	s := startServer(t)
	s.Add("mode", pv.EnumValue{1}, Options{States: []string{"Off", "On"}})
	s.Add("gain", pv.FloatValue{1.25}, Options{Precision: 1})
	c := dial(t, s)

	tests := []struct {
		name string
		want string
	}{
		{"mode", "On"},
		{"gain", "1.2"},
	}
	for _, tt := range tests {
		id, _ := c.create(tt.name)
		_, events := c.request(wire.OpSubscribe, id, wire.SubscribeRequest{Kind: uint8(pv.RequestTimeString), Count: 1})
		if len(events) != 1 {
			t.Fatalf("%s: events = %d", tt.name, len(events))
		}
		_, v := decodeUpdate(t, events[0])
		if got, ok := v.(pv.StringValue); !ok || got[0] != tt.want {
			t.Errorf("%s: value = %#v, want %q", tt.name, v, tt.want)
		}
	}
}

func TestSubscribeTruncatesToCount(t *testing.T) {
	s := startServer(t)
	s.Add("wave", pv.ShortValue{1, 2, 3, 4}, Options{})
	c := dial(t, s)
	id, _ := c.create("wave")

	_, events := c.request(wire.OpSubscribe, id, wire.SubscribeRequest{Kind: uint8(pv.RequestTimeShort), Count: 2})
	_, v := decodeUpdate(t, events[0])
	if v.Len() != 2 {
		t.Errorf("Len = %d, want 2", v.Len())
	}
}

func TestSubscribeRejections(t *testing.T) {
	s := startServer(t)
	s.Add("secret", pv.LongValue{1}, Options{DenyRead: true})
	s.Add("text", pv.StringValue{"abc"}, Options{})
	c := dial(t, s)

	secret, desc := c.create("secret")
	if desc.Read {
		t.Error("descriptor grants read")
	}
	resp, _ := c.request(wire.OpSubscribe, secret, wire.SubscribeRequest{Kind: uint8(pv.RequestTimeLong)})
	if resp.Status() != wire.StatusNoReadAccess {
		t.Errorf("denied subscribe status = %s", resp.Status())
	}

	text, _ := c.create("text")
	resp, _ = c.request(wire.OpSubscribe, text, wire.SubscribeRequest{Kind: uint8(pv.RequestTimeDouble)})
	if resp.Status() != wire.StatusUnsupported {
		t.Errorf("unconvertible subscribe status = %s", resp.Status())
	}

	resp, _ = c.request(wire.OpSubscribe, text, wire.SubscribeRequest{Kind: uint8(pv.RequestGrFloat)})
	if resp.Status() != wire.StatusBadRequest {
		t.Errorf("metadata kind subscribe status = %s", resp.Status())
	}

	resp, _ = c.request(wire.OpSubscribe, 999, wire.SubscribeRequest{Kind: uint8(pv.RequestTimeString)})
	if resp.Status() != wire.StatusUnknownChannel {
		t.Errorf("unknown channel subscribe status = %s", resp.Status())
	}
}

func TestUnsubscribeStopsUpdates(t *testing.T) {
	s := startServer(t)
	s.Add("a", pv.LongValue{1}, Options{})
	s.Add("b", pv.LongValue{1}, Options{})
	c := dial(t, s)
	a, _ := c.create("a")
	b, _ := c.create("b")
	c.request(wire.OpSubscribe, a, wire.SubscribeRequest{Kind: uint8(pv.RequestTimeLong), SubscriptionID: 1})
	c.request(wire.OpSubscribe, b, wire.SubscribeRequest{Kind: uint8(pv.RequestTimeLong), SubscriptionID: 2})

	resp, _ := c.request(wire.OpUnsubscribe, a, wire.UnsubscribeRequest{SubscriptionID: 1})
	if resp.Status() != wire.StatusSuccess {
		t.Fatalf("unsubscribe status = %s", resp.Status())
	}
	resp, _ = c.request(wire.OpUnsubscribe, a, wire.UnsubscribeRequest{SubscriptionID: 1})
	if resp.Status() != wire.StatusUnknownSubscription {
		t.Errorf("second unsubscribe status = %s", resp.Status())
	}

	s.Set("a", pv.LongValue{2})
	s.Set("b", pv.LongValue{3})
	ev, _ := decodeUpdate(t, c.next())
	if ev.SubscriptionID != 2 {
		t.Errorf("update for subscription %d, want 2", ev.SubscriptionID)
	}
}

func TestGetMetadata(t *testing.T) {
	s := startServer(t)
	s.Add("volt", pv.DoubleValue{1}, Options{Precision: 3, Units: "V"})
	s.Add("raw", pv.DoubleValue{1}, Options{NoMetadata: true})
	c := dial(t, s)

	volt, _ := c.create("volt")
	resp, _ := c.request(wire.OpGetMetadata, volt, nil)
	var md wire.Metadata
	if err := wire.DecodeBody(resp, &md); err != nil {
		t.Fatalf("DecodeBody: %v", err)
	}
	if md.Precision != 3 || md.Units != "V" {
		t.Errorf("metadata = %+v", md)
	}

	raw, _ := c.create("raw")
	resp, _ = c.request(wire.OpGetMetadata, raw, nil)
	if resp.Status() != wire.StatusNoMetadata {
		t.Errorf("status = %s, want NO_METADATA", resp.Status())
	}
}

func TestRecordEvents(t *testing.T) {
	s := startServer(t)
	s.Add("temp", pv.DoubleValue{1}, Options{})
	c := dial(t, s)
	id, _ := c.create("temp")

	if err := s.SetAccess("temp", pv.AccessRights{Read: true}); err != nil {
		t.Fatalf("SetAccess: %v", err)
	}
	env := c.next()
	var ar wire.AccessRightsEvent
	wire.DecodeBody(env, &ar)
	if env.Event() != wire.EventAccessRights || env.ChannelID != id || !ar.Read || ar.Write {
		t.Errorf("access event = %s %+v", env, ar)
	}

	s.RaiseException("temp", pv.StatusServerError, "boom")
	env = c.next()
	var ex wire.ExceptionEvent
	wire.DecodeBody(env, &ex)
	if env.Event() != wire.EventException || pv.Status(ex.Status) != pv.StatusServerError || ex.Context != "boom" {
		t.Errorf("exception event = %s %+v", env, ex)
	}

	if err := s.Remove("temp"); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	env = c.next()
	if env.Event() != wire.EventChannelDown || env.ChannelID != id {
		t.Errorf("remove event = %s", env)
	}
	if err := s.Remove("temp"); !errors.Is(err, ErrUnknownPV) {
		t.Errorf("second Remove = %v, want ErrUnknownPV", err)
	}
}

func TestAddDuplicate(t *testing.T) {
	s := New(Config{})
	if err := s.Add("x", pv.LongValue{1}, Options{}); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if err := s.Add("x", pv.LongValue{1}, Options{}); !errors.Is(err, ErrExists) {
		t.Errorf("duplicate Add = %v, want ErrExists", err)
	}
	if err := s.Add("y", nil, Options{}); !errors.Is(err, ErrConvert) {
		t.Errorf("nil Add = %v, want ErrConvert", err)
	}
	if got := s.Names(); len(got) != 1 || got[0] != "x" {
		t.Errorf("Names = %v", got)
	}
}
