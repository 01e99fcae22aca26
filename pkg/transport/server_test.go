package transport

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/pvmon/pvmon-go/pkg/wire"
)

func startTestServer(t *testing.T, cfg ServerConfig) *Server {
	t.Helper()
	cfg.Address = "127.0.0.1:0"
	s := NewServer(cfg)
	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	t.Cleanup(func() { s.Stop() })
	return s
}

func TestServerAnswersPing(t *testing.T) {
	s := startTestServer(t, ServerConfig{})

	conn, err := NewDialer(ClientConfig{}).Dial(context.Background(), s.Addr().String())
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer conn.Close()

	if err := conn.SendPing(11); err != nil {
		t.Fatalf("SendPing: %v", err)
	}
	env, err := conn.Receive(time.Second)
	if err != nil {
		t.Fatalf("Receive: %v", err)
	}
	if env.Control() != wire.ControlPong || env.MessageID != 11 {
		t.Errorf("reply = %s, want pong 11", env)
	}
}

func TestServerDeliversMessages(t *testing.T) {
	got := make(chan *wire.Envelope, 1)
	s := startTestServer(t, ServerConfig{
		OnMessage: func(c *Conn, env *wire.Envelope) {
			resp, _ := wire.NewResponse(env, wire.StatusSuccess, nil)
			c.Send(resp)
			got <- env
		},
	})

	conn, err := NewDialer(ClientConfig{}).Dial(context.Background(), s.Addr().String())
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer conn.Close()

	req, _ := wire.NewRequest(3, wire.OpCreateChannel, 0, wire.CreateChannelRequest{Name: "x"})
	if err := conn.Send(req); err != nil {
		t.Fatalf("Send: %v", err)
	}

	select {
	case env := <-got:
		if env.Operation() != wire.OpCreateChannel {
			t.Errorf("server got %s", env)
		}
	case <-time.After(time.Second):
		t.Fatal("server did not receive request")
	}

	resp, err := conn.Receive(time.Second)
	if err != nil {
		t.Fatalf("Receive: %v", err)
	}
	if resp.Kind != wire.KindResponse || resp.MessageID != 3 {
		t.Errorf("response = %s", resp)
	}
}

func TestServerTracksConnections(t *testing.T) {
	disconnected := make(chan struct{})
	s := startTestServer(t, ServerConfig{
		OnDisconnect: func(*Conn) { close(disconnected) },
	})

	conn, err := NewDialer(ClientConfig{}).Dial(context.Background(), s.Addr().String())
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}

	deadline := time.Now().Add(time.Second)
	for s.ConnectionCount() != 1 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if s.ConnectionCount() != 1 {
		t.Fatalf("ConnectionCount = %d, want 1", s.ConnectionCount())
	}

	conn.Close()
	select {
	case <-disconnected:
	case <-time.After(time.Second):
		t.Fatal("OnDisconnect not called")
	}
}

func TestConnOverPipe(t *testing.T) {
	a, b := net.Pipe()
	ca, cb := NewConn(a, nil), NewConn(b, nil)
	defer ca.Close()
	defer cb.Close()

	go ca.SendClose()
	env, err := cb.Receive(time.Second)
	if err != nil {
		t.Fatalf("Receive: %v", err)
	}
	if env.Control() != wire.ControlClose {
		t.Errorf("got %s, want close", env)
	}

	ca.Close()
	if err := ca.SendPing(1); err != ErrConnectionClosed {
		t.Errorf("send after close = %v, want ErrConnectionClosed", err)
	}
}
