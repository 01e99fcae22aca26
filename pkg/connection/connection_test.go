package connection

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

func TestBackoffSequence(t *testing.T) {
	b := NewBackoff(BackoffConfig{Initial: time.Second, Max: 8 * time.Second, Jitter: 0})

	want := []time.Duration{1, 2, 4, 8, 8}
	for i, w := range want {
		if got := b.Next(); got != w*time.Second {
			t.Errorf("attempt %d: delay = %v, want %v", i, got, w*time.Second)
		}
	}
	if b.Attempts() != len(want) {
		t.Errorf("Attempts = %d, want %d", b.Attempts(), len(want))
	}

	b.Reset()
	if b.Base() != time.Second || b.Attempts() != 0 {
		t.Errorf("after Reset: base=%v attempts=%d", b.Base(), b.Attempts())
	}
}

func TestBackoffJitterBounds(t *testing.T) {
	b := NewBackoff(BackoffConfig{Initial: 100 * time.Millisecond, Jitter: 0.25})
	for range 20 {
		b.Reset()
		d := b.Next()
		if d < 100*time.Millisecond || d > 125*time.Millisecond {
			t.Fatalf("jittered delay %v outside [100ms,125ms]", d)
		}
	}
}

func TestBackoffDefaults(t *testing.T) {
	b := NewBackoff(BackoffConfig{Multiplier: 0.5, Jitter: -1})
	if b.cfg.Initial != DefaultInitialBackoff || b.cfg.Max != DefaultMaxBackoff {
		t.Errorf("defaults not applied: %+v", b.cfg)
	}
	if b.cfg.Multiplier != DefaultMultiplier || b.cfg.Jitter != 0 {
		t.Errorf("multiplier/jitter = %v/%v", b.cfg.Multiplier, b.cfg.Jitter)
	}
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not met in time")
		}
		time.Sleep(2 * time.Millisecond)
	}
}

func TestManagerRetriesUntilConnected(t *testing.T) {
	var calls atomic.Int32
	m := NewManager(func(context.Context) error {
		if calls.Add(1) < 3 {
			return errors.New("refused")
		}
		return nil
	}, Config{Name: "test", Backoff: BackoffConfig{Initial: time.Millisecond, Max: 2 * time.Millisecond}})

	var connected atomic.Int32
	m.OnConnected(func() { connected.Add(1) })

	if err := m.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer m.Close()

	waitFor(t, m.IsConnected)
	if calls.Load() != 3 {
		t.Errorf("connect calls = %d, want 3", calls.Load())
	}
	if connected.Load() != 1 {
		t.Errorf("OnConnected calls = %d, want 1", connected.Load())
	}
	if m.Attempts() != 0 {
		t.Errorf("Attempts after success = %d, want 0", m.Attempts())
	}
}

func TestManagerReconnectsAfterLoss(t *testing.T) {
	var calls atomic.Int32
	m := NewManager(func(context.Context) error {
		calls.Add(1)
		return nil
	}, Config{Backoff: BackoffConfig{Initial: time.Millisecond}})

	var downs atomic.Int32
	m.OnDisconnected(func() { downs.Add(1) })

	if err := m.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer m.Close()
	waitFor(t, m.IsConnected)

	m.NotifyConnectionLost()
	waitFor(t, func() bool { return calls.Load() == 2 && m.IsConnected() })
	if downs.Load() != 1 {
		t.Errorf("OnDisconnected calls = %d, want 1", downs.Load())
	}
}

func TestManagerClose(t *testing.T) {
	m := NewManager(func(ctx context.Context) error {
		return errors.New("down")
	}, Config{Backoff: BackoffConfig{Initial: time.Millisecond}})

	if err := m.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := m.Start(context.Background()); !errors.Is(err, ErrAlreadyStarted) {
		t.Errorf("second Start = %v, want ErrAlreadyStarted", err)
	}

	m.Close()
	if m.State() != StateClosed {
		t.Errorf("State = %v, want CLOSED", m.State())
	}
	if err := m.Start(context.Background()); !errors.Is(err, ErrClosed) {
		t.Errorf("Start after Close = %v, want ErrClosed", err)
	}
}
