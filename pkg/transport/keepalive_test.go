package transport

import (
	"context"
	"sync/atomic"
	"testing"
	"time"
)

func TestKeepAliveDefaults(t *testing.T) {
	c := DefaultKeepAliveConfig()
	if got, want := c.DetectionDelay(), 15*time.Second*3+5*time.Second; got != want {
		t.Errorf("DetectionDelay = %v, want %v", got, want)
	}

	ka := NewKeepAlive(KeepAliveConfig{}, func(uint32) error { return nil }, nil)
	if ka.config != DefaultKeepAliveConfig() {
		t.Errorf("zero config not defaulted: %+v", ka.config)
	}
}

func TestKeepAliveTimesOutWithoutPongs(t *testing.T) {
	timedOut := make(chan struct{})
	var pings atomic.Int32

	ka := NewKeepAlive(KeepAliveConfig{
		PingInterval:   10 * time.Millisecond,
		PongTimeout:    5 * time.Millisecond,
		MaxMissedPongs: 2,
	}, func(uint32) error {
		pings.Add(1)
		return nil
	}, func() { close(timedOut) })

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	ka.Start(ctx)

	select {
	case <-timedOut:
	case <-time.After(time.Second):
		t.Fatal("keep-alive did not time out")
	}
	if pings.Load() < 2 {
		t.Errorf("pings = %d, want at least 2", pings.Load())
	}
}

func TestKeepAlivePongsKeepAlive(t *testing.T) {
	var timedOut atomic.Bool
	var ka *KeepAlive
	ka = NewKeepAlive(KeepAliveConfig{
		PingInterval:   10 * time.Millisecond,
		PongTimeout:    5 * time.Millisecond,
		MaxMissedPongs: 2,
	}, func(seq uint32) error {
		go ka.PongReceived(seq)
		return nil
	}, func() { timedOut.Store(true) })

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	ka.Start(ctx)
	time.Sleep(80 * time.Millisecond)
	ka.Stop()

	if timedOut.Load() {
		t.Error("keep-alive timed out despite pongs")
	}
	if ka.MissedPongs() != 0 {
		t.Errorf("MissedPongs = %d, want 0", ka.MissedPongs())
	}
}
