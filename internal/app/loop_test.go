package app

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/pvmon/pvmon-go/pkg/monitor"
	"github.com/pvmon/pvmon-go/pkg/monitor/mocks"
	"github.com/pvmon/pvmon-go/pkg/pv"
)

func TestLoopClosesEngineOnCancel(t *testing.T) {
	tr := mocks.NewMockTransport(t)
	ready := make(chan struct{})
	tr.EXPECT().SetExceptionHandler(mock.Anything).Return()
	tr.EXPECT().Ready().Return((<-chan struct{})(ready))
	tr.EXPECT().PumpEvents(mock.Anything, time.Duration(0)).Return(nil).Maybe()

	engine := monitor.NewEngine(tr, monitor.Config{WaitForConnect: -1})
	loop := NewLoop(LoopConfig{Engine: engine, Tick: 5 * time.Millisecond})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- loop.Run(ctx) }()

	time.Sleep(20 * time.Millisecond)
	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run = %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("loop did not stop")
	}
	if err := engine.AddMonitor("x"); err == nil {
		t.Error("engine still open after loop stopped")
	}
}

func TestLoopFeedsCommands(t *testing.T) {
	tr := mocks.NewMockTransport(t)
	tr.EXPECT().SetExceptionHandler(mock.Anything).Return()
	tr.EXPECT().Ready().Return((<-chan struct{})(make(chan struct{}))).Maybe()
	tr.EXPECT().PumpEvents(mock.Anything, mock.Anything).Return(nil).Maybe()
	tr.EXPECT().Connect("pump", mock.Anything).Return(pv.Handle(7), nil).Once()
	tr.EXPECT().Clear(pv.Handle(7)).Return(nil).Once()

	engine := monitor.NewEngine(tr, monitor.Config{WaitForConnect: -1})
	lines := make(chan string)
	loop := NewLoop(LoopConfig{
		Engine: engine,
		Feed:   monitor.NewFeed(engine, monitor.FeedConfig{}),
		Lines:  lines,
		Tick:   time.Hour,
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- loop.Run(ctx) }()

	lines <- "pump START"
	lines <- "nospace"
	close(lines)
	time.Sleep(20 * time.Millisecond)

	cancel()
	if err := <-done; err != nil {
		t.Fatalf("Run = %v", err)
	}
}
