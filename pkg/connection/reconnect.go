package connection

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"
)

// Manager errors.
var (
	ErrClosed         = errors.New("connection manager closed")
	ErrAlreadyStarted = errors.New("connection manager already started")
)

// DefaultAttemptTimeout bounds a single connect attempt.
const DefaultAttemptTimeout = 10 * time.Second

// State is the session state seen by the manager.
type State uint8

const (
	StateDisconnected State = iota
	StateConnecting
	StateConnected
	StateReconnecting
	StateClosed
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "DISCONNECTED"
	case StateConnecting:
		return "CONNECTING"
	case StateConnected:
		return "CONNECTED"
	case StateReconnecting:
		return "RECONNECTING"
	case StateClosed:
		return "CLOSED"
	default:
		return "UNKNOWN"
	}
}

// ConnectFunc establishes the session. It returns nil on success.
type ConnectFunc func(ctx context.Context) error

// Config configures a Manager.
type Config struct {
	// Name identifies the peer in logs, usually its address.
	Name           string
	Backoff        BackoffConfig
	AttemptTimeout time.Duration
	Logger         *slog.Logger
}

// Manager re-runs a ConnectFunc with backoff until it succeeds, and again
// after every reported loss.
type Manager struct {
	connect ConnectFunc
	config  Config
	logger  *slog.Logger
	backoff *Backoff

	mu             sync.RWMutex
	state          State
	started        bool
	onStateChange  func(old, new State)
	onConnected    func()
	onDisconnected func()

	trigger chan struct{}
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// NewManager creates a manager for connect.
func NewManager(connect ConnectFunc, config Config) *Manager {
	if config.AttemptTimeout <= 0 {
		config.AttemptTimeout = DefaultAttemptTimeout
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		connect: connect,
		config:  config,
		logger:  logger.With("peer", config.Name),
		backoff: NewBackoff(config.Backoff),
		trigger: make(chan struct{}, 1),
	}
}

// OnStateChange sets a callback for every transition.
func (m *Manager) OnStateChange(fn func(old, new State)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onStateChange = fn
}

// OnConnected sets a callback run after each successful connect.
func (m *Manager) OnConnected(fn func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onConnected = fn
}

// OnDisconnected sets a callback run after each reported loss.
func (m *Manager) OnDisconnected(fn func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onDisconnected = fn
}

// State returns the current state.
func (m *Manager) State() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

// IsConnected reports whether the session is up.
func (m *Manager) IsConnected() bool {
	return m.State() == StateConnected
}

// Attempts returns the failed attempts since the last success.
func (m *Manager) Attempts() int {
	return m.backoff.Attempts()
}

// Start begins connecting in the background.
func (m *Manager) Start(ctx context.Context) error {
	m.mu.Lock()
	if m.state == StateClosed {
		m.mu.Unlock()
		return ErrClosed
	}
	if m.started {
		m.mu.Unlock()
		return ErrAlreadyStarted
	}
	m.started = true
	ctx, m.cancel = context.WithCancel(ctx)
	m.mu.Unlock()

	m.wg.Add(1)
	go m.loop(ctx)
	m.kick()
	return nil
}

// NotifyConnectionLost reports that the session dropped. Reconnection
// starts immediately.
func (m *Manager) NotifyConnectionLost() {
	m.mu.Lock()
	if m.state != StateConnected {
		m.mu.Unlock()
		return
	}
	old := m.state
	m.state = StateReconnecting
	onChange, onDown := m.onStateChange, m.onDisconnected
	m.mu.Unlock()

	if onChange != nil {
		onChange(old, StateReconnecting)
	}
	if onDown != nil {
		onDown()
	}
	m.kick()
}

// Close stops reconnecting and waits for the background loop.
func (m *Manager) Close() {
	m.mu.Lock()
	if m.state == StateClosed {
		m.mu.Unlock()
		return
	}
	old := m.state
	m.state = StateClosed
	cancel := m.cancel
	onChange := m.onStateChange
	m.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	m.wg.Wait()
	if onChange != nil {
		onChange(old, StateClosed)
	}
}

func (m *Manager) kick() {
	select {
	case m.trigger <- struct{}{}:
	default:
	}
}

func (m *Manager) loop(ctx context.Context) {
	defer m.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case <-m.trigger:
			m.run(ctx)
		}
	}
}

// run attempts to connect until success, close or cancellation.
func (m *Manager) run(ctx context.Context) {
	first := true
	for {
		if !m.transition(StateConnecting) {
			return
		}

		if !first {
			delay := m.backoff.Next()
			m.logger.Debug("reconnecting", "attempt", m.backoff.Attempts(), "delay", delay)
			select {
			case <-ctx.Done():
				return
			case <-time.After(delay):
			}
		}
		first = false

		attemptCtx, cancel := context.WithTimeout(ctx, m.config.AttemptTimeout)
		err := m.connect(attemptCtx)
		cancel()

		if err == nil {
			m.backoff.Reset()
			if m.transition(StateConnected) {
				m.mu.RLock()
				onUp := m.onConnected
				m.mu.RUnlock()
				if onUp != nil {
					onUp()
				}
			}
			return
		}
		m.logger.Debug("connect failed", "error", err)
	}
}

// transition moves to next unless the manager is closed or already
// connected.
func (m *Manager) transition(next State) bool {
	m.mu.Lock()
	if m.state == StateClosed || m.state == StateConnected {
		m.mu.Unlock()
		return false
	}
	old := m.state
	m.state = next
	onChange := m.onStateChange
	m.mu.Unlock()

	if onChange != nil && old != next {
		onChange(old, next)
	}
	return true
}
