package pipeline

import (
	"context"
	"errors"
	"sync"

	"road-monitor/internal/timeutil"
)

var (
	// ErrSessionActive is returned when a start is attempted while a
	// tracking session is already running. One session at a time.
	ErrSessionActive = errors.New("a tracking session is already active")

	// ErrNoSession is returned for operations addressing a session id
	// that does not match the current session.
	ErrNoSession = errors.New("no such tracking session")
)

// Manager owns the single tracking session. Starting a new one while
// the current one is still running fails; a stopped session is replaced
// on the next start.
type Manager struct {
	clock     timeutil.Clock
	risks     RiskFetcher
	forecasts ForecastFetcher
	out       *Dispatcher

	mu      sync.Mutex
	current *Session
}

func NewManager(clock timeutil.Clock, risks RiskFetcher, forecasts ForecastFetcher, out *Dispatcher) *Manager {
	return &Manager{clock: clock, risks: risks, forecasts: forecasts, out: out}
}

// Start spins up a session and its event loop. notifyPermitted records
// whether the client granted notification permission; when false the
// session never emits notification payloads.
func (m *Manager) Start(parent context.Context, notifyPermitted bool) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.current != nil && !m.current.Stopped() {
		return nil, ErrSessionActive
	}

	s := newSession(m.clock, m.risks, m.forecasts, m.out, notifyPermitted)
	ctx, cancel := context.WithCancel(parent)
	s.cancel = cancel
	go s.Run(ctx)

	m.current = s
	return s, nil
}

// Get returns the running session with the given id.
func (m *Manager) Get(id string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.current == nil || m.current.ID != id || m.current.Stopped() {
		return nil, ErrNoSession
	}
	return m.current, nil
}

// Stop ends the session with the given id and waits for its loop to
// drain.
func (m *Manager) Stop(id string) error {
	s, err := m.Get(id)
	if err != nil {
		return err
	}
	s.Stop()
	<-s.Done()
	return nil
}

// Shutdown stops whatever session is running. Used on process exit.
func (m *Manager) Shutdown() {
	m.mu.Lock()
	s := m.current
	m.mu.Unlock()

	if s != nil && !s.Stopped() {
		s.Stop()
		<-s.Done()
	}
}
