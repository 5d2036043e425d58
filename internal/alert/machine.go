package alert

import (
	"time"

	"github.com/google/uuid"

	"road-monitor/internal/domain"
	"road-monitor/internal/timeutil"
)

// AutoDismissAfter is how long an alert stays active without manual
// dismissal.
const AutoDismissAfter = 10 * time.Second

// State is the alert lifecycle state. Exactly two states, cyclic, bound
// to the tracking session's lifetime.
type State string

const (
	StateIdle   State = "idle"
	StateActive State = "active"
)

// Session is one active alert, from activation to dismissal.
type Session struct {
	ID          string
	Report      *domain.RiskReport
	Severity    domain.AlertSeverity
	Message     string
	ActivatedAt time.Time
}

// Machine owns the single active alert session. While a session is
// active, further qualifying reports are dropped, so a stream of
// high-risk reports produces one alert, not a storm. Returning to Idle
// re-arms the machine.
//
// Not safe for concurrent use; owned by the session event loop.
type Machine struct {
	clock  timeutil.Clock
	state  State
	active *Session
	timer  timeutil.Timer
}

func NewMachine(clock timeutil.Clock) *Machine {
	return &Machine{clock: clock, state: StateIdle}
}

func (m *Machine) State() State { return m.state }

// Active returns the current session, nil when Idle.
func (m *Machine) Active() *Session {
	return m.active
}

// Offer presents a freshly received report. When the overall score meets
// the alert threshold and the machine is Idle it transitions to Active,
// starts the auto-dismiss timer, and returns the new session. All other
// cases return (nil, false).
func (m *Machine) Offer(report *domain.RiskReport) (*Session, bool) {
	if report.OverallRiskScore < domain.AlertThreshold {
		return nil, false
	}
	if m.state == StateActive {
		return nil, false
	}

	m.active = &Session{
		ID:          uuid.NewString(),
		Report:      report,
		Severity:    domain.SeverityFor(report.OverallRiskScore),
		Message:     ComposeMessage(report),
		ActivatedAt: m.clock.Now(),
	}
	m.state = StateActive
	m.timer = m.clock.NewTimer(AutoDismissAfter)

	return m.active, true
}

// AutoDismissC returns the pending auto-dismiss timer channel, or nil
// when Idle. A nil channel blocks forever in a select, so callers can
// select on it unconditionally.
func (m *Machine) AutoDismissC() <-chan time.Time {
	if m.timer == nil {
		return nil
	}
	return m.timer.C()
}

// Dismiss transitions Active to Idle, cancelling the pending auto-dismiss
// timer, and returns the dismissed session. No-op when Idle.
func (m *Machine) Dismiss() (*Session, bool) {
	if m.state != StateActive {
		return nil, false
	}

	dismissed := m.active
	m.stopTimer()
	m.active = nil
	m.state = StateIdle

	return dismissed, true
}

// Teardown releases the timer when the tracking session ends. No timer
// may outlive the session.
func (m *Machine) Teardown() {
	m.stopTimer()
	m.active = nil
	m.state = StateIdle
}

func (m *Machine) stopTimer() {
	if m.timer != nil {
		m.timer.Stop()
		m.timer = nil
	}
}
