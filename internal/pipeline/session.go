package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"road-monitor/internal/alert"
	"road-monitor/internal/domain"
	"road-monitor/internal/metrics"
	"road-monitor/internal/risk"
	"road-monitor/internal/speed"
	"road-monitor/internal/timeutil"
)

var (
	ErrSessionStopped = errors.New("tracking session has stopped")
	ErrSessionBusy    = errors.New("tracking session event queue is full")
)

// RiskFetcher queries the external risk-scoring service.
type RiskFetcher interface {
	FetchReport(ctx context.Context, lat, lon float64, speedKmh int) (*domain.RiskReport, error)
}

// ForecastFetcher queries the optional weather forecast service.
type ForecastFetcher interface {
	Configured() bool
	FetchForecast(ctx context.Context, lat, lon float64) (*domain.WeatherForecast, error)
}

// Snapshot is the externally visible state of a session, served on the
// session endpoint.
type Snapshot struct {
	SessionID              string                  `json:"session_id"`
	Running                bool                    `json:"running"`
	NotificationsPermitted bool                    `json:"notifications_permitted"`
	HasPosition            bool                    `json:"has_position"`
	Lat                    float64                 `json:"lat"`
	Lon                    float64                 `json:"lng"`
	SpeedKmh               int                     `json:"speed_kmh"`
	LatestReport           *domain.RiskReport      `json:"latest_report,omitempty"`
	WeatherDescription     string                  `json:"weather_description,omitempty"`
	Forecast               *domain.WeatherForecast `json:"forecast,omitempty"`
	AlertState             string                  `json:"alert_state"`
	ActiveAlertID          string                  `json:"active_alert_id,omitempty"`
	LastError              string                  `json:"last_error,omitempty"`
	Fault                  string                  `json:"fault,omitempty"`
}

// Session is one tracking session: it owns the speed estimator, the
// query throttle and the alert state machine, and advances them from a
// single event-loop goroutine. All external entry points post events;
// nothing touches the owned state directly.
type Session struct {
	ID string

	clock     timeutil.Clock
	estimator *speed.Estimator
	throttle  *risk.Throttle
	machine   *alert.Machine
	risks     RiskFetcher
	forecasts ForecastFetcher
	out       *Dispatcher

	notifyPermitted bool

	events chan event
	cancel context.CancelFunc
	done   chan struct{}

	// activeEvent is the audit record of the active alert; nil when the
	// machine is idle. Owned by the event loop.
	activeEvent *domain.AlertEvent

	mu   sync.RWMutex
	snap Snapshot
}

func newSession(clock timeutil.Clock, risks RiskFetcher, forecasts ForecastFetcher, out *Dispatcher, notifyPermitted bool) *Session {
	id := uuid.NewString()
	return &Session{
		ID:              id,
		clock:           clock,
		estimator:       speed.NewEstimator(),
		throttle:        risk.NewThrottle(clock, risk.QueryWindow),
		machine:         alert.NewMachine(clock),
		risks:           risks,
		forecasts:       forecasts,
		out:             out,
		notifyPermitted: notifyPermitted,
		events:          make(chan event, 64),
		done:            make(chan struct{}),
		snap: Snapshot{
			SessionID:              id,
			Running:                true,
			NotificationsPermitted: notifyPermitted,
			AlertState:             string(alert.StateIdle),
		},
	}
}

// Run drives the event loop until ctx is cancelled or the position
// source reports a terminal fault.
func (s *Session) Run(ctx context.Context) {
	defer close(s.done)
	defer s.teardown()
	defer s.cancel()

	for {
		select {
		case <-ctx.Done():
			return

		case <-s.machine.AutoDismissC():
			s.finishAlert(true)

		case ev := <-s.events:
			if s.handle(ctx, ev) {
				return
			}
		}
	}
}

func (s *Session) handle(ctx context.Context, ev event) (stop bool) {
	switch ev := ev.(type) {
	case positionEvent:
		s.onPosition(ctx, ev.sample)
	case faultEvent:
		s.onFault(ev.reason)
		return true
	case manualCheckEvent:
		s.onManualCheck(ctx, ev)
	case reportEvent:
		s.onReport(ev)
	case forecastEvent:
		s.onForecast(ev.forecast)
	case dismissEvent:
		s.finishAlert(false)
	}
	return false
}

func (s *Session) onPosition(ctx context.Context, sample *domain.PositionSample) {
	metrics.SamplesReceived.Add(1)

	s.estimator.Update(sample)
	speedKmh := s.estimator.RoundedKmh()

	// Publish current position immediately, regardless of risk logic.
	var scorePtr *int
	s.mu.Lock()
	s.snap.HasPosition = true
	s.snap.Lat = sample.Lat
	s.snap.Lon = sample.Lon
	s.snap.SpeedKmh = speedKmh
	if s.snap.LatestReport != nil {
		score := s.snap.LatestReport.ClampedScore()
		scorePtr = &score
	}
	s.mu.Unlock()

	s.out.DispatchState(&domain.StateUpdate{
		SessionID: s.ID,
		Lat:       sample.Lat,
		Lon:       sample.Lon,
		SpeedKmh:  speedKmh,
		RiskScore: scorePtr,
		Timestamp: sample.Timestamp,
	})

	if !s.throttle.Allow() {
		metrics.RiskQueriesThrottled.Add(1)
		return
	}
	metrics.RiskQueriesFired.Add(1)
	go s.fetchReport(ctx, sample.Lat, sample.Lon, speedKmh, nil)
}

func (s *Session) onManualCheck(ctx context.Context, ev manualCheckEvent) {
	// Manual triggers bypass the throttle. With no live estimate yet,
	// the conventional default speed is sent instead.
	speedKmh := risk.DefaultSpeedKmh
	if s.estimator.HasState() {
		speedKmh = s.estimator.RoundedKmh()
	}
	metrics.RiskQueriesFired.Add(1)
	go s.fetchReport(ctx, ev.lat, ev.lon, speedKmh, ev.reply)
}

// fetchReport runs outside the loop so a slow scoring backend never
// blocks position handling. The result re-enters the loop as an event
// and is dropped when the session stops first.
func (s *Session) fetchReport(ctx context.Context, lat, lon float64, speedKmh int, reply chan manualCheckResult) {
	report, err := s.risks.FetchReport(ctx, lat, lon, speedKmh)
	s.post(ctx, reportEvent{report: report, err: err, reply: reply})

	if err != nil || s.forecasts == nil || !s.forecasts.Configured() {
		return
	}
	fc, ferr := s.forecasts.FetchForecast(ctx, lat, lon)
	if ferr != nil {
		// Informational only; absorbed without surfacing.
		return
	}
	s.post(ctx, forecastEvent{forecast: fc})
}

func (s *Session) post(ctx context.Context, ev event) {
	select {
	case s.events <- ev:
	case <-ctx.Done():
	}
}

func (s *Session) onReport(ev reportEvent) {
	if ev.err != nil {
		metrics.RiskQueryFailures.Add(1)
		msg := failureMessage(ev.err)
		s.mu.Lock()
		s.snap.LastError = msg
		s.mu.Unlock()
		if ev.reply != nil {
			ev.reply <- manualCheckResult{err: ev.err}
		}
		return
	}

	report := ev.report
	s.mu.Lock()
	s.snap.LatestReport = report
	s.snap.LastError = ""
	if desc := report.Factors.Weather.Description; desc != "" {
		s.snap.WeatherDescription = desc
	}
	s.mu.Unlock()

	if ev.reply != nil {
		ev.reply <- manualCheckResult{report: report}
	}

	if sess, ok := s.machine.Offer(report); ok {
		s.activateAlert(sess)
	}
}

func (s *Session) onForecast(fc *domain.WeatherForecast) {
	s.mu.Lock()
	s.snap.Forecast = fc
	s.mu.Unlock()

	s.out.DispatchFeed(s.feedMsg(domain.FeedWeather, fc))
}

func (s *Session) activateAlert(sess *alert.Session) {
	metrics.AlertsActivated.Add(1)
	score := sess.Report.OverallRiskScore

	s.out.DispatchFeed(s.feedMsg(domain.FeedVoice, alert.VoicePayload(sess.Message, score)))
	if s.notifyPermitted {
		s.out.DispatchFeed(s.feedMsg(domain.FeedNotification, alert.NotificationPayload(sess.Message, score)))
	}
	s.out.DispatchFeed(s.feedMsg(domain.FeedBanner, alert.BannerPayload(sess.Report, sess.Message)))

	s.activeEvent = &domain.AlertEvent{
		AlertID:     sess.ID,
		SessionID:   s.ID,
		Score:       sess.Report.ClampedScore(),
		Level:       sess.Report.RiskLevel,
		Severity:    sess.Severity,
		Message:     sess.Message,
		ActivatedAt: sess.ActivatedAt,
	}
	s.out.DispatchAudit(AuditOp{Kind: AuditActivate, Event: s.activeEvent})

	s.mu.Lock()
	s.snap.AlertState = string(alert.StateActive)
	s.snap.ActiveAlertID = sess.ID
	s.mu.Unlock()
}

func (s *Session) finishAlert(auto bool) {
	sess, ok := s.machine.Dismiss()
	if !ok {
		return
	}
	metrics.AlertsDismissed.Add(1)

	s.out.DispatchFeed(s.feedMsg(domain.FeedVoiceCancel, nil))
	s.out.DispatchFeed(s.feedMsg(domain.FeedDismiss, &domain.DismissPayload{AlertID: sess.ID, Auto: auto}))

	if s.activeEvent != nil {
		now := s.clock.Now()
		s.activeEvent.DismissedAt = &now
		s.activeEvent.AutoDismissed = auto
		s.out.DispatchAudit(AuditOp{Kind: AuditDismiss, Event: s.activeEvent})
		s.activeEvent = nil
	}

	s.mu.Lock()
	s.snap.AlertState = string(alert.StateIdle)
	s.snap.ActiveAlertID = ""
	s.mu.Unlock()
}

func (s *Session) onFault(reason string) {
	s.mu.Lock()
	s.snap.Fault = reason
	s.mu.Unlock()
}

// teardown guarantees no timer or utterance outlives the session: an
// active alert's speech is cancelled, its timer stopped, and its audit
// record closed out.
func (s *Session) teardown() {
	if sess := s.machine.Active(); sess != nil {
		s.out.DispatchFeed(s.feedMsg(domain.FeedVoiceCancel, nil))
		if s.activeEvent != nil {
			now := s.clock.Now()
			s.activeEvent.DismissedAt = &now
			s.out.DispatchAudit(AuditOp{Kind: AuditDismiss, Event: s.activeEvent})
			s.activeEvent = nil
		}
	}
	s.machine.Teardown()
	s.estimator.Reset()

	s.mu.Lock()
	s.snap.Running = false
	s.snap.AlertState = string(alert.StateIdle)
	s.snap.ActiveAlertID = ""
	s.mu.Unlock()
}

func (s *Session) feedMsg(t domain.FeedType, payload interface{}) *domain.FeedMessage {
	return &domain.FeedMessage{
		Type:      t,
		SessionID: s.ID,
		SentAt:    s.clock.Now(),
		Payload:   payload,
	}
}

func failureMessage(err error) string {
	switch risk.Classify(err) {
	case risk.FailureConfig:
		return "Risk service not configured; live risk scoring is unavailable"
	case risk.FailureHTTP:
		return fmt.Sprintf("Risk service error: %v", err)
	default:
		return "Risk service unreachable; retrying on the next update"
	}
}

// Submit posts one raw position fix into the session.
func (s *Session) Submit(sample *domain.PositionSample) error {
	select {
	case <-s.done:
		return ErrSessionStopped
	default:
	}
	select {
	case s.events <- positionEvent{sample: sample}:
		return nil
	default:
		return ErrSessionBusy
	}
}

// ReportFault signals a terminal position-source failure. The session
// ends; it is not restarted silently.
func (s *Session) ReportFault(reason string) error {
	select {
	case <-s.done:
		return ErrSessionStopped
	case s.events <- faultEvent{reason: reason}:
		return nil
	}
}

// ManualCheck performs an unthrottled risk query at the given point and
// waits for the result.
func (s *Session) ManualCheck(ctx context.Context, lat, lon float64) (*domain.RiskReport, error) {
	reply := make(chan manualCheckResult, 1)

	select {
	case s.events <- manualCheckEvent{lat: lat, lon: lon, reply: reply}:
	case <-s.done:
		return nil, ErrSessionStopped
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	select {
	case res := <-reply:
		return res.report, res.err
	case <-s.done:
		return nil, ErrSessionStopped
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// DismissAlert requests manual dismissal of the active alert, if any.
func (s *Session) DismissAlert() error {
	select {
	case <-s.done:
		return ErrSessionStopped
	case s.events <- dismissEvent{}:
		return nil
	}
}

// Snapshot returns a copy of the externally visible session state.
func (s *Session) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap
}

// Done is closed when the event loop has exited.
func (s *Session) Done() <-chan struct{} {
	return s.done
}

// Stopped reports whether the session has ended.
func (s *Session) Stopped() bool {
	select {
	case <-s.done:
		return true
	default:
		return false
	}
}

// Stop cancels the session from outside the loop.
func (s *Session) Stop() {
	s.cancel()
}
