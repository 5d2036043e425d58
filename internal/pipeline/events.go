package pipeline

import "road-monitor/internal/domain"

// Events consumed by the session loop. Position updates, manual triggers,
// query completions and dismissals all flow through one channel, so the
// state machine advances deterministically regardless of where the event
// originated.
type event interface{ isEvent() }

type positionEvent struct {
	sample *domain.PositionSample
}

// faultEvent reports a terminal position-source failure (permission
// revoked, sensor unavailable). It ends the session.
type faultEvent struct {
	reason string
}

// manualCheckEvent is a user-initiated point-of-interest risk check. It
// bypasses the query throttle.
type manualCheckEvent struct {
	lat   float64
	lon   float64
	reply chan manualCheckResult
}

type manualCheckResult struct {
	report *domain.RiskReport
	err    error
}

// reportEvent re-enters the loop when an in-flight risk query resolves.
type reportEvent struct {
	report *domain.RiskReport
	err    error
	reply  chan manualCheckResult // non-nil for manual checks
}

// forecastEvent carries the informational weather forecast; fetch
// failures never produce one.
type forecastEvent struct {
	forecast *domain.WeatherForecast
}

type dismissEvent struct{}

func (positionEvent) isEvent()    {}
func (faultEvent) isEvent()       {}
func (manualCheckEvent) isEvent() {}
func (reportEvent) isEvent()      {}
func (forecastEvent) isEvent()    {}
func (dismissEvent) isEvent()     {}
