package domain

import "time"

// PositionSample is one normalized fix from the position source.
// RawSpeedMPS is nil when the fix carried no usable speed reading;
// the estimator falls back to distance over time.
type PositionSample struct {
	ReceivedAt time.Time

	Timestamp time.Time
	Lat       float64
	Lon       float64

	RawSpeedMPS *float64
}

// HasRawSpeed reports whether the fix carried a valid non-negative
// instantaneous speed.
func (s *PositionSample) HasRawSpeed() bool {
	return s.RawSpeedMPS != nil && *s.RawSpeedMPS >= 0
}

// StateUpdate is the live "current position" view pushed to clients on
// every sample, independent of risk logic.
type StateUpdate struct {
	SessionID string    `json:"session_id"`
	Lat       float64   `json:"lat"`
	Lon       float64   `json:"lng"`
	SpeedKmh  int       `json:"speed_kmh"`
	RiskScore *int      `json:"risk_score,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}
