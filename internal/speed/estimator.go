// Package speed derives a smoothed speed estimate from irregular, noisy
// position fixes.
package speed

import (
	"math"
	"time"

	"road-monitor/internal/domain"
)

const (
	// MPSToKmh converts metres per second to kilometres per hour.
	MPSToKmh = 3.6

	// maxPlausibleKmh is the glitch ceiling for distance-derived speeds.
	// A single bad fix can imply hundreds of km/h; such values are
	// discarded as 0 rather than propagated.
	maxPlausibleKmh = 200.0

	// minSampleGap guards the distance/time fallback against
	// divide-by-near-zero amplification.
	minSampleGap = 500 * time.Millisecond

	// Exponential smoothing weights. 70/30 damps GPS jitter without
	// introducing perceptible lag.
	instantWeight  = 0.7
	previousWeight = 0.3
)

// Estimator converts a stream of position samples into a smoothed speed
// value. It prefers the source's own speed reading when present and falls
// back to great-circle distance over elapsed time otherwise.
//
// Estimator is not safe for concurrent use; the session event loop owns
// it exclusively.
type Estimator struct {
	haveLast bool
	lastLat  float64
	lastLon  float64
	lastTime time.Time
	smoothed float64
}

func NewEstimator() *Estimator {
	return &Estimator{}
}

// Update ingests one sample and returns the new smoothed speed in km/h,
// always >= 0.
func (e *Estimator) Update(s *domain.PositionSample) float64 {
	instant := 0.0
	switch {
	case s.HasRawSpeed():
		instant = *s.RawSpeedMPS * MPSToKmh
	case e.haveLast:
		dt := s.Timestamp.Sub(e.lastTime)
		if dt > minSampleGap {
			meters := HaversineMeters(e.lastLat, e.lastLon, s.Lat, s.Lon)
			instant = meters / dt.Seconds() * MPSToKmh
			if instant > maxPlausibleKmh {
				instant = 0
			}
		}
	}

	if e.haveLast {
		instant = instant*instantWeight + e.smoothed*previousWeight
	}

	e.lastLat = s.Lat
	e.lastLon = s.Lon
	e.lastTime = s.Timestamp
	e.smoothed = instant
	e.haveLast = true

	return e.SpeedKmh()
}

// SpeedKmh returns the current smoothed speed, clamped to >= 0.
func (e *Estimator) SpeedKmh() float64 {
	return math.Max(0, e.smoothed)
}

// RoundedKmh returns the smoothed speed rounded to the nearest integer,
// as sent to the risk-scoring service.
func (e *Estimator) RoundedKmh() int {
	return int(math.Round(e.SpeedKmh()))
}

// HasState reports whether at least one sample has been ingested since
// the last reset.
func (e *Estimator) HasState() bool {
	return e.haveLast
}

// Reset clears all accumulated state. Called when a tracking session
// restarts so no stale speed carries over.
func (e *Estimator) Reset() {
	*e = Estimator{}
}
