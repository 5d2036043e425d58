// Package alert implements the alert lifecycle: threshold gating, the
// single-active-session state machine, and the payloads fanned out to the
// voice, notification and banner channels.
package alert

import (
	"fmt"
	"strings"

	"road-monitor/internal/domain"
)

// ComposeMessage builds the human-readable alert text from whichever
// contributing factors individually qualify, falling back to a generic
// high-risk message with the overall score.
func ComposeMessage(report *domain.RiskReport) string {
	f := report.Factors
	var parts []string

	if f.AccidentHotspot.Score >= domain.AlertThreshold {
		parts = append(parts, fmt.Sprintf("High accident risk area detected! %s", f.AccidentHotspot.Message))
	}
	if f.Weather.Score >= domain.AlertThreshold {
		parts = append(parts, fmt.Sprintf("Dangerous weather conditions: %s", f.Weather.Description))
	}
	if f.CurrentSpeed.Score >= domain.AlertThreshold {
		parts = append(parts, fmt.Sprintf("Excessive speed detected: %d km/h", f.CurrentSpeed.SpeedKmh))
	}

	if len(parts) == 0 {
		parts = append(parts, fmt.Sprintf("High risk area detected! Risk score: %d", report.OverallRiskScore))
	}

	return strings.Join(parts, " ")
}

// Recommendations lists driver guidance for the qualifying factors.
func Recommendations(report *domain.RiskReport) []string {
	f := report.Factors
	var recs []string

	if f.AccidentHotspot.Score >= domain.AlertThreshold {
		recs = append(recs, "Reduce speed and increase following distance")
	}
	if f.Weather.Score >= domain.AlertThreshold {
		recs = append(recs, "Use headlights and reduce speed for weather conditions")
	}
	if f.CurrentSpeed.Score >= domain.AlertThreshold {
		recs = append(recs, "Slow down to a safe speed immediately")
	}

	return append(recs, "Stay alert and be prepared to react")
}
