package domain

// Score thresholds for the alerting path. A report at or above
// AlertThreshold opens an alert; CriticalThreshold splits the voice and
// notification parameters.
const (
	AlertThreshold    = 70
	CriticalThreshold = 85
)

// RiskReport is the structured result of one risk-scoring query.
// Read-only once received; held as "latest known report" until
// superseded or tracking stops.
type RiskReport struct {
	OverallRiskScore int         `json:"overall_risk_score"`
	RiskLevel        string      `json:"risk_level"`
	Factors          RiskFactors `json:"factors"`
}

type RiskFactors struct {
	AccidentHotspot HotspotFactor `json:"accident_hotspot"`
	Weather         WeatherFactor `json:"weather"`
	CurrentSpeed    SpeedFactor   `json:"current_speed"`
}

type HotspotFactor struct {
	Score   int    `json:"score"`
	Label   string `json:"label"`
	Message string `json:"message"`
}

type WeatherFactor struct {
	Score       int    `json:"score"`
	Description string `json:"description"`
}

type SpeedFactor struct {
	Score    int    `json:"score"`
	SpeedKmh int    `json:"speed_kmh"`
	Message  string `json:"message"`
}

// ClampedScore returns the overall score clamped to [0, 100]. Values
// outside the range are a defect in the scoring service; they are
// clamped for display, not rejected.
func (r *RiskReport) ClampedScore() int {
	switch {
	case r.OverallRiskScore < 0:
		return 0
	case r.OverallRiskScore > 100:
		return 100
	default:
		return r.OverallRiskScore
	}
}

type AlertSeverity string

const (
	SeverityWarning  AlertSeverity = "WARNING"
	SeverityCritical AlertSeverity = "CRITICAL"
)

// SeverityFor maps an overall risk score to an alert severity.
func SeverityFor(score int) AlertSeverity {
	if score >= CriticalThreshold {
		return SeverityCritical
	}
	return SeverityWarning
}

// WeatherForecast is the optional informational forecast for the current
// position. Purely informational; fetch failures are silently absorbed.
type WeatherForecast struct {
	Temp        float64 `json:"temp"`
	Description string  `json:"description"`
	Time        string  `json:"time"`
	WindSpeed   float64 `json:"wind_speed"`
	Visibility  float64 `json:"visibility"`
}
