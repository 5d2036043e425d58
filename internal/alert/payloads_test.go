package alert

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"road-monitor/internal/domain"
)

func factorReport(hotspot, weather, speedScore, overall int) *domain.RiskReport {
	return &domain.RiskReport{
		OverallRiskScore: overall,
		RiskLevel:        "Bad",
		Factors: domain.RiskFactors{
			AccidentHotspot: domain.HotspotFactor{Score: hotspot, Label: "Very High", Message: "18 accidents reported nearby."},
			Weather:         domain.WeatherFactor{Score: weather, Description: "Heavy rain with poor visibility"},
			CurrentSpeed:    domain.SpeedFactor{Score: speedScore, SpeedKmh: 140, Message: "Excessive speed"},
		},
	}
}

func TestComposeMessageQualifyingFactors(t *testing.T) {
	msg := ComposeMessage(factorReport(90, 85, 20, 88))
	assert.Contains(t, msg, "High accident risk area detected! 18 accidents reported nearby.")
	assert.Contains(t, msg, "Dangerous weather conditions: Heavy rain with poor visibility")
	assert.NotContains(t, msg, "Excessive speed detected")
}

func TestComposeMessageSpeedFactor(t *testing.T) {
	msg := ComposeMessage(factorReport(10, 10, 95, 85))
	assert.Equal(t, "Excessive speed detected: 140 km/h", msg)
}

func TestComposeMessageGenericFallback(t *testing.T) {
	msg := ComposeMessage(factorReport(30, 40, 50, 73))
	assert.Equal(t, "High risk area detected! Risk score: 73", msg)
}

func TestRecommendations(t *testing.T) {
	recs := Recommendations(factorReport(90, 20, 80, 90))
	assert.Equal(t, []string{
		"Reduce speed and increase following distance",
		"Slow down to a safe speed immediately",
		"Stay alert and be prepared to react",
	}, recs)

	// The generic recommendation is always present.
	recs = Recommendations(factorReport(10, 10, 10, 72))
	assert.Equal(t, []string{"Stay alert and be prepared to react"}, recs)
}

func TestVoicePayloadSeveritySplit(t *testing.T) {
	critical := VoicePayload("High risk area detected!", 85)
	assert.Equal(t, "Critical alert! High risk area detected!. Reduce speed immediately!", critical.Text)
	assert.InDelta(t, 1.1, critical.Rate, 1e-9)
	assert.InDelta(t, 1.2, critical.Pitch, 1e-9)
	assert.InDelta(t, 1.0, critical.Volume, 1e-9)
	assert.Equal(t, "en-US", critical.Lang)

	warning := VoicePayload("High risk area detected!", 72)
	assert.Equal(t, "Warning! High risk area detected!. Please drive carefully.", warning.Text)
	assert.InDelta(t, 1.0, warning.Rate, 1e-9)
	assert.InDelta(t, 1.0, warning.Pitch, 1e-9)
	assert.InDelta(t, 0.9, warning.Volume, 1e-9)
}

func TestNotificationPayloadSeveritySplit(t *testing.T) {
	critical := NotificationPayload("msg", 85)
	assert.Equal(t, "CRITICAL ROAD ALERT", critical.Title)
	assert.True(t, critical.RequireInteraction)
	assert.Zero(t, critical.AutoCloseMS)
	assert.Equal(t, NotificationTag, critical.Tag)
	assert.Equal(t, []int{200, 100, 200, 100, 200}, critical.Vibrate)

	warning := NotificationPayload("msg", 72)
	assert.Equal(t, "HIGH RISK ALERT", warning.Title)
	assert.False(t, warning.RequireInteraction)
	assert.Equal(t, 10000, warning.AutoCloseMS)
}

func TestBannerPayload(t *testing.T) {
	report := factorReport(90, 20, 20, 140) // defective overall score
	b := BannerPayload(report, "message text")
	require.NotNil(t, b)
	assert.Equal(t, 100, b.Score, "score is clamped for display")
	assert.Equal(t, "Bad", b.Level)
	assert.Equal(t, "message text", b.Message)
	assert.Contains(t, b.Recommendations, "Stay alert and be prepared to react")
}
