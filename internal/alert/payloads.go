package alert

import (
	"fmt"

	"road-monitor/internal/domain"
)

// NotificationTag deduplicates OS notifications: a second alert replaces
// the previous one instead of stacking.
const NotificationTag = "road-safety-alert"

// autoCloseMS is how long a sub-critical notification stays before the
// client closes it.
const autoCloseMS = 10000

var vibrationPattern = []int{200, 100, 200, 100, 200}

// VoicePayload builds the utterance for an alert. Critical alerts speak
// faster, higher-pitched, and at maximum volume.
func VoicePayload(message string, score int) *domain.VoicePayload {
	if score >= domain.CriticalThreshold {
		return &domain.VoicePayload{
			Text:   fmt.Sprintf("Critical alert! %s. Reduce speed immediately!", message),
			Lang:   "en-US",
			Rate:   1.1,
			Pitch:  1.2,
			Volume: 1.0,
		}
	}
	return &domain.VoicePayload{
		Text:   fmt.Sprintf("Warning! %s. Please drive carefully.", message),
		Lang:   "en-US",
		Rate:   1.0,
		Pitch:  1.0,
		Volume: 0.9,
	}
}

// NotificationPayload builds the OS notification for an alert. Critical
// alerts persist until interacted with; sub-critical ones auto-close.
func NotificationPayload(message string, score int) *domain.NotificationPayload {
	critical := score >= domain.CriticalThreshold

	p := &domain.NotificationPayload{
		Body:               message,
		Vibrate:            vibrationPattern,
		Tag:                NotificationTag,
		RequireInteraction: critical,
	}
	if critical {
		p.Title = "CRITICAL ROAD ALERT"
	} else {
		p.Title = "HIGH RISK ALERT"
		p.AutoCloseMS = autoCloseMS
	}
	return p
}

// BannerPayload builds the in-app alert surface. Independent of
// notification permission state.
func BannerPayload(report *domain.RiskReport, message string) *domain.BannerPayload {
	return &domain.BannerPayload{
		Score:           report.ClampedScore(),
		Level:           report.RiskLevel,
		Message:         message,
		Recommendations: Recommendations(report),
	}
}
