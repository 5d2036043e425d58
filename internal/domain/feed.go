package domain

import "time"

// FeedType identifies a message on the client feed.
type FeedType string

const (
	FeedState        FeedType = "state_update"
	FeedVoice        FeedType = "voice_alert"
	FeedVoiceCancel  FeedType = "voice_cancel"
	FeedNotification FeedType = "notification"
	FeedBanner       FeedType = "alert_banner"
	FeedDismiss      FeedType = "alert_dismissed"
	FeedWeather      FeedType = "weather_update"
)

// FeedMessage is the envelope pushed to WebSocket clients and mirrored
// onto the Redis feed channel.
type FeedMessage struct {
	Type      FeedType    `json:"type"`
	SessionID string      `json:"session_id"`
	SentAt    time.Time   `json:"sent_at"`
	Payload   interface{} `json:"payload,omitempty"`
}

// VoicePayload describes one synthesized utterance. The client cancels
// any in-progress speech before starting this one.
type VoicePayload struct {
	Text   string  `json:"text"`
	Lang   string  `json:"lang"`
	Rate   float64 `json:"rate"`
	Pitch  float64 `json:"pitch"`
	Volume float64 `json:"volume"`
}

// NotificationPayload describes one OS-level notification. Tag keeps a
// second alert replacing rather than stacking. AutoCloseMS of zero means
// the notification persists until interacted with.
type NotificationPayload struct {
	Title              string `json:"title"`
	Body               string `json:"body"`
	Vibrate            []int  `json:"vibrate"`
	Tag                string `json:"tag"`
	RequireInteraction bool   `json:"require_interaction"`
	AutoCloseMS        int    `json:"auto_close_ms,omitempty"`
	Silent             bool   `json:"silent"`
}

// BannerPayload is the in-app alert surface.
type BannerPayload struct {
	Score           int      `json:"score"`
	Level           string   `json:"level"`
	Message         string   `json:"message"`
	Recommendations []string `json:"recommendations"`
}

// DismissPayload announces the end of an alert session on the feed.
type DismissPayload struct {
	AlertID string `json:"alert_id"`
	Auto    bool   `json:"auto"`
}

// AlertEvent is the audit record for one alert session, written to
// Postgres on activation and updated on dismissal.
type AlertEvent struct {
	AlertID   string
	SessionID string

	Score    int
	Level    string
	Severity AlertSeverity
	Message  string

	ActivatedAt   time.Time
	DismissedAt   *time.Time
	AutoDismissed bool
}
