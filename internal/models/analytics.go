package models

import "time"

// Impression records a message being displayed by a client app.
type Impression struct {
	ID        int       `db:"id" json:"id"`
	MessageID int       `db:"message_id" json:"messageId"`
	AppID     string    `db:"app_id" json:"appId"`
	Timestamp time.Time `db:"timestamp" json:"timestamp"`
}

// Tap records a user tapping a message's call to action.
type Tap struct {
	ID        int       `db:"id" json:"id"`
	MessageID int       `db:"message_id" json:"messageId"`
	AppID     string    `db:"app_id" json:"appId"`
	Timestamp time.Time `db:"timestamp" json:"timestamp"`
}

// EventKind distinguishes impressions from taps.
type EventKind string

const (
	EventImpression EventKind = "impression"
	EventTap        EventKind = "tap"
)

// AppEventCount is one row of a per-app breakdown.
type AppEventCount struct {
	AppID       string  `db:"app_id" json:"appId"`
	Impressions int     `db:"impressions" json:"impressions"`
	Taps        int     `db:"taps" json:"taps"`
	CTR         float64 `db:"-" json:"ctr"`
}

// MessageStats summarises engagement for one message.
type MessageStats struct {
	MessageID   int             `json:"messageId"`
	Impressions int             `json:"impressions"`
	Taps        int             `json:"taps"`
	CTR         float64         `json:"ctr"`
	ByApp       []AppEventCount `json:"byApp"`
}

// ClickThroughRate returns taps as a percentage of impressions, or 0 with no impressions.
func ClickThroughRate(impressions, taps int) float64 {
	if impressions <= 0 {
		return 0
	}
	return float64(taps) / float64(impressions) * 100
}
