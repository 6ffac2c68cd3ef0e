package models

import "time"

// MessageType enumerates how a client renders a message.
type MessageType string

const (
	MessageTypeModal       MessageType = "modal"
	MessageTypeBanner      MessageType = "banner"
	MessageTypeBottomSheet MessageType = "bottom_sheet"
	MessageTypeFullScreen  MessageType = "full_screen"
)

// Valid reports whether t is a known message type.
func (t MessageType) Valid() bool {
	switch t {
	case MessageTypeModal, MessageTypeBanner, MessageTypeBottomSheet, MessageTypeFullScreen:
		return true
	}
	return false
}

// BannerPosition is only meaningful for banner messages.
type BannerPosition string

const (
	BannerPositionTop    BannerPosition = "top"
	BannerPositionBottom BannerPosition = "bottom"
)

func (p BannerPosition) Valid() bool {
	return p == BannerPositionTop || p == BannerPositionBottom
}

// Priority levels. Lower values are shown first.
const (
	PriorityCritical = 1
	PriorityHigh     = 2
	PriorityNormal   = 3
	PriorityLow      = 4
)

// MessageStatus is the admin-facing lifecycle badge.
type MessageStatus string

const (
	StatusLive      MessageStatus = "LIVE"
	StatusDraft     MessageStatus = "DRAFT"
	StatusScheduled MessageStatus = "SCHEDULED"
	StatusEnded     MessageStatus = "ENDED"
)

// Message is an in-app message authored by staff and shown by client apps.
// Fields are tagged for both DB scanning and JSON serialization.
type Message struct {
	ID       int    `db:"id" json:"id"`
	Title    string `db:"title" json:"title"`
	Body     string `db:"body" json:"body"`
	ImageURL string `db:"image_url" json:"imageUrl"`

	CTAText   string `db:"cta_text" json:"ctaText"`
	CTAAction string `db:"cta_action" json:"ctaAction"`

	MessageType    MessageType    `db:"message_type" json:"messageType"`
	BannerPosition BannerPosition `db:"banner_position" json:"bannerPosition"`
	Priority       int            `db:"priority" json:"priority"`
	IsDismissible  bool           `db:"is_dismissible" json:"isDismissible"`

	BackgroundColor string `db:"background_color" json:"backgroundColor"`
	TitleColor      string `db:"title_color" json:"titleColor"`
	BodyColor       string `db:"body_color" json:"bodyColor"`
	ButtonColor     string `db:"button_color" json:"buttonColor"`
	ButtonTextColor string `db:"button_text_color" json:"buttonTextColor"`

	StartDate time.Time  `db:"start_date" json:"startDate"`
	EndDate   *time.Time `db:"end_date" json:"endDate"`
	IsActive  bool       `db:"is_active" json:"isActive"`

	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
	CreatedBy *int      `db:"created_by" json:"createdBy,omitempty"`

	// TargetAppIDs holds the app_id slugs of the apps this message targets.
	// Loaded separately from message_target_apps.
	TargetAppIDs []string `db:"-" json:"targetAppIds"`
}

// IsCurrentlyActive is the single eligibility predicate: the message is
// enabled and now falls inside [StartDate, EndDate).
func (m *Message) IsCurrentlyActive(now time.Time) bool {
	if !m.IsActive {
		return false
	}
	if m.StartDate.After(now) {
		return false
	}
	return m.EndDate == nil || m.EndDate.After(now)
}

// Status derives the admin badge from the same predicate.
func (m *Message) Status(now time.Time) MessageStatus {
	switch {
	case m.IsCurrentlyActive(now):
		return StatusLive
	case !m.IsActive:
		return StatusDraft
	case m.StartDate.After(now):
		return StatusScheduled
	default:
		return StatusEnded
	}
}

// TargetsApp reports whether appID is among the message's targets.
func (m *Message) TargetsApp(appID string) bool {
	for _, id := range m.TargetAppIDs {
		if id == appID {
			return true
		}
	}
	return false
}

// MessageView is the read API representation of a message.
type MessageView struct {
	Message
	IsCurrentlyActive bool `json:"isCurrentlyActive"`
}

// AdminMessageView adds admin-only derived fields.
type AdminMessageView struct {
	MessageView
	Status      MessageStatus `json:"status"`
	Impressions int           `json:"impressions"`
	Taps        int           `json:"taps"`
}

// NewMessageView evaluates the predicate at now.
func NewMessageView(m Message, now time.Time) MessageView {
	return MessageView{Message: m, IsCurrentlyActive: m.IsCurrentlyActive(now)}
}

// MessageFilter narrows admin message listings.
type MessageFilter struct {
	IsActive    *bool
	MessageType string
	Priority    int
	AppID       string
	Search      string
	Page        int
	Limit       int
}
