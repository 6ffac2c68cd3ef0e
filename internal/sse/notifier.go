package sse

import (
	"time"

	"github.com/eventstream/pulse/internal/models"
)

// Notifier is the interface services use to emit admin dashboard events.
type Notifier interface {
	NotifyEvent(kind models.EventKind, messageID int, appID string)
	NotifyMessageChanged(msg *models.Message)
	NotifyMessageDeleted(messageID int)
	NotifyKeyExpiry(key *models.APIKey, expired bool)
}

// HubNotifier implements Notifier using the SSE Hub.
type HubNotifier struct {
	hub *Hub
	now func() time.Time
}

// NewHubNotifier creates a notifier backed by the given Hub.
func NewHubNotifier(hub *Hub) *HubNotifier {
	return &HubNotifier{hub: hub, now: time.Now}
}

func (n *HubNotifier) send(e *Event) {
	if n.hub.Open() == 0 {
		return
	}
	e.Timestamp = n.now().UTC()
	n.hub.Publish(e)
}

func (n *HubNotifier) NotifyEvent(kind models.EventKind, messageID int, appID string) {
	event := EventMessageImpression
	if kind == models.EventTap {
		event = EventMessageTap
	}
	n.send(&Event{Event: event, MessageID: messageID, AppID: appID})
}

func (n *HubNotifier) NotifyMessageChanged(msg *models.Message) {
	n.send(&Event{
		Event:     EventMessageChanged,
		MessageID: msg.ID,
		Title:     msg.Title,
		Status:    string(msg.Status(n.now())),
	})
}

func (n *HubNotifier) NotifyMessageDeleted(messageID int) {
	n.send(&Event{Event: EventMessageDeleted, MessageID: messageID})
}

func (n *HubNotifier) NotifyKeyExpiry(key *models.APIKey, expired bool) {
	event := EventAPIKeyExpiring
	if expired {
		event = EventAPIKeyExpired
	}
	n.send(&Event{Event: event, KeyName: key.Name, ExpiresAt: key.ExpiresAt})
}

// NopNotifier is a no-op implementation for when SSE is not needed.
type NopNotifier struct{}

func (NopNotifier) NotifyEvent(models.EventKind, int, string) {}
func (NopNotifier) NotifyMessageChanged(*models.Message)      {}
func (NopNotifier) NotifyMessageDeleted(int)                  {}
func (NopNotifier) NotifyKeyExpiry(*models.APIKey, bool)      {}
