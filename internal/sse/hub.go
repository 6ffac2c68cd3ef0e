package sse

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/eventstream/pulse/internal/metrics"
)

// EventType is the "event" field of a dashboard frame.
type EventType string

const (
	EventMessageImpression EventType = "message.impression"
	EventMessageTap        EventType = "message.tap"
	EventMessageChanged    EventType = "message.changed"
	EventMessageDeleted    EventType = "message.deleted"
	EventAPIKeyExpiring    EventType = "api_key.expiring"
	EventAPIKeyExpired     EventType = "api_key.expired"
)

// Event is one dashboard frame. Message events carry MessageID, key events
// carry KeyName.
type Event struct {
	Event     EventType  `json:"event"`
	MessageID int        `json:"messageId,omitempty"`
	AppID     string     `json:"appId,omitempty"`
	Title     string     `json:"title,omitempty"`
	Status    string     `json:"status,omitempty"`
	KeyName   string     `json:"keyName,omitempty"`
	ExpiresAt *time.Time `json:"expiresAt,omitempty"`
	Timestamp time.Time  `json:"timestamp"`
}

const subscriberBuffer = 64

// Subscriber is one open admin dashboard stream.
type Subscriber struct {
	ID          string
	AdminUserID int
	Frames      chan []byte
}

// Hub fans dashboard events out to every open admin stream.
type Hub struct {
	mu   sync.RWMutex
	subs map[string]*Subscriber
	now  func() time.Time
}

func NewHub() *Hub {
	return &Hub{subs: make(map[string]*Subscriber), now: time.Now}
}

// Subscribe opens a stream for an admin. Reusing an id replaces the previous
// stream and closes its channel.
func (h *Hub) Subscribe(id string, adminUserID int) *Subscriber {
	h.mu.Lock()
	defer h.mu.Unlock()

	if old, ok := h.subs[id]; ok {
		close(old.Frames)
	}
	s := &Subscriber{ID: id, AdminUserID: adminUserID, Frames: make(chan []byte, subscriberBuffer)}
	h.subs[id] = s
	metrics.DashboardStreams.Set(float64(len(h.subs)))
	log.Info().Str("stream_id", id).Int("user_id", adminUserID).Int("open_streams", len(h.subs)).Msg("dashboard stream opened")
	return s
}

// Unsubscribe closes the stream with the given id, if still open.
func (h *Hub) Unsubscribe(id string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	s, ok := h.subs[id]
	if !ok {
		return
	}
	close(s.Frames)
	delete(h.subs, id)
	metrics.DashboardStreams.Set(float64(len(h.subs)))
	log.Info().Str("stream_id", id).Int("open_streams", len(h.subs)).Msg("dashboard stream closed")
}

// Publish encodes e once and queues it on every stream. A stream whose buffer
// is full misses the frame; publishers never block on a slow dashboard.
func (h *Hub) Publish(e *Event) {
	if e.Timestamp.IsZero() {
		e.Timestamp = h.now().UTC()
	}
	frame, err := json.Marshal(e)
	if err != nil {
		log.Error().Err(err).Str("event", string(e.Event)).Msg("encode dashboard event")
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, s := range h.subs {
		select {
		case s.Frames <- frame:
		default:
			metrics.DashboardEventsDropped.WithLabelValues(string(e.Event)).Inc()
			log.Warn().Str("stream_id", s.ID).Str("event", string(e.Event)).Msg("dashboard stream lagging, frame dropped")
		}
	}
}

// Open reports how many dashboard streams are connected.
func (h *Hub) Open() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}
