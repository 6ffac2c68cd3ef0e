package sse

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eventstream/pulse/internal/models"
)

func TestTapReachesDashboard(t *testing.T) {
	hub := NewHub()
	s := hub.Subscribe("a", 1)
	defer hub.Unsubscribe("a")

	NewHubNotifier(hub).NotifyEvent(models.EventTap, 42, "york")

	select {
	case raw := <-s.Frames:
		var e Event
		require.NoError(t, json.Unmarshal(raw, &e))
		assert.Equal(t, EventMessageTap, e.Event)
		assert.Equal(t, 42, e.MessageID)
		assert.Equal(t, "york", e.AppID)
		assert.False(t, e.Timestamp.IsZero())
	case <-time.After(time.Second):
		t.Fatal("no frame received")
	}
}

func TestPublishStampsMissingTimestamp(t *testing.T) {
	hub := NewHub()
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	hub.now = func() time.Time { return at }
	s := hub.Subscribe("a", 1)
	defer hub.Unsubscribe("a")

	hub.Publish(&Event{Event: EventMessageDeleted, MessageID: 7})

	var e Event
	require.NoError(t, json.Unmarshal(<-s.Frames, &e))
	assert.True(t, at.Equal(e.Timestamp))
}

func TestLaggingStreamDropsFrames(t *testing.T) {
	hub := NewHub()
	s := hub.Subscribe("slow", 1)
	defer hub.Unsubscribe("slow")

	for i := 0; i < cap(s.Frames)+10; i++ {
		hub.Publish(&Event{Event: EventMessageDeleted, MessageID: i})
	}
	assert.Len(t, s.Frames, cap(s.Frames))
}

func TestUnsubscribeClosesStream(t *testing.T) {
	hub := NewHub()
	s := hub.Subscribe("x", 1)
	assert.Equal(t, 1, hub.Open())

	hub.Unsubscribe("x")
	_, ok := <-s.Frames
	assert.False(t, ok)
	assert.Equal(t, 0, hub.Open())

	hub.Unsubscribe("x")
}

func TestResubscribeReplacesStream(t *testing.T) {
	hub := NewHub()
	first := hub.Subscribe("x", 1)
	second := hub.Subscribe("x", 1)
	defer hub.Unsubscribe("x")

	_, ok := <-first.Frames
	assert.False(t, ok)
	assert.Equal(t, 1, hub.Open())

	hub.Publish(&Event{Event: EventMessageDeleted, MessageID: 1})
	assert.Len(t, second.Frames, 1)
}

func TestKeyExpiryEvent(t *testing.T) {
	hub := NewHub()
	s := hub.Subscribe("k", 1)
	defer hub.Unsubscribe("k")

	exp := time.Now().Add(-time.Hour)
	NewHubNotifier(hub).NotifyKeyExpiry(&models.APIKey{Name: "brightdata_api_key", ExpiresAt: &exp}, true)

	var e Event
	require.NoError(t, json.Unmarshal(<-s.Frames, &e))
	assert.Equal(t, EventAPIKeyExpired, e.Event)
	assert.Equal(t, "brightdata_api_key", e.KeyName)
}
