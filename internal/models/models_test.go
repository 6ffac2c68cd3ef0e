package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func ptr(t time.Time) *time.Time { return &t }

func TestMessageIsCurrentlyActive(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	cases := []struct {
		name   string
		msg    Message
		expect bool
	}{
		{"inactive", Message{IsActive: false, StartDate: now.Add(-time.Hour)}, false},
		{"future start", Message{IsActive: true, StartDate: now.Add(time.Minute)}, false},
		{"start equals now", Message{IsActive: true, StartDate: now}, true},
		{"open ended", Message{IsActive: true, StartDate: now.Add(-time.Hour)}, true},
		{"end in future", Message{IsActive: true, StartDate: now.Add(-time.Hour), EndDate: ptr(now.Add(time.Hour))}, true},
		{"end equals now", Message{IsActive: true, StartDate: now.Add(-time.Hour), EndDate: ptr(now)}, false},
		{"end in past", Message{IsActive: true, StartDate: now.Add(-2 * time.Hour), EndDate: ptr(now.Add(-time.Hour))}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expect, tc.msg.IsCurrentlyActive(now))
		})
	}
}

func TestMessageStatus(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	assert.Equal(t, StatusDraft, (&Message{StartDate: now}).Status(now))
	assert.Equal(t, StatusLive, (&Message{IsActive: true, StartDate: now}).Status(now))
	assert.Equal(t, StatusScheduled, (&Message{IsActive: true, StartDate: now.Add(time.Hour)}).Status(now))
	assert.Equal(t, StatusEnded, (&Message{IsActive: true, StartDate: now.Add(-2 * time.Hour), EndDate: ptr(now.Add(-time.Hour))}).Status(now))
}

func TestAPIKeyPredicates(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	noExpiry := APIKey{IsActive: true}
	assert.False(t, noExpiry.IsExpired(now))
	assert.False(t, noExpiry.IsExpiringSoon(now))
	assert.True(t, noExpiry.IsValid(now))

	atNow := APIKey{IsActive: true, ExpiresAt: ptr(now)}
	assert.False(t, atNow.IsExpired(now))
	assert.True(t, atNow.IsExpiringSoon(now))

	past := APIKey{IsActive: true, ExpiresAt: ptr(now.Add(-time.Second))}
	assert.True(t, past.IsExpired(now))
	assert.False(t, past.IsExpiringSoon(now))
	assert.False(t, past.IsValid(now))

	later := APIKey{IsActive: true, ExpiresAt: ptr(now.Add(8 * 24 * time.Hour))}
	assert.False(t, later.IsExpiringSoon(now))

	disabled := APIKey{IsActive: false}
	assert.False(t, disabled.IsValid(now))
}

func TestClickThroughRate(t *testing.T) {
	assert.Equal(t, 0.0, ClickThroughRate(0, 5))
	assert.InDelta(t, 25.0, ClickThroughRate(8, 2), 0.0001)
}
