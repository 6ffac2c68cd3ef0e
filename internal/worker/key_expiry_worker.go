package worker

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/eventstream/pulse/internal/metrics"
	"github.com/eventstream/pulse/internal/service"
	"github.com/eventstream/pulse/internal/sse"
)

// KeyExpiryWorker periodically reports API keys that are expired or about to expire.
type KeyExpiryWorker struct {
	keys     *service.APIKeyService
	notifier sse.Notifier
	interval time.Duration
	now      func() time.Time
}

// NewKeyExpiryWorker constructs a KeyExpiryWorker.
func NewKeyExpiryWorker(keys *service.APIKeyService, notifier sse.Notifier, interval time.Duration) *KeyExpiryWorker {
	if notifier == nil {
		notifier = sse.NopNotifier{}
	}
	if interval <= 0 {
		interval = time.Hour
	}
	return &KeyExpiryWorker{
		keys:     keys,
		notifier: notifier,
		interval: interval,
		now:      time.Now,
	}
}

// Start runs a scan immediately, then on every tick until context is canceled.
func (w *KeyExpiryWorker) Start(ctx context.Context) {
	log.Info().Dur("interval", w.interval).Msg("Starting key expiry worker")

	w.run(ctx)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			w.run(ctx)
		case <-ctx.Done():
			log.Info().Msg("Key expiry worker stopped")
			return
		}
	}
}

func (w *KeyExpiryWorker) run(ctx context.Context) {
	now := w.now()
	expired, expiring, err := w.keys.ExpiryReport(ctx, now)
	if err != nil {
		log.Error().Err(err).Msg("Failed to scan API key expiry")
		return
	}

	metrics.APIKeysExpiring.WithLabelValues("expired").Set(float64(len(expired)))
	metrics.APIKeysExpiring.WithLabelValues("expiring_soon").Set(float64(len(expiring)))

	for i := range expired {
		k := &expired[i]
		log.Warn().Str("key_name", k.Name).Time("expires_at", *k.ExpiresAt).Msg("API key has expired")
		w.notifier.NotifyKeyExpiry(k, true)
	}
	for i := range expiring {
		k := &expiring[i]
		log.Warn().
			Str("key_name", k.Name).
			Time("expires_at", *k.ExpiresAt).
			Dur("remaining", k.ExpiresAt.Sub(now)).
			Msg("API key expires soon")
		w.notifier.NotifyKeyExpiry(k, false)
	}
}
