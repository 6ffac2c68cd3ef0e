package worker

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eventstream/pulse/internal/database/dbtest"
	"github.com/eventstream/pulse/internal/models"
	"github.com/eventstream/pulse/internal/repository"
	"github.com/eventstream/pulse/internal/secret"
	"github.com/eventstream/pulse/internal/service"
	"github.com/eventstream/pulse/internal/sse"
)

type recordingNotifier struct {
	sse.NopNotifier
	expired  []string
	expiring []string
}

func (r *recordingNotifier) NotifyKeyExpiry(key *models.APIKey, expired bool) {
	if expired {
		r.expired = append(r.expired, key.Name)
		return
	}
	r.expiring = append(r.expiring, key.Name)
}

func TestKeyExpiryWorkerRun(t *testing.T) {
	db := dbtest.New(t)
	cipher, err := secret.NewCipher("worker-secret")
	require.NoError(t, err)
	keys := service.NewAPIKeyService(repository.NewAPIKeyRepository(db), cipher)

	ctx := context.Background()
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	create := func(name string, expires *time.Time, active bool) {
		_, err := keys.Create(ctx, &service.CreateAPIKeyRequest{
			Name: name, Value: "v-" + name, ExpiresAt: expires, IsActive: &active,
		}, nil, now)
		require.NoError(t, err)
	}
	past := now.Add(-time.Hour)
	soon := now.Add(48 * time.Hour)
	later := now.Add(30 * 24 * time.Hour)
	create("brightdata_api_key", &past, true)
	create("maps_api_key", &soon, true)
	create("weather_api_key", &later, true)
	create("never_expires", nil, true)
	create("retired_key", &past, false)

	n := &recordingNotifier{}
	w := NewKeyExpiryWorker(keys, n, time.Hour)
	w.now = func() time.Time { return now }
	w.run(ctx)

	assert.Equal(t, []string{"brightdata_api_key"}, n.expired)
	assert.Equal(t, []string{"maps_api_key"}, n.expiring)
}

func TestKeyExpiryWorkerStopsOnCancel(t *testing.T) {
	db := dbtest.New(t)
	cipher, err := secret.NewCipher("worker-secret")
	require.NoError(t, err)
	w := NewKeyExpiryWorker(service.NewAPIKeyService(repository.NewAPIKeyRepository(db), cipher), nil, time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		w.Start(ctx)
		close(done)
	}()
	cancel()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("worker did not stop")
	}
}

func TestKeyExpiryWorkerZeroIntervalFallsBack(t *testing.T) {
	db := dbtest.New(t)
	cipher, err := secret.NewCipher("worker-secret")
	require.NoError(t, err)
	w := NewKeyExpiryWorker(service.NewAPIKeyService(repository.NewAPIKeyRepository(db), cipher), nil, 0)
	assert.Equal(t, time.Hour, w.interval)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.NotPanics(t, func() { w.Start(ctx) })
}
