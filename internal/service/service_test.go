package service

import (
	"context"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/eventstream/pulse/internal/database/dbtest"
	"github.com/eventstream/pulse/internal/models"
	"github.com/eventstream/pulse/internal/repository"
	"github.com/eventstream/pulse/internal/secret"
)

// testEnv wires the services over a migrated SQLite database.
type testEnv struct {
	db          *sqlx.DB
	messageRepo *repository.MessageRepository
	appRepo     *repository.TargetAppRepository
	keyRepo     *repository.APIKeyRepository
	apps        *TargetAppService
	analytics   *AnalyticsService
	messages    *MessageService
	keys        *APIKeyService
	invalidated *countingInvalidator
}

type countingInvalidator struct{ n int }

func (c *countingInvalidator) Invalidate(context.Context) error {
	c.n++
	return nil
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db := dbtest.New(t)
	cipher, err := secret.NewCipher("test-master-secret")
	require.NoError(t, err)

	env := &testEnv{
		db:          db,
		messageRepo: repository.NewMessageRepository(db),
		appRepo:     repository.NewTargetAppRepository(db),
		keyRepo:     repository.NewAPIKeyRepository(db),
		invalidated: &countingInvalidator{},
	}
	env.apps = NewTargetAppService(env.appRepo, env.invalidated)
	env.analytics = NewAnalyticsService(env.messageRepo, repository.NewAnalyticsRepository(db), nil)
	env.messages = NewMessageService(env.messageRepo, env.appRepo, env.analytics, env.invalidated, nil)
	env.keys = NewAPIKeyService(env.keyRepo, cipher)

	_, err = env.apps.SeedDefaults(context.Background())
	require.NoError(t, err)
	return env
}

func strPtr(s string) *string { return &s }
func intPtr(i int) *int       { return &i }
func boolPtr(b bool) *bool    { return &b }

func timePtr(t time.Time) *time.Time { return &t }

// createLive stores an active message starting at start for the given apps.
func (e *testEnv) createLive(t *testing.T, title string, priority int, start time.Time, apps ...string) *models.Message {
	t.Helper()
	msg, err := e.messages.Create(context.Background(), &MessageRequest{
		Title:        strPtr(title),
		Priority:     intPtr(priority),
		StartDate:    timePtr(start),
		IsActive:     boolPtr(true),
		TargetAppIDs: apps,
	}, nil, time.Now())
	require.NoError(t, err)
	return msg
}
