package repository

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eventstream/pulse/internal/database/dbtest"
	"github.com/eventstream/pulse/internal/models"
)

func seedApps(t *testing.T, db *sqlx.DB, apps ...string) {
	t.Helper()
	repo := NewTargetAppRepository(db)
	for _, id := range apps {
		require.NoError(t, repo.Create(context.Background(), &models.TargetApp{AppID: id, AppName: "The " + id + " App", IsActive: true}))
	}
}

func newMessage(title string, targets ...string) *models.Message {
	return &models.Message{
		Title:          title,
		Body:           "body",
		MessageType:    models.MessageTypeModal,
		BannerPosition: models.BannerPositionTop,
		Priority:       models.PriorityNormal,
		IsDismissible:  true,
		StartDate:      time.Now().UTC().Add(-time.Hour),
		IsActive:       true,
		TargetAppIDs:   targets,
	}
}

func TestTargetAppRepository(t *testing.T) {
	ctx := context.Background()
	db := dbtest.New(t)
	repo := NewTargetAppRepository(db)

	inserted, err := repo.InsertIfMissing(ctx, models.TargetApp{AppID: "york", AppName: "The York App"})
	require.NoError(t, err)
	assert.True(t, inserted)

	inserted, err = repo.InsertIfMissing(ctx, models.TargetApp{AppID: "york", AppName: "Other"})
	require.NoError(t, err)
	assert.False(t, inserted)

	seedApps(t, db, "brighton")

	app, err := repo.GetByAppID(ctx, "york")
	require.NoError(t, err)
	app.IsActive = false
	require.NoError(t, repo.Update(ctx, app))

	all, err := repo.List(ctx, false)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	active, err := repo.List(ctx, true)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, "brighton", active[0].AppID)

	_, err = repo.GetByID(ctx, 999)
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestMessageRepositoryCRUD(t *testing.T) {
	ctx := context.Background()
	db := dbtest.New(t)
	seedApps(t, db, "brighton", "york", "cardiff")
	repo := NewMessageRepository(db)

	end := time.Now().UTC().Add(24 * time.Hour)
	msg := newMessage("Welcome", "york", "brighton")
	msg.EndDate = &end
	require.NoError(t, repo.Create(ctx, msg))
	require.NotZero(t, msg.ID)

	got, err := repo.GetByID(ctx, msg.ID)
	require.NoError(t, err)
	assert.Equal(t, "Welcome", got.Title)
	assert.Equal(t, []string{"brighton", "york"}, got.TargetAppIDs)
	require.NotNil(t, got.EndDate)
	assert.WithinDuration(t, end, *got.EndDate, time.Millisecond)

	got.Title = "Welcome back"
	got.TargetAppIDs = []string{"cardiff"}
	require.NoError(t, repo.Update(ctx, got, true))

	got, err = repo.GetByID(ctx, msg.ID)
	require.NoError(t, err)
	assert.Equal(t, "Welcome back", got.Title)
	assert.Equal(t, []string{"cardiff"}, got.TargetAppIDs)

	require.NoError(t, repo.Delete(ctx, msg.ID))
	_, err = repo.GetByID(ctx, msg.ID)
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.ErrorIs(t, repo.Delete(ctx, msg.ID), sql.ErrNoRows)
}

func TestMessageRepositoryListCandidates(t *testing.T) {
	ctx := context.Background()
	db := dbtest.New(t)
	seedApps(t, db, "brighton", "york")
	repo := NewMessageRepository(db)

	a := newMessage("For both", "brighton", "york")
	b := newMessage("York only", "york")
	c := newMessage("Draft", "brighton")
	c.IsActive = false
	for _, m := range []*models.Message{a, b, c} {
		require.NoError(t, repo.Create(ctx, m))
	}

	brighton, err := repo.ListCandidates(ctx, "brighton")
	require.NoError(t, err)
	require.Len(t, brighton, 1)
	assert.Equal(t, a.ID, brighton[0].ID)
	assert.ElementsMatch(t, []string{"brighton", "york"}, brighton[0].TargetAppIDs)

	york, err := repo.ListCandidates(ctx, "york")
	require.NoError(t, err)
	assert.Len(t, york, 2)

	none, err := repo.ListCandidates(ctx, "nowhere")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestMessageRepositoryList(t *testing.T) {
	ctx := context.Background()
	db := dbtest.New(t)
	seedApps(t, db, "brighton", "york")
	repo := NewMessageRepository(db)

	for i, title := range []string{"Alpha sale", "Beta news", "Gamma SALE"} {
		m := newMessage(title, "york")
		m.Priority = i + 1
		if i == 1 {
			m.TargetAppIDs = []string{"brighton"}
			m.IsActive = false
		}
		require.NoError(t, repo.Create(ctx, m))
	}

	msgs, total, err := repo.List(ctx, models.MessageFilter{Search: "sale"})
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	assert.Len(t, msgs, 2)

	inactive := false
	msgs, total, err = repo.List(ctx, models.MessageFilter{IsActive: &inactive})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Equal(t, "Beta news", msgs[0].Title)

	msgs, total, err = repo.List(ctx, models.MessageFilter{AppID: "york", Limit: 1, Page: 2})
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	assert.Len(t, msgs, 1)

	_, total, err = repo.List(ctx, models.MessageFilter{Priority: 2})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
}

func TestMessageRepositoryBulkOperations(t *testing.T) {
	ctx := context.Background()
	db := dbtest.New(t)
	seedApps(t, db, "brighton", "york", "cardiff")
	repo := NewMessageRepository(db)

	apps := NewTargetAppRepository(db)
	cardiff, err := apps.GetByAppID(ctx, "cardiff")
	require.NoError(t, err)
	cardiff.IsActive = false
	require.NoError(t, apps.Update(ctx, cardiff))

	msg := newMessage("Original", "york")
	require.NoError(t, repo.Create(ctx, msg))

	copyID, err := repo.Duplicate(ctx, msg.ID, "Copy of Original")
	require.NoError(t, err)
	dup, err := repo.GetByID(ctx, copyID)
	require.NoError(t, err)
	assert.Equal(t, "Copy of Original", dup.Title)
	assert.False(t, dup.IsActive)
	assert.Equal(t, []string{"york"}, dup.TargetAppIDs)
	assert.WithinDuration(t, msg.StartDate, dup.StartDate, time.Millisecond)

	_, err = repo.Duplicate(ctx, 9999, "Copy of nothing")
	assert.ErrorIs(t, err, sql.ErrNoRows)

	require.NoError(t, repo.TargetAll(ctx, msg.ID))
	got, err := repo.GetByID(ctx, msg.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"brighton", "york"}, got.TargetAppIDs)
	assert.ErrorIs(t, repo.TargetAll(ctx, 9999), sql.ErrNoRows)

	require.NoError(t, repo.SetActive(ctx, msg.ID, false))
	got, err = repo.GetByID(ctx, msg.ID)
	require.NoError(t, err)
	assert.False(t, got.IsActive)
	assert.ErrorIs(t, repo.SetActive(ctx, 9999, true), sql.ErrNoRows)
}

func TestAnalyticsRepository(t *testing.T) {
	ctx := context.Background()
	db := dbtest.New(t)
	seedApps(t, db, "brighton", "york")
	msgs := NewMessageRepository(db)
	repo := NewAnalyticsRepository(db)

	msg := newMessage("Counted", "brighton", "york")
	require.NoError(t, msgs.Create(ctx, msg))

	now := time.Now().UTC()
	for i := 0; i < 4; i++ {
		_, err := repo.Record(ctx, models.EventImpression, msg.ID, "brighton", now)
		require.NoError(t, err)
	}
	_, err := repo.Record(ctx, models.EventImpression, msg.ID, "york", now)
	require.NoError(t, err)
	_, err = repo.Record(ctx, models.EventTap, msg.ID, "brighton", now)
	require.NoError(t, err)

	stats, err := repo.Stats(ctx, msg.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, stats.Impressions)
	assert.Equal(t, 1, stats.Taps)
	assert.InDelta(t, 20.0, stats.CTR, 0.001)
	require.Len(t, stats.ByApp, 2)
	assert.Equal(t, "brighton", stats.ByApp[0].AppID)
	assert.InDelta(t, 25.0, stats.ByApp[0].CTR, 0.001)

	totals, err := repo.Totals(ctx, []int{msg.ID})
	require.NoError(t, err)
	assert.Equal(t, 5, totals[msg.ID].Impressions)
	assert.Equal(t, 1, totals[msg.ID].Taps)

	_, err = repo.Record(ctx, models.EventKind("swipe"), msg.ID, "york", now)
	assert.Error(t, err)

	// events cascade with their message
	require.NoError(t, msgs.Delete(ctx, msg.ID))
	stats, err = repo.Stats(ctx, msg.ID)
	require.NoError(t, err)
	assert.Zero(t, stats.Impressions)
}

func TestAPIKeyRepository(t *testing.T) {
	ctx := context.Background()
	db := dbtest.New(t)
	repo := NewAPIKeyRepository(db)

	exp := time.Now().UTC().Add(time.Hour)
	key := &models.APIKey{Name: "stripe_key", ServiceName: "Stripe", EncryptedValue: "ct", IsActive: true, ExpiresAt: &exp}
	require.NoError(t, repo.Create(ctx, key))
	require.NoError(t, repo.Create(ctx, &models.APIKey{Name: "old_key", EncryptedValue: "ct", IsActive: false}))

	got, err := repo.GetActiveByName(ctx, "stripe_key")
	require.NoError(t, err)
	assert.Equal(t, "Stripe", got.ServiceName)
	assert.Nil(t, got.LastAccessedAt)

	_, err = repo.GetActiveByName(ctx, "old_key")
	assert.ErrorIs(t, err, sql.ErrNoRows)

	active, err := repo.ListActive(ctx)
	require.NoError(t, err)
	assert.Len(t, active, 1)

	at := time.Now().UTC()
	require.NoError(t, repo.TouchLastAccessed(ctx, key.ID, at))
	got, err = repo.GetByID(ctx, key.ID)
	require.NoError(t, err)
	require.NotNil(t, got.LastAccessedAt)
	assert.WithinDuration(t, at, *got.LastAccessedAt, time.Millisecond)

	got.Description = "payments"
	got.ExpiresAt = nil
	require.NoError(t, repo.Update(ctx, got))
	got, err = repo.GetByName(ctx, "stripe_key")
	require.NoError(t, err)
	assert.Equal(t, "payments", got.Description)
	assert.Nil(t, got.ExpiresAt)

	all, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "old_key", all[0].Name)

	require.NoError(t, repo.Delete(ctx, key.ID))
	assert.ErrorIs(t, repo.Delete(ctx, key.ID), sql.ErrNoRows)
}

func TestAdminUserRepository(t *testing.T) {
	ctx := context.Background()
	db := dbtest.New(t)
	repo := NewAdminUserRepository(db)

	user := &models.AdminUser{Email: "ops@pulse.test", PasswordHash: "hash", Name: "Ops", IsActive: true}
	require.NoError(t, repo.Create(ctx, user))

	got, err := repo.GetByEmail(ctx, "OPS@pulse.test")
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)

	require.NoError(t, repo.UpdateLastLogin(ctx, user.ID, time.Now()))
	got, err = repo.GetByID(ctx, user.ID)
	require.NoError(t, err)
	assert.NotNil(t, got.LastLoginAt)
}
