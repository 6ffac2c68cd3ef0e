package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eventstream/pulse/internal/repository"
	"github.com/eventstream/pulse/internal/utils"
)

func TestAdminLogin(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	jwt := utils.NewJWTManager("jwt-secret", time.Hour)
	svc := NewAdminAuthService(repository.NewAdminUserRepository(env.db), jwt)

	user, err := svc.CreateAdmin(ctx, "ops@pulse.test", "correct horse", "Ops")
	require.NoError(t, err)

	res, err := svc.Login(ctx, "ops@pulse.test", "correct horse")
	require.NoError(t, err)
	claims, err := jwt.ValidateJWT(res.Token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)

	_, err = svc.Login(ctx, "ops@pulse.test", "wrong password")
	assert.ErrorIs(t, err, utils.ErrUnauthorized)

	_, err = svc.Login(ctx, "nobody@pulse.test", "correct horse")
	assert.ErrorIs(t, err, utils.ErrUnauthorized)
}

func TestCreateAdminValidation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	svc := NewAdminAuthService(repository.NewAdminUserRepository(env.db), utils.NewJWTManager("s", time.Hour))

	_, err := svc.CreateAdmin(ctx, "not-an-email", "longenough", "")
	assert.ErrorIs(t, err, utils.ErrInvalidArgument)

	_, err = svc.CreateAdmin(ctx, "a@b.c", "short", "")
	assert.ErrorIs(t, err, utils.ErrInvalidArgument)

	_, err = svc.CreateAdmin(ctx, "a@b.c", "longenough", "")
	require.NoError(t, err)
	_, err = svc.CreateAdmin(ctx, "a@b.c", "longenough", "")
	assert.ErrorIs(t, err, utils.ErrConflict)
}
