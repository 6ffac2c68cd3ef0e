package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJWTRoundTrip(t *testing.T) {
	m := NewJWTManager("test-secret", time.Hour)

	token, exp, err := m.GenerateJWT(7, "ops@pulse.test")
	require.NoError(t, err)
	assert.True(t, exp.After(time.Now()))

	claims, err := m.ValidateJWT(token)
	require.NoError(t, err)
	assert.Equal(t, 7, claims.UserID)
	assert.Equal(t, "ops@pulse.test", claims.Email)
}

func TestJWTRejectsOtherSecret(t *testing.T) {
	token, _, err := NewJWTManager("a", time.Hour).GenerateJWT(1, "x@y.z")
	require.NoError(t, err)

	_, err = NewJWTManager("b", time.Hour).ValidateJWT(token)
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestJWTRejectsEmpty(t *testing.T) {
	_, err := NewJWTManager("a", time.Hour).ValidateJWT("")
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestConstantTimeEqual(t *testing.T) {
	assert.True(t, ConstantTimeEqual("pulse_dev_token", "pulse_dev_token"))
	assert.False(t, ConstantTimeEqual("pulse_dev_toke", "pulse_dev_token"))
	assert.False(t, ConstantTimeEqual("", "pulse_dev_token"))
}

func TestGenerateToken(t *testing.T) {
	tok, err := GenerateAPIToken()
	require.NoError(t, err)
	assert.Len(t, tok, len("pulse_")+64)

	a, err := GenerateSecretKey()
	require.NoError(t, err)
	b, err := GenerateSecretKey()
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}
