package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"PORT", "ENV", "API_TOKEN", "SECRET_KEY", "JWT_SECRET", "DB_DRIVER", "DB_HOST",
		"DB_USER", "DB_NAME", "SQLITE_PATH", "REDIS_HOST", "CACHE_TTL", "MODERATION_MIN_CONFIDENCE",
		"CORS_ALLOWED_ORIGINS", "KEY_EXPIRY_CHECK_INTERVAL",
	} {
		t.Setenv(k, "")
	}
}

func TestLoadSQLiteDevDefaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("DB_DRIVER", DriverSQLite)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, DevAPIToken, cfg.APIToken)
	assert.Equal(t, DevSecretKey, cfg.SecretKey)
	assert.Len(t, cfg.Warnings, 3)
	assert.False(t, cfg.Redis.Enabled())
	assert.Equal(t, 30*time.Second, cfg.Redis.CacheTTL)
	assert.Equal(t, time.Hour, cfg.Worker.KeyExpiryCheckInterval)
}

func TestLoadProductionRejectsDefaultSecrets(t *testing.T) {
	clearEnv(t)
	t.Setenv("ENV", "production")
	t.Setenv("DB_DRIVER", DriverSQLite)
	t.Setenv("API_TOKEN", "real-token")
	t.Setenv("JWT_SECRET", "real-jwt")
	t.Setenv("SECRET_KEY", DevSecretKey)

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SECRET_KEY")
}

func TestLoadPostgresRequiresHost(t *testing.T) {
	clearEnv(t)
	t.Setenv("DB_DRIVER", DriverPostgres)

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DB_HOST")
}

func TestLoadUnknownDriver(t *testing.T) {
	clearEnv(t)
	t.Setenv("DB_DRIVER", "oracle")

	_, err := Load()
	require.Error(t, err)
}

func TestLoadCORSOrigins(t *testing.T) {
	clearEnv(t)
	t.Setenv("DB_DRIVER", DriverSQLite)
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://admin.pulse.test, ,http://localhost:3000")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, []string{"https://admin.pulse.test", "http://localhost:3000"}, cfg.CORSOrigins)
}

func TestLoadRejectsZeroKeyExpiryInterval(t *testing.T) {
	for _, v := range []string{"0s", "0"} {
		clearEnv(t)
		t.Setenv("DB_DRIVER", DriverSQLite)
		t.Setenv("KEY_EXPIRY_CHECK_INTERVAL", v)

		_, err := Load()
		require.Error(t, err, v)
		assert.Contains(t, err.Error(), "KEY_EXPIRY_CHECK_INTERVAL")
	}
}
