package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DB_DSN", "postgres://localhost/flightdesk")
	t.Setenv("JWT_SECRET", "s3cret")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, "migrations", cfg.MigrationsPath)
	assert.Equal(t, "flightdesk.events", cfg.AMQPQueue)
	assert.Equal(t, 60*time.Second, cfg.RosterCacheTTL)
	assert.Empty(t, cfg.RedisAddr)
	assert.Empty(t, cfg.TelegramToken)
}

func TestLoadRequiredKeys(t *testing.T) {
	t.Setenv("DB_DSN", "")
	t.Setenv("JWT_SECRET", "s3cret")
	_, err := Load()
	assert.Error(t, err)

	t.Setenv("DB_DSN", "postgres://localhost/flightdesk")
	t.Setenv("JWT_SECRET", "")
	_, err = Load()
	assert.Error(t, err)
}

func TestLoadInvalidValues(t *testing.T) {
	t.Setenv("DB_DSN", "postgres://localhost/flightdesk")
	t.Setenv("JWT_SECRET", "s3cret")

	t.Setenv("ROSTER_CACHE_TTL", "soon")
	_, err := Load()
	assert.Error(t, err)

	t.Setenv("ROSTER_CACHE_TTL", "30s")
	t.Setenv("TELEGRAM_CHAT_ID", "not-a-number")
	_, err = Load()
	assert.Error(t, err)
}
