package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("DATABASE_URL", "postgres://localhost/playout?sslmode=disable")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.ServerAddress)
	assert.Equal(t, 7, cfg.HorizonDays)
	assert.Equal(t, 90*time.Second, cfg.HeartbeatFreshness)
	assert.Equal(t, time.UTC, cfg.ScheduleLocation)
	assert.Equal(t, 1024, cfg.ScreenCacheSize)
	assert.Equal(t, 8, cfg.RecomputeConcurrency)
	assert.False(t, cfg.Development())
}

func TestLoadRequiresSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	t.Setenv("DATABASE_URL", "postgres://localhost/playout")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoadDevelopmentWithoutDatabase(t *testing.T) {
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("DATABASE_URL", "")
	t.Setenv("APP_ENV", "development")

	cfg, err := Load()
	require.NoError(t, err)
	assert.True(t, cfg.Development())
	assert.Empty(t, cfg.DatabaseURL)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("DATABASE_URL", "postgres://localhost/playout")
	t.Setenv("HORIZON_DAYS", "3")
	t.Setenv("HEARTBEAT_FRESHNESS", "2m")
	t.Setenv("SCHEDULE_TIMEZONE", "Europe/Madrid")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 3, cfg.HorizonDays)
	assert.Equal(t, 2*time.Minute, cfg.HeartbeatFreshness)
	assert.Equal(t, "Europe/Madrid", cfg.ScheduleLocation.String())
}

func TestLoadRejectsBadValues(t *testing.T) {
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("DATABASE_URL", "postgres://localhost/playout")

	t.Setenv("HORIZON_DAYS", "zero")
	_, err := Load()
	assert.Error(t, err)

	t.Setenv("HORIZON_DAYS", "0")
	_, err = Load()
	assert.Error(t, err)
}
