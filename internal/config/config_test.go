package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("DB_DRIVER", "")
	t.Setenv("REMINDER_INTERVAL", "")

	cfg := Load()
	assert.Equal(t, "sqlite3", cfg.DBDriver)
	assert.Equal(t, time.Minute, cfg.ReminderInterval)
	assert.False(t, cfg.Cloudinary.Enabled())
	assert.False(t, cfg.Production())
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("APP_ENV", "prod")
	t.Setenv("ACCESS_TTL", "1h")
	t.Setenv("REMINDER_DEDUP", "true")
	t.Setenv("RATE_LIMIT_PER_MIN", "30")
	t.Setenv("REFRESH_TTL", "tomorrow")

	cfg := Load()
	assert.True(t, cfg.Production())
	assert.Equal(t, time.Hour, cfg.AccessTTL)
	assert.True(t, cfg.ReminderDedup)
	assert.Equal(t, 30, cfg.RateLimitPerMin)
	assert.Equal(t, 24*time.Hour, cfg.RefreshTTL, "bad values fall back")
}
