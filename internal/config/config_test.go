package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMustLoadDefaults(t *testing.T) {
	t.Setenv("BOT_TOKEN", "token")
	t.Setenv("DATABASE_URL", "postgres://localhost/test")
	t.Setenv("DISPLAY_TZ", "")
	// The POSIX timezone variable must not leak into the display timezone.
	t.Setenv("TZ", "UTC")

	cfg := MustLoad()

	assert.Equal(t, "Asia/Singapore", cfg.Timezone)
	assert.Equal(t, 2*time.Hour, cfg.RefreshInterval)
	assert.Equal(t, 24*time.Hour, cfg.StaleAfter)
	assert.Equal(t, "./migrations", cfg.MigrationsDir)
}

func TestMustLoadOverrides(t *testing.T) {
	t.Setenv("BOT_TOKEN", "token")
	t.Setenv("DATABASE_URL", "postgres://localhost/test")
	t.Setenv("DISPLAY_TZ", "Europe/Berlin")
	t.Setenv("REFRESH_INTERVAL", "30m")
	t.Setenv("STALE_AFTER", "6h")

	cfg := MustLoad()

	assert.Equal(t, "Europe/Berlin", cfg.Timezone)
	assert.Equal(t, 30*time.Minute, cfg.RefreshInterval)
	assert.Equal(t, 6*time.Hour, cfg.StaleAfter)
}
