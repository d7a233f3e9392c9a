package config

import (
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	BotToken    string
	DatabaseURL string

	// Timezone used only when rendering the "last updated" line; stored
	// timestamps stay in UTC.
	Timezone string

	// RefreshInterval is how often the stale-list worker ticks.
	RefreshInterval time.Duration
	// StaleAfter is the age past which a routed list's group message gets
	// deleted and reposted.
	StaleAfter time.Duration

	MigrationsDir string
}

func MustLoad() Config {
	_ = godotenv.Load()

	bt := os.Getenv("BOT_TOKEN")
	if bt == "" {
		log.Fatal("BOT_TOKEN is required")
	}
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		log.Fatal("DATABASE_URL is required")
	}

	// DISPLAY_TZ, not TZ: the POSIX variable is often set host-wide and
	// would silently override the default.
	tz := os.Getenv("DISPLAY_TZ")
	if tz == "" {
		tz = "Asia/Singapore"
	}

	refresh := durationEnv("REFRESH_INTERVAL", 2*time.Hour)
	stale := durationEnv("STALE_AFTER", 24*time.Hour)

	dir := os.Getenv("MIGRATIONS_DIR")
	if dir == "" {
		dir = "./migrations"
	}

	return Config{
		BotToken:        bt,
		DatabaseURL:     dsn,
		Timezone:        tz,
		RefreshInterval: refresh,
		StaleAfter:      stale,
		MigrationsDir:   dir,
	}
}

func durationEnv(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		log.Fatalf("%s: invalid duration %q", key, v)
	}
	return d
}
