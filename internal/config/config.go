package config

import (
	"log/slog"
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	DatabaseURL           string
	HTTPPort              string
	SnapshotDebounce      time.Duration
	SnapshotTick          time.Duration
	FXURL                 string
	FXSyncInterval        time.Duration
	FXRetryMax            int
	FXRetryDelay          time.Duration
	GoogleSheetsID        string
	GoogleCredentialsJSON string
}

// Load reads configuration from environment variables with sensible defaults.
func Load() Config {
	return Config{
		DatabaseURL:           envOrDefaultWarn("DATABASE_URL", ""),
		HTTPPort:              envOrDefault("HTTP_PORT", "8080"),
		SnapshotDebounce:      envOrDefaultDuration("SNAPSHOT_DEBOUNCE", 300*time.Millisecond),
		SnapshotTick:          envOrDefaultDuration("SNAPSHOT_TICK", 100*time.Millisecond),
		FXURL:                 envOrDefault("FX_URL", "https://api.frankfurter.app/latest"),
		FXSyncInterval:        envOrDefaultDuration("FX_SYNC_INTERVAL", 0),
		FXRetryMax:            envOrDefaultInt("FX_RETRY_MAX", 3),
		FXRetryDelay:          envOrDefaultDuration("FX_RETRY_DELAY", 2*time.Second),
		GoogleSheetsID:        envOrDefault("GOOGLE_SHEETS_ID", ""),
		GoogleCredentialsJSON: envOrDefault("GOOGLE_CREDENTIALS_JSON", ""),
	}
}

// FXSyncEnabled reports whether the external rate sync worker should run.
func (c Config) FXSyncEnabled() bool {
	return c.FXSyncInterval > 0 && c.FXURL != ""
}

// SheetsEnabled reports whether Google Sheets export is configured.
func (c Config) SheetsEnabled() bool {
	return c.GoogleSheetsID != "" && c.GoogleCredentialsJSON != ""
}

func envOrDefault(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func envOrDefaultWarn(key, defaultVal string) string {
	v := envOrDefault(key, defaultVal)
	if v == "" {
		slog.Warn("required env var not set", "key", key)
	}
	return v
}

func envOrDefaultInt(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			slog.Warn("invalid integer env var, using default", "key", key, "value", v, "default", defaultVal)
			return defaultVal
		}
		return n
	}
	return defaultVal
}

func envOrDefaultDuration(key string, defaultVal time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			slog.Warn("invalid duration env var, using default", "key", key, "value", v, "default", defaultVal)
			return defaultVal
		}
		return d
	}
	return defaultVal
}
