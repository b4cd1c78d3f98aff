package config

import (
	"os"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	// Clear any env vars that might affect defaults
	for _, key := range []string{"DATABASE_URL", "HTTP_PORT", "SNAPSHOT_DEBOUNCE", "SNAPSHOT_TICK", "FX_URL", "FX_SYNC_INTERVAL", "FX_RETRY_MAX", "GOOGLE_SHEETS_ID", "GOOGLE_CREDENTIALS_JSON"} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}

	cfg := Load()

	if cfg.DatabaseURL != "" {
		t.Errorf("DatabaseURL = %q, want empty", cfg.DatabaseURL)
	}
	if cfg.HTTPPort != "8080" {
		t.Errorf("HTTPPort = %q, want 8080", cfg.HTTPPort)
	}
	if cfg.SnapshotDebounce != 300*time.Millisecond {
		t.Errorf("SnapshotDebounce = %v, want 300ms", cfg.SnapshotDebounce)
	}
	if cfg.SnapshotTick != 100*time.Millisecond {
		t.Errorf("SnapshotTick = %v, want 100ms", cfg.SnapshotTick)
	}
	if cfg.FXURL != "https://api.frankfurter.app/latest" {
		t.Errorf("FXURL = %q, want default", cfg.FXURL)
	}
	if cfg.FXRetryMax != 3 {
		t.Errorf("FXRetryMax = %d, want 3", cfg.FXRetryMax)
	}
	if cfg.FXSyncEnabled() {
		t.Error("FX sync should be disabled by default")
	}
	if cfg.SheetsEnabled() {
		t.Error("Sheets export should be disabled by default")
	}
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/testdb")
	t.Setenv("HTTP_PORT", "9090")
	t.Setenv("SNAPSHOT_DEBOUNCE", "1s")
	t.Setenv("FX_SYNC_INTERVAL", "6h")
	t.Setenv("FX_RETRY_MAX", "10")
	t.Setenv("GOOGLE_SHEETS_ID", "sheet-id")
	t.Setenv("GOOGLE_CREDENTIALS_JSON", "{}")

	cfg := Load()

	if cfg.DatabaseURL != "postgres://localhost/testdb" {
		t.Errorf("DatabaseURL = %q, want override", cfg.DatabaseURL)
	}
	if cfg.HTTPPort != "9090" {
		t.Errorf("HTTPPort = %q, want 9090", cfg.HTTPPort)
	}
	if cfg.SnapshotDebounce != time.Second {
		t.Errorf("SnapshotDebounce = %v, want 1s", cfg.SnapshotDebounce)
	}
	if cfg.FXRetryMax != 10 {
		t.Errorf("FXRetryMax = %d, want 10", cfg.FXRetryMax)
	}
	if !cfg.FXSyncEnabled() {
		t.Error("FX sync should be enabled when an interval is set")
	}
	if !cfg.SheetsEnabled() {
		t.Error("Sheets export should be enabled when both settings are present")
	}
}

func TestLoadInvalidEnvFallsBackToDefault(t *testing.T) {
	t.Setenv("FX_RETRY_MAX", "not-a-number")
	t.Setenv("SNAPSHOT_DEBOUNCE", "invalid-duration")

	cfg := Load()

	if cfg.FXRetryMax != 3 {
		t.Errorf("FXRetryMax = %d, want default 3 on invalid input", cfg.FXRetryMax)
	}
	if cfg.SnapshotDebounce != 300*time.Millisecond {
		t.Errorf("SnapshotDebounce = %v, want default 300ms on invalid input", cfg.SnapshotDebounce)
	}
}
