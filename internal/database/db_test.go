package database

import (
	"slices"
	"testing"
	"testing/fstest"
)

func TestPendingMigrations(t *testing.T) {
	fsys := fstest.MapFS{
		"002_snapshots.up.sql":   {Data: []byte("SELECT 2")},
		"001_init.up.sql":        {Data: []byte("SELECT 1")},
		"003_rates.up.sql":       {Data: []byte("SELECT 3")},
		"003_rates.down.sql":     {Data: []byte("SELECT 0")},
		"README.md":              {Data: []byte("notes")},
		"archive/000_old.up.sql": {Data: []byte("SELECT 0")},
	}

	got, err := pendingMigrations(fsys, []string{"002_snapshots.up.sql"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []string{"001_init.up.sql", "003_rates.up.sql"}
	if !slices.Equal(got, want) {
		t.Errorf("pending = %v, want %v", got, want)
	}
}

func TestPendingMigrationsAllApplied(t *testing.T) {
	fsys := fstest.MapFS{"001_init.up.sql": {Data: []byte("SELECT 1")}}

	got, err := pendingMigrations(fsys, []string{"001_init.up.sql"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("pending = %v, want none", got)
	}
}
