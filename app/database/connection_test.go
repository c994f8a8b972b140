package database

import (
	"io/fs"
	"strings"
	"testing"
)

func TestNewConnection(t *testing.T) {
	_, err := NewConnection("invalid", "invalid", "invalid", "invalid", "invalid")
	if err == nil {
		t.Error("Expected error for invalid connection parameters")
	}
}

func TestMigrationsEmbedded(t *testing.T) {
	files, err := fs.Glob(migrationFS, "migrations/*.sql")
	if err != nil {
		t.Fatalf("Failed to list migrations: %v", err)
	}

	ups, downs := 0, 0
	for _, f := range files {
		switch {
		case strings.HasSuffix(f, ".up.sql"):
			ups++
		case strings.HasSuffix(f, ".down.sql"):
			downs++
		}
	}

	if ups == 0 || ups != downs {
		t.Errorf("Expected matching up and down migrations, got %d up and %d down", ups, downs)
	}

	data, err := fs.ReadFile(migrationFS, "migrations/000001_init.up.sql")
	if err != nil {
		t.Fatalf("Failed to read initial migration: %v", err)
	}
	for _, table := range []string{"searches", "schedules", "subscribers", "settings", "batches"} {
		if !strings.Contains(string(data), "CREATE TABLE IF NOT EXISTS "+table) {
			t.Errorf("Initial migration should create table %s", table)
		}
	}
}
