package cfg

import (
	"testing"
	"time"
)

func TestGetVersion(t *testing.T) {
	if GetVersion() == "" {
		t.Error("GetVersion should never return empty string")
	}
}

func TestLoadArgsDefaults(t *testing.T) {
	t.Setenv("DB_PASSWORD", "secret")
	t.Setenv("TZ", "UTC")

	cfg, err := LoadArgs([]string{})
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if cfg.DBPassword != "secret" {
		t.Errorf("Expected DB password from environment, got '%s'", cfg.DBPassword)
	}
	if cfg.Port != "8080" {
		t.Errorf("Expected port '8080', got '%s'", cfg.Port)
	}
	if cfg.SearchesDir != "./searches" {
		t.Errorf("Expected searches dir './searches', got '%s'", cfg.SearchesDir)
	}
	if cfg.InitialPageSize != 100 || cfg.MaxPageSize != 500 || cfg.PanelSize != 100 {
		t.Errorf("Unexpected curation defaults: %d/%d/%d", cfg.InitialPageSize, cfg.MaxPageSize, cfg.PanelSize)
	}
	if cfg.MediaAPITimeout != 30*time.Second {
		t.Errorf("Expected media API timeout 30s, got %v", cfg.MediaAPITimeout)
	}
	if cfg.CacheTTL != 15*time.Minute {
		t.Errorf("Expected cache TTL 15m, got %v", cfg.CacheTTL)
	}
	if cfg.MailEnabled() {
		t.Error("Mail should be disabled without SMTP host")
	}
	if Get() != cfg {
		t.Error("Get should return the loaded configuration")
	}
}

func TestLoadArgsOverrides(t *testing.T) {
	t.Setenv("DB_PASSWORD", "secret")
	t.Setenv("TZ", "UTC")
	t.Setenv("SMTP_HOST", "smtp.example.com")
	t.Setenv("MAIL_FROM", "digest@example.com")

	cfg, err := LoadArgs([]string{"--port", "9090", "--panel-size", "25", "--cache-ttl", "1h"})
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if cfg.Port != "9090" {
		t.Errorf("Expected port '9090', got '%s'", cfg.Port)
	}
	if cfg.PanelSize != 25 {
		t.Errorf("Expected panel size 25, got %d", cfg.PanelSize)
	}
	if cfg.CacheTTL != time.Hour {
		t.Errorf("Expected cache TTL 1h, got %v", cfg.CacheTTL)
	}
	if !cfg.MailEnabled() {
		t.Error("Mail should be enabled with SMTP host and sender")
	}
}

func TestLoadArgsValidation(t *testing.T) {
	t.Setenv("DB_PASSWORD", "secret")
	t.Setenv("TZ", "UTC")

	tests := []struct {
		name string
		args []string
	}{
		{"initial above max", []string{"--initial-page-size", "600", "--max-page-size", "500"}},
		{"zero page size", []string{"--initial-page-size", "0"}},
		{"no workers", []string{"--worker-count", "0"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := LoadArgs(tt.args); err == nil {
				t.Error("Expected validation error")
			}
		})
	}
}
