package config

import (
	"testing"
	"time"
)

func TestLoadReadsEnvironment(t *testing.T) {
	t.Setenv("PERCH_USERNAME", "perchbot")
	t.Setenv("PERCH_PASSWORD", "hunter2")
	t.Setenv("PERCH_EMAIL", "perch@example.com")
	t.Setenv("PERCH_ADDR", ":9999")
	t.Setenv("PERCH_POLL_INTERVAL", "30s")
	t.Setenv("PERCH_HEADLESS", "false")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Credentials.Username != "perchbot" {
		t.Errorf("Expected username perchbot, got %s", cfg.Credentials.Username)
	}
	if cfg.Addr != ":9999" {
		t.Errorf("Expected addr :9999, got %s", cfg.Addr)
	}
	if cfg.PollInterval != 30*time.Second {
		t.Errorf("Expected 30s poll interval, got %s", cfg.PollInterval)
	}
	if cfg.Headless {
		t.Error("Expected headless=false")
	}
}

func TestLoadAppliesDefaults(t *testing.T) {
	t.Setenv("PERCH_USERNAME", "perchbot")
	t.Setenv("PERCH_PASSWORD", "hunter2")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Addr != ":8487" {
		t.Errorf("Expected default addr :8487, got %s", cfg.Addr)
	}
	if !cfg.Headless {
		t.Error("Expected headless default true")
	}
	if cfg.PollInterval != 60*time.Second {
		t.Errorf("Expected default 60s poll interval, got %s", cfg.PollInterval)
	}
	if cfg.SessionPath == "" || cfg.ArtifactDir == "" || cfg.DBPath == "" {
		t.Error("Expected non-empty default paths")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"valid", func(c *Config) {}, false},
		{"missing username", func(c *Config) { c.Credentials.Username = "" }, true},
		{"missing password", func(c *Config) { c.Credentials.Password = "" }, true},
		{"empty addr", func(c *Config) { c.Addr = "" }, true},
		{"interval too short", func(c *Config) { c.PollInterval = 100 * time.Millisecond }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{
				Addr:         ":8487",
				PollInterval: time.Minute,
				Credentials:  Credentials{Username: "u", Password: "p"},
			}
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr && err == nil {
				t.Error("expected error but got none")
			}
			if !tt.wantErr && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestEnvHelpersIgnoreMalformedValues(t *testing.T) {
	t.Setenv("PERCH_TEST_BOOL", "not-a-bool")
	t.Setenv("PERCH_TEST_DUR", "soon")

	if got := getEnvBool("PERCH_TEST_BOOL", true); !got {
		t.Error("Expected fallback true for malformed bool")
	}
	if got := getEnvDuration("PERCH_TEST_DUR", time.Minute); got != time.Minute {
		t.Errorf("Expected fallback 1m for malformed duration, got %s", got)
	}
}
