// Package config provides process configuration for the Perch agent.
//
// Runtime settings come from environment variables (optionally seeded from a
// .env file); the selector tables that steer browser automation live in a
// separate versioned document, see selectors.go.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Credentials hold the platform login identity. Read-only after Load.
type Credentials struct {
	Username string
	Password string
	Email    string // optional, used for the email-verification prompt
}

// Config holds all process configuration.
type Config struct {
	Addr         string        // HTTP control surface listen address
	Headless     bool          // run the browser without a visible window
	SessionPath  string        // session file (cookies + local storage)
	ArtifactDir  string        // diagnostic screenshots
	SelectorPath string        // optional selector table override (YAML)
	DBPath       string        // interaction memory database
	PollInterval time.Duration // default mention-monitoring interval

	Credentials Credentials

	// Reply generation (OpenAI-compatible endpoint). Optional: with no API
	// key the agent scrapes and publishes but never auto-replies.
	OpenAIKey     string
	OpenAIBaseURL string
	Model         string
	Persona       string
}

// Load reads configuration from the environment. A .env file in the working
// directory is applied first when present; real environment variables win.
func Load() (*Config, error) {
	_ = godotenv.Load() // best-effort, absence is fine

	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("resolve home directory: %w", err)
	}
	dataDir := filepath.Join(home, ".perch")

	cfg := &Config{
		Addr:         getEnv("PERCH_ADDR", ":8487"),
		Headless:     getEnvBool("PERCH_HEADLESS", true),
		SessionPath:  getEnv("PERCH_SESSION_FILE", filepath.Join(dataDir, "session.json")),
		ArtifactDir:  getEnv("PERCH_ARTIFACT_DIR", filepath.Join(dataDir, "artifacts")),
		SelectorPath: getEnv("PERCH_SELECTORS", ""),
		DBPath:       getEnv("PERCH_DB_PATH", filepath.Join(dataDir, "perch.db")),
		PollInterval: getEnvDuration("PERCH_POLL_INTERVAL", 60*time.Second),
		Credentials: Credentials{
			Username: getEnv("PERCH_USERNAME", ""),
			Password: getEnv("PERCH_PASSWORD", ""),
			Email:    getEnv("PERCH_EMAIL", ""),
		},
		OpenAIKey:     getEnv("OPENAI_API_KEY", ""),
		OpenAIBaseURL: getEnv("OPENAI_BASE_URL", ""),
		Model:         getEnv("PERCH_MODEL", "gpt-4o-mini"),
		Persona:       getEnv("PERCH_PERSONA", ""),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Validate checks that required fields are set.
func (c *Config) Validate() error {
	if c.Addr == "" {
		return fmt.Errorf("PERCH_ADDR cannot be empty")
	}
	if c.Credentials.Username == "" {
		return fmt.Errorf("PERCH_USERNAME is required")
	}
	if c.Credentials.Password == "" {
		return fmt.Errorf("PERCH_PASSWORD is required")
	}
	if c.PollInterval < time.Second {
		return fmt.Errorf("PERCH_POLL_INTERVAL must be at least 1s")
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}
