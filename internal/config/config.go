// Package config loads application configuration from environment variables.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Prefix is prepended (with an underscore) to every environment variable.
const Prefix = "DOCXLATE"

// Config holds the application configuration loaded from environment variables.
type Config struct {
	Environment string `envconfig:"ENVIRONMENT" default:"local"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info"`

	ListenAddr string `envconfig:"LISTEN_ADDR" default:"127.0.0.1:8080"`
	DBPath     string `envconfig:"DB_PATH" default:"docxlate.db"`
	// SecretKey is the passphrase the credential encryption key is derived
	// from. Credential storage is disabled when it is empty.
	SecretKey string `envconfig:"SECRET_KEY"`

	OpenAIModel      string        `envconfig:"OPENAI_MODEL" default:"gpt-3.5-turbo"`
	OpenAIBaseURL    string        `envconfig:"OPENAI_BASE_URL"`
	TranslateTimeout time.Duration `envconfig:"TRANSLATE_TIMEOUT" default:"2m"`

	SessionTTL           time.Duration `envconfig:"SESSION_TTL" default:"2h"`
	SessionSweepInterval time.Duration `envconfig:"SESSION_SWEEP_INTERVAL" default:"5m"`
	// MaxSessions caps live sessions; the least recently used idle one is
	// evicted to admit a new one.
	MaxSessions int `envconfig:"MAX_SESSIONS" default:"1000"`
}

// HasSecretKey reports whether a credential encryption passphrase is set.
func (c *Config) HasSecretKey() bool {
	return strings.TrimSpace(c.SecretKey) != ""
}

// Load reads DOCXLATE_* environment variables and returns a validated Config.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(Prefix, &cfg); err != nil {
		return nil, fmt.Errorf("reading environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return &cfg, nil
}

// Validate rejects empty addresses, non-positive durations and a
// non-positive session cap.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.ListenAddr) == "" {
		return fmt.Errorf("%s_LISTEN_ADDR is required", Prefix)
	}
	if strings.TrimSpace(c.DBPath) == "" {
		return fmt.Errorf("%s_DB_PATH is required", Prefix)
	}
	if strings.TrimSpace(c.OpenAIModel) == "" {
		return fmt.Errorf("%s_OPENAI_MODEL is required", Prefix)
	}
	if c.MaxSessions <= 0 {
		return fmt.Errorf("%s_MAX_SESSIONS must be positive, got %d", Prefix, c.MaxSessions)
	}
	for name, d := range map[string]time.Duration{
		"TRANSLATE_TIMEOUT":      c.TranslateTimeout,
		"SESSION_TTL":            c.SessionTTL,
		"SESSION_SWEEP_INTERVAL": c.SessionSweepInterval,
	} {
		if d <= 0 {
			return fmt.Errorf("%s_%s must be positive, got %s", Prefix, name, d)
		}
	}
	return nil
}
