package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// allConfigKeys lists every DOCXLATE_ env var that Load() reads.
var allConfigKeys = []string{
	"DOCXLATE_ENVIRONMENT",
	"DOCXLATE_LOG_LEVEL",
	"DOCXLATE_LISTEN_ADDR",
	"DOCXLATE_DB_PATH",
	"DOCXLATE_SECRET_KEY",
	"DOCXLATE_OPENAI_MODEL",
	"DOCXLATE_OPENAI_BASE_URL",
	"DOCXLATE_TRANSLATE_TIMEOUT",
	"DOCXLATE_SESSION_TTL",
	"DOCXLATE_SESSION_SWEEP_INTERVAL",
	"DOCXLATE_MAX_SESSIONS",
}

// isolateConfigEnv saves and unsets all DOCXLATE_ env vars so tests don't
// inherit values from the host environment.
func isolateConfigEnv(t *testing.T) {
	t.Helper()
	for _, key := range allConfigKeys {
		if orig, ok := os.LookupEnv(key); ok {
			t.Cleanup(func() { os.Setenv(key, orig) })
		} else {
			t.Cleanup(func() { os.Unsetenv(key) })
		}
		os.Unsetenv(key)
	}
}

func TestLoad_Defaults(t *testing.T) {
	isolateConfigEnv(t)

	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, "local", cfg.Environment)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "127.0.0.1:8080", cfg.ListenAddr)
	assert.Equal(t, "docxlate.db", cfg.DBPath)
	assert.Equal(t, "gpt-3.5-turbo", cfg.OpenAIModel)
	assert.Empty(t, cfg.OpenAIBaseURL)
	assert.Equal(t, 2*time.Minute, cfg.TranslateTimeout)
	assert.Equal(t, 2*time.Hour, cfg.SessionTTL)
	assert.Equal(t, 5*time.Minute, cfg.SessionSweepInterval)
	assert.Equal(t, 1000, cfg.MaxSessions)
	assert.False(t, cfg.HasSecretKey())
}

func TestLoad_Success(t *testing.T) {
	isolateConfigEnv(t)
	t.Setenv("DOCXLATE_LISTEN_ADDR", "0.0.0.0:9090")
	t.Setenv("DOCXLATE_DB_PATH", "/tmp/test.db")
	t.Setenv("DOCXLATE_SECRET_KEY", "correct horse battery staple")
	t.Setenv("DOCXLATE_OPENAI_MODEL", "gpt-4o-mini")
	t.Setenv("DOCXLATE_OPENAI_BASE_URL", "http://localhost:11434/v1")
	t.Setenv("DOCXLATE_TRANSLATE_TIMEOUT", "45s")
	t.Setenv("DOCXLATE_SESSION_TTL", "30m")
	t.Setenv("DOCXLATE_MAX_SESSIONS", "50")

	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, "0.0.0.0:9090", cfg.ListenAddr)
	assert.Equal(t, "/tmp/test.db", cfg.DBPath)
	assert.True(t, cfg.HasSecretKey())
	assert.Equal(t, "gpt-4o-mini", cfg.OpenAIModel)
	assert.Equal(t, "http://localhost:11434/v1", cfg.OpenAIBaseURL)
	assert.Equal(t, 45*time.Second, cfg.TranslateTimeout)
	assert.Equal(t, 30*time.Minute, cfg.SessionTTL)
	assert.Equal(t, 50, cfg.MaxSessions)
}

func TestLoad_NonPositiveMaxSessions(t *testing.T) {
	isolateConfigEnv(t)
	t.Setenv("DOCXLATE_MAX_SESSIONS", "0")

	_, err := Load()

	require.Error(t, err)
	assert.Contains(t, err.Error(), "DOCXLATE_MAX_SESSIONS must be positive")
}

func TestLoad_InvalidDuration(t *testing.T) {
	isolateConfigEnv(t)
	t.Setenv("DOCXLATE_TRANSLATE_TIMEOUT", "not-a-duration")

	_, err := Load()

	require.Error(t, err)
	assert.Contains(t, err.Error(), "TRANSLATE_TIMEOUT")
}

func TestLoad_NonPositiveDuration(t *testing.T) {
	isolateConfigEnv(t)
	t.Setenv("DOCXLATE_SESSION_TTL", "0s")

	_, err := Load()

	require.Error(t, err)
	assert.Contains(t, err.Error(), "DOCXLATE_SESSION_TTL must be positive")
}

func TestLoad_WhitespaceSecretKeyIsUnset(t *testing.T) {
	isolateConfigEnv(t)
	t.Setenv("DOCXLATE_SECRET_KEY", "   ")

	cfg, err := Load()

	require.NoError(t, err)
	assert.False(t, cfg.HasSecretKey())
}
