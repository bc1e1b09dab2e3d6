package model

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Credential holds the API secret for one translation provider. Provider is
// the catalogue name ("OpenAI", "DeepL") and is unique within a store.
type Credential struct {
	Provider  string    `json:"provider"`
	Secret    string    `json:"key"`
	UpdatedAt time.Time `json:"updated_at,omitzero"`
}

// ErrInvalidKey is returned by NormalizeKey for secrets that fail the
// provider's format check.
var ErrInvalidKey = errors.New("invalid API key format")

// NormalizeKey trims secret and applies the provider-specific format check:
// OpenAI keys must start with "sk-". ok is false for blank input.
func NormalizeKey(provider, secret string) (key string, ok bool, err error) {
	key = strings.TrimSpace(secret)
	if key == "" {
		return "", false, nil
	}
	if provider == ProviderOpenAI && !strings.HasPrefix(key, "sk-") {
		return "", false, fmt.Errorf("%w: OpenAI keys start with \"sk-\"", ErrInvalidKey)
	}
	return key, true, nil
}

const maskVisible = 4

// MaskSecret hides a secret for display, keeping the "sk-" prefix when
// present and the last four characters. Short secrets are hidden entirely.
func MaskSecret(secret string) string {
	if len(secret) <= 2*maskVisible {
		return "••••"
	}
	prefix := ""
	if strings.HasPrefix(secret, "sk-") {
		prefix = "sk-"
	}
	return prefix + "••••" + secret[len(secret)-maskVisible:]
}
