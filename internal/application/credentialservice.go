package application

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/ericfisherdev/docxlate/internal/domain/model"
	"github.com/ericfisherdev/docxlate/internal/domain/port/driven"
)

// CredentialsBlobKey is the BlobStore key holding the serialized key set.
const CredentialsBlobKey = "translationApiKeys"

// CredentialService holds the provider -> secret mapping in memory and
// persists the full set through a BlobStore after every change. Writers are
// serialized; a change is applied in memory only after it was persisted.
type CredentialService struct {
	mu      sync.RWMutex
	store   driven.BlobStore
	entries []model.Credential
	logger  zerolog.Logger
	now     func() time.Time
}

// NewCredentialService creates an empty CredentialService. Call Load to read
// the persisted set.
func NewCredentialService(store driven.BlobStore, logger zerolog.Logger) *CredentialService {
	return &CredentialService{
		store:  store,
		logger: logger,
		now:    time.Now,
	}
}

// Load replaces the in-memory set with the persisted one. A missing blob
// leaves the set empty.
func (s *CredentialService) Load(ctx context.Context) error {
	blob, ok, err := s.store.Read(ctx, CredentialsBlobKey)
	if err != nil {
		return fmt.Errorf("load credentials: %w", err)
	}

	var entries []model.Credential
	if ok && len(blob) > 0 {
		if err := json.Unmarshal(blob, &entries); err != nil {
			return fmt.Errorf("decode credentials: %w", err)
		}
	}

	s.mu.Lock()
	s.entries = dedupeByProvider(entries)
	count := len(s.entries)
	s.mu.Unlock()

	s.logger.Info().Int("count", count).Msg("credentials loaded")
	return nil
}

// Add inserts or replaces the secret for provider. No format validation is
// performed here.
func (s *CredentialService) Add(ctx context.Context, provider, secret string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := make([]model.Credential, 0, len(s.entries)+1)
	for _, c := range s.entries {
		if c.Provider != provider {
			next = append(next, c)
		}
	}
	next = append(next, model.Credential{Provider: provider, Secret: secret, UpdatedAt: s.now().UTC()})

	if err := s.persist(ctx, next); err != nil {
		return err
	}
	s.entries = next
	s.logger.Info().Str("provider", provider).Msg("api key stored")
	return nil
}

// Remove deletes the secret for provider. Removing an unknown provider is a no-op.
func (s *CredentialService) Remove(ctx context.Context, provider string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := slices.IndexFunc(s.entries, func(c model.Credential) bool { return c.Provider == provider })
	if idx < 0 {
		return nil
	}

	next := slices.Delete(slices.Clone(s.entries), idx, idx+1)
	if err := s.persist(ctx, next); err != nil {
		return err
	}
	s.entries = next
	s.logger.Info().Str("provider", provider).Msg("api key removed")
	return nil
}

// Get returns the secret for provider. ok is false when none is stored.
func (s *CredentialService) Get(provider string) (secret string, ok bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, c := range s.entries {
		if c.Provider == provider {
			return c.Secret, true
		}
	}
	return "", false
}

// List returns a copy of all stored credentials in insertion order.
func (s *CredentialService) List() []model.Credential {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.entries)
}

func (s *CredentialService) persist(ctx context.Context, entries []model.Credential) error {
	if entries == nil {
		entries = []model.Credential{}
	}
	blob, err := json.Marshal(entries)
	if err != nil {
		return fmt.Errorf("encode credentials: %w", err)
	}
	if err := s.store.Write(ctx, CredentialsBlobKey, blob); err != nil {
		return fmt.Errorf("persist credentials: %w", err)
	}
	return nil
}

// dedupeByProvider keeps the last entry for each provider, preserving the
// relative order of the survivors.
func dedupeByProvider(entries []model.Credential) []model.Credential {
	last := make(map[string]int, len(entries))
	for i, c := range entries {
		last[c.Provider] = i
	}
	out := make([]model.Credential, 0, len(last))
	for i, c := range entries {
		if last[c.Provider] == i {
			out = append(out, c)
		}
	}
	return out
}
