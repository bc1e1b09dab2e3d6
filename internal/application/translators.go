package application

import (
	"sync"

	"github.com/ericfisherdev/docxlate/internal/domain/model"
	"github.com/ericfisherdev/docxlate/internal/domain/port/driven"
)

// TranslatorRegistry maps provider names to translator factories. Providers
// from the catalogue without a registered factory are "not implemented".
type TranslatorRegistry struct {
	mu        sync.RWMutex
	factories map[string]driven.TranslatorFactory
}

// NewTranslatorRegistry creates an empty registry.
func NewTranslatorRegistry() *TranslatorRegistry {
	return &TranslatorRegistry{factories: make(map[string]driven.TranslatorFactory)}
}

// Register binds factory to provider, replacing any previous binding.
func (r *TranslatorRegistry) Register(provider string, factory driven.TranslatorFactory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[provider] = factory
}

// Lookup returns the factory for provider.
func (r *TranslatorRegistry) Lookup(provider string) (driven.TranslatorFactory, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	f, ok := r.factories[provider]
	return f, ok
}

// ProviderStatus describes one catalogue entry.
type ProviderStatus struct {
	Name        string
	Implemented bool
}

// Catalogue returns every provider in display order with its integration status.
func (r *TranslatorRegistry) Catalogue() []ProviderStatus {
	out := make([]ProviderStatus, 0, len(model.Providers))
	for _, name := range model.Providers {
		_, ok := r.Lookup(name)
		out = append(out, ProviderStatus{Name: name, Implemented: ok})
	}
	return out
}
