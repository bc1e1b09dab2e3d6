package application_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ericfisherdev/docxlate/internal/application"
	"github.com/ericfisherdev/docxlate/internal/domain/model"
)

func newTestRegistry(ttl time.Duration) *application.SessionRegistry {
	factory := func() *application.Orchestrator {
		return application.NewOrchestrator(application.OrchestratorConfig{
			Decoder:     &mockDecoder{result: model.Extraction{Text: "Hello"}},
			Encoder:     &mockEncoder{},
			Translators: application.NewTranslatorRegistry(),
			Logger:      zerolog.Nop(),
		})
	}
	return application.NewSessionRegistry(factory, ttl, zerolog.Nop())
}

func TestSessionRegistry_GetCreatesOnceAndReuses(t *testing.T) {
	registry := newTestRegistry(time.Hour)

	first := registry.Get("a")
	second := registry.Get("a")
	other := registry.Get("b")

	assert.Same(t, first, second)
	assert.NotSame(t, first, other)
	assert.Equal(t, 2, registry.Len())
}

func TestSessionRegistry_LookupDoesNotCreate(t *testing.T) {
	registry := newTestRegistry(time.Hour)

	_, ok := registry.Lookup("missing")
	assert.False(t, ok)
	assert.Zero(t, registry.Len())

	created := registry.Get("present")
	got, ok := registry.Lookup("present")
	require.True(t, ok)
	assert.Same(t, created, got)
}

func TestSessionRegistry_SweepEvictsIdleSessions(t *testing.T) {
	registry := newTestRegistry(time.Hour)
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	registry.SetClock(func() time.Time { return now })

	registry.Get("old")
	now = now.Add(90 * time.Minute)
	registry.Get("fresh")

	assert.Equal(t, 1, registry.Sweep())
	_, ok := registry.Lookup("old")
	assert.False(t, ok)
	_, ok = registry.Lookup("fresh")
	assert.True(t, ok)
}

func TestSessionRegistry_SweepKeepsTranslatingSessions(t *testing.T) {
	translator := &mockTranslator{result: "Hola", release: make(chan struct{}), started: make(chan struct{}, 1)}
	translators := application.NewTranslatorRegistry()
	translators.Register(model.ProviderOpenAI, translator.Factory())

	registry := application.NewSessionRegistry(func() *application.Orchestrator {
		return application.NewOrchestrator(application.OrchestratorConfig{
			Decoder:     &mockDecoder{result: model.Extraction{Text: "Hello"}},
			Encoder:     &mockEncoder{},
			Translators: translators,
			Logger:      zerolog.Nop(),
		})
	}, time.Minute, zerolog.Nop())

	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	registry.SetClock(func() time.Time { return now })

	orch := registry.Get("busy")
	ctx := context.Background()
	require.NoError(t, orch.SelectFile(ctx, docxFile("a.docx", 10)))
	require.NoError(t, orch.TranslateAsync(ctx, openAIRequest()))
	<-translator.started

	now = now.Add(time.Hour)
	assert.Zero(t, registry.Sweep())

	close(translator.release)
	registry.Wait()
	assert.Equal(t, 1, registry.Sweep())
}

func TestSessionRegistry_CapEvictsLeastRecentlyUsed(t *testing.T) {
	registry := newTestRegistry(time.Hour)
	registry.SetMaxSessions(2)
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	registry.SetClock(func() time.Time { return now })

	registry.Get("a")
	now = now.Add(time.Minute)
	registry.Get("b")
	now = now.Add(time.Minute)
	registry.Get("a")
	now = now.Add(time.Minute)
	registry.Get("c")

	assert.Equal(t, 2, registry.Len())
	_, ok := registry.Lookup("b")
	assert.False(t, ok, "least recently used session must be evicted")
	_, ok = registry.Lookup("a")
	assert.True(t, ok)
	_, ok = registry.Lookup("c")
	assert.True(t, ok)
}

func TestSessionRegistry_CapSparesTranslatingSessions(t *testing.T) {
	translator := &mockTranslator{result: "Hola", release: make(chan struct{}), started: make(chan struct{}, 1)}
	translators := application.NewTranslatorRegistry()
	translators.Register(model.ProviderOpenAI, translator.Factory())

	registry := application.NewSessionRegistry(func() *application.Orchestrator {
		return application.NewOrchestrator(application.OrchestratorConfig{
			Decoder:     &mockDecoder{result: model.Extraction{Text: "Hello"}},
			Encoder:     &mockEncoder{},
			Translators: translators,
			Logger:      zerolog.Nop(),
		})
	}, time.Hour, zerolog.Nop())
	registry.SetMaxSessions(1)
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	registry.SetClock(func() time.Time { return now })

	busy := registry.Get("busy")
	ctx := context.Background()
	require.NoError(t, busy.SelectFile(ctx, docxFile("a.docx", 10)))
	require.NoError(t, busy.TranslateAsync(ctx, openAIRequest()))
	<-translator.started

	now = now.Add(time.Minute)
	registry.Get("new")
	assert.Equal(t, 2, registry.Len())
	_, ok := registry.Lookup("busy")
	assert.True(t, ok)

	close(translator.release)
	registry.Wait()
	registry.Get("newer")
	assert.Equal(t, 2, registry.Len())
	_, ok = registry.Lookup("busy")
	assert.False(t, ok)
}

func TestSessionRegistry_RunStopsOnCancel(t *testing.T) {
	registry := newTestRegistry(time.Hour)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		registry.Run(ctx, time.Millisecond)
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestSessionRegistry_ConcurrentGet(t *testing.T) {
	registry := newTestRegistry(time.Hour)

	const goroutines = 50
	results := make([]*application.Orchestrator, goroutines)
	var wg sync.WaitGroup
	wg.Add(goroutines)
	for i := range goroutines {
		go func() {
			defer wg.Done()
			results[i] = registry.Get("shared")
		}()
	}
	wg.Wait()

	for _, got := range results {
		assert.Same(t, results[0], got)
	}
	assert.Equal(t, 1, registry.Len())
}

func TestSessionIDs(t *testing.T) {
	id := application.NewSessionID()
	assert.True(t, application.ValidSessionID(id))
	assert.NotEqual(t, id, application.NewSessionID())
	assert.False(t, application.ValidSessionID("not-a-session"))
	assert.False(t, application.ValidSessionID(""))
}
