package application_test

import (
	"context"
	"errors"
	"sync"

	"github.com/ericfisherdev/docxlate/internal/domain/model"
	"github.com/ericfisherdev/docxlate/internal/domain/port/driven"
)

// --- BlobStore mock ---

type mockBlobStore struct {
	mu       sync.Mutex
	blobs    map[string][]byte
	writes   int
	writeErr error
	readErr  error
}

func newMockBlobStore() *mockBlobStore {
	return &mockBlobStore{blobs: make(map[string][]byte)}
}

func (m *mockBlobStore) Read(_ context.Context, key string) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.readErr != nil {
		return nil, false, m.readErr
	}
	b, ok := m.blobs[key]
	return b, ok, nil
}

func (m *mockBlobStore) Write(_ context.Context, key string, blob []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.writeErr != nil {
		return m.writeErr
	}
	m.writes++
	m.blobs[key] = append([]byte(nil), blob...)
	return nil
}

// --- DocumentDecoder mock ---

type mockDecoder struct {
	mu     sync.Mutex
	result model.Extraction
	err    error
	calls  int
}

func (m *mockDecoder) Decode(_ context.Context, _ []byte) (model.Extraction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	return m.result, m.err
}

func (m *mockDecoder) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// --- DocumentEncoder mock ---

type mockEncoder struct {
	lines []string
	err   error
}

func (m *mockEncoder) Encode(_ context.Context, lines []string) ([]byte, error) {
	if m.err != nil {
		return nil, m.err
	}
	m.lines = lines
	return []byte("docx-bytes"), nil
}

// --- Translator mock ---

type mockTranslator struct {
	mu      sync.Mutex
	result  string
	err     error
	jobs    []model.Job
	secrets []string
	// release, when non-nil, blocks Translate until it is closed.
	release chan struct{}
	// started is signaled once Translate is entered.
	started chan struct{}
}

func (m *mockTranslator) Translate(ctx context.Context, job model.Job) (string, error) {
	m.mu.Lock()
	m.jobs = append(m.jobs, job)
	release, started := m.release, m.started
	m.mu.Unlock()

	if started != nil {
		started <- struct{}{}
	}
	if release != nil {
		select {
		case <-release:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	return m.result, m.err
}

func (m *mockTranslator) Jobs() []model.Job {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]model.Job(nil), m.jobs...)
}

// Factory returns a TranslatorFactory that records the secret it was built with.
func (m *mockTranslator) Factory() driven.TranslatorFactory {
	return func(secret string) (driven.Translator, error) {
		m.mu.Lock()
		m.secrets = append(m.secrets, secret)
		m.mu.Unlock()
		return m, nil
	}
}

type mockDetector struct{ lang string }

func (m mockDetector) Detect(string) string { return m.lang }

var errBoom = errors.New("boom")
