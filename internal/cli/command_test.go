package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ericfisherdev/docxlate/internal/application"
	"github.com/ericfisherdev/docxlate/internal/domain/model"
	"github.com/ericfisherdev/docxlate/internal/domain/port/driven"
)

type memBlobStore struct {
	mu    sync.Mutex
	blobs map[string][]byte
}

func (m *memBlobStore) Read(_ context.Context, key string) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.blobs[key]
	return b, ok, nil
}

func (m *memBlobStore) Write(_ context.Context, key string, blob []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.blobs[key] = blob
	return nil
}

type textDecoder struct{}

func (textDecoder) Decode(_ context.Context, content []byte) (model.Extraction, error) {
	return model.Extraction{Text: string(content), HTML: string(content)}, nil
}

type joinEncoder struct{}

func (joinEncoder) Encode(_ context.Context, lines []string) ([]byte, error) {
	return []byte(strings.Join(lines, "\n")), nil
}

type upperTranslator struct{}

func (upperTranslator) Translate(_ context.Context, job model.Job) (string, error) {
	return strings.ToUpper(job.Text), nil
}

type fixedDetector string

func (d fixedDetector) Detect(string) string { return string(d) }

// harness runs docxlatectl commands against an in-memory store.
type harness struct {
	store    *memBlobStore
	secrets  []string
	settings []Settings
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	return &harness{store: &memBlobStore{blobs: map[string][]byte{}}}
}

func (h *harness) boot(ctx context.Context, s Settings) (*Runtime, error) {
	h.settings = append(h.settings, s)
	logger := zerolog.Nop()

	creds := application.NewCredentialService(h.store, logger)
	if err := creds.Load(ctx); err != nil {
		return nil, err
	}

	translators := application.NewTranslatorRegistry()
	translators.Register(model.ProviderOpenAI, func(secret string) (driven.Translator, error) {
		h.secrets = append(h.secrets, secret)
		return upperTranslator{}, nil
	})

	return &Runtime{
		Credentials: creds,
		NewOrchestrator: func() *application.Orchestrator {
			return application.NewOrchestrator(application.OrchestratorConfig{
				Decoder:     textDecoder{},
				Encoder:     joinEncoder{},
				Translators: translators,
				Detector:    fixedDetector("English"),
				Logger:      logger,
			})
		},
	}, nil
}

func (h *harness) run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := CreateRootCommand(NewFlags(), viper.New(), h.boot)
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestCreateRootCommand_Subcommands(t *testing.T) {
	cmd := CreateRootCommand(NewFlags(), viper.New(), nil)

	assert.Equal(t, "docxlatectl", cmd.Use)
	for _, name := range []string{"config", "db", "secret-key"} {
		assert.NotNil(t, cmd.PersistentFlags().Lookup(name), name)
	}

	translate, _, err := cmd.Find([]string{"translate"})
	require.NoError(t, err)
	for _, name := range []string{"provider", "from", "to", "output", "api-key"} {
		assert.NotNil(t, translate.Flags().Lookup(name), name)
	}

	list, _, err := cmd.Find([]string{"keys", "ls"})
	require.NoError(t, err)
	assert.Equal(t, "list", list.Name())
}

func TestKeys_AddListRemove(t *testing.T) {
	h := newHarness(t)

	out, err := h.run(t, "keys", "add", "openai", "sk-abcdefgh1234")
	require.NoError(t, err)
	assert.Contains(t, out, "API key saved for OpenAI")

	out, err = h.run(t, "keys", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "PROVIDER")
	assert.Contains(t, out, "sk-••••1234")
	assert.NotContains(t, out, "sk-abcdefgh1234")

	out, err = h.run(t, "keys", "remove", "OpenAI")
	require.NoError(t, err)
	assert.Contains(t, out, "API key removed for OpenAI")

	out, err = h.run(t, "keys", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "No API keys stored.")
}

func TestKeys_RejectsUnknownProviderAndBlankKey(t *testing.T) {
	h := newHarness(t)

	_, err := h.run(t, "keys", "add", "Bing", "secret")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown provider "Bing"`)

	_, err = h.run(t, "keys", "add", "DeepL", "   ")
	require.Error(t, err)
	assert.Empty(t, h.settings, "store must not be opened for invalid input")
}

func TestKeys_AddRejectsMalformedOpenAIKey(t *testing.T) {
	h := newHarness(t)

	_, err := h.run(t, "keys", "add", "OpenAI", "foo")

	require.ErrorIs(t, err, model.ErrInvalidKey)
	assert.Empty(t, h.settings, "store must not be opened for invalid input")
}

func TestSettingsFromFlagsAndEnv(t *testing.T) {
	h := newHarness(t)
	t.Setenv("DOCXLATE_SECRET_KEY", "from-env")

	_, err := h.run(t, "--db", "/tmp/custom.db", "keys", "list")
	require.NoError(t, err)

	require.Len(t, h.settings, 1)
	assert.Equal(t, "/tmp/custom.db", h.settings[0].DBPath)
	assert.Equal(t, "from-env", h.settings[0].SecretKey)
}

func TestSettingsFromConfigFile(t *testing.T) {
	h := newHarness(t)
	cfg := writeFile(t, "docxlate.yaml", "db_path: /data/from-file.db\nsecret_key: file-secret\n")

	_, err := h.run(t, "--config", cfg, "keys", "list")
	require.NoError(t, err)

	require.Len(t, h.settings, 1)
	assert.Equal(t, "/data/from-file.db", h.settings[0].DBPath)
	assert.Equal(t, "file-secret", h.settings[0].SecretKey)
}

func TestTranslate_WritesOutput(t *testing.T) {
	h := newHarness(t)
	_, err := h.run(t, "keys", "add", "OpenAI", "sk-stored-key-1")
	require.NoError(t, err)

	input := writeFile(t, "report.docx", "hello\nworld")

	out, err := h.run(t, "translate", input, "--to", "French")
	require.NoError(t, err)

	expected := filepath.Join(filepath.Dir(input), "translated_report.docx")
	assert.Contains(t, out, "Wrote "+expected)
	assert.Contains(t, out, "Detected source language: English")

	data, err := os.ReadFile(expected)
	require.NoError(t, err)
	assert.Equal(t, "HELLO\nWORLD", string(data))
	assert.Equal(t, []string{"sk-stored-key-1"}, h.secrets)
}

func TestTranslate_APIKeyFlagOverridesStore(t *testing.T) {
	h := newHarness(t)
	input := writeFile(t, "notes.doc", "hi")
	output := filepath.Join(t.TempDir(), "out.docx")

	out, err := h.run(t, "translate", input, "--from", "English", "--to", "German", "--api-key", "sk-flag", "-o", output)
	require.NoError(t, err)
	assert.NotContains(t, out, "Detected source language")
	assert.Equal(t, []string{"sk-flag"}, h.secrets)
	assert.FileExists(t, output)
}

func TestTranslate_Failures(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		args    []string
		wantErr string
	}{
		{name: "missing key", file: "a.docx", wantErr: "no API key stored for OpenAI"},
		{name: "unsupported format", file: "a.pdf", args: []string{"--api-key", "sk-x"}, wantErr: model.MsgUnsupportedFormat},
		{name: "unknown target", file: "a.docx", args: []string{"--to", "Klingon"}, wantErr: `unknown target language "Klingon"`},
		{name: "unknown source", file: "a.docx", args: []string{"--from", "Elvish"}, wantErr: `unknown source language "Elvish"`},
		{name: "unimplemented provider", file: "a.docx", args: []string{"--provider", "DeepL", "--api-key", "dl"}, wantErr: "DeepL"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			input := writeFile(t, tt.file, "content")

			_, err := h.run(t, append([]string{"translate", input}, tt.args...)...)

			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestTranslate_MissingFile(t *testing.T) {
	h := newHarness(t)

	_, err := h.run(t, "translate", filepath.Join(t.TempDir(), "nope.docx"), "--api-key", "sk-x")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "opening")
}
