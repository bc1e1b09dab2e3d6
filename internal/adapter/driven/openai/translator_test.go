package openai_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	openaiAdapter "github.com/ericfisherdev/docxlate/internal/adapter/driven/openai"
	"github.com/ericfisherdev/docxlate/internal/domain/model"
)

type chatRequest struct {
	Model       string  `json:"model"`
	Temperature float64 `json:"temperature"`
	Messages    []struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"messages"`
}

func completionJSON(content string) string {
	resp := map[string]any{
		"id":     "chatcmpl-1",
		"object": "chat.completion",
		"model":  "gpt-3.5-turbo",
		"choices": []map[string]any{
			{"index": 0, "message": map[string]string{"role": "assistant", "content": content}, "finish_reason": "stop"},
		},
		"usage": map[string]int{"prompt_tokens": 10, "completion_tokens": 2, "total_tokens": 12},
	}
	b, _ := json.Marshal(resp)
	return string(b)
}

// newTestFactory creates a Factory pointed at an httptest server.
func newTestFactory(t *testing.T, handler http.Handler) *openaiAdapter.Factory {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	return openaiAdapter.NewFactory(openaiAdapter.Config{
		BaseURL:    server.URL + "/v1",
		HTTPClient: server.Client(),
	}, zerolog.Nop())
}

func TestTranslate_Success(t *testing.T) {
	var got chatRequest
	var auth string
	factory := newTestFactory(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		auth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(completionJSON("Hola")))
	}))

	tr, err := factory.New("sk-test")
	require.NoError(t, err)

	out, err := tr.Translate(context.Background(), model.Job{Text: "Hello", SourceLanguage: "English", TargetLanguage: "Spanish"})
	require.NoError(t, err)
	assert.Equal(t, "Hola", out)

	assert.Equal(t, "Bearer sk-test", auth)
	assert.Equal(t, "gpt-3.5-turbo", got.Model)
	assert.InDelta(t, 0.3, got.Temperature, 0.001)
	require.Len(t, got.Messages, 2)
	assert.Equal(t, "system", got.Messages[0].Role)
	assert.Equal(t, "You are a professional translator. Translate the following text from English to Spanish. Maintain the original formatting and structure.", got.Messages[0].Content)
	assert.Equal(t, "user", got.Messages[1].Role)
	assert.Equal(t, "Hello", got.Messages[1].Content)
}

func TestTranslate_EmptyChoices(t *testing.T) {
	factory := newTestFactory(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"x","object":"chat.completion","choices":[]}`))
	}))

	tr, err := factory.New("sk-test")
	require.NoError(t, err)

	_, err = tr.Translate(context.Background(), model.Job{Text: "Hello", TargetLanguage: "Spanish"})
	require.ErrorIs(t, err, model.ErrEmptyTranslation)
}

func TestTranslate_Unauthorized(t *testing.T) {
	factory := newTestFactory(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"message":"Incorrect API key provided","type":"invalid_request_error"}}`))
	}))

	tr, err := factory.New("sk-bad")
	require.NoError(t, err)

	_, err = tr.Translate(context.Background(), model.Job{Text: "Hello", TargetLanguage: "Spanish"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid API key")
	assert.Contains(t, err.Error(), "Incorrect API key provided")
}

func TestTranslate_AuthFailuresDoNotTripBreaker(t *testing.T) {
	var calls atomic.Int32
	factory := newTestFactory(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"message":"bad key"}}`))
	}))

	tr, err := factory.New("sk-bad")
	require.NoError(t, err)

	for range 8 {
		_, err = tr.Translate(context.Background(), model.Job{Text: "Hello", TargetLanguage: "Spanish"})
		require.Error(t, err)
	}
	assert.Equal(t, int32(8), calls.Load())
}

func TestTranslate_ServerErrorsTripBreaker(t *testing.T) {
	var calls atomic.Int32
	factory := newTestFactory(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte(`{"error":{"message":"upstream"}}`))
	}))

	tr, err := factory.New("sk-test")
	require.NoError(t, err)

	for range 5 {
		_, err = tr.Translate(context.Background(), model.Job{Text: "Hello", TargetLanguage: "Spanish"})
		require.Error(t, err)
	}
	before := calls.Load()

	_, err = tr.Translate(context.Background(), model.Job{Text: "Hello", TargetLanguage: "Spanish"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "temporarily unavailable")
	assert.Equal(t, before, calls.Load())
}

func TestFactory_RejectsEmptySecret(t *testing.T) {
	factory := openaiAdapter.NewFactory(openaiAdapter.Config{}, zerolog.Nop())

	_, err := factory.New("   ")
	assert.Error(t, err)
}

func TestSystemPrompt_AutoDetectOmitsSource(t *testing.T) {
	assert.Equal(t,
		"You are a professional translator. Translate the following text to French. Maintain the original formatting and structure.",
		openaiAdapter.SystemPrompt(model.AutoDetect, "French"))
}
