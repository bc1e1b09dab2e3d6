// Package openai implements the Translator port using the OpenAI chat
// completions API.
package openai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
	oa "github.com/sashabaranov/go-openai"
	"github.com/sony/gobreaker"

	"github.com/ericfisherdev/docxlate/internal/domain/model"
	"github.com/ericfisherdev/docxlate/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.Translator = (*Translator)(nil)

// DefaultModel is the chat model used when none is configured.
const DefaultModel = oa.GPT3Dot5Turbo

const temperature = 0.3

// Config holds the settings shared by every translator built by a Factory.
type Config struct {
	Model string
	// BaseURL overrides the API endpoint; empty uses api.openai.com.
	BaseURL string
	// HTTPClient is optional.
	HTTPClient *http.Client
}

// Factory builds per-secret Translators that share one circuit breaker, so a
// failing upstream trips for every session at once.
type Factory struct {
	cfg     Config
	breaker *gobreaker.CircuitBreaker
	logger  zerolog.Logger
}

// NewFactory creates a Factory. The breaker opens after five consecutive
// transport or server failures and half-opens after thirty seconds.
func NewFactory(cfg Config, logger zerolog.Logger) *Factory {
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "openai",
		MaxRequests: 1,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		IsSuccessful: countsAsSuccess,
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn().Str("breaker", name).Stringer("from", from).Stringer("to", to).Msg("circuit breaker state changed")
		},
	})

	return &Factory{cfg: cfg, breaker: breaker, logger: logger}
}

// New returns a Translator authenticated with secret.
func (f *Factory) New(secret string) (driven.Translator, error) {
	secret = strings.TrimSpace(secret)
	if secret == "" {
		return nil, errors.New("openai: api key is empty")
	}

	clientCfg := oa.DefaultConfig(secret)
	if f.cfg.BaseURL != "" {
		clientCfg.BaseURL = f.cfg.BaseURL
	}
	if f.cfg.HTTPClient != nil {
		clientCfg.HTTPClient = f.cfg.HTTPClient
	}

	return &Translator{
		client:  oa.NewClientWithConfig(clientCfg),
		model:   f.cfg.Model,
		breaker: f.breaker,
		logger:  f.logger,
	}, nil
}

// Translator sends one chat completion per job.
type Translator struct {
	client  *oa.Client
	model   string
	breaker *gobreaker.CircuitBreaker
	logger  zerolog.Logger
}

// Translate sends job.Text as the user message under a system instruction
// naming the language pair.
func (t *Translator) Translate(ctx context.Context, job model.Job) (string, error) {
	req := oa.ChatCompletionRequest{
		Model: t.model,
		Messages: []oa.ChatCompletionMessage{
			{Role: oa.ChatMessageRoleSystem, Content: SystemPrompt(job.SourceLanguage, job.TargetLanguage)},
			{Role: oa.ChatMessageRoleUser, Content: job.Text},
		},
		Temperature: temperature,
	}

	out, err := t.breaker.Execute(func() (interface{}, error) {
		return t.client.CreateChatCompletion(ctx, req)
	})
	if err != nil {
		return "", describeError(err)
	}

	resp := out.(oa.ChatCompletionResponse)
	t.logger.Debug().
		Str("model", resp.Model).
		Int("prompt_tokens", resp.Usage.PromptTokens).
		Int("completion_tokens", resp.Usage.CompletionTokens).
		Msg("openai chat completion")

	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return "", model.NewOperationError(model.KindEmptyTranslation, model.MsgEmptyTranslation, nil)
	}
	return resp.Choices[0].Message.Content, nil
}

// SystemPrompt builds the translator instruction. With model.AutoDetect as
// source no source language is named.
func SystemPrompt(source, target string) string {
	if source == "" || source == model.AutoDetect {
		return fmt.Sprintf("You are a professional translator. Translate the following text to %s. Maintain the original formatting and structure.", target)
	}
	return fmt.Sprintf("You are a professional translator. Translate the following text from %s to %s. Maintain the original formatting and structure.", source, target)
}

// countsAsSuccess keeps client-side rejections (bad key, bad request) from
// tripping the breaker; only transport errors, 429 and 5xx count as failures.
func countsAsSuccess(err error) bool {
	if err == nil {
		return true
	}
	status := statusCode(err)
	return status >= 400 && status < 500 && status != http.StatusTooManyRequests
}

func statusCode(err error) int {
	var apiErr *oa.APIError
	if errors.As(err, &apiErr) {
		return apiErr.HTTPStatusCode
	}
	var reqErr *oa.RequestError
	if errors.As(err, &reqErr) {
		return reqErr.HTTPStatusCode
	}
	return 0
}

func describeError(err error) error {
	switch {
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		return fmt.Errorf("openai temporarily unavailable: %w", err)
	}

	var apiErr *oa.APIError
	if errors.As(err, &apiErr) {
		if apiErr.HTTPStatusCode == http.StatusUnauthorized {
			return fmt.Errorf("invalid API key: %w", err)
		}
		return fmt.Errorf("openai: %w", err)
	}
	return fmt.Errorf("openai request: %w", err)
}
