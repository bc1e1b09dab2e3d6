package driven

import (
	"context"

	"github.com/ericfisherdev/docxlate/internal/domain/model"
)

// Translator is the driven port for an external translation backend. An
// implementation is bound to one secret.
type Translator interface {
	// Translate returns the translated text. An empty result must be
	// reported as an error, never as "".
	Translate(ctx context.Context, job model.Job) (string, error)
}

// TranslatorFactory builds a Translator authenticated with secret.
type TranslatorFactory func(secret string) (Translator, error)

// LanguageDetector guesses the language of a text. It returns "" when unsure.
type LanguageDetector interface {
	Detect(text string) string
}
