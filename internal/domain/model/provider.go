package model

// Provider catalogue names.
const (
	ProviderOpenAI          = "OpenAI"
	ProviderDeepL           = "DeepL"
	ProviderGoogleTranslate = "Google Translate"
)

// AutoDetect is the source-language sentinel meaning "let the model decide".
const AutoDetect = "Auto Detect"

// Providers lists every provider offered to the user, in display order.
// Only OpenAI has an integration.
var Providers = []string{ProviderOpenAI, ProviderDeepL, ProviderGoogleTranslate}

// Languages lists the selectable target languages, in display order.
var Languages = []string{"English", "Spanish", "French", "German", "Chinese", "Japanese"}

// SourceLanguages returns the selectable source languages: AutoDetect first,
// then every target language.
func SourceLanguages() []string {
	out := make([]string, 0, len(Languages)+1)
	out = append(out, AutoDetect)
	return append(out, Languages...)
}

// IsKnownProvider reports whether name is in the provider catalogue.
func IsKnownProvider(name string) bool {
	for _, p := range Providers {
		if p == name {
			return true
		}
	}
	return false
}

// TranslationRequest is the input to a translate call.
type TranslationRequest struct {
	Secret         string
	Provider       string
	SourceLanguage string
	TargetLanguage string
}

// Job is what a translator receives: the text and the language pair.
type Job struct {
	Text           string
	SourceLanguage string
	TargetLanguage string
}
