// Package viewmodel defines presentation-ready structs for templ components.
// View models decouple template rendering from domain model types.
package viewmodel

// OptionViewModel is one entry of a <select>.
type OptionViewModel struct {
	Value    string
	Label    string
	Selected bool
	Disabled bool
}

// DocumentViewModel describes the selected document.
type DocumentViewModel struct {
	Name  string
	Label string
}

// KeyViewModel is a stored provider key as shown in settings.
type KeyViewModel struct {
	Provider string
	// Masked shows only the key prefix and last four characters.
	Masked    string
	UpdatedAt string
}

// PageViewModel holds everything the translate page renders.
type PageViewModel struct {
	Title     string
	CSRFToken string
	// Notice is a one-shot message carried on the redirect after a form post.
	Notice string

	Document      *DocumentViewModel
	Phase         string
	IsTranslating bool
	Progress      int
	// Error is the session's most recent failure message.
	Error            string
	DetectedLanguage string

	// OriginalHTML is the sanitized rich rendering of the uploaded document.
	OriginalHTML string
	// PreviewHTML is the sanitized rendering of the preview text.
	PreviewHTML  string
	PreviewLabel string

	Providers       []OptionViewModel
	SourceLanguages []OptionViewModel
	TargetLanguages []OptionViewModel
	Keys            []KeyViewModel
	KeyProviders    []OptionViewModel

	// CanTranslate is true when a document is extracted, no translation is
	// running and the selected provider has a stored key.
	CanTranslate bool
	// TranslateHint explains why CanTranslate is false, when it is.
	TranslateHint string
	CanDownload   bool
	// RefreshSeconds, when positive, makes the page reload itself.
	RefreshSeconds int
}
