package model

// Progress checkpoints of a translation call.
const (
	ProgressIdle       = 0
	ProgressDispatched = 30
	ProgressComplete   = 100
)

// SessionPhase names the state-machine position of a translation session.
type SessionPhase string

// Session phases.
const (
	PhaseEmpty       SessionPhase = "empty"
	PhaseExtracted   SessionPhase = "extracted"
	PhaseTranslating SessionPhase = "translating"
	PhaseTranslated  SessionPhase = "translated"
)

// SessionState is a point-in-time copy of one orchestrator's state. Optional
// fields use pointers: nil means absent.
type SessionState struct {
	DocumentName     string
	DocumentLabel    string
	IsTranslating    bool
	Progress         int
	OriginalText     *string
	OriginalHTML     *string
	TranslatedText   *string
	DetectedLanguage string
	Error            *string
	ErrorKind        ErrorKind
}

// HasDocument reports whether a document is selected.
func (s SessionState) HasDocument() bool {
	return s.DocumentName != ""
}

// Phase derives the state-machine phase from the snapshot.
func (s SessionState) Phase() SessionPhase {
	switch {
	case s.IsTranslating:
		return PhaseTranslating
	case s.TranslatedText != nil:
		return PhaseTranslated
	case s.OriginalText != nil:
		return PhaseExtracted
	default:
		return PhaseEmpty
	}
}

// PreviewText returns the translated text when present, otherwise the
// original text, otherwise the empty string.
func (s SessionState) PreviewText() string {
	if s.TranslatedText != nil {
		return *s.TranslatedText
	}
	if s.OriginalText != nil {
		return *s.OriginalText
	}
	return ""
}
