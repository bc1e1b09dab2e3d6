// Package langdetect implements the LanguageDetector port with lingua-go.
package langdetect

import (
	"strings"
	"sync"
	"unicode"

	lingua "github.com/pemistahl/lingua-go"

	"github.com/ericfisherdev/docxlate/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.LanguageDetector = (*Detector)(nil)

// maxSample caps the number of bytes inspected per document.
const maxSample = 4096

// minLetters is the shortest input worth classifying.
const minLetters = 6

// catalogue maps the selectable languages onto lingua's identifiers.
var catalogue = map[lingua.Language]string{
	lingua.English:  "English",
	lingua.Spanish:  "Spanish",
	lingua.French:   "French",
	lingua.German:   "German",
	lingua.Chinese:  "Chinese",
	lingua.Japanese: "Japanese",
}

// Detector classifies text into one of the catalogue languages. The lingua
// models are built on first use.
type Detector struct {
	once     sync.Once
	detector lingua.LanguageDetector
}

// NewDetector creates a Detector.
func NewDetector() *Detector {
	return &Detector{}
}

// Detect returns the catalogue name of text's language, or "" when the text
// is too short or the language is not in the catalogue.
func (d *Detector) Detect(text string) string {
	sample := strings.TrimSpace(text)
	if len(sample) > maxSample {
		sample = strings.ToValidUTF8(sample[:maxSample], "")
	}

	letters := 0
	for _, r := range sample {
		if unicode.IsLetter(r) {
			letters++
		}
	}
	if letters < minLetters {
		return ""
	}

	language, ok := d.get().DetectLanguageOf(sample)
	if !ok {
		return ""
	}
	return catalogue[language]
}

func (d *Detector) get() lingua.LanguageDetector {
	d.once.Do(func() {
		languages := make([]lingua.Language, 0, len(catalogue))
		for l := range catalogue {
			languages = append(languages, l)
		}
		d.detector = lingua.NewLanguageDetectorBuilder().
			FromLanguages(languages...).
			Build()
	})
	return d.detector
}
