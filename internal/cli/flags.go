package cli

import "github.com/ericfisherdev/docxlate/internal/domain/model"

// Flags holds all command-line flag values.
type Flags struct {
	CfgFile string

	// Storage flags, also settable as DOCXLATE_DB_PATH and DOCXLATE_SECRET_KEY.
	DBPath    string
	SecretKey string

	// Translate flags
	Provider string
	From     string
	To       string
	Output   string
	APIKey   string
}

// NewFlags creates a new Flags instance with default values.
func NewFlags() *Flags {
	return &Flags{
		DBPath:   "docxlate.db",
		Provider: model.ProviderOpenAI,
		From:     model.AutoDetect,
		To:       "Spanish",
	}
}
