package docx

import (
	"bytes"
	"context"
	"fmt"

	"github.com/fumiama/go-docx"
)

// Encoder renders ordered lines into a new .docx document.
type Encoder struct{}

// NewEncoder creates an Encoder.
func NewEncoder() *Encoder {
	return &Encoder{}
}

// Encode writes one paragraph per line, each holding a single run.
func (e *Encoder) Encode(ctx context.Context, lines []string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	doc := docx.New().WithDefaultTheme()
	for _, line := range lines {
		p := doc.AddParagraph()
		if line != "" {
			p.AddText(line)
		}
	}

	var buf bytes.Buffer
	if _, err := doc.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("writing document: %w", err)
	}
	return buf.Bytes(), nil
}
