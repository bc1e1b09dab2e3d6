package driven

import (
	"context"

	"github.com/ericfisherdev/docxlate/internal/domain/model"
)

// DocumentDecoder extracts plain text and an HTML rendering from a binary
// word document.
type DocumentDecoder interface {
	Decode(ctx context.Context, content []byte) (model.Extraction, error)
}

// DocumentEncoder renders lines of text as a binary word document, one
// paragraph per line.
type DocumentEncoder interface {
	Encode(ctx context.Context, lines []string) ([]byte, error)
}
