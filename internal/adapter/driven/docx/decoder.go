// Package docx implements the document decoding and encoding ports for Office
// Open XML word documents.
package docx

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html"
	"strings"

	"github.com/fumiama/go-docx"
	"github.com/microcosm-cc/bluemonday"

	"github.com/ericfisherdev/docxlate/internal/domain/model"
	"github.com/ericfisherdev/docxlate/internal/domain/port/driven"
)

// Compile-time interface satisfaction checks.
var (
	_ driven.DocumentDecoder = (*Decoder)(nil)
	_ driven.DocumentEncoder = (*Encoder)(nil)
)

// ErrEmptyDocument is returned for zero-length input.
var ErrEmptyDocument = errors.New("document is empty")

// Decoder extracts plain text and a sanitized HTML rendering from .docx bytes.
type Decoder struct {
	sanitizer *bluemonday.Policy
}

// NewDecoder creates a Decoder.
func NewDecoder() *Decoder {
	return &Decoder{sanitizer: bluemonday.UGCPolicy()}
}

// Decode parses content. Paragraphs become lines of the plain text and <p>
// (or <hN> for heading styles) elements of the HTML; tables are flattened
// row by row, cells separated by tabs.
func (d *Decoder) Decode(ctx context.Context, content []byte) (ext model.Extraction, err error) {
	if err := ctx.Err(); err != nil {
		return model.Extraction{}, err
	}
	if len(content) == 0 {
		return model.Extraction{}, ErrEmptyDocument
	}

	// go-docx panics on some malformed part layouts.
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("malformed document: %v", r)
		}
	}()

	doc, err := docx.Parse(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return model.Extraction{}, fmt.Errorf("parsing document: %w", err)
	}

	w := &extractWriter{}
	for _, item := range doc.Document.Body.Items {
		switch it := item.(type) {
		case *docx.Paragraph:
			w.paragraph(it)
		case *docx.Table:
			w.table(it)
		}
	}

	return model.Extraction{
		Text: strings.Join(w.lines, "\n"),
		HTML: d.sanitizer.Sanitize(w.html.String()),
	}, nil
}

type extractWriter struct {
	lines []string
	html  strings.Builder
}

func (w *extractWriter) paragraph(p *docx.Paragraph) {
	var text, markup strings.Builder
	for _, child := range p.Children {
		switch c := child.(type) {
		case *docx.Run:
			writeRun(&text, &markup, c)
		case *docx.Hyperlink:
			run := c.Run
			if len(run.Children) == 0 && run.InstrText != "" {
				text.WriteString(run.InstrText)
				markup.WriteString(html.EscapeString(run.InstrText))
				continue
			}
			writeRun(&text, &markup, &run)
		}
	}

	w.lines = append(w.lines, text.String())

	tag := paragraphTag(p)
	w.html.WriteString("<" + tag + ">")
	w.html.WriteString(markup.String())
	w.html.WriteString("</" + tag + ">")
}

func (w *extractWriter) table(t *docx.Table) {
	w.html.WriteString("<table>")
	for _, row := range t.TableRows {
		cells := make([]string, 0, len(row.TableCells))
		w.html.WriteString("<tr>")
		for _, cell := range row.TableCells {
			inner := &extractWriter{}
			for _, p := range cell.Paragraphs {
				inner.paragraph(p)
			}
			for _, nested := range cell.Tables {
				inner.table(nested)
			}
			cells = append(cells, strings.Join(inner.lines, " "))
			w.html.WriteString("<td>")
			w.html.WriteString(inner.html.String())
			w.html.WriteString("</td>")
		}
		w.html.WriteString("</tr>")
		w.lines = append(w.lines, strings.Join(cells, "\t"))
	}
	w.html.WriteString("</table>")
}

func writeRun(text, markup *strings.Builder, r *docx.Run) {
	var chunk strings.Builder
	for _, child := range r.Children {
		switch c := child.(type) {
		case *docx.Text:
			chunk.WriteString(c.Text)
		case *docx.Tab:
			chunk.WriteByte('\t')
		case *docx.BarterRabbet:
			if c.Type == "" || c.Type == "textWrapping" {
				chunk.WriteByte('\n')
			}
		}
	}
	if chunk.Len() == 0 {
		return
	}

	s := chunk.String()
	text.WriteString(s)

	escaped := strings.ReplaceAll(html.EscapeString(s), "\n", "<br>")
	if r.RunProperties != nil && r.RunProperties.Italic != nil {
		escaped = "<em>" + escaped + "</em>"
	}
	if r.RunProperties != nil && r.RunProperties.Bold != nil {
		escaped = "<strong>" + escaped + "</strong>"
	}
	markup.WriteString(escaped)
}

// paragraphTag maps Heading1..Heading6 paragraph styles onto h1..h6.
func paragraphTag(p *docx.Paragraph) string {
	if p.Properties == nil || p.Properties.Style == nil {
		return "p"
	}
	style := strings.ToLower(strings.ReplaceAll(p.Properties.Style.Val, " ", ""))
	if level, ok := strings.CutPrefix(style, "heading"); ok && len(level) == 1 && level[0] >= '1' && level[0] <= '6' {
		return "h" + level
	}
	return "p"
}
