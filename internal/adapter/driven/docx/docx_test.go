package docx_test

import (
	"bytes"
	"context"
	"testing"

	godocx "github.com/fumiama/go-docx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	docxAdapter "github.com/ericfisherdev/docxlate/internal/adapter/driven/docx"
)

func buildDocument(t *testing.T, build func(d *godocx.Docx)) []byte {
	t.Helper()

	d := godocx.New().WithDefaultTheme()
	build(d)

	var buf bytes.Buffer
	_, err := d.WriteTo(&buf)
	require.NoError(t, err)
	return buf.Bytes()
}

func TestDecode_ParagraphsAndFormatting(t *testing.T) {
	content := buildDocument(t, func(d *godocx.Docx) {
		d.AddParagraph().Style("Heading1").AddText("Title")
		p := d.AddParagraph()
		p.AddText("Hello ")
		p.AddText("bold").Bold()
		p.AddText(" and ")
		p.AddText("italic").Italic()
		d.AddParagraph().AddText("<script>alert(1)</script>")
	})

	ext, err := docxAdapter.NewDecoder().Decode(context.Background(), content)
	require.NoError(t, err)

	assert.Equal(t, "Title\nHello bold and italic\n<script>alert(1)</script>", ext.Text)
	assert.Contains(t, ext.HTML, "<h1>Title</h1>")
	assert.Contains(t, ext.HTML, "<p>Hello <strong>bold</strong> and <em>italic</em></p>")
	assert.NotContains(t, ext.HTML, "<script>")
}

func TestDecode_Table(t *testing.T) {
	content := buildDocument(t, func(d *godocx.Docx) {
		tbl := d.AddTable(1, 2, 4000, nil)
		tbl.TableRows[0].TableCells[0].AddParagraph().AddText("left")
		tbl.TableRows[0].TableCells[1].AddParagraph().AddText("right")
	})

	ext, err := docxAdapter.NewDecoder().Decode(context.Background(), content)
	require.NoError(t, err)

	assert.Equal(t, "left\tright", ext.Text)
	assert.Contains(t, ext.HTML, "<td><p>left</p></td>")
}

func TestDecode_NotAZip(t *testing.T) {
	_, err := docxAdapter.NewDecoder().Decode(context.Background(), []byte("\xd0\xcf\x11\xe0 legacy .doc bytes"))
	assert.Error(t, err)
}

func TestDecode_Empty(t *testing.T) {
	_, err := docxAdapter.NewDecoder().Decode(context.Background(), nil)
	assert.ErrorIs(t, err, docxAdapter.ErrEmptyDocument)
}

func TestDecode_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := docxAdapter.NewDecoder().Decode(ctx, []byte("PK"))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestEncode_OneParagraphPerLine(t *testing.T) {
	lines := []string{"Hola", "", "Mundo"}

	data, err := docxAdapter.NewEncoder().Encode(context.Background(), lines)
	require.NoError(t, err)

	doc, err := godocx.Parse(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)

	var paragraphs []*godocx.Paragraph
	for _, item := range doc.Document.Body.Items {
		if p, ok := item.(*godocx.Paragraph); ok {
			paragraphs = append(paragraphs, p)
		}
	}
	require.Len(t, paragraphs, 3)

	ext, err := docxAdapter.NewDecoder().Decode(context.Background(), data)
	require.NoError(t, err)
	assert.Equal(t, "Hola\n\nMundo", ext.Text)
}
