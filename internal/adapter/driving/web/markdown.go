package web

import (
	"bytes"
	"html"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	gmhtml "github.com/yuin/goldmark/renderer/html"
)

var (
	mdRenderer    goldmark.Markdown
	htmlSanitizer *bluemonday.Policy
)

func init() {
	mdRenderer = goldmark.New(
		goldmark.WithExtensions(extension.GFM),
		goldmark.WithRendererOptions(gmhtml.WithUnsafe(), gmhtml.WithHardWraps()),
	)

	htmlSanitizer = bluemonday.UGCPolicy()
}

// RenderPreview converts preview text to sanitized HTML. Line breaks in the
// text are kept; markdown emphasis, lists and tables produced by the
// translator render as such. Returns empty string for empty input.
func RenderPreview(src string) string {
	if src == "" {
		return ""
	}

	var buf bytes.Buffer
	if err := mdRenderer.Convert([]byte(src), &buf); err != nil {
		return "<pre>" + html.EscapeString(src) + "</pre>"
	}

	return htmlSanitizer.Sanitize(buf.String())
}

// SanitizeHTML strips anything outside the user-generated-content policy.
func SanitizeHTML(src string) string {
	return htmlSanitizer.Sanitize(src)
}
