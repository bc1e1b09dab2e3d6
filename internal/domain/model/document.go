package model

import (
	"fmt"
	"path/filepath"
	"strings"
)

// MaxDocumentSize is the upload cap for a single document (10 MiB).
const MaxDocumentSize = 10 * 1024 * 1024

// DownloadPrefix is prepended to the original file name of an export.
const DownloadPrefix = "translated_"

// acceptedExtensions lists the document extensions accepted for upload,
// lower-cased.
var acceptedExtensions = []string{".doc", ".docx"}

// Document is the file currently loaded for translation.
type Document struct {
	Name    string
	Size    int64
	Content []byte
}

// Label returns the human-readable description shown next to the upload,
// e.g. "Word Document: report.docx (12.50 KB)".
func (d Document) Label() string {
	return fmt.Sprintf("Word Document: %s (%.2f KB)", d.Name, float64(d.Size)/1024)
}

// DownloadName returns the file name for the translated export.
func (d Document) DownloadName() string {
	return DownloadPrefix + d.Name
}

// HasAcceptedExtension reports whether name ends in .doc or .docx, ignoring case.
func HasAcceptedExtension(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, accepted := range acceptedExtensions {
		if ext == accepted {
			return true
		}
	}
	return false
}

// Extraction is the decoded content of a document.
type Extraction struct {
	Text string
	HTML string
}

// Export is a rendered translated document ready to be sent to the client.
type Export struct {
	FileName    string
	ContentType string
	Data        []byte
}

// DocxContentType is the MIME type of Office Open XML word documents.
const DocxContentType = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
