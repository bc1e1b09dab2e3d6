package httphandler

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/ericfisherdev/docxlate/internal/application"
	"github.com/ericfisherdev/docxlate/internal/domain/model"
)

// SessionCookieName identifies the client's translation session.
const SessionCookieName = "docxlate_session"

// EnsureSession returns the session id carried by r, issuing a new cookie
// when the request has none or an invalid one.
func EnsureSession(w http.ResponseWriter, r *http.Request) string {
	if c, err := r.Cookie(SessionCookieName); err == nil && application.ValidSessionID(c.Value) {
		return c.Value
	}

	id := application.NewSessionID()
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteLaxMode,
	})
	return id
}

// ErrNoUpload is returned when a multipart request carries no file part
// under the expected field.
var ErrNoUpload = errors.New("no file uploaded")

// maxFieldSize bounds each non-file multipart field.
const maxFieldSize = 4096

// Upload is a parsed multipart document upload.
type Upload struct {
	Document model.Document
	// Fields holds the plain form fields that preceded the file part.
	Fields url.Values
}

// MaxUploadBytes caps an upload request body: the document limit plus room
// for multipart framing and form fields.
const MaxUploadBytes = model.MaxDocumentSize + 1<<20

// ReadDocumentUpload streams the multipart part named field into a Document.
// At most MaxDocumentSize+1 bytes are buffered; larger uploads come back with
// Size above the limit and no content so the orchestrator rejects them.
// The body is capped at MaxUploadBytes, so the rest of an oversized file is
// never drained. Parts after the file are not read.
func ReadDocumentUpload(w http.ResponseWriter, r *http.Request, field string) (Upload, error) {
	r.Body = http.MaxBytesReader(w, r.Body, MaxUploadBytes)
	mr, err := r.MultipartReader()
	if err != nil {
		return Upload{}, fmt.Errorf("reading multipart body: %w", err)
	}

	fields := url.Values{}
	for {
		part, err := mr.NextPart()
		if errors.Is(err, io.EOF) {
			return Upload{Fields: fields}, ErrNoUpload
		}
		if err != nil {
			return Upload{}, fmt.Errorf("reading multipart part: %w", err)
		}

		if part.FileName() == "" {
			value, err := io.ReadAll(io.LimitReader(part, maxFieldSize))
			_ = part.Close()
			if err != nil {
				return Upload{}, fmt.Errorf("reading field %q: %w", part.FormName(), err)
			}
			fields.Add(part.FormName(), string(value))
			continue
		}
		if part.FormName() != field {
			_ = part.Close()
			continue
		}

		data, err := io.ReadAll(io.LimitReader(part, model.MaxDocumentSize+1))
		_ = part.Close()
		if err != nil {
			return Upload{}, fmt.Errorf("reading upload: %w", err)
		}

		doc := model.Document{Name: part.FileName(), Size: int64(len(data)), Content: data}
		if doc.Size > model.MaxDocumentSize {
			doc.Content = nil
		}
		return Upload{Document: doc, Fields: fields}, nil
	}
}

// IsBodyTooLarge reports whether err came from exceeding MaxUploadBytes.
func IsBodyTooLarge(err error) bool {
	var tooLarge *http.MaxBytesError
	return errors.As(err, &tooLarge)
}

// MissingKeyMessage is shown when translating with a provider that has no
// stored key.
func MissingKeyMessage(provider string) string {
	return fmt.Sprintf("Please add an API key for %s in settings", provider)
}
