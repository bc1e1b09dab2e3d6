package httphandler

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/ericfisherdev/docxlate/internal/application"
	"github.com/ericfisherdev/docxlate/internal/domain/model"
	"github.com/ericfisherdev/docxlate/internal/domain/port/driven"
)

// writeJSON marshals v to JSON and writes it to the response with the given
// status code. If marshaling fails, a 500 error is written instead.
func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"internal server error"}`))
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(data)
}

// writeError writes a JSON error response with the given status code and message.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

// writeOperationError writes err with the status code for its kind.
func writeOperationError(w http.ResponseWriter, err error) {
	var opErr *model.OperationError
	if !errors.As(err, &opErr) {
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	writeJSON(w, StatusForKind(opErr.Kind), errorResponse{Error: opErr.Message, Kind: string(opErr.Kind)})
}

// StatusForKind maps an error kind onto an HTTP status code.
func StatusForKind(kind model.ErrorKind) int {
	switch kind {
	case model.KindUnsupportedFormat:
		return http.StatusUnsupportedMediaType
	case model.KindFileTooLarge:
		return http.StatusRequestEntityTooLarge
	case model.KindExtractionFailed:
		return http.StatusUnprocessableEntity
	case model.KindProviderNotImplemented:
		return http.StatusNotImplemented
	case model.KindAuthOrNetworkFailure, model.KindEmptyTranslation:
		return http.StatusBadGateway
	case model.KindAlreadyTranslating:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// credentialStatus maps credential persistence failures onto a status code
// and a client-safe message.
func credentialStatus(err error) (int, string) {
	if errors.Is(err, driven.ErrEncryptionKeyNotSet) {
		return http.StatusServiceUnavailable, "credential storage disabled: set DOCXLATE_SECRET_KEY"
	}
	return http.StatusInternalServerError, "failed to save API keys"
}

// errorResponse is the standard error response body.
type errorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind,omitempty"`
}

// HealthResponse is the JSON representation of the health check endpoint.
type HealthResponse struct {
	Status   string `json:"status"`
	Time     string `json:"time"`
	Sessions int    `json:"sessions"`
}

// ProviderResponse is one entry of the provider catalogue.
type ProviderResponse struct {
	Name        string `json:"name"`
	Implemented bool   `json:"implemented"`
	HasKey      bool   `json:"has_key"`
}

// CatalogueResponse lists providers and selectable languages.
type CatalogueResponse struct {
	Providers       []ProviderResponse `json:"providers"`
	SourceLanguages []string           `json:"source_languages"`
	TargetLanguages []string           `json:"target_languages"`
}

// KeyResponse describes a stored credential. The secret is never returned.
type KeyResponse struct {
	Provider  string `json:"provider"`
	UpdatedAt string `json:"updated_at,omitempty"`
}

// PutKeyRequest is the JSON body for storing a provider key.
type PutKeyRequest struct {
	Secret string `json:"secret"`
}

// TranslateRequest is the JSON body for starting a translation.
type TranslateRequest struct {
	Provider       string `json:"provider"`
	SourceLanguage string `json:"source_language"`
	TargetLanguage string `json:"target_language"`
}

// DocumentResponse names the selected document.
type DocumentResponse struct {
	Name  string `json:"name"`
	Label string `json:"label"`
}

// SessionResponse is the JSON representation of a session snapshot.
type SessionResponse struct {
	Phase            string            `json:"phase"`
	Document         *DocumentResponse `json:"document"`
	IsTranslating    bool              `json:"is_translating"`
	Progress         int               `json:"progress"`
	OriginalText     *string           `json:"original_text"`
	OriginalHTML     *string           `json:"original_html"`
	TranslatedText   *string           `json:"translated_text"`
	DetectedLanguage string            `json:"detected_language,omitempty"`
	Error            *string           `json:"error"`
	ErrorKind        string            `json:"error_kind,omitempty"`
}

func toSessionResponse(s model.SessionState) SessionResponse {
	resp := SessionResponse{
		Phase:            string(s.Phase()),
		IsTranslating:    s.IsTranslating,
		Progress:         s.Progress,
		OriginalText:     s.OriginalText,
		OriginalHTML:     s.OriginalHTML,
		TranslatedText:   s.TranslatedText,
		DetectedLanguage: s.DetectedLanguage,
		Error:            s.Error,
		ErrorKind:        string(s.ErrorKind),
	}
	if s.HasDocument() {
		resp.Document = &DocumentResponse{Name: s.DocumentName, Label: s.DocumentLabel}
	}
	return resp
}

func toKeyResponse(c model.Credential) KeyResponse {
	resp := KeyResponse{Provider: c.Provider}
	if !c.UpdatedAt.IsZero() {
		resp.UpdatedAt = c.UpdatedAt.UTC().Format(time.RFC3339)
	}
	return resp
}

func toProviderResponses(statuses []application.ProviderStatus, hasKey func(string) bool) []ProviderResponse {
	out := make([]ProviderResponse, 0, len(statuses))
	for _, s := range statuses {
		out = append(out, ProviderResponse{Name: s.Name, Implemented: s.Implemented, HasKey: hasKey(s.Name)})
	}
	return out
}
