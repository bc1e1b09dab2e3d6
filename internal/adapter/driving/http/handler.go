// Package httphandler is the JSON REST driving adapter.
package httphandler

import (
	"encoding/json"
	"errors"
	"mime"
	"net/http"
	"slices"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/ericfisherdev/docxlate/internal/application"
	"github.com/ericfisherdev/docxlate/internal/domain/model"
)

// Handler is the HTTP driving adapter that serves the REST API.
type Handler struct {
	credentials *application.CredentialService
	sessions    *application.SessionRegistry
	translators *application.TranslatorRegistry
	logger      zerolog.Logger
}

// NewHandler creates a Handler with all required dependencies.
func NewHandler(
	credentials *application.CredentialService,
	sessions *application.SessionRegistry,
	translators *application.TranslatorRegistry,
	logger zerolog.Logger,
) *Handler {
	return &Handler{
		credentials: credentials,
		sessions:    sessions,
		translators: translators,
		logger:      logger,
	}
}

// RegisterRoutes registers every API route on mux.
func RegisterRoutes(mux *http.ServeMux, h *Handler) {
	mux.HandleFunc("GET /api/v1/health", h.Health)
	mux.HandleFunc("GET /api/v1/providers", h.ListProviders)
	mux.HandleFunc("GET /api/v1/keys", h.ListKeys)
	mux.HandleFunc("PUT /api/v1/keys/{provider}", h.PutKey)
	mux.HandleFunc("DELETE /api/v1/keys/{provider}", h.DeleteKey)
	mux.HandleFunc("GET /api/v1/session", h.GetSession)
	mux.HandleFunc("POST /api/v1/document", h.UploadDocument)
	mux.HandleFunc("DELETE /api/v1/document", h.ClearDocument)
	mux.HandleFunc("POST /api/v1/translate", h.Translate)
	mux.HandleFunc("GET /api/v1/translation/download", h.Download)
}

// NewServeMux creates an http.Handler with all API routes registered and
// wrapped with logging and recovery middleware.
func NewServeMux(h *Handler, logger zerolog.Logger) http.Handler {
	mux := http.NewServeMux()
	RegisterRoutes(mux, h)

	// Recovery innermost so panics are caught before logging.
	wrapped := RecoveryMiddleware(logger, mux)
	wrapped = LoggingMiddleware(logger, wrapped)

	return wrapped
}

// Health returns a simple health check response.
func (h *Handler) Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		Status:   "ok",
		Time:     time.Now().UTC().Format(time.RFC3339),
		Sessions: h.sessions.Len(),
	})
}

// ListProviders returns the provider and language catalogues.
func (h *Handler) ListProviders(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, CatalogueResponse{
		Providers:       toProviderResponses(h.translators.Catalogue(), h.hasKey),
		SourceLanguages: model.SourceLanguages(),
		TargetLanguages: slices.Clone(model.Languages),
	})
}

// ListKeys returns the providers that have a stored key.
func (h *Handler) ListKeys(w http.ResponseWriter, _ *http.Request) {
	creds := h.credentials.List()
	resp := make([]KeyResponse, 0, len(creds))
	for _, c := range creds {
		resp = append(resp, toKeyResponse(c))
	}
	writeJSON(w, http.StatusOK, resp)
}

// PutKey stores or replaces the key for a provider.
func (h *Handler) PutKey(w http.ResponseWriter, r *http.Request) {
	provider := r.PathValue("provider")
	if !model.IsKnownProvider(provider) {
		writeError(w, http.StatusNotFound, "unknown provider")
		return
	}

	var req PutKeyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	key, ok, err := model.NormalizeKey(provider, req.Secret)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if !ok {
		writeError(w, http.StatusBadRequest, "secret is required")
		return
	}

	if err := h.credentials.Add(r.Context(), provider, key); err != nil {
		h.logger.Error().Err(err).Str("provider", provider).Msg("failed to store api key")
		status, msg := credentialStatus(err)
		writeError(w, status, msg)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// DeleteKey removes the key for a provider. Removing a missing key succeeds.
func (h *Handler) DeleteKey(w http.ResponseWriter, r *http.Request) {
	provider := r.PathValue("provider")

	if err := h.credentials.Remove(r.Context(), provider); err != nil {
		h.logger.Error().Err(err).Str("provider", provider).Msg("failed to remove api key")
		status, msg := credentialStatus(err)
		writeError(w, status, msg)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// GetSession returns the caller's session snapshot.
func (h *Handler) GetSession(w http.ResponseWriter, r *http.Request) {
	orch := h.session(w, r)
	writeJSON(w, http.StatusOK, toSessionResponse(orch.State()))
}

// UploadDocument selects the multipart "file" as the session's document.
func (h *Handler) UploadDocument(w http.ResponseWriter, r *http.Request) {
	orch := h.session(w, r)

	upload, err := ReadDocumentUpload(w, r, "file")
	if err != nil {
		if errors.Is(err, ErrNoUpload) {
			writeError(w, http.StatusBadRequest, "multipart field \"file\" is required")
			return
		}
		if IsBodyTooLarge(err) {
			writeError(w, http.StatusRequestEntityTooLarge, model.MsgFileTooLarge)
			return
		}
		writeError(w, http.StatusBadRequest, "invalid multipart body")
		return
	}

	if err := orch.SelectFile(r.Context(), upload.Document); err != nil {
		writeOperationError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toSessionResponse(orch.State()))
}

// ClearDocument discards the session's document and translation.
func (h *Handler) ClearDocument(w http.ResponseWriter, r *http.Request) {
	h.session(w, r).Clear()
	w.WriteHeader(http.StatusNoContent)
}

// Translate starts an asynchronous translation using the stored key for the
// requested provider. Clients poll GET /api/v1/session for the outcome.
func (h *Handler) Translate(w http.ResponseWriter, r *http.Request) {
	orch := h.session(w, r)

	var req TranslateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Provider == "" {
		req.Provider = model.ProviderOpenAI
	}
	if req.SourceLanguage == "" {
		req.SourceLanguage = model.AutoDetect
	}

	if !model.IsKnownProvider(req.Provider) {
		writeError(w, http.StatusBadRequest, "unknown provider")
		return
	}
	if !slices.Contains(model.SourceLanguages(), req.SourceLanguage) {
		writeError(w, http.StatusBadRequest, "unsupported source language")
		return
	}
	if !slices.Contains(model.Languages, req.TargetLanguage) {
		writeError(w, http.StatusBadRequest, "unsupported target language")
		return
	}

	state := orch.State()
	if state.OriginalText == nil {
		writeError(w, http.StatusConflict, "no document selected")
		return
	}

	secret, ok := h.credentials.Get(req.Provider)
	if !ok {
		writeError(w, http.StatusPreconditionFailed, MissingKeyMessage(req.Provider))
		return
	}

	err := orch.TranslateAsync(r.Context(), model.TranslationRequest{
		Secret:         secret,
		Provider:       req.Provider,
		SourceLanguage: req.SourceLanguage,
		TargetLanguage: req.TargetLanguage,
	})
	if err != nil {
		writeOperationError(w, err)
		return
	}

	writeJSON(w, http.StatusAccepted, toSessionResponse(orch.State()))
}

// Download returns the translated document as a .docx attachment.
func (h *Handler) Download(w http.ResponseWriter, r *http.Request) {
	orch := h.session(w, r)

	export, err := orch.Download(r.Context())
	if err != nil {
		writeOperationError(w, err)
		return
	}
	if export == nil {
		writeError(w, http.StatusNotFound, "no translation available")
		return
	}

	WriteExport(w, export)
}

// WriteExport sends export as a file attachment.
func WriteExport(w http.ResponseWriter, export *model.Export) {
	w.Header().Set("Content-Type", export.ContentType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": export.FileName}))
	w.Header().Set("Content-Length", strconv.Itoa(len(export.Data)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(export.Data)
}

func (h *Handler) session(w http.ResponseWriter, r *http.Request) *application.Orchestrator {
	return h.sessions.Get(EnsureSession(w, r))
}

func (h *Handler) hasKey(provider string) bool {
	_, ok := h.credentials.Get(provider)
	return ok
}
