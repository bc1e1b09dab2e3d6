// Package web implements the HTML GUI driving adapter using templ components.
package web

import (
	"errors"
	"net/http"
	"net/url"
	"slices"

	"github.com/rs/zerolog"

	httphandler "github.com/ericfisherdev/docxlate/internal/adapter/driving/http"
	"github.com/ericfisherdev/docxlate/internal/adapter/driving/web/templates"
	"github.com/ericfisherdev/docxlate/internal/adapter/driving/web/templates/pages"
	"github.com/ericfisherdev/docxlate/internal/application"
	"github.com/ericfisherdev/docxlate/internal/domain/model"
	"github.com/ericfisherdev/docxlate/internal/domain/port/driven"
)

// Handler is the web GUI driving adapter that serves HTML via templ components.
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

// Index renders the translation page for the caller's session.
func (h *Handler) Index(w http.ResponseWriter, r *http.Request) {
	token := csrfToken(w, r)
	orch := h.session(w, r)
	q := r.URL.Query()

	page := toPageViewModel(pageInput{
		State:       orch.State(),
		Catalogue:   h.translators.Catalogue(),
		Credentials: h.credentials.List(),
		Selection:   selectionFrom(q),
		CSRFToken:   token,
		Notice:      q.Get("notice"),
	})

	layout := templates.Layout(page.Title, page.RefreshSeconds, pages.Translate(page))
	w.Header().Set("Cache-Control", "no-store")
	if err := layout.Render(r.Context(), w); err != nil {
		h.logger.Error().Err(err).Msg("failed to render translate page")
		http.Error(w, "internal server error", http.StatusInternalServerError)
	}
}

// UploadDocument selects the uploaded file. Validation and extraction
// failures are shown from the session state after the redirect.
func (h *Handler) UploadDocument(w http.ResponseWriter, r *http.Request) {
	orch := h.session(w, r)

	upload, err := httphandler.ReadDocumentUpload(w, r, "file")
	if !validateCSRF(r, upload.Fields.Get(csrfFormField)) {
		http.Error(w, "invalid CSRF token", http.StatusForbidden)
		return
	}
	if err != nil {
		if errors.Is(err, httphandler.ErrNoUpload) {
			h.redirect(w, r, "Choose a file to upload", nil)
			return
		}
		if httphandler.IsBodyTooLarge(err) {
			h.redirect(w, r, model.MsgFileTooLarge, nil)
			return
		}
		h.logger.Warn().Err(err).Msg("failed to read upload")
		h.redirect(w, r, model.MsgReadFailed, nil)
		return
	}

	_ = orch.SelectFile(r.Context(), upload.Document)
	h.redirect(w, r, "", nil)
}

// ClearDocument removes the selected document.
func (h *Handler) ClearDocument(w http.ResponseWriter, r *http.Request) {
	if !h.checkForm(w, r) {
		return
	}
	h.session(w, r).Clear()
	h.redirect(w, r, "", nil)
}

// Translate starts a translation with the stored key for the chosen provider.
func (h *Handler) Translate(w http.ResponseWriter, r *http.Request) {
	if !h.checkForm(w, r) {
		return
	}
	orch := h.session(w, r)
	sel := selectionFrom(r.PostForm)

	secret, ok := h.credentials.Get(sel.Provider)
	if !ok {
		h.redirect(w, r, httphandler.MissingKeyMessage(sel.Provider), &sel)
		return
	}

	err := orch.TranslateAsync(r.Context(), model.TranslationRequest{
		Secret:         secret,
		Provider:       sel.Provider,
		SourceLanguage: sel.Source,
		TargetLanguage: sel.Target,
	})
	if errors.Is(err, model.ErrAlreadyTranslating) {
		h.redirect(w, r, model.MsgAlreadyTranslating, &sel)
		return
	}
	h.redirect(w, r, "", &sel)
}

// Download sends the translated document.
func (h *Handler) Download(w http.ResponseWriter, r *http.Request) {
	orch := h.session(w, r)

	export, err := orch.Download(r.Context())
	if err != nil {
		h.redirect(w, r, "", nil)
		return
	}
	if export == nil {
		h.redirect(w, r, "Nothing to download yet", nil)
		return
	}

	httphandler.WriteExport(w, export)
}

// SaveKey stores the submitted key. Blank keys are ignored.
func (h *Handler) SaveKey(w http.ResponseWriter, r *http.Request) {
	if !h.checkForm(w, r) {
		return
	}

	provider := r.PostForm.Get("provider")
	if !model.IsKnownProvider(provider) {
		h.redirect(w, r, "Unknown provider", nil)
		return
	}

	key, ok, err := model.NormalizeKey(provider, r.PostForm.Get("secret"))
	if err != nil {
		h.redirect(w, r, "Invalid API key format", nil)
		return
	}
	if !ok {
		h.redirect(w, r, "", nil)
		return
	}

	if err := h.credentials.Add(r.Context(), provider, key); err != nil {
		h.logger.Error().Err(err).Str("provider", provider).Msg("failed to store api key")
		h.redirect(w, r, credentialNotice(err), nil)
		return
	}
	h.redirect(w, r, "API key saved for "+provider, nil)
}

// DeleteKey removes the key for the submitted provider.
func (h *Handler) DeleteKey(w http.ResponseWriter, r *http.Request) {
	if !h.checkForm(w, r) {
		return
	}

	provider := r.PostForm.Get("provider")
	if err := h.credentials.Remove(r.Context(), provider); err != nil {
		h.logger.Error().Err(err).Str("provider", provider).Msg("failed to remove api key")
		h.redirect(w, r, credentialNotice(err), nil)
		return
	}
	h.redirect(w, r, "API key removed for "+provider, nil)
}

func (h *Handler) session(w http.ResponseWriter, r *http.Request) *application.Orchestrator {
	return h.sessions.Get(httphandler.EnsureSession(w, r))
}

// checkForm parses a urlencoded form and validates its CSRF token, writing a
// 403 when it does not match.
func (h *Handler) checkForm(w http.ResponseWriter, r *http.Request) bool {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return false
	}
	if !validateCSRF(r, r.PostForm.Get(csrfFormField)) {
		http.Error(w, "invalid CSRF token", http.StatusForbidden)
		return false
	}
	return true
}

// redirect sends the browser back to the page (post/redirect/get), carrying
// an optional notice and form selection.
func (h *Handler) redirect(w http.ResponseWriter, r *http.Request, notice string, sel *selection) {
	q := url.Values{}
	if notice != "" {
		q.Set("notice", notice)
	}
	if sel != nil {
		q.Set("provider", sel.Provider)
		q.Set("source_language", sel.Source)
		q.Set("target_language", sel.Target)
	}

	target := "/"
	if len(q) > 0 {
		target += "?" + q.Encode()
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}

// selectionFrom reads the form selection from values, falling back to the
// defaults for missing or unknown entries.
func selectionFrom(values url.Values) selection {
	sel := defaultSelection()
	if p := values.Get("provider"); model.IsKnownProvider(p) {
		sel.Provider = p
	}
	if s := values.Get("source_language"); slices.Contains(model.SourceLanguages(), s) {
		sel.Source = s
	}
	if t := values.Get("target_language"); slices.Contains(model.Languages, t) {
		sel.Target = t
	}
	return sel
}

func credentialNotice(err error) string {
	if errors.Is(err, driven.ErrEncryptionKeyNotSet) {
		return "Key storage is disabled: set DOCXLATE_SECRET_KEY"
	}
	return "Failed to save API keys"
}
