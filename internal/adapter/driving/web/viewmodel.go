package web

import (
	"time"

	httphandler "github.com/ericfisherdev/docxlate/internal/adapter/driving/http"
	vm "github.com/ericfisherdev/docxlate/internal/adapter/driving/web/viewmodel"
	"github.com/ericfisherdev/docxlate/internal/application"
	"github.com/ericfisherdev/docxlate/internal/domain/model"
)

// refreshSeconds is the reload interval while a translation is running.
const refreshSeconds = 2

// selection is the provider and language pair picked in the translate form.
type selection struct {
	Provider string
	Source   string
	Target   string
}

// defaultSelection mirrors the initial form state: OpenAI, auto-detected
// source, Spanish target.
func defaultSelection() selection {
	return selection{Provider: model.ProviderOpenAI, Source: model.AutoDetect, Target: "Spanish"}
}

// pageInput bundles what toPageViewModel needs.
type pageInput struct {
	State       model.SessionState
	Catalogue   []application.ProviderStatus
	Credentials []model.Credential
	Selection   selection
	CSRFToken   string
	Notice      string
}

func toPageViewModel(in pageInput) vm.PageViewModel {
	s := in.State
	page := vm.PageViewModel{
		Title:            "docxlate",
		CSRFToken:        in.CSRFToken,
		Notice:           in.Notice,
		Phase:            string(s.Phase()),
		IsTranslating:    s.IsTranslating,
		Progress:         s.Progress,
		DetectedLanguage: s.DetectedLanguage,
		Providers:        providerOptions(in.Catalogue, in.Selection.Provider),
		SourceLanguages:  options(model.SourceLanguages(), in.Selection.Source),
		TargetLanguages:  options(model.Languages, in.Selection.Target),
		Keys:             keyViewModels(in.Credentials),
		KeyProviders:     options(model.Providers, ""),
		CanDownload:      s.TranslatedText != nil && s.HasDocument() && !s.IsTranslating,
	}

	if s.HasDocument() {
		page.Document = &vm.DocumentViewModel{Name: s.DocumentName, Label: s.DocumentLabel}
	}
	if s.Error != nil {
		page.Error = *s.Error
	}
	if s.OriginalHTML != nil {
		page.OriginalHTML = SanitizeHTML(*s.OriginalHTML)
	}

	page.PreviewHTML = RenderPreview(s.PreviewText())
	switch {
	case s.TranslatedText != nil:
		page.PreviewLabel = "Translated"
	case s.OriginalText != nil:
		page.PreviewLabel = "Original"
	}

	hasKey := false
	for _, c := range in.Credentials {
		if c.Provider == in.Selection.Provider {
			hasKey = true
			break
		}
	}

	switch {
	case s.OriginalText == nil:
		page.TranslateHint = "Upload a document to translate"
	case s.IsTranslating:
		page.TranslateHint = "Translating..."
		page.RefreshSeconds = refreshSeconds
	case !hasKey:
		page.TranslateHint = httphandler.MissingKeyMessage(in.Selection.Provider)
	default:
		page.CanTranslate = true
	}

	return page
}

func providerOptions(catalogue []application.ProviderStatus, selected string) []vm.OptionViewModel {
	out := make([]vm.OptionViewModel, 0, len(catalogue))
	for _, p := range catalogue {
		label := p.Name
		if !p.Implemented {
			label += " (coming soon)"
		}
		out = append(out, vm.OptionViewModel{Value: p.Name, Label: label, Selected: p.Name == selected})
	}
	return out
}

func options(values []string, selected string) []vm.OptionViewModel {
	out := make([]vm.OptionViewModel, 0, len(values))
	for _, v := range values {
		out = append(out, vm.OptionViewModel{Value: v, Label: v, Selected: v == selected})
	}
	return out
}

func keyViewModels(creds []model.Credential) []vm.KeyViewModel {
	out := make([]vm.KeyViewModel, 0, len(creds))
	for _, c := range creds {
		k := vm.KeyViewModel{Provider: c.Provider, Masked: model.MaskSecret(c.Secret)}
		if !c.UpdatedAt.IsZero() {
			k.UpdatedAt = c.UpdatedAt.UTC().Format(time.DateTime)
		}
		out = append(out, k)
	}
	return out
}
