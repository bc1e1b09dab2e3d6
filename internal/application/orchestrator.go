package application

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/ericfisherdev/docxlate/internal/domain/model"
	"github.com/ericfisherdev/docxlate/internal/domain/port/driven"
)

// Orchestrator owns the lifecycle of one document being translated: selection
// and extraction, a single in-flight translation, and export of the result.
// All outcomes are recorded in the session state; methods additionally return
// the classified error so driving adapters can map it.
type Orchestrator struct {
	decoder     driven.DocumentDecoder
	encoder     driven.DocumentEncoder
	translators *TranslatorRegistry
	detector    driven.LanguageDetector
	timeout     time.Duration
	logger      zerolog.Logger

	// selectMu serializes extractions.
	selectMu sync.Mutex

	mu    sync.Mutex
	doc   *model.Document
	state model.SessionState
	// generation is bumped whenever the selected document changes or is
	// cleared; translation results from an older generation are dropped.
	generation uint64

	inflight sync.WaitGroup
}

// OrchestratorConfig holds the collaborators of an Orchestrator.
type OrchestratorConfig struct {
	Decoder     driven.DocumentDecoder
	Encoder     driven.DocumentEncoder
	Translators *TranslatorRegistry
	// Detector is optional. When set, "Auto Detect" translations record the
	// detected source language.
	Detector driven.LanguageDetector
	// Timeout bounds each external translation call. Zero disables it.
	Timeout time.Duration
	Logger  zerolog.Logger
}

// NewOrchestrator creates an Orchestrator in the empty state.
func NewOrchestrator(cfg OrchestratorConfig) *Orchestrator {
	return &Orchestrator{
		decoder:     cfg.Decoder,
		encoder:     cfg.Encoder,
		translators: cfg.Translators,
		detector:    cfg.Detector,
		timeout:     cfg.Timeout,
		logger:      cfg.Logger,
	}
}

// State returns a snapshot of the session state.
func (o *Orchestrator) State() model.SessionState {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

// SelectFile validates doc, extracts its text and makes it the selected
// document. On failure the error is recorded and the previous selection is
// kept.
func (o *Orchestrator) SelectFile(ctx context.Context, doc model.Document) error {
	o.selectMu.Lock()
	defer o.selectMu.Unlock()

	if !model.HasAcceptedExtension(doc.Name) {
		return o.fail(model.NewOperationError(model.KindUnsupportedFormat, model.MsgUnsupportedFormat, nil))
	}
	if doc.Size > model.MaxDocumentSize {
		return o.fail(model.NewOperationError(model.KindFileTooLarge, model.MsgFileTooLarge, nil))
	}

	extraction, err := o.decoder.Decode(ctx, doc.Content)
	if err != nil {
		o.logger.Warn().Err(err).Str("document", doc.Name).Msg("extraction failed")
		return o.fail(model.NewOperationError(model.KindExtractionFailed,
			fmt.Sprintf("%s: %v", model.MsgReadFailed, err), err))
	}

	text, html := extraction.Text, extraction.HTML

	o.mu.Lock()
	defer o.mu.Unlock()

	selected := doc
	o.doc = &selected
	o.generation++
	o.state = model.SessionState{
		DocumentName:  doc.Name,
		DocumentLabel: doc.Label(),
		OriginalText:  &text,
		OriginalHTML:  &html,
	}

	o.logger.Info().Str("document", doc.Name).Int64("size", doc.Size).Msg("document selected")
	return nil
}

// Clear discards the selected document and resets the session to empty. Any
// in-flight translation result is dropped when it arrives.
func (o *Orchestrator) Clear() {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.doc = nil
	o.generation++
	o.state = model.SessionState{}
}

// Translate runs a translation of the selected document and blocks until it
// reaches a terminal outcome. Without an extracted document it is a no-op.
func (o *Orchestrator) Translate(ctx context.Context, req model.TranslationRequest) error {
	call, err := o.begin(req)
	if call == nil || err != nil {
		return err
	}
	return o.run(ctx, call)
}

// TranslateAsync starts a translation and returns once it is dispatched.
// Rejections (no document, already translating, unknown provider) are
// reported synchronously. The translation itself is not bound to ctx's
// cancellation.
func (o *Orchestrator) TranslateAsync(ctx context.Context, req model.TranslationRequest) error {
	call, err := o.begin(req)
	if call == nil || err != nil {
		return err
	}

	o.inflight.Add(1)
	go func() {
		defer o.inflight.Done()
		_ = o.run(context.WithoutCancel(ctx), call)
	}()
	return nil
}

// Wait blocks until every translation started with TranslateAsync finished.
func (o *Orchestrator) Wait() {
	o.inflight.Wait()
}

// lineBreaks folds CRLF and lone CR line endings into LF.
var lineBreaks = strings.NewReplacer("\r\n", "\n", "\r", "\n")

// Download renders the translated text as a .docx export. It returns a nil
// export and nil error when there is nothing to download.
func (o *Orchestrator) Download(ctx context.Context) (*model.Export, error) {
	o.mu.Lock()
	if o.doc == nil || o.state.TranslatedText == nil {
		o.mu.Unlock()
		return nil, nil
	}
	name := o.doc.DownloadName()
	text := *o.state.TranslatedText
	gen := o.generation
	o.mu.Unlock()

	data, err := o.encoder.Encode(ctx, strings.Split(lineBreaks.Replace(text), "\n"))
	if err != nil {
		o.logger.Error().Err(err).Str("document", name).Msg("export failed")
		opErr := model.NewOperationError(model.KindDownloadFailed, model.MsgDownloadFailed, err)

		o.mu.Lock()
		if gen == o.generation {
			msg := opErr.Message
			o.state.Error = &msg
			o.state.ErrorKind = opErr.Kind
		}
		o.mu.Unlock()
		return nil, opErr
	}

	return &model.Export{
		FileName:    name,
		ContentType: model.DocxContentType,
		Data:        data,
	}, nil
}

// translationCall carries what a dispatched translation needs once the lock
// is released.
type translationCall struct {
	generation uint64
	text       string
	req        model.TranslationRequest
	translator driven.Translator
}

// begin validates preconditions and moves the session into Translating. A nil
// call with nil error means there is nothing to do.
func (o *Orchestrator) begin(req model.TranslationRequest) (*translationCall, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.doc == nil || o.state.OriginalText == nil {
		return nil, nil
	}
	if o.state.IsTranslating {
		return nil, model.NewOperationError(model.KindAlreadyTranslating, model.MsgAlreadyTranslating, nil)
	}

	factory, ok := o.translators.Lookup(req.Provider)
	if !ok {
		return nil, o.recordFailureLocked(model.ProviderNotImplemented(req.Provider))
	}

	translator, err := factory(req.Secret)
	if err != nil {
		return nil, o.recordFailureLocked(model.NewOperationError(model.KindAuthOrNetworkFailure,
			fmt.Sprintf("%s: %v", model.MsgTranslationFailed, err), err))
	}

	o.state.IsTranslating = true
	o.state.Progress = model.ProgressIdle
	o.state.Error = nil
	o.state.ErrorKind = ""
	o.state.DetectedLanguage = ""

	return &translationCall{
		generation: o.generation,
		text:       *o.state.OriginalText,
		req:        req,
		translator: translator,
	}, nil
}

func (o *Orchestrator) run(ctx context.Context, call *translationCall) error {
	log := o.logger.With().
		Str("document", o.documentName()).
		Str("provider", call.req.Provider).
		Str("source", call.req.SourceLanguage).
		Str("target", call.req.TargetLanguage).
		Logger()

	var detected string
	if call.req.SourceLanguage == model.AutoDetect && o.detector != nil {
		detected = o.detector.Detect(call.text)
	}

	if !o.update(call.generation, func(s *model.SessionState) {
		s.Progress = model.ProgressDispatched
		s.DetectedLanguage = detected
	}) {
		return nil
	}

	if o.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.timeout)
		defer cancel()
	}

	start := time.Now()
	translated, err := call.translator.Translate(ctx, model.Job{
		Text:           call.text,
		SourceLanguage: call.req.SourceLanguage,
		TargetLanguage: call.req.TargetLanguage,
	})
	if err == nil && strings.TrimSpace(translated) == "" {
		err = model.NewOperationError(model.KindEmptyTranslation, model.MsgEmptyTranslation, nil)
	}

	if err != nil {
		opErr := classifyTranslationError(err)
		log.Warn().Err(err).Dur("elapsed", time.Since(start)).Msg("translation failed")
		o.update(call.generation, func(s *model.SessionState) {
			msg := opErr.Message
			s.IsTranslating = false
			s.Progress = model.ProgressIdle
			s.Error = &msg
			s.ErrorKind = opErr.Kind
		})
		return opErr
	}

	applied := o.update(call.generation, func(s *model.SessionState) {
		s.IsTranslating = false
		s.Progress = model.ProgressComplete
		s.TranslatedText = &translated
		s.Error = nil
		s.ErrorKind = ""
	})
	if !applied {
		log.Info().Msg("discarding translation for replaced document")
		return nil
	}

	log.Info().Dur("elapsed", time.Since(start)).Int("chars", len(translated)).Msg("translation complete")
	return nil
}

// update applies fn to the state if the session is still on generation gen.
func (o *Orchestrator) update(gen uint64, fn func(*model.SessionState)) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	if gen != o.generation {
		return false
	}
	fn(&o.state)
	return true
}

func (o *Orchestrator) documentName() string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state.DocumentName
}

// fail records opErr as the session error without touching anything else.
func (o *Orchestrator) fail(opErr *model.OperationError) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	msg := opErr.Message
	o.state.Error = &msg
	o.state.ErrorKind = opErr.Kind
	return opErr
}

func (o *Orchestrator) recordFailureLocked(opErr *model.OperationError) error {
	msg := opErr.Message
	o.state.Error = &msg
	o.state.ErrorKind = opErr.Kind
	o.state.IsTranslating = false
	o.state.Progress = model.ProgressIdle
	return opErr
}

// classifyTranslationError maps a translator error onto an OperationError.
// Errors already classified by the adapter pass through.
func classifyTranslationError(err error) *model.OperationError {
	var opErr *model.OperationError
	if errors.As(err, &opErr) {
		return opErr
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return model.NewOperationError(model.KindAuthOrNetworkFailure,
			model.MsgTranslationFailed+": request timed out", err)
	}
	return model.NewOperationError(model.KindAuthOrNetworkFailure,
		fmt.Sprintf("%s: %v", model.MsgTranslationFailed, err), err)
}
