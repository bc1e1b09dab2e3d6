package model

import (
	"errors"
	"fmt"
)

// ErrorKind classifies failures surfaced on a session.
type ErrorKind string

// Error kinds.
const (
	KindUnsupportedFormat      ErrorKind = "unsupported_format"
	KindFileTooLarge           ErrorKind = "file_too_large"
	KindExtractionFailed       ErrorKind = "extraction_failed"
	KindProviderNotImplemented ErrorKind = "provider_not_implemented"
	KindAuthOrNetworkFailure   ErrorKind = "auth_or_network_failure"
	KindEmptyTranslation       ErrorKind = "empty_translation"
	KindDownloadFailed         ErrorKind = "download_failed"
	KindAlreadyTranslating     ErrorKind = "already_translating"
)

// Sentinel errors, one per kind. Match them with errors.Is.
var (
	ErrUnsupportedFormat      = errors.New("unsupported format")
	ErrFileTooLarge           = errors.New("file too large")
	ErrExtractionFailed       = errors.New("extraction failed")
	ErrProviderNotImplemented = errors.New("provider not implemented")
	ErrAuthOrNetworkFailure   = errors.New("auth or network failure")
	ErrEmptyTranslation       = errors.New("empty translation")
	ErrDownloadFailed         = errors.New("download failed")
	ErrAlreadyTranslating     = errors.New("already translating")
)

var kindSentinels = map[ErrorKind]error{
	KindUnsupportedFormat:      ErrUnsupportedFormat,
	KindFileTooLarge:           ErrFileTooLarge,
	KindExtractionFailed:       ErrExtractionFailed,
	KindProviderNotImplemented: ErrProviderNotImplemented,
	KindAuthOrNetworkFailure:   ErrAuthOrNetworkFailure,
	KindEmptyTranslation:       ErrEmptyTranslation,
	KindDownloadFailed:         ErrDownloadFailed,
	KindAlreadyTranslating:     ErrAlreadyTranslating,
}

// User-facing messages.
const (
	MsgUnsupportedFormat  = "Only DOC and DOCX files are supported"
	MsgFileTooLarge       = "File size must be less than 10MB"
	MsgReadFailed         = "Failed to read file"
	MsgTranslationFailed  = "Translation failed"
	MsgEmptyTranslation   = "No translation received"
	MsgDownloadFailed     = "Failed to download translated file"
	MsgAlreadyTranslating = "A translation is already in progress"
)

// OperationError is a classified failure with the message shown to the user.
type OperationError struct {
	Kind    ErrorKind
	Message string
	Err     error
}

// NewOperationError builds an OperationError. err may be nil.
func NewOperationError(kind ErrorKind, message string, err error) *OperationError {
	return &OperationError{Kind: kind, Message: message, Err: err}
}

// Error returns the user-facing message.
func (e *OperationError) Error() string {
	return e.Message
}

// Unwrap exposes both the kind sentinel and the underlying cause.
func (e *OperationError) Unwrap() []error {
	errs := make([]error, 0, 2)
	if s, ok := kindSentinels[e.Kind]; ok {
		errs = append(errs, s)
	}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}

// ProviderNotImplemented returns the error for a provider without an integration.
func ProviderNotImplemented(provider string) *OperationError {
	return NewOperationError(KindProviderNotImplemented,
		fmt.Sprintf("%s integration is not implemented yet", provider), nil)
}

// KindOf returns the kind of err, or "" when err is not an OperationError.
func KindOf(err error) ErrorKind {
	var opErr *OperationError
	if errors.As(err, &opErr) {
		return opErr.Kind
	}
	return ""
}
