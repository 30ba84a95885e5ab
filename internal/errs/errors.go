package errs

import (
	"errors"
	"fmt"
	"strings"
)

// Kind classifies pipeline failures. Provider and Content are retryable
// inside chunk translation; Config is fatal and never retried.
type Kind int

const (
	KindUnknown Kind = iota
	KindConfig
	KindContent
	KindProcessing
	KindProvider
	KindTranslation
	KindAlreadyExists
	KindNotFound
	KindValidation
)

func (k Kind) String() string {
	switch k {
	case KindConfig:
		return "CONFIG_ERROR"
	case KindContent:
		return "CONTENT_ERROR"
	case KindProcessing:
		return "PROCESSING_ERROR"
	case KindProvider:
		return "PROVIDER_ERROR"
	case KindTranslation:
		return "TRANSLATION_ERROR"
	case KindAlreadyExists:
		return "ALREADY_EXISTS"
	case KindNotFound:
		return "NOT_FOUND"
	case KindValidation:
		return "VALIDATION_ERROR"
	default:
		return "UNKNOWN"
	}
}

type Error struct {
	Kind    Kind
	Message string
	Context map[string]any
	Cause   error
}

func New(kind Kind, message string) *Error {
	return &Error{
		Kind:    kind,
		Message: message,
		Context: make(map[string]any),
	}
}

func Wrap(err error, kind Kind, message string) *Error {
	return &Error{
		Kind:    kind,
		Message: message,
		Context: make(map[string]any),
		Cause:   err,
	}
}

func (e *Error) Error() string {
	var parts []string
	parts = append(parts, fmt.Sprintf("[%s] %s", e.Kind.String(), e.Message))

	if len(e.Context) > 0 {
		var ctxParts []string
		for k, v := range e.Context {
			ctxParts = append(ctxParts, fmt.Sprintf("%s=%v", k, v))
		}
		parts = append(parts, fmt.Sprintf("context: %s", strings.Join(ctxParts, ", ")))
	}

	if e.Cause != nil {
		parts = append(parts, fmt.Sprintf("cause: %v", e.Cause))
	}

	return strings.Join(parts, " | ")
}

func (e *Error) Unwrap() error {
	return e.Cause
}

func (e *Error) WithContext(key string, value any) *Error {
	e.Context[key] = value
	return e
}

// IsKind reports whether err (or anything it wraps) carries the given kind.
func IsKind(err error, kind Kind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == kind
	}
	return false
}

// KindOf returns the kind of err, or KindUnknown for untyped errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// Retryable reports whether the error is worth another attempt during chunk
// translation: transient provider failures and malformed model output.
func Retryable(err error) bool {
	switch KindOf(err) {
	case KindProvider, KindContent:
		return true
	default:
		return false
	}
}
