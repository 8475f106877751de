package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrFetch      = errors.New("fetch error")
	ErrDecode     = errors.New("decode error")
	ErrTransform  = errors.New("transform error")
	ErrCanceled   = errors.New("canceled")
	ErrCatalog    = errors.New("catalog unavailable")
	ErrValidation = errors.New("validation error")
)

// Kind names the failure class of an error produced by Wrap.
type Kind string

const (
	KindFetch      Kind = "fetch"
	KindDecode     Kind = "decode"
	KindTransform  Kind = "transform"
	KindCanceled   Kind = "canceled"
	KindCatalog    Kind = "catalog"
	KindValidation Kind = "validation"
	KindUnknown    Kind = "unknown"
)

// ErrorDetails is the structured view of an error for logging.
type ErrorDetails struct {
	Kind      Kind
	Stage     string
	Operation string
	Message   string
	Cause     error
}

type wrappedError struct {
	marker    error
	stage     string
	operation string
	message   string
	cause     error
}

func (e *wrappedError) Error() string {
	detail := buildDetail(e.stage, e.operation, e.message)
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %s", e.marker, detail, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.marker, detail)
}

func (e *wrappedError) Unwrap() []error {
	if e.cause == nil {
		return []error{e.marker}
	}
	return []error{e.marker, e.cause}
}

// Wrap builds an error message that includes stage context while tagging it with
// the provided marker for later classification. The marker should be one of the
// exported sentinel errors above.
func Wrap(marker error, stage, operation, message string, err error) error {
	if marker == nil {
		marker = ErrFetch
	}
	return &wrappedError{
		marker:    marker,
		stage:     strings.TrimSpace(stage),
		operation: strings.TrimSpace(operation),
		message:   strings.TrimSpace(message),
		cause:     err,
	}
}

// Details extracts the structured fields of err. Errors not produced by Wrap
// report KindUnknown with the error text as message.
func Details(err error) ErrorDetails {
	if err == nil {
		return ErrorDetails{}
	}
	details := ErrorDetails{Kind: KindOf(err), Message: err.Error()}
	var wrapped *wrappedError
	if errors.As(err, &wrapped) {
		details.Stage = wrapped.stage
		details.Operation = wrapped.operation
		details.Message = wrapped.message
		details.Cause = wrapped.cause
	}
	return details
}

// KindOf maps err onto its marker class.
func KindOf(err error) Kind {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrCanceled):
		return KindCanceled
	case errors.Is(err, ErrFetch):
		return KindFetch
	case errors.Is(err, ErrDecode):
		return KindDecode
	case errors.Is(err, ErrTransform):
		return KindTransform
	case errors.Is(err, ErrCatalog):
		return KindCatalog
	case errors.Is(err, ErrValidation):
		return KindValidation
	default:
		return KindUnknown
	}
}

// IsTerminal reports whether err should move an item into its terminal failure
// state. Only fetch and decode failures qualify; transform failures are absorbed.
func IsTerminal(err error) bool {
	switch KindOf(err) {
	case KindFetch, KindDecode:
		return true
	default:
		return false
	}
}

func buildDetail(stage, operation, message string) string {
	parts := make([]string, 0, 3)
	if stage != "" {
		parts = append(parts, stage)
	}
	if operation != "" {
		parts = append(parts, operation)
	}
	if message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
