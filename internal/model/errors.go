package model

import "errors"

// ErrorKind classifies generation failures. Every remote-call failure is
// converted to one of these kinds at the component boundary; nothing
// propagates past it as a raw provider fault.
type ErrorKind string

const (
	// KindEmptyResult: the call succeeded but returned no usable payload.
	// Fatal to the single operation, never retried automatically.
	KindEmptyResult ErrorKind = "empty_result"
	// KindPermissionDenied: the provider rejected the active credential.
	// Routed to credential reselection rather than a plain retry.
	KindPermissionDenied ErrorKind = "permission_denied"
	// KindParseFailure: structured output was malformed or schema-mismatched.
	KindParseFailure ErrorKind = "parse_failure"
	// KindPartialBatch: one or more concurrent renders failed while siblings
	// succeeded; the batch is reported as succeeded-with-fewer-items.
	KindPartialBatch ErrorKind = "partial_batch"
	// KindOperationIncomplete: a polled long-running job has not finished.
	// Not a terminal error; drives continued polling.
	KindOperationIncomplete ErrorKind = "operation_incomplete"
	// KindVideoFailed: a completed video operation produced no video.
	KindVideoFailed ErrorKind = "video_failed"
)

// GenerationError is a classified failure with a human-readable message.
type GenerationError struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *GenerationError) Error() string {
	if e.Err != nil {
		return string(e.Kind) + ": " + e.Message + ": " + e.Err.Error()
	}
	return string(e.Kind) + ": " + e.Message
}

func (e *GenerationError) Unwrap() error {
	return e.Err
}

// NewGenerationError creates a classified error.
func NewGenerationError(kind ErrorKind, message string) *GenerationError {
	return &GenerationError{Kind: kind, Message: message}
}

// WrapGenerationError classifies an underlying error.
func WrapGenerationError(kind ErrorKind, message string, err error) *GenerationError {
	return &GenerationError{Kind: kind, Message: message, Err: err}
}

// IsKind reports whether err (or anything it wraps) is a GenerationError of
// the given kind.
func IsKind(err error, kind ErrorKind) bool {
	var ge *GenerationError
	if errors.As(err, &ge) {
		return ge.Kind == kind
	}
	return false
}

// KindOf returns the classification of err, or "" when err is not a
// GenerationError.
func KindOf(err error) ErrorKind {
	var ge *GenerationError
	if errors.As(err, &ge) {
		return ge.Kind
	}
	return ""
}
