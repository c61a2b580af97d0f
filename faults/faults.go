package faults

import (
	"errors"
	"fmt"
)

// Kind is a machine-readable error category.
type Kind string

const (
	// ValidationRejected indicates a statement failed the read-only check.
	ValidationRejected Kind = "validation_rejected"
	// ExecutionError indicates a database-level failure, including timeout.
	ExecutionError Kind = "execution_error"
	// SandboxError indicates a code-execution failure or resource-limit breach.
	SandboxError Kind = "sandbox_error"
	// EncodingOverflow indicates a result could not be compacted within limits.
	EncodingOverflow Kind = "encoding_overflow"
)

// E wraps an error with a kind and a caller-safe message.
type E struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *E) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *E) Unwrap() error { return e.Err }

// Public returns the caller-facing rendering of the error: kind and message
// only, never the wrapped cause.
func (e *E) Public() string { return fmt.Sprintf("%s: %s", e.Kind, e.Message) }

func New(kind Kind, msg string) *E             { return &E{Kind: kind, Message: msg} }
func Newf(kind Kind, format string, args ...any) *E {
	return &E{Kind: kind, Message: fmt.Sprintf(format, args...)}
}
func Wrap(kind Kind, msg string, err error) *E { return &E{Kind: kind, Message: msg, Err: err} }

// KindOf reports the kind of err, or the empty Kind if err carries none.
func KindOf(err error) Kind {
	var e *E
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}
