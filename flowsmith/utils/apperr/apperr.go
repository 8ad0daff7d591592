// Package apperr defines the error kinds surfaced by the workflow pipeline
// and their mapping onto HTTP responses.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorType is the machine readable tag returned to clients as error_type.
type ErrorType string

const (
	TypeConfiguration         ErrorType = "CONFIGURATION"
	TypeGenerationUnavailable ErrorType = "GENERATION_UNAVAILABLE"
	TypeGenerationFailed      ErrorType = "GENERATION_FAILED"
	TypeNoArtifactRecovered   ErrorType = "NO_ARTIFACT_RECOVERED"
	TypePersistenceFailed     ErrorType = "PERSISTENCE_FAILED"
	TypeValidation            ErrorType = "VALIDATION"
	TypeNotFound              ErrorType = "NOT_FOUND"
	TypeInternal              ErrorType = "INTERNAL"
)

// Sentinel kinds. Match with errors.Is.
var (
	ErrNotConfigured         = errors.New("generation provider not configured")
	ErrGenerationUnavailable = errors.New("generation unavailable")
	ErrGenerationFailed      = errors.New("generation failed")
	ErrNoArtifactRecovered   = errors.New("could not generate valid workflow JSON")
	ErrPersistenceFailed     = errors.New("persistence failed")
	ErrValidation            = errors.New("invalid request")
	ErrNotFound              = errors.New("not found")
)

// Error carries a kind, a human message and the underlying cause.
type Error struct {
	Kind    error
	Message string
	Cause   error
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = e.Kind.Error()
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	return msg
}

// Unwrap exposes both the kind and the cause so errors.Is matches either.
func (e *Error) Unwrap() []error {
	if e.Cause == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Cause}
}

// New builds an *Error of the given kind.
func New(kind error, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap builds an *Error of the given kind around cause.
// Wrapping an error that already carries kind returns it unchanged.
func Wrap(kind error, message string, cause error) error {
	if cause != nil && errors.Is(cause, kind) {
		return cause
	}
	return &Error{Kind: kind, Message: message, Cause: cause}
}

// Persistence wraps a store error.
func Persistence(op string, cause error) error {
	if cause == nil {
		return nil
	}
	return Wrap(ErrPersistenceFailed, op, cause)
}

// TypeOf reports the client facing error type for err.
func TypeOf(err error) ErrorType {
	switch {
	case errors.Is(err, ErrNotConfigured):
		return TypeConfiguration
	case errors.Is(err, ErrGenerationUnavailable):
		return TypeGenerationUnavailable
	case errors.Is(err, ErrGenerationFailed):
		return TypeGenerationFailed
	case errors.Is(err, ErrNoArtifactRecovered):
		return TypeNoArtifactRecovered
	case errors.Is(err, ErrPersistenceFailed):
		return TypePersistenceFailed
	case errors.Is(err, ErrValidation):
		return TypeValidation
	case errors.Is(err, ErrNotFound):
		return TypeNotFound
	default:
		return TypeInternal
	}
}

// Status maps err onto an HTTP status code. Pipeline failures are all 500s;
// clients tell them apart by error_type.
func Status(err error) int {
	switch TypeOf(err) {
	case TypeValidation:
		return http.StatusUnprocessableEntity
	case TypeNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
