package common

import (
	"errors"
	"fmt"
)

// AppError represents application-specific errors
type AppError struct {
	Code    string
	Message string
	Cause   error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// Pipeline failure taxonomy. The orchestrator translates each of these into
// a failed book status before handing the error back to the queue; the queue
// treats them all the same for retry accounting.
var (
	// ErrUnsupportedFormat: the declared media type has no extraction strategy.
	ErrUnsupportedFormat = errors.New("unsupported file format")
	// ErrCorruptInput: a supported format failed to decode; wraps the cause.
	ErrCorruptInput = errors.New("corrupt input")
	// ErrEmptyOrTooShort: extraction yielded no usable text.
	ErrEmptyOrTooShort = errors.New("extracted text is too short or empty")
	// ErrStorage: persistence of pages or status failed.
	ErrStorage = errors.New("storage failure")
)

// Read-path and service errors.
var (
	ErrNotFound        = errors.New("resource not found")
	ErrInvalidInput    = errors.New("invalid input")
	ErrStillProcessing = errors.New("book is still being processed")
)

// Error constructors
func NewAppError(code, message string, cause error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

func WrapError(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// CorruptInput wraps a decoder error so callers can both match
// ErrCorruptInput and inspect the underlying cause.
func CorruptInput(cause error) error {
	return fmt.Errorf("%w: %w", ErrCorruptInput, cause)
}
