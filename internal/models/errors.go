package models

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidInput reports a source image that is missing, unreadable or empty.
	ErrInvalidInput = errors.New("invalid input")

	// ErrInvalidParameter reports a parameter value outside its declared range.
	ErrInvalidParameter = errors.New("invalid parameter")

	// ErrExportFailure reports that an image could not be written to disk.
	ErrExportFailure = errors.New("export failed")

	// ErrGalleryExhausted is returned by Gallery.Advance when the cursor is
	// already on the last stage. It is a terminal signal, not a failure.
	ErrGalleryExhausted = errors.New("no more stages")
)

// ValidationError describes a rejected parameter value
type ValidationError struct {
	Parameter string
	Value     interface{}
	Message   string
}

// NewValidationError creates a new validation error
func NewValidationError(parameter string, value interface{}, message string) *ValidationError {
	return &ValidationError{
		Parameter: parameter,
		Value:     value,
		Message:   message,
	}
}

// Error returns the error message
func (ve *ValidationError) Error() string {
	return fmt.Sprintf("validation failed for parameter '%s' with value '%v': %s",
		ve.Parameter, ve.Value, ve.Message)
}

func (ve *ValidationError) Unwrap() error {
	return ErrInvalidParameter
}
