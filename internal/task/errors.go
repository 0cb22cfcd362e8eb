package task

import (
	"errors"
	"fmt"
)

// Common errors returned by the task subsystem
var (
	// ErrUnknownType is returned when a task type name is not registered.
	ErrUnknownType = errors.New("unknown task type")

	// ErrTaskNotFound is returned by manager queries for ids with no record.
	ErrTaskNotFound = errors.New("task not found")
)

// ValidationError indicates the caller-supplied parameters failed the
// registry's shallow validation. No record is created when it is returned.
type ValidationError struct {
	Message string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return "parameter validation failed: " + e.Message
}

// NewValidationError creates a ValidationError with the given message.
func NewValidationError(format string, args ...any) *ValidationError {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// IsValidationError reports whether err is a *ValidationError.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// ParamError indicates a parameter value that passed shallow validation but
// turned out to be unusable during execution (e.g. a fund code the provider
// does not resolve). It distinguishes user-addressable failures from
// infrastructure failures; the execution wrapper records both the same way
// but callers can tell them apart from the recorded error text.
type ParamError struct {
	Key     string
	Message string
}

// Error implements the error interface.
func (e *ParamError) Error() string {
	if e.Key == "" {
		return "invalid parameter: " + e.Message
	}
	return fmt.Sprintf("invalid parameter %q: %s", e.Key, e.Message)
}

// NewParamError creates a ParamError for the given parameter key.
func NewParamError(key, message string) *ParamError {
	return &ParamError{Key: key, Message: message}
}

// IsParamError reports whether err is a *ParamError.
func IsParamError(err error) bool {
	var pe *ParamError
	return errors.As(err, &pe)
}
