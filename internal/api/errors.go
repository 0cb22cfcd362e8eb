package api

import (
	"errors"
	"net/http"

	"github.com/finboard/fundsync/internal/store"
	"github.com/finboard/fundsync/internal/task"
)

// MapErrorToStatusCode maps internal errors to appropriate HTTP status codes
// based on the error type. This prevents leaking internal error types or
// messages to clients.
func MapErrorToStatusCode(err error) int {
	switch {
	// Not found errors
	case errors.Is(err, task.ErrTaskNotFound),
		errors.Is(err, store.ErrTaskNotFound),
		errors.Is(err, store.ErrFundNotFound):
		return http.StatusNotFound

	// Bad request errors
	case errors.Is(err, task.ErrUnknownType),
		task.IsValidationError(err),
		task.IsParamError(err),
		errors.Is(err, store.ErrInvalidEntity):
		return http.StatusBadRequest

	// Conflict errors
	case errors.Is(err, store.ErrTaskExists),
		errors.Is(err, store.ErrDuplicate):
		return http.StatusConflict

	// Default: internal server error
	default:
		return http.StatusInternalServerError
	}
}

// GetSafeErrorMessage returns a sanitized, user-friendly error message based
// on the error type. Validation failures surface their own message since it
// names the offending parameter; everything else gets a generic message.
func GetSafeErrorMessage(err error) string {
	if err == nil {
		return "An unexpected error occurred"
	}

	switch {
	case errors.Is(err, task.ErrUnknownType):
		return "Unknown task type"

	case task.IsValidationError(err), task.IsParamError(err):
		return err.Error()

	case errors.Is(err, task.ErrTaskNotFound), errors.Is(err, store.ErrTaskNotFound):
		return "Task not found"

	case errors.Is(err, store.ErrFundNotFound):
		return "Fund not found"

	case errors.Is(err, store.ErrTaskExists):
		return "Task already exists"

	case errors.Is(err, store.ErrInvalidEntity):
		return "Invalid entity data"

	default:
		return "An unexpected error occurred"
	}
}
