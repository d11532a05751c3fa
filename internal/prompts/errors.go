package prompts

import (
	"errors"
	"net/http"
)

// Domain errors for prompt operations.
var (
	ErrNotFound      = errors.New("prompt not found")
	ErrDuplicate     = errors.New("prompt version already exists")
	ErrValidation    = errors.New("invalid prompt")
	ErrInvalidType   = errors.New("prompt_type must be system, user, assistant, template, or function")
	ErrInvalidStatus = errors.New("status must be draft, active, archived, or deprecated")
)

// MapHTTPStatus maps prompt domain errors to appropriate HTTP status codes.
func MapHTTPStatus(err error) int {
	if errors.Is(err, ErrNotFound) {
		return http.StatusNotFound
	}
	if errors.Is(err, ErrDuplicate) {
		return http.StatusConflict
	}
	if errors.Is(err, ErrValidation) ||
		errors.Is(err, ErrInvalidType) ||
		errors.Is(err, ErrInvalidStatus) {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}
