package transfer

import (
	"errors"
	"net/http"

	"github.com/JaimeStill/prombank/internal/prompts"
)

// Domain errors for import and export operations.
var (
	ErrInvalidFormat   = errors.New("unsupported format")
	ErrValidation      = errors.New("invalid transfer request")
	ErrStorageDisabled = errors.New("export archive storage is not enabled")
)

// MapHTTPStatus maps transfer domain errors to appropriate HTTP status codes.
func MapHTTPStatus(err error) int {
	if errors.Is(err, ErrInvalidFormat) || errors.Is(err, ErrValidation) {
		return http.StatusBadRequest
	}
	if errors.Is(err, ErrStorageDisabled) {
		return http.StatusServiceUnavailable
	}
	return prompts.MapHTTPStatus(err)
}
