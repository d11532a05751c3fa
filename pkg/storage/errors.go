package storage

import (
	"errors"
	"net/http"
)

// MaxKeyLength is the longest blob name the service accepts.
const MaxKeyLength = 1024

var (
	ErrNotFound = errors.New("blob not found")
	ErrEmptyKey = errors.New("storage key must not be empty")
	// ErrInvalidKey covers traversal and empty segments, a leading slash, and backslashes.
	ErrInvalidKey        = errors.New("storage key contains invalid path segment")
	ErrKeyTooLong        = errors.New("storage key exceeds 1024 characters")
	ErrInvalidMaxResults = errors.New("max_results must be a positive integer")
)

// MapHTTPStatus maps storage errors to HTTP status codes.
func MapHTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrEmptyKey),
		errors.Is(err, ErrInvalidKey),
		errors.Is(err, ErrKeyTooLong),
		errors.Is(err, ErrInvalidMaxResults):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
