package papers

import (
	"errors"
	"net/http"
)

// Domain errors for paper operations.
var (
	ErrNotFound     = errors.New("paper not found")
	ErrDuplicate    = errors.New("paper already exists")
	ErrMissingTitle = errors.New("paper title is required")
)

// MapHTTPStatus maps paper domain errors to appropriate HTTP status codes.
func MapHTTPStatus(err error) int {
	if errors.Is(err, ErrNotFound) {
		return http.StatusNotFound
	}
	if errors.Is(err, ErrDuplicate) {
		return http.StatusConflict
	}
	if errors.Is(err, ErrMissingTitle) {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}
