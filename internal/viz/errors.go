package viz

import (
	"errors"
	"net/http"
)

// Domain errors for visualization operations.
var (
	ErrNotFound = errors.New("visualization not found")
)

// MapHTTPStatus maps visualization domain errors to HTTP status codes.
func MapHTTPStatus(err error) int {
	if errors.Is(err, ErrNotFound) {
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}
