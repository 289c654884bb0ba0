package jobs

import (
	"errors"
	"net/http"
)

// Domain errors for job operations.
var (
	ErrNotFound   = errors.New("job not found")
	ErrDuplicate  = errors.New("job already exists")
	ErrNotRunning = errors.New("job is not running")
	ErrTerminal   = errors.New("job already reached a terminal state")
)

// MapHTTPStatus maps job domain errors to appropriate HTTP status codes.
func MapHTTPStatus(err error) int {
	if errors.Is(err, ErrNotFound) {
		return http.StatusNotFound
	}
	if errors.Is(err, ErrDuplicate) {
		return http.StatusConflict
	}
	if errors.Is(err, ErrNotRunning) || errors.Is(err, ErrTerminal) {
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}
