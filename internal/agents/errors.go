package agents

import (
	"errors"
	"net/http"
)

// ErrAgentNotFound indicates no profile exists for the requested name or domain.
var ErrAgentNotFound = errors.New("agent not found")

// MapHTTPStatus maps agent errors to appropriate HTTP status codes.
func MapHTTPStatus(err error) int {
	if errors.Is(err, ErrAgentNotFound) {
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}
