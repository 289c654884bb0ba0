package agents

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/scriven-ai/scriven/pkg/handlers"
	"github.com/scriven-ai/scriven/pkg/routes"
)

// Handler provides HTTP endpoints for agent profiles and classification.
type Handler struct {
	logger *slog.Logger
}

// ClassifyRequest carries the text used for domain routing.
type ClassifyRequest struct {
	Title    string `json:"title"`
	Abstract string `json:"abstract"`
}

// NewHandler creates a Handler with the given logger.
func NewHandler(logger *slog.Logger) *Handler {
	return &Handler{logger: logger.With("handler", "agents")}
}

// Routes returns the route group definition for agent endpoints.
func (h *Handler) Routes() routes.Group {
	return routes.Group{
		Prefix: "/agents",
		Routes: []routes.Route{
			{Method: "GET", Pattern: "", Handler: h.List},
			{Method: "GET", Pattern: "/{name}", Handler: h.Find},
			{Method: "POST", Pattern: "/classify", Handler: h.Classify},
		},
	}
}

// List returns every registered agent profile.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	handlers.RespondJSON(w, http.StatusOK, All())
}

// Find returns a single agent profile by name.
func (h *Handler) Find(w http.ResponseWriter, r *http.Request) {
	agent, err := ByName(r.PathValue("name"))
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, agent)
}

// Classify routes a title and abstract to a domain without starting analysis.
func (h *Handler) Classify(w http.ResponseWriter, r *http.Request) {
	var req ClassifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, Classify(req.Title, req.Abstract))
}
