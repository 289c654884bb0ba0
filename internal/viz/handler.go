package viz

import (
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/scriven-ai/scriven/pkg/handlers"
	"github.com/scriven-ai/scriven/pkg/routes"
)

// Handler provides HTTP endpoints for visualization records.
type Handler struct {
	sys    System
	logger *slog.Logger
}

// NewHandler creates a Handler with the given system and logger.
func NewHandler(sys System, logger *slog.Logger) *Handler {
	return &Handler{
		sys:    sys,
		logger: logger.With("handler", "viz"),
	}
}

// Routes returns the route group definition for visualization endpoints.
// The listing hangs off the jobs prefix: visualizations belong to a job.
func (h *Handler) Routes() routes.Group {
	return routes.Group{
		Prefix: "/jobs",
		Routes: []routes.Route{
			{Method: "GET", Pattern: "/{id}/visualizations", Handler: h.ListByJob},
		},
	}
}

// ListByJob returns the visualization records generated for a job.
func (h *Handler) ListByJob(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, ErrNotFound)
		return
	}

	items, err := h.sys.ListByJob(r.Context(), id)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, items)
}
