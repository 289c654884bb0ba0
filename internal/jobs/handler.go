package jobs

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/scriven-ai/scriven/pkg/handlers"
	"github.com/scriven-ai/scriven/pkg/pagination"
	"github.com/scriven-ai/scriven/pkg/routes"
)

// Handler provides HTTP endpoints for job operations.
type Handler struct {
	sys        System
	runner     Runner
	logger     *slog.Logger
	pagination pagination.Config
}

// StartRequest optionally overrides the automatic domain classification.
// When Agent is empty the orchestrator resolves the agent itself.
type StartRequest struct {
	Agent  string `json:"agent,omitempty"`
	Domain string `json:"domain,omitempty"`
}

// NewHandler creates a Handler with the given system, runner, logger, and
// pagination config.
func NewHandler(
	sys System,
	runner Runner,
	logger *slog.Logger,
	pagination pagination.Config,
) *Handler {
	return &Handler{
		sys:        sys,
		runner:     runner,
		logger:     logger.With("handler", "jobs"),
		pagination: pagination,
	}
}

// Routes returns the route group definition for job endpoints.
func (h *Handler) Routes() routes.Group {
	return routes.Group{
		Prefix: "/jobs",
		Routes: []routes.Route{
			{Method: "GET", Pattern: "", Handler: h.List},
			{Method: "GET", Pattern: "/{id}", Handler: h.Status},
			{Method: "POST", Pattern: "/{paperId}", Handler: h.Start},
			{Method: "POST", Pattern: "/{id}/cancel", Handler: h.Cancel},
		},
	}
}

// List returns a paginated list of jobs with optional query parameter filters.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	page := pagination.FromQuery(r.URL.Query(), h.pagination)
	filters := FiltersFromQuery(r.URL.Query())

	result, err := h.sys.List(r.Context(), page, filters)
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusInternalServerError, err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, result)
}

// Status returns the persisted state snapshot for a job, including phase
// records and derived progress.
func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, ErrNotFound)
		return
	}

	job, err := h.sys.Find(r.Context(), id)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, NewSnapshot(job))
}

// Start creates a job for a paper and hands it to the pipeline runner.
// Responds 202: the job runs in the background and is polled via Status.
func (h *Handler) Start(w http.ResponseWriter, r *http.Request) {
	paperID, err := uuid.Parse(r.PathValue("paperId"))
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
		return
	}

	var req StartRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
		return
	}

	job, err := h.sys.Create(r.Context(), paperID, req.Agent, req.Domain)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	if err := h.runner.Start(r.Context(), job); err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusAccepted, NewSnapshot(job))
}

// Cancel requests cooperative cancellation. The currently running phase
// finishes; no later phase starts.
func (h *Handler) Cancel(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, ErrNotFound)
		return
	}

	if err := h.runner.Cancel(id); err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusAccepted, map[string]string{
		"status": "cancellation requested",
	})
}
