package viz

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/scriven-ai/scriven/pkg/repository"
)

const vizColumns = `id, job_id, paper_id, render_kind, title, spec,
	storage_key, status, error_message, created_at`

type repo struct {
	db     *sql.DB
	logger *slog.Logger
}

// New creates a visualization repository implementing the System interface.
func New(db *sql.DB, logger *slog.Logger) System {
	return &repo{
		db:     db,
		logger: logger.With("system", "viz"),
	}
}

func (r *repo) Handler() *Handler {
	return NewHandler(r, r.logger)
}

func (r *repo) Create(ctx context.Context, jobID, paperID uuid.UUID, target Target) (*Visualization, error) {
	spec, err := json.Marshal(target)
	if err != nil {
		return nil, fmt.Errorf("marshal target spec: %w", err)
	}

	q := `
		INSERT INTO visualizations (job_id, paper_id, render_kind, title, spec, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING ` + vizColumns

	v, err := repository.QueryOne(ctx, r.db, q,
		[]any{jobID, paperID, target.RenderKind, target.Title, spec, StatusPending},
		scanVisualization)
	if err != nil {
		return nil, fmt.Errorf("insert visualization: %w", err)
	}

	return &v, nil
}

func (r *repo) MarkCompleted(ctx context.Context, id uuid.UUID, storageKey string) error {
	err := repository.ExecExpectOne(ctx, r.db, `
		UPDATE visualizations
		SET status = $1, storage_key = $2, error_message = NULL
		WHERE id = $3`,
		StatusCompleted, storageKey, id)
	if err != nil {
		return fmt.Errorf("complete visualization %s: %w", id, repository.MapError(err, ErrNotFound, ErrNotFound))
	}
	return nil
}

func (r *repo) MarkError(ctx context.Context, id uuid.UUID, message string) error {
	err := repository.ExecExpectOne(ctx, r.db, `
		UPDATE visualizations
		SET status = $1, error_message = $2
		WHERE id = $3`,
		StatusError, message, id)
	if err != nil {
		return fmt.Errorf("fail visualization %s: %w", id, repository.MapError(err, ErrNotFound, ErrNotFound))
	}
	return nil
}

func (r *repo) ListByJob(ctx context.Context, jobID uuid.UUID) ([]Visualization, error) {
	q := `SELECT ` + vizColumns + ` FROM visualizations
		WHERE job_id = $1 ORDER BY created_at`

	items, err := repository.QueryMany(ctx, r.db, q, []any{jobID}, scanVisualization)
	if err != nil {
		return nil, fmt.Errorf("query visualizations for job %s: %w", jobID, err)
	}
	return items, nil
}

func scanVisualization(s repository.Scanner) (Visualization, error) {
	var v Visualization
	err := s.Scan(
		&v.ID,
		&v.JobID,
		&v.PaperID,
		&v.RenderKind,
		&v.Title,
		&v.Spec,
		&v.StorageKey,
		&v.Status,
		&v.ErrorMessage,
		&v.CreatedAt,
	)
	return v, err
}
