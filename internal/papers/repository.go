package papers

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/scriven-ai/scriven/pkg/pagination"
	"github.com/scriven-ai/scriven/pkg/repository"
)

type repo struct {
	db         *sql.DB
	logger     *slog.Logger
	pagination pagination.Config
}

// New creates a paper repository implementing the System interface.
func New(db *sql.DB, logger *slog.Logger, pagination pagination.Config) System {
	return &repo{
		db:         db,
		logger:     logger.With("system", "papers"),
		pagination: pagination,
	}
}

func (r *repo) Handler() *Handler {
	return NewHandler(r, r.logger, r.pagination)
}

func (r *repo) List(
	ctx context.Context,
	page pagination.PageRequest,
	filters Filters,
) (*pagination.PageResult[Paper], error) {
	page.Normalize(r.pagination)

	where, args := filters.where()

	countQ := `SELECT COUNT(*) FROM papers` + where
	var total int
	if err := r.db.QueryRowContext(ctx, countQ, args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("count papers: %w", err)
	}

	pageQ := `SELECT ` + paperColumns + ` FROM papers` + where +
		` ORDER BY registered_at DESC` +
		` LIMIT $` + strconv.Itoa(len(args)+1) +
		` OFFSET $` + strconv.Itoa(len(args)+2)
	args = append(args, page.PageSize, page.Offset())

	items, err := repository.QueryMany(ctx, r.db, pageQ, args, scanPaper)
	if err != nil {
		return nil, fmt.Errorf("query papers: %w", err)
	}

	result := pagination.NewPageResult(items, total, page.Page, page.PageSize)
	return &result, nil
}

func (r *repo) Find(ctx context.Context, id uuid.UUID) (*Paper, error) {
	q := `SELECT ` + paperColumns + ` FROM papers WHERE id = $1`

	paper, err := repository.QueryOne(ctx, r.db, q, []any{id}, scanPaper)
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}

	return &paper, nil
}

func (r *repo) Create(ctx context.Context, cmd CreateCommand) (*Paper, error) {
	if strings.TrimSpace(cmd.Title) == "" {
		return nil, ErrMissingTitle
	}

	sections, err := json.Marshal(normalizeSections(cmd.Sections))
	if err != nil {
		return nil, fmt.Errorf("marshal sections: %w", err)
	}
	figures, err := json.Marshal(cmd.Figures)
	if err != nil {
		return nil, fmt.Errorf("marshal figures: %w", err)
	}

	q := `
		INSERT INTO papers (title, filename, source, status, sections, figures)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING ` + paperColumns

	paper, err := repository.QueryOne(ctx, r.db, q,
		[]any{cmd.Title, cmd.Filename, cmd.Source, StatusRegistered, sections, figures},
		scanPaper)
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}

	r.logger.Info("paper registered",
		"id", paper.ID,
		"title", paper.Title,
		"sections", len(paper.Sections),
		"figures", len(paper.Figures),
	)
	return &paper, nil
}

func (r *repo) Delete(ctx context.Context, id uuid.UUID) error {
	err := repository.ExecExpectOne(ctx, r.db,
		`DELETE FROM papers WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete paper %s: %w", id, repository.MapError(err, ErrNotFound, ErrDuplicate))
	}

	r.logger.Info("paper deleted", "id", id)
	return nil
}

// SetStatus updates the analysis status. Terminal statuses stamp
// analyzed_at; moving back to analyzing clears it so a re-run reads
// cleanly.
func (r *repo) SetStatus(ctx context.Context, id uuid.UUID, status Status) error {
	if !status.valid() {
		return fmt.Errorf("set paper %s status: unknown status %q", id, status)
	}

	q := `UPDATE papers SET status = $1, analyzed_at = NULL WHERE id = $2`
	if status == StatusCompleted || status == StatusError || status == StatusCancelled {
		q = `UPDATE papers SET status = $1, analyzed_at = NOW() WHERE id = $2`
	}

	err := repository.ExecExpectOne(ctx, r.db, q, status, id)
	if err != nil {
		return fmt.Errorf("set paper %s status: %w", id, repository.MapError(err, ErrNotFound, ErrDuplicate))
	}
	return nil
}

// normalizeSections lowercases section names so phase input lookup does
// not depend on extractor casing.
func normalizeSections(sections map[string]string) map[string]string {
	if len(sections) == 0 {
		return map[string]string{}
	}

	out := make(map[string]string, len(sections))
	for name, text := range sections {
		out[strings.ToLower(strings.TrimSpace(name))] = text
	}
	return out
}
