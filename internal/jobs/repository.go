package jobs

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/google/uuid"

	"github.com/scriven-ai/scriven/pkg/pagination"
	"github.com/scriven-ai/scriven/pkg/repository"
)

type repo struct {
	db         *sql.DB
	logger     *slog.Logger
	pagination pagination.Config
}

// New creates a job repository implementing the System interface.
func New(db *sql.DB, logger *slog.Logger, pagination pagination.Config) System {
	return &repo{
		db:         db,
		logger:     logger.With("system", "jobs"),
		pagination: pagination,
	}
}

func (r *repo) Handler(runner Runner) *Handler {
	return NewHandler(r, runner, r.logger, r.pagination)
}

// Create inserts the job record plus one pending phase row per kind, all in
// one transaction so a job can never exist with a partial phase list.
func (r *repo) Create(ctx context.Context, paperID uuid.UUID, agentName, domain string) (*Job, error) {
	insertJob := `
		INSERT INTO analysis_jobs (paper_id, status, agent_name, domain)
		VALUES ($1, $2, $3, $4)
		RETURNING ` + jobColumns

	insertPhase := `
		INSERT INTO analysis_phases (job_id, kind, position, status)
		VALUES ($1, $2, $3, $4)
		RETURNING ` + phaseColumns

	job, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (Job, error) {
		j, err := repository.QueryOne(ctx, tx, insertJob,
			[]any{paperID, StatusPending, agentName, domain}, scanJob)
		if err != nil {
			return Job{}, fmt.Errorf("insert job: %w", err)
		}

		for position, kind := range Kinds() {
			phase, err := repository.QueryOne(ctx, tx, insertPhase,
				[]any{j.ID, kind, position, StatusPending}, scanPhase)
			if err != nil {
				return Job{}, fmt.Errorf("insert phase %s: %w", kind, err)
			}
			j.Phases = append(j.Phases, phase)
		}

		return j, nil
	})
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}

	r.logger.Info("job created",
		"id", job.ID,
		"paper_id", paperID,
		"agent", agentName,
	)
	return &job, nil
}

func (r *repo) Find(ctx context.Context, id uuid.UUID) (*Job, error) {
	jobQ := `SELECT ` + jobColumns + ` FROM analysis_jobs WHERE id = $1`

	job, err := repository.QueryOne(ctx, r.db, jobQ, []any{id}, scanJob)
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}

	phases, err := r.phases(ctx, id)
	if err != nil {
		return nil, err
	}
	job.Phases = phases

	return &job, nil
}

func (r *repo) List(
	ctx context.Context,
	page pagination.PageRequest,
	filters Filters,
) (*pagination.PageResult[Job], error) {
	page.Normalize(r.pagination)

	where, args := filters.where()

	countQ := `SELECT COUNT(*) FROM analysis_jobs` + where
	var total int
	if err := r.db.QueryRowContext(ctx, countQ, args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("count jobs: %w", err)
	}

	pageQ := `SELECT ` + jobColumns + ` FROM analysis_jobs` + where +
		` ORDER BY created_at DESC` +
		` LIMIT $` + strconv.Itoa(len(args)+1) +
		` OFFSET $` + strconv.Itoa(len(args)+2)
	args = append(args, page.PageSize, page.Offset())

	items, err := repository.QueryMany(ctx, r.db, pageQ, args, scanJob)
	if err != nil {
		return nil, fmt.Errorf("query jobs: %w", err)
	}

	result := pagination.NewPageResult(items, total, page.Page, page.PageSize)
	return &result, nil
}

// SetClassification persists the agent choice resolved before the first
// phase. The choice is fixed for the remaining run; terminal jobs are never
// reclassified.
func (r *repo) SetClassification(ctx context.Context, id uuid.UUID, agentName, domain string) error {
	err := repository.ExecExpectOne(ctx, r.db, `
		UPDATE analysis_jobs
		SET agent_name = $1, domain = $2
		WHERE id = $3 AND status IN ($4, $5)`,
		agentName, domain, id, StatusPending, StatusRunning)
	if err != nil {
		return fmt.Errorf("set classification for job %s: %w", id, repository.MapError(err, ErrNotFound, ErrDuplicate))
	}
	return nil
}

// MarkJobRunning transitions a pending job to running. Replays against an
// already-running job are no-ops; terminal jobs are never resurrected.
func (r *repo) MarkJobRunning(ctx context.Context, id uuid.UUID) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE analysis_jobs
		SET status = $1, started_at = NOW()
		WHERE id = $2 AND status = $3`,
		StatusRunning, id, StatusPending)
	if err != nil {
		return fmt.Errorf("mark job %s running: %w", id, err)
	}
	return nil
}

func (r *repo) MarkPhaseRunning(ctx context.Context, jobID uuid.UUID, kind PhaseKind) error {
	err := repository.ExecExpectOne(ctx, r.db, `
		UPDATE analysis_phases
		SET status = $1, started_at = NOW()
		WHERE job_id = $2 AND kind = $3 AND status <> $4`,
		StatusRunning, jobID, kind, StatusCompleted)
	if err != nil {
		return fmt.Errorf("mark phase %s/%s running: %w", jobID, kind, repository.MapError(err, ErrNotFound, ErrDuplicate))
	}
	return nil
}

// CompletePhase records a successful phase result. The conditional update
// makes replays harmless: a phase already completed is left untouched, and
// job aggregates are recomputed from completed phases rather than
// incremented, so the same completion applied twice cannot double-count.
func (r *repo) CompletePhase(ctx context.Context, jobID uuid.UUID, kind PhaseKind, result PhaseCompletion) error {
	payload, err := json.Marshal(result.Payload)
	if err != nil {
		return fmt.Errorf("marshal phase payload: %w", err)
	}

	_, err = repository.WithTx(ctx, r.db, func(tx *sql.Tx) (struct{}, error) {
		_, err := tx.ExecContext(ctx, `
			UPDATE analysis_phases
			SET status = $1, model = $2, tokens_in = $3, tokens_out = $4,
				cost_usd = $5, payload = $6, error_kind = NULL,
				error_message = NULL, completed_at = NOW()
			WHERE job_id = $7 AND kind = $8 AND status <> $1`,
			StatusCompleted, result.Model, result.TokensIn, result.TokensOut,
			result.CostUSD, payload, jobID, kind)
		if err != nil {
			return struct{}{}, fmt.Errorf("complete phase: %w", err)
		}

		return struct{}{}, r.recomputeAggregates(ctx, tx, jobID)
	})
	return err
}

func (r *repo) FailPhase(ctx context.Context, jobID uuid.UUID, kind PhaseKind, failure PhaseFailure) error {
	err := repository.ExecExpectOne(ctx, r.db, `
		UPDATE analysis_phases
		SET status = $1, model = $2, error_kind = $3, error_message = $4,
			payload = $5, completed_at = NOW()
		WHERE job_id = $6 AND kind = $7 AND status <> $8`,
		StatusError, failure.Model, failure.ErrorKind, failure.Message,
		rawPayload(failure.RawResponse), jobID, kind, StatusCompleted)
	if err != nil {
		return fmt.Errorf("fail phase %s/%s: %w", jobID, kind, repository.MapError(err, ErrNotFound, ErrDuplicate))
	}
	return nil
}

// FinishJob moves a job to a terminal status. Terminal states are
// immutable: once completed, error, or cancelled, further transitions are
// silently ignored so replays stay safe.
func (r *repo) FinishJob(ctx context.Context, id uuid.UUID, status Status) error {
	if !status.Terminal() {
		return fmt.Errorf("finish job %s: %s is not a terminal status", id, status)
	}

	_, err := r.db.ExecContext(ctx, `
		UPDATE analysis_jobs
		SET status = $1, completed_at = NOW()
		WHERE id = $2 AND status NOT IN ($3, $4, $5)`,
		status, id, StatusCompleted, StatusError, StatusCancelled)
	if err != nil {
		return fmt.Errorf("finish job %s: %w", id, err)
	}
	return nil
}

func (r *repo) phases(ctx context.Context, jobID uuid.UUID) ([]Phase, error) {
	q := `SELECT ` + phaseColumns + ` FROM analysis_phases
		WHERE job_id = $1 ORDER BY position`

	phases, err := repository.QueryMany(ctx, r.db, q, []any{jobID}, scanPhase)
	if err != nil {
		return nil, fmt.Errorf("query phases for job %s: %w", jobID, err)
	}
	return phases, nil
}

// recomputeAggregates derives job totals from completed phases only.
func (r *repo) recomputeAggregates(ctx context.Context, tx *sql.Tx, jobID uuid.UUID) error {
	_, err := tx.ExecContext(ctx, `
		UPDATE analysis_jobs j
		SET tokens_in = agg.tokens_in,
			tokens_out = agg.tokens_out,
			cost_usd = agg.cost_usd
		FROM (
			SELECT COALESCE(SUM(tokens_in), 0) AS tokens_in,
				   COALESCE(SUM(tokens_out), 0) AS tokens_out,
				   COALESCE(SUM(cost_usd), 0) AS cost_usd
			FROM analysis_phases
			WHERE job_id = $1 AND status = $2
		) agg
		WHERE j.id = $1`,
		jobID, StatusCompleted)
	if err != nil {
		return fmt.Errorf("recompute aggregates for job %s: %w", jobID, err)
	}
	return nil
}

// rawPayload wraps diagnostic raw text as a JSON document for the payload
// column, or returns nil when there is nothing to preserve.
func rawPayload(raw string) []byte {
	if raw == "" {
		return nil
	}
	data, err := json.Marshal(map[string]string{"raw_response": raw})
	if err != nil {
		return nil
	}
	return data
}
