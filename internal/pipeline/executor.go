package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/scriven-ai/scriven/internal/agents"
	"github.com/scriven-ai/scriven/internal/jobs"
	"github.com/scriven-ai/scriven/internal/llm"
	"github.com/scriven-ai/scriven/pkg/parsing"
)

// Outcome is the result of running one phase. Status is either completed
// or error; the orchestrator halts the job on anything but completed.
type Outcome struct {
	Kind      jobs.PhaseKind
	Status    jobs.Status
	Payload   map[string]any
	Model     string
	TokensIn  int64
	TokensOut int64
	CostUSD   float64
	ErrorKind string
	Duration  time.Duration
	Err       error
}

// Executor runs a single phase: it persists the running marker, makes
// exactly one adapter call, validates the raw output, and records the
// result. It never retries: retries against a paid generative service are
// a caller-level decision, not something the core does silently.
type Executor struct {
	store   Store
	adapter Adapter
	logger  *slog.Logger
}

// NewExecutor creates an Executor over the given store and adapter.
func NewExecutor(store Store, adapter Adapter, logger *slog.Logger) *Executor {
	return &Executor{
		store:   store,
		adapter: adapter,
		logger:  logger.With("system", "executor"),
	}
}

// RunStage executes one phase for a job. The running marker is persisted
// before the adapter call so a crash mid-call leaves a recoverable running
// record rather than silent loss. No other phase's state is touched.
func (e *Executor) RunStage(
	ctx context.Context,
	jobID uuid.UUID,
	kind jobs.PhaseKind,
	input string,
	agent *agents.Agent,
) Outcome {
	model := ModelFor(kind)
	start := time.Now()

	logger := e.logger.With("job", jobID, "phase", kind, "model", model)

	if err := e.store.MarkPhaseRunning(ctx, jobID, kind); err != nil {
		logger.Error("failed to mark phase running", "error", err)
		return Outcome{Kind: kind, Status: jobs.StatusError, Model: model, Err: err}
	}

	resp, err := e.adapter.Invoke(ctx, llm.Request{
		Model:        model,
		System:       buildSystem(kind, agent),
		Prompt:       buildPrompt(kind, input),
		JSONResponse: true,
	})
	if err != nil {
		logger.Warn("adapter call failed", "error", err)
		return e.fail(ctx, jobID, kind, model, jobs.ErrorKindTransport, err.Error(), "", start)
	}

	payload, err := parsing.Validate(resp.RawText)
	if err != nil {
		logger.Warn("response failed validation", "error", err)
		return e.fail(ctx, jobID, kind, model, jobs.ErrorKindParse, err.Error(), resp.RawText, start)
	}

	if err := validateShape(kind, payload); err != nil {
		logger.Warn("response failed shape check", "error", err)
		return e.fail(ctx, jobID, kind, model, jobs.ErrorKindSchema, err.Error(), resp.RawText, start)
	}

	cost := llm.CalcCost(model, resp.TokensIn, resp.TokensOut)
	completion := jobs.PhaseCompletion{
		Model:     model,
		TokensIn:  int64(resp.TokensIn),
		TokensOut: int64(resp.TokensOut),
		CostUSD:   cost,
		Payload:   payload,
	}

	if err := e.store.CompletePhase(ctx, jobID, kind, completion); err != nil {
		logger.Error("failed to persist phase completion", "error", err)
		return Outcome{Kind: kind, Status: jobs.StatusError, Model: model, Err: err}
	}

	duration := time.Since(start)
	logger.Info("phase completed",
		"tokens_in", resp.TokensIn,
		"tokens_out", resp.TokensOut,
		"cost_usd", cost,
		"duration", duration,
	)

	return Outcome{
		Kind:      kind,
		Status:    jobs.StatusCompleted,
		Payload:   payload,
		Model:     model,
		TokensIn:  int64(resp.TokensIn),
		TokensOut: int64(resp.TokensOut),
		CostUSD:   cost,
		Duration:  duration,
	}
}

func (e *Executor) fail(
	ctx context.Context,
	jobID uuid.UUID,
	kind jobs.PhaseKind,
	model, errorKind, message, raw string,
	start time.Time,
) Outcome {
	failure := jobs.PhaseFailure{
		Model:       model,
		ErrorKind:   errorKind,
		Message:     message,
		RawResponse: raw,
	}

	if err := e.store.FailPhase(ctx, jobID, kind, failure); err != nil {
		e.logger.Error("failed to persist phase failure",
			"job", jobID,
			"phase", kind,
			"error", err,
		)
	}

	return Outcome{
		Kind:      kind,
		Status:    jobs.StatusError,
		Model:     model,
		ErrorKind: errorKind,
		Duration:  time.Since(start),
		Err:       errors.New(message),
	}
}
