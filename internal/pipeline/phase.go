// Package pipeline implements the phase orchestration engine: the stage
// executor that runs one model call per phase, and the orchestrator that
// sequences the four phases per job, persists every transition, honors
// cooperative cancellation, and triggers visualization fan-out on success.
package pipeline

import (
	"context"

	"github.com/google/uuid"

	"github.com/scriven-ai/scriven/internal/jobs"
	"github.com/scriven-ai/scriven/internal/llm"
)

// Sequence returns the fixed phase order. Screening must precede the
// extraction phases: the ordering is a contract with the prompt design,
// not an optimization.
func Sequence() []jobs.PhaseKind {
	return jobs.Kinds()
}

// ModelFor maps a phase to the model that serves it. Triage phases use the
// cheap fast model; extraction and critique use the reasoning model.
func ModelFor(kind jobs.PhaseKind) string {
	switch kind {
	case jobs.PhaseRecipe, jobs.PhaseDeepDive:
		return llm.ModelPro
	default:
		return llm.ModelFlash
	}
}

// Adapter invokes a generative service. Satisfied by the llm adapters;
// shared across jobs, so implementations must be safe for concurrent use.
type Adapter interface {
	Invoke(ctx context.Context, req llm.Request) (*llm.Response, error)
}

// Store is the narrow persistence interface the engine drives. Satisfied
// by the jobs system; every method must be idempotent under replay.
type Store interface {
	SetClassification(ctx context.Context, id uuid.UUID, agentName, domain string) error
	MarkJobRunning(ctx context.Context, id uuid.UUID) error
	MarkPhaseRunning(ctx context.Context, jobID uuid.UUID, kind jobs.PhaseKind) error
	CompletePhase(ctx context.Context, jobID uuid.UUID, kind jobs.PhaseKind, result jobs.PhaseCompletion) error
	FailPhase(ctx context.Context, jobID uuid.UUID, kind jobs.PhaseKind, failure jobs.PhaseFailure) error
	FinishJob(ctx context.Context, id uuid.UUID, status jobs.Status) error
}

// Results collects the validated payload of each completed phase, handed
// to the fan-out trigger after the final phase.
type Results map[jobs.PhaseKind]map[string]any

// Fanout receives completed jobs for downstream visualization generation.
// Invoked at most once per job, only on full success; its failure never
// rolls back the job's completed status.
type Fanout interface {
	OnJobCompleted(ctx context.Context, jobID, paperID uuid.UUID, results Results) error
}

// Source supplies the pre-split inputs for a paper. The engine does not
// know how sections were segmented.
type Source interface {
	Inputs(ctx context.Context, paperID uuid.UUID) (*Inputs, error)
}

// Inputs bundles everything the phases consume for one paper.
type Inputs struct {
	Title    string
	Abstract string
	Sections map[string]string
	Figures  []FigureNote
}

// FigureNote describes one extracted figure for the visual phase.
type FigureNote struct {
	ID      string
	Page    int
	Caption string
}
