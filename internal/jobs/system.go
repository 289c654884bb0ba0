package jobs

import (
	"context"

	"github.com/google/uuid"

	"github.com/scriven-ai/scriven/pkg/pagination"
)

// System defines the public contract for job domain operations. The write
// methods after Find form the narrow store interface the pipeline
// orchestrator drives; they are idempotent so crash-recovery replays cannot
// corrupt aggregates.
type System interface {
	Handler(runner Runner) *Handler

	Create(ctx context.Context, paperID uuid.UUID, agentName, domain string) (*Job, error)
	Find(ctx context.Context, id uuid.UUID) (*Job, error)
	List(ctx context.Context, page pagination.PageRequest, filters Filters) (*pagination.PageResult[Job], error)

	SetClassification(ctx context.Context, id uuid.UUID, agentName, domain string) error
	MarkJobRunning(ctx context.Context, id uuid.UUID) error
	MarkPhaseRunning(ctx context.Context, jobID uuid.UUID, kind PhaseKind) error
	CompletePhase(ctx context.Context, jobID uuid.UUID, kind PhaseKind, result PhaseCompletion) error
	FailPhase(ctx context.Context, jobID uuid.UUID, kind PhaseKind, failure PhaseFailure) error
	FinishJob(ctx context.Context, id uuid.UUID, status Status) error
}

// Runner starts and cancels pipeline executions for jobs. Implemented by
// the pipeline orchestrator; accepted as an interface so this package never
// depends on the execution engine.
type Runner interface {
	Start(ctx context.Context, job *Job) error
	Cancel(id uuid.UUID) error
}
