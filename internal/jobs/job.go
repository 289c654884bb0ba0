// Package jobs implements the analysis job domain: the durable record of
// each pipeline run, its per-phase statuses, and the accumulated token and
// cost totals. The pipeline orchestrator drives these records through a
// narrow write interface; HTTP callers read them as status snapshots.
package jobs

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Status is the lifecycle state of a job or phase. Phases only use pending,
// running, completed, and error; cancelled is a job-level terminal state.
type Status string

const (
	StatusPending   Status = "pending"
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusError     Status = "error"
	StatusCancelled Status = "cancelled"
)

// Terminal reports whether a status permits no further transitions.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusError || s == StatusCancelled
}

// PhaseKind identifies one stage of the fixed analysis sequence.
type PhaseKind string

const (
	PhaseScreening PhaseKind = "screening"
	PhaseVisual    PhaseKind = "visual"
	PhaseRecipe    PhaseKind = "recipe"
	PhaseDeepDive  PhaseKind = "deep_dive"
)

// Kinds returns the phase sequence in execution order.
func Kinds() []PhaseKind {
	return []PhaseKind{PhaseScreening, PhaseVisual, PhaseRecipe, PhaseDeepDive}
}

// Error kind tags distinguish "service down" from "service confused" in
// failed phase records.
const (
	ErrorKindTransport = "transport"
	ErrorKindParse     = "parse"
	ErrorKindSchema    = "schema"
)

// Phase is one stage record within a job. Payload holds the validated
// structured result once the phase completes; RawResponse preserves the
// offending model output when the phase fails validation.
type Phase struct {
	ID           uuid.UUID       `json:"id"`
	JobID        uuid.UUID       `json:"job_id"`
	Kind         PhaseKind       `json:"kind"`
	Position     int             `json:"position"`
	Status       Status          `json:"status"`
	Model        string          `json:"model"`
	TokensIn     int64           `json:"tokens_in"`
	TokensOut    int64           `json:"tokens_out"`
	CostUSD      float64         `json:"cost_usd"`
	Payload      json.RawMessage `json:"payload,omitempty"`
	ErrorKind    *string         `json:"error_kind,omitempty"`
	ErrorMessage *string         `json:"error_message,omitempty"`
	StartedAt    *time.Time      `json:"started_at,omitempty"`
	CompletedAt  *time.Time      `json:"completed_at,omitempty"`
}

// Job is one end-to-end analysis run for one paper. Aggregate token and
// cost totals are derived from completed phases only.
type Job struct {
	ID          uuid.UUID  `json:"id"`
	PaperID     uuid.UUID  `json:"paper_id"`
	Status      Status     `json:"status"`
	AgentName   string     `json:"agent_name"`
	Domain      string     `json:"domain"`
	TokensIn    int64      `json:"tokens_in"`
	TokensOut   int64      `json:"tokens_out"`
	CostUSD     float64    `json:"cost_usd"`
	CreatedAt   time.Time  `json:"created_at"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	Phases      []Phase    `json:"phases"`
}

// Progress reports completion percentage at phase granularity.
func (j *Job) Progress() int {
	if len(j.Phases) == 0 {
		return 0
	}

	var completed int
	for _, phase := range j.Phases {
		if phase.Status == StatusCompleted {
			completed++
		}
	}

	return completed * 100 / len(j.Phases)
}

// Snapshot is the poller-facing view of a job: the persisted record plus
// the derived progress percentage.
type Snapshot struct {
	Job
	Progress int `json:"progress"`
}

// NewSnapshot wraps a job with its derived progress.
func NewSnapshot(job *Job) *Snapshot {
	return &Snapshot{Job: *job, Progress: job.Progress()}
}

// PhaseCompletion carries the data recorded when a phase finishes
// successfully.
type PhaseCompletion struct {
	Model     string
	TokensIn  int64
	TokensOut int64
	CostUSD   float64
	Payload   map[string]any
}

// PhaseFailure carries the diagnostic data recorded when a phase fails.
// RawResponse preserves the original model output verbatim.
type PhaseFailure struct {
	Model       string
	ErrorKind   string
	Message     string
	RawResponse string
}
