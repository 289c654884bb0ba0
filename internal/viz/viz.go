// Package viz implements visualization fan-out: after a job completes, a
// planning call selects diagram targets from the recipe and deep-dive
// payloads, bounded workers generate Mermaid sources, and the results land
// in blob storage plus the visualizations table. Fan-out failures never
// touch the job's status.
package viz

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// RenderKind distinguishes structural diagrams from physical illustrations.
// Structural targets render as Mermaid; illustration targets are recorded
// with their spec for an external renderer.
type RenderKind string

const (
	RenderMermaid      RenderKind = "mermaid"
	RenderIllustration RenderKind = "illustration"
)

// Status is the generation state of one visualization record.
type Status string

const (
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
	StatusError     Status = "error"
)

// Visualization is one persisted diagram record. Spec holds the planner's
// target description; StorageKey points at the rendered artifact for
// completed Mermaid records.
type Visualization struct {
	ID           uuid.UUID       `json:"id"`
	JobID        uuid.UUID       `json:"job_id"`
	PaperID      uuid.UUID       `json:"paper_id"`
	RenderKind   RenderKind      `json:"render_kind"`
	Title        string          `json:"title"`
	Spec         json.RawMessage `json:"spec,omitempty"`
	StorageKey   string          `json:"storage_key,omitempty"`
	Status       Status          `json:"status"`
	ErrorMessage *string         `json:"error_message,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
}

// Node is one element of a structural diagram.
type Node struct {
	ID     string `json:"id"`
	Label  string `json:"label"`
	Detail string `json:"detail,omitempty"`
}

// Edge connects two diagram nodes.
type Edge struct {
	From  string `json:"from"`
	To    string `json:"to"`
	Label string `json:"label,omitempty"`
}

// Target is a single visualization the planner selected.
type Target struct {
	Type        string     `json:"type"`
	Title       string     `json:"title"`
	RenderKind  RenderKind `json:"render_target"`
	Category    string     `json:"category,omitempty"`
	Description string     `json:"description,omitempty"`
	Nodes       []Node     `json:"nodes,omitempty"`
	Edges       []Edge     `json:"edges,omitempty"`
}
