package viz

import (
	"context"

	"github.com/google/uuid"
)

// System defines the public contract for visualization record operations.
type System interface {
	Handler() *Handler

	Create(ctx context.Context, jobID, paperID uuid.UUID, target Target) (*Visualization, error)
	MarkCompleted(ctx context.Context, id uuid.UUID, storageKey string) error
	MarkError(ctx context.Context, id uuid.UUID, message string) error
	ListByJob(ctx context.Context, jobID uuid.UUID) ([]Visualization, error)
}
