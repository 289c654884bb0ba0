// Package papers implements the paper registry: metadata, the pre-split
// section map, and figure captions for each registered paper. Extraction
// happens upstream; this domain stores what the extractor produced and
// tracks each paper's analysis status.
package papers

import (
	"time"

	"github.com/google/uuid"
)

// Status is the analysis lifecycle state of a paper.
type Status string

const (
	StatusRegistered Status = "registered"
	StatusAnalyzing  Status = "analyzing"
	StatusCompleted  Status = "completed"
	StatusError      Status = "error"
	StatusCancelled  Status = "cancelled"
)

// valid reports whether s is a known paper status.
func (s Status) valid() bool {
	switch s {
	case StatusRegistered, StatusAnalyzing, StatusCompleted, StatusError, StatusCancelled:
		return true
	}
	return false
}

// Figure is one extracted figure or table reference.
type Figure struct {
	ID      string `json:"id"`
	Page    int    `json:"page"`
	Caption string `json:"caption,omitempty"`
}

// Paper is a registered paper with its extracted content. Sections maps
// lowercase section names (abstract, methods, results, ...) to text; the
// reserved key "full_text" holds the unsegmented document when the
// extractor found no section boundaries.
type Paper struct {
	ID           uuid.UUID         `json:"id"`
	Title        string            `json:"title"`
	Filename     string            `json:"filename"`
	Source       string            `json:"source"`
	Status       Status            `json:"status"`
	Sections     map[string]string `json:"sections,omitempty"`
	Figures      []Figure          `json:"figures,omitempty"`
	RegisteredAt time.Time         `json:"registered_at"`
	AnalyzedAt   *time.Time        `json:"analyzed_at,omitempty"`
}

// Abstract returns the abstract section, or an empty string when the
// extractor did not identify one.
func (p *Paper) Abstract() string {
	return p.Sections["abstract"]
}

// CreateCommand carries the data needed to register a paper. Sections and
// Figures come from the upstream extractor and are stored as-is.
type CreateCommand struct {
	Title    string            `json:"title"`
	Filename string            `json:"filename"`
	Source   string            `json:"source"`
	Sections map[string]string `json:"sections"`
	Figures  []Figure          `json:"figures"`
}
