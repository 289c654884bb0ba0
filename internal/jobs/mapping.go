package jobs

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/scriven-ai/scriven/pkg/repository"
)

const jobColumns = `id, paper_id, status, agent_name, domain,
	tokens_in, tokens_out, cost_usd, created_at, started_at, completed_at`

const phaseColumns = `id, job_id, kind, position, status, model,
	tokens_in, tokens_out, cost_usd, payload, error_kind, error_message,
	started_at, completed_at`

// Filters contains optional filtering criteria for job queries.
// Nil fields are ignored.
type Filters struct {
	Status  *Status    `json:"status,omitempty"`
	PaperID *uuid.UUID `json:"paper_id,omitempty"`
}

// FiltersFromQuery extracts filter values from URL query parameters.
func FiltersFromQuery(values url.Values) Filters {
	var f Filters

	if s := values.Get("status"); s != "" {
		status := Status(s)
		f.Status = &status
	}

	if p := values.Get("paper_id"); p != "" {
		if id, err := uuid.Parse(p); err == nil {
			f.PaperID = &id
		}
	}

	return f
}

// where builds the WHERE clause and arguments for the active filters.
func (f Filters) where() (string, []any) {
	var clauses []string
	var args []any

	if f.Status != nil {
		args = append(args, *f.Status)
		clauses = append(clauses, "status = $"+strconv.Itoa(len(args)))
	}
	if f.PaperID != nil {
		args = append(args, *f.PaperID)
		clauses = append(clauses, "paper_id = $"+strconv.Itoa(len(args)))
	}

	if len(clauses) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

func scanJob(s repository.Scanner) (Job, error) {
	var j Job
	err := s.Scan(
		&j.ID,
		&j.PaperID,
		&j.Status,
		&j.AgentName,
		&j.Domain,
		&j.TokensIn,
		&j.TokensOut,
		&j.CostUSD,
		&j.CreatedAt,
		&j.StartedAt,
		&j.CompletedAt,
	)
	return j, err
}

func scanPhase(s repository.Scanner) (Phase, error) {
	var p Phase
	err := s.Scan(
		&p.ID,
		&p.JobID,
		&p.Kind,
		&p.Position,
		&p.Status,
		&p.Model,
		&p.TokensIn,
		&p.TokensOut,
		&p.CostUSD,
		&p.Payload,
		&p.ErrorKind,
		&p.ErrorMessage,
		&p.StartedAt,
		&p.CompletedAt,
	)
	return p, err
}
