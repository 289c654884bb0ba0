package papers

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/scriven-ai/scriven/pkg/repository"
)

const paperColumns = `id, title, filename, source, status, sections, figures,
	registered_at, analyzed_at`

// Filters contains optional filtering criteria for paper queries.
// Nil fields are ignored.
type Filters struct {
	Status *Status `json:"status,omitempty"`
	Source *string `json:"source,omitempty"`
}

// FiltersFromQuery extracts filter values from URL query parameters.
func FiltersFromQuery(values url.Values) Filters {
	var f Filters

	if s := values.Get("status"); s != "" {
		status := Status(s)
		f.Status = &status
	}

	if s := values.Get("source"); s != "" {
		f.Source = &s
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
	if f.Source != nil {
		args = append(args, *f.Source)
		clauses = append(clauses, "source = $"+strconv.Itoa(len(args)))
	}

	if len(clauses) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

func scanPaper(s repository.Scanner) (Paper, error) {
	var p Paper
	var sections, figures []byte

	err := s.Scan(
		&p.ID,
		&p.Title,
		&p.Filename,
		&p.Source,
		&p.Status,
		&sections,
		&figures,
		&p.RegisteredAt,
		&p.AnalyzedAt,
	)
	if err != nil {
		return Paper{}, err
	}

	if len(sections) > 0 {
		if err := json.Unmarshal(sections, &p.Sections); err != nil {
			return Paper{}, fmt.Errorf("decode sections for paper %s: %w", p.ID, err)
		}
	}
	if len(figures) > 0 {
		if err := json.Unmarshal(figures, &p.Figures); err != nil {
			return Paper{}, fmt.Errorf("decode figures for paper %s: %w", p.ID, err)
		}
	}

	return p, nil
}
