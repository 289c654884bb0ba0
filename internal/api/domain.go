package api

import (
	"github.com/scriven-ai/scriven/internal/jobs"
	"github.com/scriven-ai/scriven/internal/llm"
	"github.com/scriven-ai/scriven/internal/papers"
	"github.com/scriven-ai/scriven/internal/pipeline"
	"github.com/scriven-ai/scriven/internal/viz"
)

// Domain holds all domain systems that comprise the API, plus the
// orchestrator that runs analysis jobs in the background.
type Domain struct {
	Papers       papers.System
	Jobs         jobs.System
	Viz          viz.System
	Orchestrator *pipeline.Orchestrator
}

// NewDomain creates all domain systems from the API runtime. The observer
// receives pipeline events; nil disables metrics.
func NewDomain(runtime *Runtime, observer pipeline.Observer) *Domain {
	cfg := runtime.Config

	papersSystem := papers.New(
		runtime.Database.Connection(),
		runtime.Logger,
		runtime.Pagination,
	)

	jobsSystem := jobs.New(
		runtime.Database.Connection(),
		runtime.Logger,
		runtime.Pagination,
	)

	vizSystem := viz.New(
		runtime.Database.Connection(),
		runtime.Logger,
	)

	gemini := llm.NewGemini(&cfg.LLM, runtime.Logger)
	anthropic := llm.NewAnthropic(&cfg.LLM, runtime.Logger)

	store := newAnalysisStore(jobsSystem, papersSystem, runtime.Logger)

	fanout := viz.NewFanout(
		viz.NewPlanner(gemini, runtime.Logger),
		viz.NewGenerator(anthropic, runtime.Logger),
		vizSystem,
		runtime.Storage,
		cfg.Pipeline.VizWorkers,
		runtime.Logger,
	)

	orchestrator := pipeline.NewOrchestrator(
		store,
		pipeline.NewExecutor(store, gemini, runtime.Logger),
		&paperSource{papers: papersSystem},
		fanout,
		observer,
		runtime.Logger,
	)

	return &Domain{
		Papers:       papersSystem,
		Jobs:         jobsSystem,
		Viz:          vizSystem,
		Orchestrator: orchestrator,
	}
}
