package api

import (
	"net/http"

	"github.com/scriven-ai/scriven/internal/agents"
	"github.com/scriven-ai/scriven/pkg/routes"
)

func registerRoutes(mux *http.ServeMux, domain *Domain, runtime *Runtime) {
	routes.Register(
		mux,
		domain.Papers.Handler().Routes(),
		domain.Jobs.Handler(domain.Orchestrator).Routes(),
		domain.Viz.Handler().Routes(),
		agents.NewHandler(runtime.Logger).Routes(),
	)
}
