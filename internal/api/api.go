// Package api assembles the API module: domain systems, the analysis
// orchestrator, and route registration.
package api

import (
	"net/http"

	"github.com/scriven-ai/scriven/internal/config"
	"github.com/scriven-ai/scriven/internal/infrastructure"
	"github.com/scriven-ai/scriven/internal/pipeline"
	"github.com/scriven-ai/scriven/pkg/middleware"
	"github.com/scriven-ai/scriven/pkg/module"
)

// NewModule creates the API module with all domain handlers and
// middleware. The returned Domain exposes the orchestrator so the server
// can bind it to the lifecycle coordinator.
func NewModule(
	cfg *config.Config,
	infra *infrastructure.Infrastructure,
	observer pipeline.Observer,
) (*module.Module, *Domain, error) {
	runtime := NewRuntime(cfg, infra)
	domain := NewDomain(runtime, observer)

	mux := http.NewServeMux()
	registerRoutes(mux, domain, runtime)

	m := module.New(cfg.API.BasePath, mux)
	m.Use(middleware.CORS(&cfg.API.CORS))
	m.Use(middleware.Logger(runtime.Logger))

	return m, domain, nil
}
