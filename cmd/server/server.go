package main

import (
	"time"

	"github.com/scriven-ai/scriven/internal/api"
	"github.com/scriven-ai/scriven/internal/config"
	"github.com/scriven-ai/scriven/internal/infrastructure"
	"github.com/scriven-ai/scriven/internal/metrics"
)

type Server struct {
	infra *infrastructure.Infrastructure
	http  *httpServer
}

func NewServer(cfg *config.Config) (*Server, error) {
	infra, err := infrastructure.New(cfg)
	if err != nil {
		return nil, err
	}

	collector := metrics.NewCollector()

	apiModule, domain, err := api.NewModule(cfg, infra, collector)
	if err != nil {
		return nil, err
	}

	if err := domain.Orchestrator.Bind(infra.Lifecycle); err != nil {
		return nil, err
	}

	router := buildRouter(infra, collector)
	router.Mount(apiModule)

	infra.Logger.Info(
		"server initialized",
		"addr", cfg.Server.Addr(),
		"version", cfg.Version,
		"env", cfg.Env(),
	)

	return &Server{
		infra: infra,
		http:  newHTTPServer(&cfg.Server, router, infra.Logger),
	}, nil
}

func (s *Server) Start() error {
	s.infra.Logger.Info("starting service")

	if err := s.infra.Start(); err != nil {
		return err
	}

	if err := s.http.Start(s.infra.Lifecycle); err != nil {
		return err
	}

	go func() {
		s.infra.Lifecycle.WaitForStartup()
		s.infra.Logger.Info("all subsystems ready")
	}()

	return nil
}

func (s *Server) Shutdown(timeout time.Duration) error {
	s.infra.Logger.Info("initiating shutdown")
	return s.infra.Lifecycle.Shutdown(timeout)
}
