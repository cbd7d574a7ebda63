package main

import (
	"fmt"
	"time"

	"github.com/JaimeStill/attest/internal/config"
	"github.com/JaimeStill/attest/internal/infrastructure"
	"github.com/JaimeStill/attest/pkg/formatting"
)

// Server wires the attest infrastructure, the API module, and the HTTP
// listener together.
type Server struct {
	infra *infrastructure.Infrastructure
	http  *httpServer
}

func NewServer(cfg *config.Config) (*Server, error) {
	infra, err := infrastructure.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("infrastructure: %w", err)
	}

	modules, err := NewModules(infra, cfg)
	if err != nil {
		return nil, fmt.Errorf("modules: %w", err)
	}

	router := buildRouter(infra)
	if err := modules.Mount(router); err != nil {
		return nil, fmt.Errorf("mount: %w", err)
	}

	infra.Logger.Info("attest configured",
		"env", cfg.Env(),
		"version", cfg.Version,
		"addr", cfg.Server.Addr(),
		"rail", cfg.Engine.Rail,
		"cache", cfg.Cache.Enabled(),
		"bearer_tokens", cfg.API.Auth.Enabled(),
		"max_body", formatting.FormatBytes(cfg.API.MaxBodySizeBytes(), 0),
	)

	return &Server{
		infra: infra,
		http:  newHTTPServer(&cfg.Server, router, infra.Logger),
	}, nil
}

// Start launches the subsystems and the listener. Readiness flips once every
// startup hook has returned.
func (s *Server) Start() error {
	if err := s.infra.Start(); err != nil {
		return err
	}
	if err := s.http.Start(s.infra.Lifecycle); err != nil {
		return err
	}

	go func() {
		s.infra.Lifecycle.WaitForStartup()
		s.infra.Logger.Info("attest ready")
	}()
	return nil
}

func (s *Server) Shutdown(timeout time.Duration) error {
	s.infra.Logger.Info("attest stopping", "timeout", timeout)
	return s.infra.Lifecycle.Shutdown(timeout)
}
