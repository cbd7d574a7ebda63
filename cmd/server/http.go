package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/JaimeStill/attest/internal/config"
	"github.com/JaimeStill/attest/pkg/lifecycle"
)

const readHeaderTimeout = 10 * time.Second

// httpServer serves the attest API and health endpoints. It stops accepting
// requests in the drain stage so open onboarding and decision transactions
// finish before the database pool closes.
type httpServer struct {
	srv          *http.Server
	logger       *slog.Logger
	drainTimeout time.Duration
}

func newHTTPServer(cfg *config.ServerConfig, handler http.Handler, logger *slog.Logger) *httpServer {
	return &httpServer{
		srv: &http.Server{
			Addr:              cfg.Addr(),
			Handler:           handler,
			ReadTimeout:       cfg.ReadTimeoutDuration(),
			ReadHeaderTimeout: readHeaderTimeout,
			WriteTimeout:      cfg.WriteTimeoutDuration(),
		},
		logger:       logger.With("system", "http"),
		drainTimeout: cfg.ShutdownTimeoutDuration(),
	}
}

// Start binds the listen address before returning so a port conflict fails
// startup instead of surfacing in a background log line.
func (s *httpServer) Start(lc *lifecycle.Coordinator) error {
	ln, err := net.Listen("tcp", s.srv.Addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.srv.Addr, err)
	}

	go func() {
		s.logger.Info("accepting requests", "addr", ln.Addr().String())
		if err := s.srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("serve failed", "error", err)
		}
	}()

	lc.OnDrain(func(ctx context.Context) {
		if s.drainTimeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, s.drainTimeout)
			defer cancel()
		}

		start := time.Now()
		if err := s.srv.Shutdown(ctx); err != nil {
			s.logger.Error("requests still open at drain deadline", "error", err)
			return
		}
		s.logger.Info("requests drained", "took", time.Since(start))
	})

	return nil
}
