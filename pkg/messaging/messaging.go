// Package messaging publishes messages to a NATS JetStream stream with lifecycle coordination.
package messaging

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/JaimeStill/attest/pkg/lifecycle"
)

// ErrNotConnected indicates Publish was called before the connection was established.
var ErrNotConnected = errors.New("messaging not connected")

// System publishes messages to JetStream subjects.
type System interface {
	// Start registers hooks that connect, ensure the stream, and drain on shutdown.
	Start(lc *lifecycle.Coordinator) error
	// Publish writes data to subject and waits for the stream acknowledgement.
	Publish(ctx context.Context, subject string, data []byte) error
}

type jetStream struct {
	cfg    Config
	logger *slog.Logger

	mu sync.RWMutex
	nc *nats.Conn
	js jetstream.JetStream
}

// New creates a messaging system from the given configuration.
// Returns nil when no URL is configured. No connection is made until Start is called.
func New(cfg *Config, logger *slog.Logger) (System, error) {
	if !cfg.Enabled() {
		return nil, nil
	}
	return &jetStream{
		cfg:    *cfg,
		logger: logger.With("system", "messaging"),
	}, nil
}

func (s *jetStream) Start(lc *lifecycle.Coordinator) error {
	s.logger.Info("starting messaging connection", "stream", s.cfg.Stream)

	lc.OnStartup(func() {
		if err := s.connect(lc.Context()); err != nil {
			s.logger.Error("messaging connection failed", "error", err)
			return
		}
		s.logger.Info("messaging connection established", "stream", s.cfg.Stream)
	})

	lc.OnShutdown(func() {
		<-lc.Context().Done()

		s.mu.Lock()
		defer s.mu.Unlock()

		if s.nc == nil {
			return
		}
		if err := s.nc.Drain(); err != nil {
			s.logger.Error("messaging drain failed", "error", err)
			return
		}
		s.logger.Info("messaging connection closed")
	})

	return nil
}

func (s *jetStream) Publish(ctx context.Context, subject string, data []byte) error {
	s.mu.RLock()
	js := s.js
	s.mu.RUnlock()

	if js == nil {
		return ErrNotConnected
	}

	if _, err := js.Publish(ctx, subject, data); err != nil {
		return fmt.Errorf("publish %s: %w", subject, err)
	}
	return nil
}

func (s *jetStream) connect(ctx context.Context) error {
	nc, err := nats.Connect(
		s.cfg.URL,
		nats.Name("attest"),
		nats.Timeout(s.cfg.ConnectTimeoutDuration()),
	)
	if err != nil {
		return fmt.Errorf("connect: %w", err)
	}

	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		return fmt.Errorf("jetstream: %w", err)
	}

	streamCtx, cancel := context.WithTimeout(ctx, s.cfg.ConnectTimeoutDuration())
	defer cancel()

	if _, err := js.CreateOrUpdateStream(streamCtx, jetstream.StreamConfig{
		Name:     s.cfg.Stream,
		Subjects: s.cfg.Subjects,
	}); err != nil {
		nc.Close()
		return fmt.Errorf("ensure stream %s: %w", s.cfg.Stream, err)
	}

	s.mu.Lock()
	s.nc = nc
	s.js = js
	s.mu.Unlock()

	return nil
}
