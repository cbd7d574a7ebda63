// Package infrastructure provides core service initialization for application startup.
// It assembles the shared dependencies (logging, database, blob storage, cache,
// messaging, metrics) that domain systems require.
package infrastructure

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"

	"github.com/JaimeStill/attest/internal/config"
	"github.com/JaimeStill/attest/pkg/cache"
	"github.com/JaimeStill/attest/pkg/database"
	"github.com/JaimeStill/attest/pkg/lifecycle"
	"github.com/JaimeStill/attest/pkg/messaging"
	"github.com/JaimeStill/attest/pkg/storage"
)

// Infrastructure holds the core systems required by all domain modules.
// Storage, Cache, and Messaging are nil when their configuration is absent.
type Infrastructure struct {
	Lifecycle *lifecycle.Coordinator
	Logger    *slog.Logger
	Database  database.System
	Storage   storage.System
	Cache     cache.System
	Messaging messaging.System
	Registry  *prometheus.Registry
}

// New creates an Infrastructure from the application configuration.
// It initializes all systems but does not start them; call Start separately.
func New(cfg *config.Config) (*Infrastructure, error) {
	lc := lifecycle.New()
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	db, err := database.New(&cfg.Database, logger)
	if err != nil {
		return nil, fmt.Errorf("database init failed: %w", err)
	}

	store, err := storage.New(&cfg.Storage, logger)
	if err != nil {
		return nil, fmt.Errorf("storage init failed: %w", err)
	}

	c, err := cache.New(&cfg.Cache, logger)
	if err != nil {
		return nil, fmt.Errorf("cache init failed: %w", err)
	}

	msg, err := messaging.New(&cfg.Events, logger)
	if err != nil {
		return nil, fmt.Errorf("messaging init failed: %w", err)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return &Infrastructure{
		Lifecycle: lc,
		Logger:    logger,
		Database:  db,
		Storage:   store,
		Cache:     c,
		Messaging: msg,
		Registry:  reg,
	}, nil
}

// Start registers all configured systems with the lifecycle coordinator.
func (i *Infrastructure) Start() error {
	if err := i.Database.Start(i.Lifecycle); err != nil {
		return fmt.Errorf("database start failed: %w", err)
	}
	if i.Storage != nil {
		if err := i.Storage.Start(i.Lifecycle); err != nil {
			return fmt.Errorf("storage start failed: %w", err)
		}
	}
	if i.Cache != nil {
		if err := i.Cache.Start(i.Lifecycle); err != nil {
			return fmt.Errorf("cache start failed: %w", err)
		}
	}
	if i.Messaging != nil {
		if err := i.Messaging.Start(i.Lifecycle); err != nil {
			return fmt.Errorf("messaging start failed: %w", err)
		}
	}
	return nil
}

// Health checks the database and cache concurrently and returns the first failure.
func (i *Infrastructure) Health(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := i.Database.Health(gctx); err != nil {
			return fmt.Errorf("database: %w", err)
		}
		return nil
	})

	if i.Cache != nil {
		g.Go(func() error {
			if err := i.Cache.Health(gctx); err != nil {
				return fmt.Errorf("cache: %w", err)
			}
			return nil
		})
	}

	return g.Wait()
}
