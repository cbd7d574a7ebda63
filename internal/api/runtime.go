package api

import (
	"github.com/JaimeStill/attest/internal/authz"
	"github.com/JaimeStill/attest/internal/config"
	"github.com/JaimeStill/attest/internal/events"
	"github.com/JaimeStill/attest/internal/infrastructure"
	"github.com/JaimeStill/attest/internal/ledger"
	"github.com/JaimeStill/attest/internal/metrics"
	"github.com/JaimeStill/attest/internal/settlement"
	"github.com/JaimeStill/attest/pkg/pagination"
)

// Runtime extends Infrastructure with the engine collaborators shared by
// every domain system.
type Runtime struct {
	*infrastructure.Infrastructure
	Pagination pagination.Config
	Codec      ledger.Codec
	Oracle     authz.Oracle
	Events     events.Publisher
	Metrics    *metrics.Metrics
	Rail       settlement.Rail

	// Settlements is nil when the configured rail keeps no readable record.
	Settlements settlement.Reader
}

// NewRuntime creates an API runtime with a module-scoped logger.
func NewRuntime(cfg *config.Config, infra *infrastructure.Infrastructure) *Runtime {
	logger := infra.Logger.With("module", "api")

	rt := &Runtime{
		Infrastructure: &infrastructure.Infrastructure{
			Lifecycle: infra.Lifecycle,
			Logger:    logger,
			Database:  infra.Database,
			Storage:   infra.Storage,
			Cache:     infra.Cache,
			Messaging: infra.Messaging,
			Registry:  infra.Registry,
		},
		Pagination: cfg.API.Pagination,
		Codec:      ledger.NewScopeCodec(cfg.Engine.AddressPrefix),
		Oracle:     authz.NewStatic(cfg.Engine.AdminAddress),
		Events:     events.New(infra.Messaging, cfg.Engine.EventPrefix, logger),
		Metrics:    metrics.New(infra.Registry),
	}

	switch {
	case cfg.Engine.Rail == config.RailBlob && infra.Storage != nil:
		blob := settlement.NewBlobRail(infra.Storage, logger)
		rt.Rail = blob
		rt.Settlements = blob
	default:
		rt.Rail = settlement.NewLogRail(logger)
	}

	return rt
}
