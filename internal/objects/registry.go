package objects

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/JaimeStill/attest/internal/authz"
	"github.com/JaimeStill/attest/internal/events"
	"github.com/JaimeStill/attest/internal/ledger"
	"github.com/JaimeStill/attest/pkg/pagination"
	"github.com/JaimeStill/attest/pkg/validation"
)

type registry struct {
	store      Store
	codec      ledger.Codec
	oracle     authz.Oracle
	events     events.Publisher
	logger     *slog.Logger
	pagination pagination.Config
}

// New creates the ledger object system.
func New(
	store Store,
	codec ledger.Codec,
	oracle authz.Oracle,
	publisher events.Publisher,
	logger *slog.Logger,
	pagination pagination.Config,
) System {
	if publisher == nil {
		publisher = events.Noop()
	}
	return &registry{
		store:      store,
		codec:      codec,
		oracle:     oracle,
		events:     publisher,
		logger:     logger.With("system", "objects"),
		pagination: pagination,
	}
}

func (r *registry) Handler() *Handler {
	return NewHandler(r, r.logger, r.pagination)
}

func (r *registry) List(ctx context.Context, page pagination.PageRequest, filters Filters) (*pagination.PageResult[Object], error) {
	page.Normalize(r.pagination)

	result, err := r.store.List(ctx, page, filters)
	if err != nil {
		return nil, fmt.Errorf("list ledger objects: %w", err)
	}
	return result, nil
}

func (r *registry) Find(ctx context.Context, id ledger.Identifier) (*Object, error) {
	resolved, err := ledger.Resolve(r.codec, id)
	if err != nil {
		return nil, err
	}

	o, err := r.store.Get(ctx, resolved.Address)
	if err != nil {
		return nil, fmt.Errorf("find ledger object %s: %w", resolved.Address, err)
	}
	return o, nil
}

// Register is admin-only; in production the ledger itself would create objects.
func (r *registry) Register(ctx context.Context, caller string, cmd RegisterCommand) (*Object, error) {
	if !r.oracle.IsAdmin(caller) {
		return nil, fmt.Errorf("%w: only the admin may register ledger objects", authz.ErrUnauthorized)
	}

	var v validation.Errors
	v.Check(cmd.AssetID != uuid.Nil, "asset_id", "must be a non-nil UUID")
	v.Required("owner", cmd.Owner)
	if err := v.Err(); err != nil {
		return nil, err
	}

	addr, err := r.codec.Encode(cmd.AssetID)
	if err != nil {
		return nil, fmt.Errorf("encode asset %s: %w", cmd.AssetID, err)
	}

	o := &Object{
		Address:   addr,
		AssetID:   cmd.AssetID,
		Owner:     strings.TrimSpace(cmd.Owner),
		CreatedAt: time.Now().UTC().Truncate(time.Microsecond),
	}

	if err := r.store.Insert(ctx, o); err != nil {
		return nil, fmt.Errorf("register ledger object %s: %w", addr, err)
	}

	r.events.Publish(ctx, events.Event{
		Type:          events.ObjectRegistered,
		ObjectAddress: o.Address,
		Actor:         caller,
		Attributes:    map[string]string{"owner": o.Owner},
	})
	r.logger.Info("ledger object registered", "address", o.Address, "asset_id", o.AssetID, "owner", o.Owner)

	return o, nil
}
