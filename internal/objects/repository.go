package objects

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/JaimeStill/attest/pkg/pagination"
	"github.com/JaimeStill/attest/pkg/query"
	"github.com/JaimeStill/attest/pkg/repository"
)

type postgresStore struct {
	db *sql.DB
}

// NewPostgresStore creates a Store backed by the ledger_objects table.
func NewPostgresStore(db *sql.DB) Store {
	return &postgresStore{db: db}
}

func (s *postgresStore) Exists(ctx context.Context, address string) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx,
		"SELECT EXISTS (SELECT 1 FROM ledger_objects WHERE address = $1)",
		address,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check ledger object: %w", err)
	}
	return exists, nil
}

func (s *postgresStore) Get(ctx context.Context, address string) (*Object, error) {
	q, args := query.NewBuilder(projection).BuildSingle("Address", address)

	o, err := repository.QueryOne(ctx, s.db, q, args, scanObject)
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}
	return &o, nil
}

func (s *postgresStore) Insert(ctx context.Context, o *Object) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO ledger_objects(address, asset_id, owner, created_at) VALUES ($1, $2, $3, $4)",
		o.Address, o.AssetID, o.Owner, o.CreatedAt,
	)
	if err != nil {
		return repository.MapError(err, ErrNotFound, ErrDuplicate)
	}
	return nil
}

func (s *postgresStore) List(
	ctx context.Context,
	page pagination.PageRequest,
	filters Filters,
) (*pagination.PageResult[Object], error) {
	qb := query.
		NewBuilder(projection, defaultSort).
		WhereSearch(page.Search, "Address", "Owner")

	filters.Apply(qb)

	if len(page.Sort) > 0 {
		qb.OrderByFields(page.Sort)
	}

	countSQL, countArgs := qb.BuildCount()
	var total int
	if err := s.db.QueryRowContext(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, fmt.Errorf("count ledger objects: %w", err)
	}

	pageSQL, pageArgs := qb.BuildPage(page.Page, page.PageSize)
	items, err := repository.QueryMany(ctx, s.db, pageSQL, pageArgs, scanObject)
	if err != nil {
		return nil, fmt.Errorf("query ledger objects: %w", err)
	}

	result := pagination.NewPageResult(items, total, page.Page, page.PageSize)
	return &result, nil
}
