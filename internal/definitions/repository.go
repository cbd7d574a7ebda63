package definitions

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/JaimeStill/attest/pkg/pagination"
	"github.com/JaimeStill/attest/pkg/query"
	"github.com/JaimeStill/attest/pkg/repository"
)

const specLinkConstraint = "definitions_spec_link_key"

type dbtx interface {
	repository.Querier
	repository.Executor
}

type postgresStore struct {
	db *sql.DB
	q  dbtx
}

// NewPostgresStore creates a TxStore backed by the definitions table.
func NewPostgresStore(db *sql.DB) TxStore {
	return &postgresStore{db: db, q: db}
}

func (s *postgresStore) RunInTx(ctx context.Context, fn func(Store) error) error {
	_, err := repository.WithTx(ctx, s.db, func(tx *sql.Tx) (struct{}, error) {
		return struct{}{}, fn(&postgresStore{db: s.db, q: tx})
	})
	return err
}

func (s *postgresStore) Get(ctx context.Context, typeName string) (*Definition, error) {
	q, args := query.NewBuilder(projection).BuildSingle("TypeName", typeName)

	d, err := repository.QueryOne(ctx, s.q, q, args, scanDefinition)
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicateType)
	}
	return &d, nil
}

func (s *postgresStore) GetBySpecLink(ctx context.Context, specLink string) (*Definition, error) {
	q := fmt.Sprintf(
		"SELECT %s FROM %s WHERE lower(%s) = lower($1)",
		projection.Columns(),
		projection.From(),
		projection.Column("SpecLink"),
	)

	d, err := repository.QueryOne(ctx, s.q, q, []any{specLink}, scanDefinition)
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicateSpecLink)
	}
	return &d, nil
}

func (s *postgresStore) Insert(ctx context.Context, d *Definition) error {
	verifiers, err := json.Marshal(d.Verifiers)
	if err != nil {
		return fmt.Errorf("marshal verifiers: %w", err)
	}

	insertQ := `
		INSERT INTO definitions(
			type_name, spec_link, display_name, verifiers,
			enabled, created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err = s.q.ExecContext(ctx, insertQ,
		d.TypeName, d.SpecLink, d.DisplayName, verifiers,
		d.Enabled, d.CreatedAt, d.UpdatedAt,
	)
	return mapWriteError(err)
}

func (s *postgresStore) Update(ctx context.Context, d *Definition) error {
	verifiers, err := json.Marshal(d.Verifiers)
	if err != nil {
		return fmt.Errorf("marshal verifiers: %w", err)
	}

	updateQ := `
		UPDATE definitions
		SET spec_link = $2, display_name = $3, verifiers = $4,
			enabled = $5, updated_at = $6
		WHERE type_name = $1`

	err = repository.ExecExpectOne(ctx, s.q, updateQ,
		d.TypeName, d.SpecLink, d.DisplayName, verifiers,
		d.Enabled, d.UpdatedAt,
	)
	return mapWriteError(err)
}

func (s *postgresStore) Delete(ctx context.Context, typeName string) error {
	err := repository.ExecExpectOne(ctx, s.q,
		"DELETE FROM definitions WHERE type_name = $1",
		typeName,
	)
	return repository.MapError(err, ErrNotFound, ErrDuplicateType)
}

func (s *postgresStore) List(
	ctx context.Context,
	page pagination.PageRequest,
	filters Filters,
) (*pagination.PageResult[Definition], error) {
	qb := query.
		NewBuilder(projection, defaultSort).
		WhereSearch(page.Search, "TypeName", "SpecLink", "DisplayName")

	filters.Apply(qb)

	if len(page.Sort) > 0 {
		qb.OrderByFields(page.Sort)
	}

	countSQL, countArgs := qb.BuildCount()
	var total int
	if err := s.q.QueryRowContext(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, fmt.Errorf("count definitions: %w", err)
	}

	pageSQL, pageArgs := qb.BuildPage(page.Page, page.PageSize)
	items, err := repository.QueryMany(ctx, s.q, pageSQL, pageArgs, scanDefinition)
	if err != nil {
		return nil, fmt.Errorf("query definitions: %w", err)
	}

	result := pagination.NewPageResult(items, total, page.Page, page.PageSize)
	return &result, nil
}

func mapWriteError(err error) error {
	if err == nil {
		return nil
	}
	if constraint, ok := repository.DuplicateConstraint(err); ok {
		if constraint == specLinkConstraint {
			return ErrDuplicateSpecLink
		}
		return ErrDuplicateType
	}
	return repository.MapError(err, ErrNotFound, ErrDuplicateType)
}
