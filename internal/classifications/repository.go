package classifications

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/JaimeStill/attest/pkg/pagination"
	"github.com/JaimeStill/attest/pkg/query"
	"github.com/JaimeStill/attest/pkg/repository"
)

type dbtx interface {
	repository.Querier
	repository.Executor
}

type postgresStore struct {
	db *sql.DB
	q  dbtx
	tx bool
}

// NewPostgresStore creates a TxStore backed by the classification_records and
// pending_disbursements tables.
func NewPostgresStore(db *sql.DB) TxStore {
	return &postgresStore{db: db, q: db}
}

func (s *postgresStore) RunInTx(ctx context.Context, fn func(Store) error) error {
	_, err := repository.WithTx(ctx, s.db, func(tx *sql.Tx) (struct{}, error) {
		return struct{}{}, fn(&postgresStore{db: s.db, q: tx, tx: true})
	})
	return err
}

func (s *postgresStore) Get(ctx context.Context, address, typeName string) (*Record, error) {
	q := fmt.Sprintf(
		"SELECT %s FROM %s WHERE %s = $1 AND %s = $2",
		projection.Columns(),
		projection.From(),
		projection.Column("ObjectAddress"),
		projection.Column("TypeName"),
	)
	if s.tx {
		q += " FOR UPDATE"
	}

	r, err := repository.QueryOne(ctx, s.q, q, []any{address, typeName}, scanRecord)
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrAlreadyOnboarded)
	}
	return &r, nil
}

func (s *postgresStore) GetAll(ctx context.Context, address string) ([]Record, error) {
	q := fmt.Sprintf(
		"SELECT %s FROM %s WHERE %s = $1 ORDER BY %s",
		projection.Columns(),
		projection.From(),
		projection.Column("ObjectAddress"),
		projection.Column("CreatedAt"),
	)

	records, err := repository.QueryMany(ctx, s.q, q, []any{address}, scanRecord)
	if err != nil {
		return nil, fmt.Errorf("query records for %s: %w", address, err)
	}
	return records, nil
}

func (s *postgresStore) Insert(ctx context.Context, r *Record) error {
	verifier, decision, defs, err := recordColumns(r)
	if err != nil {
		return err
	}

	insertQ := `
		INSERT INTO classification_records(
			object_address, type_name, asset_id, requestor, verifier_address,
			status, trust_verifier, verifier_config, decision, access_definitions,
			created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`

	_, err = s.q.ExecContext(ctx, insertQ,
		r.ObjectAddress, r.TypeName, r.AssetID, r.Requestor, r.VerifierAddress,
		string(r.Status), r.TrustVerifier, verifier, decision, defs,
		r.CreatedAt, r.UpdatedAt,
	)
	if err != nil {
		return repository.MapError(err, ErrNotFound, ErrAlreadyOnboarded)
	}
	return nil
}

func (s *postgresStore) Put(ctx context.Context, r *Record) error {
	verifier, decision, defs, err := recordColumns(r)
	if err != nil {
		return err
	}

	updateQ := `
		UPDATE classification_records SET
			requestor = $3,
			verifier_address = $4,
			status = $5,
			trust_verifier = $6,
			verifier_config = $7,
			decision = $8,
			access_definitions = $9,
			updated_at = $10
		WHERE object_address = $1 AND type_name = $2`

	err = repository.ExecExpectOne(ctx, s.q, updateQ,
		r.ObjectAddress, r.TypeName, r.Requestor, r.VerifierAddress,
		string(r.Status), r.TrustVerifier, verifier, decision, defs, r.UpdatedAt,
	)
	return repository.MapError(err, ErrNotFound, ErrAlreadyOnboarded)
}

func recordColumns(r *Record) (verifier, decision, defs []byte, err error) {
	if verifier, err = nullableJSON(r.VerifierConfig); err != nil {
		return nil, nil, nil, fmt.Errorf("marshal verifier_config: %w", err)
	}
	if decision, err = nullableJSON(r.Decision); err != nil {
		return nil, nil, nil, fmt.Errorf("marshal decision: %w", err)
	}
	if defs, err = json.Marshal(r.AccessDefinitions); err != nil {
		return nil, nil, nil, fmt.Errorf("marshal access_definitions: %w", err)
	}
	return verifier, decision, defs, nil
}

func (s *postgresStore) Delete(ctx context.Context, address, typeName string) error {
	err := repository.ExecExpectOne(ctx, s.q,
		"DELETE FROM classification_records WHERE object_address = $1 AND type_name = $2",
		address, typeName,
	)
	return repository.MapError(err, ErrNotFound, ErrAlreadyOnboarded)
}

func (s *postgresStore) GetPending(ctx context.Context, address, typeName string) (*Pending, error) {
	q := `
		SELECT object_address, type_name, plan, created_at
		FROM pending_disbursements
		WHERE object_address = $1 AND type_name = $2`

	p, err := repository.QueryOne(ctx, s.q, q, []any{address, typeName}, scanPending)
	if err != nil {
		return nil, repository.MapError(err, ErrPendingNotFound, ErrAlreadyOnboarded)
	}
	return &p, nil
}

func (s *postgresStore) PutPending(ctx context.Context, p *Pending) error {
	plan, err := json.Marshal(p.Plan)
	if err != nil {
		return fmt.Errorf("marshal plan: %w", err)
	}

	upsertQ := `
		INSERT INTO pending_disbursements(object_address, type_name, plan, created_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (object_address, type_name) DO UPDATE SET
			plan = EXCLUDED.plan,
			created_at = EXCLUDED.created_at`

	if _, err := s.q.ExecContext(ctx, upsertQ, p.ObjectAddress, p.TypeName, plan, p.CreatedAt); err != nil {
		return fmt.Errorf("upsert pending disbursement: %w", err)
	}
	return nil
}

func (s *postgresStore) DeletePending(ctx context.Context, address, typeName string) error {
	err := repository.ExecExpectOne(ctx, s.q,
		"DELETE FROM pending_disbursements WHERE object_address = $1 AND type_name = $2",
		address, typeName,
	)
	return repository.MapError(err, ErrPendingNotFound, ErrAlreadyOnboarded)
}

func (s *postgresStore) List(
	ctx context.Context,
	page pagination.PageRequest,
	filters Filters,
) (*pagination.PageResult[Record], error) {
	qb := query.
		NewBuilder(projection, defaultSort).
		WhereSearch(page.Search, "ObjectAddress", "TypeName", "Requestor")

	filters.Apply(qb)

	if len(page.Sort) > 0 {
		qb.OrderByFields(page.Sort)
	}

	countSQL, countArgs := qb.BuildCount()
	var total int
	if err := s.q.QueryRowContext(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, fmt.Errorf("count records: %w", err)
	}

	pageSQL, pageArgs := qb.BuildPage(page.Page, page.PageSize)
	items, err := repository.QueryMany(ctx, s.q, pageSQL, pageArgs, scanRecord)
	if err != nil {
		return nil, fmt.Errorf("query records: %w", err)
	}

	result := pagination.NewPageResult(items, total, page.Page, page.PageSize)
	return &result, nil
}

// nullableJSON marshals v, mapping a nil pointer to SQL NULL.
func nullableJSON[T any](v *T) ([]byte, error) {
	if v == nil {
		return nil, nil
	}
	return json.Marshal(v)
}
