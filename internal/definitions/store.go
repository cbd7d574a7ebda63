package definitions

import (
	"context"

	"github.com/JaimeStill/attest/pkg/pagination"
)

// Store persists definitions. Get and GetBySpecLink return ErrNotFound when
// absent; Insert and Update return ErrDuplicateType or ErrDuplicateSpecLink on
// key collisions.
type Store interface {
	Get(ctx context.Context, typeName string) (*Definition, error)
	GetBySpecLink(ctx context.Context, specLink string) (*Definition, error)
	Insert(ctx context.Context, d *Definition) error
	Update(ctx context.Context, d *Definition) error
	Delete(ctx context.Context, typeName string) error
	List(ctx context.Context, page pagination.PageRequest, filters Filters) (*pagination.PageResult[Definition], error)
}

// TxStore runs a unit of work against a Store atomically.
type TxStore interface {
	Store
	RunInTx(ctx context.Context, fn func(s Store) error) error
}

// Cache is the read-through cache in front of Find. Incr atomically bumps an
// integer counter stored at key, starting from zero.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte) error
	Incr(ctx context.Context, key string) (int64, error)
}
