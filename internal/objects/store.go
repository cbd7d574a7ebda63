package objects

import (
	"context"

	"github.com/JaimeStill/attest/pkg/pagination"
)

// Store persists ledger objects.
type Store interface {
	Exists(ctx context.Context, address string) (bool, error)
	Get(ctx context.Context, address string) (*Object, error)
	Insert(ctx context.Context, o *Object) error
	List(ctx context.Context, page pagination.PageRequest, filters Filters) (*pagination.PageResult[Object], error)
}
