package classifications

import (
	"context"

	"github.com/JaimeStill/attest/pkg/pagination"
)

// Store persists records and pending disbursements. Get and GetPending return
// ErrNotFound and ErrPendingNotFound when absent. Insert creates a record and
// returns ErrAlreadyOnboarded when one exists for the pair; Put overwrites an
// existing record and returns ErrNotFound otherwise.
//
// Inside RunInTx, Get locks the returned record until the unit of work ends.
type Store interface {
	Get(ctx context.Context, address, typeName string) (*Record, error)
	GetAll(ctx context.Context, address string) ([]Record, error)
	Insert(ctx context.Context, r *Record) error
	Put(ctx context.Context, r *Record) error
	Delete(ctx context.Context, address, typeName string) error
	GetPending(ctx context.Context, address, typeName string) (*Pending, error)
	PutPending(ctx context.Context, p *Pending) error
	DeletePending(ctx context.Context, address, typeName string) error
	List(ctx context.Context, page pagination.PageRequest, filters Filters) (*pagination.PageResult[Record], error)
}

// TxStore runs a unit of work against a Store atomically.
type TxStore interface {
	Store
	RunInTx(ctx context.Context, fn func(s Store) error) error
}
