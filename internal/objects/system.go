package objects

import (
	"context"

	"github.com/JaimeStill/attest/internal/ledger"
	"github.com/JaimeStill/attest/pkg/pagination"
)

// System defines the public contract for ledger object operations.
type System interface {
	Handler() *Handler

	List(ctx context.Context, page pagination.PageRequest, filters Filters) (*pagination.PageResult[Object], error)
	Find(ctx context.Context, id ledger.Identifier) (*Object, error)
	Register(ctx context.Context, caller string, cmd RegisterCommand) (*Object, error)
}
