package classifications

import (
	"context"

	"github.com/JaimeStill/attest/internal/ledger"
	"github.com/JaimeStill/attest/pkg/pagination"
)

// System defines the public contract for classification operations. Every
// mutation takes the caller address and runs as a single unit of work.
type System interface {
	Handler() *Handler

	List(
		ctx context.Context,
		page pagination.PageRequest,
		filters Filters,
	) (*pagination.PageResult[Record], error)

	Find(ctx context.Context, id ledger.Identifier, typeName string) (*Record, error)
	FindAll(ctx context.Context, id ledger.Identifier) ([]Record, error)
	FindPending(ctx context.Context, id ledger.Identifier, typeName string) (*Pending, error)

	Onboard(ctx context.Context, caller string, cmd OnboardCommand) (*Record, error)
	Decide(ctx context.Context, caller string, cmd DecideCommand) (*Record, error)
	Finalize(ctx context.Context, caller string, cmd FinalizeCommand) (*Record, error)
	UpdateAccessRoutes(ctx context.Context, caller string, cmd UpdateRoutesCommand) (*Record, error)
}
