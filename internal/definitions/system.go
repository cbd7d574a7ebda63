package definitions

import (
	"context"

	"github.com/JaimeStill/attest/pkg/pagination"
)

// Reader is the read surface other domains use to resolve classification types.
type Reader interface {
	Find(ctx context.Context, typeName string) (*Definition, error)
}

// System defines the public contract for registry operations.
// Mutations take the caller address and enforce authorization themselves.
type System interface {
	Reader

	Handler() *Handler

	List(
		ctx context.Context,
		page pagination.PageRequest,
		filters Filters,
	) (*pagination.PageResult[Definition], error)

	FindBySpecLink(ctx context.Context, specLink string) (*Definition, error)
	Register(ctx context.Context, caller string, cmd Command) (*Definition, error)
	Replace(ctx context.Context, caller, typeName string, cmd Command) (*Definition, error)
	Toggle(ctx context.Context, caller, typeName string, cmd ToggleCommand) (*Definition, error)
	Delete(ctx context.Context, caller, typeName string) error
	AddVerifier(ctx context.Context, caller, typeName string, v Verifier) (*Definition, error)
	UpdateVerifier(ctx context.Context, caller, typeName string, v Verifier) (*Definition, error)
}
