package api

import (
	"github.com/JaimeStill/attest/internal/classifications"
	"github.com/JaimeStill/attest/internal/definitions"
	"github.com/JaimeStill/attest/internal/objects"
)

// Domain holds all domain systems that comprise the API.
type Domain struct {
	Definitions     definitions.System
	Objects         objects.System
	Classifications classifications.System
}

// NewDomain creates all domain systems from the API runtime.
func NewDomain(runtime *Runtime) *Domain {
	db := runtime.Database.Connection()

	definitionsSystem := definitions.New(
		definitions.NewPostgresStore(db),
		runtime.Oracle,
		runtime.Cache,
		runtime.Events,
		runtime.Metrics,
		runtime.Logger,
		runtime.Pagination,
	)

	objectStore := objects.NewPostgresStore(db)
	objectsSystem := objects.New(
		objectStore,
		runtime.Codec,
		runtime.Oracle,
		runtime.Events,
		runtime.Logger,
		runtime.Pagination,
	)

	classificationsSystem := classifications.New(
		classifications.NewPostgresStore(db),
		classifications.Runtime{
			Definitions: definitionsSystem,
			Objects:     objectStore,
			Codec:       runtime.Codec,
			Rail:        runtime.Rail,
			Oracle:      runtime.Oracle,
			Events:      runtime.Events,
			Metrics:     runtime.Metrics,
		},
		runtime.Logger,
		runtime.Pagination,
	)

	return &Domain{
		Definitions:     definitionsSystem,
		Objects:         objectsSystem,
		Classifications: classificationsSystem,
	}
}
