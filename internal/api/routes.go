package api

import (
	"fmt"
	"net/http"

	"github.com/JaimeStill/attest/internal/config"
	"github.com/JaimeStill/attest/internal/settlement"
	"github.com/JaimeStill/attest/pkg/openapi"
	"github.com/JaimeStill/attest/pkg/routes"
)

func registerRoutes(mux *http.ServeMux, cfg *config.Config, domain *Domain, runtime *Runtime) error {
	groups := []routes.Group{
		domain.Definitions.Handler().Routes(),
		domain.Objects.Handler().Routes(),
		domain.Classifications.Handler().Routes(),
	}
	if runtime.Settlements != nil {
		groups = append(groups, settlement.NewHandler(runtime.Settlements, runtime.Logger).Routes())
	}

	routes.Register(mux, groups...)

	spec := openapi.NewSpec(cfg.API.OpenAPI, cfg.Version)
	spec.AddServer(cfg.API.BasePath)
	routes.Document(spec, groups...)

	specBytes, err := openapi.MarshalJSON(spec)
	if err != nil {
		return fmt.Errorf("marshal openapi document: %w", err)
	}
	mux.HandleFunc("GET /openapi.json", openapi.ServeSpec(specBytes))

	return nil
}
