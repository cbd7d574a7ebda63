package settlement

import (
	"log/slog"
	"net/http"

	"github.com/JaimeStill/attest/pkg/handlers"
	"github.com/JaimeStill/attest/pkg/openapi"
	"github.com/JaimeStill/attest/pkg/routes"
	"github.com/JaimeStill/attest/pkg/storage"
)

// Handler exposes recorded disbursement instructions.
type Handler struct {
	reader Reader
	logger *slog.Logger
}

func NewHandler(reader Reader, logger *slog.Logger) *Handler {
	return &Handler{
		reader: reader,
		logger: logger.With("handler", "settlement"),
	}
}

var listOperation = &openapi.Operation{
	Summary: "List disbursement instructions for a classification",
	Parameters: []*openapi.Parameter{
		openapi.PathParam("address", "Object scope address"),
		openapi.PathParam("type", "Classification type name"),
	},
	Responses: map[int]*openapi.Response{
		200: openapi.ResponseJSON("Instructions, oldest first", openapi.ArrayOf("Instruction")),
		404: openapi.ResponseRef("NotFound"),
	},
}

func (h *Handler) Routes() routes.Group {
	return routes.Group{
		Prefix: "/settlements",
		Tags:   []string{"Settlements"},
		Schemas: map[string]*openapi.Schema{
			"Instruction": {
				Type: "object",
				Properties: map[string]*openapi.Schema{
					"id":        {Type: "string", Format: "uuid"},
					"plan":      openapi.SchemaRef("Plan"),
					"total":     {Type: "integer"},
					"issued_at": {Type: "string", Format: "date-time"},
				},
			},
		},
		Routes: []routes.Route{
			{Method: "GET", Pattern: "/{address}/{type}", Handler: h.List, OpenAPI: listOperation},
		},
	}
}

// List returns the instructions written for a classification, oldest first.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	address := r.PathValue("address")
	typeName := r.PathValue("type")

	if err := storage.ValidateKey(address + "/" + typeName); err != nil {
		handlers.RespondError(w, h.logger, storage.MapHTTPStatus(err), err)
		return
	}

	items, err := h.reader.Instructions(r.Context(), address, typeName)
	if err != nil {
		handlers.RespondError(w, h.logger, storage.MapHTTPStatus(err), err)
		return
	}
	if items == nil {
		items = []Instruction{}
	}

	handlers.RespondJSON(w, http.StatusOK, items)
}
