package objects

import (
	"github.com/JaimeStill/attest/internal/authz"
	"github.com/JaimeStill/attest/pkg/openapi"
)

type spec struct {
	List     *openapi.Operation
	Find     *openapi.Operation
	Register *openapi.Operation
}

// Spec documents the object endpoints.
var Spec = spec{
	List: &openapi.Operation{
		Summary: "List ledger objects",
		Parameters: append(openapi.PageParams(),
			openapi.QueryParam("owner", "string", "Filter by owner address", false),
		),
		Responses: map[int]*openapi.Response{
			200: openapi.ResponseJSON("Page of objects", openapi.SchemaRef("PageResult")),
		},
	},
	Find: &openapi.Operation{
		Summary: "Find a ledger object",
		Parameters: []*openapi.Parameter{
			openapi.EnumPathParam("kind", "Identifier kind", "asset", "address"),
			openapi.PathParam("value", "Asset UUID or scope address"),
		},
		Responses: map[int]*openapi.Response{
			200: openapi.ResponseJSON("Object", openapi.SchemaRef("Object")),
			400: openapi.ResponseRef("BadRequest"),
			404: openapi.ResponseRef("NotFound"),
		},
	},
	Register: &openapi.Operation{
		Summary:     "Register a ledger object",
		Description: "Admin only. Derives the scope address from the asset UUID.",
		Parameters:  []*openapi.Parameter{openapi.HeaderParam(authz.CallerHeader, "Address of the calling account")},
		RequestBody: openapi.RequestBodyJSON("RegisterObject", true),
		Responses: map[int]*openapi.Response{
			201: openapi.ResponseJSON("Registered object", openapi.SchemaRef("Object")),
			400: openapi.ResponseRef("BadRequest"),
			403: openapi.ResponseRef("Forbidden"),
			409: openapi.ResponseRef("Conflict"),
		},
	},
}

// Schemas returns the component schemas referenced by the object operations.
func (spec) Schemas() map[string]*openapi.Schema {
	return map[string]*openapi.Schema{
		"Object": {
			Type: "object",
			Properties: map[string]*openapi.Schema{
				"address":    {Type: "string", Example: "scope1qzj7t2pgnfyprmypjvtnrltr66nqd4c3cq"},
				"asset_id":   {Type: "string", Format: "uuid"},
				"owner":      {Type: "string"},
				"created_at": {Type: "string", Format: "date-time"},
			},
		},
		"RegisterObject": {
			Type: "object",
			Properties: map[string]*openapi.Schema{
				"asset_id": {Type: "string", Format: "uuid"},
				"owner":    {Type: "string"},
			},
			Required: []string{"asset_id", "owner"},
		},
		"Identifier": {
			Type: "object",
			Properties: map[string]*openapi.Schema{
				"type":  {Type: "string", Enum: []any{"asset_uuid", "ledger_address"}},
				"value": {Type: "string"},
			},
			Required: []string{"type", "value"},
		},
	}
}
