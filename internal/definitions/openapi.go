package definitions

import (
	"github.com/JaimeStill/attest/internal/authz"
	"github.com/JaimeStill/attest/pkg/openapi"
)

type spec struct {
	List           *openapi.Operation
	Find           *openapi.Operation
	FindBySpecLink *openapi.Operation
	Register       *openapi.Operation
	Replace        *openapi.Operation
	Toggle         *openapi.Operation
	Delete         *openapi.Operation
	AddVerifier    *openapi.Operation
	UpdateVerifier *openapi.Operation
}

var (
	callerParam = openapi.HeaderParam(authz.CallerHeader, "Address of the calling account")
	typeParam   = openapi.PathParam("type", "Classification type name")
)

// Spec documents the registry endpoints.
var Spec = spec{
	List: &openapi.Operation{
		Summary: "List definitions",
		Parameters: append(openapi.PageParams(),
			openapi.QueryParam("enabled", "boolean", "Filter by enabled flag", false),
			openapi.QueryParam("verifier", "string", "Filter by registered verifier address", false),
		),
		Responses: map[int]*openapi.Response{
			200: openapi.ResponseJSON("Page of definitions", openapi.SchemaRef("PageResult")),
		},
	},
	Find: &openapi.Operation{
		Summary:    "Find a definition by type name",
		Parameters: []*openapi.Parameter{typeParam},
		Responses: map[int]*openapi.Response{
			200: openapi.ResponseJSON("Definition", openapi.SchemaRef("Definition")),
			404: openapi.ResponseRef("NotFound"),
		},
	},
	FindBySpecLink: &openapi.Operation{
		Summary:    "Find a definition by specification link",
		Parameters: []*openapi.Parameter{openapi.QueryParam("link", "string", "Specification link, matched case-insensitively", true)},
		Responses: map[int]*openapi.Response{
			200: openapi.ResponseJSON("Definition", openapi.SchemaRef("Definition")),
			400: openapi.ResponseRef("BadRequest"),
			404: openapi.ResponseRef("NotFound"),
		},
	},
	Register: &openapi.Operation{
		Summary:     "Register a definition",
		Description: "Admin only.",
		Parameters:  []*openapi.Parameter{callerParam},
		RequestBody: openapi.RequestBodyJSON("DefinitionCommand", true),
		Responses: map[int]*openapi.Response{
			201: openapi.ResponseJSON("Registered definition", openapi.SchemaRef("Definition")),
			400: openapi.ResponseRef("BadRequest"),
			403: openapi.ResponseRef("Forbidden"),
			409: openapi.ResponseRef("Conflict"),
		},
	},
	Replace: &openapi.Operation{
		Summary:     "Replace a definition",
		Description: "Admin only. The type name cannot change.",
		Parameters:  []*openapi.Parameter{callerParam, typeParam},
		RequestBody: openapi.RequestBodyJSON("DefinitionCommand", true),
		Responses: map[int]*openapi.Response{
			200: openapi.ResponseJSON("Updated definition", openapi.SchemaRef("Definition")),
			400: openapi.ResponseRef("BadRequest"),
			403: openapi.ResponseRef("Forbidden"),
			404: openapi.ResponseRef("NotFound"),
			409: openapi.ResponseRef("Conflict"),
		},
	},
	Toggle: &openapi.Operation{
		Summary:     "Flip the enabled flag",
		Description: "Admin only. When expected is set the flipped value must equal it.",
		Parameters:  []*openapi.Parameter{callerParam, typeParam},
		RequestBody: openapi.RequestBodyJSON("ToggleCommand", false),
		Responses: map[int]*openapi.Response{
			200: openapi.ResponseJSON("Updated definition", openapi.SchemaRef("Definition")),
			403: openapi.ResponseRef("Forbidden"),
			404: openapi.ResponseRef("NotFound"),
			409: openapi.ResponseRef("Conflict"),
		},
	},
	Delete: &openapi.Operation{
		Summary:     "Delete a definition",
		Description: "Admin only.",
		Parameters:  []*openapi.Parameter{callerParam, typeParam},
		Responses: map[int]*openapi.Response{
			204: {Description: "Definition deleted"},
			403: openapi.ResponseRef("Forbidden"),
			404: openapi.ResponseRef("NotFound"),
		},
	},
	AddVerifier: &openapi.Operation{
		Summary:     "Add a verifier",
		Description: "Admin only.",
		Parameters:  []*openapi.Parameter{callerParam, typeParam},
		RequestBody: openapi.RequestBodyJSON("Verifier", true),
		Responses: map[int]*openapi.Response{
			201: openapi.ResponseJSON("Updated definition", openapi.SchemaRef("Definition")),
			400: openapi.ResponseRef("BadRequest"),
			403: openapi.ResponseRef("Forbidden"),
			404: openapi.ResponseRef("NotFound"),
			409: openapi.ResponseRef("Conflict"),
		},
	},
	UpdateVerifier: &openapi.Operation{
		Summary:     "Update a verifier",
		Description: "Admin only. The body address must match the path.",
		Parameters: []*openapi.Parameter{
			callerParam,
			typeParam,
			openapi.PathParam("address", "Verifier address"),
		},
		RequestBody: openapi.RequestBodyJSON("Verifier", true),
		Responses: map[int]*openapi.Response{
			200: openapi.ResponseJSON("Updated definition", openapi.SchemaRef("Definition")),
			400: openapi.ResponseRef("BadRequest"),
			403: openapi.ResponseRef("Forbidden"),
			404: openapi.ResponseRef("NotFound"),
		},
	},
}

// Schemas returns the component schemas referenced by the registry operations.
func (spec) Schemas() map[string]*openapi.Schema {
	costSchedule := &openapi.Schema{
		Type: "object",
		Properties: map[string]*openapi.Schema{
			"total": {Type: "integer", Description: "Charged to the requestor. Half is disbursed."},
			"fee_destinations": {Type: "array", Items: &openapi.Schema{
				Type: "object",
				Properties: map[string]*openapi.Schema{
					"address":       {Type: "string"},
					"amount":        {Type: "integer"},
					"entity_detail": openapi.SchemaRef("EntityDetail"),
				},
				Required: []string{"address", "amount"},
			}},
		},
		Required: []string{"total"},
	}

	return map[string]*openapi.Schema{
		"EntityDetail": {
			Type: "object",
			Properties: map[string]*openapi.Schema{
				"name":        {Type: "string"},
				"description": {Type: "string"},
				"home_url":    {Type: "string"},
				"source_url":  {Type: "string"},
			},
		},
		"CostSchedule": costSchedule,
		"Verifier": {
			Type: "object",
			Properties: map[string]*openapi.Schema{
				"address":      {Type: "string"},
				"default_cost": openapi.SchemaRef("CostSchedule"),
				"retry_cost":   openapi.SchemaRef("CostSchedule"),
				"subsequent_cost": {
					Type: "object",
					Properties: map[string]*openapi.Schema{
						"cost":                openapi.SchemaRef("CostSchedule"),
						"allowed_prior_types": {Type: "array", Items: &openapi.Schema{Type: "string"}},
					},
				},
				"entity_detail": openapi.SchemaRef("EntityDetail"),
			},
			Required: []string{"address", "default_cost"},
		},
		"Definition": {
			Type: "object",
			Properties: map[string]*openapi.Schema{
				"type_name":    {Type: "string", Example: "heloc"},
				"spec_link":    {Type: "string"},
				"display_name": {Type: "string"},
				"verifiers":    openapi.ArrayOf("Verifier"),
				"enabled":      {Type: "boolean"},
				"created_at":   {Type: "string", Format: "date-time"},
				"updated_at":   {Type: "string", Format: "date-time"},
			},
		},
		"DefinitionCommand": {
			Type: "object",
			Properties: map[string]*openapi.Schema{
				"type_name":    {Type: "string"},
				"spec_link":    {Type: "string"},
				"display_name": {Type: "string"},
				"verifiers":    openapi.ArrayOf("Verifier"),
				"enabled":      {Type: "boolean", Default: true},
			},
			Required: []string{"type_name", "spec_link", "verifiers"},
		},
		"ToggleCommand": {
			Type:       "object",
			Properties: map[string]*openapi.Schema{"expected": {Type: "boolean"}},
		},
	}
}
