package classifications

import (
	"github.com/JaimeStill/attest/internal/authz"
	"github.com/JaimeStill/attest/pkg/openapi"
)

type spec struct {
	List               *openapi.Operation
	FindAll            *openapi.Operation
	Find               *openapi.Operation
	FindPending        *openapi.Operation
	Onboard            *openapi.Operation
	Decide             *openapi.Operation
	Finalize           *openapi.Operation
	UpdateAccessRoutes *openapi.Operation
}

var (
	callerParam    = openapi.HeaderParam(authz.CallerHeader, "Address of the calling account")
	kindParam      = openapi.EnumPathParam("kind", "Identifier kind", "asset", "address")
	valueParam     = openapi.PathParam("value", "Asset UUID or scope address")
	typeParam      = openapi.PathParam("type", "Classification type name")
	mutationErrors = map[int]*openapi.Response{
		400: openapi.ResponseRef("BadRequest"),
		403: openapi.ResponseRef("Forbidden"),
		404: openapi.ResponseRef("NotFound"),
		409: openapi.ResponseRef("Conflict"),
	}
)

func withErrors(responses map[int]*openapi.Response) map[int]*openapi.Response {
	for code, r := range mutationErrors {
		if _, ok := responses[code]; !ok {
			responses[code] = r
		}
	}
	return responses
}

// Spec documents the onboarding endpoints.
var Spec = spec{
	List: &openapi.Operation{
		Summary: "List classification records",
		Parameters: append(openapi.PageParams(),
			openapi.QueryParam("type_name", "string", "Filter by classification type", false),
			openapi.QueryParam("status", "string", "Filter by onboarding status", false),
			openapi.QueryParam("verifier", "string", "Filter by bound verifier", false),
			openapi.QueryParam("requestor", "string", "Filter by requestor", false),
		),
		Responses: map[int]*openapi.Response{
			200: openapi.ResponseJSON("Page of records", openapi.SchemaRef("PageResult")),
		},
	},
	FindAll: &openapi.Operation{
		Summary:    "List every record for an object",
		Parameters: []*openapi.Parameter{kindParam, valueParam},
		Responses: map[int]*openapi.Response{
			200: openapi.ResponseJSON("Records, oldest first", openapi.ArrayOf("Record")),
			400: openapi.ResponseRef("BadRequest"),
			404: openapi.ResponseRef("NotFound"),
		},
	},
	Find: &openapi.Operation{
		Summary:    "Find the record for an object and type",
		Parameters: []*openapi.Parameter{kindParam, valueParam, typeParam},
		Responses: map[int]*openapi.Response{
			200: openapi.ResponseJSON("Record", openapi.SchemaRef("Record")),
			400: openapi.ResponseRef("BadRequest"),
			404: openapi.ResponseRef("NotFound"),
		},
	},
	FindPending: &openapi.Operation{
		Summary:    "Find the held disbursement for an undecided record",
		Parameters: []*openapi.Parameter{kindParam, valueParam, typeParam},
		Responses: map[int]*openapi.Response{
			200: openapi.ResponseJSON("Pending disbursement", openapi.SchemaRef("Pending")),
			400: openapi.ResponseRef("BadRequest"),
			404: openapi.ResponseRef("NotFound"),
		},
	},
	Onboard: &openapi.Operation{
		Summary:     "Request classification of an object",
		Description: "The caller becomes the requestor. The applicable cost is computed and held until the verifier decides.",
		Parameters:  []*openapi.Parameter{callerParam},
		RequestBody: openapi.RequestBodyJSON("OnboardCommand", true),
		Responses: withErrors(map[int]*openapi.Response{
			201: openapi.ResponseJSON("Pending record", openapi.SchemaRef("Record")),
		}),
	},
	Decide: &openapi.Operation{
		Summary:     "Record the verifier's decision",
		Description: "Bound verifier only. Releases the held disbursement unless the requestor asked to finalize.",
		Parameters:  []*openapi.Parameter{callerParam},
		RequestBody: openapi.RequestBodyJSON("DecideCommand", true),
		Responses: withErrors(map[int]*openapi.Response{
			200: openapi.ResponseJSON("Decided record", openapi.SchemaRef("Record")),
		}),
	},
	Finalize: &openapi.Operation{
		Summary:     "Finalize a held decision",
		Description: "Requestor only. Valid while the record awaits finalization.",
		Parameters:  []*openapi.Parameter{callerParam},
		RequestBody: openapi.RequestBodyJSON("FinalizeCommand", true),
		Responses: withErrors(map[int]*openapi.Response{
			200: openapi.ResponseJSON("Finalized record", openapi.SchemaRef("Record")),
		}),
	},
	UpdateAccessRoutes: &openapi.Operation{
		Summary:     "Replace an owner's access routes",
		Description: "The caller must be the route owner or the admin. The owner must already have an access definition.",
		Parameters:  []*openapi.Parameter{callerParam},
		RequestBody: openapi.RequestBodyJSON("UpdateRoutesCommand", true),
		Responses: withErrors(map[int]*openapi.Response{
			200: openapi.ResponseJSON("Updated record", openapi.SchemaRef("Record")),
		}),
	},
}

// Schemas returns the component schemas referenced by the onboarding operations.
func (spec) Schemas() map[string]*openapi.Schema {
	route := &openapi.Schema{
		Type: "object",
		Properties: map[string]*openapi.Schema{
			"route": {Type: "string"},
			"name":  {Type: "string"},
		},
		Required: []string{"route"},
	}
	routes := &openapi.Schema{Type: "array", Items: openapi.SchemaRef("AccessRoute")}
	identified := func(props map[string]*openapi.Schema, required ...string) *openapi.Schema {
		props["identifier"] = openapi.SchemaRef("Identifier")
		props["type_name"] = &openapi.Schema{Type: "string"}
		return &openapi.Schema{
			Type:       "object",
			Properties: props,
			Required:   append([]string{"identifier", "type_name"}, required...),
		}
	}

	return map[string]*openapi.Schema{
		"AccessRoute": route,
		"AccessDefinition": {
			Type: "object",
			Properties: map[string]*openapi.Schema{
				"owner_address": {Type: "string"},
				"routes":        routes,
				"origin":        {Type: "string", Enum: []any{"requestor", "verifier"}},
			},
		},
		"Record": {
			Type: "object",
			Properties: map[string]*openapi.Schema{
				"asset_id":         {Type: "string", Format: "uuid"},
				"object_address":   {Type: "string"},
				"type_name":        {Type: "string"},
				"requestor":        {Type: "string"},
				"verifier_address": {Type: "string"},
				"status": {Type: "string", Enum: []any{
					string(StatusPending),
					string(StatusDenied),
					string(StatusApproved),
					string(StatusAwaitingFinalization),
				}},
				"trust_verifier":  {Type: "boolean"},
				"verifier_config": openapi.SchemaRef("Verifier"),
				"decision": {
					Type: "object",
					Properties: map[string]*openapi.Schema{
						"success":    {Type: "boolean"},
						"message":    {Type: "string"},
						"decided_at": {Type: "string", Format: "date-time"},
					},
				},
				"access_definitions": openapi.ArrayOf("AccessDefinition"),
				"created_at":         {Type: "string", Format: "date-time"},
				"updated_at":         {Type: "string", Format: "date-time"},
			},
		},
		"Plan": {
			Type: "object",
			Properties: map[string]*openapi.Schema{
				"subject_id": {Type: "string"},
				"type_name":  {Type: "string"},
				"payments": {Type: "array", Items: &openapi.Schema{
					Type: "object",
					Properties: map[string]*openapi.Schema{
						"amount":    {Type: "integer"},
						"recipient": {Type: "string"},
						"label":     {Type: "string"},
						"kind":      {Type: "string"},
					},
				}},
			},
		},
		"Pending": {
			Type: "object",
			Properties: map[string]*openapi.Schema{
				"object_address": {Type: "string"},
				"type_name":      {Type: "string"},
				"plan":           openapi.SchemaRef("Plan"),
				"created_at":     {Type: "string", Format: "date-time"},
			},
		},
		"OnboardCommand": identified(map[string]*openapi.Schema{
			"verifier_address": {Type: "string"},
			"access_routes":    routes,
			"trust_verifier":   {Type: "boolean", Default: true},
		}, "verifier_address"),
		"DecideCommand": identified(map[string]*openapi.Schema{
			"success":       {Type: "boolean"},
			"message":       {Type: "string"},
			"access_routes": routes,
		}, "success"),
		"FinalizeCommand": identified(map[string]*openapi.Schema{}),
		"UpdateRoutesCommand": identified(map[string]*openapi.Schema{
			"owner_address": {Type: "string"},
			"access_routes": routes,
		}, "owner_address", "access_routes"),
	}
}
