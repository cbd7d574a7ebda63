package openapi

import "maps"

// NewComponents creates Components holding the shared page envelope, the
// error body, and one response per error status the API returns.
func NewComponents() *Components {
	return &Components{
		Schemas: map[string]*Schema{
			"Error": {
				Type:       "object",
				Properties: map[string]*Schema{"error": {Type: "string"}},
				Required:   []string{"error"},
			},
			"PageResult": {
				Type: "object",
				Properties: map[string]*Schema{
					"data":        {Type: "array", Items: &Schema{Type: "object"}},
					"total":       {Type: "integer"},
					"page":        {Type: "integer"},
					"page_size":   {Type: "integer"},
					"total_pages": {Type: "integer"},
				},
			},
		},
		Responses: map[string]*Response{
			"BadRequest": errorResponse("Invalid request"),
			"Forbidden":  errorResponse("Caller is not permitted to perform the operation"),
			"NotFound":   errorResponse("Resource not found"),
			"Conflict":   errorResponse("Operation conflicts with current state"),
		},
	}
}

func errorResponse(description string) *Response {
	return &Response{
		Description: description,
		Content: map[string]*MediaType{
			"application/json": {Schema: SchemaRef("Error")},
		},
	}
}

// AddSchemas merges the given schemas into the component schemas.
func (c *Components) AddSchemas(schemas map[string]*Schema) {
	maps.Copy(c.Schemas, schemas)
}

// AddResponses merges the given responses into the component responses.
func (c *Components) AddResponses(responses map[string]*Response) {
	maps.Copy(c.Responses, responses)
}
