package routes

import (
	"net/http"

	"github.com/JaimeStill/attest/pkg/openapi"
)

// Group organizes routes under a common prefix with shared tags.
// Schemas are the component schemas referenced by the group's operations.
type Group struct {
	Prefix   string
	Tags     []string
	Schemas  map[string]*openapi.Schema
	Routes   []Route
	Children []Group
}

// Register adds all routes from the given groups to the mux.
func Register(mux *http.ServeMux, groups ...Group) {
	for _, group := range groups {
		registerGroup(mux, "", group)
	}
}

func registerGroup(mux *http.ServeMux, parentPrefix string, group Group) {
	fullPrefix := parentPrefix + group.Prefix
	for _, route := range group.Routes {
		pattern := route.Method + " " + fullPrefix + route.Pattern
		mux.HandleFunc(pattern, route.Handler)
	}
	for _, child := range group.Children {
		registerGroup(mux, fullPrefix, child)
	}
}

// Document adds every route carrying an operation to spec. Operations without
// tags inherit the tags of their group.
func Document(spec *openapi.Spec, groups ...Group) {
	for _, group := range groups {
		documentGroup(spec, "", group)
	}
}

func documentGroup(spec *openapi.Spec, parentPrefix string, group Group) {
	fullPrefix := parentPrefix + group.Prefix
	if group.Schemas != nil {
		spec.Components.AddSchemas(group.Schemas)
	}
	for _, route := range group.Routes {
		if route.OpenAPI == nil {
			continue
		}
		op := *route.OpenAPI
		if len(op.Tags) == 0 {
			op.Tags = group.Tags
		}
		path := fullPrefix + route.Pattern
		if path == "" {
			path = "/"
		}
		spec.AddOperation(route.Method, path, &op)
	}
	for _, child := range group.Children {
		documentGroup(spec, fullPrefix, child)
	}
}
