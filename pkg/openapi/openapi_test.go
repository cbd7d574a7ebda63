package openapi_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/JaimeStill/attest/pkg/openapi"
)

func TestNewSpec(t *testing.T) {
	spec := openapi.NewSpec(openapi.Config{Title: "Attest", Description: "desc"}, "1.2.3")

	if spec.OpenAPI != "3.1.0" {
		t.Errorf("openapi version: got %s, want 3.1.0", spec.OpenAPI)
	}
	if spec.Info.Title != "Attest" || spec.Info.Version != "1.2.3" || spec.Info.Description != "desc" {
		t.Errorf("info: got %+v", spec.Info)
	}
	for _, name := range []string{"BadRequest", "Forbidden", "NotFound", "Conflict"} {
		if _, ok := spec.Components.Responses[name]; !ok {
			t.Errorf("missing %s response", name)
		}
	}
	if _, ok := spec.Components.Schemas["Error"]; !ok {
		t.Error("missing Error schema")
	}
}

func TestAddOperation(t *testing.T) {
	spec := openapi.NewSpec(openapi.Config{}, "1.0.0")
	get := &openapi.Operation{Summary: "get"}
	put := &openapi.Operation{Summary: "put"}

	spec.AddOperation("GET", "/items/{id}", get)
	spec.AddOperation("put", "/items/{id}", put)
	spec.AddOperation("PATCH", "/items/{id}", &openapi.Operation{})

	item := spec.Paths["/items/{id}"]
	if item == nil {
		t.Fatal("path not added")
	}
	if item.Get != get || item.Put != put {
		t.Errorf("operations not attached: %+v", item)
	}
	if item.Post != nil || item.Delete != nil {
		t.Error("unexpected operations attached")
	}
}

func TestParams(t *testing.T) {
	p := openapi.EnumPathParam("kind", "Identifier kind", "asset", "address")
	if p.In != "path" || !p.Required || p.Schema.Type != "string" || len(p.Schema.Enum) != 2 {
		t.Errorf("enum path param: got %+v", p)
	}

	h := openapi.HeaderParam("X-Caller-Address", "caller")
	if h.In != "header" || !h.Required {
		t.Errorf("header param: got %+v", h)
	}

	q := openapi.QueryParam("status", "string", "", false)
	if q.In != "query" || q.Required {
		t.Errorf("query param: got %+v", q)
	}

	if got := len(openapi.PageParams()); got != 4 {
		t.Errorf("page params: got %d, want 4", got)
	}
}

func TestRefs(t *testing.T) {
	if ref := openapi.SchemaRef("Record").Ref; ref != "#/components/schemas/Record" {
		t.Errorf("schema ref: got %s", ref)
	}
	if ref := openapi.ResponseRef("NotFound").Ref; ref != "#/components/responses/NotFound" {
		t.Errorf("response ref: got %s", ref)
	}

	arr := openapi.ArrayOf("Record")
	if arr.Type != "array" || arr.Items.Ref != "#/components/schemas/Record" {
		t.Errorf("array: got %+v", arr)
	}

	rb := openapi.RequestBodyJSON("OnboardCommand", true)
	if !rb.Required || rb.Content["application/json"].Schema.Ref != "#/components/schemas/OnboardCommand" {
		t.Errorf("request body: got %+v", rb)
	}
}

func TestServeSpec(t *testing.T) {
	spec := openapi.NewSpec(openapi.Config{Title: "Attest"}, "1.0.0")
	spec.AddOperation("GET", "/items", &openapi.Operation{
		Responses: map[int]*openapi.Response{200: {Description: "ok"}},
	})
	data, err := openapi.MarshalJSON(spec)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}

	rec := httptest.NewRecorder()
	openapi.ServeSpec(data)(rec, httptest.NewRequest("GET", "/openapi.json", nil))

	if rec.Code != http.StatusOK {
		t.Errorf("status: got %d, want 200", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json; charset=utf-8" {
		t.Errorf("content-type: got %s", ct)
	}

	var parsed struct {
		Paths map[string]map[string]struct {
			Responses map[string]any `json:"responses"`
		} `json:"paths"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &parsed); err != nil {
		t.Fatalf("body unmarshal failed: %v", err)
	}
	if _, ok := parsed.Paths["/items"]["get"].Responses["200"]; !ok {
		t.Errorf("status keys not serialized as strings: %s", rec.Body.String())
	}
}

func TestConfigFinalize(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		cfg := openapi.Config{}
		if err := cfg.Finalize(nil); err != nil {
			t.Fatalf("finalize failed: %v", err)
		}
		if cfg.Title != "Attest API" {
			t.Errorf("title: got %s, want Attest API", cfg.Title)
		}
		if cfg.Description == "" {
			t.Error("description not defaulted")
		}
	})

	t.Run("env", func(t *testing.T) {
		t.Setenv("TEST_TITLE", "Custom API")
		cfg := openapi.Config{}
		if err := cfg.Finalize(&openapi.ConfigEnv{Title: "TEST_TITLE"}); err != nil {
			t.Fatalf("finalize failed: %v", err)
		}
		if cfg.Title != "Custom API" {
			t.Errorf("title: got %s, want Custom API", cfg.Title)
		}
	})
}

func TestConfigMerge(t *testing.T) {
	base := openapi.Config{Title: "Base", Description: "Base desc"}
	base.Merge(&openapi.Config{Title: "Overlay"})

	if base.Title != "Overlay" {
		t.Errorf("title: got %s, want Overlay", base.Title)
	}
	if base.Description != "Base desc" {
		t.Errorf("description: got %s, want Base desc", base.Description)
	}
}
