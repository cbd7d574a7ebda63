package definitions_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/JaimeStill/attest/internal/authz"
	"github.com/JaimeStill/attest/internal/definitions"
	"github.com/JaimeStill/attest/pkg/pagination"
	"github.com/JaimeStill/attest/pkg/validation"
)

type mockSystem struct {
	listFn           func(ctx context.Context, page pagination.PageRequest, filters definitions.Filters) (*pagination.PageResult[definitions.Definition], error)
	findFn           func(ctx context.Context, typeName string) (*definitions.Definition, error)
	findBySpecLinkFn func(ctx context.Context, specLink string) (*definitions.Definition, error)
	registerFn       func(ctx context.Context, caller string, cmd definitions.Command) (*definitions.Definition, error)
	replaceFn        func(ctx context.Context, caller, typeName string, cmd definitions.Command) (*definitions.Definition, error)
	toggleFn         func(ctx context.Context, caller, typeName string, cmd definitions.ToggleCommand) (*definitions.Definition, error)
	deleteFn         func(ctx context.Context, caller, typeName string) error
	addVerifierFn    func(ctx context.Context, caller, typeName string, v definitions.Verifier) (*definitions.Definition, error)
	updateVerifierFn func(ctx context.Context, caller, typeName string, v definitions.Verifier) (*definitions.Definition, error)
}

func (m *mockSystem) Handler() *definitions.Handler {
	return newTestHandler(m)
}

func (m *mockSystem) List(ctx context.Context, page pagination.PageRequest, filters definitions.Filters) (*pagination.PageResult[definitions.Definition], error) {
	return m.listFn(ctx, page, filters)
}

func (m *mockSystem) Find(ctx context.Context, typeName string) (*definitions.Definition, error) {
	return m.findFn(ctx, typeName)
}

func (m *mockSystem) FindBySpecLink(ctx context.Context, specLink string) (*definitions.Definition, error) {
	return m.findBySpecLinkFn(ctx, specLink)
}

func (m *mockSystem) Register(ctx context.Context, caller string, cmd definitions.Command) (*definitions.Definition, error) {
	return m.registerFn(ctx, caller, cmd)
}

func (m *mockSystem) Replace(ctx context.Context, caller, typeName string, cmd definitions.Command) (*definitions.Definition, error) {
	return m.replaceFn(ctx, caller, typeName, cmd)
}

func (m *mockSystem) Toggle(ctx context.Context, caller, typeName string, cmd definitions.ToggleCommand) (*definitions.Definition, error) {
	return m.toggleFn(ctx, caller, typeName, cmd)
}

func (m *mockSystem) Delete(ctx context.Context, caller, typeName string) error {
	return m.deleteFn(ctx, caller, typeName)
}

func (m *mockSystem) AddVerifier(ctx context.Context, caller, typeName string, v definitions.Verifier) (*definitions.Definition, error) {
	return m.addVerifierFn(ctx, caller, typeName, v)
}

func (m *mockSystem) UpdateVerifier(ctx context.Context, caller, typeName string, v definitions.Verifier) (*definitions.Definition, error) {
	return m.updateVerifierFn(ctx, caller, typeName, v)
}

func newTestHandler(sys definitions.System) *definitions.Handler {
	return definitions.NewHandler(
		sys,
		slog.New(slog.NewTextHandler(io.Discard, nil)),
		pagination.Config{DefaultPageSize: 20, MaxPageSize: 100},
	)
}

func setupMux(h *definitions.Handler) *http.ServeMux {
	mux := http.NewServeMux()
	group := h.Routes()
	for _, route := range group.Routes {
		pattern := route.Method + " " + group.Prefix + route.Pattern
		mux.HandleFunc(pattern, route.Handler)
	}
	return mux
}

func sampleDefinition() definitions.Definition {
	return definitions.Definition{
		TypeName:  "heloc",
		SpecLink:  "https://specs/heloc",
		Verifiers: []definitions.Verifier{verifier("tp1v")},
		Enabled:   true,
	}
}

func TestHandlerList(t *testing.T) {
	var captured definitions.Filters
	sys := &mockSystem{
		listFn: func(_ context.Context, _ pagination.PageRequest, f definitions.Filters) (*pagination.PageResult[definitions.Definition], error) {
			captured = f
			result := pagination.NewPageResult([]definitions.Definition{sampleDefinition()}, 1, 1, 20)
			return &result, nil
		},
	}

	mux := setupMux(newTestHandler(sys))

	rec := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/definitions?enabled=true&verifier=tp1v", nil)
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var result pagination.PageResult[definitions.Definition]
	if err := json.NewDecoder(rec.Body).Decode(&result); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if result.Total != 1 || result.Data[0].TypeName != "heloc" {
		t.Errorf("unexpected result %+v", result)
	}

	if captured.Enabled == nil || !*captured.Enabled {
		t.Error("enabled filter not passed")
	}
	if captured.Verifier == nil || *captured.Verifier != "tp1v" {
		t.Error("verifier filter not passed")
	}
}

func TestHandlerFind(t *testing.T) {
	sys := &mockSystem{
		findFn: func(_ context.Context, typeName string) (*definitions.Definition, error) {
			if typeName != "heloc" {
				return nil, definitions.ErrNotFound
			}
			d := sampleDefinition()
			return &d, nil
		},
	}

	mux := setupMux(newTestHandler(sys))

	tests := []struct {
		path   string
		status int
	}{
		{"/definitions/heloc", http.StatusOK},
		{"/definitions/missing", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, httptest.NewRequest("GET", tt.path, nil))

			if rec.Code != tt.status {
				t.Errorf("status = %d, want %d", rec.Code, tt.status)
			}
		})
	}
}

func TestHandlerFindBySpecLink(t *testing.T) {
	var captured string
	sys := &mockSystem{
		findBySpecLinkFn: func(_ context.Context, link string) (*definitions.Definition, error) {
			captured = link
			d := sampleDefinition()
			return &d, nil
		},
	}

	mux := setupMux(newTestHandler(sys))

	t.Run("resolves link", func(t *testing.T) {
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, httptest.NewRequest("GET", "/definitions/spec-link?link=https%3A%2F%2Fspecs%2Fheloc", nil))

		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", rec.Code)
		}
		if captured != "https://specs/heloc" {
			t.Errorf("link = %q", captured)
		}
	})

	t.Run("missing link", func(t *testing.T) {
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, httptest.NewRequest("GET", "/definitions/spec-link", nil))

		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", rec.Code)
		}
	})
}

func TestHandlerRegister(t *testing.T) {
	var caller string
	sys := &mockSystem{
		registerFn: func(_ context.Context, c string, cmd definitions.Command) (*definitions.Definition, error) {
			caller = c
			if cmd.TypeName == "dup" {
				return nil, fmt.Errorf("register definition dup: %w", definitions.ErrDuplicateType)
			}
			if cmd.TypeName == "" {
				var v validation.Errors
				v.Required("type_name", cmd.TypeName)
				return nil, v.Err()
			}
			d := sampleDefinition()
			return &d, nil
		},
	}

	mux := setupMux(newTestHandler(sys))

	tests := []struct {
		name   string
		body   string
		status int
	}{
		{"created", `{"type_name":"heloc","spec_link":"https://specs/heloc","verifiers":[]}`, http.StatusCreated},
		{"duplicate", `{"type_name":"dup"}`, http.StatusConflict},
		{"invalid", `{"type_name":""}`, http.StatusBadRequest},
		{"malformed", `{`, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			req := httptest.NewRequest("POST", "/definitions", bytes.NewBufferString(tt.body))
			req.Header.Set(authz.CallerHeader, "tp1admin")
			mux.ServeHTTP(rec, req)

			if rec.Code != tt.status {
				t.Errorf("status = %d, want %d", rec.Code, tt.status)
			}
		})
	}

	if caller != "tp1admin" {
		t.Errorf("caller = %q, want tp1admin", caller)
	}
}

func TestHandlerInvalidBodyReportsFields(t *testing.T) {
	sys := &mockSystem{
		registerFn: func(_ context.Context, _ string, _ definitions.Command) (*definitions.Definition, error) {
			var v validation.Errors
			v.Add("verifiers", "must contain at least one verifier")
			return nil, fmt.Errorf("register definition: %w", v.Err())
		},
	}

	mux := setupMux(newTestHandler(sys))

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest("POST", "/definitions", bytes.NewBufferString(`{}`)))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}

	var body struct {
		Fields []string `json:"fields"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(body.Fields) != 1 || body.Fields[0] != "verifiers: must contain at least one verifier" {
		t.Errorf("fields = %v", body.Fields)
	}
}

func TestHandlerToggle(t *testing.T) {
	var captured definitions.ToggleCommand
	sys := &mockSystem{
		toggleFn: func(_ context.Context, _, _ string, cmd definitions.ToggleCommand) (*definitions.Definition, error) {
			captured = cmd
			if cmd.Expected != nil && *cmd.Expected {
				return nil, definitions.ErrToggleMismatch
			}
			d := sampleDefinition()
			d.Enabled = false
			return &d, nil
		},
	}

	mux := setupMux(newTestHandler(sys))

	t.Run("empty body", func(t *testing.T) {
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, httptest.NewRequest("POST", "/definitions/heloc/toggle", nil))

		if rec.Code != http.StatusOK {
			t.Errorf("status = %d, want 200", rec.Code)
		}
		if captured.Expected != nil {
			t.Error("expected should be nil")
		}
	})

	t.Run("mismatch", func(t *testing.T) {
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, httptest.NewRequest("POST", "/definitions/heloc/toggle", bytes.NewBufferString(`{"expected":true}`)))

		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", rec.Code)
		}
	})
}

func TestHandlerDelete(t *testing.T) {
	sys := &mockSystem{
		deleteFn: func(_ context.Context, caller, _ string) error {
			if caller != "tp1admin" {
				return fmt.Errorf("%w: only the admin may delete definitions", authz.ErrUnauthorized)
			}
			return nil
		},
	}

	mux := setupMux(newTestHandler(sys))

	tests := []struct {
		caller string
		status int
	}{
		{"tp1admin", http.StatusNoContent},
		{"tp1other", http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.caller, func(t *testing.T) {
			rec := httptest.NewRecorder()
			req := httptest.NewRequest("DELETE", "/definitions/heloc", nil)
			req.Header.Set(authz.CallerHeader, tt.caller)
			mux.ServeHTTP(rec, req)

			if rec.Code != tt.status {
				t.Errorf("status = %d, want %d", rec.Code, tt.status)
			}
		})
	}
}

func TestHandlerVerifiers(t *testing.T) {
	var updated definitions.Verifier
	sys := &mockSystem{
		addVerifierFn: func(_ context.Context, _, _ string, _ definitions.Verifier) (*definitions.Definition, error) {
			d := sampleDefinition()
			return &d, nil
		},
		updateVerifierFn: func(_ context.Context, _, _ string, v definitions.Verifier) (*definitions.Definition, error) {
			updated = v
			d := sampleDefinition()
			return &d, nil
		},
	}

	mux := setupMux(newTestHandler(sys))

	t.Run("add", func(t *testing.T) {
		rec := httptest.NewRecorder()
		body := `{"address":"tp1w","default_cost":{"total":100,"fee_destinations":[]}}`
		mux.ServeHTTP(rec, httptest.NewRequest("POST", "/definitions/heloc/verifiers", bytes.NewBufferString(body)))

		if rec.Code != http.StatusCreated {
			t.Errorf("status = %d, want 201", rec.Code)
		}
	})

	t.Run("update takes address from path", func(t *testing.T) {
		rec := httptest.NewRecorder()
		body := `{"default_cost":{"total":100,"fee_destinations":[]}}`
		mux.ServeHTTP(rec, httptest.NewRequest("PUT", "/definitions/heloc/verifiers/tp1v", bytes.NewBufferString(body)))

		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", rec.Code)
		}
		if updated.Address != "tp1v" {
			t.Errorf("address = %q, want tp1v", updated.Address)
		}
	})

	t.Run("update rejects mismatched address", func(t *testing.T) {
		rec := httptest.NewRecorder()
		body := `{"address":"tp1other","default_cost":{"total":100,"fee_destinations":[]}}`
		mux.ServeHTTP(rec, httptest.NewRequest("PUT", "/definitions/heloc/verifiers/tp1v", bytes.NewBufferString(body)))

		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", rec.Code)
		}
	})
}
