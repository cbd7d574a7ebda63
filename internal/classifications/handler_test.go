package classifications_test

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
	"github.com/JaimeStill/attest/internal/classifications"
	"github.com/JaimeStill/attest/internal/definitions"
	"github.com/JaimeStill/attest/internal/fees"
	"github.com/JaimeStill/attest/internal/ledger"
	"github.com/JaimeStill/attest/pkg/pagination"
	"github.com/JaimeStill/attest/pkg/repository"
)

type mockSystem struct {
	listFn     func(ctx context.Context, page pagination.PageRequest, filters classifications.Filters) (*pagination.PageResult[classifications.Record], error)
	findFn     func(ctx context.Context, id ledger.Identifier, typeName string) (*classifications.Record, error)
	findAllFn  func(ctx context.Context, id ledger.Identifier) ([]classifications.Record, error)
	pendingFn  func(ctx context.Context, id ledger.Identifier, typeName string) (*classifications.Pending, error)
	onboardFn  func(ctx context.Context, caller string, cmd classifications.OnboardCommand) (*classifications.Record, error)
	decideFn   func(ctx context.Context, caller string, cmd classifications.DecideCommand) (*classifications.Record, error)
	finalizeFn func(ctx context.Context, caller string, cmd classifications.FinalizeCommand) (*classifications.Record, error)
	routesFn   func(ctx context.Context, caller string, cmd classifications.UpdateRoutesCommand) (*classifications.Record, error)
}

func (m *mockSystem) Handler() *classifications.Handler {
	return newTestHandler(m)
}

func (m *mockSystem) List(ctx context.Context, page pagination.PageRequest, filters classifications.Filters) (*pagination.PageResult[classifications.Record], error) {
	return m.listFn(ctx, page, filters)
}

func (m *mockSystem) Find(ctx context.Context, id ledger.Identifier, typeName string) (*classifications.Record, error) {
	return m.findFn(ctx, id, typeName)
}

func (m *mockSystem) FindAll(ctx context.Context, id ledger.Identifier) ([]classifications.Record, error) {
	return m.findAllFn(ctx, id)
}

func (m *mockSystem) FindPending(ctx context.Context, id ledger.Identifier, typeName string) (*classifications.Pending, error) {
	return m.pendingFn(ctx, id, typeName)
}

func (m *mockSystem) Onboard(ctx context.Context, caller string, cmd classifications.OnboardCommand) (*classifications.Record, error) {
	return m.onboardFn(ctx, caller, cmd)
}

func (m *mockSystem) Decide(ctx context.Context, caller string, cmd classifications.DecideCommand) (*classifications.Record, error) {
	return m.decideFn(ctx, caller, cmd)
}

func (m *mockSystem) Finalize(ctx context.Context, caller string, cmd classifications.FinalizeCommand) (*classifications.Record, error) {
	return m.finalizeFn(ctx, caller, cmd)
}

func (m *mockSystem) UpdateAccessRoutes(ctx context.Context, caller string, cmd classifications.UpdateRoutesCommand) (*classifications.Record, error) {
	return m.routesFn(ctx, caller, cmd)
}

func newTestHandler(sys classifications.System) *classifications.Handler {
	return classifications.NewHandler(
		sys,
		slog.New(slog.NewTextHandler(io.Discard, nil)),
		pagination.Config{DefaultPageSize: 20, MaxPageSize: 100},
	)
}

func setupMux(h *classifications.Handler) *http.ServeMux {
	mux := http.NewServeMux()
	group := h.Routes()
	for _, route := range group.Routes {
		pattern := route.Method + " " + group.Prefix + route.Pattern
		mux.HandleFunc(pattern, route.Handler)
	}
	return mux
}

func sampleRecord() classifications.Record {
	return classifications.Record{
		AssetID:         assetID,
		ObjectAddress:   address,
		TypeName:        "heloc",
		Requestor:       requestor,
		VerifierAddress: verifierA,
		Status:          classifications.StatusPending,
		TrustVerifier:   true,
	}
}

func TestHandlerList(t *testing.T) {
	var captured classifications.Filters
	sys := &mockSystem{
		listFn: func(_ context.Context, _ pagination.PageRequest, f classifications.Filters) (*pagination.PageResult[classifications.Record], error) {
			captured = f
			result := pagination.NewPageResult([]classifications.Record{sampleRecord()}, 1, 1, 20)
			return &result, nil
		},
	}

	mux := setupMux(newTestHandler(sys))

	rec := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/classifications?status=pending&verifier="+verifierA, nil)
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if captured.Status == nil || *captured.Status != classifications.StatusPending {
		t.Errorf("status filter = %v, want pending", captured.Status)
	}
	if captured.Verifier == nil || *captured.Verifier != verifierA {
		t.Errorf("verifier filter = %v, want %s", captured.Verifier, verifierA)
	}
}

func TestHandlerFindRoutesIdentifier(t *testing.T) {
	tests := []struct {
		name     string
		path     string
		wantKind ledger.Kind
		wantCode int
	}{
		{"asset", "/classifications/asset/" + assetID.String() + "/heloc", ledger.KindAssetUUID, http.StatusOK},
		{"address", "/classifications/address/" + address + "/heloc", ledger.KindLedgerAddress, http.StatusOK},
		{"unknown kind", "/classifications/bogus/x/heloc", "", http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var captured ledger.Identifier
			sys := &mockSystem{
				findFn: func(_ context.Context, id ledger.Identifier, typeName string) (*classifications.Record, error) {
					captured = id
					if typeName != "heloc" {
						t.Errorf("typeName = %q, want heloc", typeName)
					}
					r := sampleRecord()
					return &r, nil
				},
			}

			mux := setupMux(newTestHandler(sys))
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, httptest.NewRequest("GET", tt.path, nil))

			if rec.Code != tt.wantCode {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantCode)
			}
			if tt.wantKind != "" && captured.Kind != tt.wantKind {
				t.Errorf("kind = %q, want %q", captured.Kind, tt.wantKind)
			}
		})
	}
}

func TestHandlerFindPendingNotFound(t *testing.T) {
	sys := &mockSystem{
		pendingFn: func(context.Context, ledger.Identifier, string) (*classifications.Pending, error) {
			return nil, classifications.ErrPendingNotFound
		},
	}

	mux := setupMux(newTestHandler(sys))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest("GET", "/classifications/address/"+address+"/heloc/pending", nil))

	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestHandlerOnboard(t *testing.T) {
	var (
		gotCaller string
		gotCmd    classifications.OnboardCommand
	)
	sys := &mockSystem{
		onboardFn: func(_ context.Context, caller string, cmd classifications.OnboardCommand) (*classifications.Record, error) {
			gotCaller = caller
			gotCmd = cmd
			r := sampleRecord()
			return &r, nil
		},
	}

	body := fmt.Sprintf(`{
		"identifier": {"type": "asset_uuid", "value": %q},
		"type_name": "heloc",
		"verifier_address": %q,
		"access_routes": [{"route": "grpc://requestor"}],
		"trust_verifier": false
	}`, assetID, verifierA)

	mux := setupMux(newTestHandler(sys))
	rec := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/classifications/onboard", bytes.NewBufferString(body))
	req.Header.Set(authz.CallerHeader, " "+requestor+" ")
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201: %s", rec.Code, rec.Body.String())
	}
	if gotCaller != requestor {
		t.Errorf("caller = %q, want %q", gotCaller, requestor)
	}
	if gotCmd.Identifier != ledger.AssetID(assetID) {
		t.Errorf("identifier = %v", gotCmd.Identifier)
	}
	if gotCmd.TrustVerifier == nil || *gotCmd.TrustVerifier {
		t.Errorf("trust_verifier = %v, want false", gotCmd.TrustVerifier)
	}
	if len(gotCmd.AccessRoutes) != 1 {
		t.Errorf("access_routes len = %d, want 1", len(gotCmd.AccessRoutes))
	}
}

func TestHandlerOnboardRejectsUnknownIdentifierKind(t *testing.T) {
	sys := &mockSystem{
		onboardFn: func(context.Context, string, classifications.OnboardCommand) (*classifications.Record, error) {
			t.Fatal("system should not be called")
			return nil, nil
		},
	}

	body := `{"identifier": {"type": "nft", "value": "x"}, "type_name": "heloc", "verifier_address": "v"}`

	mux := setupMux(newTestHandler(sys))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest("POST", "/classifications/onboard", bytes.NewBufferString(body)))

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestHandlerErrorStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"already onboarded", classifications.ErrAlreadyOnboarded, http.StatusConflict},
		{"already decided", classifications.ErrAlreadyDecided, http.StatusConflict},
		{"invalid finalization", classifications.ErrInvalidFinalization, http.StatusConflict},
		{"disabled", classifications.ErrDisabled, http.StatusUnprocessableEntity},
		{"unsupported verifier", classifications.ErrUnsupportedVerifier, http.StatusUnprocessableEntity},
		{"misconfigured fees", fees.ErrMisconfiguredFees, http.StatusUnprocessableEntity},
		{"unauthorized", authz.ErrUnauthorized, http.StatusForbidden},
		{"missing type", definitions.ErrNotFound, http.StatusNotFound},
		{"invalid identifier", ledger.ErrInvalidIdentifier, http.StatusBadRequest},
		{"lock timeout", repository.ErrLockTimeout, http.StatusServiceUnavailable},
		{"unexpected", fmt.Errorf("connection reset"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sys := &mockSystem{
				decideFn: func(context.Context, string, classifications.DecideCommand) (*classifications.Record, error) {
					return nil, fmt.Errorf("decide: %w", tt.err)
				},
			}

			body := fmt.Sprintf(`{"identifier": {"type": "ledger_address", "value": %q}, "type_name": "heloc", "success": true}`, address)

			mux := setupMux(newTestHandler(sys))
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, httptest.NewRequest("POST", "/classifications/decide", bytes.NewBufferString(body)))

			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d", rec.Code, tt.want)
			}
		})
	}
}

func TestHandlerFinalizeAndRoutes(t *testing.T) {
	var finalizedBy, updatedBy string
	sys := &mockSystem{
		finalizeFn: func(_ context.Context, caller string, cmd classifications.FinalizeCommand) (*classifications.Record, error) {
			finalizedBy = caller
			r := sampleRecord()
			r.Status = classifications.StatusApproved
			return &r, nil
		},
		routesFn: func(_ context.Context, caller string, cmd classifications.UpdateRoutesCommand) (*classifications.Record, error) {
			updatedBy = caller
			if cmd.OwnerAddress != requestor {
				t.Errorf("owner = %q, want %q", cmd.OwnerAddress, requestor)
			}
			r := sampleRecord()
			return &r, nil
		},
	}

	mux := setupMux(newTestHandler(sys))

	finalize := fmt.Sprintf(`{"identifier": {"type": "ledger_address", "value": %q}, "type_name": "heloc"}`, address)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/classifications/finalize", bytes.NewBufferString(finalize))
	req.Header.Set(authz.CallerHeader, requestor)
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("finalize status = %d, want 200", rec.Code)
	}
	var got classifications.Record
	if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Status != classifications.StatusApproved {
		t.Errorf("status = %q, want approved", got.Status)
	}
	if finalizedBy != requestor {
		t.Errorf("finalize caller = %q", finalizedBy)
	}

	update := fmt.Sprintf(`{
		"identifier": {"type": "ledger_address", "value": %q},
		"type_name": "heloc",
		"owner_address": %q,
		"access_routes": []
	}`, address, requestor)
	rec = httptest.NewRecorder()
	req = httptest.NewRequest("PUT", "/classifications/access-routes", bytes.NewBufferString(update))
	req.Header.Set(authz.CallerHeader, admin)
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("routes status = %d, want 200", rec.Code)
	}
	if updatedBy != admin {
		t.Errorf("routes caller = %q, want %q", updatedBy, admin)
	}
}
