package definitions

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/JaimeStill/attest/internal/authz"
	"github.com/JaimeStill/attest/pkg/handlers"
	"github.com/JaimeStill/attest/pkg/pagination"
	"github.com/JaimeStill/attest/pkg/routes"
	"github.com/JaimeStill/attest/pkg/validation"
)

// Handler provides HTTP endpoints for the definition registry.
type Handler struct {
	sys        System
	logger     *slog.Logger
	pagination pagination.Config
}

// NewHandler creates a Handler with the given system, logger, and pagination config.
func NewHandler(sys System, logger *slog.Logger, pagination pagination.Config) *Handler {
	return &Handler{
		sys:        sys,
		logger:     logger.With("handler", "definitions"),
		pagination: pagination,
	}
}

// Routes returns the route group definition for registry endpoints.
func (h *Handler) Routes() routes.Group {
	return routes.Group{
		Prefix:  "/definitions",
		Tags:    []string{"Definitions"},
		Schemas: Spec.Schemas(),
		Routes: []routes.Route{
			{Method: "GET", Pattern: "", Handler: h.List, OpenAPI: Spec.List},
			{Method: "GET", Pattern: "/spec-link", Handler: h.FindBySpecLink, OpenAPI: Spec.FindBySpecLink},
			{Method: "GET", Pattern: "/{type}", Handler: h.Find, OpenAPI: Spec.Find},
			{Method: "POST", Pattern: "", Handler: h.Register, OpenAPI: Spec.Register},
			{Method: "PUT", Pattern: "/{type}", Handler: h.Replace, OpenAPI: Spec.Replace},
			{Method: "POST", Pattern: "/{type}/toggle", Handler: h.Toggle, OpenAPI: Spec.Toggle},
			{Method: "DELETE", Pattern: "/{type}", Handler: h.Delete, OpenAPI: Spec.Delete},
			{Method: "POST", Pattern: "/{type}/verifiers", Handler: h.AddVerifier, OpenAPI: Spec.AddVerifier},
			{Method: "PUT", Pattern: "/{type}/verifiers/{address}", Handler: h.UpdateVerifier, OpenAPI: Spec.UpdateVerifier},
		},
	}
}

// List returns a paginated list of definitions filtered by the enabled and verifier query parameters.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	page := pagination.PageRequestFromQuery(r.URL.Query(), h.pagination)
	filters := FiltersFromQuery(r.URL.Query())

	result, err := h.sys.List(r.Context(), page, filters)
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusInternalServerError, err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, result)
}

// Find returns the definition for the type path parameter.
func (h *Handler) Find(w http.ResponseWriter, r *http.Request) {
	d, err := h.sys.Find(r.Context(), r.PathValue("type"))
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, d)
}

// FindBySpecLink returns the definition whose spec link matches the link query parameter, ignoring case.
func (h *Handler) FindBySpecLink(w http.ResponseWriter, r *http.Request) {
	link := strings.TrimSpace(r.URL.Query().Get("link"))
	if link == "" {
		var v validation.Errors
		v.Required("link", link)
		handlers.RespondError(w, h.logger, http.StatusBadRequest, v.Err())
		return
	}

	d, err := h.sys.FindBySpecLink(r.Context(), link)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, d)
}

// Register creates a definition from a Command JSON body. Admin only.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var cmd Command
	if err := json.NewDecoder(r.Body).Decode(&cmd); err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
		return
	}

	d, err := h.sys.Register(r.Context(), authz.Caller(r), cmd)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusCreated, d)
}

// Replace overwrites the definition for the type path parameter. Admin only.
func (h *Handler) Replace(w http.ResponseWriter, r *http.Request) {
	var cmd Command
	if err := json.NewDecoder(r.Body).Decode(&cmd); err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
		return
	}

	d, err := h.sys.Replace(r.Context(), authz.Caller(r), r.PathValue("type"), cmd)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, d)
}

// Toggle flips the enabled flag. An empty body skips the expected-value check.
func (h *Handler) Toggle(w http.ResponseWriter, r *http.Request) {
	var cmd ToggleCommand
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&cmd); err != nil {
			handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
			return
		}
	}

	d, err := h.sys.Toggle(r.Context(), authz.Caller(r), r.PathValue("type"), cmd)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, d)
}

// Delete removes the definition for the type path parameter. Admin only.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.sys.Delete(r.Context(), authz.Caller(r), r.PathValue("type")); err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// AddVerifier appends a verifier decoded from the body. Admin only.
func (h *Handler) AddVerifier(w http.ResponseWriter, r *http.Request) {
	var v Verifier
	if err := json.NewDecoder(r.Body).Decode(&v); err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
		return
	}

	d, err := h.sys.AddVerifier(r.Context(), authz.Caller(r), r.PathValue("type"), v)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusCreated, d)
}

// UpdateVerifier replaces the verifier at the address path parameter.
// The address in the body, when present, must agree with the path.
func (h *Handler) UpdateVerifier(w http.ResponseWriter, r *http.Request) {
	var v Verifier
	if err := json.NewDecoder(r.Body).Decode(&v); err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
		return
	}

	address := r.PathValue("address")
	if v.Address == "" {
		v.Address = address
	}
	if v.Address != address {
		var verr validation.Errors
		verr.Add("address", "must match the verifier being updated")
		handlers.RespondError(w, h.logger, http.StatusBadRequest, verr.Err())
		return
	}

	d, err := h.sys.UpdateVerifier(r.Context(), authz.Caller(r), r.PathValue("type"), v)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, d)
}
