package classifications

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/JaimeStill/attest/internal/authz"
	"github.com/JaimeStill/attest/internal/ledger"
	"github.com/JaimeStill/attest/pkg/handlers"
	"github.com/JaimeStill/attest/pkg/pagination"
	"github.com/JaimeStill/attest/pkg/routes"
)

// Handler provides HTTP endpoints for classification operations.
type Handler struct {
	sys        System
	logger     *slog.Logger
	pagination pagination.Config
}

// NewHandler creates a Handler with the given system, logger, and pagination config.
func NewHandler(
	sys System,
	logger *slog.Logger,
	pagination pagination.Config,
) *Handler {
	return &Handler{
		sys:        sys,
		logger:     logger.With("handler", "classifications"),
		pagination: pagination,
	}
}

// Routes returns the route group definition for classification endpoints.
// {kind} is "asset" (UUID) or "address" (scope address).
func (h *Handler) Routes() routes.Group {
	return routes.Group{
		Prefix:  "/classifications",
		Tags:    []string{"Classifications"},
		Schemas: Spec.Schemas(),
		Routes: []routes.Route{
			{Method: "GET", Pattern: "", Handler: h.List, OpenAPI: Spec.List},
			{Method: "GET", Pattern: "/{kind}/{value}", Handler: h.FindAll, OpenAPI: Spec.FindAll},
			{Method: "GET", Pattern: "/{kind}/{value}/{type}", Handler: h.Find, OpenAPI: Spec.Find},
			{Method: "GET", Pattern: "/{kind}/{value}/{type}/pending", Handler: h.FindPending, OpenAPI: Spec.FindPending},
			{Method: "POST", Pattern: "/onboard", Handler: h.Onboard, OpenAPI: Spec.Onboard},
			{Method: "POST", Pattern: "/decide", Handler: h.Decide, OpenAPI: Spec.Decide},
			{Method: "POST", Pattern: "/finalize", Handler: h.Finalize, OpenAPI: Spec.Finalize},
			{Method: "PUT", Pattern: "/access-routes", Handler: h.UpdateAccessRoutes, OpenAPI: Spec.UpdateAccessRoutes},
		},
	}
}

// List returns a paginated list of records with optional query parameter filters.
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

// FindAll returns every record for an object, oldest first.
func (h *Handler) FindAll(w http.ResponseWriter, r *http.Request) {
	id, ok := h.identifier(w, r)
	if !ok {
		return
	}

	records, err := h.sys.FindAll(r.Context(), id)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, records)
}

func (h *Handler) Find(w http.ResponseWriter, r *http.Request) {
	id, ok := h.identifier(w, r)
	if !ok {
		return
	}

	rec, err := h.sys.Find(r.Context(), id, r.PathValue("type"))
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, rec)
}

// FindPending returns the disbursement plan held for an undecided record.
func (h *Handler) FindPending(w http.ResponseWriter, r *http.Request) {
	id, ok := h.identifier(w, r)
	if !ok {
		return
	}

	p, err := h.sys.FindPending(r.Context(), id, r.PathValue("type"))
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, p)
}

// Onboard decodes an OnboardCommand; the caller becomes the requestor.
func (h *Handler) Onboard(w http.ResponseWriter, r *http.Request) {
	var cmd OnboardCommand
	if err := json.NewDecoder(r.Body).Decode(&cmd); err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
		return
	}

	rec, err := h.sys.Onboard(r.Context(), authz.Caller(r), cmd)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusCreated, rec)
}

func (h *Handler) Decide(w http.ResponseWriter, r *http.Request) {
	var cmd DecideCommand
	if err := json.NewDecoder(r.Body).Decode(&cmd); err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
		return
	}

	rec, err := h.sys.Decide(r.Context(), authz.Caller(r), cmd)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, rec)
}

func (h *Handler) Finalize(w http.ResponseWriter, r *http.Request) {
	var cmd FinalizeCommand
	if err := json.NewDecoder(r.Body).Decode(&cmd); err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
		return
	}

	rec, err := h.sys.Finalize(r.Context(), authz.Caller(r), cmd)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, rec)
}

func (h *Handler) UpdateAccessRoutes(w http.ResponseWriter, r *http.Request) {
	var cmd UpdateRoutesCommand
	if err := json.NewDecoder(r.Body).Decode(&cmd); err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
		return
	}

	rec, err := h.sys.UpdateAccessRoutes(r.Context(), authz.Caller(r), cmd)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, rec)
}

func (h *Handler) identifier(w http.ResponseWriter, r *http.Request) (ledger.Identifier, bool) {
	id, err := ledger.IdentifierFromPath(r.PathValue("kind"), r.PathValue("value"))
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
		return ledger.Identifier{}, false
	}
	return id, true
}
