package objects

import (
	"errors"
	"net/http"

	"github.com/JaimeStill/attest/internal/authz"
	"github.com/JaimeStill/attest/internal/ledger"
	"github.com/JaimeStill/attest/pkg/validation"
)

var (
	ErrNotFound  = errors.New("ledger object not found")
	ErrDuplicate = errors.New("ledger object already registered")
)

// MapHTTPStatus maps object errors to HTTP status codes.
func MapHTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrDuplicate):
		return http.StatusConflict
	case errors.Is(err, authz.ErrUnauthorized):
		return http.StatusForbidden
	case errors.Is(err, ledger.ErrInvalidIdentifier):
		return http.StatusBadRequest
	}
	if status, ok := validation.MapHTTPStatus(err); ok {
		return status
	}
	return http.StatusInternalServerError
}
