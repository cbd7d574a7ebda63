package classifications

import (
	"errors"
	"net/http"

	"github.com/JaimeStill/attest/internal/authz"
	"github.com/JaimeStill/attest/internal/definitions"
	"github.com/JaimeStill/attest/internal/fees"
	"github.com/JaimeStill/attest/internal/ledger"
	"github.com/JaimeStill/attest/internal/objects"
	"github.com/JaimeStill/attest/pkg/repository"
	"github.com/JaimeStill/attest/pkg/validation"
)

// Domain errors for classification operations.
var (
	ErrNotFound            = errors.New("classification not found")
	ErrPendingNotFound     = errors.New("pending disbursement not found")
	ErrAccessNotFound      = errors.New("owner has no access definition")
	ErrAlreadyOnboarded    = errors.New("object already onboarded for this type")
	ErrAlreadyDecided      = errors.New("classification already decided")
	ErrDisabled            = errors.New("classification type is disabled")
	ErrUnsupportedVerifier = errors.New("verifier is not registered for this type")
	ErrInvalidFinalization = errors.New("classification is not awaiting finalization")
)

// MapHTTPStatus maps classification errors, and the errors of the systems
// it calls, to HTTP status codes.
func MapHTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrNotFound),
		errors.Is(err, ErrPendingNotFound),
		errors.Is(err, ErrAccessNotFound),
		errors.Is(err, definitions.ErrNotFound),
		errors.Is(err, objects.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrAlreadyOnboarded),
		errors.Is(err, ErrAlreadyDecided),
		errors.Is(err, ErrInvalidFinalization):
		return http.StatusConflict
	case errors.Is(err, ErrDisabled),
		errors.Is(err, ErrUnsupportedVerifier):
		return http.StatusUnprocessableEntity
	case errors.Is(err, authz.ErrUnauthorized):
		return http.StatusForbidden
	case errors.Is(err, ledger.ErrInvalidIdentifier):
		return http.StatusBadRequest
	case errors.Is(err, repository.ErrLockTimeout):
		return http.StatusServiceUnavailable
	}
	if status, ok := fees.MapHTTPStatus(err); ok {
		return status
	}
	if status, ok := validation.MapHTTPStatus(err); ok {
		return status
	}
	return http.StatusInternalServerError
}
