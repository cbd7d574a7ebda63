package definitions

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/JaimeStill/attest/internal/authz"
	"github.com/JaimeStill/attest/pkg/validation"
)

// Domain errors for registry operations.
var (
	ErrNotFound          = errors.New("definition not found")
	ErrVerifierNotFound  = errors.New("verifier not found")
	ErrDuplicateType     = errors.New("definition type already exists")
	ErrDuplicateSpecLink = errors.New("definition spec link already in use")
	ErrDuplicateVerifier = errors.New("verifier already exists")
)

// ErrToggleMismatch is an input failure: the caller's expected value disagrees
// with what the toggle would produce.
var ErrToggleMismatch = fmt.Errorf("%w: toggle result does not match expected value", validation.ErrInvalidInput)

// MapHTTPStatus maps registry errors to HTTP status codes.
func MapHTTPStatus(err error) int {
	if errors.Is(err, ErrNotFound) || errors.Is(err, ErrVerifierNotFound) {
		return http.StatusNotFound
	}
	if errors.Is(err, ErrDuplicateType) ||
		errors.Is(err, ErrDuplicateSpecLink) ||
		errors.Is(err, ErrDuplicateVerifier) {
		return http.StatusConflict
	}
	if errors.Is(err, authz.ErrUnauthorized) {
		return http.StatusForbidden
	}
	if status, ok := validation.MapHTTPStatus(err); ok {
		return status
	}
	return http.StatusInternalServerError
}
