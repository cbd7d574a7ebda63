package ledger

import (
	"errors"
	"net/http"
)

// MapHTTPStatus maps identifier errors to HTTP status codes.
func MapHTTPStatus(err error) int {
	if errors.Is(err, ErrInvalidIdentifier) {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}
