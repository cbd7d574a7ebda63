// Package middleware carries the HTTP wrappers every attest module runs:
// CORS, body limits, and request logging.
package middleware

import (
	"net/http"
	"slices"
)

// System composes wrappers. The first one registered sees the request first.
type System interface {
	Use(mw func(http.Handler) http.Handler)
	Apply(handler http.Handler) http.Handler
}

type chain []func(http.Handler) http.Handler

func New() System {
	return &chain{}
}

func (c *chain) Use(fn func(http.Handler) http.Handler) {
	*c = append(*c, fn)
}

func (c *chain) Apply(handler http.Handler) http.Handler {
	for _, wrap := range slices.Backward(*c) {
		handler = wrap(handler)
	}
	return handler
}
