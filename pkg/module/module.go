// Package module mounts self-contained HTTP surfaces under a single path
// segment. Each module sees request paths relative to its mount point and
// carries its own middleware chain.
package module

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"github.com/JaimeStill/attest/pkg/middleware"
)

// ErrInvalidPrefix is returned for mount points that are not exactly one
// path segment such as "/api".
var ErrInvalidPrefix = errors.New("invalid module prefix")

type Module struct {
	prefix string
	inner  http.Handler
	chain  middleware.System

	once    sync.Once
	handler http.Handler
}

func New(prefix string, inner http.Handler) (*Module, error) {
	if err := checkPrefix(prefix); err != nil {
		return nil, err
	}
	return &Module{
		prefix: prefix,
		inner:  inner,
		chain:  middleware.New(),
	}, nil
}

func (m *Module) Prefix() string {
	return m.prefix
}

// Use appends a wrapper. The chain is frozen on the first served request;
// later calls have no effect.
func (m *Module) Use(mw func(http.Handler) http.Handler) {
	m.chain.Use(mw)
}

// Serve rewrites the request path relative to the mount point and hands
// it to the wrapped inner handler.
func (m *Module) Serve(w http.ResponseWriter, req *http.Request) {
	m.once.Do(func() {
		m.handler = m.chain.Apply(m.inner)
	})
	m.handler.ServeHTTP(w, relativeTo(req, m.prefix))
}

func relativeTo(req *http.Request, prefix string) *http.Request {
	rest := strings.TrimPrefix(req.URL.Path, prefix)
	if rest == "" {
		rest = "/"
	}

	u := *req.URL
	u.Path = rest
	u.RawPath = ""

	out := req.WithContext(req.Context())
	out.URL = &u
	return out
}

func checkPrefix(prefix string) error {
	seg, ok := strings.CutPrefix(prefix, "/")
	switch {
	case !ok:
		return fmt.Errorf("%w: %q must start with /", ErrInvalidPrefix, prefix)
	case seg == "":
		return fmt.Errorf("%w: %q is empty", ErrInvalidPrefix, prefix)
	case strings.Contains(seg, "/"):
		return fmt.Errorf("%w: %q spans more than one segment", ErrInvalidPrefix, prefix)
	}
	return nil
}
