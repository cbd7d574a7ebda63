// Package authz answers who the administrative account is and identifies the
// calling account of an HTTP request.
//
// The caller is read from CallerHeader. Unless Authenticate is configured with
// a signing key, that header is taken on trust: the service must then sit
// behind a gateway that authenticates the account and sets the header itself.
package authz

import (
	"errors"
	"net/http"
	"strings"
)

// CallerHeader carries the address of the account invoking an operation.
const CallerHeader = "X-Caller-Address"

// ErrUnauthorized indicates the caller may not perform the requested operation.
var ErrUnauthorized = errors.New("unauthorized")

// Oracle reports administrative authority.
type Oracle interface {
	IsAdmin(caller string) bool
	Admin() string
}

type static struct {
	admin string
}

// NewStatic returns an Oracle with a single fixed admin address.
func NewStatic(admin string) Oracle {
	return static{admin: strings.TrimSpace(admin)}
}

func (s static) IsAdmin(caller string) bool {
	return s.admin != "" && caller == s.admin
}

func (s static) Admin() string {
	return s.admin
}

// Caller returns the trimmed caller address from the request header.
func Caller(r *http.Request) string {
	return strings.TrimSpace(r.Header.Get(CallerHeader))
}
