// Package access manages the routes through which parties can retrieve the
// underlying data of a classified asset.
package access

import (
	"cmp"
	"slices"
	"strings"

	"github.com/JaimeStill/attest/pkg/validation"
)

// Origin records which party attached an access definition.
type Origin string

const (
	OriginRequestor Origin = "requestor"
	OriginVerifier  Origin = "verifier"
)

// Route is a location, such as a URL, where asset data can be fetched.
// Name optionally labels the route.
type Route struct {
	Route string  `json:"route"`
	Name  *string `json:"name,omitempty"`
}

// Definition groups the routes contributed by one owner.
type Definition struct {
	OwnerAddress string  `json:"owner_address"`
	Routes       []Route `json:"routes"`
	Origin       Origin  `json:"origin"`
}

// Trimmed returns r with surrounding whitespace removed from both fields.
// A name that trims to empty is dropped.
func (r Route) Trimmed() Route {
	out := Route{Route: strings.TrimSpace(r.Route)}
	if r.Name != nil {
		if name := strings.TrimSpace(*r.Name); name != "" {
			out.Name = &name
		}
	}
	return out
}

func (r Route) name() string {
	if r.Name == nil {
		return ""
	}
	return *r.Name
}

// Trim returns a trimmed copy of every route.
func Trim(routes []Route) []Route {
	out := make([]Route, len(routes))
	for i, r := range routes {
		out[i] = r.Trimmed()
	}
	return out
}

// FilterValid drops routes whose trimmed text is empty.
func FilterValid(routes []Route) []Route {
	out := make([]Route, 0, len(routes))
	for _, r := range routes {
		if strings.TrimSpace(r.Route) != "" {
			out = append(out, r)
		}
	}
	return out
}

// Merge concatenates existing and incoming, trims, drops blank routes, removes
// duplicates by (route, name), and sorts by route then name with an absent name first.
func Merge(existing, incoming []Route) []Route {
	all := make([]Route, 0, len(existing)+len(incoming))
	all = append(all, existing...)
	all = append(all, incoming...)
	return normalize(all)
}

// ValidateUpdate rejects a replacement route list containing blank entries or
// entries that collide after trimming.
func ValidateUpdate(routes []Route) error {
	var v validation.Errors
	if len(normalize(routes)) != len(routes) {
		v.Add("access_routes", "invalid or duplicate access routes were provided")
	}
	return v.Err()
}

// Normalize trims, filters, deduplicates, and sorts routes.
func Normalize(routes []Route) []Route {
	return normalize(routes)
}

// Upsert merges routes into the definition owned by owner, creating it with
// origin when absent. An empty normalized route list never creates a definition.
func Upsert(defs []Definition, owner string, origin Origin, routes []Route) []Definition {
	out := slices.Clone(defs)
	for i, d := range out {
		if d.OwnerAddress == owner {
			out[i].Routes = Merge(d.Routes, routes)
			return out
		}
	}

	merged := normalize(routes)
	if len(merged) == 0 {
		return out
	}
	return append(out, Definition{
		OwnerAddress: owner,
		Routes:       merged,
		Origin:       origin,
	})
}

// Replace substitutes the routes of the definition owned by owner.
// It reports false when owner has no definition.
func Replace(defs []Definition, owner string, routes []Route) ([]Definition, bool) {
	out := slices.Clone(defs)
	for i, d := range out {
		if d.OwnerAddress == owner {
			out[i].Routes = normalize(routes)
			return out, true
		}
	}
	return out, false
}

func normalize(routes []Route) []Route {
	valid := FilterValid(Trim(routes))

	type key struct {
		route string
		named bool
		name  string
	}
	seen := make(map[key]struct{}, len(valid))
	out := make([]Route, 0, len(valid))
	for _, r := range valid {
		k := key{route: r.Route, named: r.Name != nil, name: r.name()}
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, r)
	}

	slices.SortStableFunc(out, compare)
	return out
}

func compare(a, b Route) int {
	if c := cmp.Compare(a.Route, b.Route); c != 0 {
		return c
	}
	switch {
	case a.Name == nil && b.Name == nil:
		return 0
	case a.Name == nil:
		return -1
	case b.Name == nil:
		return 1
	}
	return cmp.Compare(*a.Name, *b.Name)
}
