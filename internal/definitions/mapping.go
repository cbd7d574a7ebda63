package definitions

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"

	"github.com/JaimeStill/attest/pkg/query"
	"github.com/JaimeStill/attest/pkg/repository"
)

var projection = query.
	NewProjectionMap("public", "definitions", "d").
	Project("type_name", "TypeName").
	Project("spec_link", "SpecLink").
	Project("display_name", "DisplayName").
	Project("verifiers", "Verifiers").
	Project("enabled", "Enabled").
	Project("created_at", "CreatedAt").
	Project("updated_at", "UpdatedAt")

var defaultSort = query.SortField{Field: "TypeName"}

// Filters contains optional filtering criteria for definition queries.
// Nil fields are ignored.
type Filters struct {
	Enabled  *bool   `json:"enabled,omitempty"`
	Verifier *string `json:"verifier,omitempty"`
}

type verifierAddress struct {
	Address string `json:"address"`
}

// Apply adds filter conditions to a query builder.
func (f Filters) Apply(b *query.Builder) *query.Builder {
	b.WhereEquals("Enabled", f.Enabled)
	if f.Verifier != nil {
		b.WhereJSONContains("Verifiers", []verifierAddress{{Address: *f.Verifier}})
	}
	return b
}

// Matches reports whether d satisfies the filters.
func (f Filters) Matches(d *Definition) bool {
	if f.Enabled != nil && d.Enabled != *f.Enabled {
		return false
	}
	if f.Verifier != nil {
		if _, ok := d.Verifier(*f.Verifier); !ok {
			return false
		}
	}
	return true
}

// FiltersFromQuery extracts filter values from URL query parameters.
func FiltersFromQuery(values url.Values) Filters {
	var f Filters

	if e := values.Get("enabled"); e != "" {
		if enabled, err := strconv.ParseBool(e); err == nil {
			f.Enabled = &enabled
		}
	}

	if v := values.Get("verifier"); v != "" {
		f.Verifier = &v
	}

	return f
}

func scanDefinition(s repository.Scanner) (Definition, error) {
	var d Definition
	var verifiersRaw []byte

	err := s.Scan(
		&d.TypeName,
		&d.SpecLink,
		&d.DisplayName,
		&verifiersRaw,
		&d.Enabled,
		&d.CreatedAt,
		&d.UpdatedAt,
	)
	if err != nil {
		return d, err
	}

	if len(verifiersRaw) > 0 {
		if err := json.Unmarshal(verifiersRaw, &d.Verifiers); err != nil {
			return d, fmt.Errorf("unmarshal verifiers: %w", err)
		}
	}

	if d.Verifiers == nil {
		d.Verifiers = []Verifier{}
	}

	return d, nil
}
