package objects

import (
	"net/url"

	"github.com/JaimeStill/attest/pkg/query"
	"github.com/JaimeStill/attest/pkg/repository"
)

var projection = query.
	NewProjectionMap("public", "ledger_objects", "o").
	Project("address", "Address").
	Project("asset_id", "AssetID").
	Project("owner", "Owner").
	Project("created_at", "CreatedAt")

var defaultSort = query.SortField{Field: "CreatedAt", Descending: true}

// Filters contains optional filtering criteria for object queries.
type Filters struct {
	Owner *string `json:"owner,omitempty"`
}

// Apply adds filter conditions to a query builder.
func (f Filters) Apply(b *query.Builder) *query.Builder {
	return b.WhereEquals("Owner", f.Owner)
}

// FiltersFromQuery extracts filter values from URL query parameters.
func FiltersFromQuery(values url.Values) Filters {
	var f Filters
	if o := values.Get("owner"); o != "" {
		f.Owner = &o
	}
	return f
}

func scanObject(s repository.Scanner) (Object, error) {
	var o Object
	err := s.Scan(&o.Address, &o.AssetID, &o.Owner, &o.CreatedAt)
	return o, err
}
