package classifications

import (
	"encoding/json"
	"fmt"
	"net/url"

	"github.com/JaimeStill/attest/internal/access"
	"github.com/JaimeStill/attest/pkg/query"
	"github.com/JaimeStill/attest/pkg/repository"
)

var projection = query.
	NewProjectionMap("public", "classification_records", "r").
	Project("object_address", "ObjectAddress").
	Project("type_name", "TypeName").
	Project("asset_id", "AssetID").
	Project("requestor", "Requestor").
	Project("verifier_address", "VerifierAddress").
	Project("status", "Status").
	Project("trust_verifier", "TrustVerifier").
	Project("verifier_config", "VerifierConfig").
	Project("decision", "Decision").
	Project("access_definitions", "AccessDefinitions").
	Project("created_at", "CreatedAt").
	Project("updated_at", "UpdatedAt")

var defaultSort = query.SortField{
	Field:      "UpdatedAt",
	Descending: true,
}

// Filters contains optional filtering criteria for record queries.
// Nil fields are ignored. All fields use exact matching.
type Filters struct {
	TypeName  *string `json:"type_name,omitempty"`
	Status    *Status `json:"status,omitempty"`
	Verifier  *string `json:"verifier,omitempty"`
	Requestor *string `json:"requestor,omitempty"`
}

// Apply adds filter conditions to a query builder.
func (f Filters) Apply(b *query.Builder) *query.Builder {
	var status *string
	if f.Status != nil {
		s := string(*f.Status)
		status = &s
	}
	return b.
		WhereEquals("TypeName", f.TypeName).
		WhereEquals("Status", status).
		WhereEquals("VerifierAddress", f.Verifier).
		WhereEquals("Requestor", f.Requestor)
}

// Matches reports whether r satisfies the filters.
func (f Filters) Matches(r *Record) bool {
	switch {
	case f.TypeName != nil && r.TypeName != *f.TypeName,
		f.Status != nil && r.Status != *f.Status,
		f.Verifier != nil && r.VerifierAddress != *f.Verifier,
		f.Requestor != nil && r.Requestor != *f.Requestor:
		return false
	}
	return true
}

// FiltersFromQuery extracts filter values from URL query parameters.
func FiltersFromQuery(values url.Values) Filters {
	var f Filters

	if t := values.Get("type_name"); t != "" {
		f.TypeName = &t
	}
	if s := values.Get("status"); s != "" {
		status := Status(s)
		f.Status = &status
	}
	if v := values.Get("verifier"); v != "" {
		f.Verifier = &v
	}
	if r := values.Get("requestor"); r != "" {
		f.Requestor = &r
	}

	return f
}

func scanRecord(s repository.Scanner) (Record, error) {
	var r Record
	var verifierRaw, decisionRaw, accessRaw []byte

	err := s.Scan(
		&r.ObjectAddress,
		&r.TypeName,
		&r.AssetID,
		&r.Requestor,
		&r.VerifierAddress,
		&r.Status,
		&r.TrustVerifier,
		&verifierRaw,
		&decisionRaw,
		&accessRaw,
		&r.CreatedAt,
		&r.UpdatedAt,
	)
	if err != nil {
		return r, err
	}

	if len(verifierRaw) > 0 {
		if err := json.Unmarshal(verifierRaw, &r.VerifierConfig); err != nil {
			return r, fmt.Errorf("unmarshal verifier_config: %w", err)
		}
	}
	if len(decisionRaw) > 0 {
		if err := json.Unmarshal(decisionRaw, &r.Decision); err != nil {
			return r, fmt.Errorf("unmarshal decision: %w", err)
		}
	}
	if len(accessRaw) > 0 {
		if err := json.Unmarshal(accessRaw, &r.AccessDefinitions); err != nil {
			return r, fmt.Errorf("unmarshal access_definitions: %w", err)
		}
	}
	if r.AccessDefinitions == nil {
		r.AccessDefinitions = []access.Definition{}
	}

	return r, nil
}

func scanPending(s repository.Scanner) (Pending, error) {
	var p Pending
	var planRaw []byte

	if err := s.Scan(&p.ObjectAddress, &p.TypeName, &planRaw, &p.CreatedAt); err != nil {
		return p, err
	}
	if err := json.Unmarshal(planRaw, &p.Plan); err != nil {
		return p, fmt.Errorf("unmarshal plan: %w", err)
	}
	return p, nil
}
