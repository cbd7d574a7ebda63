package definitions

import (
	"fmt"
	"strings"

	"github.com/JaimeStill/attest/pkg/validation"
)

func validateDefinition(d *Definition) error {
	var v validation.Errors

	if v.Required("type_name", d.TypeName) {
		v.Check(!strings.Contains(d.TypeName, "/"), "type_name", "must not contain '/'")
	}
	v.Required("spec_link", d.SpecLink)
	if d.DisplayName != nil {
		v.Required("display_name", *d.DisplayName)
	}

	if len(d.Verifiers) == 0 {
		v.Add("verifiers", "must contain at least one verifier")
	}

	seen := make(map[string]struct{}, len(d.Verifiers))
	for i, ver := range d.Verifiers {
		prefix := fmt.Sprintf("verifiers[%d].", i)
		if _, dup := seen[ver.Address]; dup && ver.Address != "" {
			v.Add(prefix+"address", "duplicate verifier address")
		}
		seen[ver.Address] = struct{}{}

		var inner validation.Errors
		checkVerifier(&inner, ver)
		v.Merge(prefix, &inner)
	}

	return v.Err()
}

func validateVerifier(ver Verifier) error {
	var v validation.Errors
	checkVerifier(&v, ver)
	return v.Err()
}

func checkVerifier(v *validation.Errors, ver Verifier) {
	v.Required("address", ver.Address)
	checkSchedule(v, "default_cost", ver.DefaultCost)

	if ver.RetryCost != nil {
		checkSchedule(v, "retry_cost", *ver.RetryCost)
	}

	if sc := ver.SubsequentCost; sc != nil {
		if sc.Cost == nil && sc.AllowedPriorTypes == nil {
			v.Add("subsequent_cost", "must specify cost or allowed_prior_types")
		}
		if sc.Cost != nil {
			checkSchedule(v, "subsequent_cost.cost", *sc.Cost)
		}
		if sc.AllowedPriorTypes != nil {
			checkPriorTypes(v, sc.AllowedPriorTypes)
		}
	}

	if ver.Entity != nil {
		v.Required("entity_detail.name", ver.Entity.Name)
	}
}

func checkSchedule(v *validation.Errors, field string, s CostSchedule) {
	if s.Total%2 != 0 {
		v.Add(field+".total", "must be an even number")
	}

	seen := make(map[string]struct{}, len(s.FeeDestinations))
	for i, d := range s.FeeDestinations {
		prefix := fmt.Sprintf("%s.fee_destinations[%d].", field, i)
		if v.Required(prefix+"address", d.Address) {
			if _, dup := seen[d.Address]; dup {
				v.Add(prefix+"address", "duplicate fee destination address")
			}
			seen[d.Address] = struct{}{}
		}
		v.Check(d.Amount > 0, prefix+"amount", "must be greater than zero")
		if d.Amount > s.Disbursable() {
			v.Addf(prefix+"amount", "exceeds half of the total cost (%d)", s.Disbursable())
		}
	}

	fees, ok := s.FeeTotal()
	switch {
	case !ok:
		v.Add(field+".fee_destinations", "fee total overflows")
	case fees > s.Disbursable():
		v.Addf(field+".fee_destinations", "fee total %d exceeds half of the total cost (%d)", fees, s.Disbursable())
	}
}

func checkPriorTypes(v *validation.Errors, types []string) {
	const field = "subsequent_cost.allowed_prior_types"

	if len(types) == 0 {
		v.Add(field, "must not be empty when provided")
		return
	}

	seen := make(map[string]struct{}, len(types))
	for _, t := range types {
		t = strings.TrimSpace(t)
		if t == "" {
			v.Add(field, "must not contain blank types")
			continue
		}
		if _, dup := seen[t]; dup {
			v.Addf(field, "duplicate type %q", t)
		}
		seen[t] = struct{}{}
	}
}
