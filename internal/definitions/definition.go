// Package definitions implements the classification type registry: the catalog
// of types an asset can be classified into, the verifiers allowed to decide each
// type, and what each verifier charges.
package definitions

import (
	"math/bits"
	"time"
)

// EntityDetail describes an organization receiving payments.
type EntityDetail struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	HomeURL     string `json:"home_url"`
	SourceURL   string `json:"source_url"`
}

// FeeDestination is a fixed cut of a verifier's cost paid to another account.
type FeeDestination struct {
	Address string        `json:"address"`
	Amount  uint64        `json:"amount"`
	Entity  *EntityDetail `json:"entity_detail,omitempty"`
}

// CostSchedule is what one classification costs the requestor. Half of Total is
// disbursed to the verifier and fee destinations; the other half is the engine's cut.
type CostSchedule struct {
	Total           uint64           `json:"total"`
	FeeDestinations []FeeDestination `json:"fee_destinations"`
}

// FeeTotal sums all destination amounts. ok is false when the sum overflows.
func (c CostSchedule) FeeTotal() (sum uint64, ok bool) {
	for _, d := range c.FeeDestinations {
		var carry uint64
		sum, carry = bits.Add64(sum, d.Amount, 0)
		if carry != 0 {
			return 0, false
		}
	}
	return sum, true
}

// Disbursable is the half of Total paid out through the transfer rail.
func (c CostSchedule) Disbursable() uint64 {
	return c.Total / 2
}

// SubsequentCost prices classifying an asset that the same verifier already
// classified as a different type. A nil AllowedPriorTypes accepts any prior type.
type SubsequentCost struct {
	Cost              *CostSchedule `json:"cost,omitempty"`
	AllowedPriorTypes []string      `json:"allowed_prior_types,omitempty"`
}

// Verifier is an account authorized to decide classifications of a type.
type Verifier struct {
	Address        string          `json:"address"`
	DefaultCost    CostSchedule    `json:"default_cost"`
	RetryCost      *CostSchedule   `json:"retry_cost,omitempty"`
	SubsequentCost *SubsequentCost `json:"subsequent_cost,omitempty"`
	Entity         *EntityDetail   `json:"entity_detail,omitempty"`
}

// Definition is a classification type and its verifier configuration.
type Definition struct {
	TypeName    string     `json:"type_name"`
	SpecLink    string     `json:"spec_link"`
	DisplayName *string    `json:"display_name,omitempty"`
	Verifiers   []Verifier `json:"verifiers"`
	Enabled     bool       `json:"enabled"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// Verifier returns the verifier registered under address.
func (d *Definition) Verifier(address string) (Verifier, bool) {
	for _, v := range d.Verifiers {
		if v.Address == address {
			return v, true
		}
	}
	return Verifier{}, false
}

// Command carries the fields of a definition on register and replace.
// Enabled defaults to true on register and to the current value on replace.
type Command struct {
	TypeName    string     `json:"type_name"`
	SpecLink    string     `json:"spec_link"`
	DisplayName *string    `json:"display_name,omitempty"`
	Verifiers   []Verifier `json:"verifiers"`
	Enabled     *bool      `json:"enabled,omitempty"`
}

// ToggleCommand flips a definition's enabled flag. When Expected is set the
// operation fails unless the flipped value equals it.
type ToggleCommand struct {
	Expected *bool `json:"expected,omitempty"`
}
