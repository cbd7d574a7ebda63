// Package classifications runs the onboarding state machine: a requestor asks
// a verifier to classify a ledger object as a registered type, the verifier
// decides, and the disbursement computed at onboarding is paid out.
package classifications

import (
	"time"

	"github.com/google/uuid"

	"github.com/JaimeStill/attest/internal/access"
	"github.com/JaimeStill/attest/internal/definitions"
	"github.com/JaimeStill/attest/internal/fees"
	"github.com/JaimeStill/attest/internal/ledger"
)

// Status is the onboarding state of a record.
type Status string

const (
	StatusPending              Status = "pending"
	StatusDenied               Status = "denied"
	StatusApproved             Status = "approved"
	StatusAwaitingFinalization Status = "awaiting_finalization"
)

// Active reports whether the status blocks a new onboarding.
func (s Status) Active() bool {
	return s != StatusDenied
}

const (
	defaultSuccessMessage = "verification successful"
	defaultFailureMessage = "verification failure"
)

// Decision is the verifier's verdict on a record.
type Decision struct {
	Success   bool      `json:"success"`
	Message   string    `json:"message"`
	DecidedAt time.Time `json:"decided_at"`
}

// Record is the classification of one ledger object as one type.
type Record struct {
	AssetID           uuid.UUID             `json:"asset_id"`
	ObjectAddress     string                `json:"object_address"`
	TypeName          string                `json:"type_name"`
	Requestor         string                `json:"requestor"`
	VerifierAddress   string                `json:"verifier_address"`
	Status            Status                `json:"status"`
	TrustVerifier     bool                  `json:"trust_verifier"`
	VerifierConfig    *definitions.Verifier `json:"verifier_config,omitempty"`
	Decision          *Decision             `json:"decision,omitempty"`
	AccessDefinitions []access.Definition   `json:"access_definitions"`
	CreatedAt         time.Time             `json:"created_at"`
	UpdatedAt         time.Time             `json:"updated_at"`
}

// Pending is a disbursement plan computed at onboarding and held until the
// record is decided (or finalized).
type Pending struct {
	ObjectAddress string    `json:"object_address"`
	TypeName      string    `json:"type_name"`
	Plan          fees.Plan `json:"plan"`
	CreatedAt     time.Time `json:"created_at"`
}

// OnboardCommand requests classification of an object. TrustVerifier defaults
// to true; when false the decision is held for the requestor to finalize.
type OnboardCommand struct {
	Identifier      ledger.Identifier `json:"identifier"`
	TypeName        string            `json:"type_name"`
	VerifierAddress string            `json:"verifier_address"`
	AccessRoutes    []access.Route    `json:"access_routes,omitempty"`
	TrustVerifier   *bool             `json:"trust_verifier,omitempty"`
}

// DecideCommand records the bound verifier's verdict.
type DecideCommand struct {
	Identifier   ledger.Identifier `json:"identifier"`
	TypeName     string            `json:"type_name"`
	Success      bool              `json:"success"`
	Message      *string           `json:"message,omitempty"`
	AccessRoutes []access.Route    `json:"access_routes,omitempty"`
}

// FinalizeCommand releases a held decision.
type FinalizeCommand struct {
	Identifier ledger.Identifier `json:"identifier"`
	TypeName   string            `json:"type_name"`
}

// UpdateRoutesCommand replaces the routes of one owner's access definition.
type UpdateRoutesCommand struct {
	Identifier   ledger.Identifier `json:"identifier"`
	TypeName     string            `json:"type_name"`
	OwnerAddress string            `json:"owner_address"`
	AccessRoutes []access.Route    `json:"access_routes"`
}
