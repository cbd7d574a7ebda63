// Package fees prices classifications and splits the verifier half of a
// schedule into the payments handed to the transfer rail.
package fees

import (
	"errors"
	"fmt"
	"net/http"
	"slices"
	"time"

	"github.com/JaimeStill/attest/internal/definitions"
)

// ErrMisconfiguredFees is returned when a schedule's destinations claim more
// than the disbursable half of its total.
var ErrMisconfiguredFees = errors.New("fee destinations exceed the disbursable amount")

// Recipient kinds for a payment.
const (
	RecipientFee      = "fee"
	RecipientVerifier = "verifier"
)

// Payment is a single transfer in a plan.
type Payment struct {
	Amount    uint64 `json:"amount"`
	Recipient string `json:"recipient"`
	Label     string `json:"label"`
	Kind      string `json:"kind"`
}

// Plan is the set of payments owed once a classification is decided.
// CreatedAt is the onboarding that priced the plan; together with the subject
// and type it identifies the plan to the transfer rail.
type Plan struct {
	SubjectID string    `json:"subject_id"`
	TypeName  string    `json:"type_name"`
	Payments  []Payment `json:"payments"`
	CreatedAt time.Time `json:"created_at"`
}

// Total sums every payment amount.
func (p Plan) Total() uint64 {
	var sum uint64
	for _, pay := range p.Payments {
		sum += pay.Amount
	}
	return sum
}

// Prior is the slice of an earlier classification of the same asset that
// schedule selection looks at.
type Prior struct {
	TypeName        string
	VerifierAddress string
}

// SelectSchedule picks which of a verifier's schedules applies.
//
// Retries use retry_cost when set. Otherwise, when the same verifier already
// classified the asset as some other type and the verifier offers a
// subsequent cost, that cost applies as long as allowed_prior_types is absent
// or names one of those other types. Everything else pays default_cost.
func SelectSchedule(v definitions.Verifier, isRetry bool, targetType string, prior []Prior) definitions.CostSchedule {
	if isRetry {
		if v.RetryCost != nil {
			return *v.RetryCost
		}
		return v.DefaultCost
	}

	sc := v.SubsequentCost
	if sc == nil || sc.Cost == nil {
		return v.DefaultCost
	}

	var others []string
	for _, p := range prior {
		if p.VerifierAddress == v.Address && p.TypeName != targetType {
			others = append(others, p.TypeName)
		}
	}
	if len(others) == 0 {
		return v.DefaultCost
	}

	if sc.AllowedPriorTypes == nil {
		return *sc.Cost
	}
	for _, t := range others {
		if slices.Contains(sc.AllowedPriorTypes, t) {
			return *sc.Cost
		}
	}
	return v.DefaultCost
}

// BuildPlan splits half of the schedule total between the fee destinations and
// the verifier. The verifier payment is omitted when fees consume the whole half.
func BuildPlan(subjectID, typeName string, v definitions.Verifier, s definitions.CostSchedule) (Plan, error) {
	disbursable := s.Disbursable()
	feeTotal, ok := s.FeeTotal()
	if !ok {
		return Plan{}, fmt.Errorf("%w: fee total overflows", ErrMisconfiguredFees)
	}
	if feeTotal > disbursable {
		return Plan{}, fmt.Errorf("%w: fees total %d, disbursable %d", ErrMisconfiguredFees, feeTotal, disbursable)
	}

	payments := make([]Payment, 0, len(s.FeeDestinations)+1)
	for _, d := range s.FeeDestinations {
		payments = append(payments, Payment{
			Amount:    d.Amount,
			Recipient: d.Address,
			Label:     feeLabel(d),
			Kind:      RecipientFee,
		})
	}

	if remainder := disbursable - feeTotal; remainder > 0 {
		payments = append(payments, Payment{
			Amount:    remainder,
			Recipient: v.Address,
			Label:     verifierLabel(v),
			Kind:      RecipientVerifier,
		})
	}

	return Plan{
		SubjectID: subjectID,
		TypeName:  typeName,
		Payments:  payments,
	}, nil
}

func feeLabel(d definitions.FeeDestination) string {
	if d.Entity != nil && d.Entity.Name != "" {
		return "Fee for " + d.Entity.Name
	}
	return "Fee for " + d.Address
}

func verifierLabel(v definitions.Verifier) string {
	if v.Entity != nil && v.Entity.Name != "" {
		return v.Entity.Name + " Verifier Fee"
	}
	return "Verifier Fee"
}

// MapHTTPStatus maps fee errors to HTTP status codes.
func MapHTTPStatus(err error) (int, bool) {
	if errors.Is(err, ErrMisconfiguredFees) {
		return http.StatusUnprocessableEntity, true
	}
	return 0, false
}
