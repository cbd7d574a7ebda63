// Package settlement hands disbursement plans to the transfer rail. The engine
// never moves funds itself; a rail records a durable instruction that an
// external settlement process executes.
package settlement

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/JaimeStill/attest/internal/fees"
)

// ErrEmptyPlan is returned for a plan without a subject.
var ErrEmptyPlan = errors.New("disbursement plan has no subject")

// Rail executes disbursement plans. Disburse is called inside the caller's
// unit of work; an error aborts the surrounding transition. A plan disbursed
// again after its transition failed to commit replaces the earlier
// instruction instead of adding a second one.
type Rail interface {
	Disburse(ctx context.Context, plan fees.Plan) error
}

// Reader lists the instructions recorded for a classification.
type Reader interface {
	Instructions(ctx context.Context, subjectID, typeName string) ([]Instruction, error)
}

// Instruction is the durable record of one disbursed plan.
type Instruction struct {
	ID       uuid.UUID `json:"id"`
	Plan     fees.Plan `json:"plan"`
	Total    uint64    `json:"total"`
	IssuedAt time.Time `json:"issued_at"`
}

var instructionSpace = uuid.MustParse("6f1d2c84-3b7a-5e0f-9a41-c2d8e5b07f36")

// InstructionID derives the instruction identity from the plan's subject,
// type and creation time.
func InstructionID(plan fees.Plan) uuid.UUID {
	name := strings.Join([]string{
		plan.SubjectID,
		plan.TypeName,
		plan.CreatedAt.UTC().Format(time.RFC3339Nano),
	}, "\n")
	return uuid.NewSHA1(instructionSpace, []byte(name))
}

func newInstruction(plan fees.Plan, now time.Time) (Instruction, error) {
	if plan.SubjectID == "" || plan.TypeName == "" {
		return Instruction{}, ErrEmptyPlan
	}
	return Instruction{
		ID:       InstructionID(plan),
		Plan:     plan,
		Total:    plan.Total(),
		IssuedAt: now,
	}, nil
}

type logRail struct {
	logger *slog.Logger
}

// NewLogRail returns a Rail that only logs each payment. Used when no
// durable outbox is configured.
func NewLogRail(logger *slog.Logger) Rail {
	return &logRail{logger: logger.With("system", "settlement", "rail", "log")}
}

func (r *logRail) Disburse(_ context.Context, plan fees.Plan) error {
	if plan.SubjectID == "" || plan.TypeName == "" {
		return ErrEmptyPlan
	}
	for _, p := range plan.Payments {
		r.logger.Info("disbursement",
			"subject", plan.SubjectID,
			"type_name", plan.TypeName,
			"recipient", p.Recipient,
			"amount", p.Amount,
			"label", p.Label,
		)
	}
	return nil
}
