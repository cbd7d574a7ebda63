package classifications

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/JaimeStill/attest/internal/access"
	"github.com/JaimeStill/attest/internal/authz"
	"github.com/JaimeStill/attest/internal/definitions"
	"github.com/JaimeStill/attest/internal/events"
	"github.com/JaimeStill/attest/internal/fees"
	"github.com/JaimeStill/attest/internal/ledger"
	"github.com/JaimeStill/attest/internal/metrics"
	"github.com/JaimeStill/attest/internal/objects"
	"github.com/JaimeStill/attest/internal/settlement"
	"github.com/JaimeStill/attest/pkg/pagination"
	"github.com/JaimeStill/attest/pkg/validation"
)

// Objects reports whether a ledger object exists.
type Objects interface {
	Exists(ctx context.Context, address string) (bool, error)
}

// Runtime holds the collaborators the state machine calls out to.
// Events and Metrics may be nil.
type Runtime struct {
	Definitions definitions.Reader
	Objects     Objects
	Codec       ledger.Codec
	Rail        settlement.Rail
	Oracle      authz.Oracle
	Events      events.Publisher
	Metrics     *metrics.Metrics
}

type machine struct {
	store      TxStore
	rt         Runtime
	logger     *slog.Logger
	pagination pagination.Config
	now        func() time.Time
}

// New creates the classification state machine over store.
func New(
	store TxStore,
	rt Runtime,
	logger *slog.Logger,
	pagination pagination.Config,
) System {
	if rt.Events == nil {
		rt.Events = events.Noop()
	}
	return &machine{
		store:      store,
		rt:         rt,
		logger:     logger.With("system", "classifications"),
		pagination: pagination,
		now:        func() time.Time { return time.Now().UTC().Truncate(time.Microsecond) },
	}
}

func (m *machine) Handler() *Handler {
	return NewHandler(m, m.logger, m.pagination)
}

func (m *machine) List(
	ctx context.Context,
	page pagination.PageRequest,
	filters Filters,
) (*pagination.PageResult[Record], error) {
	page.Normalize(m.pagination)

	result, err := m.store.List(ctx, page, filters)
	if err != nil {
		return nil, fmt.Errorf("list classifications: %w", err)
	}
	return result, nil
}

func (m *machine) Find(ctx context.Context, id ledger.Identifier, typeName string) (*Record, error) {
	resolved, err := ledger.Resolve(m.rt.Codec, id)
	if err != nil {
		return nil, err
	}

	r, err := m.store.Get(ctx, resolved.Address, typeName)
	if err != nil {
		return nil, fmt.Errorf("find classification %s/%s: %w", resolved.Address, typeName, err)
	}
	return r, nil
}

func (m *machine) FindAll(ctx context.Context, id ledger.Identifier) ([]Record, error) {
	resolved, err := ledger.Resolve(m.rt.Codec, id)
	if err != nil {
		return nil, err
	}

	records, err := m.store.GetAll(ctx, resolved.Address)
	if err != nil {
		return nil, fmt.Errorf("find classifications %s: %w", resolved.Address, err)
	}
	return records, nil
}

func (m *machine) FindPending(ctx context.Context, id ledger.Identifier, typeName string) (*Pending, error) {
	resolved, err := ledger.Resolve(m.rt.Codec, id)
	if err != nil {
		return nil, err
	}

	p, err := m.store.GetPending(ctx, resolved.Address, typeName)
	if err != nil {
		return nil, fmt.Errorf("find pending disbursement %s/%s: %w", resolved.Address, typeName, err)
	}
	return p, nil
}

func (m *machine) Onboard(ctx context.Context, caller string, cmd OnboardCommand) (*Record, error) {
	defer m.rt.Metrics.ObserveOperation("onboard", time.Now())

	cmd.TypeName = strings.TrimSpace(cmd.TypeName)
	cmd.VerifierAddress = strings.TrimSpace(cmd.VerifierAddress)

	var v validation.Errors
	v.Required("caller", caller)
	v.Required("type_name", cmd.TypeName)
	v.Required("verifier_address", cmd.VerifierAddress)
	if err := v.Err(); err != nil {
		return nil, err
	}

	resolved, err := ledger.Resolve(m.rt.Codec, cmd.Identifier)
	if err != nil {
		return nil, err
	}

	def, err := m.rt.Definitions.Find(ctx, cmd.TypeName)
	if err != nil {
		return nil, fmt.Errorf("onboard %s: %w", resolved.Address, err)
	}
	if !def.Enabled {
		return nil, fmt.Errorf("%w: %s", ErrDisabled, cmd.TypeName)
	}
	verifier, ok := def.Verifier(cmd.VerifierAddress)
	if !ok {
		return nil, fmt.Errorf("%w: %s for %s", ErrUnsupportedVerifier, cmd.VerifierAddress, cmd.TypeName)
	}

	exists, err := m.rt.Objects.Exists(ctx, resolved.Address)
	if err != nil {
		return nil, fmt.Errorf("onboard %s: %w", resolved.Address, err)
	}
	if !exists {
		return nil, fmt.Errorf("onboard %s: %w", resolved.Address, objects.ErrNotFound)
	}

	trust := true
	if cmd.TrustVerifier != nil {
		trust = *cmd.TrustVerifier
	}

	var (
		rec   Record
		plan  fees.Plan
		retry bool
	)

	err = m.store.RunInTx(ctx, func(s Store) error {
		existing, err := s.Get(ctx, resolved.Address, cmd.TypeName)
		switch {
		case err == nil && existing.Status.Active():
			return fmt.Errorf("%w: %s is %s", ErrAlreadyOnboarded, resolved.Address, existing.Status)
		case err == nil:
			retry = true
		case !errors.Is(err, ErrNotFound):
			return err
		}

		prior, err := s.GetAll(ctx, resolved.Address)
		if err != nil {
			return err
		}

		schedule := fees.SelectSchedule(verifier, retry, cmd.TypeName, priorsOf(prior))
		plan, err = fees.BuildPlan(resolved.Address, cmd.TypeName, verifier, schedule)
		if err != nil {
			return err
		}

		now := m.now()
		plan.CreatedAt = now
		if retry {
			rec = *existing
		} else {
			rec = Record{
				AssetID:       resolved.AssetID,
				ObjectAddress: resolved.Address,
				TypeName:      cmd.TypeName,
				CreatedAt:     now,
			}
		}

		rec.Requestor = caller
		rec.VerifierAddress = verifier.Address
		rec.VerifierConfig = &verifier
		rec.TrustVerifier = trust
		rec.Status = StatusPending
		rec.Decision = nil
		rec.AccessDefinitions = access.Upsert(rec.AccessDefinitions, caller, access.OriginRequestor, cmd.AccessRoutes)
		if rec.AccessDefinitions == nil {
			rec.AccessDefinitions = []access.Definition{}
		}
		rec.UpdatedAt = now

		save := s.Insert
		if retry {
			save = s.Put
		}
		if err := save(ctx, &rec); err != nil {
			return err
		}
		return s.PutPending(ctx, &Pending{
			ObjectAddress: rec.ObjectAddress,
			TypeName:      rec.TypeName,
			Plan:          plan,
			CreatedAt:     now,
		})
	})
	if err != nil {
		return nil, fmt.Errorf("onboard %s as %s: %w", resolved.Address, cmd.TypeName, err)
	}

	m.rt.Metrics.IncrementOnboarding(rec.TypeName, retry)
	m.rt.Events.Publish(ctx, events.Event{
		Type:          events.ClassificationOnboarded,
		TypeName:      rec.TypeName,
		ObjectAddress: rec.ObjectAddress,
		Actor:         caller,
		Attributes: map[string]string{
			"verifier":       rec.VerifierAddress,
			"retry":          strconv.FormatBool(retry),
			"trust_verifier": strconv.FormatBool(trust),
			"cost":           strconv.FormatUint(plan.Total(), 10),
		},
	})
	m.logger.Info("classification onboarded",
		"object", rec.ObjectAddress,
		"type_name", rec.TypeName,
		"requestor", caller,
		"verifier", rec.VerifierAddress,
		"retry", retry,
		"payments", len(plan.Payments),
	)

	return &rec, nil
}

func (m *machine) Decide(ctx context.Context, caller string, cmd DecideCommand) (*Record, error) {
	defer m.rt.Metrics.ObserveOperation("decide", time.Now())

	var v validation.Errors
	v.Required("type_name", cmd.TypeName)
	if err := v.Err(); err != nil {
		return nil, err
	}

	resolved, err := ledger.Resolve(m.rt.Codec, cmd.Identifier)
	if err != nil {
		return nil, err
	}

	var (
		rec       *Record
		disbursed *fees.Plan
	)

	err = m.store.RunInTx(ctx, func(s Store) error {
		var err error
		rec, err = s.Get(ctx, resolved.Address, cmd.TypeName)
		if err != nil {
			return err
		}
		if caller != rec.VerifierAddress {
			return fmt.Errorf("%w: only the bound verifier may decide this classification", authz.ErrUnauthorized)
		}
		if rec.Status != StatusPending {
			return fmt.Errorf("%w: status is %s", ErrAlreadyDecided, rec.Status)
		}

		now := m.now()
		rec.Decision = &Decision{
			Success:   cmd.Success,
			Message:   decisionMessage(cmd),
			DecidedAt: now,
		}
		rec.AccessDefinitions = access.Upsert(rec.AccessDefinitions, caller, access.OriginVerifier, cmd.AccessRoutes)
		rec.UpdatedAt = now

		if !rec.TrustVerifier {
			rec.Status = StatusAwaitingFinalization
			return s.Put(ctx, rec)
		}

		rec.Status = outcome(rec.Decision)
		plan, err := m.consumePending(ctx, s, rec)
		if err != nil {
			return err
		}
		if err := s.Put(ctx, rec); err != nil {
			return err
		}
		disbursed = plan
		return m.rt.Rail.Disburse(ctx, *plan)
	})
	if err != nil {
		return nil, fmt.Errorf("decide %s as %s: %w", resolved.Address, cmd.TypeName, err)
	}

	m.settled(ctx, events.ClassificationDecided, caller, rec, disbursed)
	return rec, nil
}

func (m *machine) Finalize(ctx context.Context, caller string, cmd FinalizeCommand) (*Record, error) {
	defer m.rt.Metrics.ObserveOperation("finalize", time.Now())

	var v validation.Errors
	v.Required("type_name", cmd.TypeName)
	if err := v.Err(); err != nil {
		return nil, err
	}

	resolved, err := ledger.Resolve(m.rt.Codec, cmd.Identifier)
	if err != nil {
		return nil, err
	}

	var (
		rec       *Record
		disbursed *fees.Plan
	)

	err = m.store.RunInTx(ctx, func(s Store) error {
		var err error
		rec, err = s.Get(ctx, resolved.Address, cmd.TypeName)
		if err != nil {
			return err
		}
		if caller != rec.Requestor {
			return fmt.Errorf("%w: only the requestor may finalize this classification", authz.ErrUnauthorized)
		}
		if rec.Status != StatusAwaitingFinalization || rec.Decision == nil {
			return fmt.Errorf("%w: status is %s", ErrInvalidFinalization, rec.Status)
		}

		rec.Status = outcome(rec.Decision)
		rec.UpdatedAt = m.now()

		plan, err := m.consumePending(ctx, s, rec)
		if err != nil {
			return err
		}
		if err := s.Put(ctx, rec); err != nil {
			return err
		}
		disbursed = plan
		return m.rt.Rail.Disburse(ctx, *plan)
	})
	if err != nil {
		return nil, fmt.Errorf("finalize %s as %s: %w", resolved.Address, cmd.TypeName, err)
	}

	m.settled(ctx, events.ClassificationFinalized, caller, rec, disbursed)
	return rec, nil
}

func (m *machine) UpdateAccessRoutes(ctx context.Context, caller string, cmd UpdateRoutesCommand) (*Record, error) {
	defer m.rt.Metrics.ObserveOperation("update_access_routes", time.Now())

	var v validation.Errors
	v.Required("type_name", cmd.TypeName)
	v.Required("owner_address", cmd.OwnerAddress)
	if err := v.Err(); err != nil {
		return nil, err
	}

	if caller != cmd.OwnerAddress && !m.rt.Oracle.IsAdmin(caller) {
		return nil, fmt.Errorf("%w: only the route owner or the admin may update access routes", authz.ErrUnauthorized)
	}
	if err := access.ValidateUpdate(cmd.AccessRoutes); err != nil {
		return nil, err
	}

	resolved, err := ledger.Resolve(m.rt.Codec, cmd.Identifier)
	if err != nil {
		return nil, err
	}

	var rec *Record
	err = m.store.RunInTx(ctx, func(s Store) error {
		var err error
		rec, err = s.Get(ctx, resolved.Address, cmd.TypeName)
		if err != nil {
			return err
		}

		defs, ok := access.Replace(rec.AccessDefinitions, cmd.OwnerAddress, cmd.AccessRoutes)
		if !ok {
			return fmt.Errorf("%w: %s", ErrAccessNotFound, cmd.OwnerAddress)
		}
		rec.AccessDefinitions = defs
		rec.UpdatedAt = m.now()

		return s.Put(ctx, rec)
	})
	if err != nil {
		return nil, fmt.Errorf("update access routes on %s/%s: %w", resolved.Address, cmd.TypeName, err)
	}

	m.rt.Events.Publish(ctx, events.Event{
		Type:          events.AccessRoutesUpdated,
		TypeName:      rec.TypeName,
		ObjectAddress: rec.ObjectAddress,
		Actor:         caller,
		Attributes:    map[string]string{"owner": cmd.OwnerAddress},
	})
	m.logger.Info("access routes updated",
		"object", rec.ObjectAddress,
		"type_name", rec.TypeName,
		"owner", cmd.OwnerAddress,
		"routes", len(cmd.AccessRoutes),
	)

	return rec, nil
}

// consumePending removes and returns the plan stored at onboarding.
func (m *machine) consumePending(ctx context.Context, s Store, rec *Record) (*fees.Plan, error) {
	pending, err := s.GetPending(ctx, rec.ObjectAddress, rec.TypeName)
	if err != nil {
		return nil, err
	}
	if err := s.DeletePending(ctx, rec.ObjectAddress, rec.TypeName); err != nil {
		return nil, err
	}
	plan := pending.Plan
	if plan.CreatedAt.IsZero() {
		plan.CreatedAt = pending.CreatedAt
	}
	return &plan, nil
}

// settled runs the post-commit side effects of a decide or finalize.
func (m *machine) settled(ctx context.Context, t events.Type, caller string, rec *Record, plan *fees.Plan) {
	m.rt.Metrics.IncrementOutcome(rec.TypeName, string(rec.Status))

	attrs := map[string]string{
		"status":  string(rec.Status),
		"success": strconv.FormatBool(rec.Decision.Success),
	}
	if plan != nil {
		for _, p := range plan.Payments {
			m.rt.Metrics.AddDisbursed(rec.TypeName, p.Kind, p.Amount)
		}
		attrs["disbursed"] = strconv.FormatUint(plan.Total(), 10)
	}

	m.rt.Events.Publish(ctx, events.Event{
		Type:          t,
		TypeName:      rec.TypeName,
		ObjectAddress: rec.ObjectAddress,
		Actor:         caller,
		Attributes:    attrs,
	})
	m.logger.Info("classification "+string(rec.Status),
		"object", rec.ObjectAddress,
		"type_name", rec.TypeName,
		"actor", caller,
		"message", rec.Decision.Message,
		"disbursed", plan != nil,
	)
}

func priorsOf(records []Record) []fees.Prior {
	out := make([]fees.Prior, len(records))
	for i, r := range records {
		out[i] = fees.Prior{TypeName: r.TypeName, VerifierAddress: r.VerifierAddress}
	}
	return out
}

func decisionMessage(cmd DecideCommand) string {
	if cmd.Message != nil && strings.TrimSpace(*cmd.Message) != "" {
		return strings.TrimSpace(*cmd.Message)
	}
	if cmd.Success {
		return defaultSuccessMessage
	}
	return defaultFailureMessage
}

func outcome(d *Decision) Status {
	if d.Success {
		return StatusApproved
	}
	return StatusDenied
}
