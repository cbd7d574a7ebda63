package definitions

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/JaimeStill/attest/internal/authz"
	"github.com/JaimeStill/attest/internal/events"
	"github.com/JaimeStill/attest/internal/metrics"
	"github.com/JaimeStill/attest/pkg/pagination"
	"github.com/JaimeStill/attest/pkg/validation"
)

type registry struct {
	store      TxStore
	oracle     authz.Oracle
	cache      Cache
	events     events.Publisher
	metrics    *metrics.Metrics
	logger     *slog.Logger
	pagination pagination.Config
	now        func() time.Time
}

// New creates the registry system. cache and m may be nil.
func New(
	store TxStore,
	oracle authz.Oracle,
	cache Cache,
	publisher events.Publisher,
	m *metrics.Metrics,
	logger *slog.Logger,
	pagination pagination.Config,
) System {
	if publisher == nil {
		publisher = events.Noop()
	}
	return &registry{
		store:      store,
		oracle:     oracle,
		cache:      cache,
		events:     publisher,
		metrics:    m,
		logger:     logger.With("system", "definitions"),
		pagination: pagination,
		now:        func() time.Time { return time.Now().UTC().Truncate(time.Microsecond) },
	}
}

func (r *registry) Handler() *Handler {
	return NewHandler(r, r.logger, r.pagination)
}

func (r *registry) List(
	ctx context.Context,
	page pagination.PageRequest,
	filters Filters,
) (*pagination.PageResult[Definition], error) {
	page.Normalize(r.pagination)

	result, err := r.store.List(ctx, page, filters)
	if err != nil {
		return nil, fmt.Errorf("list definitions: %w", err)
	}
	return result, nil
}

func (r *registry) Find(ctx context.Context, typeName string) (*Definition, error) {
	var (
		gen    int64
		usable bool
	)
	if r.cache != nil {
		gen, usable = r.generation(ctx, typeName)
	}
	if usable {
		if d, ok := r.cached(ctx, typeName, gen); ok {
			return d, nil
		}
	}

	d, err := r.store.Get(ctx, typeName)
	if err != nil {
		return nil, fmt.Errorf("find definition %s: %w", typeName, err)
	}

	if usable {
		r.remember(ctx, d, gen)
	}
	return d, nil
}

func (r *registry) FindBySpecLink(ctx context.Context, specLink string) (*Definition, error) {
	d, err := r.store.GetBySpecLink(ctx, strings.TrimSpace(specLink))
	if err != nil {
		return nil, fmt.Errorf("find definition by spec link %s: %w", specLink, err)
	}
	return d, nil
}

func (r *registry) Register(ctx context.Context, caller string, cmd Command) (*Definition, error) {
	defer r.metrics.ObserveOperation("register_definition", time.Now())

	if err := r.requireAdmin(caller, "register definitions"); err != nil {
		return nil, err
	}

	now := r.now()
	d := cmd.definition(true)
	d.CreatedAt = now
	d.UpdatedAt = now

	if err := validateDefinition(&d); err != nil {
		return nil, err
	}

	err := r.store.RunInTx(ctx, func(s Store) error {
		if _, err := s.Get(ctx, d.TypeName); err == nil {
			return fmt.Errorf("%w: %s", ErrDuplicateType, d.TypeName)
		}
		if _, err := s.GetBySpecLink(ctx, d.SpecLink); err == nil {
			return fmt.Errorf("%w: %s", ErrDuplicateSpecLink, d.SpecLink)
		}
		return s.Insert(ctx, &d)
	})
	if err != nil {
		return nil, fmt.Errorf("register definition %s: %w", d.TypeName, err)
	}

	r.committed(ctx, events.DefinitionRegistered, caller, &d, "register")
	r.logger.Info("definition registered",
		"type_name", d.TypeName,
		"spec_link", d.SpecLink,
		"verifiers", len(d.Verifiers),
		"enabled", d.Enabled,
	)
	return &d, nil
}

func (r *registry) Replace(ctx context.Context, caller, typeName string, cmd Command) (*Definition, error) {
	defer r.metrics.ObserveOperation("replace_definition", time.Now())

	if err := r.requireAdmin(caller, "replace definitions"); err != nil {
		return nil, err
	}

	if t := strings.TrimSpace(cmd.TypeName); t != "" && t != typeName {
		var v validation.Errors
		v.Addf("type_name", "must match the definition being replaced (%s)", typeName)
		return nil, v.Err()
	}
	cmd.TypeName = typeName

	var d Definition
	err := r.store.RunInTx(ctx, func(s Store) error {
		existing, err := s.Get(ctx, typeName)
		if err != nil {
			return err
		}

		d = cmd.definition(existing.Enabled)
		d.CreatedAt = existing.CreatedAt
		d.UpdatedAt = r.now()

		if err := validateDefinition(&d); err != nil {
			return err
		}

		if other, err := s.GetBySpecLink(ctx, d.SpecLink); err == nil && other.TypeName != typeName {
			return fmt.Errorf("%w: %s", ErrDuplicateSpecLink, d.SpecLink)
		}

		return s.Update(ctx, &d)
	})
	if err != nil {
		return nil, fmt.Errorf("replace definition %s: %w", typeName, err)
	}

	r.committed(ctx, events.DefinitionReplaced, caller, &d, "replace")
	r.logger.Info("definition replaced",
		"type_name", d.TypeName,
		"spec_link", d.SpecLink,
		"verifiers", len(d.Verifiers),
	)
	return &d, nil
}

func (r *registry) Toggle(ctx context.Context, caller, typeName string, cmd ToggleCommand) (*Definition, error) {
	defer r.metrics.ObserveOperation("toggle_definition", time.Now())

	if err := r.requireAdmin(caller, "toggle definitions"); err != nil {
		return nil, err
	}

	var d *Definition
	err := r.store.RunInTx(ctx, func(s Store) error {
		existing, err := s.Get(ctx, typeName)
		if err != nil {
			return err
		}

		existing.Enabled = !existing.Enabled
		if cmd.Expected != nil && *cmd.Expected != existing.Enabled {
			return fmt.Errorf("%w: toggling would set enabled to %t", ErrToggleMismatch, existing.Enabled)
		}
		existing.UpdatedAt = r.now()

		d = existing
		return s.Update(ctx, existing)
	})
	if err != nil {
		return nil, fmt.Errorf("toggle definition %s: %w", typeName, err)
	}

	r.committed(ctx, events.DefinitionToggled, caller, d, "toggle")
	r.logger.Info("definition toggled", "type_name", typeName, "enabled", d.Enabled)
	return d, nil
}

func (r *registry) Delete(ctx context.Context, caller, typeName string) error {
	defer r.metrics.ObserveOperation("delete_definition", time.Now())

	if err := r.requireAdmin(caller, "delete definitions"); err != nil {
		return err
	}

	err := r.store.RunInTx(ctx, func(s Store) error {
		return s.Delete(ctx, typeName)
	})
	if err != nil {
		return fmt.Errorf("delete definition %s: %w", typeName, err)
	}

	r.committed(ctx, events.DefinitionDeleted, caller, &Definition{TypeName: typeName}, "delete")
	r.logger.Info("definition deleted", "type_name", typeName)
	return nil
}

func (r *registry) AddVerifier(ctx context.Context, caller, typeName string, v Verifier) (*Definition, error) {
	defer r.metrics.ObserveOperation("add_verifier", time.Now())

	if err := r.requireAdmin(caller, "add verifiers"); err != nil {
		return nil, err
	}
	if err := validateVerifier(v); err != nil {
		return nil, err
	}

	var d *Definition
	err := r.store.RunInTx(ctx, func(s Store) error {
		existing, err := s.Get(ctx, typeName)
		if err != nil {
			return err
		}
		if _, ok := existing.Verifier(v.Address); ok {
			return fmt.Errorf("%w: %s", ErrDuplicateVerifier, v.Address)
		}

		existing.Verifiers = append(existing.Verifiers, v)
		existing.UpdatedAt = r.now()

		d = existing
		return s.Update(ctx, existing)
	})
	if err != nil {
		return nil, fmt.Errorf("add verifier to %s: %w", typeName, err)
	}

	r.committed(ctx, events.VerifierAdded, caller, d, "add_verifier")
	r.logger.Info("verifier added", "type_name", typeName, "verifier", v.Address)
	return d, nil
}

func (r *registry) UpdateVerifier(ctx context.Context, caller, typeName string, v Verifier) (*Definition, error) {
	defer r.metrics.ObserveOperation("update_verifier", time.Now())

	if !r.oracle.IsAdmin(caller) && caller != v.Address {
		return nil, fmt.Errorf("%w: only the admin or the verifier itself may update a verifier", authz.ErrUnauthorized)
	}
	if err := validateVerifier(v); err != nil {
		return nil, err
	}

	var d *Definition
	err := r.store.RunInTx(ctx, func(s Store) error {
		existing, err := s.Get(ctx, typeName)
		if err != nil {
			return err
		}

		idx := -1
		for i, current := range existing.Verifiers {
			if current.Address == v.Address {
				idx = i
				break
			}
		}
		if idx < 0 {
			return fmt.Errorf("%w: %s is not registered for %s, add it instead", ErrVerifierNotFound, v.Address, typeName)
		}

		existing.Verifiers[idx] = v
		existing.UpdatedAt = r.now()

		d = existing
		return s.Update(ctx, existing)
	})
	if err != nil {
		return nil, fmt.Errorf("update verifier on %s: %w", typeName, err)
	}

	r.committed(ctx, events.VerifierUpdated, caller, d, "update_verifier")
	r.logger.Info("verifier updated", "type_name", typeName, "verifier", v.Address)
	return d, nil
}

func (r *registry) requireAdmin(caller, action string) error {
	if !r.oracle.IsAdmin(caller) {
		return fmt.Errorf("%w: only the admin may %s", authz.ErrUnauthorized, action)
	}
	return nil
}

// committed runs the post-commit side effects of a mutation.
func (r *registry) committed(ctx context.Context, t events.Type, caller string, d *Definition, op string) {
	r.forget(ctx, d.TypeName)
	r.metrics.IncrementRegistryMutation(op)
	r.events.Publish(ctx, events.Event{
		Type:     t,
		TypeName: d.TypeName,
		Actor:    caller,
		Attributes: map[string]string{
			"enabled": fmt.Sprintf("%t", d.Enabled),
		},
	})
}

// Cached entries live under a per-type generation. Invalidation bumps the
// generation, so a Find that read the store before a mutation can only write
// its stale copy under a generation nobody reads again.
func generationKey(typeName string) string {
	return "definition:" + typeName + ":gen"
}

func cacheKey(typeName string, gen int64) string {
	return "definition:" + typeName + "@" + strconv.FormatInt(gen, 10)
}

func (r *registry) generation(ctx context.Context, typeName string) (int64, bool) {
	data, ok, err := r.cache.Get(ctx, generationKey(typeName))
	if err != nil {
		r.logger.Warn("definition cache read failed", "type_name", typeName, "error", err)
		return 0, false
	}
	if !ok {
		return 0, true
	}
	gen, err := strconv.ParseInt(string(data), 10, 64)
	if err != nil {
		r.logger.Warn("definition cache generation corrupt", "type_name", typeName, "error", err)
		return 0, false
	}
	return gen, true
}

func (r *registry) cached(ctx context.Context, typeName string, gen int64) (*Definition, bool) {
	data, ok, err := r.cache.Get(ctx, cacheKey(typeName, gen))
	if err != nil {
		r.logger.Warn("definition cache read failed", "type_name", typeName, "error", err)
		return nil, false
	}
	if !ok {
		return nil, false
	}

	var d Definition
	if err := json.Unmarshal(data, &d); err != nil {
		r.logger.Warn("definition cache entry corrupt", "type_name", typeName, "error", err)
		return nil, false
	}
	return &d, true
}

func (r *registry) remember(ctx context.Context, d *Definition, gen int64) {
	data, err := json.Marshal(d)
	if err != nil {
		return
	}
	if err := r.cache.Set(ctx, cacheKey(d.TypeName, gen), data); err != nil {
		r.logger.Warn("definition cache write failed", "type_name", d.TypeName, "error", err)
	}
}

func (r *registry) forget(ctx context.Context, typeName string) {
	if r.cache == nil {
		return
	}
	if _, err := r.cache.Incr(ctx, generationKey(typeName)); err != nil {
		r.logger.Warn("definition cache invalidation failed", "type_name", typeName, "error", err)
	}
}

func (c Command) definition(enabledDefault bool) Definition {
	enabled := enabledDefault
	if c.Enabled != nil {
		enabled = *c.Enabled
	}

	verifiers := c.Verifiers
	if verifiers == nil {
		verifiers = []Verifier{}
	}

	return Definition{
		TypeName:    strings.TrimSpace(c.TypeName),
		SpecLink:    strings.TrimSpace(c.SpecLink),
		DisplayName: c.DisplayName,
		Verifiers:   verifiers,
		Enabled:     enabled,
	}
}
