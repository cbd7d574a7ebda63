package definitions

import (
	"context"
	"encoding/json"
	"maps"
	"slices"
	"strings"
	"sync"

	"github.com/JaimeStill/attest/pkg/pagination"
)

type memoryStore struct {
	mu   sync.Mutex
	data map[string]Definition
}

type memoryView struct {
	data map[string]Definition
}

// NewMemoryStore creates an in-process TxStore. A failed unit of work leaves
// the store exactly as it was before RunInTx.
func NewMemoryStore() TxStore {
	return &memoryStore{data: make(map[string]Definition)}
}

func (m *memoryStore) RunInTx(ctx context.Context, fn func(Store) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	snapshot := maps.Clone(m.data)
	if err := fn(&memoryView{data: m.data}); err != nil {
		m.data = snapshot
		return err
	}
	return nil
}

func (m *memoryStore) view(fn func(v *memoryView) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return fn(&memoryView{data: m.data})
}

func (m *memoryStore) Get(ctx context.Context, typeName string) (d *Definition, err error) {
	err = m.view(func(v *memoryView) error {
		d, err = v.Get(ctx, typeName)
		return err
	})
	return d, err
}

func (m *memoryStore) GetBySpecLink(ctx context.Context, specLink string) (d *Definition, err error) {
	err = m.view(func(v *memoryView) error {
		d, err = v.GetBySpecLink(ctx, specLink)
		return err
	})
	return d, err
}

func (m *memoryStore) Insert(ctx context.Context, d *Definition) error {
	return m.RunInTx(ctx, func(s Store) error { return s.Insert(ctx, d) })
}

func (m *memoryStore) Update(ctx context.Context, d *Definition) error {
	return m.RunInTx(ctx, func(s Store) error { return s.Update(ctx, d) })
}

func (m *memoryStore) Delete(ctx context.Context, typeName string) error {
	return m.RunInTx(ctx, func(s Store) error { return s.Delete(ctx, typeName) })
}

func (m *memoryStore) List(
	ctx context.Context,
	page pagination.PageRequest,
	filters Filters,
) (r *pagination.PageResult[Definition], err error) {
	err = m.view(func(v *memoryView) error {
		r, err = v.List(ctx, page, filters)
		return err
	})
	return r, err
}

func (v *memoryView) Get(_ context.Context, typeName string) (*Definition, error) {
	d, ok := v.data[typeName]
	if !ok {
		return nil, ErrNotFound
	}
	out := cloneDefinition(d)
	return &out, nil
}

func (v *memoryView) GetBySpecLink(_ context.Context, specLink string) (*Definition, error) {
	for _, d := range v.data {
		if strings.EqualFold(d.SpecLink, specLink) {
			out := cloneDefinition(d)
			return &out, nil
		}
	}
	return nil, ErrNotFound
}

func (v *memoryView) Insert(_ context.Context, d *Definition) error {
	if _, ok := v.data[d.TypeName]; ok {
		return ErrDuplicateType
	}
	if v.specLinkTaken(d.SpecLink, d.TypeName) {
		return ErrDuplicateSpecLink
	}
	v.data[d.TypeName] = cloneDefinition(*d)
	return nil
}

func (v *memoryView) Update(_ context.Context, d *Definition) error {
	existing, ok := v.data[d.TypeName]
	if !ok {
		return ErrNotFound
	}
	if v.specLinkTaken(d.SpecLink, d.TypeName) {
		return ErrDuplicateSpecLink
	}
	updated := cloneDefinition(*d)
	updated.CreatedAt = existing.CreatedAt
	v.data[d.TypeName] = updated
	return nil
}

func (v *memoryView) Delete(_ context.Context, typeName string) error {
	if _, ok := v.data[typeName]; !ok {
		return ErrNotFound
	}
	delete(v.data, typeName)
	return nil
}

func (v *memoryView) List(
	_ context.Context,
	page pagination.PageRequest,
	filters Filters,
) (*pagination.PageResult[Definition], error) {
	var search string
	if page.Search != nil {
		search = strings.ToLower(*page.Search)
	}

	matched := make([]Definition, 0, len(v.data))
	for _, key := range slices.Sorted(maps.Keys(v.data)) {
		d := v.data[key]
		if !filters.Matches(&d) || !matchesSearch(&d, search) {
			continue
		}
		matched = append(matched, cloneDefinition(d))
	}

	result := pagination.Slice(matched, page)
	return &result, nil
}

func (v *memoryView) specLinkTaken(specLink, owner string) bool {
	for _, d := range v.data {
		if d.TypeName != owner && strings.EqualFold(d.SpecLink, specLink) {
			return true
		}
	}
	return false
}

func matchesSearch(d *Definition, search string) bool {
	if search == "" {
		return true
	}
	fields := []string{d.TypeName, d.SpecLink}
	if d.DisplayName != nil {
		fields = append(fields, *d.DisplayName)
	}
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), search) {
			return true
		}
	}
	return false
}

// cloneDefinition deep-copies d so stored values never alias caller memory.
func cloneDefinition(d Definition) Definition {
	data, err := json.Marshal(d)
	if err != nil {
		panic(err)
	}
	var out Definition
	if err := json.Unmarshal(data, &out); err != nil {
		panic(err)
	}
	return out
}
