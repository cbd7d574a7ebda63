package classifications

import (
	"cmp"
	"context"
	"encoding/json"
	"maps"
	"slices"
	"strings"
	"sync"

	"github.com/JaimeStill/attest/pkg/pagination"
)

type recordKey struct {
	address  string
	typeName string
}

type memoryData struct {
	records map[recordKey]Record
	pending map[recordKey]Pending
}

type memoryStore struct {
	mu   sync.Mutex
	data memoryData
}

// NewMemoryStore creates an in-process TxStore. A failed unit of work leaves
// the store exactly as it was before RunInTx.
func NewMemoryStore() TxStore {
	return &memoryStore{data: memoryData{
		records: make(map[recordKey]Record),
		pending: make(map[recordKey]Pending),
	}}
}

func (m *memoryStore) RunInTx(ctx context.Context, fn func(Store) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	snapshot := memoryData{
		records: maps.Clone(m.data.records),
		pending: maps.Clone(m.data.pending),
	}
	if err := fn(&memoryView{data: &m.data}); err != nil {
		m.data = snapshot
		return err
	}
	return nil
}

func (m *memoryStore) read(fn func(v *memoryView) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return fn(&memoryView{data: &m.data})
}

func (m *memoryStore) Get(ctx context.Context, address, typeName string) (r *Record, err error) {
	err = m.read(func(v *memoryView) error {
		r, err = v.Get(ctx, address, typeName)
		return err
	})
	return r, err
}

func (m *memoryStore) GetAll(ctx context.Context, address string) (rs []Record, err error) {
	err = m.read(func(v *memoryView) error {
		rs, err = v.GetAll(ctx, address)
		return err
	})
	return rs, err
}

func (m *memoryStore) Insert(ctx context.Context, r *Record) error {
	return m.RunInTx(ctx, func(s Store) error { return s.Insert(ctx, r) })
}

func (m *memoryStore) Put(ctx context.Context, r *Record) error {
	return m.RunInTx(ctx, func(s Store) error { return s.Put(ctx, r) })
}

func (m *memoryStore) Delete(ctx context.Context, address, typeName string) error {
	return m.RunInTx(ctx, func(s Store) error { return s.Delete(ctx, address, typeName) })
}

func (m *memoryStore) GetPending(ctx context.Context, address, typeName string) (p *Pending, err error) {
	err = m.read(func(v *memoryView) error {
		p, err = v.GetPending(ctx, address, typeName)
		return err
	})
	return p, err
}

func (m *memoryStore) PutPending(ctx context.Context, p *Pending) error {
	return m.RunInTx(ctx, func(s Store) error { return s.PutPending(ctx, p) })
}

func (m *memoryStore) DeletePending(ctx context.Context, address, typeName string) error {
	return m.RunInTx(ctx, func(s Store) error { return s.DeletePending(ctx, address, typeName) })
}

func (m *memoryStore) List(
	ctx context.Context,
	page pagination.PageRequest,
	filters Filters,
) (r *pagination.PageResult[Record], err error) {
	err = m.read(func(v *memoryView) error {
		r, err = v.List(ctx, page, filters)
		return err
	})
	return r, err
}

type memoryView struct {
	data *memoryData
}

func (v *memoryView) Get(_ context.Context, address, typeName string) (*Record, error) {
	r, ok := v.data.records[recordKey{address, typeName}]
	if !ok {
		return nil, ErrNotFound
	}
	out := clone(r)
	return &out, nil
}

func (v *memoryView) GetAll(_ context.Context, address string) ([]Record, error) {
	out := make([]Record, 0)
	for k, r := range v.data.records {
		if k.address == address {
			out = append(out, clone(r))
		}
	}
	slices.SortFunc(out, func(a, b Record) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.TypeName, b.TypeName)
	})
	return out, nil
}

func (v *memoryView) Insert(_ context.Context, r *Record) error {
	key := recordKey{r.ObjectAddress, r.TypeName}
	if _, ok := v.data.records[key]; ok {
		return ErrAlreadyOnboarded
	}
	v.data.records[key] = clone(*r)
	return nil
}

func (v *memoryView) Put(_ context.Context, r *Record) error {
	key := recordKey{r.ObjectAddress, r.TypeName}
	existing, ok := v.data.records[key]
	if !ok {
		return ErrNotFound
	}
	stored := clone(*r)
	stored.CreatedAt = existing.CreatedAt
	stored.AssetID = existing.AssetID
	v.data.records[key] = stored
	return nil
}

func (v *memoryView) Delete(_ context.Context, address, typeName string) error {
	key := recordKey{address, typeName}
	if _, ok := v.data.records[key]; !ok {
		return ErrNotFound
	}
	delete(v.data.records, key)
	return nil
}

func (v *memoryView) GetPending(_ context.Context, address, typeName string) (*Pending, error) {
	p, ok := v.data.pending[recordKey{address, typeName}]
	if !ok {
		return nil, ErrPendingNotFound
	}
	out := clone(p)
	return &out, nil
}

func (v *memoryView) PutPending(_ context.Context, p *Pending) error {
	v.data.pending[recordKey{p.ObjectAddress, p.TypeName}] = clone(*p)
	return nil
}

func (v *memoryView) DeletePending(_ context.Context, address, typeName string) error {
	key := recordKey{address, typeName}
	if _, ok := v.data.pending[key]; !ok {
		return ErrPendingNotFound
	}
	delete(v.data.pending, key)
	return nil
}

func (v *memoryView) List(
	_ context.Context,
	page pagination.PageRequest,
	filters Filters,
) (*pagination.PageResult[Record], error) {
	var search string
	if page.Search != nil {
		search = strings.ToLower(*page.Search)
	}

	matched := make([]Record, 0, len(v.data.records))
	for _, r := range v.data.records {
		if !filters.Matches(&r) || !matchesSearch(&r, search) {
			continue
		}
		matched = append(matched, clone(r))
	}

	slices.SortFunc(matched, func(a, b Record) int {
		if c := b.UpdatedAt.Compare(a.UpdatedAt); c != 0 {
			return c
		}
		if c := cmp.Compare(a.ObjectAddress, b.ObjectAddress); c != 0 {
			return c
		}
		return cmp.Compare(a.TypeName, b.TypeName)
	})

	result := pagination.Slice(matched, page)
	return &result, nil
}

func matchesSearch(r *Record, search string) bool {
	if search == "" {
		return true
	}
	for _, f := range []string{r.ObjectAddress, r.TypeName, r.Requestor} {
		if strings.Contains(strings.ToLower(f), search) {
			return true
		}
	}
	return false
}

// clone deep-copies v so stored values never alias caller memory.
func clone[T any](v T) T {
	data, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	var out T
	if err := json.Unmarshal(data, &out); err != nil {
		panic(err)
	}
	return out
}
