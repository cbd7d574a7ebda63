package objects

import (
	"cmp"
	"context"
	"maps"
	"slices"
	"strings"
	"sync"

	"github.com/JaimeStill/attest/pkg/pagination"
)

type memoryStore struct {
	mu      sync.RWMutex
	objects map[string]Object
}

// NewMemoryStore creates an in-process Store.
func NewMemoryStore() Store {
	return &memoryStore{objects: make(map[string]Object)}
}

func (m *memoryStore) Exists(_ context.Context, address string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.objects[address]
	return ok, nil
}

func (m *memoryStore) Get(_ context.Context, address string) (*Object, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	o, ok := m.objects[address]
	if !ok {
		return nil, ErrNotFound
	}
	return &o, nil
}

func (m *memoryStore) Insert(_ context.Context, o *Object) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.objects[o.Address]; ok {
		return ErrDuplicate
	}
	m.objects[o.Address] = *o
	return nil
}

func (m *memoryStore) List(
	_ context.Context,
	page pagination.PageRequest,
	filters Filters,
) (*pagination.PageResult[Object], error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var search string
	if page.Search != nil {
		search = strings.ToLower(*page.Search)
	}

	matched := make([]Object, 0, len(m.objects))
	for _, o := range slices.Collect(maps.Values(m.objects)) {
		if filters.Owner != nil && o.Owner != *filters.Owner {
			continue
		}
		if search != "" &&
			!strings.Contains(strings.ToLower(o.Address), search) &&
			!strings.Contains(strings.ToLower(o.Owner), search) {
			continue
		}
		matched = append(matched, o)
	}

	slices.SortFunc(matched, func(a, b Object) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.Address, b.Address)
	})

	result := pagination.Slice(matched, page)
	return &result, nil
}
