package settlement_test

import (
	"context"
	"maps"
	"slices"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JaimeStill/attest/internal/fees"
	"github.com/JaimeStill/attest/internal/settlement"
	"github.com/JaimeStill/attest/pkg/lifecycle"
	"github.com/JaimeStill/attest/pkg/storage"
)

type blobStore struct {
	mu    sync.Mutex
	blobs map[string][]byte
}

func newBlobStore() *blobStore {
	return &blobStore{blobs: make(map[string][]byte)}
}

func (s *blobStore) Start(*lifecycle.Coordinator) error { return nil }

func (s *blobStore) Put(_ context.Context, key string, data []byte, _ string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.blobs[key] = data
	return nil
}

func (s *blobStore) Get(_ context.Context, key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.blobs[key]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return data, nil
}

func (s *blobStore) List(_ context.Context, prefix string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var keys []string
	for _, k := range slices.Sorted(maps.Keys(s.blobs)) {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	return keys, nil
}

func (s *blobStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.blobs, key)
	return nil
}

func TestBlobRail(t *testing.T) {
	store := newBlobStore()
	rail := settlement.NewBlobRail(store, discard())
	ctx := context.Background()

	plan := samplePlan()
	require.NoError(t, rail.Disburse(ctx, plan))

	second := plan
	second.CreatedAt = plan.CreatedAt.Add(time.Hour)
	second.Payments = []fees.Payment{{Amount: 50, Recipient: "tp1v", Label: "Verifier Fee", Kind: fees.RecipientVerifier}}
	require.NoError(t, rail.Disburse(ctx, second))

	keys, err := store.List(ctx, plan.SubjectID+"/heloc/")
	require.NoError(t, err)
	require.Len(t, keys, 2)
	for _, k := range keys {
		assert.True(t, strings.HasSuffix(k, ".json"), k)
	}

	items, err := rail.Instructions(ctx, plan.SubjectID, "heloc")
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Len(t, items[0].Plan.Payments, 2, "instructions come back oldest first")
	assert.Len(t, items[1].Plan.Payments, 1)
	assert.Equal(t, uint64(50), items[1].Total)
}

func TestBlobRailReissueOverwrites(t *testing.T) {
	store := newBlobStore()
	rail := settlement.NewBlobRail(store, discard())
	ctx := context.Background()

	plan := samplePlan()
	require.NoError(t, rail.Disburse(ctx, plan))
	require.NoError(t, rail.Disburse(ctx, plan))

	keys, err := store.List(ctx, plan.SubjectID+"/heloc/")
	require.NoError(t, err)
	require.Len(t, keys, 1, "a re-issued plan overwrites its blob")
	assert.Contains(t, keys[0], settlement.InstructionID(plan).String())

	items, err := rail.Instructions(ctx, plan.SubjectID, "heloc")
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, uint64(50), items[0].Total)
}

func TestBlobRailRejectsEmptyPlan(t *testing.T) {
	rail := settlement.NewBlobRail(newBlobStore(), discard())
	err := rail.Disburse(context.Background(), fees.Plan{})
	require.ErrorIs(t, err, settlement.ErrEmptyPlan)
}
