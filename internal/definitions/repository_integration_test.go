//go:build integration

package definitions_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JaimeStill/attest/internal/definitions"
	"github.com/JaimeStill/attest/internal/schema/schematest"
	"github.com/JaimeStill/attest/pkg/pagination"
)

func TestPostgresStore(t *testing.T) {
	ctx := context.Background()
	store := definitions.NewPostgresStore(schematest.Postgres(t))

	now := time.Now().UTC().Truncate(time.Microsecond)
	heloc := &definitions.Definition{
		TypeName:  "heloc",
		SpecLink:  "https://specs/HELOC",
		Verifiers: []definitions.Verifier{verifier("tp1v")},
		Enabled:   true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	require.NoError(t, store.Insert(ctx, heloc))

	t.Run("get", func(t *testing.T) {
		got, err := store.Get(ctx, "heloc")
		require.NoError(t, err)
		assert.Equal(t, heloc.SpecLink, got.SpecLink)
		require.Len(t, got.Verifiers, 1)
		assert.Equal(t, uint64(100), got.Verifiers[0].DefaultCost.Total)
		assert.True(t, got.CreatedAt.Equal(now))
	})

	t.Run("spec link lookup ignores case", func(t *testing.T) {
		got, err := store.GetBySpecLink(ctx, "https://specs/heloc")
		require.NoError(t, err)
		assert.Equal(t, "heloc", got.TypeName)
	})

	t.Run("duplicates", func(t *testing.T) {
		dup := *heloc
		err := store.Insert(ctx, &dup)
		require.ErrorIs(t, err, definitions.ErrDuplicateType)

		other := *heloc
		other.TypeName = "mortgage"
		other.SpecLink = "HTTPS://SPECS/heloc"
		err = store.Insert(ctx, &other)
		require.ErrorIs(t, err, definitions.ErrDuplicateSpecLink)
	})

	t.Run("rollback", func(t *testing.T) {
		err := store.RunInTx(ctx, func(s definitions.Store) error {
			d, err := s.Get(ctx, "heloc")
			if err != nil {
				return err
			}
			d.Enabled = false
			if err := s.Update(ctx, d); err != nil {
				return err
			}
			return assert.AnError
		})
		require.ErrorIs(t, err, assert.AnError)

		got, err := store.Get(ctx, "heloc")
		require.NoError(t, err)
		assert.True(t, got.Enabled)
	})

	t.Run("list by verifier", func(t *testing.T) {
		v := "tp1v"
		result, err := store.List(ctx, pagination.PageRequest{Page: 1, PageSize: 10}, definitions.Filters{Verifier: &v})
		require.NoError(t, err)
		assert.Equal(t, 1, result.Total)

		missing := "tp1nobody"
		result, err = store.List(ctx, pagination.PageRequest{Page: 1, PageSize: 10}, definitions.Filters{Verifier: &missing})
		require.NoError(t, err)
		assert.Equal(t, 0, result.Total)
	})

	t.Run("delete", func(t *testing.T) {
		require.NoError(t, store.Delete(ctx, "heloc"))
		_, err := store.Get(ctx, "heloc")
		require.ErrorIs(t, err, definitions.ErrNotFound)
		require.ErrorIs(t, store.Delete(ctx, "heloc"), definitions.ErrNotFound)
	})
}
