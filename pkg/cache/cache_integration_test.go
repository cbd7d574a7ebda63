//go:build integration

package cache_test

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"

	"github.com/JaimeStill/attest/pkg/cache"
)

func TestCacheRoundTrip(t *testing.T) {
	ctx := context.Background()

	container, err := tcredis.Run(ctx, "redis:7-alpine")
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	url, err := container.ConnectionString(ctx)
	require.NoError(t, err)

	cfg := &cache.Config{URL: url}
	require.NoError(t, cfg.Finalize(nil))

	sys, err := cache.New(cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	require.NoError(t, sys.Health(ctx))

	_, ok, err := sys.Get(ctx, "definition:heloc")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, sys.Set(ctx, "definition:heloc", []byte(`{"type_name":"heloc"}`)))

	val, ok, err := sys.Get(ctx, "definition:heloc")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.JSONEq(t, `{"type_name":"heloc"}`, string(val))

	require.NoError(t, sys.Delete(ctx, "definition:heloc", "definition:missing"))

	_, ok, err = sys.Get(ctx, "definition:heloc")
	require.NoError(t, err)
	assert.False(t, ok)

	n, err := sys.Incr(ctx, "definition:heloc:gen")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	n, err = sys.Incr(ctx, "definition:heloc:gen")
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	gen, ok, err := sys.Get(ctx, "definition:heloc:gen")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "2", string(gen))
}
