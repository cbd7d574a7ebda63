package cache_test

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JaimeStill/attest/pkg/cache"
)

func TestConfigFinalizeDefaults(t *testing.T) {
	cfg := &cache.Config{}
	require.NoError(t, cfg.Finalize(nil))

	assert.False(t, cfg.Enabled())
	assert.Equal(t, "attest", cfg.KeyPrefix)
	assert.Equal(t, 5*time.Minute, cfg.TTLDuration())
	assert.Equal(t, 10, cfg.PoolSize)
	assert.Equal(t, 5*time.Second, cfg.DialTimeoutDuration())
}

func TestConfigFinalizeEnv(t *testing.T) {
	t.Setenv("TEST_CACHE_URL", "redis://localhost:6379/1")
	t.Setenv("TEST_CACHE_TTL", "30s")
	t.Setenv("TEST_CACHE_POOL_SIZE", "4")

	cfg := &cache.Config{}
	err := cfg.Finalize(&cache.Env{
		URL:      "TEST_CACHE_URL",
		TTL:      "TEST_CACHE_TTL",
		PoolSize: "TEST_CACHE_POOL_SIZE",
	})
	require.NoError(t, err)

	assert.True(t, cfg.Enabled())
	assert.Equal(t, "redis://localhost:6379/1", cfg.URL)
	assert.Equal(t, 30*time.Second, cfg.TTLDuration())
	assert.Equal(t, 4, cfg.PoolSize)
}

func TestConfigFinalizeInvalid(t *testing.T) {
	tests := []struct {
		name string
		cfg  cache.Config
	}{
		{name: "bad ttl", cfg: cache.Config{TTL: "soon"}},
		{name: "bad dial timeout", cfg: cache.Config{DialTimeout: "fast"}},
		{name: "negative pool", cfg: cache.Config{PoolSize: -1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := tt.cfg
			assert.Error(t, cfg.Finalize(nil))
		})
	}
}

func TestConfigMerge(t *testing.T) {
	base := &cache.Config{URL: "redis://base:6379", TTL: "1m", PoolSize: 5}
	base.Merge(&cache.Config{TTL: "2m"})

	assert.Equal(t, "redis://base:6379", base.URL)
	assert.Equal(t, "2m", base.TTL)
	assert.Equal(t, 5, base.PoolSize)
}

func TestNewDisabled(t *testing.T) {
	cfg := &cache.Config{}
	require.NoError(t, cfg.Finalize(nil))

	sys, err := cache.New(cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	assert.Nil(t, sys)
}

func TestNewInvalidURL(t *testing.T) {
	cfg := &cache.Config{URL: "not-a-redis-url"}
	require.NoError(t, cfg.Finalize(nil))

	_, err := cache.New(cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
	assert.Error(t, err)
}
