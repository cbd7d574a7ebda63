// Package cache provides a Redis-backed key/value cache with lifecycle coordination.
package cache

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/JaimeStill/attest/pkg/lifecycle"
)

// System stores opaque byte values under namespaced keys.
type System interface {
	// Start registers startup and shutdown hooks with the lifecycle coordinator.
	Start(lc *lifecycle.Coordinator) error
	// Get returns the value stored at key and whether it was present.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	// Set stores value at key using the configured TTL.
	Set(ctx context.Context, key string, value []byte) error
	// Delete removes keys. Missing keys are ignored.
	Delete(ctx context.Context, keys ...string) error
	// Incr increments the integer at key and returns the new value. The
	// counter never expires.
	Incr(ctx context.Context, key string) (int64, error)
	// Health pings the server.
	Health(ctx context.Context) error
}

type client struct {
	rdb         *redis.Client
	prefix      string
	ttl         time.Duration
	dialTimeout time.Duration
	logger      *slog.Logger
}

// New creates a cache system from the given configuration.
// Returns nil when no URL is configured. No connection is made until Start is called.
func New(cfg *Config, logger *slog.Logger) (System, error) {
	if !cfg.Enabled() {
		return nil, nil
	}

	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	opts.PoolSize = cfg.PoolSize
	opts.MinIdleConns = cfg.MinIdleConns
	opts.DialTimeout = cfg.DialTimeoutDuration()

	return &client{
		rdb:         redis.NewClient(opts),
		prefix:      cfg.KeyPrefix,
		ttl:         cfg.TTLDuration(),
		dialTimeout: cfg.DialTimeoutDuration(),
		logger:      logger.With("system", "cache"),
	}, nil
}

func (c *client) Start(lc *lifecycle.Coordinator) error {
	c.logger.Info("starting cache connection")

	lc.OnStartup(func() {
		pingCtx, cancel := context.WithTimeout(lc.Context(), c.dialTimeout)
		defer cancel()

		if err := c.Health(pingCtx); err != nil {
			c.logger.Error("cache ping failed", "error", err)
			return
		}

		c.logger.Info("cache connection established")
	})

	lc.OnShutdown(func() {
		<-lc.Context().Done()
		if err := c.rdb.Close(); err != nil {
			c.logger.Error("cache close failed", "error", err)
			return
		}
		c.logger.Info("cache connection closed")
	})

	return nil
}

func (c *client) Get(ctx context.Context, key string) ([]byte, bool, error) {
	val, err := c.rdb.Get(ctx, c.key(key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("cache get %s: %w", key, err)
	}
	return val, true, nil
}

func (c *client) Set(ctx context.Context, key string, value []byte) error {
	if err := c.rdb.Set(ctx, c.key(key), value, c.ttl).Err(); err != nil {
		return fmt.Errorf("cache set %s: %w", key, err)
	}
	return nil
}

func (c *client) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	full := make([]string, len(keys))
	for i, k := range keys {
		full[i] = c.key(k)
	}
	if err := c.rdb.Del(ctx, full...).Err(); err != nil {
		return fmt.Errorf("cache delete: %w", err)
	}
	return nil
}

func (c *client) Incr(ctx context.Context, key string) (int64, error) {
	n, err := c.rdb.Incr(ctx, c.key(key)).Result()
	if err != nil {
		return 0, fmt.Errorf("cache incr %s: %w", key, err)
	}
	return n, nil
}

func (c *client) Health(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}

func (c *client) key(k string) string {
	return c.prefix + ":" + k
}
