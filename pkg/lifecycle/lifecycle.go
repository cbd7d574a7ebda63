// Package lifecycle sequences service startup and a two-stage shutdown: drain
// hooks stop intake first, then shutdown hooks release the pools and
// connections that in-flight requests were still using.
package lifecycle

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"
)

type Coordinator struct {
	ctx        context.Context
	cancel     context.CancelFunc
	startupWg  sync.WaitGroup
	shutdownWg sync.WaitGroup
	ready      atomic.Bool

	mu    sync.Mutex
	drain []func(context.Context)
}

func New() *Coordinator {
	ctx, cancel := context.WithCancel(context.Background())
	return &Coordinator{
		ctx:    ctx,
		cancel: cancel,
	}
}

// Context is cancelled once every drain hook has returned.
func (c *Coordinator) Context() context.Context {
	return c.ctx
}

// OnStartup runs fn in its own goroutine right away.
func (c *Coordinator) OnStartup(fn func()) {
	c.startupWg.Go(fn)
}

// OnDrain registers fn to run when Shutdown begins. Its context carries the
// shutdown deadline.
func (c *Coordinator) OnDrain(fn func(ctx context.Context)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.drain = append(c.drain, fn)
}

// OnShutdown runs fn in its own goroutine right away; fn should block on
// Context().Done() before releasing anything.
func (c *Coordinator) OnShutdown(fn func()) {
	c.shutdownWg.Go(fn)
}

func (c *Coordinator) Ready() bool {
	return c.ready.Load()
}

// WaitForStartup blocks until every startup hook returns, then marks the
// coordinator ready.
func (c *Coordinator) WaitForStartup() {
	c.startupWg.Wait()
	c.ready.Store(true)
}

// Shutdown clears readiness, runs the drain hooks, cancels Context, and waits
// for the shutdown hooks. The whole sequence shares one timeout.
func (c *Coordinator) Shutdown(timeout time.Duration) error {
	c.ready.Store(false)

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	c.mu.Lock()
	drain := c.drain
	c.mu.Unlock()

	var drained sync.WaitGroup
	for _, fn := range drain {
		drained.Go(func() { fn(ctx) })
	}
	drainErr := wait(ctx, &drained, "drain")

	c.cancel()
	if err := wait(ctx, &c.shutdownWg, "shutdown"); err != nil {
		return err
	}
	return drainErr
}

func wait(ctx context.Context, wg *sync.WaitGroup, stage string) error {
	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("%s stage: %w", stage, ctx.Err())
	}
}
