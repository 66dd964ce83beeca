package task

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"
)

var (
	// ErrAlreadyStarted is returned when Start is called twice
	ErrAlreadyStarted = errors.New("background context already started")

	// ErrNotRunning is returned when submitting before Start or after Shutdown
	ErrNotRunning = errors.New("background context is not running")

	// ErrDrainTimeout is returned by Shutdown when operations were still in
	// flight after the grace period; they have been cancelled and abandoned
	ErrDrainTimeout = errors.New("shutdown grace period elapsed with operations in flight")
)

// Context hosts all outbound network operations off the UI thread. It is
// started once at application startup and shut down once at exit. Each
// submitted operation runs in its own goroutine; no ordering exists between
// independently submitted operations.
type Context struct {
	logger *slog.Logger

	mu      sync.Mutex
	started bool
	closed  bool
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// NewContext creates an unstarted background execution context
func NewContext(logger *slog.Logger) *Context {
	if logger == nil {
		logger = slog.Default()
	}
	return &Context{logger: logger}
}

// Start makes the context accept operations. Calling Start a second time
// is an error, never a silent no-op.
func (c *Context) Start() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.started {
		return ErrAlreadyStarted
	}
	c.started = true
	c.ctx, c.cancel = context.WithCancel(context.Background())
	c.logger.Info("background context started")
	return nil
}

// Submit runs op in its own goroutine. The context passed to op is
// cancelled when the grace period of Shutdown elapses.
func (c *Context) Submit(op func(ctx context.Context)) error {
	c.mu.Lock()
	if !c.started || c.closed {
		c.mu.Unlock()
		return ErrNotRunning
	}
	ctx := c.ctx
	c.wg.Add(1)
	c.mu.Unlock()

	go func() {
		defer c.wg.Done()
		op(ctx)
	}()
	return nil
}

// Shutdown stops accepting operations and waits up to grace for in-flight
// ones to finish. Operations still outstanding after the grace period are
// cancelled and abandoned; ErrDrainTimeout reports that they existed.
func (c *Context) Shutdown(grace time.Duration) error {
	c.mu.Lock()
	if !c.started || c.closed {
		c.mu.Unlock()
		return ErrNotRunning
	}
	c.closed = true
	c.mu.Unlock()

	done := make(chan struct{})
	go func() {
		c.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		c.cancel()
		c.logger.Info("background context drained cleanly")
		return nil
	case <-time.After(grace):
		c.cancel()
		c.logger.Warn("background context drain timed out, abandoning operations", "grace", grace)
		return ErrDrainTimeout
	}
}
