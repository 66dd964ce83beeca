package task

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// deliveryBuffer bounds how many completions can queue up while the UI
// loop is busy. Background goroutines block rather than drop deliveries.
const deliveryBuffer = 256

// Handle identifies one submitted operation
type Handle string

// Operation runs on the background context and produces a result or an error
type Operation func(ctx context.Context) (any, error)

// Callback receives an operation's outcome on the UI thread
type Callback func(result any, err error)

// pendingSubmission tracks one submission between Submit and delivery.
// The cancel func is attached from the background goroutine once the
// operation starts, so its fields are guarded; everything else in the
// Runner is touched by the UI thread only.
type pendingSubmission struct {
	mu        sync.Mutex
	cancelled bool
	cancel    context.CancelFunc
}

func (p *pendingSubmission) attach(cancel context.CancelFunc) {
	p.mu.Lock()
	if p.cancelled {
		p.mu.Unlock()
		cancel()
		return
	}
	p.cancel = cancel
	p.mu.Unlock()
}

func (p *pendingSubmission) markCancelled() {
	p.mu.Lock()
	p.cancelled = true
	cancel := p.cancel
	p.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

func (p *pendingSubmission) isCancelled() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.cancelled
}

// Runner bridges one-shot asynchronous operations from the background
// Context back to the UI thread. Completions are enqueued on a delivery
// channel; callbacks only ever run when the UI loop drains that channel,
// so they observe UI-owned state single-threaded. Submit and Cancel must
// be called from the UI thread.
type Runner struct {
	exec       *Context
	deliveries chan func()
	pending    map[Handle]*pendingSubmission // UI thread only
}

// NewRunner creates a runner on top of the given background context
func NewRunner(exec *Context) *Runner {
	return &Runner{
		exec:       exec,
		deliveries: make(chan func(), deliveryBuffer),
		pending:    make(map[Handle]*pendingSubmission),
	}
}

// Submit schedules op on the background context and returns immediately.
// onComplete runs on the UI thread exactly once, unless the submission is
// cancelled first, in which case it never runs.
func (r *Runner) Submit(op Operation, onComplete Callback) (Handle, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", fmt.Errorf("generate handle: %w", err)
	}
	handle := Handle(id.String())
	p := &pendingSubmission{}

	submitErr := r.exec.Submit(func(ctx context.Context) {
		opCtx, cancel := context.WithCancel(ctx)
		defer cancel()
		p.attach(cancel)

		result, opErr := op(opCtx)

		r.deliveries <- func() {
			// Cancellation observed on the UI thread: a result that
			// arrived after Cancel is discarded, never delivered late.
			if p.isCancelled() {
				return
			}
			delete(r.pending, handle)
			onComplete(result, opErr)
		}
	})
	if submitErr != nil {
		return "", submitErr
	}

	r.pending[handle] = p
	return handle, nil
}

// Cancel marks the submission cancelled. Its callback will never be
// invoked; the in-flight operation's context is cancelled best-effort.
// Cancelling an unknown or already-delivered handle is a no-op.
func (r *Runner) Cancel(handle Handle) {
	p, ok := r.pending[handle]
	if !ok {
		return
	}
	delete(r.pending, handle)
	p.markCancelled()
}

// Dispatch enqueues fn for execution on the UI thread, in order with
// completion deliveries. Timers use this so all component state is
// mutated from the UI thread only.
func (r *Runner) Dispatch(fn func()) {
	r.deliveries <- fn
}

// Deliveries is the channel the UI loop drains. Each received function
// must be executed on the UI thread.
func (r *Runner) Deliveries() <-chan func() {
	return r.deliveries
}

// PendingCount reports submissions awaiting delivery, for diagnostics
func (r *Runner) PendingCount() int {
	return len(r.pending)
}
