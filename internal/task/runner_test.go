package task

import (
	"context"
	"testing"
	"time"
)

func newStartedRunner(t *testing.T) *Runner {
	t.Helper()
	c := NewContext(nil)
	if err := c.Start(); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	t.Cleanup(func() { c.Shutdown(time.Second) })
	return NewRunner(c)
}

// drainOne receives one delivery and executes it, standing in for the
// UI loop.
func drainOne(t *testing.T, r *Runner) {
	t.Helper()
	select {
	case fn := <-r.Deliveries():
		fn()
	case <-time.After(2 * time.Second):
		t.Fatal("Timed out waiting for a delivery")
	}
}

func TestRunnerDeliversResult(t *testing.T) {
	r := newStartedRunner(t)

	var got any
	var gotErr error
	_, err := r.Submit(func(ctx context.Context) (any, error) {
		return "payload", nil
	}, func(result any, err error) {
		got = result
		gotErr = err
	})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	drainOne(t, r)

	if got != "payload" {
		t.Errorf("Expected result 'payload', got %v", got)
	}
	if gotErr != nil {
		t.Errorf("Expected nil error, got %v", gotErr)
	}
	if r.PendingCount() != 0 {
		t.Errorf("Expected no pending submissions, got %d", r.PendingCount())
	}
}

func TestRunnerCallbackOnlyRunsWhenDrained(t *testing.T) {
	r := newStartedRunner(t)

	ran := false
	opDone := make(chan struct{})
	r.Submit(func(ctx context.Context) (any, error) {
		defer close(opDone)
		return nil, nil
	}, func(any, error) {
		ran = true
	})

	<-opDone

	// The operation has finished, but the callback must wait for the
	// UI loop to drain the delivery.
	select {
	case fn := <-r.Deliveries():
		if ran {
			t.Error("Callback ran before the delivery was executed")
		}
		fn()
	case <-time.After(2 * time.Second):
		t.Fatal("Timed out waiting for a delivery")
	}

	if !ran {
		t.Error("Callback should have run after draining")
	}
}

func TestRunnerCancelBeforeCompletion(t *testing.T) {
	r := newStartedRunner(t)

	ran := false
	handle, err := r.Submit(func(ctx context.Context) (any, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	}, func(any, error) {
		ran = true
	})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	// Cancel unblocks the operation; its late result is discarded.
	r.Cancel(handle)
	drainOne(t, r)

	if ran {
		t.Error("Cancelled submission's callback must never run")
	}
}

func TestRunnerCancelAfterCompletionDiscardsResult(t *testing.T) {
	r := newStartedRunner(t)

	ran := false
	handle, _ := r.Submit(func(ctx context.Context) (any, error) {
		return 42, nil
	}, func(any, error) {
		ran = true
	})

	// Wait for the completion to be queued, then cancel before draining.
	select {
	case fn := <-r.Deliveries():
		r.Cancel(handle)
		fn()
	case <-time.After(2 * time.Second):
		t.Fatal("Timed out waiting for a delivery")
	}

	if ran {
		t.Error("Result completed before cancel must still be discarded")
	}
}

func TestRunnerIndependentSubmissionsCompleteOutOfOrder(t *testing.T) {
	r := newStartedRunner(t)

	release := make(chan struct{})
	var order []string

	r.Submit(func(ctx context.Context) (any, error) {
		<-release
		return nil, nil
	}, func(any, error) {
		order = append(order, "slow")
	})
	r.Submit(func(ctx context.Context) (any, error) {
		return nil, nil
	}, func(any, error) {
		order = append(order, "fast")
	})

	drainOne(t, r)
	close(release)
	drainOne(t, r)

	if len(order) != 2 || order[0] != "fast" || order[1] != "slow" {
		t.Errorf("Expected [fast slow], got %v", order)
	}
}

func TestRunnerSubmitAfterShutdown(t *testing.T) {
	c := NewContext(nil)
	if err := c.Start(); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	r := NewRunner(c)
	if err := c.Shutdown(time.Second); err != nil {
		t.Fatalf("Expected clean shutdown, got %v", err)
	}

	_, err := r.Submit(func(ctx context.Context) (any, error) {
		return nil, nil
	}, func(any, error) {})
	if err == nil {
		t.Error("Expected error submitting after shutdown")
	}
}

func TestRunnerDispatchPreservesOrder(t *testing.T) {
	r := newStartedRunner(t)

	var order []int
	r.Dispatch(func() { order = append(order, 1) })
	r.Dispatch(func() { order = append(order, 2) })
	r.Dispatch(func() { order = append(order, 3) })

	drainOne(t, r)
	drainOne(t, r)
	drainOne(t, r)

	for i, v := range order {
		if v != i+1 {
			t.Fatalf("Expected dispatch order [1 2 3], got %v", order)
		}
	}
}

func TestRunnerCancelUnknownHandle(t *testing.T) {
	r := newStartedRunner(t)
	r.Cancel(Handle("nope")) // must not panic
}
