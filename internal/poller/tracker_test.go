package poller

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/voxstudio/vox-studio/internal/model"
	"github.com/voxstudio/vox-studio/internal/task"
)

// scriptedBackend replays a fixed sequence of status documents and
// counts every network call
type scriptedBackend struct {
	mu          sync.Mutex
	statuses    []model.JobStatusInfo
	statusErr   error
	artifact    *model.Artifact
	resultErr   error
	statusCalls int
	resultCalls int
	block       chan struct{} // when set, status fetches wait on it
}

func (b *scriptedBackend) JobStatus(ctx context.Context, jobID string) (*model.JobStatusInfo, error) {
	b.mu.Lock()
	i := b.statusCalls
	b.statusCalls++
	block := b.block
	b.mu.Unlock()

	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if b.statusErr != nil {
		return nil, b.statusErr
	}
	if i >= len(b.statuses) {
		i = len(b.statuses) - 1
	}
	info := b.statuses[i]
	info.JobID = jobID
	return &info, nil
}

func (b *scriptedBackend) JobResult(ctx context.Context, jobID string) (*model.Artifact, error) {
	b.mu.Lock()
	b.resultCalls++
	b.mu.Unlock()
	if b.resultErr != nil {
		return nil, b.resultErr
	}
	return b.artifact, nil
}

func (b *scriptedBackend) counts() (int, int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.statusCalls, b.resultCalls
}

// recordingNotifier captures enqueued notifications
type recordingNotifier struct {
	messages   []string
	severities []model.Severity
}

func (n *recordingNotifier) Enqueue(message string, severity model.Severity, _ time.Duration) string {
	n.messages = append(n.messages, message)
	n.severities = append(n.severities, severity)
	return message
}

func (n *recordingNotifier) errors() int {
	count := 0
	for _, s := range n.severities {
		if s == model.SeverityError {
			count++
		}
	}
	return count
}

// manualSchedule collects poll timers for the test to fire by hand
type manualSchedule struct {
	timers []*manualTimer
}

type manualTimer struct {
	fn        func()
	cancelled bool
}

func (m *manualSchedule) schedule(_ time.Duration, fn func()) func() {
	timer := &manualTimer{fn: fn}
	m.timers = append(m.timers, timer)
	return func() { timer.cancelled = true }
}

func (m *manualSchedule) fire(t *testing.T) {
	t.Helper()
	for i, timer := range m.timers {
		if !timer.cancelled {
			m.timers = append(m.timers[:i], m.timers[i+1:]...)
			timer.fn()
			return
		}
	}
	t.Fatal("No live timer to fire")
}

func (m *manualSchedule) liveTimers() int {
	count := 0
	for _, timer := range m.timers {
		if !timer.cancelled {
			count++
		}
	}
	return count
}

type fixture struct {
	runner   *task.Runner
	backend  *scriptedBackend
	notifier *recordingNotifier
	sched    *manualSchedule
	tracker  *Tracker
}

func newFixture(t *testing.T, backend *scriptedBackend) *fixture {
	t.Helper()
	exec := task.NewContext(nil)
	if err := exec.Start(); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	t.Cleanup(func() { exec.Shutdown(time.Second) })

	runner := task.NewRunner(exec)
	notifier := &recordingNotifier{}
	sched := &manualSchedule{}
	tracker := NewTracker(runner, backend, notifier, sched.schedule, nil, Config{
		Interval: time.Second,
		MaxWait:  time.Hour,
	})
	return &fixture{runner: runner, backend: backend, notifier: notifier, sched: sched, tracker: tracker}
}

// drainOne executes one delivered completion, standing in for the UI loop
func (f *fixture) drainOne(t *testing.T) {
	t.Helper()
	select {
	case fn := <-f.runner.Deliveries():
		fn()
	case <-time.After(2 * time.Second):
		t.Fatal("Timed out waiting for a delivery")
	}
}

func TestTrackerCompletesAfterThreeFetches(t *testing.T) {
	backend := &scriptedBackend{
		statuses: []model.JobStatusInfo{
			{Status: "processing", Progress: 10},
			{Status: "processing", Progress: 60},
			{Status: "completed", Progress: 100},
		},
		artifact: &model.Artifact{Ref: "/api/tts/download/j1", Data: []byte("wav")},
	}
	f := newFixture(t, backend)

	var done []*model.Job
	progress := 0
	job := f.tracker.Track("j1", model.JobKindGenerate, Callbacks{
		OnProgress: func(*model.Job) { progress++ },
		OnDone:     func(j *model.Job) { done = append(done, j) },
	})

	if job.Status != model.JobStatusQueued {
		t.Errorf("Expected Queued before any fetch, got %s", job.Status)
	}

	f.drainOne(t) // fetch 1: processing
	if job.Status != model.JobStatusProcessing {
		t.Errorf("Expected Processing after first fetch, got %s", job.Status)
	}
	f.sched.fire(t) // tick 2
	f.drainOne(t)   // fetch 2: processing
	f.sched.fire(t) // tick 3
	f.drainOne(t)   // fetch 3: completed -> result fetch submitted
	f.drainOne(t)   // result fetched

	statusCalls, resultCalls := backend.counts()
	if statusCalls != 3 {
		t.Errorf("Expected exactly 3 status fetches, got %d", statusCalls)
	}
	if resultCalls != 1 {
		t.Errorf("Expected exactly 1 result fetch, got %d", resultCalls)
	}
	if len(done) != 1 {
		t.Fatalf("Expected terminal callback exactly once, got %d", len(done))
	}
	if done[0].Status != model.JobStatusCompleted {
		t.Errorf("Expected Completed, got %s", done[0].Status)
	}
	if done[0].Artifact == nil || string(done[0].Artifact.Data) != "wav" {
		t.Error("Terminal callback must carry the fetched artifact")
	}
	if progress != 2 {
		t.Errorf("Expected 2 progress callbacks, got %d", progress)
	}
	if f.sched.liveTimers() != 0 {
		t.Errorf("Expected no live timers after completion, got %d", f.sched.liveTimers())
	}
}

func TestTrackerFailurePassesMessageVerbatim(t *testing.T) {
	backend := &scriptedBackend{
		statuses: []model.JobStatusInfo{
			{Status: "failed", Error: "model unavailable"},
		},
	}
	f := newFixture(t, backend)

	var done []*model.Job
	f.tracker.Track("j1", model.JobKindGenerate, Callbacks{
		OnDone: func(j *model.Job) { done = append(done, j) },
	})
	f.drainOne(t)

	if len(done) != 1 {
		t.Fatalf("Expected terminal callback exactly once, got %d", len(done))
	}
	if done[0].Status != model.JobStatusFailed {
		t.Errorf("Expected Failed, got %s", done[0].Status)
	}
	if done[0].LastError != "model unavailable" {
		t.Errorf("Expected verbatim error message, got %q", done[0].LastError)
	}
	if f.notifier.errors() != 1 {
		t.Errorf("Expected exactly one error notification, got %d", f.notifier.errors())
	}
	statusCalls, resultCalls := backend.counts()
	if statusCalls != 1 || resultCalls != 0 {
		t.Errorf("Expected 1 status and 0 result fetches, got %d and %d", statusCalls, resultCalls)
	}
}

func TestTrackerTimesOutWithoutFurtherFetches(t *testing.T) {
	backend := &scriptedBackend{
		statuses: []model.JobStatusInfo{{Status: "processing", Progress: 5}},
	}
	f := newFixture(t, backend)
	f.tracker.cfg.MaxWait = time.Minute

	clock := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	f.tracker.now = func() time.Time { return clock }

	var done []*model.Job
	f.tracker.Track("j1", model.JobKindGenerate, Callbacks{
		OnDone: func(j *model.Job) { done = append(done, j) },
	})
	f.drainOne(t) // fetch 1: processing

	clock = clock.Add(2 * time.Minute)
	f.sched.fire(t) // tick past the deadline

	if len(done) != 1 {
		t.Fatalf("Expected terminal callback exactly once, got %d", len(done))
	}
	if done[0].Status != model.JobStatusFailed {
		t.Errorf("Expected Failed on timeout, got %s", done[0].Status)
	}
	if !strings.Contains(done[0].LastError, "timed out") {
		t.Errorf("Expected a timeout-specific message, got %q", done[0].LastError)
	}
	statusCalls, _ := backend.counts()
	if statusCalls != 1 {
		t.Errorf("Expected no further fetches after timeout, got %d", statusCalls)
	}
	if f.notifier.errors() != 1 {
		t.Errorf("Expected exactly one error notification, got %d", f.notifier.errors())
	}
}

func TestTrackerCancelSuppressesCallback(t *testing.T) {
	backend := &scriptedBackend{
		statuses: []model.JobStatusInfo{{Status: "processing"}},
		block:    make(chan struct{}),
	}
	f := newFixture(t, backend)

	doneCalls := 0
	job := f.tracker.Track("j1", model.JobKindGenerate, Callbacks{
		OnDone: func(*model.Job) { doneCalls++ },
	})

	// The status fetch is in flight; cancel now.
	f.tracker.Cancel("j1")
	if job.Status != model.JobStatusCancelled {
		t.Errorf("Expected Cancelled, got %s", job.Status)
	}

	// Let the fetch finish; its result must be discarded.
	close(backend.block)
	f.drainOne(t)

	if doneCalls != 0 {
		t.Error("Terminal callback must never run after Cancel")
	}
	if len(f.notifier.messages) != 0 {
		t.Errorf("Cancellation must not produce notifications, got %v", f.notifier.messages)
	}
	if f.sched.liveTimers() != 0 {
		t.Errorf("Expected no live timers after cancel, got %d", f.sched.liveTimers())
	}
}

func TestTrackerSkipsTickWhileFetchOutstanding(t *testing.T) {
	backend := &scriptedBackend{
		statuses: []model.JobStatusInfo{{Status: "processing"}},
		block:    make(chan struct{}),
	}
	f := newFixture(t, backend)

	f.tracker.Track("j1", model.JobKindGenerate, Callbacks{})

	// Two ticks while the first fetch is stuck: no second fetch starts.
	f.sched.fire(t)
	f.sched.fire(t)

	statusCalls, _ := backend.counts()
	if statusCalls != 1 {
		t.Errorf("Expected a single outstanding fetch, got %d", statusCalls)
	}

	close(backend.block)
	f.drainOne(t)
}

func TestTrackerDuplicateTrackIsNoOp(t *testing.T) {
	backend := &scriptedBackend{
		statuses: []model.JobStatusInfo{{Status: "processing"}},
	}
	f := newFixture(t, backend)

	first := f.tracker.Track("j1", model.JobKindGenerate, Callbacks{})
	second := f.tracker.Track("j1", model.JobKindGenerate, Callbacks{})

	if first != second {
		t.Error("Tracking the same id twice must return the same job")
	}
	statusCalls, _ := backend.counts()
	if statusCalls != 1 {
		t.Errorf("Duplicate Track must not start another fetch, got %d", statusCalls)
	}
	if f.sched.liveTimers() != 1 {
		t.Errorf("Duplicate Track must not create a duplicate timer, got %d", f.sched.liveTimers())
	}
}

func TestTrackerTerminalReplayWithoutRefetch(t *testing.T) {
	backend := &scriptedBackend{
		statuses: []model.JobStatusInfo{{Status: "completed"}},
		artifact: &model.Artifact{Ref: "ref", Data: []byte("wav")},
	}
	f := newFixture(t, backend)

	f.tracker.Track("j1", model.JobKindGenerate, Callbacks{})
	f.drainOne(t) // status: completed
	f.drainOne(t) // result

	replayed := 0
	job := f.tracker.Track("j1", model.JobKindGenerate, Callbacks{
		OnDone: func(j *model.Job) {
			replayed++
			if j.Artifact == nil {
				t.Error("Replayed terminal job must carry its artifact")
			}
		},
	})

	if replayed != 1 {
		t.Errorf("Expected cached terminal result replayed once, got %d", replayed)
	}
	if job.Status != model.JobStatusCompleted {
		t.Errorf("Expected Completed, got %s", job.Status)
	}
	statusCalls, resultCalls := backend.counts()
	if statusCalls != 1 || resultCalls != 1 {
		t.Errorf("Terminal replay must not re-query the backend, got %d and %d", statusCalls, resultCalls)
	}
}

func TestTrackerTransportErrorFailsJob(t *testing.T) {
	backend := &scriptedBackend{
		statusErr: errors.New("connection refused"),
		statuses:  []model.JobStatusInfo{{}},
	}
	f := newFixture(t, backend)

	var done []*model.Job
	f.tracker.Track("j1", model.JobKindGenerate, Callbacks{
		OnDone: func(j *model.Job) { done = append(done, j) },
	})
	f.drainOne(t)

	if len(done) != 1 || done[0].Status != model.JobStatusFailed {
		t.Fatalf("Expected a single Failed outcome, got %v", done)
	}
	if f.notifier.errors() != 1 {
		t.Errorf("Expected exactly one error notification, got %d", f.notifier.errors())
	}
}
