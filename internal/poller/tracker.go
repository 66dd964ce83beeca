package poller

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/voxstudio/vox-studio/internal/model"
	"github.com/voxstudio/vox-studio/internal/task"
)

// DefaultInterval is the poll cadence between status fetches. Ticks are
// re-armed at a fixed interval; a tick that finds the previous fetch
// still outstanding is skipped.
const DefaultInterval = 1500 * time.Millisecond

// DefaultMaxWait bounds the total time a job may stay non-terminal
// before it is forced to Failed with a timeout error.
const DefaultMaxWait = 10 * time.Minute

// Backend is the job-lifecycle surface of the speech service: a status
// document per fetch and the artifact once a job completes.
type Backend interface {
	JobStatus(ctx context.Context, jobID string) (*model.JobStatusInfo, error)
	JobResult(ctx context.Context, jobID string) (*model.Artifact, error)
}

// Notifier receives user-facing messages for terminal outcomes
type Notifier interface {
	Enqueue(message string, severity model.Severity, duration time.Duration) string
}

// Callbacks subscribe a caller to one job's lifecycle. OnProgress may
// fire many times; OnDone fires at most once, and never after Cancel.
type Callbacks struct {
	OnProgress func(job *model.Job)
	OnDone     func(job *model.Job)
}

// Config tunes polling behavior
type Config struct {
	Interval time.Duration // status fetch cadence, DefaultInterval if zero
	MaxWait  time.Duration // total wait bound, DefaultMaxWait if zero
}

type tracked struct {
	job         *model.Job
	cb          Callbacks
	deadline    time.Time
	outstanding bool // a status or result fetch is in flight
	handle      task.Handle
	cancelTick  func()
}

// Tracker owns the per-job polling state machines. All methods must be
// called from the UI thread; terminal entries stay in the table so a
// repeated Track returns the cached terminal result instead of
// re-querying the backend.
type Tracker struct {
	runner   *task.Runner
	backend  Backend
	notifier Notifier
	schedule task.Schedule
	logger   *slog.Logger
	cfg      Config
	now      func() time.Time

	jobs map[string]*tracked
}

// NewTracker creates a tracker polling backend through runner
func NewTracker(runner *task.Runner, backend Backend, notifier Notifier, schedule task.Schedule, logger *slog.Logger, cfg Config) *Tracker {
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultInterval
	}
	if cfg.MaxWait <= 0 {
		cfg.MaxWait = DefaultMaxWait
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Tracker{
		runner:   runner,
		backend:  backend,
		notifier: notifier,
		schedule: schedule,
		logger:   logger,
		cfg:      cfg,
		now:      time.Now,
		jobs:     make(map[string]*tracked),
	}
}

// Track registers a job for polling and returns its current state. If the
// id is already tracked this is a no-op: an active job keeps its original
// subscriber, a terminal job replays its cached outcome to cb.OnDone.
// The first status fetch is issued immediately.
func (t *Tracker) Track(jobID string, kind model.JobKind, cb Callbacks) *model.Job {
	if tr, ok := t.jobs[jobID]; ok {
		if tr.job.Status.IsTerminal() && tr.job.Status != model.JobStatusCancelled && cb.OnDone != nil {
			cb.OnDone(tr.job)
		}
		return tr.job
	}

	tr := &tracked{
		job: &model.Job{
			ID:        jobID,
			Kind:      kind,
			Status:    model.JobStatusQueued,
			StartedAt: t.now(),
		},
		cb:       cb,
		deadline: t.now().Add(t.cfg.MaxWait),
	}
	t.jobs[jobID] = tr

	t.logger.Info("tracking job", "job_id", jobID, "kind", kind)
	t.tick(jobID)
	return tr.job
}

// Cancel stops polling a job immediately. Any in-flight fetch is
// cancelled through the runner, so no callback for it will ever run.
// The job becomes Cancelled; no failure notification is produced and
// OnDone is not invoked.
func (t *Tracker) Cancel(jobID string) {
	tr, ok := t.jobs[jobID]
	if !ok || tr.job.Status.IsTerminal() {
		return
	}
	t.stopTicking(tr)
	if tr.outstanding {
		t.runner.Cancel(tr.handle)
		tr.outstanding = false
	}
	tr.job.Status = model.JobStatusCancelled
	tr.job.FinishedAt = t.now()
	t.logger.Info("job cancelled", "job_id", jobID)
}

// Job returns the tracked job for id, if any
func (t *Tracker) Job(jobID string) (*model.Job, bool) {
	tr, ok := t.jobs[jobID]
	if !ok {
		return nil, false
	}
	return tr.job, true
}

// Jobs returns every tracked job, terminal ones included
func (t *Tracker) Jobs() []*model.Job {
	out := make([]*model.Job, 0, len(t.jobs))
	for _, tr := range t.jobs {
		out = append(out, tr.job)
	}
	return out
}

// tick re-arms the next tick and issues a status fetch unless one is
// still outstanding.
func (t *Tracker) tick(jobID string) {
	tr, ok := t.jobs[jobID]
	if !ok || tr.job.Status.IsTerminal() {
		return
	}

	if t.now().After(tr.deadline) {
		// Bounded total wait elapsed. Abort any in-flight fetch and stop
		// touching the network for this job.
		if tr.outstanding {
			t.runner.Cancel(tr.handle)
			tr.outstanding = false
		}
		t.fail(tr, fmt.Sprintf("job %s timed out after %s", jobID, t.cfg.MaxWait))
		return
	}

	tr.cancelTick = t.schedule(t.cfg.Interval, func() { t.tick(jobID) })

	if tr.outstanding {
		// Previous fetch has not returned yet; skip this tick.
		return
	}
	t.fetchStatus(tr)
}

func (t *Tracker) fetchStatus(tr *tracked) {
	jobID := tr.job.ID
	handle, err := t.runner.Submit(func(ctx context.Context) (any, error) {
		return t.backend.JobStatus(ctx, jobID)
	}, func(result any, err error) {
		t.statusFetched(jobID, result, err)
	})
	if err != nil {
		t.stopTicking(tr)
		t.fail(tr, fmt.Sprintf("status fetch for job %s: %v", jobID, err))
		return
	}
	tr.outstanding = true
	tr.handle = handle
}

func (t *Tracker) statusFetched(jobID string, result any, err error) {
	tr, ok := t.jobs[jobID]
	if !ok || tr.job.Status.IsTerminal() {
		return
	}
	tr.outstanding = false

	if err != nil {
		t.stopTicking(tr)
		t.fail(tr, err.Error())
		return
	}

	info := result.(*model.JobStatusInfo)
	switch model.StatusFromBackend(info.Status) {
	case model.JobStatusCompleted:
		t.stopTicking(tr)
		t.fetchResult(tr)
	case model.JobStatusFailed:
		t.stopTicking(tr)
		t.fail(tr, info.Error)
	default:
		// The backend answered for this job, so it has been accepted.
		tr.job.Status = model.JobStatusProcessing
		if info.Progress > tr.job.Progress {
			tr.job.Progress = info.Progress
		}
		if tr.cb.OnProgress != nil {
			tr.cb.OnProgress(tr.job)
		}
	}
}

// fetchResult performs the single artifact fetch that follows a
// Completed status, so OnDone never fires without a usable result.
func (t *Tracker) fetchResult(tr *tracked) {
	jobID := tr.job.ID
	handle, err := t.runner.Submit(func(ctx context.Context) (any, error) {
		return t.backend.JobResult(ctx, jobID)
	}, func(result any, err error) {
		t.resultFetched(jobID, result, err)
	})
	if err != nil {
		t.fail(tr, fmt.Sprintf("result fetch for job %s: %v", jobID, err))
		return
	}
	tr.outstanding = true
	tr.handle = handle
}

func (t *Tracker) resultFetched(jobID string, result any, err error) {
	tr, ok := t.jobs[jobID]
	if !ok || tr.job.Status.IsTerminal() {
		return
	}
	tr.outstanding = false

	if err != nil {
		t.fail(tr, fmt.Sprintf("result fetch for job %s: %v", jobID, err))
		return
	}

	tr.job.Artifact = result.(*model.Artifact)
	tr.job.Status = model.JobStatusCompleted
	tr.job.Progress = 100
	tr.job.FinishedAt = t.now()
	t.logger.Info("job completed", "job_id", jobID, "elapsed", tr.job.Elapsed())
	if t.notifier != nil {
		t.notifier.Enqueue(fmt.Sprintf("%s job finished", tr.job.Kind), model.SeveritySuccess, 0)
	}
	if tr.cb.OnDone != nil {
		tr.cb.OnDone(tr.job)
	}
}

// fail moves a job to Failed exactly once, with a single error
// notification regardless of how many subscribers observe the outcome.
func (t *Tracker) fail(tr *tracked, msg string) {
	if tr.job.Status.IsTerminal() {
		return
	}
	tr.job.Status = model.JobStatusFailed
	tr.job.LastError = msg
	tr.job.FinishedAt = t.now()
	t.logger.Warn("job failed", "job_id", tr.job.ID, "error", msg)
	if t.notifier != nil {
		t.notifier.Enqueue(msg, model.SeverityError, 0)
	}
	if tr.cb.OnDone != nil {
		tr.cb.OnDone(tr.job)
	}
}

func (t *Tracker) stopTicking(tr *tracked) {
	if tr.cancelTick != nil {
		tr.cancelTick()
		tr.cancelTick = nil
	}
}
