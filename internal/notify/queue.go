package notify

import (
	"time"

	"github.com/google/uuid"

	"github.com/voxstudio/vox-studio/internal/model"
	"github.com/voxstudio/vox-studio/internal/task"
)

// DefaultDuration is applied when Enqueue is given a non-positive duration
const DefaultDuration = 5 * time.Second

// Queue holds transient user-facing notifications. At most cap entries
// are displayed at once; further ones wait in a FIFO backlog and are
// promoted as display slots free up. All methods must be called from the
// UI thread; auto-dismiss timers arrive through the Schedule, which
// delivers on the UI thread too.
type Queue struct {
	cap        int
	defaultDur time.Duration
	schedule   task.Schedule

	displayed []*model.Notification // index 0 is newest
	backlog   []*model.Notification // FIFO
	timers    map[string]func()     // auto-dismiss cancel funcs
	onChange  func()
}

// NewQueue creates a queue displaying at most cap notifications at once.
// defaultDuration is applied to notifications enqueued without one; zero
// means DefaultDuration.
func NewQueue(cap int, defaultDuration time.Duration, schedule task.Schedule) *Queue {
	if cap < 1 {
		cap = 1
	}
	if defaultDuration <= 0 {
		defaultDuration = DefaultDuration
	}
	return &Queue{
		cap:        cap,
		defaultDur: defaultDuration,
		schedule:   schedule,
		timers:     make(map[string]func()),
	}
}

// SetChangeCallback sets the callback invoked whenever the displayed set
// changes, so the UI can re-render
func (q *Queue) SetChangeCallback(fn func()) {
	q.onChange = fn
}

// Enqueue adds a notification and returns its id. It is displayed
// immediately if a slot is free, otherwise held in the backlog.
func (q *Queue) Enqueue(message string, severity model.Severity, duration time.Duration) string {
	if duration <= 0 {
		duration = q.defaultDur
	}
	n := &model.Notification{
		ID:        uuid.NewString(),
		Severity:  severity,
		Message:   message,
		CreatedAt: time.Now(),
		Duration:  duration,
	}

	if len(q.displayed) < q.cap {
		q.display(n)
		q.notifyChange()
	} else {
		q.backlog = append(q.backlog, n)
	}
	return n.ID
}

// Dismiss removes a notification, whether displayed or backlogged.
// Dismissing a displayed one immediately promotes the oldest backlog
// entry into the freed slot.
func (q *Queue) Dismiss(id string) {
	for i, n := range q.displayed {
		if n.ID == id {
			if cancel, ok := q.timers[id]; ok {
				cancel()
				delete(q.timers, id)
			}
			q.displayed = append(q.displayed[:i], q.displayed[i+1:]...)
			q.promote()
			q.notifyChange()
			return
		}
	}
	for i, n := range q.backlog {
		if n.ID == id {
			q.backlog = append(q.backlog[:i], q.backlog[i+1:]...)
			return
		}
	}
}

// Displayed returns the currently visible notifications, newest first
func (q *Queue) Displayed() []*model.Notification {
	out := make([]*model.Notification, len(q.displayed))
	copy(out, q.displayed)
	return out
}

// BacklogLen reports how many notifications are waiting for a slot
func (q *Queue) BacklogLen() int {
	return len(q.backlog)
}

func (q *Queue) display(n *model.Notification) {
	q.displayed = append([]*model.Notification{n}, q.displayed...)
	id := n.ID
	q.timers[id] = q.schedule(n.Duration, func() {
		q.Dismiss(id)
	})
}

func (q *Queue) promote() {
	if len(q.backlog) == 0 || len(q.displayed) >= q.cap {
		return
	}
	next := q.backlog[0]
	q.backlog = q.backlog[1:]
	q.display(next)
}

func (q *Queue) notifyChange() {
	if q.onChange != nil {
		q.onChange()
	}
}
