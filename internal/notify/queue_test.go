package notify

import (
	"testing"
	"time"

	"github.com/voxstudio/vox-studio/internal/model"
)

// manualTimer is an armed auto-dismiss timer the test fires by hand
type manualTimer struct {
	d         time.Duration
	fn        func()
	cancelled bool
}

// manualSchedule collects timers instead of arming real ones
type manualSchedule struct {
	timers []*manualTimer
}

func (m *manualSchedule) schedule(d time.Duration, fn func()) func() {
	timer := &manualTimer{d: d, fn: fn}
	m.timers = append(m.timers, timer)
	return func() { timer.cancelled = true }
}

// fire runs the oldest live timer
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

func TestQueueDisplaysUpToCap(t *testing.T) {
	sched := &manualSchedule{}
	q := NewQueue(2, 0, sched.schedule)

	q.Enqueue("one", model.SeverityInfo, time.Second)
	q.Enqueue("two", model.SeverityInfo, time.Second)
	q.Enqueue("three", model.SeverityInfo, time.Second)

	displayed := q.Displayed()
	if len(displayed) != 2 {
		t.Fatalf("Expected 2 displayed, got %d", len(displayed))
	}
	if q.BacklogLen() != 1 {
		t.Errorf("Expected backlog of 1, got %d", q.BacklogLen())
	}

	// Newest displayed first.
	if displayed[0].Message != "two" || displayed[1].Message != "one" {
		t.Errorf("Expected newest-first order [two one], got [%s %s]", displayed[0].Message, displayed[1].Message)
	}
}

func TestQueueDismissPromotesBacklog(t *testing.T) {
	sched := &manualSchedule{}
	q := NewQueue(2, 0, sched.schedule)

	first := q.Enqueue("one", model.SeverityInfo, time.Second)
	q.Enqueue("two", model.SeverityInfo, time.Second)
	q.Enqueue("three", model.SeverityInfo, time.Second)
	q.Enqueue("four", model.SeverityInfo, time.Second)

	q.Dismiss(first)

	// No gap in display count: the oldest backlog entry fills the slot
	// immediately.
	displayed := q.Displayed()
	if len(displayed) != 2 {
		t.Fatalf("Expected 2 displayed after dismissal, got %d", len(displayed))
	}
	if displayed[0].Message != "three" {
		t.Errorf("Expected oldest backlog entry 'three' promoted, got %s", displayed[0].Message)
	}
	if q.BacklogLen() != 1 {
		t.Errorf("Expected backlog of 1, got %d", q.BacklogLen())
	}
}

func TestQueueAutoDismiss(t *testing.T) {
	sched := &manualSchedule{}
	q := NewQueue(1, 0, sched.schedule)

	q.Enqueue("one", model.SeverityInfo, time.Second)
	q.Enqueue("two", model.SeverityInfo, time.Second)

	sched.fire(t) // auto-dismiss "one"

	displayed := q.Displayed()
	if len(displayed) != 1 || displayed[0].Message != "two" {
		t.Fatalf("Expected 'two' displayed after auto-dismiss, got %v", displayed)
	}
	if q.BacklogLen() != 0 {
		t.Errorf("Expected empty backlog, got %d", q.BacklogLen())
	}
}

func TestQueueExplicitDismissCancelsTimer(t *testing.T) {
	sched := &manualSchedule{}
	q := NewQueue(1, 0, sched.schedule)

	id := q.Enqueue("one", model.SeverityInfo, time.Second)
	q.Dismiss(id)

	if len(q.Displayed()) != 0 {
		t.Error("Expected nothing displayed after dismissal")
	}
	for _, timer := range sched.timers {
		if !timer.cancelled {
			t.Error("Expected the auto-dismiss timer to be cancelled")
		}
	}
}

func TestQueueDismissBacklogEntry(t *testing.T) {
	sched := &manualSchedule{}
	q := NewQueue(1, 0, sched.schedule)

	q.Enqueue("one", model.SeverityInfo, time.Second)
	backlogged := q.Enqueue("two", model.SeverityInfo, time.Second)

	q.Dismiss(backlogged)

	if q.BacklogLen() != 0 {
		t.Errorf("Expected empty backlog, got %d", q.BacklogLen())
	}
	if len(q.Displayed()) != 1 {
		t.Error("Dismissing a backlog entry must not disturb the display")
	}
}

func TestQueueDefaultDuration(t *testing.T) {
	sched := &manualSchedule{}
	q := NewQueue(1, 0, sched.schedule)

	q.Enqueue("one", model.SeverityInfo, 0)

	if len(sched.timers) != 1 {
		t.Fatalf("Expected one armed timer, got %d", len(sched.timers))
	}
	if sched.timers[0].d != DefaultDuration {
		t.Errorf("Expected default duration %v, got %v", DefaultDuration, sched.timers[0].d)
	}
}

func TestQueueConfiguredDefaultDuration(t *testing.T) {
	sched := &manualSchedule{}
	q := NewQueue(1, 8*time.Second, sched.schedule)

	q.Enqueue("one", model.SeverityInfo, 0)

	if sched.timers[0].d != 8*time.Second {
		t.Errorf("Expected configured duration 8s, got %v", sched.timers[0].d)
	}
}

func TestQueueChangeCallback(t *testing.T) {
	sched := &manualSchedule{}
	q := NewQueue(1, 0, sched.schedule)

	changes := 0
	q.SetChangeCallback(func() { changes++ })

	id := q.Enqueue("one", model.SeverityInfo, time.Second)
	q.Enqueue("backlogged", model.SeverityInfo, time.Second)
	q.Dismiss(id)

	// Enqueue-into-display and dismissal-with-promotion each notify;
	// the backlogged enqueue does not change what is displayed.
	if changes != 2 {
		t.Errorf("Expected 2 change callbacks, got %d", changes)
	}
}
