package task

import "time"

// Schedule arms a one-shot timer that runs fn on the UI thread after d.
// The returned function cancels the timer; cancelling after it fired is
// a no-op. Components that tick (job polling, notification auto-dismiss)
// take a Schedule so tests can drive time by hand.
type Schedule func(d time.Duration, fn func()) (cancel func())

// TimerSchedule returns a Schedule backed by time.AfterFunc that routes
// fn through the runner's delivery channel, keeping execution on the UI
// thread.
func TimerSchedule(r *Runner) Schedule {
	return func(d time.Duration, fn func()) func() {
		t := time.AfterFunc(d, func() {
			r.Dispatch(fn)
		})
		return func() { t.Stop() }
	}
}
