package poller

// Package poller tracks long-running backend jobs to a terminal state.
// Each tracked job is a small state machine driven by UI-thread timer
// ticks; every status fetch and the final artifact fetch go through the
// task.Runner, so all state mutation happens on the UI thread.
