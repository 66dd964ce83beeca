package task

// Package task hosts the execution machinery that keeps the UI loop
// responsive: a background Context that owns all outbound network
// operations, a Runner that marshals their results back onto the UI
// thread through an explicit delivery channel, and the Schedule timer
// indirection used by components that tick on the UI thread.
