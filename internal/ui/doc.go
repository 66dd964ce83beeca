package ui

// Package ui contains the Fyne-based desktop user interface. It wires
// user interactions to the orchestration core (runner, tracker, cache,
// notification queue) and renders scripts, jobs, and notifications.
// All state the widgets read is only ever mutated on the UI thread.
