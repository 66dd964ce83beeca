package model

// Package model defines domain data structures used across the app: remote
// jobs and their status machine, notifications, and the script/voice DTOs
// exchanged with the speech backend. Structures are designed for direct
// binding in the UI and explicit state transitions.
