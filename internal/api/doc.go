package api

// Package api is the HTTP client for the speech backend: job lifecycle
// (clone, generate, status, artifact download), script and voice CRUD,
// LLM pass-through calls, and a periodic health monitor. Transient
// transport failures are retried here, invisibly to callers.
