package model

import (
	"time"
)

// JobKind identifies what a remote job produces
type JobKind string

const (
	// JobKindClone is a voice-clone job
	JobKindClone JobKind = "clone"

	// JobKindGenerate is a speech-generation job
	JobKindGenerate JobKind = "generate"

	// JobKindOther is any other long-running backend job
	JobKindOther JobKind = "other"
)

// Job represents one tracked long-running remote operation
type Job struct {
	ID         string
	Kind       JobKind
	Status     JobStatus
	Progress   int    // 0 to 100, best effort
	LastError  string // failure cause, set only when Failed
	Artifact   *Artifact
	StartedAt  time.Time // when tracking started
	FinishedAt time.Time // when a terminal state was reached
}

// Artifact is the downloadable result of a completed job
type Artifact struct {
	Ref  string // backend reference the bytes were fetched from
	Data []byte
}

// JobStatusInfo is the status document the backend returns for a job
type JobStatusInfo struct {
	JobID    string `json:"job_id"`
	Status   string `json:"status"`
	Progress int    `json:"progress"`
	Error    string `json:"error,omitempty"`
}

// Elapsed returns how long the job has been running, or its total
// duration once finished
func (j *Job) Elapsed() time.Duration {
	if j.StartedAt.IsZero() {
		return 0
	}
	if !j.FinishedAt.IsZero() {
		return j.FinishedAt.Sub(j.StartedAt)
	}
	return time.Since(j.StartedAt)
}
