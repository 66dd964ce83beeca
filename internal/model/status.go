package model

// JobStatus represents the lifecycle state of a tracked remote job
type JobStatus string

const (
	// JobStatusQueued means the job is registered for tracking but no
	// status has been observed from the backend yet
	JobStatusQueued JobStatus = "Queued"

	// JobStatusProcessing means the backend has accepted the job and is
	// working on it
	JobStatusProcessing JobStatus = "Processing"

	// JobStatusCompleted means the job finished and its artifact was fetched
	JobStatusCompleted JobStatus = "Completed"

	// JobStatusFailed means the job failed remotely, timed out, or could
	// not be reached
	JobStatusFailed JobStatus = "Failed"

	// JobStatusCancelled means the job was cancelled by the user
	JobStatusCancelled JobStatus = "Cancelled"
)

// String returns the string representation of JobStatus
func (js JobStatus) String() string {
	return string(js)
}

// IsActive returns true if the job is still being tracked
func (js JobStatus) IsActive() bool {
	return js == JobStatusQueued || js == JobStatusProcessing
}

// IsTerminal returns true if no further transition can occur
func (js JobStatus) IsTerminal() bool {
	return js == JobStatusCompleted || js == JobStatusFailed || js == JobStatusCancelled
}

// StatusFromBackend maps a backend status string to a JobStatus. The
// backend reports lowercase states; anything non-terminal it reports
// means the job has been accepted and is in flight.
func StatusFromBackend(s string) JobStatus {
	switch s {
	case "completed":
		return JobStatusCompleted
	case "failed":
		return JobStatusFailed
	case "cancelled":
		return JobStatusCancelled
	default:
		// "pending", "processing" and unknown in-flight states
		return JobStatusProcessing
	}
}
