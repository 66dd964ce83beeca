package model

import "time"

// Severity classifies a notification for display
type Severity string

const (
	SeverityInfo    Severity = "info"
	SeveritySuccess Severity = "success"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// Notification is one transient user-facing message
type Notification struct {
	ID        string
	Severity  Severity
	Message   string
	CreatedAt time.Time
	Duration  time.Duration // display time before auto-dismiss
}
