package config

import (
	"time"

	"fyne.io/fyne/v2"

	"github.com/voxstudio/vox-studio/internal/platform"
)

// Settings keys for Fyne preferences
const (
	KeyBackendURL           = "backend_url"
	KeyOutputDir            = "output_directory"
	KeyPollIntervalMS       = "poll_interval_ms"
	KeyJobMaxWaitMin        = "job_max_wait_min"
	KeyTransportRetries     = "transport_retries"
	KeyRequestTimeoutS      = "request_timeout_s"
	KeyHealthIntervalS      = "health_interval_s"
	KeyNotificationCap      = "notification_cap"
	KeyNotificationDurS     = "notification_duration_s"
	KeyShutdownGraceMS      = "shutdown_grace_ms"
	KeyRevealSavedArtifacts = "reveal_saved_artifacts"
)

// Default values
const (
	DefaultBackendURL           = "http://localhost:8000"
	DefaultPollIntervalMS       = 1500
	DefaultJobMaxWaitMin        = 10
	DefaultTransportRetries     = 2
	DefaultRequestTimeoutS      = 30
	DefaultHealthIntervalS      = 60
	DefaultNotificationCap      = 3
	DefaultNotificationDurS     = 5
	DefaultShutdownGraceMS      = 5000
	DefaultRevealSavedArtifacts = true
)

// Cache TTLs per resource kind, matching how quickly each goes stale
const (
	ScriptCacheTTL = 10 * time.Minute
	VoiceCacheTTL  = 5 * time.Minute
	ModelCacheTTL  = time.Hour
)

// Settings manages application configuration
type Settings struct {
	app fyne.App
}

// NewSettings creates a new settings manager
func NewSettings(app fyne.App) *Settings {
	return &Settings{app: app}
}

// GetBackendURL returns the speech backend base URL
func (s *Settings) GetBackendURL() string {
	u := s.app.Preferences().String(KeyBackendURL)
	if u == "" {
		s.SetBackendURL(DefaultBackendURL)
		return DefaultBackendURL
	}
	return u
}

// SetBackendURL sets the speech backend base URL
func (s *Settings) SetBackendURL(u string) {
	s.app.Preferences().SetString(KeyBackendURL, u)
}

// GetOutputDirectory returns where generated audio artifacts are saved
func (s *Settings) GetOutputDirectory() string {
	dir := s.app.Preferences().String(KeyOutputDir)
	if dir == "" {
		defaultDir, err := platform.GetHomeDownloadsDir()
		if err != nil {
			defaultDir = "/tmp/vox-studio"
		}
		s.SetOutputDirectory(defaultDir)
		return defaultDir
	}
	return dir
}

// SetOutputDirectory sets where generated audio artifacts are saved
func (s *Settings) SetOutputDirectory(dir string) {
	s.app.Preferences().SetString(KeyOutputDir, dir)
}

// GetPollInterval returns the job status poll cadence
func (s *Settings) GetPollInterval() time.Duration {
	ms := s.app.Preferences().Int(KeyPollIntervalMS)
	if ms <= 0 {
		s.SetPollInterval(DefaultPollIntervalMS * time.Millisecond)
		return DefaultPollIntervalMS * time.Millisecond
	}
	return time.Duration(ms) * time.Millisecond
}

// SetPollInterval sets the job status poll cadence, clamped to a sane range
func (s *Settings) SetPollInterval(d time.Duration) {
	ms := int(d / time.Millisecond)
	if ms < 250 {
		ms = 250
	}
	if ms > 10000 {
		ms = 10000
	}
	s.app.Preferences().SetInt(KeyPollIntervalMS, ms)
}

// GetJobMaxWait returns the total wait bound for a job to reach a
// terminal state
func (s *Settings) GetJobMaxWait() time.Duration {
	minutes := s.app.Preferences().Int(KeyJobMaxWaitMin)
	if minutes <= 0 {
		s.app.Preferences().SetInt(KeyJobMaxWaitMin, DefaultJobMaxWaitMin)
		return DefaultJobMaxWaitMin * time.Minute
	}
	return time.Duration(minutes) * time.Minute
}

// SetJobMaxWait sets the total wait bound in whole minutes, minimum one
func (s *Settings) SetJobMaxWait(d time.Duration) {
	minutes := int(d / time.Minute)
	if minutes < 1 {
		minutes = 1
	}
	if minutes > 120 {
		minutes = 120
	}
	s.app.Preferences().SetInt(KeyJobMaxWaitMin, minutes)
}

// GetTransportRetries returns how many immediate retries follow a
// transient transport failure
func (s *Settings) GetTransportRetries() int {
	return s.app.Preferences().IntWithFallback(KeyTransportRetries, DefaultTransportRetries)
}

// SetTransportRetries sets the transient retry count, clamped to 0..5
func (s *Settings) SetTransportRetries(n int) {
	if n < 0 {
		n = 0
	}
	if n > 5 {
		n = 5
	}
	s.app.Preferences().SetInt(KeyTransportRetries, n)
}

// GetRequestTimeout returns the per-request transport timeout
func (s *Settings) GetRequestTimeout() time.Duration {
	sec := s.app.Preferences().Int(KeyRequestTimeoutS)
	if sec <= 0 {
		s.app.Preferences().SetInt(KeyRequestTimeoutS, DefaultRequestTimeoutS)
		return DefaultRequestTimeoutS * time.Second
	}
	return time.Duration(sec) * time.Second
}

// GetHealthInterval returns the backend health probe cadence
func (s *Settings) GetHealthInterval() time.Duration {
	sec := s.app.Preferences().Int(KeyHealthIntervalS)
	if sec <= 0 {
		s.app.Preferences().SetInt(KeyHealthIntervalS, DefaultHealthIntervalS)
		return DefaultHealthIntervalS * time.Second
	}
	return time.Duration(sec) * time.Second
}

// GetNotificationCap returns how many notifications may be displayed at
// once
func (s *Settings) GetNotificationCap() int {
	capacity := s.app.Preferences().Int(KeyNotificationCap)
	if capacity <= 0 {
		s.app.Preferences().SetInt(KeyNotificationCap, DefaultNotificationCap)
		return DefaultNotificationCap
	}
	return capacity
}

// SetNotificationCap sets the display cap, clamped to 1..10
func (s *Settings) SetNotificationCap(capacity int) {
	if capacity < 1 {
		capacity = 1
	}
	if capacity > 10 {
		capacity = 10
	}
	s.app.Preferences().SetInt(KeyNotificationCap, capacity)
}

// GetNotificationDuration returns the default display time of a
// notification before auto-dismiss
func (s *Settings) GetNotificationDuration() time.Duration {
	sec := s.app.Preferences().Int(KeyNotificationDurS)
	if sec <= 0 {
		s.app.Preferences().SetInt(KeyNotificationDurS, DefaultNotificationDurS)
		return DefaultNotificationDurS * time.Second
	}
	return time.Duration(sec) * time.Second
}

// GetShutdownGrace returns how long shutdown waits for in-flight
// operations before abandoning them
func (s *Settings) GetShutdownGrace() time.Duration {
	ms := s.app.Preferences().Int(KeyShutdownGraceMS)
	if ms <= 0 {
		s.app.Preferences().SetInt(KeyShutdownGraceMS, DefaultShutdownGraceMS)
		return DefaultShutdownGraceMS * time.Millisecond
	}
	return time.Duration(ms) * time.Millisecond
}

// GetRevealSavedArtifacts returns whether saved audio is revealed in the
// file manager
func (s *Settings) GetRevealSavedArtifacts() bool {
	return s.app.Preferences().BoolWithFallback(KeyRevealSavedArtifacts, DefaultRevealSavedArtifacts)
}

// SetRevealSavedArtifacts sets whether saved audio is revealed in the
// file manager
func (s *Settings) SetRevealSavedArtifacts(reveal bool) {
	s.app.Preferences().SetBool(KeyRevealSavedArtifacts, reveal)
}
