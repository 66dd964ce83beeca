package api

import (
	"context"
	"log/slog"
	"time"

	"github.com/voxstudio/vox-studio/internal/model"
	"github.com/voxstudio/vox-studio/internal/task"
)

// DefaultHealthInterval is the cadence of backend health probes
const DefaultHealthInterval = 60 * time.Second

// HealthChecker is the probe surface the monitor needs from the client
type HealthChecker interface {
	Health(ctx context.Context) error
}

// Notifier receives connection-state messages
type Notifier interface {
	Enqueue(message string, severity model.Severity, duration time.Duration) string
}

// Monitor periodically probes backend health through the runner and
// reports connection-state transitions on the UI thread. Each transition
// produces at most one notification; steady state produces none. All
// methods must be called from the UI thread.
type Monitor struct {
	runner   *task.Runner
	checker  HealthChecker
	notifier Notifier
	schedule task.Schedule
	interval time.Duration
	logger   *slog.Logger

	onChange    func(connected bool)
	connected   bool
	probed      bool // at least one probe has completed
	outstanding bool
	stopped     bool
	cancelTick  func()
}

// NewMonitor creates a health monitor; interval zero means
// DefaultHealthInterval
func NewMonitor(runner *task.Runner, checker HealthChecker, notifier Notifier, schedule task.Schedule, logger *slog.Logger, interval time.Duration) *Monitor {
	if interval <= 0 {
		interval = DefaultHealthInterval
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Monitor{
		runner:   runner,
		checker:  checker,
		notifier: notifier,
		schedule: schedule,
		interval: interval,
		logger:   logger,
	}
}

// SetChangeCallback sets the callback invoked on the UI thread whenever
// the connection state flips (and once after the first probe)
func (m *Monitor) SetChangeCallback(fn func(connected bool)) {
	m.onChange = fn
}

// Connected reports the last observed connection state
func (m *Monitor) Connected() bool {
	return m.connected
}

// Start issues an immediate probe and then probes at the configured
// interval
func (m *Monitor) Start() {
	m.stopped = false
	m.tick()
}

// Stop halts probing; an in-flight probe's outcome is discarded
func (m *Monitor) Stop() {
	m.stopped = true
	if m.cancelTick != nil {
		m.cancelTick()
		m.cancelTick = nil
	}
}

func (m *Monitor) tick() {
	if m.stopped {
		return
	}
	m.cancelTick = m.schedule(m.interval, m.tick)
	if m.outstanding {
		return
	}

	_, err := m.runner.Submit(func(ctx context.Context) (any, error) {
		return nil, m.checker.Health(ctx)
	}, func(_ any, err error) {
		m.outstanding = false
		if m.stopped {
			return
		}
		m.observe(err == nil, err)
	})
	if err != nil {
		m.logger.Warn("health probe not submitted", "error", err)
		return
	}
	m.outstanding = true
}

func (m *Monitor) observe(connected bool, probeErr error) {
	first := !m.probed
	m.probed = true
	if !first && connected == m.connected {
		return
	}
	m.connected = connected

	switch {
	case connected && !first:
		m.logger.Info("backend connection restored")
		if m.notifier != nil {
			m.notifier.Enqueue("Backend connection restored", model.SeveritySuccess, 0)
		}
	case !connected:
		m.logger.Warn("backend unreachable", "error", probeErr)
		if m.notifier != nil {
			m.notifier.Enqueue("Backend is unreachable", model.SeverityError, 0)
		}
	}

	if m.onChange != nil {
		m.onChange(connected)
	}
}
