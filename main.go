package main

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"

	"github.com/voxstudio/vox-studio/internal/api"
	"github.com/voxstudio/vox-studio/internal/cache"
	"github.com/voxstudio/vox-studio/internal/config"
	"github.com/voxstudio/vox-studio/internal/notify"
	"github.com/voxstudio/vox-studio/internal/poller"
	"github.com/voxstudio/vox-studio/internal/task"
	"github.com/voxstudio/vox-studio/internal/ui"
)

// Version is set during build via -ldflags "-X main.version=X.Y.Z"
var version = "dev"

const (
	AppID   = "com.voxstudio.vox-studio"
	AppName = "Vox Studio"

	WindowWidth  = 900
	WindowHeight = 620

	cacheSweepInterval = time.Minute
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	logger.Info("starting", "app", AppName, "version", version)

	myApp := app.NewWithID(AppID)
	windowTitle := fmt.Sprintf("%s v%s", AppName, version)
	myWindow := myApp.NewWindow(windowTitle)
	myWindow.Resize(fyne.NewSize(WindowWidth, WindowHeight))

	settings := config.NewSettings(myApp)

	// The backend client fails fast on a bad URL; there is no offline
	// placeholder mode.
	client, err := api.NewClient(api.Config{
		BaseURL:        settings.GetBackendURL(),
		RequestTimeout: settings.GetRequestTimeout(),
		Retries:        settings.GetTransportRetries(),
	}, logger.With("component", "api"))
	if err != nil {
		logger.Error("backend client init failed", "error", err)
		os.Exit(1)
	}

	// Background execution context and the UI-thread bridge.
	exec := task.NewContext(logger.With("component", "task"))
	if err := exec.Start(); err != nil {
		logger.Error("background context start failed", "error", err)
		os.Exit(1)
	}
	runner := task.NewRunner(exec)

	// Everything the runner delivers executes on the Fyne event loop.
	go func() {
		for fn := range runner.Deliveries() {
			fyne.Do(fn)
		}
	}()

	schedule := task.TimerSchedule(runner)

	store := cache.New()
	store.StartSweep(cacheSweepInterval)

	queue := notify.NewQueue(settings.GetNotificationCap(), settings.GetNotificationDuration(), schedule)
	tracker := poller.NewTracker(runner, client, queue, schedule, logger.With("component", "poller"), poller.Config{
		Interval: settings.GetPollInterval(),
		MaxWait:  settings.GetJobMaxWait(),
	})
	monitor := api.NewMonitor(runner, client, queue, schedule, logger.With("component", "monitor"), settings.GetHealthInterval())

	ui.NewRootUI(myWindow, settings, runner, tracker, queue, monitor, client, store, logger.With("component", "ui"))
	monitor.Start()

	myWindow.ShowAndRun()

	// Window closed: stop timers and drain the background context.
	monitor.Stop()
	store.StopSweep()
	if err := exec.Shutdown(settings.GetShutdownGrace()); err != nil {
		logger.Warn("shutdown", "error", err)
	}
}
