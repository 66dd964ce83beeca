package main

import (
	"log/slog"
	"os"

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

// Minimal entry point without versioned window title, kept for packaging
// targets that build from cmd/.
func main() {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	myApp := app.NewWithID("com.voxstudio.vox-studio")
	myWindow := myApp.NewWindow("Vox Studio")
	myWindow.Resize(fyne.NewSize(900, 620))

	settings := config.NewSettings(myApp)
	client, err := api.NewClient(api.Config{
		BaseURL:        settings.GetBackendURL(),
		RequestTimeout: settings.GetRequestTimeout(),
		Retries:        settings.GetTransportRetries(),
	}, logger)
	if err != nil {
		logger.Error("backend client init failed", "error", err)
		os.Exit(1)
	}

	exec := task.NewContext(logger)
	if err := exec.Start(); err != nil {
		logger.Error("background context start failed", "error", err)
		os.Exit(1)
	}
	runner := task.NewRunner(exec)
	go func() {
		for fn := range runner.Deliveries() {
			fyne.Do(fn)
		}
	}()
	schedule := task.TimerSchedule(runner)

	store := cache.New()
	queue := notify.NewQueue(settings.GetNotificationCap(), settings.GetNotificationDuration(), schedule)
	tracker := poller.NewTracker(runner, client, queue, schedule, logger, poller.Config{
		Interval: settings.GetPollInterval(),
		MaxWait:  settings.GetJobMaxWait(),
	})
	monitor := api.NewMonitor(runner, client, queue, schedule, logger, settings.GetHealthInterval())

	ui.NewRootUI(myWindow, settings, runner, tracker, queue, monitor, client, store, logger)
	monitor.Start()

	myWindow.ShowAndRun()

	monitor.Stop()
	exec.Shutdown(settings.GetShutdownGrace())
}
