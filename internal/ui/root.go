package ui

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/layout"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"

	"github.com/voxstudio/vox-studio/internal/api"
	"github.com/voxstudio/vox-studio/internal/cache"
	"github.com/voxstudio/vox-studio/internal/config"
	"github.com/voxstudio/vox-studio/internal/model"
	"github.com/voxstudio/vox-studio/internal/notify"
	"github.com/voxstudio/vox-studio/internal/platform"
	"github.com/voxstudio/vox-studio/internal/poller"
	"github.com/voxstudio/vox-studio/internal/task"
)

// RootUI represents the main UI structure
type RootUI struct {
	window   fyne.Window
	settings *config.Settings
	logger   *slog.Logger

	runner  *task.Runner
	tracker *poller.Tracker
	queue   *notify.Queue
	monitor *api.Monitor
	client  *api.Client
	store   *cache.Cache

	scripts        []model.Script
	voices         []model.VoiceProfile
	selectedScript int // index into scripts, -1 when nothing selected

	scriptList    *widget.List
	jobsBox       *fyne.Container
	statusLabel   *widget.Label
	notifications *fyne.Container
}

// NewRootUI creates and initializes the main UI
func NewRootUI(window fyne.Window, settings *config.Settings, runner *task.Runner, tracker *poller.Tracker, queue *notify.Queue, monitor *api.Monitor, client *api.Client, store *cache.Cache, logger *slog.Logger) *RootUI {
	ui := &RootUI{
		window:         window,
		settings:       settings,
		logger:         logger,
		runner:         runner,
		tracker:        tracker,
		queue:          queue,
		monitor:        monitor,
		client:         client,
		store:          store,
		selectedScript: -1,
	}

	ui.scriptList = widget.NewList(
		func() int { return len(ui.scripts) },
		func() fyne.CanvasObject { return widget.NewLabel("script") },
		func(i widget.ListItemID, obj fyne.CanvasObject) {
			obj.(*widget.Label).SetText(ui.scripts[i].Title)
		},
	)
	ui.scriptList.OnSelected = func(i widget.ListItemID) { ui.selectedScript = i }
	ui.scriptList.OnUnselected = func(widget.ListItemID) { ui.selectedScript = -1 }

	ui.jobsBox = container.NewVBox()
	ui.statusLabel = widget.NewLabel("Backend: checking…")
	ui.notifications = container.NewVBox()

	queue.SetChangeCallback(ui.refreshNotifications)
	monitor.SetChangeCallback(ui.setConnected)

	toolbar := widget.NewToolbar(
		widget.NewToolbarAction(theme.ViewRefreshIcon(), func() { ui.loadScripts(true) }),
		widget.NewToolbarAction(theme.DocumentCreateIcon(), ui.draftScript),
		widget.NewToolbarAction(theme.DocumentIcon(), ui.improveScript),
		widget.NewToolbarAction(theme.MediaPlayIcon(), ui.generateSpeech),
		widget.NewToolbarAction(theme.MediaRecordIcon(), ui.cloneVoice),
		widget.NewToolbarAction(theme.ContentAddIcon(), ui.addVoice),
		widget.NewToolbarAction(theme.AccountIcon(), ui.manageVoices),
		widget.NewToolbarSpacer(),
		widget.NewToolbarAction(theme.SettingsIcon(), func() { ui.showSettingsDialog() }),
	)

	left := container.NewBorder(widget.NewLabel("Scripts"), nil, nil, nil, ui.scriptList)
	right := container.NewBorder(widget.NewLabel("Jobs"), nil, nil, nil, container.NewVScroll(ui.jobsBox))
	split := container.NewHSplit(left, right)
	split.SetOffset(0.4)

	content := container.NewBorder(toolbar, ui.statusLabel, nil, nil, split)
	// Notifications overlay the content, anchored to the top-right corner.
	overlay := container.NewHBox(layout.NewSpacer(), container.NewVBox(ui.notifications))
	window.SetContent(container.NewStack(content, overlay))

	ui.loadScripts(false)
	ui.loadVoices(false)
	return ui
}

// setConnected updates the status bar when the health monitor reports a
// connection-state change
func (ui *RootUI) setConnected(connected bool) {
	if connected {
		ui.statusLabel.SetText("Backend: connected")
	} else {
		ui.statusLabel.SetText("Backend: offline")
	}
}

// loadScripts populates the script list, from cache unless forced
func (ui *RootUI) loadScripts(force bool) {
	if !force {
		if v, ok := ui.store.Get(cache.NamespaceScripts, "list"); ok {
			ui.scripts = v.([]model.Script)
			ui.scriptList.Refresh()
			return
		}
	}
	_, err := ui.runner.Submit(func(ctx context.Context) (any, error) {
		return ui.client.ListScripts(ctx, "")
	}, func(result any, err error) {
		if err != nil {
			ui.queue.Enqueue(fmt.Sprintf("Loading scripts failed: %v", err), model.SeverityError, 0)
			return
		}
		scripts := result.([]model.Script)
		ui.store.Set(cache.NamespaceScripts, "list", scripts, config.ScriptCacheTTL)
		ui.scripts = scripts
		ui.scriptList.Refresh()
	})
	if err != nil {
		ui.logger.Error("script load not submitted", "error", err)
	}
}

// loadVoices populates the voice choices, from cache unless forced
func (ui *RootUI) loadVoices(force bool) {
	if !force {
		if v, ok := ui.store.Get(cache.NamespaceVoices, "list"); ok {
			ui.voices = v.([]model.VoiceProfile)
			return
		}
	}
	_, err := ui.runner.Submit(func(ctx context.Context) (any, error) {
		return ui.client.ListVoices(ctx)
	}, func(result any, err error) {
		if err != nil {
			ui.queue.Enqueue(fmt.Sprintf("Loading voices failed: %v", err), model.SeverityError, 0)
			return
		}
		voices := result.([]model.VoiceProfile)
		ui.store.Set(cache.NamespaceVoices, "list", voices, config.VoiceCacheTTL)
		ui.voices = voices
	})
	if err != nil {
		ui.logger.Error("voice load not submitted", "error", err)
	}
}

// generateSpeech starts a speech-generation job for the selected script
func (ui *RootUI) generateSpeech() {
	if ui.selectedScript < 0 || ui.selectedScript >= len(ui.scripts) {
		ui.queue.Enqueue("Select a script first", model.SeverityWarning, 0)
		return
	}
	if len(ui.voices) == 0 {
		ui.queue.Enqueue("No voices available, clone one first", model.SeverityWarning, 0)
		return
	}
	script := ui.scripts[ui.selectedScript]

	names := make([]string, len(ui.voices))
	for i, v := range ui.voices {
		names[i] = v.Name
	}
	voiceSelect := widget.NewSelect(names, nil)
	voiceSelect.SetSelectedIndex(0)

	form := []*widget.FormItem{widget.NewFormItem("Voice", voiceSelect)}
	dialog.ShowForm("Generate Speech", "Generate", "Cancel", form, func(ok bool) {
		if !ok || voiceSelect.SelectedIndex() < 0 {
			return
		}
		voice := ui.voices[voiceSelect.SelectedIndex()]
		ui.startGeneration(script, voice)
	}, ui.window)
}

func (ui *RootUI) startGeneration(script model.Script, voice model.VoiceProfile) {
	req := api.GenerateRequest{Text: script.Content, VoiceID: voice.ID, Parameters: voice.Parameters}
	_, err := ui.runner.Submit(func(ctx context.Context) (any, error) {
		jobID, err := ui.client.StartGeneration(ctx, req)
		return jobID, err
	}, func(result any, err error) {
		if err != nil {
			ui.queue.Enqueue(fmt.Sprintf("Starting generation failed: %v", err), model.SeverityError, 0)
			return
		}
		ui.trackJob(result.(string), model.JobKindGenerate, script.Title)
	})
	if err != nil {
		ui.logger.Error("generation not submitted", "error", err)
	}
}

// cloneVoice starts a voice-clone job for a chosen voice profile
func (ui *RootUI) cloneVoice() {
	if len(ui.voices) == 0 {
		ui.queue.Enqueue("No voice profiles to clone", model.SeverityWarning, 0)
		return
	}
	names := make([]string, len(ui.voices))
	for i, v := range ui.voices {
		names[i] = v.Name
	}
	voiceSelect := widget.NewSelect(names, nil)
	voiceSelect.SetSelectedIndex(0)

	form := []*widget.FormItem{widget.NewFormItem("Voice", voiceSelect)}
	dialog.ShowForm("Clone Voice", "Clone", "Cancel", form, func(ok bool) {
		if !ok || voiceSelect.SelectedIndex() < 0 {
			return
		}
		voice := ui.voices[voiceSelect.SelectedIndex()]
		_, err := ui.runner.Submit(func(ctx context.Context) (any, error) {
			return ui.client.StartClone(ctx, voice.ID)
		}, func(result any, err error) {
			if err != nil {
				ui.queue.Enqueue(fmt.Sprintf("Starting clone failed: %v", err), model.SeverityError, 0)
				return
			}
			// The clone invalidates the cached voice list: is_cloned flips
			// when the job completes.
			ui.store.Invalidate(cache.NamespaceVoices, "list")
			ui.trackJob(result.(string), model.JobKindClone, voice.Name)
		})
		if err != nil {
			ui.logger.Error("clone not submitted", "error", err)
		}
	}, ui.window)
}

// trackJob subscribes the jobs panel to a newly started job
func (ui *RootUI) trackJob(jobID string, kind model.JobKind, title string) {
	ui.tracker.Track(jobID, kind, poller.Callbacks{
		OnProgress: func(*model.Job) { ui.refreshJobs() },
		OnDone: func(job *model.Job) {
			ui.refreshJobs()
			if job.Status == model.JobStatusCompleted && kind == model.JobKindGenerate && job.Artifact != nil {
				ui.saveArtifact(title, job.Artifact)
			}
			if job.Status == model.JobStatusCompleted && kind == model.JobKindClone {
				ui.loadVoices(true)
			}
		},
	})
	ui.refreshJobs()
}

// saveArtifact writes generated audio to the output directory off the UI
// thread and optionally reveals it in the file manager
func (ui *RootUI) saveArtifact(title string, artifact *model.Artifact) {
	dir := ui.settings.GetOutputDirectory()
	reveal := ui.settings.GetRevealSavedArtifacts()
	_, err := ui.runner.Submit(func(ctx context.Context) (any, error) {
		return platform.SaveArtifact(dir, title, artifact.Data)
	}, func(result any, err error) {
		if err != nil {
			ui.queue.Enqueue(fmt.Sprintf("Saving audio failed: %v", err), model.SeverityError, 0)
			return
		}
		path := result.(string)
		ui.queue.Enqueue(fmt.Sprintf("Saved %s", path), model.SeverityInfo, 0)
		if reveal {
			if err := platform.OpenFileInManager(path); err != nil {
				ui.logger.Warn("could not reveal artifact", "path", path, "error", err)
			}
		}
	})
	if err != nil {
		ui.logger.Error("artifact save not submitted", "error", err)
	}
}

// refreshJobs rebuilds the jobs panel from the tracker's job table
func (ui *RootUI) refreshJobs() {
	jobs := ui.tracker.Jobs()
	sort.Slice(jobs, func(i, j int) bool { return jobs[i].StartedAt.After(jobs[j].StartedAt) })

	ui.jobsBox.Objects = nil
	for _, job := range jobs {
		ui.jobsBox.Add(ui.jobRow(job))
	}
	ui.jobsBox.Refresh()
}

// jobRow renders one job with its progress and, while active, a cancel
// button
func (ui *RootUI) jobRow(job *model.Job) fyne.CanvasObject {
	label := widget.NewLabel(fmt.Sprintf("%s %s: %s", job.Kind, shortID(job.ID), job.Status))
	progress := widget.NewProgressBar()
	progress.SetValue(float64(job.Progress) / 100)

	if !job.Status.IsActive() {
		return container.NewVBox(label, progress)
	}

	jobID := job.ID
	cancelBtn := widget.NewButtonWithIcon("", theme.CancelIcon(), func() {
		ui.tracker.Cancel(jobID)
		ui.refreshJobs()
	})
	return container.NewVBox(label, container.NewBorder(nil, nil, nil, cancelBtn, progress))
}

// shortID compacts an opaque job id for display
func shortID(id string) string {
	if len(id) <= 8 {
		return id
	}
	return id[:8]
}
