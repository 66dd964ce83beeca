package ui

import (
	"fmt"
	"strconv"
	"time"

	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/widget"

	"github.com/voxstudio/vox-studio/internal/model"
)

// showSettingsDialog opens the application settings form. The backend
// URL and transport options take effect on next start; polling and
// notification options apply to jobs started afterwards.
func (ui *RootUI) showSettingsDialog() {
	backendEntry := widget.NewEntry()
	backendEntry.SetText(ui.settings.GetBackendURL())

	outputEntry := widget.NewEntry()
	outputEntry.SetText(ui.settings.GetOutputDirectory())

	pollEntry := widget.NewEntry()
	pollEntry.SetText(strconv.Itoa(int(ui.settings.GetPollInterval() / time.Millisecond)))

	maxWaitEntry := widget.NewEntry()
	maxWaitEntry.SetText(strconv.Itoa(int(ui.settings.GetJobMaxWait() / time.Minute)))

	retriesEntry := widget.NewEntry()
	retriesEntry.SetText(strconv.Itoa(ui.settings.GetTransportRetries()))

	revealCheck := widget.NewCheck("Reveal saved audio in file manager", nil)
	revealCheck.SetChecked(ui.settings.GetRevealSavedArtifacts())

	form := []*widget.FormItem{
		widget.NewFormItem("Backend URL", backendEntry),
		widget.NewFormItem("Output directory", outputEntry),
		widget.NewFormItem("Poll interval (ms)", pollEntry),
		widget.NewFormItem("Job max wait (min)", maxWaitEntry),
		widget.NewFormItem("Transport retries", retriesEntry),
		widget.NewFormItem("", revealCheck),
	}

	dialog.ShowForm("Settings", "Save", "Cancel", form, func(ok bool) {
		if !ok {
			return
		}
		ui.settings.SetBackendURL(backendEntry.Text)
		ui.settings.SetOutputDirectory(outputEntry.Text)
		ui.settings.SetRevealSavedArtifacts(revealCheck.Checked)

		if ms, err := strconv.Atoi(pollEntry.Text); err == nil {
			ui.settings.SetPollInterval(time.Duration(ms) * time.Millisecond)
		}
		if minutes, err := strconv.Atoi(maxWaitEntry.Text); err == nil {
			ui.settings.SetJobMaxWait(time.Duration(minutes) * time.Minute)
		}
		if n, err := strconv.Atoi(retriesEntry.Text); err == nil {
			ui.settings.SetTransportRetries(n)
		}

		if backendEntry.Text != ui.client.BaseURL() {
			ui.queue.Enqueue(fmt.Sprintf("Backend URL will be used after restart: %s", backendEntry.Text), model.SeverityInfo, 0)
		}
	}, ui.window)
}
