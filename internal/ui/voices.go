package ui

import (
	"context"
	"fmt"

	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/widget"

	"github.com/voxstudio/vox-studio/internal/cache"
	"github.com/voxstudio/vox-studio/internal/model"
)

// addVoice creates a voice profile from a recorded audio file
func (ui *RootUI) addVoice() {
	nameEntry := widget.NewEntry()
	nameEntry.SetPlaceHolder("Voice name")
	pathEntry := widget.NewEntry()
	pathEntry.SetPlaceHolder("/path/to/sample.wav")
	descEntry := widget.NewEntry()
	descEntry.SetPlaceHolder("Optional description")

	form := []*widget.FormItem{
		widget.NewFormItem("Name", nameEntry),
		widget.NewFormItem("Audio file", pathEntry),
		widget.NewFormItem("Description", descEntry),
	}

	dialog.ShowForm("Add Voice", "Add", "Cancel", form, func(ok bool) {
		if !ok || nameEntry.Text == "" || pathEntry.Text == "" {
			return
		}
		name, path, desc := nameEntry.Text, pathEntry.Text, descEntry.Text

		_, err := ui.runner.Submit(func(ctx context.Context) (any, error) {
			return ui.client.CreateVoice(ctx, name, path, desc)
		}, func(result any, err error) {
			if err != nil {
				ui.queue.Enqueue(fmt.Sprintf("Adding voice failed: %v", err), model.SeverityError, 0)
				return
			}
			voice := result.(*model.VoiceProfile)
			ui.store.InvalidateNamespace(cache.NamespaceVoices)
			ui.queue.Enqueue(fmt.Sprintf("Added voice %q", voice.Name), model.SeveritySuccess, 0)
			ui.loadVoices(true)
		})
		if err != nil {
			ui.logger.Error("voice create not submitted", "error", err)
		}
	}, ui.window)
}

// manageVoices lets the user rename or delete an existing voice profile
func (ui *RootUI) manageVoices() {
	if len(ui.voices) == 0 {
		ui.queue.Enqueue("No voice profiles yet", model.SeverityWarning, 0)
		return
	}
	names := make([]string, len(ui.voices))
	for i, v := range ui.voices {
		names[i] = v.Name
	}
	voiceSelect := widget.NewSelect(names, nil)
	voiceSelect.SetSelectedIndex(0)
	nameEntry := widget.NewEntry()
	nameEntry.SetPlaceHolder("New name (leave empty to keep)")
	deleteCheck := widget.NewCheck("Delete this voice", nil)

	form := []*widget.FormItem{
		widget.NewFormItem("Voice", voiceSelect),
		widget.NewFormItem("Rename to", nameEntry),
		widget.NewFormItem("", deleteCheck),
	}

	dialog.ShowForm("Manage Voices", "Apply", "Cancel", form, func(ok bool) {
		if !ok || voiceSelect.SelectedIndex() < 0 {
			return
		}
		voice := ui.voices[voiceSelect.SelectedIndex()]

		if deleteCheck.Checked {
			ui.deleteVoice(voice)
			return
		}
		if nameEntry.Text == "" || nameEntry.Text == voice.Name {
			return
		}
		ui.renameVoice(voice, nameEntry.Text)
	}, ui.window)
}

func (ui *RootUI) renameVoice(voice model.VoiceProfile, name string) {
	_, err := ui.runner.Submit(func(ctx context.Context) (any, error) {
		return ui.client.UpdateVoice(ctx, voice.ID, name, voice.Description)
	}, func(result any, err error) {
		if err != nil {
			ui.queue.Enqueue(fmt.Sprintf("Renaming voice failed: %v", err), model.SeverityError, 0)
			return
		}
		ui.store.InvalidateNamespace(cache.NamespaceVoices)
		ui.loadVoices(true)
	})
	if err != nil {
		ui.logger.Error("voice rename not submitted", "error", err)
	}
}

func (ui *RootUI) deleteVoice(voice model.VoiceProfile) {
	dialog.ShowConfirm("Delete Voice", fmt.Sprintf("Delete %q for good?", voice.Name), func(ok bool) {
		if !ok {
			return
		}
		_, err := ui.runner.Submit(func(ctx context.Context) (any, error) {
			return nil, ui.client.DeleteVoice(ctx, voice.ID)
		}, func(_ any, err error) {
			if err != nil {
				ui.queue.Enqueue(fmt.Sprintf("Deleting voice failed: %v", err), model.SeverityError, 0)
				return
			}
			ui.store.InvalidateNamespace(cache.NamespaceVoices)
			ui.queue.Enqueue(fmt.Sprintf("Deleted voice %q", voice.Name), model.SeverityInfo, 0)
			ui.loadVoices(true)
		})
		if err != nil {
			ui.logger.Error("voice delete not submitted", "error", err)
		}
	}, ui.window)
}
