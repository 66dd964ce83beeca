package ui

import (
	"context"
	"fmt"

	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/widget"

	"github.com/voxstudio/vox-studio/internal/cache"
	"github.com/voxstudio/vox-studio/internal/config"
	"github.com/voxstudio/vox-studio/internal/model"
)

var scriptTypes = []string{"general", "podcast", "narration", "advertisement"}

// draftScript asks the backend LLM for script content and stores the
// result as a new script
func (ui *RootUI) draftScript() {
	ui.loadModels(func(models []string) {
		titleEntry := widget.NewEntry()
		titleEntry.SetPlaceHolder("Script title")
		promptEntry := widget.NewMultiLineEntry()
		promptEntry.SetPlaceHolder("What should the script be about?")
		typeSelect := widget.NewSelect(scriptTypes, nil)
		typeSelect.SetSelectedIndex(0)
		modelSelect := widget.NewSelect(models, nil)
		if len(models) > 0 {
			modelSelect.SetSelectedIndex(0)
		}

		form := []*widget.FormItem{
			widget.NewFormItem("Title", titleEntry),
			widget.NewFormItem("Type", typeSelect),
			widget.NewFormItem("Model", modelSelect),
			widget.NewFormItem("Prompt", promptEntry),
		}

		dialog.ShowForm("Draft Script", "Draft", "Cancel", form, func(ok bool) {
			if !ok || promptEntry.Text == "" {
				return
			}
			title := titleEntry.Text
			if title == "" {
				title = "Untitled draft"
			}
			prompt := promptEntry.Text
			scriptType := typeSelect.Selected
			modelName := modelSelect.Selected

			_, err := ui.runner.Submit(func(ctx context.Context) (any, error) {
				content, err := ui.client.GenerateText(ctx, prompt, scriptType, modelName)
				if err != nil {
					return nil, err
				}
				return ui.client.CreateScript(ctx, title, content)
			}, func(result any, err error) {
				if err != nil {
					ui.queue.Enqueue(fmt.Sprintf("Drafting script failed: %v", err), model.SeverityError, 0)
					return
				}
				script := result.(*model.Script)
				ui.store.Invalidate(cache.NamespaceScripts, "list")
				ui.queue.Enqueue(fmt.Sprintf("Drafted %q", script.Title), model.SeveritySuccess, 0)
				ui.loadScripts(true)
			})
			if err != nil {
				ui.logger.Error("draft not submitted", "error", err)
			}
		}, ui.window)
	})
}

// improveScript reworks the selected script through the backend LLM
func (ui *RootUI) improveScript() {
	if ui.selectedScript < 0 || ui.selectedScript >= len(ui.scripts) {
		ui.queue.Enqueue("Select a script first", model.SeverityWarning, 0)
		return
	}
	script := ui.scripts[ui.selectedScript]

	instructionsEntry := widget.NewMultiLineEntry()
	instructionsEntry.SetPlaceHolder("e.g. make it shorter and more conversational")

	form := []*widget.FormItem{widget.NewFormItem("Instructions", instructionsEntry)}
	dialog.ShowForm("Improve Script", "Improve", "Cancel", form, func(ok bool) {
		if !ok || instructionsEntry.Text == "" {
			return
		}
		instructions := instructionsEntry.Text

		_, err := ui.runner.Submit(func(ctx context.Context) (any, error) {
			// The cached list may be stale, work from the stored content.
			fresh, err := ui.client.GetScript(ctx, script.ID)
			if err != nil {
				return nil, err
			}
			improved, err := ui.client.ImproveText(ctx, fresh.Content, instructions)
			if err != nil {
				return nil, err
			}
			return ui.client.UpdateScript(ctx, fresh.ID, fresh.Title, improved)
		}, func(result any, err error) {
			if err != nil {
				ui.queue.Enqueue(fmt.Sprintf("Improving script failed: %v", err), model.SeverityError, 0)
				return
			}
			updated := result.(*model.Script)
			ui.store.Invalidate(cache.NamespaceScripts, "list")
			ui.queue.Enqueue(fmt.Sprintf("Improved %q", updated.Title), model.SeveritySuccess, 0)
			ui.loadScripts(true)
		})
		if err != nil {
			ui.logger.Error("improve not submitted", "error", err)
		}
	}, ui.window)
}

// loadModels fetches the LLM model list, cached so repeated dialog
// opens do not hit the backend
func (ui *RootUI) loadModels(onLoaded func(models []string)) {
	if v, ok := ui.store.Get(cache.NamespaceModels, "list"); ok {
		onLoaded(v.([]string))
		return
	}
	_, err := ui.runner.Submit(func(ctx context.Context) (any, error) {
		return ui.client.ListModels(ctx)
	}, func(result any, err error) {
		if err != nil {
			ui.queue.Enqueue(fmt.Sprintf("Loading models failed: %v", err), model.SeverityError, 0)
			return
		}
		models := result.([]string)
		ui.store.Set(cache.NamespaceModels, "list", models, config.ModelCacheTTL)
		onLoaded(models)
	})
	if err != nil {
		ui.logger.Error("model load not submitted", "error", err)
	}
}
