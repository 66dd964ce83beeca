package ui

import (
	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"

	"github.com/voxstudio/vox-studio/internal/model"
)

// refreshNotifications re-renders the overlay from the queue's displayed
// set. The queue caps how many are visible; the overlay just draws them,
// newest on top.
func (ui *RootUI) refreshNotifications() {
	ui.notifications.Objects = nil
	for _, n := range ui.queue.Displayed() {
		ui.notifications.Add(ui.notificationCard(n))
	}
	ui.notifications.Refresh()
}

// notificationCard renders one notification with a severity icon and a
// dismiss button
func (ui *RootUI) notificationCard(n *model.Notification) fyne.CanvasObject {
	icon := widget.NewIcon(severityIcon(n.Severity))
	message := widget.NewLabel(n.Message)
	message.Wrapping = fyne.TextWrapWord

	id := n.ID
	dismiss := widget.NewButtonWithIcon("", theme.WindowCloseIcon(), func() {
		ui.queue.Dismiss(id)
	})

	card := container.NewBorder(nil, nil, icon, dismiss, message)
	return widget.NewCard("", "", card)
}

func severityIcon(s model.Severity) fyne.Resource {
	switch s {
	case model.SeveritySuccess:
		return theme.ConfirmIcon()
	case model.SeverityWarning:
		return theme.WarningIcon()
	case model.SeverityError:
		return theme.ErrorIcon()
	default:
		return theme.InfoIcon()
	}
}
