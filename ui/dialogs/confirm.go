package dialogs

import (
	"fmt"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/dialog"
)

// ConfirmClearAll asks before removing every marker.
func ConfirmClearAll(count int, window fyne.Window, onConfirm func()) {
	dialog.ShowConfirm("Clear All",
		fmt.Sprintf("Remove all %d markers? Syncytia stay allocated.", count),
		func(ok bool) {
			if ok {
				onConfirm()
			}
		}, window)
}

// ConfirmClearGroup asks before removing every marker of one group.
func ConfirmClearGroup(name string, count int, window fyne.Window, onConfirm func()) {
	dialog.ShowConfirm("Clear "+name,
		fmt.Sprintf("Remove the %d markers of %s?", count, name),
		func(ok bool) {
			if ok {
				onConfirm()
			}
		}, window)
}

// ConfirmDiscard asks before an action replaces markers that were never
// saved. action completes the sentence "... will <action>".
func ConfirmDiscard(action string, window fyne.Window, onConfirm func()) {
	dialog.ShowConfirm("Unsaved Markers",
		fmt.Sprintf("The current markers have not been saved.\nContinuing will %s.", action),
		func(ok bool) {
			if ok {
				onConfirm()
			}
		}, window)
}
