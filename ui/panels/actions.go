package panels

import (
	"errors"
	"fmt"
	"log"
	"path/filepath"

	"syncytia-counter/internal/app"
	"syncytia-counter/internal/groups"
	"syncytia-counter/internal/markers"
	"syncytia-counter/internal/selection"
	"syncytia-counter/ui/dialogs"
	"syncytia-counter/ui/prefs"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/storage"
)

func (cp *ControlPanel) onGroupSelected(id int) {
	if cp.syncing || id < 0 || id >= len(cp.groupIDs) {
		return
	}
	if err := cp.session.SelectGroup(cp.groupIDs[id]); err != nil {
		cp.setStatus(err.Error())
		cp.selectActive()
	}
}

func (cp *ControlPanel) onLinkImage() {
	host, doc := cp.currentImage()
	if host == nil {
		cp.setStatus("There is no open image to link. Use File > Open Image... first.")
		return
	}
	link := func() {
		err := cp.session.LinkImage(host, doc)
		switch {
		case err == nil:
		case errors.Is(err, app.ErrAlreadyLinked):
			cp.setStatus(doc.Title() + " is already linked")
		default:
			cp.showError(err)
		}
	}
	if cp.session.ClearsOnLink() && cp.session.Modified() {
		cp.confirmed(func(ok func()) { dialogs.ConfirmDiscard("clear them", cp.window, ok) }, link)
		return
	}
	link()
}

// LinkImage runs the Link Image action.
func (cp *ControlPanel) LinkImage() { cp.onLinkImage() }

// OpenMarkers runs the Load Markers action.
func (cp *ControlPanel) OpenMarkers() { cp.onLoadMarkers() }

// SaveMarkers runs the Save Markers action.
func (cp *ControlPanel) SaveMarkers() { cp.onSaveMarkers() }

// ShowResults runs the Results action.
func (cp *ControlPanel) ShowResults() { cp.onResults() }

func (cp *ControlPanel) onAddGroup() {
	g, err := cp.session.AddGroup()
	if err != nil {
		cp.showError(err)
		return
	}
	cp.setStatus(groups.Name(g) + " added; new markers go to it")
}

func (cp *ControlPanel) onClearGroup() {
	g := cp.session.Registry().Active()
	n := cp.session.Counts()[g]
	clearGroup := func() {
		removed, err := cp.session.ClearGroup()
		if err != nil {
			cp.showError(err)
			return
		}
		cp.setStatus(fmt.Sprintf("Removed %d markers from %s", removed, groups.Name(g)))
	}
	if n == 0 {
		clearGroup()
		return
	}
	cp.confirmed(func(ok func()) { dialogs.ConfirmClearGroup(groups.Name(g), n, cp.window, ok) }, clearGroup)
}

func (cp *ControlPanel) onClearAll() {
	n := cp.session.Store().Len()
	clearAll := func() {
		if err := cp.session.ClearAll(); err != nil {
			cp.showError(err)
			return
		}
		cp.setStatus(fmt.Sprintf("Removed all %d markers", n))
	}
	if n == 0 {
		clearAll()
		return
	}
	cp.confirmed(func(ok func()) { dialogs.ConfirmClearAll(n, cp.window, ok) }, clearAll)
}

func (cp *ControlPanel) onLoadMarkers() {
	if cp.session.HasMarkers() && cp.session.Modified() {
		cp.confirmed(func(ok func()) { dialogs.ConfirmDiscard("replace them", cp.window, ok) }, cp.chooseMarkersFile)
		return
	}
	cp.chooseMarkersFile()
}

func (cp *ControlPanel) chooseMarkersFile() {
	if cp.window == nil {
		return
	}
	fd := dialog.NewFileOpen(func(reader fyne.URIReadCloser, err error) {
		if err != nil || reader == nil {
			return
		}
		reader.Close()
		path := reader.URI().Path()
		prefs.SaveLastDir(fyne.CurrentApp().Preferences(), path)
		cp.LoadMarkers(path)
	}, cp.window)
	fd.SetFilter(storage.NewExtensionFileFilter([]string{".json"}))
	if loc := prefs.LastDir(fyne.CurrentApp().Preferences()); loc != nil {
		fd.SetLocation(loc)
	}
	fd.Show()
}

// LoadMarkers loads a markers file, reporting failures to the user.
func (cp *ControlPanel) LoadMarkers(path string) {
	err := cp.session.LoadMarkers(path)
	if err == nil {
		return
	}
	var formatErr *markers.FormatError
	if errors.As(err, &formatErr) {
		log.Printf("ControlPanel: rejected %s: %v", path, err)
		cp.showError(fmt.Errorf("%s is not a valid markers file: %w", filepath.Base(path), err))
		return
	}
	cp.showError(err)
}

func (cp *ControlPanel) onSaveMarkers() {
	if !cp.session.HasMarkers() {
		cp.setStatus(app.ErrNothingToSave.Error())
		if cp.window != nil {
			dialog.ShowInformation("Save Markers", "There are no markers, nothing to save.", cp.window)
		}
		return
	}
	if cp.window == nil {
		return
	}
	fd := dialog.NewFileSave(func(writer fyne.URIWriteCloser, err error) {
		if err != nil || writer == nil {
			return
		}
		writer.Close()
		path := writer.URI().Path()
		if filepath.Ext(path) != ".json" {
			path += ".json"
		}
		prefs.SaveLastDir(fyne.CurrentApp().Preferences(), path)
		if err := cp.session.SaveMarkers(path); err != nil {
			cp.showError(err)
		}
	}, cp.window)
	fd.SetFilter(storage.NewExtensionFileFilter([]string{".json"}))
	if def := cp.session.DefaultMarkersPath(); def != "" {
		fd.SetFileName(filepath.Base(def))
		if loc, err := storage.ListerForURI(storage.NewFileURI(filepath.Dir(def))); err == nil {
			fd.SetLocation(loc)
		}
	} else {
		fd.SetFileName("markers.json")
		if loc := prefs.LastDir(fyne.CurrentApp().Preferences()); loc != nil {
			fd.SetLocation(loc)
		}
	}
	fd.Show()
}

func (cp *ControlPanel) onResults() {
	rows := cp.session.Results()
	cp.setStatus(dialogs.Summary(rows))
	if cp.window == nil {
		return
	}
	title := ""
	if doc := cp.session.Image(); doc != nil {
		title = doc.Title()
	}
	dlg := dialogs.NewResultsDialog(rows, title, cp.window)
	dlg.OnExported(func(uri fyne.URI) {
		cp.setStatus("Results exported to " + uri.Path())
	})
	dlg.Show()
}

// confirmed runs action directly when confirmations are off or there is no
// window to ask in, and otherwise only after ask calls back.
func (cp *ControlPanel) confirmed(ask func(ok func()), action func()) {
	if !cp.confirm || cp.window == nil {
		action()
		return
	}
	ask(action)
}

func (cp *ControlPanel) showError(err error) {
	if errors.Is(err, selection.ErrHostUnavailable) {
		cp.refreshControls()
	}
	cp.setStatus(err.Error())
	if cp.window != nil {
		dialog.ShowError(err, cp.window)
	}
}
