// Package panels provides UI panels for the application.
package panels

import (
	"fmt"
	"strconv"

	"syncytia-counter/internal/app"
	"syncytia-counter/internal/groups"
	"syncytia-counter/internal/image"
	"syncytia-counter/internal/selection"
	"syncytia-counter/ui/prefs"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/layout"
	"fyne.io/fyne/v2/widget"
)

// ImageSource returns the image Link Image binds to, or a nil host when no
// image window is open.
type ImageSource func() (selection.Host, *image.Document)

// ControlPanel holds the syncytia list and the counter actions.
type ControlPanel struct {
	session   *app.Session
	prefs     *prefs.Prefs
	window    fyne.Window
	container fyne.CanvasObject

	currentImage ImageSource
	confirm      bool

	// Syncytia list
	groupList *widget.List
	groupIDs  []int
	counts    map[int]int

	// Actions
	linkButton       *widget.Button
	addGroupButton   *widget.Button
	clearGroupButton *widget.Button
	clearAllButton   *widget.Button
	loadButton       *widget.Button
	showNumbersCheck *widget.Check
	hideMarkersCheck *widget.Check
	hideSingleCheck  *widget.Check
	sizeSelect       *widget.Select
	shapeSelect      *widget.Select
	resultsButton    *widget.Button
	saveButton       *widget.Button

	controls map[app.Control]fyne.Disableable

	status *widget.Label

	// Set while widgets are updated from session state, so their change
	// callbacks don't feed back into the session.
	syncing bool
}

// NewControlPanel creates the control panel for a session.
func NewControlPanel(session *app.Session, p *prefs.Prefs, currentImage ImageSource) *ControlPanel {
	cp := &ControlPanel{
		session:      session,
		prefs:        p,
		currentImage: currentImage,
		confirm:      p.Bool(prefs.KeyConfirmDestructive, true),
		counts:       session.Counts(),
	}

	cp.status = widget.NewLabel("")
	cp.status.Wrapping = fyne.TextWrapWord

	cp.groupIDs = session.Registry().Groups()
	cp.groupList = widget.NewList(
		func() int { return len(cp.groupIDs) },
		func() fyne.CanvasObject {
			return container.NewHBox(widget.NewLabel("Syncytium 000"), layout.NewSpacer(), widget.NewLabel("0000"))
		},
		func(id widget.ListItemID, obj fyne.CanvasObject) {
			row := obj.(*fyne.Container)
			g := cp.groupIDs[id]
			row.Objects[0].(*widget.Label).SetText(groups.Name(g))
			row.Objects[2].(*widget.Label).SetText(strconv.Itoa(cp.counts[g]))
		},
	)
	cp.groupList.OnSelected = cp.onGroupSelected

	cp.linkButton = widget.NewButton("Link Image", cp.onLinkImage)
	cp.addGroupButton = widget.NewButton("Add Syncytium", cp.onAddGroup)
	cp.clearGroupButton = widget.NewButton("Clear This Syncytium", cp.onClearGroup)
	cp.clearAllButton = widget.NewButton("Clear All", cp.onClearAll)
	cp.loadButton = widget.NewButton("Load Markers", cp.onLoadMarkers)
	cp.resultsButton = widget.NewButton("Results", cp.onResults)
	cp.saveButton = widget.NewButton("Save Markers", cp.onSaveMarkers)

	cp.showNumbersCheck = widget.NewCheck("Show Numbers", func(on bool) {
		cp.applyDisplay(func() error { return session.SetShowNumbers(on) })
	})
	cp.hideMarkersCheck = widget.NewCheck("Hide Markers", func(on bool) {
		cp.applyDisplay(func() error { return session.SetHideMarkers(on) })
	})
	cp.hideSingleCheck = widget.NewCheck("Hide Single Cells", func(on bool) {
		cp.applyDisplay(func() error { return session.SetHideSingleCells(on) })
	})
	cp.sizeSelect = widget.NewSelect(selection.MarkerSizeNames(), func(name string) {
		size, err := selection.ParseMarkerSize(name)
		if err != nil {
			return
		}
		cp.applyDisplay(func() error { return session.SetMarkerSize(size) })
	})
	cp.shapeSelect = widget.NewSelect(selection.MarkerShapeNames(), func(name string) {
		shape, err := selection.ParseMarkerShape(name)
		if err != nil {
			return
		}
		cp.applyDisplay(func() error { return session.SetMarkerShape(shape) })
	})

	cp.controls = map[app.Control]fyne.Disableable{
		app.ControlLinkImage:       cp.linkButton,
		app.ControlAddGroup:        cp.addGroupButton,
		app.ControlClearGroup:      cp.clearGroupButton,
		app.ControlClearAll:        cp.clearAllButton,
		app.ControlLoadMarkers:     cp.loadButton,
		app.ControlShowNumbers:     cp.showNumbersCheck,
		app.ControlHideMarkers:     cp.hideMarkersCheck,
		app.ControlHideSingleCells: cp.hideSingleCheck,
		app.ControlMarkerSize:      cp.sizeSelect,
		app.ControlMarkerShape:     cp.shapeSelect,
		app.ControlResults:         cp.resultsButton,
		app.ControlSaveMarkers:     cp.saveButton,
	}

	displayForm := widget.NewForm(
		widget.NewFormItem("Marker Size", cp.sizeSelect),
		widget.NewFormItem("Marker Shape", cp.shapeSelect),
	)

	cp.container = container.NewBorder(
		nil,
		widget.NewCard("", "", cp.status),
		nil, nil,
		container.NewGridWithRows(2,
			widget.NewCard("Syncytia", "", cp.groupList),
			widget.NewCard("Actions", "", container.NewVScroll(container.NewVBox(
				cp.linkButton,
				container.NewGridWithColumns(2, cp.addGroupButton, cp.clearGroupButton),
				cp.clearAllButton,
				widget.NewSeparator(),
				cp.showNumbersCheck,
				cp.hideMarkersCheck,
				cp.hideSingleCheck,
				displayForm,
				widget.NewSeparator(),
				container.NewGridWithColumns(3, cp.loadButton, cp.resultsButton, cp.saveButton),
			))),
		),
	)

	cp.registerEvents()
	cp.syncDisplay(session.Display())
	cp.refreshControls()
	cp.refreshGroups()
	cp.setStatus(cp.modeStatus(session.Mode()))

	return cp
}

// Container returns the panel container.
func (cp *ControlPanel) Container() fyne.CanvasObject {
	return cp.container
}

// SetWindow sets the parent window for dialogs.
func (cp *ControlPanel) SetWindow(w fyne.Window) {
	cp.window = w
}

// SetConfirmDestructive turns the confirmation prompts for Clear, Load and
// relinking over unsaved markers on or off.
func (cp *ControlPanel) SetConfirmDestructive(on bool) {
	cp.confirm = on
}

// Status returns the status line text.
func (cp *ControlPanel) Status() string {
	return cp.status.Text
}

func (cp *ControlPanel) registerEvents() {
	s := cp.session

	s.On(app.EventModeChanged, func(data interface{}) {
		cp.refreshControls()
		if m, ok := data.(app.Mode); ok {
			cp.setStatus(cp.modeStatus(m))
		}
	})
	s.On(app.EventImageLinked, func(data interface{}) {
		if doc, ok := data.(*image.Document); ok {
			cp.setStatus("Linked to " + doc.Describe())
		}
	})
	s.On(app.EventImageClosed, func(_ interface{}) {
		cp.setStatus(fmt.Sprintf("The linked image was closed. %d markers are kept; save them or link another image.",
			s.Store().Len()))
	})
	s.On(app.EventGroupsChanged, func(_ interface{}) {
		cp.refreshGroups()
	})
	s.On(app.EventActiveGroupChanged, func(_ interface{}) {
		cp.selectActive()
	})
	s.On(app.EventMarkersChanged, func(_ interface{}) {
		cp.refreshCounts()
	})
	s.On(app.EventMarkersLoaded, func(data interface{}) {
		cp.setStatus(fmt.Sprintf("Loaded %d markers from %v", s.Store().Len(), data))
	})
	s.On(app.EventMarkersSaved, func(data interface{}) {
		cp.setStatus(fmt.Sprintf("Saved %d markers to %v", s.Store().Len(), data))
	})
	s.On(app.EventDisplayChanged, func(data interface{}) {
		if d, ok := data.(selection.DisplayOptions); ok {
			cp.syncDisplay(d)
			cp.prefs.RememberDisplay(d)
		}
	})
	s.On(app.EventSyncWarning, func(data interface{}) {
		cp.setStatus(fmt.Sprintf("Markers were out of step with the image and have been redrawn (%v)", data))
	})
}

// refreshControls enables exactly the controls the session allows.
func (cp *ControlPanel) refreshControls() {
	for c, w := range cp.controls {
		if cp.session.Enabled(c) {
			w.Enable()
		} else {
			w.Disable()
		}
	}
}

func (cp *ControlPanel) refreshGroups() {
	cp.groupIDs = cp.session.Registry().Groups()
	cp.refreshCounts()
	cp.selectActive()
}

func (cp *ControlPanel) refreshCounts() {
	cp.counts = cp.session.Counts()
	cp.groupList.Refresh()
}

func (cp *ControlPanel) selectActive() {
	active := cp.session.Registry().Active()
	for i, g := range cp.groupIDs {
		if g == active {
			cp.syncing = true
			cp.groupList.Select(i)
			cp.syncing = false
			return
		}
	}
}

func (cp *ControlPanel) syncDisplay(d selection.DisplayOptions) {
	cp.syncing = true
	defer func() { cp.syncing = false }()
	cp.showNumbersCheck.SetChecked(d.ShowNumbers)
	cp.hideMarkersCheck.SetChecked(d.HideMarkers)
	cp.hideSingleCheck.SetChecked(d.HideSingleCells)
	cp.sizeSelect.SetSelected(d.Size.String())
	cp.shapeSelect.SetSelected(d.Shape.String())
}

func (cp *ControlPanel) applyDisplay(apply func() error) {
	if cp.syncing {
		return
	}
	if err := apply(); err != nil {
		cp.showError(err)
	}
}

func (cp *ControlPanel) setStatus(text string) {
	cp.status.SetText(text)
}

func (cp *ControlPanel) modeStatus(m app.Mode) string {
	switch m {
	case app.ModeActive:
		if doc := cp.session.Image(); doc != nil {
			return "Counting on " + doc.Title()
		}
		return "Counting"
	case app.ModeLinked:
		return fmt.Sprintf("%d markers held, no image linked. Open an image and press Link Image to edit them.",
			cp.session.Store().Len())
	default:
		return "Open an image and press Link Image to start counting."
	}
}
