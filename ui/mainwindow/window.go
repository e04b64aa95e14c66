// Package mainwindow provides the main application window.
package mainwindow

import (
	"fmt"
	"log"

	"syncytia-counter/internal/app"
	"syncytia-counter/internal/image"
	"syncytia-counter/internal/selection"
	"syncytia-counter/internal/version"
	"syncytia-counter/ui/dialogs"
	"syncytia-counter/ui/panels"
	"syncytia-counter/ui/prefs"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/storage"
)

// MainWindow is the counter window: the control panel plus the menus that
// open images and act on the current one.
type MainWindow struct {
	fyne.Window
	app     fyne.App
	session *app.Session
	prefs   *prefs.Prefs
	panel   *panels.ControlPanel

	// Open image windows, oldest first.
	images []*ImageWindow
}

// New creates a new main window.
func New(fyneApp fyne.App, session *app.Session, p *prefs.Prefs) *MainWindow {
	win := fyneApp.NewWindow("Syncytia Counter")

	mw := &MainWindow{
		Window:  win,
		app:     fyneApp,
		session: session,
		prefs:   p,
	}

	mw.setupUI()
	mw.setupMenus()
	mw.setupEventHandlers()

	mw.SetMaster()
	mw.SetCloseIntercept(mw.onQuit)
	mw.Resize(fyne.NewSize(360, 640))

	return mw
}

// setupUI creates the main UI layout.
func (mw *MainWindow) setupUI() {
	mw.panel = panels.NewControlPanel(mw.session, mw.prefs, mw.currentImage)
	mw.panel.SetWindow(mw.Window)
	mw.SetContent(mw.panel.Container())
}

// setupMenus creates the application menus.
func (mw *MainWindow) setupMenus() {
	quitItem := fyne.NewMenuItem("Quit", mw.onQuit)
	quitItem.IsQuit = true

	fileMenu := fyne.NewMenu("File",
		fyne.NewMenuItem("Open Image...", mw.onOpenImage),
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem("Load Markers...", mw.panel.OpenMarkers),
		fyne.NewMenuItem("Save Markers...", mw.panel.SaveMarkers),
		fyne.NewMenuItemSeparator(),
		quitItem,
	)

	counterMenu := fyne.NewMenu("Counter",
		fyne.NewMenuItem("Link Image", mw.panel.LinkImage),
		fyne.NewMenuItem("Results", mw.panel.ShowResults),
	)

	viewMenu := fyne.NewMenu("View",
		fyne.NewMenuItem("Zoom In", mw.onView((*ImageWindow).ZoomIn)),
		fyne.NewMenuItem("Zoom Out", mw.onView((*ImageWindow).ZoomOut)),
		fyne.NewMenuItem("Fit to Window", mw.onView((*ImageWindow).ToggleFit)),
		fyne.NewMenuItem("Actual Size", mw.onView((*ImageWindow).ActualSize)),
	)

	helpMenu := fyne.NewMenu("Help",
		fyne.NewMenuItem("About", mw.onAbout),
	)

	mw.SetMainMenu(fyne.NewMainMenu(fileMenu, counterMenu, viewMenu, helpMenu))
}

// setupEventHandlers registers for session events.
func (mw *MainWindow) setupEventHandlers() {
	mw.session.On(app.EventImageLinked, func(data interface{}) {
		if doc, ok := data.(*image.Document); ok {
			mw.SetTitle("Syncytia Counter - " + doc.Title())
		}
	})
	mw.session.On(app.EventImageClosed, func(_ interface{}) {
		mw.SetTitle("Syncytia Counter")
	})
}

// OpenImage loads an image file into a new image window.
func (mw *MainWindow) OpenImage(path string) error {
	doc, err := image.Load(path)
	if err != nil {
		return err
	}
	log.Printf("MainWindow: opened %s (%dx%d)", doc.Title(), doc.Width(), doc.Height())

	iw := NewImageWindow(mw.app, doc, mw.onImageClosed)
	mw.images = append(mw.images, iw)
	iw.Show()
	return nil
}

// CurrentImageWindow returns the most recently opened image window that is
// still open, or nil.
func (mw *MainWindow) CurrentImageWindow() *ImageWindow {
	for i := len(mw.images) - 1; i >= 0; i-- {
		if !mw.images[i].Closed() {
			return mw.images[i]
		}
	}
	return nil
}

func (mw *MainWindow) currentImage() (selection.Host, *image.Document) {
	iw := mw.CurrentImageWindow()
	if iw == nil {
		return nil, nil
	}
	return iw.ImageCanvas().Layer(), iw.Document()
}

func (mw *MainWindow) onImageClosed(iw *ImageWindow) {
	for i, w := range mw.images {
		if w == iw {
			mw.images = append(mw.images[:i], mw.images[i+1:]...)
			break
		}
	}
	// Let the session notice right away rather than on the next command.
	mw.session.CheckHost()
}

func (mw *MainWindow) onView(action func(*ImageWindow)) func() {
	return func() {
		if iw := mw.CurrentImageWindow(); iw != nil {
			action(iw)
		}
	}
}

func (mw *MainWindow) onOpenImage() {
	fd := dialog.NewFileOpen(func(reader fyne.URIReadCloser, err error) {
		if err != nil || reader == nil {
			return
		}
		reader.Close()
		path := reader.URI().Path()
		prefs.SaveLastDir(mw.app.Preferences(), path)
		if err := mw.OpenImage(path); err != nil {
			dialog.ShowError(err, mw.Window)
		}
	}, mw.Window)

	fd.SetFilter(storage.NewExtensionFileFilter(image.SupportedFormats()))
	if loc := prefs.LastDir(mw.app.Preferences()); loc != nil {
		fd.SetLocation(loc)
	}
	fd.Show()
}

func (mw *MainWindow) onQuit() {
	quit := func() {
		if err := mw.prefs.SaveIfChanged(); err != nil {
			log.Printf("MainWindow: saving preferences: %v", err)
		}
		mw.app.Quit()
	}
	if mw.session.HasMarkers() && mw.session.Modified() {
		dialogs.ConfirmDiscard("discard them", mw.Window, quit)
		return
	}
	quit()
}

func (mw *MainWindow) onAbout() {
	dialog.ShowInformation("About Syncytia Counter",
		fmt.Sprintf("Syncytia Counter v%s\n\n"+
			"Counts single cells and syncytia on microscope images.\n\n"+
			"Built: %s\n"+
			"Commit: %s",
			version.Version, version.BuildTime, version.GitCommit),
		mw.Window)
}
