package mainwindow

import (
	"fmt"
	"log"

	"syncytia-counter/internal/image"
	"syncytia-counter/ui/canvas"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"
)

// ImageWindow shows one opened image. Its canvas is the point selection a
// session links to.
type ImageWindow struct {
	fyne.Window
	doc    *image.Document
	canvas *canvas.ImageCanvas

	zoomLabel *widget.Label
	fitButton *widget.Button
	closed    bool
}

// NewImageWindow creates a window for a loaded image. onClosed runs after
// the user closes it.
func NewImageWindow(fyneApp fyne.App, doc *image.Document, onClosed func(*ImageWindow)) *ImageWindow {
	iw := &ImageWindow{
		Window: fyneApp.NewWindow(doc.Title()),
		doc:    doc,
		canvas: canvas.NewImageCanvas(),
	}
	iw.canvas.SetImage(doc.Image)

	iw.zoomLabel = widget.NewLabel("100%")
	iw.canvas.OnZoomChange(func(zoom float64) {
		iw.zoomLabel.SetText(fmt.Sprintf("%.0f%%", zoom*100))
	})

	iw.SetContent(container.NewBorder(iw.createToolbar(), nil, nil, nil, iw.canvas))
	iw.Resize(initialSize(doc))

	iw.SetOnClosed(func() {
		iw.closed = true
		iw.canvas.MarkClosed()
		log.Printf("ImageWindow: closed %s", doc.Title())
		if onClosed != nil {
			onClosed(iw)
		}
	})
	return iw
}

// createToolbar creates the toolbar with zoom controls.
func (iw *ImageWindow) createToolbar() fyne.CanvasObject {
	zoomOutBtn := widget.NewButton("-", iw.ZoomOut)
	zoomInBtn := widget.NewButton("+", iw.ZoomIn)
	iw.fitButton = widget.NewButton("Fit", iw.ToggleFit)
	actualBtn := widget.NewButton("1:1", iw.ActualSize)

	return container.NewHBox(
		widget.NewLabel("Zoom:"),
		zoomOutBtn,
		zoomInBtn,
		iw.fitButton,
		actualBtn,
		iw.zoomLabel,
		widget.NewLabel(iw.doc.Resolution()),
	)
}

// Document returns the image shown in the window.
func (iw *ImageWindow) Document() *image.Document { return iw.doc }

// ImageCanvas returns the canvas showing the image and its markers.
func (iw *ImageWindow) ImageCanvas() *canvas.ImageCanvas { return iw.canvas }

// Closed reports whether the user closed the window.
func (iw *ImageWindow) Closed() bool { return iw.closed }

// ZoomIn increases the zoom level.
func (iw *ImageWindow) ZoomIn() {
	iw.setFit(false)
	iw.canvas.ZoomIn()
}

// ZoomOut decreases the zoom level.
func (iw *ImageWindow) ZoomOut() {
	iw.setFit(false)
	iw.canvas.ZoomOut()
}

// ActualSize shows the image at 1:1.
func (iw *ImageWindow) ActualSize() {
	iw.setFit(false)
	iw.canvas.SetZoom(1.0)
}

// ToggleFit switches fit-to-window on or off.
func (iw *ImageWindow) ToggleFit() {
	iw.setFit(iw.fitButton.Importance != widget.HighImportance)
}

func (iw *ImageWindow) setFit(fit bool) {
	iw.canvas.SetFitToWindow(fit)
	if fit {
		iw.fitButton.Importance = widget.HighImportance
	} else {
		iw.fitButton.Importance = widget.MediumImportance
	}
	iw.fitButton.Refresh()
}

// initialSize picks a window size that shows the image at 1:1 when it fits
// on a typical screen.
func initialSize(doc *image.Document) fyne.Size {
	const maxW, maxH = 1200, 900
	w, h := float32(doc.Width()), float32(doc.Height()+48)
	if w < 320 {
		w = 320
	}
	if h < 240 {
		h = 240
	}
	if w > maxW {
		w = maxW
	}
	if h > maxH {
		h = maxH
	}
	return fyne.NewSize(w, h)
}
