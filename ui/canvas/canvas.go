// Package canvas provides an image canvas with zoom and a point-selection
// layer that draws, drags and deletes markers.
package canvas

import (
	"image"
	"image/color"

	"syncytia-counter/internal/selection"
	"syncytia-counter/pkg/geometry"

	"fyne.io/fyne/v2"
	fynecanvas "fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/widget"
	xdraw "golang.org/x/image/draw"
)

const (
	minZoom  = 0.1
	maxZoom  = 10.0
	zoomStep = 1.25

	// Extra screen pixels around a marker that still count as hitting it.
	hitSlack = 3.0
)

// ImageCanvas displays one image and the point selection drawn on it.
type ImageCanvas struct {
	widget.BaseWidget

	img    image.Image
	points *PointLayer

	// Display state
	raster *fynecanvas.Raster
	zoom   float64

	// Interaction state
	modifierDown bool // delete modifier held at mouse down
	dragIndex    int  // point being dragged, -1 when none
	dragPos      geometry.Point2D

	// Container
	scroll  *zoomScroll
	content *pointContent
	imgSize fyne.Size

	fitToWindow    bool
	lastScrollSize fyne.Size

	onZoomChange func(zoom float64)
}

// zoomScroll is a widget that wraps a scroll container but intercepts wheel for zoom.
type zoomScroll struct {
	widget.BaseWidget
	scroll *container.Scroll
	canvas *ImageCanvas
}

func newZoomScroll(content fyne.CanvasObject, canvas *ImageCanvas) *zoomScroll {
	scroll := container.NewScroll(content)
	scroll.Direction = container.ScrollBoth
	zs := &zoomScroll{scroll: scroll, canvas: canvas}
	zs.ExtendBaseWidget(zs)
	return zs
}

func (zs *zoomScroll) Scrolled(ev *fyne.ScrollEvent) {
	if ev.Scrolled.DY > 0 {
		zs.canvas.ZoomIn()
	} else if ev.Scrolled.DY < 0 {
		zs.canvas.ZoomOut()
	}
}

func (zs *zoomScroll) CreateRenderer() fyne.WidgetRenderer {
	return widget.NewSimpleRenderer(zs.scroll)
}

// Offset returns the scroll container's current offset.
func (zs *zoomScroll) Offset() fyne.Position {
	return zs.scroll.Offset
}

// Size returns the scroll container's size.
func (zs *zoomScroll) Size() fyne.Size {
	return zs.scroll.Size()
}

func (zs *zoomScroll) Refresh() {
	zs.scroll.Refresh()
	zs.BaseWidget.Refresh()
}

func (zs *zoomScroll) Resize(size fyne.Size) {
	zs.scroll.Resize(size)
	zs.BaseWidget.Resize(size)
}

// pointContent wraps the raster and turns mouse gestures into point edits:
// click adds, drag moves, modifier-click or right-click deletes.
type pointContent struct {
	widget.BaseWidget
	canvas *ImageCanvas
	raster *fynecanvas.Raster
}

func newPointContent(ic *ImageCanvas, raster *fynecanvas.Raster) *pointContent {
	pc := &pointContent{
		canvas: ic,
		raster: raster,
	}
	pc.ExtendBaseWidget(pc)
	return pc
}

func (pc *pointContent) CreateRenderer() fyne.WidgetRenderer {
	return &pointContentRenderer{content: pc}
}

func (pc *pointContent) MinSize() fyne.Size {
	return pc.raster.MinSize()
}

// MouseDown records whether the delete modifier is held for the following tap.
func (pc *pointContent) MouseDown(ev *desktop.MouseEvent) {
	pc.canvas.modifierDown = ev.Modifier&(fyne.KeyModifierControl|fyne.KeyModifierAlt|fyne.KeyModifierSuper) != 0
}

func (pc *pointContent) MouseUp(*desktop.MouseEvent) {}

func (pc *pointContent) Tapped(ev *fyne.PointEvent) {
	if !pc.inside(ev.Position) {
		return
	}
	pos := pc.canvas.toImage(ev.Position)
	if pc.canvas.modifierDown {
		pc.canvas.modifierDown = false
		pc.canvas.DeleteAt(pos)
		return
	}
	pc.canvas.AddAt(pos)
}

func (pc *pointContent) TappedSecondary(ev *fyne.PointEvent) {
	if !pc.inside(ev.Position) {
		return
	}
	pc.canvas.DeleteAt(pc.canvas.toImage(ev.Position))
}

func (pc *pointContent) Dragged(ev *fyne.DragEvent) {
	ic := pc.canvas
	pos := ic.toImage(ev.Position)
	if ic.dragIndex < 0 {
		start := ic.toImage(ev.Position.Subtract(ev.Dragged))
		ic.dragIndex = ic.PointAt(start)
		if ic.dragIndex < 0 {
			return
		}
	}
	ic.dragPos = pos
	if err := ic.points.Move(ic.dragIndex, pos); err != nil {
		ic.dragIndex = -1
		return
	}
	ic.Refresh()
}

func (pc *pointContent) DragEnd() {
	ic := pc.canvas
	i := ic.dragIndex
	ic.dragIndex = -1
	if i < 0 {
		return
	}
	ic.points.emit(selection.Event{Kind: selection.EventMoved, Index: i, Position: ic.dragPos})
}

func (pc *pointContent) Scrolled(ev *fyne.ScrollEvent) {
	if ev.Scrolled.DY > 0 {
		pc.canvas.ZoomIn()
	} else if ev.Scrolled.DY < 0 {
		pc.canvas.ZoomOut()
	}
}

// inside rejects events reported outside the widget bounds.
func (pc *pointContent) inside(p fyne.Position) bool {
	size := pc.Size()
	return p.X >= 0 && p.Y >= 0 && p.X <= size.Width && p.Y <= size.Height
}

type pointContentRenderer struct {
	content *pointContent
}

func (r *pointContentRenderer) Layout(size fyne.Size) {
	r.content.raster.Resize(size)
}

func (r *pointContentRenderer) MinSize() fyne.Size {
	return r.content.raster.MinSize()
}

func (r *pointContentRenderer) Refresh() {
	r.content.raster.Refresh()
}

func (r *pointContentRenderer) Objects() []fyne.CanvasObject {
	return []fyne.CanvasObject{r.content.raster}
}

func (r *pointContentRenderer) Destroy() {}

// NewImageCanvas creates a new image canvas.
func NewImageCanvas() *ImageCanvas {
	ic := &ImageCanvas{
		zoom:      1.0,
		imgSize:   fyne.NewSize(400, 300),
		dragIndex: -1,
	}
	ic.points = newPointLayer(ic.Refresh)

	ic.raster = fynecanvas.NewRaster(ic.draw)
	ic.raster.ScaleMode = fynecanvas.ImageScalePixels
	ic.raster.SetMinSize(ic.imgSize)

	ic.content = newPointContent(ic, ic.raster)
	ic.scroll = newZoomScroll(ic.content, ic)

	ic.ExtendBaseWidget(ic)
	return ic
}

// SetImage sets the image to display.
func (ic *ImageCanvas) SetImage(img image.Image) {
	ic.img = img
	ic.updateContentSize()
}

// Image returns the displayed image.
func (ic *ImageCanvas) Image() image.Image {
	return ic.img
}

// Layer returns the point selection drawn on the canvas.
func (ic *ImageCanvas) Layer() *PointLayer {
	return ic.points
}

// AddAt appends a point at an image position as a click does, then reports it.
func (ic *ImageCanvas) AddAt(pos geometry.Point2D) {
	if !ic.points.editable() || !ic.inImage(pos) {
		return
	}
	i := ic.points.add(pos)
	ic.points.emit(selection.Event{Kind: selection.EventAdded, Index: i, Position: pos})
}

// DeleteAt removes the point under an image position, if any, and reports it.
func (ic *ImageCanvas) DeleteAt(pos geometry.Point2D) {
	i := ic.PointAt(pos)
	if i < 0 {
		return
	}
	removed := ic.points.Points()[i].Position
	if err := ic.points.Delete(i); err != nil {
		return
	}
	ic.points.emit(selection.Event{Kind: selection.EventRemoved, Index: i, Position: removed})
}

// PointAt returns the index of the visible point drawn under an image
// position, or -1. Always -1 while the layer is not editable.
func (ic *ImageCanvas) PointAt(pos geometry.Point2D) int {
	if !ic.points.editable() {
		return -1
	}
	return ic.points.nearest(pos, (ic.points.Style().Size.Radius()+hitSlack)/ic.zoom)
}

func (ic *ImageCanvas) inImage(pos geometry.Point2D) bool {
	if ic.img == nil {
		return false
	}
	b := ic.img.Bounds()
	return pos.X >= 0 && pos.Y >= 0 && pos.X < float64(b.Dx()) && pos.Y < float64(b.Dy())
}

// toImage maps a position on the scrolled content to image pixels. Events on
// the content are already relative to it, so the scroll offset is not added.
func (ic *ImageCanvas) toImage(p fyne.Position) geometry.Point2D {
	return geometry.NewPoint2D(float64(p.X)/ic.zoom, float64(p.Y)/ic.zoom)
}

// SetZoom sets the zoom level.
func (ic *ImageCanvas) SetZoom(zoom float64) {
	if zoom < minZoom {
		zoom = minZoom
	}
	if zoom > maxZoom {
		zoom = maxZoom
	}
	ic.zoom = zoom
	ic.updateContentSize()

	if ic.onZoomChange != nil {
		ic.onZoomChange(zoom)
	}
}

// Zoom returns the current zoom level.
func (ic *ImageCanvas) Zoom() float64 {
	return ic.zoom
}

// ZoomIn increases the zoom level.
func (ic *ImageCanvas) ZoomIn() {
	ic.SetZoom(ic.zoom * zoomStep)
}

// ZoomOut decreases the zoom level.
func (ic *ImageCanvas) ZoomOut() {
	ic.SetZoom(ic.zoom / zoomStep)
}

// FitToWindow adjusts zoom to fit the image in the visible area.
func (ic *ImageCanvas) FitToWindow() {
	if ic.img == nil {
		return
	}
	bounds := ic.img.Bounds()
	viewSize := ic.scroll.Size()
	if bounds.Dx() == 0 || bounds.Dy() == 0 || viewSize.Width <= 0 || viewSize.Height <= 0 {
		return
	}

	zoomX := float64(viewSize.Width) / float64(bounds.Dx())
	zoomY := float64(viewSize.Height) / float64(bounds.Dy())
	zoom := zoomX
	if zoomY < zoomX {
		zoom = zoomY
	}
	ic.SetZoom(zoom * 0.95) // small margin
}

// SetFitToWindow enables or disables auto-fit on resize.
func (ic *ImageCanvas) SetFitToWindow(fit bool) {
	ic.fitToWindow = fit
	if fit {
		ic.FitToWindow()
	}
}

// CheckResize auto-fits when the viewport size changed and fit is enabled.
func (ic *ImageCanvas) CheckResize(size fyne.Size) {
	if !ic.fitToWindow {
		return
	}
	if size.Width > 0 && size.Height > 0 && size != ic.lastScrollSize {
		ic.lastScrollSize = size
		ic.FitToWindow()
	}
}

// OnZoomChange sets a callback for zoom changes.
func (ic *ImageCanvas) OnZoomChange(callback func(zoom float64)) {
	ic.onZoomChange = callback
}

// MarkClosed records that the window showing this canvas has closed.
func (ic *ImageCanvas) MarkClosed() {
	ic.points.markClosed()
}

// Refresh refreshes the canvas display.
func (ic *ImageCanvas) Refresh() {
	ic.raster.Refresh()
}

func (ic *ImageCanvas) updateContentSize() {
	if ic.img == nil || ic.img.Bounds().Empty() {
		ic.imgSize = fyne.NewSize(400, 300)
	} else {
		b := ic.img.Bounds()
		ic.imgSize = fyne.NewSize(float32(float64(b.Dx())*ic.zoom), float32(float64(b.Dy())*ic.zoom))
	}

	ic.raster.SetMinSize(ic.imgSize)
	ic.raster.Resize(ic.imgSize)
	if ic.content != nil {
		ic.content.Resize(ic.imgSize)
		ic.content.Refresh()
	}
	ic.raster.Refresh()
	if ic.scroll != nil {
		ic.scroll.Refresh()
	}
}

// draw is the raster drawing function.
func (ic *ImageCanvas) draw(w, h int) image.Image {
	output := image.NewRGBA(image.Rect(0, 0, w, h))
	xdraw.Draw(output, output.Bounds(), image.NewUniform(color.Black), image.Point{}, xdraw.Src)

	if ic.img != nil {
		b := ic.img.Bounds()
		dst := image.Rect(0, 0, int(float64(b.Dx())*ic.zoom), int(float64(b.Dy())*ic.zoom))
		xdraw.NearestNeighbor.Scale(output, dst, ic.img, b, xdraw.Src, nil)
	}

	points, style := ic.points.snapshot()
	if style.Visible {
		ic.drawPoints(output, points, style)
	}
	return output
}

// CreateRenderer implements fyne.Widget.
func (ic *ImageCanvas) CreateRenderer() fyne.WidgetRenderer {
	return &imageCanvasRenderer{canvas: ic}
}

type imageCanvasRenderer struct {
	canvas *ImageCanvas
}

func (r *imageCanvasRenderer) Layout(size fyne.Size) {
	r.canvas.scroll.Resize(size)
	r.canvas.CheckResize(size)
}

func (r *imageCanvasRenderer) MinSize() fyne.Size {
	return fyne.NewSize(100, 100)
}

func (r *imageCanvasRenderer) Refresh() {
	r.canvas.raster.Refresh()
}

func (r *imageCanvasRenderer) Objects() []fyne.CanvasObject {
	return []fyne.CanvasObject{r.canvas.scroll}
}

func (r *imageCanvasRenderer) Destroy() {}
