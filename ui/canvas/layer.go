package canvas

import (
	"fmt"
	"sync"

	"syncytia-counter/internal/selection"
	"syncytia-counter/pkg/geometry"
)

// PointLayer is the point selection drawn over an ImageCanvas. It implements
// selection.Host. Access is locked since the raster may draw off the UI
// goroutine.
type PointLayer struct {
	mu      sync.Mutex
	points  []selection.Point
	style   selection.Style
	handler func(selection.Event)
	closed  bool

	onChange func()
}

func newPointLayer(onChange func()) *PointLayer {
	return &PointLayer{
		style:    selection.DefaultDisplayOptions().Style(),
		onChange: onChange,
	}
}

func (l *PointLayer) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.points)
}

func (l *PointLayer) Points() []selection.Point {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]selection.Point(nil), l.points...)
}

func (l *PointLayer) Append(p selection.Point) {
	l.mu.Lock()
	l.points = append(l.points, p)
	l.mu.Unlock()
	l.changed()
}

func (l *PointLayer) Move(i int, pos geometry.Point2D) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.check(i); err != nil {
		return err
	}
	l.points[i].Position = pos
	return nil
}

func (l *PointLayer) Delete(i int) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.check(i); err != nil {
		return err
	}
	l.points = append(l.points[:i], l.points[i+1:]...)
	return nil
}

func (l *PointLayer) SetTag(i int, tag selection.Tag) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.check(i); err != nil {
		return err
	}
	l.points[i].Tag = tag
	return nil
}

func (l *PointLayer) Clear() {
	l.mu.Lock()
	l.points = nil
	l.mu.Unlock()
	l.changed()
}

func (l *PointLayer) SetStyle(style selection.Style) {
	l.mu.Lock()
	l.style = style
	l.mu.Unlock()
	l.changed()
}

// Style returns the style last set.
func (l *PointLayer) Style() selection.Style {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.style
}

func (l *PointLayer) SetEditHandler(handler func(selection.Event)) {
	l.mu.Lock()
	l.handler = handler
	l.mu.Unlock()
}

func (l *PointLayer) Closed() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.closed
}

func (l *PointLayer) markClosed() {
	l.mu.Lock()
	l.closed = true
	l.mu.Unlock()
}

// editable reports whether gestures should change points. Nothing is edited
// while markers are hidden, after the window closed, or with no session listening.
func (l *PointLayer) editable() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return !l.closed && l.style.Visible && l.handler != nil
}

// add appends a point the way a click does and returns its index.
func (l *PointLayer) add(pos geometry.Point2D) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.points = append(l.points, selection.Point{Position: pos})
	return len(l.points) - 1
}

// nearest returns the visible point within maxDist of pos, or -1.
func (l *PointLayer) nearest(pos geometry.Point2D, maxDist float64) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	var index []int
	var candidates []geometry.Point2D
	for i, p := range l.points {
		if p.Hidden {
			continue
		}
		index = append(index, i)
		candidates = append(candidates, p.Position)
	}
	j := geometry.Nearest(candidates, pos, maxDist)
	if j < 0 {
		return -1
	}
	return index[j]
}

// snapshot returns the points and style for drawing.
func (l *PointLayer) snapshot() ([]selection.Point, selection.Style) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]selection.Point(nil), l.points...), l.style
}

func (l *PointLayer) emit(ev selection.Event) {
	l.mu.Lock()
	handler := l.handler
	l.mu.Unlock()
	if handler != nil {
		handler(ev)
	}
	l.changed()
}

func (l *PointLayer) changed() {
	if l.onChange != nil {
		l.onChange()
	}
}

// check must be called with mu held.
func (l *PointLayer) check(i int) error {
	if i < 0 || i >= len(l.points) {
		return fmt.Errorf("point %d out of range (have %d)", i, len(l.points))
	}
	return nil
}

var _ selection.Host = (*PointLayer)(nil)
