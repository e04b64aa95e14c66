package selection

import (
	"fmt"

	"syncytia-counter/pkg/geometry"
)

// MemoryHost is a Host that keeps its points in memory. It backs headless
// sessions and tests; the gesture methods mimic what a canvas does on click,
// drag and modifier-click.
type MemoryHost struct {
	points  []Point
	style   Style
	closed  bool
	handler func(Event)
}

// NewMemoryHost creates an empty, open host.
func NewMemoryHost() *MemoryHost {
	return &MemoryHost{style: DefaultDisplayOptions().Style()}
}

func (h *MemoryHost) Len() int { return len(h.points) }

func (h *MemoryHost) Points() []Point {
	return append([]Point(nil), h.points...)
}

func (h *MemoryHost) Append(p Point) {
	h.points = append(h.points, p)
}

func (h *MemoryHost) Move(i int, pos geometry.Point2D) error {
	if err := h.check(i); err != nil {
		return err
	}
	h.points[i].Position = pos
	return nil
}

func (h *MemoryHost) Delete(i int) error {
	if err := h.check(i); err != nil {
		return err
	}
	h.points = append(h.points[:i], h.points[i+1:]...)
	return nil
}

func (h *MemoryHost) SetTag(i int, tag Tag) error {
	if err := h.check(i); err != nil {
		return err
	}
	h.points[i].Tag = tag
	return nil
}

func (h *MemoryHost) Clear() { h.points = nil }

func (h *MemoryHost) SetStyle(style Style) { h.style = style }

// Style returns the style last set.
func (h *MemoryHost) Style() Style { return h.style }

func (h *MemoryHost) SetEditHandler(handler func(Event)) { h.handler = handler }

func (h *MemoryHost) Closed() bool { return h.closed }

// Close simulates the user closing the image window.
func (h *MemoryHost) Close() { h.closed = true }

// Click appends a point as a left click on the canvas would.
func (h *MemoryHost) Click(pos geometry.Point2D) {
	h.points = append(h.points, Point{Position: pos})
	h.emit(Event{Kind: EventAdded, Index: len(h.points) - 1, Position: pos})
}

// Drag moves point i as a drag on the canvas would.
func (h *MemoryHost) Drag(i int, pos geometry.Point2D) error {
	if err := h.Move(i, pos); err != nil {
		return err
	}
	h.emit(Event{Kind: EventMoved, Index: i, Position: pos})
	return nil
}

// ModifierClick deletes point i as a ctrl-click on the canvas would.
func (h *MemoryHost) ModifierClick(i int) error {
	if err := h.check(i); err != nil {
		return err
	}
	pos := h.points[i].Position
	if err := h.Delete(i); err != nil {
		return err
	}
	h.emit(Event{Kind: EventRemoved, Index: i, Position: pos})
	return nil
}

func (h *MemoryHost) emit(ev Event) {
	if h.handler != nil {
		h.handler(ev)
	}
}

func (h *MemoryHost) check(i int) error {
	if i < 0 || i >= len(h.points) {
		return fmt.Errorf("point %d out of range (have %d)", i, len(h.points))
	}
	return nil
}

var _ Host = (*MemoryHost)(nil)
