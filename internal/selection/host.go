// Package selection synchronizes the marker store with a host's native
// multi-point selection, the widget that draws, drags and deletes points on
// an image canvas.
package selection

import (
	"errors"
	"fmt"

	"syncytia-counter/pkg/geometry"
)

// ErrHostUnavailable is returned when the bound image has been closed by the host.
var ErrHostUnavailable = errors.New("linked image is no longer open")

// Tag holds the per-point attributes the host draws but does not interpret.
type Tag struct {
	Group  int
	Label  string
	Hidden bool
}

// Point is one point as the host displays it.
type Point struct {
	Position geometry.Point2D
	Tag
}

// Style holds the display settings that apply to the whole point set.
type Style struct {
	Size       MarkerSize
	Shape      MarkerShape
	ShowLabels bool
	Visible    bool
}

// EventKind identifies a user gesture reported by the host.
type EventKind int

const (
	EventAdded   EventKind = iota // point added by click
	EventMoved                    // point dragged
	EventRemoved                  // point deleted by modifier-click
)

func (k EventKind) String() string {
	switch k {
	case EventAdded:
		return "added"
	case EventMoved:
		return "moved"
	case EventRemoved:
		return "removed"
	default:
		return fmt.Sprintf("EventKind(%d)", int(k))
	}
}

// Event is a host-originated edit. The host has already applied it to its
// own point list when the event is delivered.
type Event struct {
	Kind     EventKind
	Index    int
	Position geometry.Point2D
}

// Host is the native multi-point selection the markers are drawn with.
// Implementations keep points in a flat list addressed by index; Delete
// shifts later points down by one.
type Host interface {
	Len() int
	Points() []Point
	Append(p Point)
	Move(i int, pos geometry.Point2D) error
	Delete(i int) error
	SetTag(i int, tag Tag) error
	Clear()
	SetStyle(style Style)

	// SetEditHandler registers the callback for user add/move/delete gestures.
	SetEditHandler(handler func(Event))

	// Closed reports whether the host image window has gone away.
	Closed() bool
}

// MarkerSize is the point marker size.
type MarkerSize int

const (
	SizeTiny MarkerSize = iota
	SizeSmall
	SizeMedium
	SizeLarge
	SizeXL
	SizeXXL
	SizeXXXL
)

var markerSizeNames = []string{"Tiny", "Small", "Medium", "Large", "XL", "XXL", "XXXL"}

// markerRadii are marker radii in screen pixels, indexed by MarkerSize.
var markerRadii = []float64{2, 3, 5, 7, 10, 14, 20}

func (s MarkerSize) String() string {
	if s < 0 || int(s) >= len(markerSizeNames) {
		return fmt.Sprintf("MarkerSize(%d)", int(s))
	}
	return markerSizeNames[s]
}

// Radius returns the marker radius in screen pixels.
func (s MarkerSize) Radius() float64 {
	if s < 0 || int(s) >= len(markerRadii) {
		return markerRadii[SizeMedium]
	}
	return markerRadii[s]
}

// MarkerSizeNames lists the sizes in selector order.
func MarkerSizeNames() []string {
	return append([]string(nil), markerSizeNames...)
}

// ParseMarkerSize returns the size with the given name.
func ParseMarkerSize(name string) (MarkerSize, error) {
	for i, n := range markerSizeNames {
		if n == name {
			return MarkerSize(i), nil
		}
	}
	return SizeMedium, fmt.Errorf("unknown marker size %q", name)
}

// MarkerShape is the point marker shape.
type MarkerShape int

const (
	ShapeHybrid MarkerShape = iota
	ShapeCross
	ShapeDot
	ShapeCircle
)

var markerShapeNames = []string{"Hybrid", "Cross", "Dot", "Circle"}

func (s MarkerShape) String() string {
	if s < 0 || int(s) >= len(markerShapeNames) {
		return fmt.Sprintf("MarkerShape(%d)", int(s))
	}
	return markerShapeNames[s]
}

// MarkerShapeNames lists the shapes in selector order.
func MarkerShapeNames() []string {
	return append([]string(nil), markerShapeNames...)
}

// ParseMarkerShape returns the shape with the given name.
func ParseMarkerShape(name string) (MarkerShape, error) {
	for i, n := range markerShapeNames {
		if n == name {
			return MarkerShape(i), nil
		}
	}
	return ShapeDot, fmt.Errorf("unknown marker shape %q", name)
}

// DisplayOptions are the user-facing display toggles.
type DisplayOptions struct {
	ShowNumbers     bool
	HideMarkers     bool
	HideSingleCells bool
	Size            MarkerSize
	Shape           MarkerShape
}

// DefaultDisplayOptions returns the options a new session starts with.
func DefaultDisplayOptions() DisplayOptions {
	return DisplayOptions{
		ShowNumbers: true,
		Size:        SizeMedium,
		Shape:       ShapeDot,
	}
}

// Style converts the options into the host style.
func (o DisplayOptions) Style() Style {
	return Style{
		Size:       o.Size,
		Shape:      o.Shape,
		ShowLabels: o.ShowNumbers,
		Visible:    !o.HideMarkers,
	}
}
