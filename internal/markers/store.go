// Package markers provides the ordered marker store and its JSON persistence.
package markers

import (
	"errors"
	"fmt"

	"syncytia-counter/pkg/geometry"
)

// SingleCellGroup is the implicit group for markers that belong to no syncytium.
const SingleCellGroup = 0

// ErrIndexOutOfRange is returned when a positional operation addresses a missing marker.
var ErrIndexOutOfRange = errors.New("marker index out of range")

// Marker is one annotated point.
type Marker struct {
	Group    int
	Position geometry.Point2D
}

// Store is the ordered collection of markers. Insertion order is the save
// order and must match the point order of the host selection.
type Store struct {
	markers []Marker
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{}
}

// Len returns the number of markers.
func (s *Store) Len() int {
	return len(s.markers)
}

// At returns the marker at index i.
func (s *Store) At(i int) (Marker, error) {
	if i < 0 || i >= len(s.markers) {
		return Marker{}, fmt.Errorf("%w: %d (have %d)", ErrIndexOutOfRange, i, len(s.markers))
	}
	return s.markers[i], nil
}

// Markers returns a copy of all markers in store order.
func (s *Store) Markers() []Marker {
	out := make([]Marker, len(s.markers))
	copy(out, s.markers)
	return out
}

// Add appends a marker and returns its index.
func (s *Store) Add(group int, pos geometry.Point2D) int {
	s.markers = append(s.markers, Marker{Group: group, Position: pos})
	return len(s.markers) - 1
}

// RemoveAt removes the marker at index i. Later markers shift down by one.
func (s *Store) RemoveAt(i int) error {
	if i < 0 || i >= len(s.markers) {
		return fmt.Errorf("%w: %d (have %d)", ErrIndexOutOfRange, i, len(s.markers))
	}
	s.markers = append(s.markers[:i], s.markers[i+1:]...)
	return nil
}

// MoveAt updates the position of marker i in place.
func (s *Store) MoveAt(i int, pos geometry.Point2D) error {
	if i < 0 || i >= len(s.markers) {
		return fmt.Errorf("%w: %d (have %d)", ErrIndexOutOfRange, i, len(s.markers))
	}
	s.markers[i].Position = pos
	return nil
}

// ClearGroup removes every marker of the given group, keeping the relative
// order of the rest. Returns the number of markers removed.
func (s *Store) ClearGroup(group int) int {
	kept := s.markers[:0]
	removed := 0
	for _, m := range s.markers {
		if m.Group == group {
			removed++
			continue
		}
		kept = append(kept, m)
	}
	s.markers = kept
	return removed
}

// ClearAll empties the store.
func (s *Store) ClearAll() {
	s.markers = nil
}

// Count returns the number of markers in a group.
func (s *Store) Count(group int) int {
	n := 0
	for _, m := range s.markers {
		if m.Group == group {
			n++
		}
	}
	return n
}

// MaxGroup returns the highest group index in use, or 0 for an empty store.
func (s *Store) MaxGroup() int {
	maxGroup := 0
	for _, m := range s.markers {
		if m.Group > maxGroup {
			maxGroup = m.Group
		}
	}
	return maxGroup
}

// Positions returns the marker positions in store order.
func (s *Store) Positions() []geometry.Point2D {
	out := make([]geometry.Point2D, len(s.markers))
	for i, m := range s.markers {
		out[i] = m.Position
	}
	return out
}

// Clone returns an independent copy of the store.
func (s *Store) Clone() *Store {
	return &Store{markers: s.Markers()}
}

// Equal reports whether two stores hold the same markers in the same order.
func (s *Store) Equal(other *Store) bool {
	if other == nil {
		return s.Len() == 0
	}
	if len(s.markers) != len(other.markers) {
		return false
	}
	for i := range s.markers {
		if s.markers[i] != other.markers[i] {
			return false
		}
	}
	return true
}

// replace swaps in a new marker slice wholesale.
func (s *Store) replace(markers []Marker) {
	s.markers = markers
}
