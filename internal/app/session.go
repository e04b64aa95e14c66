// Package app provides the counting session: marker state, the linked image,
// the commands behind the control panel and the events the UI listens to.
package app

import (
	"errors"
	"fmt"
	"log"

	"syncytia-counter/internal/groups"
	"syncytia-counter/internal/image"
	"syncytia-counter/internal/markers"
	"syncytia-counter/internal/results"
	"syncytia-counter/internal/selection"
)

// Mode is the session state.
type Mode int

const (
	// ModeUnlinked: no image bound. Markers kept after the linked image
	// closed stay held here so they can still be saved.
	ModeUnlinked Mode = iota
	// ModeLinked: a loaded marker set is held, waiting for an image.
	ModeLinked
	// ModeActive: bound to an open image, drawing and editing enabled.
	ModeActive
)

func (m Mode) String() string {
	switch m {
	case ModeUnlinked:
		return "Unlinked"
	case ModeLinked:
		return "Linked"
	case ModeActive:
		return "Active"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// EventType identifies different session events.
type EventType int

const (
	EventModeChanged         EventType = iota // data: Mode
	EventImageLinked                          // data: *image.Document
	EventImageClosed                          // data: nil
	EventMarkersChanged                       // data: selection.Mutation, or nil for bulk changes
	EventMarkersLoaded                        // data: path string
	EventMarkersSaved                         // data: path string
	EventGroupsChanged                        // data: []int
	EventActiveGroupChanged                   // data: int
	EventDisplayChanged                       // data: selection.DisplayOptions
	EventSyncWarning                          // data: error
)

// EventListener is called when an event occurs.
type EventListener func(data interface{})

// Session is one counter window's state. It is driven from the UI event
// loop only and is not safe for concurrent use.
type Session struct {
	cfg      Config
	mode     Mode
	store    *markers.Store
	registry *groups.Registry
	display  selection.DisplayOptions

	adapter *selection.Adapter
	image   *image.Document
	lost    bool // the linked image was closed by the host

	// Snapshot of the markers as last loaded or saved.
	saved     *markers.Store
	savedPath string

	listeners map[EventType][]EventListener
}

// NewSession creates an unlinked session.
func NewSession(cfg Config) *Session {
	return &Session{
		cfg:       cfg,
		mode:      ModeUnlinked,
		store:     markers.NewStore(),
		registry:  groups.NewRegistry(),
		display:   cfg.Display,
		saved:     markers.NewStore(),
		listeners: make(map[EventType][]EventListener),
	}
}

// On registers an event listener for the specified event type.
func (s *Session) On(event EventType, listener EventListener) {
	s.listeners[event] = append(s.listeners[event], listener)
}

// Emit triggers all listeners for the specified event type.
func (s *Session) Emit(event EventType, data interface{}) {
	for _, listener := range s.listeners[event] {
		listener(data)
	}
}

// Mode returns the current session state, noticing a closed image first.
func (s *Session) Mode() Mode {
	s.CheckHost()
	return s.mode
}

// Config returns the session configuration.
func (s *Session) Config() Config { return s.cfg }

// Store returns the marker store. Callers must not mutate it directly.
func (s *Session) Store() *markers.Store { return s.store }

// Registry returns the group registry. Callers must not mutate it directly.
func (s *Session) Registry() *groups.Registry { return s.registry }

// Display returns the current display options.
func (s *Session) Display() selection.DisplayOptions { return s.display }

// Image returns the linked image, or nil.
func (s *Session) Image() *image.Document { return s.image }

// Modified reports whether the markers differ from the last load or save.
func (s *Session) Modified() bool {
	return !s.store.Equal(s.saved)
}

// HasMarkers reports whether any marker is held.
func (s *Session) HasMarkers() bool {
	return s.store.Len() > 0
}

// ClearsOnLink reports whether linking now would discard the held markers:
// the relink policy is on and the markers belong to an earlier binding.
// A marker set loaded before any image was linked is carried onto the image.
func (s *Session) ClearsOnLink() bool {
	return s.cfg.RelinkClearsMarkers && (s.adapter != nil || s.lost) && s.HasMarkers()
}

// LinkImage binds the session to an open image and its point selection.
func (s *Session) LinkImage(host selection.Host, doc *image.Document) error {
	s.CheckHost()
	if host.Closed() {
		return selection.ErrHostUnavailable
	}
	if s.adapter != nil && s.adapter.Host() == host {
		return fmt.Errorf("%w: %s", ErrAlreadyLinked, doc.Title())
	}

	replacing := s.adapter != nil || s.lost
	if s.adapter != nil {
		s.adapter.Host().SetEditHandler(nil)
		log.Printf("Session: unlinking %s", s.image.Title())
	}

	if s.cfg.RelinkClearsMarkers && replacing {
		s.store.ClearAll()
		s.registry.Reset()
		s.saved = markers.NewStore()
		s.Emit(EventGroupsChanged, s.registry.Groups())
		s.Emit(EventActiveGroupChanged, s.registry.Active())
	}

	s.adapter = selection.NewAdapter(host, s.store, s.registry)
	s.image = doc
	s.lost = false
	host.SetEditHandler(s.handleEdit)
	if err := s.adapter.PushAll(s.display); err != nil {
		host.SetEditHandler(nil)
		s.adapter = nil
		s.image = nil
		return err
	}

	log.Printf("Session: linked %s (%d markers)", doc.Title(), s.store.Len())
	s.setMode(ModeActive)
	s.Emit(EventImageLinked, doc)
	s.Emit(EventMarkersChanged, nil)
	return nil
}

// CheckHost detects an image closed by the host and drops the binding.
// Markers are kept so they can still be saved. Returns true while linked.
func (s *Session) CheckHost() bool {
	if s.adapter == nil {
		return false
	}
	if !s.adapter.Host().Closed() {
		return true
	}
	log.Printf("Session: linked image %s was closed", s.image.Title())
	s.adapter.Host().SetEditHandler(nil)
	s.adapter = nil
	s.image = nil
	s.lost = true
	s.setMode(ModeUnlinked)
	s.Emit(EventImageClosed, nil)
	return false
}

// AddGroup allocates a new syncytium and makes it active.
func (s *Session) AddGroup() (int, error) {
	if err := s.requireActive(); err != nil {
		return 0, err
	}
	g := s.registry.AddGroup()
	s.Emit(EventGroupsChanged, s.registry.Groups())
	s.Emit(EventActiveGroupChanged, g)
	return g, nil
}

// SelectGroup sets the group new markers are assigned to.
func (s *Session) SelectGroup(group int) error {
	if err := s.requireActive(); err != nil {
		return err
	}
	if err := s.registry.SetActive(group); err != nil {
		return err
	}
	s.Emit(EventActiveGroupChanged, group)
	return nil
}

// ClearGroup removes every marker of the active group. The group itself stays allocated.
func (s *Session) ClearGroup() (int, error) {
	if !s.cfg.ClearGroupEnabled {
		return 0, ErrClearGroupDisabled
	}
	if err := s.requireActive(); err != nil {
		return 0, err
	}
	n := s.store.ClearGroup(s.registry.Active())
	if err := s.push(); err != nil {
		return n, err
	}
	s.Emit(EventMarkersChanged, nil)
	return n, nil
}

// ClearAll removes every marker. Allocated syncytia are kept.
func (s *Session) ClearAll() error {
	if err := s.requireActive(); err != nil {
		return err
	}
	s.store.ClearAll()
	if err := s.push(); err != nil {
		return err
	}
	s.Emit(EventMarkersChanged, nil)
	return nil
}

// LoadMarkers replaces all markers with the contents of a markers file. On
// failure the current markers are left untouched.
func (s *Session) LoadMarkers(path string) error {
	s.CheckHost()
	if err := s.store.LoadFile(path); err != nil {
		return err
	}
	s.registry.Ensure(s.store.MaxGroup())
	s.saved = s.store.Clone()
	s.savedPath = path
	log.Printf("Session: loaded %d markers from %s", s.store.Len(), path)

	if s.adapter == nil {
		// A fresh set, not the leftovers of a closed image.
		s.lost = false
	}
	if s.mode == ModeUnlinked {
		s.setMode(ModeLinked)
	}
	if err := s.push(); err != nil && !errors.Is(err, ErrNotLinked) {
		return err
	}
	s.Emit(EventGroupsChanged, s.registry.Groups())
	s.Emit(EventMarkersLoaded, path)
	s.Emit(EventMarkersChanged, nil)
	return nil
}

// SaveMarkers writes all markers to a markers file.
func (s *Session) SaveMarkers(path string) error {
	if s.store.Len() == 0 {
		return ErrNothingToSave
	}
	if err := s.store.SaveFile(path); err != nil {
		return err
	}
	s.saved = s.store.Clone()
	s.savedPath = path
	log.Printf("Session: saved %d markers to %s", s.store.Len(), path)
	s.Emit(EventMarkersSaved, path)
	return nil
}

// DefaultMarkersPath suggests where Save Markers should write.
func (s *Session) DefaultMarkersPath() string {
	if s.image != nil {
		return s.image.MarkersPath()
	}
	return s.savedPath
}

// SetShowNumbers toggles the group number labels.
func (s *Session) SetShowNumbers(show bool) error {
	d := s.display
	d.ShowNumbers = show
	return s.SetDisplay(d)
}

// SetHideMarkers toggles drawing of all markers.
func (s *Session) SetHideMarkers(hide bool) error {
	d := s.display
	d.HideMarkers = hide
	return s.SetDisplay(d)
}

// SetHideSingleCells toggles drawing of single-cell markers.
func (s *Session) SetHideSingleCells(hide bool) error {
	d := s.display
	d.HideSingleCells = hide
	return s.SetDisplay(d)
}

// SetMarkerSize changes the marker size.
func (s *Session) SetMarkerSize(size selection.MarkerSize) error {
	d := s.display
	d.Size = size
	return s.SetDisplay(d)
}

// SetMarkerShape changes the marker shape.
func (s *Session) SetMarkerShape(shape selection.MarkerShape) error {
	d := s.display
	d.Shape = shape
	return s.SetDisplay(d)
}

// SetDisplay replaces the display options and redraws the linked image.
func (s *Session) SetDisplay(d selection.DisplayOptions) error {
	s.display = d
	if err := s.push(); err != nil && !errors.Is(err, ErrNotLinked) {
		return err
	}
	s.Emit(EventDisplayChanged, d)
	return nil
}

// Counts returns the marker count of every allocated group.
func (s *Session) Counts() map[int]int {
	return results.Compute(s.store, s.registry)
}

// Results returns the counts table.
func (s *Session) Results() []results.Row {
	return results.Table(s.store, s.registry)
}

// Resync rebuilds the image's point set from the markers.
func (s *Session) Resync() error {
	return s.push()
}

// handleEdit receives add/move/delete gestures from the linked image.
func (s *Session) handleEdit(ev selection.Event) {
	if !s.CheckHost() {
		return
	}
	mut, err := s.adapter.PullEdit(ev)
	if err != nil {
		log.Printf("Session: %v; resynchronizing", err)
		s.Emit(EventSyncWarning, err)
		if err := s.push(); err != nil {
			log.Printf("Session: resync failed: %v", err)
		}
		s.Emit(EventMarkersChanged, nil)
		return
	}
	s.Emit(EventMarkersChanged, mut)
}

func (s *Session) push() error {
	if !s.CheckHost() {
		return ErrNotLinked
	}
	return s.adapter.PushAll(s.display)
}

func (s *Session) requireActive() error {
	if s.CheckHost() {
		return nil
	}
	if s.lost {
		return selection.ErrHostUnavailable
	}
	return ErrNotLinked
}

func (s *Session) setMode(m Mode) {
	if s.mode == m {
		return
	}
	log.Printf("Session: %s -> %s", s.mode, m)
	s.mode = m
	s.Emit(EventModeChanged, m)
}
