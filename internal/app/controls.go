package app

// Control identifies a control panel command.
type Control int

const (
	ControlLinkImage Control = iota
	ControlAddGroup
	ControlClearGroup
	ControlClearAll
	ControlLoadMarkers
	ControlSelectGroup
	ControlShowNumbers
	ControlHideMarkers
	ControlHideSingleCells
	ControlMarkerSize
	ControlMarkerShape
	ControlResults
	ControlSaveMarkers
)

// Enabled reports whether a control is usable in the current state.
// Link, Load, Results and Save are always available; everything else needs
// a linked, open image.
func (s *Session) Enabled(c Control) bool {
	switch c {
	case ControlLinkImage, ControlLoadMarkers, ControlResults, ControlSaveMarkers:
		return true
	case ControlClearGroup:
		return s.cfg.ClearGroupEnabled && s.Mode() == ModeActive
	default:
		return s.Mode() == ModeActive
	}
}
