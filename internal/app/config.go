package app

import "syncytia-counter/internal/selection"

// Config holds the session policies and the display options a session starts with.
type Config struct {
	// ClearGroupEnabled enables "Clear This Syncytium".
	ClearGroupEnabled bool

	// RelinkClearsMarkers discards the current markers and syncytia when an
	// image is linked. When false, markers carry over to the newly linked image.
	RelinkClearsMarkers bool

	Display selection.DisplayOptions
}

// DefaultConfig returns the configuration used when no preferences are stored.
func DefaultConfig() Config {
	return Config{
		ClearGroupEnabled:   true,
		RelinkClearsMarkers: true,
		Display:             selection.DefaultDisplayOptions(),
	}
}
