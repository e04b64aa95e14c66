package app

import "errors"

var (
	// ErrNotLinked is returned by editing commands when no image is linked.
	ErrNotLinked = errors.New("no image is linked")

	// ErrAlreadyLinked is returned when linking the image that is already linked.
	ErrAlreadyLinked = errors.New("image is already linked")

	// ErrNothingToSave is returned by SaveMarkers for an empty marker set.
	ErrNothingToSave = errors.New("there are no markers, nothing to save")

	// ErrClearGroupDisabled is returned by ClearGroup when the policy turns it off.
	ErrClearGroupDisabled = errors.New("clearing a single syncytium is disabled")
)
