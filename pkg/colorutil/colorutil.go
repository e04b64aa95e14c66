// Package colorutil provides shared marker colors for the syncytia counter.
package colorutil

import (
	"image/color"
)

// Common overlay colors used throughout the application.
var (
	Black   = color.RGBA{R: 0, G: 0, B: 0, A: 255}
	White   = color.RGBA{R: 255, G: 255, B: 255, A: 255}
	Cyan    = color.RGBA{R: 0, G: 255, B: 255, A: 255}
	Magenta = color.RGBA{R: 255, G: 0, B: 255, A: 255}
	Blue    = color.RGBA{R: 0, G: 0, B: 255, A: 255}
	Green   = color.RGBA{R: 0, G: 255, B: 0, A: 255}
	Yellow  = color.RGBA{R: 255, G: 255, B: 0, A: 255}
	Orange  = color.RGBA{R: 255, G: 140, B: 0, A: 255}
	Red     = color.RGBA{R: 255, G: 0, B: 0, A: 255}
)

// groupPalette cycles for syncytium groups. Group 0 (single cells) has its own color.
var groupPalette = []color.RGBA{Magenta, Cyan, Green, Orange, Blue, Red}

// GroupColor returns the marker color for a group index.
func GroupColor(group int) color.RGBA {
	if group <= 0 {
		return Yellow
	}
	return groupPalette[(group-1)%len(groupPalette)]
}

// Contrast returns black or white, whichever reads better on top of c.
func Contrast(c color.RGBA) color.RGBA {
	// ITU-R BT.601 luma
	luma := 299*int(c.R) + 587*int(c.G) + 114*int(c.B)
	if luma > 128*1000 {
		return Black
	}
	return White
}
