package canvas

import (
	"image"
	"image/color"
	"strings"

	"syncytia-counter/internal/selection"
	"syncytia-counter/pkg/colorutil"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// drawPoints draws every visible point with its group color and label.
func (ic *ImageCanvas) drawPoints(output *image.RGBA, points []selection.Point, style selection.Style) {
	r := style.Size.Radius()
	for _, p := range points {
		if p.Hidden {
			continue
		}
		cx := int(p.Position.X * ic.zoom)
		cy := int(p.Position.Y * ic.zoom)
		col := colorutil.GroupColor(p.Group)

		drawMarker(output, cx, cy, r, style.Shape, col)
		if style.ShowLabels && p.Label != "" {
			lx := cx + int(r) + 2
			if lx+labelWidth(p.Label) > output.Bounds().Max.X {
				lx = cx - int(r) - 2 - labelWidth(p.Label)
			}
			drawLabel(output, p.Label, lx, cy-int(r)-2, col)
		}
	}
}

// drawMarker draws one marker centered at (cx, cy) in output coordinates.
func drawMarker(output *image.RGBA, cx, cy int, r float64, shape selection.MarkerShape, col color.RGBA) {
	ri := int(r)
	switch shape {
	case selection.ShapeDot:
		drawCircle(output, cx, cy, r, col, true)
	case selection.ShapeCircle:
		drawCircle(output, cx, cy, r, col, false)
	case selection.ShapeCross:
		drawLine(output, cx-ri, cy, cx+ri, cy, col, 1)
		drawLine(output, cx, cy-ri, cx, cy+ri, col, 1)
	default:
		// Hybrid: dark-ringed dot with a cross through it
		drawCircle(output, cx, cy, r+1, colorutil.Contrast(col), true)
		drawCircle(output, cx, cy, r, col, true)
		drawLine(output, cx-ri-2, cy, cx+ri+2, cy, colorutil.Contrast(col), 1)
		drawLine(output, cx, cy-ri-2, cx, cy+ri+2, colorutil.Contrast(col), 1)
	}
}

// drawCircle draws a filled or outlined circle on the output image.
func drawCircle(output *image.RGBA, cx, cy int, r float64, col color.RGBA, filled bool) {
	bounds := output.Bounds()

	minX := int(float64(cx) - r - 1)
	maxX := int(float64(cx) + r + 1)
	minY := int(float64(cy) - r - 1)
	maxY := int(float64(cy) + r + 1)

	r2 := r * r
	innerR2 := (r - 1.5) * (r - 1.5)

	for y := minY; y <= maxY; y++ {
		if y < bounds.Min.Y || y >= bounds.Max.Y {
			continue
		}
		for x := minX; x <= maxX; x++ {
			if x < bounds.Min.X || x >= bounds.Max.X {
				continue
			}
			dx := float64(x - cx)
			dy := float64(y - cy)
			dist2 := dx*dx + dy*dy
			if dist2 > r2 {
				continue
			}
			if filled || dist2 >= innerR2 {
				output.SetRGBA(x, y, col)
			}
		}
	}
}

// drawLine draws a line between two points using Bresenham's algorithm.
func drawLine(output *image.RGBA, x1, y1, x2, y2 int, col color.RGBA, thickness int) {
	bounds := output.Bounds()

	dx := x2 - x1
	dy := y2 - y1
	if dx < 0 {
		dx = -dx
	}
	if dy < 0 {
		dy = -dy
	}

	sx := 1
	if x1 > x2 {
		sx = -1
	}
	sy := 1
	if y1 > y2 {
		sy = -1
	}

	err := dx - dy

	for {
		for t := -thickness / 2; t <= thickness/2; t++ {
			for s := -thickness / 2; s <= thickness/2; s++ {
				px, py := x1+s, y1+t
				if px >= bounds.Min.X && px < bounds.Max.X && py >= bounds.Min.Y && py < bounds.Max.Y {
					output.SetRGBA(px, py, col)
				}
			}
		}

		if x1 == x2 && y1 == y2 {
			break
		}

		e2 := 2 * err
		if e2 > -dy {
			err -= dy
			x1 += sx
		}
		if e2 < dx {
			err += dx
			y1 += sy
		}
	}
}

// drawLabel draws text with its top-left corner at (x, y), outlined in the
// contrasting color so it stays readable on any background.
func drawLabel(output *image.RGBA, label string, x, y int, col color.RGBA) {
	label = strings.TrimSpace(label)
	if label == "" {
		return
	}
	face := basicfont.Face7x13
	baseline := y + face.Ascent

	outline := image.NewUniform(colorutil.Contrast(col))
	for _, off := range [][2]int{{-1, 0}, {1, 0}, {0, -1}, {0, 1}} {
		d := font.Drawer{
			Dst:  output,
			Src:  outline,
			Face: face,
			Dot:  fixed.P(x+off[0], baseline+off[1]),
		}
		d.DrawString(label)
	}

	d := font.Drawer{
		Dst:  output,
		Src:  image.NewUniform(col),
		Face: face,
		Dot:  fixed.P(x, baseline),
	}
	d.DrawString(label)
}

// labelWidth returns the drawn width of a label in pixels.
func labelWidth(label string) int {
	return font.MeasureString(basicfont.Face7x13, label).Ceil()
}
