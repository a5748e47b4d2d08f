package interaction

import (
	"image"

	"sliceviewer/pkg/volume"
)

// Painter receives primary-button strokes in buffer coordinates.
type Painter interface {
	BeginStroke(p image.Point)
	Segment(from, to image.Point)

	// EndStroke finishes the stroke and reports whether the content changed.
	EndStroke() bool
}

// LabelBrush paints a label into the current slice of a volume.State.
type LabelBrush struct {
	State  *volume.State
	Radius int
	Label  uint8

	changed int
}

// BeginStroke stamps the brush at p.
func (b *LabelBrush) BeginStroke(p image.Point) {
	b.changed = b.State.PaintLabels([]image.Point{p}, b.Radius, b.Label)
}

// Segment stamps the brush along the line from one point to the next.
func (b *LabelBrush) Segment(from, to image.Point) {
	b.changed += b.State.PaintLabels(linePoints(from, to), b.Radius, b.Label)
}

// EndStroke reports whether any voxel changed during the stroke.
func (b *LabelBrush) EndStroke() bool {
	changed := b.changed > 0
	b.changed = 0
	return changed
}

// linePoints returns the integer points of the segment from a to b
// (Bresenham), both ends included.
func linePoints(a, b image.Point) []image.Point {
	dx, dy := abs(b.X-a.X), -abs(b.Y-a.Y)
	sx, sy := 1, 1
	if a.X > b.X {
		sx = -1
	}
	if a.Y > b.Y {
		sy = -1
	}
	err := dx + dy
	pts := make([]image.Point, 0, max(dx, -dy)+1)
	p := a
	for {
		pts = append(pts, p)
		if p == b {
			return pts
		}
		e2 := 2 * err
		if e2 >= dy {
			err += dy
			p.X += sx
		}
		if e2 <= dx {
			err += dx
			p.Y += sy
		}
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
