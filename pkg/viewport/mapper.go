// Package viewport maps pointer positions on a displayed, possibly resized,
// image element back to pixels of the underlying image buffer.
package viewport

import "math"

// ToVolumeCoords scales a display-space coordinate into buffer pixels by the
// buffer/display ratio on each axis and clamps the result to the buffer.
// When either display dimension is not positive the coordinate is clamped
// unscaled; it never fails.
func ToVolumeCoords(displayX, displayY, displayWidth, displayHeight float64, bufferWidth, bufferHeight int) (x, y int) {
	x, y, _ = Mapper{BufferWidth: bufferWidth, BufferHeight: bufferHeight}.Map(displayX, displayY, displayWidth, displayHeight)
	return x, y
}

// Mapper maps display coordinates onto a fixed-size buffer.
type Mapper struct {
	BufferWidth, BufferHeight int
}

// Map converts a display coordinate. scaled is false when the display size
// was unusable and the coordinate was only clamped.
func (m Mapper) Map(displayX, displayY, displayWidth, displayHeight float64) (x, y int, scaled bool) {
	if m.BufferWidth <= 0 || m.BufferHeight <= 0 {
		return 0, 0, false
	}
	sx, sy := 1.0, 1.0
	scaled = displayWidth > 0 && displayHeight > 0 &&
		!math.IsInf(displayWidth, 0) && !math.IsInf(displayHeight, 0)
	if scaled {
		sx = float64(m.BufferWidth) / displayWidth
		sy = float64(m.BufferHeight) / displayHeight
	}
	return clamp(displayX*sx, m.BufferWidth), clamp(displayY*sy, m.BufferHeight), scaled
}

func clamp(v float64, size int) int {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	f := math.Floor(v)
	if f >= float64(size-1) {
		return size - 1
	}
	return int(f)
}
