package volume

import "math"

// MinWindowSpan is the smallest allowed High-Low distance of a window.
const MinWindowSpan = 1.0

// Window is an intensity range mapped onto 0..255 gray levels.
type Window struct {
	Low, High float64
}

// FromWidthLevel converts a window width and level (centre) into a range.
func FromWidthLevel(width, level float64) Window {
	return Window{Low: level - width/2, High: level + width/2}
}

// Width returns High-Low.
func (w Window) Width() float64 { return w.High - w.Low }

// Level returns the centre of the window.
func (w Window) Level() float64 { return (w.Low + w.High) / 2 }

// Common CT windows.
var (
	LungWindow        = FromWidthLevel(1500, -600)
	MediastinumWindow = FromWidthLevel(400, 40)
	BoneWindow        = FromWidthLevel(1800, 400)
)

// Bounds is the global intensity range windows are clamped into.
type Bounds struct {
	Min, Max float64
}

// DefaultBounds keeps window drags from running away.
var DefaultBounds = Bounds{Min: -2000, Max: 3000}

// ClampWindow enforces the minimum span around the window centre and then
// moves the window inside b. NaN values collapse onto the bounds.
func ClampWindow(w Window, b Bounds) Window {
	if b.Max-b.Min < MinWindowSpan {
		b.Max = b.Min + MinWindowSpan
	}
	if math.IsNaN(w.Low) {
		w.Low = b.Min
	}
	if math.IsNaN(w.High) {
		w.High = b.Max
	}
	if w.High-w.Low < MinWindowSpan {
		mid := (w.Low + w.High) / 2
		w.Low, w.High = mid-MinWindowSpan/2, mid+MinWindowSpan/2
	}
	w.Low = math.Max(b.Min, math.Min(b.Max, w.Low))
	w.High = math.Max(b.Min, math.Min(b.Max, w.High))
	if w.High-w.Low < MinWindowSpan {
		if w.Low+MinWindowSpan <= b.Max {
			w.High = w.Low + MinWindowSpan
		} else {
			w.High = b.Max
			w.Low = b.Max - MinWindowSpan
		}
	}
	return w
}

// ViewState holds the parameters that select and style the composited slice.
type ViewState struct {
	SliceIndex  int
	Window      Window
	MaskOpacity int // 0..100
	MaskOn      bool
	OnlyMask    bool
}

// DefaultViewState is the state a viewer starts from.
func DefaultViewState() ViewState {
	return ViewState{
		SliceIndex:  0,
		Window:      Window{Low: -130, High: 600},
		MaskOpacity: 50,
	}
}

// ViewPatch is a partial ViewState update; nil fields are left unchanged.
type ViewPatch struct {
	SliceIndex  *int
	Window      *Window
	MaskOpacity *int
	MaskOn      *bool
	OnlyMask    *bool
}

// Ptr returns a pointer to v, for building patches.
func Ptr[T any](v T) *T { return &v }

// BaseDirty reports whether going from prev to next changes the composited
// image, as opposed to only transient cursor state.
func BaseDirty(prev, next ViewState) bool {
	return prev.SliceIndex != next.SliceIndex ||
		prev.Window != next.Window ||
		prev.MaskOn != next.MaskOn ||
		prev.OnlyMask != next.OnlyMask ||
		prev.MaskOpacity != next.MaskOpacity
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
