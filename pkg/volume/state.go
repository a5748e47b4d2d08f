package volume

import (
	"fmt"
	"image"
	"image/color"
	"maps"
)

// LabelColorMap resolves integer labels to names and names to colors.
// Labels without a name or color are not drawn.
type LabelColorMap struct {
	LabelToName map[uint8]string
	NameToColor map[string]color.NRGBA
}

// Color returns the color of label and whether it resolves.
func (m LabelColorMap) Color(label uint8) (color.NRGBA, bool) {
	if label == 0 {
		return color.NRGBA{}, false
	}
	name, ok := m.LabelToName[label]
	if !ok {
		return color.NRGBA{}, false
	}
	c, ok := m.NameToColor[name]
	return c, ok
}

// Clone returns a deep copy of the map.
func (m LabelColorMap) Clone() LabelColorMap {
	return LabelColorMap{
		LabelToName: maps.Clone(m.LabelToName),
		NameToColor: maps.Clone(m.NameToColor),
	}
}

// DefaultColorMap draws label 1 as translucent red.
func DefaultColorMap() LabelColorMap {
	return LabelColorMap{
		LabelToName: map[uint8]string{1: "mask"},
		NameToColor: map[string]color.NRGBA{"mask": {R: 255, A: 128}},
	}
}

// State is the single owner of a case's volumes and view parameters.
// It is not safe for concurrent mutation; readers on other goroutines must
// work from a Snapshot.
type State struct {
	intensity *Volume
	labels    *LabelVolume
	colors    LabelColorMap
	view      ViewState
	bounds    Bounds

	// revision changes whenever voxel or color content changes.
	revision uint64
}

// Option configures a State.
type Option func(*State)

// WithBounds sets the global window bounds.
func WithBounds(b Bounds) Option {
	return func(s *State) { s.bounds = b }
}

// WithView sets the initial view state. It is clamped like any update.
func WithView(v ViewState) Option {
	return func(s *State) { s.view = v }
}

// WithColorMap sets the initial label color map.
func WithColorMap(m LabelColorMap) Option {
	return func(s *State) { s.colors = m.Clone() }
}

// NewState creates a state for intensity and an optional label volume.
func NewState(intensity *Volume, labels *LabelVolume, opts ...Option) (*State, error) {
	if intensity == nil {
		return nil, fmt.Errorf("%w: nil intensity volume", ErrInvalidShape)
	}
	s := &State{
		colors: DefaultColorMap(),
		view:   DefaultViewState(),
		bounds: DefaultBounds,
	}
	for _, opt := range opts {
		opt(s)
	}
	if err := s.SetVolume(intensity, labels); err != nil {
		return nil, err
	}
	s.view = s.clamp(s.view)
	return s, nil
}

// SetVolume replaces both volumes together. On error nothing changes.
func (s *State) SetVolume(intensity *Volume, labels *LabelVolume) error {
	if intensity == nil {
		return fmt.Errorf("%w: nil intensity volume", ErrInvalidShape)
	}
	if labels != nil && labels.Shape() != intensity.Shape() {
		return fmt.Errorf("%w: labels %v, intensity %v", ErrShapeMismatch, labels.Shape(), intensity.Shape())
	}
	s.intensity = intensity
	s.labels = labels
	if s.view.SliceIndex >= intensity.Shape().Depth {
		s.view.SliceIndex = 0
	}
	s.revision++
	return nil
}

// SetLabelColorMap replaces the label mappings. The maps are copied.
func (s *State) SetLabelColorMap(labelToName map[uint8]string, nameToColor map[string]color.NRGBA) {
	s.colors = LabelColorMap{LabelToName: labelToName, NameToColor: nameToColor}.Clone()
	s.revision++
}

// ColorMap returns a copy of the current label color map.
func (s *State) ColorMap() LabelColorMap { return s.colors.Clone() }

// Shape returns the shape of the intensity volume.
func (s *State) Shape() Shape { return s.intensity.Shape() }

// HasLabels reports whether a label volume is loaded.
func (s *State) HasLabels() bool { return s.labels != nil }

// Bounds returns the window bounds.
func (s *State) Bounds() Bounds { return s.bounds }

// View returns the current view state.
func (s *State) View() ViewState { return s.view }

// Revision identifies the voxel and color content.
func (s *State) Revision() uint64 { return s.revision }

// UpdateView merges p into the view state and applies the clamps. It
// returns the state before and after so callers can use BaseDirty.
func (s *State) UpdateView(p ViewPatch) (prev, next ViewState) {
	prev = s.view
	next = prev
	if p.SliceIndex != nil {
		next.SliceIndex = *p.SliceIndex
	}
	if p.Window != nil {
		next.Window = *p.Window
	}
	if p.MaskOpacity != nil {
		next.MaskOpacity = *p.MaskOpacity
	}
	if p.MaskOn != nil {
		next.MaskOn = *p.MaskOn
	}
	if p.OnlyMask != nil {
		next.OnlyMask = *p.OnlyMask
	}
	next = s.clamp(next)
	s.view = next
	return prev, next
}

func (s *State) clamp(v ViewState) ViewState {
	v.SliceIndex = clampInt(v.SliceIndex, 0, s.intensity.Shape().Depth-1)
	v.Window = ClampWindow(v.Window, s.bounds)
	v.MaskOpacity = clampInt(v.MaskOpacity, 0, 100)
	return v
}

// ValueAt returns the intensity at (row, col) of the current slice. The
// boolean is false when the pixel is outside the slice.
func (s *State) ValueAt(row, col int) (int16, bool) {
	return s.intensity.At(s.view.SliceIndex, row, col)
}

// LabelAt returns the label at (row, col) of the current slice, or 0.
func (s *State) LabelAt(row, col int) uint8 {
	if s.labels == nil {
		return 0
	}
	return s.labels.At(s.view.SliceIndex, row, col)
}

// PaintLabels stamps a square brush of the given radius around each point
// (x = column, y = row) of the current slice. It returns the number of
// voxels whose label changed.
func (s *State) PaintLabels(points []image.Point, radius int, label uint8) int {
	if s.labels == nil || radius < 0 {
		return 0
	}
	shape := s.labels.Shape()
	plane := s.labels.Slice(s.view.SliceIndex)
	changed := 0
	for _, p := range points {
		r0, r1 := max(0, p.Y-radius), min(shape.Rows, p.Y+radius+1)
		c0, c1 := max(0, p.X-radius), min(shape.Cols, p.X+radius+1)
		for r := r0; r < r1; r++ {
			for c := c0; c < c1; c++ {
				idx := r*shape.Cols + c
				if plane[idx] != label {
					plane[idx] = label
					changed++
				}
			}
		}
	}
	if changed > 0 {
		s.revision++
	}
	return changed
}
