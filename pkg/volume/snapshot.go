package volume

import (
	"fmt"
	"slices"
)

// Snapshot is an immutable view of one slice and the settings used to
// composite it. The intensity samples are shared with the volume (which is
// never written); the labels are copied because painting edits them in place.
type Snapshot struct {
	Rows, Cols int
	Index      int
	Intensity  []int16
	Labels     []uint8 // nil when no label volume is loaded
	Colors     LabelColorMap
	View       ViewState
	Revision   uint64
}

// Snapshot captures the current slice.
func (s *State) Snapshot() Snapshot {
	return s.snapshot(s.view)
}

// SnapshotAt captures slice z with the current window and mask settings.
func (s *State) SnapshotAt(z int) (Snapshot, error) {
	if z < 0 || z >= s.intensity.Shape().Depth {
		return Snapshot{}, fmt.Errorf("%w: %d not in [0,%d)", ErrSliceOutOfRange, z, s.intensity.Shape().Depth)
	}
	v := s.view
	v.SliceIndex = z
	return s.snapshot(v), nil
}

func (s *State) snapshot(v ViewState) Snapshot {
	shape := s.intensity.Shape()
	snap := Snapshot{
		Rows:      shape.Rows,
		Cols:      shape.Cols,
		Index:     v.SliceIndex,
		Intensity: s.intensity.Slice(v.SliceIndex),
		Colors:    s.colors.Clone(),
		View:      v,
		Revision:  s.revision,
	}
	if s.labels != nil {
		snap.Labels = slices.Clone(s.labels.Slice(v.SliceIndex))
	}
	return snap
}
