// Package volume owns the intensity and label volumes of a case together with
// the view parameters used to composite a slice of them.
package volume

import (
	"errors"
	"fmt"
)

var (
	// ErrShapeMismatch is returned when a label volume does not have the
	// shape of the intensity volume it is paired with.
	ErrShapeMismatch = errors.New("label volume shape does not match intensity volume")

	// ErrInvalidShape is returned when dimensions are not positive or the
	// backing data does not hold exactly Depth*Rows*Cols samples.
	ErrInvalidShape = errors.New("invalid volume shape")

	// ErrSliceOutOfRange is returned by non-interactive callers (export)
	// asking for a slice outside the volume.
	ErrSliceOutOfRange = errors.New("slice index out of range")
)

// Shape is the extent of a volume along its slice, row and column axes.
type Shape struct {
	Depth, Rows, Cols int
}

// Len returns the number of voxels.
func (s Shape) Len() int {
	return s.Depth * s.Rows * s.Cols
}

// SliceLen returns the number of pixels in one slice.
func (s Shape) SliceLen() int {
	return s.Rows * s.Cols
}

// Valid reports whether every dimension is positive.
func (s Shape) Valid() bool {
	return s.Depth > 0 && s.Rows > 0 && s.Cols > 0
}

func (s Shape) String() string {
	return fmt.Sprintf("(%d,%d,%d)", s.Depth, s.Rows, s.Cols)
}

// Volume is a 3D array of signed intensity samples stored slice-major,
// then row-major. It is never resized; a new case gets a new Volume.
type Volume struct {
	shape Shape
	data  []int16
}

// NewVolume wraps data as a volume of the given shape. The slice is not copied.
func NewVolume(shape Shape, data []int16) (*Volume, error) {
	if !shape.Valid() || len(data) != shape.Len() {
		return nil, fmt.Errorf("%w: shape %v with %d samples", ErrInvalidShape, shape, len(data))
	}
	return &Volume{shape: shape, data: data}, nil
}

// Shape returns the volume extent.
func (v *Volume) Shape() Shape { return v.shape }

// Slice returns the samples of slice z. The result aliases the volume.
func (v *Volume) Slice(z int) []int16 {
	n := v.shape.SliceLen()
	return v.data[z*n : (z+1)*n]
}

// At returns the sample at (z, row, col) and whether the position is inside
// the volume.
func (v *Volume) At(z, row, col int) (int16, bool) {
	if z < 0 || z >= v.shape.Depth || row < 0 || row >= v.shape.Rows || col < 0 || col >= v.shape.Cols {
		return 0, false
	}
	return v.data[(z*v.shape.Rows+row)*v.shape.Cols+col], true
}

// LabelVolume is a 3D array of small non-negative labels with the layout of
// Volume. Label 0 means unlabelled.
type LabelVolume struct {
	shape Shape
	data  []uint8
}

// NewLabelVolume wraps data as a label volume of the given shape.
func NewLabelVolume(shape Shape, data []uint8) (*LabelVolume, error) {
	if !shape.Valid() || len(data) != shape.Len() {
		return nil, fmt.Errorf("%w: shape %v with %d labels", ErrInvalidShape, shape, len(data))
	}
	return &LabelVolume{shape: shape, data: data}, nil
}

// Shape returns the label volume extent.
func (l *LabelVolume) Shape() Shape { return l.shape }

// Slice returns the labels of slice z. The result aliases the label volume.
func (l *LabelVolume) Slice(z int) []uint8 {
	n := l.shape.SliceLen()
	return l.data[z*n : (z+1)*n]
}

// At returns the label at (z, row, col), or 0 outside the volume.
func (l *LabelVolume) At(z, row, col int) uint8 {
	if z < 0 || z >= l.shape.Depth || row < 0 || row >= l.shape.Rows || col < 0 || col >= l.shape.Cols {
		return 0
	}
	return l.data[(z*l.shape.Rows+row)*l.shape.Cols+col]
}
