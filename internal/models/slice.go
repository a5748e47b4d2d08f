package models

import (
	"image"
)

// Slice represents a single decoded image of a slice stack with metadata
type Slice struct {
	// Image is the decoded slice image
	Image image.Image

	// Index is the position of this slice in the sorted sequence
	Index int

	// Filename is the original filename of the slice
	Filename string

	// Number is the numeric key extracted from the filename, used for ordering
	Number int
}

// Bounds returns the width and height of the slice image
func (s Slice) Bounds() (width, height int) {
	if s.Image == nil {
		return 0, 0
	}
	b := s.Image.Bounds()
	return b.Dx(), b.Dy()
}

// Stack is an ordered collection of slices sharing the same dimensions
type Stack struct {
	// Slices holds the slices in display order
	Slices []Slice

	// Width and Height are the common dimensions of every slice
	Width, Height int
}

// Depth returns the number of slices in the stack
func (s Stack) Depth() int {
	return len(s.Slices)
}
