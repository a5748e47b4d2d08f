package export

import (
	"fmt"
	"image"
	"os"
	"sync"

	xdraw "golang.org/x/image/draw"

	"sliceviewer/internal/logging"
)

// FileSink presents frames by writing them as numbered PNG files.
type FileSink struct {
	Dir    string
	Prefix string

	// Scale resizes frames before writing; 0 or 1 keeps the frame size.
	Scale float64

	mu    sync.Mutex
	count int
}

// NewFileSink returns a sink writing into dir, creating it if needed.
func NewFileSink(dir, prefix string, scale float64) (*FileSink, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create frame directory: %w", err)
	}
	return &FileSink{Dir: dir, Prefix: prefix, Scale: scale}, nil
}

// Present writes frame as the next file of the sequence.
func (s *FileSink) Present(frame *image.NRGBA) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	path, err := SaveFrame(s.Dir, s.Prefix, s.count, Scale(frame, s.Scale))
	if err != nil {
		return err
	}
	s.count++
	logging.Logger().Debug("frame written", "path", path)
	return nil
}

// Count returns the number of frames written.
func (s *FileSink) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.count
}

// Scale resizes img by factor with Catmull-Rom resampling. A factor of 0 or
// 1 returns img unchanged.
func Scale(img *image.NRGBA, factor float64) *image.NRGBA {
	if factor <= 0 || factor == 1 {
		return img
	}
	b := img.Bounds()
	w := max(1, int(float64(b.Dx())*factor+0.5))
	h := max(1, int(float64(b.Dy())*factor+0.5))
	dst := image.NewNRGBA(image.Rect(0, 0, w, h))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), img, b, xdraw.Src, nil)
	return dst
}

// MemorySink keeps the most recent frame in memory.
type MemorySink struct {
	mu    sync.Mutex
	last  *image.NRGBA
	count int
}

// Present stores frame.
func (s *MemorySink) Present(frame *image.NRGBA) error {
	s.mu.Lock()
	s.last = frame
	s.count++
	s.mu.Unlock()
	return nil
}

// Last returns the most recent frame, or nil.
func (s *MemorySink) Last() *image.NRGBA {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last
}

// Count returns the number of frames presented.
func (s *MemorySink) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.count
}
