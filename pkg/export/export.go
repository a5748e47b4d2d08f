// Package export renders slice sequences outside the interactive loop and
// writes them as numbered PNG files or a looping animated GIF.
package export

import (
	"fmt"
	"image"
	"image/color/palette"
	"image/draw"
	"image/gif"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/dustin/go-humanize"
	"golang.org/x/sync/errgroup"

	"sliceviewer/internal/logging"
	"sliceviewer/pkg/compositor"
	"sliceviewer/pkg/volume"
)

// DefaultDelay is the per-frame delay of exported animations.
const DefaultDelay = 100 * time.Millisecond

// Frames renders the given slices with the current window and mask
// settings. A nil indices renders every slice. Snapshots are taken up front
// so the state's view is never touched; rendering runs on up to workers
// goroutines (all CPUs when workers <= 0).
func Frames(state *volume.State, indices []int, workers int) ([]*image.NRGBA, error) {
	if indices == nil {
		depth := state.Shape().Depth
		indices = make([]int, depth)
		for i := range indices {
			indices[i] = i
		}
	}

	snaps := make([]volume.Snapshot, len(indices))
	for i, z := range indices {
		s, err := state.SnapshotAt(z)
		if err != nil {
			return nil, fmt.Errorf("export frame %d: %w", i, err)
		}
		snaps[i] = s
	}

	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	frames := make([]*image.NRGBA, len(snaps))
	var g errgroup.Group
	g.SetLimit(workers)
	for i := range snaps {
		g.Go(func() error {
			frames[i] = compositor.Render(snaps[i])
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	logging.Logger().Debug("frames rendered", "count", len(frames), "workers", workers)
	return frames, nil
}

// WriteGIF encodes frames as an endlessly looping animation. Frames are
// reduced to the Plan 9 palette with Floyd-Steinberg dithering.
func WriteGIF(w io.Writer, frames []*image.NRGBA, delay time.Duration) error {
	if len(frames) == 0 {
		return fmt.Errorf("no frames to encode")
	}
	// GIF delays are in hundredths of a second
	d := int(delay / (10 * time.Millisecond))

	anim := &gif.GIF{LoopCount: 0}
	for _, f := range frames {
		b := f.Bounds()
		p := image.NewPaletted(b, palette.Plan9)
		draw.FloydSteinberg.Draw(p, b, f, b.Min)
		anim.Image = append(anim.Image, p)
		anim.Delay = append(anim.Delay, d)
	}
	if err := gif.EncodeAll(w, anim); err != nil {
		return fmt.Errorf("failed to encode gif: %w", err)
	}
	return nil
}

// SaveGIF writes frames as an animated GIF file.
func SaveGIF(path string, frames []*image.NRGBA, delay time.Duration) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	cw := &countingWriter{w: file}
	if err := WriteGIF(cw, frames, delay); err != nil {
		file.Close()
		return err
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", path, err)
	}
	logging.Logger().Info("animation saved", "path", path, "frames", len(frames), "size", humanize.Bytes(uint64(cw.n)))
	return nil
}

// FrameName returns the file name of frame index, e.g. img_0007.png.
func FrameName(prefix string, index int) string {
	return fmt.Sprintf("%s_%04d.png", prefix, index)
}

// SaveFrame writes img as dir/prefix_NNNN.png and returns the path.
func SaveFrame(dir, prefix string, index int, img image.Image) (string, error) {
	path := filepath.Join(dir, FrameName(prefix, index))
	file, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := png.Encode(file, img); err != nil {
		file.Close()
		return "", fmt.Errorf("failed to encode %s: %w", path, err)
	}
	if err := file.Close(); err != nil {
		return "", fmt.Errorf("failed to close %s: %w", path, err)
	}
	return path, nil
}

// SaveSequence writes frames as numbered PNG files in dir.
func SaveSequence(dir, prefix string, frames []*image.NRGBA) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	for i, f := range frames {
		if _, err := SaveFrame(dir, prefix, i, f); err != nil {
			return err
		}
	}
	logging.Logger().Info("sequence saved", "dir", dir, "frames", len(frames))
	return nil
}

type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}
