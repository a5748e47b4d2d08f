// Package loader builds volumes from directories of 2D slice images and
// generates a synthetic phantom for demos and tests.
package loader

import (
	"fmt"
	"image"
	"image/color"
	_ "image/jpeg"
	_ "image/png"
	"math"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	"golang.org/x/sync/errgroup"

	"sliceviewer/internal/logging"
	"sliceviewer/internal/models"
	"sliceviewer/pkg/volume"
)

// Options controls how stored pixel values become intensities.
type Options struct {
	// Slope and Intercept rescale stored values: v*Slope + Intercept.
	Slope, Intercept float64

	// Workers bounds concurrent decoding; all CPUs when <= 0.
	Workers int
}

// DefaultOptions keeps stored values unchanged.
func DefaultOptions() Options {
	return Options{Slope: 1}
}

var imageExts = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".tif":  true,
	".tiff": true,
	".bmp":  true,
}

// LoadDir decodes every slice image in dir, ordered by the number in each
// file name, into an intensity volume. All slices must share one size.
func LoadDir(dir string, opts Options) (*volume.Volume, *models.Stack, error) {
	stack, err := LoadStack(dir, opts.Workers)
	if err != nil {
		return nil, nil, err
	}
	shape := volume.Shape{Depth: stack.Depth(), Rows: stack.Height, Cols: stack.Width}
	data := make([]int16, shape.Len())
	for _, s := range stack.Slices {
		intensities(s.Image, data[s.Index*shape.SliceLen():(s.Index+1)*shape.SliceLen()], opts)
	}
	vol, err := volume.NewVolume(shape, data)
	if err != nil {
		return nil, nil, err
	}
	logging.Logger().Info("volume loaded", "dir", dir, "shape", shape.String(),
		"size", humanize.Bytes(uint64(shape.Len()*2)))
	return vol, stack, nil
}

// LoadLabelDir decodes a directory of gray label images. The stack must
// match shape exactly.
func LoadLabelDir(dir string, shape volume.Shape) (*volume.LabelVolume, error) {
	stack, err := LoadStack(dir, 0)
	if err != nil {
		return nil, err
	}
	got := volume.Shape{Depth: stack.Depth(), Rows: stack.Height, Cols: stack.Width}
	if got != shape {
		return nil, fmt.Errorf("%w: labels %v, intensity %v", volume.ErrShapeMismatch, got, shape)
	}
	data := make([]uint8, shape.Len())
	for _, s := range stack.Slices {
		labelPlane(s.Image, data[s.Index*shape.SliceLen():(s.Index+1)*shape.SliceLen()])
	}
	return volume.NewLabelVolume(shape, data)
}

// LoadStack decodes the slice images of dir concurrently.
func LoadStack(dir string, workers int) (*models.Stack, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read slice directory: %w", err)
	}

	var slices []models.Slice
	for _, e := range entries {
		if e.IsDir() || !imageExts[strings.ToLower(filepath.Ext(e.Name()))] {
			continue
		}
		slices = append(slices, models.Slice{Filename: e.Name(), Number: extractNumber(e.Name())})
	}
	if len(slices) == 0 {
		return nil, fmt.Errorf("no slice images found in %s", dir)
	}

	// numeric order keeps slice10 after slice9
	sort.SliceStable(slices, func(i, j int) bool {
		if slices[i].Number != slices[j].Number {
			return slices[i].Number < slices[j].Number
		}
		return slices[i].Filename < slices[j].Filename
	})

	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	var g errgroup.Group
	g.SetLimit(workers)
	for i := range slices {
		slices[i].Index = i
		g.Go(func() error {
			img, err := loadImage(filepath.Join(dir, slices[i].Filename))
			if err != nil {
				return fmt.Errorf("failed to load image %s: %w", slices[i].Filename, err)
			}
			slices[i].Image = img
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	stack := &models.Stack{Slices: slices}
	stack.Width, stack.Height = slices[0].Bounds()
	for _, s := range slices[1:] {
		if w, h := s.Bounds(); w != stack.Width || h != stack.Height {
			return nil, fmt.Errorf("%w: %s is %dx%d, expected %dx%d",
				volume.ErrInvalidShape, s.Filename, w, h, stack.Width, stack.Height)
		}
	}
	logging.Logger().Debug("slices decoded", "dir", dir, "count", len(slices), "width", stack.Width, "height", stack.Height)
	return stack, nil
}

// extractNumber returns the digits of a file name as a number, or 0.
func extractNumber(filename string) int {
	base := filepath.Base(filename)
	var digits strings.Builder
	for _, c := range base {
		if c >= '0' && c <= '9' {
			digits.WriteRune(c)
		}
	}
	if digits.Len() == 0 {
		return 0
	}
	num, err := strconv.Atoi(digits.String())
	if err != nil {
		return 0
	}
	return num
}

func loadImage(path string) (image.Image, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	img, _, err := image.Decode(file)
	if err != nil {
		return nil, err
	}
	return img, nil
}

// labelPlane writes the label codes of img into dst. Wide images are read
// at full depth and clamped to 255 so small codes survive.
func labelPlane(img image.Image, dst []uint8) {
	b := img.Bounds()
	w := b.Dx()
	wide := isWide(img)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			var v uint8
			if wide {
				v = uint8(min(color.Gray16Model.Convert(img.At(x, y)).(color.Gray16).Y, math.MaxUint8))
			} else {
				v = color.GrayModel.Convert(img.At(x, y)).(color.Gray).Y
			}
			dst[(y-b.Min.Y)*w+(x-b.Min.X)] = v
		}
	}
}

// isWide reports whether img stores more than 8 bits per sample.
func isWide(img image.Image) bool {
	switch img.(type) {
	case *image.Gray16, *image.RGBA64, *image.NRGBA64:
		return true
	}
	return false
}

// intensities writes the rescaled gray samples of img into dst. 16-bit
// images keep their full sample range; everything else is read as 8-bit
// gray.
func intensities(img image.Image, dst []int16, opts Options) {
	b := img.Bounds()
	w := b.Dx()
	wide := isWide(img)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			var v float64
			if wide {
				v = float64(color.Gray16Model.Convert(img.At(x, y)).(color.Gray16).Y)
			} else {
				v = float64(color.GrayModel.Convert(img.At(x, y)).(color.Gray).Y)
			}
			dst[(y-b.Min.Y)*w+(x-b.Min.X)] = toInt16(v*opts.Slope + opts.Intercept)
		}
	}
}

func toInt16(v float64) int16 {
	switch {
	case math.IsNaN(v):
		return 0
	case v <= math.MinInt16:
		return math.MinInt16
	case v >= math.MaxInt16:
		return math.MaxInt16
	}
	return int16(math.Round(v))
}
