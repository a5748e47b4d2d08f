package compositor

import (
	"bytes"
	"image"
	"image/color"
	"testing"

	"sliceviewer/pkg/volume"
)

func newState(t *testing.T, shape volume.Shape, fill func(z, r, c int) int16, labels []uint8) *volume.State {
	t.Helper()
	data := make([]int16, shape.Len())
	for z := 0; z < shape.Depth; z++ {
		for r := 0; r < shape.Rows; r++ {
			for c := 0; c < shape.Cols; c++ {
				data[(z*shape.Rows+r)*shape.Cols+c] = fill(z, r, c)
			}
		}
	}
	v, err := volume.NewVolume(shape, data)
	if err != nil {
		t.Fatalf("Failed to create volume: %v", err)
	}
	var lv *volume.LabelVolume
	if labels != nil {
		lv, err = volume.NewLabelVolume(shape, labels)
		if err != nil {
			t.Fatalf("Failed to create label volume: %v", err)
		}
	}
	s, err := volume.NewState(v, lv)
	if err != nil {
		t.Fatalf("Failed to create state: %v", err)
	}
	return s
}

// TestWindowValueEndpoints verifies exact 0/255 at the window edges and monotonicity
func TestWindowValueEndpoints(t *testing.T) {
	windows := []volume.Window{{Low: -130, High: 600}, {Low: 0, High: 1}, {Low: -1350, High: 150}, {Low: 10, High: 11.5}}
	for _, w := range windows {
		if got := WindowValue(w.Low, w); got != 0 {
			t.Errorf("Window %+v: expected 0 at low, got %d", w, got)
		}
		if got := WindowValue(w.Low-500, w); got != 0 {
			t.Errorf("Window %+v: expected 0 below low, got %d", w, got)
		}
		if got := WindowValue(w.High, w); got != 255 {
			t.Errorf("Window %+v: expected 255 at high, got %d", w, got)
		}
		if got := WindowValue(w.High+500, w); got != 255 {
			t.Errorf("Window %+v: expected 255 above high, got %d", w, got)
		}

		prev := uint8(0)
		steps := 200
		for i := 0; i <= steps; i++ {
			v := w.Low + (w.High-w.Low)*float64(i)/float64(steps)
			g := WindowValue(v, w)
			if g < prev {
				t.Fatalf("Window %+v: not monotonic at %f (%d < %d)", w, v, g, prev)
			}
			prev = g
		}
	}
}

// TestWindowValueDegenerateSpan verifies a zero-width window does not divide by zero
func TestWindowValueDegenerateSpan(t *testing.T) {
	w := volume.Window{Low: 100, High: 100}
	if got := WindowValue(100, w); got != 0 {
		t.Errorf("Expected 0 at low, got %d", got)
	}
	if got := WindowValue(101, w); got != 255 {
		t.Errorf("Expected 255 one unit above, got %d", got)
	}
}

// TestRenderGrayscale verifies the base image without labels
func TestRenderGrayscale(t *testing.T) {
	s := newState(t, volume.Shape{Depth: 1, Rows: 2, Cols: 3}, func(z, r, c int) int16 {
		return int16(-200 + 300*c)
	}, nil)
	s.UpdateView(volume.ViewPatch{Window: &volume.Window{Low: -100, High: 100}})

	img := Render(s.Snapshot())
	if img.Bounds() != image.Rect(0, 0, 3, 2) {
		t.Fatalf("Expected 3x2 image, got %v", img.Bounds())
	}
	want := []uint8{0, 255, 255}
	for c, g := range want {
		got := img.NRGBAAt(c, 1)
		if got != (color.NRGBA{R: g, G: g, B: g, A: 255}) {
			t.Errorf("Pixel (%d,1): expected gray %d, got %+v", c, g, got)
		}
	}
}

// TestRenderMaskOffIgnoresLabels verifies output is independent of labels when the mask is off
func TestRenderMaskOffIgnoresLabels(t *testing.T) {
	shape := volume.Shape{Depth: 2, Rows: 4, Cols: 4}
	labels := make([]uint8, shape.Len())
	s := newState(t, shape, func(z, r, c int) int16 { return int16(r * c * 40) }, labels)
	before := Render(s.Snapshot())

	for i := range labels {
		labels[i] = uint8(i % 3)
	}
	after := Render(s.Snapshot())
	if !bytes.Equal(before.Pix, after.Pix) {
		t.Error("Expected render with mask off to ignore label contents")
	}
}

// TestRenderOnlyMaskWithMaskOffIsBlank verifies the fixed opaque blank image
func TestRenderOnlyMaskWithMaskOffIsBlank(t *testing.T) {
	shape := volume.Shape{Depth: 3, Rows: 2, Cols: 5}
	s := newState(t, shape, func(z, r, c int) int16 { return int16(z * 500) }, make([]uint8, shape.Len()))

	for z := 0; z < shape.Depth; z++ {
		for _, w := range []volume.Window{{Low: -1000, High: 0}, {Low: 0, High: 2000}} {
			s.UpdateView(volume.ViewPatch{SliceIndex: volume.Ptr(z), Window: &w, OnlyMask: volume.Ptr(true), MaskOn: volume.Ptr(false)})
			img := Render(s.Snapshot())
			if img.Bounds().Dx() != 5 || img.Bounds().Dy() != 2 {
				t.Fatalf("Expected 5x2 blank, got %v", img.Bounds())
			}
			for i := 0; i < len(img.Pix); i += 4 {
				if img.Pix[i] != 0 || img.Pix[i+1] != 0 || img.Pix[i+2] != 0 || img.Pix[i+3] != 255 {
					t.Fatalf("Expected opaque black at byte %d, got %v", i, img.Pix[i:i+4])
				}
			}
		}
	}
}

// TestRenderSliceRoundTrip verifies there is no hidden hysteresis in the view state
func TestRenderSliceRoundTrip(t *testing.T) {
	shape := volume.Shape{Depth: 5, Rows: 3, Cols: 3}
	labels := make([]uint8, shape.Len())
	labels[4] = 1
	s := newState(t, shape, func(z, r, c int) int16 { return int16(z*50 + r*5 + c) }, labels)
	s.UpdateView(volume.ViewPatch{MaskOn: volume.Ptr(true), SliceIndex: volume.Ptr(0)})

	before := Render(s.Snapshot())
	s.UpdateView(volume.ViewPatch{SliceIndex: volume.Ptr(3)})
	if bytes.Equal(before.Pix, Render(s.Snapshot()).Pix) {
		t.Fatal("Expected a different slice to render differently")
	}
	s.UpdateView(volume.ViewPatch{SliceIndex: volume.Ptr(0)})
	if !bytes.Equal(before.Pix, Render(s.Snapshot()).Pix) {
		t.Error("Expected byte-identical output after returning to the original slice")
	}
}

// TestRenderMaskScenario verifies the single labelled voxel at half opacity
func TestRenderMaskScenario(t *testing.T) {
	shape := volume.Shape{Depth: 10, Rows: 4, Cols: 4}
	labels := make([]uint8, shape.Len())
	// voxel (z=3, row=1, col=2)
	labels[(3*4+1)*4+2] = 1
	s := newState(t, shape, func(z, r, c int) int16 { return 0 }, labels)
	s.SetLabelColorMap(map[uint8]string{1: "mask"}, map[string]color.NRGBA{"mask": {R: 255, G: 0, B: 0, A: 128}})
	s.UpdateView(volume.ViewPatch{
		MaskOn:      volume.Ptr(true),
		MaskOpacity: volume.Ptr(50),
		SliceIndex:  volume.Ptr(3),
		Window:      &volume.Window{Low: 0, High: 100},
	})
	snap := s.Snapshot()

	overlay := Overlay(snap.Labels, snap.Rows, snap.Cols, snap.Colors)
	ScaleAlpha(overlay, snap.View.MaskOpacity)
	if a := overlay.NRGBAAt(2, 1).A; a != 64 {
		t.Errorf("Expected overlay alpha 64, got %d", a)
	}

	img := Render(snap)
	got := img.NRGBAAt(2, 1)
	if got != (color.NRGBA{R: 64, G: 0, B: 0, A: 255}) {
		t.Errorf("Expected red 64 over black, got %+v", got)
	}
	if other := img.NRGBAAt(0, 0); other != (color.NRGBA{A: 255}) {
		t.Errorf("Expected unlabelled pixel to stay black, got %+v", other)
	}
}

// TestRenderOnlyMask verifies the overlay is returned as-is when the image is off
func TestRenderOnlyMask(t *testing.T) {
	shape := volume.Shape{Depth: 1, Rows: 1, Cols: 2}
	s := newState(t, shape, func(z, r, c int) int16 { return 1000 }, []uint8{1, 0})
	s.UpdateView(volume.ViewPatch{MaskOn: volume.Ptr(true), OnlyMask: volume.Ptr(true), MaskOpacity: volume.Ptr(10)})

	img := Render(s.Snapshot())
	if got := img.NRGBAAt(0, 0); got != (color.NRGBA{R: 255, A: 128}) {
		t.Errorf("Expected unscaled overlay color, got %+v", got)
	}
	if got := img.NRGBAAt(1, 0); got != (color.NRGBA{}) {
		t.Errorf("Expected transparent unlabelled pixel, got %+v", got)
	}
}

// TestRenderOnlyMaskWithoutLabels verifies a transparent frame when there is nothing to show
func TestRenderOnlyMaskWithoutLabels(t *testing.T) {
	s := newState(t, volume.Shape{Depth: 1, Rows: 2, Cols: 2}, func(z, r, c int) int16 { return 0 }, nil)
	s.UpdateView(volume.ViewPatch{MaskOn: volume.Ptr(true), OnlyMask: volume.Ptr(true)})
	img := Render(s.Snapshot())
	for i, b := range img.Pix {
		if b != 0 {
			t.Fatalf("Expected transparent image, byte %d is %d", i, b)
		}
	}
}

// TestRenderUnknownLabelSkipped verifies labels missing from the color map are not drawn
func TestRenderUnknownLabelSkipped(t *testing.T) {
	s := newState(t, volume.Shape{Depth: 1, Rows: 1, Cols: 3}, func(z, r, c int) int16 { return 0 }, []uint8{1, 7, 2})
	s.SetLabelColorMap(
		map[uint8]string{1: "liver", 2: "spleen"},
		map[string]color.NRGBA{"liver": {G: 255, A: 255}},
	)
	s.UpdateView(volume.ViewPatch{MaskOn: volume.Ptr(true), MaskOpacity: volume.Ptr(100), Window: &volume.Window{Low: 0, High: 10}})

	img := Render(s.Snapshot())
	if got := img.NRGBAAt(0, 0); got != (color.NRGBA{G: 255, A: 255}) {
		t.Errorf("Expected opaque green for label 1, got %+v", got)
	}
	for _, x := range []int{1, 2} {
		if got := img.NRGBAAt(x, 0); got != (color.NRGBA{A: 255}) {
			t.Errorf("Expected unresolved label at %d to be skipped, got %+v", x, got)
		}
	}
}

// TestBlendOver verifies the over operator on an opaque destination
func TestBlendOver(t *testing.T) {
	dst := image.NewNRGBA(image.Rect(0, 0, 1, 1))
	copy(dst.Pix, []uint8{100, 100, 100, 255})
	src := image.NewNRGBA(image.Rect(0, 0, 1, 1))
	copy(src.Pix, []uint8{200, 0, 50, 255})

	BlendOver(dst, src)
	if got := dst.NRGBAAt(0, 0); got != (color.NRGBA{R: 200, G: 0, B: 50, A: 255}) {
		t.Errorf("Expected opaque source to replace destination, got %+v", got)
	}

	copy(dst.Pix, []uint8{100, 100, 100, 255})
	copy(src.Pix, []uint8{200, 0, 50, 0})
	BlendOver(dst, src)
	if got := dst.NRGBAAt(0, 0); got != (color.NRGBA{R: 100, G: 100, B: 100, A: 255}) {
		t.Errorf("Expected transparent source to leave destination, got %+v", got)
	}
}
