// Package compositor renders a displayable RGBA slice from a volume snapshot:
// intensity windowing to gray, label colorization and alpha blending.
//
// Every function here is pure and safe to call from any goroutine.
package compositor

import (
	"image"
	"image/color"
	"math"

	"sliceviewer/pkg/volume"
)

// Render composites the snapshot into a non-premultiplied RGBA image of
// Cols x Rows pixels.
func Render(s volume.Snapshot) *image.NRGBA {
	v := s.View
	withMask := s.Labels != nil && v.MaskOn

	if !v.MaskOn && v.OnlyMask {
		return Blank(s.Cols, s.Rows)
	}

	var base *image.NRGBA
	if v.OnlyMask {
		base = image.NewNRGBA(image.Rect(0, 0, s.Cols, s.Rows))
	} else {
		base = Grayscale(s.Intensity, s.Rows, s.Cols, v.Window)
	}
	if !withMask {
		return base
	}

	overlay := Overlay(s.Labels, s.Rows, s.Cols, s.Colors)
	if v.OnlyMask {
		return overlay
	}
	if v.MaskOpacity < 100 {
		ScaleAlpha(overlay, v.MaskOpacity)
	}
	BlendOver(base, overlay)
	return base
}

// Blank returns an opaque black image.
func Blank(width, height int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	for i := 3; i < len(img.Pix); i += 4 {
		img.Pix[i] = 255
	}
	return img
}

// WindowValue maps an intensity to a gray level through w. Spans below one
// are treated as one.
func WindowValue(v float64, w volume.Window) uint8 {
	span := w.High - w.Low
	if !(span >= 1) {
		span = 1
	}
	g := math.Round(255 * (v - w.Low) / span)
	switch {
	case g <= 0 || math.IsNaN(g):
		return 0
	case g >= 255:
		return 255
	}
	return uint8(g)
}

// Grayscale windows a slice of samples into an opaque gray image.
func Grayscale(samples []int16, rows, cols int, w volume.Window) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, cols, rows))
	n := min(len(samples), rows*cols)
	for i := 0; i < n; i++ {
		g := WindowValue(float64(samples[i]), w)
		p := img.Pix[i*4 : i*4+4 : i*4+4]
		p[0], p[1], p[2], p[3] = g, g, g, 255
	}
	for i := n * 4; i < len(img.Pix); i += 4 {
		img.Pix[i+3] = 255
	}
	return img
}

// Overlay colorizes labels. Pixels with label 0 or with a label the color
// map does not resolve stay fully transparent.
func Overlay(labels []uint8, rows, cols int, cmap volume.LabelColorMap) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, cols, rows))
	var lut [256]color.NRGBA
	var known [256]bool
	for label := range cmap.LabelToName {
		if c, ok := cmap.Color(label); ok {
			lut[label] = c
			known[label] = true
		}
	}
	n := min(len(labels), rows*cols)
	for i := 0; i < n; i++ {
		l := labels[i]
		if !known[l] {
			continue
		}
		c := lut[l]
		p := img.Pix[i*4 : i*4+4 : i*4+4]
		p[0], p[1], p[2], p[3] = c.R, c.G, c.B, c.A
	}
	return img
}

// ScaleAlpha multiplies every alpha value by opacity/100, truncating.
func ScaleAlpha(img *image.NRGBA, opacity int) {
	opacity = max(0, min(100, opacity))
	for i := 3; i < len(img.Pix); i += 4 {
		img.Pix[i] = uint8(int(img.Pix[i]) * opacity / 100)
	}
}

// BlendOver composites src over the opaque dst in place:
// out = src*a + dst*(1-a) per channel, with a the source alpha.
func BlendOver(dst, src *image.NRGBA) {
	n := min(len(dst.Pix), len(src.Pix))
	for i := 0; i < n; i += 4 {
		a := int(src.Pix[i+3])
		if a == 0 {
			continue
		}
		for c := 0; c < 3; c++ {
			dst.Pix[i+c] = uint8((int(src.Pix[i+c])*a + int(dst.Pix[i+c])*(255-a) + 127) / 255)
		}
		dst.Pix[i+3] = 255
	}
}
