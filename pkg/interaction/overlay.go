package interaction

import (
	"image"
	"image/color"
	"image/draw"

	"github.com/gogpu/gg"
	xdraw "golang.org/x/image/draw"

	"sliceviewer/internal/logging"
)

// OverlayState is the transient graphics drawn over a base frame.
type OverlayState struct {
	Hover       image.Point
	ShowHover   bool
	HoverRadius int

	Dragging   bool
	DragButton Button
	DragStart  image.Point
	DragPos    image.Point
	Stroke     []image.Point

	Crosshair     image.Point
	ShowCrosshair bool

	// Zoom scales the presented frame; 0 and 1 both mean unscaled.
	Zoom float64
}

// Empty reports whether the overlay draws nothing.
func (o OverlayState) Empty() bool {
	return !o.ShowHover && !o.Dragging && !o.ShowCrosshair
}

var (
	hoverColor     = color.NRGBA{R: 0, G: 255, B: 0, A: 255}
	dragColor      = color.NRGBA{R: 255, G: 255, B: 255, A: 255}
	windowColor    = color.NRGBA{R: 255, G: 0, B: 0, A: 255}
	strokeColor    = color.NRGBA{R: 255, G: 0, B: 0, A: 255}
	crosshairColor = color.NRGBA{R: 0, G: 0, B: 255, A: 255}
)

const (
	hoverWidth     = 2
	dragWidth      = 3
	strokeWidth    = 2
	crosshairSize  = 15
	crosshairWidth = 4
)

// DrawOverlay returns a copy of base with the overlay drawn on it. base is
// never modified.
func DrawOverlay(base *image.NRGBA, ov OverlayState) *image.NRGBA {
	if ov.Empty() {
		return cloneNRGBA(base)
	}

	dc := gg.NewContextForImage(base)
	defer dc.Close()

	// pixel centres
	at := func(p image.Point) (float64, float64) {
		return float64(p.X) + 0.5, float64(p.Y) + 0.5
	}

	if ov.ShowHover {
		x, y := at(ov.Hover)
		dc.SetColor(hoverColor)
		dc.SetLineWidth(hoverWidth)
		dc.DrawCircle(x, y, float64(ov.HoverRadius))
		stroke(dc)
	}
	if ov.Dragging {
		if len(ov.Stroke) > 1 {
			dc.SetColor(strokeColor)
			dc.SetLineWidth(strokeWidth)
			dc.MoveTo(at(ov.Stroke[0]))
			for _, p := range ov.Stroke[1:] {
				dc.LineTo(at(p))
			}
			stroke(dc)
		}
		c := dragColor
		if ov.DragButton == ButtonSecondary {
			c = windowColor
		}
		x0, y0 := at(ov.DragStart)
		x1, y1 := at(ov.DragPos)
		dc.SetColor(c)
		dc.SetLineWidth(dragWidth)
		dc.DrawLine(x0, y0, x1, y1)
		stroke(dc)
	}
	if ov.ShowCrosshair {
		x, y := at(ov.Crosshair)
		dc.SetColor(crosshairColor)
		dc.SetLineWidth(crosshairWidth)
		dc.DrawLine(x-crosshairSize, y-crosshairSize, x+crosshairSize, y+crosshairSize)
		dc.DrawLine(x-crosshairSize, y+crosshairSize, x+crosshairSize, y-crosshairSize)
		stroke(dc)
	}

	src := dc.Image()
	out := image.NewNRGBA(base.Bounds())
	draw.Draw(out, out.Bounds(), src, src.Bounds().Min, draw.Src)
	return out
}

func stroke(dc *gg.Context) {
	if err := dc.Stroke(); err != nil {
		logging.Logger().Warn("overlay stroke failed", "err", err)
	}
}

// Zoom scales img by factor with nearest-neighbour sampling so individual
// voxels stay sharp. A factor of 0 or 1 returns img.
func Zoom(img *image.NRGBA, factor float64) *image.NRGBA {
	if factor <= 0 || factor == 1 {
		return img
	}
	b := img.Bounds()
	w := max(1, int(float64(b.Dx())*factor+0.5))
	h := max(1, int(float64(b.Dy())*factor+0.5))
	dst := image.NewNRGBA(image.Rect(0, 0, w, h))
	xdraw.NearestNeighbor.Scale(dst, dst.Bounds(), img, b, xdraw.Src, nil)
	return dst
}

func cloneNRGBA(img *image.NRGBA) *image.NRGBA {
	out := &image.NRGBA{
		Pix:    make([]uint8, len(img.Pix)),
		Stride: img.Stride,
		Rect:   img.Rect,
	}
	copy(out.Pix, img.Pix)
	return out
}
