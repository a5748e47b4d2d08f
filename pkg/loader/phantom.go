package loader

import (
	"math"

	"sliceviewer/pkg/volume"
)

// Phantom intensities, roughly in Hounsfield units.
const (
	phantomAir    = -1000
	phantomLung   = -800
	phantomTissue = 40
	phantomBone   = 700
	phantomLesion = 90
)

// Phantom returns a synthetic chest-like CT volume: an elliptical body with
// two lungs, a spine and a spherical lesion in the right lung. The lesion
// is labelled 1 in the returned label volume.
func Phantom(depth, rows, cols int) (*volume.Volume, *volume.LabelVolume, error) {
	shape := volume.Shape{Depth: depth, Rows: rows, Cols: cols}
	if !shape.Valid() {
		return nil, nil, volume.ErrInvalidShape
	}
	data := make([]int16, shape.Len())
	labels := make([]uint8, shape.Len())

	cy, cx := float64(rows)/2, float64(cols)/2
	ry, rx := float64(rows)*0.35, float64(cols)*0.45
	inside := func(y, x, oy, ox, ay, ax float64) bool {
		dy, dx := (y-oy)/ay, (x-ox)/ax
		return dy*dy+dx*dx <= 1
	}

	lesionZ := float64(depth) / 2
	lesionY, lesionX := cy-ry*0.1, cx-rx*0.45
	lesionR := math.Max(1, math.Min(float64(rows), float64(cols))*0.06)

	for z := 0; z < depth; z++ {
		// lungs shrink towards the ends of the stack
		t := 1 - math.Abs(float64(z)-lesionZ)/math.Max(1, float64(depth))
		for r := 0; r < rows; r++ {
			y := float64(r) + 0.5
			for c := 0; c < cols; c++ {
				x := float64(c) + 0.5
				idx := z*shape.SliceLen() + r*cols + c

				v := phantomAir
				switch {
				case !inside(y, x, cy, cx, ry, rx):
				case inside(y, x, cy+ry*0.6, cx, ry*0.2, rx*0.12):
					v = phantomBone
				case inside(y, x, cy-ry*0.1, cx-rx*0.45, ry*0.6*t, rx*0.35*t),
					inside(y, x, cy-ry*0.1, cx+rx*0.45, ry*0.6*t, rx*0.35*t):
					v = phantomLung
				default:
					v = phantomTissue
				}

				dz, dy, dx := float64(z)-lesionZ, y-lesionY, x-lesionX
				if dz*dz+dy*dy+dx*dx <= lesionR*lesionR {
					v = phantomLesion
					labels[idx] = 1
				}
				data[idx] = int16(v)
			}
		}
	}

	vol, err := volume.NewVolume(shape, data)
	if err != nil {
		return nil, nil, err
	}
	lv, err := volume.NewLabelVolume(shape, labels)
	if err != nil {
		return nil, nil, err
	}
	return vol, lv, nil
}
