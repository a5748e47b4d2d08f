package volume

import (
	"slices"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// RegionStats summarises the intensities inside a circular region.
type RegionStats struct {
	Mean, StdDev float64
	Min, Max     float64
	Count        int
}

// RegionStats computes statistics of the current slice inside the circle of
// the given radius centred at (row, col). The boolean is false when the
// circle does not touch the slice.
func (s *State) RegionStats(row, col, radius int) (RegionStats, bool) {
	shape := s.intensity.Shape()
	plane := s.intensity.Slice(s.view.SliceIndex)
	var values []float64
	r2 := radius * radius
	for r := max(0, row-radius); r <= min(shape.Rows-1, row+radius); r++ {
		for c := max(0, col-radius); c <= min(shape.Cols-1, col+radius); c++ {
			dr, dc := r-row, c-col
			if dr*dr+dc*dc > r2 {
				continue
			}
			values = append(values, float64(plane[r*shape.Cols+c]))
		}
	}
	if len(values) == 0 {
		return RegionStats{}, false
	}
	mean, std := stat.MeanStdDev(values, nil)
	if len(values) == 1 {
		std = 0
	}
	return RegionStats{
		Mean:   mean,
		StdDev: std,
		Min:    floats.Min(values),
		Max:    floats.Max(values),
		Count:  len(values),
	}, true
}

// AutoWindow derives a window from the lowQ and highQ quantiles (0..1) of
// the current slice. The result is clamped like any other window; the
// boolean is false for invalid quantiles.
func (s *State) AutoWindow(lowQ, highQ float64) (Window, bool) {
	if lowQ < 0 || highQ > 1 || lowQ >= highQ {
		return Window{}, false
	}
	plane := s.intensity.Slice(s.view.SliceIndex)
	values := make([]float64, len(plane))
	for i, v := range plane {
		values[i] = float64(v)
	}
	slices.Sort(values)
	w := Window{
		Low:  stat.Quantile(lowQ, stat.Empirical, values, nil),
		High: stat.Quantile(highQ, stat.Empirical, values, nil),
	}
	return ClampWindow(w, s.bounds), true
}
