package interaction

import (
	"fmt"
	"image"

	"sliceviewer/internal/logging"
	"sliceviewer/pkg/compositor"
	"sliceviewer/pkg/framecache"
	"sliceviewer/pkg/volume"
)

// RenderJob produces a composited base frame. Jobs capture everything they
// need when created so they can run on another goroutine.
type RenderJob func() *image.NRGBA

// Drag is the state of an active drag gesture.
type Drag struct {
	Button Button
	Start  image.Point
	Last   image.Point

	// Window is the window at drag start, valid when HasWindow is set.
	Window    volume.Window
	HasWindow bool
}

// Strategy supplies the content-specific half of the viewer: how to build
// the base image and how wheel, drag and key input change the content.
// Methods that change content return the redraw class and a status line.
type Strategy interface {
	// BaseImage captures the current content as a render job.
	BaseImage() RenderJob

	// BufferSize is the size of the composited frame in pixels.
	BufferSize() (width, height int)

	OnWheel(deltaY float64) (RedrawClass, string)

	// OnDragStart may return a window snapshot for relative drag math.
	OnDragStart(b Button, pos image.Point) (volume.Window, bool)

	// OnDragMove handles non-primary drags.
	OnDragMove(d Drag, pos image.Point) (RedrawClass, string)

	OnHover(pos image.Point) string
	OnKey(key string, pos image.Point) (RedrawClass, string)
}

// SlicerStrategy drives a volume.State: the wheel and arrow keys step
// through slices, secondary drags change window/level, and keys toggle the
// mask and apply window presets.
type SlicerStrategy struct {
	state *volume.State
	cache *framecache.Cache

	// HoverRadius is the radius of the region reported by the "r" key.
	HoverRadius int

	// AutoLow and AutoHigh are the quantiles used by the "a" key.
	AutoLow, AutoHigh float64
}

// NewSlicerStrategy returns a strategy over state. cache may be nil.
func NewSlicerStrategy(state *volume.State, cache *framecache.Cache) *SlicerStrategy {
	return &SlicerStrategy{
		state:       state,
		cache:       cache,
		HoverRadius: 30,
		AutoLow:     0.01,
		AutoHigh:    0.99,
	}
}

// State returns the underlying volume state.
func (s *SlicerStrategy) State() *volume.State { return s.state }

// LoadCase replaces the volumes. On failure the previous case stays loaded
// and the error describes why.
func (s *SlicerStrategy) LoadCase(intensity *volume.Volume, labels *volume.LabelVolume) error {
	if err := s.state.SetVolume(intensity, labels); err != nil {
		logging.Logger().Warn("case rejected", "err", err)
		return fmt.Errorf("load case: %w", err)
	}
	shape := intensity.Shape()
	logging.Logger().Info("case loaded", "depth", shape.Depth, "rows", shape.Rows, "cols", shape.Cols, "labels", labels != nil)
	return nil
}

// BaseImage snapshots the current slice and returns a job compositing it.
func (s *SlicerStrategy) BaseImage() RenderJob {
	snap := s.state.Snapshot()
	cache := s.cache
	return func() *image.NRGBA {
		return cache.Render(snap, compositor.Render)
	}
}

// BufferSize returns the slice width (columns) and height (rows).
func (s *SlicerStrategy) BufferSize() (int, int) {
	shape := s.state.Shape()
	return shape.Cols, shape.Rows
}

// OnWheel steps one slice per event in the direction of deltaY.
func (s *SlicerStrategy) OnWheel(deltaY float64) (RedrawClass, string) {
	step := 0
	switch {
	case deltaY > 0:
		step = 1
	case deltaY < 0:
		step = -1
	}
	return s.stepSlice(step)
}

func (s *SlicerStrategy) stepSlice(step int) (RedrawClass, string) {
	if step == 0 {
		return RedrawNone, ""
	}
	cur := s.state.View().SliceIndex
	prev, next := s.state.UpdateView(volume.ViewPatch{SliceIndex: volume.Ptr(cur + step)})
	if !volume.BaseDirty(prev, next) {
		return RedrawNone, ""
	}
	return RedrawBase, fmt.Sprintf("Slice: %d/%d", next.SliceIndex, s.state.Shape().Depth-1)
}

// OnDragStart snapshots the window for secondary-button drags.
func (s *SlicerStrategy) OnDragStart(b Button, pos image.Point) (volume.Window, bool) {
	if b != ButtonSecondary {
		return volume.Window{}, false
	}
	return s.state.View().Window, true
}

// OnDragMove applies window/level from the total displacement since the
// drag started: horizontal motion widens (right) or narrows the window,
// vertical motion shifts the level (down raises it).
func (s *SlicerStrategy) OnDragMove(d Drag, pos image.Point) (RedrawClass, string) {
	if d.Button != ButtonSecondary || !d.HasWindow {
		return RedrawOverlay, fmt.Sprintf("Dragging: (%d, %d) -> (%d, %d)", d.Start.X, d.Start.Y, pos.X, pos.Y)
	}
	dx := float64(pos.X - d.Start.X)
	dy := float64(pos.Y - d.Start.Y)
	w := volume.Window{
		Low:  d.Window.Low + dy - dx/2,
		High: d.Window.High + dy + dx/2,
	}
	prev, next := s.state.UpdateView(volume.ViewPatch{Window: &w})
	msg := fmt.Sprintf("W/L: %g, %g", next.Window.Low, next.Window.High)
	if !volume.BaseDirty(prev, next) {
		return RedrawOverlay, msg
	}
	return RedrawBase, msg
}

// OnHover reports the intensity under the pointer.
func (s *SlicerStrategy) OnHover(pos image.Point) string {
	v, ok := s.state.ValueAt(pos.Y, pos.X)
	if !ok {
		return fmt.Sprintf("Hover: (%d, %d) | Val: N/A", pos.X, pos.Y)
	}
	return fmt.Sprintf("Hover: (%d, %d) | Val: %d", pos.X, pos.Y, v)
}

// OnKey handles slicing, mask and window shortcuts.
func (s *SlicerStrategy) OnKey(key string, pos image.Point) (RedrawClass, string) {
	switch key {
	case "ArrowUp":
		return s.stepSlice(1)
	case "ArrowDown":
		return s.stepSlice(-1)
	case "m":
		on := !s.state.View().MaskOn
		s.state.UpdateView(volume.ViewPatch{MaskOn: &on})
		return RedrawBase, fmt.Sprintf("Mask: %v", on)
	case "i":
		only := !s.state.View().OnlyMask
		s.state.UpdateView(volume.ViewPatch{OnlyMask: &only})
		return RedrawBase, fmt.Sprintf("Image: %v", !only)
	case "1":
		return s.setWindow(volume.LungWindow, "Lung")
	case "2":
		return s.setWindow(volume.MediastinumWindow, "Mediastinum")
	case "3":
		return s.setWindow(volume.BoneWindow, "Bone")
	case "a":
		w, ok := s.state.AutoWindow(s.AutoLow, s.AutoHigh)
		if !ok {
			return RedrawNone, "Auto window unavailable"
		}
		return s.setWindow(w, "Auto")
	case "r":
		st, ok := s.state.RegionStats(pos.Y, pos.X, s.HoverRadius)
		if !ok {
			return RedrawNone, "ROI: N/A"
		}
		return RedrawNone, fmt.Sprintf("ROI (%d, %d) r=%d: mean %.1f sd %.1f min %g max %g n=%d",
			pos.X, pos.Y, s.HoverRadius, st.Mean, st.StdDev, st.Min, st.Max, st.Count)
	}
	return RedrawNone, fmt.Sprintf("Key: %s", key)
}

func (s *SlicerStrategy) setWindow(w volume.Window, name string) (RedrawClass, string) {
	prev, next := s.state.UpdateView(volume.ViewPatch{Window: &w})
	msg := fmt.Sprintf("%s window: %g, %g", name, next.Window.Low, next.Window.High)
	if !volume.BaseDirty(prev, next) {
		return RedrawNone, msg
	}
	return RedrawBase, msg
}
