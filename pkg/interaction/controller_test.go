package interaction

import (
	"image"
	"strings"
	"testing"
	"time"

	"sliceviewer/pkg/config"
	"sliceviewer/pkg/volume"
)

const testSize = 64

func newTestState(t *testing.T, withLabels bool) *volume.State {
	t.Helper()
	shape := volume.Shape{Depth: 10, Rows: testSize, Cols: testSize}
	vol, err := volume.NewVolume(shape, make([]int16, shape.Len()))
	if err != nil {
		t.Fatalf("Failed to create volume: %v", err)
	}
	var lv *volume.LabelVolume
	if withLabels {
		lv, err = volume.NewLabelVolume(shape, make([]uint8, shape.Len()))
		if err != nil {
			t.Fatalf("Failed to create label volume: %v", err)
		}
	}
	st, err := volume.NewState(vol, lv)
	if err != nil {
		t.Fatalf("Failed to create state: %v", err)
	}
	return st
}

func at(t EventType, x, y float64, b Button) Event {
	return PointerEvent(t, x, y, testSize, testSize, b)
}

type fakeTimer struct{ stopped bool }

func (t *fakeTimer) Stop() bool {
	was := !t.stopped
	t.stopped = true
	return was
}

type fakeScheduler struct {
	delays []time.Duration
	fns    []func()
	timers []*fakeTimer
}

func (s *fakeScheduler) AfterFunc(d time.Duration, f func()) Timer {
	tm := &fakeTimer{}
	s.delays = append(s.delays, d)
	s.fns = append(s.fns, f)
	s.timers = append(s.timers, tm)
	return tm
}

// TestSecondaryDragWindowLevel verifies a secondary drag adjusts the window from the drag start
func TestSecondaryDragWindowLevel(t *testing.T) {
	st := newTestState(t, false)
	ctrl := NewController(NewSlicerStrategy(st, nil), ControllerOptions{})

	if cls := ctrl.Handle(at(EventPointerDown, 10, 30, ButtonSecondary)); cls != RedrawOverlay {
		t.Errorf("Expected overlay redraw on press, got %v", cls)
	}
	if ctrl.Mode() != ModeDragging {
		t.Fatalf("Expected dragging mode, got %v", ctrl.Mode())
	}

	cls := ctrl.Handle(at(EventPointerMove, 50, 10, ButtonSecondary))
	if cls != RedrawBase {
		t.Errorf("Expected base redraw during window drag, got %v", cls)
	}
	w := st.View().Window
	if w.Low != -170 || w.High != 600 {
		t.Errorf("Expected window (-170, 600), got (%g, %g)", w.Low, w.High)
	}

	// displacement is measured from the drag start, not the last move
	ctrl.Handle(at(EventPointerMove, 50, 10, ButtonSecondary))
	if w := st.View().Window; w.Low != -170 || w.High != 600 {
		t.Errorf("Expected repeated position to keep (-170, 600), got (%g, %g)", w.Low, w.High)
	}

	if cls := ctrl.Handle(at(EventPointerUp, 50, 10, ButtonSecondary)); cls != RedrawOverlay {
		t.Errorf("Expected overlay redraw on release, got %v", cls)
	}
	if ctrl.Mode() != ModeIdle {
		t.Errorf("Expected idle after release, got %v", ctrl.Mode())
	}
}

// TestWheelStepsSlices verifies wheel events step the slice and stop at the volume ends
func TestWheelStepsSlices(t *testing.T) {
	st := newTestState(t, false)
	ctrl := NewController(NewSlicerStrategy(st, nil), ControllerOptions{})

	st.UpdateView(volume.ViewPatch{SliceIndex: volume.Ptr(5)})
	if cls := ctrl.Handle(WheelEvent(120)); cls != RedrawBase {
		t.Errorf("Expected base redraw, got %v", cls)
	}
	if got := st.View().SliceIndex; got != 6 {
		t.Errorf("Expected slice 6, got %d", got)
	}

	ctrl.Handle(WheelEvent(-3))
	if got := st.View().SliceIndex; got != 5 {
		t.Errorf("Expected slice 5 after scrolling back, got %d", got)
	}

	st.UpdateView(volume.ViewPatch{SliceIndex: volume.Ptr(9)})
	if cls := ctrl.Handle(WheelEvent(1)); cls != RedrawNone {
		t.Errorf("Expected no redraw at the last slice, got %v", cls)
	}
	if got := st.View().SliceIndex; got != 9 {
		t.Errorf("Expected slice to stay at 9, got %d", got)
	}

	if cls := ctrl.Handle(WheelEvent(0)); cls != RedrawNone {
		t.Errorf("Expected zero delta to be ignored, got %v", cls)
	}
}

// TestHoverAndLeave verifies hovering tracks the pointer and leaving returns to idle
func TestHoverAndLeave(t *testing.T) {
	st := newTestState(t, false)
	var status []string
	ctrl := NewController(NewSlicerStrategy(st, nil), ControllerOptions{
		HoverRadius: 30,
		Status:      StatusFunc(func(s string) { status = append(status, s) }),
	})

	if cls := ctrl.Handle(at(EventPointerUp, 1, 1, ButtonPrimary)); cls != RedrawNone {
		t.Errorf("Expected release outside a drag to be ignored, got %v", cls)
	}

	if cls := ctrl.Handle(at(EventPointerMove, 12, 7, ButtonPrimary)); cls != RedrawOverlay {
		t.Errorf("Expected overlay redraw on hover, got %v", cls)
	}
	if ctrl.Mode() != ModeHoverOnly {
		t.Errorf("Expected hover mode, got %v", ctrl.Mode())
	}
	if ctrl.Position() != image.Pt(12, 7) {
		t.Errorf("Expected position (12,7), got %v", ctrl.Position())
	}
	if len(status) == 0 || status[len(status)-1] != "Hover: (12, 7) | Val: 0" {
		t.Errorf("Unexpected hover status %v", status)
	}
	if ov := ctrl.Overlay(); !ov.ShowHover || ov.HoverRadius != 30 {
		t.Errorf("Expected hover circle in overlay, got %+v", ov)
	}

	if cls := ctrl.Handle(Event{Type: EventPointerLeave}); cls != RedrawOverlay {
		t.Errorf("Expected overlay redraw on leave, got %v", cls)
	}
	if ctrl.Mode() != ModeIdle {
		t.Errorf("Expected idle after leave, got %v", ctrl.Mode())
	}
	if ctrl.Overlay().ShowHover {
		t.Error("Expected hover circle hidden after leave")
	}
}

// TestPositionScaledFromDisplay verifies pointer positions are mapped from display to volume coordinates
func TestPositionScaledFromDisplay(t *testing.T) {
	st := newTestState(t, false)
	ctrl := NewController(NewSlicerStrategy(st, nil), ControllerOptions{})

	// a 64x64 buffer shown at 256x128
	ctrl.Handle(PointerEvent(EventPointerMove, 100, 100, 256, 128, ButtonPrimary))
	if got := ctrl.Position(); got != image.Pt(25, 50) {
		t.Errorf("Expected (25, 50), got %v", got)
	}

	ctrl.Handle(PointerEvent(EventPointerMove, 1000, -5, 256, 128, ButtonPrimary))
	if got := ctrl.Position(); got != image.Pt(63, 0) {
		t.Errorf("Expected clamped (63, 0), got %v", got)
	}
}

// TestCrosshairExpiry verifies the crosshair clears after its delay and stale timers are ignored
func TestCrosshairExpiry(t *testing.T) {
	st := newTestState(t, false)
	sched := &fakeScheduler{}
	ctrl := NewController(NewSlicerStrategy(st, nil), ControllerOptions{
		Scheduler:      sched,
		CrosshairDelay: 500 * time.Millisecond,
	})
	var redraws []RedrawClass
	ctrl.OnRedraw(func(c RedrawClass) { redraws = append(redraws, c) })

	ctrl.Handle(at(EventPointerDown, 5, 5, ButtonPrimary))
	ctrl.Handle(at(EventPointerUp, 5, 5, ButtonPrimary))
	ctrl.Handle(at(EventPointerDown, 9, 9, ButtonPrimary))

	if len(sched.fns) != 2 {
		t.Fatalf("Expected 2 scheduled timers, got %d", len(sched.fns))
	}
	if sched.delays[0] != 500*time.Millisecond {
		t.Errorf("Expected 500ms delay, got %v", sched.delays[0])
	}
	if !sched.timers[0].stopped {
		t.Error("Expected the first timer to be cancelled")
	}

	// a stale callback that raced its cancellation must not hide the new crosshair
	sched.fns[0]()
	if !ctrl.Overlay().ShowCrosshair {
		t.Error("Expected stale timer to leave the crosshair visible")
	}
	if len(redraws) != 0 {
		t.Errorf("Expected no redraw from a stale timer, got %v", redraws)
	}

	sched.fns[1]()
	ov := ctrl.Overlay()
	if ov.ShowCrosshair {
		t.Error("Expected crosshair hidden after expiry")
	}
	if len(redraws) != 1 || redraws[0] != RedrawOverlay {
		t.Errorf("Expected one overlay redraw, got %v", redraws)
	}
}

// TestKeys verifies keyboard shortcuts change the view and report their status
func TestKeys(t *testing.T) {
	st := newTestState(t, true)
	ctrl := NewController(NewSlicerStrategy(st, nil), ControllerOptions{})

	tests := []struct {
		key   string
		want  RedrawClass
		check func() bool
	}{
		{"m", RedrawBase, func() bool { return st.View().MaskOn }},
		{"i", RedrawBase, func() bool { return st.View().OnlyMask }},
		{"ArrowUp", RedrawBase, func() bool { return st.View().SliceIndex == 1 }},
		{"ArrowDown", RedrawBase, func() bool { return st.View().SliceIndex == 0 }},
		{"ArrowDown", RedrawNone, func() bool { return st.View().SliceIndex == 0 }},
		{"1", RedrawBase, func() bool { return st.View().Window == volume.LungWindow }},
		{"1", RedrawNone, func() bool { return st.View().Window == volume.LungWindow }},
		{"3", RedrawBase, func() bool { return st.View().Window == volume.BoneWindow }},
		{"r", RedrawNone, func() bool { return true }},
		{"q", RedrawNone, func() bool { return true }},
	}
	for i, tt := range tests {
		if got := ctrl.Handle(KeyEvent(tt.key)); got != tt.want {
			t.Errorf("%d %q: expected %v, got %v", i, tt.key, tt.want, got)
		}
		if !tt.check() {
			t.Errorf("%d %q: unexpected state %+v", i, tt.key, st.View())
		}
	}
}

// TestZoomKeys verifies zoom keys step the display zoom within its limits
func TestZoomKeys(t *testing.T) {
	st := newTestState(t, false)
	ctrl := NewController(NewSlicerStrategy(st, nil), ControllerOptions{})

	if cls := ctrl.Handle(KeyEvent(".")); cls != RedrawOverlay {
		t.Errorf("Expected overlay redraw for zoom, got %v", cls)
	}
	if z := ctrl.Overlay().Zoom; z <= 1 {
		t.Errorf("Expected zoom above 1, got %g", z)
	}
	for i := 0; i < 50; i++ {
		ctrl.Handle(KeyEvent(","))
	}
	if z := ctrl.Zoom(); z != minZoom {
		t.Errorf("Expected zoom clamped to %g, got %g", minZoom, z)
	}
}

// TestPaintStroke verifies a primary drag with the brush enabled paints labels
func TestPaintStroke(t *testing.T) {
	st := newTestState(t, true)
	brush := &LabelBrush{State: st, Radius: 0, Label: 1}
	ctrl := NewController(NewSlicerStrategy(st, nil), ControllerOptions{Painter: brush, Painting: true})

	ctrl.Handle(at(EventPointerDown, 2, 3, ButtonPrimary))
	if cls := ctrl.Handle(at(EventPointerMove, 6, 3, ButtonPrimary)); cls != RedrawOverlay {
		t.Errorf("Expected overlay redraw while painting, got %v", cls)
	}
	if ov := ctrl.Overlay(); len(ov.Stroke) != 2 || ov.DragButton != ButtonPrimary {
		t.Errorf("Expected 2 stroke points in overlay, got %+v", ov)
	}
	if cls := ctrl.Handle(at(EventPointerUp, 6, 3, ButtonPrimary)); cls != RedrawBase {
		t.Errorf("Expected base redraw after painting labels, got %v", cls)
	}
	for x := 2; x <= 6; x++ {
		if got := st.LabelAt(3, x); got != 1 {
			t.Errorf("Expected label 1 at (%d,3), got %d", x, got)
		}
	}
	if got := st.LabelAt(4, 4); got != 0 {
		t.Errorf("Expected untouched label at (4,4), got %d", got)
	}

	// repainting the same voxels changes nothing
	ctrl.Handle(at(EventPointerDown, 2, 3, ButtonPrimary))
	if cls := ctrl.Handle(at(EventPointerUp, 2, 3, ButtonPrimary)); cls != RedrawOverlay {
		t.Errorf("Expected overlay-only redraw for a no-op stroke, got %v", cls)
	}

	// "d" turns painting off
	ctrl.Handle(KeyEvent("d"))
	ctrl.Handle(at(EventPointerDown, 20, 20, ButtonPrimary))
	ctrl.Handle(at(EventPointerUp, 20, 20, ButtonPrimary))
	if got := st.LabelAt(20, 20); got != 0 {
		t.Errorf("Expected no painting after toggling the tool off, got %d", got)
	}
}

// TestPrimaryDragWithDefaultConfig verifies that with the default
// configuration a primary drag over a labelled case only redraws the overlay
// and leaves the label volume untouched.
func TestPrimaryDragWithDefaultConfig(t *testing.T) {
	cfg := config.DefaultConfig()
	st := newTestState(t, true)
	ctrl := NewController(NewSlicerStrategy(st, nil), ControllerOptions{
		Painter:  &LabelBrush{State: st, Radius: cfg.Mask.BrushRadius, Label: cfg.Mask.BrushLabel},
		Painting: cfg.Mask.Paint && st.HasLabels(),
	})
	rev := st.Revision()

	steps := []Event{
		at(EventPointerDown, 10, 10, ButtonPrimary),
		at(EventPointerMove, 20, 10, ButtonPrimary),
		at(EventPointerUp, 20, 10, ButtonPrimary),
	}
	for _, ev := range steps {
		if cls := ctrl.Handle(ev); cls != RedrawOverlay {
			t.Errorf("%v: expected overlay redraw, got %v", ev.Type, cls)
		}
	}
	if st.Revision() != rev {
		t.Errorf("Expected revision %d, got %d", rev, st.Revision())
	}
	if got := st.LabelAt(10, 15); got != 0 {
		t.Errorf("Expected label 0 along the drag, got %d", got)
	}
}

// TestMiddleDragOnlyReports verifies a middle drag reports its position without changing the view
func TestMiddleDragOnlyReports(t *testing.T) {
	st := newTestState(t, false)
	var last string
	ctrl := NewController(NewSlicerStrategy(st, nil), ControllerOptions{
		Status: StatusFunc(func(s string) { last = s }),
	})
	before := st.View()

	ctrl.Handle(at(EventPointerDown, 1, 1, ButtonMiddle))
	if cls := ctrl.Handle(at(EventPointerMove, 30, 40, ButtonMiddle)); cls != RedrawOverlay {
		t.Errorf("Expected overlay redraw, got %v", cls)
	}
	if st.View() != before {
		t.Errorf("Expected view unchanged, got %+v", st.View())
	}
	if !strings.HasPrefix(last, "Dragging:") {
		t.Errorf("Expected dragging status, got %q", last)
	}
}

// TestContextMenuIgnored verifies context menu events cause no redraw or mode change
func TestContextMenuIgnored(t *testing.T) {
	st := newTestState(t, false)
	ctrl := NewController(NewSlicerStrategy(st, nil), ControllerOptions{})
	if cls := ctrl.Handle(at(EventContextMenu, 3, 3, ButtonSecondary)); cls != RedrawNone {
		t.Errorf("Expected context menu to be ignored, got %v", cls)
	}
	if ctrl.Mode() != ModeIdle {
		t.Errorf("Expected idle, got %v", ctrl.Mode())
	}
}

// TestLoadCaseKeepsPreviousOnMismatch verifies a mismatched case leaves the loaded one in place
func TestLoadCaseKeepsPreviousOnMismatch(t *testing.T) {
	st := newTestState(t, false)
	s := NewSlicerStrategy(st, nil)

	vol, _ := volume.NewVolume(volume.Shape{Depth: 2, Rows: 3, Cols: 3}, make([]int16, 18))
	lv, _ := volume.NewLabelVolume(volume.Shape{Depth: 2, Rows: 3, Cols: 4}, make([]uint8, 24))
	if err := s.LoadCase(vol, lv); err == nil {
		t.Error("Expected mismatched shapes to be rejected")
	}
	if w, h := s.BufferSize(); w != testSize || h != testSize {
		t.Errorf("Expected previous case to stay loaded, got %dx%d", w, h)
	}

	if err := s.LoadCase(vol, nil); err != nil {
		t.Fatalf("Failed to load case: %v", err)
	}
	if w, h := s.BufferSize(); w != 3 || h != 3 {
		t.Errorf("Expected 3x3 buffer, got %dx%d", w, h)
	}
}
