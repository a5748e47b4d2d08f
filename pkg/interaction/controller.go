package interaction

import (
	"fmt"
	"image"
	"time"

	"sliceviewer/internal/logging"
	"sliceviewer/pkg/viewport"
)

// Mode is the interaction state of a Controller.
type Mode int

const (
	ModeIdle Mode = iota
	ModeHoverOnly
	ModeDragging
)

func (m Mode) String() string {
	switch m {
	case ModeIdle:
		return "idle"
	case ModeHoverOnly:
		return "hover"
	case ModeDragging:
		return "dragging"
	}
	return fmt.Sprintf("Mode(%d)", int(m))
}

// StatusSink receives one-line status messages.
type StatusSink interface {
	SetStatus(msg string)
}

// StatusFunc adapts a function to StatusSink.
type StatusFunc func(msg string)

// SetStatus calls f(msg).
func (f StatusFunc) SetStatus(msg string) { f(msg) }

const (
	minZoom  = 0.5
	maxZoom  = 4.0
	zoomStep = 1.1
)

// ControllerOptions configures a Controller. Zero values disable the
// corresponding feature.
type ControllerOptions struct {
	// Scheduler expires the click crosshair after CrosshairDelay.
	Scheduler      Scheduler
	CrosshairDelay time.Duration

	// Painter receives primary-button strokes while painting is enabled.
	Painter  Painter
	Painting bool

	Status      StatusSink
	HoverRadius int
}

// Controller interprets input events. It is not safe for concurrent use:
// events and scheduled callbacks must arrive on one goroutine.
type Controller struct {
	strategy Strategy
	opts     ControllerOptions

	// onRedraw is told about redraws not caused by Handle, such as the
	// crosshair expiring.
	onRedraw func(RedrawClass)

	mode     Mode
	pos      image.Point
	drag     Drag
	stroke   []image.Point
	painting bool
	zoom     float64

	crosshair        image.Point
	crosshairVisible bool
	crosshairGen     uint64
	crosshairTimer   Timer
}

// NewController returns a Controller in the Idle state.
func NewController(strategy Strategy, opts ControllerOptions) *Controller {
	return &Controller{
		strategy: strategy,
		opts:     opts,
		painting: opts.Painting && opts.Painter != nil,
		zoom:     1,
	}
}

// OnRedraw registers the callback for redraws triggered outside Handle.
func (c *Controller) OnRedraw(f func(RedrawClass)) { c.onRedraw = f }

// Mode returns the interaction state.
func (c *Controller) Mode() Mode { return c.mode }

// Position returns the last pointer position in buffer coordinates.
func (c *Controller) Position() image.Point { return c.pos }

// Zoom returns the display zoom factor.
func (c *Controller) Zoom() float64 { return c.zoom }

// SetZoom sets the display zoom factor, clamped to the supported range.
func (c *Controller) SetZoom(z float64) {
	if z <= 0 {
		z = 1
	}
	c.zoom = min(max(z, minZoom), maxZoom)
}

// Handle applies ev and returns the redraw it requires.
func (c *Controller) Handle(ev Event) RedrawClass {
	if ev.Type == EventContextMenu {
		return RedrawNone
	}
	if ev.HasPosition {
		w, h := c.strategy.BufferSize()
		x, y, _ := viewport.Mapper{BufferWidth: w, BufferHeight: h}.Map(ev.X, ev.Y, ev.DisplayWidth, ev.DisplayHeight)
		c.pos = image.Pt(x, y)
	}

	switch ev.Type {
	case EventPointerDown:
		return c.dragStart(ev.Button)
	case EventPointerMove:
		return c.move()
	case EventPointerUp, EventPointerLeave:
		return c.release(ev.Type)
	case EventWheel:
		cls, msg := c.strategy.OnWheel(ev.DeltaY)
		c.setStatus(msg)
		return cls
	case EventKeyDown:
		return c.key(ev.Key)
	}
	logging.Logger().Debug("ignored event", "type", ev.Type)
	return RedrawNone
}

func (c *Controller) dragStart(b Button) RedrawClass {
	cls := c.finishStroke()

	c.mode = ModeDragging
	c.drag = Drag{Button: b, Start: c.pos, Last: c.pos}
	if w, ok := c.strategy.OnDragStart(b, c.pos); ok {
		c.drag.Window = w
		c.drag.HasWindow = true
	}
	if b == ButtonPrimary && c.painting {
		c.opts.Painter.BeginStroke(c.pos)
		c.stroke = []image.Point{c.pos}
	}
	c.showCrosshair(c.pos)
	c.setStatus(fmt.Sprintf("Drag Start: (%d, %d)", c.pos.X, c.pos.Y))
	return cls.Merge(RedrawOverlay)
}

func (c *Controller) move() RedrawClass {
	if c.mode != ModeDragging {
		c.mode = ModeHoverOnly
		c.setStatus(c.strategy.OnHover(c.pos))
		return RedrawOverlay
	}

	from := c.drag.Last
	c.drag.Last = c.pos
	if c.drag.Button == ButtonPrimary {
		if c.stroke != nil {
			c.opts.Painter.Segment(from, c.pos)
			c.stroke = append(c.stroke, c.pos)
		}
		c.setStatus(fmt.Sprintf("Dragging: (%d, %d) -> (%d, %d)", c.drag.Start.X, c.drag.Start.Y, c.pos.X, c.pos.Y))
		return RedrawOverlay
	}
	cls, msg := c.strategy.OnDragMove(c.drag, c.pos)
	c.setStatus(msg)
	return cls
}

func (c *Controller) release(t EventType) RedrawClass {
	switch c.mode {
	case ModeDragging:
		cls := c.finishStroke().Merge(RedrawOverlay)
		c.mode = ModeIdle
		c.drag = Drag{}
		c.setStatus(fmt.Sprintf("Drag End: (%d, %d)", c.pos.X, c.pos.Y))
		return cls
	case ModeHoverOnly:
		if t == EventPointerLeave {
			c.mode = ModeIdle
			return RedrawOverlay
		}
	}
	return RedrawNone
}

// finishStroke ends an active paint stroke. Label edits need a new base.
func (c *Controller) finishStroke() RedrawClass {
	if c.stroke == nil {
		return RedrawNone
	}
	c.stroke = nil
	if c.opts.Painter.EndStroke() {
		return RedrawBase
	}
	return RedrawNone
}

func (c *Controller) key(k string) RedrawClass {
	switch k {
	case ".":
		c.SetZoom(c.zoom * zoomStep)
		c.setStatus(fmt.Sprintf("Zoom: %.2f", c.zoom))
		return RedrawOverlay
	case ",":
		c.SetZoom(c.zoom / zoomStep)
		c.setStatus(fmt.Sprintf("Zoom: %.2f", c.zoom))
		return RedrawOverlay
	case "d":
		if c.opts.Painter == nil {
			return RedrawNone
		}
		cls := c.finishStroke()
		c.painting = !c.painting
		c.setStatus(fmt.Sprintf("Draw: %v", c.painting))
		return cls
	}
	cls, msg := c.strategy.OnKey(k, c.pos)
	c.setStatus(msg)
	return cls
}

func (c *Controller) showCrosshair(p image.Point) {
	if c.crosshairTimer != nil {
		c.crosshairTimer.Stop()
		c.crosshairTimer = nil
	}
	c.crosshairGen++
	c.crosshair = p
	c.crosshairVisible = true
	if c.opts.Scheduler == nil || c.opts.CrosshairDelay <= 0 {
		return
	}
	gen := c.crosshairGen
	c.crosshairTimer = c.opts.Scheduler.AfterFunc(c.opts.CrosshairDelay, func() {
		c.expireCrosshair(gen)
	})
}

// expireCrosshair hides the crosshair unless a newer one replaced it.
func (c *Controller) expireCrosshair(gen uint64) {
	if gen != c.crosshairGen || !c.crosshairVisible {
		return
	}
	c.crosshairVisible = false
	c.crosshairTimer = nil
	if c.onRedraw != nil {
		c.onRedraw(RedrawOverlay)
	}
}

// Close cancels the pending crosshair timer.
func (c *Controller) Close() {
	if c.crosshairTimer != nil {
		c.crosshairTimer.Stop()
		c.crosshairTimer = nil
	}
	c.crosshairGen++
}

func (c *Controller) setStatus(msg string) {
	if msg == "" || c.opts.Status == nil {
		return
	}
	c.opts.Status.SetStatus(msg)
}

// Overlay returns the transient graphics for the current state.
func (c *Controller) Overlay() OverlayState {
	ov := OverlayState{
		Hover:         c.pos,
		ShowHover:     c.mode == ModeHoverOnly && c.opts.HoverRadius > 0,
		HoverRadius:   c.opts.HoverRadius,
		Crosshair:     c.crosshair,
		ShowCrosshair: c.crosshairVisible,
		Zoom:          c.zoom,
	}
	if c.mode == ModeDragging {
		ov.Dragging = true
		ov.DragButton = c.drag.Button
		ov.DragStart = c.drag.Start
		ov.DragPos = c.pos
		if len(c.stroke) > 0 {
			ov.Stroke = append([]image.Point(nil), c.stroke...)
		}
	}
	return ov
}
