// Package interaction turns raw pointer, wheel and keyboard events into view
// state changes and decides how much of the displayed frame must be redrawn.
//
// The Controller is a state machine (Idle, HoverOnly, Dragging) driven by a
// closed set of event types. Domain behaviour (slicing, window/level) lives
// behind the Strategy interface, implemented by SlicerStrategy. The Viewer
// ties a Controller to a Presenter that composites frames for a FrameSink,
// and the Loop serialises events and timer callbacks onto one goroutine.
package interaction

import (
	"fmt"
	"strings"
	"time"
)

// EventType tags an input event.
type EventType int

const (
	EventPointerDown EventType = iota + 1
	EventPointerMove
	EventPointerUp
	EventPointerLeave
	EventWheel
	EventKeyDown
	EventContextMenu
)

var eventNames = map[EventType]string{
	EventPointerDown:  "pointerdown",
	EventPointerMove:  "pointermove",
	EventPointerUp:    "pointerup",
	EventPointerLeave: "pointerleave",
	EventWheel:        "wheel",
	EventKeyDown:      "keydown",
	EventContextMenu:  "contextmenu",
}

// browser mouse event names accepted as aliases
var eventAliases = map[string]EventType{
	"mousedown":  EventPointerDown,
	"mousemove":  EventPointerMove,
	"mouseup":    EventPointerUp,
	"mouseleave": EventPointerLeave,
	"mouseout":   EventPointerLeave,
}

func (t EventType) String() string {
	if s, ok := eventNames[t]; ok {
		return s
	}
	return fmt.Sprintf("EventType(%d)", int(t))
}

// ParseEventType parses an event type tag such as "pointerdown" or "mousedown".
func ParseEventType(s string) (EventType, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for t, name := range eventNames {
		if name == s {
			return t, nil
		}
	}
	if t, ok := eventAliases[s]; ok {
		return t, nil
	}
	return 0, fmt.Errorf("unknown event type %q", s)
}

// Button identifies a pointer button using DOM numbering.
type Button int

const (
	ButtonPrimary   Button = 0
	ButtonMiddle    Button = 1
	ButtonSecondary Button = 2
)

func (b Button) String() string {
	switch b {
	case ButtonPrimary:
		return "primary"
	case ButtonMiddle:
		return "middle"
	case ButtonSecondary:
		return "secondary"
	}
	return fmt.Sprintf("Button(%d)", int(b))
}

// Event is one input event from the UI collaborator. Coordinates are in
// display space; DisplayWidth and DisplayHeight are the size of the element
// as rendered on screen.
type Event struct {
	Type EventType

	// X, Y are only meaningful when HasPosition is set.
	X, Y        float64
	HasPosition bool

	DisplayWidth, DisplayHeight float64

	Button Button  // pointer events
	DeltaY float64 // wheel events
	Key    string  // keydown events

	// Time is when the event happened; zero means "now" for throttling.
	Time time.Time
}

// PointerEvent builds a positioned pointer event.
func PointerEvent(t EventType, x, y, displayWidth, displayHeight float64, b Button) Event {
	return Event{Type: t, X: x, Y: y, HasPosition: true, DisplayWidth: displayWidth, DisplayHeight: displayHeight, Button: b}
}

// WheelEvent builds a wheel event without position.
func WheelEvent(deltaY float64) Event {
	return Event{Type: EventWheel, DeltaY: deltaY}
}

// KeyEvent builds a keydown event.
func KeyEvent(key string) Event {
	return Event{Type: EventKeyDown, Key: key}
}

// RedrawClass says how much work a state change needs before display.
type RedrawClass int

const (
	// RedrawNone leaves the display alone.
	RedrawNone RedrawClass = iota
	// RedrawOverlay redraws transient graphics over the last composited base.
	RedrawOverlay
	// RedrawBase recomposites the slice before drawing the overlay.
	RedrawBase
)

// Merge returns the class covering both c and o.
func (c RedrawClass) Merge(o RedrawClass) RedrawClass {
	return max(c, o)
}

func (c RedrawClass) String() string {
	switch c {
	case RedrawNone:
		return "none"
	case RedrawOverlay:
		return "overlay"
	case RedrawBase:
		return "base"
	}
	return fmt.Sprintf("RedrawClass(%d)", int(c))
}
