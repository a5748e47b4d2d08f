package interaction

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Script is a recorded sequence of input events, replayable against a
// Viewer for demos and regression runs.
//
//	display: {width: 512, height: 512}
//	events:
//	  - {type: pointermove, x: 100, y: 80}
//	  - {type: wheel, deltaY: 1, repeat: 3, waitMs: 50}
//	  - {type: keydown, key: m}
type Script struct {
	Display struct {
		Width  float64 `yaml:"width"`
		Height float64 `yaml:"height"`
	} `yaml:"display"`
	Events []ScriptEvent `yaml:"events"`
}

// ScriptEvent is one scripted event. Display sizes default to the script's.
type ScriptEvent struct {
	Type   string   `yaml:"type"`
	X      *float64 `yaml:"x,omitempty"`
	Y      *float64 `yaml:"y,omitempty"`
	Width  float64  `yaml:"width,omitempty"`
	Height float64  `yaml:"height,omitempty"`
	Button int      `yaml:"button,omitempty"`
	DeltaY float64  `yaml:"deltaY,omitempty"`
	Key    string   `yaml:"key,omitempty"`

	// Repeat emits the event this many times (default once).
	Repeat int `yaml:"repeat,omitempty"`

	// WaitMs is the time before the event, used for its timestamp.
	WaitMs int `yaml:"waitMs,omitempty"`
}

// ParseScript decodes a YAML script into events. Timestamps start at
// start and advance by each event's WaitMs.
func ParseScript(data []byte, start time.Time) ([]Event, error) {
	var s Script
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("failed to parse script: %w", err)
	}

	var events []Event
	at := start
	for i, se := range s.Events {
		t, err := ParseEventType(se.Type)
		if err != nil {
			return nil, fmt.Errorf("event %d: %w", i, err)
		}
		if (se.X == nil) != (se.Y == nil) {
			return nil, fmt.Errorf("event %d: x and y must be given together", i)
		}
		ev := Event{
			Type:          t,
			Button:        Button(se.Button),
			DeltaY:        se.DeltaY,
			Key:           se.Key,
			DisplayWidth:  se.Width,
			DisplayHeight: se.Height,
		}
		if ev.DisplayWidth == 0 {
			ev.DisplayWidth = s.Display.Width
		}
		if ev.DisplayHeight == 0 {
			ev.DisplayHeight = s.Display.Height
		}
		if se.X != nil {
			ev.X, ev.Y = *se.X, *se.Y
			ev.HasPosition = true
		}
		for n := 0; n < max(se.Repeat, 1); n++ {
			at = at.Add(time.Duration(se.WaitMs) * time.Millisecond)
			ev.Time = at
			events = append(events, ev)
		}
	}
	return events, nil
}

// LoadScript reads and parses a script file.
func LoadScript(path string, start time.Time) ([]Event, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read script: %w", err)
	}
	return ParseScript(data, start)
}
