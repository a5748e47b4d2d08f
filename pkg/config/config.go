// Package config provides configuration loading and management for sliceviewer.
// It handles loading configuration from YAML or TOML files and provides default values.
package config

import (
	"bytes"
	"fmt"
	"image/color"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"sliceviewer/pkg/labels"
	"sliceviewer/pkg/volume"
)

// LabelEntry describes one label of a custom scheme
type LabelEntry struct {
	Value uint8  `yaml:"value" toml:"value"`
	Name  string `yaml:"name" toml:"name"`
	Color string `yaml:"color" toml:"color"` // #rrggbb or #rrggbbaa
}

// Config represents the application configuration
type Config struct {
	// Viewer controls interaction and feedback
	Viewer struct {
		// FPS is the maximum rate of pointer move and wheel events
		FPS int `yaml:"fps" toml:"fps"`

		// CrosshairDelayMs is how long the click crosshair stays visible
		CrosshairDelayMs int `yaml:"crosshairDelayMs" toml:"crosshair_delay_ms"`

		// HoverRadius is the radius of the hover circle in buffer pixels
		HoverRadius int `yaml:"hoverRadius" toml:"hover_radius"`

		// Overlay enables the hover circle, drag line and crosshair graphics
		Overlay bool `yaml:"overlay" toml:"overlay"`

		// Async renders frames on a background goroutine
		Async bool `yaml:"async" toml:"async"`

		// Zoom is the initial display zoom of file sinks
		Zoom float64 `yaml:"zoom" toml:"zoom"`
	} `yaml:"viewer" toml:"viewer"`

	// Window holds the initial intensity window and its limits
	Window struct {
		Low  float64 `yaml:"low" toml:"low"`
		High float64 `yaml:"high" toml:"high"`

		// Min and Max bound every window reachable by dragging
		Min float64 `yaml:"min" toml:"min"`
		Max float64 `yaml:"max" toml:"max"`

		// AutoLow and AutoHigh are the quantiles used by auto-windowing
		AutoLow  float64 `yaml:"autoLow" toml:"auto_low"`
		AutoHigh float64 `yaml:"autoHigh" toml:"auto_high"`
	} `yaml:"window" toml:"window"`

	// Mask controls the label overlay
	Mask struct {
		Opacity  int  `yaml:"opacity" toml:"opacity"`
		On       bool `yaml:"on" toml:"on"`
		OnlyMask bool `yaml:"onlyMask" toml:"only_mask"`

		// Paint starts the annotation brush enabled; "d" toggles it
		Paint bool `yaml:"paint" toml:"paint"`

		// BrushRadius and BrushLabel configure the annotation brush
		BrushRadius int   `yaml:"brushRadius" toml:"brush_radius"`
		BrushLabel  uint8 `yaml:"brushLabel" toml:"brush_label"`

		// Scheme names a built-in label scheme; ignored when Labels is set
		Scheme string `yaml:"scheme" toml:"scheme"`

		// Labels defines a custom scheme
		Labels []LabelEntry `yaml:"labels,omitempty" toml:"labels,omitempty"`
	} `yaml:"mask" toml:"mask"`

	// Cache bounds the composited frame cache
	Cache struct {
		Entries int `yaml:"entries" toml:"entries"`
	} `yaml:"cache" toml:"cache"`

	// Export controls frame sequence export
	Export struct {
		DelayMs int    `yaml:"delayMs" toml:"delay_ms"`
		Workers int    `yaml:"workers" toml:"workers"`
		Prefix  string `yaml:"prefix" toml:"prefix"`
	} `yaml:"export" toml:"export"`

	// Loader controls image stack decoding
	Loader struct {
		// Slope and Intercept rescale stored pixel values to intensities
		Slope     float64 `yaml:"slope" toml:"slope"`
		Intercept float64 `yaml:"intercept" toml:"intercept"`
	} `yaml:"loader" toml:"loader"`

	// Logging controls log output
	Logging struct {
		File    string `yaml:"file" toml:"file"`
		Level   string `yaml:"level" toml:"level"`
		MaxSize int    `yaml:"maxSize" toml:"max_size"`
		MaxAge  int    `yaml:"maxAge" toml:"max_age"`
	} `yaml:"logging" toml:"logging"`
}

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	cfg := &Config{}

	cfg.Viewer.FPS = 10
	cfg.Viewer.CrosshairDelayMs = 500
	cfg.Viewer.HoverRadius = 30
	cfg.Viewer.Overlay = true
	cfg.Viewer.Async = false
	cfg.Viewer.Zoom = 1.0

	view := volume.DefaultViewState()
	cfg.Window.Low = view.Window.Low
	cfg.Window.High = view.Window.High
	cfg.Window.Min = volume.DefaultBounds.Min
	cfg.Window.Max = volume.DefaultBounds.Max
	cfg.Window.AutoLow = 0.01
	cfg.Window.AutoHigh = 0.99

	cfg.Mask.Opacity = view.MaskOpacity
	cfg.Mask.On = view.MaskOn
	cfg.Mask.OnlyMask = view.OnlyMask
	cfg.Mask.Paint = false
	cfg.Mask.BrushRadius = 2
	cfg.Mask.BrushLabel = 1
	cfg.Mask.Scheme = labels.Default.Name

	cfg.Cache.Entries = 64

	cfg.Export.DelayMs = 100
	cfg.Export.Workers = runtime.NumCPU()
	cfg.Export.Prefix = "img"

	cfg.Loader.Slope = 1
	cfg.Loader.Intercept = 0

	cfg.Logging.Level = "info"
	cfg.Logging.MaxSize = 100
	cfg.Logging.MaxAge = 30

	return cfg
}

// CrosshairDelay returns the crosshair lifetime
func (c *Config) CrosshairDelay() time.Duration {
	return time.Duration(c.Viewer.CrosshairDelayMs) * time.Millisecond
}

// EventInterval returns the minimum spacing of move and wheel events
func (c *Config) EventInterval() time.Duration {
	if c.Viewer.FPS <= 0 {
		return 0
	}
	return time.Second / time.Duration(c.Viewer.FPS)
}

// ExportDelay returns the per-frame delay of exported animations
func (c *Config) ExportDelay() time.Duration {
	return time.Duration(c.Export.DelayMs) * time.Millisecond
}

// ViewState returns the initial view state described by the configuration
func (c *Config) ViewState() volume.ViewState {
	return volume.ViewState{
		Window:      volume.Window{Low: c.Window.Low, High: c.Window.High},
		MaskOpacity: c.Mask.Opacity,
		MaskOn:      c.Mask.On,
		OnlyMask:    c.Mask.OnlyMask,
	}
}

// Bounds returns the window bounds
func (c *Config) Bounds() volume.Bounds {
	return volume.Bounds{Min: c.Window.Min, Max: c.Window.Max}
}

// ColorMap resolves the configured label scheme
func (c *Config) ColorMap() (volume.LabelColorMap, error) {
	if len(c.Mask.Labels) == 0 {
		s, err := labels.Lookup(c.Mask.Scheme)
		if err != nil {
			return volume.LabelColorMap{}, err
		}
		return s.ColorMap(), nil
	}
	cm := volume.LabelColorMap{
		LabelToName: make(map[uint8]string, len(c.Mask.Labels)),
		NameToColor: make(map[string]color.NRGBA, len(c.Mask.Labels)),
	}
	for _, l := range c.Mask.Labels {
		col, err := labels.ParseHexColor(l.Color)
		if err != nil {
			return volume.LabelColorMap{}, fmt.Errorf("label %d (%s): %w", l.Value, l.Name, err)
		}
		cm.LabelToName[l.Value] = l.Name
		cm.NameToColor[l.Name] = col
	}
	return cm, nil
}

func isTOML(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".toml")
}

// LoadConfig loads configuration from a YAML or TOML file (chosen by extension)
// If the file doesn't exist, it returns the default configuration
func LoadConfig(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	// Check if config file exists
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return cfg, nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	if isTOML(configPath) {
		if err := toml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("error parsing config file: %w", err)
		}
	} else if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}

	return cfg, nil
}

// SaveConfig saves the configuration to a YAML or TOML file
func SaveConfig(cfg *Config, configPath string) error {
	// Create directory if it doesn't exist
	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("error creating config directory: %w", err)
	}

	var data []byte
	if isTOML(configPath) {
		var buf bytes.Buffer
		if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
			return fmt.Errorf("error marshaling config: %w", err)
		}
		data = buf.Bytes()
	} else {
		var err error
		if data, err = yaml.Marshal(cfg); err != nil {
			return fmt.Errorf("error marshaling config: %w", err)
		}
	}

	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("error writing config file: %w", err)
	}

	return nil
}

// CreateDefaultConfigFile creates a default configuration file at the specified path
func CreateDefaultConfigFile(configPath string) error {
	cfg := DefaultConfig()
	return SaveConfig(cfg, configPath)
}
