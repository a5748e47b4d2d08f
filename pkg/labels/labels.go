// Package labels provides named label schemes: which integer codes of a
// label volume correspond to which structure, and how each is colored.
package labels

import (
	"fmt"
	"image/color"
	"maps"
	"slices"
	"strconv"
	"strings"

	"sliceviewer/pkg/volume"
)

// Scheme is a named label color map.
type Scheme struct {
	Name   string
	Labels map[uint8]string
	Colors map[string]color.NRGBA
}

// ColorMap returns the scheme as a volume color map.
func (s Scheme) ColorMap() volume.LabelColorMap {
	return volume.LabelColorMap{LabelToName: maps.Clone(s.Labels), NameToColor: maps.Clone(s.Colors)}
}

// Default is the color map a State starts with.
var Default = FromColorMap("default", volume.DefaultColorMap())

// FromColorMap names a volume color map as a scheme.
func FromColorMap(name string, m volume.LabelColorMap) Scheme {
	m = m.Clone()
	return Scheme{Name: name, Labels: m.LabelToName, Colors: m.NameToColor}
}

// BodyRegions is the SAROS body-region segmentation.
var BodyRegions = Scheme{
	Name: "body-regions",
	Labels: map[uint8]string{
		1:  "SUBCUTANEOUS_TISSUE",
		2:  "MUSCLE",
		3:  "ABDOMINAL_CAVITY",
		4:  "THORACIC_CAVITY",
		5:  "BONE",
		6:  "PAROTID_GLANDS",
		7:  "PERICARDIUM",
		8:  "BREAST_IMPLANT",
		9:  "MEDIASTINUM",
		10: "BRAIN",
		11: "SPINAL_CORD",
		12: "THYROID_GLANDS",
		13: "SUBMANDIBULAR_GLANDS",
	},
	Colors: map[string]color.NRGBA{
		"SUBCUTANEOUS_TISSUE":  {255, 204, 153, 255},
		"MUSCLE":               {204, 0, 0, 255},
		"ABDOMINAL_CAVITY":     {102, 204, 102, 255},
		"THORACIC_CAVITY":      {51, 153, 255, 255},
		"BONE":                 {192, 192, 192, 255},
		"PAROTID_GLANDS":       {255, 153, 204, 255},
		"PERICARDIUM":          {153, 0, 153, 255},
		"BREAST_IMPLANT":       {255, 255, 153, 255},
		"MEDIASTINUM":          {102, 51, 0, 255},
		"BRAIN":                {255, 102, 102, 255},
		"SPINAL_CORD":          {204, 204, 0, 255},
		"THYROID_GLANDS":       {0, 204, 204, 255},
		"SUBMANDIBULAR_GLANDS": {153, 255, 153, 255},
	},
}

// BodyParts is the SAROS body-part segmentation.
var BodyParts = Scheme{
	Name: "body-parts",
	Labels: map[uint8]string{
		1: "TORSO",
		2: "HEAD",
		3: "RIGHT_LEG",
		4: "LEFT_LEG",
		5: "RIGHT_ARM",
		6: "LEFT_ARM",
	},
	Colors: map[string]color.NRGBA{
		"TORSO":     {153, 102, 51, 255},
		"HEAD":      {255, 204, 153, 255},
		"RIGHT_LEG": {51, 204, 51, 255},
		"LEFT_LEG":  {51, 153, 51, 255},
		"RIGHT_ARM": {255, 153, 153, 255},
		"LEFT_ARM":  {204, 102, 102, 255},
	},
}

var builtin = map[string]Scheme{
	Default.Name:     Default,
	BodyRegions.Name: BodyRegions,
	BodyParts.Name:   BodyParts,
}

// Lookup returns a built-in scheme by name (case-insensitive).
func Lookup(name string) (Scheme, error) {
	s, ok := builtin[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return Scheme{}, fmt.Errorf("unknown label scheme %q (known: %s)", name, strings.Join(Names(), ", "))
	}
	return s, nil
}

// Names lists the built-in scheme names in sorted order.
func Names() []string {
	return slices.Sorted(maps.Keys(builtin))
}

// ParseHexColor parses "#rrggbb" or "#rrggbbaa".
func ParseHexColor(s string) (color.NRGBA, error) {
	h := strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(h) != 6 && len(h) != 8 {
		return color.NRGBA{}, fmt.Errorf("invalid color %q", s)
	}
	v, err := strconv.ParseUint(h, 16, 32)
	if err != nil {
		return color.NRGBA{}, fmt.Errorf("invalid color %q: %w", s, err)
	}
	if len(h) == 6 {
		v = v<<8 | 0xff
	}
	return color.NRGBA{R: uint8(v >> 24), G: uint8(v >> 16), B: uint8(v >> 8), A: uint8(v)}, nil
}
