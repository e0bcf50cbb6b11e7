package chart

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"gonum.org/v1/plot/vg"
)

// ErrUnknownPhase is returned for a reference phase key that is not registered
var ErrUnknownPhase = errors.New("unknown reference phase")

// LabelSide selects on which side of its reference line a reflection label is drawn
type LabelSide int

const (
	LabelLeft LabelSide = iota
	LabelRight
)

// Reflection is one Bragg reflection of a reference phase
type Reflection struct {
	Angle  float64 // degrees 2θ, Cu Kα
	Miller string  // e.g. "(200)"
}

// Phase is a known crystal phase drawn as vertical reference lines
type Phase struct {
	Key         string
	Name        string
	Reflections []Reflection
	Dashes      []vg.Length
	Side        LabelSide
	// LabelShift moves the label away from the line, in degrees
	LabelShift float64
	// LabelHeight is the top of the label as a fraction of the highest intensity
	LabelHeight float64
	// Default phases are drawn unless switched off
	Default bool
}

var phases = map[string]Phase{
	"si": {
		Key:  "si",
		Name: "Si",
		Reflections: []Reflection{
			{33, "(200)"},
			{69.13, "(400)"},
			{117, "(600)"},
		},
		Dashes:      []vg.Length{vg.Points(4), vg.Points(2)},
		Side:        LabelLeft,
		LabelHeight: 1 / 2.5,
		Default:     true,
	},
	"zrc": {
		Key:  "zrc",
		Name: "ZrC",
		Reflections: []Reflection{
			{33.5, "(111)"},
			{38, "(200)"},
			{55, "(220)"},
			{65, "(311)"},
			{81, "(400)"},
			{93, "(420)"},
			{108, "(422)"},
		},
		Dashes:      []vg.Length{vg.Points(1), vg.Points(2)},
		Side:        LabelRight,
		LabelShift:  0.5,
		LabelHeight: 1,
		Default:     true,
	},
	"zr": {
		Key:  "zr",
		Name: "Zr",
		Reflections: []Reflection{
			{31.96, "(100)"},
			{34.84, "(002)"},
			{36.51, "(101)"},
			{47.98, "(102)"},
			{56.95, "(110)"},
			{63.53, "(103)"},
			{68.49, "(112)"},
		},
		Dashes:      []vg.Length{vg.Points(4), vg.Points(2), vg.Points(1), vg.Points(2)},
		Side:        LabelRight,
		LabelShift:  0.5,
		LabelHeight: 1 / 6.25,
	},
	"zro2": {
		Key:  "zro2",
		Name: "m-ZrO2",
		Reflections: []Reflection{
			{28.18, "(-111)"},
			{31.47, "(111)"},
			{34.16, "(002)"},
			{50.12, "(022)"},
			{55.41, "(-302)"},
		},
		Dashes:      []vg.Length{vg.Points(8), vg.Points(3)},
		Side:        LabelLeft,
		LabelHeight: 1 / 15.0,
	},
}

// LookupPhase returns the reference phase registered under key
func LookupPhase(key string) (Phase, error) {
	phase, ok := phases[strings.ToLower(strings.TrimSpace(key))]
	if !ok {
		return Phase{}, fmt.Errorf("%w: %s", ErrUnknownPhase, key)
	}
	return phase, nil
}

// LookupPhases resolves keys in order
func LookupPhases(keys []string) ([]Phase, error) {
	result := make([]Phase, 0, len(keys))
	for _, key := range keys {
		phase, err := LookupPhase(key)
		if err != nil {
			return nil, err
		}
		result = append(result, phase)
	}
	return result, nil
}

// PhaseKeys returns every registered phase key, sorted
func PhaseKeys() []string {
	keys := make([]string, 0, len(phases))
	for key := range phases {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// DefaultPhaseKeys returns the keys of phases drawn unless switched off
func DefaultPhaseKeys() []string {
	var keys []string
	for _, key := range PhaseKeys() {
		if phases[key].Default {
			keys = append(keys, key)
		}
	}
	return keys
}
