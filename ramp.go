package vpaint

import (
	"math"
	"sort"
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Interpolation selects how a Ramp blends between neighbouring stops.
type Interpolation int

const (
	// InterpLinear blends linearly between stops.
	InterpLinear Interpolation = iota
	// InterpConstant holds the color of the stop at or left of the position.
	InterpConstant
	// InterpEase blends with a smoothstep curve.
	InterpEase
)

// ColorMode selects the space a Ramp interpolates in.
type ColorMode int

const (
	// ColorModeRGB interpolates the stored sRGB components directly.
	ColorModeRGB ColorMode = iota
	// ColorModeHSL interpolates hue, saturation and lightness.
	ColorModeHSL
)

// HueInterpolation selects the direction hue travels in ColorModeHSL.
type HueInterpolation int

const (
	// HueNear takes the shortest way around the hue circle.
	HueNear HueInterpolation = iota
	// HueFar takes the longest way around the hue circle.
	HueFar
	// HueClockwise always decreases hue.
	HueClockwise
	// HueCounterClockwise always increases hue.
	HueCounterClockwise
)

// RampStop is a color at a position of a Ramp.
type RampStop struct {
	Position float64 `yaml:"position"`
	Color    RGBA    `yaml:"color"`
}

// Ramp is a piecewise color gradient evaluated over [0, 1].
//
// Stops need not be sorted; Evaluate sorts a copy. Positions outside the
// first and last stop clamp to those stops' colors.
//
// Example:
//
//	r := vpaint.NewRamp().
//	    AddStop(0, vpaint.Black).
//	    AddStop(1, vpaint.White)
//	gray := r.Evaluate(0.5)
type Ramp struct {
	Name          string           `yaml:"name,omitempty"`
	Stops         []RampStop       `yaml:"stops"`
	Interpolation Interpolation    `yaml:"interpolation,omitempty"`
	ColorMode     ColorMode        `yaml:"colorMode,omitempty"`
	Hue           HueInterpolation `yaml:"hue,omitempty"`
}

// NewRamp creates a linear RGB ramp with the given stops.
func NewRamp(stops ...RampStop) *Ramp {
	return &Ramp{Stops: stops}
}

// AddStop appends a stop and returns the ramp for chaining.
func (r *Ramp) AddStop(position float64, c RGBA) *Ramp {
	r.Stops = append(r.Stops, RampStop{Position: position, Color: c})
	return r
}

// Evaluate returns the ramp color at position t.
// An empty ramp evaluates to Transparent.
func (r *Ramp) Evaluate(t float64) RGBA {
	if len(r.Stops) == 0 {
		return Transparent
	}
	if len(r.Stops) == 1 {
		return r.Stops[0].Color
	}
	return r.evaluateSorted(sortStops(r.Stops), t)
}

// EvaluateAll evaluates the ramp at every position of ts.
func (r *Ramp) EvaluateAll(ts []float64) []RGBA {
	out := make([]RGBA, len(ts))
	if len(r.Stops) == 0 {
		return out
	}
	sorted := sortStops(r.Stops)
	for i, t := range ts {
		out[i] = r.evaluateSorted(sorted, t)
	}
	return out
}

func (r *Ramp) evaluateSorted(sorted []RampStop, t float64) RGBA {
	first, last := sorted[0], sorted[len(sorted)-1]
	if t <= first.Position {
		return first.Color
	}
	if t >= last.Position {
		return last.Color
	}

	idx := sort.Search(len(sorted), func(i int) bool {
		return sorted[i].Position > t
	})
	left, right := sorted[idx-1], sorted[idx]

	if r.Interpolation == InterpConstant {
		return left.Color
	}
	span := right.Position - left.Position
	if span == 0 {
		return left.Color
	}
	f := (t - left.Position) / span
	if r.Interpolation == InterpEase {
		f = f * f * (3 - 2*f)
	}

	if r.ColorMode == ColorModeHSL {
		return r.lerpHSL(left.Color, right.Color, f)
	}
	return left.Color.Lerp(right.Color, f)
}

func (r *Ramp) lerpHSL(a, b RGBA, f float64) RGBA {
	h1, s1, l1 := a.HSL()
	h2, s2, l2 := b.HSL()

	switch r.Hue {
	case HueFar:
		if h1 < h2 && h2-h1 < 0.5 {
			h1++
		} else if h1 > h2 && h2-h1 > -0.5 {
			h2++
		}
	case HueClockwise:
		if h1 < h2 {
			h1++
		}
	case HueCounterClockwise:
		if h1 > h2 {
			h2++
		}
	default:
		if h1 < h2 && h2-h1 > 0.5 {
			h1++
		} else if h1 > h2 && h2-h1 < -0.5 {
			h2++
		}
	}

	h := h1 + (h2-h1)*f
	h -= math.Floor(h)
	return HSL(h, s1+(s2-s1)*f, l1+(l2-l1)*f, a.A+(b.A-a.A)*f)
}

// sortStops returns a copy of stops sorted by position.
// Stops at equal positions keep their relative order.
func sortStops(stops []RampStop) []RampStop {
	sorted := make([]RampStop, len(stops))
	copy(sorted, stops)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Position < sorted[j].Position
	})
	return sorted
}

var (
	interpolationNames = [...]string{InterpLinear: "linear", InterpConstant: "constant", InterpEase: "ease"}
	colorModeNames     = [...]string{ColorModeRGB: "rgb", ColorModeHSL: "hsl"}
	hueNames           = [...]string{HueNear: "near", HueFar: "far", HueClockwise: "cw", HueCounterClockwise: "ccw"}
)

func (i Interpolation) String() string    { return enumName(interpolationNames[:], int(i)) }
func (m ColorMode) String() string        { return enumName(colorModeNames[:], int(m)) }
func (h HueInterpolation) String() string { return enumName(hueNames[:], int(h)) }

func (i Interpolation) MarshalYAML() (any, error)    { return i.String(), nil }
func (m ColorMode) MarshalYAML() (any, error)        { return m.String(), nil }
func (h HueInterpolation) MarshalYAML() (any, error) { return h.String(), nil }

func (i *Interpolation) UnmarshalYAML(value *yaml.Node) error {
	return decodeEnum(value, interpolationNames[:], (*int)(i))
}

func (m *ColorMode) UnmarshalYAML(value *yaml.Node) error {
	return decodeEnum(value, colorModeNames[:], (*int)(m))
}

func (h *HueInterpolation) UnmarshalYAML(value *yaml.Node) error {
	return decodeEnum(value, hueNames[:], (*int)(h))
}

func enumName(names []string, v int) string {
	if v < 0 || v >= len(names) {
		return "unknown"
	}
	return names[v]
}

func decodeEnum(value *yaml.Node, names []string, dst *int) error {
	s := strings.ToLower(strings.TrimSpace(value.Value))
	for i, name := range names {
		if name == s {
			*dst = i
			return nil
		}
	}
	return errors.Errorf("vpaint: line %d: unknown value %q, want one of %s",
		value.Line, value.Value, strings.Join(names, ", "))
}
