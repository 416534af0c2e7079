package color

import "math"

// SRGBToLinear converts one sRGB-encoded component to linear light.
// Input is clamped to [0,1].
func SRGBToLinear(s float64) float64 {
	switch {
	case s <= 0:
		return 0
	case s >= 1:
		return 1
	case s < SRGBBreakpoint:
		return s / Slope
	}
	return math.Pow((s+Offset)/(1+Offset), Gamma)
}

// LinearToSRGB converts one linear component to its sRGB encoding.
// Input is clamped to [0,1].
func LinearToSRGB(l float64) float64 {
	switch {
	case l <= 0:
		return 0
	case l >= 1:
		return 1
	case l < LinearBreakpoint:
		return l * Slope
	}
	return (1+Offset)*math.Pow(l, 1/Gamma) - Offset
}

// Luminance returns the perceived brightness of an sRGB color, re-encoded
// through the sRGB curve and scaled by alpha.
func Luminance(r, g, b, a float64) float64 {
	y := LumaR*SRGBToLinear(r) + LumaG*SRGBToLinear(g) + LumaB*SRGBToLinear(b)
	return LinearToSRGB(y) * a
}
