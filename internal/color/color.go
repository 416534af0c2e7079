// Package color provides the scalar color-space math used by vpaint.
//
// All functions operate on float64 components in [0,1]. RGB components are
// display-referred sRGB unless a function name says otherwise; alpha is always
// linear and never passes through a transfer function.
package color

// Transfer function constants for the piecewise sRGB curve.
const (
	// SRGBBreakpoint is the encoded value below which the curve is linear.
	SRGBBreakpoint = 0.0404482362771082

	// LinearBreakpoint is the linear value below which the curve is linear.
	LinearBreakpoint = 0.00313066844250063

	// Gamma is the exponent of the power segment.
	Gamma = 2.4

	// Offset is the additive offset of the power segment.
	Offset = 0.055

	// Slope is the divisor of the linear segment.
	Slope = 12.92
)

// Rec. 709 luminance weights applied to linear RGB.
const (
	LumaR = 0.212655
	LumaG = 0.715158
	LumaB = 0.072187
)
