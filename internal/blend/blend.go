// Package blend composites per-corner color buffers.
//
// Values is the live operator used when a tool writes into a layer: the top
// buffer is scaled by an external opacity. Combine is the permanent merge used
// when one layer is flattened into another and weights by the top alpha only.
package blend

import (
	"github.com/pkg/errors"

	"github.com/gogpu/vpaint"
)

// Values blends top over base with the given mode and opacity and returns a
// new buffer. A nil top returns a copy of base. An unknown mode or an opacity
// outside [0, 1] returns vpaint.ErrInvalidParams.
//
// Corners whose resulting alpha is exactly 0 carry no color.
func Values(top, base []vpaint.RGBA, mode vpaint.BlendMode, opacity float64) ([]vpaint.RGBA, error) {
	if err := check(mode, opacity); err != nil {
		return nil, err
	}
	if top == nil {
		return append([]vpaint.RGBA(nil), base...), nil
	}
	if len(top) != len(base) {
		return nil, errors.Wrapf(vpaint.ErrLengthMismatch, "blend: top %d, base %d", len(top), len(base))
	}

	out := make([]vpaint.RGBA, len(base))
	for i := range base {
		c := Blend(top[i], base[i], mode, top[i].A*opacity)
		if c.A == 0 {
			c = vpaint.Transparent
		}
		out[i] = c
	}
	return out, nil
}

// Combine merges top into base with un-premultiplied, full-alpha semantics
// and returns a new buffer.
func Combine(top, base []vpaint.RGBA, mode vpaint.BlendMode) ([]vpaint.RGBA, error) {
	if err := check(mode, 1); err != nil {
		return nil, err
	}
	if len(top) != len(base) {
		return nil, errors.Wrapf(vpaint.ErrLengthMismatch, "combine: top %d, base %d", len(top), len(base))
	}
	out := make([]vpaint.RGBA, len(base))
	for i := range base {
		out[i] = Blend(top[i], base[i], mode, top[i].A)
	}
	return out, nil
}

func check(mode vpaint.BlendMode, opacity float64) error {
	if !mode.Valid() {
		return errors.Wrapf(vpaint.ErrInvalidParams, "blend: unknown mode %d", int(mode))
	}
	if opacity < 0 || opacity > 1 {
		return errors.Wrapf(vpaint.ErrInvalidParams, "blend: opacity %v outside [0, 1]", opacity)
	}
	return nil
}

// Blend composites a single corner. a is the effective top coverage and mode
// must be valid; Values and Combine check both.
func Blend(top, base vpaint.RGBA, mode vpaint.BlendMode, a float64) vpaint.RGBA {
	out := vpaint.RGBA{A: min(base.A+a, 1)}
	switch mode {
	case vpaint.BlendAdd:
		out.R = base.R + top.R*a
		out.G = base.G + top.G*a
		out.B = base.B + top.B*a
	case vpaint.BlendMultiply:
		out.R = base.R * (top.R*a + 1 - a)
		out.G = base.G * (top.G*a + 1 - a)
		out.B = base.B * (top.B*a + 1 - a)
	case vpaint.BlendOverlay:
		out.R = lerp(base.R, overlay(top.R, base.R), a)
		out.G = lerp(base.G, overlay(top.G, base.G), a)
		out.B = lerp(base.B, overlay(top.B, base.B), a)
	default:
		out.R = lerp(base.R, top.R, a)
		out.G = lerp(base.G, top.G, a)
		out.B = lerp(base.B, top.B, a)
	}
	return out
}

// overlay is the classic overlay of top onto base, split at base 0.5.
func overlay(top, base float64) float64 {
	if base < 0.5 {
		return 2 * base * top
	}
	return 1 - 2*(1-base)*(1-top)
}

func lerp(from, to, t float64) float64 {
	return to*t + from*(1-t)
}
