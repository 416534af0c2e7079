package vpaint

import "github.com/pkg/errors"

// Mask is a per-corner attenuation source with values in [0, 1].
// It is derived from a selection or from another layer's alpha.
type Mask struct {
	data []float64
}

// NewMask creates a mask over n corners with every value 0.
func NewMask(n int) *Mask {
	return &Mask{data: make([]float64, n)}
}

// NewMaskFromValues creates a mask holding a copy of values.
func NewMaskFromValues(values []float64) *Mask {
	m := NewMask(len(values))
	copy(m.data, values)
	return m
}

// NewMaskFromAlpha creates a mask from the alpha channel of colors.
func NewMaskFromAlpha(colors []RGBA) *Mask {
	m := NewMask(len(colors))
	for i, c := range colors {
		m.data[i] = c.A
	}
	return m
}

// Len returns the number of corners covered by the mask.
func (m *Mask) Len() int { return len(m.data) }

// At returns the mask value of corner i.
// Returns 0 for indices outside the mask.
func (m *Mask) At(i int) float64 {
	if i < 0 || i >= len(m.data) {
		return 0
	}
	return m.data[i]
}

// Set sets the mask value of corner i. Out-of-range indices are ignored.
func (m *Mask) Set(i int, v float64) {
	if i < 0 || i >= len(m.data) {
		return
	}
	m.data[i] = v
}

// Fill sets every corner to v.
func (m *Mask) Fill(v float64) {
	for i := range m.data {
		m.data[i] = v
	}
}

// Invert replaces every value v with 1-v.
func (m *Mask) Invert() {
	for i := range m.data {
		m.data[i] = 1 - m.data[i]
	}
}

// Clone creates a copy of the mask.
func (m *Mask) Clone() *Mask {
	return NewMaskFromValues(m.data)
}

// IsEmpty reports whether every value is exactly 0.
func (m *Mask) IsEmpty() bool {
	for _, v := range m.data {
		if v != 0 {
			return false
		}
	}
	return true
}

// Values returns the underlying slice. Callers must not retain it across
// mask mutations.
func (m *Mask) Values() []float64 {
	return m.data
}

// MaskMode selects how ApplyMask folds the mask into a color buffer.
type MaskMode int

const (
	// MaskMultiplyAlpha multiplies each corner's alpha by the mask value.
	MaskMultiplyAlpha MaskMode = iota
	// MaskOverrideAlpha replaces each corner's alpha with the mask value.
	MaskOverrideAlpha
	// MaskScale scales all four channels by the mask value.
	MaskScale
)

// ApplyMask returns colors attenuated by m.
//
// A nil mask means the whole mesh and returns colors unchanged. An empty mask
// returns ErrEmptyMask and no buffer. The input slice is never modified.
func ApplyMask(colors []RGBA, m *Mask, mode MaskMode) ([]RGBA, error) {
	if m == nil {
		return colors, nil
	}
	if m.Len() != len(colors) {
		return nil, errors.Wrapf(ErrLengthMismatch, "mask has %d corners, colors %d", m.Len(), len(colors))
	}
	if m.IsEmpty() {
		return nil, ErrEmptyMask
	}

	out := make([]RGBA, len(colors))
	for i, c := range colors {
		v := m.data[i]
		switch mode {
		case MaskOverrideAlpha:
			c.A = v
		case MaskScale:
			c = c.Scale(v)
		default:
			c.A *= v
		}
		out[i] = c
	}
	return out, nil
}
