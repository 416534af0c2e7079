package layer

import (
	"github.com/pkg/errors"

	"github.com/gogpu/vpaint"
	"github.com/gogpu/vpaint/internal/blend"
)

// Clear resets the named layer to its default value.
func (s *Set) Clear(name string) error {
	l, err := s.Layer(name)
	if err != nil {
		return err
	}
	if l.Kind == KindScalar {
		return s.put(l, s.uniform(vpaint.RGBA{A: l.defaultScalar()}), PutOptions{Source: SourceAlpha})
	}
	return s.put(l, s.uniform(l.Default), PutOptions{})
}

// Fill writes c into every corner of the named layer. Scalar layers store
// the reduction chosen by opts.
func (s *Set) Fill(name string, c vpaint.RGBA, opts PutOptions) error {
	l, err := s.Layer(name)
	if err != nil {
		return err
	}
	return s.put(l, s.uniform(c), opts)
}

func (s *Set) uniform(c vpaint.RGBA) []vpaint.RGBA {
	out := make([]vpaint.RGBA, s.store.CornerCount())
	for i := range out {
		out[i] = c
	}
	return out
}

// Copy overwrites dst with the contents of src. Layers of the same kind copy
// their raw values; otherwise src is read as color and written with the
// default scalar reduction.
func (s *Set) Copy(src, dst string) error {
	from, err := s.Layer(src)
	if err != nil {
		return err
	}
	to, err := s.Layer(dst)
	if err != nil {
		return err
	}
	getOpts, putOpts := rawOptions(from, to)
	colors, err := s.get(from, getOpts)
	if err != nil {
		return err
	}
	return s.put(to, colors, putOpts)
}

// rawOptions moves scalar values through alpha so scalar-to-scalar transfers
// are exact.
func rawOptions(from, to *Layer) (GetOptions, PutOptions) {
	if from.Kind == KindScalar && to.Kind == KindScalar {
		return GetOptions{UVAsAlpha: true}, PutOptions{Source: SourceAlpha}
	}
	return GetOptions{}, PutOptions{}
}

// Swap exchanges the contents of two layers of the same kind.
func (s *Set) Swap(a, b string) error {
	la, err := s.Layer(a)
	if err != nil {
		return err
	}
	lb, err := s.Layer(b)
	if err != nil {
		return err
	}
	if la.Kind != lb.Kind {
		return errors.Wrapf(vpaint.ErrUnsupportedKind, "swap %s (%s) with %s (%s)", a, la.Kind, b, lb.Kind)
	}

	getOpts, putOpts := rawOptions(la, lb)
	ca, err := s.get(la, getOpts)
	if err != nil {
		return err
	}
	cb, err := s.get(lb, getOpts)
	if err != nil {
		return err
	}
	if err := s.put(la, cb, putOpts); err != nil {
		return err
	}
	return s.put(lb, ca, putOpts)
}

// compositable reports whether l contributes to the composite.
func (l *Layer) compositable() bool {
	if l.Index == 0 || !l.Enabled || !l.Visible {
		return false
	}
	return l.Kind == KindColor || l.Kind == KindQuadScalar || l.IsGradient()
}

// Composite folds every enabled, visible color layer, the gradient layers
// and the overlay layer in index order into the composite layer, starting
// from transparent black. Each layer blends with its own mode and opacity.
// palette tints the gradients as in GetOptions; it may be nil.
func (s *Set) Composite(palette []vpaint.RGBA) ([]vpaint.RGBA, error) {
	acc := make([]vpaint.RGBA, s.store.CornerCount())
	folded := 0
	for _, l := range s.layers {
		if !l.compositable() {
			continue
		}
		top, err := s.get(l, GetOptions{UVAsAlpha: true, Palette: palette})
		if err != nil {
			return nil, err
		}
		acc, err = blend.Values(top, acc, l.Mode, l.Opacity)
		if err != nil {
			return nil, errors.Wrapf(err, "composite %s", l.Name)
		}
		folded++
	}

	if err := s.put(s.layers[0], acc, PutOptions{}); err != nil {
		return nil, err
	}
	vpaint.Logger().Info("layer: composite rebuilt", "layers", folded, "corners", len(acc))
	return acc, nil
}

// MergeDown permanently combines the named color layer into the color layer
// below it with the upper layer's mode and opacity, then clears the upper
// layer. layer1 and composite cannot be merged down.
func (s *Set) MergeDown(name string) error {
	top, err := s.Layer(name)
	if err != nil {
		return err
	}
	if top.Kind != KindColor || top.Index < 2 || top.Index > 7 {
		return errors.Wrapf(vpaint.ErrUnsupportedKind, "merge down %s", name)
	}
	below := s.layers[top.Index-1]

	upper, err := s.get(top, GetOptions{ApplyOpacity: true})
	if err != nil {
		return err
	}
	base, err := s.get(below, GetOptions{})
	if err != nil {
		return err
	}
	merged, err := blend.Combine(upper, base, top.Mode)
	if err != nil {
		return err
	}
	if err := s.put(below, merged, PutOptions{}); err != nil {
		return err
	}
	return s.Clear(name)
}
