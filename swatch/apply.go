package swatch

import (
	"math"

	"github.com/pkg/errors"

	"github.com/gogpu/vpaint"
	"github.com/gogpu/vpaint/layer"
)

// IdentityTolerance is the RGBA distance under which a region already shows
// a swatch color and the write is skipped.
const IdentityTolerance = 0.001

// Scope selects how a material is masked.
type Scope int

const (
	// ScopeObject masks by the target layer's own alpha.
	ScopeObject Scope = iota
	// ScopeComponent masks by the caller's selection.
	ScopeComponent
)

// ApplyPalette writes palette color i into layer i+1, masked by that layer's
// current alpha, so the opacity shape of every layer is kept. Layers with
// nothing painted, and layers whose painted region already shows the color,
// are left alone. Every layer is read before the first write, so a bad
// target leaves storage untouched. It returns the names of the layers
// written, including those written before a storage error.
func ApplyPalette(set *layer.Set, p Palette) ([]string, error) {
	type pending struct {
		name   string
		colors []vpaint.RGBA
	}
	var todo []pending
	for i, col := range p.Colors {
		name := layer.ColorLayer(i + 1)
		l, err := set.Layer(name)
		if err != nil {
			return nil, err
		}
		if l.Kind != layer.KindColor {
			return nil, errors.Wrapf(vpaint.ErrUnsupportedKind, "palette target %s", name)
		}
		mask, empty, err := set.Mask(name)
		if err != nil {
			return nil, err
		}
		if empty {
			continue
		}
		current, err := set.Get(name, layer.GetOptions{})
		if err != nil {
			return nil, err
		}
		if dom, ok := DominantColor(current, mask); ok && dom.Distance(recolor(dom, col)) < IdentityTolerance {
			continue
		}

		out := make([]vpaint.RGBA, len(current))
		for c, old := range current {
			out[c] = recolor(old, col)
		}
		todo = append(todo, pending{name, out})
	}

	var written []string
	for _, w := range todo {
		if err := set.Put(w.name, w.colors, layer.PutOptions{}); err != nil {
			return written, err
		}
		written = append(written, w.name)
	}
	vpaint.Logger().Debug("swatch: palette applied", "palette", p.Name, "layers", len(written))
	return written, nil
}

// recolor takes the color of col and the coverage of old. The swatch alpha
// is ignored so that reapplying never erodes coverage.
func recolor(old, col vpaint.RGBA) vpaint.RGBA {
	if old.A == 0 {
		return vpaint.Transparent
	}
	return vpaint.RGBA{R: col.R, G: col.G, B: col.B, A: old.A}
}

// ApplyMaterial replaces the diffuse color in target and the metallic and
// smoothness values in their layers.
//
// In ScopeObject the writes are masked by the target's alpha. In
// ScopeComponent they are masked by selection; a nil selection means the
// whole mesh. Writes whose region already shows the value are skipped.
// It returns the names of the layers written; an empty mask returns
// vpaint.ErrEmptyMask.
func ApplyMaterial(set *layer.Set, target string, m Material, scope Scope, selection *vpaint.Mask) ([]string, error) {
	if target == layer.Composite {
		return nil, vpaint.ErrCompositeTarget
	}
	tl, err := set.Layer(target)
	if err != nil {
		return nil, err
	}
	if tl.Kind != layer.KindColor {
		return nil, errors.Wrapf(vpaint.ErrUnsupportedKind, "material target %s", target)
	}

	mask := selection
	if scope == ScopeObject {
		var empty bool
		mask, empty, err = set.Mask(target)
		if err != nil {
			return nil, err
		}
		if empty {
			return nil, vpaint.ErrEmptyMask
		}
	} else if mask != nil && mask.IsEmpty() {
		return nil, vpaint.ErrEmptyMask
	}

	var written []string
	for _, w := range []struct {
		name string
		col  vpaint.RGBA
	}{
		{target, m.Diffuse},
		{layer.Metallic, m.Metallic},
		{layer.Smoothness, m.Smoothness},
	} {
		ok, err := writeMasked(set, w.name, w.col, mask)
		if err != nil {
			return written, err
		}
		if ok {
			written = append(written, w.name)
		}
	}
	vpaint.Logger().Debug("swatch: material applied", "material", m.Name, "target", target, "layers", len(written))
	return written, nil
}

// writeMasked replaces the named layer with col wherever mask covers it and
// keeps the other corners. Color layers take the swatch RGB with the mask
// value as alpha; scalar layers take the swatch luminance. It reports false
// when every covered corner already shows the swatch.
func writeMasked(set *layer.Set, name string, col vpaint.RGBA, mask *vpaint.Mask) (bool, error) {
	l, err := set.Layer(name)
	if err != nil {
		return false, err
	}
	current, err := set.Get(name, layer.GetOptions{})
	if err != nil {
		return false, err
	}
	coverage := func(i int) float64 {
		if mask == nil {
			return 1
		}
		return mask.At(i)
	}

	out := make([]vpaint.RGBA, len(current))
	changed := false
	if l.Kind == layer.KindScalar {
		// Scalars travel through alpha so untouched corners stay exact.
		value := col.Luminance()
		for i, old := range current {
			v := old.R
			if coverage(i) > 0 {
				v = value
			}
			changed = changed || math.Abs(v-old.R) >= IdentityTolerance
			out[i] = vpaint.RGBA{A: v}
		}
		if !changed {
			return false, nil
		}
		return true, set.Put(name, out, layer.PutOptions{Source: layer.SourceAlpha})
	}

	for i, old := range current {
		next := old
		if m := coverage(i); m > 0 {
			next = vpaint.RGBA{R: col.R, G: col.G, B: col.B, A: m}
			if l.PreservesAlpha() {
				next.A = old.A
			}
		}
		changed = changed || next.Distance(old) >= IdentityTolerance
		out[i] = next
	}
	if !changed {
		return false, nil
	}
	return true, set.Put(name, out, layer.PutOptions{})
}

// DominantColor returns the most frequent color, rounded to three decimals,
// among corners where mask is non-zero. A nil mask covers every corner.
// On ties the color that reached the count first wins. ok is false when nothing is covered.
func DominantColor(colors []vpaint.RGBA, mask *vpaint.Mask) (vpaint.RGBA, bool) {
	counts := make(map[vpaint.RGBA]int)
	var best vpaint.RGBA
	bestCount := 0
	for i, c := range colors {
		if mask != nil && mask.At(i) == 0 {
			continue
		}
		r := round3(c)
		counts[r]++
		if n := counts[r]; n > bestCount {
			best, bestCount = r, n
		}
	}
	return best, bestCount > 0
}

func round3(c vpaint.RGBA) vpaint.RGBA {
	r := func(v float64) float64 { return math.Round(v*1000) / 1000 }
	return vpaint.RGBA{R: r(c.R), G: r(c.G), B: r(c.B), A: r(c.A)}
}
