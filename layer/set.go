package layer

import (
	"github.com/pkg/errors"

	"github.com/gogpu/vpaint"
	"github.com/gogpu/vpaint/attr"
)

// ScalarSource selects how Put reduces a color to a scalar.
type ScalarSource int

const (
	// SourceDefault uses alpha for gradient layers and luminance elsewhere.
	SourceDefault ScalarSource = iota
	// SourceLuminance always uses luminance.
	SourceLuminance
	// SourceAlpha always uses alpha.
	SourceAlpha
	// SourceInferred behaves like SourceDefault, except that a gradient
	// buffer whose alpha is 1 everywhere falls back to luminance. Buffers
	// painted with an opaque color tool then still show as gradients.
	SourceInferred
)

// GetOptions controls how a layer is read.
type GetOptions struct {
	// UVAsAlpha reads scalar layers as (tint, value) instead of opaque gray.
	UVAsAlpha bool
	// Tint colors scalar layers in UVAsAlpha mode. Nil means white.
	Tint *vpaint.RGBA
	// Palette, when it has at least five entries, tints gradient1 with
	// entry 4 and gradient2 with entry 5, counting from 1.
	Palette []vpaint.RGBA
	// ApplyOpacity multiplies alpha by the layer opacity.
	ApplyOpacity bool
}

// PutOptions controls how a layer is written.
type PutOptions struct {
	Source ScalarSource
}

// ChannelAdder is implemented by stores that can create channels.
type ChannelAdder interface {
	AddVector(name string, fill vpaint.RGBA)
	AddCoord(name string, a, b float64)
}

// Set is the layer stack of one mesh.
//
// A Set is not safe for concurrent mutation of layer properties.
type Set struct {
	store  attr.Storage
	layers []*Layer
	byName map[string]*Layer
}

// NewSet builds the template layer stack over store. When store implements
// ChannelAdder, missing backing channels are created with layer defaults.
func NewSet(store attr.Storage) *Set {
	tmpl := Template()
	s := &Set{
		store:  store,
		layers: make([]*Layer, len(tmpl)),
		byName: make(map[string]*Layer, len(tmpl)),
	}
	for i := range tmpl {
		l := &tmpl[i]
		s.layers[i] = l
		s.byName[l.Name] = l
	}

	if adder, ok := store.(ChannelAdder); ok {
		s.createChannels(adder)
	}
	vpaint.Logger().Info("layer: set created", "layers", len(s.layers), "corners", store.CornerCount())
	return s
}

func (s *Set) createChannels(adder ChannelAdder) {
	lanes := make(map[string]*[2]float64)
	var order []string
	lane := func(name string) *[2]float64 {
		if v, ok := lanes[name]; ok {
			return v
		}
		v := new([2]float64)
		lanes[name] = v
		order = append(order, name)
		return v
	}

	for _, l := range s.layers {
		switch l.Kind {
		case KindColor:
			adder.AddVector(l.Backing.Channel, l.Default)
		case KindScalar:
			lane(l.Backing.Channel)[l.Backing.Lane] = l.defaultScalar()
		case KindQuadScalar:
			*lane(l.Backing.Channel) = [2]float64{l.Default.R, l.Default.G}
			*lane(l.Backing.Second) = [2]float64{l.Default.B, l.Default.A}
		}
	}
	for _, name := range order {
		v := lanes[name]
		adder.AddCoord(name, v[0], v[1])
	}
}

// Store returns the backing attribute store.
func (s *Set) Store() attr.Storage { return s.store }

// CornerCount returns the length of every layer buffer.
func (s *Set) CornerCount() int { return s.store.CornerCount() }

// Lookup returns the named layer.
func (s *Set) Lookup(name string) (*Layer, bool) {
	l, ok := s.byName[name]
	return l, ok
}

// Layer returns the named layer or ErrLayerNotFound.
func (s *Set) Layer(name string) (*Layer, error) {
	l, ok := s.byName[name]
	if !ok {
		return nil, errors.Wrap(vpaint.ErrLayerNotFound, name)
	}
	return l, nil
}

// Layers returns every layer in index order.
func (s *Set) Layers() []*Layer {
	return append([]*Layer(nil), s.layers...)
}

// Enabled returns the enabled layers in index order.
func (s *Set) Enabled() []*Layer {
	var out []*Layer
	for _, l := range s.layers {
		if l.Enabled {
			out = append(out, l)
		}
	}
	return out
}

// Get reads the named layer as one color per corner.
func (s *Set) Get(name string, opts GetOptions) ([]vpaint.RGBA, error) {
	l, err := s.Layer(name)
	if err != nil {
		return nil, err
	}
	return s.get(l, opts)
}

func (s *Set) get(l *Layer, opts GetOptions) ([]vpaint.RGBA, error) {
	var out []vpaint.RGBA
	switch l.Kind {
	case KindColor:
		buf, err := s.store.ReadVector(l.Backing.Channel)
		if err != nil {
			return nil, errors.Wrapf(err, "layer %s", l.Name)
		}
		out = attr.Colors(buf)

	case KindScalar:
		values, err := attr.ReadLane(s.store, l.Backing.Channel, l.Backing.Lane)
		if err != nil {
			return nil, errors.Wrapf(err, "layer %s", l.Name)
		}
		tint := s.tint(l, opts)
		out = make([]vpaint.RGBA, len(values))
		for i, v := range values {
			if opts.UVAsAlpha {
				out[i] = vpaint.RGBA{R: tint.R, G: tint.G, B: tint.B, A: v}
			} else {
				out[i] = vpaint.RGBA{R: v, G: v, B: v, A: 1}
			}
		}

	case KindQuadScalar:
		first, err := s.store.ReadCoord(l.Backing.Channel)
		if err != nil {
			return nil, errors.Wrapf(err, "layer %s", l.Name)
		}
		second, err := s.store.ReadCoord(l.Backing.Second)
		if err != nil {
			return nil, errors.Wrapf(err, "layer %s", l.Name)
		}
		out = make([]vpaint.RGBA, len(first)/attr.CoordArity)
		for i := range out {
			out[i] = vpaint.RGBA{R: first[2*i], G: first[2*i+1], B: second[2*i], A: second[2*i+1]}
		}

	default:
		return nil, errors.Wrapf(vpaint.ErrUnsupportedKind, "layer %s: %s", l.Name, l.Kind)
	}

	if opts.ApplyOpacity {
		for i := range out {
			out[i].A *= l.Opacity
		}
	}
	return out, nil
}

func (s *Set) tint(l *Layer, opts GetOptions) vpaint.RGBA {
	if slot := l.gradientSlot(); slot >= 0 && len(opts.Palette) >= 5 {
		return opts.Palette[3+slot]
	}
	if opts.Tint != nil {
		return *opts.Tint
	}
	return vpaint.White
}

// Put writes colors into the named layer. A locked color or overlay layer
// takes the new RGB and keeps its current alpha.
func (s *Set) Put(name string, colors []vpaint.RGBA, opts PutOptions) error {
	l, err := s.Layer(name)
	if err != nil {
		return err
	}
	return s.put(l, colors, opts)
}

func (s *Set) put(l *Layer, colors []vpaint.RGBA, opts PutOptions) error {
	if len(colors) != s.store.CornerCount() {
		return errors.Wrapf(vpaint.ErrLengthMismatch, "layer %s: %d colors for %d corners",
			l.Name, len(colors), s.store.CornerCount())
	}
	if l.PreservesAlpha() {
		current, err := s.get(l, GetOptions{})
		if err != nil {
			return err
		}
		colors = KeepAlpha(colors, current)
	}

	switch l.Kind {
	case KindColor:
		return s.store.WriteVector(l.Backing.Channel, attr.Flatten(colors))

	case KindScalar:
		return attr.WriteLane(s.store, l.Backing.Channel, l.Backing.Lane, toScalars(l, colors, opts.Source))

	case KindQuadScalar:
		first := make([]float64, len(colors)*attr.CoordArity)
		second := make([]float64, len(colors)*attr.CoordArity)
		for i, c := range colors {
			first[2*i], first[2*i+1] = c.R, c.G
			second[2*i], second[2*i+1] = c.B, c.A
		}
		if err := s.store.WriteCoord(l.Backing.Channel, first); err != nil {
			return err
		}
		return s.store.WriteCoord(l.Backing.Second, second)

	default:
		return errors.Wrapf(vpaint.ErrUnsupportedKind, "layer %s: %s", l.Name, l.Kind)
	}
}

func toScalars(l *Layer, colors []vpaint.RGBA, src ScalarSource) []float64 {
	useAlpha := false
	switch src {
	case SourceAlpha:
		useAlpha = true
	case SourceDefault:
		useAlpha = l.IsGradient()
	case SourceInferred:
		useAlpha = l.IsGradient() && !uniformOpaque(colors)
	}

	out := make([]float64, len(colors))
	for i, c := range colors {
		if useAlpha {
			out[i] = c.A
		} else {
			out[i] = c.Luminance()
		}
	}
	return out
}

func uniformOpaque(colors []vpaint.RGBA) bool {
	for _, c := range colors {
		if c.A != 1 {
			return false
		}
	}
	return true
}

// Mask extracts a per-corner mask from the named layer: alpha of color
// layers, the lane of scalar layers, and lane B of the second channel of the
// quad layer. isEmpty reports that every value is exactly 0.
func (s *Set) Mask(name string) (mask *vpaint.Mask, isEmpty bool, err error) {
	l, err := s.Layer(name)
	if err != nil {
		return nil, false, err
	}

	var values []float64
	switch l.Kind {
	case KindColor:
		buf, err := s.store.ReadVector(l.Backing.Channel)
		if err != nil {
			return nil, false, errors.Wrapf(err, "layer %s", l.Name)
		}
		values = make([]float64, len(buf)/attr.VectorArity)
		for i := range values {
			values[i] = buf[4*i+3]
		}
	case KindScalar:
		values, err = attr.ReadLane(s.store, l.Backing.Channel, l.Backing.Lane)
	case KindQuadScalar:
		values, err = attr.ReadLane(s.store, l.Backing.Second, attr.LaneB)
	default:
		err = errors.Wrapf(vpaint.ErrUnsupportedKind, "layer %s: %s", l.Name, l.Kind)
	}
	if err != nil {
		return nil, false, err
	}

	mask = vpaint.NewMaskFromValues(values)
	return mask, mask.IsEmpty(), nil
}
