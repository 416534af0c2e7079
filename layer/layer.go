// Package layer maps the fixed set of paint layers onto attribute channels.
//
// Every layer, whatever its kind, reads and writes as one RGBA color per
// corner. Color layers back a vector channel. Scalar layers back one lane of
// a coordinate channel. The quad layer spreads four values across two
// coordinate channels.
package layer

import (
	"strconv"

	"github.com/gogpu/vpaint"
	"github.com/gogpu/vpaint/attr"
)

// Kind is the storage shape of a layer.
type Kind int

const (
	// KindColor is an RGBA layer backed by a vector channel.
	KindColor Kind = iota
	// KindScalar is a single float backed by one coordinate lane.
	KindScalar
	// KindQuadScalar is four floats backed by both lanes of two coordinate channels.
	KindQuadScalar
)

func (k Kind) String() string {
	switch k {
	case KindColor:
		return "color"
	case KindScalar:
		return "scalar"
	case KindQuadScalar:
		return "quad"
	default:
		return "unknown"
	}
}

// Names of the template layers.
const (
	Composite    = "composite"
	Occlusion    = "occlusion"
	Metallic     = "metallic"
	Smoothness   = "smoothness"
	Transmission = "transmission"
	Emission     = "emission"
	Gradient1    = "gradient1"
	Gradient2    = "gradient2"
	Overlay      = "overlay"
	Texture      = "texture"
	Masks        = "masks"
)

// ColorLayer returns the name of paint layer n, 1 through 7.
func ColorLayer(n int) string {
	return "layer" + strconv.Itoa(n)
}

// Backing locates a layer's data in attribute storage.
type Backing struct {
	// Channel is the vector channel, or the coordinate channel holding the
	// scalar or the first half of a quad.
	Channel string
	// Lane is the scalar's lane within Channel.
	Lane attr.Lane
	// Second holds the last two values of a quad.
	Second string
}

// Layer describes one paint layer. Callers may toggle Enabled, Visible and
// Locked and change Opacity and Mode; the backing is fixed. Locked is a paint
// lock on alpha: writes change color but never coverage.
type Layer struct {
	Name    string
	Index   int
	Kind    Kind
	Enabled bool
	Visible bool
	Locked  bool
	Opacity float64
	Mode    vpaint.BlendMode
	Default vpaint.RGBA
	Backing Backing
}

// IsGradient reports whether l is one of the two gradient layers.
func (l *Layer) IsGradient() bool {
	return l.Name == Gradient1 || l.Name == Gradient2
}

// PreservesAlpha reports whether writes to l keep its current alpha. Locked
// color and overlay layers do; scalar layers have no alpha to lock.
func (l *Layer) PreservesAlpha() bool {
	return l.Locked && (l.Kind == KindColor || l.Kind == KindQuadScalar)
}

// KeepAlpha returns colors with the alpha of current.
func KeepAlpha(colors, current []vpaint.RGBA) []vpaint.RGBA {
	out := make([]vpaint.RGBA, len(colors))
	for i, c := range colors {
		c.A = current[i].A
		out[i] = c
	}
	return out
}

// gradientSlot returns 0 or 1 for the gradient layers and -1 otherwise.
func (l *Layer) gradientSlot() int {
	switch l.Name {
	case Gradient1:
		return 0
	case Gradient2:
		return 1
	default:
		return -1
	}
}

// defaultScalar is the scalar value stored by Clear.
func (l *Layer) defaultScalar() float64 {
	return l.Default.R
}

func colorLayer(name string, index, channel int, def vpaint.RGBA) Layer {
	return Layer{
		Name:    name,
		Index:   index,
		Kind:    KindColor,
		Enabled: true,
		Visible: true,
		Opacity: 1,
		Mode:    vpaint.BlendAlpha,
		Default: def,
		Backing: Backing{Channel: attr.VertexColor(channel)},
	}
}

func scalarLayer(name string, index, uvset int, lane attr.Lane, def float64) Layer {
	return Layer{
		Name:    name,
		Index:   index,
		Kind:    KindScalar,
		Enabled: true,
		Visible: true,
		Opacity: 1,
		Mode:    vpaint.BlendAlpha,
		Default: vpaint.Gray(def),
		Backing: Backing{Channel: attr.UVSet(uvset), Lane: lane},
	}
}

// Template returns a fresh copy of the eighteen layers in index order.
func Template() []Layer {
	layers := []Layer{
		colorLayer(Composite, 0, 0, vpaint.White),
		colorLayer(ColorLayer(1), 1, 1, vpaint.White),
	}
	for n := 2; n <= 7; n++ {
		layers = append(layers, colorLayer(ColorLayer(n), n, n, vpaint.Transparent))
	}
	layers = append(layers,
		scalarLayer(Occlusion, 8, 1, attr.LaneA, 1),
		scalarLayer(Metallic, 9, 3, attr.LaneA, 0),
		scalarLayer(Smoothness, 10, 3, attr.LaneB, 0),
		scalarLayer(Transmission, 11, 1, attr.LaneB, 0),
		scalarLayer(Emission, 12, 2, attr.LaneA, 0),
		scalarLayer(Gradient1, 13, 4, attr.LaneA, 0),
		scalarLayer(Gradient2, 14, 4, attr.LaneB, 0),
		Layer{
			Name:    Overlay,
			Index:   15,
			Kind:    KindQuadScalar,
			Enabled: true,
			Visible: true,
			Opacity: 1,
			Mode:    vpaint.BlendOverlay,
			Default: vpaint.RGBA{R: 0.5, G: 0.5, B: 0.5, A: 0},
			Backing: Backing{Channel: attr.UVSet(5), Second: attr.UVSet(6)},
		},
		scalarLayer(Texture, 16, 7, attr.LaneA, 0),
		scalarLayer(Masks, 17, 7, attr.LaneB, 0),
	)

	// Texture-id and mask slots hold data, not paint.
	layers[16].Enabled, layers[16].Visible = false, false
	layers[17].Enabled, layers[17].Visible = false, false
	return layers
}
