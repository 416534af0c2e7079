package engine

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/gogpu/vpaint"
	"github.com/gogpu/vpaint/generate"
)

// Generator names a value producer.
type Generator int

const (
	Curvature Generator = iota
	Occlusion
	Thickness
	Directional
	Noise
	PositionalRamp
	LuminanceRemap
	Fill
)

var generatorNames = [...]string{
	Curvature:      "curvature",
	Occlusion:      "occlusion",
	Thickness:      "thickness",
	Directional:    "directional",
	Noise:          "noise",
	PositionalRamp: "ramp",
	LuminanceRemap: "remap",
	Fill:           "fill",
}

func (g Generator) String() string {
	if g >= 0 && int(g) < len(generatorNames) {
		return generatorNames[g]
	}
	return "Generator(" + strconv.Itoa(int(g)) + ")"
}

// ParseGenerator returns the generator with the given name, ignoring case.
func ParseGenerator(s string) (Generator, error) {
	for g, name := range generatorNames {
		if strings.EqualFold(s, name) {
			return Generator(g), nil
		}
	}
	return 0, errors.Wrapf(vpaint.ErrInvalidParams, "unknown generator %q", s)
}

// MaskSource selects where a generation mask comes from.
type MaskSource int

const (
	// MaskNone generates over the whole mesh.
	MaskNone MaskSource = iota
	// MaskSelection restricts generation to the host selection. With nothing
	// selected the whole mesh is used.
	MaskSelection
	// MaskLayer restricts generation to the alpha (or lane) of another layer.
	// An all-zero layer skips the operation.
	MaskLayer
)

// GenerateOptions controls one Generate call.
type GenerateOptions struct {
	// Mode and Opacity blend the generated values onto the target.
	Mode    vpaint.BlendMode
	Opacity float64

	Mask          MaskSource
	MaskLayer     string
	MaskMode      vpaint.MaskMode
	FaceSelection bool

	// Ramp colors PositionalRamp and LuminanceRemap. Nil means black to white.
	Ramp *vpaint.Ramp
	// Source is the layer whose luminance LuminanceRemap reads. Empty means
	// the target itself.
	Source string
	// Color is the Fill color.
	Color vpaint.RGBA
	// Invert flips the generated RGB before blending.
	Invert bool
}

// Defaults returns options that replace the target with the generated
// values: Alpha mode at full opacity over the whole mesh.
func Defaults() GenerateOptions {
	return GenerateOptions{Mode: vpaint.BlendAlpha, Opacity: 1}
}

func grayRamp() *vpaint.Ramp {
	return vpaint.NewRamp().AddStop(0, vpaint.Black).AddStop(1, vpaint.White)
}

// produce runs g over ctx.
func (e *Engine) produce(ctx *generate.Context, target string, g Generator, opts GenerateOptions) ([]vpaint.RGBA, error) {
	ramp := opts.Ramp
	if ramp == nil {
		ramp = grayRamp()
	}

	switch g {
	case Curvature:
		return generate.Curvature(ctx)
	case Occlusion:
		return generate.Occlusion(ctx)
	case Thickness:
		return generate.Thickness(ctx)
	case Directional:
		return generate.Directional(ctx)
	case Noise:
		return generate.Noise(ctx)
	case PositionalRamp:
		return generate.PositionalRamp(ctx, ramp, e.others()...)
	case LuminanceRemap:
		src := opts.Source
		if src == "" {
			src = target
		}
		colors, err := e.set.Get(src, layerValues)
		if err != nil {
			return nil, err
		}
		return generate.LuminanceRemap(ctx, generate.Luminances(colors), ramp)
	case Fill:
		return generate.Fill(ctx, opts.Color)
	}
	return nil, errors.Wrapf(vpaint.ErrInvalidParams, "unknown generator %d", int(g))
}
