package vpaint

import (
	"image/color"
	"math"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"golang.org/x/image/colornames"
	"gopkg.in/yaml.v3"

	icolor "github.com/gogpu/vpaint/internal/color"
)

// RGBA represents a color with red, green, blue, and alpha components.
// Components are nominally in [0, 1] but are not clamped at storage time.
// RGB is sRGB-encoded; alpha is straight (not premultiplied).
type RGBA struct {
	R, G, B, A float64
}

// RGBA implements color.Color. The result is alpha-premultiplied as the
// interface requires.
func (c RGBA) RGBA() (r, g, b, a uint32) {
	return c.Color().RGBA()
}

// Color converts RGBA to a color.NRGBA.
func (c RGBA) Color() color.Color {
	return color.NRGBA{
		R: uint8(clamp01(c.R)*255 + 0.5),
		G: uint8(clamp01(c.G)*255 + 0.5),
		B: uint8(clamp01(c.B)*255 + 0.5),
		A: uint8(clamp01(c.A)*255 + 0.5),
	}
}

// FromColor converts a standard color.Color to RGBA.
func FromColor(c color.Color) RGBA {
	n := color.NRGBAModel.Convert(c).(color.NRGBA)
	return RGBA{
		R: float64(n.R) / 255,
		G: float64(n.G) / 255,
		B: float64(n.B) / 255,
		A: float64(n.A) / 255,
	}
}

// RGB creates an opaque color from RGB components.
func RGB(r, g, b float64) RGBA {
	return RGBA{R: r, G: g, B: b, A: 1}
}

// Gray creates an opaque gray with all three channels set to v.
func Gray(v float64) RGBA {
	return RGBA{R: v, G: v, B: v, A: 1}
}

// Hex creates a color from a hex string.
// Supports formats: "RGB", "RGBA", "RRGGBB", "RRGGBBAA", with or without '#'.
func Hex(hex string) (RGBA, error) {
	hex = strings.TrimPrefix(hex, "#")

	var digits int
	switch len(hex) {
	case 3, 4:
		digits = 1
	case 6, 8:
		digits = 2
	default:
		return RGBA{}, errors.Errorf("vpaint: invalid hex color %q", hex)
	}

	ch := [4]float64{0, 0, 0, 1}
	for i := 0; i*digits < len(hex); i++ {
		v, err := strconv.ParseUint(hex[i*digits:(i+1)*digits], 16, 8)
		if err != nil {
			return RGBA{}, errors.Wrapf(err, "vpaint: invalid hex color %q", hex)
		}
		if digits == 1 {
			v *= 17
		}
		ch[i] = float64(v) / 255
	}
	return RGBA{R: ch[0], G: ch[1], B: ch[2], A: ch[3]}, nil
}

// ParseColor accepts either an SVG 1.1 color keyword ("black", "steelblue")
// or a hex string.
func ParseColor(s string) (RGBA, error) {
	s = strings.TrimSpace(s)
	if named, ok := colornames.Map[strings.ToLower(s)]; ok {
		return FromColor(named), nil
	}
	return Hex(s)
}

// MustParseColor is like ParseColor but panics on error.
// It is meant for package-level tables and tests.
func MustParseColor(s string) RGBA {
	c, err := ParseColor(s)
	if err != nil {
		panic(err)
	}
	return c
}

// UnmarshalYAML accepts a color keyword, a hex string, or a sequence of
// three or four floats.
func (c *RGBA) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.ScalarNode:
		parsed, err := ParseColor(value.Value)
		if err != nil {
			return errors.Wrapf(err, "line %d", value.Line)
		}
		*c = parsed
		return nil
	case yaml.SequenceNode:
		var ch []float64
		if err := value.Decode(&ch); err != nil {
			return err
		}
		switch len(ch) {
		case 3:
			*c = RGB(ch[0], ch[1], ch[2])
		case 4:
			*c = RGBA{R: ch[0], G: ch[1], B: ch[2], A: ch[3]}
		default:
			return errors.Errorf("vpaint: line %d: color needs 3 or 4 components, got %d", value.Line, len(ch))
		}
		return nil
	}
	return errors.Errorf("vpaint: line %d: cannot decode color", value.Line)
}

// MarshalYAML writes the color as a flow sequence of four floats.
func (c RGBA) MarshalYAML() (any, error) {
	n := &yaml.Node{Kind: yaml.SequenceNode, Style: yaml.FlowStyle}
	for _, v := range [4]float64{c.R, c.G, c.B, c.A} {
		n.Content = append(n.Content, &yaml.Node{
			Kind:  yaml.ScalarNode,
			Tag:   "!!float",
			Value: strconv.FormatFloat(v, 'g', -1, 64),
		})
	}
	return n, nil
}

// Premultiply returns a premultiplied color.
func (c RGBA) Premultiply() RGBA {
	return RGBA{
		R: c.R * c.A,
		G: c.G * c.A,
		B: c.B * c.A,
		A: c.A,
	}
}

// Scale multiplies all four channels by s.
func (c RGBA) Scale(s float64) RGBA {
	return RGBA{R: c.R * s, G: c.G * s, B: c.B * s, A: c.A * s}
}

// Lerp performs linear interpolation between two colors.
func (c RGBA) Lerp(other RGBA, t float64) RGBA {
	return RGBA{
		R: c.R + (other.R-c.R)*t,
		G: c.G + (other.G-c.G)*t,
		B: c.B + (other.B-c.B)*t,
		A: c.A + (other.A-c.A)*t,
	}
}

// Distance returns the Euclidean distance between two colors in RGBA space.
func (c RGBA) Distance(other RGBA) float64 {
	dr, dg, db, da := c.R-other.R, c.G-other.G, c.B-other.B, c.A-other.A
	return math.Sqrt(dr*dr + dg*dg + db*db + da*da)
}

// ToLinear converts RGB from sRGB to linear light. Alpha is unchanged.
func (c RGBA) ToLinear() RGBA {
	return RGBA{
		R: icolor.SRGBToLinear(c.R),
		G: icolor.SRGBToLinear(c.G),
		B: icolor.SRGBToLinear(c.B),
		A: c.A,
	}
}

// ToSRGB converts RGB from linear light to sRGB. Alpha is unchanged.
func (c RGBA) ToSRGB() RGBA {
	return RGBA{
		R: icolor.LinearToSRGB(c.R),
		G: icolor.LinearToSRGB(c.G),
		B: icolor.LinearToSRGB(c.B),
		A: c.A,
	}
}

// Luminance returns the alpha-weighted perceived brightness used whenever a
// color must feed a scalar channel.
func (c RGBA) Luminance() float64 {
	return icolor.Luminance(c.R, c.G, c.B, c.A)
}

// HSL returns hue, saturation and lightness, each in [0, 1].
func (c RGBA) HSL() (h, s, l float64) {
	return icolor.RGBToHSL(c.R, c.G, c.B)
}

// HSL creates a color from hue, saturation and lightness in [0, 1].
func HSL(h, s, l, a float64) RGBA {
	r, g, b := icolor.HSLToRGB(h, s, l)
	return RGBA{R: r, G: g, B: b, A: a}
}

func clamp01(x float64) float64 {
	if x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}

// Common colors
var (
	Black       = RGB(0, 0, 0)
	White       = RGB(1, 1, 1)
	Red         = RGB(1, 0, 0)
	Green       = RGB(0, 1, 0)
	Blue        = RGB(0, 0, 1)
	MidGray     = Gray(0.5)
	Transparent = RGBA{}
)
