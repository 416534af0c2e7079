package vpaint

import (
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// BlendMode is a per-channel compositing operator.
type BlendMode int

const (
	// BlendAlpha mixes top over base by top alpha.
	BlendAlpha BlendMode = iota
	// BlendAdd adds alpha-weighted top to base.
	BlendAdd
	// BlendMultiply multiplies base by top, faded by top alpha.
	BlendMultiply
	// BlendOverlay applies the classic overlay curve around 0.5.
	BlendOverlay
)

var blendModeNames = [...]string{
	BlendAlpha:    "alpha",
	BlendAdd:      "add",
	BlendMultiply: "multiply",
	BlendOverlay:  "overlay",
}

// String returns the lower-case mode name.
func (m BlendMode) String() string {
	if m < 0 || int(m) >= len(blendModeNames) {
		return "unknown"
	}
	return blendModeNames[m]
}

// Valid reports whether m is one of the four defined modes.
func (m BlendMode) Valid() bool {
	return m >= BlendAlpha && m <= BlendOverlay
}

// ParseBlendMode parses a mode name, ignoring case.
func ParseBlendMode(s string) (BlendMode, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for i, name := range blendModeNames {
		if name == s {
			return BlendMode(i), nil
		}
	}
	return BlendAlpha, errors.Errorf("vpaint: unknown blend mode %q", s)
}

// MarshalYAML implements yaml.Marshaler.
func (m BlendMode) MarshalYAML() (any, error) {
	return m.String(), nil
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (m *BlendMode) UnmarshalYAML(value *yaml.Node) error {
	parsed, err := ParseBlendMode(value.Value)
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}
