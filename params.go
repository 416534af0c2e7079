package vpaint

import (
	"io"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Axis is a world axis used by positional ramps.
type Axis int

const (
	AxisX Axis = iota
	AxisY
	AxisZ
)

var axisNames = [...]string{AxisX: "x", AxisY: "y", AxisZ: "z"}

func (a Axis) String() string { return enumName(axisNames[:], int(a)) }

// MarshalYAML implements yaml.Marshaler.
func (a Axis) MarshalYAML() (any, error) { return a.String(), nil }

// UnmarshalYAML implements yaml.Unmarshaler.
func (a *Axis) UnmarshalYAML(value *yaml.Node) error {
	return decodeEnum(value, axisNames[:], (*int)(a))
}

// Params is the generator parameter set. The zero value is not useful;
// start from DefaultParams.
type Params struct {
	// Seed re-seeds the random source of every generator call.
	Seed uint64 `yaml:"seed"`

	// RayCount is the number of hemisphere rays per vertex.
	RayCount int `yaml:"rayCount"`
	// BlendFactor mixes local (0) and scene (1) occlusion.
	BlendFactor float64 `yaml:"blendFactor"`
	// MaxRayDistance bounds occlusion rays; 0 means unbounded.
	MaxRayDistance float64 `yaml:"maxRayDistance"`
	// UseGroundPlane adds a temporary ground quad to the scene pass.
	UseGroundPlane bool `yaml:"groundPlane"`
	// GroundOffset is the distance of the ground quad below the mesh bounds.
	GroundOffset float64 `yaml:"groundOffset"`
	// QuantizeSteps rounds occlusion to round(v*N)/N when positive.
	QuantizeSteps int `yaml:"quantizeSteps"`

	// FirstPassRays is the ray count of the thickness distance estimate.
	FirstPassRays int `yaml:"firstPassRays"`
	// DistanceScale multiplies the median first-pass distance.
	DistanceScale float64 `yaml:"distanceScale"`

	ConeAngle   float64 `yaml:"coneAngle"`
	Inclination float64 `yaml:"inclination"`
	Azimuth     float64 `yaml:"azimuth"`

	NoiseAmplitude float64 `yaml:"noiseAmplitude"`
	NoiseOffset    float64 `yaml:"noiseOffset"`
	Monochrome     bool    `yaml:"monochrome"`

	NormalizeCurvature bool `yaml:"normalizeCurvature"`

	RampAxis          Axis `yaml:"rampAxis"`
	UseCombinedBounds bool `yaml:"combinedBounds"`
}

// DefaultParams returns the parameter set used when nothing is configured.
func DefaultParams() Params {
	return Params{
		Seed:               42,
		RayCount:           256,
		BlendFactor:        0.5,
		MaxRayDistance:     10,
		GroundOffset:       0.5,
		FirstPassRays:      20,
		DistanceScale:      0.5,
		ConeAngle:          0,
		Inclination:        0,
		Azimuth:            0,
		NoiseAmplitude:     0.5,
		NoiseOffset:        0.5,
		Monochrome:         true,
		NormalizeCurvature: true,
		RampAxis:           AxisZ,
	}
}

// Validate checks every field against its documented range.
func (p Params) Validate() error {
	check := func(ok bool, format string, args ...any) error {
		if ok {
			return nil
		}
		return errors.Wrapf(ErrInvalidParams, format, args...)
	}
	for _, err := range []error{
		check(p.RayCount >= 1, "rayCount %d < 1", p.RayCount),
		check(p.BlendFactor >= 0 && p.BlendFactor <= 1, "blendFactor %v outside [0,1]", p.BlendFactor),
		check(p.MaxRayDistance >= 0, "maxRayDistance %v < 0", p.MaxRayDistance),
		check(p.GroundOffset >= 0, "groundOffset %v < 0", p.GroundOffset),
		check(p.QuantizeSteps >= 0, "quantizeSteps %d < 0", p.QuantizeSteps),
		check(p.FirstPassRays >= 1, "firstPassRays %d < 1", p.FirstPassRays),
		check(p.DistanceScale > 0, "distanceScale %v <= 0", p.DistanceScale),
		check(p.ConeAngle >= 0 && p.ConeAngle <= 360, "coneAngle %v outside [0,360]", p.ConeAngle),
		check(p.Inclination >= -90 && p.Inclination <= 90, "inclination %v outside [-90,90]", p.Inclination),
		check(p.Azimuth >= -360 && p.Azimuth <= 360, "azimuth %v outside [-360,360]", p.Azimuth),
		check(p.NoiseAmplitude >= 0 && p.NoiseAmplitude <= 1, "noiseAmplitude %v outside [0,1]", p.NoiseAmplitude),
		check(p.NoiseOffset >= 0 && p.NoiseOffset <= 1, "noiseOffset %v outside [0,1]", p.NoiseOffset),
		check(p.RampAxis >= AxisX && p.RampAxis <= AxisZ, "rampAxis %d", p.RampAxis),
	} {
		if err != nil {
			return err
		}
	}
	return nil
}

// LoadParams decodes YAML over DefaultParams, so a preset only needs to name
// the fields it changes. The result is validated.
func LoadParams(r io.Reader) (Params, error) {
	p := DefaultParams()
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&p); err != nil && err != io.EOF {
		return Params{}, errors.Wrap(err, "vpaint: decode params")
	}
	if err := p.Validate(); err != nil {
		return Params{}, err
	}
	return p, nil
}
