package generate

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/gogpu/vpaint"
)

// samplesPerDegree sets the jittered direction count per degree of cone.
const samplesPerDegree = 5

// Directional shades vertices by how squarely they face a light coming from
// Inclination and Azimuth, softened over ConeAngle degrees of jitter. No rays
// are cast. The brightest vertex is normalized to 1.
func Directional(c *Context) ([]vpaint.RGBA, error) {
	if err := c.begin(); err != nil {
		return nil, err
	}
	p := c.params
	dirs := c.directions(p.ConeAngle, p.Inclination, p.Azimuth)
	normals := c.mesh.WorldNormals()
	verts := c.vertices()

	values := make([]float64, len(verts))
	peak := 0.0
	for i, v := range verts {
		n, ok := unit(normals[v])
		if !ok {
			continue
		}
		sum := 0.0
		for _, d := range dirs {
			sum += max(0, min(1, n.Dot(d)))
		}
		values[i] = sum
		peak = max(peak, sum)
	}
	if peak > 0 {
		for i := range values {
			values[i] /= peak
		}
	}

	vpaint.Logger().Debug("generate: directional", "vertices", len(verts), "directions", len(dirs))
	return c.finish(scalarMap(verts, values), 1)
}

// directions draws max(1, cone*5) unit vectors jittered by up to half the
// cone around the given inclination and azimuth, in degrees.
func (c *Context) directions(cone, inclination, azimuth float64) []mgl64.Vec3 {
	n := max(1, int(cone*samplesPerDegree))
	half := cone / 2
	out := make([]mgl64.Vec3, n)
	for i := range out {
		theta := inclination + c.uniform(-half, half) - 90
		phi := azimuth + c.uniform(-half, half) + 90
		out[i] = mgl64.SphericalToCartesian(1, mgl64.DegToRad(theta), mgl64.DegToRad(phi))
	}
	return out
}
