package generate

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/gogpu/vpaint/mesh"
)

// forward is the reference axis hemisphere samples are generated around.
var forward = mgl64.Vec3{0, 0, 1}

// hemisphere draws n cosine-weighted unit directions around +Z.
func (c *Context) hemisphere(n int) []mgl64.Vec3 {
	out := make([]mgl64.Vec3, n)
	for i := range out {
		u1, u2 := c.rng.Float64(), c.rng.Float64()
		r := math.Sqrt(u1)
		theta := 2 * math.Pi * u2
		out[i] = mgl64.Vec3{r * math.Cos(theta), r * math.Sin(theta), math.Sqrt(1 - u1)}
	}
	return out
}

// frame rotates the sample set onto normal n.
type frame struct {
	q mgl64.Quat
}

func newFrame(n mgl64.Vec3) frame {
	return frame{q: mgl64.QuatBetweenVectors(forward, n)}
}

func (f frame) rotate(v mgl64.Vec3) mgl64.Vec3 {
	return f.q.Rotate(v)
}

// unit normalizes v and reports false for zero or non-finite vectors.
func unit(v mgl64.Vec3) (mgl64.Vec3, bool) {
	l := v.Len()
	if l == 0 || math.IsNaN(l) || math.IsInf(l, 0) {
		return v, false
	}
	return v.Mul(1 / l), true
}

// countHits returns how many of samples, rotated into f, hit t from origin.
func countHits(t mesh.Tracer, origin mgl64.Vec3, f frame, samples []mgl64.Vec3, maxDist float64) int {
	hits := 0
	for _, s := range samples {
		if _, ok := t.CastRay(origin, f.rotate(s), maxDist); ok {
			hits++
		}
	}
	return hits
}
