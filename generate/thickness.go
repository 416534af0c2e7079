package generate

import (
	"sort"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/gogpu/vpaint"
	"github.com/gogpu/vpaint/mesh"
)

// Thickness casts rays into the surface along the inverted normal and
// reports the fraction that hit the far side. Thin walls score high.
//
// A first pass of FirstPassRays rays per vertex collects hit distances; the
// main pass is limited to their median times DistanceScale so rays cannot
// reach unrelated geometry. Without first-pass hits the limit falls back to
// MaxRayDistance. Use Invert for thick-is-bright output.
func Thickness(c *Context) ([]vpaint.RGBA, error) {
	if err := c.begin(); err != nil {
		return nil, err
	}
	p := c.params
	m := c.mesh
	verts := c.vertices()
	probe := c.hemisphere(p.FirstPassRays)
	samples := c.hemisphere(p.RayCount)
	tracer := c.localTracer()
	fallback := maxDistance(p.MaxRayDistance)

	perVertex := make([][]float64, len(verts))
	c.run(len(verts), func(start, end int) {
		for i := start; i < end; i++ {
			perVertex[i] = inwardDistances(tracer, m.Positions[verts[i]], m.Normals[verts[i]], probe, fallback)
		}
	})
	var distances []float64
	for _, d := range perVertex {
		distances = append(distances, d...)
	}

	reach := thicknessReach(distances, p.DistanceScale, fallback)
	if len(distances) == 0 {
		vpaint.Logger().Warn("generate: thickness probe found no hits", "mesh", m.Name, "reach", reach)
	}

	values := make([]float64, len(verts))
	c.run(len(verts), func(start, end int) {
		for i := start; i < end; i++ {
			values[i] = thicknessAt(tracer, m.Positions[verts[i]], m.Normals[verts[i]], samples, reach)
		}
	})

	vpaint.Logger().Debug("generate: thickness",
		"vertices", len(verts), "rays", p.RayCount, "probeHits", len(distances), "reach", reach)
	return c.finish(scalarMap(verts, values), 1)
}

// inward returns the inverted unit normal and an origin just inside the surface.
func inward(pos, n mgl64.Vec3) (origin, dir mgl64.Vec3, ok bool) {
	n, ok = unit(n)
	if !ok {
		return pos, n, false
	}
	dir = n.Mul(-1)
	return pos.Add(dir.Mul(biasBase)), dir, true
}

func inwardDistances(t mesh.Tracer, pos, n mgl64.Vec3, probe []mgl64.Vec3, reach float64) []float64 {
	origin, dir, ok := inward(pos, n)
	if !ok {
		return nil
	}
	f := newFrame(dir)
	var out []float64
	for _, s := range probe {
		if h, hit := t.CastRay(origin, f.rotate(s), reach); hit {
			out = append(out, h.Distance)
		}
	}
	return out
}

func thicknessAt(t mesh.Tracer, pos, n mgl64.Vec3, samples []mgl64.Vec3, reach float64) float64 {
	origin, dir, ok := inward(pos, n)
	if !ok {
		return 0
	}
	hits := countHits(t, origin, newFrame(dir), samples, reach)
	return float64(hits) / float64(len(samples))
}

// thicknessReach limits the main pass to the median probe distance times
// scale, or fallback when the probe found nothing.
func thicknessReach(distances []float64, scale, fallback float64) float64 {
	if len(distances) == 0 {
		return fallback
	}
	return median(distances) * scale
}

func median(values []float64) float64 {
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		return sorted[mid]
	}
	return (sorted[mid-1] + sorted[mid]) / 2
}

// Invert returns 1-v for each color channel, keeping alpha.
func Invert(colors []vpaint.RGBA) []vpaint.RGBA {
	out := make([]vpaint.RGBA, len(colors))
	for i, c := range colors {
		out[i] = vpaint.RGBA{R: 1 - c.R, G: 1 - c.G, B: 1 - c.B, A: c.A}
	}
	return out
}
