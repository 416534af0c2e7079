package generate

import (
	"math"

	"github.com/gogpu/vpaint"
)

// Curvature shades each vertex by how sharply its edges fall away from the
// normal: above 0.5 is convex, below is concave. With NormalizeCurvature the
// convex and concave halves are stretched to fill [0.5, 1] and [0, 0.5].
// Boundary vertices of tiling meshes are neutral.
func Curvature(c *Context) ([]vpaint.RGBA, error) {
	if err := c.begin(); err != nil {
		return nil, err
	}
	m := c.mesh
	verts := c.vertices()

	raw := make([]float64, len(verts))
	isolated := 0
	for i, v := range verts {
		k, ok := vertexCurvature(c, v)
		if !ok {
			isolated++
		}
		raw[i] = k
	}
	if isolated > 0 {
		vpaint.Logger().Warn("generate: curvature vertices without normal or edges", "mesh", m.Name, "vertices", isolated)
	}

	values := make([]float64, len(verts))
	if c.params.NormalizeCurvature {
		hi, lo := 0.0, 0.0
		for _, k := range raw {
			hi = max(hi, k)
			lo = min(lo, k)
		}
		for i, k := range raw {
			switch {
			case k > 0:
				values[i] = k/hi*0.5 + 0.5
			case k < 0:
				values[i] = k/lo*-0.5 + 0.5
			default:
				values[i] = 0.5
			}
		}
	} else {
		for i, k := range raw {
			values[i] = k + 0.5
		}
	}

	if m.Tiling {
		for i, v := range verts {
			if m.IsBoundary(v) {
				values[i] = 0.5
			}
		}
	}

	vpaint.Logger().Debug("generate: curvature", "vertices", len(verts), "normalized", c.params.NormalizeCurvature)
	return c.finish(scalarMap(verts, values), 1)
}

// vertexCurvature averages angle/π - 0.5 over the edges of v, where angle is
// between the vertex normal and the edge direction. Vertices without a usable
// normal or edge are flat and report false.
func vertexCurvature(c *Context, v int) (float64, bool) {
	m := c.mesh
	n, ok := unit(m.Normals[v])
	if !ok {
		return 0, false
	}
	neighbors := m.Neighbors(v)
	if len(neighbors) == 0 {
		return 0, false
	}
	sum := 0.0
	count := 0
	for _, u := range neighbors {
		edge, ok := unit(m.Positions[u].Sub(m.Positions[v]))
		if !ok {
			continue
		}
		angle := math.Acos(max(-1, min(1, n.Dot(edge))))
		sum += angle/math.Pi - 0.5
		count++
	}
	if count == 0 {
		return 0, false
	}
	return min(sum/float64(count), 1), true
}
