package generate

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/gogpu/vpaint"
	"github.com/gogpu/vpaint/mesh"
)

const (
	// biasBase is the minimum offset of ray origins along the normal.
	biasBase = 0.001
	// biasProbe is the reach of the self-intersection probe.
	biasProbe = 0.5
)

// Occlusion estimates ambient occlusion by casting cosine-weighted hemisphere
// rays from every vertex. 1 is fully open, 0 fully occluded.
//
// The local pass traces the mesh alone in object space; the scene pass traces
// every scene object in world space, plus the ground quad when enabled.
// BlendFactor mixes the two. Tiling meshes also trace their eight neighbors.
func Occlusion(c *Context) ([]vpaint.RGBA, error) {
	if err := c.begin(); err != nil {
		return nil, err
	}
	p := c.params
	m := c.mesh
	verts := c.vertices()
	samples := c.hemisphere(p.RayCount)
	reach := maxDistance(p.MaxRayDistance)

	// The bias probe only sees the mesh itself, so other objects and the
	// ground quad are always sampled.
	var local, global, localSelf, worldSelf mesh.Tracer
	if p.BlendFactor < 1 {
		local = c.localTracer()
		localSelf = c.scene.LocalTracer(m)
	}
	if p.BlendFactor > 0 {
		global = c.sceneTracer(p.UseGroundPlane)
		worldSelf = c.scene.WorldTracer(m)
	}
	worldPos := m.WorldPositions()
	worldNrm := m.WorldNormals()

	values := make([]float64, len(verts))
	c.run(len(verts), func(start, end int) {
		for i := start; i < end; i++ {
			v := verts[i]
			lo, gl := 1.0, 1.0
			if local != nil {
				lo = occlusionAt(local, localSelf, m.Positions[v], m.Normals[v], samples, reach)
			}
			if global != nil {
				gl = occlusionAt(global, worldSelf, worldPos[v], worldNrm[v], samples, reach)
			}
			values[i] = quantize(lo*(1-p.BlendFactor)+gl*p.BlendFactor, p.QuantizeSteps)
		}
	})

	vpaint.Logger().Debug("generate: occlusion",
		"vertices", len(verts), "rays", p.RayCount, "blend", p.BlendFactor,
		"ground", p.UseGroundPlane, "tiling", m.Tiling)
	return c.finish(scalarMap(verts, values), 1)
}

// occlusionAt casts the sample set around normal n from pos against t.
// self holds the mesh's own triangles for the bias probe.
func occlusionAt(t, self mesh.Tracer, pos, n mgl64.Vec3, samples []mgl64.Vec3, reach float64) float64 {
	n, ok := unit(n)
	if !ok {
		return 1
	}
	origin := pos.Add(n.Mul(selfBias(self, pos, n)))
	hits := countHits(t, origin, newFrame(n), samples, reach)
	return 1 - float64(hits)/float64(len(samples))
}

// selfBias probes along the normal for a face of the mesh itself closer
// than biasProbe whose normal opposes the ray, and pushes the origin past it
// so folded or coincident geometry does not occlude its own vertex.
func selfBias(self mesh.Tracer, pos, n mgl64.Vec3) float64 {
	h, ok := self.CastRay(pos, n, biasProbe)
	if ok && h.Distance < biasProbe && h.Normal.Dot(n) < 0 {
		return biasBase + h.Distance
	}
	return biasBase
}

func quantize(v float64, steps int) float64 {
	if steps <= 0 {
		return v
	}
	return math.Round(v*float64(steps)) / float64(steps)
}

// localTracer traces the mesh in object space.
func (c *Context) localTracer() mesh.Tracer {
	bvh := c.scene.LocalTracer(c.mesh)
	if !c.mesh.Tiling {
		return bvh
	}
	return append(mesh.Group{bvh}, mesh.TileCopies(bvh, c.mesh.Bounds())...)
}

// sceneTracer traces every scene object in world space. The mesh itself is
// included even when the scene does not hold it.
func (c *Context) sceneTracer(ground bool) mesh.Tracer {
	var extra []mesh.Tracer
	if !c.inScene() {
		extra = append(extra, c.scene.WorldTracer(c.mesh))
	}
	if c.mesh.Tiling {
		extra = append(extra, mesh.TileCopies(c.scene.WorldTracer(c.mesh), c.mesh.WorldBounds())...)
	}
	if ground {
		extra = append(extra, mesh.GroundQuad(c.mesh.WorldBounds(), c.params.GroundOffset))
	}
	return c.scene.SceneTracer(extra...)
}

func (c *Context) inScene() bool {
	for _, o := range c.scene.Objects() {
		if o == c.mesh {
			return true
		}
	}
	return false
}
