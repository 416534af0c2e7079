package generate

import (
	"github.com/gogpu/vpaint"
	"github.com/gogpu/vpaint/attr"
	"github.com/gogpu/vpaint/mesh"
)

// PositionalRamp maps each vertex's world position along RampAxis into
// [0, 1] over the mesh bounds and evaluates ramp there. With
// UseCombinedBounds the bounds also cover others, so several meshes share
// one gradient. A flat axis counts as extent 1.
func PositionalRamp(c *Context, ramp *vpaint.Ramp, others ...*mesh.Mesh) ([]vpaint.RGBA, error) {
	if err := c.begin(); err != nil {
		return nil, err
	}
	p := c.params
	bounds := c.mesh.WorldBounds()
	if p.UseCombinedBounds {
		for _, o := range others {
			bounds = bounds.Union(o.WorldBounds())
		}
	}
	axis := int(p.RampAxis)
	lo := bounds.Min[axis]
	extent := bounds.Max[axis] - lo
	if extent == 0 {
		vpaint.Logger().Warn("generate: flat ramp axis", "mesh", c.mesh.Name, "axis", p.RampAxis)
		extent = 1
	}

	pos := c.mesh.WorldPositions()
	verts := c.vertices()
	vm := make(attr.VertexMap, len(verts))
	for _, v := range verts {
		t := max(0, min(1, (pos[v][axis]-lo)/extent))
		col := ramp.Evaluate(t)
		vm[v] = [4]float64{col.R, col.G, col.B, col.A}
	}
	return c.finish(vm, 4)
}

// LuminanceRemap recolors one scalar per corner through ramp, typically the
// luminance of another generator's output. Values are clamped to [0, 1].
func LuminanceRemap(c *Context, values []float64, ramp *vpaint.Ramp) ([]vpaint.RGBA, error) {
	if err := c.begin(); err != nil {
		return nil, err
	}
	if len(values) != c.mesh.CornerCount() {
		return nil, errLength(len(values), c.mesh.CornerCount())
	}
	clamped := make([]float64, len(values))
	for i, v := range values {
		clamped[i] = max(0, min(1, v))
	}
	return c.applyMask(ramp.EvaluateAll(clamped))
}

// Luminances reduces colors to their luminance, the usual input of
// LuminanceRemap.
func Luminances(colors []vpaint.RGBA) []float64 {
	out := make([]float64, len(colors))
	for i, col := range colors {
		out[i] = col.Luminance()
	}
	return out
}

// Fill returns col at every corner.
func Fill(c *Context, col vpaint.RGBA) ([]vpaint.RGBA, error) {
	if err := c.begin(); err != nil {
		return nil, err
	}
	out := make([]vpaint.RGBA, c.mesh.CornerCount())
	for i := range out {
		out[i] = col
	}
	return c.applyMask(out)
}
