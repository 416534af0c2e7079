package generate

import (
	"github.com/gogpu/vpaint"
	"github.com/gogpu/vpaint/attr"
)

// Noise assigns each vertex a random gray, or a random color when Monochrome
// is false, drawn from NoiseOffset ± NoiseAmplitude and clamped to [0, 1].
func Noise(c *Context) ([]vpaint.RGBA, error) {
	if err := c.begin(); err != nil {
		return nil, err
	}
	p := c.params
	lo, hi := p.NoiseOffset-p.NoiseAmplitude, p.NoiseOffset+p.NoiseAmplitude
	sample := func() float64 { return max(0, min(1, c.uniform(lo, hi))) }

	verts := c.vertices()
	vm := make(attr.VertexMap, len(verts))
	for _, v := range verts {
		if p.Monochrome {
			g := sample()
			vm[v] = [4]float64{g, g, g, 1}
		} else {
			vm[v] = [4]float64{sample(), sample(), sample(), 1}
		}
	}
	return c.finish(vm, 4)
}
