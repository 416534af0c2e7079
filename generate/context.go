package generate

import (
	"math"
	"math/rand/v2"

	"github.com/pkg/errors"

	"github.com/gogpu/vpaint"
	"github.com/gogpu/vpaint/attr"
	"github.com/gogpu/vpaint/internal/parallel"
	"github.com/gogpu/vpaint/mesh"
)

// seedStream is mixed into the second PCG word so that seed 0 is usable.
const seedStream = 0x9e3779b97f4a7c15

// Context carries everything a generator reads for one call.
type Context struct {
	mesh     *mesh.Mesh
	params   vpaint.Params
	mask     *vpaint.Mask
	maskMode vpaint.MaskMode
	scene    *mesh.Scene
	pool     *parallel.WorkerPool
	workers  int
	rng      *rand.Rand
}

// Option configures a Context.
type Option func(*Context)

// WithParams sets the generator parameters. The default is vpaint.DefaultParams.
func WithParams(p vpaint.Params) Option {
	return func(c *Context) { c.params = p }
}

// WithSeed overrides the seed of the parameter set.
func WithSeed(seed uint64) Option {
	return func(c *Context) { c.params.Seed = seed }
}

// WithMask restricts generation to corners where mask is non-zero and folds
// the mask into the output with mode. A nil mask means the whole mesh.
func WithMask(mask *vpaint.Mask, mode vpaint.MaskMode) Option {
	return func(c *Context) {
		c.mask = mask
		c.maskMode = mode
	}
}

// WithScene sets the scene traced by the scene occlusion pass. Without it,
// the mesh is its own scene.
func WithScene(s *mesh.Scene) Option {
	return func(c *Context) { c.scene = s }
}

// WithPool runs ray casting on a caller-owned pool.
func WithPool(p *parallel.WorkerPool) Option {
	return func(c *Context) { c.pool = p }
}

// WithWorkers sets the worker count of the pool created for each ray-cast
// call when no pool is given. 0 means GOMAXPROCS.
func WithWorkers(n int) Option {
	return func(c *Context) { c.workers = n }
}

// NewContext returns a generation context for m.
func NewContext(m *mesh.Mesh, opts ...Option) *Context {
	c := &Context{
		mesh:   m,
		params: vpaint.DefaultParams(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.scene == nil {
		c.scene = mesh.NewScene(m)
	}
	c.reseed()
	return c
}

// Mesh returns the mesh being generated over.
func (c *Context) Mesh() *mesh.Mesh { return c.mesh }

// Params returns the parameter set.
func (c *Context) Params() vpaint.Params { return c.params }

// Mask returns the context mask, nil for the whole mesh.
func (c *Context) Mask() *vpaint.Mask { return c.mask }

func (c *Context) reseed() {
	c.rng = rand.New(rand.NewPCG(c.params.Seed, c.params.Seed^seedStream))
}

// uniform returns a value in [lo, hi).
func (c *Context) uniform(lo, hi float64) float64 {
	return lo + (hi-lo)*c.rng.Float64()
}

// begin validates the parameters, re-seeds the random source and rejects an
// empty mask before any work is done.
func (c *Context) begin() error {
	if err := c.params.Validate(); err != nil {
		return err
	}
	if c.mask != nil {
		if c.mask.Len() != c.mesh.CornerCount() {
			return errLength(c.mask.Len(), c.mesh.CornerCount())
		}
		if c.mask.IsEmpty() {
			return vpaint.ErrEmptyMask
		}
	}
	c.reseed()
	return nil
}

// vertices returns the eligible vertices in ascending order: all of them
// without a mask, otherwise those with at least one non-zero corner.
func (c *Context) vertices() []int {
	n := c.mesh.VertexCount()
	if c.mask == nil {
		out := make([]int, n)
		for i := range out {
			out[i] = i
		}
		return out
	}
	eligible := make([]bool, n)
	for corner := range c.mesh.CornerCount() {
		if c.mask.At(corner) != 0 {
			eligible[c.mesh.CornerVertex(corner)] = true
		}
	}
	var out []int
	for v, ok := range eligible {
		if ok {
			out = append(out, v)
		}
	}
	return out
}

// run executes fn over [0, n) on the context pool or a transient one.
func (c *Context) run(n int, fn func(start, end int)) {
	pool := c.pool
	if pool == nil {
		pool = parallel.NewWorkerPool(c.workers)
		defer pool.Close()
	}
	pool.ForEach(n, fn)
}

// maxDistance maps the unbounded sentinel 0 to +Inf.
func maxDistance(d float64) float64 {
	if d <= 0 {
		return math.Inf(1)
	}
	return d
}

// finish expands per-vertex values to corners and applies the mask.
func (c *Context) finish(vm attr.VertexMap, arity int) ([]vpaint.RGBA, error) {
	colors, err := attr.ExpandColors(c.mesh, vm, arity)
	if err != nil {
		return nil, err
	}
	return c.applyMask(colors)
}

func (c *Context) applyMask(colors []vpaint.RGBA) ([]vpaint.RGBA, error) {
	return vpaint.ApplyMask(colors, c.mask, c.maskMode)
}

// scalarMap stores values[i] for vertices[i].
func scalarMap(vertices []int, values []float64) attr.VertexMap {
	vm := make(attr.VertexMap, len(vertices))
	for i, v := range vertices {
		vm[v] = [4]float64{values[i]}
	}
	return vm
}

func errLength(got, want int) error {
	return errors.Wrapf(vpaint.ErrLengthMismatch, "generate: %d values for %d corners", got, want)
}
