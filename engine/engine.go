// Package engine runs vpaint operations against one mesh and its attribute
// storage: generate into a layer, composite the stack, merge layers down and
// apply palette or material swatches.
//
// An Engine serializes its operations. The layer set returned by Layers
// shares storage with the engine and must not be used while an engine
// operation is in flight.
package engine

import (
	"sync"

	"github.com/pkg/errors"

	"github.com/gogpu/vpaint"
	"github.com/gogpu/vpaint/attr"
	"github.com/gogpu/vpaint/generate"
	"github.com/gogpu/vpaint/internal/blend"
	"github.com/gogpu/vpaint/internal/parallel"
	"github.com/gogpu/vpaint/layer"
	"github.com/gogpu/vpaint/mesh"
	"github.com/gogpu/vpaint/swatch"
)

// Outcome reports what an operation did to storage.
type Outcome int

const (
	// Unchanged means storage already held the result and nothing was written.
	Unchanged Outcome = iota
	// Applied means at least one channel was written.
	Applied
	// Skipped means the mask was empty; the operation was a deliberate no-op.
	Skipped
)

func (o Outcome) String() string {
	switch o {
	case Applied:
		return "applied"
	case Skipped:
		return "skipped"
	default:
		return "unchanged"
	}
}

// layerValues reads layers as plain values.
var layerValues = layer.GetOptions{}

// Engine owns the layer set of one mesh.
type Engine struct {
	mu      sync.Mutex
	mesh    *mesh.Mesh
	set     *layer.Set
	scene   *mesh.Scene
	params  vpaint.Params
	pool    *parallel.WorkerPool
	palette []vpaint.RGBA
}

// New builds the layer set over store and starts a worker pool.
// Missing backing channels are created when store supports it.
// Call Close to stop the pool.
func New(m *mesh.Mesh, store attr.Storage, opts ...Option) (*Engine, error) {
	if m == nil || store == nil {
		return nil, errors.New("engine: nil mesh or storage")
	}
	if store.CornerCount() != m.CornerCount() {
		return nil, errors.Wrapf(vpaint.ErrLengthMismatch, "engine: storage has %d corners, mesh %s has %d",
			store.CornerCount(), m.Name, m.CornerCount())
	}

	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if err := o.params.Validate(); err != nil {
		return nil, err
	}

	scene := o.scene
	if scene == nil {
		scene = mesh.NewScene(m)
	} else {
		scene.Add(m)
	}

	e := &Engine{
		mesh:    m,
		set:     layer.NewSet(store),
		scene:   scene,
		params:  o.params,
		pool:    parallel.NewWorkerPool(o.workers),
		palette: o.palette,
	}
	vpaint.Logger().Info("engine: started", "mesh", m.Name, "corners", m.CornerCount(), "workers", e.pool.Workers())
	return e, nil
}

// Close stops the worker pool. The engine must not be used afterwards.
func (e *Engine) Close() {
	e.pool.Close()
}

// Mesh returns the mesh the engine paints.
func (e *Engine) Mesh() *mesh.Mesh { return e.mesh }

// Layers returns the layer set.
func (e *Engine) Layers() *layer.Set { return e.set }

// Scene returns the scene traced by scene passes.
func (e *Engine) Scene() *mesh.Scene { return e.scene }

// Params returns the current generator parameters.
func (e *Engine) Params() vpaint.Params {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.params
}

// SetParams replaces the generator parameters after validating them.
func (e *Engine) SetParams(p vpaint.Params) error {
	if err := p.Validate(); err != nil {
		return err
	}
	e.mu.Lock()
	e.params = p
	e.mu.Unlock()
	return nil
}

// Palette returns the gradient tint table.
func (e *Engine) Palette() []vpaint.RGBA {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]vpaint.RGBA(nil), e.palette...)
}

// Invalidate drops cached ray structures after the mesh geometry or world
// matrix changed.
func (e *Engine) Invalidate() {
	e.scene.Invalidate(e.mesh)
}

// others returns the scene objects other than the engine mesh.
func (e *Engine) others() []*mesh.Mesh {
	var out []*mesh.Mesh
	for _, o := range e.scene.Objects() {
		if o != e.mesh {
			out = append(out, o)
		}
	}
	return out
}

// Generate runs g and blends its output onto target with opts.Mode and
// opts.Opacity. The target keeps its values wherever the mask is zero.
//
// An empty mask layer yields Skipped with a nil error. The composite layer is
// never a target.
func (e *Engine) Generate(target string, g Generator, opts GenerateOptions) (Outcome, error) {
	if target == layer.Composite {
		return Unchanged, vpaint.ErrCompositeTarget
	}
	if !opts.Mode.Valid() || opts.Opacity < 0 || opts.Opacity > 1 {
		return Unchanged, errors.Wrapf(vpaint.ErrInvalidParams, "engine: mode %d opacity %v", int(opts.Mode), opts.Opacity)
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	tl, err := e.set.Layer(target)
	if err != nil {
		return Unchanged, err
	}

	mask, skip, err := e.resolveMask(opts)
	if err != nil {
		return Unchanged, err
	}
	if skip {
		vpaint.Logger().Debug("engine: empty mask", "generator", g, "target", target, "mask", opts.MaskLayer)
		return Skipped, nil
	}

	ctx := generate.NewContext(e.mesh,
		generate.WithParams(e.params),
		generate.WithScene(e.scene),
		generate.WithPool(e.pool),
		generate.WithMask(mask, opts.MaskMode))
	out, err := e.produce(ctx, target, g, opts)
	if vpaint.IsNoop(err) {
		return Skipped, nil
	}
	if err != nil {
		return Unchanged, errors.Wrapf(err, "engine: %s into %s", g, target)
	}
	if opts.Invert {
		out = generate.Invert(out)
	}

	outcome, err := e.blendInto(tl, out, opts.Mode, opts.Opacity)
	if err != nil {
		return Unchanged, err
	}
	vpaint.Logger().Info("engine: generated", "generator", g, "target", target, "outcome", outcome)
	return outcome, nil
}

// resolveMask returns the generation mask for opts. skip reports an empty
// mask layer.
func (e *Engine) resolveMask(opts GenerateOptions) (mask *vpaint.Mask, skip bool, err error) {
	switch opts.Mask {
	case MaskSelection:
		m, empty := attr.SelectionMask(e.mesh, opts.FaceSelection)
		if empty {
			return nil, false, nil
		}
		return m, false, nil
	case MaskLayer:
		m, empty, err := e.set.Mask(opts.MaskLayer)
		if err != nil {
			return nil, false, err
		}
		return m, empty, nil
	}
	return nil, false, nil
}

// blendInto blends top over l and writes the result unless it equals the
// current contents. Scalar layers store the result's luminance; locked layers
// keep their alpha.
func (e *Engine) blendInto(l *layer.Layer, top []vpaint.RGBA, mode vpaint.BlendMode, opacity float64) (Outcome, error) {
	current, err := e.set.Get(l.Name, layerValues)
	if err != nil {
		return Unchanged, err
	}
	result, err := blend.Values(top, current, mode, opacity)
	if err != nil {
		return Unchanged, err
	}
	if l.PreservesAlpha() {
		result = layer.KeepAlpha(result, current)
	}
	if equal(result, current) {
		return Unchanged, nil
	}
	if err := e.set.Put(l.Name, result, layer.PutOptions{Source: layer.SourceLuminance}); err != nil {
		return Unchanged, err
	}
	return Applied, nil
}

func equal(a, b []vpaint.RGBA) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// Composite rebuilds the composite layer from the visible stack and returns
// it. Gradient layers are tinted with the current palette.
func (e *Engine) Composite() ([]vpaint.RGBA, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.set.Composite(e.palette)
}

// MergeDown bakes the named color layer into the one below it.
func (e *Engine) MergeDown(name string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.set.MergeDown(name)
}

// ApplyPalette writes p into layer1..layer5 and makes it the gradient tint
// table. It returns Unchanged when every painted layer already shows its
// swatch. When a write fails after others succeeded, the outcome is Applied
// along with the error and the tint table is still replaced.
func (e *Engine) ApplyPalette(p swatch.Palette) (Outcome, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	written, err := swatch.ApplyPalette(e.set, p)
	if err == nil || len(written) > 0 {
		e.palette = append(e.palette[:0], p.Colors[:]...)
	}
	return writeOutcome(written, err)
}

// ApplyMaterial writes m into target, metallic and smoothness. In
// swatch.ScopeComponent the host selection masks the writes; with nothing
// selected the whole mesh is painted. A partial failure reports Applied
// with the error.
func (e *Engine) ApplyMaterial(target string, m swatch.Material, scope swatch.Scope, faceSelection bool) (Outcome, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	var selection *vpaint.Mask
	if scope == swatch.ScopeComponent {
		if sel, empty := attr.SelectionMask(e.mesh, faceSelection); !empty {
			selection = sel
		}
	}
	written, err := swatch.ApplyMaterial(e.set, target, m, scope, selection)
	if vpaint.IsNoop(err) {
		return Skipped, nil
	}
	return writeOutcome(written, err)
}

// writeOutcome reports Applied whenever a layer was written, even alongside
// an error, so callers know storage changed.
func writeOutcome(written []string, err error) (Outcome, error) {
	if len(written) > 0 {
		return Applied, err
	}
	return Unchanged, err
}
