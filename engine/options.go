package engine

import (
	"github.com/gogpu/vpaint"
	"github.com/gogpu/vpaint/mesh"
)

// Option configures an Engine during creation.
//
// Example:
//
//	// Whole-scene occlusion with a preset
//	eng, err := engine.New(m, store,
//	    engine.WithScene(scene),
//	    engine.WithParams(preset))
type Option func(*options)

// options holds optional configuration for Engine creation.
type options struct {
	scene   *mesh.Scene
	params  vpaint.Params
	workers int
	palette []vpaint.RGBA
}

// defaultOptions returns the default engine options.
func defaultOptions() options {
	return options{
		params:  vpaint.DefaultParams(),
		workers: 0, // GOMAXPROCS
	}
}

// WithScene sets the scene traced by the scene occlusion pass and used for
// combined ramp bounds. The mesh is added to it when missing.
func WithScene(s *mesh.Scene) Option {
	return func(o *options) {
		o.scene = s
	}
}

// WithParams sets the generator parameters. They are validated by New.
func WithParams(p vpaint.Params) Option {
	return func(o *options) {
		o.params = p
	}
}

// WithWorkers sets the size of the engine's worker pool.
// 0 means GOMAXPROCS.
func WithWorkers(n int) Option {
	return func(o *options) {
		o.workers = n
	}
}

// WithPalette sets the tint table used for gradient layers during
// compositing. ApplyPalette replaces it.
func WithPalette(colors []vpaint.RGBA) Option {
	return func(o *options) {
		o.palette = append([]vpaint.RGBA(nil), colors...)
	}
}
