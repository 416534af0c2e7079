// Package generate computes per-corner colors from mesh geometry.
//
// Every generator takes a Context and returns one RGBA per mesh corner,
// already passed through the context mask. When the mask selects nothing,
// generators return vpaint.ErrEmptyMask and no buffer.
//
// Generators are deterministic: all random values are drawn serially from a
// source re-seeded at the start of each call, before any work fans out to
// the worker pool. The same mesh, parameters and seed produce the same
// buffer for any worker count.
package generate
