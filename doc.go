// Package vpaint is a vertex-attribute layer compositing and procedural
// generation engine for polygon meshes.
//
// # Overview
//
// A mesh carries per-corner attribute channels: vector channels holding RGBA
// and coordinate channels holding two scalar lanes. vpaint maps a fixed stack
// of named layers onto those channels, composites layers with the Alpha, Add,
// Multiply and Overlay operators, and fills them from procedural generators
// (curvature, ambient occlusion, thickness, directional light, noise and
// gradient ramps) or from palette and material swatches.
//
// # Quick Start
//
//	m := mesh.Cube(1)
//	store := attr.NewMemoryStorage(m.CornerCount())
//	eng, err := engine.New(m, store)
//	if err != nil {
//		return err
//	}
//	defer eng.Close()
//	outcome, err := eng.Generate("layer1", engine.Occlusion, engine.Defaults())
//
// # Architecture
//
// The module is organized leaf first:
//   - vpaint: RGBA, masks, color ramps, parameters, errors, logging
//   - mesh: geometry, adjacency, BVH ray queries, scenes
//   - attr: channel storage and vertex-to-corner expansion
//   - layer: the layer template, Get/Put normalization, stack compositing
//   - generate: value generators
//   - swatch: palettes, materials and their application
//   - engine: one top-level operation at a time, from generator to storage
//   - gltfio: glTF documents as mesh and channel hosts
//
// # Buffers
//
// Every per-corner buffer iterates polygons in order, then corners within a
// polygon in order. Functions never truncate or pad: a length mismatch is
// returned as ErrLengthMismatch.
package vpaint

// Version is the current version of the library.
const Version = "0.3.0"
