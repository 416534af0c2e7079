package mesh

import (
	"sync"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/gogpu/vpaint"
	"github.com/gogpu/vpaint/internal/cache"
)

// DefaultBVHCacheSize is the number of hierarchies a Scene keeps.
const DefaultBVHCacheSize = 64

// groundScale sizes the ground quad relative to the largest horizontal extent.
const groundScale = 8.0

// bvhKey identifies a hierarchy by object and transform. The local-space
// hierarchy of an object uses the identity transform.
type bvhKey struct {
	obj       *Mesh
	transform mgl64.Mat4
}

// Scene is the set of objects that may occlude each other.
// It is safe for concurrent use.
type Scene struct {
	mu      sync.RWMutex
	objects []*Mesh
	bvhs    *cache.Cache[bvhKey, *BVH]
}

// NewScene returns a scene holding objects.
func NewScene(objects ...*Mesh) *Scene {
	return &Scene{
		objects: append([]*Mesh(nil), objects...),
		bvhs:    cache.New[bvhKey, *BVH](DefaultBVHCacheSize),
	}
}

// Add appends an object to the scene. Adding an object twice is a no-op.
func (s *Scene) Add(m *Mesh) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, o := range s.objects {
		if o == m {
			return
		}
	}
	s.objects = append(s.objects, m)
}

// Remove drops an object and its cached hierarchies.
func (s *Scene) Remove(m *Mesh) {
	s.mu.Lock()
	for i, o := range s.objects {
		if o == m {
			s.objects = append(s.objects[:i], s.objects[i+1:]...)
			break
		}
	}
	s.mu.Unlock()
	s.Invalidate(m)
}

// Objects returns a snapshot of the scene's objects.
func (s *Scene) Objects() []*Mesh {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]*Mesh(nil), s.objects...)
}

// Invalidate drops cached hierarchies for m. Call it after editing positions.
// Transform changes need no invalidation.
func (s *Scene) Invalidate(m *Mesh) {
	s.bvhs.Delete(bvhKey{obj: m, transform: mgl64.Ident4()})
	s.bvhs.Delete(bvhKey{obj: m, transform: m.World})
}

// CacheStats reports BVH cache usage.
func (s *Scene) CacheStats() cache.Stats { return s.bvhs.Stats() }

// LocalTracer returns the object-local hierarchy of m.
func (s *Scene) LocalTracer(m *Mesh) *BVH {
	return s.tracer(m, false)
}

// WorldTracer returns the world-space hierarchy of m alone.
func (s *Scene) WorldTracer(m *Mesh) *BVH {
	return s.tracer(m, true)
}

// SceneTracer returns a tracer over every object in world space plus extra.
func (s *Scene) SceneTracer(extra ...Tracer) Group {
	objects := s.Objects()
	g := make(Group, 0, len(objects)+len(extra))
	for _, o := range objects {
		g = append(g, s.tracer(o, true))
	}
	return append(g, extra...)
}

func (s *Scene) tracer(m *Mesh, world bool) *BVH {
	key := bvhKey{obj: m, transform: mgl64.Ident4()}
	if world {
		key.transform = m.World
	}
	b, _ := s.bvhs.GetOrCreate(key, func() (*BVH, error) {
		tris := m.Triangles(world)
		vpaint.Logger().Debug("mesh: building bvh", "mesh", m.Name, "world", world, "triangles", len(tris))
		return NewBVH(tris), nil
	})
	return b
}

// Group traces a set of tracers and reports the nearest hit.
type Group []Tracer

// CastRay implements Tracer.
func (g Group) CastRay(origin, dir mgl64.Vec3, maxDistance float64) (Hit, bool) {
	var best Hit
	found := false
	for _, t := range g {
		if h, ok := t.CastRay(origin, dir, maxDistance); ok {
			best, found = h, true
			maxDistance = h.Distance
		}
	}
	return best, found
}

// Offset is a tracer translated by Delta.
type Offset struct {
	Tracer Tracer
	Delta  mgl64.Vec3
}

// CastRay implements Tracer.
func (o Offset) CastRay(origin, dir mgl64.Vec3, maxDistance float64) (Hit, bool) {
	h, ok := o.Tracer.CastRay(origin.Sub(o.Delta), dir, maxDistance)
	if ok {
		h.Point = h.Point.Add(o.Delta)
	}
	return h, ok
}

// TileCopies returns eight copies of t shifted by the box extent along
// ±X, ±Y and the diagonals, standing in for the neighbors a tiling mesh
// would have when repeated.
func TileCopies(t Tracer, bounds Box) []Tracer {
	size := bounds.Size()
	copies := make([]Tracer, 0, 8)
	for dy := -1; dy <= 1; dy++ {
		for dx := -1; dx <= 1; dx++ {
			if dx == 0 && dy == 0 {
				continue
			}
			copies = append(copies, Offset{
				Tracer: t,
				Delta:  mgl64.Vec3{float64(dx) * size[0], float64(dy) * size[1], 0},
			})
		}
	}
	return copies
}

// GroundQuad returns an upward-facing quad offset below the base of bounds.
// It is centered under the box and sized from its horizontal extent.
func GroundQuad(bounds Box, offset float64) *BVH {
	size := bounds.Size()
	half := groundScale * max(size[0], size[1], 1)
	c := bounds.Center()
	z := bounds.Min[2] - offset

	a := mgl64.Vec3{c[0] - half, c[1] - half, z}
	b := mgl64.Vec3{c[0] + half, c[1] - half, z}
	d := mgl64.Vec3{c[0] + half, c[1] + half, z}
	e := mgl64.Vec3{c[0] - half, c[1] + half, z}
	return NewBVH([]Triangle{NewTriangle(a, b, d), NewTriangle(a, d, e)})
}
