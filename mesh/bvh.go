package mesh

import (
	"math"
	"sort"

	"github.com/go-gl/mathgl/mgl64"
)

// Hit describes the closest intersection found by a ray query.
type Hit struct {
	Point    mgl64.Vec3
	Normal   mgl64.Vec3
	Distance float64
}

// Tracer answers closest-hit ray queries.
// Implementations must be safe for concurrent use.
type Tracer interface {
	// CastRay returns the nearest hit along dir within maxDistance.
	// dir must be unit length.
	CastRay(origin, dir mgl64.Vec3, maxDistance float64) (Hit, bool)
}

// Triangle is a single face of a BVH.
type Triangle struct {
	A, B, C mgl64.Vec3
	Normal  mgl64.Vec3
}

// NewTriangle returns the triangle with its geometric normal precomputed.
// Degenerate triangles carry a zero normal.
func NewTriangle(a, b, c mgl64.Vec3) Triangle {
	n := b.Sub(a).Cross(c.Sub(a))
	if l := n.Len(); l > 0 {
		n = n.Mul(1 / l)
	}
	return Triangle{A: a, B: b, C: c, Normal: n}
}

func (t Triangle) bounds() Box {
	return EmptyBox().Extend(t.A).Extend(t.B).Extend(t.C)
}

func (t Triangle) centroid() mgl64.Vec3 {
	return t.A.Add(t.B).Add(t.C).Mul(1.0 / 3.0)
}

// intersect is the Möller–Trumbore test. It returns the distance along dir
// and whether the hit lies in (0, maxDist].
func (t Triangle) intersect(origin, dir mgl64.Vec3, maxDist float64) (float64, bool) {
	const eps = 1e-9
	e1 := t.B.Sub(t.A)
	e2 := t.C.Sub(t.A)
	p := dir.Cross(e2)
	det := e1.Dot(p)
	if math.Abs(det) < eps {
		return 0, false
	}
	inv := 1 / det
	s := origin.Sub(t.A)
	u := s.Dot(p) * inv
	if u < 0 || u > 1 {
		return 0, false
	}
	q := s.Cross(e1)
	v := dir.Dot(q) * inv
	if v < 0 || u+v > 1 {
		return 0, false
	}
	d := e2.Dot(q) * inv
	if d <= eps || d > maxDist {
		return 0, false
	}
	return d, true
}

// leafSize is the largest triangle count stored in a single node.
const leafSize = 4

type bvhNode struct {
	box         Box
	left, right int // child node indices; -1 for leaves
	start, end  int // triangle range for leaves
}

// BVH is a bounding volume hierarchy over a fixed triangle set.
// It is immutable after construction and safe for concurrent queries.
type BVH struct {
	tris  []Triangle
	nodes []bvhNode
}

// NewBVH builds a hierarchy by median split on the longest centroid axis.
// The tris slice is reordered.
func NewBVH(tris []Triangle) *BVH {
	b := &BVH{tris: tris}
	if len(tris) > 0 {
		b.build(0, len(tris))
	}
	return b
}

// Len returns the number of triangles.
func (b *BVH) Len() int { return len(b.tris) }

// Bounds returns the box enclosing every triangle.
func (b *BVH) Bounds() Box {
	if len(b.nodes) == 0 {
		return EmptyBox()
	}
	return b.nodes[0].box
}

func (b *BVH) build(start, end int) int {
	box := EmptyBox()
	cbox := EmptyBox()
	for _, t := range b.tris[start:end] {
		box = box.Union(t.bounds())
		cbox = cbox.Extend(t.centroid())
	}

	idx := len(b.nodes)
	b.nodes = append(b.nodes, bvhNode{box: box, left: -1, right: -1, start: start, end: end})
	if end-start <= leafSize {
		return idx
	}

	size := cbox.Size()
	axis := 0
	if size[1] > size[axis] {
		axis = 1
	}
	if size[2] > size[axis] {
		axis = 2
	}
	if size[axis] == 0 {
		return idx
	}

	part := b.tris[start:end]
	sort.Slice(part, func(i, j int) bool {
		return part[i].centroid()[axis] < part[j].centroid()[axis]
	})
	mid := start + (end-start)/2

	left := b.build(start, mid)
	right := b.build(mid, end)
	b.nodes[idx].left = left
	b.nodes[idx].right = right
	return idx
}

// CastRay implements Tracer.
func (b *BVH) CastRay(origin, dir mgl64.Vec3, maxDistance float64) (Hit, bool) {
	if len(b.nodes) == 0 {
		return Hit{}, false
	}

	best := maxDistance
	bestTri := -1
	stack := make([]int, 0, 64)
	stack = append(stack, 0)
	for len(stack) > 0 {
		n := &b.nodes[stack[len(stack)-1]]
		stack = stack[:len(stack)-1]

		if t := n.box.intersectRay(origin, dir, best); math.IsInf(t, 1) || t > best {
			continue
		}
		if n.left < 0 {
			for i := n.start; i < n.end; i++ {
				if d, ok := b.tris[i].intersect(origin, dir, best); ok {
					best = d
					bestTri = i
				}
			}
			continue
		}
		stack = append(stack, n.left, n.right)
	}

	if bestTri < 0 {
		return Hit{}, false
	}
	return Hit{
		Point:    origin.Add(dir.Mul(best)),
		Normal:   b.tris[bestTri].Normal,
		Distance: best,
	}, true
}
