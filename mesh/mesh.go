// Package mesh provides the polygon geometry vpaint generates values over:
// corner ordering, vertex adjacency, bounds, world transforms and ray queries.
//
// Topology is immutable after New. Selection flags, the world matrix and the
// tiling flag may change between generator calls.
package mesh

import (
	"github.com/go-gl/mathgl/mgl64"
	"github.com/pkg/errors"
)

// ErrInvalidMesh is returned by New for inconsistent topology.
var ErrInvalidMesh = errors.New("mesh: invalid mesh")

// Polygon lists vertex indices in corner order.
type Polygon []int

// Mesh is a polygonal surface with per-vertex positions and normals.
type Mesh struct {
	Name string

	// Positions and Normals are object-local and indexed by vertex.
	Positions []mgl64.Vec3
	Normals   []mgl64.Vec3

	Polygons []Polygon

	// World maps object-local space to world space.
	World mgl64.Mat4

	// SelectedVertices and SelectedPolygons hold the host selection.
	// Either may be nil, meaning nothing is selected.
	SelectedVertices []bool
	SelectedPolygons []bool

	// Tiling marks meshes that repeat edge to edge.
	Tiling bool

	cornerVertex  []int
	cornerPolygon []int
	polygonStart  []int
	neighbors     [][]int
	boundary      []bool
}

// New validates topology and builds the derived corner and adjacency tables.
// When normals is nil, area-weighted vertex normals are computed.
func New(name string, positions []mgl64.Vec3, polygons []Polygon, normals []mgl64.Vec3) (*Mesh, error) {
	if normals != nil && len(normals) != len(positions) {
		return nil, errors.Wrapf(ErrInvalidMesh, "%s: %d normals for %d vertices", name, len(normals), len(positions))
	}

	m := &Mesh{
		Name:      name,
		Positions: positions,
		Normals:   normals,
		Polygons:  polygons,
		World:     mgl64.Ident4(),
	}

	m.polygonStart = make([]int, len(polygons)+1)
	for p, poly := range polygons {
		if len(poly) < 3 {
			return nil, errors.Wrapf(ErrInvalidMesh, "%s: polygon %d has %d corners", name, p, len(poly))
		}
		for _, v := range poly {
			if v < 0 || v >= len(positions) {
				return nil, errors.Wrapf(ErrInvalidMesh, "%s: polygon %d references vertex %d", name, p, v)
			}
			m.cornerVertex = append(m.cornerVertex, v)
			m.cornerPolygon = append(m.cornerPolygon, p)
		}
		m.polygonStart[p+1] = len(m.cornerVertex)
	}

	m.buildAdjacency()
	if m.Normals == nil {
		m.Normals = m.computeNormals()
	}
	return m, nil
}

// MustNew is like New but panics on error. It is meant for primitives and tests.
func MustNew(name string, positions []mgl64.Vec3, polygons []Polygon) *Mesh {
	m, err := New(name, positions, polygons, nil)
	if err != nil {
		panic(err)
	}
	return m
}

// VertexCount returns the number of vertices.
func (m *Mesh) VertexCount() int { return len(m.Positions) }

// PolygonCount returns the number of polygons.
func (m *Mesh) PolygonCount() int { return len(m.Polygons) }

// CornerCount returns the number of corners, the length of every per-corner buffer.
func (m *Mesh) CornerCount() int { return len(m.cornerVertex) }

// CornerVertex returns the vertex owning corner c.
func (m *Mesh) CornerVertex(c int) int { return m.cornerVertex[c] }

// CornerPolygon returns the polygon owning corner c.
func (m *Mesh) CornerPolygon(c int) int { return m.cornerPolygon[c] }

// PolygonCorners returns the half-open corner range [start, end) of polygon p.
func (m *Mesh) PolygonCorners(p int) (start, end int) {
	return m.polygonStart[p], m.polygonStart[p+1]
}

// Neighbors returns the vertices sharing an edge with v.
// The returned slice must not be modified.
func (m *Mesh) Neighbors(v int) []int { return m.neighbors[v] }

// IsBoundary reports whether v lies on an edge used by exactly one polygon.
func (m *Mesh) IsBoundary(v int) bool { return m.boundary[v] }

// VertexSelected reports whether vertex v is selected.
func (m *Mesh) VertexSelected(v int) bool {
	return v < len(m.SelectedVertices) && m.SelectedVertices[v]
}

// PolygonSelected reports whether polygon p is selected.
func (m *Mesh) PolygonSelected(p int) bool {
	return p < len(m.SelectedPolygons) && m.SelectedPolygons[p]
}

type edgeKey struct{ a, b int }

func makeEdge(a, b int) edgeKey {
	if a > b {
		a, b = b, a
	}
	return edgeKey{a, b}
}

func (m *Mesh) buildAdjacency() {
	uses := make(map[edgeKey]int)
	var order []edgeKey
	for _, poly := range m.Polygons {
		for i, v := range poly {
			e := makeEdge(v, poly[(i+1)%len(poly)])
			if uses[e] == 0 {
				order = append(order, e)
			}
			uses[e]++
		}
	}

	m.neighbors = make([][]int, len(m.Positions))
	m.boundary = make([]bool, len(m.Positions))
	for _, e := range order {
		m.neighbors[e.a] = append(m.neighbors[e.a], e.b)
		m.neighbors[e.b] = append(m.neighbors[e.b], e.a)
		if uses[e] == 1 {
			m.boundary[e.a] = true
			m.boundary[e.b] = true
		}
	}
}

// PolygonNormal returns the unit normal of polygon p by Newell's method.
// Its length before normalization is twice the polygon area.
func (m *Mesh) PolygonNormal(p int) mgl64.Vec3 {
	n := m.newell(m.Polygons[p])
	if l := n.Len(); l > 0 {
		return n.Mul(1 / l)
	}
	return n
}

func (m *Mesh) newell(poly Polygon) mgl64.Vec3 {
	var n mgl64.Vec3
	for i, v := range poly {
		a := m.Positions[v]
		b := m.Positions[poly[(i+1)%len(poly)]]
		n[0] += (a[1] - b[1]) * (a[2] + b[2])
		n[1] += (a[2] - b[2]) * (a[0] + b[0])
		n[2] += (a[0] - b[0]) * (a[1] + b[1])
	}
	return n
}

func (m *Mesh) computeNormals() []mgl64.Vec3 {
	normals := make([]mgl64.Vec3, len(m.Positions))
	for _, poly := range m.Polygons {
		n := m.newell(poly)
		for _, v := range poly {
			normals[v] = normals[v].Add(n)
		}
	}
	for i, n := range normals {
		if l := n.Len(); l > 0 {
			normals[i] = n.Mul(1 / l)
		}
	}
	return normals
}

// Bounds returns the object-local bounding box.
func (m *Mesh) Bounds() Box {
	return BoundsOf(m.Positions)
}

// WorldBounds returns the bounding box of the world-space positions.
func (m *Mesh) WorldBounds() Box {
	return BoundsOf(m.WorldPositions())
}

// WorldPositions returns every vertex transformed by World.
func (m *Mesh) WorldPositions() []mgl64.Vec3 {
	out := make([]mgl64.Vec3, len(m.Positions))
	for i, p := range m.Positions {
		out[i] = mgl64.TransformCoordinate(p, m.World)
	}
	return out
}

// WorldNormals returns every vertex normal transformed by the inverse
// transpose of World and renormalized.
func (m *Mesh) WorldNormals() []mgl64.Vec3 {
	nm := m.World.Mat3().Inv().Transpose()
	out := make([]mgl64.Vec3, len(m.Normals))
	for i, n := range m.Normals {
		w := nm.Mul3x1(n)
		if l := w.Len(); l > 0 {
			w = w.Mul(1 / l)
		}
		out[i] = w
	}
	return out
}

// Triangles fan-triangulates every polygon, in local or world space.
func (m *Mesh) Triangles(world bool) []Triangle {
	pos := m.Positions
	if world {
		pos = m.WorldPositions()
	}
	tris := make([]Triangle, 0, len(m.cornerVertex))
	for _, poly := range m.Polygons {
		for i := 1; i+1 < len(poly); i++ {
			tris = append(tris, NewTriangle(pos[poly[0]], pos[poly[i]], pos[poly[i+1]]))
		}
	}
	return tris
}
