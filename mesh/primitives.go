package mesh

import "github.com/go-gl/mathgl/mgl64"

// Plane returns a single quad of the given edge length on the XY plane,
// centered at the origin and facing +Z.
func Plane(size float64) *Mesh {
	h := size / 2
	return MustNew("plane", []mgl64.Vec3{
		{-h, -h, 0}, {h, -h, 0}, {h, h, 0}, {-h, h, 0},
	}, []Polygon{{0, 1, 2, 3}})
}

// Grid returns a plane of nx by ny quads covering size×size on the XY plane.
func Grid(nx, ny int, size float64) *Mesh {
	nx, ny = max(nx, 1), max(ny, 1)
	h := size / 2
	positions := make([]mgl64.Vec3, 0, (nx+1)*(ny+1))
	for y := range ny + 1 {
		for x := range nx + 1 {
			positions = append(positions, mgl64.Vec3{
				-h + size*float64(x)/float64(nx),
				-h + size*float64(y)/float64(ny),
				0,
			})
		}
	}
	polygons := make([]Polygon, 0, nx*ny)
	row := nx + 1
	for y := range ny {
		for x := range nx {
			v := y*row + x
			polygons = append(polygons, Polygon{v, v + 1, v + row + 1, v + row})
		}
	}
	return MustNew("grid", positions, polygons)
}

// Cube returns a closed cube of the given edge length centered at the origin.
// Corners share vertices, so vertex normals point along the diagonals.
func Cube(size float64) *Mesh {
	h := size / 2
	return MustNew("cube", []mgl64.Vec3{
		{-h, -h, -h}, {h, -h, -h}, {h, h, -h}, {-h, h, -h},
		{-h, -h, h}, {h, -h, h}, {h, h, h}, {-h, h, h},
	}, []Polygon{
		{0, 3, 2, 1}, // -Z
		{4, 5, 6, 7}, // +Z
		{0, 1, 5, 4}, // -Y
		{2, 3, 7, 6}, // +Y
		{1, 2, 6, 5}, // +X
		{3, 0, 4, 7}, // -X
	})
}

// Tetrahedron returns a regular tetrahedron inscribed in a cube of edge size.
func Tetrahedron(size float64) *Mesh {
	h := size / 2
	return MustNew("tetrahedron", []mgl64.Vec3{
		{h, h, h}, {-h, -h, h}, {-h, h, -h}, {h, -h, -h},
	}, []Polygon{
		{0, 1, 3},
		{0, 2, 1},
		{0, 3, 2},
		{1, 2, 3},
	})
}
