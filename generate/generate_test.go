package generate

import (
	"bytes"
	"errors"
	"log/slog"
	"math"
	"strings"
	"testing"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/gogpu/vpaint"
	"github.com/gogpu/vpaint/mesh"
)

const tolerance = 1e-9

func testParams() vpaint.Params {
	p := vpaint.DefaultParams()
	p.RayCount = 64
	return p
}

// invertedCube is a closed cube whose normals face inward.
func invertedCube(size float64) *mesh.Mesh {
	c := mesh.Cube(size)
	polys := make([]mesh.Polygon, len(c.Polygons))
	for i, p := range c.Polygons {
		r := make(mesh.Polygon, len(p))
		for j := range p {
			r[j] = p[len(p)-1-j]
		}
		polys[i] = r
	}
	return mesh.MustNew("inverted", c.Positions, polys)
}

type generatorFunc func(*Context) ([]vpaint.RGBA, error)

func allGenerators() map[string]generatorFunc {
	ramp := vpaint.NewRamp().AddStop(0, vpaint.Black).AddStop(1, vpaint.White)
	return map[string]generatorFunc{
		"curvature":   Curvature,
		"occlusion":   Occlusion,
		"thickness":   Thickness,
		"directional": Directional,
		"noise":       Noise,
		"ramp":        func(c *Context) ([]vpaint.RGBA, error) { return PositionalRamp(c, ramp) },
		"fill":        func(c *Context) ([]vpaint.RGBA, error) { return Fill(c, vpaint.Red) },
		"remap": func(c *Context) ([]vpaint.RGBA, error) {
			return LuminanceRemap(c, make([]float64, c.Mesh().CornerCount()), ramp)
		},
	}
}

func TestOutputCoversEveryCorner(t *testing.T) {
	meshes := []*mesh.Mesh{mesh.Plane(1), mesh.Cube(1), mesh.Tetrahedron(1), mesh.Grid(12, 9, 3)}
	for name, gen := range allGenerators() {
		for _, m := range meshes {
			t.Run(name+"/"+m.Name, func(t *testing.T) {
				out, err := gen(NewContext(m, WithParams(testParams())))
				if err != nil {
					t.Fatalf("error = %v", err)
				}
				if len(out) != m.CornerCount() {
					t.Errorf("len = %d, want %d", len(out), m.CornerCount())
				}
				for i, c := range out {
					if math.IsNaN(c.R) || math.IsNaN(c.A) {
						t.Fatalf("corner %d is NaN", i)
					}
				}
			})
		}
	}
}

func TestEmptyMaskIsNoop(t *testing.T) {
	m := mesh.Cube(1)
	empty := vpaint.NewMask(m.CornerCount())
	for name, gen := range allGenerators() {
		t.Run(name, func(t *testing.T) {
			out, err := gen(NewContext(m, WithParams(testParams()), WithMask(empty, vpaint.MaskMultiplyAlpha)))
			if !errors.Is(err, vpaint.ErrEmptyMask) {
				t.Fatalf("error = %v, want ErrEmptyMask", err)
			}
			if !vpaint.IsNoop(err) {
				t.Error("IsNoop(err) = false")
			}
			if out != nil {
				t.Errorf("returned %d colors with an empty mask", len(out))
			}
		})
	}
}

func TestMaskLengthMismatch(t *testing.T) {
	m := mesh.Cube(1)
	c := NewContext(m, WithMask(vpaint.NewMask(3), vpaint.MaskMultiplyAlpha))
	if _, err := Noise(c); !errors.Is(err, vpaint.ErrLengthMismatch) {
		t.Errorf("error = %v, want ErrLengthMismatch", err)
	}
}

func TestInvalidParams(t *testing.T) {
	p := testParams()
	p.RayCount = 0
	if _, err := Occlusion(NewContext(mesh.Plane(1), WithParams(p))); !errors.Is(err, vpaint.ErrInvalidParams) {
		t.Errorf("error = %v, want ErrInvalidParams", err)
	}
}

func TestMaskRestrictsOutput(t *testing.T) {
	m := mesh.Grid(2, 1, 2) // two quads, eight corners
	mask := vpaint.NewMask(m.CornerCount())
	for c := range 4 {
		mask.Set(c, 1)
	}
	out, err := Fill(NewContext(m, WithMask(mask, vpaint.MaskMultiplyAlpha)), vpaint.Red)
	if err != nil {
		t.Fatal(err)
	}
	for c, col := range out {
		want := 0.0
		if c < 4 {
			want = 1
		}
		if col.A != want {
			t.Errorf("corner %d alpha = %v, want %v", c, col.A, want)
		}
	}

	out, err = Fill(NewContext(m, WithMask(mask, vpaint.MaskOverrideAlpha)), vpaint.RGBA{R: 1, A: 0.2})
	if err != nil {
		t.Fatal(err)
	}
	if out[0].A != 1 || out[7].A != 0 {
		t.Errorf("override alpha = (%v, %v), want (1, 0)", out[0].A, out[7].A)
	}
}

func TestCurvatureTetrahedronConvex(t *testing.T) {
	m := mesh.Tetrahedron(2)

	p := testParams()
	p.NormalizeCurvature = false
	out, err := Curvature(NewContext(m, WithParams(p)))
	if err != nil {
		t.Fatal(err)
	}
	for c, col := range out {
		if col.R <= 0.5 {
			t.Errorf("unnormalized corner %d = %v, want > 0.5", c, col.R)
		}
		if col.A != 1 {
			t.Errorf("corner %d alpha = %v, want 1", c, col.A)
		}
	}

	// Every vertex has the same curvature; normalizing must not divide by zero.
	p.NormalizeCurvature = true
	out, err = Curvature(NewContext(m, WithParams(p)))
	if err != nil {
		t.Fatal(err)
	}
	for c, col := range out {
		if math.Abs(col.R-1) > tolerance {
			t.Errorf("normalized corner %d = %v, want 1", c, col.R)
		}
	}
}

func TestCurvatureFlatAndConcave(t *testing.T) {
	flat, err := Curvature(NewContext(mesh.Grid(3, 3, 1)))
	if err != nil {
		t.Fatal(err)
	}
	for c, col := range flat {
		if math.Abs(col.R-0.5) > 1e-6 {
			t.Errorf("flat corner %d = %v, want 0.5", c, col.R)
		}
	}

	inside, err := Curvature(NewContext(invertedCube(1)))
	if err != nil {
		t.Fatal(err)
	}
	for c, col := range inside {
		if math.Abs(col.R) > tolerance {
			t.Errorf("concave corner %d = %v, want 0", c, col.R)
		}
	}
}

func TestCurvatureTilingBoundaryIsNeutral(t *testing.T) {
	g := mesh.Grid(2, 2, 2)
	pos := append([]mgl64.Vec3(nil), g.Positions...)
	pos[4] = pos[4].Add(mgl64.Vec3{0, 0, 0.5})
	m := mesh.MustNew("bump", pos, g.Polygons)
	m.Tiling = true

	p := testParams()
	p.NormalizeCurvature = false
	out, err := Curvature(NewContext(m, WithParams(p)))
	if err != nil {
		t.Fatal(err)
	}
	for c, col := range out {
		v := m.CornerVertex(c)
		switch {
		case v == 4 && col.R <= 0.5:
			t.Errorf("raised center = %v, want convex", col.R)
		case v != 4 && col.R != 0.5:
			t.Errorf("boundary vertex %d = %v, want exactly 0.5", v, col.R)
		}
	}
}

func TestOcclusionOpenAndEnclosed(t *testing.T) {
	tests := []struct {
		name  string
		mesh  *mesh.Mesh
		blend float64
		check func(v float64) bool
	}{
		{"isolated plane local", mesh.Plane(2), 0, func(v float64) bool { return v == 1 }},
		{"isolated plane scene", mesh.Plane(2), 1, func(v float64) bool { return v == 1 }},
		{"convex cube", mesh.Cube(2), 0.5, func(v float64) bool { return v == 1 }},
		{"enclosed local", invertedCube(2), 0, func(v float64) bool { return v < 0.05 }},
		{"enclosed scene", invertedCube(2), 1, func(v float64) bool { return v < 0.05 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := testParams()
			p.BlendFactor = tt.blend
			out, err := Occlusion(NewContext(tt.mesh, WithParams(p)))
			if err != nil {
				t.Fatal(err)
			}
			for c, col := range out {
				if !tt.check(col.R) {
					t.Errorf("corner %d occlusion = %v", c, col.R)
				}
			}
		})
	}
}

func TestOcclusionSceneObjects(t *testing.T) {
	floor := mesh.Plane(4)
	lid := mesh.Plane(20)
	lid.World = mgl64.Translate3D(0, 0, 0.2)
	scene := mesh.NewScene(floor, lid)

	p := testParams()
	p.BlendFactor = 1
	out, err := Occlusion(NewContext(floor, WithParams(p), WithScene(scene)))
	if err != nil {
		t.Fatal(err)
	}
	for c, col := range out {
		if col.R > 0.5 {
			t.Errorf("corner %d under the lid = %v, want mostly occluded", c, col.R)
		}
	}

	// The local pass ignores other objects.
	p.BlendFactor = 0
	out, _ = Occlusion(NewContext(floor, WithParams(p), WithScene(scene)))
	if out[0].R != 1 {
		t.Errorf("local occlusion = %v, want 1", out[0].R)
	}
}

func TestOcclusionGroundPlane(t *testing.T) {
	// A plane facing down sees the ground quad below it.
	m := mesh.Plane(2)
	m.World = mgl64.HomogRotate3DX(math.Pi)

	p := testParams()
	p.BlendFactor = 1
	p.UseGroundPlane = true
	p.GroundOffset = 0.25
	out, err := Occlusion(NewContext(m, WithParams(p)))
	if err != nil {
		t.Fatal(err)
	}
	if out[0].R > 0.05 {
		t.Errorf("occlusion over ground = %v, want near 0", out[0].R)
	}

	p.UseGroundPlane = false
	out, _ = Occlusion(NewContext(m, WithParams(p)))
	if out[0].R != 1 {
		t.Errorf("occlusion without ground = %v, want 1", out[0].R)
	}
}

func TestOcclusionNearOccluder(t *testing.T) {
	// A plane facing down over a separate floor. Moving the floor closer must
	// never make the plane read as more open.
	occlusionAbove := func(gap float64) float64 {
		m := mesh.Plane(2)
		m.World = mgl64.HomogRotate3DX(math.Pi)
		floor := mesh.Plane(40)
		floor.World = mgl64.Translate3D(0, 0, -gap)

		p := testParams()
		p.BlendFactor = 1
		out, err := Occlusion(NewContext(m, WithParams(p), WithScene(mesh.NewScene(m, floor))))
		if err != nil {
			t.Fatal(err)
		}
		return out[0].R
	}

	near, far := occlusionAbove(0.3), occlusionAbove(0.6)
	if near > far {
		t.Errorf("occlusion at 0.3 = %v, above occlusion at 0.6 = %v", near, far)
	}
	if near > 0.05 {
		t.Errorf("occlusion at 0.3 = %v, want near 0", near)
	}
}

func TestOcclusionQuantize(t *testing.T) {
	floor := mesh.Grid(4, 4, 4)
	box := mesh.Cube(1)
	box.World = mgl64.Translate3D(0.5, 0, 0.6)

	p := testParams()
	p.BlendFactor = 1
	p.QuantizeSteps = 4
	out, err := Occlusion(NewContext(floor, WithParams(p), WithScene(mesh.NewScene(floor, box))))
	if err != nil {
		t.Fatal(err)
	}
	for c, col := range out {
		if q := col.R * 4; math.Abs(q-math.Round(q)) > tolerance {
			t.Errorf("corner %d = %v is not a multiple of 1/4", c, col.R)
		}
	}
}

func TestRayGeneratorsDeterministic(t *testing.T) {
	floor := mesh.Grid(6, 6, 4)
	box := mesh.Cube(1)
	box.World = mgl64.Translate3D(0.3, -0.2, 0.7)
	scene := mesh.NewScene(floor, box)

	for _, tt := range []struct {
		name string
		gen  generatorFunc
	}{
		{"occlusion", Occlusion},
		{"thickness", Thickness},
	} {
		t.Run(tt.name, func(t *testing.T) {
			run := func(workers int, seed uint64) []vpaint.RGBA {
				out, err := tt.gen(NewContext(floor, WithParams(testParams()), WithScene(scene),
					WithWorkers(workers), WithSeed(seed)))
				if err != nil {
					t.Fatal(err)
				}
				return out
			}
			a, b, c := run(1, 7), run(4, 7), run(4, 7)
			for i := range a {
				if a[i] != b[i] || b[i] != c[i] {
					t.Fatalf("corner %d differs across runs: %v %v %v", i, a[i], b[i], c[i])
				}
			}
		})
	}
}

func TestThickness(t *testing.T) {
	out, err := Thickness(NewContext(mesh.Cube(2), WithParams(testParams())))
	if err != nil {
		t.Fatal(err)
	}
	for c, col := range out {
		if col.R < 0 || col.R > 1 {
			t.Errorf("corner %d = %v outside [0,1]", c, col.R)
		}
	}

	// An open plane has nothing behind it.
	out, err = Thickness(NewContext(mesh.Plane(2), WithParams(testParams())))
	if err != nil {
		t.Fatal(err)
	}
	if out[0].R != 0 {
		t.Errorf("plane thickness = %v, want 0", out[0].R)
	}
}

// walls builds, for each gap, a pair of parallel 20×20 grids facing away
// from each other, gap apart along Z. Pairs are spread 100 apart along X.
func walls(gaps ...float64) *mesh.Mesh {
	g := mesh.Grid(4, 4, 20)
	var positions []mgl64.Vec3
	var polygons []mesh.Polygon
	for i, gap := range gaps {
		x := 100 * float64(i)
		for _, side := range []float64{1, -1} {
			base := len(positions)
			for _, p := range g.Positions {
				positions = append(positions, mgl64.Vec3{p[0] + x, p[1], side * gap / 2})
			}
			for _, poly := range g.Polygons {
				q := make(mesh.Polygon, len(poly))
				for j, v := range poly {
					if side > 0 {
						q[j] = base + v
					} else {
						q[len(poly)-1-j] = base + v
					}
				}
				polygons = append(polygons, q)
			}
		}
	}
	return mesh.MustNew("walls", positions, polygons)
}

func TestThicknessThinScoresHigher(t *testing.T) {
	m := walls(0.2, 2)
	perPair := m.VertexCount() / 2

	p := testParams()
	p.DistanceScale = 3
	out, err := Thickness(NewContext(m, WithParams(p)))
	if err != nil {
		t.Fatal(err)
	}

	var thin, thick float64
	for c, col := range out {
		if m.CornerVertex(c) < perPair {
			thin += col.R
		} else {
			thick += col.R
		}
	}
	// The median probe distance comes from the thin pair, so the main pass
	// cannot reach across the thick one.
	if thin == 0 || thin <= thick {
		t.Errorf("thin wall total %v, thick wall total %v", thin, thick)
	}
}

func TestThicknessReach(t *testing.T) {
	tests := []struct {
		name      string
		distances []float64
		scale     float64
		want      float64
	}{
		{"median scaled", []float64{4, 1, 2}, 0.5, 1},
		{"even count", []float64{1, 2, 3, 4}, 2, 5},
		{"no hits", nil, 0.5, 10},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := thicknessReach(tt.distances, tt.scale, 10); got != tt.want {
				t.Errorf("thicknessReach() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestThicknessWarnsWithoutHits(t *testing.T) {
	orig := vpaint.Logger()
	t.Cleanup(func() { vpaint.SetLogger(orig) })
	var buf bytes.Buffer
	vpaint.SetLogger(slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelWarn})))

	// Nothing lies behind an open plane, so the main pass falls back to
	// MaxRayDistance and still finds nothing.
	out, err := Thickness(NewContext(mesh.Plane(2), WithParams(testParams())))
	if err != nil {
		t.Fatal(err)
	}
	if out[0].R != 0 {
		t.Errorf("plane thickness = %v, want 0", out[0].R)
	}
	if !strings.Contains(buf.String(), "thickness probe found no hits") {
		t.Errorf("missing warning, log: %s", buf.String())
	}
}

func TestMedian(t *testing.T) {
	if got := median([]float64{3, 1, 2}); got != 2 {
		t.Errorf("median odd = %v", got)
	}
	if got := median([]float64{4, 1, 2, 3}); got != 2.5 {
		t.Errorf("median even = %v", got)
	}
}

func TestDirectional(t *testing.T) {
	p := testParams()
	p.Inclination = 90
	out, err := Directional(NewContext(mesh.Plane(2), WithParams(p)))
	if err != nil {
		t.Fatal(err)
	}
	for c, col := range out {
		if math.Abs(col.R-1) > 1e-9 {
			t.Errorf("plane facing the light corner %d = %v, want 1", c, col.R)
		}
	}

	cube := mesh.Cube(2)
	p.ConeAngle = 10
	out, err = Directional(NewContext(cube, WithParams(p)))
	if err != nil {
		t.Fatal(err)
	}
	peak := 0.0
	for c, col := range out {
		peak = max(peak, col.R)
		z := cube.Positions[cube.CornerVertex(c)][2]
		if z < 0 && col.R != 0 {
			t.Errorf("bottom corner %d lit: %v", c, col.R)
		}
	}
	if math.Abs(peak-1) > tolerance {
		t.Errorf("peak = %v, want 1", peak)
	}
}

func TestDirectionCount(t *testing.T) {
	c := NewContext(mesh.Plane(1))
	if got := len(c.directions(0, 0, 0)); got != 1 {
		t.Errorf("cone 0 gives %d directions, want 1", got)
	}
	if got := len(c.directions(12, 0, 0)); got != 60 {
		t.Errorf("cone 12 gives %d directions, want 60", got)
	}
	for _, d := range c.directions(30, 20, 45) {
		if math.Abs(d.Len()-1) > 1e-9 {
			t.Errorf("direction %v is not unit length", d)
		}
	}
}

func TestNoise(t *testing.T) {
	m := mesh.Grid(8, 8, 1)
	p := testParams()
	p.NoiseOffset = 0.6
	p.NoiseAmplitude = 0.2

	out, err := Noise(NewContext(m, WithParams(p)))
	if err != nil {
		t.Fatal(err)
	}
	for c, col := range out {
		if col.R < 0.4 || col.R > 0.8 {
			t.Errorf("corner %d = %v outside offset ± amplitude", c, col.R)
		}
		if col.R != col.G || col.G != col.B || col.A != 1 {
			t.Errorf("monochrome corner %d = %+v", c, col)
		}
	}

	again, _ := Noise(NewContext(m, WithParams(p)))
	other, _ := Noise(NewContext(m, WithParams(p), WithSeed(p.Seed+1)))
	same, differs := true, false
	for i := range out {
		same = same && out[i] == again[i]
		differs = differs || out[i] != other[i]
	}
	if !same {
		t.Error("same seed produced different noise")
	}
	if !differs {
		t.Error("different seeds produced identical noise")
	}

	p.Monochrome = false
	color, _ := Noise(NewContext(m, WithParams(p)))
	colored := false
	for _, col := range color {
		colored = colored || col.R != col.G
	}
	if !colored {
		t.Error("color noise produced only grays")
	}
}

func TestPositionalRamp(t *testing.T) {
	ramp := vpaint.NewRamp().AddStop(0, vpaint.Black).AddStop(1, vpaint.White)
	m := mesh.Grid(2, 1, 2) // x in {-1, 0, 1}

	p := testParams()
	p.RampAxis = vpaint.AxisX
	out, err := PositionalRamp(NewContext(m, WithParams(p)), ramp)
	if err != nil {
		t.Fatal(err)
	}
	for c, col := range out {
		x := m.Positions[m.CornerVertex(c)][0]
		want := (x + 1) / 2
		if math.Abs(col.R-want) > 1e-9 {
			t.Errorf("corner %d at x=%v = %v, want %v", c, x, col.R, want)
		}
	}

	// A flat axis maps everything to the start of the ramp.
	p.RampAxis = vpaint.AxisZ
	out, _ = PositionalRamp(NewContext(m, WithParams(p)), ramp)
	if out[0].R != 0 {
		t.Errorf("flat axis = %v, want 0", out[0].R)
	}

	// Combined bounds stretch the range over both meshes.
	other := mesh.Grid(2, 1, 2)
	other.World = mgl64.Translate3D(2, 0, 0)
	p.RampAxis = vpaint.AxisX
	p.UseCombinedBounds = true
	out, _ = PositionalRamp(NewContext(m, WithParams(p)), ramp, other)
	for c, col := range out {
		x := m.Positions[m.CornerVertex(c)][0]
		want := (x + 1) / 4
		if math.Abs(col.R-want) > 1e-9 {
			t.Errorf("combined corner %d = %v, want %v", c, col.R, want)
		}
	}
}

func TestLuminanceRemap(t *testing.T) {
	m := mesh.Plane(1)
	ramp := vpaint.NewRamp().AddStop(0, vpaint.Red).AddStop(1, vpaint.Blue)
	out, err := LuminanceRemap(NewContext(m), []float64{-1, 0.5, 2, 1}, ramp)
	if err != nil {
		t.Fatal(err)
	}
	if out[0] != vpaint.Red || out[2] != vpaint.Blue {
		t.Errorf("clamped ends = %v, %v", out[0], out[2])
	}
	if math.Abs(out[1].R-0.5) > tolerance || math.Abs(out[1].B-0.5) > tolerance {
		t.Errorf("midpoint = %+v", out[1])
	}

	if _, err := LuminanceRemap(NewContext(m), []float64{1}, ramp); !errors.Is(err, vpaint.ErrLengthMismatch) {
		t.Errorf("error = %v, want ErrLengthMismatch", err)
	}

	lum := Luminances([]vpaint.RGBA{vpaint.White, vpaint.Black})
	if math.Abs(lum[0]-1) > 1e-6 || lum[1] != 0 {
		t.Errorf("Luminances() = %v", lum)
	}
}

func TestInvert(t *testing.T) {
	got := Invert([]vpaint.RGBA{{R: 0.2, G: 0.4, B: 1, A: 0.5}})
	want := vpaint.RGBA{R: 0.8, G: 0.6, B: 0, A: 0.5}
	if math.Abs(got[0].R-want.R) > tolerance || got[0].B != 0 || got[0].A != 0.5 {
		t.Errorf("Invert() = %+v, want %+v", got[0], want)
	}
}
