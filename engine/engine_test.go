package engine

import (
	"errors"
	"math"
	"testing"

	"github.com/gogpu/vpaint"
	"github.com/gogpu/vpaint/attr"
	"github.com/gogpu/vpaint/layer"
	"github.com/gogpu/vpaint/mesh"
	"github.com/gogpu/vpaint/swatch"
)

func testParams() vpaint.Params {
	p := vpaint.DefaultParams()
	p.RayCount = 32
	return p
}

func newEngine(t *testing.T, m *mesh.Mesh, opts ...Option) *Engine {
	t.Helper()
	opts = append([]Option{WithParams(testParams()), WithWorkers(2)}, opts...)
	e, err := New(m, attr.NewMemoryStorage(m.CornerCount()), opts...)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(e.Close)
	return e
}

func get(t *testing.T, e *Engine, name string) []vpaint.RGBA {
	t.Helper()
	out, err := e.Layers().Get(name, layer.GetOptions{})
	if err != nil {
		t.Fatalf("Get(%s) error = %v", name, err)
	}
	return out
}

func fillOptions(c vpaint.RGBA) GenerateOptions {
	o := Defaults()
	o.Color = c
	return o
}

func TestNewErrors(t *testing.T) {
	m := mesh.Plane(1)
	if _, err := New(m, attr.NewMemoryStorage(3)); !errors.Is(err, vpaint.ErrLengthMismatch) {
		t.Errorf("corner mismatch error = %v", err)
	}
	bad := testParams()
	bad.RayCount = 0
	if _, err := New(m, attr.NewMemoryStorage(m.CornerCount()), WithParams(bad)); !errors.Is(err, vpaint.ErrInvalidParams) {
		t.Errorf("invalid params error = %v", err)
	}
}

func TestGenerateFill(t *testing.T) {
	e := newEngine(t, mesh.Plane(1))

	got, err := e.Generate("layer2", Fill, fillOptions(vpaint.Red))
	if err != nil {
		t.Fatal(err)
	}
	if got != Applied {
		t.Errorf("outcome = %v, want applied", got)
	}
	for c, col := range get(t, e, "layer2") {
		if col != vpaint.Red {
			t.Fatalf("corner %d = %v, want red", c, col)
		}
	}

	got, err = e.Generate("layer2", Fill, fillOptions(vpaint.Red))
	if err != nil {
		t.Fatal(err)
	}
	if got != Unchanged {
		t.Errorf("repeat outcome = %v, want unchanged", got)
	}
}

func TestGenerateZeroOpacity(t *testing.T) {
	e := newEngine(t, mesh.Plane(1))
	opts := fillOptions(vpaint.Red)
	opts.Opacity = 0
	got, err := e.Generate("layer1", Fill, opts)
	if err != nil {
		t.Fatal(err)
	}
	if got != Unchanged {
		t.Errorf("outcome = %v, want unchanged", got)
	}
}

func TestGenerateCompositeTarget(t *testing.T) {
	e := newEngine(t, mesh.Plane(1))
	if _, err := e.Generate(layer.Composite, Fill, Defaults()); !errors.Is(err, vpaint.ErrCompositeTarget) {
		t.Errorf("error = %v, want ErrCompositeTarget", err)
	}
	if _, err := e.Generate("layer99", Fill, Defaults()); !errors.Is(err, vpaint.ErrLayerNotFound) {
		t.Errorf("error = %v, want ErrLayerNotFound", err)
	}
}

func TestGenerateInvalidBlend(t *testing.T) {
	e := newEngine(t, mesh.Plane(1))
	for _, opts := range []GenerateOptions{
		{Mode: vpaint.BlendMode(17), Opacity: 1},
		{Mode: vpaint.BlendAlpha, Opacity: 2},
		{Mode: vpaint.BlendAdd, Opacity: -1},
	} {
		if _, err := e.Generate("layer1", Fill, opts); !errors.Is(err, vpaint.ErrInvalidParams) {
			t.Errorf("Generate(%+v) error = %v, want ErrInvalidParams", opts, err)
		}
	}
}

func TestGenerateLocked(t *testing.T) {
	e := newEngine(t, mesh.Plane(1))
	if err := e.Layers().Fill("layer2", vpaint.RGBA{B: 1, A: 0.5}, layer.PutOptions{}); err != nil {
		t.Fatal(err)
	}
	l, err := e.Layers().Layer("layer2")
	if err != nil {
		t.Fatal(err)
	}
	l.Locked = true

	got, err := e.Generate("layer2", Fill, fillOptions(vpaint.Red))
	if err != nil || got != Applied {
		t.Fatalf("Generate() = %v, %v", got, err)
	}
	want := vpaint.RGBA{R: 1, A: 0.5}
	for c, col := range get(t, e, "layer2") {
		if col.Distance(want) > 1e-9 {
			t.Errorf("corner %d = %v, want %v", c, col, want)
		}
	}

	// Repainting the same color only differs in alpha, which is locked.
	if got, err = e.Generate("layer2", Fill, fillOptions(vpaint.Red)); err != nil || got != Unchanged {
		t.Errorf("repeat = %v, %v, want unchanged", got, err)
	}
}

func TestGenerateMaskLayer(t *testing.T) {
	e := newEngine(t, mesh.Plane(1))
	opts := fillOptions(vpaint.Red)
	opts.Mask = MaskLayer
	opts.MaskLayer = "layer3"

	// layer3 starts transparent, so the mask is empty.
	got, err := e.Generate("layer1", Fill, opts)
	if err != nil {
		t.Fatal(err)
	}
	if got != Skipped {
		t.Errorf("outcome = %v, want skipped", got)
	}

	mask := []vpaint.RGBA{{A: 1}, {}, {}, {A: 1}}
	if err := e.Layers().Put("layer3", mask, layer.PutOptions{}); err != nil {
		t.Fatal(err)
	}
	if got, err = e.Generate("layer1", Fill, opts); err != nil || got != Applied {
		t.Fatalf("Generate() = %v, %v", got, err)
	}
	want := []vpaint.RGBA{vpaint.Red, vpaint.White, vpaint.White, vpaint.Red}
	for c, col := range get(t, e, "layer1") {
		if col != want[c] {
			t.Errorf("corner %d = %v, want %v", c, col, want[c])
		}
	}
}

func TestGenerateSelection(t *testing.T) {
	m := mesh.Cube(1)
	e := newEngine(t, m)
	opts := fillOptions(vpaint.Blue)
	opts.Mask = MaskSelection

	m.SelectedPolygons = make([]bool, m.PolygonCount())
	m.SelectedPolygons[2] = true
	opts.FaceSelection = true
	if _, err := e.Generate("layer2", Fill, opts); err != nil {
		t.Fatal(err)
	}
	got := get(t, e, "layer2")
	for c, col := range got {
		want := vpaint.Transparent
		if m.CornerPolygon(c) == 2 {
			want = vpaint.Blue
		}
		if col != want {
			t.Errorf("corner %d = %v, want %v", c, col, want)
		}
	}

	// Nothing selected paints the whole mesh.
	m.SelectedPolygons = nil
	if _, err := e.Generate("layer3", Fill, opts); err != nil {
		t.Fatal(err)
	}
	for c, col := range get(t, e, "layer3") {
		if col != vpaint.Blue {
			t.Fatalf("corner %d = %v, want blue", c, col)
		}
	}
}

func TestGenerateScalarTarget(t *testing.T) {
	e := newEngine(t, mesh.Plane(1))

	// An open plane is fully unoccluded, matching the layer default.
	got, err := e.Generate(layer.Occlusion, Occlusion, Defaults())
	if err != nil {
		t.Fatal(err)
	}
	if got != Unchanged {
		t.Errorf("occlusion outcome = %v, want unchanged", got)
	}

	opts := fillOptions(vpaint.White)
	opts.Opacity = 0.5
	if _, err := e.Generate(layer.Metallic, Fill, opts); err != nil {
		t.Fatal(err)
	}
	for c, col := range get(t, e, layer.Metallic) {
		if math.Abs(col.R-0.5) > 1e-6 {
			t.Errorf("metallic corner %d = %v, want 0.5", c, col.R)
		}
	}
}

func TestGenerateRemap(t *testing.T) {
	e := newEngine(t, mesh.Plane(1))
	opts := Defaults()
	opts.Ramp = vpaint.NewRamp().AddStop(0, vpaint.Red).AddStop(1, vpaint.Blue)

	// layer1 is white, luminance 1.
	if _, err := e.Generate("layer1", LuminanceRemap, opts); err != nil {
		t.Fatal(err)
	}
	for c, col := range get(t, e, "layer1") {
		if col != vpaint.Blue {
			t.Errorf("corner %d = %v, want blue", c, col)
		}
	}

	opts.Source = "layer2"
	opts.Invert = true
	if _, err := e.Generate("layer1", LuminanceRemap, opts); err != nil {
		t.Fatal(err)
	}
	// layer2 is transparent black: luminance 0 gives red, inverted to cyan.
	if col := get(t, e, "layer1")[0]; col != vpaint.RGB(0, 1, 1) {
		t.Errorf("inverted remap = %v, want cyan", col)
	}
}

func TestGenerateDeterministic(t *testing.T) {
	run := func(workers int) []vpaint.RGBA {
		e := newEngine(t, mesh.Cube(1), WithWorkers(workers))
		if _, err := e.Generate("layer2", Noise, Defaults()); err != nil {
			t.Fatal(err)
		}
		return get(t, e, "layer2")
	}
	a, b := run(1), run(4)
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("corner %d differs: %v vs %v", i, a[i], b[i])
		}
	}
}

func TestCompositeAndMerge(t *testing.T) {
	e := newEngine(t, mesh.Plane(1))
	half := make([]vpaint.RGBA, 4)
	for i := range half {
		half[i] = vpaint.RGBA{R: 1, A: 0.5}
	}
	if err := e.Layers().Put("layer2", half, layer.PutOptions{}); err != nil {
		t.Fatal(err)
	}

	comp, err := e.Composite()
	if err != nil {
		t.Fatal(err)
	}
	want := vpaint.RGBA{R: 1, G: 0.5, B: 0.5, A: 1}
	if comp[0].Distance(want) > 1e-9 {
		t.Errorf("composite = %v, want %v", comp[0], want)
	}
	if stored := get(t, e, layer.Composite); stored[0] != comp[0] {
		t.Errorf("stored composite = %v, want %v", stored[0], comp[0])
	}

	if err := e.MergeDown("layer2"); err != nil {
		t.Fatal(err)
	}
	if got := get(t, e, "layer1")[0]; got.Distance(want) > 1e-9 {
		t.Errorf("merged layer1 = %v, want %v", got, want)
	}
	if got := get(t, e, "layer2")[0]; got != vpaint.Transparent {
		t.Errorf("layer2 after merge = %v, want cleared", got)
	}
}

func TestApplyPalette(t *testing.T) {
	e := newEngine(t, mesh.Plane(1))
	p := swatch.Palette{Name: "p", Colors: [5]vpaint.RGBA{vpaint.Green, vpaint.Red, vpaint.Red, vpaint.Black, vpaint.White}}

	got, err := e.ApplyPalette(p)
	if err != nil || got != Applied {
		t.Fatalf("ApplyPalette() = %v, %v", got, err)
	}
	if pal := e.Palette(); len(pal) != 5 || pal[4] != vpaint.White {
		t.Errorf("Palette() = %v", pal)
	}
	if got, _ = e.ApplyPalette(p); got != Unchanged {
		t.Errorf("repeat outcome = %v, want unchanged", got)
	}

	comp, err := e.Composite()
	if err != nil {
		t.Fatal(err)
	}
	if comp[0] != vpaint.Green {
		t.Errorf("composite = %v, want green", comp[0])
	}
}

// failingStore rejects writes to one vector channel.
type failingStore struct {
	*attr.MemoryStorage
	channel string
}

var errWrite = errors.New("write refused")

func (s failingStore) WriteVector(name string, buf []float64) error {
	if name == s.channel {
		return errWrite
	}
	return s.MemoryStorage.WriteVector(name, buf)
}

func TestApplyPalettePartialWrite(t *testing.T) {
	m := mesh.Plane(1)
	store := failingStore{attr.NewMemoryStorage(m.CornerCount()), attr.VertexColor(3)}
	e, err := New(m, store, WithParams(testParams()), WithWorkers(1))
	if err != nil {
		t.Fatal(err)
	}
	defer e.Close()
	if err := e.Layers().Fill("layer2", vpaint.Gray(0.2), layer.PutOptions{}); err != nil {
		t.Fatal(err)
	}
	// layer3 refuses writes through the set, so paint it in storage.
	painted := make([]vpaint.RGBA, m.CornerCount())
	for i := range painted {
		painted[i] = vpaint.Gray(0.2)
	}
	if err := store.MemoryStorage.WriteVector(attr.VertexColor(3), attr.Flatten(painted)); err != nil {
		t.Fatal(err)
	}

	p := swatch.Palette{Name: "p", Colors: [5]vpaint.RGBA{vpaint.Green, vpaint.Red, vpaint.Blue, vpaint.Black, vpaint.White}}
	got, err := e.ApplyPalette(p)
	if !errors.Is(err, errWrite) {
		t.Fatalf("error = %v, want the storage error", err)
	}
	if got != Applied {
		t.Errorf("outcome = %v, want applied", got)
	}
	if col := get(t, e, "layer2")[0]; col != vpaint.Red {
		t.Errorf("layer2 = %v, want red", col)
	}
	if pal := e.Palette(); len(pal) != 5 || pal[0] != vpaint.Green {
		t.Errorf("Palette() = %v, want the applied palette", pal)
	}
}

func TestApplyMaterial(t *testing.T) {
	m := mesh.Plane(1)
	e := newEngine(t, m)
	mat := swatch.Material{Name: "m", Diffuse: vpaint.Red, Metallic: vpaint.White, Smoothness: vpaint.Gray(0.5)}

	// layer5 is empty, so object scope has nothing to paint.
	got, err := e.ApplyMaterial("layer5", mat, swatch.ScopeObject, false)
	if err != nil || got != Skipped {
		t.Fatalf("empty object scope = %v, %v", got, err)
	}

	m.SelectedVertices = []bool{true, false, false, false}
	if got, err = e.ApplyMaterial("layer1", mat, swatch.ScopeComponent, false); err != nil || got != Applied {
		t.Fatalf("component scope = %v, %v", got, err)
	}
	for c, col := range get(t, e, "layer1") {
		want := vpaint.White
		if m.CornerVertex(c) == 0 {
			want = vpaint.Red
		}
		if col != want {
			t.Errorf("corner %d = %v, want %v", c, col, want)
		}
	}
}

func TestParseGenerator(t *testing.T) {
	for g := Curvature; g <= Fill; g++ {
		got, err := ParseGenerator(g.String())
		if err != nil || got != g {
			t.Errorf("ParseGenerator(%q) = %v, %v", g.String(), got, err)
		}
	}
	if got, err := ParseGenerator("OCCLUSION"); err != nil || got != Occlusion {
		t.Errorf("ParseGenerator(OCCLUSION) = %v, %v", got, err)
	}
	if _, err := ParseGenerator("paint"); !errors.Is(err, vpaint.ErrInvalidParams) {
		t.Errorf("unknown generator error = %v", err)
	}
}
