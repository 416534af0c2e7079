// Command vpaint paints vertex-attribute layers of a glTF file.
//
// Usage:
//
//	vpaint -in model.glb -out painted.glb -op occlusion -target layer2
//	vpaint -in model.glb -out painted.glb -op palette -library swatches.yaml -swatch Desert
package main

import (
	"flag"
	"log"
	"log/slog"
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/gogpu/vpaint"
	"github.com/gogpu/vpaint/engine"
	"github.com/gogpu/vpaint/gltfio"
	"github.com/gogpu/vpaint/mesh"
	"github.com/gogpu/vpaint/swatch"
)

type config struct {
	op        string
	target    string
	params    vpaint.Params
	library   *swatch.Library
	swatch    string
	opts      engine.GenerateOptions
	composite bool
	workers   int
}

func main() {
	var (
		in        = flag.String("in", "", "input .gltf or .glb file")
		out       = flag.String("out", "", "output .gltf or .glb file")
		op        = flag.String("op", "occlusion", "generator name, palette, material, merge or composite")
		target    = flag.String("target", "layer1", "target layer")
		params    = flag.String("params", "", "YAML parameter preset")
		library   = flag.String("library", "", "YAML swatch library")
		swatchArg = flag.String("swatch", "", "palette or material name")
		mode      = flag.String("mode", "alpha", "blend mode: alpha, add, multiply or overlay")
		opacity   = flag.Float64("opacity", 1, "blend opacity")
		maskLayer = flag.String("mask", "", "mask generation by this layer")
		rampFile  = flag.String("ramp", "", "YAML color ramp for ramp and remap")
		source    = flag.String("source", "", "source layer for remap")
		color     = flag.String("color", "white", "fill color")
		invert    = flag.Bool("invert", false, "invert generated values")
		composite = flag.Bool("composite", true, "rebuild the composite layer")
		workers   = flag.Int("workers", 0, "worker count, 0 for all CPUs")
		verbose   = flag.Bool("v", false, "log progress to stderr")
	)
	flag.Parse()

	if *verbose {
		vpaint.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug})))
	}
	if *in == "" || *out == "" {
		flag.Usage()
		os.Exit(2)
	}

	cfg := config{
		op:        *op,
		target:    *target,
		swatch:    *swatchArg,
		opts:      engine.Defaults(),
		composite: *composite,
		workers:   *workers,
		params:    vpaint.DefaultParams(),
	}
	var err error
	if *params != "" {
		if cfg.params, err = loadParams(*params); err != nil {
			log.Fatalf("params: %v", err)
		}
	}
	if *library != "" {
		if cfg.library, err = loadLibrary(*library); err != nil {
			log.Fatalf("library: %v", err)
		}
	}
	if cfg.opts.Mode, err = vpaint.ParseBlendMode(*mode); err != nil {
		log.Fatalf("mode: %v", err)
	}
	if cfg.opts.Color, err = vpaint.ParseColor(*color); err != nil {
		log.Fatalf("color: %v", err)
	}
	if *rampFile != "" {
		if cfg.opts.Ramp, err = loadRamp(*rampFile); err != nil {
			log.Fatalf("ramp: %v", err)
		}
	}
	cfg.opts.Opacity = *opacity
	cfg.opts.Source = *source
	cfg.opts.Invert = *invert
	if *maskLayer != "" {
		cfg.opts.Mask = engine.MaskLayer
		cfg.opts.MaskLayer = *maskLayer
	}

	objects, err := gltfio.Open(*in)
	if err != nil {
		log.Fatal(err)
	}
	if err := paint(objects, cfg); err != nil {
		log.Fatal(err)
	}
	if err := gltfio.Save(*out, objects); err != nil {
		log.Fatal(err)
	}
	log.Printf("Painted %d objects into %s\n", len(objects), *out)
}

// paint runs the operation on every object. All objects share one scene.
func paint(objects []*gltfio.Object, cfg config) error {
	scene := mesh.NewScene()
	for _, obj := range objects {
		scene.Add(obj.Mesh)
	}

	for _, obj := range objects {
		eng, err := engine.New(obj.Mesh, obj.Store,
			engine.WithScene(scene),
			engine.WithParams(cfg.params),
			engine.WithWorkers(cfg.workers))
		if err != nil {
			return err
		}
		outcome, err := run(eng, cfg)
		if err == nil && cfg.composite {
			_, err = eng.Composite()
		}
		eng.Close()
		if err != nil {
			return errors.Wrap(err, obj.Mesh.Name)
		}
		log.Printf("%s: %s %s", obj.Mesh.Name, cfg.op, outcome)
	}
	return nil
}

func run(eng *engine.Engine, cfg config) (engine.Outcome, error) {
	switch cfg.op {
	case "composite":
		return engine.Applied, nil
	case "merge":
		return engine.Applied, eng.MergeDown(cfg.target)
	case "palette":
		if cfg.library == nil {
			return engine.Unchanged, errors.New("palette needs -library")
		}
		p, ok := cfg.library.Palette(cfg.swatch)
		if !ok {
			return engine.Unchanged, errors.Errorf("no palette %q", cfg.swatch)
		}
		return eng.ApplyPalette(p)
	case "material":
		if cfg.library == nil {
			return engine.Unchanged, errors.New("material needs -library")
		}
		m, ok := cfg.library.Material(cfg.swatch)
		if !ok {
			return engine.Unchanged, errors.Errorf("no material %q", cfg.swatch)
		}
		return eng.ApplyMaterial(cfg.target, m, swatch.ScopeObject, false)
	}

	g, err := engine.ParseGenerator(cfg.op)
	if err != nil {
		return engine.Unchanged, err
	}
	return eng.Generate(cfg.target, g, cfg.opts)
}

func loadParams(path string) (vpaint.Params, error) {
	f, err := os.Open(path)
	if err != nil {
		return vpaint.Params{}, err
	}
	defer f.Close()
	return vpaint.LoadParams(f)
}

func loadLibrary(path string) (*swatch.Library, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return swatch.LoadLibrary(f)
}

func loadRamp(path string) (*vpaint.Ramp, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	r := new(vpaint.Ramp)
	if err := yaml.Unmarshal(data, r); err != nil {
		return nil, errors.Wrap(err, path)
	}
	return r, nil
}
