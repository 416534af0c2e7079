package vpaint_test

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"sync"
	"testing"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/gogpu/vpaint"
	"github.com/gogpu/vpaint/attr"
	"github.com/gogpu/vpaint/generate"
	"github.com/gogpu/vpaint/layer"
	"github.com/gogpu/vpaint/mesh"
)

// capture routes vpaint logs at level and above into a buffer for the rest
// of the test.
func capture(t *testing.T, level slog.Level) *bytes.Buffer {
	t.Helper()
	orig := vpaint.Logger()
	t.Cleanup(func() { vpaint.SetLogger(orig) })
	var buf bytes.Buffer
	vpaint.SetLogger(slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: level})))
	return &buf
}

func TestLoggerDefaultSilent(t *testing.T) {
	orig := vpaint.Logger()
	t.Cleanup(func() { vpaint.SetLogger(orig) })

	vpaint.SetLogger(slog.Default())
	vpaint.SetLogger(nil)
	l := vpaint.Logger()
	if l == nil {
		t.Fatal("Logger() = nil after SetLogger(nil)")
	}
	for _, level := range []slog.Level{slog.LevelDebug, slog.LevelInfo, slog.LevelWarn, slog.LevelError} {
		if l.Enabled(context.Background(), level) {
			t.Errorf("default logger enabled at %v", level)
		}
	}
}

func TestLogSites(t *testing.T) {
	flat := mesh.Plane(2)

	tests := []struct {
		name  string
		level slog.Level
		run   func(t *testing.T)
		want  string
		quiet string
	}{
		{"layer set", slog.LevelInfo, func(t *testing.T) {
			layer.NewSet(attr.NewMemoryStorage(flat.CornerCount()))
		}, "layer: set created", ""},
		{"flat ramp axis", slog.LevelWarn, func(t *testing.T) {
			p := vpaint.DefaultParams()
			p.RampAxis = vpaint.AxisZ
			if _, err := generate.PositionalRamp(generate.NewContext(flat, generate.WithParams(p)), vpaint.NewRamp()); err != nil {
				t.Fatal(err)
			}
		}, "generate: flat ramp axis", ""},
		{"ramp along a real axis", slog.LevelWarn, func(t *testing.T) {
			p := vpaint.DefaultParams()
			p.RampAxis = vpaint.AxisX
			if _, err := generate.PositionalRamp(generate.NewContext(flat, generate.WithParams(p)), vpaint.NewRamp()); err != nil {
				t.Fatal(err)
			}
		}, "", "flat ramp axis"},
		{"vertex without a normal", slog.LevelWarn, func(t *testing.T) {
			up := mgl64.Vec3{0, 0, 1}
			m, err := mesh.New("broken", flat.Positions, flat.Polygons, []mgl64.Vec3{{}, up, up, up})
			if err != nil {
				t.Fatal(err)
			}
			if _, err := generate.Curvature(generate.NewContext(m)); err != nil {
				t.Fatal(err)
			}
		}, "generate: curvature vertices without normal or edges", ""},
		{"debug filtered", slog.LevelWarn, func(t *testing.T) {
			if _, err := generate.Curvature(generate.NewContext(flat)); err != nil {
				t.Fatal(err)
			}
		}, "", "generate: curvature"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := capture(t, tt.level)
			tt.run(t)
			out := buf.String()
			if tt.want != "" && !strings.Contains(out, tt.want) {
				t.Errorf("log missing %q: %s", tt.want, out)
			}
			if tt.quiet != "" && strings.Contains(out, tt.quiet) {
				t.Errorf("log unexpectedly contains %q: %s", tt.quiet, out)
			}
		})
	}
}

func TestSetLoggerDuringGeneration(t *testing.T) {
	orig := vpaint.Logger()
	t.Cleanup(func() { vpaint.SetLogger(orig) })

	m := mesh.Cube(1)
	var wg sync.WaitGroup
	for range 8 {
		wg.Add(2)
		go func() {
			defer wg.Done()
			if _, err := generate.Noise(generate.NewContext(m, generate.WithWorkers(2))); err != nil {
				t.Error(err)
			}
		}()
		go func() {
			defer wg.Done()
			vpaint.SetLogger(slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil)))
			vpaint.SetLogger(nil)
		}()
	}
	wg.Wait()
}

func BenchmarkSilentLogger(b *testing.B) {
	l := vpaint.Logger()
	b.ReportAllocs()
	for b.Loop() {
		l.Debug("generate: occlusion", "vertices", 1024, "rays", 64)
	}
}
