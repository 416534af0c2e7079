// Package swatch holds named palettes and materials and applies them to a
// layer set.
package swatch

import (
	"io"
	"sort"

	"github.com/pkg/errors"
	"golang.org/x/text/cases"
	"gopkg.in/yaml.v3"

	"github.com/gogpu/vpaint"
)

// Swatch sizes.
const (
	PaletteSize  = 5
	MaterialSize = 3
)

// ErrDuplicate is returned when a library already holds a swatch name.
var ErrDuplicate = errors.New("swatch: duplicate name")

// Palette is five colors written into layer1 through layer5.
type Palette struct {
	Name     string
	Category string
	Colors   [PaletteSize]vpaint.RGBA
}

// Material is a diffuse color plus metallic and smoothness values.
type Material struct {
	Name       string
	Category   string
	Diffuse    vpaint.RGBA
	Metallic   vpaint.RGBA
	Smoothness vpaint.RGBA
}

// Library is an immutable-by-convention set of swatches looked up by name.
// Names match case-insensitively.
type Library struct {
	palettes  map[string]Palette
	materials map[string]Material
}

// NewLibrary returns an empty library.
func NewLibrary() *Library {
	return &Library{
		palettes:  make(map[string]Palette),
		materials: make(map[string]Material),
	}
}

// key folds case. Casers are stateful, so each call makes its own.
func key(name string) string {
	return cases.Fold().String(name)
}

// AddPalette adds p. Names are unique per kind.
func (l *Library) AddPalette(p Palette) error {
	k := key(p.Name)
	if _, ok := l.palettes[k]; ok {
		return errors.Wrapf(ErrDuplicate, "palette %q", p.Name)
	}
	l.palettes[k] = p
	return nil
}

// AddMaterial adds m. Names are unique per kind.
func (l *Library) AddMaterial(m Material) error {
	k := key(m.Name)
	if _, ok := l.materials[k]; ok {
		return errors.Wrapf(ErrDuplicate, "material %q", m.Name)
	}
	l.materials[k] = m
	return nil
}

// Palette returns the named palette.
func (l *Library) Palette(name string) (Palette, bool) {
	p, ok := l.palettes[key(name)]
	return p, ok
}

// Material returns the named material.
func (l *Library) Material(name string) (Material, bool) {
	m, ok := l.materials[key(name)]
	return m, ok
}

// Palettes returns every palette ordered by category, then name.
func (l *Library) Palettes() []Palette {
	out := make([]Palette, 0, len(l.palettes))
	for _, p := range l.palettes {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Category != out[j].Category {
			return out[i].Category < out[j].Category
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// Materials returns every material ordered by category, then name.
func (l *Library) Materials() []Material {
	out := make([]Material, 0, len(l.materials))
	for _, m := range l.materials {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Category != out[j].Category {
			return out[i].Category < out[j].Category
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// Categories returns the distinct categories of all swatches, sorted.
func (l *Library) Categories() []string {
	seen := make(map[string]bool)
	for _, p := range l.palettes {
		seen[p.Category] = true
	}
	for _, m := range l.materials {
		seen[m.Category] = true
	}
	out := make([]string, 0, len(seen))
	for c := range seen {
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}

type libraryFile struct {
	Palettes []struct {
		Name     string        `yaml:"name"`
		Category string        `yaml:"category"`
		Colors   []vpaint.RGBA `yaml:"colors"`
	} `yaml:"palettes"`
	Materials []struct {
		Name       string      `yaml:"name"`
		Category   string      `yaml:"category"`
		Diffuse    vpaint.RGBA `yaml:"diffuse"`
		Metallic   float64     `yaml:"metallic"`
		Smoothness float64     `yaml:"smoothness"`
	} `yaml:"materials"`
}

// LoadLibrary decodes a YAML library:
//
//	palettes:
//	  - name: Desert
//	    category: Nature
//	    colors: [tan, "#c2b280", sienna, [0.9, 0.8, 0.6], white]
//	materials:
//	  - name: Brass
//	    category: Metal
//	    diffuse: "#b5a642"
//	    metallic: 1
//	    smoothness: 0.7
func LoadLibrary(r io.Reader) (*Library, error) {
	var f libraryFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil && err != io.EOF {
		return nil, errors.Wrap(err, "swatch: decode library")
	}

	lib := NewLibrary()
	for _, p := range f.Palettes {
		if len(p.Colors) != PaletteSize {
			return nil, errors.Errorf("swatch: palette %q has %d colors, want %d", p.Name, len(p.Colors), PaletteSize)
		}
		pal := Palette{Name: p.Name, Category: p.Category}
		copy(pal.Colors[:], p.Colors)
		if err := lib.AddPalette(pal); err != nil {
			return nil, err
		}
	}
	for _, m := range f.Materials {
		if err := lib.AddMaterial(Material{
			Name:       m.Name,
			Category:   m.Category,
			Diffuse:    m.Diffuse,
			Metallic:   vpaint.Gray(m.Metallic),
			Smoothness: vpaint.Gray(m.Smoothness),
		}); err != nil {
			return nil, err
		}
	}
	vpaint.Logger().Debug("swatch: library loaded", "palettes", len(lib.palettes), "materials", len(lib.materials))
	return lib, nil
}
