package attr

import (
	"github.com/pkg/errors"

	"github.com/gogpu/vpaint"
	"github.com/gogpu/vpaint/mesh"
)

// VertexMap holds sparse per-vertex values. Only the first arity entries of
// each value are meaningful.
type VertexMap map[int][4]float64

// VertexToCorner expands vm into a dense per-corner buffer of outArity floats
// per corner, in mesh corner order. inArity is 1, 3 or 4; outArity is 1, 2 or 4.
//
// Missing vertices read as 0, or (0,0,0,1) when inArity is 4. A scalar
// expanded to four floats becomes opaque gray; three floats gain alpha 1.
// Colors reduced to one float use their luminance.
func VertexToCorner(m *mesh.Mesh, vm VertexMap, inArity, outArity int) ([]float64, error) {
	switch inArity {
	case 1, 3, 4:
	default:
		return nil, errors.Errorf("attr: unsupported input arity %d", inArity)
	}
	switch outArity {
	case 1, 2, 4:
	default:
		return nil, errors.Errorf("attr: unsupported output arity %d", outArity)
	}

	var missing [4]float64
	if inArity == 4 {
		missing[3] = 1
	}

	out := make([]float64, m.CornerCount()*outArity)
	for c := range m.CornerCount() {
		v, ok := vm[m.CornerVertex(c)]
		if !ok {
			v = missing
		}
		dst := out[c*outArity : (c+1)*outArity]
		switch outArity {
		case 1:
			if inArity == 1 {
				dst[0] = v[0]
			} else {
				a := 1.0
				if inArity == 4 {
					a = v[3]
				}
				dst[0] = vpaint.RGBA{R: v[0], G: v[1], B: v[2], A: a}.Luminance()
			}
		case 2:
			dst[0] = v[0]
			if inArity == 1 {
				dst[1] = v[0]
			} else {
				dst[1] = v[1]
			}
		case 4:
			switch inArity {
			case 1:
				dst[0], dst[1], dst[2], dst[3] = v[0], v[0], v[0], 1
			case 3:
				dst[0], dst[1], dst[2], dst[3] = v[0], v[1], v[2], 1
			default:
				copy(dst, v[:])
			}
		}
	}
	return out, nil
}

// ExpandColors is VertexToCorner into RGBA corners.
func ExpandColors(m *mesh.Mesh, vm VertexMap, inArity int) ([]vpaint.RGBA, error) {
	buf, err := VertexToCorner(m, vm, inArity, VectorArity)
	if err != nil {
		return nil, err
	}
	return Colors(buf), nil
}

// SelectionMask returns 1 for corners whose vertex (or polygon, in face mode)
// is selected and 0 elsewhere. isEmpty reports that nothing is selected, in
// which case callers treat the whole mesh as eligible.
func SelectionMask(m *mesh.Mesh, faceMode bool) (mask *vpaint.Mask, isEmpty bool) {
	mask = vpaint.NewMask(m.CornerCount())
	isEmpty = true
	for c := range m.CornerCount() {
		var sel bool
		if faceMode {
			sel = m.PolygonSelected(m.CornerPolygon(c))
		} else {
			sel = m.VertexSelected(m.CornerVertex(c))
		}
		if sel {
			mask.Set(c, 1)
			isEmpty = false
		}
	}
	return mask, isEmpty
}

// Colors splits a flat RGBA buffer into colors.
func Colors(buf []float64) []vpaint.RGBA {
	out := make([]vpaint.RGBA, len(buf)/VectorArity)
	for i := range out {
		b := buf[i*4 : i*4+4]
		out[i] = vpaint.RGBA{R: b[0], G: b[1], B: b[2], A: b[3]}
	}
	return out
}

// Flatten packs colors into a flat RGBA buffer.
func Flatten(colors []vpaint.RGBA) []float64 {
	out := make([]float64, len(colors)*VectorArity)
	for i, c := range colors {
		out[i*4], out[i*4+1], out[i*4+2], out[i*4+3] = c.R, c.G, c.B, c.A
	}
	return out
}
