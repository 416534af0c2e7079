// Package gltfio moves meshes and their attribute channels in and out of
// glTF 2.0 documents.
//
// Every triangle primitive reachable from the default scene becomes one
// Object. Vertex attributes COLOR_n load into vector channel
// attr.VertexColor(n) and TEXCOORD_n into coordinate channel attr.UVSet(n),
// expanded to one value per corner. Export writes the channels back
// unwelded, one glTF vertex per corner, so per-corner values survive.
package gltfio

import (
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/pkg/errors"
	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"

	"github.com/gogpu/vpaint"
	"github.com/gogpu/vpaint/attr"
	"github.com/gogpu/vpaint/mesh"
)

// Attribute name prefixes carried between glTF and attribute storage.
const (
	colorPrefix    = "COLOR_"
	texcoordPrefix = "TEXCOORD_"
)

// Object is one mesh primitive and its per-corner channels.
type Object struct {
	Mesh  *mesh.Mesh
	Store *attr.MemoryStorage
}

// Open reads a .gltf or .glb file.
func Open(path string) ([]*Object, error) {
	doc, err := gltf.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "gltfio: open %s", path)
	}
	return Load(doc)
}

// Decode reads a glTF document from r.
func Decode(r io.Reader) ([]*Object, error) {
	doc := new(gltf.Document)
	if err := gltf.NewDecoder(r).Decode(doc); err != nil {
		return nil, errors.Wrap(err, "gltfio: decode")
	}
	return Load(doc)
}

// Load converts the triangle primitives of doc's default scene.
// Primitives in other topologies are skipped.
func Load(doc *gltf.Document) ([]*Object, error) {
	var roots []uint32
	switch {
	case doc.Scene != nil && int(*doc.Scene) < len(doc.Scenes):
		roots = doc.Scenes[*doc.Scene].Nodes
	case len(doc.Scenes) > 0:
		roots = doc.Scenes[0].Nodes
	default:
		for i := range doc.Nodes {
			roots = append(roots, uint32(i))
		}
	}

	l := loader{doc: doc, seen: make(map[uint32]bool)}
	for _, n := range roots {
		if err := l.walk(n, mgl64.Ident4()); err != nil {
			return nil, err
		}
	}
	vpaint.Logger().Info("gltfio: loaded", "objects", len(l.objects), "nodes", len(doc.Nodes))
	return l.objects, nil
}

type loader struct {
	doc     *gltf.Document
	seen    map[uint32]bool
	objects []*Object
}

func (l *loader) walk(index uint32, parent mgl64.Mat4) error {
	if int(index) >= len(l.doc.Nodes) {
		return errors.Errorf("gltfio: node %d out of range", index)
	}
	if l.seen[index] {
		return errors.Errorf("gltfio: node %d visited twice", index)
	}
	l.seen[index] = true

	node := l.doc.Nodes[index]
	world := parent.Mul4(nodeMatrix(node))

	if node.Mesh != nil {
		if int(*node.Mesh) >= len(l.doc.Meshes) {
			return errors.Errorf("gltfio: node %q references mesh %d", node.Name, *node.Mesh)
		}
		gm := l.doc.Meshes[*node.Mesh]
		for i, prim := range gm.Primitives {
			if prim.Mode != gltf.PrimitiveTriangles {
				vpaint.Logger().Warn("gltfio: primitive skipped", "mesh", gm.Name, "primitive", i, "mode", prim.Mode)
				continue
			}
			name := node.Name
			if name == "" {
				name = gm.Name
			}
			if len(gm.Primitives) > 1 {
				name = fmt.Sprintf("%s.%d", name, i)
			}
			obj, err := l.primitive(name, prim)
			if err != nil {
				return errors.Wrapf(err, "gltfio: %s", name)
			}
			obj.Mesh.World = world
			l.objects = append(l.objects, obj)
		}
	}

	for _, child := range node.Children {
		if err := l.walk(child, world); err != nil {
			return err
		}
	}
	return nil
}

func (l *loader) accessor(index uint32) (*gltf.Accessor, error) {
	if int(index) >= len(l.doc.Accessors) {
		return nil, errors.Errorf("accessor %d out of range", index)
	}
	return l.doc.Accessors[index], nil
}

func (l *loader) primitive(name string, prim *gltf.Primitive) (*Object, error) {
	posIndex, ok := prim.Attributes["POSITION"]
	if !ok {
		return nil, errors.New("primitive has no POSITION")
	}
	acr, err := l.accessor(posIndex)
	if err != nil {
		return nil, err
	}
	raw, err := modeler.ReadPosition(l.doc, acr, nil)
	if err != nil {
		return nil, errors.Wrap(err, "read positions")
	}
	positions := make([]mgl64.Vec3, len(raw))
	for i, p := range raw {
		positions[i] = vec3(p)
	}

	var indices []uint32
	if prim.Indices != nil {
		acr, err := l.accessor(*prim.Indices)
		if err != nil {
			return nil, err
		}
		if indices, err = modeler.ReadIndices(l.doc, acr, nil); err != nil {
			return nil, errors.Wrap(err, "read indices")
		}
	} else {
		indices = make([]uint32, len(positions))
		for i := range indices {
			indices[i] = uint32(i)
		}
	}
	if len(indices)%3 != 0 {
		return nil, errors.Errorf("%d indices do not form triangles", len(indices))
	}
	polygons := make([]mesh.Polygon, len(indices)/3)
	for t := range polygons {
		polygons[t] = mesh.Polygon{int(indices[3*t]), int(indices[3*t+1]), int(indices[3*t+2])}
	}

	var normals []mgl64.Vec3
	if nIndex, ok := prim.Attributes["NORMAL"]; ok {
		acr, err := l.accessor(nIndex)
		if err != nil {
			return nil, err
		}
		raw, err := modeler.ReadNormal(l.doc, acr, nil)
		if err != nil {
			return nil, errors.Wrap(err, "read normals")
		}
		normals = make([]mgl64.Vec3, len(raw))
		for i, n := range raw {
			normals[i] = vec3(n)
		}
	}

	m, err := mesh.New(name, positions, polygons, normals)
	if err != nil {
		return nil, err
	}
	store := attr.NewMemoryStorage(m.CornerCount())

	for attrName, index := range prim.Attributes {
		prefix, n, ok := channelIndex(attrName)
		if !ok {
			continue
		}
		acr, err := l.accessor(index)
		if err != nil {
			return nil, err
		}
		rows, err := readRows(l.doc, acr)
		if err != nil {
			return nil, errors.Wrapf(err, "read %s", attrName)
		}
		if len(rows) != len(positions) {
			return nil, errors.Errorf("%s has %d values for %d vertices", attrName, len(rows), len(positions))
		}
		switch prefix {
		case colorPrefix:
			buf := make([]float64, m.CornerCount()*attr.VectorArity)
			for c := range m.CornerCount() {
				copy(buf[c*4:c*4+4], rows[m.CornerVertex(c)][:])
			}
			store.AddVector(attr.VertexColor(n), vpaint.Transparent)
			err = store.WriteVector(attr.VertexColor(n), buf)
		case texcoordPrefix:
			buf := make([]float64, m.CornerCount()*attr.CoordArity)
			for c := range m.CornerCount() {
				copy(buf[c*2:c*2+2], rows[m.CornerVertex(c)][:2])
			}
			store.AddCoord(attr.UVSet(n), 0, 0)
			err = store.WriteCoord(attr.UVSet(n), buf)
		}
		if err != nil {
			return nil, err
		}
	}
	return &Object{Mesh: m, Store: store}, nil
}

// channelIndex splits COLOR_n and TEXCOORD_n attribute names.
func channelIndex(name string) (prefix string, n int, ok bool) {
	for _, p := range []string{colorPrefix, texcoordPrefix} {
		if rest, found := strings.CutPrefix(name, p); found {
			n, err := strconv.Atoi(rest)
			if err != nil || n < 0 {
				return "", 0, false
			}
			return p, n, true
		}
	}
	return "", 0, false
}

// nodeMatrix returns the local transform of n. A non-zero matrix wins over
// TRS; zero scale and rotation read as identity.
func nodeMatrix(n *gltf.Node) mgl64.Mat4 {
	if n.Matrix != [16]float32{} && n.Matrix != identity32 {
		var m mgl64.Mat4
		for i, v := range n.Matrix {
			m[i] = float64(v)
		}
		return m
	}

	t := vec3(n.Translation)
	s := vec3(n.Scale)
	if n.Scale == [3]float32{} {
		s = mgl64.Vec3{1, 1, 1}
	}
	q := mgl64.Quat{
		W: float64(n.Rotation[3]),
		V: mgl64.Vec3{float64(n.Rotation[0]), float64(n.Rotation[1]), float64(n.Rotation[2])},
	}
	if q.Len() == 0 {
		q = mgl64.QuatIdent()
	}
	return mgl64.Translate3D(t[0], t[1], t[2]).
		Mul4(q.Normalize().Mat4()).
		Mul4(mgl64.Scale3D(s[0], s[1], s[2]))
}

var identity32 = [16]float32{1, 0, 0, 0, 0, 1, 0, 0, 0, 0, 1, 0, 0, 0, 0, 1}

func vec3(v [3]float32) mgl64.Vec3 {
	return mgl64.Vec3{float64(v[0]), float64(v[1]), float64(v[2])}
}

// readRows reads a VEC2, VEC3 or VEC4 accessor as four floats per element.
// Missing components read as 0 with alpha 1; normalized integers are divided
// into [0, 1].
func readRows(doc *gltf.Document, acr *gltf.Accessor) ([][4]float64, error) {
	data, err := modeler.ReadAccessor(doc, acr, nil)
	if err != nil {
		return nil, err
	}
	switch d := data.(type) {
	case [][2]float32:
		return rows2(d, 1), nil
	case [][3]float32:
		return rows3(d, 1), nil
	case [][4]float32:
		return rows4(d, 1), nil
	case [][2]uint8:
		return rows2(d, divisor(acr, 255)), nil
	case [][3]uint8:
		return rows3(d, divisor(acr, 255)), nil
	case [][4]uint8:
		return rows4(d, divisor(acr, 255)), nil
	case [][2]uint16:
		return rows2(d, divisor(acr, 65535)), nil
	case [][3]uint16:
		return rows3(d, divisor(acr, 65535)), nil
	case [][4]uint16:
		return rows4(d, divisor(acr, 65535)), nil
	}
	return nil, errors.Errorf("unsupported accessor data %T", data)
}

func divisor(acr *gltf.Accessor, limit float64) float64 {
	if acr.Normalized {
		return limit
	}
	return 1
}

type component interface {
	float32 | uint8 | uint16
}

func rows2[T component](in [][2]T, div float64) [][4]float64 {
	out := make([][4]float64, len(in))
	for i, r := range in {
		out[i] = widen(r[:], div)
	}
	return out
}

func rows3[T component](in [][3]T, div float64) [][4]float64 {
	out := make([][4]float64, len(in))
	for i, r := range in {
		out[i] = widen(r[:], div)
	}
	return out
}

func rows4[T component](in [][4]T, div float64) [][4]float64 {
	out := make([][4]float64, len(in))
	for i, r := range in {
		out[i] = widen(r[:], div)
	}
	return out
}

func widen[T component](comps []T, div float64) [4]float64 {
	out := [4]float64{0, 0, 0, 1}
	for k, v := range comps {
		out[k] = float64(v) / div
	}
	return out
}

// Export builds a document with one node per object. Corners are written
// unwelded with POSITION, NORMAL, every vector channel named VertexColorN as
// COLOR_N and every coordinate channel named UVSetN as TEXCOORD_N.
func Export(objects []*Object) (*gltf.Document, error) {
	doc := gltf.NewDocument()
	for _, obj := range objects {
		m := obj.Mesh
		corners := m.CornerCount()
		positions := make([][3]float32, corners)
		normals := make([][3]float32, corners)
		for c := range corners {
			v := m.CornerVertex(c)
			positions[c] = f32(m.Positions[v])
			normals[c] = f32(m.Normals[v])
		}

		// Fan-triangulate each polygon over its own corners.
		indices := make([]uint32, 0, corners)
		for p := range m.PolygonCount() {
			start, end := m.PolygonCorners(p)
			for k := start + 1; k+1 < end; k++ {
				indices = append(indices, uint32(start), uint32(k), uint32(k+1))
			}
		}

		attributes := map[string]uint32{
			"POSITION": modeler.WritePosition(doc, positions),
			"NORMAL":   modeler.WriteNormal(doc, normals),
		}
		if err := exportChannels(doc, obj.Store, attributes); err != nil {
			return nil, errors.Wrapf(err, "gltfio: %s", m.Name)
		}

		doc.Meshes = append(doc.Meshes, &gltf.Mesh{
			Name: m.Name,
			Primitives: []*gltf.Primitive{{
				Indices:    gltf.Index(modeler.WriteIndices(doc, indices)),
				Attributes: attributes,
			}},
		})
		var matrix [16]float32
		for i, v := range m.World {
			matrix[i] = float32(v)
		}
		doc.Scenes[0].Nodes = append(doc.Scenes[0].Nodes, uint32(len(doc.Nodes)))
		doc.Nodes = append(doc.Nodes, &gltf.Node{
			Name:   m.Name,
			Mesh:   gltf.Index(uint32(len(doc.Meshes) - 1)),
			Matrix: matrix,
		})
	}
	return doc, nil
}

func exportChannels(doc *gltf.Document, store *attr.MemoryStorage, attributes map[string]uint32) error {
	for _, name := range store.VectorChannels() {
		n, ok := channelNumber(name, "VertexColor")
		if !ok {
			vpaint.Logger().Warn("gltfio: channel not exported", "channel", name)
			continue
		}
		buf, err := store.ReadVector(name)
		if err != nil {
			return err
		}
		data := make([][4]float32, len(buf)/attr.VectorArity)
		for i := range data {
			data[i] = [4]float32{float32(buf[4*i]), float32(buf[4*i+1]), float32(buf[4*i+2]), float32(buf[4*i+3])}
		}
		attributes[colorPrefix+strconv.Itoa(n)] = modeler.WriteColor(doc, data)
	}
	for _, name := range store.CoordChannels() {
		n, ok := channelNumber(name, "UVSet")
		if !ok {
			vpaint.Logger().Warn("gltfio: channel not exported", "channel", name)
			continue
		}
		buf, err := store.ReadCoord(name)
		if err != nil {
			return err
		}
		data := make([][2]float32, len(buf)/attr.CoordArity)
		for i := range data {
			data[i] = [2]float32{float32(buf[2*i]), float32(buf[2*i+1])}
		}
		attributes[texcoordPrefix+strconv.Itoa(n)] = modeler.WriteTextureCoord(doc, data)
	}
	return nil
}

func channelNumber(name, prefix string) (int, bool) {
	rest, ok := strings.CutPrefix(name, prefix)
	if !ok {
		return 0, false
	}
	n, err := strconv.Atoi(rest)
	return n, err == nil && n >= 0
}

func f32(v mgl64.Vec3) [3]float32 {
	return [3]float32{float32(v[0]), float32(v[1]), float32(v[2])}
}

// Save exports objects to path. A .glb extension writes the binary form.
func Save(path string, objects []*Object) error {
	doc, err := Export(objects)
	if err != nil {
		return err
	}
	if strings.EqualFold(filepath.Ext(path), ".glb") {
		err = gltf.SaveBinary(doc, path)
	} else {
		err = gltf.Save(doc, path)
	}
	return errors.Wrapf(err, "gltfio: save %s", path)
}

// Encode writes objects to w, as GLB when binary is set.
func Encode(w io.Writer, objects []*Object, binary bool) error {
	doc, err := Export(objects)
	if err != nil {
		return err
	}
	if !binary {
		for _, b := range doc.Buffers {
			if b.URI == "" {
				b.EmbeddedResource()
			}
		}
	}
	enc := gltf.NewEncoder(w)
	enc.AsBinary = binary
	return errors.Wrap(enc.Encode(doc), "gltfio: encode")
}
