package mesh

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const quadOBJ = `# unit quad at z=0, offset by (10, 20, 0)
v 10 20 0
v 12 20 0
v 12 22 0
v 10 22 0
vt 0 0
vt 1 0
vt 1 1
vt 0 1
vn 0 0 1
f 1/1/1 2/2/1 3/3/1 4/4/1
`

func TestReadOBJQuad(t *testing.T) {
	desc := DefaultDescriptor()
	desc.Color = mgl32.Vec3{0.8, 0.6, 0.7}

	tris, err := ReadOBJ(strings.NewReader(quadOBJ), desc)
	require.NoError(t, err)
	require.Len(t, tris, 2, "quad is fan-triangulated")

	// Recentred on the geometric centre.
	assert.Equal(t, mgl32.Vec3{-1, -1, 0}, tris[0].Corners[0])
	assert.Equal(t, mgl32.Vec3{1, -1, 0}, tris[0].Corners[1])
	assert.Equal(t, mgl32.Vec3{1, 1, 0}, tris[0].Corners[2])
	assert.Equal(t, mgl32.Vec3{-1, 1, 0}, tris[1].Corners[2])

	assert.Equal(t, mgl32.Vec2{1, 1}, tris[0].UVs[2])
	assert.Equal(t, mgl32.Vec3{0, 0, 1}, tris[1].Normals[0])
	assert.Equal(t, desc.Color, tris[1].Color)
	assert.True(t, tris[0].Centroid.ApproxEqual(mgl32.Vec3{1.0 / 3, -1.0 / 3, 0}))
}

func TestReadOBJDescriptor(t *testing.T) {
	desc := Descriptor{AlignBottom: true, Scale: 0.5, InvertYZ: true}

	src := "v 0 0 4\nv 2 0 4\nv 0 0 8\nf 1 2 3\n"
	tris, err := ReadOBJ(strings.NewReader(src), desc)
	require.NoError(t, err)
	require.Len(t, tris, 1)

	// z becomes y; bottom rests on y=0; everything halves.
	assert.Equal(t, mgl32.Vec3{-0.5, 0, 0}, tris[0].Corners[0])
	assert.Equal(t, mgl32.Vec3{0.5, 0, 0}, tris[0].Corners[1])
	assert.Equal(t, mgl32.Vec3{-0.5, 2, 0}, tris[0].Corners[2])
	assert.NotEqual(t, mgl32.Vec3{}, tris[0].Normals[0], "missing normals fall back to the face normal")
}

func TestReadOBJRelativeIndices(t *testing.T) {
	src := "v 0 0 0\nv 1 0 0\nv 0 1 0\nf -3//  -2 -1\n"
	tris, err := ReadOBJ(strings.NewReader(src), DefaultDescriptor())
	require.NoError(t, err)
	assert.Len(t, tris, 1)
}

func TestReadOBJErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{"no faces", "v 0 0 0\n", ErrNoTriangles.Error()},
		{"bad float", "v 0 x 0\n", "line 1"},
		{"short vertex", "v 0 0\n", "expected 3"},
		{"out of range", "v 0 0 0\nf 1 2 3\n", "bad vertex reference"},
		{"two corners", "v 0 0 0\nv 1 0 0\nf 1 2\n", "face has 2"},
		{"bad normal", "v 0 0 0\nv 1 0 0\nv 0 1 0\nf 1//4 2 3\n", "bad normal"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadOBJ(strings.NewReader(tt.src), DefaultDescriptor())
			assert.ErrorContains(t, err, tt.want)
		})
	}
}

func TestReadOBJIndependentLoads(t *testing.T) {
	a, err := ReadOBJ(strings.NewReader(quadOBJ), DefaultDescriptor())
	require.NoError(t, err)
	b, err := ReadOBJ(strings.NewReader(quadOBJ), DefaultDescriptor())
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func triangleDocument() *gltf.Document {
	doc := gltf.NewDocument()
	pos := modeler.WritePosition(doc, [][3]float32{{0, 0, 0}, {4, 0, 0}, {0, 2, 0}, {4, 2, 0}})
	idx := modeler.WriteIndices(doc, []uint16{0, 1, 2, 2, 1, 3})
	doc.Meshes = []*gltf.Mesh{{
		Name: "plane",
		Primitives: []*gltf.Primitive{{
			Indices:    gltf.Index(idx),
			Attributes: gltf.PrimitiveAttributes{gltf.POSITION: pos},
		}},
	}}
	return doc
}

func TestReadGLTFDocument(t *testing.T) {
	tris, err := readDocument(triangleDocument(), DefaultDescriptor())
	require.NoError(t, err)
	require.Len(t, tris, 2)

	assert.Equal(t, mgl32.Vec3{-2, -1, 0}, tris[0].Corners[0])
	assert.Equal(t, mgl32.Vec3{2, 1, 0}, tris[1].Corners[2])
	assert.Equal(t, mgl32.Vec3{1, 1, 1}, tris[0].Color)
}

func TestReadGLTFEmpty(t *testing.T) {
	_, err := readDocument(gltf.NewDocument(), DefaultDescriptor())
	assert.ErrorIs(t, err, ErrNoTriangles)
}

func TestLoadDispatch(t *testing.T) {
	dir := t.TempDir()

	objPath := filepath.Join(dir, "quad.obj")
	require.NoError(t, os.WriteFile(objPath, []byte(quadOBJ), 0o644))
	m, err := Load(objPath, DefaultDescriptor())
	require.NoError(t, err)
	assert.Equal(t, "quad", m.Name)
	assert.Len(t, m.Triangles, 2)
	assert.NotEmpty(t, m.ID)

	glbPath := filepath.Join(dir, "plane.glb")
	require.NoError(t, gltf.SaveBinary(triangleDocument(), glbPath))
	m, err = Load(glbPath, DefaultDescriptor())
	require.NoError(t, err)
	assert.Equal(t, "plane", m.Name)
	assert.Len(t, m.Triangles, 2)

	_, err = Load(filepath.Join(dir, "scene.fbx"), DefaultDescriptor())
	assert.ErrorIs(t, err, ErrUnsupportedFormat)

	_, err = Load(filepath.Join(dir, "missing.obj"), DefaultDescriptor())
	assert.Error(t, err)
}
