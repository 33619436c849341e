package gpu

import (
	"encoding/binary"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/gekko3d/raybvh/rt/bvh"
	"github.com/gekko3d/raybvh/rt/core"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func floatAt(data []byte, i int) float32 {
	return math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
}

func TestPackNodesLayout(t *testing.T) {
	nodes := []bvh.Node{
		{Min: mgl32.Vec3{-1, -2, -3}, FirstIndex: 5, Max: mgl32.Vec3{1, 2, 3}, Count: 0},
		{Min: mgl32.Vec3{0, 0, 0}, FirstIndex: 12, Max: mgl32.Vec3{4, 4, 4}, Count: 3},
	}
	data := PackNodes(nodes)
	require.Len(t, data, 2*NodeStride)

	want := []float32{-1, -2, -3, 5, 1, 2, 3, 0, 0, 0, 0, 12, 4, 4, 4, 3}
	for i, w := range want {
		assert.Equal(t, w, floatAt(data, i), "float %d", i)
	}
}

func TestPackTrianglesLayout(t *testing.T) {
	tri := core.NewTriangle(
		[3]mgl32.Vec3{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}},
		[3]mgl32.Vec3{},
		mgl32.Vec3{0.8, 0.6, 0.7},
	)
	tri.UVs = [3]mgl32.Vec2{{0, 0}, {1, 0}, {0, 1}}

	data := PackTriangles([]core.Triangle{tri, tri})
	require.Len(t, data, 2*TriangleStride)

	// Second corner: position, normal, uv.
	assert.Equal(t, float32(1), floatAt(data, 12))
	assert.Equal(t, float32(0), floatAt(data, 15), "vec3 padding")
	assert.Equal(t, float32(1), floatAt(data, 18), "normal z")
	assert.Equal(t, float32(1), floatAt(data, 20), "uv u")
	// Color follows the three corners.
	assert.Equal(t, float32(0.8), floatAt(data, 36))
	assert.Equal(t, float32(0.7), floatAt(data, 38))
	assert.Equal(t, float32(0.8), floatAt(data, 40+36), "records repeat at a fixed stride")
}

func TestPackInstancesLayout(t *testing.T) {
	model := mgl32.Translate3D(2, 3, 4)
	inst := bvh.NewInstance(9, bvh.AABB{Max: mgl32.Vec3{1, 1, 1}}, model)

	data := PackInstances([]bvh.Instance{inst})
	require.Len(t, data, InstanceStride)

	// Column-major: translation lives in elements 12..14.
	assert.InDelta(t, -2, floatAt(data, 12), 1e-6)
	assert.InDelta(t, -3, floatAt(data, 13), 1e-6)
	assert.InDelta(t, -4, floatAt(data, 14), 1e-6)
	for i := 16; i < 20; i++ {
		assert.Equal(t, float32(9), floatAt(data, i), "root replicated in lane %d", i-16)
	}
}

func TestPackIndices(t *testing.T) {
	data := PackIndices([]uint32{3, 0, 2, 1})
	require.Len(t, data, 16)
	assert.Equal(t, float32(3), floatAt(data, 0))
	assert.Equal(t, float32(1), floatAt(data, 3))
}

func TestFrameWriteDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	f := &Frame{
		Triangles: []byte{1, 2, 3},
		Nodes:     PackNodes([]bvh.Node{{Count: 1}}),
	}
	require.NoError(t, f.WriteDir(dir))
	assert.Equal(t, 3+NodeStride, f.Size())

	nodes, err := os.ReadFile(filepath.Join(dir, "nodes.bin"))
	require.NoError(t, err)
	assert.Len(t, nodes, NodeStride)

	empty, err := os.ReadFile(filepath.Join(dir, "instances.bin"))
	require.NoError(t, err)
	assert.Empty(t, empty)
}
