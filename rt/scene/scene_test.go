package scene

import (
	"fmt"
	"path/filepath"
	"testing"

	"github.com/gekko3d/raybvh"
	"github.com/gekko3d/raybvh/rt/bvh"
	"github.com/gekko3d/raybvh/rt/core"
	"github.com/gekko3d/raybvh/rt/gpu"
	"github.com/gekko3d/raybvh/rt/mesh"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// gridMesh lays n small triangles out on a line along x.
func gridMesh(name string, n int) *core.Mesh {
	tris := make([]core.Triangle, n)
	for i := range tris {
		x := float32(i)
		tris[i] = core.NewTriangle(
			[3]mgl32.Vec3{{x, 0, 0}, {x + 0.5, 0, 0}, {x, 0.5, 0.25}},
			[3]mgl32.Vec3{},
			mgl32.Vec3{1, 0, 0},
		)
	}
	return core.NewMesh(name, tris)
}

func TestSceneLifecycleErrors(t *testing.T) {
	s := New(Options{})

	assert.ErrorIs(t, s.AddMesh(core.NewMesh("empty", nil)), ErrEmptyMesh)

	_, err := s.AddModel(core.NewMeshID(), mgl32.Vec3{}, mgl32.Vec3{})
	assert.ErrorIs(t, err, ErrUnknownMesh)

	assert.ErrorIs(t, s.Update(), ErrNotSealed)
	_, err = s.Frame()
	assert.ErrorIs(t, err, ErrNotSealed)
	assert.ErrorIs(t, s.Validate(), ErrNotSealed)

	m := gridMesh("line", 4)
	require.NoError(t, s.AddMesh(m))
	assert.Error(t, s.AddMesh(m), "same mesh twice")
	assert.ErrorIs(t, s.Seal(), ErrNoInstances)

	_, err = s.AddModel(m.ID, mgl32.Vec3{}, mgl32.Vec3{})
	require.NoError(t, err)
	require.NoError(t, s.Seal())
	assert.True(t, s.Sealed())

	assert.ErrorIs(t, s.Seal(), ErrSealed)
	assert.ErrorIs(t, s.AddMesh(gridMesh("late", 2)), ErrSealed)
	_, err = s.AddModel(m.ID, mgl32.Vec3{}, mgl32.Vec3{})
	assert.ErrorIs(t, err, ErrSealed)
}

func TestSealLaysOutComposedSpace(t *testing.T) {
	s := New(Options{})
	a := gridMesh("a", 6)
	b := gridMesh("b", 3)
	require.NoError(t, s.AddMesh(a))
	require.NoError(t, s.AddMesh(b))

	for i := 0; i < 3; i++ {
		_, err := s.AddModel(a.ID, mgl32.Vec3{float32(i) * 20, 0, 0}, mgl32.Vec3{})
		require.NoError(t, err)
	}
	_, err := s.AddModel(b.ID, mgl32.Vec3{0, 20, 0}, mgl32.Vec3{0, 45, 0})
	require.NoError(t, err)
	require.NoError(t, s.Seal())

	c := s.Composer()
	require.Equal(t, uint32(7), c.TLASCapacity())

	meshes := s.Meshes()
	require.Len(t, meshes, 2)
	slotA, slotB := meshes[0].Slot, meshes[1].Slot
	assert.Equal(t, uint32(7), slotA.NodeBase)
	assert.Equal(t, slotA.NodeBase+slotA.NodeCount, slotB.NodeBase)
	assert.Equal(t, uint32(6), slotB.IndexBase)
	assert.Equal(t, uint32(6), slotB.TriangleOffset)
	assert.Len(t, s.Triangles(), 9)

	// Mesh b's shared indices address its triangles in the shared buffer.
	for _, idx := range c.TriangleIndices()[slotB.IndexBase:] {
		assert.GreaterOrEqual(t, idx, uint32(6))
		assert.Less(t, idx, uint32(9))
	}

	for i, inst := range s.TLAS().Instances() {
		want := slotA.NodeBase
		if i == 3 {
			want = slotB.NodeBase
		}
		assert.Equal(t, want, inst.RootNodeIndex, "instance %d", i)
	}
	assert.NoError(t, s.Validate())
}

func TestFrameBufferSizes(t *testing.T) {
	s := New(Options{})
	m := gridMesh("line", 10)
	require.NoError(t, s.AddMesh(m))
	for i := 0; i < 4; i++ {
		_, err := s.AddModel(m.ID, mgl32.Vec3{0, 0, float32(i) * 5}, mgl32.Vec3{})
		require.NoError(t, err)
	}
	require.NoError(t, s.Seal())

	f, err := s.Frame()
	require.NoError(t, err)
	assert.Len(t, f.Triangles, 10*gpu.TriangleStride)
	assert.Len(t, f.TriangleIndices, 10*gpu.IndexStride)
	assert.Len(t, f.Nodes, len(s.Composer().Nodes())*gpu.NodeStride)
	assert.Len(t, f.Instances, 4*gpu.InstanceStride)
	assert.Len(t, f.InstanceIndices, 4*gpu.IndexStride)
	assert.Equal(t, len(f.Triangles)+len(f.TriangleIndices)+len(f.Nodes)+len(f.Instances)+len(f.InstanceIndices), f.Size())
}

func TestUpdateRebuildsEveryFrame(t *testing.T) {
	s := New(Options{FPS: 30})
	m := gridMesh("line", 8)
	require.NoError(t, s.AddMesh(m))

	spinner, err := s.AddModel(m.ID, mgl32.Vec3{}, mgl32.Vec3{})
	require.NoError(t, err)
	spinner.SetSpin(90)
	_, err = s.AddModel(m.ID, mgl32.Vec3{50, 0, 0}, mgl32.Vec3{})
	require.NoError(t, err)
	require.NoError(t, s.Seal())

	blasNodes := append([]bvh.Node(nil), s.Composer().Nodes()[s.Composer().TLASCapacity():]...)
	first := s.TLAS().Instance(0).Bounds()

	for frame := 0; frame < 45; frame++ {
		require.NoError(t, s.Update())
		require.NoError(t, s.Validate(), "frame %d", frame)
	}
	assert.Equal(t, uint64(45), s.FrameCount())
	for i, inst := range s.TLAS().Instances() {
		want := s.Models()[i].ObjectToWorld().Inv()
		assert.True(t, inst.InverseModel.ApproxEqualThreshold(want, 1e-4), "instance %d", i)
	}
	assert.InDelta(t, 135, spinner.Eulers.Y(), 0.01)

	// The spinning instance moved; the static one and the BLAS region did not.
	assert.NotEqual(t, first, s.TLAS().Instance(0).Bounds())
	assert.Equal(t, blasNodes, s.Composer().Nodes()[s.Composer().TLASCapacity():])
	assert.Equal(t, 3, s.TLAS().NodesUsed())
}

func TestFromConfig(t *testing.T) {
	cfg, err := raybvh.ParseSceneConfig([]byte(`
build:
  split_candidates: 4
meshes:
  - name: line
    path: line.obj
    color: [0.5, 0.5, 0.5]
  - name: abs
    path: /meshes/abs.obj
instances:
  - mesh: line
    position: [0, 0, -5]
    spin: 90
  - mesh: line
    position: [10, 0, -5]
    scale: [2, 2, 2]
  - mesh: abs
`))
	require.NoError(t, err)

	var paths []string
	var descs []mesh.Descriptor
	loader := func(path string, desc mesh.Descriptor) (*core.Mesh, error) {
		paths = append(paths, path)
		descs = append(descs, desc)
		return gridMesh("loaded", 5), nil
	}

	s, err := FromConfig(cfg, Options{Loader: loader, BaseDir: "/scenes"})
	require.NoError(t, err)
	assert.True(t, s.Sealed())

	assert.Equal(t, []string{filepath.Join("/scenes", "line.obj"), "/meshes/abs.obj"}, paths)
	assert.Equal(t, mgl32.Vec3{0.5, 0.5, 0.5}, descs[0].Color)
	assert.Equal(t, float32(1), descs[1].Scale)

	require.Len(t, s.Models(), 3)
	spinner := s.Models()[0]
	assert.Equal(t, 90.0, spinner.TargetSpin)
	assert.Zero(t, spinner.Spin, "configured spin is eased in, not applied at seal")
	assert.Equal(t, mgl32.Vec3{2, 2, 2}, s.Models()[1].Transform.Scale)
	assert.Equal(t, "line", s.Meshes()[0].Mesh.Name)
	assert.NoError(t, s.Validate())

	for i := 0; i < 30; i++ {
		require.NoError(t, s.Update())
	}
	assert.Greater(t, spinner.Spin, 0.0)
	assert.Less(t, spinner.Spin, 90.0)
}

func TestFromConfigLoaderError(t *testing.T) {
	cfg := &raybvh.SceneConfig{
		Build:     raybvh.DefaultConfig(),
		Meshes:    []raybvh.MeshConfig{{Name: "broken", Path: "broken.obj"}},
		Instances: []raybvh.InstanceConfig{{Mesh: "broken"}},
	}
	loader := func(string, mesh.Descriptor) (*core.Mesh, error) {
		return nil, fmt.Errorf("boom: %w", mesh.ErrNoTriangles)
	}

	_, err := FromConfig(cfg, Options{Loader: loader})
	assert.ErrorIs(t, err, mesh.ErrNoTriangles)
	assert.ErrorContains(t, err, `"broken"`)
}
