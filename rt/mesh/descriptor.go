package mesh

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/gekko3d/raybvh/rt/core"
	"github.com/go-gl/mathgl/mgl32"
)

var (
	ErrNoTriangles       = errors.New("mesh: no triangles")
	ErrUnsupportedFormat = errors.New("mesh: unsupported format")
)

// Descriptor controls how a loaded mesh is placed in its local frame.
type Descriptor struct {
	// Flat color assigned to every triangle.
	Color mgl32.Vec3
	// Swap the Y and Z axes of positions and normals while reading.
	InvertYZ bool
	// Rest the mesh on y=0 instead of centring it vertically.
	AlignBottom bool
	// Uniform scale applied after recentring. Zero means 1.
	Scale float32
}

func DefaultDescriptor() Descriptor {
	return Descriptor{
		Color: mgl32.Vec3{1, 1, 1},
		Scale: 1,
	}
}

func (d Descriptor) scale() float32 {
	if d.Scale == 0 {
		return 1
	}
	return d.Scale
}

func (d Descriptor) axes(v mgl32.Vec3) mgl32.Vec3 {
	if d.InvertYZ {
		return mgl32.Vec3{v[0], v[2], v[1]}
	}
	return v
}

// place recentres the triangles on their geometric centre (or bottom-aligns
// them on y), scales them, and recomputes centroids.
func (d Descriptor) place(tris []core.Triangle) {
	m := core.Mesh{Triangles: tris}
	minB, maxB := m.Bounds()
	offset := minB.Add(maxB).Mul(0.5)
	if d.AlignBottom {
		offset[1] = minB[1]
	}
	s := d.scale()
	for i := range tris {
		for c := range tris[i].Corners {
			tris[i].Corners[c] = tris[i].Corners[c].Sub(offset).Mul(s)
		}
		tris[i].Color = d.Color
		tris[i].CalculateCentroid()
	}
}

// Load reads a mesh file, choosing the reader by extension.
func Load(path string, desc Descriptor) (*core.Mesh, error) {
	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	var (
		tris []core.Triangle
		err  error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".obj":
		tris, err = ReadOBJFile(path, desc)
	case ".gltf", ".glb":
		tris, err = ReadGLTF(path, desc)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
	}
	if err != nil {
		return nil, err
	}
	return core.NewMesh(name, tris), nil
}
