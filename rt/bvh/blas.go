package bvh

import (
	"github.com/gekko3d/raybvh/rt/core"
	"github.com/go-gl/mathgl/mgl32"
)

type triangleSource []core.Triangle

func (s triangleSource) Len() int {
	return len(s)
}

func (s triangleSource) Centroid(i uint32) mgl32.Vec3 {
	return s[i].Centroid
}

func (s triangleSource) GrowBounds(i uint32, box *AABB) {
	for _, c := range s[i].Corners {
		box.Grow(c)
	}
}

// BLAS is the bottom-level hierarchy over one mesh's triangles, in mesh-local
// space. It is built once; the triangle slice is referenced, never reordered.
type BLAS struct {
	hierarchy
	triangles []core.Triangle
}

func NewBLAS(triangles []core.Triangle, opts Options) *BLAS {
	b := &BLAS{
		hierarchy: newHierarchy("blas", opts),
		triangles: triangles,
	}
	b.build(triangleSource(triangles))
	return b
}

func (b *BLAS) Triangles() []core.Triangle {
	return b.triangles
}
