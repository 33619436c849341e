package core

import (
	"github.com/go-gl/mathgl/mgl32"
)

// Triangle is the immutable geometric primitive consumed by the BLAS builder.
// UVs are zero when the source mesh carries no texture coordinates.
type Triangle struct {
	Corners  [3]mgl32.Vec3
	Normals  [3]mgl32.Vec3
	UVs      [3]mgl32.Vec2
	Color    mgl32.Vec3
	Centroid mgl32.Vec3
}

// NewTriangle builds a triangle and precomputes its centroid. A zero normal
// slot is replaced by the face normal.
func NewTriangle(corners, normals [3]mgl32.Vec3, color mgl32.Vec3) Triangle {
	tri := Triangle{
		Corners: corners,
		Normals: normals,
		Color:   color,
	}
	face := tri.FaceNormal()
	for i := range tri.Normals {
		if tri.Normals[i].LenSqr() == 0 {
			tri.Normals[i] = face
		}
	}
	tri.CalculateCentroid()
	return tri
}

func (t *Triangle) CalculateCentroid() {
	t.Centroid = t.Corners[0].Add(t.Corners[1]).Add(t.Corners[2]).Mul(1.0 / 3.0)
}

// FaceNormal returns the normalized counter-clockwise face normal, or the zero
// vector for a degenerate triangle.
func (t *Triangle) FaceNormal() mgl32.Vec3 {
	n := t.Corners[1].Sub(t.Corners[0]).Cross(t.Corners[2].Sub(t.Corners[0]))
	if n.LenSqr() == 0 {
		return mgl32.Vec3{}
	}
	return n.Normalize()
}
