package core

import (
	"github.com/go-gl/mathgl/mgl32"
)

// Transform places a mesh: scale first, then rotation, then translation.
type Transform struct {
	Position mgl32.Vec3
	Rotation mgl32.Quat
	Scale    mgl32.Vec3
}

func NewTransform() *Transform {
	return &Transform{
		Rotation: mgl32.QuatIdent(),
		Scale:    mgl32.Vec3{1, 1, 1},
	}
}

// SetEulerDegrees sets the rotation from X, Y, Z angles in degrees, applied
// in X then Y then Z order.
func (t *Transform) SetEulerDegrees(eulers mgl32.Vec3) {
	t.Rotation = mgl32.AnglesToQuat(
		mgl32.DegToRad(eulers.X()),
		mgl32.DegToRad(eulers.Y()),
		mgl32.DegToRad(eulers.Z()),
		mgl32.XYZ,
	)
}

// ObjectToWorld returns T * R * S.
func (t *Transform) ObjectToWorld() mgl32.Mat4 {
	p, s := t.Position, t.Scale
	return mgl32.Translate3D(p[0], p[1], p[2]).
		Mul4(t.Rotation.Normalize().Mat4()).
		Mul4(mgl32.Scale3D(s[0], s[1], s[2]))
}

// WorldToObject returns the exact inverse of ObjectToWorld, built from the
// parts rather than by general matrix inversion: inv(S) * conj(R) * inv(T).
// Scale components must be non-zero.
func (t *Transform) WorldToObject() mgl32.Mat4 {
	p, s := t.Position, t.Scale
	return mgl32.Scale3D(1/s[0], 1/s[1], 1/s[2]).
		Mul4(t.Rotation.Normalize().Conjugate().Mat4()).
		Mul4(mgl32.Translate3D(-p[0], -p[1], -p[2]))
}
