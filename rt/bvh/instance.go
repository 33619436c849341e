package bvh

import (
	"github.com/go-gl/mathgl/mgl32"
)

// Instance is one frame's placement of a BLAS in the world.
type Instance struct {
	// World-space box enclosing the transformed BLAS bounds.
	Min      mgl32.Vec3
	Max      mgl32.Vec3
	Centroid mgl32.Vec3
	// Brings world-space rays into the BLAS's local frame.
	InverseModel mgl32.Mat4
	// BLAS root in the composed node space.
	RootNodeIndex uint32
}

// NewInstance inverts model with a general 4x4 inverse.
func NewInstance(rootNodeIndex uint32, local AABB, model mgl32.Mat4) Instance {
	return NewInstanceWithInverse(rootNodeIndex, local, model, model.Inv())
}

// NewInstanceWithInverse is NewInstance for callers that already hold the
// inverse of model, such as one composed from translation, rotation and scale.
func NewInstanceWithInverse(rootNodeIndex uint32, local AABB, model, inverse mgl32.Mat4) Instance {
	world := local.Transform(model)
	return Instance{
		Min:           world.Min,
		Max:           world.Max,
		Centroid:      world.Center(),
		InverseModel:  inverse,
		RootNodeIndex: rootNodeIndex,
	}
}

func (i Instance) Bounds() AABB {
	return AABB{Min: i.Min, Max: i.Max}
}
