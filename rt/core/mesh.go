package core

import (
	"github.com/go-gl/mathgl/mgl32"
	"github.com/google/uuid"
)

type MeshID string

func NewMeshID() MeshID {
	return MeshID(uuid.NewString())
}

// Mesh is a named, rigid triangle list. Triangles are never reordered once
// the mesh has been handed to a scene.
type Mesh struct {
	ID        MeshID
	Name      string
	Triangles []Triangle
}

func NewMesh(name string, triangles []Triangle) *Mesh {
	return &Mesh{
		ID:        NewMeshID(),
		Name:      name,
		Triangles: triangles,
	}
}

// Bounds returns the local-space extent of every triangle corner.
func (m *Mesh) Bounds() (mgl32.Vec3, mgl32.Vec3) {
	inf := float32(1e30)
	minB := mgl32.Vec3{inf, inf, inf}
	maxB := mgl32.Vec3{-inf, -inf, -inf}
	for i := range m.Triangles {
		for _, c := range m.Triangles[i].Corners {
			for a := 0; a < 3; a++ {
				minB[a] = min(minB[a], c[a])
				maxB[a] = max(maxB[a], c[a])
			}
		}
	}
	return minB, maxB
}
