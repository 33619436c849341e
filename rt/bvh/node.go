package bvh

import (
	"github.com/go-gl/mathgl/mgl32"
)

// Node is one slot of a flattened hierarchy. The field layout mirrors the
// consumer's 8-float record: Min, FirstIndex, Max, Count.
//
// Count == 0 marks an interior node whose children live at FirstIndex and
// FirstIndex+1. Count > 0 marks a leaf covering
// index[FirstIndex : FirstIndex+Count]. Callers must go through IsLeaf and
// the accessors below rather than reading FirstIndex directly.
type Node struct {
	Min        mgl32.Vec3
	FirstIndex uint32
	Max        mgl32.Vec3
	Count      uint32
}

func (n Node) IsLeaf() bool {
	return n.Count > 0
}

func (n Node) LeftChild() uint32 {
	return n.FirstIndex
}

func (n Node) RightChild() uint32 {
	return n.FirstIndex + 1
}

// PrimitiveRange returns the half-open index-array range of a leaf.
func (n Node) PrimitiveRange() (first, end uint32) {
	return n.FirstIndex, n.FirstIndex + n.Count
}

func (n Node) Bounds() AABB {
	return AABB{Min: n.Min, Max: n.Max}
}

func (n *Node) setBounds(b AABB) {
	n.Min = b.Min
	n.Max = b.Max
}

func (n *Node) makeLeaf(first, count uint32) {
	n.FirstIndex = first
	n.Count = count
}

func (n *Node) makeInterior(left uint32) {
	n.FirstIndex = left
	n.Count = 0
}
