package bvh

import (
	"errors"
	"fmt"
)

var ErrTLASOverflow = errors.New("bvh: tlas does not fit its reserved region")

// MeshSlot records where one BLAS landed in the composed address space.
type MeshSlot struct {
	// First node of the BLAS; also the root every instance of the mesh uses.
	NodeBase  uint32
	NodeCount uint32
	// Sub-range of the shared triangle-index array owned by the mesh.
	IndexBase  uint32
	IndexCount uint32
	// Offset of the mesh's first triangle in the shared triangle buffer.
	TriangleOffset uint32
}

// Composer merges a per-frame TLAS and the load-time BLASes into one node
// space. The TLAS region [0, TLASCapacity) is rewritten by Compose every
// frame; BLAS regions are appended once by AddBLAS and never touched again.
type Composer struct {
	tlasCapacity    uint32
	nodes           []Node
	triangleIndices []uint32
	slots           []MeshSlot
}

// NewComposer reserves 2n-1 TLAS slots for n instances.
func NewComposer(instanceCount int) *Composer {
	capacity := max(2*instanceCount-1, 0)
	return &Composer{
		tlasCapacity: uint32(capacity),
		nodes:        make([]Node, capacity),
	}
}

// AddBLAS appends b's used nodes after everything added so far and rewrites
// them into the shared space: interior child pointers move by the node base,
// leaf ranges move by the mesh's base in the shared triangle-index array.
// The shared index entries are offset by triangleOffset so they address the
// shared triangle buffer directly.
func (c *Composer) AddBLAS(b *BLAS, triangleOffset uint32) MeshSlot {
	slot := MeshSlot{
		NodeBase:       uint32(len(c.nodes)),
		NodeCount:      uint32(b.NodesUsed()),
		IndexBase:      uint32(len(c.triangleIndices)),
		IndexCount:     uint32(b.Len()),
		TriangleOffset: triangleOffset,
	}

	for _, node := range b.Nodes() {
		if node.IsLeaf() {
			node.FirstIndex += slot.IndexBase
		} else {
			node.FirstIndex += slot.NodeBase
		}
		c.nodes = append(c.nodes, node)
	}
	for _, idx := range b.Indices() {
		c.triangleIndices = append(c.triangleIndices, triangleOffset+idx)
	}

	c.slots = append(c.slots, slot)
	return slot
}

// Compose copies the current TLAS into the reserved region, zeroing the
// slots it does not use.
func (c *Composer) Compose(t *TLAS) error {
	if t.NodesUsed() > int(c.tlasCapacity) {
		return fmt.Errorf("%w: %d nodes, %d slots", ErrTLASOverflow, t.NodesUsed(), c.tlasCapacity)
	}
	region := c.nodes[:c.tlasCapacity]
	clear(region)
	copy(region, t.Nodes())
	return nil
}

func (c *Composer) TLASCapacity() uint32 {
	return c.tlasCapacity
}

func (c *Composer) Nodes() []Node {
	return c.nodes
}

func (c *Composer) Node(i uint32) Node {
	return c.nodes[i]
}

func (c *Composer) TriangleIndices() []uint32 {
	return c.triangleIndices
}

func (c *Composer) Slots() []MeshSlot {
	return c.slots
}

// ValidateComposed follows every path a flat traversal can take: TLAS nodes,
// TLAS leaves through instanceIndices to instances, instance roots into BLAS
// regions, and BLAS leaves into the shared triangle-index array. It checks
// that no pointer leaves the region it belongs to.
func (c *Composer) ValidateComposed(instanceIndices []uint32, instances []Instance) error {
	if c.tlasCapacity == 0 {
		return nil
	}
	stack := []uint32{0}
	for len(stack) > 0 {
		idx := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if idx >= c.tlasCapacity {
			return fmt.Errorf("bvh: tlas node %d escapes the tlas region", idx)
		}
		node := &c.nodes[idx]
		if !node.IsLeaf() {
			if node.LeftChild() <= idx || node.RightChild() >= c.tlasCapacity {
				return fmt.Errorf("bvh: tlas node %d has children %d/%d", idx, node.LeftChild(), node.RightChild())
			}
			stack = append(stack, node.LeftChild(), node.RightChild())
			continue
		}
		first, end := node.PrimitiveRange()
		if int(end) > len(instanceIndices) {
			return fmt.Errorf("bvh: tlas leaf %d range [%d,%d) exceeds instance indices", idx, first, end)
		}
		for i := first; i < end; i++ {
			inst := instanceIndices[i]
			if int(inst) >= len(instances) {
				return fmt.Errorf("bvh: tlas leaf %d references instance %d", idx, inst)
			}
			if err := c.validateBLAS(instances[inst].RootNodeIndex); err != nil {
				return fmt.Errorf("instance %d: %w", inst, err)
			}
		}
	}
	return nil
}

func (c *Composer) validateBLAS(root uint32) error {
	var slot *MeshSlot
	for i := range c.slots {
		if c.slots[i].NodeBase == root {
			slot = &c.slots[i]
			break
		}
	}
	if slot == nil {
		return fmt.Errorf("bvh: root %d is not the base of any blas", root)
	}

	nodeEnd := slot.NodeBase + slot.NodeCount
	indexEnd := slot.IndexBase + slot.IndexCount
	stack := []uint32{root}
	for len(stack) > 0 {
		idx := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		node := &c.nodes[idx]
		if node.IsLeaf() {
			first, end := node.PrimitiveRange()
			if first < slot.IndexBase || end > indexEnd {
				return fmt.Errorf("bvh: blas leaf %d range [%d,%d) outside [%d,%d)", idx, first, end, slot.IndexBase, indexEnd)
			}
			continue
		}
		if node.LeftChild() <= idx || node.RightChild() >= nodeEnd {
			return fmt.Errorf("bvh: blas node %d has children %d/%d outside [%d,%d)", idx, node.LeftChild(), node.RightChild(), slot.NodeBase, nodeEnd)
		}
		stack = append(stack, node.LeftChild(), node.RightChild())
	}
	return nil
}
