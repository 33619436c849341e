package bvh

import (
	"fmt"
)

// Validate walks a flattened hierarchy rooted at node 0 and checks that
//   - the node count respects the 2N-1 capacity,
//   - indices is a permutation of 0..N-1,
//   - every leaf covers at least one index and every interior node has two
//     in-range children allocated after it,
//   - sibling ranges are contiguous and the root covers the whole index array,
//   - every node's bounds contain its children or its primitives,
//   - every node is reachable exactly once.
//
// primBounds returns the bounds of a single primitive by its original index.
func Validate(nodes []Node, indices []uint32, primBounds func(prim uint32) AABB) error {
	n := len(indices)
	if n == 0 {
		if len(nodes) != 0 {
			return fmt.Errorf("bvh: %d nodes for an empty index array", len(nodes))
		}
		return nil
	}
	if len(nodes) == 0 {
		return fmt.Errorf("bvh: no nodes for %d primitives", n)
	}
	if len(nodes) > 2*n-1 {
		return fmt.Errorf("bvh: %d nodes exceed capacity %d", len(nodes), 2*n-1)
	}

	seen := make([]bool, n)
	for pos, prim := range indices {
		if int(prim) >= n {
			return fmt.Errorf("bvh: index[%d]=%d out of range", pos, prim)
		}
		if seen[prim] {
			return fmt.Errorf("bvh: primitive %d appears twice in the index array", prim)
		}
		seen[prim] = true
	}

	v := validator{
		nodes:      nodes,
		indices:    indices,
		primBounds: primBounds,
		visited:    make([]bool, len(nodes)),
	}
	first, count, err := v.walk(0)
	if err != nil {
		return err
	}
	if first != 0 || int(count) != n {
		return fmt.Errorf("bvh: root covers [%d,%d), want [0,%d)", first, first+count, n)
	}
	for i, ok := range v.visited {
		if !ok {
			return fmt.Errorf("bvh: node %d is unreachable", i)
		}
	}
	return nil
}

type validator struct {
	nodes      []Node
	indices    []uint32
	primBounds func(prim uint32) AABB
	visited    []bool
}

// walk returns the index-array range covered by the subtree at idx.
func (v *validator) walk(idx uint32) (first, count uint32, err error) {
	if int(idx) >= len(v.nodes) {
		return 0, 0, fmt.Errorf("bvh: node %d out of range", idx)
	}
	if v.visited[idx] {
		return 0, 0, fmt.Errorf("bvh: node %d reached twice", idx)
	}
	v.visited[idx] = true

	node := &v.nodes[idx]
	bounds := node.Bounds()

	if node.IsLeaf() {
		first, end := node.PrimitiveRange()
		if int(end) > len(v.indices) {
			return 0, 0, fmt.Errorf("bvh: leaf %d range [%d,%d) exceeds index array", idx, first, end)
		}
		for i := first; i < end; i++ {
			if !bounds.Contains(v.primBounds(v.indices[i])) {
				return 0, 0, fmt.Errorf("bvh: leaf %d does not contain primitive %d", idx, v.indices[i])
			}
		}
		return first, node.Count, nil
	}

	left, right := node.LeftChild(), node.RightChild()
	if left <= idx {
		return 0, 0, fmt.Errorf("bvh: interior node %d points back to %d", idx, left)
	}
	if int(right) >= len(v.nodes) {
		return 0, 0, fmt.Errorf("bvh: interior node %d has children past the used nodes", idx)
	}

	lf, lc, err := v.walk(left)
	if err != nil {
		return 0, 0, err
	}
	rf, rc, err := v.walk(right)
	if err != nil {
		return 0, 0, err
	}
	if lf+lc != rf {
		return 0, 0, fmt.Errorf("bvh: children of node %d cover [%d,%d) and [%d,%d)", idx, lf, lf+lc, rf, rf+rc)
	}
	for _, child := range []uint32{left, right} {
		if !bounds.Contains(v.nodes[child].Bounds()) {
			return 0, 0, fmt.Errorf("bvh: node %d does not contain child %d", idx, child)
		}
	}
	return lf, lc + rc, nil
}
