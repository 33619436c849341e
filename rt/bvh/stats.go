package bvh

// Stats summarises the shape of a built hierarchy.
type Stats struct {
	Nodes       int
	Leaves      int
	MaxDepth    int
	MaxLeafSize int
	AvgLeafSize float64
	// SAHCost is the sum of surface area x primitive count over all leaves,
	// unnormalised by the root's area.
	SAHCost float32
}

// CollectStats walks the used nodes of a hierarchy rooted at node 0.
func CollectStats(nodes []Node) Stats {
	var st Stats
	if len(nodes) == 0 {
		return st
	}
	st.Nodes = len(nodes)

	type entry struct {
		idx   uint32
		depth int
	}
	primitives := 0
	stack := []entry{{0, 0}}
	for steps := 0; len(stack) > 0 && steps < len(nodes); steps++ {
		e := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if int(e.idx) >= len(nodes) {
			continue
		}

		st.MaxDepth = max(st.MaxDepth, e.depth)
		node := &nodes[e.idx]
		if node.IsLeaf() {
			st.Leaves++
			primitives += int(node.Count)
			st.MaxLeafSize = max(st.MaxLeafSize, int(node.Count))
			st.SAHCost += node.Bounds().SurfaceArea() * float32(node.Count)
			continue
		}
		stack = append(stack,
			entry{node.RightChild(), e.depth + 1},
			entry{node.LeftChild(), e.depth + 1},
		)
	}
	if st.Leaves > 0 {
		st.AvgLeafSize = float64(primitives) / float64(st.Leaves)
	}
	return st
}
