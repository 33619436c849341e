package bvh

import (
	"math"
	"time"

	"github.com/gekko3d/raybvh"
	"github.com/go-gl/mathgl/mgl32"
)

// DefaultSplitCandidates is used when Options.SplitCandidates is unset.
const DefaultSplitCandidates = raybvh.DefaultSplitCandidates

type Options struct {
	// SplitCandidates is the number of evenly spaced planes tested per axis by
	// the SAH search. Values below 1 are clamped to 1.
	SplitCandidates int
	Logger          raybvh.Logger
}

func (o Options) splitCandidates() int {
	if o.SplitCandidates == 0 {
		return DefaultSplitCandidates
	}
	return max(o.SplitCandidates, 1)
}

// primitiveSource is what the shared builder partitions: triangles for a BLAS,
// instances for a TLAS.
type primitiveSource interface {
	Len() int
	Centroid(i uint32) mgl32.Vec3
	GrowBounds(i uint32, box *AABB)
}

// hierarchy is the SAH builder shared by BLAS and TLAS. It owns the node and
// index arrays; both are read-only snapshots between builds.
type hierarchy struct {
	name       string
	source     primitiveSource
	nodes      []Node
	indices    []uint32
	nodesUsed  uint32
	candidates int
	logger     raybvh.Logger
}

func newHierarchy(name string, opts Options) hierarchy {
	return hierarchy{
		name:       name,
		candidates: opts.splitCandidates(),
		logger:     raybvh.OrNop(opts.Logger),
	}
}

// reserve makes room for a tree over n primitives: 2n-1 node slots and an
// n-entry index array. Existing storage is reused when large enough.
func (h *hierarchy) reserve(n int) {
	slots := max(2*n-1, 0)
	if cap(h.nodes) < slots {
		h.nodes = make([]Node, slots)
	} else {
		h.nodes = h.nodes[:max(slots, len(h.nodes))]
		clear(h.nodes)
	}
	if cap(h.indices) < n {
		h.indices = make([]uint32, n)
	} else {
		h.indices = h.indices[:n]
	}
}

func (h *hierarchy) build(source primitiveSource) {
	start := time.Now()
	n := source.Len()
	h.source = source
	h.reserve(n)
	h.nodesUsed = 0

	if n == 0 {
		return
	}

	for i := range h.indices {
		h.indices[i] = uint32(i)
	}

	root := &h.nodes[0]
	root.makeLeaf(0, uint32(n))
	h.nodesUsed = 1

	h.updateBounds(0)
	h.subdivide(0)

	if h.logger.DebugEnabled() {
		st := h.Stats()
		h.logger.Debugf(
			"%s build: %d primitives, %d/%d nodes, %d leaves, depth %d, %s",
			h.name, n, h.nodesUsed, len(h.nodes), st.Leaves, st.MaxDepth, time.Since(start),
		)
	}
}

func (h *hierarchy) updateBounds(nodeIdx uint32) {
	node := &h.nodes[nodeIdx]
	box := NewAABB()
	first, end := node.PrimitiveRange()
	for i := first; i < end; i++ {
		h.source.GrowBounds(h.indices[i], &box)
	}
	node.setBounds(box)
}

// findBestSplit evaluates SplitCandidates planes per axis, spaced evenly
// strictly inside the node bounds. Candidates that leave a side empty score
// MaxFloat32. Returns axis -1 when nothing usable was found.
func (h *hierarchy) findBestSplit(node *Node) (axis int, position float32, cost float32) {
	axis = -1
	cost = math.MaxFloat32

	first, end := node.PrimitiveRange()
	for a := 0; a < 3; a++ {
		lo, hi := node.Min[a], node.Max[a]
		if !(hi > lo) {
			continue
		}
		step := (hi - lo) / float32(h.candidates+1)
		for k := 1; k <= h.candidates; k++ {
			candidate := lo + step*float32(k)

			left, right := NewAABB(), NewAABB()
			var leftCount, rightCount int
			for i := first; i < end; i++ {
				prim := h.indices[i]
				if h.source.Centroid(prim)[a] < candidate {
					leftCount++
					h.source.GrowBounds(prim, &left)
				} else {
					rightCount++
					h.source.GrowBounds(prim, &right)
				}
			}
			if leftCount == 0 || rightCount == 0 {
				continue
			}

			c := left.SurfaceArea()*float32(leftCount) + right.SurfaceArea()*float32(rightCount)
			if c < cost {
				axis, position, cost = a, candidate, c
			}
		}
	}
	return axis, position, cost
}

func (h *hierarchy) subdivide(nodeIdx uint32) {
	node := &h.nodes[nodeIdx]
	if node.Count < 2 {
		return
	}

	axis, position, splitCost := h.findBestSplit(node)
	if axis < 0 {
		return
	}
	if node.Bounds().SurfaceArea()*float32(node.Count) <= splitCost {
		return
	}

	first := int(node.FirstIndex)
	i := first
	j := first + int(node.Count) - 1
	for i <= j {
		if h.source.Centroid(h.indices[i])[axis] < position {
			i++
		} else {
			h.indices[i], h.indices[j] = h.indices[j], h.indices[i]
			j--
		}
	}

	leftCount := uint32(i - first)
	if leftCount == 0 || leftCount == node.Count {
		return
	}

	leftIdx := h.nodesUsed
	rightIdx := h.nodesUsed + 1
	h.nodesUsed += 2

	h.nodes[leftIdx].makeLeaf(uint32(first), leftCount)
	h.nodes[rightIdx].makeLeaf(uint32(i), node.Count-leftCount)
	node.makeInterior(leftIdx)

	h.updateBounds(leftIdx)
	h.updateBounds(rightIdx)
	h.subdivide(leftIdx)
	h.subdivide(rightIdx)
}

// Node returns node i of the used prefix.
func (h *hierarchy) Node(i uint32) Node {
	return h.nodes[i]
}

// Nodes returns the used prefix of the node array.
func (h *hierarchy) Nodes() []Node {
	return h.nodes[:h.nodesUsed]
}

func (h *hierarchy) NodesUsed() int {
	return int(h.nodesUsed)
}

// Index returns entry i of the permuted index array.
func (h *hierarchy) Index(i uint32) uint32 {
	return h.indices[i]
}

func (h *hierarchy) Indices() []uint32 {
	return h.indices
}

// Len returns the number of primitives the last build covered.
func (h *hierarchy) Len() int {
	return len(h.indices)
}

// Bounds returns the root bounds, or an empty box before any primitive.
func (h *hierarchy) Bounds() AABB {
	if h.nodesUsed == 0 {
		return NewAABB()
	}
	return h.nodes[0].Bounds()
}

func (h *hierarchy) Stats() Stats {
	return CollectStats(h.Nodes())
}

// Validate checks the structural invariants of the last build.
func (h *hierarchy) Validate() error {
	return Validate(h.Nodes(), h.indices, func(prim uint32) AABB {
		box := NewAABB()
		h.source.GrowBounds(prim, &box)
		return box
	})
}
