package bvh

import (
	"github.com/go-gl/mathgl/mgl32"
)

type instanceSource []Instance

func (s instanceSource) Len() int {
	return len(s)
}

func (s instanceSource) Centroid(i uint32) mgl32.Vec3 {
	return s[i].Centroid
}

func (s instanceSource) GrowBounds(i uint32, box *AABB) {
	box.Grow(s[i].Min)
	box.Grow(s[i].Max)
}

// TLAS is the top-level hierarchy over instances. Build discards the previous
// tree entirely; there is no refit.
type TLAS struct {
	hierarchy
	capacity  int
	instances []Instance
}

// NewTLAS preallocates storage for a tree over capacity instances.
func NewTLAS(capacity int, opts Options) *TLAS {
	t := &TLAS{
		hierarchy: newHierarchy("tlas", opts),
		capacity:  max(capacity, 0),
	}
	t.reserve(t.capacity)
	t.instances = make([]Instance, 0, t.capacity)
	return t
}

// Build copies instances and rebuilds the tree from scratch. Storage grows if
// more instances than the reserved capacity are supplied.
func (t *TLAS) Build(instances []Instance) {
	if len(instances) > t.capacity {
		t.logger.Warnf("tlas: %d instances exceed reserved capacity %d; growing", len(instances), t.capacity)
		t.capacity = len(instances)
	}
	t.instances = append(t.instances[:0], instances...)
	t.build(instanceSource(t.instances))
}

// Capacity returns the number of node slots reserved for the tree, 2n-1 for
// n instances.
func (t *TLAS) Capacity() int {
	return max(2*t.capacity-1, 0)
}

// NodeSlots returns every reserved slot; slots past NodesUsed are zero.
func (t *TLAS) NodeSlots() []Node {
	return t.nodes
}

func (t *TLAS) Instance(i uint32) Instance {
	return t.instances[i]
}

func (t *TLAS) Instances() []Instance {
	return t.instances
}
