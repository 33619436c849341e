package bvh

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// AABB is an axis-aligned box. The zero-growth state returned by NewAABB has
// Min=+Inf and Max=-Inf so that growing is order independent.
type AABB struct {
	Min mgl32.Vec3
	Max mgl32.Vec3
}

func NewAABB() AABB {
	inf := float32(math.Inf(1))
	return AABB{
		Min: mgl32.Vec3{inf, inf, inf},
		Max: mgl32.Vec3{-inf, -inf, -inf},
	}
}

// Grow extends the box to include p. NaN components are ignored.
func (b *AABB) Grow(p mgl32.Vec3) {
	for i := 0; i < 3; i++ {
		if p[i] < b.Min[i] {
			b.Min[i] = p[i]
		}
		if p[i] > b.Max[i] {
			b.Max[i] = p[i]
		}
	}
}

func (b *AABB) GrowAABB(o AABB) {
	if o.IsEmpty() {
		return
	}
	b.Grow(o.Min)
	b.Grow(o.Max)
}

// IsEmpty reports whether the box has not absorbed a point on some axis.
func (b AABB) IsEmpty() bool {
	return b.Max[0] < b.Min[0] || b.Max[1] < b.Min[1] || b.Max[2] < b.Min[2]
}

func (b AABB) Extent() mgl32.Vec3 {
	return b.Max.Sub(b.Min)
}

func (b AABB) Center() mgl32.Vec3 {
	return b.Min.Add(b.Max).Mul(0.5)
}

// SurfaceArea returns 2(dx·dy + dy·dz + dz·dx). Empty boxes report zero so SAH
// costs never go negative.
func (b AABB) SurfaceArea() float32 {
	if b.IsEmpty() {
		return 0
	}
	e := b.Extent()
	return 2 * (e[0]*e[1] + e[1]*e[2] + e[2]*e[0])
}

// Contains reports whether o lies entirely inside b. An empty o is contained
// by anything.
func (b AABB) Contains(o AABB) bool {
	if o.IsEmpty() {
		return true
	}
	for i := 0; i < 3; i++ {
		if o.Min[i] < b.Min[i] || o.Max[i] > b.Max[i] {
			return false
		}
	}
	return true
}

// Overlaps reports whether the boxes share any volume, faces included.
func (b AABB) Overlaps(o AABB) bool {
	if b.IsEmpty() || o.IsEmpty() {
		return false
	}
	for i := 0; i < 3; i++ {
		if b.Max[i] < o.Min[i] || o.Max[i] < b.Min[i] {
			return false
		}
	}
	return true
}

func (b AABB) Corners() [8]mgl32.Vec3 {
	lo, hi := b.Min, b.Max
	return [8]mgl32.Vec3{
		{lo[0], lo[1], lo[2]},
		{lo[0], lo[1], hi[2]},
		{lo[0], hi[1], lo[2]},
		{lo[0], hi[1], hi[2]},
		{hi[0], lo[1], lo[2]},
		{hi[0], lo[1], hi[2]},
		{hi[0], hi[1], lo[2]},
		{hi[0], hi[1], hi[2]},
	}
}

// Transform returns the box enclosing all 8 corners of b after m is applied.
// Transforming only Min and Max is wrong as soon as m rotates.
func (b AABB) Transform(m mgl32.Mat4) AABB {
	out := NewAABB()
	if b.IsEmpty() {
		return out
	}
	for _, c := range b.Corners() {
		out.Grow(m.Mul4x1(c.Vec4(1)).Vec3())
	}
	return out
}
