package gpu

import (
	"encoding/binary"
	"fmt"
	"math"
	"os"
	"path/filepath"

	"github.com/gekko3d/raybvh/rt/bvh"
	"github.com/gekko3d/raybvh/rt/core"
	"golang.org/x/image/math/f32"
)

// Record strides in bytes. Every record is a run of little-endian float32s;
// integer fields are stored as float values, which the shader truncates.
const (
	TriangleStride = 160
	NodeStride     = 32
	InstanceStride = 80
	IndexStride    = 4
)

// Matches WGSL
// struct Triangle {
//    corners : array<Vertex, 3>; // position, normal, uv; vec4 each
//    color   : vec4<f32>;
// }; -> 160 bytes
type VertexRecord struct {
	Position f32.Vec4
	Normal   f32.Vec4
	UV       f32.Vec4
}

type TriangleRecord struct {
	Vertices [3]VertexRecord
	Color    f32.Vec4
}

// struct Node {
//    min_first : vec4<f32>; // xyz = min, w = first index
//    max_count : vec4<f32>; // xyz = max, w = primitive count
// }; -> 32 bytes
type NodeRecord struct {
	MinFirst f32.Vec4
	MaxCount f32.Vec4
}

// struct Instance {
//    inverse_model : mat4x4<f32>;
//    root          : vec4<f32>; // root node index in every lane
// }; -> 80 bytes
type InstanceRecord struct {
	// Column-major, as mgl32 stores it.
	InverseModel f32.Mat4
	Root         f32.Vec4
}

func NewTriangleRecord(t *core.Triangle) TriangleRecord {
	var r TriangleRecord
	for i := 0; i < 3; i++ {
		c, n, uv := t.Corners[i], t.Normals[i], t.UVs[i]
		r.Vertices[i] = VertexRecord{
			Position: f32.Vec4{c[0], c[1], c[2], 0},
			Normal:   f32.Vec4{n[0], n[1], n[2], 0},
			UV:       f32.Vec4{uv[0], uv[1], 0, 0},
		}
	}
	r.Color = f32.Vec4{t.Color[0], t.Color[1], t.Color[2], 0}
	return r
}

func NewNodeRecord(n *bvh.Node) NodeRecord {
	return NodeRecord{
		MinFirst: f32.Vec4{n.Min[0], n.Min[1], n.Min[2], float32(n.FirstIndex)},
		MaxCount: f32.Vec4{n.Max[0], n.Max[1], n.Max[2], float32(n.Count)},
	}
}

func NewInstanceRecord(inst *bvh.Instance) InstanceRecord {
	root := float32(inst.RootNodeIndex)
	return InstanceRecord{
		InverseModel: f32.Mat4(inst.InverseModel),
		Root:         f32.Vec4{root, root, root, root},
	}
}

func (r *TriangleRecord) ToBytes() []byte {
	buf := make([]byte, TriangleStride)
	off := 0
	for _, v := range r.Vertices {
		off = putVec4(buf, off, v.Position)
		off = putVec4(buf, off, v.Normal)
		off = putVec4(buf, off, v.UV)
	}
	putVec4(buf, off, r.Color)
	return buf
}

func (r *NodeRecord) ToBytes() []byte {
	buf := make([]byte, NodeStride)
	off := putVec4(buf, 0, r.MinFirst)
	putVec4(buf, off, r.MaxCount)
	return buf
}

func (r *InstanceRecord) ToBytes() []byte {
	buf := make([]byte, InstanceStride)
	off := 0
	for _, v := range r.InverseModel {
		binary.LittleEndian.PutUint32(buf[off:], math.Float32bits(v))
		off += 4
	}
	putVec4(buf, off, r.Root)
	return buf
}

func putVec4(buf []byte, off int, v f32.Vec4) int {
	for i := 0; i < 4; i++ {
		binary.LittleEndian.PutUint32(buf[off+i*4:], math.Float32bits(v[i]))
	}
	return off + 16
}

// PackTriangles lays triangles out in their original order; the index
// arrays, not the triangle buffer, carry the BVH permutation.
func PackTriangles(triangles []core.Triangle) []byte {
	out := make([]byte, 0, len(triangles)*TriangleStride)
	for i := range triangles {
		r := NewTriangleRecord(&triangles[i])
		out = append(out, r.ToBytes()...)
	}
	return out
}

func PackNodes(nodes []bvh.Node) []byte {
	out := make([]byte, 0, len(nodes)*NodeStride)
	for i := range nodes {
		r := NewNodeRecord(&nodes[i])
		out = append(out, r.ToBytes()...)
	}
	return out
}

func PackInstances(instances []bvh.Instance) []byte {
	out := make([]byte, 0, len(instances)*InstanceStride)
	for i := range instances {
		r := NewInstanceRecord(&instances[i])
		out = append(out, r.ToBytes()...)
	}
	return out
}

func PackIndices(indices []uint32) []byte {
	out := make([]byte, len(indices)*IndexStride)
	for i, idx := range indices {
		binary.LittleEndian.PutUint32(out[i*IndexStride:], math.Float32bits(float32(idx)))
	}
	return out
}

// Frame is the set of buffers handed to the renderer for one frame.
// Triangles never change after load; the rest are repacked every frame.
type Frame struct {
	Triangles       []byte
	TriangleIndices []byte
	Nodes           []byte
	Instances       []byte
	InstanceIndices []byte
}

// Size returns the total byte size of all buffers.
func (f *Frame) Size() int {
	return len(f.Triangles) + len(f.TriangleIndices) + len(f.Nodes) + len(f.Instances) + len(f.InstanceIndices)
}

// WriteDir dumps each buffer to dir as <name>.bin.
func (f *Frame) WriteDir(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	files := []struct {
		name string
		data []byte
	}{
		{"triangles", f.Triangles},
		{"triangle_indices", f.TriangleIndices},
		{"nodes", f.Nodes},
		{"instances", f.Instances},
		{"instance_indices", f.InstanceIndices},
	}
	for _, file := range files {
		path := filepath.Join(dir, file.name+".bin")
		if err := os.WriteFile(path, file.data, 0o644); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
	}
	return nil
}
