package mesh

import (
	"fmt"

	"github.com/gekko3d/raybvh/rt/core"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"
)

// ReadGLTF loads every triangle primitive of every mesh in a .gltf or .glb
// document. Node transforms are ignored; meshes are read in their own frame.
func ReadGLTF(path string, desc Descriptor) ([]core.Triangle, error) {
	doc, err := gltf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open gltf: %w", err)
	}
	tris, err := readDocument(doc, desc)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return tris, nil
}

func readDocument(doc *gltf.Document, desc Descriptor) ([]core.Triangle, error) {
	var tris []core.Triangle
	for _, m := range doc.Meshes {
		for pi, prim := range m.Primitives {
			if prim.Mode != gltf.PrimitiveTriangles && prim.Mode != 0 {
				continue
			}
			var err error
			tris, err = appendPrimitive(tris, doc, prim, desc)
			if err != nil {
				return nil, fmt.Errorf("mesh %q primitive %d: %w", m.Name, pi, err)
			}
		}
	}
	if len(tris) == 0 {
		return nil, ErrNoTriangles
	}
	desc.place(tris)
	return tris, nil
}

func appendPrimitive(tris []core.Triangle, doc *gltf.Document, prim *gltf.Primitive, desc Descriptor) ([]core.Triangle, error) {
	posIdx, ok := prim.Attributes[gltf.POSITION]
	if !ok {
		return tris, nil
	}
	positions, err := modeler.ReadPosition(doc, doc.Accessors[posIdx], nil)
	if err != nil {
		return nil, fmt.Errorf("read positions: %w", err)
	}

	var normals [][3]float32
	if idx, ok := prim.Attributes[gltf.NORMAL]; ok {
		if normals, err = modeler.ReadNormal(doc, doc.Accessors[idx], nil); err != nil {
			return nil, fmt.Errorf("read normals: %w", err)
		}
	}

	var uvs [][2]float32
	if idx, ok := prim.Attributes[gltf.TEXCOORD_0]; ok {
		if uvs, err = modeler.ReadTextureCoord(doc, doc.Accessors[idx], nil); err != nil {
			return nil, fmt.Errorf("read uvs: %w", err)
		}
	}

	var indices []uint32
	if prim.Indices != nil {
		if indices, err = modeler.ReadIndices(doc, doc.Accessors[*prim.Indices], nil); err != nil {
			return nil, fmt.Errorf("read indices: %w", err)
		}
	} else {
		indices = make([]uint32, len(positions))
		for i := range indices {
			indices[i] = uint32(i)
		}
	}

	for i := 0; i+2 < len(indices); i += 3 {
		var pos, nrm [3]mgl32.Vec3
		var uv [3]mgl32.Vec2
		for k := 0; k < 3; k++ {
			v := int(indices[i+k])
			if v >= len(positions) {
				return nil, fmt.Errorf("index %d out of range", v)
			}
			pos[k] = desc.axes(positions[v])
			if v < len(normals) {
				nrm[k] = desc.axes(normals[v])
			}
			if v < len(uvs) {
				uv[k] = mgl32.Vec2(uvs[v])
			}
		}
		tri := core.NewTriangle(pos, nrm, desc.Color)
		tri.UVs = uv
		tris = append(tris, tri)
	}
	return tris, nil
}
