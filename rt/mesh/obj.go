package mesh

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/gekko3d/raybvh/rt/core"
	"github.com/go-gl/mathgl/mgl32"
)

type objCorner struct {
	v, vt, vn int
}

// objReader holds the per-file vertex pools. A new reader is used for every
// file, so nothing leaks between loads.
type objReader struct {
	desc Descriptor
	v    []mgl32.Vec3
	vt   []mgl32.Vec2
	vn   []mgl32.Vec3
	tris []core.Triangle
}

func ReadOBJFile(path string, desc Descriptor) ([]core.Triangle, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open obj: %w", err)
	}
	defer f.Close()

	tris, err := ReadOBJ(f, desc)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return tris, nil
}

// ReadOBJ parses Wavefront OBJ geometry. Polygons are fan-triangulated;
// faces without normals get the flat face normal.
func ReadOBJ(r io.Reader, desc Descriptor) ([]core.Triangle, error) {
	rd := &objReader{desc: desc}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || line[0] == '#' {
			continue
		}
		fields := strings.Fields(line)

		var err error
		switch fields[0] {
		case "v":
			var v mgl32.Vec3
			v, err = parseVec3(fields[1:])
			rd.v = append(rd.v, desc.axes(v))
		case "vn":
			var n mgl32.Vec3
			n, err = parseVec3(fields[1:])
			rd.vn = append(rd.vn, desc.axes(n))
		case "vt":
			var uv mgl32.Vec2
			uv, err = parseVec2(fields[1:])
			rd.vt = append(rd.vt, uv)
		case "f":
			err = rd.addFace(fields[1:])
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNum, err)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read obj: %w", err)
	}
	if len(rd.tris) == 0 {
		return nil, ErrNoTriangles
	}

	desc.place(rd.tris)
	return rd.tris, nil
}

func (rd *objReader) addFace(fields []string) error {
	if len(fields) < 3 {
		return fmt.Errorf("face has %d vertices", len(fields))
	}
	corners := make([]objCorner, len(fields))
	for i, f := range fields {
		c, err := rd.parseCorner(f)
		if err != nil {
			return err
		}
		corners[i] = c
	}

	for i := 1; i+1 < len(corners); i++ {
		rd.tris = append(rd.tris, rd.triangle(corners[0], corners[i], corners[i+1]))
	}
	return nil
}

func (rd *objReader) triangle(a, b, c objCorner) core.Triangle {
	var pos, nrm [3]mgl32.Vec3
	var uvs [3]mgl32.Vec2
	for i, c := range [3]objCorner{a, b, c} {
		pos[i] = rd.v[c.v]
		if c.vn >= 0 {
			nrm[i] = rd.vn[c.vn]
		}
		if c.vt >= 0 {
			uvs[i] = rd.vt[c.vt]
		}
	}
	tri := core.NewTriangle(pos, nrm, rd.desc.Color)
	tri.UVs = uvs
	return tri
}

// parseCorner handles v, v/vt, v//vn and v/vt/vn with 1-based or negative
// (relative) indices. Missing components are -1.
func (rd *objReader) parseCorner(s string) (objCorner, error) {
	parts := strings.Split(s, "/")
	c := objCorner{v: -1, vt: -1, vn: -1}

	var err error
	if c.v, err = resolveIndex(parts[0], len(rd.v)); err != nil || c.v < 0 {
		return c, fmt.Errorf("bad vertex reference %q", s)
	}
	if len(parts) > 1 && parts[1] != "" {
		if c.vt, err = resolveIndex(parts[1], len(rd.vt)); err != nil {
			return c, fmt.Errorf("bad texcoord reference %q", s)
		}
	}
	if len(parts) > 2 && parts[2] != "" {
		if c.vn, err = resolveIndex(parts[2], len(rd.vn)); err != nil {
			return c, fmt.Errorf("bad normal reference %q", s)
		}
	}
	return c, nil
}

func resolveIndex(s string, n int) (int, error) {
	i, err := strconv.Atoi(s)
	if err != nil {
		return -1, err
	}
	switch {
	case i > 0 && i <= n:
		return i - 1, nil
	case i < 0 && -i <= n:
		return n + i, nil
	}
	return -1, fmt.Errorf("index %d out of range", i)
}

func parseVec3(fields []string) (mgl32.Vec3, error) {
	var v mgl32.Vec3
	if len(fields) < 3 {
		return v, fmt.Errorf("expected 3 components, got %d", len(fields))
	}
	for i := 0; i < 3; i++ {
		f, err := strconv.ParseFloat(fields[i], 32)
		if err != nil {
			return v, err
		}
		v[i] = float32(f)
	}
	return v, nil
}

func parseVec2(fields []string) (mgl32.Vec2, error) {
	var v mgl32.Vec2
	if len(fields) < 2 {
		return v, fmt.Errorf("expected 2 components, got %d", len(fields))
	}
	for i := 0; i < 2; i++ {
		f, err := strconv.ParseFloat(fields[i], 32)
		if err != nil {
			return v, err
		}
		v[i] = float32(f)
	}
	return v, nil
}
