package scene

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/gekko3d/raybvh"
	"github.com/gekko3d/raybvh/rt/bvh"
	"github.com/gekko3d/raybvh/rt/core"
	"github.com/gekko3d/raybvh/rt/gpu"
	"github.com/gekko3d/raybvh/rt/mesh"
	"github.com/go-gl/mathgl/mgl32"
)

var (
	ErrEmptyMesh   = errors.New("scene: mesh has no triangles")
	ErrUnknownMesh = errors.New("scene: unknown mesh")
	ErrNoInstances = errors.New("scene: no models to instance")
	ErrSealed      = errors.New("scene: already sealed")
	ErrNotSealed   = errors.New("scene: not sealed")
)

// LoadFunc reads a mesh file. mesh.Load is used when Options.Loader is nil.
type LoadFunc func(path string, desc mesh.Descriptor) (*core.Mesh, error)

type Options struct {
	SplitCandidates int
	FPS             int
	Logger          raybvh.Logger
	Loader          LoadFunc
	// BaseDir resolves relative mesh paths in FromConfig.
	BaseDir string
}

type meshEntry struct {
	mesh *core.Mesh
	blas *bvh.BLAS
	slot bvh.MeshSlot
}

// Scene owns the meshes and models of a ray-traced scene. Meshes and models
// are added first; Seal lays out the composed node space, after which Update
// rebuilds the instances and the TLAS once per frame.
type Scene struct {
	opts   Options
	logger raybvh.Logger

	meshes    []*meshEntry
	byID      map[core.MeshID]*meshEntry
	triangles []core.Triangle
	models    []*core.Model

	instances []bvh.Instance
	tlas      *bvh.TLAS
	composer  *bvh.Composer
	sealed    bool
	frame     uint64

	// Packed once at seal time; neither changes afterwards.
	packedTriangles       []byte
	packedTriangleIndices []byte
}

func New(opts Options) *Scene {
	if opts.FPS < 1 {
		opts.FPS = raybvh.DefaultFPS
	}
	if opts.Loader == nil {
		opts.Loader = mesh.Load
	}
	return &Scene{
		opts:   opts,
		logger: raybvh.OrNop(opts.Logger),
		byID:   make(map[core.MeshID]*meshEntry),
	}
}

func (s *Scene) bvhOptions() bvh.Options {
	return bvh.Options{SplitCandidates: s.opts.SplitCandidates, Logger: s.logger}
}

// AddMesh builds the mesh's BLAS. The BLAS is placed into the shared node
// space when the scene is sealed.
func (s *Scene) AddMesh(m *core.Mesh) error {
	if s.sealed {
		return ErrSealed
	}
	if len(m.Triangles) == 0 {
		return fmt.Errorf("%w: %q", ErrEmptyMesh, m.Name)
	}
	if _, ok := s.byID[m.ID]; ok {
		return fmt.Errorf("scene: mesh %q (%s) added twice", m.Name, m.ID)
	}

	entry := &meshEntry{
		mesh: m,
		blas: bvh.NewBLAS(m.Triangles, s.bvhOptions()),
	}
	s.meshes = append(s.meshes, entry)
	s.byID[m.ID] = entry
	s.logger.Debugf("mesh %q: %d triangles, %d blas nodes", m.Name, len(m.Triangles), entry.blas.NodesUsed())
	return nil
}

// AddModel places an instance of a previously added mesh.
func (s *Scene) AddModel(id core.MeshID, position, eulers mgl32.Vec3) (*core.Model, error) {
	if s.sealed {
		return nil, ErrSealed
	}
	if _, ok := s.byID[id]; !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownMesh, id)
	}
	m := core.NewModel(id, position, eulers, s.opts.FPS)
	s.models = append(s.models, m)
	return m, nil
}

// Seal fixes the set of meshes and models. BLAS nodes are appended after a
// TLAS region sized for the model count, triangles are concatenated into the
// shared buffer in mesh order, and the first frame is built.
func (s *Scene) Seal() error {
	if s.sealed {
		return ErrSealed
	}
	if len(s.models) == 0 {
		return ErrNoInstances
	}

	s.composer = bvh.NewComposer(len(s.models))
	s.triangles = s.triangles[:0]
	for _, e := range s.meshes {
		e.slot = s.composer.AddBLAS(e.blas, uint32(len(s.triangles)))
		s.triangles = append(s.triangles, e.mesh.Triangles...)
	}
	s.tlas = bvh.NewTLAS(len(s.models), s.bvhOptions())
	s.instances = make([]bvh.Instance, len(s.models))
	s.sealed = true

	s.packedTriangles = gpu.PackTriangles(s.triangles)
	s.packedTriangleIndices = gpu.PackIndices(s.composer.TriangleIndices())

	s.logger.Infof(
		"scene sealed: %d meshes, %d models, %d triangles, %d nodes (%d tlas slots)",
		len(s.meshes), len(s.models), len(s.triangles), len(s.composer.Nodes()), s.composer.TLASCapacity(),
	)
	return s.commit()
}

// Update advances every model by one frame and rebuilds the top level.
func (s *Scene) Update() error {
	if !s.sealed {
		return ErrNotSealed
	}
	for _, m := range s.models {
		m.Update()
	}
	s.frame++
	return s.commit()
}

// commit recomputes every instance from its model's current transform,
// rebuilds the TLAS from scratch and copies it into the composed node space.
func (s *Scene) commit() error {
	for i, m := range s.models {
		e := s.byID[m.Mesh]
		s.instances[i] = bvh.NewInstanceWithInverse(e.slot.NodeBase, e.blas.Bounds(), m.ObjectToWorld(), m.WorldToObject())
	}
	s.tlas.Build(s.instances)
	if err := s.composer.Compose(s.tlas); err != nil {
		return fmt.Errorf("frame %d: %w", s.frame, err)
	}
	if s.logger.DebugEnabled() {
		st := s.tlas.Stats()
		s.logger.Debugf("frame %d: %d tlas nodes, depth %d", s.frame, st.Nodes, st.MaxDepth)
	}
	return nil
}

// Frame packs the current frame's buffers for upload.
func (s *Scene) Frame() (gpu.Frame, error) {
	if !s.sealed {
		return gpu.Frame{}, ErrNotSealed
	}
	return gpu.Frame{
		Triangles:       s.packedTriangles,
		TriangleIndices: s.packedTriangleIndices,
		Nodes:           gpu.PackNodes(s.composer.Nodes()),
		Instances:       gpu.PackInstances(s.tlas.Instances()),
		InstanceIndices: gpu.PackIndices(s.tlas.Indices()),
	}, nil
}

// Validate checks every BLAS, the current TLAS and the composed node space.
func (s *Scene) Validate() error {
	if !s.sealed {
		return ErrNotSealed
	}
	for _, e := range s.meshes {
		if err := e.blas.Validate(); err != nil {
			return fmt.Errorf("mesh %q: %w", e.mesh.Name, err)
		}
	}
	if err := s.tlas.Validate(); err != nil {
		return fmt.Errorf("tlas: %w", err)
	}
	return s.composer.ValidateComposed(s.tlas.Indices(), s.tlas.Instances())
}

func (s *Scene) Sealed() bool {
	return s.sealed
}

// FrameCount returns the number of Update calls since Seal.
func (s *Scene) FrameCount() uint64 {
	return s.frame
}

func (s *Scene) Models() []*core.Model {
	return s.models
}

func (s *Scene) Triangles() []core.Triangle {
	return s.triangles
}

func (s *Scene) TLAS() *bvh.TLAS {
	return s.tlas
}

func (s *Scene) Composer() *bvh.Composer {
	return s.composer
}

// MeshInfo describes one mesh for reporting.
type MeshInfo struct {
	Mesh  *core.Mesh
	Slot  bvh.MeshSlot
	Stats bvh.Stats
}

func (s *Scene) Meshes() []MeshInfo {
	out := make([]MeshInfo, len(s.meshes))
	for i, e := range s.meshes {
		out[i] = MeshInfo{Mesh: e.mesh, Slot: e.slot, Stats: e.blas.Stats()}
	}
	return out
}

// FromConfig loads every mesh a scene description names, places its
// instances and seals the result.
func FromConfig(cfg *raybvh.SceneConfig, opts Options) (*Scene, error) {
	if opts.SplitCandidates == 0 {
		opts.SplitCandidates = cfg.Build.SplitCandidates
	}
	if opts.FPS == 0 {
		opts.FPS = cfg.Build.FPS
	}
	s := New(opts)

	ids := make(map[string]core.MeshID, len(cfg.Meshes))
	for _, mc := range cfg.Meshes {
		path := mc.Path
		if !filepath.IsAbs(path) && s.opts.BaseDir != "" {
			path = filepath.Join(s.opts.BaseDir, path)
		}
		desc := mesh.Descriptor{
			Color:       mgl32.Vec3(mc.Color),
			InvertYZ:    mc.InvertYZ,
			AlignBottom: mc.AlignBottom,
			Scale:       mc.Scale,
		}
		m, err := s.opts.Loader(path, desc)
		if err != nil {
			return nil, fmt.Errorf("load mesh %q: %w", mc.Name, err)
		}
		m.Name = mc.Name
		if err := s.AddMesh(m); err != nil {
			return nil, err
		}
		ids[mc.Name] = m.ID
	}

	for i, ic := range cfg.Instances {
		id, ok := ids[ic.Mesh]
		if !ok {
			return nil, fmt.Errorf("instance %d: %w: %q", i, ErrUnknownMesh, ic.Mesh)
		}
		model, err := s.AddModel(id, mgl32.Vec3(ic.Position), mgl32.Vec3(ic.Rotation))
		if err != nil {
			return nil, fmt.Errorf("instance %d: %w", i, err)
		}
		if ic.Scale != [3]float32{} {
			model.Transform.Scale = mgl32.Vec3(ic.Scale)
		}
		model.SpinTo(float64(ic.Spin))
	}

	if err := s.Seal(); err != nil {
		return nil, err
	}
	return s, nil
}
