package raybvh

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

const (
	// DefaultSplitCandidates is the number of evenly spaced split planes the
	// SAH search evaluates per axis.
	DefaultSplitCandidates = 8

	DefaultFPS = 60
)

var (
	ErrNoMeshes       = errors.New("scene config: no meshes defined")
	ErrNoInstanceDefs = errors.New("scene config: no instances defined")
)

// Config holds the build tunables shared by the CLI and the scene.
type Config struct {
	SplitCandidates int  `yaml:"split_candidates"`
	FPS             int  `yaml:"fps"`
	Debug           bool `yaml:"debug"`
}

func DefaultConfig() Config {
	return Config{
		SplitCandidates: DefaultSplitCandidates,
		FPS:             DefaultFPS,
	}
}

type MeshConfig struct {
	Name        string     `yaml:"name"`
	Path        string     `yaml:"path"`
	Color       [3]float32 `yaml:"color"`
	Scale       float32    `yaml:"scale"`
	AlignBottom bool       `yaml:"align_bottom"`
	InvertYZ    bool       `yaml:"invert_yz"`
}

type InstanceConfig struct {
	Mesh     string     `yaml:"mesh"`
	Position [3]float32 `yaml:"position"`
	// Euler angles in degrees.
	Rotation [3]float32 `yaml:"rotation"`
	Scale    [3]float32 `yaml:"scale"`
	// Yaw rate in degrees per second.
	Spin float32 `yaml:"spin"`
}

type SceneConfig struct {
	Build     Config           `yaml:"build"`
	Meshes    []MeshConfig     `yaml:"meshes"`
	Instances []InstanceConfig `yaml:"instances"`
}

func LoadSceneConfig(path string) (*SceneConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scene config: %w", err)
	}
	return ParseSceneConfig(data)
}

// ParseSceneConfig decodes a YAML scene description, fills in defaults and
// checks that every instance references a declared mesh.
func ParseSceneConfig(data []byte) (*SceneConfig, error) {
	cfg := &SceneConfig{Build: DefaultConfig()}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse scene config: %w", err)
	}

	if cfg.Build.SplitCandidates < 1 {
		cfg.Build.SplitCandidates = DefaultSplitCandidates
	}
	if cfg.Build.FPS < 1 {
		cfg.Build.FPS = DefaultFPS
	}

	if len(cfg.Meshes) == 0 {
		return nil, ErrNoMeshes
	}
	if len(cfg.Instances) == 0 {
		return nil, ErrNoInstanceDefs
	}

	names := make(map[string]struct{}, len(cfg.Meshes))
	for i := range cfg.Meshes {
		m := &cfg.Meshes[i]
		if m.Name == "" {
			return nil, fmt.Errorf("scene config: mesh %d has no name", i)
		}
		if m.Path == "" {
			return nil, fmt.Errorf("scene config: mesh %q has no path", m.Name)
		}
		if _, dup := names[m.Name]; dup {
			return nil, fmt.Errorf("scene config: duplicate mesh name %q", m.Name)
		}
		names[m.Name] = struct{}{}
		if m.Scale == 0 {
			m.Scale = 1
		}
	}

	for i := range cfg.Instances {
		inst := &cfg.Instances[i]
		if _, ok := names[inst.Mesh]; !ok {
			return nil, fmt.Errorf("scene config: instance %d references unknown mesh %q", i, inst.Mesh)
		}
		if inst.Scale == [3]float32{} {
			inst.Scale = [3]float32{1, 1, 1}
		}
	}

	return cfg, nil
}
