package main

import (
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/gekko3d/raybvh"
	"github.com/gekko3d/raybvh/rt/bvh"
	"github.com/gekko3d/raybvh/rt/mesh"
	"github.com/gekko3d/raybvh/rt/scene"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/urfave/cli"
)

// BuildScene loads a scene description, simulates frames and reports.
func BuildScene(ctx *cli.Context) error {
	detailed := setupLogging(ctx)

	if ctx.NArg() != 1 {
		return errors.New("missing scene description file")
	}
	sceneFile := ctx.Args().First()

	cfg, err := raybvh.LoadSceneConfig(sceneFile)
	if err != nil {
		return err
	}
	if sc := ctx.Int("split-candidates"); sc > 0 {
		cfg.Build.SplitCandidates = sc
	}
	if cfg.Build.Debug {
		logger.SetDebug(true)
	}

	logger.Infof("building scene: %s", sceneFile)
	start := time.Now()
	s, err := scene.FromConfig(cfg, scene.Options{
		Logger:  logger,
		BaseDir: filepath.Dir(sceneFile),
	})
	if err != nil {
		return err
	}
	sealTime := time.Since(start)

	frames := max(ctx.Int("frames"), 0)
	start = time.Now()
	for i := 0; i < frames; i++ {
		if err := s.Update(); err != nil {
			return err
		}
		if err := s.Validate(); err != nil {
			return fmt.Errorf("frame %d: %w", s.FrameCount(), err)
		}
	}
	frameTime := time.Since(start)
	if frames == 0 {
		if err := s.Validate(); err != nil {
			return err
		}
	}

	frame, err := s.Frame()
	if err != nil {
		return err
	}

	w := ctx.App.Writer
	fmt.Fprint(w, sceneReport(s, &frame))
	if detailed {
		fmt.Fprint(w, meshReport(s.Meshes()))
	}
	fmt.Fprintf(w, "seal: %s, %d frames: %s\n", sealTime, frames, frameTime)

	if out := ctx.String("out"); out != "" {
		if err := frame.WriteDir(out); err != nil {
			return err
		}
		logger.Infof("wrote %s of buffers to %s", fmtBytes(frame.Size()), out)
	}
	return nil
}

// InspectMesh builds the BLAS of one mesh file and prints its statistics.
func InspectMesh(ctx *cli.Context) error {
	setupLogging(ctx)

	if ctx.NArg() != 1 {
		return errors.New("missing mesh file")
	}
	path := ctx.Args().First()

	desc := mesh.DefaultDescriptor()
	desc.Scale = float32(ctx.Float64("scale"))
	desc.InvertYZ = ctx.Bool("invert-yz")
	desc.AlignBottom = ctx.Bool("align-bottom")

	m, err := mesh.Load(path, desc)
	if err != nil {
		return err
	}

	start := time.Now()
	b := bvh.NewBLAS(m.Triangles, bvh.Options{
		SplitCandidates: ctx.Int("split-candidates"),
		Logger:          logger,
	})
	elapsed := time.Since(start)
	if err := b.Validate(); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}

	minB, maxB := m.Bounds()
	w := ctx.App.Writer
	fmt.Fprint(w, statsReport(m.Name, len(m.Triangles), b.Stats(), elapsed))
	fmt.Fprintf(w, "bounds: %s - %s\n", fmtVec(minB), fmtVec(maxB))
	return nil
}

func fmtVec(v mgl32.Vec3) string {
	return fmt.Sprintf("(%.3f, %.3f, %.3f)", v[0], v[1], v[2])
}
