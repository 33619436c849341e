package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	cli.VersionFlag = cli.BoolFlag{
		Name:  "version",
		Usage: "print only the version",
	}

	app := cli.NewApp()
	app.Name = "raybvh"
	app.Usage = "build two-level ray tracing acceleration structures"
	app.Version = "0.1.0"
	app.Flags = []cli.Flag{
		cli.BoolFlag{
			Name:  "v",
			Usage: "enable verbose logging",
		},
		cli.BoolFlag{
			Name:  "vv",
			Usage: "enable even more verbose logging",
		},
	}
	app.Commands = []cli.Command{
		{
			Name:  "build",
			Usage: "build a scene and pack its GPU buffers",
			Description: `
Load the meshes of a YAML scene description, build one BLAS per mesh, lay out
the shared node space and rebuild the TLAS for the requested number of frames.
Every frame is validated. With --out the packed buffers of the last frame are
written to the given directory.`,
			ArgsUsage: "scene.yaml",
			Flags: []cli.Flag{
				cli.IntFlag{
					Name:  "frames, f",
					Value: 1,
					Usage: "number of frames to simulate after sealing",
				},
				cli.IntFlag{
					Name:  "split-candidates",
					Usage: "override the SAH split candidates per axis",
				},
				cli.StringFlag{
					Name:  "out, o",
					Usage: "directory for the packed buffers",
				},
			},
			Action: BuildScene,
		},
		{
			Name:      "inspect",
			Usage:     "build the BLAS of a single mesh and print its statistics",
			ArgsUsage: "mesh.obj|mesh.gltf|mesh.glb",
			Flags: []cli.Flag{
				cli.IntFlag{
					Name:  "split-candidates",
					Usage: "SAH split candidates per axis",
				},
				cli.Float64Flag{
					Name:  "scale",
					Value: 1.0,
					Usage: "uniform scale applied after recentring",
				},
				cli.BoolFlag{
					Name:  "invert-yz",
					Usage: "swap the Y and Z axes",
				},
				cli.BoolFlag{
					Name:  "align-bottom",
					Usage: "rest the mesh on y=0",
				},
			},
			Action: InspectMesh,
		},
	}
	return app
}
