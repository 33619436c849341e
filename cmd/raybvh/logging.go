package main

import (
	"github.com/gekko3d/raybvh"
	"github.com/urfave/cli"
)

var logger = raybvh.NewDefaultLogger("raybvh", false)

// setupLogging returns true when -vv asked for the detailed report.
func setupLogging(ctx *cli.Context) bool {
	if ctx.GlobalBool("v") || ctx.GlobalBool("vv") {
		logger.SetDebug(true)
	}
	return ctx.GlobalBool("vv")
}
