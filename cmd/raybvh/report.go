package main

import (
	"bytes"
	"fmt"
	"strconv"
	"time"

	"github.com/gekko3d/raybvh/rt/bvh"
	"github.com/gekko3d/raybvh/rt/gpu"
	"github.com/gekko3d/raybvh/rt/scene"
	"github.com/olekukonko/tablewriter"
)

func sceneReport(s *scene.Scene, frame *gpu.Frame) string {
	tlas := s.TLAS().Stats()

	var buf bytes.Buffer
	table := tablewriter.NewWriter(&buf)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetAutoFormatHeaders(false)
	table.SetHeader([]string{"Buffer", "Records", "Size"})
	table.Append([]string{"Triangles", strconv.Itoa(len(frame.Triangles) / gpu.TriangleStride), fmtBytes(len(frame.Triangles))})
	table.Append([]string{"Triangle indices", strconv.Itoa(len(frame.TriangleIndices) / gpu.IndexStride), fmtBytes(len(frame.TriangleIndices))})
	table.Append([]string{"Nodes", strconv.Itoa(len(frame.Nodes) / gpu.NodeStride), fmtBytes(len(frame.Nodes))})
	table.Append([]string{"Instances", strconv.Itoa(len(frame.Instances) / gpu.InstanceStride), fmtBytes(len(frame.Instances))})
	table.Append([]string{"Instance indices", strconv.Itoa(len(frame.InstanceIndices) / gpu.IndexStride), fmtBytes(len(frame.InstanceIndices))})
	table.Append([]string{" ", " ", " "})
	table.Append([]string{"TLAS", fmt.Sprintf("%d/%d slots", tlas.Nodes, s.Composer().TLASCapacity()), fmt.Sprintf("depth %d", tlas.MaxDepth)})
	table.SetFooter([]string{"Total", " ", fmtBytes(frame.Size())})
	table.Render()
	return buf.String()
}

func meshReport(meshes []scene.MeshInfo) string {
	var buf bytes.Buffer
	table := tablewriter.NewWriter(&buf)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetAutoFormatHeaders(false)
	table.SetHeader([]string{"Mesh", "Triangles", "Node base", "Nodes", "Leaves", "Depth", "Avg leaf"})
	for _, m := range meshes {
		table.Append([]string{
			m.Mesh.Name,
			strconv.Itoa(len(m.Mesh.Triangles)),
			strconv.Itoa(int(m.Slot.NodeBase)),
			strconv.Itoa(m.Stats.Nodes),
			strconv.Itoa(m.Stats.Leaves),
			strconv.Itoa(m.Stats.MaxDepth),
			fmt.Sprintf("%.2f", m.Stats.AvgLeafSize),
		})
	}
	table.Render()
	return buf.String()
}

func statsReport(name string, triangles int, st bvh.Stats, elapsed time.Duration) string {
	var buf bytes.Buffer
	table := tablewriter.NewWriter(&buf)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetAutoFormatHeaders(false)
	table.SetHeader([]string{"Mesh", name})
	table.Append([]string{"Triangles", strconv.Itoa(triangles)})
	table.Append([]string{"Nodes", strconv.Itoa(st.Nodes)})
	table.Append([]string{"Leaves", strconv.Itoa(st.Leaves)})
	table.Append([]string{"Max depth", strconv.Itoa(st.MaxDepth)})
	table.Append([]string{"Max leaf", strconv.Itoa(st.MaxLeafSize)})
	table.Append([]string{"Avg leaf", fmt.Sprintf("%.2f", st.AvgLeafSize)})
	table.Append([]string{"SAH cost", fmt.Sprintf("%.2f", st.SAHCost)})
	table.Append([]string{"Build time", elapsed.String()})
	table.Render()
	return buf.String()
}

// fmtBytes formats a byte count with the appropriate unit.
func fmtBytes(n int) string {
	switch {
	case n >= 1<<20:
		return fmt.Sprintf("%.1f mb", float64(n)/(1<<20))
	case n >= 1<<10:
		return fmt.Sprintf("%.1f kb", float64(n)/(1<<10))
	}
	return fmt.Sprintf("%d bytes", n)
}
