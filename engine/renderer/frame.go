package renderer

import (
	"github.com/Carmen-Shannon/oxy-graph/engine/renderer/resource"
	"github.com/Carmen-Shannon/oxy-graph/engine/renderer/uniform"
)

// Frame carries the per-frame values the scene hands to the graph.
type Frame struct {
	// Time is the scene time in seconds, written to the Quad block of every node that declares it.
	Time float32
	// Shared holds the blocks of camera and light domains. One buffer per domain is shared by
	// every node that declares the domain.
	Shared map[uniform.Domain]uniform.Block
	// Nodes holds the per-node values keyed by node name.
	Nodes map[string]NodeFrame
}

// NodeFrame is the per-frame input of one node.
type NodeFrame struct {
	// Blocks holds the material group blocks of the node. A Quad block is filled in by the
	// renderer when the node declares the domain and none is given.
	Blocks map[uniform.Domain]uniform.Block
	// Instanced holds one block per instance for domains the program reads per instance. The
	// longest slice sets the instance count when Instances is zero. A domain given only in
	// Blocks is written as instance 0.
	Instanced map[uniform.Domain][]uniform.Block
	// Mesh is the mesh drawn by mesh programs. Zero for fullscreen and sprite passes.
	Mesh resource.Handle
	// Vertices overrides the non-indexed vertex count. Zero selects three, one fullscreen
	// triangle.
	Vertices uint32
	// Instances is the instance count. Zero selects one.
	Instances uint32
}
