package graph

import (
	"github.com/Carmen-Shannon/oxy-graph/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-graph/engine/renderer/resource"
	"github.com/Carmen-Shannon/oxy-graph/engine/renderer/uniform"
	"github.com/cogentcore/webgpu/wgpu"
)

// Surface is the presentation target the master node negotiates its output with.
type Surface struct {
	Width, Height uint32
	Format        wgpu.TextureFormat
}

// BuildContext carries everything a node set is validated against.
type BuildContext struct {
	// Registry validates every program against its node's inputs and uniform domains.
	Registry uniform.Registry
	// Programs resolves NodeDescriptor.Program keys.
	Programs map[string]pipeline.Pipeline
	// Externals maps external texture keys to their view dimension.
	Externals map[string]wgpu.TextureViewDimension
	// Surface sizes the master node and FollowSurface outputs.
	Surface Surface
}

// Node is one validated pass of an execution plan.
type Node struct {
	// Descriptor is the declaration the node was built from.
	Descriptor NodeDescriptor
	// Program is the resolved pipeline.
	Program pipeline.Pipeline
	// Index is the declaration position of the node.
	Index int
	// Output is the resolved render target descriptor.
	Output resource.Descriptor
	// Dependencies are the nodes whose current-frame output this node reads, in input order.
	Dependencies []string
	// SelfRead is set when the node reads its own previous output through Previous().
	SelfRead bool
	// Swap is set for every feedback output; the executor swaps it after the pass.
	Swap bool
}

// Name returns the node's name.
func (n *Node) Name() string {
	return n.Descriptor.Name
}

// Graph is an immutable, validated execution plan.
type Graph struct {
	nodes       map[string]*Node
	order       []*Node
	master      *Node
	fingerprint uint64
}

// Plan returns the nodes in execution order. Every node appears after all nodes it reads
// from in the current frame; ties are broken by declaration order. Nodes the master does not
// read are planned as well.
//
// Returns:
//   - []*Node: the ordered nodes
func (g *Graph) Plan() []*Node {
	return g.order
}

// Order returns the node names in execution order.
//
// Returns:
//   - []string: the ordered names
func (g *Graph) Order() []string {
	names := make([]string, len(g.order))
	for i, n := range g.order {
		names[i] = n.Name()
	}
	return names
}

// Node looks a node up by name.
//
// Parameters:
//   - name: the node name
//
// Returns:
//   - *Node: the node
//   - bool: false if the graph has no such node
func (g *Graph) Node(name string) (*Node, bool) {
	n, ok := g.nodes[name]
	return n, ok
}

// Master returns the terminal node whose output is presented.
func (g *Graph) Master() *Node {
	return g.master
}

// Fingerprint returns the hash of the node set and build context the plan was built from.
func (g *Graph) Fingerprint() uint64 {
	return g.fingerprint
}

// Len returns the number of nodes.
func (g *Graph) Len() int {
	return len(g.order)
}
