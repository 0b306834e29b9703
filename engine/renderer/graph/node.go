package graph

import (
	"github.com/Carmen-Shannon/oxy-graph/common"
	"github.com/Carmen-Shannon/oxy-graph/engine/renderer/uniform"
	"github.com/cogentcore/webgpu/wgpu"
)

// SourceKind identifies where an input channel reads from.
type SourceKind int

const (
	// SourceExternal reads a texture supplied by a collaborator under a key.
	SourceExternal SourceKind = iota
	// SourceNode reads another node's output from the current frame.
	SourceNode
	// SourcePrevious reads the node's own output from the previous frame.
	SourcePrevious
)

// ChannelSource is the origin of one input channel.
type ChannelSource struct {
	Kind SourceKind
	// Ref is the external key or the producing node's name. Empty for SourcePrevious.
	Ref string
}

// External reads the external texture registered under key.
func External(key string) ChannelSource {
	return ChannelSource{Kind: SourceExternal, Ref: key}
}

// FromNode reads the current frame output of the named node.
func FromNode(name string) ChannelSource {
	return ChannelSource{Kind: SourceNode, Ref: name}
}

// Previous reads the node's own output of the previous frame. The node's output must be a
// feedback output.
func Previous() ChannelSource {
	return ChannelSource{Kind: SourcePrevious}
}

// Channel is one named input of a node. Channel 0 binds to group 0, channel k >= 1 to the
// auxiliary group uniform.ChannelGroup(k).
type Channel struct {
	Name    string
	Source  ChannelSource
	Sampler common.SamplerStagingData
}

// OutputDescriptor declares the texture a node renders into.
type OutputDescriptor struct {
	// Format is the texel format. Zero selects rgba8unorm; the master node always uses the
	// surface format.
	Format wgpu.TextureFormat
	// Width and Height are the extent in pixels. Ignored when FollowSurface is set.
	Width, Height uint32
	// Dimension is 2D or cube. Zero selects 2D.
	Dimension wgpu.TextureViewDimension
	// Feedback double buffers the output. Required for Previous() reads.
	Feedback bool
	// Depth allocates a depth attachment. Pipelines with depth testing get one regardless.
	Depth bool
	// FollowSurface sizes the output to the surface, and resizes it with the surface.
	FollowSurface bool
}

// NodeDescriptor declares one pass of the graph.
type NodeDescriptor struct {
	// Name identifies the node. Names are unique within a graph.
	Name string
	// Program is the key of the registered pipeline the pass draws with.
	Program string
	// Inputs are the ordered input channels.
	Inputs []Channel
	// Uniforms lists the uniform domains the pass binds, in binding order within each group.
	Uniforms []uniform.Domain
	// Output declares the pass's render target.
	Output OutputDescriptor
	// Master marks the terminal node whose output is presented. Exactly one node is master.
	Master bool
	// Clear is the color the target is cleared to before the pass.
	Clear [4]float32
}
