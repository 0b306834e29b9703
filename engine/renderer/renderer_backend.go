package renderer

import (
	"github.com/Carmen-Shannon/oxy-graph/common"
	"github.com/Carmen-Shannon/oxy-graph/engine/renderer/bind_group_provider"
	"github.com/Carmen-Shannon/oxy-graph/engine/renderer/gpu"
	"github.com/Carmen-Shannon/oxy-graph/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-graph/engine/renderer/uniform"
)

// RendererBackendType identifies the backend implementation used by the Renderer.
type RendererBackendType int

const (
	// BackendTypeWGPU selects the WebGPU backend. It renders headless into offscreen targets;
	// presenting the master output is up to the caller.
	BackendTypeWGPU RendererBackendType = iota

	// BackendTypeSoftware selects the CPU backend. It evaluates the software fragment of
	// fullscreen programs per pixel and fails passes whose program has none.
	BackendTypeSoftware
)

// String returns the backend name.
func (t RendererBackendType) String() string {
	switch t {
	case BackendTypeWGPU:
		return "wgpu"
	case BackendTypeSoftware:
		return "software"
	default:
		return "unknown"
	}
}

// PassEncoding is everything a backend needs to record one pass of a frame.
type PassEncoding struct {
	// Node is the name of the node the pass belongs to.
	Node string
	// Program is the pipeline the pass draws with.
	Program pipeline.Pipeline
	// Target is the write view of the node's output.
	Target gpu.Texture
	// Depth is the node's depth attachment, or nil.
	Depth gpu.Texture
	// Clear is the color the target is cleared to before drawing.
	Clear [4]float32
	// BindGroups is indexed by group. Groups the program does not declare are nil.
	BindGroups []bind_group_provider.BindGroupProvider
	// Uniforms maps every bound domain to its buffer.
	Uniforms map[uniform.Domain]gpu.Buffer
	// Mesh is drawn indexed when set; otherwise Vertices are drawn without a vertex buffer.
	Mesh      gpu.Mesh
	Vertices  uint32
	Instances uint32
}

// RendererBackend records and submits the passes of a frame. It also creates every physical
// resource the resource table hands out.
//
// A frame is BeginFrame, WriteBuffers, one EncodePass per node in plan order, then either
// Submit or DiscardFrame. Nothing a frame encodes is observable before Submit returns.
type RendererBackend interface {
	gpu.Allocator

	// Type returns the backend type.
	Type() RendererBackendType

	// RegisterRenderPipeline prepares the backend objects of a program.
	//
	// Parameters:
	//   - p: the program
	//
	// Returns:
	//   - error: an error if the program's shaders fail to compile on this backend
	RegisterRenderPipeline(p pipeline.Pipeline) error

	// BeginFrame opens a frame.
	//
	// Returns:
	//   - error: an error if a frame is already open
	BeginFrame() error

	// WriteBuffers stages uniform uploads. They land before the first pass of the frame runs.
	WriteBuffers(writes []bind_group_provider.BufferWrite)

	// EncodePass records one pass.
	//
	// Parameters:
	//   - pass: the pass to record
	//
	// Returns:
	//   - error: an error if the pass cannot be recorded; the frame must then be discarded
	EncodePass(pass PassEncoding) error

	// Submit executes the recorded frame.
	//
	// Returns:
	//   - error: an error if submission fails; the frame's effects are then undefined
	Submit() error

	// DiscardFrame drops everything recorded since BeginFrame.
	DiscardFrame()

	// ReadPixels copies layer 0 of a texture back as RGBA8.
	//
	// Parameters:
	//   - tex: the texture to read
	//
	// Returns:
	//   - common.TextureStagingData: the pixels
	//   - error: an error if the texture cannot be read back
	ReadPixels(tex gpu.Texture) (common.TextureStagingData, error)

	// Release frees the backend's device objects.
	Release()
}
