package pipeline

import (
	"github.com/Carmen-Shannon/oxy-graph/engine/renderer/shader"
	"github.com/cogentcore/webgpu/wgpu"
)

// PipelineBuilderOption is a functional option used to configure a Pipeline during construction.
type PipelineBuilderOption func(*pipeline)

// WithVertexShader sets the vertex stage of the program.
//
// Parameters:
//   - s: a shader of type shader.ShaderTypeVertex
//
// Returns:
//   - PipelineBuilderOption: a function that sets the vertex shader
func WithVertexShader(s shader.Shader) PipelineBuilderOption {
	return func(p *pipeline) {
		p.vertexShader = s
	}
}

// WithFragmentShader sets the fragment stage of the program.
//
// Parameters:
//   - s: a shader of type shader.ShaderTypeFragment
//
// Returns:
//   - PipelineBuilderOption: a function that sets the fragment shader
func WithFragmentShader(s shader.Shader) PipelineBuilderOption {
	return func(p *pipeline) {
		p.fragmentShader = s
	}
}

// WithSoftwareFragment attaches the CPU rendition of the fragment stage that the software
// backend evaluates for fullscreen passes.
//
// Parameters:
//   - fn: the CPU fragment
//
// Returns:
//   - PipelineBuilderOption: a function that sets the software fragment
func WithSoftwareFragment(fn SoftwareFragment) PipelineBuilderOption {
	return func(p *pipeline) {
		p.software = fn
	}
}

// WithDepthTestEnabled toggles depth testing. Nodes drawn with a depth-tested pipeline get a
// per-node depth attachment.
func WithDepthTestEnabled(enabled bool) PipelineBuilderOption {
	return func(p *pipeline) {
		p.depthTestEnabled = enabled
	}
}

// WithDepthWriteEnabled toggles depth writes.
func WithDepthWriteEnabled(enabled bool) PipelineBuilderOption {
	return func(p *pipeline) {
		p.depthWriteEnabled = enabled
	}
}

// WithDepthBias sets the constant and slope scaled depth bias.
//
// Parameters:
//   - bias: the constant depth bias
//   - slopeScale: the slope scaled depth bias
//
// Returns:
//   - PipelineBuilderOption: a function that sets the depth bias
func WithDepthBias(bias int32, slopeScale float32) PipelineBuilderOption {
	return func(p *pipeline) {
		p.depthBias = bias
		p.depthBiasSlopeScale = slopeScale
	}
}

// WithBlendEnabled toggles blending on the color target.
func WithBlendEnabled(enabled bool) PipelineBuilderOption {
	return func(p *pipeline) {
		p.blendEnabled = enabled
	}
}

// WithCullMode sets the face to cull (e.g., wgpu.CullModeNone, wgpu.CullModeFront, wgpu.CullModeBack).
func WithCullMode(mode wgpu.CullMode) PipelineBuilderOption {
	return func(p *pipeline) {
		p.cullMode = mode
	}
}

// WithReverseCulling culls front faces instead of back faces and vice versa, for geometry
// seen from the inside such as sky domes and mirrored meshes.
//
// Parameters:
//   - reverse: true to exchange the culled face
//
// Returns:
//   - PipelineBuilderOption: a function that sets reverse culling
func WithReverseCulling(reverse bool) PipelineBuilderOption {
	return func(p *pipeline) {
		p.reverseCulling = reverse
	}
}

// WithTopology sets the primitive topology.
func WithTopology(topology wgpu.PrimitiveTopology) PipelineBuilderOption {
	return func(p *pipeline) {
		p.topology = topology
	}
}

// WithFrontFace sets the winding treated as front facing.
func WithFrontFace(frontFace wgpu.FrontFace) PipelineBuilderOption {
	return func(p *pipeline) {
		p.frontFace = frontFace
	}
}

// WithWriteMask sets the color write mask.
func WithWriteMask(writeMask wgpu.ColorWriteMask) PipelineBuilderOption {
	return func(p *pipeline) {
		p.writeMask = writeMask
	}
}

// WithBlendState replaces the default premultiplied-alpha style blend state.
//
// Parameters:
//   - blendState: the blend state used when blending is enabled
//
// Returns:
//   - PipelineBuilderOption: a function that sets the blend state
func WithBlendState(blendState *wgpu.BlendState) PipelineBuilderOption {
	return func(p *pipeline) {
		p.blendState = blendState
	}
}
