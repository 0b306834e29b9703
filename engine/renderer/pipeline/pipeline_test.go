package pipeline

import (
	"testing"

	"github.com/Carmen-Shannon/oxy-graph/engine/renderer/shader"
	"github.com/Carmen-Shannon/oxy-graph/engine/renderer/uniform"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const vertexSource = `
//@oxy:include quad
//@oxy:group 1 0 quad quad

struct VertexOutput {
    @builtin(position) clip: vec4<f32>,
    @location(0) uv: vec2<f32>,
}

@vertex
fn vs_main(@builtin(vertex_index) index: u32) -> VertexOutput {
    var out: VertexOutput;
    let uv = vec2<f32>(f32((index << 1u) & 2u), f32(index & 2u));
    out.clip = vec4<f32>(uv * 2.0 - 1.0, 0.0, 1.0);
    out.uv = uv * quad.dimensions / quad.dimensions;
    return out;
}
`

const fragmentSource = `
//@oxy:include quad
//@oxy:include channel
//@oxy:group 1 0 quad quad
//@oxy:group 1 1 blend channel
//@oxy:channel 0 src_tex src_smp 2d

struct VertexOutput {
    @builtin(position) clip: vec4<f32>,
    @location(0) uv: vec2<f32>,
}

@fragment
fn fs_main(in: VertexOutput) -> @location(0) vec4<f32> {
    return textureSample(src_tex, src_smp, in.uv) * blend.tint;
}
`

func newStages(t *testing.T) (shader.Shader, shader.Shader) {
	t.Helper()
	reg := uniform.NewRegistry()
	vs, err := shader.NewShader("vs", shader.ShaderTypeVertex, vertexSource, reg)
	require.NoError(t, err)
	fs, err := shader.NewShader("fs", shader.ShaderTypeFragment, fragmentSource, reg)
	require.NoError(t, err)
	return vs, fs
}

func TestNewPipelineMergesStages(t *testing.T) {
	vs, fs := newStages(t)
	p, err := NewPipeline("channel", WithVertexShader(vs), WithFragmentShader(fs))
	require.NoError(t, err)

	layouts := p.BindGroupLayoutDescriptors()
	require.Contains(t, layouts, 1)
	require.Len(t, layouts[1].Entries, 2)

	quadEntry := layouts[1].Entries[0]
	assert.Equal(t, uint32(0), quadEntry.Binding)
	assert.Equal(t, wgpu.ShaderStageVertex|wgpu.ShaderStageFragment, quadEntry.Visibility,
		"a slot used by both stages is visible to both")
	assert.Equal(t, wgpu.ShaderStageFragment, layouts[1].Entries[1].Visibility)

	assert.Equal(t, "QuadUniforms", p.BindGroupTypeName(1, 0))
	assert.Equal(t, "ChannelUniforms", p.BindGroupTypeName(1, 1))
	assert.Equal(t, []UniformBinding{
		{Group: 1, Binding: 0, TypeName: "QuadUniforms"},
		{Group: 1, Binding: 1, TypeName: "ChannelUniforms"},
	}, p.UniformBindings())
	assert.Equal(t, []int{0}, p.ChannelGroups())
	assert.Nil(t, p.VertexLayouts())
	assert.Same(t, vs, p.Shader(shader.ShaderTypeVertex))
	assert.Same(t, fs, p.Shader(shader.ShaderTypeFragment))
}

func TestNewPipelineRejectsMissingOrSwappedStages(t *testing.T) {
	vs, fs := newStages(t)

	_, err := NewPipeline("none")
	assert.ErrorContains(t, err, "missing vertex shader")

	_, err = NewPipeline("vs only", WithVertexShader(vs))
	assert.ErrorContains(t, err, "missing fragment shader")

	_, err = NewPipeline("swapped", WithVertexShader(fs), WithFragmentShader(vs))
	assert.ErrorContains(t, err, "not a vertex shader")
}

func TestNewPipelineRejectsConflictingSlots(t *testing.T) {
	reg := uniform.NewRegistry()
	vs, _ := newStages(t)
	conflicting := `
//@oxy:include channel
//@oxy:group 1 0 blend channel

@fragment
fn fs_main() -> @location(0) vec4<f32> {
    return blend.tint;
}
`
	fs, err := shader.NewShader("conflict", shader.ShaderTypeFragment, conflicting, reg)
	require.NoError(t, err)

	_, err = NewPipeline("conflict", WithVertexShader(vs), WithFragmentShader(fs))
	assert.ErrorContains(t, err, "group 1 binding 0")
}

func TestNewPipelineRejectsMalformedWGSL(t *testing.T) {
	reg := uniform.NewRegistry()
	vs, _ := newStages(t)
	broken := `
//@oxy:include channel
//@oxy:group 1 1 blend channel

@fragment
fn fs_main() -> @location(0) vec4<f32> {
    return blend.tint *;
}
`
	fs, err := shader.NewShader("broken", shader.ShaderTypeFragment, broken, reg)
	require.NoError(t, err, "annotations and bindings still parse")

	_, err = NewPipeline("broken", WithVertexShader(vs), WithFragmentShader(fs))
	require.Error(t, err)
	assert.ErrorIs(t, err, shader.ErrInvalidSource)
	assert.ErrorContains(t, err, "pipeline broken")
}

func TestRenderState(t *testing.T) {
	vs, fs := newStages(t)

	tests := []struct {
		name    string
		opts    []PipelineBuilderOption
		cull    wgpu.CullMode
		reverse bool
	}{
		{name: "default", cull: wgpu.CullModeNone},
		{name: "back", opts: []PipelineBuilderOption{WithCullMode(wgpu.CullModeBack)}, cull: wgpu.CullModeBack},
		{name: "reverse back", opts: []PipelineBuilderOption{WithCullMode(wgpu.CullModeBack), WithReverseCulling(true)}, cull: wgpu.CullModeFront, reverse: true},
		{name: "reverse front", opts: []PipelineBuilderOption{WithCullMode(wgpu.CullModeFront), WithReverseCulling(true)}, cull: wgpu.CullModeBack, reverse: true},
		{name: "reverse none", opts: []PipelineBuilderOption{WithReverseCulling(true)}, cull: wgpu.CullModeNone, reverse: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := append([]PipelineBuilderOption{WithVertexShader(vs), WithFragmentShader(fs)}, tt.opts...)
			p, err := NewPipeline(tt.name, opts...)
			require.NoError(t, err)
			assert.Equal(t, tt.cull, p.CullMode())
			assert.Equal(t, tt.reverse, p.ReverseCulling())
		})
	}

	p, err := NewPipeline("state",
		WithVertexShader(vs),
		WithFragmentShader(fs),
		WithDepthTestEnabled(true),
		WithDepthWriteEnabled(false),
		WithDepthBias(2, 1.5),
		WithBlendEnabled(true),
		WithTopology(wgpu.PrimitiveTopologyTriangleStrip),
		WithFrontFace(wgpu.FrontFaceCW),
		WithWriteMask(wgpu.ColorWriteMaskRed),
		WithSoftwareFragment(func(FragmentInput) [4]float32 { return [4]float32{1, 0, 0, 1} }),
	)
	require.NoError(t, err)
	assert.True(t, p.DepthTestEnabled())
	assert.False(t, p.DepthWriteEnabled())
	assert.Equal(t, int32(2), p.DepthBias())
	assert.Equal(t, float32(1.5), p.DepthBiasSlopeScale())
	assert.True(t, p.BlendEnabled())
	assert.NotNil(t, p.BlendState())
	assert.Equal(t, wgpu.PrimitiveTopologyTriangleStrip, p.Topology())
	assert.Equal(t, wgpu.FrontFaceCW, p.FrontFace())
	assert.Equal(t, wgpu.ColorWriteMaskRed, p.WriteMask())
	require.NotNil(t, p.SoftwareFragment())
	assert.Equal(t, [4]float32{1, 0, 0, 1}, p.SoftwareFragment()(nil))
}

func TestPipelineSatisfiesRegistryValidation(t *testing.T) {
	vs, fs := newStages(t)
	p, err := NewPipeline("channel", WithVertexShader(vs), WithFragmentShader(fs))
	require.NoError(t, err)

	reg := uniform.NewRegistry()
	err = reg.Validate("composite", p,
		[]uniform.InputShape{{Name: "src", Dimension: wgpu.TextureViewDimension2D}},
		[]uniform.Domain{uniform.DomainQuad, uniform.DomainChannel})
	assert.NoError(t, err)

	err = reg.Validate("composite", p, nil, []uniform.Domain{uniform.DomainQuad, uniform.DomainChannel})
	assert.ErrorIs(t, err, uniform.ErrLayoutMismatch)
}
