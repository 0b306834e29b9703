package uniform

import (
	"testing"

	"github.com/Carmen-Shannon/oxy-graph/engine/renderer/material"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubProgram is a hand-built Program used to exercise validation without parsing WGSL.
type stubProgram struct {
	layouts map[int]wgpu.BindGroupLayoutDescriptor
	types   map[[2]int]string
}

func newStubProgram() *stubProgram {
	return &stubProgram{
		layouts: make(map[int]wgpu.BindGroupLayoutDescriptor),
		types:   make(map[[2]int]string),
	}
}

func (p *stubProgram) BindGroupLayoutDescriptors() map[int]wgpu.BindGroupLayoutDescriptor {
	return p.layouts
}

func (p *stubProgram) BindGroupTypeName(group, binding int) string {
	return p.types[[2]int{group, binding}]
}

func (p *stubProgram) texture(group int, dim wgpu.TextureViewDimension) *stubProgram {
	p.layouts[group] = wgpu.BindGroupLayoutDescriptor{Entries: []wgpu.BindGroupLayoutEntry{
		{Binding: 0, Texture: wgpu.TextureBindingLayout{SampleType: wgpu.TextureSampleTypeFloat, ViewDimension: dim}},
		{Binding: 1, Sampler: wgpu.SamplerBindingLayout{Type: wgpu.SamplerBindingTypeFiltering}},
	}}
	return p
}

func (p *stubProgram) uniform(group, binding int, typeName string, size uint64) *stubProgram {
	desc := p.layouts[group]
	desc.Entries = append(desc.Entries, wgpu.BindGroupLayoutEntry{
		Binding: uint32(binding),
		Buffer:  wgpu.BufferBindingLayout{Type: wgpu.BufferBindingTypeUniform, MinBindingSize: size},
	})
	p.layouts[group] = desc
	p.types[[2]int{group, binding}] = typeName
	return p
}

func (p *stubProgram) instanced(group, binding int, elem string, size uint64) *stubProgram {
	desc := p.layouts[group]
	desc.Entries = append(desc.Entries, wgpu.BindGroupLayoutEntry{
		Binding: uint32(binding),
		Buffer:  wgpu.BufferBindingLayout{Type: wgpu.BufferBindingTypeReadOnlyStorage, MinBindingSize: size},
	})
	p.layouts[group] = desc
	p.types[[2]int{group, binding}] = "array<" + elem + ">"
	return p
}

func layoutError(t *testing.T, err error) *LayoutMismatchError {
	t.Helper()
	require.ErrorIs(t, err, ErrLayoutMismatch)
	var lm *LayoutMismatchError
	require.ErrorAs(t, err, &lm)
	return lm
}

func TestBuiltinLayouts(t *testing.T) {
	r := NewRegistry()
	tests := []struct {
		domain Domain
		size   uint64
		group  int
		name   string
	}{
		{DomainCamera2D, 32, GroupCamera, "Camera2D"},
		{DomainCamera3D, 160, GroupCamera, "Camera3D"},
		{DomainLight2D, 96, GroupLight, "Light2D"},
		{DomainLight3D, 48, GroupLight, "Light3D"},
		{DomainRender2D, 48, GroupMaterial, "Render2DUniforms"},
		{DomainRender3D, 96, GroupMaterial, "Render3DUniforms"},
		{DomainRenderPBR, 160, GroupMaterial, "RenderPBRUniforms"},
		{DomainQuad, 16, GroupMaterial, "QuadUniforms"},
		{DomainChannel, 32, GroupMaterial, "ChannelUniforms"},
	}
	for _, tt := range tests {
		t.Run(string(tt.domain), func(t *testing.T) {
			l, ok := r.Layout(tt.domain)
			require.True(t, ok)
			assert.Equal(t, tt.size, l.Size)
			assert.Equal(t, tt.group, l.Group)
			assert.Equal(t, tt.name, l.TypeName)
			assert.Contains(t, l.Source, "struct "+tt.name)

			d, ok := r.DomainForType(tt.name)
			require.True(t, ok)
			assert.Equal(t, tt.domain, d)
		})
	}
	assert.Len(t, r.Domains(), len(tests))
	assert.Equal(t, GroupMaterial, r.Layouts()[0].Group)
}

func TestEncodeChecksSize(t *testing.T) {
	r := NewRegistry()
	buf, err := r.Encode(DomainQuad, &material.GPUQuadUniforms{Frame: 3})
	require.NoError(t, err)
	assert.Len(t, buf, 16)

	_, err = r.Encode(DomainCamera3D, &material.GPUQuadUniforms{})
	assert.Error(t, err)

	_, err = r.Encode("nope", &material.GPUQuadUniforms{})
	assert.Error(t, err)
}

func TestValidateAcceptsConventionalProgram(t *testing.T) {
	r := NewRegistry()
	p := newStubProgram().
		texture(0, wgpu.TextureViewDimension2D).
		uniform(1, 0, "Render2DUniforms", 48).
		uniform(2, 0, "Camera2D", 32).
		uniform(3, 0, "Light2D", 96).
		texture(4, wgpu.TextureViewDimensionCube)

	err := r.Validate("sprite", p,
		[]InputShape{{Name: "albedo", Dimension: wgpu.TextureViewDimension2D}, {Name: "env", Dimension: wgpu.TextureViewDimensionCube}},
		[]Domain{DomainRender2D, DomainCamera2D, DomainLight2D})
	assert.NoError(t, err)
}

func TestValidateAcceptsInstancedMaterial(t *testing.T) {
	r := NewRegistry()
	p := newStubProgram().
		texture(0, wgpu.TextureViewDimension2D).
		instanced(1, 0, "Render2DUniforms", 48).
		uniform(2, 0, "Camera2D", 32)

	err := r.Validate("sprites", p,
		[]InputShape{{Name: "albedo", Dimension: wgpu.TextureViewDimension2D}},
		[]Domain{DomainRender2D, DomainCamera2D})
	assert.NoError(t, err)
}

func TestInstanceElement(t *testing.T) {
	elem, ok := InstanceElement("array<Render2DUniforms>")
	assert.True(t, ok)
	assert.Equal(t, "Render2DUniforms", elem)

	_, ok = InstanceElement("array<vec4<f32>, 5>")
	assert.False(t, ok, "fixed-size arrays are not instance arrays")
	_, ok = InstanceElement("Render2DUniforms")
	assert.False(t, ok)
}

func TestValidateRejections(t *testing.T) {
	r := NewRegistry()
	tests := []struct {
		name    string
		program *stubProgram
		inputs  []InputShape
		domains []Domain
		group   int
	}{
		{
			name:    "camera bound in material group",
			program: newStubProgram().uniform(1, 0, "Camera3D", 160),
			domains: []Domain{DomainCamera3D},
			group:   1,
		},
		{
			name:    "undeclared domain",
			program: newStubProgram().uniform(1, 0, "QuadUniforms", 16),
			group:   1,
		},
		{
			name:    "declared domain not bound",
			program: newStubProgram().uniform(1, 0, "QuadUniforms", 16),
			domains: []Domain{DomainQuad, DomainCamera3D},
			group:   2,
		},
		{
			name:    "wrong binding order",
			program: newStubProgram().uniform(1, 0, "ChannelUniforms", 32).uniform(1, 1, "QuadUniforms", 16),
			domains: []Domain{DomainQuad, DomainChannel},
			group:   1,
		},
		{
			name:    "size drift",
			program: newStubProgram().uniform(2, 0, "Camera3D", 144),
			domains: []Domain{DomainCamera3D},
			group:   2,
		},
		{
			name:    "unregistered type",
			program: newStubProgram().uniform(3, 0, "Spotlight", 64),
			group:   3,
		},
		{
			name:    "texture without input",
			program: newStubProgram().texture(0, wgpu.TextureViewDimension2D),
			group:   0,
		},
		{
			name:    "input without texture",
			program: newStubProgram(),
			inputs:  []InputShape{{Name: "src"}},
			group:   0,
		},
		{
			name:    "auxiliary input missing binding",
			program: newStubProgram().texture(0, wgpu.TextureViewDimension2D),
			inputs:  []InputShape{{Name: "a"}, {Name: "b"}},
			group:   4,
		},
		{
			name:    "auxiliary group without input",
			program: newStubProgram().texture(0, wgpu.TextureViewDimension2D).texture(4, wgpu.TextureViewDimension2D),
			inputs:  []InputShape{{Name: "a"}},
			group:   4,
		},
		{
			name:    "dimension mismatch",
			program: newStubProgram().texture(0, wgpu.TextureViewDimensionCube),
			inputs:  []InputShape{{Name: "a", Dimension: wgpu.TextureViewDimension2D}},
			group:   0,
		},
		{
			name:    "shared domain read per instance",
			program: newStubProgram().instanced(2, 0, "Camera2D", 32),
			domains: []Domain{DomainCamera2D},
			group:   2,
		},
		{
			name:    "unknown domain",
			program: newStubProgram(),
			domains: []Domain{"weather"},
			group:   -1,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := r.Validate("node_a", tt.program, tt.inputs, tt.domains)
			lm := layoutError(t, err)
			assert.Equal(t, "node_a", lm.Node)
			assert.Equal(t, tt.group, lm.Group)
			assert.Contains(t, err.Error(), "node_a")
		})
	}
}

func TestChannelGroup(t *testing.T) {
	assert.Equal(t, 0, ChannelGroup(0))
	assert.Equal(t, 4, ChannelGroup(1))
	assert.Equal(t, 6, ChannelGroup(3))
}

func TestWithLayoutRegistersCustomDomain(t *testing.T) {
	r := NewRegistry(WithLayout(Layout{Domain: "fog", TypeName: "Fog", Size: 16, Group: GroupMaterial}))
	d, ok := r.DomainForType("Fog")
	require.True(t, ok)
	assert.Equal(t, Domain("fog"), d)
}
