// Package pass is the material set of the render graph: the selectable node types, each a
// program built from embedded WGSL plus, for fullscreen and sprite passes, a CPU fragment the
// software backend evaluates. Near-duplicate passes are configuration variants of one program family
// rather than separate code paths.
package pass

import (
	_ "embed"
	"fmt"
	"slices"

	"github.com/Carmen-Shannon/oxy-graph/common"
	"github.com/Carmen-Shannon/oxy-graph/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-graph/engine/renderer/uniform"
	"github.com/cogentcore/webgpu/wgpu"
)

var (
	//go:embed assets/fullscreen.vert.wgsl
	fullscreenVertexSource string
	//go:embed assets/sprite.vert.wgsl
	spriteVertexSource string
	//go:embed assets/mesh.vert.wgsl
	meshVertexSource string
	//go:embed assets/pbr.vert.wgsl
	pbrVertexSource string

	//go:embed assets/sky_common.wgsl
	skyCommonSource string

	//go:embed assets/channel.frag.wgsl
	channelFragmentSource string
	//go:embed assets/automaton.frag.wgsl
	automatonFragmentSource string
	//go:embed assets/raymarch.frag.wgsl
	raymarchFragmentSource string
	//go:embed assets/sky.frag.wgsl
	skyFragmentSource string
	//go:embed assets/sprite_lit.frag.wgsl
	spriteLitFragmentSource string
	//go:embed assets/sprite_unlit.frag.wgsl
	spriteUnlitFragmentSource string
	//go:embed assets/textured.frag.wgsl
	texturedFragmentSource string
	//go:embed assets/lambert.frag.wgsl
	lambertFragmentSource string
	//go:embed assets/pbr.frag.wgsl
	pbrFragmentSource string
)

// Variant selects a node type of the material set. The variant name doubles as the program
// key nodes reference.
type Variant string

const (
	// VariantChannel forwards its single input, blended toward a tint by a weight.
	VariantChannel Variant = "channel"
	// VariantAutomaton is the cellular automaton over its own previous output.
	VariantAutomaton Variant = "automaton"
	// VariantRaymarch is the raymarched ground plane and fractal scene.
	VariantRaymarch Variant = "raymarch"
	// VariantSky is the procedural sky gradient behind a 3D camera.
	VariantSky Variant = "sky"
	// VariantSprite2DLit draws sprites lit by the five point light slots plus ambient.
	VariantSprite2DLit Variant = "sprite_2d_lit"
	// VariantSprite2DUnlit draws sprites at full brightness without binding Light2D.
	VariantSprite2DUnlit Variant = "sprite_2d_unlit"
	// VariantTextured3D draws meshes with their base color mixed toward the texture, unlit.
	VariantTextured3D Variant = "textured_3d"
	// VariantLambert3D draws meshes with a directional light and flat ambient.
	VariantLambert3D Variant = "lambert_3d"
	// VariantPBR3D draws meshes with a directional light plus SH irradiance and environment
	// reflections.
	VariantPBR3D Variant = "pbr_3d"
)

const (
	// FullscreenVertices is the vertex count of a fullscreen pass: a single oversized triangle.
	FullscreenVertices = 3
	// SpriteVertices is the vertex count of one sprite quad.
	SpriteVertices = 6
)

// Input describes one input channel a variant samples.
type Input struct {
	Name      string
	Dimension wgpu.TextureViewDimension
	Sampler   common.SamplerStagingData
}

// variantDef is the static description of one variant.
type variantDef struct {
	vertex   string
	fragment string
	// prelude is prepended to the fragment source before pre-processing
	prelude  string
	domains  []uniform.Domain
	inputs   []Input
	vertices uint32
	options  []pipeline.PipelineBuilderOption
	software func(cfg *variantConfig) pipeline.SoftwareFragment
}

var linearRepeat = common.SamplerStagingData{
	AddressModeU: wgpu.AddressModeRepeat,
	AddressModeV: wgpu.AddressModeRepeat,
	AddressModeW: wgpu.AddressModeRepeat,
	MagFilter:    wgpu.FilterModeLinear,
	MinFilter:    wgpu.FilterModeLinear,
}

var linearClamp = common.SamplerStagingData{
	AddressModeU: wgpu.AddressModeClampToEdge,
	AddressModeV: wgpu.AddressModeClampToEdge,
	AddressModeW: wgpu.AddressModeClampToEdge,
	MagFilter:    wgpu.FilterModeLinear,
	MinFilter:    wgpu.FilterModeLinear,
}

// cells are read at their centers, the grid wraps
var nearestRepeat = common.SamplerStagingData{
	AddressModeU: wgpu.AddressModeRepeat,
	AddressModeV: wgpu.AddressModeRepeat,
	AddressModeW: wgpu.AddressModeRepeat,
	MagFilter:    wgpu.FilterModeNearest,
	MinFilter:    wgpu.FilterModeNearest,
}

func mesh3DOptions() []pipeline.PipelineBuilderOption {
	return []pipeline.PipelineBuilderOption{
		pipeline.WithDepthTestEnabled(true),
		pipeline.WithCullMode(wgpu.CullModeBack),
	}
}

var variants = map[Variant]variantDef{
	VariantChannel: {
		vertex:   fullscreenVertexSource,
		fragment: channelFragmentSource,
		domains:  []uniform.Domain{uniform.DomainChannel},
		inputs:   []Input{{Name: "src", Dimension: wgpu.TextureViewDimension2D, Sampler: linearClamp}},
		vertices: FullscreenVertices,
		software: channelFragment,
	},
	VariantAutomaton: {
		vertex:   fullscreenVertexSource,
		fragment: automatonFragmentSource,
		domains:  []uniform.Domain{uniform.DomainQuad},
		inputs:   []Input{{Name: "state", Dimension: wgpu.TextureViewDimension2D, Sampler: nearestRepeat}},
		vertices: FullscreenVertices,
		software: automatonFragment,
	},
	VariantRaymarch: {
		vertex:   fullscreenVertexSource,
		fragment: raymarchFragmentSource,
		prelude:  skyCommonSource,
		domains:  []uniform.Domain{uniform.DomainQuad, uniform.DomainCamera3D},
		vertices: FullscreenVertices,
		software: raymarchFragment,
	},
	VariantSky: {
		vertex:   fullscreenVertexSource,
		fragment: skyFragmentSource,
		prelude:  skyCommonSource,
		domains:  []uniform.Domain{uniform.DomainQuad, uniform.DomainCamera3D},
		vertices: FullscreenVertices,
		software: skyFragment,
	},
	VariantSprite2DLit: {
		vertex:   spriteVertexSource,
		fragment: spriteLitFragmentSource,
		domains:  []uniform.Domain{uniform.DomainRender2D, uniform.DomainCamera2D, uniform.DomainLight2D},
		inputs:   []Input{{Name: "sprite", Dimension: wgpu.TextureViewDimension2D, Sampler: linearClamp}},
		vertices: SpriteVertices,
		options:  []pipeline.PipelineBuilderOption{pipeline.WithBlendEnabled(true)},
		software: spriteFragment(true),
	},
	VariantSprite2DUnlit: {
		vertex:   spriteVertexSource,
		fragment: spriteUnlitFragmentSource,
		domains:  []uniform.Domain{uniform.DomainRender2D, uniform.DomainCamera2D},
		inputs:   []Input{{Name: "sprite", Dimension: wgpu.TextureViewDimension2D, Sampler: linearClamp}},
		vertices: SpriteVertices,
		options:  []pipeline.PipelineBuilderOption{pipeline.WithBlendEnabled(true)},
		software: spriteFragment(false),
	},
	VariantTextured3D: {
		vertex:   meshVertexSource,
		fragment: texturedFragmentSource,
		domains:  []uniform.Domain{uniform.DomainRender3D, uniform.DomainCamera3D},
		inputs:   []Input{{Name: "albedo", Dimension: wgpu.TextureViewDimension2D, Sampler: linearRepeat}},
		options:  mesh3DOptions(),
	},
	VariantLambert3D: {
		vertex:   meshVertexSource,
		fragment: lambertFragmentSource,
		domains:  []uniform.Domain{uniform.DomainRender3D, uniform.DomainCamera3D, uniform.DomainLight3D},
		inputs:   []Input{{Name: "albedo", Dimension: wgpu.TextureViewDimension2D, Sampler: linearRepeat}},
		options:  mesh3DOptions(),
	},
	VariantPBR3D: {
		vertex:   pbrVertexSource,
		fragment: pbrFragmentSource,
		domains:  []uniform.Domain{uniform.DomainRenderPBR, uniform.DomainCamera3D, uniform.DomainLight3D},
		inputs: []Input{
			{Name: "albedo", Dimension: wgpu.TextureViewDimension2D, Sampler: linearRepeat},
			{Name: "env_sharp", Dimension: wgpu.TextureViewDimensionCube, Sampler: linearClamp},
			{Name: "env_blurred", Dimension: wgpu.TextureViewDimensionCube, Sampler: linearClamp},
		},
		options: mesh3DOptions(),
	},
}

// Variants returns every variant in a stable order.
func Variants() []Variant {
	out := make([]Variant, 0, len(variants))
	for v := range variants {
		out = append(out, v)
	}
	slices.Sort(out)
	return out
}

// ParseVariant resolves a variant name.
//
// Parameters:
//   - name: the variant name, e.g. "pbr_3d"
//
// Returns:
//   - Variant: the variant
//   - error: an error if no variant has that name
func ParseVariant(name string) (Variant, error) {
	v := Variant(name)
	if _, ok := variants[v]; !ok {
		return "", fmt.Errorf("pass: unknown variant %q", name)
	}
	return v, nil
}

// Domains returns the uniform domains a node of this variant declares, in binding order
// within each group.
func (v Variant) Domains() []uniform.Domain {
	return slices.Clone(variants[v].domains)
}

// Inputs returns the input channels a node of this variant must declare, in channel order.
func (v Variant) Inputs() []Input {
	return slices.Clone(variants[v].inputs)
}

// Vertices returns the non-indexed vertex count of one draw, or 0 for mesh variants that
// draw an indexed mesh.
func (v Variant) Vertices() uint32 {
	return variants[v].vertices
}

// Fullscreen reports whether the variant covers its whole target with one triangle.
func (v Variant) Fullscreen() bool {
	return variants[v].vertices == FullscreenVertices
}
