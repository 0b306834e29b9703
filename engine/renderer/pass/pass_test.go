package pass

import (
	"strings"
	"testing"

	"github.com/Carmen-Shannon/oxy-graph/engine/camera"
	"github.com/Carmen-Shannon/oxy-graph/engine/renderer/graph"
	"github.com/Carmen-Shannon/oxy-graph/engine/renderer/material"
	"github.com/Carmen-Shannon/oxy-graph/engine/renderer/shader"
	"github.com/Carmen-Shannon/oxy-graph/engine/renderer/uniform"
	"github.com/Carmen-Shannon/oxy-graph/engine/shading"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fragmentStub is a single pixel of a pass target.
type fragmentStub struct {
	coord, resolution [2]float32
	sample            func(channel int, u, v float32) [4]float32
	uniforms          map[uniform.Domain][]byte
	instances         int
	dst               [4]float32
}

func (f *fragmentStub) Coord() [2]float32      { return f.coord }
func (f *fragmentStub) Resolution() [2]float32 { return f.resolution }
func (f *fragmentStub) UV() [2]float32 {
	return [2]float32{f.coord[0] / f.resolution[0], f.coord[1] / f.resolution[1]}
}
func (f *fragmentStub) Sample(channel int, u, v float32) [4]float32 {
	if f.sample == nil {
		return [4]float32{}
	}
	return f.sample(channel, u, v)
}
func (f *fragmentStub) Load(channel int, x, y int) [4]float32 { return f.Sample(channel, 0, 0) }
func (f *fragmentStub) Uniform(d uniform.Domain) []byte       { return f.uniforms[d] }
func (f *fragmentStub) Instances() int                        { return max(f.instances, 1) }
func (f *fragmentStub) Destination() [4]float32               { return f.dst }

func skipOnNagaLimitation(t *testing.T, err error) {
	t.Helper()
	msg := err.Error()
	for _, s := range []string{"not yet implemented", "not supported", "lowering error"} {
		if strings.Contains(msg, s) {
			t.Skipf("naga limitation: %v", err)
		}
	}
}

func TestParseVariant(t *testing.T) {
	for _, v := range Variants() {
		got, err := ParseVariant(string(v))
		require.NoError(t, err)
		assert.Equal(t, v, got)
	}
	_, err := ParseVariant("toon_3d")
	assert.ErrorContains(t, err, "unknown variant")
	assert.Len(t, Variants(), 9)
}

func TestVariantShapes(t *testing.T) {
	assert.True(t, VariantSky.Fullscreen())
	assert.False(t, VariantSprite2DLit.Fullscreen())
	assert.Equal(t, uint32(SpriteVertices), VariantSprite2DUnlit.Vertices())
	assert.Zero(t, VariantPBR3D.Vertices(), "mesh variants draw indexed meshes")

	assert.NotContains(t, VariantSprite2DUnlit.Domains(), uniform.DomainLight2D)
	assert.Contains(t, VariantSprite2DLit.Domains(), uniform.DomainLight2D)

	inputs := VariantPBR3D.Inputs()
	require.Len(t, inputs, 3)
	assert.Equal(t, wgpu.TextureViewDimensionCube, inputs[2].Dimension)
}

func TestPipelinesRenderState(t *testing.T) {
	programs, err := Pipelines(nil)
	require.NoError(t, err)
	require.Len(t, programs, 9)

	for key, p := range programs {
		assert.Equal(t, key, p.PipelineKey())
	}
	assert.True(t, programs[string(VariantPBR3D)].DepthTestEnabled())
	assert.Equal(t, wgpu.CullModeBack, programs[string(VariantLambert3D)].CullMode())
	assert.True(t, programs[string(VariantSprite2DLit)].BlendEnabled())
	assert.False(t, programs[string(VariantChannel)].DepthTestEnabled())

	for _, v := range []Variant{VariantChannel, VariantAutomaton, VariantRaymarch, VariantSky, VariantSprite2DLit, VariantSprite2DUnlit} {
		assert.NotNil(t, programs[string(v)].SoftwareFragment(), "%s has a software fragment", v)
	}
	assert.Nil(t, programs[string(VariantPBR3D)].SoftwareFragment())
	assert.NotEmpty(t, programs[string(VariantTextured3D)].VertexLayouts(), "mesh variants read vertex buffers")
	assert.Empty(t, programs[string(VariantSky)].VertexLayouts())
}

// Every variant must pass registry validation when declared through Node.
func TestVariantNodesBuild(t *testing.T) {
	reg := uniform.Default()
	programs, err := Pipelines(reg)
	require.NoError(t, err)

	externals := map[string]wgpu.TextureViewDimension{
		"image":   wgpu.TextureViewDimension2D,
		"skybox":  wgpu.TextureViewDimensionCube,
		"blurred": wgpu.TextureViewDimensionCube,
	}
	sources := func(v Variant) []graph.ChannelSource {
		switch v {
		case VariantAutomaton, VariantRaymarch, VariantSky:
			return nil
		case VariantPBR3D:
			return []graph.ChannelSource{graph.External("image"), graph.External("skybox"), graph.External("blurred")}
		default:
			return []graph.ChannelSource{graph.External("image")}
		}
	}

	for _, v := range Variants() {
		t.Run(string(v), func(t *testing.T) {
			node, err := Node(v, "pass", graph.OutputDescriptor{Width: 64, Height: 64}, sources(v)...)
			require.NoError(t, err)
			present, err := Node(VariantChannel, "present", graph.OutputDescriptor{}, graph.FromNode("pass"))
			require.NoError(t, err)
			present.Master = true

			g, err := graph.NewBuilder(node, present).Build(graph.BuildContext{
				Registry:  reg,
				Programs:  programs,
				Externals: externals,
				Surface:   graph.Surface{Width: 320, Height: 240, Format: wgpu.TextureFormatBGRA8Unorm},
			})
			require.NoError(t, err)
			assert.Equal(t, []string{"pass", "present"}, g.Order())
		})
	}
}

// The node file shown on graph.Description must build against the shipped passes.
const documentedDescription = `
[[node]]
name = "life"
program = "automaton"
uniforms = ["quad"]
inputs = [{ name = "state", previous = true, filter = "nearest" }]
output = { width = 128, height = 128, feedback = true }

[[node]]
name = "present"
program = "channel"
master = true
uniforms = ["channel"]
inputs = [{ name = "src", node = "life" }]
`

func TestDocumentedDescriptionBuilds(t *testing.T) {
	descs, err := graph.ParseDescription([]byte(documentedDescription), graph.FormatTOML)
	require.NoError(t, err)

	reg := uniform.Default()
	programs, err := Pipelines(reg)
	require.NoError(t, err)
	ctx := graph.BuildContext{
		Registry: reg,
		Programs: programs,
		Surface:  graph.Surface{Width: 320, Height: 240, Format: wgpu.TextureFormatBGRA8Unorm},
	}
	g, err := graph.NewBuilder(descs...).Build(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"life", "present"}, g.Order())

	// the channel pass binds no quad block
	descs[1].Uniforms = []uniform.Domain{uniform.DomainQuad, uniform.DomainChannel}
	_, err = graph.NewBuilder(descs...).Build(ctx)
	assert.ErrorIs(t, err, uniform.ErrLayoutMismatch)
}

func TestNodeAutomatonDefaults(t *testing.T) {
	node, err := Node(VariantAutomaton, "life", graph.OutputDescriptor{})
	require.NoError(t, err)
	assert.True(t, node.Output.Feedback)
	assert.Equal(t, uint32(shading.AutomatonGrid), node.Output.Width)
	require.Len(t, node.Inputs, 1)
	assert.Equal(t, graph.SourcePrevious, node.Inputs[0].Source.Kind)
	assert.Equal(t, wgpu.FilterModeNearest, node.Inputs[0].Sampler.MagFilter)
	assert.Equal(t, []uniform.Domain{uniform.DomainQuad}, node.Uniforms)

	_, err = Node(VariantChannel, "c", graph.OutputDescriptor{Width: 4, Height: 4})
	assert.ErrorContains(t, err, "takes 1 inputs, got 0")
	_, err = Node("toon_3d", "t", graph.OutputDescriptor{})
	assert.ErrorContains(t, err, "unknown variant")
}

func TestShadersCompile(t *testing.T) {
	programs, err := Pipelines(nil)
	require.NoError(t, err)
	for _, v := range Variants() {
		p := programs[string(v)]
		for _, st := range []shader.ShaderType{shader.ShaderTypeVertex, shader.ShaderTypeFragment} {
			t.Run(string(v)+"/"+st.String(), func(t *testing.T) {
				_, err := p.Shader(st).Compile()
				if err != nil {
					skipOnNagaLimitation(t, err)
					t.Fatalf("compile: %v", err)
				}
			})
		}
	}
}

func TestSHSource(t *testing.T) {
	src := SHSource(shading.DefaultSH)
	assert.True(t, strings.HasPrefix(src, "const SH = array<vec3<f32>, 9>("))
	assert.Equal(t, 9, strings.Count(src, "vec3<f32>("))

	var sh shading.SHCoefficients
	sh[0] = mgl32.Vec3{0.5, 0.25, 1}
	p, err := NewPipeline(VariantPBR3D, nil, WithSH(sh))
	require.NoError(t, err)
	assert.Contains(t, p.Shader(shader.ShaderTypeFragment).Source(), "vec3<f32>(0.5, 0.25, 1)")
}

func TestChannelFragment(t *testing.T) {
	p, err := NewPipeline(VariantChannel, nil)
	require.NoError(t, err)
	frag := p.SoftwareFragment()

	red := [4]float32{1, 0, 0, 1}
	in := &fragmentStub{
		coord:      [2]float32{1.5, 2.5},
		resolution: [2]float32{4, 4},
		sample: func(channel int, u, v float32) [4]float32 {
			return red
		},
		uniforms: map[uniform.Domain][]byte{},
	}

	forward := material.GPUChannelUniforms{Tint: [4]float32{0, 1, 0, 1}, Weight: 0}
	in.uniforms[uniform.DomainChannel] = forward.Marshal()
	assert.Equal(t, red, frag(in), "weight 0 forwards the input")

	tinted := material.GPUChannelUniforms{Tint: [4]float32{0.5, 1, 0, 1}, Weight: 1}
	in.uniforms[uniform.DomainChannel] = tinted.Marshal()
	assert.Equal(t, [4]float32{0.5, 0, 0, 1}, frag(in))
}

func TestAutomatonFragment(t *testing.T) {
	p, err := NewPipeline(VariantAutomaton, nil)
	require.NoError(t, err)
	frag := p.SoftwareFragment()

	in := &fragmentStub{
		coord:      [2]float32{10.5, 20.5},
		resolution: [2]float32{shading.AutomatonGrid, shading.AutomatonGrid},
		sample: func(channel int, u, v float32) [4]float32 {
			return [4]float32{1, 1, 1, 1}
		},
		uniforms: map[uniform.Domain][]byte{},
	}

	seeding := material.GPUQuadUniforms{Frame: 0}
	in.uniforms[uniform.DomainQuad] = seeding.Marshal()
	want := [4]float32{}
	if shading.Hash2(10, 20) >= 0.5 {
		want = [4]float32{1, 1, 1, 1}
	}
	assert.Equal(t, want, frag(in))

	running := material.GPUQuadUniforms{Frame: 50}
	in.uniforms[uniform.DomainQuad] = running.Marshal()
	assert.Equal(t, [4]float32{}, frag(in), "a saturated neighborhood dies")

	var reads []float32
	in.sample = func(channel int, u, v float32) [4]float32 {
		reads = append(reads, u)
		return [4]float32{}
	}
	in.coord = [2]float32{0.5, 0.5}
	frag(in)
	assert.Contains(t, reads, float32(-2.5)/shading.AutomatonGrid, "neighbors past the edge are sampled through the repeat sampler")
}

func TestFullscreenSceneFragments(t *testing.T) {
	view := mgl32.LookAtV(mgl32.Vec3{0, 0, -4}, mgl32.Vec3{}, mgl32.Vec3{0, 1, 0})
	proj := mgl32.Perspective(mgl32.DegToRad(60), 1, 0.1, 50)
	cam := camera.GPUCamera3D{
		ViewProj:    proj.Mul4(view),
		InvViewProj: proj.Mul4(view).Inv(),
		NearFar:     [2]float32{0.1, 50},
	}
	in := &fragmentStub{
		coord:      [2]float32{16, 1},
		resolution: [2]float32{32, 32},
		uniforms:   map[uniform.Domain][]byte{uniform.DomainCamera3D: cam.Marshal()},
	}

	sky, err := NewPipeline(VariantSky, nil)
	require.NoError(t, err)
	assert.Equal(t, shading.ShadeSky(in.UV(), mgl32.Mat4(cam.InvViewProj)), sky.SoftwareFragment()(in))

	raymarch, err := NewPipeline(VariantRaymarch, nil)
	require.NoError(t, err)
	c := raymarch.SoftwareFragment()(in)
	assert.Equal(t, float32(1), c[3])
}

func TestSpriteFragment(t *testing.T) {
	p, err := NewPipeline(VariantSprite2DUnlit, nil)
	require.NoError(t, err)
	frag := p.SoftwareFragment()

	red := [4]float32{1, 0, 0, 1}
	green := [4]float32{0, 1, 0, 1}
	left := material.GPURender2DUniforms{Model: [4]float32{0, 0, 4, 4}, Color: red}
	right := material.GPURender2DUniforms{Model: [4]float32{8, 0, 4, 4}, Color: green}
	cam := camera.GPUCamera2D{View: [4]float32{0, 0, 16, 16}}

	in := &fragmentStub{
		resolution: [2]float32{16, 16},
		uniforms: map[uniform.Domain][]byte{
			uniform.DomainCamera2D: cam.Marshal(),
			uniform.DomainRender2D: append(left.Marshal(), right.Marshal()...),
		},
		instances: 2,
		dst:       [4]float32{0, 0, 1, 1},
	}

	in.coord = [2]float32{1.5, 1.5}
	assert.Equal(t, red, frag(in))
	in.coord = [2]float32{9.5, 1.5}
	assert.Equal(t, green, frag(in))
	in.coord = [2]float32{5.5, 1.5}
	assert.Equal(t, in.dst, frag(in), "uncovered pixels keep the destination")

	in.instances = 1
	in.coord = [2]float32{9.5, 1.5}
	assert.Equal(t, in.dst, frag(in), "instances past the count are not drawn")

	half := material.GPURender2DUniforms{Model: [4]float32{0, 0, 4, 4}, Color: [4]float32{1, 0, 0, 0.5}}
	in.uniforms[uniform.DomainRender2D] = half.Marshal()
	in.coord = [2]float32{1.5, 1.5}
	assert.Equal(t, [4]float32{0.5, 0, 0.5, 1}, frag(in))
}
