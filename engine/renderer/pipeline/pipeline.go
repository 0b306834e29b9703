package pipeline

import (
	"errors"
	"fmt"
	"sort"

	"github.com/Carmen-Shannon/oxy-graph/common"
	"github.com/Carmen-Shannon/oxy-graph/engine/renderer/shader"
	"github.com/Carmen-Shannon/oxy-graph/engine/renderer/uniform"
	"github.com/cogentcore/webgpu/wgpu"
)

// FragmentInput is what a software fragment sees for one pixel of its target.
// Channel indices follow the node's input order: channel 0 is the primary input.
type FragmentInput interface {
	// Coord returns the pixel center in target pixels, origin top-left.
	Coord() [2]float32

	// Resolution returns the target width and height in pixels.
	Resolution() [2]float32

	// UV returns Coord divided by Resolution.
	UV() [2]float32

	// Sample filters input channel k at normalized coordinates using the channel's sampler.
	//
	// Parameters:
	//   - channel: the zero-based input channel index
	//   - u, v: normalized texture coordinates
	//
	// Returns:
	//   - [4]float32: the RGBA sample, or zero if the channel is unbound
	Sample(channel int, u, v float32) [4]float32

	// Load fetches one texel of input channel k. Coordinates are clamped to the texture.
	Load(channel int, x, y int) [4]float32

	// Uniform returns the encoded block bound for a domain, or nil when the node binds none.
	// Instanced domains return the whole buffer, instance i at i times the block size.
	Uniform(domain uniform.Domain) []byte

	// Instances returns the instance count of the draw.
	Instances() int

	// Destination returns the target texel under the pixel before this pass writes it.
	Destination() [4]float32
}

// SoftwareFragment is a CPU rendition of a program, evaluated once per target pixel by the
// software backend. Fragments of instanced programs resolve their own coverage and blending.
type SoftwareFragment func(in FragmentInput) [4]float32

// UniformBinding is one uniform buffer slot declared by a program.
type UniformBinding struct {
	Group   int
	Binding int
	// TypeName is the block struct. For instanced bindings it is the array element.
	TypeName string
	// Instanced is set for read-only storage arrays indexed by instance_index.
	Instanced bool
}

// pipeline is the implementation of the Pipeline interface.
// It pairs the vertex and fragment stages of one program with the render state used to build
// the backend pipeline object.
type pipeline struct {
	// pipelineKey is the unique identifier for this pipeline, used for caching and lookups
	pipelineKey string

	vertexShader, fragmentShader shader.Shader

	// layouts are the bind group layouts of both stages merged by group and binding
	layouts map[int]wgpu.BindGroupLayoutDescriptor

	software SoftwareFragment

	// The following properties configure the render pipeline during creation and are set with the builder options.

	depthTestEnabled    bool
	depthWriteEnabled   bool
	depthBias           int32
	depthBiasSlopeScale float32
	blendEnabled        bool
	cullMode            wgpu.CullMode
	reverseCulling      bool
	topology            wgpu.PrimitiveTopology
	frontFace           wgpu.FrontFace
	writeMask           wgpu.ColorWriteMask
	blendState          *wgpu.BlendState
}

// Pipeline is one render program of the graph: a vertex and fragment shader pair, the merged
// bind group layout they declare and the render state its passes are drawn with. A Pipeline
// satisfies uniform.Program so the registry can validate it against a node's inputs.
type Pipeline interface {
	uniform.Program

	// PipelineKey returns the unique identifier for this pipeline.
	//
	// Returns:
	//   - string: the pipeline's unique key
	PipelineKey() string

	// Shader retrieves the shader of a stage.
	//
	// Parameters:
	//   - shaderType: the stage to retrieve
	//
	// Returns:
	//   - shader.Shader: the shader of that stage
	Shader(shaderType shader.ShaderType) shader.Shader

	// UniformBindings lists the uniform buffer slots of groups 1 to 3 sorted by group and binding.
	//
	// Returns:
	//   - []UniformBinding: the declared uniform slots
	UniformBindings() []UniformBinding

	// ChannelGroups lists the texture groups (0 and 4+) the program samples, sorted.
	//
	// Returns:
	//   - []int: the texture group indices
	ChannelGroups() []int

	// VertexLayouts returns the vertex buffer layouts of the vertex stage. Fullscreen programs
	// that derive their vertices from the vertex index return nil.
	//
	// Returns:
	//   - []wgpu.VertexBufferLayout: the layouts in buffer slot order
	VertexLayouts() []wgpu.VertexBufferLayout

	// SoftwareFragment returns the CPU fragment used by the software backend, or nil when the
	// program has no CPU rendition.
	//
	// Returns:
	//   - SoftwareFragment: the CPU fragment
	SoftwareFragment() SoftwareFragment

	// DepthTestEnabled reports whether depth testing is on. Nodes that draw with depth test
	// allocate a depth attachment.
	//
	// Returns:
	//   - bool: true if depth testing is enabled
	DepthTestEnabled() bool

	// DepthWriteEnabled reports whether depth writes are on.
	//
	// Returns:
	//   - bool: true if depth writing is enabled
	DepthWriteEnabled() bool

	// DepthBias returns the constant depth bias.
	//
	// Returns:
	//   - int32: the depth bias
	DepthBias() int32

	// DepthBiasSlopeScale returns the slope scaled depth bias.
	//
	// Returns:
	//   - float32: the slope scale
	DepthBiasSlopeScale() float32

	// BlendEnabled reports whether the color target blends.
	//
	// Returns:
	//   - bool: true if blending is enabled
	BlendEnabled() bool

	// CullMode returns the effective cull mode. With reverse culling, back and front are exchanged.
	//
	// Returns:
	//   - wgpu.CullMode: the face to cull
	CullMode() wgpu.CullMode

	// ReverseCulling reports whether front faces are culled instead of back faces.
	//
	// Returns:
	//   - bool: true if culling is reversed
	ReverseCulling() bool

	// Topology returns the primitive topology.
	//
	// Returns:
	//   - wgpu.PrimitiveTopology: the topology
	Topology() wgpu.PrimitiveTopology

	// FrontFace returns the winding treated as front facing.
	//
	// Returns:
	//   - wgpu.FrontFace: the front face winding
	FrontFace() wgpu.FrontFace

	// WriteMask returns the color write mask.
	//
	// Returns:
	//   - wgpu.ColorWriteMask: the write mask
	WriteMask() wgpu.ColorWriteMask

	// BlendState returns the blend state used when blending is enabled.
	//
	// Returns:
	//   - *wgpu.BlendState: the blend state
	BlendState() *wgpu.BlendState
}

var _ Pipeline = &pipeline{}

// NewPipeline creates a render Pipeline from a vertex and fragment shader supplied through
// the builder options.
//
// Parameters:
//   - pipelineKey: the unique identifier for the pipeline
//   - opts: variadic list of PipelineBuilderOption functions
//
// Returns:
//   - Pipeline: the configured pipeline
//   - error: an error if a stage is missing, is of the wrong type or the stages declare conflicting bindings
func NewPipeline(pipelineKey string, opts ...PipelineBuilderOption) (Pipeline, error) {
	p := &pipeline{
		pipelineKey:       pipelineKey,
		depthTestEnabled:  false,
		depthWriteEnabled: true,
		blendEnabled:      false,
		cullMode:          wgpu.CullModeNone,
		topology:          wgpu.PrimitiveTopologyTriangleList,
		frontFace:         wgpu.FrontFaceCCW,
		writeMask:         wgpu.ColorWriteMaskAll,
		blendState: &wgpu.BlendState{
			Color: wgpu.BlendComponent{
				SrcFactor: wgpu.BlendFactorSrcAlpha,
				DstFactor: wgpu.BlendFactorOneMinusSrcAlpha,
				Operation: wgpu.BlendOperationAdd,
			},
			Alpha: wgpu.BlendComponent{
				SrcFactor: wgpu.BlendFactorOne,
				DstFactor: wgpu.BlendFactorOneMinusSrcAlpha,
				Operation: wgpu.BlendOperationAdd,
			},
		},
	}
	for _, opt := range opts {
		opt(p)
	}

	switch {
	case p.vertexShader == nil:
		return nil, fmt.Errorf("pipeline %s: missing vertex shader", pipelineKey)
	case p.fragmentShader == nil:
		return nil, fmt.Errorf("pipeline %s: missing fragment shader", pipelineKey)
	case p.vertexShader.ShaderType() != shader.ShaderTypeVertex:
		return nil, fmt.Errorf("pipeline %s: shader %s is not a vertex shader", pipelineKey, p.vertexShader.Key())
	case p.fragmentShader.ShaderType() != shader.ShaderTypeFragment:
		return nil, fmt.Errorf("pipeline %s: shader %s is not a fragment shader", pipelineKey, p.fragmentShader.Key())
	}

	for _, s := range []shader.Shader{p.vertexShader, p.fragmentShader} {
		if err := validateStage(s); err != nil {
			return nil, fmt.Errorf("pipeline %s: %w", pipelineKey, err)
		}
	}

	layouts, err := mergeBindGroupLayouts(p.vertexShader, p.fragmentShader)
	if err != nil {
		return nil, fmt.Errorf("pipeline %s: %w", pipelineKey, err)
	}
	p.layouts = layouts
	return p, nil
}

// validateStage rejects stages naga cannot parse. Constructs naga does not implement yet and
// lowering gaps are logged and left for the driver's own compiler.
func validateStage(s shader.Shader) error {
	err := s.Validate()
	switch {
	case err == nil:
		return nil
	case errors.Is(err, shader.ErrInvalidSource) && !shader.IsNagaLimitation(err):
		return err
	default:
		common.Logger().Debug("naga validation skipped", "shader", s.Key(), "error", err)
		return nil
	}
}

func (p *pipeline) PipelineKey() string {
	return p.pipelineKey
}

func (p *pipeline) Shader(shaderType shader.ShaderType) shader.Shader {
	if shaderType == shader.ShaderTypeFragment {
		return p.fragmentShader
	}
	return p.vertexShader
}

func (p *pipeline) BindGroupLayoutDescriptors() map[int]wgpu.BindGroupLayoutDescriptor {
	return p.layouts
}

func (p *pipeline) BindGroupTypeName(group, binding int) string {
	if name := p.fragmentShader.BindGroupTypeName(group, binding); name != "" {
		return name
	}
	return p.vertexShader.BindGroupTypeName(group, binding)
}

func (p *pipeline) UniformBindings() []UniformBinding {
	var out []UniformBinding
	for g, desc := range p.layouts {
		if !uniform.IsUniformGroup(g) {
			continue
		}
		for _, e := range desc.Entries {
			ub := UniformBinding{
				Group:    g,
				Binding:  int(e.Binding),
				TypeName: p.BindGroupTypeName(g, int(e.Binding)),
			}
			if elem, ok := uniform.InstanceElement(ub.TypeName); ok && e.Buffer.Type == wgpu.BufferBindingTypeReadOnlyStorage {
				ub.TypeName, ub.Instanced = elem, true
			}
			out = append(out, ub)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Group != out[j].Group {
			return out[i].Group < out[j].Group
		}
		return out[i].Binding < out[j].Binding
	})
	return out
}

func (p *pipeline) ChannelGroups() []int {
	var out []int
	for g := range p.layouts {
		if !uniform.IsUniformGroup(g) {
			out = append(out, g)
		}
	}
	sort.Ints(out)
	return out
}

func (p *pipeline) VertexLayouts() []wgpu.VertexBufferLayout {
	return p.vertexShader.VertexLayouts()
}

func (p *pipeline) SoftwareFragment() SoftwareFragment {
	return p.software
}

func (p *pipeline) DepthTestEnabled() bool {
	return p.depthTestEnabled
}

func (p *pipeline) DepthWriteEnabled() bool {
	return p.depthWriteEnabled
}

func (p *pipeline) DepthBias() int32 {
	return p.depthBias
}

func (p *pipeline) DepthBiasSlopeScale() float32 {
	return p.depthBiasSlopeScale
}

func (p *pipeline) BlendEnabled() bool {
	return p.blendEnabled
}

func (p *pipeline) CullMode() wgpu.CullMode {
	if !p.reverseCulling {
		return p.cullMode
	}
	switch p.cullMode {
	case wgpu.CullModeBack:
		return wgpu.CullModeFront
	case wgpu.CullModeFront:
		return wgpu.CullModeBack
	default:
		return p.cullMode
	}
}

func (p *pipeline) ReverseCulling() bool {
	return p.reverseCulling
}

func (p *pipeline) Topology() wgpu.PrimitiveTopology {
	return p.topology
}

func (p *pipeline) FrontFace() wgpu.FrontFace {
	return p.frontFace
}

func (p *pipeline) WriteMask() wgpu.ColorWriteMask {
	return p.writeMask
}

func (p *pipeline) BlendState() *wgpu.BlendState {
	return p.blendState
}

// mergeBindGroupLayouts merges the bind group layout descriptors of a vertex and fragment
// shader into the set used for the pipeline layout.
//
// For each group index present in either shader:
//   - Entries with the same binding number have their Visibility flags ORed together
//   - Entries unique to one shader are included with their original visibility
//
// Parameters:
//   - vs: the vertex shader
//   - fs: the fragment shader
//
// Returns:
//   - map[int]wgpu.BindGroupLayoutDescriptor: the merged descriptors keyed by group index
//   - error: an error if both stages declare the same slot with different types
func mergeBindGroupLayouts(vs, fs shader.Shader) (map[int]wgpu.BindGroupLayoutDescriptor, error) {
	vertexLayouts := vs.BindGroupLayoutDescriptors()
	fragmentLayouts := fs.BindGroupLayoutDescriptors()
	merged := make(map[int]wgpu.BindGroupLayoutDescriptor, len(vertexLayouts)+len(fragmentLayouts))

	for g, vDesc := range vertexLayouts {
		merged[g] = vDesc
	}
	for g, fDesc := range fragmentLayouts {
		vDesc, ok := merged[g]
		if !ok {
			merged[g] = fDesc
			continue
		}

		entryMap := make(map[uint32]wgpu.BindGroupLayoutEntry, len(vDesc.Entries)+len(fDesc.Entries))
		for _, e := range vDesc.Entries {
			entryMap[e.Binding] = e
		}
		for _, e := range fDesc.Entries {
			existing, ok := entryMap[e.Binding]
			if !ok {
				entryMap[e.Binding] = e
				continue
			}
			vt := vs.BindGroupTypeName(g, int(e.Binding))
			ft := fs.BindGroupTypeName(g, int(e.Binding))
			if vt != ft {
				return nil, fmt.Errorf("group %d binding %d is %s in the vertex stage and %s in the fragment stage", g, e.Binding, vt, ft)
			}
			existing.Visibility |= e.Visibility
			entryMap[e.Binding] = existing
		}

		entries := make([]wgpu.BindGroupLayoutEntry, 0, len(entryMap))
		for _, e := range entryMap {
			entries = append(entries, e)
		}
		sort.Slice(entries, func(i, j int) bool {
			return entries[i].Binding < entries[j].Binding
		})
		merged[g] = wgpu.BindGroupLayoutDescriptor{
			Label:   vDesc.Label,
			Entries: entries,
		}
	}
	return merged, nil
}
