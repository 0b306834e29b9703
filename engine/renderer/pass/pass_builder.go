package pass

import (
	"fmt"
	"strings"

	"github.com/Carmen-Shannon/oxy-graph/engine/renderer/graph"
	"github.com/Carmen-Shannon/oxy-graph/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-graph/engine/renderer/shader"
	"github.com/Carmen-Shannon/oxy-graph/engine/renderer/uniform"
	"github.com/Carmen-Shannon/oxy-graph/engine/shading"
)

// variantConfig collects the options a variant's program is built with.
type variantConfig struct {
	sh       shading.SHCoefficients
	pipeline []pipeline.PipelineBuilderOption
}

// VariantBuilderOption configures a variant's program.
type VariantBuilderOption func(*variantConfig)

// WithSH sets the irradiance coefficients baked into the PBR program. Defaults to
// shading.DefaultSH.
//
// Parameters:
//   - sh: nine RGB spherical harmonic coefficients, see shading.ProjectCubemap
//
// Returns:
//   - VariantBuilderOption: a function that applies the coefficients
func WithSH(sh shading.SHCoefficients) VariantBuilderOption {
	return func(c *variantConfig) {
		c.sh = sh
	}
}

// WithPipelineOptions appends render state options after the variant's own, overriding them.
func WithPipelineOptions(opts ...pipeline.PipelineBuilderOption) VariantBuilderOption {
	return func(c *variantConfig) {
		c.pipeline = append(c.pipeline, opts...)
	}
}

// NewPipeline builds the program of a variant against a uniform registry.
//
// Parameters:
//   - v: the variant
//   - registry: the registry the WGSL annotations resolve against; nil selects uniform.Default()
//   - opts: variant options
//
// Returns:
//   - pipeline.Pipeline: the program, keyed by the variant name
//   - error: an error if the variant is unknown or its sources fail to parse
func NewPipeline(v Variant, registry uniform.Registry, opts ...VariantBuilderOption) (pipeline.Pipeline, error) {
	def, ok := variants[v]
	if !ok {
		return nil, fmt.Errorf("pass: unknown variant %q", v)
	}
	if registry == nil {
		registry = uniform.Default()
	}
	cfg := &variantConfig{sh: shading.DefaultSH}
	for _, opt := range opts {
		opt(cfg)
	}

	key := string(v)
	vs, err := shader.NewShader(key+".vs", shader.ShaderTypeVertex, def.vertex, registry)
	if err != nil {
		return nil, fmt.Errorf("pass %s: %w", v, err)
	}
	fs, err := shader.NewShader(key+".fs", shader.ShaderTypeFragment, fragmentSource(v, def, cfg), registry)
	if err != nil {
		return nil, fmt.Errorf("pass %s: %w", v, err)
	}

	pipelineOpts := []pipeline.PipelineBuilderOption{
		pipeline.WithVertexShader(vs),
		pipeline.WithFragmentShader(fs),
	}
	if def.software != nil {
		pipelineOpts = append(pipelineOpts, pipeline.WithSoftwareFragment(def.software(cfg)))
	}
	pipelineOpts = append(pipelineOpts, def.options...)
	pipelineOpts = append(pipelineOpts, cfg.pipeline...)
	return pipeline.NewPipeline(key, pipelineOpts...)
}

// Pipelines builds every variant, keyed by variant name, ready for graph.BuildContext.Programs.
func Pipelines(registry uniform.Registry, opts ...VariantBuilderOption) (map[string]pipeline.Pipeline, error) {
	out := make(map[string]pipeline.Pipeline, len(variants))
	for _, v := range Variants() {
		p, err := NewPipeline(v, registry, opts...)
		if err != nil {
			return nil, err
		}
		out[string(v)] = p
	}
	return out, nil
}

// fragmentSource assembles the fragment stage source of a variant.
func fragmentSource(v Variant, def variantDef, cfg *variantConfig) string {
	var sb strings.Builder
	if v == VariantPBR3D {
		sb.WriteString(SHSource(cfg.sh))
		sb.WriteString("\n")
	}
	if def.prelude != "" {
		sb.WriteString(def.prelude)
		sb.WriteString("\n")
	}
	sb.WriteString(def.fragment)
	return sb.String()
}

// SHSource renders irradiance coefficients as the WGSL constant the PBR fragment reads.
func SHSource(sh shading.SHCoefficients) string {
	var sb strings.Builder
	sb.WriteString("const SH = array<vec3<f32>, 9>(\n")
	for i, c := range sh {
		fmt.Fprintf(&sb, "    vec3<f32>(%g, %g, %g)", c[0], c[1], c[2])
		if i < len(sh)-1 {
			sb.WriteString(",")
		}
		sb.WriteString("\n")
	}
	sb.WriteString(");\n")
	return sb.String()
}

// Node declares a graph node of variant v. Sources bind to the variant's inputs in order,
// each with the input's default sampler.
//
// An automaton declared without sources reads its own previous output; its output is made
// a feedback target and defaults to the simulation grid size.
//
// Parameters:
//   - v: the variant
//   - name: the node name
//   - output: the render target
//   - sources: one source per variant input
//
// Returns:
//   - graph.NodeDescriptor: the node, programmed with the variant's key and uniform domains
//   - error: an error if the variant is unknown or the source count does not match its inputs
func Node(v Variant, name string, output graph.OutputDescriptor, sources ...graph.ChannelSource) (graph.NodeDescriptor, error) {
	def, ok := variants[v]
	if !ok {
		return graph.NodeDescriptor{}, fmt.Errorf("pass: unknown variant %q", v)
	}
	if v == VariantAutomaton {
		if len(sources) == 0 {
			sources = []graph.ChannelSource{graph.Previous()}
		}
		output.Feedback = true
		if output.Width == 0 && output.Height == 0 && !output.FollowSurface {
			output.Width, output.Height = shading.AutomatonGrid, shading.AutomatonGrid
		}
	}
	if len(sources) != len(def.inputs) {
		return graph.NodeDescriptor{}, fmt.Errorf("pass: node %q of variant %s takes %d inputs, got %d", name, v, len(def.inputs), len(sources))
	}
	inputs := make([]graph.Channel, len(sources))
	for i, src := range sources {
		inputs[i] = graph.Channel{
			Name:    def.inputs[i].Name,
			Source:  src,
			Sampler: def.inputs[i].Sampler,
		}
	}
	return graph.NodeDescriptor{
		Name:     name,
		Program:  string(v),
		Inputs:   inputs,
		Uniforms: v.Domains(),
		Output:   output,
	}, nil
}
