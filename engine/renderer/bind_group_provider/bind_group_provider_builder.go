package bind_group_provider

import (
	"github.com/Carmen-Shannon/oxy-graph/engine/renderer/gpu"
)

// BindGroupProviderOption is a functional option for configuring a BindGroupProvider.
type BindGroupProviderOption func(*bindGroupProvider)

// WithBuffer attaches a uniform buffer at a binding.
//
// Parameters:
//   - binding: the binding index
//   - buf: the buffer to attach
//
// Returns:
//   - BindGroupProviderOption: a function that attaches the buffer
func WithBuffer(binding int, buf gpu.Buffer) BindGroupProviderOption {
	return func(p *bindGroupProvider) {
		p.buffers[binding] = buf
	}
}

// WithChannel attaches a texture at binding 0 and its sampler at binding 1, the shape of
// every texture group.
//
// Parameters:
//   - tex: the texture read view
//   - smp: the sampler
//
// Returns:
//   - BindGroupProviderOption: a function that attaches the pair
func WithChannel(tex gpu.Texture, smp gpu.Sampler) BindGroupProviderOption {
	return func(p *bindGroupProvider) {
		p.textures[0] = tex
		p.samplers[1] = smp
	}
}
