package bind_group_provider

import (
	"sort"

	"github.com/Carmen-Shannon/oxy-graph/engine/renderer/gpu"
	"github.com/cogentcore/webgpu/wgpu"
)

// bindGroupProvider is the unexported implementation of BindGroupProvider.
type bindGroupProvider struct {
	// label is a debug label added for convenience.
	label string
	// group is the bind group index the provider fills.
	group int

	// buffers, textures and samplers are owned by the resource table and only referenced here, keyed by binding index.
	buffers  map[int]gpu.Buffer
	textures map[int]gpu.Texture
	samplers map[int]gpu.Sampler

	// bindGroup is the backend object created from the bindings, or nil until a GPU backend creates it.
	bindGroup *wgpu.BindGroup
}

// BindGroupProvider is the set of resources bound to one bind group of one pass. The executor
// fills a provider per group from the resource table each frame and the backend turns it into
// whatever its draw call needs (a wgpu.BindGroup, or direct texel access for the software
// backend).
//
// Usage pattern:
//  1. The executor creates a provider per declared group with NewBindGroupProvider
//  2. Uniform buffers, texture read views and samplers are attached by binding index
//  3. The backend creates and caches its bind group with SetBindGroup
//  4. Release frees the backend bind group; the referenced resources stay with the table
type BindGroupProvider interface {
	// Release frees the backend bind group. The referenced buffers, textures and samplers are
	// not released.
	Release()

	// Label retrieves the debug label of the provider.
	//
	// Returns:
	//   - string: the label
	Label() string

	// Group retrieves the bind group index this provider fills.
	//
	// Returns:
	//   - int: the bind group index
	Group() int

	// Bindings lists every binding index that has a resource attached, sorted.
	//
	// Returns:
	//   - []int: the binding indices
	Bindings() []int

	// Buffer retrieves the uniform buffer at a binding.
	//
	// Parameters:
	//   - binding: the binding index
	//
	// Returns:
	//   - gpu.Buffer: the buffer, or nil if none is attached
	Buffer(binding int) gpu.Buffer

	// Texture retrieves the texture read view at a binding.
	//
	// Parameters:
	//   - binding: the binding index
	//
	// Returns:
	//   - gpu.Texture: the texture, or nil if none is attached
	Texture(binding int) gpu.Texture

	// Sampler retrieves the sampler at a binding.
	//
	// Parameters:
	//   - binding: the binding index
	//
	// Returns:
	//   - gpu.Sampler: the sampler, or nil if none is attached
	Sampler(binding int) gpu.Sampler

	// BindGroup returns the backend bind group, or nil if the backend has not created it.
	BindGroup() *wgpu.BindGroup

	// SetBindGroup stores the backend bind group created from this provider.
	SetBindGroup(bg *wgpu.BindGroup)

	// SetBuffer attaches a uniform buffer at a binding.
	SetBuffer(binding int, buf gpu.Buffer)

	// SetTexture attaches a texture read view at a binding.
	SetTexture(binding int, tex gpu.Texture)

	// SetSampler attaches a sampler at a binding.
	SetSampler(binding int, s gpu.Sampler)
}

var _ BindGroupProvider = &bindGroupProvider{}

// NewBindGroupProvider creates an empty provider for one bind group.
//
// Parameters:
//   - label: a debug label for the provider
//   - group: the bind group index the provider fills
//   - options: variadic list of BindGroupProviderOption functions
//
// Returns:
//   - BindGroupProvider: the new provider
func NewBindGroupProvider(label string, group int, options ...BindGroupProviderOption) BindGroupProvider {
	p := &bindGroupProvider{
		label:    label,
		group:    group,
		buffers:  make(map[int]gpu.Buffer),
		textures: make(map[int]gpu.Texture),
		samplers: make(map[int]gpu.Sampler),
	}
	for _, opt := range options {
		opt(p)
	}
	return p
}

func (p *bindGroupProvider) Release() {
	if p.bindGroup != nil {
		p.bindGroup.Release()
		p.bindGroup = nil
	}
}

func (p *bindGroupProvider) Label() string {
	return p.label
}

func (p *bindGroupProvider) Group() int {
	return p.group
}

func (p *bindGroupProvider) Bindings() []int {
	seen := make(map[int]struct{}, len(p.buffers)+len(p.textures)+len(p.samplers))
	for b := range p.buffers {
		seen[b] = struct{}{}
	}
	for b := range p.textures {
		seen[b] = struct{}{}
	}
	for b := range p.samplers {
		seen[b] = struct{}{}
	}
	out := make([]int, 0, len(seen))
	for b := range seen {
		out = append(out, b)
	}
	sort.Ints(out)
	return out
}

func (p *bindGroupProvider) Buffer(binding int) gpu.Buffer {
	return p.buffers[binding]
}

func (p *bindGroupProvider) Texture(binding int) gpu.Texture {
	return p.textures[binding]
}

func (p *bindGroupProvider) Sampler(binding int) gpu.Sampler {
	return p.samplers[binding]
}

func (p *bindGroupProvider) BindGroup() *wgpu.BindGroup {
	return p.bindGroup
}

func (p *bindGroupProvider) SetBindGroup(bg *wgpu.BindGroup) {
	p.bindGroup = bg
}

func (p *bindGroupProvider) SetBuffer(binding int, buf gpu.Buffer) {
	p.buffers[binding] = buf
}

func (p *bindGroupProvider) SetTexture(binding int, tex gpu.Texture) {
	p.textures[binding] = tex
}

func (p *bindGroupProvider) SetSampler(binding int, s gpu.Sampler) {
	p.samplers[binding] = s
}
