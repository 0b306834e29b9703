package uniform

import (
	"fmt"
	"slices"
	"sort"
	"sync"

	"github.com/Carmen-Shannon/oxy-graph/engine/camera"
	"github.com/Carmen-Shannon/oxy-graph/engine/light"
	"github.com/Carmen-Shannon/oxy-graph/engine/renderer/material"
	"github.com/cogentcore/webgpu/wgpu"
)

// Layout is the canonical definition of one uniform block domain.
type Layout struct {
	// Domain is the tag the layout is registered under.
	Domain Domain
	// TypeName is the WGSL struct name programs declare the binding with.
	TypeName string
	// Source is the WGSL struct definition injected into programs.
	Source string
	// Size is the byte size of the block, equal to the WGSL struct size.
	Size uint64
	// Group is the binding group the block must be bound in.
	Group int
}

// Block is a CPU-side uniform value that can be serialized into its canonical layout.
type Block interface {
	// Size returns the serialized size in bytes.
	Size() int
	// Marshal serializes the block into little-endian GPU layout.
	Marshal() []byte
}

// Program is the declared shape of a shader program as far as the registry is concerned:
// its bind group layouts and the WGSL type bound at each slot.
type Program interface {
	// BindGroupLayoutDescriptors returns the layout descriptors keyed by group index.
	BindGroupLayoutDescriptors() map[int]wgpu.BindGroupLayoutDescriptor

	// BindGroupTypeName returns the WGSL type bound at group/binding, or "" if none.
	BindGroupTypeName(group, binding int) string
}

// InputShape describes one input channel of a node for validation purposes.
type InputShape struct {
	// Name is the channel name, used in error messages.
	Name string
	// Dimension is the texture view dimension the channel provides (2D or cube).
	Dimension wgpu.TextureViewDimension
}

// registry is the implementation of the Registry interface.
type registry struct {
	mu *sync.RWMutex

	layouts map[Domain]Layout
	byType  map[string]Domain
}

// Registry is the single authoritative table of uniform block layouts and the binding group
// convention. Programs are validated against it when a graph is built.
type Registry interface {
	// Layout returns the canonical layout of a domain.
	//
	// Parameters:
	//   - d: the domain tag
	//
	// Returns:
	//   - Layout: the canonical layout
	//   - bool: false if the domain is not registered
	Layout(d Domain) (Layout, bool)

	// Layouts returns every registered layout ordered by group, then domain.
	//
	// Returns:
	//   - []Layout: the registered layouts
	Layouts() []Layout

	// Domains returns every registered domain tag in sorted order.
	//
	// Returns:
	//   - []Domain: the registered domains
	Domains() []Domain

	// DomainForType resolves a WGSL struct name to its registered domain.
	//
	// Parameters:
	//   - typeName: the WGSL struct name
	//
	// Returns:
	//   - Domain: the domain registered for that struct
	//   - bool: false if no domain uses that struct name
	DomainForType(typeName string) (Domain, bool)

	// Encode serializes a block after checking it against the canonical size of its domain.
	//
	// Parameters:
	//   - d: the domain the block is written for
	//   - b: the block to serialize
	//
	// Returns:
	//   - []byte: the serialized block
	//   - error: an error if the domain is unknown or the block size differs from the layout
	Encode(d Domain, b Block) ([]byte, error)

	// Validate checks a node's program against the group convention.
	//
	// Group 0 must hold a texture and sampler exactly when the node has at least one input.
	// Groups 1 to 3 may only hold uniform buffers whose WGSL type is a registered domain of that
	// group, declared by the node, sized to the canonical layout and bound in declaration order.
	// Groups 4 and above must hold a texture and sampler for each auxiliary input. Texture
	// dimensions must match the inputs.
	//
	// Parameters:
	//   - node: the node name, used in errors
	//   - program: the program's declared shape
	//   - inputs: the node's input channels in declaration order
	//   - domains: the uniform domains the node declares
	//
	// Returns:
	//   - error: a *LayoutMismatchError describing the first violation, or nil
	Validate(node string, program Program, inputs []InputShape, domains []Domain) error
}

var _ Registry = &registry{}

// NewRegistry creates a Registry pre-populated with every built-in domain. Additional
// domains can be registered with WithLayout.
//
// Parameters:
//   - options: a variadic list of RegistryBuilderOption functions
//
// Returns:
//   - Registry: the populated registry
func NewRegistry(options ...RegistryBuilderOption) Registry {
	r := &registry{
		mu:      &sync.RWMutex{},
		layouts: make(map[Domain]Layout),
		byType:  make(map[string]Domain),
	}
	for _, l := range builtinLayouts() {
		r.add(l)
	}
	for _, opt := range options {
		opt(r)
	}
	return r
}

var (
	defaultOnce     sync.Once
	defaultRegistry Registry
)

// Default returns the process-wide registry holding the built-in domains.
func Default() Registry {
	defaultOnce.Do(func() {
		defaultRegistry = NewRegistry()
	})
	return defaultRegistry
}

func builtinLayouts() []Layout {
	return []Layout{
		{DomainCamera2D, "Camera2D", camera.GPUCamera2DSource, uint64((&camera.GPUCamera2D{}).Size()), GroupCamera},
		{DomainCamera3D, "Camera3D", camera.GPUCamera3DSource, uint64((&camera.GPUCamera3D{}).Size()), GroupCamera},
		{DomainLight2D, "Light2D", light.GPULight2DSource, uint64((&light.GPULight2D{}).Size()), GroupLight},
		{DomainLight3D, "Light3D", light.GPULight3DSource, uint64((&light.GPULight3D{}).Size()), GroupLight},
		{DomainRender2D, "Render2DUniforms", material.GPURender2DUniformsSource, uint64((&material.GPURender2DUniforms{}).Size()), GroupMaterial},
		{DomainRender3D, "Render3DUniforms", material.GPURender3DUniformsSource, uint64((&material.GPURender3DUniforms{}).Size()), GroupMaterial},
		{DomainRenderPBR, "RenderPBRUniforms", material.GPURenderPBRUniformsSource, uint64((&material.GPURenderPBRUniforms{}).Size()), GroupMaterial},
		{DomainQuad, "QuadUniforms", material.GPUQuadUniformsSource, uint64((&material.GPUQuadUniforms{}).Size()), GroupMaterial},
		{DomainChannel, "ChannelUniforms", material.GPUChannelUniformsSource, uint64((&material.GPUChannelUniforms{}).Size()), GroupMaterial},
	}
}

func (r *registry) add(l Layout) {
	if old, ok := r.layouts[l.Domain]; ok {
		delete(r.byType, old.TypeName)
	}
	r.layouts[l.Domain] = l
	r.byType[l.TypeName] = l.Domain
}

func (r *registry) Layout(d Domain) (Layout, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	l, ok := r.layouts[d]
	return l, ok
}

func (r *registry) Layouts() []Layout {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Layout, 0, len(r.layouts))
	for _, l := range r.layouts {
		out = append(out, l)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Group != out[j].Group {
			return out[i].Group < out[j].Group
		}
		return out[i].Domain < out[j].Domain
	})
	return out
}

func (r *registry) Domains() []Domain {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Domain, 0, len(r.layouts))
	for d := range r.layouts {
		out = append(out, d)
	}
	slices.Sort(out)
	return out
}

func (r *registry) DomainForType(typeName string) (Domain, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.byType[typeName]
	return d, ok
}

func (r *registry) Encode(d Domain, b Block) ([]byte, error) {
	l, ok := r.Layout(d)
	if !ok {
		return nil, fmt.Errorf("uniform: unknown domain %q", d)
	}
	if uint64(b.Size()) != l.Size {
		return nil, fmt.Errorf("uniform: block for domain %q is %d bytes, layout requires %d", d, b.Size(), l.Size)
	}
	return b.Marshal(), nil
}
