package resource

import (
	"github.com/Carmen-Shannon/oxy-graph/engine/renderer/gpu"
	"github.com/cogentcore/webgpu/wgpu"
)

// Handle is the lookup key of one resource in the Table. Nodes hold handles, never the
// resources themselves. The zero Handle is never issued.
type Handle uint32

// Kind identifies what a handle refers to.
type Kind int

const (
	// KindTexture is a render target or external texture, optionally double buffered.
	KindTexture Kind = iota
	// KindBuffer is a uniform buffer.
	KindBuffer
	// KindSampler is a sampler.
	KindSampler
	// KindMesh is a vertex buffer with optional indices.
	KindMesh
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindTexture:
		return "texture"
	case KindBuffer:
		return "buffer"
	case KindSampler:
		return "sampler"
	case KindMesh:
		return "mesh"
	default:
		return "unknown"
	}
}

// Descriptor describes a texture resource.
type Descriptor struct {
	// Label names the resource in logs and backend diagnostics.
	Label string
	// Width and Height are the extent in pixels.
	Width, Height uint32
	// Format is the texel format. Zero selects wgpu.TextureFormatRGBA8Unorm.
	Format wgpu.TextureFormat
	// Dimension is 2D or cube. Zero selects 2D.
	Dimension wgpu.TextureViewDimension
	// Feedback allocates a front and back buffer. Reads target the front, writes the back.
	Feedback bool
	// Depth allocates a depth attachment of the same extent alongside the color texture.
	Depth bool
	// RenderTarget marks textures passes draw into, as opposed to uploaded external textures.
	RenderTarget bool
}

// normalized fills defaults so two descriptors that mean the same texture compare equal.
func (d Descriptor) normalized() Descriptor {
	if d.Format == wgpu.TextureFormatUndefined {
		d.Format = wgpu.TextureFormatRGBA8Unorm
	}
	if d.Dimension == wgpu.TextureViewDimensionUndefined {
		d.Dimension = wgpu.TextureViewDimension2D
	}
	return d
}

func (d Descriptor) texture(label string) gpu.TextureDescriptor {
	return gpu.TextureDescriptor{
		Label:        label,
		Width:        d.Width,
		Height:       d.Height,
		Format:       d.Format,
		Dimension:    d.Dimension,
		RenderTarget: d.RenderTarget,
	}
}

func (d Descriptor) depth() gpu.TextureDescriptor {
	return gpu.TextureDescriptor{
		Label:        d.Label + "/depth",
		Width:        d.Width,
		Height:       d.Height,
		Format:       gpu.DepthFormat,
		Dimension:    wgpu.TextureViewDimension2D,
		RenderTarget: true,
	}
}
