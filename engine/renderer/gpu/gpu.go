// Package gpu defines the backend-neutral handles the resource table and render graph pass
// around. Each renderer backend provides its own implementations; callers never see the
// backend's physical objects.
package gpu

import (
	"github.com/Carmen-Shannon/oxy-graph/common"
	"github.com/cogentcore/webgpu/wgpu"
)

// DepthFormat is the format of every per-node depth attachment.
const DepthFormat = wgpu.TextureFormatDepth24Plus

// TextureDescriptor describes one physical texture.
type TextureDescriptor struct {
	// Label names the texture in backend diagnostics.
	Label string
	// Width and Height are the texture extent in pixels. Cube textures use square faces.
	Width, Height uint32
	// Format is the texel format.
	Format wgpu.TextureFormat
	// Dimension is wgpu.TextureViewDimension2D or wgpu.TextureViewDimensionCube.
	Dimension wgpu.TextureViewDimension
	// RenderTarget marks textures that passes draw into.
	RenderTarget bool
}

// Layers returns the number of array layers the texture needs, six for cube textures.
func (d TextureDescriptor) Layers() uint32 {
	if d.Dimension == wgpu.TextureViewDimensionCube {
		return 6
	}
	return 1
}

// ByteSize returns the approximate device memory the texture occupies.
func (d TextureDescriptor) ByteSize() uint64 {
	return uint64(d.Width) * uint64(d.Height) * uint64(d.Layers()) * uint64(BytesPerTexel(d.Format))
}

// BytesPerTexel returns the size of one texel of the formats the graph allocates.
func BytesPerTexel(f wgpu.TextureFormat) int {
	switch f {
	case wgpu.TextureFormatRGBA16Float:
		return 8
	case wgpu.TextureFormatRGBA32Float:
		return 16
	default:
		return 4
	}
}

// Texture is one physical texture owned by the resource table.
type Texture interface {
	// Label returns the texture's debug label.
	Label() string
	// Descriptor returns the descriptor the texture was created with.
	Descriptor() TextureDescriptor
	// Release frees the backend object. Releasing twice is a no-op.
	Release()
}

// Buffer is one uniform or vertex buffer owned by the resource table.
type Buffer interface {
	Label() string
	Size() uint64
	Release()
}

// Sampler is one sampler owned by the resource table.
type Sampler interface {
	Label() string
	// Data returns the configuration the sampler was created with.
	Data() common.SamplerStagingData
	Release()
}

// Mesh is a vertex buffer with an optional index buffer.
type Mesh interface {
	Label() string
	// VertexCount returns the number of vertices in the vertex buffer.
	VertexCount() uint32
	// IndexCount returns the number of indices, zero for non-indexed meshes.
	IndexCount() uint32
	Release()
}

// Allocator creates physical resources. Renderer backends implement it; the resource table
// calls it for every allocation.
type Allocator interface {
	// CreateTexture allocates a texture. Failures caused by exhausted device memory wrap the
	// resource package's out-of-memory sentinel.
	CreateTexture(desc TextureDescriptor) (Texture, error)

	// CreateBuffer allocates a uniform buffer of size bytes.
	CreateBuffer(label string, size uint64) (Buffer, error)

	// CreateSampler creates a sampler from staging data.
	CreateSampler(label string, data common.SamplerStagingData) (Sampler, error)

	// CreateMesh uploads vertex bytes and optional 32-bit indices.
	CreateMesh(label string, vertices []byte, vertexCount uint32, indices []uint32) (Mesh, error)

	// WriteTexture uploads RGBA8 pixels into a texture layer.
	WriteTexture(tex Texture, data common.TextureStagingData) error
}
