package renderer

import (
	"sync"

	"github.com/Carmen-Shannon/oxy-graph/common"
	"github.com/Carmen-Shannon/oxy-graph/engine/renderer/gpu"
	"github.com/cogentcore/webgpu/wgpu"
)

// wgpuTexture owns a device texture with a sampling view covering every layer and an
// attachment view of layer 0.
type wgpuTexture struct {
	desc       gpu.TextureDescriptor
	texture    *wgpu.Texture
	view       *wgpu.TextureView
	attachment *wgpu.TextureView
	once       sync.Once
}

func (t *wgpuTexture) Label() string {
	return t.desc.Label
}

func (t *wgpuTexture) Descriptor() gpu.TextureDescriptor {
	return t.desc
}

func (t *wgpuTexture) Release() {
	t.once.Do(func() {
		if t.attachment != nil && t.attachment != t.view {
			t.attachment.Release()
		}
		if t.view != nil {
			t.view.Release()
		}
		if t.texture != nil {
			t.texture.Release()
		}
		t.attachment, t.view, t.texture = nil, nil, nil
	})
}

type wgpuBuffer struct {
	label  string
	size   uint64
	buffer *wgpu.Buffer
	once   sync.Once
}

func (b *wgpuBuffer) Label() string {
	return b.label
}

func (b *wgpuBuffer) Size() uint64 {
	return b.size
}

func (b *wgpuBuffer) Release() {
	b.once.Do(func() {
		b.buffer.Release()
		b.buffer = nil
	})
}

type wgpuSampler struct {
	label   string
	data    common.SamplerStagingData
	sampler *wgpu.Sampler
	once    sync.Once
}

func (s *wgpuSampler) Label() string {
	return s.label
}

func (s *wgpuSampler) Data() common.SamplerStagingData {
	return s.data
}

func (s *wgpuSampler) Release() {
	s.once.Do(func() {
		s.sampler.Release()
		s.sampler = nil
	})
}

type wgpuMesh struct {
	label       string
	vertexCount uint32
	indexCount  uint32
	vertices    *wgpu.Buffer
	indices     *wgpu.Buffer
	once        sync.Once
}

func (m *wgpuMesh) Label() string {
	return m.label
}

func (m *wgpuMesh) VertexCount() uint32 {
	return m.vertexCount
}

func (m *wgpuMesh) IndexCount() uint32 {
	return m.indexCount
}

func (m *wgpuMesh) Release() {
	m.once.Do(func() {
		if m.vertices != nil {
			m.vertices.Release()
		}
		if m.indices != nil {
			m.indices.Release()
		}
		m.vertices, m.indices = nil, nil
	})
}
