package bind_group_provider

import (
	"testing"

	"github.com/Carmen-Shannon/oxy-graph/common"
	"github.com/Carmen-Shannon/oxy-graph/engine/renderer/gpu"
	"github.com/stretchr/testify/assert"
)

type stubBuffer struct{ label string }

func (b *stubBuffer) Label() string { return b.label }
func (b *stubBuffer) Size() uint64  { return 16 }
func (b *stubBuffer) Release()      {}

type stubTexture struct{ desc gpu.TextureDescriptor }

func (t *stubTexture) Label() string                     { return t.desc.Label }
func (t *stubTexture) Descriptor() gpu.TextureDescriptor { return t.desc }
func (t *stubTexture) Release()                          {}

type stubSampler struct{}

func (s *stubSampler) Label() string                   { return "smp" }
func (s *stubSampler) Data() common.SamplerStagingData { return common.SamplerStagingData{} }
func (s *stubSampler) Release()                        {}

func TestProviderBindings(t *testing.T) {
	quad := &stubBuffer{label: "quad"}
	blend := &stubBuffer{label: "channel"}
	p := NewBindGroupProvider("composite/1", 1, WithBuffer(0, quad))
	p.SetBuffer(1, blend)

	assert.Equal(t, "composite/1", p.Label())
	assert.Equal(t, 1, p.Group())
	assert.Equal(t, []int{0, 1}, p.Bindings())
	assert.Same(t, quad, p.Buffer(0))
	assert.Same(t, blend, p.Buffer(1))
	assert.Nil(t, p.Texture(0))
	assert.Nil(t, p.BindGroup())

	// releasing without a backend bind group is a no-op
	p.Release()
	assert.Nil(t, p.BindGroup())
}

func TestProviderChannel(t *testing.T) {
	tex := &stubTexture{desc: gpu.TextureDescriptor{Label: "src", Width: 4, Height: 4}}
	smp := &stubSampler{}
	p := NewBindGroupProvider("composite/0", 0, WithChannel(tex, smp))

	assert.Equal(t, []int{0, 1}, p.Bindings())
	assert.Same(t, tex, p.Texture(0))
	assert.Same(t, smp, p.Sampler(1))
	assert.Nil(t, p.Sampler(0))
}
