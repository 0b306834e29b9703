package renderer

import (
	"fmt"
	"sync"

	"github.com/Carmen-Shannon/oxy-graph/common"
	"github.com/Carmen-Shannon/oxy-graph/engine/renderer/gpu"
	"github.com/chewxy/math32"
	"github.com/cogentcore/webgpu/wgpu"
)

// softwareTexture stores RGBA texels as float32, layer-major then row-major. Eight bit
// formats are quantized on store so reads match what a GPU target would hold.
type softwareTexture struct {
	desc   gpu.TextureDescriptor
	texels []float32
	owner  *softwareRendererBackendImpl
	once   sync.Once
}

var _ gpu.Texture = &softwareTexture{}

func (t *softwareTexture) Label() string {
	return t.desc.Label
}

func (t *softwareTexture) Descriptor() gpu.TextureDescriptor {
	return t.desc
}

func (t *softwareTexture) Release() {
	t.once.Do(func() {
		t.owner.free(t.desc.ByteSize())
		t.texels = nil
	})
}

func (t *softwareTexture) offset(layer, x, y int) int {
	w, h := int(t.desc.Width), int(t.desc.Height)
	return ((layer*h+y)*w + x) * 4
}

func (t *softwareTexture) texel(layer, x, y int) [4]float32 {
	i := t.offset(layer, x, y)
	return [4]float32{t.texels[i], t.texels[i+1], t.texels[i+2], t.texels[i+3]}
}

func (t *softwareTexture) store(layer, x, y int, c [4]float32) {
	if unorm8(t.desc.Format) {
		for k := range c {
			c[k] = math32.Round(common.Saturate(c[k])*255) / 255
		}
	}
	i := t.offset(layer, x, y)
	copy(t.texels[i:i+4], c[:])
}

func (t *softwareTexture) fill(c [4]float32) {
	for y := range int(t.desc.Height) {
		for x := range int(t.desc.Width) {
			t.store(0, x, y, c)
		}
	}
}

func (t *softwareTexture) write(data common.TextureStagingData) error {
	if data.Width != t.desc.Width || data.Height != t.desc.Height {
		return fmt.Errorf("software backend: upload of %dx%d into %q of %dx%d", data.Width, data.Height, t.desc.Label, t.desc.Width, t.desc.Height)
	}
	if data.Layer >= t.desc.Layers() {
		return fmt.Errorf("software backend: upload into layer %d of %q with %d layer(s)", data.Layer, t.desc.Label, t.desc.Layers())
	}
	if len(data.Pixels) != int(data.Width)*int(data.Height)*4 {
		return fmt.Errorf("software backend: upload into %q has %d bytes, want %d", t.desc.Label, len(data.Pixels), data.Width*data.Height*4)
	}
	base := t.offset(int(data.Layer), 0, 0)
	for i, p := range data.Pixels {
		t.texels[base+i] = float32(p) / 255
	}
	return nil
}

func (t *softwareTexture) read() (common.TextureStagingData, error) {
	if t.texels == nil {
		return common.TextureStagingData{}, fmt.Errorf("software backend: texture %q was released", t.desc.Label)
	}
	n := int(t.desc.Width) * int(t.desc.Height) * 4
	pix := make([]byte, n)
	for i := range n {
		pix[i] = uint8(math32.Round(common.Saturate(t.texels[i]) * 255))
	}
	return common.TextureStagingData{Pixels: pix, Width: t.desc.Width, Height: t.desc.Height}, nil
}

// sample filters layer 0 at normalized coordinates. Cube textures are sampled on their
// first face.
func (t *softwareTexture) sample(s common.SamplerStagingData, u, v float32) [4]float32 {
	w, h := int(t.desc.Width), int(t.desc.Height)
	if s.MagFilter == wgpu.FilterModeNearest {
		x := address(int(math32.Floor(u*float32(w))), w, s.AddressModeU)
		y := address(int(math32.Floor(v*float32(h))), h, s.AddressModeV)
		return t.texel(0, x, y)
	}

	fx := u*float32(w) - 0.5
	fy := v*float32(h) - 0.5
	x0f, y0f := math32.Floor(fx), math32.Floor(fy)
	tx, ty := fx-x0f, fy-y0f
	x0, y0 := int(x0f), int(y0f)
	xa, xb := address(x0, w, s.AddressModeU), address(x0+1, w, s.AddressModeU)
	ya, yb := address(y0, h, s.AddressModeV), address(y0+1, h, s.AddressModeV)

	top := common.MixColor(t.texel(0, xa, ya), t.texel(0, xb, ya), tx)
	bottom := common.MixColor(t.texel(0, xa, yb), t.texel(0, xb, yb), tx)
	return common.MixColor(top, bottom, ty)
}

// address maps texel index i into [0, n). Any mode other than clamp or mirror repeats.
func address(i, n int, mode wgpu.AddressMode) int {
	switch mode {
	case wgpu.AddressModeClampToEdge:
		return min(max(i, 0), n-1)
	case wgpu.AddressModeMirrorRepeat:
		period := 2 * n
		m := ((i % period) + period) % period
		if m >= n {
			m = period - 1 - m
		}
		return m
	default:
		return ((i % n) + n) % n
	}
}

func unorm8(f wgpu.TextureFormat) bool {
	switch f {
	case wgpu.TextureFormatRGBA8Unorm, wgpu.TextureFormatRGBA8UnormSrgb,
		wgpu.TextureFormatBGRA8Unorm, wgpu.TextureFormatBGRA8UnormSrgb:
		return true
	default:
		return false
	}
}

type softwareBuffer struct {
	label string
	data  []byte
	owner *softwareRendererBackendImpl
	once  sync.Once
}

func (b *softwareBuffer) Label() string {
	return b.label
}

func (b *softwareBuffer) Size() uint64 {
	return uint64(len(b.data))
}

func (b *softwareBuffer) Release() {
	b.once.Do(func() {
		b.owner.free(uint64(len(b.data)))
	})
}

type softwareSampler struct {
	label string
	data  common.SamplerStagingData
}

func (s *softwareSampler) Label() string {
	return s.label
}

func (s *softwareSampler) Data() common.SamplerStagingData {
	return s.data
}

func (s *softwareSampler) Release() {}

type softwareMesh struct {
	label       string
	vertexCount uint32
	vertices    []byte
	indices     []uint32
	size        uint64
	owner       *softwareRendererBackendImpl
	once        sync.Once
}

func (m *softwareMesh) Label() string {
	return m.label
}

func (m *softwareMesh) VertexCount() uint32 {
	return m.vertexCount
}

func (m *softwareMesh) IndexCount() uint32 {
	return uint32(len(m.indices))
}

func (m *softwareMesh) Release() {
	m.once.Do(func() {
		m.owner.free(m.size)
	})
}
