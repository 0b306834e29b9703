package renderer

import (
	"errors"
	"fmt"
	"runtime"
	"sync"

	"github.com/Carmen-Shannon/oxy-graph/common"
	"github.com/Carmen-Shannon/oxy-graph/engine/renderer/bind_group_provider"
	"github.com/Carmen-Shannon/oxy-graph/engine/renderer/gpu"
	"github.com/Carmen-Shannon/oxy-graph/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-graph/engine/renderer/uniform"
	"golang.org/x/sync/errgroup"
)

var errBudgetExhausted = errors.New("software backend memory budget exhausted")

// softwarePass is one recorded pass, resolved to CPU objects at encode time.
type softwarePass struct {
	node     string
	fragment pipeline.SoftwareFragment
	target   *softwareTexture
	clear     [4]float32
	instances int
	channels  []softwareChannel
	uniforms map[uniform.Domain]*softwareBuffer
}

type softwareChannel struct {
	tex     *softwareTexture
	sampler common.SamplerStagingData
}

// softwareRendererBackendImpl renders fullscreen and sprite passes on the CPU by evaluating
// each program's software fragment once per target pixel. Passes are recorded by EncodePass and
// only run on Submit, so a discarded frame leaves every texture untouched.
type softwareRendererBackendImpl struct {
	mu *sync.Mutex

	// budget caps the bytes of live textures and buffers, zero for no cap
	budget uint64
	used   uint64

	// workers bounds the rows shaded concurrently
	workers int

	inFrame bool
	writes  []bind_group_provider.BufferWrite
	passes  []softwarePass
}

var _ RendererBackend = &softwareRendererBackendImpl{}

func newSoftwareRendererBackend(budget uint64, workers int) *softwareRendererBackendImpl {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	return &softwareRendererBackendImpl{
		mu:      &sync.Mutex{},
		budget:  budget,
		workers: workers,
	}
}

func (b *softwareRendererBackendImpl) Type() RendererBackendType {
	return BackendTypeSoftware
}

// reserve accounts size bytes against the budget.
func (b *softwareRendererBackendImpl) reserve(label string, size uint64) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.budget > 0 && b.used+size > b.budget {
		return fmt.Errorf("%q needs %d bytes, %d of %d in use: %w", label, size, b.used, b.budget, errBudgetExhausted)
	}
	b.used += size
	return nil
}

func (b *softwareRendererBackendImpl) free(size uint64) {
	b.mu.Lock()
	b.used -= size
	b.mu.Unlock()
}

func (b *softwareRendererBackendImpl) CreateTexture(desc gpu.TextureDescriptor) (gpu.Texture, error) {
	if desc.Width == 0 || desc.Height == 0 {
		return nil, fmt.Errorf("software backend: texture %q has zero extent", desc.Label)
	}
	if err := b.reserve(desc.Label, desc.ByteSize()); err != nil {
		return nil, err
	}
	return &softwareTexture{
		desc:   desc,
		texels: make([]float32, int(desc.Width)*int(desc.Height)*int(desc.Layers())*4),
		owner:  b,
	}, nil
}

func (b *softwareRendererBackendImpl) CreateBuffer(label string, size uint64) (gpu.Buffer, error) {
	if err := b.reserve(label, size); err != nil {
		return nil, err
	}
	return &softwareBuffer{label: label, data: make([]byte, size), owner: b}, nil
}

func (b *softwareRendererBackendImpl) CreateSampler(label string, data common.SamplerStagingData) (gpu.Sampler, error) {
	return &softwareSampler{label: label, data: data}, nil
}

func (b *softwareRendererBackendImpl) CreateMesh(label string, vertices []byte, vertexCount uint32, indices []uint32) (gpu.Mesh, error) {
	size := uint64(len(vertices) + len(indices)*4)
	if err := b.reserve(label, size); err != nil {
		return nil, err
	}
	return &softwareMesh{
		label:       label,
		vertexCount: vertexCount,
		vertices:    append([]byte(nil), vertices...),
		indices:     append([]uint32(nil), indices...),
		size:        size,
		owner:       b,
	}, nil
}

func (b *softwareRendererBackendImpl) WriteTexture(tex gpu.Texture, data common.TextureStagingData) error {
	t, ok := tex.(*softwareTexture)
	if !ok {
		return fmt.Errorf("software backend: texture %q was not created by this backend", tex.Label())
	}
	return t.write(data)
}

func (b *softwareRendererBackendImpl) RegisterRenderPipeline(p pipeline.Pipeline) error {
	if p.SoftwareFragment() == nil {
		common.Logger().Debug("program has no software fragment, its passes will fail on this backend", "program", p.PipelineKey())
	}
	return nil
}

func (b *softwareRendererBackendImpl) BeginFrame() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.inFrame {
		return errors.New("software backend: previous frame not submitted or discarded")
	}
	b.inFrame = true
	b.writes = b.writes[:0]
	b.passes = b.passes[:0]
	return nil
}

func (b *softwareRendererBackendImpl) WriteBuffers(writes []bind_group_provider.BufferWrite) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.writes = append(b.writes, writes...)
}

func (b *softwareRendererBackendImpl) EncodePass(pass PassEncoding) error {
	fragment := pass.Program.SoftwareFragment()
	if fragment == nil {
		return fmt.Errorf("software backend: %s: %w", pass.Program.PipelineKey(), ErrNoSoftwareFragment)
	}
	target, ok := pass.Target.(*softwareTexture)
	if !ok {
		return fmt.Errorf("software backend: target of %q was not created by this backend", pass.Node)
	}

	sp := softwarePass{
		node:      pass.Node,
		fragment:  fragment,
		target:    target,
		clear:     pass.Clear,
		instances: int(max(pass.Instances, 1)),
		uniforms:  make(map[uniform.Domain]*softwareBuffer, len(pass.Uniforms)),
	}
	for k := 0; ; k++ {
		g := uniform.ChannelGroup(k)
		if g >= len(pass.BindGroups) || pass.BindGroups[g] == nil {
			break
		}
		bg := pass.BindGroups[g]
		tex, ok := bg.Texture(0).(*softwareTexture)
		if !ok {
			return fmt.Errorf("software backend: channel %d of %q has no texture", k, pass.Node)
		}
		ch := softwareChannel{tex: tex}
		if smp := bg.Sampler(1); smp != nil {
			ch.sampler = smp.Data()
		}
		sp.channels = append(sp.channels, ch)
	}
	for d, buf := range pass.Uniforms {
		sb, ok := buf.(*softwareBuffer)
		if !ok {
			return fmt.Errorf("software backend: %s buffer of %q was not created by this backend", d, pass.Node)
		}
		sp.uniforms[d] = sb
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.inFrame {
		return errors.New("software backend: no frame open")
	}
	b.passes = append(b.passes, sp)
	return nil
}

func (b *softwareRendererBackendImpl) Submit() error {
	b.mu.Lock()
	writes, passes := b.writes, b.passes
	b.writes, b.passes = nil, nil
	b.inFrame = false
	b.mu.Unlock()

	for _, w := range writes {
		sb, ok := w.Buffer.(*softwareBuffer)
		if !ok {
			return fmt.Errorf("software backend: buffer %q was not created by this backend", w.Buffer.Label())
		}
		if w.Offset+uint64(len(w.Data)) > uint64(len(sb.data)) {
			return fmt.Errorf("software backend: write of %d bytes at %d overflows buffer %q", len(w.Data), w.Offset, sb.label)
		}
		copy(sb.data[w.Offset:], w.Data)
	}
	for _, p := range passes {
		if err := b.run(p); err != nil {
			return fmt.Errorf("software backend: pass %q: %w", p.node, err)
		}
	}
	return nil
}

// run shades every pixel of layer 0 of the pass target, rows in parallel.
func (b *softwareRendererBackendImpl) run(p softwarePass) error {
	uniforms := make(map[uniform.Domain][]byte, len(p.uniforms))
	for d, buf := range p.uniforms {
		uniforms[d] = buf.data
	}

	w, h := int(p.target.desc.Width), int(p.target.desc.Height)
	p.target.fill(p.clear)

	var g errgroup.Group
	g.SetLimit(b.workers)
	for y := range h {
		g.Go(func() error {
			in := &softwareFragmentInput{
				resolution: [2]float32{float32(w), float32(h)},
				channels:   p.channels,
				uniforms:   uniforms,
				instances:  p.instances,
			}
			for x := range w {
				in.coord = [2]float32{float32(x) + 0.5, float32(y) + 0.5}
				in.dst = p.target.texel(0, x, y)
				p.target.store(0, x, y, p.fragment(in))
			}
			return nil
		})
	}
	return g.Wait()
}

func (b *softwareRendererBackendImpl) DiscardFrame() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.inFrame = false
	b.writes = b.writes[:0]
	b.passes = b.passes[:0]
}

func (b *softwareRendererBackendImpl) ReadPixels(tex gpu.Texture) (common.TextureStagingData, error) {
	t, ok := tex.(*softwareTexture)
	if !ok {
		return common.TextureStagingData{}, fmt.Errorf("software backend: texture %q was not created by this backend", tex.Label())
	}
	return t.read()
}

func (b *softwareRendererBackendImpl) Release() {
	b.DiscardFrame()
}

// softwareFragmentInput is the pipeline.FragmentInput of one pixel.
type softwareFragmentInput struct {
	coord, resolution [2]float32
	channels          []softwareChannel
	uniforms          map[uniform.Domain][]byte
	instances         int
	dst               [4]float32
}

func (in *softwareFragmentInput) Coord() [2]float32 {
	return in.coord
}

func (in *softwareFragmentInput) Resolution() [2]float32 {
	return in.resolution
}

func (in *softwareFragmentInput) UV() [2]float32 {
	return [2]float32{in.coord[0] / in.resolution[0], in.coord[1] / in.resolution[1]}
}

func (in *softwareFragmentInput) Sample(channel int, u, v float32) [4]float32 {
	if channel < 0 || channel >= len(in.channels) {
		return [4]float32{}
	}
	ch := in.channels[channel]
	return ch.tex.sample(ch.sampler, u, v)
}

func (in *softwareFragmentInput) Load(channel int, x, y int) [4]float32 {
	if channel < 0 || channel >= len(in.channels) {
		return [4]float32{}
	}
	t := in.channels[channel].tex
	x = min(max(x, 0), int(t.desc.Width)-1)
	y = min(max(y, 0), int(t.desc.Height)-1)
	return t.texel(0, x, y)
}

func (in *softwareFragmentInput) Uniform(d uniform.Domain) []byte {
	return in.uniforms[d]
}

func (in *softwareFragmentInput) Instances() int {
	return in.instances
}

func (in *softwareFragmentInput) Destination() [4]float32 {
	return in.dst
}
