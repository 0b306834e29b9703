package renderer

import (
	"errors"
	"fmt"
	"sync"

	"github.com/Carmen-Shannon/oxy-graph/common"
	"github.com/Carmen-Shannon/oxy-graph/engine/renderer/bind_group_provider"
	"github.com/Carmen-Shannon/oxy-graph/engine/renderer/gpu"
	"github.com/Carmen-Shannon/oxy-graph/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-graph/engine/renderer/shader"
	"github.com/cogentcore/webgpu/wgpu"
)

// copyRowAlignment is the row pitch alignment of texture to buffer copies.
const copyRowAlignment = 256

// wgpuProgram holds the device objects of one registered pipeline. Render pipeline objects
// depend on the target format and on whether a depth attachment is bound, so they are
// created on first use per combination.
type wgpuProgram struct {
	vertex, fragment *wgpu.ShaderModule
	bindGroupLayouts []*wgpu.BindGroupLayout
	layout           *wgpu.PipelineLayout
	targets          map[wgpuTargetKey]*wgpu.RenderPipeline
}

type wgpuTargetKey struct {
	format wgpu.TextureFormat
	depth  bool
}

// wgpuRendererBackendImpl renders the graph headless on a WebGPU device. Each frame records
// every pass into one command encoder; nothing reaches the queue before Submit.
type wgpuRendererBackendImpl struct {
	mu     *sync.Mutex
	device *wgpu.Device
	queue  *wgpu.Queue

	instance *wgpu.Instance
	adapter  *wgpu.Adapter

	programs map[string]*wgpuProgram

	// frame state, valid between BeginFrame and Submit or DiscardFrame
	frameEncoder    *wgpu.CommandEncoder
	frameBindGroups []*wgpu.BindGroup
}

var _ RendererBackend = &wgpuRendererBackendImpl{}

func newWGPURendererBackend(forceFallbackAdapter bool) (*wgpuRendererBackendImpl, error) {
	b := &wgpuRendererBackendImpl{
		mu:       &sync.Mutex{},
		instance: wgpu.CreateInstance(nil),
		programs: make(map[string]*wgpuProgram),
	}

	a, err := b.instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		ForceFallbackAdapter: forceFallbackAdapter,
		PowerPreference:      wgpu.PowerPreferenceHighPerformance,
	})
	if err != nil {
		b.instance.Release()
		return nil, fmt.Errorf("wgpu backend: request adapter: %w", err)
	}
	b.adapter = a

	// groups 0-3 plus up to four auxiliary channels
	limits := wgpu.DefaultLimits()
	limits.MaxBindGroups = 8

	d, err := a.RequestDevice(&wgpu.DeviceDescriptor{
		Label: "Graph Device",
		RequiredLimits: &wgpu.RequiredLimits{
			Limits: limits,
		},
	})
	if err != nil {
		a.Release()
		b.instance.Release()
		return nil, fmt.Errorf("wgpu backend: request device: %w", err)
	}
	b.device = d
	b.queue = d.GetQueue()

	common.Logger().Info("wgpu backend ready", "fallback", forceFallbackAdapter)
	return b, nil
}

func (b *wgpuRendererBackendImpl) Type() RendererBackendType {
	return BackendTypeWGPU
}

func (b *wgpuRendererBackendImpl) CreateTexture(desc gpu.TextureDescriptor) (gpu.Texture, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	usage := wgpu.TextureUsageRenderAttachment
	if desc.Format != gpu.DepthFormat {
		usage |= wgpu.TextureUsageTextureBinding | wgpu.TextureUsageCopyDst | wgpu.TextureUsageCopySrc
	}
	tex, err := b.device.CreateTexture(&wgpu.TextureDescriptor{
		Label: desc.Label,
		Size: wgpu.Extent3D{
			Width:              desc.Width,
			Height:             desc.Height,
			DepthOrArrayLayers: desc.Layers(),
		},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     wgpu.TextureDimension2D,
		Format:        desc.Format,
		Usage:         usage,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create texture %q: %w", desc.Label, err)
	}

	view, err := tex.CreateView(&wgpu.TextureViewDescriptor{
		Label:           desc.Label + " View",
		Format:          desc.Format,
		Dimension:       desc.Dimension,
		BaseMipLevel:    0,
		MipLevelCount:   1,
		BaseArrayLayer:  0,
		ArrayLayerCount: desc.Layers(),
		Aspect:          wgpu.TextureAspectAll,
	})
	if err != nil {
		tex.Release()
		return nil, fmt.Errorf("failed to create view of %q: %w", desc.Label, err)
	}

	t := &wgpuTexture{desc: desc, texture: tex, view: view, attachment: view}
	if desc.Layers() > 1 {
		t.attachment, err = tex.CreateView(&wgpu.TextureViewDescriptor{
			Label:           desc.Label + " Attachment",
			Format:          desc.Format,
			Dimension:       wgpu.TextureViewDimension2D,
			MipLevelCount:   1,
			ArrayLayerCount: 1,
			Aspect:          wgpu.TextureAspectAll,
		})
		if err != nil {
			view.Release()
			tex.Release()
			return nil, fmt.Errorf("failed to create attachment view of %q: %w", desc.Label, err)
		}
	}
	return t, nil
}

func (b *wgpuRendererBackendImpl) CreateBuffer(label string, size uint64) (gpu.Buffer, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	buf, err := b.device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: label,
		Size: size,
		// instanced material blocks bind the same buffer as a read-only storage array
		Usage: wgpu.BufferUsageUniform | wgpu.BufferUsageStorage | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create buffer %q: %w", label, err)
	}
	return &wgpuBuffer{label: label, size: size, buffer: buf}, nil
}

func (b *wgpuRendererBackendImpl) CreateSampler(label string, data common.SamplerStagingData) (gpu.Sampler, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	samp, err := b.device.CreateSampler(&wgpu.SamplerDescriptor{
		Label:         label,
		AddressModeU:  common.Coalesce(data.AddressModeU, wgpu.AddressModeRepeat),
		AddressModeV:  common.Coalesce(data.AddressModeV, wgpu.AddressModeRepeat),
		AddressModeW:  common.Coalesce(data.AddressModeW, wgpu.AddressModeRepeat),
		MagFilter:     common.Coalesce(data.MagFilter, wgpu.FilterModeLinear),
		MinFilter:     common.Coalesce(data.MinFilter, wgpu.FilterModeLinear),
		MipmapFilter:  common.Coalesce(data.MipmapFilter, wgpu.MipmapFilterModeLinear),
		LodMinClamp:   common.Coalesce(data.LodMinClamp, 0.0),
		LodMaxClamp:   common.Coalesce(data.LodMaxClamp, 32.0),
		MaxAnisotropy: common.Coalesce(data.MaxAnisotropy, 1),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create sampler %q: %w", label, err)
	}
	return &wgpuSampler{label: label, data: data, sampler: samp}, nil
}

func (b *wgpuRendererBackendImpl) CreateMesh(label string, vertices []byte, vertexCount uint32, indices []uint32) (gpu.Mesh, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	m := &wgpuMesh{label: label, vertexCount: vertexCount, indexCount: uint32(len(indices))}
	if len(vertices) > 0 {
		buf, err := b.device.CreateBuffer(&wgpu.BufferDescriptor{
			Label: label + " Vertex Buffer",
			Size:  uint64(len(vertices)),
			Usage: wgpu.BufferUsageVertex | wgpu.BufferUsageCopyDst,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create vertex buffer of %q: %w", label, err)
		}
		b.queue.WriteBuffer(buf, 0, vertices)
		m.vertices = buf
	}
	if len(indices) > 0 {
		buf, err := b.device.CreateBuffer(&wgpu.BufferDescriptor{
			Label: label + " Index Buffer",
			Size:  uint64(len(indices) * 4),
			Usage: wgpu.BufferUsageIndex | wgpu.BufferUsageCopyDst,
		})
		if err != nil {
			m.Release()
			return nil, fmt.Errorf("failed to create index buffer of %q: %w", label, err)
		}
		b.queue.WriteBuffer(buf, 0, common.SliceToBytes(indices))
		m.indices = buf
	}
	return m, nil
}

func (b *wgpuRendererBackendImpl) WriteTexture(tex gpu.Texture, data common.TextureStagingData) error {
	t, ok := tex.(*wgpuTexture)
	if !ok {
		return fmt.Errorf("wgpu backend: texture %q was not created by this backend", tex.Label())
	}
	if data.Layer >= t.desc.Layers() {
		return fmt.Errorf("wgpu backend: upload into layer %d of %q with %d layer(s)", data.Layer, t.desc.Label, t.desc.Layers())
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.queue.WriteTexture(
		&wgpu.ImageCopyTexture{
			Texture:  t.texture,
			MipLevel: 0,
			Origin:   wgpu.Origin3D{Z: data.Layer},
			Aspect:   wgpu.TextureAspectAll,
		},
		data.Pixels,
		&wgpu.TextureDataLayout{
			Offset:       0,
			BytesPerRow:  data.Width * 4,
			RowsPerImage: data.Height,
		},
		&wgpu.Extent3D{
			Width:              data.Width,
			Height:             data.Height,
			DepthOrArrayLayers: 1,
		},
	)
	return nil
}

func (b *wgpuRendererBackendImpl) RegisterRenderPipeline(p pipeline.Pipeline) error {
	vertexShader := p.Shader(shader.ShaderTypeVertex)
	fragmentShader := p.Shader(shader.ShaderTypeFragment)
	if vertexShader == nil || fragmentShader == nil {
		return errors.New("both vertex and fragment shaders must be set to create a render pipeline")
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.programs[p.PipelineKey()]; ok {
		return nil
	}

	vs, err := b.device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label: vertexShader.Key(),
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{
			Code: vertexShader.Source(),
		},
	})
	if err != nil {
		return err
	}
	fs, err := b.device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label: fragmentShader.Key(),
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{
			Code: fragmentShader.Source(),
		},
	})
	if err != nil {
		vs.Release()
		return err
	}

	// groups the program skips get an empty layout so the pipeline layout has no holes
	descs := p.BindGroupLayoutDescriptors()
	maxGroup := -1
	for g := range descs {
		maxGroup = max(maxGroup, g)
	}
	layouts := make([]*wgpu.BindGroupLayout, maxGroup+1)
	for g := range layouts {
		desc, ok := descs[g]
		if !ok {
			desc = wgpu.BindGroupLayoutDescriptor{Label: fmt.Sprintf("%s empty group %d", p.PipelineKey(), g)}
		}
		layout, layoutErr := b.device.CreateBindGroupLayout(&desc)
		if layoutErr != nil {
			return fmt.Errorf("failed to create bind group layout for group %d: %w", g, layoutErr)
		}
		layouts[g] = layout
	}

	pipelineLayout, err := b.device.CreatePipelineLayout(&wgpu.PipelineLayoutDescriptor{
		Label:            p.PipelineKey(),
		BindGroupLayouts: layouts,
	})
	if err != nil {
		return err
	}

	b.programs[p.PipelineKey()] = &wgpuProgram{
		vertex:           vs,
		fragment:         fs,
		bindGroupLayouts: layouts,
		layout:           pipelineLayout,
		targets:          make(map[wgpuTargetKey]*wgpu.RenderPipeline),
	}
	return nil
}

// renderPipeline returns the render pipeline of a program for one target, creating it on
// first use. Callers hold b.mu.
func (b *wgpuRendererBackendImpl) renderPipeline(p pipeline.Pipeline, key wgpuTargetKey) (*wgpu.RenderPipeline, *wgpuProgram, error) {
	prog, ok := b.programs[p.PipelineKey()]
	if !ok {
		return nil, nil, fmt.Errorf("program %q is not registered", p.PipelineKey())
	}
	if rp, ok := prog.targets[key]; ok {
		return rp, prog, nil
	}

	target := wgpu.ColorTargetState{
		Format:    key.format,
		WriteMask: p.WriteMask(),
	}
	if p.BlendEnabled() {
		target.Blend = p.BlendState()
	}

	var depthStencil *wgpu.DepthStencilState
	if key.depth {
		depthCompare := wgpu.CompareFunctionLess
		if !p.DepthTestEnabled() {
			depthCompare = wgpu.CompareFunctionAlways
		}
		depthStencil = &wgpu.DepthStencilState{
			Format:              gpu.DepthFormat,
			DepthWriteEnabled:   p.DepthWriteEnabled(),
			DepthCompare:        depthCompare,
			DepthBias:           p.DepthBias(),
			DepthBiasSlopeScale: p.DepthBiasSlopeScale(),
			StencilFront: wgpu.StencilFaceState{
				Compare: wgpu.CompareFunctionAlways,
			},
			StencilBack: wgpu.StencilFaceState{
				Compare: wgpu.CompareFunctionAlways,
			},
		}
	}

	vertexShader := p.Shader(shader.ShaderTypeVertex)
	fragmentShader := p.Shader(shader.ShaderTypeFragment)
	created, err := b.device.CreateRenderPipeline(&wgpu.RenderPipelineDescriptor{
		Label:  p.PipelineKey() + " Render Pipeline",
		Layout: prog.layout,
		Vertex: wgpu.VertexState{
			Module:     prog.vertex,
			EntryPoint: vertexShader.EntryPoint(),
			Buffers:    p.VertexLayouts(),
		},
		Fragment: &wgpu.FragmentState{
			Module:     prog.fragment,
			EntryPoint: fragmentShader.EntryPoint(),
			Targets:    []wgpu.ColorTargetState{target},
		},
		Primitive: wgpu.PrimitiveState{
			Topology:  p.Topology(),
			FrontFace: p.FrontFace(),
			CullMode:  p.CullMode(),
		},
		Multisample: wgpu.MultisampleState{
			Count: 1,
			Mask:  0xFFFFFFFF,
		},
		DepthStencil: depthStencil,
	})
	if err != nil {
		return nil, nil, err
	}
	prog.targets[key] = created
	return created, prog, nil
}

func (b *wgpuRendererBackendImpl) BeginFrame() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.frameEncoder != nil {
		return errors.New("wgpu backend: previous frame not submitted or discarded")
	}
	encoder, err := b.device.CreateCommandEncoder(nil)
	if err != nil {
		return err
	}
	b.frameEncoder = encoder
	return nil
}

func (b *wgpuRendererBackendImpl) WriteBuffers(writes []bind_group_provider.BufferWrite) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, w := range writes {
		buf, ok := w.Buffer.(*wgpuBuffer)
		if !ok || buf.buffer == nil {
			continue
		}
		b.queue.WriteBuffer(buf.buffer, w.Offset, w.Data)
	}
}

func (b *wgpuRendererBackendImpl) EncodePass(pass PassEncoding) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.frameEncoder == nil {
		return errors.New("wgpu backend: no frame open")
	}
	target, ok := pass.Target.(*wgpuTexture)
	if !ok {
		return fmt.Errorf("wgpu backend: target of %q was not created by this backend", pass.Node)
	}
	var depth *wgpuTexture
	if pass.Depth != nil {
		if depth, ok = pass.Depth.(*wgpuTexture); !ok {
			return fmt.Errorf("wgpu backend: depth of %q was not created by this backend", pass.Node)
		}
	}

	rp, prog, err := b.renderPipeline(pass.Program, wgpuTargetKey{format: target.desc.Format, depth: depth != nil})
	if err != nil {
		return err
	}

	bindGroups := make([]*wgpu.BindGroup, len(prog.bindGroupLayouts))
	for g, layout := range prog.bindGroupLayouts {
		var provider bind_group_provider.BindGroupProvider
		if g < len(pass.BindGroups) {
			provider = pass.BindGroups[g]
		}
		bg, bgErr := b.createBindGroup(pass.Node, g, layout, pass.Program.BindGroupLayoutDescriptors()[g], provider)
		if bgErr != nil {
			return bgErr
		}
		bindGroups[g] = bg
		b.frameBindGroups = append(b.frameBindGroups, bg)
		if provider != nil {
			provider.SetBindGroup(bg)
		}
	}

	desc := &wgpu.RenderPassDescriptor{
		Label: pass.Node,
		ColorAttachments: []wgpu.RenderPassColorAttachment{
			{
				View:    target.attachment,
				LoadOp:  wgpu.LoadOpClear,
				StoreOp: wgpu.StoreOpStore,
				ClearValue: wgpu.Color{
					R: float64(pass.Clear[0]), G: float64(pass.Clear[1]),
					B: float64(pass.Clear[2]), A: float64(pass.Clear[3]),
				},
			},
		},
	}
	if depth != nil {
		desc.DepthStencilAttachment = &wgpu.RenderPassDepthStencilAttachment{
			View:            depth.attachment,
			DepthLoadOp:     wgpu.LoadOpClear,
			DepthStoreOp:    wgpu.StoreOpDiscard,
			DepthClearValue: 1.0,
		}
	}

	rpe := b.frameEncoder.BeginRenderPass(desc)
	rpe.SetPipeline(rp)
	for g, bg := range bindGroups {
		rpe.SetBindGroup(uint32(g), bg, nil)
	}

	instances := max(pass.Instances, 1)
	if mesh, ok := pass.Mesh.(*wgpuMesh); ok && mesh != nil && mesh.vertices != nil {
		rpe.SetVertexBuffer(0, mesh.vertices, 0, wgpu.WholeSize)
		if mesh.indices != nil {
			rpe.SetIndexBuffer(mesh.indices, wgpu.IndexFormatUint32, 0, wgpu.WholeSize)
			rpe.DrawIndexed(mesh.indexCount, instances, 0, 0, 0)
		} else {
			rpe.Draw(mesh.vertexCount, instances, 0, 0)
		}
	} else {
		rpe.Draw(pass.Vertices, instances, 0, 0)
	}
	rpe.End()
	rpe.Release()
	return nil
}

// createBindGroup builds a frame-lifetime bind group for group g. Empty groups bind an
// empty bind group.
func (b *wgpuRendererBackendImpl) createBindGroup(node string, g int, layout *wgpu.BindGroupLayout, desc wgpu.BindGroupLayoutDescriptor, provider bind_group_provider.BindGroupProvider) (*wgpu.BindGroup, error) {
	entries := make([]wgpu.BindGroupEntry, 0, len(desc.Entries))
	for _, entry := range desc.Entries {
		binding := int(entry.Binding)
		if provider == nil {
			return nil, fmt.Errorf("pass %q: group %d has no bindings", node, g)
		}

		isTexture := entry.Texture.SampleType != wgpu.TextureSampleTypeUndefined
		isSampler := entry.Sampler.Type != wgpu.SamplerBindingTypeUndefined
		switch {
		case isTexture:
			tex, ok := provider.Texture(binding).(*wgpuTexture)
			if !ok || tex.view == nil {
				return nil, fmt.Errorf("pass %q: group %d binding %d has no texture", node, g, binding)
			}
			entries = append(entries, wgpu.BindGroupEntry{Binding: entry.Binding, TextureView: tex.view})
		case isSampler:
			smp, ok := provider.Sampler(binding).(*wgpuSampler)
			if !ok || smp.sampler == nil {
				return nil, fmt.Errorf("pass %q: group %d binding %d has no sampler", node, g, binding)
			}
			entries = append(entries, wgpu.BindGroupEntry{Binding: entry.Binding, Sampler: smp.sampler})
		default:
			buf, ok := provider.Buffer(binding).(*wgpuBuffer)
			if !ok || buf.buffer == nil {
				return nil, fmt.Errorf("pass %q: group %d binding %d has no buffer", node, g, binding)
			}
			entries = append(entries, wgpu.BindGroupEntry{
				Binding: entry.Binding,
				Buffer:  buf.buffer,
				Offset:  0,
				Size:    wgpu.WholeSize,
			})
		}
	}

	return b.device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:   fmt.Sprintf("%s Bind Group %d", node, g),
		Layout:  layout,
		Entries: entries,
	})
}

func (b *wgpuRendererBackendImpl) Submit() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.frameEncoder == nil {
		return errors.New("wgpu backend: no frame open")
	}
	defer b.endFrame()

	commandBuffer, err := b.frameEncoder.Finish(nil)
	if err != nil {
		return err
	}
	defer commandBuffer.Release()
	b.queue.Submit(commandBuffer)
	return nil
}

func (b *wgpuRendererBackendImpl) DiscardFrame() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.endFrame()
}

// endFrame releases the frame encoder and bind groups. Callers hold b.mu.
func (b *wgpuRendererBackendImpl) endFrame() {
	if b.frameEncoder != nil {
		b.frameEncoder.Release()
		b.frameEncoder = nil
	}
	for _, bg := range b.frameBindGroups {
		bg.Release()
	}
	b.frameBindGroups = b.frameBindGroups[:0]
}

func (b *wgpuRendererBackendImpl) ReadPixels(tex gpu.Texture) (common.TextureStagingData, error) {
	t, ok := tex.(*wgpuTexture)
	if !ok {
		return common.TextureStagingData{}, fmt.Errorf("wgpu backend: texture %q was not created by this backend", tex.Label())
	}
	if gpu.BytesPerTexel(t.desc.Format) != 4 {
		return common.TextureStagingData{}, fmt.Errorf("wgpu backend: read back of %q needs a four byte format", t.desc.Label)
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	width, height := t.desc.Width, t.desc.Height
	rowBytes := width * 4
	pitch := (rowBytes + copyRowAlignment - 1) / copyRowAlignment * copyRowAlignment
	size := uint64(pitch) * uint64(height)

	staging, err := b.device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: t.desc.Label + " Readback",
		Size:  size,
		Usage: wgpu.BufferUsageMapRead | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		return common.TextureStagingData{}, err
	}
	defer staging.Release()

	encoder, err := b.device.CreateCommandEncoder(nil)
	if err != nil {
		return common.TextureStagingData{}, err
	}
	defer encoder.Release()
	encoder.CopyTextureToBuffer(
		&wgpu.ImageCopyTexture{Texture: t.texture, Aspect: wgpu.TextureAspectAll},
		&wgpu.ImageCopyBuffer{
			Buffer: staging,
			Layout: wgpu.TextureDataLayout{BytesPerRow: pitch, RowsPerImage: height},
		},
		&wgpu.Extent3D{Width: width, Height: height, DepthOrArrayLayers: 1},
	)
	commandBuffer, err := encoder.Finish(nil)
	if err != nil {
		return common.TextureStagingData{}, err
	}
	defer commandBuffer.Release()
	b.queue.Submit(commandBuffer)

	var mapStatus wgpu.BufferMapAsyncStatus
	if err := staging.MapAsync(wgpu.MapModeRead, 0, size, func(status wgpu.BufferMapAsyncStatus) {
		mapStatus = status
	}); err != nil {
		return common.TextureStagingData{}, err
	}
	b.device.Poll(true, nil)
	if mapStatus != wgpu.BufferMapAsyncStatusSuccess {
		return common.TextureStagingData{}, fmt.Errorf("wgpu backend: map read back of %q failed with status %d", t.desc.Label, mapStatus)
	}
	defer staging.Unmap()

	mapped := staging.GetMappedRange(0, uint(size))
	pix := make([]byte, int(rowBytes)*int(height))
	for y := range int(height) {
		copy(pix[y*int(rowBytes):(y+1)*int(rowBytes)], mapped[y*int(pitch):])
	}
	if t.desc.Format == wgpu.TextureFormatBGRA8Unorm || t.desc.Format == wgpu.TextureFormatBGRA8UnormSrgb {
		for i := 0; i < len(pix); i += 4 {
			pix[i], pix[i+2] = pix[i+2], pix[i]
		}
	}
	return common.TextureStagingData{Pixels: pix, Width: width, Height: height}, nil
}

func (b *wgpuRendererBackendImpl) Release() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.endFrame()
	for _, prog := range b.programs {
		for _, rp := range prog.targets {
			rp.Release()
		}
		prog.layout.Release()
		for _, l := range prog.bindGroupLayouts {
			l.Release()
		}
		prog.vertex.Release()
		prog.fragment.Release()
	}
	b.programs = make(map[string]*wgpuProgram)
	if b.queue != nil {
		b.queue.Release()
	}
	if b.device != nil {
		b.device.Release()
	}
	if b.adapter != nil {
		b.adapter.Release()
	}
	if b.instance != nil {
		b.instance.Release()
	}
	b.queue, b.device, b.adapter, b.instance = nil, nil, nil, nil
}
