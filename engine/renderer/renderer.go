package renderer

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/Carmen-Shannon/oxy-graph/common"
	"github.com/Carmen-Shannon/oxy-graph/engine/profiler"
	"github.com/Carmen-Shannon/oxy-graph/engine/renderer/bind_group_provider"
	"github.com/Carmen-Shannon/oxy-graph/engine/renderer/gpu"
	"github.com/Carmen-Shannon/oxy-graph/engine/renderer/graph"
	"github.com/Carmen-Shannon/oxy-graph/engine/renderer/material"
	"github.com/Carmen-Shannon/oxy-graph/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-graph/engine/renderer/resource"
	"github.com/Carmen-Shannon/oxy-graph/engine/renderer/uniform"
	"github.com/cogentcore/webgpu/wgpu"
)

// nodeResources are the table handles owned by one node.
type nodeResources struct {
	output   resource.Handle
	buffers  map[uniform.Domain]resource.Handle
	sizes    map[uniform.Domain]uint64
	samplers []resource.Handle
}

// renderer is the implementation of the Renderer interface.
type renderer struct {
	mu *sync.Mutex

	pipelineCache map[string]pipeline.Pipeline

	backendType RendererBackendType
	backend     RendererBackend

	registry uniform.Registry
	table    resource.Table
	profiler *profiler.Profiler

	surface graph.Surface
	builder graph.Builder
	descs   []graph.NodeDescriptor
	graph   *graph.Graph

	nodes     map[string]*nodeResources
	shared    map[uniform.Domain]resource.Handle
	externals map[string]resource.Handle

	frameCount uint64

	// Pre-creation config collected from builder options
	forceFallbackAdapter bool
	memoryBudget         uint64
	workers              int
}

// Renderer defines the interface for the render graph executor.
//
// This is a high-level API that owns the resource table, the program cache and the current
// execution plan. A graph is built from node descriptors once, then executed once per frame
// in its cached order. Rebuilding happens only when the node set, the programs or the surface
// change.
type Renderer interface {
	// Build validates a node set against the registered programs and the uniform registry,
	// caches its execution plan and reconciles the resources it needs. Outputs of nodes that
	// keep their descriptor are reused, changed ones are reallocated and removed ones released.
	// On error the previously built graph stays in effect.
	//
	// Parameters:
	//   - descs: the node descriptors
	//
	// Returns:
	//   - error: a *graph.CycleError, *uniform.LayoutMismatchError, graph.ErrInvalidNode or
	//     *resource.OutOfDeviceMemoryError
	Build(descs ...graph.NodeDescriptor) error

	// Rebuild builds the current node set again, e.g. after programs or external textures
	// changed.
	//
	// Returns:
	//   - error: ErrNotBuilt before the first Build, otherwise as Build
	Rebuild() error

	// RenderFrame executes every pass of the plan once and submits the frame.
	// A failing pass aborts the frame: the remaining passes are skipped, nothing is
	// submitted and feedback swaps of the frame are reverted.
	//
	// Parameters:
	//   - ctx: cancelling it before submission discards the frame
	//   - frame: the per-frame uniform values
	//
	// Returns:
	//   - gpu.Texture: the read view of the master node's output
	//   - error: a *FramePassFailedError naming the failing node, the context error, or ErrNotBuilt
	RenderFrame(ctx context.Context, frame Frame) (gpu.Texture, error)

	// Resize changes the surface size and rebuilds the graph. Outputs that follow the surface
	// are reallocated; their contents are not preserved.
	//
	// Parameters:
	//   - width: the new width of the surface in pixels
	//   - height: the new height of the surface in pixels
	//
	// Returns:
	//   - error: an error if the rebuild fails
	Resize(width, height uint32) error

	// Upload registers or replaces an external texture under key. One face uploads a 2D
	// texture, six faces a cube texture in +X, -X, +Y, -Y, +Z, -Z order.
	//
	// Parameters:
	//   - key: the key nodes read the texture by through graph.External
	//   - faces: the RGBA8 pixels of each layer, all the same size
	//
	// Returns:
	//   - error: an error if the face count or sizes are invalid or allocation fails
	Upload(key string, faces ...common.TextureStagingData) error

	// UploadMesh creates a mesh for mesh programs.
	//
	// Parameters:
	//   - label: the mesh label
	//   - vertices: the packed vertex bytes matching the program's vertex layout
	//   - vertexCount: the number of vertices
	//   - indices: optional 32-bit indices
	//
	// Returns:
	//   - resource.Handle: the handle to reference from NodeFrame.Mesh
	//   - error: an OutOfDeviceMemoryError if allocation fails
	UploadMesh(label string, vertices []byte, vertexCount uint32, indices []uint32) (resource.Handle, error)

	// ReadPixels copies layer 0 of a texture back to the CPU as RGBA8.
	//
	// Parameters:
	//   - tex: a texture returned by RenderFrame or resolved through Table
	//
	// Returns:
	//   - common.TextureStagingData: the pixels
	//   - error: an error if the backend cannot read the texture back
	ReadPixels(tex gpu.Texture) (common.TextureStagingData, error)

	// Pipeline retrieves the cached Pipeline associated with the given key.
	// If the Pipeline does not exist, this will return nil.
	//
	// Parameters:
	//   - key: the unique identifier for the Pipeline to retrieve
	//
	// Returns:
	//   - pipeline.Pipeline: the Pipeline associated with the key, or nil if not found
	Pipeline(key string) pipeline.Pipeline

	// Pipelines retrieves a copy of the Pipeline cache.
	//
	// Returns:
	//   - map[string]pipeline.Pipeline: a map of pipeline keys to their corresponding Pipeline objects
	Pipelines() map[string]pipeline.Pipeline

	// RegisterPipelines registers one or more pipelines by preparing the corresponding
	// backend objects, then caching them by PipelineKey. Pipelines whose keys are already
	// registered are skipped to avoid duplicate GPU resource creation.
	//
	// Parameters:
	//   - pipelines: the Pipelines to register
	//
	// Returns:
	//   - error: an error if pipeline creation fails
	RegisterPipelines(pipelines ...pipeline.Pipeline) error

	// Table returns the resource table that owns every texture, buffer and sampler.
	Table() resource.Table

	// Registry returns the uniform layout registry programs are validated against.
	Registry() uniform.Registry

	// Graph returns the current execution plan, or nil before the first Build.
	Graph() *graph.Graph

	// FrameCount returns the number of frames submitted successfully.
	FrameCount() uint64

	// Backend returns the backend type in use.
	Backend() RendererBackendType

	// Release frees every resource and the backend.
	Release()
}

var _ Renderer = &renderer{}

func (r *renderer) Build(descs ...graph.NodeDescriptor) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.build(slices.Clone(descs))
}

func (r *renderer) Rebuild() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.graph == nil {
		return ErrNotBuilt
	}
	return r.build(r.descs)
}

func (r *renderer) Resize(width, height uint32) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	prev := r.surface
	r.surface.Width, r.surface.Height = width, height
	if r.graph == nil {
		return nil
	}
	if err := r.build(r.descs); err != nil {
		r.surface = prev
		return err
	}
	return nil
}

// build validates descs and reconciles node resources. Callers hold r.mu.
func (r *renderer) build(descs []graph.NodeDescriptor) error {
	externals := make(map[string]wgpu.TextureViewDimension, len(r.externals))
	for key, h := range r.externals {
		desc, err := r.table.Descriptor(h)
		if err != nil {
			return err
		}
		externals[key] = desc.Dimension
	}

	g, err := r.builder.SetNodes(descs).Build(graph.BuildContext{
		Registry:  r.registry,
		Programs:  r.pipelineCache,
		Externals: externals,
		Surface:   r.surface,
	})
	if err != nil {
		return err
	}

	st := newStaging(r)
	if err := st.stage(g); err != nil {
		st.rollback()
		return err
	}
	st.commit(g)

	r.graph = g
	r.descs = descs
	common.Logger().Info("render graph built", "nodes", g.Len(), "master", g.Master().Name(), "order", g.Order())
	return nil
}

// staging prepares the resources of a new plan next to the live ones. Nothing the current
// graph uses is resized or released until commit, so a failed build leaves it renderable.
type staging struct {
	r      *renderer
	nodes  map[string]*nodeResources
	shared map[uniform.Domain]resource.Handle

	// fresh are the handles allocated for the new plan, released by rollback.
	fresh []resource.Handle
	// stale are live handles the new plan replaces, released by commit.
	stale []resource.Handle
}

func newStaging(r *renderer) *staging {
	return &staging{
		r:      r,
		nodes:  make(map[string]*nodeResources, len(r.nodes)),
		shared: maps.Clone(r.shared),
	}
}

func (st *staging) stage(g *graph.Graph) error {
	for _, n := range g.Plan() {
		prev := st.r.nodes[n.Name()]
		res := &nodeResources{
			buffers: make(map[uniform.Domain]resource.Handle),
			sizes:   make(map[uniform.Domain]uint64),
		}
		st.nodes[n.Name()] = res
		if err := st.stageOutput(n, prev, res); err != nil {
			return err
		}
		if err := st.stageBuffers(n, prev, res); err != nil {
			return err
		}
		if err := st.stageSamplers(n, prev, res); err != nil {
			return err
		}
	}

	// every channel must resolve once all outputs exist
	for _, n := range g.Plan() {
		for _, ch := range n.Descriptor.Inputs {
			if _, err := st.r.channelHandle(st.nodes, n, ch.Source); err != nil {
				return err
			}
		}
	}
	return nil
}

// stageOutput keeps the live output when its descriptor is unchanged and allocates a new one
// otherwise.
func (st *staging) stageOutput(n *graph.Node, prev *nodeResources, res *nodeResources) error {
	want := n.Output
	want.Format = common.Coalesce(want.Format, wgpu.TextureFormatRGBA8Unorm)
	want.Dimension = common.Coalesce(want.Dimension, wgpu.TextureViewDimension2D)

	if prev != nil && prev.output != 0 {
		have, err := st.r.table.Descriptor(prev.output)
		if err != nil {
			return err
		}
		if have == want {
			res.output = prev.output
			return nil
		}
		st.stale = append(st.stale, prev.output)
	}

	h, err := st.r.table.Allocate(want)
	if err != nil {
		return err
	}
	st.fresh = append(st.fresh, h)
	res.output = h
	return nil
}

// stageBuffers gives the node one buffer per declared material domain and makes sure a
// shared buffer exists for each camera and light domain it declares. Material domains the
// program reads per instance get room for material.MaxInstances blocks.
func (st *staging) stageBuffers(n *graph.Node, prev *nodeResources, res *nodeResources) error {
	instanced := make(map[uniform.Domain]bool)
	for _, ub := range n.Program.UniformBindings() {
		if !ub.Instanced {
			continue
		}
		if d, ok := st.r.registry.DomainForType(ub.TypeName); ok {
			instanced[d] = true
		}
	}

	for _, d := range n.Descriptor.Uniforms {
		layout, ok := st.r.registry.Layout(d)
		if !ok {
			return fmt.Errorf("renderer: node %q declares unknown domain %q", n.Name(), d)
		}
		if layout.Group != uniform.GroupMaterial {
			if _, ok := st.shared[d]; ok {
				continue
			}
			h, err := st.r.table.AllocateBuffer(string(d), layout.Size)
			if err != nil {
				return err
			}
			st.fresh = append(st.fresh, h)
			st.shared[d] = h
			continue
		}

		size := layout.Size
		if instanced[d] {
			size *= material.MaxInstances
		}
		if prev != nil {
			if h, ok := prev.buffers[d]; ok && prev.sizes[d] == size {
				res.buffers[d], res.sizes[d] = h, size
				continue
			}
		}
		h, err := st.r.table.AllocateBuffer(n.Name()+"/"+string(d), size)
		if err != nil {
			return err
		}
		st.fresh = append(st.fresh, h)
		res.buffers[d], res.sizes[d] = h, size
	}

	if prev != nil {
		for d, h := range prev.buffers {
			if res.buffers[d] != h {
				st.stale = append(st.stale, h)
			}
		}
	}
	return nil
}

func (st *staging) stageSamplers(n *graph.Node, prev *nodeResources, res *nodeResources) error {
	res.samplers = make([]resource.Handle, 0, len(n.Descriptor.Inputs))
	for i, ch := range n.Descriptor.Inputs {
		h, err := st.r.table.AllocateSampler(fmt.Sprintf("%s/sampler%d", n.Name(), i), ch.Sampler)
		if err != nil {
			return err
		}
		st.fresh = append(st.fresh, h)
		res.samplers = append(res.samplers, h)
	}
	if prev != nil {
		st.stale = append(st.stale, prev.samplers...)
	}
	return nil
}

// rollback releases everything stage allocated, newest first.
func (st *staging) rollback() {
	for i := len(st.fresh) - 1; i >= 0; i-- {
		if err := st.r.table.Release(st.fresh[i]); err != nil {
			common.Logger().Warn("release failed", "handle", st.fresh[i], "err", err)
		}
	}
	common.Logger().Debug("staged build rolled back", "released", len(st.fresh))
}

// commit swaps the staged resources in and releases what the new plan no longer uses.
func (st *staging) commit(g *graph.Graph) {
	for _, h := range st.stale {
		if err := st.r.table.Release(h); err != nil {
			common.Logger().Warn("release failed", "handle", h, "err", err)
		}
	}
	for name, res := range st.r.nodes {
		if _, ok := g.Node(name); ok {
			continue
		}
		st.r.releaseNode(res)
		common.Logger().Debug("node resources released", "node", name)
	}
	st.r.nodes = st.nodes
	st.r.shared = st.shared

	for _, n := range g.Plan() {
		if err := st.r.table.SetProducer(st.nodes[n.Name()].output, n.Name()); err != nil {
			common.Logger().Warn("producer not recorded", "node", n.Name(), "err", err)
		}
		for _, ch := range n.Descriptor.Inputs {
			h, err := st.r.channelHandle(st.nodes, n, ch.Source)
			if err == nil {
				err = st.r.table.AddConsumer(h, n.Name())
			}
			if err != nil {
				common.Logger().Warn("consumer not recorded", "node", n.Name(), "channel", ch.Name, "err", err)
			}
		}
	}
}

func (r *renderer) releaseNode(res *nodeResources) {
	handles := append([]resource.Handle{res.output}, res.samplers...)
	for _, h := range res.buffers {
		handles = append(handles, h)
	}
	for _, h := range handles {
		if h == 0 {
			continue
		}
		if err := r.table.Release(h); err != nil {
			common.Logger().Warn("release failed", "handle", h, "err", err)
		}
	}
}

// channelHandle resolves an input source to the texture it reads from nodes.
func (r *renderer) channelHandle(nodes map[string]*nodeResources, n *graph.Node, src graph.ChannelSource) (resource.Handle, error) {
	switch src.Kind {
	case graph.SourceExternal:
		h, ok := r.externals[src.Ref]
		if !ok {
			return 0, fmt.Errorf("renderer: external texture %q is not uploaded", src.Ref)
		}
		return h, nil
	case graph.SourceNode:
		return nodes[src.Ref].output, nil
	default:
		return nodes[n.Name()].output, nil
	}
}

func (r *renderer) RenderFrame(ctx context.Context, frame Frame) (gpu.Texture, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.graph == nil {
		return nil, ErrNotBuilt
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.table.BeginFrame()
	if err := r.backend.BeginFrame(); err != nil {
		return nil, err
	}

	master, err := r.renderFrame(ctx, frame)
	if err != nil {
		r.backend.DiscardFrame()
		r.table.RevertFrame()
		common.Logger().Warn("frame aborted", "frame", r.frameCount, "err", err)
		return nil, err
	}

	r.frameCount++
	if r.profiler != nil {
		r.profiler.Tick()
	}
	return master, nil
}

// renderFrame records every pass, swapping feedback outputs right after their pass so later
// nodes read the current frame's output, then submits.
func (r *renderer) renderFrame(ctx context.Context, frame Frame) (gpu.Texture, error) {
	writes, err := r.blockWrites(frame)
	if err != nil {
		return nil, err
	}
	r.backend.WriteBuffers(writes)

	for _, n := range r.graph.Plan() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		start := time.Now()

		pass, err := r.passEncoding(n, frame.Nodes[n.Name()])
		if err == nil {
			err = r.backend.EncodePass(pass)
		}
		if err == nil && n.Swap {
			err = r.table.Swap(r.nodes[n.Name()].output)
		}
		if err != nil {
			return nil, &FramePassFailedError{Node: n.Name(), Err: err}
		}

		if r.profiler != nil {
			r.profiler.RecordPass(n.Name(), time.Since(start))
		}
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := r.backend.Submit(); err != nil {
		return nil, fmt.Errorf("renderer: submit: %w", err)
	}
	return r.table.ReadView(r.nodes[r.graph.Master().Name()].output)
}

// blockWrites encodes the shared and per-node blocks of a frame. Domains without a value
// keep the contents of their previous frame, except Quad which is filled in.
func (r *renderer) blockWrites(frame Frame) ([]bind_group_provider.BufferWrite, error) {
	var writes []bind_group_provider.BufferWrite

	for d, h := range r.shared {
		block, ok := frame.Shared[d]
		if !ok || block == nil {
			continue
		}
		data, err := r.registry.Encode(d, block)
		if err != nil {
			return nil, err
		}
		buf, err := r.table.Buffer(h)
		if err != nil {
			return nil, err
		}
		writes = append(writes, bind_group_provider.BufferWrite{Buffer: buf, Data: data})
	}

	for _, n := range r.graph.Plan() {
		nf := frame.Nodes[n.Name()]
		for d, h := range r.nodes[n.Name()].buffers {
			if instances, ok := nf.Instanced[d]; ok {
				data, err := r.encodeInstances(d, instances)
				if err != nil {
					return nil, &FramePassFailedError{Node: n.Name(), Err: err}
				}
				buf, err := r.table.Buffer(h)
				if err != nil {
					return nil, &FramePassFailedError{Node: n.Name(), Err: err}
				}
				writes = append(writes, bind_group_provider.BufferWrite{Buffer: buf, Data: data})
				continue
			}
			block := nf.Blocks[d]
			if block == nil && d == uniform.DomainQuad {
				block = &material.GPUQuadUniforms{
					Dimensions: [2]float32{float32(n.Output.Width), float32(n.Output.Height)},
					Time:       frame.Time,
					Frame:      float32(r.frameCount),
				}
			}
			if block == nil {
				continue
			}
			data, err := r.registry.Encode(d, block)
			if err != nil {
				return nil, &FramePassFailedError{Node: n.Name(), Err: err}
			}
			buf, err := r.table.Buffer(h)
			if err != nil {
				return nil, &FramePassFailedError{Node: n.Name(), Err: err}
			}
			writes = append(writes, bind_group_provider.BufferWrite{Buffer: buf, Data: data})
		}
	}
	return writes, nil
}

// encodeInstances packs one block per instance back to back at the layout stride.
func (r *renderer) encodeInstances(d uniform.Domain, blocks []uniform.Block) ([]byte, error) {
	if len(blocks) > material.MaxInstances {
		return nil, fmt.Errorf("%w: %s has %d, max %d", ErrTooManyInstances, d, len(blocks), material.MaxInstances)
	}
	var data []byte
	for i, block := range blocks {
		enc, err := r.registry.Encode(d, block)
		if err != nil {
			return nil, fmt.Errorf("%s instance %d: %w", d, i, err)
		}
		data = append(data, enc...)
	}
	return data, nil
}

// instanceCount is the explicit count, else the longest per-instance slice, else one.
func instanceCount(nf NodeFrame) uint32 {
	var longest uint32
	for _, blocks := range nf.Instanced {
		longest = max(longest, uint32(len(blocks)))
	}
	return common.Coalesce(nf.Instances, longest, 1)
}

// passEncoding resolves the views, buffers and samplers of one node for the current frame.
func (r *renderer) passEncoding(n *graph.Node, nf NodeFrame) (PassEncoding, error) {
	res := r.nodes[n.Name()]
	target, err := r.table.WriteView(res.output)
	if err != nil {
		return PassEncoding{}, err
	}
	depth, err := r.table.DepthView(res.output)
	if err != nil {
		return PassEncoding{}, err
	}

	groups := 0
	for g := range n.Program.BindGroupLayoutDescriptors() {
		groups = max(groups, g+1)
	}
	pass := PassEncoding{
		Node:       n.Name(),
		Program:    n.Program,
		Target:     target,
		Depth:      depth,
		Clear:      n.Descriptor.Clear,
		BindGroups: make([]bind_group_provider.BindGroupProvider, groups),
		Uniforms:   make(map[uniform.Domain]gpu.Buffer),
		Vertices:   common.Coalesce(nf.Vertices, 3),
		Instances:  instanceCount(nf),
	}

	for k, ch := range n.Descriptor.Inputs {
		h, err := r.channelHandle(r.nodes, n, ch.Source)
		if err != nil {
			return PassEncoding{}, err
		}
		tex, err := r.table.ReadView(h)
		if err != nil {
			return PassEncoding{}, err
		}
		smp, err := r.table.Sampler(res.samplers[k])
		if err != nil {
			return PassEncoding{}, err
		}
		g := uniform.ChannelGroup(k)
		if g >= len(pass.BindGroups) {
			continue
		}
		pass.BindGroups[g] = bind_group_provider.NewBindGroupProvider(
			fmt.Sprintf("%s/channel%d", n.Name(), k), g,
			bind_group_provider.WithChannel(tex, smp),
		)
	}

	for _, ub := range n.Program.UniformBindings() {
		d, ok := r.registry.DomainForType(ub.TypeName)
		if !ok {
			return PassEncoding{}, fmt.Errorf("group %d binding %d has unregistered type %q", ub.Group, ub.Binding, ub.TypeName)
		}
		h, ok := res.buffers[d]
		if !ok {
			h, ok = r.shared[d]
		}
		if !ok {
			return PassEncoding{}, fmt.Errorf("no buffer for domain %q", d)
		}
		buf, err := r.table.Buffer(h)
		if err != nil {
			return PassEncoding{}, err
		}
		if pass.BindGroups[ub.Group] == nil {
			pass.BindGroups[ub.Group] = bind_group_provider.NewBindGroupProvider(fmt.Sprintf("%s/group%d", n.Name(), ub.Group), ub.Group)
		}
		pass.BindGroups[ub.Group].SetBuffer(ub.Binding, buf)
		pass.Uniforms[d] = buf
	}

	if nf.Mesh != 0 {
		mesh, err := r.table.Mesh(nf.Mesh)
		if err != nil {
			return PassEncoding{}, err
		}
		pass.Mesh = mesh
	}
	return pass, nil
}

func (r *renderer) Upload(key string, faces ...common.TextureStagingData) error {
	var dim wgpu.TextureViewDimension
	switch len(faces) {
	case 1:
		dim = wgpu.TextureViewDimension2D
	case 6:
		dim = wgpu.TextureViewDimensionCube
	default:
		return fmt.Errorf("renderer: external %q needs 1 or 6 faces, got %d", key, len(faces))
	}
	for i, f := range faces[1:] {
		if f.Width != faces[0].Width || f.Height != faces[0].Height {
			return fmt.Errorf("renderer: face %d of %q is %dx%d, face 0 is %dx%d", i+1, key, f.Width, f.Height, faces[0].Width, faces[0].Height)
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	desc := resource.Descriptor{
		Label:     key,
		Width:     faces[0].Width,
		Height:    faces[0].Height,
		Format:    wgpu.TextureFormatRGBA8Unorm,
		Dimension: dim,
	}
	h, ok := r.externals[key]
	if ok {
		have, err := r.table.Descriptor(h)
		if err != nil {
			return err
		}
		if have != desc {
			if err := r.table.Resize(h, desc); err != nil {
				return err
			}
		}
	} else {
		var err error
		if h, err = r.table.Allocate(desc); err != nil {
			return err
		}
		r.externals[key] = h
	}

	for i, f := range faces {
		f.Layer = uint32(i)
		if err := r.table.Upload(h, f); err != nil {
			return err
		}
	}
	return nil
}

func (r *renderer) UploadMesh(label string, vertices []byte, vertexCount uint32, indices []uint32) (resource.Handle, error) {
	return r.table.AllocateMesh(label, vertices, vertexCount, indices)
}

func (r *renderer) ReadPixels(tex gpu.Texture) (common.TextureStagingData, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.backend.ReadPixels(tex)
}

func (r *renderer) Pipeline(key string) pipeline.Pipeline {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.pipelineCache[key]
}

func (r *renderer) Pipelines() map[string]pipeline.Pipeline {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[string]pipeline.Pipeline, len(r.pipelineCache))
	for k, p := range r.pipelineCache {
		out[k] = p
	}
	return out
}

func (r *renderer) RegisterPipelines(pipelines ...pipeline.Pipeline) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range pipelines {
		key := p.PipelineKey()
		if _, exists := r.pipelineCache[key]; exists {
			continue
		}
		if err := r.backend.RegisterRenderPipeline(p); err != nil {
			return fmt.Errorf("renderer: register %q: %w", key, err)
		}
		r.pipelineCache[key] = p
	}
	return nil
}

func (r *renderer) Table() resource.Table {
	return r.table
}

func (r *renderer) Registry() uniform.Registry {
	return r.registry
}

func (r *renderer) Graph() *graph.Graph {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.graph
}

func (r *renderer) FrameCount() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.frameCount
}

func (r *renderer) Backend() RendererBackendType {
	return r.backendType
}

func (r *renderer) Release() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.table.ReleaseAll()
	r.backend.Release()
	r.nodes = make(map[string]*nodeResources)
	r.shared = make(map[uniform.Domain]resource.Handle)
	r.externals = make(map[string]resource.Handle)
	r.graph = nil
	r.descs = nil
}
