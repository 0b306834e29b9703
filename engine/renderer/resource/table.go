package resource

import (
	"fmt"
	"slices"
	"sync"

	"github.com/Carmen-Shannon/oxy-graph/common"
	"github.com/Carmen-Shannon/oxy-graph/engine/renderer/gpu"
)

// entry is the table's record of one resource.
type entry struct {
	kind Kind
	desc Descriptor

	// textures holds the single texture, or the two feedback buffers indexed by front.
	textures [2]gpu.Texture
	front    int
	depth    gpu.Texture

	buffer  gpu.Buffer
	sampler gpu.Sampler
	mesh    gpu.Mesh

	generation uint64

	producer  string
	consumers []string
}

// table is the implementation of the Table interface.
type table struct {
	mu sync.RWMutex

	allocator gpu.Allocator
	entries   map[Handle]*entry
	next      Handle

	// swapped records the feedback resources swapped in the current frame, in swap order.
	swapped []Handle
}

// Table is the sole owner of every texture, buffer, sampler and mesh the graph uses.
// Passes refer to resources by Handle and resolve views through the table at the time they
// are encoded. Feedback textures are a front/back pair with a generation counter: reads
// target the front, writes the back, and Swap exchanges them once per frame.
type Table interface {
	// Allocate creates a texture resource.
	//
	// Parameters:
	//   - desc: the texture descriptor
	//
	// Returns:
	//   - Handle: the new handle
	//   - error: an OutOfDeviceMemoryError if the backend could not allocate it
	Allocate(desc Descriptor) (Handle, error)

	// AllocateBuffer creates a uniform buffer.
	//
	// Parameters:
	//   - label: the buffer label
	//   - size: the buffer size in bytes
	//
	// Returns:
	//   - Handle: the new handle
	//   - error: an OutOfDeviceMemoryError if the backend could not allocate it
	AllocateBuffer(label string, size uint64) (Handle, error)

	// AllocateSampler creates a sampler.
	//
	// Parameters:
	//   - label: the sampler label
	//   - data: the sampler configuration
	//
	// Returns:
	//   - Handle: the new handle
	//   - error: an OutOfDeviceMemoryError if the backend could not allocate it
	AllocateSampler(label string, data common.SamplerStagingData) (Handle, error)

	// AllocateMesh uploads a vertex buffer and optional indices.
	//
	// Parameters:
	//   - label: the mesh label
	//   - vertices: the packed vertex bytes
	//   - vertexCount: the number of vertices
	//   - indices: optional 32-bit indices
	//
	// Returns:
	//   - Handle: the new handle
	//   - error: an OutOfDeviceMemoryError if the backend could not allocate it
	AllocateMesh(label string, vertices []byte, vertexCount uint32, indices []uint32) (Handle, error)

	// Upload writes external pixels into a texture. For feedback textures both buffers are
	// written so the first frame reads the uploaded contents.
	//
	// Parameters:
	//   - h: the texture handle
	//   - data: the RGBA8 pixels
	//
	// Returns:
	//   - error: an error if the handle is not a texture or the backend upload fails
	Upload(h Handle, data common.TextureStagingData) error

	// ReadView returns the texture passes sample: the front buffer of feedback resources,
	// the single texture otherwise.
	ReadView(h Handle) (gpu.Texture, error)

	// WriteView returns the texture a pass renders into: the back buffer of feedback
	// resources, the single texture otherwise.
	WriteView(h Handle) (gpu.Texture, error)

	// DepthView returns the depth attachment, or nil if the descriptor requested none.
	DepthView(h Handle) (gpu.Texture, error)

	// Buffer returns the uniform buffer of a buffer handle.
	Buffer(h Handle) (gpu.Buffer, error)

	// Sampler returns the sampler of a sampler handle.
	Sampler(h Handle) (gpu.Sampler, error)

	// Mesh returns the mesh of a mesh handle.
	Mesh(h Handle) (gpu.Mesh, error)

	// Kind returns the kind of a handle.
	Kind(h Handle) (Kind, error)

	// Descriptor returns the current descriptor of a texture handle.
	Descriptor(h Handle) (Descriptor, error)

	// Generation returns how many times a feedback resource has been swapped since it was
	// allocated or last resized.
	Generation(h Handle) (uint64, error)

	// BeginFrame opens a new frame window. Every feedback resource may be swapped once more.
	BeginFrame()

	// Swap exchanges the front and back buffers of a feedback resource and increments its
	// generation. It must be called exactly once per frame after the owning pass completes.
	//
	// Parameters:
	//   - h: the feedback texture handle
	//
	// Returns:
	//   - error: ErrNotFeedback for ordinary resources, ErrAlreadySwapped on a second call in one frame
	Swap(h Handle) error

	// RevertFrame undoes the swaps of the current frame in reverse order. The executor calls
	// it when a frame is aborted so the next frame reads the last presented state.
	RevertFrame()

	// Resize destroys and reallocates a texture with a new descriptor. Outstanding views are
	// invalid afterwards and contents are not preserved. The generation restarts at zero.
	//
	// Parameters:
	//   - h: the texture handle
	//   - desc: the new descriptor
	//
	// Returns:
	//   - error: an OutOfDeviceMemoryError if reallocation fails
	Resize(h Handle, desc Descriptor) error

	// Release frees a resource and forgets its handle.
	Release(h Handle) error

	// ReleaseAll frees every resource.
	ReleaseAll()

	// SetProducer records the node that writes a resource.
	SetProducer(h Handle, node string) error

	// AddConsumer records a node that reads a resource. Repeated calls for the same node are ignored.
	AddConsumer(h Handle, node string) error

	// Producer returns the node that writes a resource, or "" for external resources.
	Producer(h Handle) string

	// Consumers returns the nodes that read a resource in registration order.
	Consumers(h Handle) []string

	// Len returns the number of live handles.
	Len() int
}

var _ Table = &table{}

// NewTable creates an empty resource table that allocates through the given backend.
//
// Parameters:
//   - allocator: the backend that creates physical resources
//
// Returns:
//   - Table: the new table
func NewTable(allocator gpu.Allocator) Table {
	return &table{
		allocator: allocator,
		entries:   make(map[Handle]*entry),
	}
}

func (t *table) Allocate(desc Descriptor) (Handle, error) {
	desc = desc.normalized()
	e := &entry{kind: KindTexture, desc: desc}
	if err := t.allocateTextures(e); err != nil {
		return 0, err
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	return t.insert(e), nil
}

func (t *table) AllocateBuffer(label string, size uint64) (Handle, error) {
	buf, err := t.allocator.CreateBuffer(label, size)
	if err != nil {
		return 0, &OutOfDeviceMemoryError{Label: label, Bytes: size, Err: err}
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	return t.insert(&entry{kind: KindBuffer, desc: Descriptor{Label: label}, buffer: buf}), nil
}

func (t *table) AllocateSampler(label string, data common.SamplerStagingData) (Handle, error) {
	smp, err := t.allocator.CreateSampler(label, data)
	if err != nil {
		return 0, &OutOfDeviceMemoryError{Label: label, Err: err}
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	return t.insert(&entry{kind: KindSampler, desc: Descriptor{Label: label}, sampler: smp}), nil
}

func (t *table) AllocateMesh(label string, vertices []byte, vertexCount uint32, indices []uint32) (Handle, error) {
	mesh, err := t.allocator.CreateMesh(label, vertices, vertexCount, indices)
	if err != nil {
		return 0, &OutOfDeviceMemoryError{Label: label, Bytes: uint64(len(vertices) + 4*len(indices)), Err: err}
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	return t.insert(&entry{kind: KindMesh, desc: Descriptor{Label: label}, mesh: mesh}), nil
}

func (t *table) Upload(h Handle, data common.TextureStagingData) error {
	t.mu.RLock()
	e, err := t.lookup(h, KindTexture)
	if err != nil {
		t.mu.RUnlock()
		return err
	}
	targets := e.textures
	t.mu.RUnlock()

	for _, tex := range targets {
		if tex == nil {
			continue
		}
		if err := t.allocator.WriteTexture(tex, data); err != nil {
			return fmt.Errorf("resource: upload %q: %w", tex.Label(), err)
		}
	}
	return nil
}

func (t *table) ReadView(h Handle) (gpu.Texture, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	e, err := t.lookup(h, KindTexture)
	if err != nil {
		return nil, err
	}
	return e.textures[e.front], nil
}

func (t *table) WriteView(h Handle) (gpu.Texture, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	e, err := t.lookup(h, KindTexture)
	if err != nil {
		return nil, err
	}
	if !e.desc.Feedback {
		return e.textures[0], nil
	}
	return e.textures[1-e.front], nil
}

func (t *table) DepthView(h Handle) (gpu.Texture, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	e, err := t.lookup(h, KindTexture)
	if err != nil {
		return nil, err
	}
	return e.depth, nil
}

func (t *table) Buffer(h Handle) (gpu.Buffer, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	e, err := t.lookup(h, KindBuffer)
	if err != nil {
		return nil, err
	}
	return e.buffer, nil
}

func (t *table) Sampler(h Handle) (gpu.Sampler, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	e, err := t.lookup(h, KindSampler)
	if err != nil {
		return nil, err
	}
	return e.sampler, nil
}

func (t *table) Mesh(h Handle) (gpu.Mesh, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	e, err := t.lookup(h, KindMesh)
	if err != nil {
		return nil, err
	}
	return e.mesh, nil
}

func (t *table) Kind(h Handle) (Kind, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	e, ok := t.entries[h]
	if !ok {
		return 0, fmt.Errorf("resource: handle %d: %w", h, ErrUnknownHandle)
	}
	return e.kind, nil
}

func (t *table) Descriptor(h Handle) (Descriptor, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	e, err := t.lookup(h, KindTexture)
	if err != nil {
		return Descriptor{}, err
	}
	return e.desc, nil
}

func (t *table) Generation(h Handle) (uint64, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	e, err := t.lookup(h, KindTexture)
	if err != nil {
		return 0, err
	}
	return e.generation, nil
}

func (t *table) BeginFrame() {
	t.mu.Lock()
	t.swapped = t.swapped[:0]
	t.mu.Unlock()
}

func (t *table) Swap(h Handle) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	e, err := t.lookup(h, KindTexture)
	if err != nil {
		return err
	}
	if !e.desc.Feedback {
		return fmt.Errorf("resource: swap %q: %w", e.desc.Label, ErrNotFeedback)
	}
	if slices.Contains(t.swapped, h) {
		return fmt.Errorf("resource: swap %q: %w", e.desc.Label, ErrAlreadySwapped)
	}
	e.front = 1 - e.front
	e.generation++
	t.swapped = append(t.swapped, h)
	return nil
}

func (t *table) RevertFrame() {
	t.mu.Lock()
	defer t.mu.Unlock()
	for i := len(t.swapped) - 1; i >= 0; i-- {
		if e, ok := t.entries[t.swapped[i]]; ok {
			e.front = 1 - e.front
			e.generation--
		}
	}
	t.swapped = t.swapped[:0]
}

func (t *table) Resize(h Handle, desc Descriptor) error {
	t.mu.RLock()
	e, err := t.lookup(h, KindTexture)
	t.mu.RUnlock()
	if err != nil {
		return err
	}

	next := &entry{kind: KindTexture, desc: desc.normalized()}
	if err := t.allocateTextures(next); err != nil {
		return err
	}

	t.mu.Lock()
	old := *e
	e.desc = next.desc
	e.textures = next.textures
	e.depth = next.depth
	e.front = 0
	e.generation = 0
	t.swapped = slices.DeleteFunc(t.swapped, func(s Handle) bool { return s == h })
	t.mu.Unlock()

	releaseEntry(&old)
	common.Logger().Debug("resource resized", "label", desc.Label, "width", desc.Width, "height", desc.Height)
	return nil
}

func (t *table) Release(h Handle) error {
	t.mu.Lock()
	e, ok := t.entries[h]
	if !ok {
		t.mu.Unlock()
		return fmt.Errorf("resource: release handle %d: %w", h, ErrUnknownHandle)
	}
	delete(t.entries, h)
	t.mu.Unlock()

	releaseEntry(e)
	return nil
}

func (t *table) ReleaseAll() {
	t.mu.Lock()
	entries := t.entries
	t.entries = make(map[Handle]*entry)
	t.swapped = t.swapped[:0]
	t.mu.Unlock()

	for _, e := range entries {
		releaseEntry(e)
	}
}

func (t *table) SetProducer(h Handle, node string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	e, ok := t.entries[h]
	if !ok {
		return fmt.Errorf("resource: handle %d: %w", h, ErrUnknownHandle)
	}
	e.producer = node
	return nil
}

func (t *table) AddConsumer(h Handle, node string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	e, ok := t.entries[h]
	if !ok {
		return fmt.Errorf("resource: handle %d: %w", h, ErrUnknownHandle)
	}
	if !slices.Contains(e.consumers, node) {
		e.consumers = append(e.consumers, node)
	}
	return nil
}

func (t *table) Producer(h Handle) string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if e, ok := t.entries[h]; ok {
		return e.producer
	}
	return ""
}

func (t *table) Consumers(h Handle) []string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if e, ok := t.entries[h]; ok {
		return slices.Clone(e.consumers)
	}
	return nil
}

func (t *table) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.entries)
}

// insert stores e under a fresh handle. The caller holds the write lock.
func (t *table) insert(e *entry) Handle {
	t.next++
	t.entries[t.next] = e
	common.Logger().Debug("resource allocated", "handle", uint32(t.next), "kind", e.kind.String(), "label", e.desc.Label)
	return t.next
}

// lookup resolves a handle of the wanted kind. The caller holds a lock.
func (t *table) lookup(h Handle, kind Kind) (*entry, error) {
	e, ok := t.entries[h]
	if !ok {
		return nil, fmt.Errorf("resource: handle %d: %w", h, ErrUnknownHandle)
	}
	if e.kind != kind {
		return nil, fmt.Errorf("resource: handle %d is a %s, not a %s: %w", h, e.kind, kind, ErrWrongKind)
	}
	return e, nil
}

// allocateTextures creates the color texture(s) and optional depth attachment of e. On
// failure everything allocated so far is released.
func (t *table) allocateTextures(e *entry) error {
	count := 1
	if e.desc.Feedback {
		count = 2
	}
	for i := 0; i < count; i++ {
		label := e.desc.Label
		if e.desc.Feedback {
			label = fmt.Sprintf("%s/%d", e.desc.Label, i)
		}
		td := e.desc.texture(label)
		tex, err := t.allocator.CreateTexture(td)
		if err != nil {
			releaseEntry(e)
			return &OutOfDeviceMemoryError{Label: label, Bytes: td.ByteSize(), Err: err}
		}
		e.textures[i] = tex
	}
	if e.desc.Depth {
		td := e.desc.depth()
		depth, err := t.allocator.CreateTexture(td)
		if err != nil {
			releaseEntry(e)
			return &OutOfDeviceMemoryError{Label: td.Label, Bytes: td.ByteSize(), Err: err}
		}
		e.depth = depth
	}
	return nil
}

func releaseEntry(e *entry) {
	for i, tex := range e.textures {
		if tex != nil {
			tex.Release()
			e.textures[i] = nil
		}
	}
	if e.depth != nil {
		e.depth.Release()
		e.depth = nil
	}
	if e.buffer != nil {
		e.buffer.Release()
	}
	if e.sampler != nil {
		e.sampler.Release()
	}
	if e.mesh != nil {
		e.mesh.Release()
	}
}
