package resource

import (
	"errors"
	"testing"

	"github.com/Carmen-Shannon/oxy-graph/common"
	"github.com/Carmen-Shannon/oxy-graph/engine/renderer/gpu"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errBudget = errors.New("budget exceeded")

type fakeTexture struct {
	id       int
	desc     gpu.TextureDescriptor
	released bool
	pixels   []byte
}

func (f *fakeTexture) Label() string                     { return f.desc.Label }
func (f *fakeTexture) Descriptor() gpu.TextureDescriptor { return f.desc }
func (f *fakeTexture) Release()                          { f.released = true }

type fakeBuffer struct {
	label    string
	size     uint64
	released bool
}

func (f *fakeBuffer) Label() string { return f.label }
func (f *fakeBuffer) Size() uint64  { return f.size }
func (f *fakeBuffer) Release()      { f.released = true }

type fakeSampler struct {
	label string
	data  common.SamplerStagingData
}

func (f *fakeSampler) Label() string                   { return f.label }
func (f *fakeSampler) Data() common.SamplerStagingData { return f.data }
func (f *fakeSampler) Release()                        {}

type fakeMesh struct {
	label             string
	vertices, indices uint32
}

func (f *fakeMesh) Label() string       { return f.label }
func (f *fakeMesh) VertexCount() uint32 { return f.vertices }
func (f *fakeMesh) IndexCount() uint32  { return f.indices }
func (f *fakeMesh) Release()            {}

// fakeAllocator hands out fake resources and fails once maxTextures live textures exist.
type fakeAllocator struct {
	created     []*fakeTexture
	maxTextures int
}

func (a *fakeAllocator) live() int {
	n := 0
	for _, tex := range a.created {
		if !tex.released {
			n++
		}
	}
	return n
}

func (a *fakeAllocator) CreateTexture(desc gpu.TextureDescriptor) (gpu.Texture, error) {
	if a.maxTextures > 0 && a.live() >= a.maxTextures {
		return nil, errBudget
	}
	tex := &fakeTexture{id: len(a.created), desc: desc}
	a.created = append(a.created, tex)
	return tex, nil
}

func (a *fakeAllocator) CreateBuffer(label string, size uint64) (gpu.Buffer, error) {
	return &fakeBuffer{label: label, size: size}, nil
}

func (a *fakeAllocator) CreateSampler(label string, data common.SamplerStagingData) (gpu.Sampler, error) {
	return &fakeSampler{label: label, data: data}, nil
}

func (a *fakeAllocator) CreateMesh(label string, _ []byte, vertexCount uint32, indices []uint32) (gpu.Mesh, error) {
	return &fakeMesh{label: label, vertices: vertexCount, indices: uint32(len(indices))}, nil
}

func (a *fakeAllocator) WriteTexture(tex gpu.Texture, data common.TextureStagingData) error {
	tex.(*fakeTexture).pixels = data.Pixels
	return nil
}

func feedbackDesc() Descriptor {
	return Descriptor{Label: "automaton", Width: 128, Height: 128, Feedback: true, RenderTarget: true}
}

func TestAllocateOrdinaryTexture(t *testing.T) {
	alloc := &fakeAllocator{}
	tbl := NewTable(alloc)

	h, err := tbl.Allocate(Descriptor{Label: "scene", Width: 64, Height: 32})
	require.NoError(t, err)
	assert.NotZero(t, h)

	read, err := tbl.ReadView(h)
	require.NoError(t, err)
	write, err := tbl.WriteView(h)
	require.NoError(t, err)
	assert.Same(t, read, write, "ordinary resources read and write the same texture")

	desc, err := tbl.Descriptor(h)
	require.NoError(t, err)
	assert.Equal(t, wgpu.TextureFormatRGBA8Unorm, desc.Format, "format defaults to rgba8")
	assert.Equal(t, wgpu.TextureViewDimension2D, desc.Dimension)

	depth, err := tbl.DepthView(h)
	require.NoError(t, err)
	assert.Nil(t, depth)

	assert.ErrorIs(t, tbl.Swap(h), ErrNotFeedback)
}

func TestFeedbackSwap(t *testing.T) {
	tbl := NewTable(&fakeAllocator{})
	h, err := tbl.Allocate(feedbackDesc())
	require.NoError(t, err)

	read0, _ := tbl.ReadView(h)
	write0, _ := tbl.WriteView(h)
	require.NotSame(t, read0, write0, "feedback resources read the front and write the back")

	for frame := uint64(1); frame <= 4; frame++ {
		tbl.BeginFrame()
		written, _ := tbl.WriteView(h)
		require.NoError(t, tbl.Swap(h))
		assert.ErrorIs(t, tbl.Swap(h), ErrAlreadySwapped)

		front, _ := tbl.ReadView(h)
		assert.Same(t, written, front, "after the swap the front holds what this frame wrote")
		gen, err := tbl.Generation(h)
		require.NoError(t, err)
		assert.Equal(t, frame, gen)
	}
}

func TestRevertFrame(t *testing.T) {
	tbl := NewTable(&fakeAllocator{})
	a, err := tbl.Allocate(feedbackDesc())
	require.NoError(t, err)
	b, err := tbl.Allocate(feedbackDesc())
	require.NoError(t, err)

	tbl.BeginFrame()
	require.NoError(t, tbl.Swap(a))
	require.NoError(t, tbl.Swap(b))
	frontA, _ := tbl.ReadView(a)

	tbl.BeginFrame()
	require.NoError(t, tbl.Swap(a))
	tbl.RevertFrame()

	after, _ := tbl.ReadView(a)
	assert.Same(t, frontA, after, "an aborted frame leaves the previous front in place")
	gen, _ := tbl.Generation(a)
	assert.Equal(t, uint64(1), gen)
	genB, _ := tbl.Generation(b)
	assert.Equal(t, uint64(1), genB, "swaps of earlier frames are kept")

	// the reverted frame does not count as swapped
	require.NoError(t, tbl.Swap(a))
}

func TestResizeRoundTrip(t *testing.T) {
	alloc := &fakeAllocator{}
	tbl := NewTable(alloc)
	orig := Descriptor{Label: "scene", Width: 320, Height: 240, Format: wgpu.TextureFormatRGBA16Float, Feedback: true, Depth: true}
	h, err := tbl.Allocate(orig)
	require.NoError(t, err)
	before, _ := tbl.ReadView(h)
	beforeDesc, _ := tbl.Descriptor(h)

	tbl.BeginFrame()
	require.NoError(t, tbl.Swap(h))

	require.NoError(t, tbl.Resize(h, Descriptor{Label: "scene", Width: 640, Height: 480, Format: wgpu.TextureFormatRGBA16Float, Feedback: true, Depth: true}))
	mid, _ := tbl.Descriptor(h)
	assert.Equal(t, uint32(640), mid.Width)
	assert.True(t, before.(*fakeTexture).released, "resize destroys the old textures")

	require.NoError(t, tbl.Resize(h, orig))
	after, _ := tbl.ReadView(h)
	afterDesc, _ := tbl.Descriptor(h)

	assert.Equal(t, beforeDesc, afterDesc, "resizing back restores the same configuration")
	assert.NotSame(t, before, after, "physical textures are newly allocated")
	assert.Equal(t, before.Descriptor(), after.Descriptor())
	gen, _ := tbl.Generation(h)
	assert.Zero(t, gen)
	depth, _ := tbl.DepthView(h)
	require.NotNil(t, depth)
	assert.Equal(t, gpu.DepthFormat, depth.Descriptor().Format)
	assert.Equal(t, 3, alloc.live(), "two feedback buffers and one depth attachment stay live")

	// a resize inside the frame drops the frame's swap record
	require.NoError(t, tbl.Swap(h))
}

func TestOutOfDeviceMemory(t *testing.T) {
	alloc := &fakeAllocator{maxTextures: 3}
	tbl := NewTable(alloc)

	_, err := tbl.Allocate(Descriptor{Label: "a", Width: 8, Height: 8})
	require.NoError(t, err)

	_, err = tbl.Allocate(Descriptor{Label: "b", Width: 8, Height: 8, Feedback: true, Depth: true})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrOutOfDeviceMemory)
	assert.ErrorIs(t, err, errBudget)

	var oom *OutOfDeviceMemoryError
	require.ErrorAs(t, err, &oom)
	assert.Equal(t, "b/depth", oom.Label)
	assert.Equal(t, uint64(8*8*4), oom.Bytes)
	assert.Equal(t, 1, alloc.live(), "a failed allocation releases what it created")
	assert.Equal(t, 1, tbl.Len())
}

func TestUploadWritesBothFeedbackBuffers(t *testing.T) {
	tbl := NewTable(&fakeAllocator{})
	h, err := tbl.Allocate(feedbackDesc())
	require.NoError(t, err)

	pixels := common.SolidTexture(1, 1, [4]uint8{255, 0, 0, 255})
	require.NoError(t, tbl.Upload(h, pixels))

	read, _ := tbl.ReadView(h)
	write, _ := tbl.WriteView(h)
	assert.Equal(t, pixels.Pixels, read.(*fakeTexture).pixels)
	assert.Equal(t, pixels.Pixels, write.(*fakeTexture).pixels)
}

func TestHandlesAndKinds(t *testing.T) {
	tbl := NewTable(&fakeAllocator{})
	buf, err := tbl.AllocateBuffer("camera", 160)
	require.NoError(t, err)
	smp, err := tbl.AllocateSampler("linear", common.SamplerStagingData{})
	require.NoError(t, err)
	mesh, err := tbl.AllocateMesh("cube", make([]byte, 32*24), 24, make([]uint32, 36))
	require.NoError(t, err)

	b, err := tbl.Buffer(buf)
	require.NoError(t, err)
	assert.Equal(t, uint64(160), b.Size())
	_, err = tbl.Sampler(smp)
	require.NoError(t, err)
	m, err := tbl.Mesh(mesh)
	require.NoError(t, err)
	assert.Equal(t, uint32(36), m.IndexCount())

	kind, err := tbl.Kind(mesh)
	require.NoError(t, err)
	assert.Equal(t, KindMesh, kind)

	_, err = tbl.ReadView(buf)
	assert.ErrorIs(t, err, ErrWrongKind)
	_, err = tbl.Buffer(Handle(999))
	assert.ErrorIs(t, err, ErrUnknownHandle)

	require.NoError(t, tbl.Release(buf))
	assert.True(t, b.(*fakeBuffer).released)
	assert.ErrorIs(t, tbl.Release(buf), ErrUnknownHandle)

	tbl.ReleaseAll()
	assert.Zero(t, tbl.Len())
}

func TestProducerConsumerTracking(t *testing.T) {
	tbl := NewTable(&fakeAllocator{})
	h, err := tbl.Allocate(Descriptor{Label: "scene", Width: 4, Height: 4})
	require.NoError(t, err)

	require.NoError(t, tbl.SetProducer(h, "scene"))
	require.NoError(t, tbl.AddConsumer(h, "bloom"))
	require.NoError(t, tbl.AddConsumer(h, "composite"))
	require.NoError(t, tbl.AddConsumer(h, "bloom"))

	assert.Equal(t, "scene", tbl.Producer(h))
	assert.Equal(t, []string{"bloom", "composite"}, tbl.Consumers(h))
	assert.ErrorIs(t, tbl.SetProducer(Handle(42), "x"), ErrUnknownHandle)
	assert.Empty(t, tbl.Producer(Handle(42)))
}
