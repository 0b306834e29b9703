package renderer

import (
	"fmt"
	"sync"

	"github.com/Carmen-Shannon/oxy-graph/common"
	"github.com/Carmen-Shannon/oxy-graph/engine/profiler"
	"github.com/Carmen-Shannon/oxy-graph/engine/renderer/graph"
	"github.com/Carmen-Shannon/oxy-graph/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-graph/engine/renderer/resource"
	"github.com/Carmen-Shannon/oxy-graph/engine/renderer/uniform"
	"github.com/cogentcore/webgpu/wgpu"
)

// RendererBuilderOption is a functional option applied to a renderer during construction via NewRenderer.
type RendererBuilderOption func(*renderer)

// NewRenderer creates a new Renderer with the specified backend type and surface.
// The surface negotiates the master node's format and size; the backend renders headless and
// presenting the master output is up to the caller.
//
// Parameters:
//   - backendType: the type of rendering backend to use
//   - surface: the presentation surface size and format; a zero format selects bgra8unorm
//   - options: variadic list of RendererBuilderOption functions to configure the renderer
//
// Returns:
//   - Renderer: a new Renderer configured with the specified backend and options
//   - error: an error if the backend could not be created or a pre-registered pipeline failed
func NewRenderer(backendType RendererBackendType, surface graph.Surface, options ...RendererBuilderOption) (Renderer, error) {
	r := &renderer{
		mu:            &sync.Mutex{},
		pipelineCache: make(map[string]pipeline.Pipeline),
		backendType:   backendType,
		surface:       surface,
		builder:       graph.NewBuilder(),
		nodes:         make(map[string]*nodeResources),
		shared:        make(map[uniform.Domain]resource.Handle),
		externals:     make(map[string]resource.Handle),
	}
	r.surface.Format = common.Coalesce(r.surface.Format, wgpu.TextureFormatBGRA8Unorm)

	// Apply options first so config flags (e.g. forceFallbackAdapter) are
	// available before the backend requests a GPU adapter.
	for _, opt := range options {
		opt(r)
	}
	if r.registry == nil {
		r.registry = uniform.Default()
	}

	if r.backend == nil {
		switch backendType {
		case BackendTypeSoftware:
			r.backend = newSoftwareRendererBackend(r.memoryBudget, r.workers)
		case BackendTypeWGPU:
			b, err := newWGPURendererBackend(r.forceFallbackAdapter)
			if err != nil {
				return nil, err
			}
			r.backend = b
		default:
			return nil, fmt.Errorf("renderer: unknown backend type %d", backendType)
		}
	}
	r.backendType = r.backend.Type()
	r.table = resource.NewTable(r.backend)

	// pipelines handed in by options are registered with the backend like any other
	pending := r.pipelineCache
	r.pipelineCache = make(map[string]pipeline.Pipeline, len(pending))
	for _, p := range pending {
		if err := r.RegisterPipelines(p); err != nil {
			r.backend.Release()
			return nil, err
		}
	}

	common.Logger().Info("renderer ready", "backend", r.backendType, "width", r.surface.Width, "height", r.surface.Height)
	return r, nil
}

// WithPipeline pre-registers a single Pipeline under its key.
//
// Parameters:
//   - p: the Pipeline to cache
//
// Returns:
//   - RendererBuilderOption: a function that applies the pipeline option to a renderer
func WithPipeline(p pipeline.Pipeline) RendererBuilderOption {
	return func(r *renderer) {
		r.pipelineCache[p.PipelineKey()] = p
	}
}

// WithPipelines pre-registers every pipeline of the provided map under its key.
//
// Parameters:
//   - pipelines: a map of pipeline keys to their corresponding Pipeline objects
//
// Returns:
//   - RendererBuilderOption: a function that applies the pipelines option to a renderer
func WithPipelines(pipelines map[string]pipeline.Pipeline) RendererBuilderOption {
	return func(r *renderer) {
		for _, p := range pipelines {
			r.pipelineCache[p.PipelineKey()] = p
		}
	}
}

// WithRegistry sets the uniform layout registry programs are validated against.
// When not specified, uniform.Default() is used.
//
// Parameters:
//   - registry: the registry
//
// Returns:
//   - RendererBuilderOption: a function that applies the registry option to a renderer
func WithRegistry(registry uniform.Registry) RendererBuilderOption {
	return func(r *renderer) {
		r.registry = registry
	}
}

// WithProfiler attaches a profiler that receives per-node pass timings and a tick per frame.
//
// Parameters:
//   - p: the profiler
//
// Returns:
//   - RendererBuilderOption: a function that applies the profiler option to a renderer
func WithProfiler(p *profiler.Profiler) RendererBuilderOption {
	return func(r *renderer) {
		r.profiler = p
	}
}

// WithForceSoftwareRenderer forces WGPU to use a CPU/software fallback adapter instead of
// hardware GPU acceleration. This requires a software Vulkan ICD to be installed on the system
// (e.g. SwiftShader or lavapipe). It has no effect on BackendTypeSoftware.
//
// Parameters:
//   - force: true to force the software fallback adapter, false to use hardware (default)
//
// Returns:
//   - RendererBuilderOption: a function that applies the force software renderer option to a renderer
func WithForceSoftwareRenderer(force bool) RendererBuilderOption {
	return func(r *renderer) {
		r.forceFallbackAdapter = force
	}
}

// WithMemoryBudget caps the bytes of live textures and buffers of the software backend.
// Allocations beyond it fail with resource.ErrOutOfDeviceMemory. Zero means no cap.
//
// Parameters:
//   - bytes: the budget
//
// Returns:
//   - RendererBuilderOption: a function that applies the budget option to a renderer
func WithMemoryBudget(bytes uint64) RendererBuilderOption {
	return func(r *renderer) {
		r.memoryBudget = bytes
	}
}

// WithWorkers bounds the rows the software backend shades concurrently. Zero or less
// selects GOMAXPROCS.
//
// Parameters:
//   - n: the worker count
//
// Returns:
//   - RendererBuilderOption: a function that applies the worker option to a renderer
func WithWorkers(n int) RendererBuilderOption {
	return func(r *renderer) {
		r.workers = n
	}
}

// WithBackend replaces the backend selected by the backend type.
//
// Parameters:
//   - b: the backend
//
// Returns:
//   - RendererBuilderOption: a function that applies the backend option to a renderer
func WithBackend(b RendererBackend) RendererBuilderOption {
	return func(r *renderer) {
		r.backend = b
	}
}
