package graph

import (
	"fmt"
	"hash/fnv"
	"slices"
	"sort"
	"sync"

	"github.com/Carmen-Shannon/oxy-graph/common"
	"github.com/Carmen-Shannon/oxy-graph/engine/renderer/resource"
	"github.com/Carmen-Shannon/oxy-graph/engine/renderer/uniform"
	"github.com/cogentcore/webgpu/wgpu"
)

// builder is the implementation of the Builder interface.
type builder struct {
	mu    sync.Mutex
	nodes []NodeDescriptor

	// cached is the last successfully built plan, reused while the fingerprint is unchanged.
	cached *Graph
}

// Builder accumulates node descriptors and turns them into a validated execution plan.
// The plan is cached and only recomputed when the node set, its connections or the build
// context change.
type Builder interface {
	// AddNode appends a node declaration. Declaration order breaks ordering ties.
	//
	// Parameters:
	//   - desc: the node to add
	//
	// Returns:
	//   - Builder: the builder, for chaining
	AddNode(desc NodeDescriptor) Builder

	// SetNodes replaces every declaration.
	//
	// Parameters:
	//   - descs: the new node set
	//
	// Returns:
	//   - Builder: the builder, for chaining
	SetNodes(descs []NodeDescriptor) Builder

	// Nodes returns a copy of the current declarations.
	//
	// Returns:
	//   - []NodeDescriptor: the declarations in order
	Nodes() []NodeDescriptor

	// Build validates the node set and produces its execution plan.
	//
	// Parameters:
	//   - ctx: the registry, programs, externals and surface to build against
	//
	// Returns:
	//   - *Graph: the plan, possibly the cached one
	//   - error: ErrInvalidNode, a CycleError or a uniform.LayoutMismatchError
	Build(ctx BuildContext) (*Graph, error)
}

var _ Builder = &builder{}

// NewBuilder creates a Builder holding the given declarations.
//
// Parameters:
//   - descs: the initial node declarations
//
// Returns:
//   - Builder: the new builder
func NewBuilder(descs ...NodeDescriptor) Builder {
	return &builder{nodes: slices.Clone(descs)}
}

func (b *builder) AddNode(desc NodeDescriptor) Builder {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nodes = append(b.nodes, desc)
	return b
}

func (b *builder) SetNodes(descs []NodeDescriptor) Builder {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nodes = slices.Clone(descs)
	return b
}

func (b *builder) Nodes() []NodeDescriptor {
	b.mu.Lock()
	defer b.mu.Unlock()
	return slices.Clone(b.nodes)
}

func (b *builder) Build(ctx BuildContext) (*Graph, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	fp := fingerprint(b.nodes, ctx)
	if b.cached != nil && b.cached.fingerprint == fp {
		return b.cached, nil
	}

	g, err := build(b.nodes, ctx)
	if err != nil {
		return nil, err
	}
	g.fingerprint = fp
	b.cached = g
	common.Logger().Debug("render graph built", "nodes", g.Len(), "order", g.Order(), "master", g.master.Name())
	return g, nil
}

// build runs every construction step: structural checks, output resolution, cycle
// detection, ordering and registry validation.
func build(descs []NodeDescriptor, ctx BuildContext) (*Graph, error) {
	if len(descs) == 0 {
		return nil, fmt.Errorf("graph: empty node set: %w", ErrInvalidNode)
	}
	registry := ctx.Registry
	if registry == nil {
		registry = uniform.Default()
	}

	g := &Graph{nodes: make(map[string]*Node, len(descs))}
	nodes := make([]*Node, 0, len(descs))
	for i, desc := range descs {
		if desc.Name == "" {
			return nil, fmt.Errorf("graph: node %d has no name: %w", i, ErrInvalidNode)
		}
		if _, dup := g.nodes[desc.Name]; dup {
			return nil, invalid(desc.Name, "declared twice")
		}
		program, ok := ctx.Programs[desc.Program]
		if !ok {
			return nil, invalid(desc.Name, "unknown program %q", desc.Program)
		}
		n := &Node{Descriptor: desc, Program: program, Index: i}
		if desc.Master {
			if g.master != nil {
				return nil, invalid(desc.Name, "second master node, %q is already master", g.master.Name())
			}
			g.master = n
		}
		g.nodes[desc.Name] = n
		nodes = append(nodes, n)
	}
	if g.master == nil {
		return nil, fmt.Errorf("graph: no master node: %w", ErrInvalidNode)
	}

	for _, n := range nodes {
		if err := resolveOutput(n, ctx.Surface); err != nil {
			return nil, err
		}
	}
	for _, n := range nodes {
		if err := resolveInputs(n, g); err != nil {
			return nil, err
		}
	}

	if cycle := findCycle(nodes, g.nodes); cycle != nil {
		return nil, &CycleError{Cycle: cycle}
	}
	g.order = topologicalOrder(nodes, g.nodes)

	for _, n := range nodes {
		shapes, err := inputShapes(n, g, ctx.Externals)
		if err != nil {
			return nil, err
		}
		if err := registry.Validate(n.Name(), n.Program, shapes, n.Descriptor.Uniforms); err != nil {
			return nil, err
		}
	}
	return g, nil
}

// resolveOutput fills the node's render target descriptor. The master node always renders
// at the surface size and format.
func resolveOutput(n *Node, surface Surface) error {
	out := n.Descriptor.Output
	desc := resource.Descriptor{
		Label:        n.Name(),
		Width:        out.Width,
		Height:       out.Height,
		Format:       out.Format,
		Dimension:    out.Dimension,
		Feedback:     out.Feedback,
		Depth:        out.Depth || n.Program.DepthTestEnabled(),
		RenderTarget: true,
	}
	if n.Descriptor.Master {
		desc.Format = surface.Format
	}
	if n.Descriptor.Master || out.FollowSurface {
		desc.Width, desc.Height = surface.Width, surface.Height
	}
	if desc.Width == 0 || desc.Height == 0 {
		return invalid(n.Name(), "output has zero extent %dx%d", desc.Width, desc.Height)
	}
	if desc.Dimension == wgpu.TextureViewDimensionCube && desc.Width != desc.Height {
		return invalid(n.Name(), "cube output must be square, got %dx%d", desc.Width, desc.Height)
	}
	n.Output = desc
	n.Swap = out.Feedback
	return nil
}

// resolveInputs checks every channel reference and records the node's current-frame
// dependencies.
func resolveInputs(n *Node, g *Graph) error {
	for i, ch := range n.Descriptor.Inputs {
		switch ch.Source.Kind {
		case SourceExternal:
			if ch.Source.Ref == "" {
				return invalid(n.Name(), "input %d reads an external texture without a key", i)
			}
		case SourceNode:
			producer, ok := g.nodes[ch.Source.Ref]
			if !ok {
				return invalid(n.Name(), "input %d reads unknown node %q", i, ch.Source.Ref)
			}
			if producer.Descriptor.Master {
				return invalid(n.Name(), "input %d reads the master node %q", i, producer.Name())
			}
			if !slices.Contains(n.Dependencies, producer.Name()) {
				n.Dependencies = append(n.Dependencies, producer.Name())
			}
		case SourcePrevious:
			if !n.Descriptor.Output.Feedback {
				return invalid(n.Name(), "input %d reads the previous frame but the output is not a feedback output", i)
			}
			n.SelfRead = true
		default:
			return invalid(n.Name(), "input %d has unknown source kind %d", i, ch.Source.Kind)
		}
	}
	return nil
}

// inputShapes resolves the view dimension of every input channel for registry validation.
func inputShapes(n *Node, g *Graph, externals map[string]wgpu.TextureViewDimension) ([]uniform.InputShape, error) {
	shapes := make([]uniform.InputShape, len(n.Descriptor.Inputs))
	for i, ch := range n.Descriptor.Inputs {
		name := ch.Name
		if name == "" {
			name = fmt.Sprintf("channel%d", i)
		}
		shapes[i].Name = name
		switch ch.Source.Kind {
		case SourceExternal:
			dim, ok := externals[ch.Source.Ref]
			if !ok {
				return nil, invalid(n.Name(), "input %q reads unknown external texture %q", name, ch.Source.Ref)
			}
			shapes[i].Dimension = dim
		case SourceNode:
			shapes[i].Dimension = g.nodes[ch.Source.Ref].Output.Dimension
		case SourcePrevious:
			shapes[i].Dimension = n.Output.Dimension
		}
	}
	return shapes, nil
}

// findCycle runs a depth-first search over current-frame edges (producer to consumer).
// Previous() reads are not edges. It returns the nodes of the first cycle found, in edge
// order, or nil.
func findCycle(nodes []*Node, byName map[string]*Node) []string {
	const (
		white = iota
		grey
		black
	)
	color := make(map[string]int, len(nodes))
	var stack []string

	var visit func(n *Node) []string
	visit = func(n *Node) []string {
		color[n.Name()] = grey
		stack = append(stack, n.Name())
		for _, dep := range n.Dependencies {
			switch color[dep] {
			case grey:
				start := slices.Index(stack, dep)
				cycle := slices.Clone(stack[start:])
				// stack runs consumer to producer; report producer to consumer
				slices.Reverse(cycle)
				return cycle
			case white:
				if cycle := visit(byName[dep]); cycle != nil {
					return cycle
				}
			}
		}
		stack = stack[:len(stack)-1]
		color[n.Name()] = black
		return nil
	}

	for _, n := range nodes {
		if color[n.Name()] == white {
			if cycle := visit(n); cycle != nil {
				return cycle
			}
		}
	}
	return nil
}

// topologicalOrder is Kahn's algorithm. Among the nodes whose dependencies have all been
// emitted, the earliest declared is emitted first.
func topologicalOrder(nodes []*Node, byName map[string]*Node) []*Node {
	pending := make(map[string]int, len(nodes))
	consumers := make(map[string][]*Node, len(nodes))
	for _, n := range nodes {
		pending[n.Name()] = len(n.Dependencies)
		for _, dep := range n.Dependencies {
			consumers[dep] = append(consumers[dep], n)
		}
	}

	var ready []*Node
	for _, n := range nodes {
		if pending[n.Name()] == 0 {
			ready = append(ready, n)
		}
	}

	order := make([]*Node, 0, len(nodes))
	for len(ready) > 0 {
		sort.Slice(ready, func(i, j int) bool { return ready[i].Index < ready[j].Index })
		n := ready[0]
		ready = ready[1:]
		order = append(order, n)
		for _, c := range consumers[n.Name()] {
			pending[c.Name()]--
			if pending[c.Name()] == 0 {
				ready = append(ready, byName[c.Name()])
			}
		}
	}
	return order
}

// fingerprint hashes everything a plan depends on. Programs are identified by key and
// instance so re-registering a program invalidates the cache.
func fingerprint(descs []NodeDescriptor, ctx BuildContext) uint64 {
	h := fnv.New64a()
	w := func(format string, args ...any) {
		_, _ = fmt.Fprintf(h, format, args...)
	}

	w("surface %d %d %d\n", ctx.Surface.Width, ctx.Surface.Height, ctx.Surface.Format)
	w("registry %p\n", ctx.Registry)
	keys := make([]string, 0, len(ctx.Externals))
	for k := range ctx.Externals {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		w("external %q %d\n", k, ctx.Externals[k])
	}

	for _, d := range descs {
		w("node %q program %q %p master %t clear %v\n", d.Name, d.Program, ctx.Programs[d.Program], d.Master, d.Clear)
		w("output %+v\n", d.Output)
		for _, ch := range d.Inputs {
			w("input %q %d %q %+v\n", ch.Name, ch.Source.Kind, ch.Source.Ref, ch.Sampler)
		}
		for _, u := range d.Uniforms {
			w("uniform %s\n", u)
		}
	}
	return h.Sum64()
}
