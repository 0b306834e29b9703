// pre_processor.go implements the Oxy WGSL pre-processor. It scans shader source for
// @oxy: annotations, replaces them with canonical struct sources and generated binding
// declarations, and collects the declarations for diagnostics.
package shader

import (
	"fmt"
	"strings"

	"github.com/Carmen-Shannon/oxy-graph/engine/renderer/uniform"
)

// preProcessor is the implementation of the PreProcessor interface.
type preProcessor struct {
	registry uniform.Registry

	// declarations accumulates group and channel annotations during a Process call.
	declarations []Annotation
}

// PreProcessor processes raw WGSL shader source containing @oxy: annotations.
type PreProcessor interface {
	// Process replaces @oxy: annotations with their WGSL output. include annotations are
	// replaced with the domain's canonical struct, group annotations with a var<uniform>
	// declaration typed by the domain's struct (or a var<storage, read> array of it), and
	// channel annotations with a texture and sampler pair.
	//
	// The declarations list is reset at the start of each call.
	//
	// Parameters:
	//   - source: the raw WGSL shader source code
	//
	// Returns:
	//   - string: the processed WGSL source
	//   - error: an error if any annotation is malformed or references an unknown domain
	Process(source string) (string, error)

	// Declarations returns the group and channel annotations collected during the most recent
	// call to Process, in source order.
	//
	// Returns:
	//   - []Annotation: the declarations collected during the last Process call
	Declarations() []Annotation
}

var _ PreProcessor = &preProcessor{}

// NewPreProcessor creates a PreProcessor that resolves domains against the given registry.
//
// Parameters:
//   - registry: the uniform registry providing struct sources and names
//
// Returns:
//   - PreProcessor: a ready-to-use pre-processor instance
func NewPreProcessor(registry uniform.Registry) PreProcessor {
	return &preProcessor{registry: registry}
}

func (p *preProcessor) Process(source string) (string, error) {
	p.declarations = p.declarations[:0]
	included := make(map[uniform.Domain]bool)

	lines := strings.Split(source, "\n")
	out := make([]string, 0, len(lines))
	for i, line := range lines {
		a, err := parseAnnotation(line, i+1)
		if err != nil {
			return "", err
		}
		if a == nil {
			out = append(out, line)
			continue
		}

		switch a.Type {
		case annotationTypeInclude:
			d := uniform.Domain(a.Args[0])
			l, ok := p.registry.Layout(d)
			if !ok {
				return "", fmt.Errorf("line %d: unknown @oxy:include domain %q", a.Line, d)
			}
			if included[d] {
				continue
			}
			included[d] = true
			out = append(out, strings.TrimRight(l.Source, "\n"))
		case AnnotationTypeBindingGroup:
			d := uniform.Domain(a.Args[1])
			l, ok := p.registry.Layout(d)
			if !ok {
				return "", fmt.Errorf("line %d: unknown @oxy:group domain %q", a.Line, d)
			}
			if a.Args[2] == addressSpaceRead {
				out = append(out, fmt.Sprintf("@group(%d) @binding(%d) var<storage, read> %s: array<%s>;", *a.Group, *a.Binding, a.Args[0], l.TypeName))
			} else {
				out = append(out, fmt.Sprintf("@group(%d) @binding(%d) var<uniform> %s: %s;", *a.Group, *a.Binding, a.Args[0], l.TypeName))
			}
			p.declarations = append(p.declarations, *a)
		case AnnotationTypeChannel:
			out = append(out,
				fmt.Sprintf("@group(%d) @binding(0) var %s: %s;", *a.Group, a.Args[0], channelDimensions[a.Args[2]]),
				fmt.Sprintf("@group(%d) @binding(1) var %s: sampler;", *a.Group, a.Args[1]),
			)
			p.declarations = append(p.declarations, *a)
		}
	}
	return strings.Join(out, "\n"), nil
}

func (p *preProcessor) Declarations() []Annotation {
	return p.declarations
}
