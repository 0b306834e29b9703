// annotations.go defines the @oxy: annotations understood by the WGSL pre-processor.
// Annotations are single-line WGSL comments that inject canonical uniform block structs,
// declare uniform bindings by domain and declare input channel texture/sampler pairs.
// Struct names and sizes always come from the uniform registry so every program agrees
// with the writer on the binary layout.
package shader

import (
	"fmt"
	"strconv"
	"strings"
)

// annotationPrefix is the marker that identifies an Oxy annotation within a WGSL comment line.
const annotationPrefix = "@oxy:"

// AnnotationType identifies the kind of annotation parsed from a WGSL comment line.
type AnnotationType string

const (
	// annotationTypeInclude injects the canonical WGSL struct of a uniform domain. Repeated
	// includes of the same domain are emitted once.
	//
	// Syntax: //@oxy:include <domain>
	//
	// Example: //@oxy:include camera_3d
	annotationTypeInclude AnnotationType = "include"

	// AnnotationTypeBindingGroup generates a var<uniform> declaration for a domain and records
	// it in the declarations list. With the storage_read address space it declares a read-only
	// storage array of the domain's struct instead, one element per instance.
	//
	// Syntax: //@oxy:group <group> <binding> <var_name> <domain> [storage_uniform|storage_read]
	//
	// Example: //@oxy:group 2 0 camera camera_3d
	//
	// Example: //@oxy:group 1 0 sprites render_2d storage_read
	AnnotationTypeBindingGroup AnnotationType = "group"

	// AnnotationTypeChannel generates a texture at binding 0 and its sampler at binding 1 of the
	// given group and records it in the declarations list.
	//
	// Syntax: //@oxy:channel <group> <texture_var> <sampler_var> <2d|cube>
	//
	// Example: //@oxy:channel 0 src_tex src_smp 2d
	AnnotationTypeChannel AnnotationType = "channel"
)

// ── Address space arguments ────────────────────────────────────────────────────
// The optional last argument of group annotations. They map to WGSL var<> declarations.

const (
	// addressSpaceUniform maps to var<uniform> in WGSL. It is the default.
	addressSpaceUniform = "storage_uniform"

	// addressSpaceRead maps to var<storage, read> over an array of the domain's struct.
	addressSpaceRead = "storage_read"
)

// Annotation represents a single parsed @oxy: annotation.
type Annotation struct {
	// Type identifies which annotation was parsed.
	Type AnnotationType

	// Args holds the annotation's arguments. The contents depend on Type:
	//   - include: [0] = domain
	//   - group:   [0] = var name, [1] = domain, [2] = address space
	//   - channel: [0] = texture var, [1] = sampler var, [2] = dimension
	Args []string

	// Line is the 1-based line number in the original WGSL source.
	Line int

	// Group is the @group index for group and channel annotations. Nil for include annotations.
	Group *int

	// Binding is the @binding index for group annotations. Nil otherwise.
	Binding *int
}

// channelDimensions maps the channel annotation dimension argument to a WGSL texture type.
var channelDimensions = map[string]string{
	"2d":   "texture_2d<f32>",
	"cube": "texture_cube<f32>",
}

// parseAnnotation attempts to parse a single line of WGSL source as an @oxy: annotation.
// Returns nil with no error for lines that do not carry the prefix.
//
// Parameters:
//   - line: the raw WGSL source line to parse
//   - lineNum: the 1-based line number for error reporting
//
// Returns:
//   - *Annotation: the parsed annotation, or nil if the line is not an annotation
//   - error: a descriptive error if the annotation is malformed
func parseAnnotation(line string, lineNum int) (*Annotation, error) {
	trimmed := strings.TrimSpace(line)
	if !strings.HasPrefix(trimmed, "//") {
		return nil, nil
	}
	_, after, ok := strings.Cut(trimmed, annotationPrefix)
	if !ok {
		return nil, nil
	}

	args := strings.Fields(after)
	if len(args) == 0 {
		return nil, fmt.Errorf("line %d: empty @oxy annotation", lineNum)
	}

	switch AnnotationType(args[0]) {
	case annotationTypeInclude:
		if len(args) != 2 {
			return nil, fmt.Errorf("line %d: @oxy include annotation requires exactly one argument", lineNum)
		}
		return &Annotation{Type: annotationTypeInclude, Args: args[1:], Line: lineNum}, nil
	case AnnotationTypeBindingGroup:
		if len(args) != 5 && len(args) != 6 {
			return nil, fmt.Errorf("line %d: @oxy group annotation requires group, binding, var name and domain", lineNum)
		}
		space := addressSpaceUniform
		if len(args) == 6 {
			space = args[5]
		}
		if space != addressSpaceUniform && space != addressSpaceRead {
			return nil, fmt.Errorf("line %d: unknown address space %q", lineNum, space)
		}
		group, err := parseIndex(args[1])
		if err != nil {
			return nil, fmt.Errorf("line %d: invalid group number %q: %w", lineNum, args[1], err)
		}
		binding, err := parseIndex(args[2])
		if err != nil {
			return nil, fmt.Errorf("line %d: invalid binding number %q: %w", lineNum, args[2], err)
		}
		return &Annotation{Type: AnnotationTypeBindingGroup, Args: []string{args[3], args[4], space}, Line: lineNum, Group: &group, Binding: &binding}, nil
	case AnnotationTypeChannel:
		if len(args) != 5 {
			return nil, fmt.Errorf("line %d: @oxy channel annotation requires group, texture var, sampler var and dimension", lineNum)
		}
		group, err := parseIndex(args[1])
		if err != nil {
			return nil, fmt.Errorf("line %d: invalid group number %q: %w", lineNum, args[1], err)
		}
		if _, ok := channelDimensions[args[4]]; !ok {
			return nil, fmt.Errorf("line %d: unknown channel dimension %q", lineNum, args[4])
		}
		return &Annotation{Type: AnnotationTypeChannel, Args: args[2:], Line: lineNum, Group: &group}, nil
	default:
		return nil, fmt.Errorf("line %d: unknown annotation type %q", lineNum, args[0])
	}
}

func parseIndex(s string) (int, error) {
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, err
	}
	if v < 0 {
		return 0, fmt.Errorf("negative index %d", v)
	}
	return v, nil
}
