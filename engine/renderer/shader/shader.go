package shader

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/Carmen-Shannon/oxy-graph/engine/renderer/uniform"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/gogpu/naga"
)

// ErrInvalidSource marks WGSL that naga rejects while parsing.
var ErrInvalidSource = errors.New("invalid wgsl")

// IsNagaLimitation reports whether err names a WGSL feature naga does not implement yet, as
// opposed to a defect in the source.
func IsNagaLimitation(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "not yet implemented") || strings.Contains(msg, "not supported")
}

// ShaderType identifies the pipeline stage a shader provides.
type ShaderType int

const (
	// ShaderTypeVertex is the vertex stage of a render program.
	ShaderTypeVertex ShaderType = iota

	// ShaderTypeFragment is the fragment stage of a render program.
	ShaderTypeFragment
)

// String returns the stage name.
func (t ShaderType) String() string {
	if t == ShaderTypeFragment {
		return "fragment"
	}
	return "vertex"
}

// shader is the implementation of the Shader interface.
type shader struct {
	key                        string
	source                     string
	shaderType                 ShaderType
	bindGroupLayoutDescriptors map[int]wgpu.BindGroupLayoutDescriptor
	bindingVarNames            map[int]map[int]string
	bindingTypeNames           map[int]map[int]string
	vertexLayouts              []wgpu.VertexBufferLayout
	entryPoint                 string
	module                     *wgpu.ShaderModuleDescriptor

	pp PreProcessor
}

// Shader is one pre-processed and parsed WGSL stage. It exposes the declared shape of the
// stage (bind group layouts, binding types, vertex layouts, entry point) which the graph
// validates against the uniform registry, and the module descriptor the GPU backend compiles.
type Shader interface {
	// Key retrieves the unique identifier for this shader.
	//
	// Returns:
	//   - string: the shader's unique key
	Key() string

	// Source retrieves the pre-processed WGSL source code.
	//
	// Returns:
	//   - string: the WGSL source with all annotations expanded
	Source() string

	// ShaderType returns the stage this shader provides.
	//
	// Returns:
	//   - ShaderType: ShaderTypeVertex or ShaderTypeFragment
	ShaderType() ShaderType

	// EntryPoint returns the entry point name for this shader's stage.
	//
	// Returns:
	//   - string: the entry point name (e.g. "vs_main")
	EntryPoint() string

	// BindGroupLayoutDescriptor retrieves the layout descriptor of one group.
	//
	// Parameters:
	//   - group: the bind group index
	//
	// Returns:
	//   - wgpu.BindGroupLayoutDescriptor: the descriptor, or an empty descriptor if the group is unused
	BindGroupLayoutDescriptor(group int) wgpu.BindGroupLayoutDescriptor

	// BindGroupLayoutDescriptors retrieves all parsed bind group layout descriptors.
	//
	// Returns:
	//   - map[int]wgpu.BindGroupLayoutDescriptor: descriptors keyed by group index
	BindGroupLayoutDescriptors() map[int]wgpu.BindGroupLayoutDescriptor

	// BindGroupVarName retrieves the variable name declared at a group and binding.
	//
	// Parameters:
	//   - group: the bind group index
	//   - binding: the binding index within the group
	//
	// Returns:
	//   - string: the variable name, or an empty string if not declared
	BindGroupVarName(group, binding int) string

	// BindGroupTypeName retrieves the WGSL type declared at a group and binding.
	//
	// Parameters:
	//   - group: the bind group index
	//   - binding: the binding index within the group
	//
	// Returns:
	//   - string: the type name (e.g. "Camera3D", "texture_2d<f32>"), or "" if not declared
	BindGroupTypeName(group, binding int) string

	// VertexLayouts retrieves the vertex buffer layouts of a vertex shader. Programs that
	// generate their vertices from the vertex index return nil.
	//
	// Returns:
	//   - []wgpu.VertexBufferLayout: the layouts in buffer slot order
	VertexLayouts() []wgpu.VertexBufferLayout

	// Module returns the module descriptor the GPU backend compiles.
	//
	// Returns:
	//   - *wgpu.ShaderModuleDescriptor: the descriptor holding the processed WGSL
	Module() *wgpu.ShaderModuleDescriptor

	// Declarations returns the group and channel annotations found while pre-processing.
	//
	// Returns:
	//   - []Annotation: the declarations in source order
	Declarations() []Annotation

	// Validate parses and lowers the processed source with naga, reporting WGSL errors
	// without touching a GPU. Parse failures wrap ErrInvalidSource.
	//
	// Returns:
	//   - error: the naga diagnostic, or nil when the source is well formed
	Validate() error

	// Compile translates the processed source to SPIR-V with naga.
	//
	// Returns:
	//   - []byte: the SPIR-V binary
	//   - error: the naga diagnostic if translation fails
	Compile() ([]byte, error)
}

var _ Shader = &shader{}

// NewShader pre-processes and parses WGSL source into a Shader. Struct names used by
// @oxy: annotations are resolved against the given registry.
//
// Parameters:
//   - key: a unique identifier for the shader
//   - shaderType: the stage the shader provides
//   - source: the raw WGSL source
//   - registry: the uniform registry annotations resolve against
//
// Returns:
//   - Shader: the parsed shader
//   - error: an error if pre-processing fails or the stage has no entry point
func NewShader(key string, shaderType ShaderType, source string, registry uniform.Registry) (Shader, error) {
	s := &shader{
		key:        key,
		shaderType: shaderType,
		pp:         NewPreProcessor(registry),
	}
	if err := s.parseSource(source); err != nil {
		return nil, fmt.Errorf("shader %s: %w", key, err)
	}
	return s, nil
}

// NewShaderFromPath reads WGSL source from disk and parses it. See NewShader.
func NewShaderFromPath(key string, shaderType ShaderType, path string, registry uniform.Registry) (Shader, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("shader %s: failed to read source file %q: %w", key, path, err)
	}
	return NewShader(key, shaderType, string(data), registry)
}

// MustNewShader is NewShader for embedded sources that are known to be valid. It panics
// on error.
func MustNewShader(key string, shaderType ShaderType, source string, registry uniform.Registry) Shader {
	s, err := NewShader(key, shaderType, source, registry)
	if err != nil {
		panic(err)
	}
	return s
}

func (s *shader) Key() string {
	return s.key
}

func (s *shader) Source() string {
	return s.source
}

func (s *shader) ShaderType() ShaderType {
	return s.shaderType
}

func (s *shader) EntryPoint() string {
	return s.entryPoint
}

func (s *shader) BindGroupLayoutDescriptor(group int) wgpu.BindGroupLayoutDescriptor {
	return s.bindGroupLayoutDescriptors[group]
}

func (s *shader) BindGroupLayoutDescriptors() map[int]wgpu.BindGroupLayoutDescriptor {
	return s.bindGroupLayoutDescriptors
}

func (s *shader) BindGroupVarName(group, binding int) string {
	return s.bindingVarNames[group][binding]
}

func (s *shader) BindGroupTypeName(group, binding int) string {
	return s.bindingTypeNames[group][binding]
}

func (s *shader) VertexLayouts() []wgpu.VertexBufferLayout {
	return s.vertexLayouts
}

func (s *shader) Module() *wgpu.ShaderModuleDescriptor {
	return s.module
}

func (s *shader) Declarations() []Annotation {
	return s.pp.Declarations()
}

func (s *shader) Validate() error {
	ast, err := naga.Parse(s.source)
	if err != nil {
		return fmt.Errorf("shader %s: parse: %w: %w", s.key, ErrInvalidSource, err)
	}
	if _, err := naga.Lower(ast); err != nil {
		return fmt.Errorf("shader %s: lower: %w", s.key, err)
	}
	return nil
}

func (s *shader) Compile() ([]byte, error) {
	spirv, err := naga.Compile(s.source)
	if err != nil {
		return nil, fmt.Errorf("shader %s: compile: %w", s.key, err)
	}
	return spirv, nil
}

// parseSource expands annotations, builds the module descriptor and extracts the entry
// point, vertex layouts and bind group layouts for the shader's stage.
func (s *shader) parseSource(source string) error {
	processed, err := s.pp.Process(source)
	if err != nil {
		return fmt.Errorf("failed to pre-process source: %w", err)
	}
	s.source = processed
	s.module = &wgpu.ShaderModuleDescriptor{
		Label: s.key,
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{
			Code: s.source,
		},
	}
	s.entryPoint = parseEntryPoint(s.source, s.shaderType)
	if s.entryPoint == "" {
		return fmt.Errorf("no @%s entry point", s.shaderType)
	}

	visibility := wgpu.ShaderStageVertex
	if s.shaderType == ShaderTypeVertex {
		s.vertexLayouts = parseVertexLayouts(s.source)
	} else {
		visibility = wgpu.ShaderStageFragment
	}
	s.bindGroupLayoutDescriptors, s.bindingVarNames, s.bindingTypeNames = parseBindGroupLayouts(s.source, visibility)
	return nil
}
