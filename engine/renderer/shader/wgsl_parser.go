package shader

import (
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/Carmen-Shannon/oxy-graph/engine/renderer/uniform"
	"github.com/cogentcore/webgpu/wgpu"
)

// wgslVertexFormatMap maps WGSL vertex input types to their attribute format and size.
var wgslVertexFormatMap = map[string]vertexFormatInfo{
	"f32":       {wgpu.VertexFormatFloat32, 4},
	"vec2f":     {wgpu.VertexFormatFloat32x2, 8},
	"vec2<f32>": {wgpu.VertexFormatFloat32x2, 8},
	"vec3f":     {wgpu.VertexFormatFloat32x3, 12},
	"vec3<f32>": {wgpu.VertexFormatFloat32x3, 12},
	"vec4f":     {wgpu.VertexFormatFloat32x4, 16},
	"vec4<f32>": {wgpu.VertexFormatFloat32x4, 16},
	"u32":       {wgpu.VertexFormatUint32, 4},
	"vec2u":     {wgpu.VertexFormatUint32x2, 8},
	"vec2<u32>": {wgpu.VertexFormatUint32x2, 8},
	"vec4u":     {wgpu.VertexFormatUint32x4, 16},
	"vec4<u32>": {wgpu.VertexFormatUint32x4, 16},
	"i32":       {wgpu.VertexFormatSint32, 4},
	"vec2i":     {wgpu.VertexFormatSint32x2, 8},
	"vec2<i32>": {wgpu.VertexFormatSint32x2, 8},
	"vec4i":     {wgpu.VertexFormatSint32x4, 16},
	"vec4<i32>": {wgpu.VertexFormatSint32x4, 16},
}

// wgslSampledTextureMap maps sampled texture base names to their view dimension.
var wgslSampledTextureMap = map[string]sampledTextureInfo{
	"texture_2d":              {wgpu.TextureViewDimension2D, false},
	"texture_2d_array":        {wgpu.TextureViewDimension2DArray, false},
	"texture_3d":              {wgpu.TextureViewDimension3D, false},
	"texture_cube":            {wgpu.TextureViewDimensionCube, false},
	"texture_multisampled_2d": {wgpu.TextureViewDimension2D, true},
	"texture_depth_2d":        {wgpu.TextureViewDimension2D, false},
	"texture_depth_cube":      {wgpu.TextureViewDimensionCube, false},
}

// wgslSampleTypeMap maps the texel scalar parameter to its sample type.
var wgslSampleTypeMap = map[string]wgpu.TextureSampleType{
	"f32": wgpu.TextureSampleTypeFloat,
	"i32": wgpu.TextureSampleTypeSint,
	"u32": wgpu.TextureSampleTypeUint,
}

var (
	// structBlockRegex captures the name and body of a struct declaration
	structBlockRegex = regexp.MustCompile(`struct\s+(\w+)\s*\{([^}]*)\}`)

	// locationRegex captures N from @location(N)
	locationRegex = regexp.MustCompile(`@location\((\d+)\)`)

	// builtinRegex matches any @builtin(...) attribute
	builtinRegex = regexp.MustCompile(`@builtin\(\w+\)`)

	// fieldRegex captures the name and type of a struct member, skipping leading attributes
	fieldRegex = regexp.MustCompile(`(?:(?:@\w+\([^)]*\)\s*)*)*\s*(\w+)\s*:\s*(.+)`)

	// vertexEntryRegex captures the name of the @vertex function
	vertexEntryRegex = regexp.MustCompile(`(?s)@vertex\b.*?\bfn\s+(\w+)`)

	// fragmentEntryRegex captures the name of the @fragment function
	fragmentEntryRegex = regexp.MustCompile(`(?s)@fragment\b.*?\bfn\s+(\w+)`)

	// bindGroupDeclRegex captures group, binding, address space, name and type of a resource,
	// e.g. @group(2) @binding(0) var<uniform> camera: Camera3D;
	bindGroupDeclRegex = regexp.MustCompile(`@group\((\d+)\)\s*@binding\((\d+)\)\s*var(?:<([^>]*)>)?\s+(\w+)\s*:\s*([^;]+?)\s*;`)
)

// parseVertexLayouts builds one vertex buffer layout per vertex input struct, meaning structs
// with @location members and no @builtin member. Structs with unsupported member types are
// skipped. Fullscreen programs that generate vertices from vertex_index return nil.
//
// Parameters:
//   - source: the WGSL source code
//
// Returns:
//   - []wgpu.VertexBufferLayout: one layout per vertex input struct, in source order
func parseVertexLayouts(source string) []wgpu.VertexBufferLayout {
	var result []wgpu.VertexBufferLayout
	for _, ps := range parseStructBlocks(stripComments(source)) {
		if !isVertexInputStruct(ps) {
			continue
		}
		if layout, ok := buildVertexBufferLayout(ps); ok {
			result = append(result, layout)
		}
	}
	return result
}

// parseBindings lists every @group/@binding resource declaration in the source.
func parseBindings(source string) []parsedBinding {
	matches := bindGroupDeclRegex.FindAllStringSubmatch(source, -1)
	out := make([]parsedBinding, 0, len(matches))
	for _, m := range matches {
		group, _ := strconv.Atoi(m[1])
		binding, _ := strconv.Atoi(m[2])
		out = append(out, parsedBinding{
			group:        group,
			binding:      binding,
			addressSpace: strings.TrimSpace(m[3]),
			varName:      strings.TrimSpace(m[4]),
			typeName:     strings.TrimSpace(m[5]),
		})
	}
	return out
}

// parseBindGroupLayouts turns the resource declarations of a program into layout descriptors
// keyed by group, with entries sorted by binding. Uniform buffer entries get MinBindingSize
// from the WGSL size of their struct. Every entry is made visible to the given stage.
//
// Parameters:
//   - source: the WGSL source code
//   - visibility: the shader stage that declared the resources
//
// Returns:
//   - map[int]wgpu.BindGroupLayoutDescriptor: layout descriptors keyed by group index
//   - map[int]map[int]string: variable names keyed by group and binding
//   - map[int]map[int]string: WGSL type names keyed by group and binding
func parseBindGroupLayouts(source string, visibility wgpu.ShaderStage) (map[int]wgpu.BindGroupLayoutDescriptor, map[int]map[int]string, map[int]map[int]string) {
	cleaned := stripComments(source)
	structSizes := computeStructSizes(parseStructBlocks(cleaned))

	groups := make(map[int][]wgpu.BindGroupLayoutEntry)
	varNames := make(map[int]map[int]string)
	typeNames := make(map[int]map[int]string)
	for _, b := range parseBindings(cleaned) {
		entry := classifyResource(uint32(b.binding), visibility, b.addressSpace, b.typeName)
		if entry.Buffer.Type != wgpu.BufferBindingTypeUndefined {
			if layout, ok := resolveTypeLayout(b.typeName, structSizes); ok {
				entry.Buffer.MinBindingSize = layout.size
			} else if elem, ok := uniform.InstanceElement(b.typeName); ok {
				// a runtime array binding needs room for at least one element
				if layout, ok := resolveTypeLayout(elem, structSizes); ok {
					entry.Buffer.MinBindingSize = layout.size
				}
			}
		}
		groups[b.group] = append(groups[b.group], entry)

		if varNames[b.group] == nil {
			varNames[b.group] = make(map[int]string)
			typeNames[b.group] = make(map[int]string)
		}
		varNames[b.group][b.binding] = b.varName
		typeNames[b.group][b.binding] = b.typeName
	}

	result := make(map[int]wgpu.BindGroupLayoutDescriptor, len(groups))
	for g, entries := range groups {
		sort.Slice(entries, func(i, j int) bool {
			return entries[i].Binding < entries[j].Binding
		})
		result[g] = wgpu.BindGroupLayoutDescriptor{Entries: entries}
	}
	return result, varNames, typeNames
}

// parseEntryPoint returns the name of the entry point function for the shader type, or ""
// when the source has none.
func parseEntryPoint(source string, shaderType ShaderType) string {
	re := vertexEntryRegex
	if shaderType == ShaderTypeFragment {
		re = fragmentEntryRegex
	}
	if match := re.FindStringSubmatch(stripComments(source)); match != nil {
		return match[1]
	}
	return ""
}

// parseStructBlocks finds every struct block of comment-free source and parses its members.
func parseStructBlocks(source string) []parsedStruct {
	matches := structBlockRegex.FindAllStringSubmatch(source, -1)
	structs := make([]parsedStruct, 0, len(matches))
	for _, match := range matches {
		structs = append(structs, parsedStruct{
			name:   match[1],
			fields: parseStructFields(match[2]),
		})
	}
	return structs
}

// parseStructFields splits a struct body into members, recording @location and @builtin
// attributes alongside the member name and type.
func parseStructFields(body string) []parsedField {
	parts := splitAtTopLevelCommas(body)
	fields := make([]parsedField, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		fm := fieldRegex.FindStringSubmatch(part)
		if fm == nil {
			continue
		}
		field := parsedField{
			name:      fm[1],
			typeName:  strings.TrimSpace(fm[2]),
			location:  -1,
			isBuiltin: builtinRegex.MatchString(part),
		}
		if loc := locationRegex.FindStringSubmatch(part); loc != nil {
			if n, err := strconv.Atoi(loc[1]); err == nil {
				field.location = n
			}
		}
		fields = append(fields, field)
	}
	return fields
}
