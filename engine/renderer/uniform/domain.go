package uniform

import "strings"

// Domain tags a kind of uniform block. Every domain has exactly one canonical layout in the
// Registry, shared by the writer and every program that reads it.
type Domain string

const (
	// DomainCamera2D is the 2D view rectangle and snap cell (group 2).
	DomainCamera2D Domain = "camera_2d"
	// DomainCamera3D is the 3D eye position, view-projection, its inverse and near/far (group 2).
	DomainCamera3D Domain = "camera_3d"
	// DomainLight2D is the five point light slots plus ambient (group 3).
	DomainLight2D Domain = "light_2d"
	// DomainLight3D is the directional sun plus ambient (group 3).
	DomainLight3D Domain = "light_3d"
	// DomainRender2D is the per-sprite offset, scale, color and mix (group 1).
	DomainRender2D Domain = "render_2d"
	// DomainRender3D is the per-draw model matrix, color and mix (group 1).
	DomainRender3D Domain = "render_3d"
	// DomainRenderPBR is the per-draw PBR block with normal matrix, metal flag and roughness (group 1).
	DomainRenderPBR Domain = "material_pbr"
	// DomainQuad is the fullscreen pass dimensions, time and frame counter (group 1).
	DomainQuad Domain = "quad"
	// DomainChannel is the compositing tint and blend weight (group 1).
	DomainChannel Domain = "channel"
)

// Binding group convention shared by every program in the graph.
const (
	// GroupPrimaryInput holds the primary input texture at binding 0 and its sampler at binding 1.
	GroupPrimaryInput = 0
	// GroupMaterial holds per-draw and material uniform blocks.
	GroupMaterial = 1
	// GroupCamera holds the camera block.
	GroupCamera = 2
	// GroupLight holds the light block.
	GroupLight = 3
	// GroupAuxiliaryBase is the first auxiliary channel group; input channel k (k >= 1) binds
	// to group GroupAuxiliaryBase + k - 1.
	GroupAuxiliaryBase = 4
)

// ChannelGroup returns the binding group of input channel k. Channel 0 is the primary input.
//
// Parameters:
//   - channel: the zero-based input channel index
//
// Returns:
//   - int: the binding group the channel's texture and sampler live in
func ChannelGroup(channel int) int {
	if channel == 0 {
		return GroupPrimaryInput
	}
	return GroupAuxiliaryBase + channel - 1
}

// IsUniformGroup reports whether group g carries uniform blocks rather than textures.
func IsUniformGroup(g int) bool {
	return g >= GroupMaterial && g <= GroupLight
}

// InstanceElement returns the struct name of a runtime-sized array type such as
// "array<Render2DUniforms>", the type a program reads per-instance blocks through.
//
// Parameters:
//   - typeName: the WGSL type of a binding
//
// Returns:
//   - string: the element type
//   - bool: false unless typeName is an array without an element count
func InstanceElement(typeName string) (string, bool) {
	inner, ok := strings.CutPrefix(typeName, "array<")
	if !ok {
		return "", false
	}
	inner, ok = strings.CutSuffix(inner, ">")
	if !ok || strings.ContainsAny(inner, ",<") {
		return "", false
	}
	return strings.TrimSpace(inner), true
}
