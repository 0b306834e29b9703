package material

import (
	"github.com/Carmen-Shannon/oxy-graph/common"
)

// MaterialBuilderOption is a functional option used to configure a Material during construction.
type MaterialBuilderOption func(*material)

// WithName sets the material identifier.
//
// Parameters:
//   - name: the material name
//
// Returns:
//   - MaterialBuilderOption: a function that sets the name
func WithName(name string) MaterialBuilderOption {
	return func(m *material) {
		m.name = name
	}
}

// WithBaseColor sets the RGBA base color.
//
// Parameters:
//   - color: the base color as RGBA values
//
// Returns:
//   - MaterialBuilderOption: a function that sets the base color
func WithBaseColor(color [4]float32) MaterialBuilderOption {
	return func(m *material) {
		m.baseColor = color
	}
}

// WithMix sets the color/texture mix factor, clamped to [0, 1].
//
// Parameters:
//   - mix: the mix factor
//
// Returns:
//   - MaterialBuilderOption: a function that sets the mix factor
func WithMix(mix float32) MaterialBuilderOption {
	return func(m *material) {
		m.mix = common.Saturate(mix)
	}
}

// WithMetal marks the surface as a metal or a dielectric.
//
// Parameters:
//   - metal: true for metals
//
// Returns:
//   - MaterialBuilderOption: a function that sets the metal flag
func WithMetal(metal bool) MaterialBuilderOption {
	return func(m *material) {
		m.metal = metal
	}
}

// WithRoughness sets the perceptual roughness, clamped to [0, 1].
//
// Parameters:
//   - roughness: the roughness factor
//
// Returns:
//   - MaterialBuilderOption: a function that sets the roughness
func WithRoughness(roughness float32) MaterialBuilderOption {
	return func(m *material) {
		m.roughness = common.Saturate(roughness)
	}
}

// WithTexture sets the texture uploaded to the node's primary input.
func WithTexture(tex *common.TextureStagingData) MaterialBuilderOption {
	return func(m *material) {
		m.texture = tex
	}
}
