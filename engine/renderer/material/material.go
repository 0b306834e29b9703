package material

import (
	"github.com/Carmen-Shannon/oxy-graph/common"
	"github.com/go-gl/mathgl/mgl32"
)

// material is the implementation of the Material interface.
type material struct {
	name      string
	baseColor [4]float32
	mix       float32
	metal     bool
	roughness float32
	texture   *common.TextureStagingData
}

// Material defines the surface parameters of a drawable and packs them, together with a
// per-instance transform supplied by the scene, into the material blocks of group 1.
//
// Surface properties are set at construction and read-only through this interface.
type Material interface {
	// Name retrieves the material identifier.
	//
	// Returns:
	//   - string: the name of the material
	Name() string

	// BaseColor retrieves the RGBA base color of the material.
	//
	// Returns:
	//   - [4]float32: the base color as RGBA values
	BaseColor() [4]float32

	// Mix retrieves the factor used to blend the base color toward the sampled texture.
	// A value of 0 uses only the base color, 1 uses only the texture.
	//
	// Returns:
	//   - float32: the mix factor
	Mix() float32

	// Metal reports whether the surface is a metal. Metals take their specular color from
	// the base color and have no diffuse term.
	//
	// Returns:
	//   - bool: true for metals, false for dielectrics
	Metal() bool

	// Roughness retrieves the perceptual roughness of the material in [0, 1].
	//
	// Returns:
	//   - float32: the roughness factor
	Roughness() float32

	// Texture retrieves the staged texture bound to the node's primary input, or nil.
	//
	// Returns:
	//   - *common.TextureStagingData: the texture, or nil
	Texture() *common.TextureStagingData

	// Render2D packs the Render2DUniforms block for one sprite.
	//
	// Parameters:
	//   - offset: world-space sprite position
	//   - scale: world-space sprite size
	//
	// Returns:
	//   - *GPURender2DUniforms: the block ready for upload
	Render2D(offset, scale mgl32.Vec2) *GPURender2DUniforms

	// Render3D packs the Render3DUniforms block for one draw.
	//
	// Parameters:
	//   - model: the instance model matrix
	//
	// Returns:
	//   - *GPURender3DUniforms: the block ready for upload
	Render3D(model mgl32.Mat4) *GPURender3DUniforms

	// RenderPBR packs the RenderPBRUniforms block for one draw. The normal matrix is
	// derived from the model matrix.
	//
	// Parameters:
	//   - model: the instance model matrix
	//
	// Returns:
	//   - *GPURenderPBRUniforms: the block ready for upload
	RenderPBR(model mgl32.Mat4) *GPURenderPBRUniforms
}

var _ Material = &material{}

// NewMaterial creates a new Material with the given options. Defaults: white, no texture
// mix, dielectric, roughness 0.5.
//
// Parameters:
//   - options: a variadic list of MaterialBuilderOption functions
//
// Returns:
//   - Material: the configured material
func NewMaterial(options ...MaterialBuilderOption) Material {
	m := &material{
		baseColor: [4]float32{1, 1, 1, 1},
		roughness: 0.5,
	}
	for _, opt := range options {
		opt(m)
	}
	return m
}

func (m *material) Name() string {
	return m.name
}

func (m *material) BaseColor() [4]float32 {
	return m.baseColor
}

func (m *material) Mix() float32 {
	return m.mix
}

func (m *material) Metal() bool {
	return m.metal
}

func (m *material) Roughness() float32 {
	return m.roughness
}

func (m *material) Texture() *common.TextureStagingData {
	return m.texture
}

func (m *material) Render2D(offset, scale mgl32.Vec2) *GPURender2DUniforms {
	return &GPURender2DUniforms{
		Model: [4]float32{offset.X(), offset.Y(), scale.X(), scale.Y()},
		Color: m.baseColor,
		Mix:   m.mix,
	}
}

func (m *material) Render3D(model mgl32.Mat4) *GPURender3DUniforms {
	return &GPURender3DUniforms{
		Model: model,
		Color: m.baseColor,
		Mix:   m.mix,
	}
}

func (m *material) RenderPBR(model mgl32.Mat4) *GPURenderPBRUniforms {
	var metal uint32
	if m.metal {
		metal = 1
	}
	return &GPURenderPBRUniforms{
		Model:     model,
		Normal:    model.Inv().Transpose(),
		Color:     m.baseColor,
		Mix:       m.mix,
		Metal:     metal,
		Roughness: m.roughness,
	}
}
