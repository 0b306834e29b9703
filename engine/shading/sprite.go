// Package shading holds CPU reference implementations of the lighting and pass math the WGSL
// programs run on the GPU. The software backend shades fullscreen passes with it and tests use it
// to pin the numeric behavior of every variant.
package shading

import (
	"github.com/Carmen-Shannon/oxy-graph/common"
	"github.com/Carmen-Shannon/oxy-graph/engine/camera"
	"github.com/Carmen-Shannon/oxy-graph/engine/light"
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

// SnapToGrid floors each component of p to a multiple of cell. A cell of zero or less
// returns p unchanged.
//
// Parameters:
//   - p: the position to snap
//   - cell: the grid cell size
//
// Returns:
//   - mgl32.Vec2: floor(p / cell) * cell
func SnapToGrid(p mgl32.Vec2, cell float32) mgl32.Vec2 {
	if cell <= 0 {
		return p
	}
	return mgl32.Vec2{
		math32.Floor(p[0]/cell) * cell,
		math32.Floor(p[1]/cell) * cell,
	}
}

// Attenuation returns the falloff of a 2D point light at distance d:
// 1 / (1 + linear*d + quadratic*d^2). A light with both coefficients at zero is an unused
// slot and contributes exactly 0.
func Attenuation(d, linear, quadratic float32) float32 {
	if linear == 0 && quadratic == 0 {
		return 0
	}
	return 1 / (1 + linear*d + quadratic*d*d)
}

// LightSum2D sums the attenuation of every point light slot at world position p and adds the
// ambient term.
//
// Parameters:
//   - p: the world-space position being shaded
//   - lights: the Light2D block
//
// Returns:
//   - float32: the scalar lighting factor
func LightSum2D(p mgl32.Vec2, lights light.GPULight2D) float32 {
	sum := lights.Ambient
	for _, slot := range lights.Lights {
		d := p.Sub(mgl32.Vec2{slot[0], slot[1]}).Len()
		sum += Attenuation(d, slot[2], slot[3])
	}
	return sum
}

// SpriteWorld places a sprite-local position in the world: scaled and offset by the sprite's
// model vector (offset xy, scale xy), then shifted by the grid-snapped camera origin.
func SpriteWorld(local mgl32.Vec2, model [4]float32, cam camera.GPUCamera2D) mgl32.Vec2 {
	origin := SnapToGrid(mgl32.Vec2{cam.View[0], cam.View[1]}, cam.Cell)
	return mgl32.Vec2{
		local[0]*model[2] + model[0] - origin[0],
		local[1]*model[3] + model[1] - origin[1],
	}
}

// ShadeSprite2D mixes the base color toward the texel by mix and scales the rgb channels by
// lighting. Alpha is taken from the mixed color unlit.
//
// Parameters:
//   - base: the material base color
//   - texel: the sampled texture color
//   - mix: 0 for the base color, 1 for the texture
//   - lighting: the factor from LightSum2D, or 1 for unlit sprites
//
// Returns:
//   - [4]float32: the shaded color
func ShadeSprite2D(base, texel [4]float32, mix, lighting float32) [4]float32 {
	c := common.MixColor(base, texel, mix)
	return [4]float32{c[0] * lighting, c[1] * lighting, c[2] * lighting, c[3]}
}
