package shading

import (
	"github.com/Carmen-Shannon/oxy-graph/common"
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

var (
	skyZenith  = mgl32.Vec3{0.25, 0.45, 0.8}
	skyHorizon = mgl32.Vec3{0.75, 0.82, 0.9}
	skyGround  = mgl32.Vec3{0.3, 0.28, 0.25}
	sunColor   = mgl32.Vec3{1.0, 0.9, 0.7}
)

// SkyColor is the procedural sky radiance along a unit direction: a horizon to zenith
// gradient above the horizon, a flat ground tone below it, and a sun glow.
func SkyColor(dir mgl32.Vec3) mgl32.Vec3 {
	var col mgl32.Vec3
	if dir[1] >= 0 {
		col = mixVec3(skyHorizon, skyZenith, math32.Sqrt(dir[1]))
	} else {
		col = mixVec3(skyHorizon, skyGround, common.Saturate(-dir[1]*4))
	}
	sun := common.Saturate(dir.Dot(sunDirection))
	return col.Add(sunColor.Mul(0.25 * math32.Pow(sun, 8)))
}

// ShadeSky renders one pixel of the sky pass by unprojecting uv into a view direction.
//
// Parameters:
//   - uv: the pixel center in [0, 1]
//   - invViewProj: the inverse view-projection matrix
//
// Returns:
//   - [4]float32: the sky color, alpha 1
func ShadeSky(uv [2]float32, invViewProj mgl32.Mat4) [4]float32 {
	c := SkyColor(GenerateRay(uv, invViewProj).Direction)
	return [4]float32{common.Saturate(c[0]), common.Saturate(c[1]), common.Saturate(c[2]), 1}
}
