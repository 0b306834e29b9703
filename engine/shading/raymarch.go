package shading

import (
	"github.com/Carmen-Shannon/oxy-graph/common"
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

const (
	// MaxMarchSteps bounds the sphere-marching loop.
	MaxMarchSteps = 128
	// MarchEpsilon is the hit threshold per unit of distance travelled.
	MarchEpsilon float32 = 0.0005
	// MandelbulbPower is the exponent of the fractal.
	MandelbulbPower float32 = 8
	// MandelbulbIterations bounds the fractal iteration.
	MandelbulbIterations = 5
	// MandelbulbBailout is the squared magnitude past which the iteration exits.
	MandelbulbBailout float32 = 256
	// GroundHeight is the y coordinate of the ground plane.
	GroundHeight float32 = -1.2
)

// Surface identifiers returned by Scene and March.
const (
	SurfaceNone = iota
	SurfaceGround
	SurfaceFractal
)

// Ray is a half line starting at Origin along the unit vector Direction.
type Ray struct {
	Origin    mgl32.Vec3
	Direction mgl32.Vec3
}

// At returns the point at distance t along the ray.
func (r Ray) At(t float32) mgl32.Vec3 {
	return r.Origin.Add(r.Direction.Mul(t))
}

// GenerateRay unprojects a screen coordinate through the inverse view-projection matrix. The
// ray starts on the near plane and points at the far plane.
//
// Parameters:
//   - uv: the screen coordinate in [0, 1], v pointing down
//   - invViewProj: the inverse of the camera's view-projection matrix
//
// Returns:
//   - Ray: the primary ray through uv
func GenerateRay(uv [2]float32, invViewProj mgl32.Mat4) Ray {
	ndcX := uv[0]*2 - 1
	ndcY := 1 - uv[1]*2
	near := invViewProj.Mul4x1(mgl32.Vec4{ndcX, ndcY, 0, 1})
	far := invViewProj.Mul4x1(mgl32.Vec4{ndcX, ndcY, 1, 1})
	n := near.Vec3().Mul(1 / near[3])
	f := far.Vec3().Mul(1 / far[3])
	return Ray{Origin: n, Direction: f.Sub(n).Normalize()}
}

// MandelbulbDE is the distance estimate to a power-8 Mandelbulb centered at the origin.
func MandelbulbDE(p mgl32.Vec3) float32 {
	z := p
	dr := float32(1)
	r := z.Len()
	for range MandelbulbIterations {
		r = z.Len()
		if r*r > MandelbulbBailout || r < 1e-6 {
			break
		}
		theta := math32.Acos(common.Clamp(z[2]/r, -1, 1)) * MandelbulbPower
		phi := math32.Atan2(z[1], z[0]) * MandelbulbPower
		dr = math32.Pow(r, MandelbulbPower-1)*MandelbulbPower*dr + 1
		zr := math32.Pow(r, MandelbulbPower)
		sinTheta := math32.Sin(theta)
		z = mgl32.Vec3{
			zr * sinTheta * math32.Cos(phi),
			zr * sinTheta * math32.Sin(phi),
			zr * math32.Cos(theta),
		}.Add(p)
	}
	if r < 1e-6 {
		return 0
	}
	return 0.5 * math32.Log(r) * r / dr
}

// Scene returns the signed distance from p to the nearest surface and which surface it is.
func Scene(p mgl32.Vec3) (float32, int) {
	ground := p[1] - GroundHeight
	fractal := MandelbulbDE(p)
	if ground < fractal {
		return ground, SurfaceGround
	}
	return fractal, SurfaceFractal
}

// March sphere-traces ray through Scene between near and far. The hit threshold grows with
// the distance travelled.
//
// Parameters:
//   - ray: the ray to trace
//   - near: the starting distance
//   - far: the distance past which the ray misses
//
// Returns:
//   - float32: the hit distance, or far on a miss
//   - int: the surface hit, SurfaceNone on a miss
func March(ray Ray, near, far float32) (float32, int) {
	t := near
	for range MaxMarchSteps {
		d, surface := Scene(ray.At(t))
		if d < MarchEpsilon*t {
			return t, surface
		}
		t += d
		if t > far {
			break
		}
	}
	return far, SurfaceNone
}

// TracePixel marches the primary ray through uv. The ray already starts on the near plane, so
// the march begins at 0 and covers the far - near left of the view volume.
//
// Returns:
//   - Ray: the primary ray
//   - float32: the hit distance from the near plane
//   - int: the surface hit, SurfaceNone on a miss
func TracePixel(uv [2]float32, invViewProj mgl32.Mat4, near, far float32) (Ray, float32, int) {
	ray := GenerateRay(uv, invViewProj)
	t, surface := March(ray, 0, far-near)
	return ray, t, surface
}

// Normal estimates the scene normal at p from central differences.
func Normal(p mgl32.Vec3) mgl32.Vec3 {
	const e = 0.001
	dist := func(q mgl32.Vec3) float32 {
		d, _ := Scene(q)
		return d
	}
	return mgl32.Vec3{
		dist(p.Add(mgl32.Vec3{e, 0, 0})) - dist(p.Sub(mgl32.Vec3{e, 0, 0})),
		dist(p.Add(mgl32.Vec3{0, e, 0})) - dist(p.Sub(mgl32.Vec3{0, e, 0})),
		dist(p.Add(mgl32.Vec3{0, 0, e})) - dist(p.Sub(mgl32.Vec3{0, 0, e})),
	}.Normalize()
}

// AmbientOcclusion takes five distance samples along the normal and darkens where the scene
// is closer than the sample offset.
//
// Parameters:
//   - p: the surface point
//   - n: the surface normal
//
// Returns:
//   - float32: 1 for fully open, toward 0 for occluded
func AmbientOcclusion(p, n mgl32.Vec3) float32 {
	occ := float32(0)
	scale := float32(1)
	for i := range 5 {
		h := 0.01 + 0.12*float32(i)/4
		d, _ := Scene(p.Add(n.Mul(h)))
		occ += (h - d) * scale
		scale *= 0.95
	}
	return common.Saturate(1 - 3*occ)
}

// PlaneDifferentials returns how the hit point on a plane with normal n moves between
// neighboring pixels, from the primary direction rd and its neighbors rdx and rdy at hit
// distance t.
func PlaneDifferentials(t float32, rd, rdx, rdy, n mgl32.Vec3) (dpdx, dpdy mgl32.Vec3) {
	rn := rd.Dot(n)
	dpdx = rdx.Mul(rn / rdx.Dot(n)).Sub(rd).Mul(t)
	dpdy = rdy.Mul(rn / rdy.Dot(n)).Sub(rd).Mul(t)
	return dpdx, dpdy
}

// GridPattern is a box-filtered grid: 1 inside cells, 0 on lines. The filter width follows
// the footprint given by the derivatives so distant lines fade instead of aliasing.
//
// Parameters:
//   - p: the pattern coordinate
//   - dpdx, dpdy: the coordinate's screen-space derivatives
//
// Returns:
//   - float32: the filtered coverage in [0, 1]
func GridPattern(p, dpdx, dpdy mgl32.Vec2) float32 {
	const lines = 10
	var cover [2]float32
	for i := range 2 {
		w := math32.Max(math32.Abs(dpdx[i]), math32.Abs(dpdy[i])) + 0.001
		a := p[i] + 0.5*w
		b := p[i] - 0.5*w
		cover[i] = (math32.Floor(a) + math32.Min(common.Fract(a)*lines, 1) -
			math32.Floor(b) - math32.Min(common.Fract(b)*lines, 1)) / (lines * w)
	}
	return (1 - cover[0]) * (1 - cover[1])
}

// sunDirection points toward the sun.
var sunDirection = mgl32.Vec3{0.6, 0.7, 0.4}.Normalize()

// ShadeRaymarch renders one pixel of the raymarched scene.
//
// Parameters:
//   - uv: the pixel center in [0, 1]
//   - pixel: the size of one pixel in uv units
//   - invViewProj: the inverse view-projection matrix
//   - near, far: the clip distances
//
// Returns:
//   - [4]float32: the gamma-encoded color, alpha 1
func ShadeRaymarch(uv, pixel [2]float32, invViewProj mgl32.Mat4, near, far float32) [4]float32 {
	ray, t, surface := TracePixel(uv, invViewProj, near, far)
	sky := SkyColor(ray.Direction)

	col := sky
	if surface != SurfaceNone {
		pos := ray.At(t)
		n := Normal(pos)

		var albedo mgl32.Vec3
		if surface == SurfaceGround {
			rdx := GenerateRay([2]float32{uv[0] + pixel[0], uv[1]}, invViewProj).Direction
			rdy := GenerateRay([2]float32{uv[0], uv[1] + pixel[1]}, invViewProj).Direction
			dpdx, dpdy := PlaneDifferentials(t, ray.Direction, rdx, rdy, mgl32.Vec3{0, 1, 0})
			g := GridPattern(mgl32.Vec2{pos[0], pos[2]}, mgl32.Vec2{dpdx[0], dpdx[2]}, mgl32.Vec2{dpdy[0], dpdy[2]})
			albedo = mgl32.Vec3{0.2, 0.2, 0.2}.Add(mgl32.Vec3{0.2, 0.2, 0.2}.Mul(g))
		} else {
			albedo = mgl32.Vec3{0.7, 0.45, 0.3}
		}

		occ := AmbientOcclusion(pos, n)
		dif := common.Saturate(n.Dot(sunDirection))
		skyTerm := common.Saturate(0.5 + 0.5*n[1])
		light := mgl32.Vec3{1.3, 1.0, 0.7}.Mul(dif).Add(mgl32.Vec3{0.4, 0.6, 1.0}.Mul(0.6 * skyTerm * occ))
		col = mulVec3(albedo, light)

		fog := 1 - math32.Exp(-0.002*t*t)
		col = mixVec3(col, sky, fog)
	}

	return [4]float32{
		math32.Pow(common.Saturate(col[0]), 0.4545),
		math32.Pow(common.Saturate(col[1]), 0.4545),
		math32.Pow(common.Saturate(col[2]), 0.4545),
		1,
	}
}
