package shading

import (
	"context"
	"fmt"

	"github.com/Carmen-Shannon/oxy-graph/common"
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
	"golang.org/x/sync/errgroup"
)

// SHCoefficients are nine RGB spherical-harmonic radiance coefficients in the order
// L00, L1-1, L10, L11, L2-2, L2-1, L20, L21, L22.
type SHCoefficients [9]mgl32.Vec3

// DefaultSH is the baked environment the PBR variant ships with (the Grace Cathedral probe).
var DefaultSH = SHCoefficients{
	{0.79, 0.44, 0.54},
	{0.39, 0.35, 0.60},
	{-0.34, -0.18, -0.27},
	{-0.29, -0.06, 0.01},
	{-0.11, -0.05, -0.12},
	{-0.26, -0.22, -0.47},
	{-0.16, -0.09, -0.15},
	{0.56, 0.21, 0.14},
	{0.21, -0.05, -0.30},
}

const (
	shC1 float32 = 0.429043
	shC2 float32 = 0.511664
	shC3 float32 = 0.743125
	shC4 float32 = 0.886227
	shC5 float32 = 0.247708
)

// EvalSH9 returns the irradiance along the unit normal n from nine radiance coefficients.
//
// Parameters:
//   - sh: the radiance coefficients
//   - n: the unit surface normal
//
// Returns:
//   - mgl32.Vec3: the irradiance
func EvalSH9(sh SHCoefficients, n mgl32.Vec3) mgl32.Vec3 {
	x, y, z := n[0], n[1], n[2]
	var e mgl32.Vec3
	for c := range 3 {
		e[c] = shC1*sh[8][c]*(x*x-y*y) +
			shC3*sh[6][c]*z*z +
			shC4*sh[0][c] -
			shC5*sh[6][c] +
			2*shC1*(sh[4][c]*x*y+sh[7][c]*x*z+sh[5][c]*y*z) +
			2*shC2*(sh[3][c]*x+sh[1][c]*y+sh[2][c]*z)
	}
	return e
}

// Eval is EvalSH9 on the receiver.
func (sh SHCoefficients) Eval(n mgl32.Vec3) mgl32.Vec3 {
	return EvalSH9(sh, n)
}

// Matrices returns the per-channel quadratic forms M such that the irradiance along n is
// (n, 1)^T M (n, 1). The matrices are symmetric, so the column-major layout uploads as is.
func (sh SHCoefficients) Matrices() [3]mgl32.Mat4 {
	var out [3]mgl32.Mat4
	for c := range 3 {
		out[c] = mgl32.Mat4{
			shC1 * sh[8][c], shC1 * sh[4][c], shC1 * sh[7][c], shC2 * sh[3][c],
			shC1 * sh[4][c], -shC1 * sh[8][c], shC1 * sh[5][c], shC2 * sh[1][c],
			shC1 * sh[7][c], shC1 * sh[5][c], shC3 * sh[6][c], shC2 * sh[2][c],
			shC2 * sh[3][c], shC2 * sh[1][c], shC2 * sh[2][c], shC4*sh[0][c] - shC5*sh[6][c],
		}
	}
	return out
}

// CubeFaceDirection maps a face texel coordinate to an (unnormalized) direction. Faces are
// ordered +X, -X, +Y, -Y, +Z, -Z; u and v are in [0, 1].
func CubeFaceDirection(face int, u, v float32) mgl32.Vec3 {
	uc := 2*u - 1
	vc := 2*v - 1
	switch face {
	case 0:
		return mgl32.Vec3{1, vc, -uc}
	case 1:
		return mgl32.Vec3{-1, vc, uc}
	case 2:
		return mgl32.Vec3{uc, 1, -vc}
	case 3:
		return mgl32.Vec3{uc, -1, vc}
	case 4:
		return mgl32.Vec3{uc, vc, 1}
	default:
		return mgl32.Vec3{-uc, vc, -1}
	}
}

// ProjectCubemap integrates six square cube faces into nine SH radiance coefficients. Each
// face is integrated on its own goroutine; texels are weighted by their exact solid angle.
//
// Parameters:
//   - ctx: cancels the projection between rows
//   - faces: RGBA8 faces ordered +X, -X, +Y, -Y, +Z, -Z, all the same square size
//
// Returns:
//   - SHCoefficients: the projected coefficients
//   - error: an error if the faces are not matching squares, or ctx was cancelled
func ProjectCubemap(ctx context.Context, faces [6]common.TextureStagingData) (SHCoefficients, error) {
	size := faces[0].Width
	for i, f := range faces {
		if f.Width != size || f.Height != size || size == 0 {
			return SHCoefficients{}, fmt.Errorf("shading: cube face %d is %dx%d, want %dx%d", i, f.Width, f.Height, size, size)
		}
		if len(f.Pixels) < int(size*size*4) {
			return SHCoefficients{}, fmt.Errorf("shading: cube face %d holds %d bytes, want %d", i, len(f.Pixels), size*size*4)
		}
	}

	var partial [6]SHCoefficients
	g, ctx := errgroup.WithContext(ctx)
	for i := range faces {
		g.Go(func() error {
			return projectFace(ctx, i, faces[i], &partial[i])
		})
	}
	if err := g.Wait(); err != nil {
		return SHCoefficients{}, err
	}

	var sh SHCoefficients
	for _, p := range partial {
		for k := range sh {
			sh[k] = sh[k].Add(p[k])
		}
	}
	common.Logger().Debug("projected cubemap", "size", size, "L00", sh[0])
	return sh, nil
}

func projectFace(ctx context.Context, face int, data common.TextureStagingData, out *SHCoefficients) error {
	size := int(data.Width)
	texel := 2 / float32(size)
	for row := range size {
		if err := ctx.Err(); err != nil {
			return err
		}
		for col := range size {
			u := (float32(col) + 0.5) / float32(size)
			v := (float32(row) + 0.5) / float32(size)
			dir := CubeFaceDirection(face, u, v)
			r2 := dir.Dot(dir)
			// solid angle of a texel on the unit-distance face plane
			dOmega := texel * texel / (r2 * math32.Sqrt(r2))
			n := dir.Normalize()

			i := (row*size + col) * 4
			radiance := mgl32.Vec3{
				float32(data.Pixels[i]) / 255,
				float32(data.Pixels[i+1]) / 255,
				float32(data.Pixels[i+2]) / 255,
			}
			for k, y := range shBasis(n) {
				out[k] = out[k].Add(radiance.Mul(y * dOmega))
			}
		}
	}
	return nil
}

func shBasis(n mgl32.Vec3) [9]float32 {
	x, y, z := n[0], n[1], n[2]
	return [9]float32{
		0.282095,
		0.488603 * y,
		0.488603 * z,
		0.488603 * x,
		1.092548 * x * y,
		1.092548 * y * z,
		0.315392 * (3*z*z - 1),
		1.092548 * x * z,
		0.546274 * (x*x - y*y),
	}
}
