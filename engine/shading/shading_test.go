package shading

import (
	"context"
	"testing"

	"github.com/Carmen-Shannon/oxy-graph/common"
	"github.com/Carmen-Shannon/oxy-graph/engine/camera"
	"github.com/Carmen-Shannon/oxy-graph/engine/light"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSnapToGrid(t *testing.T) {
	assert.Equal(t, mgl32.Vec2{16, -8}, SnapToGrid(mgl32.Vec2{17.5, -3}, 8))
	assert.Equal(t, mgl32.Vec2{17.5, -3}, SnapToGrid(mgl32.Vec2{17.5, -3}, 0), "non-positive cells do not snap")
}

func TestAttenuation(t *testing.T) {
	assert.Equal(t, float32(0), Attenuation(0, 0, 0), "unused slot contributes nothing, even at distance 0")
	assert.Equal(t, float32(0), Attenuation(5, 0, 0))
	assert.Equal(t, float32(1), Attenuation(0, 0.5, 0.25))
	assert.InDelta(t, 1.0/(1+0.5*2+0.25*4), Attenuation(2, 0.5, 0.25), 1e-6)
}

func TestLightSum2D(t *testing.T) {
	var lights light.GPULight2D
	assert.Equal(t, float32(0), LightSum2D(mgl32.Vec2{3, 4}, lights))

	lights.Ambient = 0.1
	lights.Lights[2] = [4]float32{0, 0, 1, 0}
	// distance 5 from the only active slot
	assert.InDelta(t, 0.1+1.0/6, LightSum2D(mgl32.Vec2{3, 4}, lights), 1e-6)
}

func TestShadeSprite2D(t *testing.T) {
	red := [4]float32{1, 0, 0, 1}
	blue := [4]float32{0, 0, 1, 0.5}
	assert.Equal(t, red, ShadeSprite2D(red, blue, 0, 1))
	assert.Equal(t, blue, ShadeSprite2D(red, blue, 1, 1))
	assert.Equal(t, [4]float32{0.5, 0, 0, 1}, ShadeSprite2D(red, blue, 0, 0.5), "lighting scales rgb only")
}

func TestSpriteWorld(t *testing.T) {
	cam := camera.GPUCamera2D{View: [4]float32{13, 21, 800, 600}, Cell: 8}
	p := SpriteWorld(mgl32.Vec2{1, 1}, [4]float32{100, 50, 2, 4}, cam)
	assert.Equal(t, mgl32.Vec2{102 - 8, 54 - 16}, p)
}

func TestSplitMetal(t *testing.T) {
	base := mgl32.Vec3{0.9, 0.6, 0.2}

	specular, diffuse := SplitMetal(base, true)
	assert.Equal(t, base, specular)
	assert.Equal(t, mgl32.Vec3{0, 0, 0}, diffuse)

	specular, diffuse = SplitMetal(base, false)
	assert.Equal(t, mgl32.Vec3{0.02, 0.02, 0.02}, specular)
	assert.Equal(t, base, diffuse)
}

func TestEnvBRDFApprox(t *testing.T) {
	one := mgl32.Vec3{1, 1, 1}
	smooth := EnvBRDFApprox(one, 0, 1)
	assert.InDelta(t, 1.0, smooth[0], 1e-3, "a smooth white mirror reflects everything head on")

	rough := EnvBRDFApprox(one, 1, 1)
	assert.InDelta(t, 0.45, rough[0], 1e-3)

	zero := EnvBRDFApprox(mgl32.Vec3{}, 0.5, 0.5)
	assert.InDelta(t, 0.0218, zero[0], 1e-3, "f0 = 0 keeps only the bias term")
}

func TestGGXTerms(t *testing.T) {
	// a rougher surface spreads its peak
	assert.Greater(t, DistributionGGX(1, 0.2), DistributionGGX(1, 0.8))
	assert.Greater(t, VisibilitySmithGGX(1, 1, 0.5), float32(0))
	assert.Equal(t, float32(0), VisibilitySmithGGX(0, 0, 0.5))
}

func TestSpecularEnvironment(t *testing.T) {
	sharp := mgl32.Vec3{1, 0, 0}
	blurred := mgl32.Vec3{0, 1, 0}
	irradiance := mgl32.Vec3{0, 0, 1}

	assert.Equal(t, sharp, SpecularEnvironment(sharp, blurred, irradiance, 0))
	mixed := SpecularEnvironment(sharp, blurred, irradiance, 0.2)
	assert.InDelta(t, 0.8, mixed[0], 1e-6)
	assert.InDelta(t, 0.2, mixed[1], 1e-6)
	assert.Zero(t, mixed[2], "below 0.25 the irradiance does not leak in")
	assert.Equal(t, irradiance, SpecularEnvironment(sharp, blurred, irradiance, 1))
}

func TestShadePBRMetalHasNoDiffuse(t *testing.T) {
	surface := SurfacePBR{
		Base:      mgl32.Vec3{0.8, 0.5, 0.3},
		Roughness: 0.1,
		Normal:    mgl32.Vec3{0, 0, 1},
		View:      mgl32.Vec3{0, 0, 1},
		LightDir:  mgl32.Vec3{0, 0, -1},
		SH:        DefaultSH,
	}

	surface.Metal = true
	assert.Equal(t, mgl32.Vec3{0, 0, 0}, ShadePBR(surface), "no light, no environment: a metal reflects nothing")

	surface.Metal = false
	out := ShadePBR(surface)
	want := mulVec3(surface.Base, DefaultSH.Eval(mgl32.Vec3{0, 0, 1}))
	for i := range 3 {
		assert.InDelta(t, want[i], out[i], 1e-5)
	}
}

func TestShadeLambert(t *testing.T) {
	out := ShadeLambert(mgl32.Vec3{1, 0.5, 1}, mgl32.Vec3{0, 1, 0}, mgl32.Vec3{0, -1, 0}, mgl32.Vec3{1, 1, 1}, mgl32.Vec3{0.1, 0.1, 0.1})
	assert.InDelta(t, 1.1, out[0], 1e-6)
	assert.InDelta(t, 0.55, out[1], 1e-6)

	back := ShadeLambert(mgl32.Vec3{1, 1, 1}, mgl32.Vec3{0, 1, 0}, mgl32.Vec3{0, 1, 0}, mgl32.Vec3{1, 1, 1}, mgl32.Vec3{0.1, 0.1, 0.1})
	assert.InDelta(t, 0.1, back[0], 1e-6, "lights behind the surface leave only ambient")
}

func TestShadeTextured(t *testing.T) {
	assert.Equal(t, [4]float32{0.5, 0.5, 0, 1}, ShadeTextured([4]float32{1, 0, 0, 1}, [4]float32{0, 1, 0, 1}, 0.5))
}

func TestEvalSH9(t *testing.T) {
	up := EvalSH9(DefaultSH, mgl32.Vec3{0, 1, 0})
	assert.InDelta(t, 1.0487515, up[0], 1e-5)
	assert.InDelta(t, 0.79185055, up[1], 1e-5)
	assert.InDelta(t, 1.25842848, up[2], 1e-5)

	forward := DefaultSH.Eval(mgl32.Vec3{0, 0, 1})
	assert.InDelta(t, 0.27292109, forward[0], 1e-5)
}

func TestSHMatricesMatchEval(t *testing.T) {
	matrices := DefaultSH.Matrices()
	normals := []mgl32.Vec3{
		{1, 0, 0}, {0, -1, 0}, {0, 0, 1},
		mgl32.Vec3{1, 1, 1}.Normalize(),
		mgl32.Vec3{-0.3, 0.8, 0.2}.Normalize(),
	}
	for _, n := range normals {
		want := EvalSH9(DefaultSH, n)
		n4 := n.Vec4(1)
		for c := range 3 {
			got := n4.Dot(matrices[c].Mul4x1(n4))
			assert.InDelta(t, want[c], got, 1e-5, "normal %v channel %d", n, c)
		}
	}
}

func TestProjectCubemapUniformWhite(t *testing.T) {
	var faces [6]common.TextureStagingData
	for i := range faces {
		faces[i] = common.SolidTexture(16, 16, [4]uint8{255, 255, 255, 255})
	}

	sh, err := ProjectCubemap(context.Background(), faces)
	require.NoError(t, err)

	// a constant environment only has a DC term: 0.282095 * 4pi
	for c := range 3 {
		assert.InDelta(t, 3.5449, sh[0][c], 0.01)
	}
	for k := 1; k < 9; k++ {
		for c := range 3 {
			assert.InDelta(t, 0, sh[k][c], 1e-3, "coefficient %d", k)
		}
	}

	// irradiance of a uniform environment of radiance 1 is pi in every direction
	e := sh.Eval(mgl32.Vec3{0, 1, 0})
	assert.InDelta(t, 3.1416, e[0], 0.01)
}

func TestProjectCubemapErrors(t *testing.T) {
	var faces [6]common.TextureStagingData
	for i := range faces {
		faces[i] = common.SolidTexture(8, 8, [4]uint8{255, 0, 0, 255})
	}
	faces[3] = common.SolidTexture(8, 4, [4]uint8{255, 0, 0, 255})
	_, err := ProjectCubemap(context.Background(), faces)
	assert.ErrorContains(t, err, "cube face 3")

	faces[3] = common.SolidTexture(8, 8, [4]uint8{255, 0, 0, 255})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = ProjectCubemap(ctx, faces)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestCubeFaceDirection(t *testing.T) {
	centers := map[int]mgl32.Vec3{
		0: {1, 0, 0}, 1: {-1, 0, 0},
		2: {0, 1, 0}, 3: {0, -1, 0},
		4: {0, 0, 1}, 5: {0, 0, -1},
	}
	for face, want := range centers {
		assert.Equal(t, want, CubeFaceDirection(face, 0.5, 0.5), "face %d", face)
	}
}
