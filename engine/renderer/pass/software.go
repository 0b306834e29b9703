package pass

import (
	"github.com/Carmen-Shannon/oxy-graph/common"
	"github.com/Carmen-Shannon/oxy-graph/engine/camera"
	"github.com/Carmen-Shannon/oxy-graph/engine/light"
	"github.com/Carmen-Shannon/oxy-graph/engine/renderer/material"
	"github.com/Carmen-Shannon/oxy-graph/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-graph/engine/renderer/uniform"
	"github.com/Carmen-Shannon/oxy-graph/engine/shading"
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

func channelFragment(_ *variantConfig) pipeline.SoftwareFragment {
	return func(in pipeline.FragmentInput) [4]float32 {
		blend := material.UnmarshalGPUChannelUniforms(in.Uniform(uniform.DomainChannel))
		uv := in.UV()
		src := in.Sample(0, uv[0], uv[1])
		var out [4]float32
		for i := range out {
			out[i] = common.Mix(src[i], src[i]*blend.Tint[i], blend.Weight)
		}
		return out
	}
}

// automatonFragment reads cells at their centers through the input's repeat sampler, so
// the neighborhood wraps at the grid edges.
func automatonFragment(_ *variantConfig) pipeline.SoftwareFragment {
	const grid = float32(shading.AutomatonGrid)
	return func(in pipeline.FragmentInput) [4]float32 {
		quad := material.UnmarshalGPUQuadUniforms(in.Uniform(uniform.DomainQuad))
		uv := in.UV()
		x := int(math32.Floor(uv[0] * grid))
		y := int(math32.Floor(uv[1] * grid))

		cell := func(cx, cy int) [4]float32 {
			return in.Sample(0, (float32(cx)+0.5)/grid, (float32(cy)+0.5)/grid)
		}
		prev := cell(x, y)
		if quad.Frame < shading.SeedFrames {
			return shading.Step(shading.DefaultRules, quad.Frame, x, y, prev, 0)
		}
		count := shading.CountNeighbors(x, y, func(cx, cy int) bool {
			return cell(cx, cy)[0] >= 0.5
		})
		return shading.Step(shading.DefaultRules, quad.Frame, x, y, prev, count)
	}
}

func raymarchFragment(_ *variantConfig) pipeline.SoftwareFragment {
	return func(in pipeline.FragmentInput) [4]float32 {
		cam := camera.UnmarshalGPUCamera3D(in.Uniform(uniform.DomainCamera3D))
		res := in.Resolution()
		pixel := [2]float32{1 / res[0], 1 / res[1]}
		return shading.ShadeRaymarch(in.UV(), pixel, mgl32.Mat4(cam.InvViewProj), cam.NearFar[0], cam.NearFar[1])
	}
}

func skyFragment(_ *variantConfig) pipeline.SoftwareFragment {
	return func(in pipeline.FragmentInput) [4]float32 {
		cam := camera.UnmarshalGPUCamera3D(in.Uniform(uniform.DomainCamera3D))
		return shading.ShadeSky(in.UV(), mgl32.Mat4(cam.InvViewProj))
	}
}

// spriteFragment inverts the sprite vertex stage: each instance whose quad covers the pixel
// is shaded and blended over the target in instance order, as the blended sprite pipelines do.
func spriteFragment(lit bool) func(cfg *variantConfig) pipeline.SoftwareFragment {
	stride := (&material.GPURender2DUniforms{}).Size()
	return func(_ *variantConfig) pipeline.SoftwareFragment {
		return func(in pipeline.FragmentInput) [4]float32 {
			cam := camera.UnmarshalGPUCamera2D(in.Uniform(uniform.DomainCamera2D))
			var lights light.GPULight2D
			if lit {
				lights = light.UnmarshalGPULight2D(in.Uniform(uniform.DomainLight2D))
			}
			uv := in.UV()
			world := mgl32.Vec2{uv[0] * cam.View[2], uv[1] * cam.View[3]}
			origin := shading.SnapToGrid(mgl32.Vec2{cam.View[0], cam.View[1]}, cam.Cell)

			sprites := in.Uniform(uniform.DomainRender2D)
			dst := in.Destination()
			for i := 0; i < in.Instances() && (i+1)*stride <= len(sprites); i++ {
				sprite := material.UnmarshalGPURender2DUniforms(sprites[i*stride:])
				if sprite.Model[2] == 0 || sprite.Model[3] == 0 {
					continue
				}
				u := (world[0] + origin[0] - sprite.Model[0]) / sprite.Model[2]
				v := (world[1] + origin[1] - sprite.Model[1]) / sprite.Model[3]
				if u < 0 || u >= 1 || v < 0 || v >= 1 {
					continue
				}
				lighting := float32(1)
				if lit {
					lighting = shading.LightSum2D(world, lights)
				}
				dst = blendOver(shading.ShadeSprite2D(sprite.Color, in.Sample(0, u, v), sprite.Mix, lighting), dst)
			}
			return dst
		}
	}
}

// blendOver applies the sprite pipelines' blend state: straight alpha for color, one plus
// one-minus-source-alpha for alpha.
func blendOver(src, dst [4]float32) [4]float32 {
	a := src[3]
	return [4]float32{
		src[0]*a + dst[0]*(1-a),
		src[1]*a + dst[1]*(1-a),
		src[2]*a + dst[2]*(1-a),
		a + dst[3]*(1-a),
	}
}
