package shading

import (
	"github.com/Carmen-Shannon/oxy-graph/common"
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

// DielectricSpecular is the normal-incidence reflectance used for every non-metal.
const DielectricSpecular float32 = 0.02

// SplitMetal derives the specular reflectance (F0) and diffuse albedo from a base color.
// Metals reflect their base color and have no diffuse term; dielectrics reflect a flat 2%
// and diffuse their base color.
//
// Parameters:
//   - base: the material base color
//   - metal: true for metals
//
// Returns:
//   - mgl32.Vec3: the specular reflectance at normal incidence
//   - mgl32.Vec3: the diffuse albedo
func SplitMetal(base mgl32.Vec3, metal bool) (specular, diffuse mgl32.Vec3) {
	if metal {
		return base, mgl32.Vec3{}
	}
	return mgl32.Vec3{DielectricSpecular, DielectricSpecular, DielectricSpecular}, base
}

// EnvBRDFApprox is the analytic fit of the split-sum environment BRDF integral. It scales
// and biases f0 by terms that depend only on roughness and the view angle.
//
// Parameters:
//   - f0: the specular reflectance at normal incidence
//   - roughness: perceptual roughness in [0, 1]
//   - nv: the clamped cosine between normal and view direction
//
// Returns:
//   - mgl32.Vec3: the prefiltered specular weight
func EnvBRDFApprox(f0 mgl32.Vec3, roughness, nv float32) mgl32.Vec3 {
	c0 := [4]float32{-1, -0.0275, -0.572, 0.022}
	c1 := [4]float32{1, 0.0425, 1.04, -0.04}
	var r [4]float32
	for i := range r {
		r[i] = roughness*c0[i] + c1[i]
	}
	a004 := math32.Min(r[0]*r[0], math32.Exp2(-9.28*nv))*r[0] + r[1]
	a := -1.04*a004 + r[2]
	b := 1.04*a004 + r[3]
	return mgl32.Vec3{f0[0]*a + b, f0[1]*a + b, f0[2]*a + b}
}

// DistributionGGX is the GGX (Trowbridge-Reitz) normal distribution with alpha = roughness^2.
func DistributionGGX(nh, roughness float32) float32 {
	a := roughness * roughness
	a2 := a * a
	d := nh*nh*(a2-1) + 1
	return a2 / (math32.Pi * d * d)
}

// VisibilitySmithGGX is the height-correlated Smith visibility term. It already folds in the
// 1 / (4 nl nv) denominator of the microfacet BRDF.
func VisibilitySmithGGX(nv, nl, roughness float32) float32 {
	a := roughness * roughness
	a2 := a * a
	gv := nl * math32.Sqrt(nv*nv*(1-a2)+a2)
	gl := nv * math32.Sqrt(nl*nl*(1-a2)+a2)
	sum := gv + gl
	if sum <= 0 {
		return 0
	}
	return 0.5 / sum
}

// SpecularEnvironment picks the environment radiance seen by a reflection. The sharp and
// blurred cube samples are mixed by roughness; above a roughness of 0.25 the result blends
// further toward the diffuse irradiance.
//
// Parameters:
//   - sharp: the reflection sampled from the sharp environment cube
//   - blurred: the reflection sampled from the blurred environment cube
//   - irradiance: the SH irradiance along the normal
//   - roughness: perceptual roughness in [0, 1]
//
// Returns:
//   - mgl32.Vec3: the specular environment radiance
func SpecularEnvironment(sharp, blurred, irradiance mgl32.Vec3, roughness float32) mgl32.Vec3 {
	env := mixVec3(sharp, blurred, common.Saturate(roughness))
	if roughness > 0.25 {
		env = mixVec3(env, irradiance, common.Saturate((roughness-0.25)/0.75))
	}
	return env
}

// SurfacePBR is the per-fragment input of ShadePBR. Directions are world space; LightDir is
// the direction the light travels.
type SurfacePBR struct {
	Base       mgl32.Vec3
	Metal      bool
	Roughness  float32
	Normal     mgl32.Vec3
	View       mgl32.Vec3
	LightDir   mgl32.Vec3
	LightColor mgl32.Vec3
	SH         SHCoefficients
	// Sharp and Blurred are the environment cube samples along the reflection vector.
	Sharp, Blurred mgl32.Vec3
}

// ShadePBR shades a surface with one directional light plus image-based lighting: SH
// irradiance for the diffuse term and the roughness-selected environment weighted by
// EnvBRDFApprox for the specular term.
//
// Parameters:
//   - s: the surface and lighting inputs
//
// Returns:
//   - mgl32.Vec3: the outgoing radiance
func ShadePBR(s SurfacePBR) mgl32.Vec3 {
	n := s.Normal.Normalize()
	v := s.View.Normalize()
	l := s.LightDir.Mul(-1).Normalize()
	h := l.Add(v).Normalize()

	nl := common.Saturate(n.Dot(l))
	nv := math32.Max(n.Dot(v), 1e-4)
	nh := common.Saturate(n.Dot(h))

	specular, diffuse := SplitMetal(s.Base, s.Metal)
	roughness := common.Clamp(s.Roughness, 0.04, 1)

	brdf := DistributionGGX(nh, roughness) * VisibilitySmithGGX(nv, nl, roughness)
	direct := diffuse.Mul(1 / math32.Pi).Add(specular.Mul(brdf))
	direct = mulVec3(direct, s.LightColor).Mul(nl)

	irradiance := s.SH.Eval(n)
	env := SpecularEnvironment(s.Sharp, s.Blurred, irradiance, roughness)
	ambient := mulVec3(diffuse, irradiance).Add(mulVec3(env, EnvBRDFApprox(specular, roughness, nv)))

	return direct.Add(ambient)
}

// ShadeLambert shades a surface with a directional light and a flat ambient term.
//
// Parameters:
//   - base: the surface albedo
//   - normal: the surface normal
//   - lightDir: the direction the light travels
//   - lightColor: the light color premultiplied by intensity
//   - ambient: the ambient color
//
// Returns:
//   - mgl32.Vec3: base * (ambient + lightColor * max(n.l, 0))
func ShadeLambert(base, normal, lightDir, lightColor, ambient mgl32.Vec3) mgl32.Vec3 {
	nl := common.Saturate(normal.Normalize().Dot(lightDir.Mul(-1).Normalize()))
	return mulVec3(base, ambient.Add(lightColor.Mul(nl)))
}

// ShadeTextured is the unlit textured variant: the base color mixed toward the texel.
func ShadeTextured(base, texel [4]float32, mix float32) [4]float32 {
	return common.MixColor(base, texel, mix)
}

func mixVec3(a, b mgl32.Vec3, t float32) mgl32.Vec3 {
	return mgl32.Vec3{common.Mix(a[0], b[0], t), common.Mix(a[1], b[1], t), common.Mix(a[2], b[2], t)}
}

func mulVec3(a, b mgl32.Vec3) mgl32.Vec3 {
	return mgl32.Vec3{a[0] * b[0], a[1] * b[1], a[2] * b[2]}
}
