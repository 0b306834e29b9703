package light

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGPULightSizes(t *testing.T) {
	assert.Equal(t, 96, (&GPULight2D{}).Size())
	assert.Equal(t, 48, (&GPULight3D{}).Size())
}

func TestLightSetRejectsSixthPointLight(t *testing.T) {
	set := NewLightSet(0.1, [3]float32{})
	for i := range MaxPointLights2D {
		require.NoError(t, set.Add(NewLight(LightTypePoint, WithPosition(float32(i), 0))))
	}
	err := set.Add(NewLight(LightTypePoint))
	assert.ErrorIs(t, err, ErrTooManyLights)

	// Directional lights do not count against the point light slots.
	assert.NoError(t, set.Add(NewLight(LightTypeDirectional)))
	assert.Equal(t, MaxPointLights2D+1, set.Len())
}

func TestLightSetUniform2D(t *testing.T) {
	set := NewLightSet(0.25, [3]float32{})
	on := NewLight(LightTypePoint, WithPosition(3, 4), WithAttenuation(0.5, 0.25))
	off := NewLight(LightTypePoint, WithPosition(9, 9), WithEnabled(false))
	require.NoError(t, set.Add(on))
	require.NoError(t, set.Add(off))

	u := set.Uniform2D()
	assert.Equal(t, [4]float32{3, 4, 0.5, 0.25}, u.Lights[0])
	assert.Equal(t, [4]float32{}, u.Lights[1])
	assert.Equal(t, float32(0.25), u.Ambient)

	decoded := UnmarshalGPULight2D(u.Marshal())
	assert.Equal(t, *u, decoded)
}

func TestLightSetUniform3DPicksFirstEnabledSun(t *testing.T) {
	set := NewLightSet(0, [3]float32{0.1, 0.2, 0.3})
	require.NoError(t, set.Add(NewLight(LightTypeDirectional, WithEnabled(false))))
	require.NoError(t, set.Add(NewLight(LightTypeDirectional, WithDirection(0, 0, -2), WithColor(1, 0.5, 0), WithIntensity(2))))

	u := set.Uniform3D()
	assert.Equal(t, [4]float32{0, 0, -1, 0}, u.Direction)
	assert.Equal(t, [4]float32{2, 1, 0, 1}, u.Color)
	assert.Equal(t, [4]float32{0.1, 0.2, 0.3, 1}, u.Ambient)

	decoded := UnmarshalGPULight3D(u.Marshal())
	assert.Equal(t, *u, decoded)
}

func TestLightSetRemove(t *testing.T) {
	set := NewLightSet(0, [3]float32{})
	l := NewLight(LightTypePoint)
	require.NoError(t, set.Add(l))
	set.Remove(l)
	assert.Equal(t, 0, set.Len())
}
