package light

import "github.com/chewxy/math32"

// LightBuilderOption is a function that configures a Light instance during construction.
type LightBuilderOption func(*lightImpl)

// WithPosition sets the 2D world-space position of a point light.
//
// Parameters:
//   - x: the x position component
//   - y: the y position component
//
// Returns:
//   - LightBuilderOption: a function that applies the position option to a lightImpl
func WithPosition(x, y float32) LightBuilderOption {
	return func(l *lightImpl) {
		l.position = [2]float32{x, y}
	}
}

// WithDirection sets the direction of a directional light. The direction is normalized
// before storing.
//
// Parameters:
//   - x: the x direction component
//   - y: the y direction component
//   - z: the z direction component
//
// Returns:
//   - LightBuilderOption: a function that applies the direction option to a lightImpl
func WithDirection(x, y, z float32) LightBuilderOption {
	return func(l *lightImpl) {
		l.direction = normalize3(x, y, z)
	}
}

// WithColor sets the RGB color of the light.
//
// Parameters:
//   - r: the red color component
//   - g: the green color component
//   - b: the blue color component
//
// Returns:
//   - LightBuilderOption: a function that applies the color option to a lightImpl
func WithColor(r, g, b float32) LightBuilderOption {
	return func(l *lightImpl) {
		l.color = [3]float32{r, g, b}
	}
}

// WithIntensity sets the scalar multiplier applied to the color.
func WithIntensity(intensity float32) LightBuilderOption {
	return func(l *lightImpl) {
		l.intensity = intensity
	}
}

// WithAttenuation sets the linear and quadratic falloff of a point light.
//
// Parameters:
//   - linear: the coefficient applied to distance
//   - quadratic: the coefficient applied to squared distance
//
// Returns:
//   - LightBuilderOption: a function that applies the attenuation option to a lightImpl
func WithAttenuation(linear, quadratic float32) LightBuilderOption {
	return func(l *lightImpl) {
		l.linear = linear
		l.quadratic = quadratic
	}
}

// WithEnabled sets whether the light starts switched on.
func WithEnabled(enabled bool) LightBuilderOption {
	return func(l *lightImpl) {
		l.enabled = enabled
	}
}

// normalize3 normalizes a 3-component vector. Returns a zero vector if the input
// has zero length.
func normalize3(x, y, z float32) [3]float32 {
	length := math32.Sqrt(x*x + y*y + z*z)
	if length == 0 {
		return [3]float32{0, 0, 0}
	}
	return [3]float32{x / length, y / length, z / length}
}
