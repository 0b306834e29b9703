package light

// LightType identifies the kind of light source.
type LightType int

const (
	// LightTypeDirectional represents a light with no position, only direction.
	// Used for the sun in 3D passes. Affects all fragments uniformly with no attenuation.
	LightTypeDirectional LightType = iota

	// LightTypePoint represents a 2D light at a position with linear and quadratic
	// distance attenuation.
	LightTypePoint
)

// lightImpl is the implementation of the Light interface.
type lightImpl struct {
	lightType LightType
	position  [2]float32
	direction [3]float32
	color     [3]float32
	intensity float32
	linear    float32
	quadratic float32
	enabled   bool
}

// Light defines a single light source. Point lights feed the Light2D block, directional
// lights feed the Light3D block. Properties that do not apply to a light's type return
// zero values.
type Light interface {
	// Type returns the kind of light source.
	//
	// Returns:
	//   - LightType: the light type (directional or point)
	Type() LightType

	// Position returns the world-space 2D position of a point light.
	//
	// Returns:
	//   - [2]float32: position as (x, y)
	Position() [2]float32

	// Direction returns the normalized direction a directional light travels.
	//
	// Returns:
	//   - [3]float32: direction as (x, y, z)
	Direction() [3]float32

	// Color returns the RGB color of the light.
	//
	// Returns:
	//   - [3]float32: color as (r, g, b)
	Color() [3]float32

	// Intensity returns the scalar multiplier applied to the color.
	Intensity() float32

	// Attenuation returns the linear and quadratic attenuation coefficients of a point light.
	// A light with both set to zero is treated as switched off.
	//
	// Returns:
	//   - linear: the coefficient applied to distance
	//   - quadratic: the coefficient applied to squared distance
	Attenuation() (linear, quadratic float32)

	// Enabled reports whether the light participates in shading.
	Enabled() bool

	// SetPosition moves a point light.
	SetPosition(x, y float32)

	// SetDirection sets and normalizes the direction of a directional light.
	SetDirection(x, y, z float32)

	// SetColor sets the RGB color.
	SetColor(r, g, b float32)

	// SetIntensity sets the color multiplier.
	SetIntensity(intensity float32)

	// SetAttenuation sets the point light coefficients.
	SetAttenuation(linear, quadratic float32)

	// SetEnabled toggles the light.
	SetEnabled(enabled bool)
}

var _ Light = &lightImpl{}

// NewLight creates a new Light of the given type with all options applied.
//
// Parameters:
//   - lightType: the kind of light to create (directional or point)
//   - opts: variadic list of LightBuilderOption functions to configure the light
//
// Returns:
//   - Light: a new Light instance
func NewLight(lightType LightType, opts ...LightBuilderOption) Light {
	l := &lightImpl{
		lightType: lightType,
		direction: [3]float32{0, -1, 0},
		color:     [3]float32{1, 1, 1},
		intensity: 1.0,
		enabled:   true,
	}
	if lightType == LightTypePoint {
		l.linear = 0.09
		l.quadratic = 0.032
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

func (l *lightImpl) Type() LightType {
	return l.lightType
}

func (l *lightImpl) Position() [2]float32 {
	return l.position
}

func (l *lightImpl) Direction() [3]float32 {
	return l.direction
}

func (l *lightImpl) Color() [3]float32 {
	return l.color
}

func (l *lightImpl) Intensity() float32 {
	return l.intensity
}

func (l *lightImpl) Attenuation() (float32, float32) {
	return l.linear, l.quadratic
}

func (l *lightImpl) Enabled() bool {
	return l.enabled
}

func (l *lightImpl) SetPosition(x, y float32) {
	l.position = [2]float32{x, y}
}

func (l *lightImpl) SetDirection(x, y, z float32) {
	l.direction = normalize3(x, y, z)
}

func (l *lightImpl) SetColor(r, g, b float32) {
	l.color = [3]float32{r, g, b}
}

func (l *lightImpl) SetIntensity(intensity float32) {
	l.intensity = intensity
}

func (l *lightImpl) SetAttenuation(linear, quadratic float32) {
	l.linear = linear
	l.quadratic = quadratic
}

func (l *lightImpl) SetEnabled(enabled bool) {
	l.enabled = enabled
}
