package light

import (
	"errors"
	"fmt"
	"sync"
)

// ErrTooManyLights is returned when a LightSet already holds MaxPointLights2D point lights.
var ErrTooManyLights = errors.New("light: too many point lights")

// LightSet collects the lights of one frame and packs them into the Light2D and Light3D
// blocks. It holds at most MaxPointLights2D point lights and any number of directional
// lights, of which the first enabled one is the sun.
type LightSet struct {
	mu *sync.Mutex

	points      []Light
	directional []Light

	ambient2D float32
	ambient3D [3]float32
}

// NewLightSet creates an empty LightSet.
//
// Parameters:
//   - ambient2D: the global ambient scalar written into Light2D
//   - ambient3D: the rgb ambient term written into Light3D
//
// Returns:
//   - *LightSet: the empty set
func NewLightSet(ambient2D float32, ambient3D [3]float32) *LightSet {
	return &LightSet{
		mu:        &sync.Mutex{},
		ambient2D: ambient2D,
		ambient3D: ambient3D,
	}
}

// Add inserts a light into the set.
//
// Parameters:
//   - l: the light to add
//
// Returns:
//   - error: ErrTooManyLights when a sixth point light is added
func (s *LightSet) Add(l Light) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch l.Type() {
	case LightTypePoint:
		if len(s.points) >= MaxPointLights2D {
			return fmt.Errorf("%w: limit is %d", ErrTooManyLights, MaxPointLights2D)
		}
		s.points = append(s.points, l)
	default:
		s.directional = append(s.directional, l)
	}
	return nil
}

// Remove drops a light from the set. Unknown lights are ignored.
func (s *LightSet) Remove(l Light) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.points = removeLight(s.points, l)
	s.directional = removeLight(s.directional, l)
}

// Len returns the number of lights in the set.
func (s *LightSet) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.points) + len(s.directional)
}

// Uniform2D packs the point lights into a Light2D block. Disabled lights leave their slot
// zeroed so they contribute nothing.
//
// Returns:
//   - *GPULight2D: the block ready to be marshalled and uploaded
func (s *LightSet) Uniform2D() *GPULight2D {
	s.mu.Lock()
	defer s.mu.Unlock()
	u := &GPULight2D{Ambient: s.ambient2D}
	for i, l := range s.points {
		if !l.Enabled() {
			continue
		}
		pos := l.Position()
		linear, quadratic := l.Attenuation()
		u.Lights[i] = [4]float32{pos[0], pos[1], linear, quadratic}
	}
	return u
}

// Uniform3D packs the first enabled directional light into a Light3D block. With no sun
// the color is black and only the ambient term remains.
//
// Returns:
//   - *GPULight3D: the block ready to be marshalled and uploaded
func (s *LightSet) Uniform3D() *GPULight3D {
	s.mu.Lock()
	defer s.mu.Unlock()
	u := &GPULight3D{
		Direction: [4]float32{0, -1, 0, 0},
		Ambient:   [4]float32{s.ambient3D[0], s.ambient3D[1], s.ambient3D[2], 1},
	}
	for _, l := range s.directional {
		if !l.Enabled() {
			continue
		}
		d := l.Direction()
		c := l.Color()
		k := l.Intensity()
		u.Direction = [4]float32{d[0], d[1], d[2], 0}
		u.Color = [4]float32{c[0] * k, c[1] * k, c[2] * k, 1}
		break
	}
	return u
}

func removeLight(lights []Light, target Light) []Light {
	for i, l := range lights {
		if l == target {
			return append(lights[:i], lights[i+1:]...)
		}
	}
	return lights
}
