package camera

import (
	"sync"

	"github.com/go-gl/mathgl/mgl32"
)

// camera2D is the implementation of the Camera2D interface.
type camera2D struct {
	mu *sync.Mutex

	origin mgl32.Vec2
	size   mgl32.Vec2
	cell   float32
}

// Camera2D describes an axis-aligned view rectangle over a 2D world. Sprite passes snap the
// rectangle origin to multiples of the cell size so that pixel art stays on the grid.
type Camera2D interface {
	// Origin returns the world-space lower-left corner of the view rectangle.
	Origin() mgl32.Vec2

	// Size returns the width and height of the view rectangle in world units.
	Size() mgl32.Vec2

	// Cell returns the snap cell size.
	Cell() float32

	// SetOrigin moves the view rectangle.
	//
	// Parameters:
	//   - origin: the new lower-left corner
	SetOrigin(origin mgl32.Vec2)

	// SetSize changes the view rectangle dimensions, typically after a surface resize.
	//
	// Parameters:
	//   - size: the new width and height
	SetSize(size mgl32.Vec2)

	// Uniform builds the Camera2D block for the current camera state.
	//
	// Returns:
	//   - *GPUCamera2D: the block ready to be marshalled and uploaded
	Uniform() *GPUCamera2D
}

var _ Camera2D = &camera2D{}

// NewCamera2D creates a 2D camera. Defaults: origin (0, 0), size 1x1, cell size 1.
//
// Parameters:
//   - options: a variadic list of Camera2DBuilderOption functions
//
// Returns:
//   - Camera2D: the configured camera
func NewCamera2D(options ...Camera2DBuilderOption) Camera2D {
	c := &camera2D{
		mu:   &sync.Mutex{},
		size: mgl32.Vec2{1, 1},
		cell: 1,
	}
	for _, option := range options {
		option(c)
	}
	return c
}

func (c *camera2D) Origin() mgl32.Vec2 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.origin
}

func (c *camera2D) Size() mgl32.Vec2 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.size
}

func (c *camera2D) Cell() float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cell
}

func (c *camera2D) SetOrigin(origin mgl32.Vec2) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.origin = origin
}

func (c *camera2D) SetSize(size mgl32.Vec2) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.size = size
}

func (c *camera2D) Uniform() *GPUCamera2D {
	c.mu.Lock()
	defer c.mu.Unlock()
	return &GPUCamera2D{
		View: [4]float32{c.origin.X(), c.origin.Y(), c.size.X(), c.size.Y()},
		Cell: c.cell,
	}
}
