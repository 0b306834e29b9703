package camera

import (
	"sync"

	"github.com/go-gl/mathgl/mgl32"
)

// depthCorrection remaps OpenGL clip depth [-1, 1] produced by mgl32.Perspective into the
// [0, 1] range expected by WebGPU.
var depthCorrection = mgl32.Mat4{
	1, 0, 0, 0,
	0, 1, 0, 0,
	0, 0, 0.5, 0,
	0, 0, 0.5, 1,
}

// cameraImpl is the implementation of the Camera interface.
type cameraImpl struct {
	mu *sync.Mutex

	position mgl32.Vec3
	target   mgl32.Vec3
	up       mgl32.Vec3

	fov    float32
	aspect float32
	near   float32
	far    float32

	viewMatrix           mgl32.Mat4
	projectionMatrix     mgl32.Mat4
	viewProjectionMatrix mgl32.Mat4
	inverseViewProj      mgl32.Mat4
}

// Camera is a perspective look-at camera producing the Camera3D uniform block consumed by
// surface passes (group 2) and ray-generation passes.
type Camera interface {
	// Position returns the world-space eye position.
	Position() mgl32.Vec3

	// Target returns the world-space point the camera looks at.
	Target() mgl32.Vec3

	// Up returns the camera's up vector.
	Up() mgl32.Vec3

	// Fov returns the vertical field of view in radians.
	Fov() float32

	// Aspect returns the aspect ratio (width / height).
	Aspect() float32

	// Near returns the near clipping plane distance.
	Near() float32

	// Far returns the far clipping plane distance.
	Far() float32

	// ViewMatrix returns the world-to-view matrix.
	ViewMatrix() mgl32.Mat4

	// ProjectionMatrix returns the view-to-clip matrix with WebGPU depth range.
	ProjectionMatrix() mgl32.Mat4

	// ViewProjectionMatrix returns ProjectionMatrix * ViewMatrix.
	ViewProjectionMatrix() mgl32.Mat4

	// InverseViewProjectionMatrix returns the inverse of ViewProjectionMatrix, used to
	// un-project clip-space points into world-space rays.
	InverseViewProjectionMatrix() mgl32.Mat4

	// SetPosition moves the eye and recomputes the matrices.
	//
	// Parameters:
	//   - p: the new world-space eye position
	SetPosition(p mgl32.Vec3)

	// SetTarget changes the look-at point and recomputes the matrices.
	//
	// Parameters:
	//   - t: the new world-space target
	SetTarget(t mgl32.Vec3)

	// SetAspect changes the aspect ratio, typically after a surface resize.
	//
	// Parameters:
	//   - aspect: the new aspect ratio (width / height)
	SetAspect(aspect float32)

	// SetFov changes the vertical field of view.
	//
	// Parameters:
	//   - fov: the new field of view in radians
	SetFov(fov float32)

	// Uniform builds the Camera3D block for the current camera state.
	//
	// Returns:
	//   - *GPUCamera3D: the block ready to be marshalled and uploaded
	Uniform() *GPUCamera3D
}

var _ Camera = &cameraImpl{}

// NewCamera creates a new Camera with all specified options applied. Defaults: eye at
// (0, 0, 5) looking at the origin, 45 degree field of view, aspect 1, near 0.1, far 100.
//
// Parameters:
//   - options: a variadic list of CameraBuilderOption functions
//
// Returns:
//   - Camera: the configured camera with its matrices computed
func NewCamera(options ...CameraBuilderOption) Camera {
	c := &cameraImpl{
		mu:       &sync.Mutex{},
		position: mgl32.Vec3{0, 0, 5},
		up:       mgl32.Vec3{0, 1, 0},
		fov:      mgl32.DegToRad(45),
		aspect:   1.0,
		near:     0.1,
		far:      100.0,
	}
	for _, option := range options {
		option(c)
	}
	c.updateMatrices()
	return c
}

func (c *cameraImpl) Position() mgl32.Vec3 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.position
}

func (c *cameraImpl) Target() mgl32.Vec3 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.target
}

func (c *cameraImpl) Up() mgl32.Vec3 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.up
}

func (c *cameraImpl) Fov() float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.fov
}

func (c *cameraImpl) Aspect() float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.aspect
}

func (c *cameraImpl) Near() float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.near
}

func (c *cameraImpl) Far() float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.far
}

func (c *cameraImpl) ViewMatrix() mgl32.Mat4 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.viewMatrix
}

func (c *cameraImpl) ProjectionMatrix() mgl32.Mat4 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.projectionMatrix
}

func (c *cameraImpl) ViewProjectionMatrix() mgl32.Mat4 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.viewProjectionMatrix
}

func (c *cameraImpl) InverseViewProjectionMatrix() mgl32.Mat4 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.inverseViewProj
}

func (c *cameraImpl) SetPosition(p mgl32.Vec3) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.position = p
	c.updateMatrices()
}

func (c *cameraImpl) SetTarget(t mgl32.Vec3) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.target = t
	c.updateMatrices()
}

func (c *cameraImpl) SetAspect(aspect float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.aspect = aspect
	c.updateMatrices()
}

func (c *cameraImpl) SetFov(fov float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.fov = fov
	c.updateMatrices()
}

func (c *cameraImpl) Uniform() *GPUCamera3D {
	c.mu.Lock()
	defer c.mu.Unlock()
	return &GPUCamera3D{
		ViewPosition: c.position.Vec4(1),
		ViewProj:     c.viewProjectionMatrix,
		InvViewProj:  c.inverseViewProj,
		NearFar:      [2]float32{c.near, c.far},
	}
}

// updateMatrices recomputes view, projection and their products. Callers hold mu.
func (c *cameraImpl) updateMatrices() {
	c.viewMatrix = mgl32.LookAtV(c.position, c.target, c.up)
	c.projectionMatrix = depthCorrection.Mul4(mgl32.Perspective(c.fov, c.aspect, c.near, c.far))
	c.viewProjectionMatrix = c.projectionMatrix.Mul4(c.viewMatrix)
	c.inverseViewProj = c.viewProjectionMatrix.Inv()
}
