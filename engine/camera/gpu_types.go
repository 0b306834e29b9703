package camera

import (
	_ "embed"
	"encoding/binary"
	"math"
	"unsafe"
)

// GPUCamera2DSource is the canonical WGSL definition of the Camera2D struct.
// Matches GPUCamera2D layout exactly (32 bytes).
//
//go:embed assets/camera_2d.wgsl
var GPUCamera2DSource string

// GPUCamera3DSource is the canonical WGSL definition of the Camera3D struct.
// Matches GPUCamera3D layout exactly (160 bytes).
//
//go:embed assets/camera_3d.wgsl
var GPUCamera3DSource string

// GPUCamera2D is the GPU-aligned representation of the 2D camera block.
// Size: 32 bytes.
type GPUCamera2D struct {
	View [4]float32 // offset  0: view rectangle origin x/y, width/height (vec4<f32>)
	Cell float32    // offset 16: grid snap cell size (f32)
	_pad [3]float32 // offset 20: padding to 32 bytes
}

// Size returns the size of the GPUCamera2D struct in bytes.
//
// Returns:
//   - int: the struct size in bytes (32)
func (g *GPUCamera2D) Size() int {
	return int(unsafe.Sizeof(*g))
}

// Marshal serializes the GPUCamera2D struct into a byte buffer suitable for GPU upload.
//
// Returns:
//   - []byte: the serialized byte buffer
func (g *GPUCamera2D) Marshal() []byte {
	buf := make([]byte, g.Size())
	putFloats(buf, 0, g.View[:])
	binary.LittleEndian.PutUint32(buf[16:], math.Float32bits(g.Cell))
	return buf
}

// UnmarshalGPUCamera2D decodes a Camera2D block previously produced by Marshal.
func UnmarshalGPUCamera2D(buf []byte) GPUCamera2D {
	var g GPUCamera2D
	if len(buf) < 20 {
		return g
	}
	readFloats(buf, 0, g.View[:])
	g.Cell = math.Float32frombits(binary.LittleEndian.Uint32(buf[16:]))
	return g
}

// GPUCamera3D is the GPU-aligned representation of the 3D camera block.
// The inverse view-projection and near/far pair are consumed by ray-generation passes.
// Size: 160 bytes.
type GPUCamera3D struct {
	ViewPosition [4]float32  // offset   0: world-space eye position, w = 1 (vec4<f32>)
	ViewProj     [16]float32 // offset  16: view-projection matrix (mat4x4<f32>)
	InvViewProj  [16]float32 // offset  80: inverse view-projection matrix (mat4x4<f32>)
	NearFar      [2]float32  // offset 144: near and far plane distances (vec2<f32>)
	_pad         [2]float32  // offset 152: padding to 160 bytes
}

// Size returns the size of the GPUCamera3D struct in bytes.
//
// Returns:
//   - int: the struct size in bytes (160)
func (g *GPUCamera3D) Size() int {
	return int(unsafe.Sizeof(*g))
}

// Marshal serializes the GPUCamera3D struct into a byte buffer suitable for GPU upload.
//
// Returns:
//   - []byte: the serialized byte buffer
func (g *GPUCamera3D) Marshal() []byte {
	buf := make([]byte, g.Size())
	putFloats(buf, 0, g.ViewPosition[:])
	putFloats(buf, 16, g.ViewProj[:])
	putFloats(buf, 80, g.InvViewProj[:])
	putFloats(buf, 144, g.NearFar[:])
	return buf
}

// UnmarshalGPUCamera3D decodes a Camera3D block previously produced by Marshal.
func UnmarshalGPUCamera3D(buf []byte) GPUCamera3D {
	var g GPUCamera3D
	if len(buf) < 152 {
		return g
	}
	readFloats(buf, 0, g.ViewPosition[:])
	readFloats(buf, 16, g.ViewProj[:])
	readFloats(buf, 80, g.InvViewProj[:])
	readFloats(buf, 144, g.NearFar[:])
	return g
}

func putFloats(buf []byte, offset int, values []float32) {
	for i, v := range values {
		binary.LittleEndian.PutUint32(buf[offset+i*4:], math.Float32bits(v))
	}
}

func readFloats(buf []byte, offset int, out []float32) {
	for i := range out {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(buf[offset+i*4:]))
	}
}
