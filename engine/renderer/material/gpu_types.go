package material

import (
	_ "embed"
	"encoding/binary"
	"math"
	"unsafe"
)

// GPURender2DUniformsSource is the canonical WGSL definition of the Render2DUniforms struct.
// Matches GPURender2DUniforms layout exactly (48 bytes).
//
//go:embed assets/render_2d_uniforms.wgsl
var GPURender2DUniformsSource string

// GPURender3DUniformsSource is the canonical WGSL definition of the Render3DUniforms struct.
// Matches GPURender3DUniforms layout exactly (96 bytes).
//
//go:embed assets/render_3d_uniforms.wgsl
var GPURender3DUniformsSource string

// GPURenderPBRUniformsSource is the canonical WGSL definition of the RenderPBRUniforms struct.
// Matches GPURenderPBRUniforms layout exactly (160 bytes).
//
//go:embed assets/render_pbr_uniforms.wgsl
var GPURenderPBRUniformsSource string

// GPUQuadUniformsSource is the canonical WGSL definition of the QuadUniforms struct.
// Matches GPUQuadUniforms layout exactly (16 bytes).
//
//go:embed assets/quad_uniforms.wgsl
var GPUQuadUniformsSource string

// GPUChannelUniformsSource is the canonical WGSL definition of the ChannelUniforms struct.
// Matches GPUChannelUniforms layout exactly (32 bytes).
//
//go:embed assets/channel_uniforms.wgsl
var GPUChannelUniformsSource string

// MaxInstances is the number of per-instance blocks an instanced material buffer holds. The
// sprite and mesh variants read their material block per instance from a storage array of
// this length.
const MaxInstances = 256

// GPURender2DUniforms is the per-sprite block of the 2D sprite passes.
// Size: 48 bytes.
type GPURender2DUniforms struct {
	Model [4]float32 // offset  0: world offset xy and scale xy (vec4<f32>)
	Color [4]float32 // offset 16: base color rgba (vec4<f32>)
	Mix   float32    // offset 32: color/texture mix factor (f32)
	_pad  [3]float32 // offset 36: padding to 48 bytes
}

// Size returns the size of the GPURender2DUniforms struct in bytes.
//
// Returns:
//   - int: the struct size in bytes (48)
func (g *GPURender2DUniforms) Size() int {
	return int(unsafe.Sizeof(*g))
}

// Marshal serializes the GPURender2DUniforms struct into a byte buffer suitable for GPU upload.
//
// Returns:
//   - []byte: the serialized byte buffer
func (g *GPURender2DUniforms) Marshal() []byte {
	buf := make([]byte, g.Size())
	putFloats(buf, 0, g.Model[:])
	putFloats(buf, 16, g.Color[:])
	putFloat(buf, 32, g.Mix)
	return buf
}

// UnmarshalGPURender2DUniforms decodes a Render2DUniforms block previously produced by Marshal.
func UnmarshalGPURender2DUniforms(buf []byte) GPURender2DUniforms {
	var g GPURender2DUniforms
	if len(buf) < 36 {
		return g
	}
	readFloats(buf, 0, g.Model[:])
	readFloats(buf, 16, g.Color[:])
	g.Mix = readFloat(buf, 32)
	return g
}

// GPURender3DUniforms is the per-draw block of the textured and Lambert surface passes.
// Size: 96 bytes.
type GPURender3DUniforms struct {
	Model [16]float32 // offset  0: model matrix (mat4x4<f32>)
	Color [4]float32  // offset 64: base color rgba (vec4<f32>)
	Mix   float32     // offset 80: color/texture mix factor (f32)
	_pad  [3]float32  // offset 84: padding to 96 bytes
}

// Size returns the size of the GPURender3DUniforms struct in bytes.
//
// Returns:
//   - int: the struct size in bytes (96)
func (g *GPURender3DUniforms) Size() int {
	return int(unsafe.Sizeof(*g))
}

// Marshal serializes the GPURender3DUniforms struct into a byte buffer suitable for GPU upload.
//
// Returns:
//   - []byte: the serialized byte buffer
func (g *GPURender3DUniforms) Marshal() []byte {
	buf := make([]byte, g.Size())
	putFloats(buf, 0, g.Model[:])
	putFloats(buf, 64, g.Color[:])
	putFloat(buf, 80, g.Mix)
	return buf
}

// GPURenderPBRUniforms is the per-draw block of the PBR + IBL surface pass.
// Size: 160 bytes.
type GPURenderPBRUniforms struct {
	Model     [16]float32 // offset   0: model matrix (mat4x4<f32>)
	Normal    [16]float32 // offset  64: inverse-transpose of the model matrix (mat4x4<f32>)
	Color     [4]float32  // offset 128: base color rgba (vec4<f32>)
	Mix       float32     // offset 144: color/texture mix factor (f32)
	Metal     uint32      // offset 148: 1 for metals, 0 for dielectrics (u32)
	Roughness float32     // offset 152: perceptual roughness (f32)
	_pad      float32     // offset 156: padding to 160 bytes
}

// Size returns the size of the GPURenderPBRUniforms struct in bytes.
//
// Returns:
//   - int: the struct size in bytes (160)
func (g *GPURenderPBRUniforms) Size() int {
	return int(unsafe.Sizeof(*g))
}

// Marshal serializes the GPURenderPBRUniforms struct into a byte buffer suitable for GPU upload.
//
// Returns:
//   - []byte: the serialized byte buffer
func (g *GPURenderPBRUniforms) Marshal() []byte {
	buf := make([]byte, g.Size())
	putFloats(buf, 0, g.Model[:])
	putFloats(buf, 64, g.Normal[:])
	putFloats(buf, 128, g.Color[:])
	putFloat(buf, 144, g.Mix)
	binary.LittleEndian.PutUint32(buf[148:], g.Metal)
	putFloat(buf, 152, g.Roughness)
	return buf
}

// GPUQuadUniforms is the fullscreen pass block shared by the automaton, raymarch and sky passes.
// Size: 16 bytes.
type GPUQuadUniforms struct {
	Dimensions [2]float32 // offset  0: target width and height in pixels (vec2<f32>)
	Time       float32    // offset  8: seconds since start (f32)
	Frame      float32    // offset 12: frame counter (f32)
}

// Size returns the size of the GPUQuadUniforms struct in bytes.
//
// Returns:
//   - int: the struct size in bytes (16)
func (g *GPUQuadUniforms) Size() int {
	return int(unsafe.Sizeof(*g))
}

// Marshal serializes the GPUQuadUniforms struct into a byte buffer suitable for GPU upload.
//
// Returns:
//   - []byte: the serialized byte buffer
func (g *GPUQuadUniforms) Marshal() []byte {
	buf := make([]byte, g.Size())
	putFloats(buf, 0, g.Dimensions[:])
	putFloat(buf, 8, g.Time)
	putFloat(buf, 12, g.Frame)
	return buf
}

// UnmarshalGPUQuadUniforms decodes a QuadUniforms block previously produced by Marshal.
func UnmarshalGPUQuadUniforms(buf []byte) GPUQuadUniforms {
	var g GPUQuadUniforms
	if len(buf) < 16 {
		return g
	}
	readFloats(buf, 0, g.Dimensions[:])
	g.Time = readFloat(buf, 8)
	g.Frame = readFloat(buf, 12)
	return g
}

// GPUChannelUniforms is the block of the compositing channel pass. A weight of 0 forwards
// the input unchanged; a weight of 1 multiplies it fully by the tint.
// Size: 32 bytes.
type GPUChannelUniforms struct {
	Tint   [4]float32 // offset  0: tint color rgba (vec4<f32>)
	Weight float32    // offset 16: blend weight toward the tinted color (f32)
	_pad   [3]float32 // offset 20: padding to 32 bytes
}

// Size returns the size of the GPUChannelUniforms struct in bytes.
//
// Returns:
//   - int: the struct size in bytes (32)
func (g *GPUChannelUniforms) Size() int {
	return int(unsafe.Sizeof(*g))
}

// Marshal serializes the GPUChannelUniforms struct into a byte buffer suitable for GPU upload.
//
// Returns:
//   - []byte: the serialized byte buffer
func (g *GPUChannelUniforms) Marshal() []byte {
	buf := make([]byte, g.Size())
	putFloats(buf, 0, g.Tint[:])
	putFloat(buf, 16, g.Weight)
	return buf
}

// UnmarshalGPUChannelUniforms decodes a ChannelUniforms block previously produced by Marshal.
func UnmarshalGPUChannelUniforms(buf []byte) GPUChannelUniforms {
	var g GPUChannelUniforms
	if len(buf) < 20 {
		return g
	}
	readFloats(buf, 0, g.Tint[:])
	g.Weight = readFloat(buf, 16)
	return g
}

func putFloat(buf []byte, offset int, v float32) {
	binary.LittleEndian.PutUint32(buf[offset:], math.Float32bits(v))
}

func putFloats(buf []byte, offset int, values []float32) {
	for i, v := range values {
		putFloat(buf, offset+i*4, v)
	}
}

func readFloat(buf []byte, offset int) float32 {
	return math.Float32frombits(binary.LittleEndian.Uint32(buf[offset:]))
}

func readFloats(buf []byte, offset int, out []float32) {
	for i := range out {
		out[i] = readFloat(buf, offset+i*4)
	}
}
