package light

import (
	_ "embed"
	"encoding/binary"
	"math"
	"unsafe"
)

// MaxPointLights2D is the number of point light slots in the Light2D block.
const MaxPointLights2D = 5

// GPULight2DSource is the canonical WGSL definition of the Light2D struct.
// Matches GPULight2D layout exactly (96 bytes).
//
//go:embed assets/light_2d.wgsl
var GPULight2DSource string

// GPULight3DSource is the canonical WGSL definition of the Light3D struct.
// Matches GPULight3D layout exactly (48 bytes).
//
//go:embed assets/light_3d.wgsl
var GPULight3DSource string

// GPULight2D is the GPU-aligned representation of the 2D point light block.
// Each slot packs (x, y, linear, quadratic). A slot with linear = quadratic = 0 is unused
// and contributes nothing.
// Size: 96 bytes.
type GPULight2D struct {
	Lights  [MaxPointLights2D][4]float32 // offset  0: position xy, linear, quadratic (array<vec4<f32>, 5>)
	Ambient float32                      // offset 80: global ambient term (f32)
	_pad    [3]float32                   // offset 84: padding to 96 bytes
}

// Size returns the size of the GPULight2D struct in bytes.
//
// Returns:
//   - int: the struct size in bytes (96)
func (g *GPULight2D) Size() int {
	return int(unsafe.Sizeof(*g))
}

// Marshal serializes the GPULight2D struct into a byte buffer suitable for GPU upload.
//
// Returns:
//   - []byte: the serialized byte buffer
func (g *GPULight2D) Marshal() []byte {
	buf := make([]byte, g.Size())
	for i := range MaxPointLights2D {
		putFloats(buf, i*16, g.Lights[i][:])
	}
	binary.LittleEndian.PutUint32(buf[80:], math.Float32bits(g.Ambient))
	return buf
}

// UnmarshalGPULight2D decodes a Light2D block previously produced by Marshal.
func UnmarshalGPULight2D(buf []byte) GPULight2D {
	var g GPULight2D
	if len(buf) < 84 {
		return g
	}
	for i := range MaxPointLights2D {
		readFloats(buf, i*16, g.Lights[i][:])
	}
	g.Ambient = math.Float32frombits(binary.LittleEndian.Uint32(buf[80:]))
	return g
}

// GPULight3D is the GPU-aligned representation of the directional sun block used by the
// Lambert and PBR surface passes.
// Size: 48 bytes.
type GPULight3D struct {
	Direction [4]float32 // offset  0: normalized direction the light travels, w unused (vec4<f32>)
	Color     [4]float32 // offset 16: rgb color premultiplied by intensity (vec4<f32>)
	Ambient   [4]float32 // offset 32: rgb ambient term (vec4<f32>)
}

// Size returns the size of the GPULight3D struct in bytes.
//
// Returns:
//   - int: the struct size in bytes (48)
func (g *GPULight3D) Size() int {
	return int(unsafe.Sizeof(*g))
}

// Marshal serializes the GPULight3D struct into a byte buffer suitable for GPU upload.
//
// Returns:
//   - []byte: the serialized byte buffer
func (g *GPULight3D) Marshal() []byte {
	buf := make([]byte, g.Size())
	putFloats(buf, 0, g.Direction[:])
	putFloats(buf, 16, g.Color[:])
	putFloats(buf, 32, g.Ambient[:])
	return buf
}

// UnmarshalGPULight3D decodes a Light3D block previously produced by Marshal.
func UnmarshalGPULight3D(buf []byte) GPULight3D {
	var g GPULight3D
	if len(buf) < 48 {
		return g
	}
	readFloats(buf, 0, g.Direction[:])
	readFloats(buf, 16, g.Color[:])
	readFloats(buf, 32, g.Ambient[:])
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
