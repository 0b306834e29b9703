package common

import (
	"unsafe"

	"github.com/chewxy/math32"
)

// Fract returns the fractional part of x the way WGSL defines it: x - floor(x).
func Fract(x float32) float32 {
	return x - math32.Floor(x)
}

// Mix linearly interpolates between a and b by t.
func Mix(a, b, t float32) float32 {
	return a + (b-a)*t
}

// Clamp restricts x to the inclusive range [lo, hi].
func Clamp(x, lo, hi float32) float32 {
	return math32.Max(lo, math32.Min(hi, x))
}

// Saturate clamps x to [0, 1].
func Saturate(x float32) float32 {
	return Clamp(x, 0, 1)
}

// Smoothstep performs Hermite interpolation between edge0 and edge1.
//
// Parameters:
//   - edge0: the lower edge
//   - edge1: the upper edge
//   - x: the value to interpolate
//
// Returns:
//   - float32: 0 below edge0, 1 above edge1, and a smooth curve in between
func Smoothstep(edge0, edge1, x float32) float32 {
	t := Saturate((x - edge0) / (edge1 - edge0))
	return t * t * (3 - 2*t)
}

// MixColor interpolates two RGBA colors component-wise.
func MixColor(a, b [4]float32, t float32) [4]float32 {
	return [4]float32{Mix(a[0], b[0], t), Mix(a[1], b[1], t), Mix(a[2], b[2], t), Mix(a[3], b[3], t)}
}

// SliceToBytes converts any slice to a byte slice for GPU buffer uploads.
// The returned slice shares memory with the input and must not be modified.
//
// Parameters:
//   - data: source slice of any type
//
// Returns:
//   - []byte: byte slice view of the input data, or nil if input is empty
func SliceToBytes[T any](data []T) []byte {
	if len(data) == 0 {
		return nil
	}
	var zero T
	size := unsafe.Sizeof(zero)
	return unsafe.Slice((*byte)(unsafe.Pointer(&data[0])), int(size)*len(data))
}
