// package common contains small plain types and helpers shared by every package of the render graph.
// They are not interface-wrapped, just data the graph and its collaborators pass around.
package common

import (
	"bytes"
	"fmt"
	"image"
	"image/draw"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"os"

	"github.com/cogentcore/webgpu/wgpu"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// TextureStagingData holds RGBA8 pixel data for an external texture pending upload.
type TextureStagingData struct {
	// Pixels is the RGBA pixel data, 4 bytes per pixel, row-major.
	Pixels []byte
	// Width is the width of the texture in pixels.
	Width uint32
	// Height is the height of the texture in pixels.
	Height uint32
	// Layer is the array layer the pixels are written to. Cube faces use layers 0-5.
	Layer uint32
}

// SamplerStagingData holds the configuration for a sampler pending creation.
// Zero fields are replaced with the backend defaults (repeat addressing, linear filtering).
type SamplerStagingData struct {
	// AddressModeU, AddressModeV, AddressModeW specify the addressing mode outside [0, 1].
	AddressModeU, AddressModeV, AddressModeW wgpu.AddressMode
	// MagFilter and MinFilter specify the filtering mode for magnification and minification.
	MagFilter, MinFilter wgpu.FilterMode
	// MipmapFilter specifies the filtering mode for mipmap level selection.
	MipmapFilter wgpu.MipmapFilterMode
	// LodMinClamp and LodMaxClamp specify the level of detail range.
	LodMinClamp, LodMaxClamp float32
	// MaxAnisotropy specifies the maximum anisotropy level.
	MaxAnisotropy uint16
}

// DecodeTexture decodes an encoded image into RGBA staging data. PNG, JPEG, BMP, TIFF
// and WebP are supported.
//
// Parameters:
//   - r: the reader holding the encoded image
//
// Returns:
//   - TextureStagingData: the decoded pixels and dimensions
//   - error: an error if the image could not be decoded
func DecodeTexture(r io.Reader) (TextureStagingData, error) {
	img, _, err := image.Decode(r)
	if err != nil {
		return TextureStagingData{}, fmt.Errorf("failed to decode image: %w", err)
	}
	bounds := img.Bounds()
	rgba := image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	draw.Draw(rgba, rgba.Bounds(), img, bounds.Min, draw.Src)
	return TextureStagingData{
		Pixels: rgba.Pix,
		Width:  uint32(bounds.Dx()),
		Height: uint32(bounds.Dy()),
	}, nil
}

// DecodeTextureBytes decodes an in-memory encoded image. See DecodeTexture.
func DecodeTextureBytes(data []byte) (TextureStagingData, error) {
	return DecodeTexture(bytes.NewReader(data))
}

// LoadTexture opens and decodes the image at path. See DecodeTexture.
func LoadTexture(path string) (TextureStagingData, error) {
	file, err := os.Open(path)
	if err != nil {
		return TextureStagingData{}, fmt.Errorf("failed to open texture file %s: %w", path, err)
	}
	defer file.Close()

	data, err := DecodeTexture(file)
	if err != nil {
		return TextureStagingData{}, fmt.Errorf("texture file %s: %w", path, err)
	}
	return data, nil
}

// SolidTexture builds a width x height staging texture filled with a single RGBA8 color.
//
// Parameters:
//   - width: the texture width in pixels
//   - height: the texture height in pixels
//   - rgba: the fill color
//
// Returns:
//   - TextureStagingData: the filled staging data
func SolidTexture(width, height uint32, rgba [4]uint8) TextureStagingData {
	pix := make([]byte, int(width)*int(height)*4)
	for i := 0; i < len(pix); i += 4 {
		copy(pix[i:i+4], rgba[:])
	}
	return TextureStagingData{Pixels: pix, Width: width, Height: height}
}
