package gpu

import (
	"testing"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/stretchr/testify/assert"
)

func TestTextureDescriptorByteSize(t *testing.T) {
	tests := []struct {
		name string
		desc TextureDescriptor
		want uint64
	}{
		{"rgba8 2d", TextureDescriptor{Width: 4, Height: 2, Format: wgpu.TextureFormatRGBA8Unorm, Dimension: wgpu.TextureViewDimension2D}, 32},
		{"rgba16f 2d", TextureDescriptor{Width: 4, Height: 2, Format: wgpu.TextureFormatRGBA16Float}, 64},
		{"rgba8 cube", TextureDescriptor{Width: 2, Height: 2, Format: wgpu.TextureFormatRGBA8Unorm, Dimension: wgpu.TextureViewDimensionCube}, 96},
		{"depth", TextureDescriptor{Width: 8, Height: 8, Format: DepthFormat}, 256},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.desc.ByteSize())
		})
	}
}
