package common

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCoalesce(t *testing.T) {
	assert.Equal(t, 3, Coalesce(0, 0, 3, 4))
	assert.Equal(t, "", Coalesce("", ""))
	assert.Equal(t, float32(0.5), Coalesce(float32(0), float32(0.5)))
}

func TestGLSLHelpers(t *testing.T) {
	assert.InDelta(t, 0.25, Fract(1.25), 1e-6)
	assert.InDelta(t, 0.75, Fract(-0.25), 1e-6)
	assert.InDelta(t, 5, Mix(0, 10, 0.5), 1e-6)
	assert.Equal(t, float32(1), Saturate(3))
	assert.Equal(t, float32(0), Saturate(-1))
	assert.Equal(t, float32(0), Smoothstep(0, 1, -1))
	assert.Equal(t, float32(1), Smoothstep(0, 1, 2))
	assert.InDelta(t, 0.5, Smoothstep(0, 1, 0.5), 1e-6)
}

func TestDecodeTexturePNG(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 2, 1))
	img.Set(0, 0, color.RGBA{255, 0, 0, 255})
	img.Set(1, 0, color.RGBA{0, 0, 255, 255})
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))

	data, err := DecodeTextureBytes(buf.Bytes())
	require.NoError(t, err)
	assert.Equal(t, uint32(2), data.Width)
	assert.Equal(t, uint32(1), data.Height)
	assert.Equal(t, []byte{255, 0, 0, 255, 0, 0, 255, 255}, data.Pixels)
}

func TestDecodeTextureRejectsGarbage(t *testing.T) {
	_, err := DecodeTextureBytes([]byte("not an image"))
	assert.Error(t, err)
}

func TestSolidTexture(t *testing.T) {
	data := SolidTexture(2, 2, [4]uint8{1, 2, 3, 4})
	assert.Len(t, data.Pixels, 16)
	assert.Equal(t, []byte{1, 2, 3, 4}, data.Pixels[12:16])
}

func TestLoggerDefaultsToSilent(t *testing.T) {
	SetLogger(nil)
	require.NotNil(t, Logger())
	assert.False(t, Logger().Enabled(t.Context(), slog.LevelError))

	var buf bytes.Buffer
	SetLogger(slog.New(slog.NewTextHandler(&buf, nil)))
	defer SetLogger(nil)
	Logger().Info("hello")
	assert.Contains(t, buf.String(), "hello")
}
