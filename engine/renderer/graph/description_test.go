package graph

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Carmen-Shannon/oxy-graph/engine/renderer/uniform"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const tomlDescription = `
[[node]]
name = "life"
program = "channel"
uniforms = ["quad", "channel"]
inputs = [{ name = "state", previous = true, filter = "nearest", address = "clamp" }]
output = { width = 128, height = 128, feedback = true }

[[node]]
name = "sky"
program = "sky"
uniforms = ["quad"]
inputs = [{ name = "env", external = "skybox" }]
output = { format = "rgba16float", follow_surface = true, depth = true }

[[node]]
name = "present"
program = "mix2"
master = true
clear = [0.1, 0.2, 0.3, 1.0]
uniforms = ["quad"]
inputs = [{ name = "a", node = "life" }, { name = "b", node = "sky" }]
`

const yamlDescription = `
nodes:
  - name: life
    program: channel
    uniforms: [quad, channel]
    inputs:
      - name: state
        previous: true
        filter: nearest
        address: clamp
    output:
      width: 128
      height: 128
      feedback: true
  - name: sky
    program: sky
    uniforms: [quad]
    inputs:
      - name: env
        external: skybox
    output:
      format: rgba16float
      follow_surface: true
      depth: true
  - name: present
    program: mix2
    master: true
    clear: [0.1, 0.2, 0.3, 1.0]
    uniforms: [quad]
    inputs:
      - name: a
        node: life
      - name: b
        node: sky
`

func TestParseDescription(t *testing.T) {
	fromTOML, err := ParseDescription([]byte(tomlDescription), FormatTOML)
	require.NoError(t, err)
	fromYAML, err := ParseDescription([]byte(yamlDescription), FormatYAML)
	require.NoError(t, err)
	assert.Equal(t, fromTOML, fromYAML, "both encodings describe the same graph")

	require.Len(t, fromTOML, 3)
	life := fromTOML[0]
	assert.Equal(t, "life", life.Name)
	assert.Equal(t, []uniform.Domain{uniform.DomainQuad, uniform.DomainChannel}, life.Uniforms)
	require.Len(t, life.Inputs, 1)
	assert.Equal(t, Previous(), life.Inputs[0].Source)
	assert.Equal(t, wgpu.FilterModeNearest, life.Inputs[0].Sampler.MagFilter)
	assert.Equal(t, wgpu.AddressModeClampToEdge, life.Inputs[0].Sampler.AddressModeU)
	assert.True(t, life.Output.Feedback)
	assert.Equal(t, [4]float32{0, 0, 0, 1}, life.Clear, "clear defaults to opaque black")

	sky := fromTOML[1]
	assert.Equal(t, External("skybox"), sky.Inputs[0].Source)
	assert.Equal(t, wgpu.FilterModeLinear, sky.Inputs[0].Sampler.MinFilter)
	assert.Equal(t, wgpu.AddressModeRepeat, sky.Inputs[0].Sampler.AddressModeV)
	assert.Equal(t, wgpu.TextureFormatRGBA16Float, sky.Output.Format)
	assert.Equal(t, wgpu.TextureViewDimension2D, sky.Output.Dimension)
	assert.True(t, sky.Output.FollowSurface)
	assert.True(t, sky.Output.Depth)

	present := fromTOML[2]
	assert.True(t, present.Master)
	assert.Equal(t, [4]float32{0.1, 0.2, 0.3, 1.0}, present.Clear)
	assert.Equal(t, FromNode("life"), present.Inputs[0].Source)
	assert.Equal(t, FromNode("sky"), present.Inputs[1].Source)

	g, err := NewBuilder(fromTOML...).Build(testContext(t))
	require.NoError(t, err)
	assert.Equal(t, []string{"life", "sky", "present"}, g.Order())
	skyNode, _ := g.Node("sky")
	assert.Equal(t, uint32(800), skyNode.Output.Width, "follow_surface sizes the output to the surface")
}

func TestParseDescriptionErrors(t *testing.T) {
	tests := []struct {
		name   string
		data   string
		format Format
	}{
		{"unknown toml field", "[[node]]\nname = \"a\"\ncolour = 1\n", FormatTOML},
		{"unknown yaml field", "nodes:\n  - name: a\n    colour: 1\n", FormatYAML},
		{"bad format", "[[node]]\nname = \"a\"\noutput = { format = \"rgb565\" }\n", FormatTOML},
		{"bad dimension", "[[node]]\nname = \"a\"\noutput = { dimension = \"3d\" }\n", FormatTOML},
		{"two sources", "[[node]]\nname = \"a\"\ninputs = [{ node = \"b\", previous = true }]\n", FormatTOML},
		{"no source", "[[node]]\nname = \"a\"\ninputs = [{ name = \"x\" }]\n", FormatTOML},
		{"bad filter", "[[node]]\nname = \"a\"\ninputs = [{ node = \"b\", filter = \"cubic\" }]\n", FormatTOML},
		{"short clear", "[[node]]\nname = \"a\"\nclear = [1.0]\n", FormatTOML},
		{"unknown encoding", "", Format(9)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseDescription([]byte(tt.data), tt.format)
			assert.Error(t, err)
		})
	}
}

func TestLoadDescription(t *testing.T) {
	dir := t.TempDir()
	tomlPath := filepath.Join(dir, "graph.toml")
	yamlPath := filepath.Join(dir, "graph.yml")
	require.NoError(t, os.WriteFile(tomlPath, []byte(tomlDescription), 0o644))
	require.NoError(t, os.WriteFile(yamlPath, []byte(yamlDescription), 0o644))

	fromTOML, err := LoadDescription(tomlPath)
	require.NoError(t, err)
	fromYAML, err := LoadDescription(yamlPath)
	require.NoError(t, err)
	assert.Equal(t, fromTOML, fromYAML)

	_, err = LoadDescription(filepath.Join(dir, "graph.json"))
	assert.ErrorContains(t, err, "unsupported description extension")
	_, err = LoadDescription(filepath.Join(dir, "missing.toml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestWatchReloadsOnChange(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "graph.toml")
	require.NoError(t, os.WriteFile(path, []byte(tomlDescription), 0o644))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var reloaded atomic.Int32
	done := make(chan error, 1)
	go func() {
		done <- Watch(ctx, path, func(nodes []NodeDescriptor, err error) {
			if err == nil && len(nodes) == 3 {
				reloaded.Add(1)
			}
		})
	}()

	// the watcher may not be registered yet; keep touching the file until a reload lands
	require.Eventually(t, func() bool {
		_ = os.WriteFile(path, []byte(tomlDescription), 0o644)
		return reloaded.Load() > 0
	}, 5*time.Second, 50*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(5 * time.Second):
		t.Fatal("Watch did not return after cancel")
	}
}

func TestWatchRejectsUnknownExtension(t *testing.T) {
	err := Watch(context.Background(), filepath.Join(t.TempDir(), "graph.json"), func([]NodeDescriptor, error) {})
	assert.Error(t, err)
}
