package graph

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/Carmen-Shannon/oxy-graph/common"
	"github.com/Carmen-Shannon/oxy-graph/engine/renderer/uniform"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Format selects the encoding of a graph description.
type Format int

const (
	// FormatTOML is a TOML document with one [[node]] table per pass.
	FormatTOML Format = iota
	// FormatYAML is a YAML document with a node list.
	FormatYAML
)

// FormatFromPath picks the description format from a file extension.
//
// Parameters:
//   - path: the description file path
//
// Returns:
//   - Format: the matching format
//   - error: an error for extensions other than .toml, .yaml and .yml
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		return FormatTOML, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	default:
		return 0, fmt.Errorf("graph: unsupported description extension %q", filepath.Ext(path))
	}
}

// Description is the declarative, serializable form of a node set.
//
// Example (TOML):
//
//	[[node]]
//	name = "life"
//	program = "automaton"
//	uniforms = ["quad"]
//	inputs = [{ name = "state", previous = true, filter = "nearest" }]
//	output = { width = 128, height = 128, feedback = true }
//
//	[[node]]
//	name = "present"
//	program = "channel"
//	master = true
//	uniforms = ["channel"]
//	inputs = [{ name = "src", node = "life" }]
type Description struct {
	Nodes []NodeDescription `toml:"node" yaml:"nodes"`
}

// NodeDescription is the serializable form of a NodeDescriptor.
type NodeDescription struct {
	Name     string               `toml:"name" yaml:"name"`
	Program  string               `toml:"program" yaml:"program"`
	Inputs   []ChannelDescription `toml:"inputs" yaml:"inputs"`
	Uniforms []string             `toml:"uniforms" yaml:"uniforms"`
	Output   OutputDescription    `toml:"output" yaml:"output"`
	Master   bool                 `toml:"master" yaml:"master"`
	Clear    []float32            `toml:"clear" yaml:"clear"`
}

// ChannelDescription is the serializable form of a Channel. Exactly one of Node, External
// and Previous must be set. Filter is "linear" (default) or "nearest"; Address is "repeat"
// (default), "clamp" or "mirror".
type ChannelDescription struct {
	Name     string `toml:"name" yaml:"name"`
	Node     string `toml:"node" yaml:"node"`
	External string `toml:"external" yaml:"external"`
	Previous bool   `toml:"previous" yaml:"previous"`
	Filter   string `toml:"filter" yaml:"filter"`
	Address  string `toml:"address" yaml:"address"`
}

// OutputDescription is the serializable form of an OutputDescriptor. Format is a texture
// format name such as "rgba8unorm" or "rgba16float"; Dimension is "2d" (default) or "cube".
type OutputDescription struct {
	Format        string `toml:"format" yaml:"format"`
	Width         uint32 `toml:"width" yaml:"width"`
	Height        uint32 `toml:"height" yaml:"height"`
	Dimension     string `toml:"dimension" yaml:"dimension"`
	Feedback      bool   `toml:"feedback" yaml:"feedback"`
	Depth         bool   `toml:"depth" yaml:"depth"`
	FollowSurface bool   `toml:"follow_surface" yaml:"follow_surface"`
}

var textureFormats = map[string]wgpu.TextureFormat{
	"":                wgpu.TextureFormatUndefined,
	"rgba8unorm":      wgpu.TextureFormatRGBA8Unorm,
	"rgba8unorm-srgb": wgpu.TextureFormatRGBA8UnormSrgb,
	"bgra8unorm":      wgpu.TextureFormatBGRA8Unorm,
	"bgra8unorm-srgb": wgpu.TextureFormatBGRA8UnormSrgb,
	"rgba16float":     wgpu.TextureFormatRGBA16Float,
	"rgba32float":     wgpu.TextureFormatRGBA32Float,
}

var viewDimensions = map[string]wgpu.TextureViewDimension{
	"":     wgpu.TextureViewDimension2D,
	"2d":   wgpu.TextureViewDimension2D,
	"cube": wgpu.TextureViewDimensionCube,
}

var filterModes = map[string]wgpu.FilterMode{
	"":        wgpu.FilterModeLinear,
	"linear":  wgpu.FilterModeLinear,
	"nearest": wgpu.FilterModeNearest,
}

var addressModes = map[string]wgpu.AddressMode{
	"":       wgpu.AddressModeRepeat,
	"repeat": wgpu.AddressModeRepeat,
	"clamp":  wgpu.AddressModeClampToEdge,
	"mirror": wgpu.AddressModeMirrorRepeat,
}

// ParseDescription decodes a graph description into node descriptors. Unknown fields are
// rejected so typos surface at load time.
//
// Parameters:
//   - data: the encoded description
//   - format: FormatTOML or FormatYAML
//
// Returns:
//   - []NodeDescriptor: the nodes in declaration order
//   - error: a decode error, or ErrInvalidNode for values that do not name a known option
func ParseDescription(data []byte, format Format) ([]NodeDescriptor, error) {
	var desc Description
	switch format {
	case FormatTOML:
		dec := toml.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&desc); err != nil {
			return nil, fmt.Errorf("graph: decode toml description: %w", err)
		}
	case FormatYAML:
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&desc); err != nil {
			return nil, fmt.Errorf("graph: decode yaml description: %w", err)
		}
	default:
		return nil, fmt.Errorf("graph: unknown description format %d", format)
	}
	return desc.Descriptors()
}

// LoadDescription reads and parses the description file at path. The format follows the
// file extension.
//
// Parameters:
//   - path: the description file path
//
// Returns:
//   - []NodeDescriptor: the nodes in declaration order
//   - error: a read, format or decode error
func LoadDescription(path string) ([]NodeDescriptor, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("graph: read description %q: %w", path, err)
	}
	nodes, err := ParseDescription(data, format)
	if err != nil {
		return nil, err
	}
	common.Logger().Debug("graph description loaded", "path", path, "nodes", len(nodes))
	return nodes, nil
}

// Descriptors converts the description into node descriptors.
func (d Description) Descriptors() ([]NodeDescriptor, error) {
	out := make([]NodeDescriptor, 0, len(d.Nodes))
	for _, nd := range d.Nodes {
		desc, err := nd.descriptor()
		if err != nil {
			return nil, err
		}
		out = append(out, desc)
	}
	return out, nil
}

func (nd NodeDescription) descriptor() (NodeDescriptor, error) {
	desc := NodeDescriptor{
		Name:    nd.Name,
		Program: nd.Program,
		Master:  nd.Master,
		Clear:   [4]float32{0, 0, 0, 1},
	}
	if len(nd.Clear) > 0 {
		if len(nd.Clear) != 4 {
			return desc, invalid(nd.Name, "clear color needs 4 components, got %d", len(nd.Clear))
		}
		copy(desc.Clear[:], nd.Clear)
	}

	for _, u := range nd.Uniforms {
		desc.Uniforms = append(desc.Uniforms, uniform.Domain(u))
	}

	var ok bool
	if desc.Output.Format, ok = textureFormats[strings.ToLower(nd.Output.Format)]; !ok {
		return desc, invalid(nd.Name, "unknown output format %q", nd.Output.Format)
	}
	if desc.Output.Dimension, ok = viewDimensions[strings.ToLower(nd.Output.Dimension)]; !ok {
		return desc, invalid(nd.Name, "unknown output dimension %q", nd.Output.Dimension)
	}
	desc.Output.Width = nd.Output.Width
	desc.Output.Height = nd.Output.Height
	desc.Output.Feedback = nd.Output.Feedback
	desc.Output.Depth = nd.Output.Depth
	desc.Output.FollowSurface = nd.Output.FollowSurface

	for i, cd := range nd.Inputs {
		ch, err := cd.channel()
		if err != nil {
			return desc, invalid(nd.Name, "input %d: %v", i, err)
		}
		desc.Inputs = append(desc.Inputs, ch)
	}
	return desc, nil
}

func (cd ChannelDescription) channel() (Channel, error) {
	ch := Channel{Name: cd.Name}

	set := 0
	if cd.Node != "" {
		ch.Source = FromNode(cd.Node)
		set++
	}
	if cd.External != "" {
		ch.Source = External(cd.External)
		set++
	}
	if cd.Previous {
		ch.Source = Previous()
		set++
	}
	if set != 1 {
		return ch, fmt.Errorf("exactly one of node, external and previous must be set")
	}

	filter, ok := filterModes[strings.ToLower(cd.Filter)]
	if !ok {
		return ch, fmt.Errorf("unknown filter %q", cd.Filter)
	}
	address, ok := addressModes[strings.ToLower(cd.Address)]
	if !ok {
		return ch, fmt.Errorf("unknown address mode %q", cd.Address)
	}
	ch.Sampler = common.SamplerStagingData{
		AddressModeU: address,
		AddressModeV: address,
		AddressModeW: address,
		MagFilter:    filter,
		MinFilter:    filter,
	}
	return ch, nil
}
