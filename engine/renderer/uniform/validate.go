package uniform

import (
	"slices"

	"github.com/cogentcore/webgpu/wgpu"
)

func (r *registry) Validate(node string, program Program, inputs []InputShape, domains []Domain) error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	// order of declared domains within each group
	declared := make(map[int][]Domain)
	for _, d := range domains {
		l, ok := r.layouts[d]
		if !ok {
			return mismatch(node, -1, "unknown uniform domain %q", d)
		}
		if slices.Contains(declared[l.Group], d) {
			return mismatch(node, l.Group, "domain %q declared twice", d)
		}
		declared[l.Group] = append(declared[l.Group], d)
	}

	descs := program.BindGroupLayoutDescriptors()
	groups := make([]int, 0, len(descs))
	for g := range descs {
		groups = append(groups, g)
	}
	slices.Sort(groups)

	bound := make(map[Domain]bool)
	for _, g := range groups {
		desc := descs[g]
		switch {
		case g == GroupPrimaryInput:
			if len(inputs) == 0 {
				return mismatch(node, g, "program samples a primary input but the node declares no inputs")
			}
			if err := validateChannelGroup(node, g, desc, inputs[0]); err != nil {
				return err
			}
		case IsUniformGroup(g):
			for _, entry := range desc.Entries {
				if err := r.validateUniformEntry(node, g, int(entry.Binding), entry, program, declared[g], bound); err != nil {
					return err
				}
			}
		default:
			channel := g - GroupAuxiliaryBase + 1
			if channel >= len(inputs) {
				return mismatch(node, g, "program samples auxiliary channel %d but the node declares %d input(s)", channel, len(inputs))
			}
			if err := validateChannelGroup(node, g, desc, inputs[channel]); err != nil {
				return err
			}
		}
	}

	for i, in := range inputs {
		g := ChannelGroup(i)
		if _, ok := descs[g]; !ok {
			return mismatch(node, g, "input %q has no texture binding in the program", in.Name)
		}
	}
	for _, d := range domains {
		if !bound[d] {
			l := r.layouts[d]
			return mismatch(node, l.Group, "domain %q is declared but the program does not bind it", d)
		}
	}
	return nil
}

func (r *registry) validateUniformEntry(node string, g, binding int, entry wgpu.BindGroupLayoutEntry, program Program, declared []Domain, bound map[Domain]bool) error {
	typeName := program.BindGroupTypeName(g, binding)
	switch entry.Buffer.Type {
	case wgpu.BufferBindingTypeUniform:
	case wgpu.BufferBindingTypeReadOnlyStorage:
		elem, ok := InstanceElement(typeName)
		if !ok {
			return mismatch(node, g, "binding %d must be a uniform buffer or a runtime array of blocks, found %q", binding, typeName)
		}
		typeName = elem
	default:
		return mismatch(node, g, "binding %d must be a uniform buffer", binding)
	}
	d, ok := r.byType[typeName]
	if !ok {
		return mismatch(node, g, "binding %d uses unregistered type %q", binding, typeName)
	}
	l := r.layouts[d]
	if l.Group != g {
		return mismatch(node, g, "domain %q belongs in group %d", d, l.Group)
	}
	if entry.Buffer.Type == wgpu.BufferBindingTypeReadOnlyStorage && g != GroupMaterial {
		return mismatch(node, g, "domain %q is shared and cannot be read per instance", d)
	}
	idx := slices.Index(declared, d)
	if idx < 0 {
		return mismatch(node, g, "binding %d uses domain %q which the node does not declare", binding, d)
	}
	if idx != binding {
		return mismatch(node, g, "domain %q must be bound at binding %d, found %d", d, idx, binding)
	}
	if entry.Buffer.MinBindingSize != 0 && entry.Buffer.MinBindingSize != l.Size {
		return mismatch(node, g, "domain %q is %d bytes in the program, layout requires %d", d, entry.Buffer.MinBindingSize, l.Size)
	}
	bound[d] = true
	return nil
}

// validateChannelGroup checks that a texture group holds the texture at binding 0 and its
// sampler at binding 1, with a view dimension matching the input.
func validateChannelGroup(node string, g int, desc wgpu.BindGroupLayoutDescriptor, in InputShape) error {
	if len(desc.Entries) != 2 {
		return mismatch(node, g, "texture group must hold exactly a texture and a sampler, found %d binding(s)", len(desc.Entries))
	}
	var tex, smp *wgpu.BindGroupLayoutEntry
	for i := range desc.Entries {
		switch desc.Entries[i].Binding {
		case 0:
			tex = &desc.Entries[i]
		case 1:
			smp = &desc.Entries[i]
		}
	}
	if tex == nil || tex.Texture.SampleType == wgpu.TextureSampleTypeUndefined {
		return mismatch(node, g, "binding 0 must be a sampled texture for input %q", in.Name)
	}
	if smp == nil || smp.Sampler.Type == wgpu.SamplerBindingTypeUndefined {
		return mismatch(node, g, "binding 1 must be a sampler for input %q", in.Name)
	}
	want := in.Dimension
	if want == wgpu.TextureViewDimensionUndefined {
		want = wgpu.TextureViewDimension2D
	}
	if tex.Texture.ViewDimension != want {
		return mismatch(node, g, "input %q provides a %s texture but the program expects %s", in.Name, dimensionName(want), dimensionName(tex.Texture.ViewDimension))
	}
	return nil
}

func dimensionName(d wgpu.TextureViewDimension) string {
	switch d {
	case wgpu.TextureViewDimension2D:
		return "2d"
	case wgpu.TextureViewDimensionCube:
		return "cube"
	default:
		return "unsupported"
	}
}
