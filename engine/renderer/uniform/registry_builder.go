package uniform

// RegistryBuilderOption is a functional option applied to a Registry during NewRegistry.
type RegistryBuilderOption func(*registry)

// WithLayout registers an additional domain, or replaces a built-in one with the same tag.
//
// Parameters:
//   - l: the layout to register
//
// Returns:
//   - RegistryBuilderOption: a function that registers the layout
func WithLayout(l Layout) RegistryBuilderOption {
	return func(r *registry) {
		r.add(l)
	}
}
