package resource

// TextureBuilderOption is a functional option used to configure a Texture during construction.
type TextureBuilderOption func(*texture)

// WithLayers sets the number of array layers of the texture.
//
// Parameters:
//   - layers: the layer count, must be at least 1
//
// Returns:
//   - TextureBuilderOption: a function that sets the layer count for this texture
func WithLayers(layers uint32) TextureBuilderOption {
	return func(t *texture) {
		if layers == 0 {
			layers = 1
		}
		t.layers = layers
	}
}
