package resource

import (
	"github.com/Carmen-Shannon/prism-go/common"
)

// texture is the unexported implementation of Texture.
type texture struct {
	// handle is the driver-level object name for this texture.
	handle uint32
	// format is the pixel format the texture was allocated with.
	format common.PixelFormat
	// layers is the number of array layers, 1 for non-array textures.
	layers uint32
}

// Texture is a shared reference to a GPU texture. Binding snapshots hold Textures without
// owning them; the owner guarantees the underlying GPU object outlives every reference.
type Texture interface {
	// Handle returns the driver-level object name of this texture.
	//
	// Returns:
	//   - uint32: the driver object name
	Handle() uint32

	// Format returns the pixel format the texture was allocated with. Image unit bindings
	// derive their bind format from this value.
	//
	// Returns:
	//   - common.PixelFormat: the allocation format
	Format() common.PixelFormat

	// Layers returns the number of array layers of this texture, 1 for non-array textures.
	//
	// Returns:
	//   - uint32: the layer count
	Layers() uint32
}

// Compile-time check that texture implements Texture
var _ Texture = &texture{}

// NewTexture creates a new Texture wrapping the given driver object name.
// Panics if handle is zero, since zero is the driver's null object.
//
// Parameters:
//   - handle: the driver-level object name, must be non-zero
//   - format: the pixel format the texture was allocated with
//   - opts: a variadic list of TextureBuilderOption functions to configure the texture
//
// Returns:
//   - Texture: a new Texture instance with the specified handle and format
func NewTexture(handle uint32, format common.PixelFormat, opts ...TextureBuilderOption) Texture {
	if handle == 0 {
		panic("resource: texture handle must be non-zero")
	}
	t := &texture{
		handle: handle,
		format: format,
		layers: 1,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

func (t *texture) Handle() uint32 {
	return t.handle
}

func (t *texture) Format() common.PixelFormat {
	return t.format
}

func (t *texture) Layers() uint32 {
	return t.layers
}
