package binding_state

import (
	"github.com/Carmen-Shannon/prism-go/common"
	"github.com/Carmen-Shannon/prism-go/engine/device"
	"github.com/Carmen-Shannon/prism-go/engine/resource"
)

// BufferKey identifies a buffer binding within a snapshot. Keys are plain values; two keys
// are the same binding point exactly when target class and slot both match.
type BufferKey struct {
	// Target is the buffer target class.
	Target common.BufferTarget
	// Slot is the binding slot within the class. Non-keyed classes only use slot 0.
	Slot int
}

// BufferBinding is one bound buffer range. Offset and Size are cache copies of the buffer's
// live range taken at bind time; when the owner moves the range afterwards, the stale cache
// is what lets the diff engine notice without an explicit rebind. A nil Buffer is the
// tombstone meaning "unbind this key".
type BufferBinding struct {
	// Buffer is the bound buffer, nil for a pending unbind.
	Buffer resource.Buffer
	// Offset is the byte offset cached at bind time.
	Offset uint64
	// Size is the byte size cached at bind time.
	Size uint64
}

// NewBufferBinding creates a binding for the buffer, capturing its live range as the cached
// range. A nil buffer produces the unbind tombstone.
//
// Parameters:
//   - buf: the buffer to bind, or nil to unbind
//
// Returns:
//   - BufferBinding: the binding with the captured range
func NewBufferBinding(buf resource.Buffer) BufferBinding {
	if buf == nil {
		return BufferBinding{}
	}
	return BufferBinding{
		Buffer: buf,
		Offset: buf.Offset(),
		Size:   buf.Size(),
	}
}

// Stale reports whether the buffer's live range has moved away from the cached range. A
// tombstone is never stale.
//
// Returns:
//   - bool: true if the cached range no longer matches the live range
func (b BufferBinding) Stale() bool {
	return b.Buffer != nil && (b.Offset != b.Buffer.Offset() || b.Size != b.Buffer.Size())
}

// TextureBinding is one bound texture unit. A nil Texture is the tombstone meaning
// "unbind this unit".
type TextureBinding struct {
	// Texture is the bound texture, nil for a pending unbind.
	Texture resource.Texture
}

// ImageBinding is one bound image unit. A nil Texture is the tombstone meaning "unbind this
// unit". The shader-side access mode and the image format are not stored; they derive from
// the flags and the texture's pixel format at apply time.
type ImageBinding struct {
	// Texture is the bound texture, nil for a pending unbind.
	Texture resource.Texture
	// Level is the mip level to bind.
	Level int32
	// Layer is the array layer to bind when MultiLayer is false.
	Layer int32
	// MultiLayer binds all layers of an array texture instead of a single one.
	MultiLayer bool
	// ReadEnabled allows shader load operations on the bound image.
	ReadEnabled bool
	// WriteEnabled allows shader store operations on the bound image.
	WriteEnabled bool
}

// Access derives the image unit access mode from the read and write flags.
//
// Returns:
//   - common.ImageAccess: write-only when reads are disabled, read-only when writes are
//     disabled, read-write otherwise
func (b ImageBinding) Access() common.ImageAccess {
	if !b.ReadEnabled {
		return common.ImageAccessWriteOnly
	}
	if !b.WriteEnabled {
		return common.ImageAccessReadOnly
	}
	return common.ImageAccessReadWrite
}

// Format derives the image unit format from the bound texture's pixel format, remapping the
// unsized byte-normalized formats to their image-compatible sized equivalents.
//
// Returns:
//   - common.PixelFormat: the format to bind the image unit with
func (b ImageBinding) Format() common.PixelFormat {
	if b.Texture == nil {
		return common.PixelFormatUndefined
	}
	return b.Texture.Format().ImageCompatible()
}

// attachment converts the binding into the device-level bind parameters.
func (b ImageBinding) attachment() device.ImageAttachment {
	return device.ImageAttachment{
		Texture:    b.Texture,
		Level:      b.Level,
		Layer:      b.Layer,
		MultiLayer: b.MultiLayer,
		Access:     b.Access(),
		Format:     b.Format(),
	}
}
