// package common contains common types that are used throughout this library. They are not interface-wrapped structs, just plain values that express
// commonly used data-types.
package common

// BufferTarget identifies the class of a buffer binding point. Each target class has its own
// slot numbering space; the four keyed classes (Uniform, Storage, AtomicCounter,
// TransformFeedback) support multiple concurrent slots up to the device limits, all other
// classes have a single active slot.
type BufferTarget int

const (
	// BufferTargetArray is the vertex attribute buffer class.
	BufferTargetArray BufferTarget = iota
	// BufferTargetCopyRead is the source class for buffer-to-buffer copies.
	BufferTargetCopyRead
	// BufferTargetCopyWrite is the destination class for buffer-to-buffer copies.
	BufferTargetCopyWrite
	// BufferTargetDispatchIndirect is the class holding compute dispatch parameters.
	BufferTargetDispatchIndirect
	// BufferTargetDrawIndirect is the class holding indirect draw parameters.
	BufferTargetDrawIndirect
	// BufferTargetIndex is the element index buffer class.
	BufferTargetIndex
	// BufferTargetPixelPack is the class receiving pixel read-back data.
	BufferTargetPixelPack
	// BufferTargetPixelUnpack is the class sourcing pixel upload data.
	BufferTargetPixelUnpack
	// BufferTargetQuery is the class receiving query results.
	BufferTargetQuery
	// BufferTargetTextureBuffer is the class backing buffer textures.
	BufferTargetTextureBuffer
	// BufferTargetUniform is the keyed uniform buffer class.
	BufferTargetUniform
	// BufferTargetStorage is the keyed shader storage buffer class.
	BufferTargetStorage
	// BufferTargetAtomicCounter is the keyed atomic counter buffer class.
	BufferTargetAtomicCounter
	// BufferTargetTransformFeedback is the keyed transform feedback buffer class.
	BufferTargetTransformFeedback

	// BufferTargetCount is the number of recognized buffer target classes.
	BufferTargetCount
)

// bufferTargetNames maps each target class to its diagnostic name.
var bufferTargetNames = map[BufferTarget]string{
	BufferTargetArray:             "array",
	BufferTargetCopyRead:          "copy-read",
	BufferTargetCopyWrite:         "copy-write",
	BufferTargetDispatchIndirect:  "dispatch-indirect",
	BufferTargetDrawIndirect:      "draw-indirect",
	BufferTargetIndex:             "index",
	BufferTargetPixelPack:         "pixel-pack",
	BufferTargetPixelUnpack:       "pixel-unpack",
	BufferTargetQuery:             "query",
	BufferTargetTextureBuffer:     "texture-buffer",
	BufferTargetUniform:           "uniform",
	BufferTargetStorage:           "storage",
	BufferTargetAtomicCounter:     "atomic-counter",
	BufferTargetTransformFeedback: "transform-feedback",
}

// Valid reports whether the target is one of the recognized buffer target classes.
//
// Returns:
//   - bool: true if the target is recognized, false otherwise
func (t BufferTarget) Valid() bool {
	return t >= BufferTargetArray && t < BufferTargetCount
}

// Keyed reports whether the target class supports multiple concurrent binding slots.
// Only the uniform, storage, atomic counter and transform feedback classes are keyed;
// all other classes have exactly one active slot.
//
// Returns:
//   - bool: true if the class is slot-granular, false otherwise
func (t BufferTarget) Keyed() bool {
	switch t {
	case BufferTargetUniform, BufferTargetStorage, BufferTargetAtomicCounter, BufferTargetTransformFeedback:
		return true
	default:
		return false
	}
}

// String returns the diagnostic name of the target class.
//
// Returns:
//   - string: the class name, or "unknown" for unrecognized values
func (t BufferTarget) String() string {
	if name, ok := bufferTargetNames[t]; ok {
		return name
	}
	return "unknown"
}

// ImageAccess describes how a shader may access a bound image unit.
type ImageAccess int

const (
	// ImageAccessReadOnly allows load operations only.
	ImageAccessReadOnly ImageAccess = iota
	// ImageAccessWriteOnly allows store operations only.
	ImageAccessWriteOnly
	// ImageAccessReadWrite allows both load and store operations.
	ImageAccessReadWrite
)

// PixelFormat identifies the pixel format of a texture. The unsized byte-normalized formats
// (Red, RG, RGB, RGBA) are storable texture formats but are not valid image unit formats;
// image bindings remap them to their sized 8-bit equivalents.
type PixelFormat int

const (
	// PixelFormatUndefined is the zero value, meaning no format has been assigned.
	PixelFormatUndefined PixelFormat = iota
	// PixelFormatRed is the unsized single channel byte format.
	PixelFormatRed
	// PixelFormatRG is the unsized two channel byte format.
	PixelFormatRG
	// PixelFormatRGB is the unsized three channel byte format.
	PixelFormatRGB
	// PixelFormatRGBA is the unsized four channel byte format.
	PixelFormatRGBA
	// PixelFormatR8 is the sized single channel 8-bit normalized format.
	PixelFormatR8
	// PixelFormatRG8 is the sized two channel 8-bit normalized format.
	PixelFormatRG8
	// PixelFormatRGB8 is the sized three channel 8-bit normalized format.
	PixelFormatRGB8
	// PixelFormatRGBA8 is the sized four channel 8-bit normalized format.
	PixelFormatRGBA8
	// PixelFormatR32F is the single channel 32-bit float format.
	PixelFormatR32F
	// PixelFormatRG32F is the two channel 32-bit float format.
	PixelFormatRG32F
	// PixelFormatRGBA32F is the four channel 32-bit float format.
	PixelFormatRGBA32F
	// PixelFormatR32UI is the single channel 32-bit unsigned integer format.
	PixelFormatR32UI
	// PixelFormatRGBA32UI is the four channel 32-bit unsigned integer format.
	PixelFormatRGBA32UI
	// PixelFormatDepth24Stencil8 is the combined 24-bit depth 8-bit stencil format.
	PixelFormatDepth24Stencil8
)

// ImageCompatible returns the format to use when binding a texture of this format to an
// image unit. The unsized byte-normalized formats have no image unit equivalent and are
// remapped to their sized 8-bit counterparts; every other format binds as-is.
//
// Returns:
//   - PixelFormat: the image unit compatible format
func (f PixelFormat) ImageCompatible() PixelFormat {
	switch f {
	case PixelFormatRed:
		return PixelFormatR8
	case PixelFormatRG:
		return PixelFormatRG8
	case PixelFormatRGB:
		return PixelFormatRGB8
	case PixelFormatRGBA:
		return PixelFormatRGBA8
	default:
		return f
	}
}

// Rect describes an axis-aligned screen-space rectangle in pixels, used for viewports and
// scissor regions.
type Rect struct {
	// X is the left edge in pixels.
	X int32
	// Y is the bottom edge in pixels.
	Y int32
	// Width is the horizontal extent in pixels.
	Width int32
	// Height is the vertical extent in pixels.
	Height int32
}
