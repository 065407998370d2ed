package resource

// BufferBuilderOption is a functional option used to configure a Buffer during construction.
type BufferBuilderOption func(*buffer)

// WithRange sets the initial active byte range of the buffer.
//
// Parameters:
//   - offset: the byte offset of the active range
//   - size: the byte size of the active range
//
// Returns:
//   - BufferBuilderOption: a function that sets the initial range for this buffer
func WithRange(offset, size uint64) BufferBuilderOption {
	return func(b *buffer) {
		b.offset = offset
		b.size = size
	}
}
