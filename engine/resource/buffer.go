// package resource contains the shared GPU resource handles referenced by binding snapshots.
// The handles are reference types: multiple snapshots and contexts may hold the same resource,
// and the owner guarantees the underlying GPU object outlives every reference. The owner does
// not guarantee the byte range stays fixed, which is why bindings re-check it.
package resource

// buffer is the unexported implementation of Buffer.
type buffer struct {
	// handle is the driver-level object name for this buffer.
	handle uint32
	// offset is the byte offset of the buffer's active range, mutable by the owner.
	offset uint64
	// size is the byte size of the buffer's active range, mutable by the owner.
	size uint64
}

// Buffer is a shared reference to a GPU buffer. Binding snapshots hold Buffers without owning
// them; the active byte range reported by Offset and Size may be changed by the owner at any
// time (reallocation, sub-range repositioning), and the binding layer detects such changes by
// comparing its cached copy against the live values.
type Buffer interface {
	// Handle returns the driver-level object name of this buffer.
	//
	// Returns:
	//   - uint32: the driver object name
	Handle() uint32

	// Offset returns the current byte offset of the buffer's active range.
	//
	// Returns:
	//   - uint64: the live byte offset
	Offset() uint64

	// Size returns the current byte size of the buffer's active range.
	//
	// Returns:
	//   - uint64: the live byte size
	Size() uint64

	// SetRange repositions the buffer's active range. This is an owner-side mutation; existing
	// bindings keep their cached range and are re-applied on the next state diff.
	//
	// Parameters:
	//   - offset: the new byte offset
	//   - size: the new byte size
	SetRange(offset, size uint64)
}

// Compile-time check that buffer implements Buffer
var _ Buffer = &buffer{}

// NewBuffer creates a new Buffer wrapping the given driver object name.
// Panics if handle is zero, since zero is the driver's null object.
//
// Parameters:
//   - handle: the driver-level object name, must be non-zero
//   - opts: a variadic list of BufferBuilderOption functions to configure the buffer
//
// Returns:
//   - Buffer: a new Buffer instance with the specified handle and range
func NewBuffer(handle uint32, opts ...BufferBuilderOption) Buffer {
	if handle == 0 {
		panic("resource: buffer handle must be non-zero")
	}
	b := &buffer{
		handle: handle,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

func (b *buffer) Handle() uint32 {
	return b.handle
}

func (b *buffer) Offset() uint64 {
	return b.offset
}

func (b *buffer) Size() uint64 {
	return b.size
}

func (b *buffer) SetRange(offset, size uint64) {
	b.offset = offset
	b.size = size
}
