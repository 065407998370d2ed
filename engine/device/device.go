// package device defines the driver capability boundary consumed by the state-tracking core.
// A Device receives the binding and fixed-function calls the diff engine decides to issue; it
// never sees the snapshots themselves. Implementations are expected to be cheap pass-throughs
// to the native API.
package device

import (
	"github.com/Carmen-Shannon/prism-go/common"
	"github.com/Carmen-Shannon/prism-go/engine/resource"
	"github.com/cogentcore/webgpu/wgpu"
)

// Limits reports the hardware maxima that size the binding change-sets. All values are counts
// of concurrently usable slots, not byte sizes.
type Limits struct {
	// MaxTextureUnits is the number of texture units that can hold simultaneous bindings.
	MaxTextureUnits int
	// MaxImageUnits is the number of image units that can hold simultaneous bindings.
	MaxImageUnits int
	// MaxUniformBufferSlots is the number of uniform buffer binding slots.
	MaxUniformBufferSlots int
	// MaxStorageBufferSlots is the number of shader storage buffer binding slots.
	MaxStorageBufferSlots int
	// MaxAtomicCounterBufferSlots is the number of atomic counter buffer binding slots.
	MaxAtomicCounterBufferSlots int
	// MaxTransformFeedbackBufferSlots is the number of transform feedback buffer binding slots.
	MaxTransformFeedbackBufferSlots int
}

// DefaultLimits returns the conservative minimum limits guaranteed by the 4.5 core profile.
// Devices that can query real hardware values should prefer those.
//
// Returns:
//   - Limits: the minimum guaranteed limits
func DefaultLimits() Limits {
	return Limits{
		MaxTextureUnits:                 32,
		MaxImageUnits:                   8,
		MaxUniformBufferSlots:           36,
		MaxStorageBufferSlots:           8,
		MaxAtomicCounterBufferSlots:     8,
		MaxTransformFeedbackBufferSlots: 4,
	}
}

// OrDefaults replaces every non-positive field with the matching DefaultLimits value, so a
// partially populated Limits is still safe to size allocations with.
//
// Returns:
//   - Limits: the limits with every non-positive field defaulted
func (l Limits) OrDefaults() Limits {
	def := DefaultLimits()
	if l.MaxTextureUnits <= 0 {
		l.MaxTextureUnits = def.MaxTextureUnits
	}
	if l.MaxImageUnits <= 0 {
		l.MaxImageUnits = def.MaxImageUnits
	}
	if l.MaxUniformBufferSlots <= 0 {
		l.MaxUniformBufferSlots = def.MaxUniformBufferSlots
	}
	if l.MaxStorageBufferSlots <= 0 {
		l.MaxStorageBufferSlots = def.MaxStorageBufferSlots
	}
	if l.MaxAtomicCounterBufferSlots <= 0 {
		l.MaxAtomicCounterBufferSlots = def.MaxAtomicCounterBufferSlots
	}
	if l.MaxTransformFeedbackBufferSlots <= 0 {
		l.MaxTransformFeedbackBufferSlots = def.MaxTransformFeedbackBufferSlots
	}
	return l
}

// ImageAttachment bundles the parameters of an image unit bind call. Access and Format are
// already derived by the binding layer; devices translate them to native enums verbatim.
type ImageAttachment struct {
	// Texture is the texture to attach.
	Texture resource.Texture
	// Level is the mip level to attach.
	Level int32
	// Layer is the array layer to attach when MultiLayer is false.
	Layer int32
	// MultiLayer attaches all layers of an array texture instead of a single one.
	MultiLayer bool
	// Access is the shader-side access mode for the attachment.
	Access common.ImageAccess
	// Format is the image unit format, already remapped to an image-compatible format.
	Format common.PixelFormat
}

// BarrierMask selects which memory operations a MemoryBarrier call orders. The bits are
// device-independent; backends translate them to native barrier flags.
type BarrierMask uint32

const (
	// BarrierVertexAttribArray orders vertex attribute fetches.
	BarrierVertexAttribArray BarrierMask = 1 << iota
	// BarrierElementArray orders index fetches.
	BarrierElementArray
	// BarrierUniform orders uniform buffer reads.
	BarrierUniform
	// BarrierTextureFetch orders texture fetches.
	BarrierTextureFetch
	// BarrierShaderImageAccess orders image load/store operations.
	BarrierShaderImageAccess
	// BarrierCommand orders indirect command fetches.
	BarrierCommand
	// BarrierPixelBuffer orders pixel pack/unpack buffer accesses.
	BarrierPixelBuffer
	// BarrierTextureUpdate orders texture upload/download operations.
	BarrierTextureUpdate
	// BarrierBufferUpdate orders buffer upload/download operations.
	BarrierBufferUpdate
	// BarrierFramebuffer orders framebuffer reads and writes.
	BarrierFramebuffer
	// BarrierTransformFeedback orders transform feedback writes.
	BarrierTransformFeedback
	// BarrierAtomicCounter orders atomic counter operations.
	BarrierAtomicCounter
	// BarrierShaderStorage orders shader storage buffer accesses.
	BarrierShaderStorage
)

// BarrierAll orders every memory operation category.
const BarrierAll = ^BarrierMask(0)

// Device is the capability a rendering context needs from the driver: issue individual bind
// and unbind calls, set fixed-function state, dispatch compute work and report hardware
// limits. Every mutating call returns an error so callers can count and log driver faults;
// implementations must not panic on invalid handles.
type Device interface {
	// Limits returns the hardware maxima for this device.
	//
	// Returns:
	//   - Limits: the device limits
	Limits() Limits

	// BindBuffer binds a range of a buffer to the given target class and slot. For keyed
	// target classes the slot selects the binding index; all other classes ignore slots
	// beyond 0.
	//
	// Parameters:
	//   - target: the buffer target class
	//   - slot: the binding slot within the class
	//   - buf: the buffer to bind
	//   - offset: the byte offset of the bound range
	//   - size: the byte size of the bound range
	//
	// Returns:
	//   - error: a driver fault, or nil
	BindBuffer(target common.BufferTarget, slot int, buf resource.Buffer, offset, size uint64) error

	// UnbindBuffer removes the binding at the given target class and slot.
	//
	// Parameters:
	//   - target: the buffer target class
	//   - slot: the binding slot within the class
	//
	// Returns:
	//   - error: a driver fault, or nil
	UnbindBuffer(target common.BufferTarget, slot int) error

	// BindTexture binds a texture to the given texture unit.
	//
	// Parameters:
	//   - unit: the texture unit
	//   - tex: the texture to bind
	//
	// Returns:
	//   - error: a driver fault, or nil
	BindTexture(unit int, tex resource.Texture) error

	// UnbindTexture removes the texture binding at the given unit.
	//
	// Parameters:
	//   - unit: the texture unit
	//
	// Returns:
	//   - error: a driver fault, or nil
	UnbindTexture(unit int) error

	// BindImage binds a texture image to the given image unit.
	//
	// Parameters:
	//   - unit: the image unit
	//   - attachment: the image bind parameters
	//
	// Returns:
	//   - error: a driver fault, or nil
	BindImage(unit int, attachment ImageAttachment) error

	// UnbindImage removes the image binding at the given unit.
	//
	// Parameters:
	//   - unit: the image unit
	//
	// Returns:
	//   - error: a driver fault, or nil
	UnbindImage(unit int) error

	// SetViewport sets the viewport rectangle.
	//
	// Parameters:
	//   - rect: the viewport rectangle in pixels
	//
	// Returns:
	//   - error: a driver fault, or nil
	SetViewport(rect common.Rect) error

	// SetScissor sets the scissor rectangle and whether scissor testing is enabled.
	//
	// Parameters:
	//   - rect: the scissor rectangle in pixels
	//   - enabled: whether scissor testing is enabled
	//
	// Returns:
	//   - error: a driver fault, or nil
	SetScissor(rect common.Rect, enabled bool) error

	// SetBlend sets the blend state and color write mask.
	//
	// Parameters:
	//   - enabled: whether blending is enabled
	//   - state: the blend factors and operations for color and alpha
	//   - mask: the color channel write mask
	//
	// Returns:
	//   - error: a driver fault, or nil
	SetBlend(enabled bool, state wgpu.BlendState, mask wgpu.ColorWriteMask) error

	// SetDepth sets the depth test and write state.
	//
	// Parameters:
	//   - testEnabled: whether depth testing is enabled
	//   - writeEnabled: whether depth writes are enabled
	//   - compare: the depth comparison function
	//
	// Returns:
	//   - error: a driver fault, or nil
	SetDepth(testEnabled, writeEnabled bool, compare wgpu.CompareFunction) error

	// SetCull sets the face culling state.
	//
	// Parameters:
	//   - mode: which faces to cull
	//   - front: the front face winding order
	//
	// Returns:
	//   - error: a driver fault, or nil
	SetCull(mode wgpu.CullMode, front wgpu.FrontFace) error

	// SetLineWidth sets the rasterized line width.
	//
	// Parameters:
	//   - width: the line width in pixels
	//
	// Returns:
	//   - error: a driver fault, or nil
	SetLineWidth(width float32) error

	// DispatchCompute launches compute work groups. The caller is responsible for applying
	// pending binding state first.
	//
	// Parameters:
	//   - x, y, z: the number of work groups per dimension
	//
	// Returns:
	//   - error: a driver fault, or nil
	DispatchCompute(x, y, z uint32) error

	// DispatchComputeIndirect launches compute work groups with parameters read from the
	// buffer bound to the dispatch-indirect target class.
	//
	// Parameters:
	//   - offset: the byte offset of the dispatch parameters within the bound buffer
	//
	// Returns:
	//   - error: a driver fault, or nil
	DispatchComputeIndirect(offset uint64) error

	// MemoryBarrier orders the memory operation categories selected by mask.
	//
	// Parameters:
	//   - mask: the barrier categories to order
	//
	// Returns:
	//   - error: a driver fault, or nil
	MemoryBarrier(mask BarrierMask) error

	// Flush submits all pending driver commands without waiting for completion.
	Flush()

	// Finish blocks until all submitted driver commands have completed.
	Finish()
}
