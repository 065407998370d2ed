package device

import (
	"github.com/Carmen-Shannon/prism-go/common"
	"github.com/Carmen-Shannon/prism-go/engine/resource"
	"github.com/cogentcore/webgpu/wgpu"
)

// TraceOpKind enumerates the operation kinds a TraceDevice records.
type TraceOpKind int

const (
	// TraceBindBuffer records a buffer bind call.
	TraceBindBuffer TraceOpKind = iota
	// TraceUnbindBuffer records a buffer unbind call.
	TraceUnbindBuffer
	// TraceBindTexture records a texture bind call.
	TraceBindTexture
	// TraceUnbindTexture records a texture unbind call.
	TraceUnbindTexture
	// TraceBindImage records an image bind call.
	TraceBindImage
	// TraceUnbindImage records an image unbind call.
	TraceUnbindImage
	// TraceSetViewport records a viewport change.
	TraceSetViewport
	// TraceSetScissor records a scissor change.
	TraceSetScissor
	// TraceSetBlend records a blend state change.
	TraceSetBlend
	// TraceSetDepth records a depth state change.
	TraceSetDepth
	// TraceSetCull records a cull state change.
	TraceSetCull
	// TraceSetLineWidth records a line width change.
	TraceSetLineWidth
	// TraceDispatchCompute records a compute dispatch.
	TraceDispatchCompute
	// TraceDispatchComputeIndirect records an indirect compute dispatch.
	TraceDispatchComputeIndirect
	// TraceMemoryBarrier records a memory barrier.
	TraceMemoryBarrier
	// TraceFlush records a flush.
	TraceFlush
	// TraceFinish records a finish.
	TraceFinish
)

// traceOpKindNames indexes the display name of each operation kind.
var traceOpKindNames = map[TraceOpKind]string{
	TraceBindBuffer:              "bind-buffer",
	TraceUnbindBuffer:            "unbind-buffer",
	TraceBindTexture:             "bind-texture",
	TraceUnbindTexture:           "unbind-texture",
	TraceBindImage:               "bind-image",
	TraceUnbindImage:             "unbind-image",
	TraceSetViewport:             "set-viewport",
	TraceSetScissor:              "set-scissor",
	TraceSetBlend:                "set-blend",
	TraceSetDepth:                "set-depth",
	TraceSetCull:                 "set-cull",
	TraceSetLineWidth:            "set-line-width",
	TraceDispatchCompute:         "dispatch-compute",
	TraceDispatchComputeIndirect: "dispatch-compute-indirect",
	TraceMemoryBarrier:           "memory-barrier",
	TraceFlush:                   "flush",
	TraceFinish:                  "finish",
}

// String returns the display name of the operation kind.
//
// Returns:
//   - string: the name, or "unknown" for unrecognized kinds
func (k TraceOpKind) String() string {
	if name, ok := traceOpKindNames[k]; ok {
		return name
	}
	return "unknown"
}

// TraceOp is one recorded device operation. Only the fields relevant to the Kind are
// populated; Slot doubles as the texture or image unit for texture and image operations.
type TraceOp struct {
	// Kind is the operation kind.
	Kind TraceOpKind
	// Target is the buffer target class for buffer operations.
	Target common.BufferTarget
	// Slot is the buffer slot, texture unit or image unit of the operation.
	Slot int
	// Handle is the driver object name of the bound resource, 0 for unbinds.
	Handle uint32
	// Offset is the bound byte offset for buffer binds, or the indirect dispatch offset.
	Offset uint64
	// Size is the bound byte size for buffer binds.
	Size uint64
	// Attachment holds the image bind parameters for image binds.
	Attachment ImageAttachment
	// Groups holds the work group counts for compute dispatches.
	Groups [3]uint32
	// Mask holds the barrier mask for memory barriers.
	Mask BarrierMask
	// Rect is the rectangle for viewport and scissor operations.
	Rect common.Rect
	// Enabled is the enable flag for scissor and blend operations, and the test flag for
	// depth operations.
	Enabled bool
	// Width is the line width for line width operations.
	Width float32
}

// traceDevice is the unexported implementation of TraceDevice.
type traceDevice struct {
	// limits are the limits reported to callers, defaulting to DefaultLimits.
	limits Limits
	// ops is the recorded operation log in issue order.
	ops []TraceOp
	// failure, when set, is consulted after recording each operation and may inject a
	// driver fault for that operation.
	failure func(TraceOp) error
}

// TraceDevice is a Device that performs no driver work and instead records every operation
// issued to it. It serves two purposes: tracing the exact call sequence a diff produces when
// debugging binding behavior, and standing in for real hardware in tests.
type TraceDevice interface {
	Device

	// Ops returns the recorded operations in issue order.
	//
	// Returns:
	//   - []TraceOp: the operation log
	Ops() []TraceOp

	// Count returns how many recorded operations have the given kind.
	//
	// Parameters:
	//   - kind: the operation kind to count
	//
	// Returns:
	//   - int: the number of matching operations
	Count(kind TraceOpKind) int

	// Reset clears the recorded operation log.
	Reset()
}

// Compile-time check that traceDevice implements TraceDevice
var _ TraceDevice = &traceDevice{}

// NewTraceDevice creates a new TraceDevice with the provided options.
//
// Parameters:
//   - opts: a variadic list of TraceDeviceBuilderOption functions to configure the device
//
// Returns:
//   - TraceDevice: a new TraceDevice instance
func NewTraceDevice(opts ...TraceDeviceBuilderOption) TraceDevice {
	d := &traceDevice{
		limits: DefaultLimits(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// record appends the operation to the log and consults the failure hook. The operation is
// recorded even when the hook rejects it, since a faulting driver call was still issued.
func (d *traceDevice) record(op TraceOp) error {
	d.ops = append(d.ops, op)
	if d.failure != nil {
		return d.failure(op)
	}
	return nil
}

func (d *traceDevice) Limits() Limits {
	return d.limits
}

func (d *traceDevice) BindBuffer(target common.BufferTarget, slot int, buf resource.Buffer, offset, size uint64) error {
	var handle uint32
	if buf != nil {
		handle = buf.Handle()
	}
	return d.record(TraceOp{Kind: TraceBindBuffer, Target: target, Slot: slot, Handle: handle, Offset: offset, Size: size})
}

func (d *traceDevice) UnbindBuffer(target common.BufferTarget, slot int) error {
	return d.record(TraceOp{Kind: TraceUnbindBuffer, Target: target, Slot: slot})
}

func (d *traceDevice) BindTexture(unit int, tex resource.Texture) error {
	var handle uint32
	if tex != nil {
		handle = tex.Handle()
	}
	return d.record(TraceOp{Kind: TraceBindTexture, Slot: unit, Handle: handle})
}

func (d *traceDevice) UnbindTexture(unit int) error {
	return d.record(TraceOp{Kind: TraceUnbindTexture, Slot: unit})
}

func (d *traceDevice) BindImage(unit int, attachment ImageAttachment) error {
	var handle uint32
	if attachment.Texture != nil {
		handle = attachment.Texture.Handle()
	}
	return d.record(TraceOp{Kind: TraceBindImage, Slot: unit, Handle: handle, Attachment: attachment})
}

func (d *traceDevice) UnbindImage(unit int) error {
	return d.record(TraceOp{Kind: TraceUnbindImage, Slot: unit})
}

func (d *traceDevice) SetViewport(rect common.Rect) error {
	return d.record(TraceOp{Kind: TraceSetViewport, Rect: rect})
}

func (d *traceDevice) SetScissor(rect common.Rect, enabled bool) error {
	return d.record(TraceOp{Kind: TraceSetScissor, Rect: rect, Enabled: enabled})
}

func (d *traceDevice) SetBlend(enabled bool, state wgpu.BlendState, mask wgpu.ColorWriteMask) error {
	return d.record(TraceOp{Kind: TraceSetBlend, Enabled: enabled})
}

func (d *traceDevice) SetDepth(testEnabled, writeEnabled bool, compare wgpu.CompareFunction) error {
	return d.record(TraceOp{Kind: TraceSetDepth, Enabled: testEnabled})
}

func (d *traceDevice) SetCull(mode wgpu.CullMode, front wgpu.FrontFace) error {
	return d.record(TraceOp{Kind: TraceSetCull})
}

func (d *traceDevice) SetLineWidth(width float32) error {
	return d.record(TraceOp{Kind: TraceSetLineWidth, Width: width})
}

func (d *traceDevice) DispatchCompute(x, y, z uint32) error {
	return d.record(TraceOp{Kind: TraceDispatchCompute, Groups: [3]uint32{x, y, z}})
}

func (d *traceDevice) DispatchComputeIndirect(offset uint64) error {
	return d.record(TraceOp{Kind: TraceDispatchComputeIndirect, Offset: offset})
}

func (d *traceDevice) MemoryBarrier(mask BarrierMask) error {
	return d.record(TraceOp{Kind: TraceMemoryBarrier, Mask: mask})
}

func (d *traceDevice) Flush() {
	d.record(TraceOp{Kind: TraceFlush})
}

func (d *traceDevice) Finish() {
	d.record(TraceOp{Kind: TraceFinish})
}

func (d *traceDevice) Ops() []TraceOp {
	return d.ops
}

func (d *traceDevice) Count(kind TraceOpKind) int {
	n := 0
	for _, op := range d.ops {
		if op.Kind == kind {
			n++
		}
	}
	return n
}

func (d *traceDevice) Reset() {
	d.ops = d.ops[:0]
}
