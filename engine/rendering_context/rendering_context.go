// package rendering_context implements the caller-facing layer of the state tracker. A
// RenderingContext owns a pending and an applied binding snapshot plus the matching pair of
// fixed-function snapshots; bind and set calls mutate the pending side only, and
// ApplyChanges issues the minimal device calls that catch the driver up. A context is not
// safe for concurrent use; concurrent recording requires one context per thread, and
// contexts never share snapshots.
package rendering_context

import (
	"log"

	"github.com/Carmen-Shannon/prism-go/common"
	"github.com/Carmen-Shannon/prism-go/engine/device"
	"github.com/Carmen-Shannon/prism-go/engine/profiler"
	"github.com/Carmen-Shannon/prism-go/engine/rendering_context/binding_state"
	"github.com/Carmen-Shannon/prism-go/engine/rendering_context/pipeline_state"
	"github.com/Carmen-Shannon/prism-go/engine/resource"
	"github.com/cogentcore/webgpu/wgpu"
)

// sectionStack is a value stack backing the push/pop surface of one fixed-function section.
type sectionStack[T any] struct {
	items []T
}

func (s *sectionStack[T]) push(v T) {
	s.items = append(s.items, v)
}

func (s *sectionStack[T]) pop() (T, bool) {
	if len(s.items) == 0 {
		var zero T
		return zero, false
	}
	v := s.items[len(s.items)-1]
	s.items = s.items[:len(s.items)-1]
	return v, true
}

// renderingContext is the unexported implementation of RenderingContext.
type renderingContext struct {
	dev    device.Device
	limits device.Limits
	prof   *profiler.Profiler

	applied *binding_state.BindingState
	pending *binding_state.BindingState

	appliedPipeline *pipeline_state.PipelineState
	pendingPipeline *pipeline_state.PipelineState

	viewportStack sectionStack[common.Rect]
	scissorStack  sectionStack[pipeline_state.Scissor]
	blendStack    sectionStack[pipeline_state.Blend]
	depthStack    sectionStack[pipeline_state.Depth]
	cullStack     sectionStack[pipeline_state.Cull]
	lineStack     sectionStack[pipeline_state.Line]

	// firstApply forces the first ApplyChanges pass so the driver's unknown startup state
	// is fully established.
	firstApply bool
}

// RenderingContext is the recording surface of the state tracker. Bind calls update the
// intended state without touching the driver; ApplyChanges reconciles the driver with the
// intent. Compute dispatches and synchronization calls apply pending state first, so a
// recorded binding is always live before work that depends on it runs.
type RenderingContext interface {
	// BindBuffer records a buffer binding at the given target class and slot, capturing the
	// buffer's live byte range at call time. A nil buffer is equivalent to UnbindBuffer.
	// Re-recording an identical binding is a no-op.
	//
	// Parameters:
	//   - target: the buffer target class
	//   - slot: the binding slot within the class, 0 for single-slot classes
	//   - buf: the buffer to bind, or nil to unbind
	BindBuffer(target common.BufferTarget, slot int, buf resource.Buffer)

	// UnbindBuffer records the removal of the buffer binding at the given target class and
	// slot. Unbinding a point that neither snapshot knows is a no-op.
	//
	// Parameters:
	//   - target: the buffer target class
	//   - slot: the binding slot within the class
	UnbindBuffer(target common.BufferTarget, slot int)

	// SetTexture records a texture binding at the given unit. A nil texture unbinds the
	// unit; unbinding a unit that neither snapshot knows is a no-op.
	//
	// Parameters:
	//   - unit: the texture unit
	//   - tex: the texture to bind, or nil to unbind
	SetTexture(unit int, tex resource.Texture)

	// Texture returns the texture recorded at the given unit.
	//
	// Parameters:
	//   - unit: the texture unit
	//
	// Returns:
	//   - resource.Texture: the pending texture, nil when the unit is unbound
	Texture(unit int) resource.Texture

	// SetBoundImage records an image binding at the given unit. A binding with a nil
	// texture unbinds the unit; unbinding a unit that neither snapshot knows is a no-op.
	//
	// Parameters:
	//   - unit: the image unit
	//   - binding: the image binding parameters
	SetBoundImage(unit int, binding binding_state.ImageBinding)

	// BoundImage returns the image binding recorded at the given unit.
	//
	// Parameters:
	//   - unit: the image unit
	//
	// Returns:
	//   - binding_state.ImageBinding: the pending binding, zero when the unit is unbound
	BoundImage(unit int) binding_state.ImageBinding

	// ApplyChanges reconciles the driver with the recorded state: the binding snapshots are
	// diffed and applied first, then the fixed-function snapshots. The first pass after
	// construction is always forced. Stats are recorded to the profiler when one is
	// attached.
	//
	// Parameters:
	//   - forced: re-apply every known binding and section regardless of equality, for
	//     context loss and external-mutation recovery
	//
	// Returns:
	//   - binding_state.ApplyStats: device call and fault counts of the binding pass
	ApplyChanges(forced bool) binding_state.ApplyStats

	// DispatchCompute applies pending state, then launches compute work groups.
	//
	// Parameters:
	//   - x, y, z: the number of work groups per dimension
	//
	// Returns:
	//   - error: a driver fault, or nil
	DispatchCompute(x, y, z uint32) error

	// DispatchComputeIndirect applies pending state, then launches compute work groups with
	// parameters read from the buffer bound to the dispatch-indirect target class.
	//
	// Parameters:
	//   - offset: the byte offset of the dispatch parameters within the bound buffer
	//
	// Returns:
	//   - error: a driver fault, or nil
	DispatchComputeIndirect(offset uint64) error

	// MemoryBarrier applies pending state, then orders the selected memory operations.
	//
	// Parameters:
	//   - mask: the barrier categories to order
	//
	// Returns:
	//   - error: a driver fault, or nil
	MemoryBarrier(mask device.BarrierMask) error

	// Flush applies pending state, then submits all pending driver commands without
	// waiting for completion.
	Flush()

	// Finish applies pending state, then blocks until all submitted driver commands have
	// completed.
	Finish()

	// SetViewport records the viewport rectangle.
	//
	// Parameters:
	//   - rect: the viewport rectangle in pixels
	SetViewport(rect common.Rect)

	// Viewport returns the pending viewport rectangle.
	//
	// Returns:
	//   - common.Rect: the pending viewport
	Viewport() common.Rect

	// PushViewport saves the pending viewport on the viewport stack.
	PushViewport()

	// PopViewport restores the most recently pushed viewport. Popping an empty stack logs a
	// warning and keeps the current value.
	PopViewport()

	// PushAndSetViewport saves the pending viewport, then records a new one.
	//
	// Parameters:
	//   - rect: the viewport rectangle in pixels
	PushAndSetViewport(rect common.Rect)

	// SetScissor records the scissor rectangle and whether scissor testing is enabled.
	//
	// Parameters:
	//   - rect: the scissor rectangle in pixels
	//   - enabled: whether scissor testing is enabled
	SetScissor(rect common.Rect, enabled bool)

	// Scissor returns the pending scissor section.
	//
	// Returns:
	//   - pipeline_state.Scissor: the pending scissor settings
	Scissor() pipeline_state.Scissor

	// PushScissor saves the pending scissor section on the scissor stack.
	PushScissor()

	// PopScissor restores the most recently pushed scissor section. Popping an empty stack
	// logs a warning and keeps the current value.
	PopScissor()

	// PushAndSetScissor saves the pending scissor section, then records a new one.
	//
	// Parameters:
	//   - rect: the scissor rectangle in pixels
	//   - enabled: whether scissor testing is enabled
	PushAndSetScissor(rect common.Rect, enabled bool)

	// SetBlend records the blend state and color write mask.
	//
	// Parameters:
	//   - enabled: whether blending is enabled
	//   - state: the blend factors and operations for color and alpha
	//   - mask: the color channel write mask
	SetBlend(enabled bool, state wgpu.BlendState, mask wgpu.ColorWriteMask)

	// Blend returns the pending blend section.
	//
	// Returns:
	//   - pipeline_state.Blend: the pending blend settings
	Blend() pipeline_state.Blend

	// PushBlend saves the pending blend section on the blend stack.
	PushBlend()

	// PopBlend restores the most recently pushed blend section. Popping an empty stack logs
	// a warning and keeps the current value.
	PopBlend()

	// PushAndSetBlend saves the pending blend section, then records a new one.
	//
	// Parameters:
	//   - enabled: whether blending is enabled
	//   - state: the blend factors and operations for color and alpha
	//   - mask: the color channel write mask
	PushAndSetBlend(enabled bool, state wgpu.BlendState, mask wgpu.ColorWriteMask)

	// SetDepth records the depth test and write state.
	//
	// Parameters:
	//   - testEnabled: whether depth testing is enabled
	//   - writeEnabled: whether depth writes are enabled
	//   - compare: the depth comparison function
	SetDepth(testEnabled, writeEnabled bool, compare wgpu.CompareFunction)

	// Depth returns the pending depth section.
	//
	// Returns:
	//   - pipeline_state.Depth: the pending depth settings
	Depth() pipeline_state.Depth

	// PushDepth saves the pending depth section on the depth stack.
	PushDepth()

	// PopDepth restores the most recently pushed depth section. Popping an empty stack logs
	// a warning and keeps the current value.
	PopDepth()

	// PushAndSetDepth saves the pending depth section, then records a new one.
	//
	// Parameters:
	//   - testEnabled: whether depth testing is enabled
	//   - writeEnabled: whether depth writes are enabled
	//   - compare: the depth comparison function
	PushAndSetDepth(testEnabled, writeEnabled bool, compare wgpu.CompareFunction)

	// SetCull records the face culling state.
	//
	// Parameters:
	//   - mode: which faces to cull
	//   - front: the front face winding order
	SetCull(mode wgpu.CullMode, front wgpu.FrontFace)

	// Cull returns the pending cull section.
	//
	// Returns:
	//   - pipeline_state.Cull: the pending cull settings
	Cull() pipeline_state.Cull

	// PushCull saves the pending cull section on the cull stack.
	PushCull()

	// PopCull restores the most recently pushed cull section. Popping an empty stack logs a
	// warning and keeps the current value.
	PopCull()

	// PushAndSetCull saves the pending cull section, then records a new one.
	//
	// Parameters:
	//   - mode: which faces to cull
	//   - front: the front face winding order
	PushAndSetCull(mode wgpu.CullMode, front wgpu.FrontFace)

	// SetLineWidth records the rasterized line width.
	//
	// Parameters:
	//   - width: the line width in pixels
	SetLineWidth(width float32)

	// LineWidth returns the pending line width.
	//
	// Returns:
	//   - float32: the pending line width in pixels
	LineWidth() float32

	// PushLineWidth saves the pending line width on the line stack.
	PushLineWidth()

	// PopLineWidth restores the most recently pushed line width. Popping an empty stack
	// logs a warning and keeps the current value.
	PopLineWidth()

	// PushAndSetLineWidth saves the pending line width, then records a new one.
	//
	// Parameters:
	//   - width: the line width in pixels
	PushAndSetLineWidth(width float32)

	// Limits returns the device limits this context sizes its change-sets with.
	//
	// Returns:
	//   - device.Limits: the effective limits
	Limits() device.Limits
}

// Compile-time check that renderingContext implements RenderingContext
var _ RenderingContext = &renderingContext{}

// NewRenderingContext creates a RenderingContext recording against the given device.
// Panics if dev is nil. Change-sets are sized by the device's reported limits unless
// overridden with WithLimits.
//
// Parameters:
//   - dev: the device to apply state to, must be non-nil
//   - opts: a variadic list of RenderingContextBuilderOption functions to configure the context
//
// Returns:
//   - RenderingContext: a new RenderingContext instance
func NewRenderingContext(dev device.Device, opts ...RenderingContextBuilderOption) RenderingContext {
	if dev == nil {
		panic("rendering_context: a device must be provided")
	}
	c := &renderingContext{
		dev:             dev,
		limits:          dev.Limits(),
		applied:         binding_state.NewBindingState(),
		pending:         binding_state.NewBindingState(),
		appliedPipeline: pipeline_state.NewPipelineState(),
		pendingPipeline: pipeline_state.NewPipelineState(),
		firstApply:      true,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *renderingContext) BindBuffer(target common.BufferTarget, slot int, buf resource.Buffer) {
	if buf == nil {
		c.UnbindBuffer(target, slot)
		return
	}
	key := binding_state.BufferKey{Target: target, Slot: slot}
	binding := binding_state.NewBufferBinding(buf)
	if current, ok := c.pending.Buffer(key); ok && current == binding {
		return
	}
	c.pending.SetBuffer(key, binding)
}

func (c *renderingContext) UnbindBuffer(target common.BufferTarget, slot int) {
	key := binding_state.BufferKey{Target: target, Slot: slot}
	current, inPending := c.pending.Buffer(key)
	if inPending && current.Buffer == nil {
		return
	}
	if !inPending {
		if _, inApplied := c.applied.Buffer(key); !inApplied {
			return
		}
	}
	c.pending.SetBuffer(key, binding_state.BufferBinding{})
}

func (c *renderingContext) SetTexture(unit int, tex resource.Texture) {
	binding := binding_state.TextureBinding{Texture: tex}
	current, inPending := c.pending.Texture(unit)
	if inPending && current == binding {
		return
	}
	if tex == nil && !inPending {
		if _, inApplied := c.applied.Texture(unit); !inApplied {
			return
		}
	}
	c.pending.SetTexture(unit, binding)
}

func (c *renderingContext) Texture(unit int) resource.Texture {
	binding, _ := c.pending.Texture(unit)
	return binding.Texture
}

func (c *renderingContext) SetBoundImage(unit int, binding binding_state.ImageBinding) {
	current, inPending := c.pending.Image(unit)
	if inPending && current == binding {
		return
	}
	if binding.Texture == nil && !inPending {
		if _, inApplied := c.applied.Image(unit); !inApplied {
			return
		}
	}
	c.pending.SetImage(unit, binding)
}

func (c *renderingContext) BoundImage(unit int) binding_state.ImageBinding {
	binding, _ := c.pending.Image(unit)
	return binding
}

func (c *renderingContext) ApplyChanges(forced bool) binding_state.ApplyStats {
	force := forced || c.firstApply
	c.firstApply = false

	changes := c.applied.MakeDiff(c.pending, force, c.limits)
	stats := c.applied.Apply(c.dev, c.pending, changes)

	pipelineChanges := c.appliedPipeline.MakeDiff(c.pendingPipeline, force)
	pipelineStats := c.appliedPipeline.Apply(c.dev, c.pendingPipeline, pipelineChanges)

	if c.prof != nil {
		c.prof.RecordApply(stats, pipelineStats)
		c.prof.Tick()
	}
	return stats
}

func (c *renderingContext) DispatchCompute(x, y, z uint32) error {
	c.ApplyChanges(false)
	return c.dev.DispatchCompute(x, y, z)
}

func (c *renderingContext) DispatchComputeIndirect(offset uint64) error {
	c.ApplyChanges(false)
	return c.dev.DispatchComputeIndirect(offset)
}

func (c *renderingContext) MemoryBarrier(mask device.BarrierMask) error {
	c.ApplyChanges(false)
	return c.dev.MemoryBarrier(mask)
}

func (c *renderingContext) Flush() {
	c.ApplyChanges(false)
	c.dev.Flush()
}

func (c *renderingContext) Finish() {
	c.ApplyChanges(false)
	c.dev.Finish()
}

func (c *renderingContext) SetViewport(rect common.Rect) {
	c.pendingPipeline.SetViewport(rect)
}

func (c *renderingContext) Viewport() common.Rect {
	return c.pendingPipeline.Viewport()
}

func (c *renderingContext) PushViewport() {
	c.viewportStack.push(c.pendingPipeline.Viewport())
}

func (c *renderingContext) PopViewport() {
	v, ok := c.viewportStack.pop()
	if !ok {
		log.Printf("[RenderingContext] pop viewport: stack is empty, keeping the current value")
		return
	}
	c.pendingPipeline.SetViewport(v)
}

func (c *renderingContext) PushAndSetViewport(rect common.Rect) {
	c.PushViewport()
	c.SetViewport(rect)
}

func (c *renderingContext) SetScissor(rect common.Rect, enabled bool) {
	c.pendingPipeline.SetScissor(pipeline_state.Scissor{Rect: rect, Enabled: enabled})
}

func (c *renderingContext) Scissor() pipeline_state.Scissor {
	return c.pendingPipeline.Scissor()
}

func (c *renderingContext) PushScissor() {
	c.scissorStack.push(c.pendingPipeline.Scissor())
}

func (c *renderingContext) PopScissor() {
	v, ok := c.scissorStack.pop()
	if !ok {
		log.Printf("[RenderingContext] pop scissor: stack is empty, keeping the current value")
		return
	}
	c.pendingPipeline.SetScissor(v)
}

func (c *renderingContext) PushAndSetScissor(rect common.Rect, enabled bool) {
	c.PushScissor()
	c.SetScissor(rect, enabled)
}

func (c *renderingContext) SetBlend(enabled bool, state wgpu.BlendState, mask wgpu.ColorWriteMask) {
	c.pendingPipeline.SetBlend(pipeline_state.Blend{Enabled: enabled, State: state, WriteMask: mask})
}

func (c *renderingContext) Blend() pipeline_state.Blend {
	return c.pendingPipeline.Blend()
}

func (c *renderingContext) PushBlend() {
	c.blendStack.push(c.pendingPipeline.Blend())
}

func (c *renderingContext) PopBlend() {
	v, ok := c.blendStack.pop()
	if !ok {
		log.Printf("[RenderingContext] pop blend: stack is empty, keeping the current value")
		return
	}
	c.pendingPipeline.SetBlend(v)
}

func (c *renderingContext) PushAndSetBlend(enabled bool, state wgpu.BlendState, mask wgpu.ColorWriteMask) {
	c.PushBlend()
	c.SetBlend(enabled, state, mask)
}

func (c *renderingContext) SetDepth(testEnabled, writeEnabled bool, compare wgpu.CompareFunction) {
	c.pendingPipeline.SetDepth(pipeline_state.Depth{
		TestEnabled:  testEnabled,
		WriteEnabled: writeEnabled,
		Compare:      compare,
	})
}

func (c *renderingContext) Depth() pipeline_state.Depth {
	return c.pendingPipeline.Depth()
}

func (c *renderingContext) PushDepth() {
	c.depthStack.push(c.pendingPipeline.Depth())
}

func (c *renderingContext) PopDepth() {
	v, ok := c.depthStack.pop()
	if !ok {
		log.Printf("[RenderingContext] pop depth: stack is empty, keeping the current value")
		return
	}
	c.pendingPipeline.SetDepth(v)
}

func (c *renderingContext) PushAndSetDepth(testEnabled, writeEnabled bool, compare wgpu.CompareFunction) {
	c.PushDepth()
	c.SetDepth(testEnabled, writeEnabled, compare)
}

func (c *renderingContext) SetCull(mode wgpu.CullMode, front wgpu.FrontFace) {
	c.pendingPipeline.SetCull(pipeline_state.Cull{Mode: mode, Front: front})
}

func (c *renderingContext) Cull() pipeline_state.Cull {
	return c.pendingPipeline.Cull()
}

func (c *renderingContext) PushCull() {
	c.cullStack.push(c.pendingPipeline.Cull())
}

func (c *renderingContext) PopCull() {
	v, ok := c.cullStack.pop()
	if !ok {
		log.Printf("[RenderingContext] pop cull: stack is empty, keeping the current value")
		return
	}
	c.pendingPipeline.SetCull(v)
}

func (c *renderingContext) PushAndSetCull(mode wgpu.CullMode, front wgpu.FrontFace) {
	c.PushCull()
	c.SetCull(mode, front)
}

func (c *renderingContext) SetLineWidth(width float32) {
	c.pendingPipeline.SetLine(pipeline_state.Line{Width: width})
}

func (c *renderingContext) LineWidth() float32 {
	return c.pendingPipeline.Line().Width
}

func (c *renderingContext) PushLineWidth() {
	c.lineStack.push(c.pendingPipeline.Line())
}

func (c *renderingContext) PopLineWidth() {
	v, ok := c.lineStack.pop()
	if !ok {
		log.Printf("[RenderingContext] pop line width: stack is empty, keeping the current value")
		return
	}
	c.pendingPipeline.SetLine(v)
}

func (c *renderingContext) PushAndSetLineWidth(width float32) {
	c.PushLineWidth()
	c.SetLineWidth(width)
}

func (c *renderingContext) Limits() device.Limits {
	return c.limits
}
