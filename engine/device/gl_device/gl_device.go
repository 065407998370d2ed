// package gl_device implements the device boundary on an OpenGL 4.6 core context. Calls
// must run on the thread that owns the context, which lines up with the tracker's
// single-threaded contract. The error queue is drained after every driver call and
// surfaced as an error return, never a panic.
package gl_device

import (
	"fmt"

	"github.com/Carmen-Shannon/prism-go/common"
	"github.com/Carmen-Shannon/prism-go/engine/device"
	"github.com/Carmen-Shannon/prism-go/engine/resource"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/go-gl/gl/v4.6-core/gl"
)

// glDevice is the unexported implementation of GLDevice.
type glDevice struct {
	// limits are the hardware maxima queried at construction.
	limits device.Limits
	// terminate releases the hidden window and context when the device bootstrapped one.
	terminate func()
}

// GLDevice is a Device bound to an OpenGL context, plus the lifecycle call for a context
// the device bootstrapped itself.
type GLDevice interface {
	device.Device

	// Close destroys the hidden window and context when the device owns one. A device
	// attached to an externally owned context is unaffected. Safe to call more than once.
	Close()
}

// Compile-time check that glDevice implements GLDevice
var _ GLDevice = &glDevice{}

// NewGLDevice creates a GLDevice on the calling thread. Function pointers are loaded from
// the context current on that thread; WithHiddenWindowContext bootstraps an invisible
// context first for callers that do not own one, such as offscreen compute tools. Panics
// when no context can be established.
//
// Parameters:
//   - opts: a variadic list of GLDeviceBuilderOption functions to configure the device
//
// Returns:
//   - GLDevice: a new GLDevice instance
func NewGLDevice(opts ...GLDeviceBuilderOption) GLDevice {
	cfg := glDeviceConfig{}
	for _, opt := range opts {
		opt(&cfg)
	}

	d := &glDevice{}
	if cfg.hiddenWindow {
		terminate, err := bootstrapHiddenContext()
		if err != nil {
			panic(fmt.Sprintf("failed to bootstrap an OpenGL context: %v", err))
		}
		d.terminate = terminate
	}
	if err := gl.Init(); err != nil {
		d.Close()
		panic(fmt.Sprintf("failed to initialize OpenGL: %v", err))
	}
	d.limits = queryLimits()
	return d
}

// queryLimits reads the hardware maxima for every binding namespace.
func queryLimits() device.Limits {
	return device.Limits{
		MaxTextureUnits:                 getInt(gl.MAX_COMBINED_TEXTURE_IMAGE_UNITS),
		MaxImageUnits:                   getInt(gl.MAX_IMAGE_UNITS),
		MaxUniformBufferSlots:           getInt(gl.MAX_UNIFORM_BUFFER_BINDINGS),
		MaxStorageBufferSlots:           getInt(gl.MAX_SHADER_STORAGE_BUFFER_BINDINGS),
		MaxAtomicCounterBufferSlots:     getInt(gl.MAX_ATOMIC_COUNTER_BUFFER_BINDINGS),
		MaxTransformFeedbackBufferSlots: getInt(gl.MAX_TRANSFORM_FEEDBACK_BUFFERS),
	}
}

func getInt(pname uint32) int {
	var v int32
	gl.GetIntegerv(pname, &v)
	return int(v)
}

// drainError polls the error queue after a driver call. The driver can queue several
// errors; the first is reported and the rest are discarded so the queue is clean for the
// next call.
func drainError(op string) error {
	code := gl.GetError()
	if code == gl.NO_ERROR {
		return nil
	}
	for gl.GetError() != gl.NO_ERROR {
	}
	return fmt.Errorf("gl_device: %s: %s", op, errorString(code))
}

func errorString(code uint32) string {
	switch code {
	case gl.INVALID_ENUM:
		return "invalid enum"
	case gl.INVALID_VALUE:
		return "invalid value"
	case gl.INVALID_OPERATION:
		return "invalid operation"
	case gl.INVALID_FRAMEBUFFER_OPERATION:
		return "invalid framebuffer operation"
	case gl.OUT_OF_MEMORY:
		return "out of memory"
	default:
		return fmt.Sprintf("error 0x%04x", code)
	}
}

func (d *glDevice) Limits() device.Limits {
	return d.limits
}

func (d *glDevice) BindBuffer(target common.BufferTarget, slot int, buf resource.Buffer, offset, size uint64) error {
	if buf == nil {
		return d.UnbindBuffer(target, slot)
	}
	enum, ok := bufferTargetEnum(target)
	if !ok {
		return fmt.Errorf("gl_device: no binding point for buffer target %v", target)
	}
	if !target.Keyed() {
		gl.BindBuffer(enum, buf.Handle())
		return drainError("bind buffer")
	}
	// A zero size binds the whole buffer; BindBufferRange rejects it.
	if size == 0 {
		gl.BindBufferBase(enum, uint32(slot), buf.Handle())
		return drainError("bind buffer base")
	}
	gl.BindBufferRange(enum, uint32(slot), buf.Handle(), int(offset), int(size))
	return drainError("bind buffer range")
}

func (d *glDevice) UnbindBuffer(target common.BufferTarget, slot int) error {
	enum, ok := bufferTargetEnum(target)
	if !ok {
		return fmt.Errorf("gl_device: no binding point for buffer target %v", target)
	}
	if !target.Keyed() {
		gl.BindBuffer(enum, 0)
		return drainError("unbind buffer")
	}
	gl.BindBufferBase(enum, uint32(slot), 0)
	return drainError("unbind buffer base")
}

func (d *glDevice) BindTexture(unit int, tex resource.Texture) error {
	if tex == nil {
		return d.UnbindTexture(unit)
	}
	gl.BindTextureUnit(uint32(unit), tex.Handle())
	return drainError("bind texture unit")
}

func (d *glDevice) UnbindTexture(unit int) error {
	gl.BindTextureUnit(uint32(unit), 0)
	return drainError("unbind texture unit")
}

func (d *glDevice) BindImage(unit int, attachment device.ImageAttachment) error {
	if attachment.Texture == nil {
		return d.UnbindImage(unit)
	}
	access, ok := imageAccessEnum(attachment.Access)
	if !ok {
		return fmt.Errorf("gl_device: unsupported image access %v", attachment.Access)
	}
	format, ok := imageFormatEnum(attachment.Format)
	if !ok {
		return fmt.Errorf("gl_device: pixel format %v has no image unit format", attachment.Format)
	}
	gl.BindImageTexture(uint32(unit), attachment.Texture.Handle(), attachment.Level, attachment.MultiLayer, attachment.Layer, access, format)
	return drainError("bind image texture")
}

func (d *glDevice) UnbindImage(unit int) error {
	// Name zero unbinds the unit; access and format are ignored but still validated.
	gl.BindImageTexture(uint32(unit), 0, 0, false, 0, gl.READ_ONLY, gl.R32F)
	return drainError("unbind image texture")
}

func (d *glDevice) SetViewport(rect common.Rect) error {
	gl.Viewport(rect.X, rect.Y, rect.Width, rect.Height)
	return drainError("viewport")
}

func (d *glDevice) SetScissor(rect common.Rect, enabled bool) error {
	if !enabled {
		gl.Disable(gl.SCISSOR_TEST)
		return drainError("disable scissor test")
	}
	gl.Enable(gl.SCISSOR_TEST)
	gl.Scissor(rect.X, rect.Y, rect.Width, rect.Height)
	return drainError("scissor")
}

func (d *glDevice) SetBlend(enabled bool, state wgpu.BlendState, mask wgpu.ColorWriteMask) error {
	gl.ColorMask(
		mask&wgpu.ColorWriteMaskRed != 0,
		mask&wgpu.ColorWriteMaskGreen != 0,
		mask&wgpu.ColorWriteMaskBlue != 0,
		mask&wgpu.ColorWriteMaskAlpha != 0,
	)
	if !enabled {
		gl.Disable(gl.BLEND)
		return drainError("disable blend")
	}
	factors, err := blendEnums(state)
	if err != nil {
		return err
	}
	gl.Enable(gl.BLEND)
	gl.BlendFuncSeparate(factors.srcColor, factors.dstColor, factors.srcAlpha, factors.dstAlpha)
	gl.BlendEquationSeparate(factors.opColor, factors.opAlpha)
	return drainError("blend")
}

func (d *glDevice) SetDepth(testEnabled, writeEnabled bool, compare wgpu.CompareFunction) error {
	gl.DepthMask(writeEnabled)
	if !testEnabled {
		gl.Disable(gl.DEPTH_TEST)
		return drainError("disable depth test")
	}
	fn, ok := compareFuncEnum(compare)
	if !ok {
		return fmt.Errorf("gl_device: unsupported compare function %v", compare)
	}
	gl.Enable(gl.DEPTH_TEST)
	gl.DepthFunc(fn)
	return drainError("depth")
}

func (d *glDevice) SetCull(mode wgpu.CullMode, front wgpu.FrontFace) error {
	winding := uint32(gl.CCW)
	if front == wgpu.FrontFaceCW {
		winding = gl.CW
	}
	gl.FrontFace(winding)
	switch mode {
	case wgpu.CullModeNone:
		gl.Disable(gl.CULL_FACE)
	case wgpu.CullModeFront:
		gl.Enable(gl.CULL_FACE)
		gl.CullFace(gl.FRONT)
	case wgpu.CullModeBack:
		gl.Enable(gl.CULL_FACE)
		gl.CullFace(gl.BACK)
	default:
		return fmt.Errorf("gl_device: unsupported cull mode %v", mode)
	}
	return drainError("cull")
}

func (d *glDevice) SetLineWidth(width float32) error {
	gl.LineWidth(width)
	return drainError("line width")
}

func (d *glDevice) DispatchCompute(x, y, z uint32) error {
	gl.DispatchCompute(x, y, z)
	return drainError("dispatch compute")
}

func (d *glDevice) DispatchComputeIndirect(offset uint64) error {
	gl.DispatchComputeIndirect(int(offset))
	return drainError("dispatch compute indirect")
}

func (d *glDevice) MemoryBarrier(mask device.BarrierMask) error {
	gl.MemoryBarrier(barrierBits(mask))
	return drainError("memory barrier")
}

func (d *glDevice) Flush() {
	gl.Flush()
}

func (d *glDevice) Finish() {
	gl.Finish()
}

func (d *glDevice) Close() {
	if d.terminate != nil {
		d.terminate()
		d.terminate = nil
	}
}

// bufferTargetEnum translates a buffer target class to its GL binding point.
func bufferTargetEnum(target common.BufferTarget) (uint32, bool) {
	switch target {
	case common.BufferTargetArray:
		return gl.ARRAY_BUFFER, true
	case common.BufferTargetCopyRead:
		return gl.COPY_READ_BUFFER, true
	case common.BufferTargetCopyWrite:
		return gl.COPY_WRITE_BUFFER, true
	case common.BufferTargetDispatchIndirect:
		return gl.DISPATCH_INDIRECT_BUFFER, true
	case common.BufferTargetDrawIndirect:
		return gl.DRAW_INDIRECT_BUFFER, true
	case common.BufferTargetIndex:
		return gl.ELEMENT_ARRAY_BUFFER, true
	case common.BufferTargetPixelPack:
		return gl.PIXEL_PACK_BUFFER, true
	case common.BufferTargetPixelUnpack:
		return gl.PIXEL_UNPACK_BUFFER, true
	case common.BufferTargetQuery:
		return gl.QUERY_BUFFER, true
	case common.BufferTargetTextureBuffer:
		return gl.TEXTURE_BUFFER, true
	case common.BufferTargetUniform:
		return gl.UNIFORM_BUFFER, true
	case common.BufferTargetStorage:
		return gl.SHADER_STORAGE_BUFFER, true
	case common.BufferTargetAtomicCounter:
		return gl.ATOMIC_COUNTER_BUFFER, true
	case common.BufferTargetTransformFeedback:
		return gl.TRANSFORM_FEEDBACK_BUFFER, true
	default:
		return 0, false
	}
}

func imageAccessEnum(access common.ImageAccess) (uint32, bool) {
	switch access {
	case common.ImageAccessReadOnly:
		return gl.READ_ONLY, true
	case common.ImageAccessWriteOnly:
		return gl.WRITE_ONLY, true
	case common.ImageAccessReadWrite:
		return gl.READ_WRITE, true
	default:
		return 0, false
	}
}

// imageFormatEnum translates a pixel format to its GL image unit format. Only sized
// formats are valid here; image bindings remap the unsized ones before they reach the
// device, and the depth-stencil format cannot back an image unit at all.
func imageFormatEnum(format common.PixelFormat) (uint32, bool) {
	switch format {
	case common.PixelFormatR8:
		return gl.R8, true
	case common.PixelFormatRG8:
		return gl.RG8, true
	case common.PixelFormatRGBA8:
		return gl.RGBA8, true
	case common.PixelFormatR32F:
		return gl.R32F, true
	case common.PixelFormatRG32F:
		return gl.RG32F, true
	case common.PixelFormatRGBA32F:
		return gl.RGBA32F, true
	case common.PixelFormatR32UI:
		return gl.R32UI, true
	case common.PixelFormatRGBA32UI:
		return gl.RGBA32UI, true
	default:
		return 0, false
	}
}

func compareFuncEnum(compare wgpu.CompareFunction) (uint32, bool) {
	switch compare {
	case wgpu.CompareFunctionNever:
		return gl.NEVER, true
	case wgpu.CompareFunctionLess:
		return gl.LESS, true
	case wgpu.CompareFunctionEqual:
		return gl.EQUAL, true
	case wgpu.CompareFunctionLessEqual:
		return gl.LEQUAL, true
	case wgpu.CompareFunctionGreater:
		return gl.GREATER, true
	case wgpu.CompareFunctionNotEqual:
		return gl.NOTEQUAL, true
	case wgpu.CompareFunctionGreaterEqual:
		return gl.GEQUAL, true
	case wgpu.CompareFunctionAlways:
		return gl.ALWAYS, true
	default:
		return 0, false
	}
}

// glBlend holds a fully translated blend configuration.
type glBlend struct {
	srcColor, dstColor uint32
	srcAlpha, dstAlpha uint32
	opColor, opAlpha   uint32
}

func blendEnums(state wgpu.BlendState) (glBlend, error) {
	var b glBlend
	var err error
	if b.srcColor, err = blendFactorEnum(state.Color.SrcFactor); err != nil {
		return b, err
	}
	if b.dstColor, err = blendFactorEnum(state.Color.DstFactor); err != nil {
		return b, err
	}
	if b.srcAlpha, err = blendFactorEnum(state.Alpha.SrcFactor); err != nil {
		return b, err
	}
	if b.dstAlpha, err = blendFactorEnum(state.Alpha.DstFactor); err != nil {
		return b, err
	}
	if b.opColor, err = blendOperationEnum(state.Color.Operation); err != nil {
		return b, err
	}
	if b.opAlpha, err = blendOperationEnum(state.Alpha.Operation); err != nil {
		return b, err
	}
	return b, nil
}

func blendFactorEnum(factor wgpu.BlendFactor) (uint32, error) {
	switch factor {
	case wgpu.BlendFactorZero:
		return gl.ZERO, nil
	case wgpu.BlendFactorOne:
		return gl.ONE, nil
	case wgpu.BlendFactorSrc:
		return gl.SRC_COLOR, nil
	case wgpu.BlendFactorOneMinusSrc:
		return gl.ONE_MINUS_SRC_COLOR, nil
	case wgpu.BlendFactorSrcAlpha:
		return gl.SRC_ALPHA, nil
	case wgpu.BlendFactorOneMinusSrcAlpha:
		return gl.ONE_MINUS_SRC_ALPHA, nil
	case wgpu.BlendFactorDst:
		return gl.DST_COLOR, nil
	case wgpu.BlendFactorOneMinusDst:
		return gl.ONE_MINUS_DST_COLOR, nil
	case wgpu.BlendFactorDstAlpha:
		return gl.DST_ALPHA, nil
	case wgpu.BlendFactorOneMinusDstAlpha:
		return gl.ONE_MINUS_DST_ALPHA, nil
	case wgpu.BlendFactorSrcAlphaSaturated:
		return gl.SRC_ALPHA_SATURATE, nil
	case wgpu.BlendFactorConstant:
		return gl.CONSTANT_COLOR, nil
	case wgpu.BlendFactorOneMinusConstant:
		return gl.ONE_MINUS_CONSTANT_COLOR, nil
	default:
		return 0, fmt.Errorf("gl_device: unsupported blend factor %v", factor)
	}
}

func blendOperationEnum(op wgpu.BlendOperation) (uint32, error) {
	switch op {
	case wgpu.BlendOperationAdd:
		return gl.FUNC_ADD, nil
	case wgpu.BlendOperationSubtract:
		return gl.FUNC_SUBTRACT, nil
	case wgpu.BlendOperationReverseSubtract:
		return gl.FUNC_REVERSE_SUBTRACT, nil
	case wgpu.BlendOperationMin:
		return gl.MIN, nil
	case wgpu.BlendOperationMax:
		return gl.MAX, nil
	default:
		return 0, fmt.Errorf("gl_device: unsupported blend operation %v", op)
	}
}

// barrierBits translates the device-independent barrier mask. BarrierAll short-circuits
// to the driver's own catch-all rather than the union of known bits.
func barrierBits(mask device.BarrierMask) uint32 {
	if mask == device.BarrierAll {
		return gl.ALL_BARRIER_BITS
	}
	var bits uint32
	for _, entry := range barrierTable {
		if mask&entry.mask != 0 {
			bits |= entry.bit
		}
	}
	return bits
}

var barrierTable = []struct {
	mask device.BarrierMask
	bit  uint32
}{
	{device.BarrierVertexAttribArray, gl.VERTEX_ATTRIB_ARRAY_BARRIER_BIT},
	{device.BarrierElementArray, gl.ELEMENT_ARRAY_BARRIER_BIT},
	{device.BarrierUniform, gl.UNIFORM_BARRIER_BIT},
	{device.BarrierTextureFetch, gl.TEXTURE_FETCH_BARRIER_BIT},
	{device.BarrierShaderImageAccess, gl.SHADER_IMAGE_ACCESS_BARRIER_BIT},
	{device.BarrierCommand, gl.COMMAND_BARRIER_BIT},
	{device.BarrierPixelBuffer, gl.PIXEL_BUFFER_BARRIER_BIT},
	{device.BarrierTextureUpdate, gl.TEXTURE_UPDATE_BARRIER_BIT},
	{device.BarrierBufferUpdate, gl.BUFFER_UPDATE_BARRIER_BIT},
	{device.BarrierFramebuffer, gl.FRAMEBUFFER_BARRIER_BIT},
	{device.BarrierTransformFeedback, gl.TRANSFORM_FEEDBACK_BARRIER_BIT},
	{device.BarrierAtomicCounter, gl.ATOMIC_COUNTER_BARRIER_BIT},
	{device.BarrierShaderStorage, gl.SHADER_STORAGE_BARRIER_BIT},
}
