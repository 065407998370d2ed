package gl_device

import (
	"testing"

	"github.com/Carmen-Shannon/prism-go/common"
	"github.com/Carmen-Shannon/prism-go/engine/device"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/go-gl/gl/v4.6-core/gl"
)

// TestBufferTargetEnum checks that every valid target class has a binding point and that
// anything outside the enum does not.
func TestBufferTargetEnum(t *testing.T) {
	for target := common.BufferTargetArray; target < common.BufferTargetCount; target++ {
		if _, ok := bufferTargetEnum(target); !ok {
			t.Errorf("expected a binding point for target %v", target)
		}
	}

	spot := []struct {
		target common.BufferTarget
		want   uint32
	}{
		{common.BufferTargetArray, gl.ARRAY_BUFFER},
		{common.BufferTargetIndex, gl.ELEMENT_ARRAY_BUFFER},
		{common.BufferTargetUniform, gl.UNIFORM_BUFFER},
		{common.BufferTargetStorage, gl.SHADER_STORAGE_BUFFER},
		{common.BufferTargetAtomicCounter, gl.ATOMIC_COUNTER_BUFFER},
		{common.BufferTargetTransformFeedback, gl.TRANSFORM_FEEDBACK_BUFFER},
		{common.BufferTargetDispatchIndirect, gl.DISPATCH_INDIRECT_BUFFER},
	}
	for _, tt := range spot {
		if got, _ := bufferTargetEnum(tt.target); got != tt.want {
			t.Errorf("bufferTargetEnum(%v) = 0x%04x, want 0x%04x", tt.target, got, tt.want)
		}
	}

	if _, ok := bufferTargetEnum(common.BufferTargetCount); ok {
		t.Errorf("expected no binding point for the count sentinel")
	}
	if _, ok := bufferTargetEnum(common.BufferTarget(99)); ok {
		t.Errorf("expected no binding point for an out-of-range target")
	}
}

// TestImageFormatEnum checks that only sized image-compatible formats translate.
func TestImageFormatEnum(t *testing.T) {
	valid := []struct {
		format common.PixelFormat
		want   uint32
	}{
		{common.PixelFormatR8, gl.R8},
		{common.PixelFormatRG8, gl.RG8},
		{common.PixelFormatRGBA8, gl.RGBA8},
		{common.PixelFormatR32F, gl.R32F},
		{common.PixelFormatRG32F, gl.RG32F},
		{common.PixelFormatRGBA32F, gl.RGBA32F},
		{common.PixelFormatR32UI, gl.R32UI},
		{common.PixelFormatRGBA32UI, gl.RGBA32UI},
	}
	for _, tt := range valid {
		got, ok := imageFormatEnum(tt.format)
		if !ok || got != tt.want {
			t.Errorf("imageFormatEnum(%v) = 0x%04x, %v; want 0x%04x, true", tt.format, got, ok, tt.want)
		}
	}

	invalid := []common.PixelFormat{
		common.PixelFormatUndefined,
		common.PixelFormatRed,
		common.PixelFormatRG,
		common.PixelFormatRGB,
		common.PixelFormatRGBA,
		common.PixelFormatRGB8,
		common.PixelFormatDepth24Stencil8,
	}
	for _, format := range invalid {
		if _, ok := imageFormatEnum(format); ok {
			t.Errorf("expected no image unit format for %v", format)
		}
	}
}

// TestCompareFuncEnum checks the depth comparison translation.
func TestCompareFuncEnum(t *testing.T) {
	tests := []struct {
		compare wgpu.CompareFunction
		want    uint32
	}{
		{wgpu.CompareFunctionNever, gl.NEVER},
		{wgpu.CompareFunctionLess, gl.LESS},
		{wgpu.CompareFunctionEqual, gl.EQUAL},
		{wgpu.CompareFunctionLessEqual, gl.LEQUAL},
		{wgpu.CompareFunctionGreater, gl.GREATER},
		{wgpu.CompareFunctionNotEqual, gl.NOTEQUAL},
		{wgpu.CompareFunctionGreaterEqual, gl.GEQUAL},
		{wgpu.CompareFunctionAlways, gl.ALWAYS},
	}
	for _, tt := range tests {
		got, ok := compareFuncEnum(tt.compare)
		if !ok || got != tt.want {
			t.Errorf("compareFuncEnum(%v) = 0x%04x, %v; want 0x%04x, true", tt.compare, got, ok, tt.want)
		}
	}

	if _, ok := compareFuncEnum(wgpu.CompareFunctionUndefined); ok {
		t.Errorf("expected the undefined compare function to be rejected")
	}
}

// TestBlendEnums checks the standard alpha blend translation and factor rejection.
func TestBlendEnums(t *testing.T) {
	state := wgpu.BlendState{
		Color: wgpu.BlendComponent{
			SrcFactor: wgpu.BlendFactorSrcAlpha,
			DstFactor: wgpu.BlendFactorOneMinusSrcAlpha,
			Operation: wgpu.BlendOperationAdd,
		},
		Alpha: wgpu.BlendComponent{
			SrcFactor: wgpu.BlendFactorOne,
			DstFactor: wgpu.BlendFactorOneMinusSrcAlpha,
			Operation: wgpu.BlendOperationAdd,
		},
	}

	got, err := blendEnums(state)
	if err != nil {
		t.Fatalf("blendEnums failed: %v", err)
	}
	want := glBlend{
		srcColor: gl.SRC_ALPHA,
		dstColor: gl.ONE_MINUS_SRC_ALPHA,
		srcAlpha: gl.ONE,
		dstAlpha: gl.ONE_MINUS_SRC_ALPHA,
		opColor:  gl.FUNC_ADD,
		opAlpha:  gl.FUNC_ADD,
	}
	if got != want {
		t.Errorf("blendEnums = %+v, want %+v", got, want)
	}

	state.Color.SrcFactor = wgpu.BlendFactor(999)
	if _, err := blendEnums(state); err == nil {
		t.Errorf("expected an unknown blend factor to be rejected")
	}
}

// TestBarrierBits checks single bits, combinations and the catch-all.
func TestBarrierBits(t *testing.T) {
	if got := barrierBits(device.BarrierShaderStorage); got != gl.SHADER_STORAGE_BARRIER_BIT {
		t.Errorf("barrierBits(shader storage) = 0x%08x, want 0x%08x", got, uint32(gl.SHADER_STORAGE_BARRIER_BIT))
	}

	mask := device.BarrierUniform | device.BarrierShaderImageAccess
	want := uint32(gl.UNIFORM_BARRIER_BIT | gl.SHADER_IMAGE_ACCESS_BARRIER_BIT)
	if got := barrierBits(mask); got != want {
		t.Errorf("barrierBits(uniform|image) = 0x%08x, want 0x%08x", got, want)
	}

	if got := barrierBits(device.BarrierAll); got != gl.ALL_BARRIER_BITS {
		t.Errorf("barrierBits(all) = 0x%08x, want the catch-all", got)
	}

	if got := barrierBits(0); got != 0 {
		t.Errorf("barrierBits(0) = 0x%08x, want 0", got)
	}
}
