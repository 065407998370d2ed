package pipeline_state

import (
	"errors"
	"testing"

	"github.com/Carmen-Shannon/prism-go/common"
	"github.com/Carmen-Shannon/prism-go/engine/device"
	"github.com/cogentcore/webgpu/wgpu"
)

// TestNewPipelineStateDefaults checks the snapshot defaults: depth testing and writing on
// with a less-than comparison, no culling with CCW front faces, standard alpha blending
// configured but disabled, full color writes, and 1 pixel lines.
func TestNewPipelineStateDefaults(t *testing.T) {
	s := NewPipelineState()

	if got := s.Depth(); got != (Depth{TestEnabled: true, WriteEnabled: true, Compare: wgpu.CompareFunctionLess}) {
		t.Errorf("unexpected depth defaults: %+v", got)
	}
	if got := s.Cull(); got != (Cull{Mode: wgpu.CullModeNone, Front: wgpu.FrontFaceCCW}) {
		t.Errorf("unexpected cull defaults: %+v", got)
	}

	blend := s.Blend()
	if blend.Enabled {
		t.Errorf("expected blending disabled by default")
	}
	if blend.WriteMask != wgpu.ColorWriteMaskAll {
		t.Errorf("expected full color writes, got %v", blend.WriteMask)
	}
	if blend.State.Color.SrcFactor != wgpu.BlendFactorSrcAlpha ||
		blend.State.Color.DstFactor != wgpu.BlendFactorOneMinusSrcAlpha ||
		blend.State.Alpha.SrcFactor != wgpu.BlendFactorOne {
		t.Errorf("expected standard alpha blend factors, got %+v", blend.State)
	}

	if got := s.Line(); got != (Line{Width: 1}) {
		t.Errorf("unexpected line defaults: %+v", got)
	}
	if got := s.Viewport(); got != (common.Rect{}) {
		t.Errorf("expected a zero viewport, got %+v", got)
	}
	if got := s.Scissor(); got != (Scissor{}) {
		t.Errorf("expected scissor testing off, got %+v", got)
	}
}

// TestNewPipelineStateOptions checks that builder options override the section defaults.
func TestNewPipelineStateOptions(t *testing.T) {
	rect := common.Rect{X: 0, Y: 0, Width: 1280, Height: 720}
	s := NewPipelineState(
		WithViewport(rect),
		WithDepth(Depth{TestEnabled: false, WriteEnabled: false, Compare: wgpu.CompareFunctionAlways}),
		WithCull(Cull{Mode: wgpu.CullModeBack, Front: wgpu.FrontFaceCW}),
		WithLine(Line{Width: 2}),
	)

	if got := s.Viewport(); got != rect {
		t.Errorf("expected viewport %+v, got %+v", rect, got)
	}
	if got := s.Depth(); got.TestEnabled || got.Compare != wgpu.CompareFunctionAlways {
		t.Errorf("expected the depth override, got %+v", got)
	}
	if got := s.Cull(); got.Mode != wgpu.CullModeBack || got.Front != wgpu.FrontFaceCW {
		t.Errorf("expected the cull override, got %+v", got)
	}
	if got := s.Line(); got.Width != 2 {
		t.Errorf("expected the line override, got %+v", got)
	}
}

// TestMakeDiffMarksOnlyChangedSections checks that equal snapshots produce an empty mask
// and that each changed section contributes exactly its own bit.
func TestMakeDiffMarksOnlyChangedSections(t *testing.T) {
	applied := NewPipelineState()
	pending := NewPipelineState()

	if changes := applied.MakeDiff(pending, false); !changes.Empty() {
		t.Fatalf("expected no changes between equal snapshots, got %b", changes)
	}

	pending.SetViewport(common.Rect{Width: 800, Height: 600})
	changes := applied.MakeDiff(pending, false)
	if changes != SectionViewport {
		t.Errorf("expected only the viewport section, got %b", changes)
	}

	pending.SetCull(Cull{Mode: wgpu.CullModeBack, Front: wgpu.FrontFaceCCW})
	pending.SetLine(Line{Width: 3})
	changes = applied.MakeDiff(pending, false)
	if changes.Count() != 3 || !changes.Has(SectionViewport) || !changes.Has(SectionCull) || !changes.Has(SectionLine) {
		t.Errorf("expected viewport, cull and line sections, got %b", changes)
	}
	if changes.Has(SectionBlend) || changes.Has(SectionDepth) || changes.Has(SectionScissor) {
		t.Errorf("unchanged sections marked: %b", changes)
	}
}

// TestMakeDiffForced checks that a forced diff marks every section regardless of equality.
func TestMakeDiffForced(t *testing.T) {
	applied := NewPipelineState()
	pending := NewPipelineState()

	changes := applied.MakeDiff(pending, true)
	if changes != SectionAll {
		t.Errorf("expected all sections marked, got %b", changes)
	}
	if changes.Count() != 6 {
		t.Errorf("expected 6 marked sections, got %d", changes.Count())
	}
}

// TestApplyIssuesOneCallPerDirtySection checks the apply pass: one device call per marked
// section carrying the pending values, the applied snapshot catching up, and the follow-up
// diff coming back empty.
func TestApplyIssuesOneCallPerDirtySection(t *testing.T) {
	dev := device.NewTraceDevice()
	applied := NewPipelineState()
	pending := NewPipelineState()

	rect := common.Rect{X: 8, Y: 8, Width: 256, Height: 256}
	pending.SetViewport(rect)
	pending.SetScissor(Scissor{Rect: rect, Enabled: true})

	changes := applied.MakeDiff(pending, false)
	stats := applied.Apply(dev, pending, changes)

	if stats.Calls != 2 || stats.Faults != 0 {
		t.Fatalf("expected 2 clean calls, got %+v", stats)
	}
	if n := dev.Count(device.TraceSetViewport); n != 1 {
		t.Errorf("expected 1 viewport call, got %d", n)
	}
	if n := dev.Count(device.TraceSetScissor); n != 1 {
		t.Errorf("expected 1 scissor call, got %d", n)
	}
	for _, op := range dev.Ops() {
		if op.Rect != rect {
			t.Errorf("expected the pending rectangle on %v, got %+v", op.Kind, op.Rect)
		}
		if op.Kind == device.TraceSetScissor && !op.Enabled {
			t.Errorf("expected the scissor call to carry the enable flag")
		}
	}

	if follow := applied.MakeDiff(pending, false); !follow.Empty() {
		t.Errorf("expected a clean pass to settle the snapshots, got %b", follow)
	}
}

// TestApplyFaultLeavesSectionDirty checks the fault path: a rejected call is counted,
// processing continues past it, and the section stays dirty so a later pass retries it.
func TestApplyFaultLeavesSectionDirty(t *testing.T) {
	reject := true
	dev := device.NewTraceDevice(device.WithFailureHook(func(op device.TraceOp) error {
		if reject && op.Kind == device.TraceSetDepth {
			return errors.New("injected fault")
		}
		return nil
	}))

	applied := NewPipelineState()
	pending := NewPipelineState()
	pending.SetDepth(Depth{TestEnabled: false, WriteEnabled: false, Compare: wgpu.CompareFunctionAlways})
	pending.SetCull(Cull{Mode: wgpu.CullModeFront, Front: wgpu.FrontFaceCCW})

	stats := applied.Apply(dev, pending, applied.MakeDiff(pending, false))
	if stats.Calls != 1 || stats.Faults != 1 {
		t.Fatalf("expected the cull call to land and the depth call to fault, got %+v", stats)
	}

	changes := applied.MakeDiff(pending, false)
	if changes != SectionDepth {
		t.Fatalf("expected only the depth section to stay dirty, got %b", changes)
	}

	reject = false
	stats = applied.Apply(dev, pending, changes)
	if stats.Calls != 1 || stats.Faults != 0 {
		t.Fatalf("expected the retry to land, got %+v", stats)
	}
	if follow := applied.MakeDiff(pending, false); !follow.Empty() {
		t.Errorf("expected the retry to settle the snapshots, got %b", follow)
	}
}
