// package pipeline_state tracks the fixed-function half of the rendering state: viewport,
// scissor, blend, depth, cull and line settings. It mirrors the binding snapshot design at
// section granularity: a PipelineState is one snapshot of intended settings, comparing the
// applied snapshot against a pending one yields a section mask, and applying the mask issues
// one device call per dirty section.
package pipeline_state

import (
	"log"
	"math/bits"

	"github.com/Carmen-Shannon/prism-go/common"
	"github.com/Carmen-Shannon/prism-go/engine/device"
	"github.com/cogentcore/webgpu/wgpu"
)

// Scissor is the scissor test section: the clip rectangle and whether the test is enabled.
type Scissor struct {
	// Rect is the scissor rectangle in pixels.
	Rect common.Rect
	// Enabled is whether scissor testing is enabled.
	Enabled bool
}

// Blend is the blend section. State and WriteMask stay meaningful while blending is
// disabled, so toggling Enabled does not lose the configured factors.
type Blend struct {
	// Enabled is whether blending is enabled.
	Enabled bool
	// State holds the blend factors and operations for color and alpha.
	State wgpu.BlendState
	// WriteMask is the color channel write mask.
	WriteMask wgpu.ColorWriteMask
}

// Depth is the depth test section.
type Depth struct {
	// TestEnabled is whether depth testing is enabled.
	TestEnabled bool
	// WriteEnabled is whether depth writes are enabled.
	WriteEnabled bool
	// Compare is the depth comparison function.
	Compare wgpu.CompareFunction
}

// Cull is the face culling section.
type Cull struct {
	// Mode selects which faces are culled.
	Mode wgpu.CullMode
	// Front is the front face winding order.
	Front wgpu.FrontFace
}

// Line is the line rasterization section.
type Line struct {
	// Width is the line width in pixels.
	Width float32
}

// SectionMask is the result of a pipeline snapshot diff: one bit per dirty section.
type SectionMask uint32

const (
	// SectionViewport marks the viewport section.
	SectionViewport SectionMask = 1 << iota
	// SectionScissor marks the scissor section.
	SectionScissor
	// SectionBlend marks the blend section.
	SectionBlend
	// SectionDepth marks the depth section.
	SectionDepth
	// SectionCull marks the cull section.
	SectionCull
	// SectionLine marks the line section.
	SectionLine
)

// SectionAll marks every section.
const SectionAll = SectionViewport | SectionScissor | SectionBlend | SectionDepth | SectionCull | SectionLine

// Has reports whether any of the given sections is marked.
//
// Parameters:
//   - section: the section bit or bits to query
//
// Returns:
//   - bool: true if at least one queried bit is marked
func (m SectionMask) Has(section SectionMask) bool {
	return m&section != 0
}

// Count returns the number of marked sections.
//
// Returns:
//   - int: the marked section count
func (m SectionMask) Count() int {
	return bits.OnesCount32(uint32(m))
}

// Empty reports whether no section is marked.
//
// Returns:
//   - bool: true if the mask holds no marks
func (m SectionMask) Empty() bool {
	return m == 0
}

// ApplyStats summarizes one pipeline Apply pass.
type ApplyStats struct {
	// Calls is the number of successful device calls.
	Calls int
	// Faults is the number of device calls the driver rejected.
	Faults int
}

// Add accumulates another stats value into this one.
//
// Parameters:
//   - other: the stats to accumulate
func (s *ApplyStats) Add(other ApplyStats) {
	s.Calls += other.Calls
	s.Faults += other.Faults
}

// PipelineState is one snapshot of intended fixed-function settings. Sections are plain
// comparable values; two snapshots agree on a section exactly when the section values are
// equal. A snapshot is exclusively owned by one rendering context and is not safe for
// concurrent mutation.
type PipelineState struct {
	viewport common.Rect
	scissor  Scissor
	blend    Blend
	depth    Depth
	cull     Cull
	line     Line
}

// NewPipelineState creates a snapshot holding the standard defaults: depth test and write
// enabled with a less-than comparison, no culling with counter-clockwise front faces, full
// color writes with standard alpha blending configured but disabled, and 1 pixel lines.
//
// Parameters:
//   - opts: a variadic list of PipelineStateBuilderOption functions to configure the snapshot
//
// Returns:
//   - *PipelineState: the configured snapshot
func NewPipelineState(opts ...PipelineStateBuilderOption) *PipelineState {
	s := &PipelineState{
		blend: Blend{
			Enabled: false,
			State: wgpu.BlendState{
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
			},
			WriteMask: wgpu.ColorWriteMaskAll,
		},
		depth: Depth{
			TestEnabled:  true,
			WriteEnabled: true,
			Compare:      wgpu.CompareFunctionLess,
		},
		cull: Cull{
			Mode:  wgpu.CullModeNone,
			Front: wgpu.FrontFaceCCW,
		},
		line: Line{Width: 1},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Viewport returns the viewport section.
//
// Returns:
//   - common.Rect: the viewport rectangle
func (s *PipelineState) Viewport() common.Rect {
	return s.viewport
}

// SetViewport replaces the viewport section.
//
// Parameters:
//   - rect: the viewport rectangle
func (s *PipelineState) SetViewport(rect common.Rect) {
	s.viewport = rect
}

// Scissor returns the scissor section.
//
// Returns:
//   - Scissor: the scissor settings
func (s *PipelineState) Scissor() Scissor {
	return s.scissor
}

// SetScissor replaces the scissor section.
//
// Parameters:
//   - scissor: the scissor settings
func (s *PipelineState) SetScissor(scissor Scissor) {
	s.scissor = scissor
}

// Blend returns the blend section.
//
// Returns:
//   - Blend: the blend settings
func (s *PipelineState) Blend() Blend {
	return s.blend
}

// SetBlend replaces the blend section.
//
// Parameters:
//   - blend: the blend settings
func (s *PipelineState) SetBlend(blend Blend) {
	s.blend = blend
}

// Depth returns the depth section.
//
// Returns:
//   - Depth: the depth settings
func (s *PipelineState) Depth() Depth {
	return s.depth
}

// SetDepth replaces the depth section.
//
// Parameters:
//   - depth: the depth settings
func (s *PipelineState) SetDepth(depth Depth) {
	s.depth = depth
}

// Cull returns the cull section.
//
// Returns:
//   - Cull: the cull settings
func (s *PipelineState) Cull() Cull {
	return s.cull
}

// SetCull replaces the cull section.
//
// Parameters:
//   - cull: the cull settings
func (s *PipelineState) SetCull(cull Cull) {
	s.cull = cull
}

// Line returns the line section.
//
// Returns:
//   - Line: the line settings
func (s *PipelineState) Line() Line {
	return s.line
}

// SetLine replaces the line section.
//
// Parameters:
//   - line: the line settings
func (s *PipelineState) SetLine(line Line) {
	s.line = line
}

// MakeDiff compares this snapshot (the applied state) against the target snapshot (the
// pending state) and returns the mask of sections that must be re-applied. A section is
// marked when forced is set or when the two section values differ.
//
// Parameters:
//   - target: the pending snapshot to move toward
//   - forced: mark every section regardless of equality
//
// Returns:
//   - SectionMask: the sections that need device calls
func (s *PipelineState) MakeDiff(target *PipelineState, forced bool) SectionMask {
	if forced {
		return SectionAll
	}

	var changes SectionMask
	if s.viewport != target.viewport {
		changes |= SectionViewport
	}
	if s.scissor != target.scissor {
		changes |= SectionScissor
	}
	if s.blend != target.blend {
		changes |= SectionBlend
	}
	if s.depth != target.depth {
		changes |= SectionDepth
	}
	if s.cull != target.cull {
		changes |= SectionCull
	}
	if s.line != target.line {
		changes |= SectionLine
	}
	return changes
}

// Apply issues one device call per marked section, copying the target's section value into
// this snapshot as each call succeeds. A device fault is logged, counted, and skipped over,
// leaving the section dirty so a later diff retries it; there is no rollback.
//
// Parameters:
//   - dev: the device to issue calls against
//   - target: the pending snapshot the mask was diffed against
//   - changes: the section mask to apply
//
// Returns:
//   - ApplyStats: device call and fault counts for this pass
func (s *PipelineState) Apply(dev device.Device, target *PipelineState, changes SectionMask) ApplyStats {
	var stats ApplyStats

	if changes.Has(SectionViewport) {
		if err := dev.SetViewport(target.viewport); err != nil {
			stats.Faults++
			log.Printf("[PipelineState] set viewport failed: %v", err)
		} else {
			stats.Calls++
			s.viewport = target.viewport
		}
	}
	if changes.Has(SectionScissor) {
		if err := dev.SetScissor(target.scissor.Rect, target.scissor.Enabled); err != nil {
			stats.Faults++
			log.Printf("[PipelineState] set scissor failed: %v", err)
		} else {
			stats.Calls++
			s.scissor = target.scissor
		}
	}
	if changes.Has(SectionBlend) {
		if err := dev.SetBlend(target.blend.Enabled, target.blend.State, target.blend.WriteMask); err != nil {
			stats.Faults++
			log.Printf("[PipelineState] set blend failed: %v", err)
		} else {
			stats.Calls++
			s.blend = target.blend
		}
	}
	if changes.Has(SectionDepth) {
		if err := dev.SetDepth(target.depth.TestEnabled, target.depth.WriteEnabled, target.depth.Compare); err != nil {
			stats.Faults++
			log.Printf("[PipelineState] set depth failed: %v", err)
		} else {
			stats.Calls++
			s.depth = target.depth
		}
	}
	if changes.Has(SectionCull) {
		if err := dev.SetCull(target.cull.Mode, target.cull.Front); err != nil {
			stats.Faults++
			log.Printf("[PipelineState] set cull failed: %v", err)
		} else {
			stats.Calls++
			s.cull = target.cull
		}
	}
	if changes.Has(SectionLine) {
		if err := dev.SetLineWidth(target.line.Width); err != nil {
			stats.Faults++
			log.Printf("[PipelineState] set line width failed: %v", err)
		} else {
			stats.Calls++
			s.line = target.line
		}
	}

	return stats
}
