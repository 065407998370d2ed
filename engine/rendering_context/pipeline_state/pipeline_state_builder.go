package pipeline_state

import (
	"github.com/Carmen-Shannon/prism-go/common"
)

// PipelineStateBuilderOption is a function that configures a PipelineState during creation.
type PipelineStateBuilderOption func(*PipelineState)

// WithViewport sets the initial viewport section.
//
// Parameters:
//   - rect: the viewport rectangle
//
// Returns:
//   - PipelineStateBuilderOption: the option function
func WithViewport(rect common.Rect) PipelineStateBuilderOption {
	return func(s *PipelineState) {
		s.viewport = rect
	}
}

// WithScissor sets the initial scissor section.
//
// Parameters:
//   - scissor: the scissor settings
//
// Returns:
//   - PipelineStateBuilderOption: the option function
func WithScissor(scissor Scissor) PipelineStateBuilderOption {
	return func(s *PipelineState) {
		s.scissor = scissor
	}
}

// WithBlend sets the initial blend section.
//
// Parameters:
//   - blend: the blend settings
//
// Returns:
//   - PipelineStateBuilderOption: the option function
func WithBlend(blend Blend) PipelineStateBuilderOption {
	return func(s *PipelineState) {
		s.blend = blend
	}
}

// WithDepth sets the initial depth section.
//
// Parameters:
//   - depth: the depth settings
//
// Returns:
//   - PipelineStateBuilderOption: the option function
func WithDepth(depth Depth) PipelineStateBuilderOption {
	return func(s *PipelineState) {
		s.depth = depth
	}
}

// WithCull sets the initial cull section.
//
// Parameters:
//   - cull: the cull settings
//
// Returns:
//   - PipelineStateBuilderOption: the option function
func WithCull(cull Cull) PipelineStateBuilderOption {
	return func(s *PipelineState) {
		s.cull = cull
	}
}

// WithLine sets the initial line section.
//
// Parameters:
//   - line: the line settings
//
// Returns:
//   - PipelineStateBuilderOption: the option function
func WithLine(line Line) PipelineStateBuilderOption {
	return func(s *PipelineState) {
		s.line = line
	}
}
