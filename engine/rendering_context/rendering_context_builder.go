package rendering_context

import (
	"github.com/Carmen-Shannon/prism-go/engine/device"
	"github.com/Carmen-Shannon/prism-go/engine/profiler"
	"github.com/Carmen-Shannon/prism-go/engine/rendering_context/pipeline_state"
)

// RenderingContextBuilderOption is a functional option used to configure a RenderingContext
// during construction.
type RenderingContextBuilderOption func(*renderingContext)

// WithProfiler attaches a profiler; ApplyChanges records its stats there and drives the
// profiler's tick.
//
// Parameters:
//   - prof: the profiler to record to
//
// Returns:
//   - RenderingContextBuilderOption: a function that attaches the profiler
func WithProfiler(prof *profiler.Profiler) RenderingContextBuilderOption {
	return func(c *renderingContext) {
		c.prof = prof
	}
}

// WithLimits overrides the device-reported limits used to size change-sets. Useful when the
// application restricts itself to fewer units than the hardware offers.
//
// Parameters:
//   - limits: the limits to use
//
// Returns:
//   - RenderingContextBuilderOption: a function that sets the limits
func WithLimits(limits device.Limits) RenderingContextBuilderOption {
	return func(c *renderingContext) {
		c.limits = limits
	}
}

// WithPipelineDefaults replaces the initial pending fixed-function snapshot with one built
// from the given options. The first forced apply establishes these values on the device.
//
// Parameters:
//   - opts: pipeline state options for the initial snapshot
//
// Returns:
//   - RenderingContextBuilderOption: a function that sets the initial pipeline state
func WithPipelineDefaults(opts ...pipeline_state.PipelineStateBuilderOption) RenderingContextBuilderOption {
	return func(c *renderingContext) {
		c.pendingPipeline = pipeline_state.NewPipelineState(opts...)
	}
}
