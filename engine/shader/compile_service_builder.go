package shader

import (
	"runtime"
	"time"

	"github.com/Carmen-Shannon/prism-go/engine/profiler"
)

// compileServiceConfig collects pool parameters before construction.
type compileServiceConfig struct {
	workers     int
	queueSize   int
	idleTimeout time.Duration
	prof        *profiler.Profiler
}

// defaultCompileServiceConfig returns the standard pool sizing: one worker per CPU
// minus one for the caller (minimum 1), a 256 entry queue, and a one second idle
// timeout before surplus workers retire.
func defaultCompileServiceConfig() compileServiceConfig {
	return compileServiceConfig{
		workers:     max(runtime.NumCPU()-1, 1),
		queueSize:   256,
		idleTimeout: 1 * time.Second,
	}
}

// CompileServiceBuilderOption configures a CompileService during construction.
type CompileServiceBuilderOption func(*compileServiceConfig)

// WithWorkers sets the number of concurrent compile workers. Values below 1 are
// clamped to 1.
//
// Parameters:
//   - n: the worker count
//
// Returns:
//   - CompileServiceBuilderOption: the option to apply
func WithWorkers(n int) CompileServiceBuilderOption {
	return func(cfg *compileServiceConfig) {
		if n < 1 {
			n = 1
		}
		cfg.workers = n
	}
}

// WithQueueSize sets the pending job queue capacity. Values below 1 are clamped to 1.
//
// Parameters:
//   - n: the queue capacity
//
// Returns:
//   - CompileServiceBuilderOption: the option to apply
func WithQueueSize(n int) CompileServiceBuilderOption {
	return func(cfg *compileServiceConfig) {
		if n < 1 {
			n = 1
		}
		cfg.queueSize = n
	}
}

// WithIdleTimeout sets how long surplus workers linger before retiring.
//
// Parameters:
//   - d: the idle timeout
//
// Returns:
//   - CompileServiceBuilderOption: the option to apply
func WithIdleTimeout(d time.Duration) CompileServiceBuilderOption {
	return func(cfg *compileServiceConfig) {
		if d > 0 {
			cfg.idleTimeout = d
		}
	}
}

// WithProfiler attaches a profiler that records the outcome of every compile job.
//
// Parameters:
//   - p: the profiler to record to
//
// Returns:
//   - CompileServiceBuilderOption: the option to apply
func WithProfiler(p *profiler.Profiler) CompileServiceBuilderOption {
	return func(cfg *compileServiceConfig) {
		cfg.prof = p
	}
}
