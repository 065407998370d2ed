// package profiler aggregates state tracker throughput for performance monitoring: apply
// passes, device calls, driver faults and shader compilations, logged at a configurable
// interval alongside heap statistics. One profiler may be shared by a rendering context and
// a compile service; recording is safe for concurrent use.
package profiler

import (
	"log"
	"runtime"
	"sync"
	"time"

	"github.com/Carmen-Shannon/prism-go/engine/rendering_context/binding_state"
	"github.com/Carmen-Shannon/prism-go/engine/rendering_context/pipeline_state"
)

// Stats is the accumulated measurement window since the profiler last logged.
type Stats struct {
	// ApplyPasses is the number of ApplyChanges passes recorded.
	ApplyPasses int
	// Binding is the accumulated binding apply stats.
	Binding binding_state.ApplyStats
	// PipelineCalls is the number of successful fixed-function device calls.
	PipelineCalls int
	// PipelineFaults is the number of rejected fixed-function device calls.
	PipelineFaults int
	// Compiles is the number of shader compilations that finished.
	Compiles int
	// CompileFailures is the number of shader compilations that failed.
	CompileFailures int
}

// Profiler tracks state tracker statistics and outputs them to the log at a configurable
// interval. Update interval defaults to 1 second.
type Profiler struct {
	mu             sync.Mutex
	window         Stats
	lastTime       time.Time
	updateInterval time.Duration
	memStats       runtime.MemStats
	lastTotalAlloc uint64
}

// NewProfiler creates a new Profiler with default settings.
//
// Returns:
//   - *Profiler: the newly created profiler instance
func NewProfiler() *Profiler {
	return &Profiler{
		lastTime:       time.Now(),
		updateInterval: time.Second,
	}
}

// RecordApply accumulates the result of one ApplyChanges pass.
//
// Parameters:
//   - binding: the binding apply stats for the pass
//   - pipeline: the fixed-function apply stats for the pass
func (p *Profiler) RecordApply(binding binding_state.ApplyStats, pipeline pipeline_state.ApplyStats) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.window.ApplyPasses++
	p.window.Binding.Add(binding)
	p.window.PipelineCalls += pipeline.Calls
	p.window.PipelineFaults += pipeline.Faults
}

// RecordCompile accumulates one finished shader compilation.
//
// Parameters:
//   - ok: whether the compilation succeeded
func (p *Profiler) RecordCompile(ok bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.window.Compiles++
	if !ok {
		p.window.CompileFailures++
	}
}

// Snapshot returns the measurement window accumulated since the last logged tick.
//
// Returns:
//   - Stats: the current window
func (p *Profiler) Snapshot() Stats {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.window
}

// Tick should be called once per apply pass to track timing. Logs the accumulated
// statistics when the update interval has elapsed and starts a fresh window.
// Statistics include: apply rate, device call counts, faults, compiles, heap usage and
// allocation rate.
//
// Returns:
//   - bool: true if stats were logged this tick, false otherwise
func (p *Profiler) Tick() bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	currentTime := time.Now()
	elapsed := currentTime.Sub(p.lastTime)
	if elapsed < p.updateInterval {
		return false
	}

	appliesPerSec := float64(p.window.ApplyPasses) / elapsed.Seconds()

	runtime.ReadMemStats(&p.memStats)
	allocMB := float64(p.memStats.Alloc) / 1024 / 1024
	allocDelta := p.memStats.TotalAlloc - p.lastTotalAlloc
	allocRateMB := float64(allocDelta) / 1024 / 1024 / elapsed.Seconds()

	log.Printf("[Profiler] Applies/s: %.2f | Binds: %d | Unbinds: %d | Faults: %d | Unknown targets: %d | Pipeline: %d (faults: %d) | Compiles: %d (failed: %d) | Heap: %.2f MB | Alloc Rate: %.2f MB/s",
		appliesPerSec,
		p.window.Binding.Binds(),
		p.window.Binding.Unbinds(),
		p.window.Binding.Faults,
		p.window.Binding.UnknownTargets,
		p.window.PipelineCalls,
		p.window.PipelineFaults,
		p.window.Compiles,
		p.window.CompileFailures,
		allocMB,
		allocRateMB,
	)

	p.window = Stats{}
	p.lastTime = currentTime
	p.lastTotalAlloc = p.memStats.TotalAlloc
	return true
}
