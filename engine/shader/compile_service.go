package shader

import (
	"errors"
	"log"
	"sync"

	"github.com/Carmen-Shannon/automation/tools/worker"
	"github.com/Carmen-Shannon/prism-go/engine/profiler"
)

// ErrCompileServiceStopped is assigned to jobs submitted after Shutdown has been called.
var ErrCompileServiceStopped = errors.New("shader: compile service stopped")

// CompileJob is a handle to one asynchronous compilation. The Done channel is closed
// when the compile finishes; Err is only meaningful after that.
type CompileJob struct {
	shader Shader
	done   chan struct{}
	err    error
}

// Shader returns the shader this job compiles.
//
// Returns:
//   - Shader: the submitted shader
func (j *CompileJob) Shader() Shader {
	return j.shader
}

// Done returns a channel that is closed once the compilation has finished.
//
// Returns:
//   - <-chan struct{}: closed on completion
func (j *CompileJob) Done() <-chan struct{} {
	return j.done
}

// Err returns the compilation result. Only valid after Done is closed.
//
// Returns:
//   - error: nil on success, the compile error otherwise
func (j *CompileJob) Err() error {
	return j.err
}

// Wait blocks until the compilation finishes and returns its result.
//
// Returns:
//   - error: nil on success, the compile error otherwise
func (j *CompileJob) Wait() error {
	<-j.done
	return j.err
}

type compileService struct {
	pool worker.DynamicWorkerPool
	prof *profiler.Profiler

	mu      sync.Mutex
	stopped bool
	taskID  int
	wg      sync.WaitGroup
}

// CompileService compiles shaders asynchronously on a bounded worker pool so callers
// never block a frame waiting on the compiler. Jobs synchronize through their Done
// channel rather than shared state.
type CompileService interface {
	// Submit queues the shader for compilation and returns immediately. A shader that
	// is already compiled completes its job without recompiling. After Shutdown the
	// returned job is already done and carries ErrCompileServiceStopped.
	//
	// Parameters:
	//   - s: the shader to compile
	//
	// Returns:
	//   - *CompileJob: the job handle, never nil
	Submit(s Shader) *CompileJob

	// Shutdown stops accepting new work and blocks until every in-flight job has
	// finished. Safe to call more than once.
	Shutdown()
}

var _ CompileService = &compileService{}

// NewCompileService creates a CompileService backed by a dynamic worker pool.
// Worker count defaults to runtime.NumCPU()-1 (minimum 1) and the queue holds
// 256 pending jobs; both can be overridden with builder options.
//
// Parameters:
//   - opts: optional CompileServiceBuilderOption values
//
// Returns:
//   - CompileService: the configured service
func NewCompileService(opts ...CompileServiceBuilderOption) CompileService {
	cfg := defaultCompileServiceConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	return &compileService{
		pool: worker.NewDynamicWorkerPool(cfg.workers, cfg.queueSize, cfg.idleTimeout),
		prof: cfg.prof,
	}
}

func (c *compileService) Submit(s Shader) *CompileJob {
	if s == nil {
		panic("shader: cannot submit a nil shader for compilation")
	}

	job := &CompileJob{
		shader: s,
		done:   make(chan struct{}),
	}

	c.mu.Lock()
	if c.stopped {
		c.mu.Unlock()
		log.Printf("[Shader] compile service is stopped, rejecting %q", s.Key())
		job.err = ErrCompileServiceStopped
		close(job.done)
		return job
	}
	c.taskID++
	id := c.taskID
	c.wg.Add(1)
	c.mu.Unlock()

	c.pool.SubmitTask(worker.Task{
		ID: id,
		Do: func() (any, error) {
			defer c.wg.Done()
			defer close(job.done)
			job.err = s.Compile()
			if c.prof != nil {
				c.prof.RecordCompile(job.err == nil)
			}
			return nil, job.err
		},
	})

	return job
}

func (c *compileService) Shutdown() {
	c.mu.Lock()
	c.stopped = true
	c.mu.Unlock()
	c.wg.Wait()
}
