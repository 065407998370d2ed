package shader

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/Carmen-Shannon/prism-go/engine/profiler"
)

// TestCompileServiceCompilesSubmittedShaders checks the happy path: submitted shaders
// compile on the pool, jobs resolve with a nil error, and each job hands back the shader
// it was created for.
func TestCompileServiceCompilesSubmittedShaders(t *testing.T) {
	service := NewCompileService(WithWorkers(2), WithQueueSize(8))
	defer service.Shutdown()

	shaders := []Shader{
		NewShader("sim", ShaderTypeCompute, WithSource(computeSource)),
		NewShader("cached", ShaderTypeCompute, WithPrecompiledWords(spirvWords(
			entryPointOf(modelGLCompute, 1, "main"),
		))),
	}

	jobs := make([]*CompileJob, len(shaders))
	for i, s := range shaders {
		jobs[i] = service.Submit(s)
	}

	for i, job := range jobs {
		if err := job.Wait(); err != nil {
			t.Fatalf("job %d failed: %v", i, err)
		}
		if job.Shader() != shaders[i] {
			t.Errorf("job %d does not reference its shader", i)
		}
		if !shaders[i].Compiled() {
			t.Errorf("shader %q not compiled after its job finished", shaders[i].Key())
		}
	}
}

// TestCompileServiceReportsCompileFailure checks that a compiler rejection travels through
// the job: Wait returns the *CompileError and Err agrees once Done is closed.
func TestCompileServiceReportsCompileFailure(t *testing.T) {
	service := NewCompileService(WithWorkers(1))
	defer service.Shutdown()

	job := service.Submit(NewShader("broken", ShaderTypeCompute, WithSource("fn broken( {")))

	err := job.Wait()
	if err == nil {
		t.Fatalf("expected the job to fail")
	}
	var cerr *CompileError
	if !errors.As(err, &cerr) {
		t.Fatalf("expected a *CompileError, got %T: %v", err, err)
	}
	if cerr.Key != "broken" {
		t.Errorf("expected the error to identify shader %q, got %q", "broken", cerr.Key)
	}

	<-job.Done()
	if job.Err() != err {
		t.Errorf("expected Err to agree with Wait after Done")
	}
}

// TestCompileServiceShutdownRejectsNewWork checks that Shutdown drains in-flight jobs,
// that later submissions come back already done with ErrCompileServiceStopped, and that
// calling Shutdown again is harmless.
func TestCompileServiceShutdownRejectsNewWork(t *testing.T) {
	service := NewCompileService(WithWorkers(1), WithIdleTimeout(100*time.Millisecond))

	inFlight := service.Submit(NewShader("sim", ShaderTypeCompute, WithSource(computeSource)))
	service.Shutdown()

	select {
	case <-inFlight.Done():
	default:
		t.Fatalf("expected Shutdown to wait for the in-flight job")
	}
	if err := inFlight.Err(); err != nil {
		t.Fatalf("in-flight job failed: %v", err)
	}

	late := NewShader("late", ShaderTypeCompute, WithSource(computeSource))
	job := service.Submit(late)
	select {
	case <-job.Done():
	default:
		t.Fatalf("expected a rejected job to be done immediately")
	}
	if !errors.Is(job.Err(), ErrCompileServiceStopped) {
		t.Errorf("expected ErrCompileServiceStopped, got %v", job.Err())
	}
	if late.Compiled() {
		t.Errorf("expected a rejected shader to stay uncompiled")
	}

	service.Shutdown()
}

// TestCompileServiceRecordsToProfiler checks that an attached profiler sees the outcome of
// every job.
func TestCompileServiceRecordsToProfiler(t *testing.T) {
	prof := profiler.NewProfiler()
	service := NewCompileService(WithWorkers(1), WithProfiler(prof))

	good := service.Submit(NewShader("sim", ShaderTypeCompute, WithSource(computeSource)))
	bad := service.Submit(NewShader("broken", ShaderTypeCompute, WithSource("fn broken( {")))
	good.Wait()
	bad.Wait()
	service.Shutdown()

	window := prof.Snapshot()
	if window.Compiles != 2 {
		t.Errorf("expected 2 recorded compiles, got %d", window.Compiles)
	}
	if window.CompileFailures != 1 {
		t.Errorf("expected 1 recorded failure, got %d", window.CompileFailures)
	}
}

// TestCompileServiceSubmitNilPanics checks the construction contract on Submit.
func TestCompileServiceSubmitNilPanics(t *testing.T) {
	service := NewCompileService(WithWorkers(1))
	defer service.Shutdown()

	defer func() {
		r := recover()
		if r == nil {
			t.Fatalf("expected Submit to panic on a nil shader")
		}
		if msg, ok := r.(string); !ok || !strings.Contains(msg, "nil shader") {
			t.Errorf("unexpected panic value: %v", r)
		}
	}()
	service.Submit(nil)
}

// TestCompileServiceOptionClamps checks that nonsensical worker and queue settings are
// clamped and that non-positive idle timeouts keep the default.
func TestCompileServiceOptionClamps(t *testing.T) {
	cfg := defaultCompileServiceConfig()
	base := cfg

	WithWorkers(0)(&cfg)
	if cfg.workers != 1 {
		t.Errorf("expected worker count clamped to 1, got %d", cfg.workers)
	}
	WithWorkers(4)(&cfg)
	if cfg.workers != 4 {
		t.Errorf("expected worker count 4, got %d", cfg.workers)
	}

	WithQueueSize(-5)(&cfg)
	if cfg.queueSize != 1 {
		t.Errorf("expected queue size clamped to 1, got %d", cfg.queueSize)
	}

	WithIdleTimeout(0)(&cfg)
	if cfg.idleTimeout != base.idleTimeout {
		t.Errorf("expected a non-positive idle timeout to keep the default, got %v", cfg.idleTimeout)
	}
	WithIdleTimeout(5 * time.Second)(&cfg)
	if cfg.idleTimeout != 5*time.Second {
		t.Errorf("expected idle timeout 5s, got %v", cfg.idleTimeout)
	}
}
