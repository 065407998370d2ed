package gl_device

import (
	"fmt"
	"runtime"

	"github.com/go-gl/glfw/v3.3/glfw"
)

// glDeviceConfig collects construction parameters.
type glDeviceConfig struct {
	hiddenWindow bool
}

// GLDeviceBuilderOption configures a GLDevice during construction.
type GLDeviceBuilderOption func(*glDeviceConfig)

// WithHiddenWindowContext bootstraps an invisible window and OpenGL 4.6 core context
// before loading function pointers, for callers that do not own a context: offscreen
// compute tools and integration tests. Close releases the context again.
//
// Returns:
//   - GLDeviceBuilderOption: the option to apply
func WithHiddenWindowContext() GLDeviceBuilderOption {
	return func(cfg *glDeviceConfig) {
		cfg.hiddenWindow = true
	}
}

// bootstrapHiddenContext creates the invisible window and makes its context current. The
// calling thread is locked first since GLFW and the context are both thread-affine.
//
// GLFW reference: https://www.glfw.org/docs/latest/context_guide.html#context_offscreen
func bootstrapHiddenContext() (func(), error) {
	runtime.LockOSThread()

	if err := glfw.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize GLFW: %v", err)
	}

	glfw.WindowHint(glfw.ContextVersionMajor, 4)
	glfw.WindowHint(glfw.ContextVersionMinor, 6)
	glfw.WindowHint(glfw.OpenGLProfile, glfw.OpenGLCoreProfile)
	glfw.WindowHint(glfw.Visible, glfw.False)

	win, err := glfw.CreateWindow(1, 1, "prism offscreen", nil, nil)
	if err != nil {
		glfw.Terminate()
		return nil, fmt.Errorf("failed to create hidden GLFW window: %v", err)
	}
	win.MakeContextCurrent()

	return func() {
		win.Destroy()
		glfw.Terminate()
	}, nil
}
