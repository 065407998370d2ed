// package shader implements the compilation and reflection half of the state tracker: it
// pre-processes shader source, cross compiles it to SPIR-V, and statically extracts the
// resource binding layout the binding engine and pipeline-layout code consume. Compilation
// is synchronous and CPU-expensive; callers that cannot block use the CompileService to
// offload onto a worker pool.
package shader

import (
	"fmt"
	"log"
	"os"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/gogpu/naga"
	"github.com/gogpu/naga/spirv"
)

// ShaderType identifies whether a shader is a render shader or a compute shader.
type ShaderType int

const (
	// ShaderTypeCompute indicates a shader containing a @compute entry point.
	ShaderTypeCompute ShaderType = iota

	// ShaderTypeVertex is the vertex shader type, used for vertex processing in render pipelines.
	ShaderTypeVertex

	// ShaderTypeFragment is the fragment shader type, used for fragment processing in pair with a vertex shader.
	ShaderTypeFragment
)

// Stage marker macros. Exactly one is defined when a shader compiles, according to its
// type, so one source file can carry several stage variants behind conditionals.
const (
	// StageMacroCompute is defined while compiling compute shaders.
	StageMacroCompute = "PRISM_COMPUTE_SHADER"
	// StageMacroVertex is defined while compiling vertex shaders.
	StageMacroVertex = "PRISM_VERTEX_SHADER"
	// StageMacroFragment is defined while compiling fragment shaders.
	StageMacroFragment = "PRISM_FRAGMENT_SHADER"
)

// String returns the stage name of the shader type.
//
// Returns:
//   - string: "compute", "vertex" or "fragment", or "unknown" for unrecognized values
func (t ShaderType) String() string {
	switch t {
	case ShaderTypeCompute:
		return "compute"
	case ShaderTypeVertex:
		return "vertex"
	case ShaderTypeFragment:
		return "fragment"
	default:
		return "unknown"
	}
}

// Visibility returns the stage mask bit for the shader type.
//
// Returns:
//   - wgpu.ShaderStage: the visibility bit, or ShaderStageNone for unrecognized values
func (t ShaderType) Visibility() wgpu.ShaderStage {
	switch t {
	case ShaderTypeCompute:
		return wgpu.ShaderStageCompute
	case ShaderTypeVertex:
		return wgpu.ShaderStageVertex
	case ShaderTypeFragment:
		return wgpu.ShaderStageFragment
	default:
		return wgpu.ShaderStageNone
	}
}

// stageMacro returns the marker macro defined while compiling this shader type.
func (t ShaderType) stageMacro() string {
	switch t {
	case ShaderTypeCompute:
		return StageMacroCompute
	case ShaderTypeVertex:
		return StageMacroVertex
	case ShaderTypeFragment:
		return StageMacroFragment
	default:
		return ""
	}
}

// CompileError describes a failed shader compilation. It carries the compiler's message,
// the stage name, and the shader's origin: the file path for shaders loaded from disk, or
// the literal source text for anonymous shaders.
type CompileError struct {
	// Key is the shader's unique key.
	Key string
	// Stage is the stage name of the failing shader.
	Stage string
	// Path is the originating file path, empty for anonymous shaders.
	Path string
	// Source is the literal source text for anonymous shaders, empty otherwise.
	Source string
	// Message is the compiler's failure message.
	Message string
}

// Error formats the compile failure with its origin.
//
// Returns:
//   - string: the failure description
func (e *CompileError) Error() string {
	origin := e.Path
	if origin == "" {
		origin = "inline source"
	}
	return fmt.Sprintf("shader: %s stage of %q failed to compile (%s): %s", e.Stage, e.Key, origin, e.Message)
}

// shader is the implementation of the Shader interface. It holds the raw source, the
// cached SPIR-V words once compiled, and the reflected resources once requested.
type shader struct {
	key           string
	shaderType    ShaderType
	source        string
	path          string
	entryPoint    string
	workGroupSize [3]uint32
	words         []uint32
	resources     []ShaderResource

	pp PreProcessor
}

// Shader is a single shader object with an idempotent compile pipeline: pre-process, cross
// compile to SPIR-V, cache the words, then reflect the binding layout on demand. A shader
// is owned by one goroutine; compile and reflection results are immutable once produced.
type Shader interface {
	// Key retrieves the unique identifier for this shader, used for caching and lookups.
	//
	// Returns:
	//   - string: the shader's unique key
	Key() string

	// ShaderType returns the type of the shader (vertex, fragment, or compute).
	//
	// Returns:
	//   - ShaderType: ShaderTypeVertex, ShaderTypeFragment, or ShaderTypeCompute
	ShaderType() ShaderType

	// Source retrieves the raw shader source as provided, before pre-processing.
	//
	// Returns:
	//   - string: the raw source, empty for precompiled shaders
	Source() string

	// Path retrieves the originating file path for shaders loaded from disk.
	//
	// Returns:
	//   - string: the source file path, empty for anonymous shaders
	Path() string

	// Compile runs the compile pipeline: pre-process the source with the stage marker
	// macro and caller defines applied, cross compile to SPIR-V with debug info and
	// validation enabled, and cache the resulting words. A shader that already holds
	// compiled words returns immediately, so calling Compile repeatedly is safe and
	// cheap. On failure nothing is cached and the returned *CompileError carries the
	// compiler message and the shader's origin.
	//
	// Returns:
	//   - error: a *CompileError describing the failure, or nil
	Compile() error

	// Compiled reports whether the shader holds compiled SPIR-V words.
	//
	// Returns:
	//   - bool: true once a compile has succeeded or precompiled words were provided
	Compiled() bool

	// Words returns the cached SPIR-V words. The slice is owned by the shader and must
	// not be modified.
	//
	// Returns:
	//   - []uint32: the compiled words, nil before a successful compile
	Words() []uint32

	// Descriptors reflects the cached SPIR-V into an ordered resource layout. The order
	// is fixed: inputs, input attachments, outputs, separate images, combined image
	// samplers, storage images, samplers, uniform buffers, storage buffers, push
	// constants, specialization constants, each sorted by result id. Calling Descriptors
	// before a successful compile logs a warning and returns no descriptors.
	//
	// Returns:
	//   - []ShaderResource: the reflected resources, owned by the shader
	Descriptors() []ShaderResource

	// IncludeNotes returns the include diagnostics recorded by the most recent compile's
	// pre-processing pass.
	//
	// Returns:
	//   - []IncludeNote: the include diagnostics, nil before Compile runs
	IncludeNotes() []IncludeNote

	// EntryPoint returns the entry point function name parsed from the processed source.
	//
	// Returns:
	//   - string: the entry point name, empty before a successful compile
	EntryPoint() string

	// WorkgroupSize returns the workgroup size dimensions for compute shaders. Returns
	// [0, 0, 0] for non-compute shaders and [1, 1, 1] as the default when
	// @workgroup_size is not specified.
	//
	// Returns:
	//   - [3]uint32: the workgroup size as [x, y, z]
	WorkgroupSize() [3]uint32

	// Visibility returns the stage mask bit matching the shader's type.
	//
	// Returns:
	//   - wgpu.ShaderStage: the stage visibility bit
	Visibility() wgpu.ShaderStage
}

var _ Shader = &shader{}

// NewShader creates a new Shader instance with all specified options applied. The shader
// source must come from exactly one of WithSource, WithSourcePath or WithPrecompiledWords;
// the stage marker macro for the shader's type is pre-defined on its pre-processor.
// Panics if no source option was provided.
//
// Parameters:
//   - key: a unique identifier for the shader, used for caching and lookups
//   - shaderType: the type of shader (vertex, fragment or compute), used for the stage
//     macro, entry point parsing and stage visibility
//   - opts: a variadic list of ShaderBuilderOption functions to configure the shader
//
// Returns:
//   - Shader: a new Shader instance with the provided configuration
func NewShader(key string, shaderType ShaderType, opts ...ShaderBuilderOption) Shader {
	cfg := &shaderConfig{}
	for _, opt := range opts {
		opt(cfg)
	}

	if cfg.source == "" && cfg.path == "" && cfg.words == nil {
		panic(fmt.Sprintf("shader: %s must have a source provided via WithSource, WithSourcePath or WithPrecompiledWords", key))
	}

	s := &shader{
		key:        key,
		shaderType: shaderType,
		source:     cfg.source,
		path:       cfg.path,
		words:      cfg.words,
		entryPoint: cfg.entryPoint,
	}
	if cfg.path != "" {
		data, err := os.ReadFile(cfg.path)
		if err != nil {
			panic(fmt.Sprintf("shader: failed to read source file %q: %v", cfg.path, err))
		}
		s.source = string(data)
	}
	if s.words != nil && s.entryPoint == "" {
		s.entryPoint = "main"
	}

	ppOpts := append([]PreProcessorBuilderOption{WithDefine(shaderType.stageMacro(), "")}, cfg.ppOpts...)
	s.pp = NewPreProcessor(ppOpts...)
	return s
}

func (s *shader) Key() string {
	return s.key
}

func (s *shader) ShaderType() ShaderType {
	return s.shaderType
}

func (s *shader) Source() string {
	return s.source
}

func (s *shader) Path() string {
	return s.path
}

func (s *shader) Compile() error {
	if s.words != nil {
		return nil
	}

	processed, err := s.pp.Process(s.source)
	if err != nil {
		cerr := s.compileError(err.Error())
		log.Printf("[Shader] %v", cerr)
		return cerr
	}

	data, err := naga.CompileWithOptions(processed, naga.CompileOptions{
		SPIRVVersion: spirv.Version1_3,
		Debug:        true,
		Validate:     true,
	})
	if err != nil {
		cerr := s.compileError(err.Error())
		log.Printf("[Shader] %v", cerr)
		return cerr
	}
	if len(data) == 0 || len(data)%4 != 0 {
		cerr := s.compileError(fmt.Sprintf("compiler produced a truncated SPIR-V binary of %d bytes", len(data)))
		log.Printf("[Shader] %v", cerr)
		return cerr
	}

	words := make([]uint32, len(data)/4)
	for i := range words {
		words[i] = uint32(data[i*4]) | uint32(data[i*4+1])<<8 | uint32(data[i*4+2])<<16 | uint32(data[i*4+3])<<24
	}
	s.words = words

	s.entryPoint = parseEntryPoint(processed, s.shaderType)
	if s.shaderType == ShaderTypeCompute {
		s.workGroupSize = parseWorkgroupSize(processed)
	}
	return nil
}

func (s *shader) Compiled() bool {
	return s.words != nil
}

func (s *shader) Words() []uint32 {
	return s.words
}

func (s *shader) Descriptors() []ShaderResource {
	if s.words == nil {
		log.Printf("[Shader] %q: reflection requested before a successful compile, returning no descriptors", s.key)
		return nil
	}
	if s.resources == nil {
		resources, err := Reflect(s.words)
		if err != nil {
			log.Printf("[Shader] %q: reflection failed: %v", s.key, err)
			return nil
		}
		if resources == nil {
			resources = []ShaderResource{}
		}
		s.resources = resources
	}
	return s.resources
}

func (s *shader) IncludeNotes() []IncludeNote {
	return s.pp.IncludeNotes()
}

func (s *shader) EntryPoint() string {
	return s.entryPoint
}

func (s *shader) WorkgroupSize() [3]uint32 {
	return s.workGroupSize
}

func (s *shader) Visibility() wgpu.ShaderStage {
	return s.shaderType.Visibility()
}

// compileError builds the diagnostic for a failed compile: file-loaded shaders report
// their path, anonymous shaders carry the literal source.
func (s *shader) compileError(message string) *CompileError {
	cerr := &CompileError{
		Key:     s.key,
		Stage:   s.shaderType.String(),
		Message: message,
	}
	if s.path != "" {
		cerr.Path = s.path
	} else {
		cerr.Source = s.source
	}
	return cerr
}
