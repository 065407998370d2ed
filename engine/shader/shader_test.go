package shader

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/cogentcore/webgpu/wgpu"
)

const computeSource = `
struct SimParams {
    dt: f32,
    count: u32,
}

@group(0) @binding(0) var<uniform> params: SimParams;
@group(0) @binding(1) var<storage, read_write> values: array<f32>;

@compute @workgroup_size(8, 4)
fn cs_main(@builtin(global_invocation_id) gid: vec3<u32>) {
    if (gid.x < params.count) {
        values[gid.x] = values[gid.x] * params.dt;
    }
}
`

// TestNewShaderPanicsWithoutSource checks the construction contract: a shader must get
// its source from exactly one of the source options.
func TestNewShaderPanicsWithoutSource(t *testing.T) {
	defer func() {
		r := recover()
		if r == nil {
			t.Fatalf("expected NewShader to panic without a source option")
		}
		if msg, ok := r.(string); !ok || !strings.Contains(msg, "must have a source") {
			t.Errorf("unexpected panic value: %v", r)
		}
	}()
	NewShader("missing", ShaderTypeCompute)
}

// TestNewShaderReadsSourceFromPath checks file-backed construction and the read-failure
// panic for paths that do not exist.
func TestNewShaderReadsSourceFromPath(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sim.wgsl")
	if err := os.WriteFile(path, []byte(computeSource), 0o644); err != nil {
		t.Fatalf("writing shader file: %v", err)
	}

	s := NewShader("sim", ShaderTypeCompute, WithSourcePath(path))
	if s.Source() != computeSource {
		t.Errorf("expected source loaded from file")
	}
	if s.Path() != path {
		t.Errorf("expected path %q, got %q", path, s.Path())
	}

	defer func() {
		if r := recover(); r == nil {
			t.Fatalf("expected NewShader to panic for an unreadable path")
		}
	}()
	NewShader("gone", ShaderTypeCompute, WithSourcePath(filepath.Join(dir, "gone.wgsl")))
}

// TestShaderTypeProperties checks the stage name and visibility mapping per shader type.
func TestShaderTypeProperties(t *testing.T) {
	tests := []struct {
		shaderType ShaderType
		name       string
		visibility wgpu.ShaderStage
	}{
		{ShaderTypeCompute, "compute", wgpu.ShaderStageCompute},
		{ShaderTypeVertex, "vertex", wgpu.ShaderStageVertex},
		{ShaderTypeFragment, "fragment", wgpu.ShaderStageFragment},
		{ShaderType(99), "unknown", wgpu.ShaderStageNone},
	}
	for _, tt := range tests {
		if got := tt.shaderType.String(); got != tt.name {
			t.Errorf("ShaderType(%d).String() = %q, want %q", tt.shaderType, got, tt.name)
		}
		if got := tt.shaderType.Visibility(); got != tt.visibility {
			t.Errorf("ShaderType(%d).Visibility() = %v, want %v", tt.shaderType, got, tt.visibility)
		}
	}
}

// TestShaderCompileCachesWords compiles a compute shader end to end and checks the cached
// words, the parsed entry point and workgroup size, and that recompiling is a no-op.
func TestShaderCompileCachesWords(t *testing.T) {
	s := NewShader("sim", ShaderTypeCompute, WithSource(computeSource))

	if s.Compiled() {
		t.Fatalf("shader reports compiled before Compile")
	}
	if err := s.Compile(); err != nil {
		t.Fatalf("Compile failed: %v", err)
	}
	if !s.Compiled() {
		t.Fatalf("shader does not report compiled after Compile")
	}

	words := s.Words()
	if len(words) == 0 {
		t.Fatalf("expected cached SPIR-V words")
	}
	if words[0] != spirvMagic {
		t.Errorf("expected SPIR-V magic 0x%08x as the first word, got 0x%08x", uint32(spirvMagic), words[0])
	}
	if got := s.EntryPoint(); got != "cs_main" {
		t.Errorf("expected entry point cs_main, got %q", got)
	}
	if got := s.WorkgroupSize(); got != [3]uint32{8, 4, 1} {
		t.Errorf("expected workgroup size [8 4 1], got %v", got)
	}
	if got := s.Visibility(); got != wgpu.ShaderStageCompute {
		t.Errorf("expected compute visibility, got %v", got)
	}

	if err := s.Compile(); err != nil {
		t.Fatalf("recompile failed: %v", err)
	}
	if again := s.Words(); &again[0] != &words[0] {
		t.Errorf("expected recompile to keep the cached words")
	}
}

// TestShaderCompileFailureIsCompileError checks that a compiler rejection surfaces as a
// *CompileError carrying the shader's origin, and that nothing is cached.
func TestShaderCompileFailureIsCompileError(t *testing.T) {
	bad := "fn broken( {"
	s := NewShader("broken", ShaderTypeVertex, WithSource(bad))

	err := s.Compile()
	if err == nil {
		t.Fatalf("expected Compile to fail")
	}

	var cerr *CompileError
	if !errors.As(err, &cerr) {
		t.Fatalf("expected a *CompileError, got %T: %v", err, err)
	}
	if cerr.Key != "broken" || cerr.Stage != "vertex" {
		t.Errorf("unexpected error identity: key %q stage %q", cerr.Key, cerr.Stage)
	}
	if cerr.Source != bad || cerr.Path != "" {
		t.Errorf("expected anonymous origin carrying the literal source, got path %q source %q", cerr.Path, cerr.Source)
	}
	if !strings.Contains(err.Error(), "inline source") {
		t.Errorf("expected the message to name the inline origin, got %q", err.Error())
	}

	if s.Compiled() || s.Words() != nil {
		t.Errorf("expected nothing cached after a failed compile")
	}
}

// TestShaderStageMacroSelectsVariant compiles one source carrying two stage variants
// behind stage marker conditionals, once per type, and checks each compile sees only its
// own entry point.
func TestShaderStageMacroSelectsVariant(t *testing.T) {
	source := strings.Join([]string{
		"#ifdef PRISM_COMPUTE_SHADER",
		"@compute @workgroup_size(64)",
		"fn cs_main() {",
		"}",
		"#endif",
		"#ifdef PRISM_VERTEX_SHADER",
		"@vertex",
		"fn vs_main() -> @builtin(position) vec4<f32> {",
		"    return vec4<f32>(0.0, 0.0, 0.0, 1.0);",
		"}",
		"#endif",
	}, "\n")

	compute := NewShader("variant", ShaderTypeCompute, WithSource(source))
	if err := compute.Compile(); err != nil {
		t.Fatalf("compute variant failed: %v", err)
	}
	if got := compute.EntryPoint(); got != "cs_main" {
		t.Errorf("expected compute entry cs_main, got %q", got)
	}
	if got := compute.WorkgroupSize(); got != [3]uint32{64, 1, 1} {
		t.Errorf("expected workgroup size [64 1 1], got %v", got)
	}

	vertex := NewShader("variant", ShaderTypeVertex, WithSource(source))
	if err := vertex.Compile(); err != nil {
		t.Fatalf("vertex variant failed: %v", err)
	}
	if got := vertex.EntryPoint(); got != "vs_main" {
		t.Errorf("expected vertex entry vs_main, got %q", got)
	}
	if got := vertex.WorkgroupSize(); got != [3]uint32{0, 0, 0} {
		t.Errorf("expected no workgroup size on a vertex shader, got %v", got)
	}
}

// TestShaderDescriptorsBeforeCompile checks the reflection precondition: no compiled
// words means a warning and an empty result, not a panic.
func TestShaderDescriptorsBeforeCompile(t *testing.T) {
	s := NewShader("early", ShaderTypeCompute, WithSource(computeSource))
	if got := s.Descriptors(); got != nil {
		t.Errorf("expected no descriptors before compile, got %+v", got)
	}
}

// TestShaderDescriptorsFromCompiledSource compiles WGSL and checks the reflected kind
// counts and stage mask. Binding numbers are asserted through the precompiled-words path
// instead, where the module is constructed directly.
func TestShaderDescriptorsFromCompiledSource(t *testing.T) {
	s := NewShader("sim", ShaderTypeCompute, WithSource(computeSource))
	if err := s.Compile(); err != nil {
		t.Fatalf("Compile failed: %v", err)
	}

	descriptors := s.Descriptors()
	if len(descriptors) == 0 {
		t.Fatalf("expected reflected descriptors")
	}

	counts := make(map[ResourceKind]int)
	for _, res := range descriptors {
		counts[res.Kind]++
		if res.Stages != wgpu.ShaderStageCompute {
			t.Errorf("descriptor %q: expected compute stage mask, got %v", res.Name, res.Stages)
		}
	}
	if counts[ResourceKindBufferUniform] != 1 {
		t.Errorf("expected 1 uniform buffer, got %d", counts[ResourceKindBufferUniform])
	}
	if counts[ResourceKindBufferStorage] != 1 {
		t.Errorf("expected 1 storage buffer, got %d", counts[ResourceKindBufferStorage])
	}

	if again := s.Descriptors(); len(again) != len(descriptors) {
		t.Errorf("expected reflection result to be cached")
	}
}

// TestShaderPrecompiledWords checks the precompiled path: Compile is a no-op, the default
// entry point applies, and reflection sees the exact set and binding decorations carried
// by the words.
func TestShaderPrecompiledWords(t *testing.T) {
	words := spirvWords(
		entryPointOf(modelGLCompute, 90, "main"),
		nameOf(12, "uParams"),
		decorate(10, decBlock),
		memberDecorate(10, 0, decOffset, 0),
		decorate(12, decDescriptorSet, 1),
		decorate(12, decBinding, 3),
		ins(opTypeFloat, 1, 32),
		ins(opTypeVector, 2, 1, 4),
		ins(opTypeStruct, 10, 2),
		ins(opTypePointer, 11, classUniform, 10),
		ins(opVariable, 11, 12, classUniform),
	)

	s := NewShader("precompiled", ShaderTypeCompute, WithPrecompiledWords(words))
	if !s.Compiled() {
		t.Fatalf("expected precompiled shader to report compiled")
	}
	if err := s.Compile(); err != nil {
		t.Fatalf("Compile on precompiled words failed: %v", err)
	}
	if got := s.EntryPoint(); got != "main" {
		t.Errorf("expected default entry point main, got %q", got)
	}

	descriptors := s.Descriptors()
	if len(descriptors) != 1 {
		t.Fatalf("expected 1 descriptor, got %d: %+v", len(descriptors), descriptors)
	}
	got := descriptors[0]
	if got.Kind != ResourceKindBufferUniform || got.Set != 1 || got.Binding != 3 {
		t.Errorf("expected uniform buffer at set 1 binding 3, got %+v", got)
	}
	if got.Name != "uParams" || got.Size != 16 {
		t.Errorf("expected uParams of size 16, got name %q size %d", got.Name, got.Size)
	}

	override := NewShader("precompiled", ShaderTypeCompute,
		WithPrecompiledWords(words), WithEntryPoint("entry"))
	if got := override.EntryPoint(); got != "entry" {
		t.Errorf("expected entry point override, got %q", got)
	}
}

// TestShaderIncludeNotesSurfaceAfterCompile checks that include diagnostics from the
// pre-processing pass are readable off the shader, and that an unresolved include under
// the locate-only default does not fail the compile.
func TestShaderIncludeNotesSurfaceAfterCompile(t *testing.T) {
	source := "#include \"palette.wgsl\"\n" + computeSource
	s := NewShader("noted", ShaderTypeCompute, WithSource(source))

	if err := s.Compile(); err != nil {
		t.Fatalf("Compile failed: %v", err)
	}

	notes := s.IncludeNotes()
	if len(notes) != 1 {
		t.Fatalf("expected 1 include note, got %d: %+v", len(notes), notes)
	}
	if notes[0].Path != "palette.wgsl" || notes[0].Found || notes[0].Expanded {
		t.Errorf("unexpected include note: %+v", notes[0])
	}
	if len(s.Descriptors()) == 0 {
		t.Errorf("expected reflection to work on the compiled words")
	}
}

// TestCompileErrorMessage checks the two origin renderings of the error string.
func TestCompileErrorMessage(t *testing.T) {
	withPath := &CompileError{Key: "sky", Stage: "fragment", Path: "shaders/sky.wgsl", Message: "bad token"}
	if got := withPath.Error(); !strings.Contains(got, "shaders/sky.wgsl") || !strings.Contains(got, "bad token") {
		t.Errorf("expected path origin in %q", got)
	}

	inline := &CompileError{Key: "sky", Stage: "fragment", Source: "fn x", Message: "bad token"}
	if got := inline.Error(); !strings.Contains(got, "inline source") {
		t.Errorf("expected inline origin in %q", got)
	}
}
