package shader

// shaderConfig collects builder options before NewShader assembles the shader.
type shaderConfig struct {
	source     string
	path       string
	words      []uint32
	entryPoint string
	ppOpts     []PreProcessorBuilderOption
}

// ShaderBuilderOption is a functional option used to configure a Shader during construction.
type ShaderBuilderOption func(*shaderConfig)

// WithSource provides the shader source as an anonymous literal. Compile diagnostics for
// anonymous shaders carry the literal source instead of a file path.
//
// Parameters:
//   - source: the raw shader source
//
// Returns:
//   - ShaderBuilderOption: a function that sets the shader source
func WithSource(source string) ShaderBuilderOption {
	return func(c *shaderConfig) {
		c.source = source
	}
}

// WithSourcePath loads the shader source from a file. The path is kept as the shader's
// origin for compile diagnostics. Construction panics if the file cannot be read.
//
// Parameters:
//   - path: the source file path
//
// Returns:
//   - ShaderBuilderOption: a function that sets the source path
func WithSourcePath(path string) ShaderBuilderOption {
	return func(c *shaderConfig) {
		c.path = path
	}
}

// WithPrecompiledWords provides already-compiled SPIR-V words, skipping the compile
// pipeline entirely: Compile becomes a no-op and reflection runs on the given words. The
// slice is adopted, not copied.
//
// Parameters:
//   - words: the SPIR-V binary as host-order words
//
// Returns:
//   - ShaderBuilderOption: a function that sets the precompiled words
func WithPrecompiledWords(words []uint32) ShaderBuilderOption {
	return func(c *shaderConfig) {
		c.words = words
	}
}

// WithEntryPoint overrides the entry point name. Mainly useful for precompiled shaders,
// where no source is available to parse; source-built shaders parse the name from the
// processed source during Compile.
//
// Parameters:
//   - name: the entry point function name
//
// Returns:
//   - ShaderBuilderOption: a function that sets the entry point name
func WithEntryPoint(name string) ShaderBuilderOption {
	return func(c *shaderConfig) {
		c.entryPoint = name
	}
}

// WithMacro defines a pre-processor symbol for this shader's compiles, alongside the
// stage marker macro. A symbol with a non-empty value is substituted into the source on
// word boundaries.
//
// Parameters:
//   - name: the symbol name
//   - value: the replacement text, or empty for a flag symbol
//
// Returns:
//   - ShaderBuilderOption: a function that registers the symbol
func WithMacro(name, value string) ShaderBuilderOption {
	return func(c *shaderConfig) {
		c.ppOpts = append(c.ppOpts, WithDefine(name, value))
	}
}

// WithIncludeRoots sets the directories this shader's include directives resolve against,
// tried in order.
//
// Parameters:
//   - roots: the search root directories
//
// Returns:
//   - ShaderBuilderOption: a function that sets the include search roots
func WithIncludeRoots(roots ...string) ShaderBuilderOption {
	return func(c *shaderConfig) {
		c.ppOpts = append(c.ppOpts, WithSearchRoots(roots...))
	}
}

// WithExpandedIncludes switches this shader's include handling from the locate-only
// default to full textual expansion.
//
// Parameters:
//   - expand: true to substitute include bodies into the source
//
// Returns:
//   - ShaderBuilderOption: a function that sets the include policy
func WithExpandedIncludes(expand bool) ShaderBuilderOption {
	return func(c *shaderConfig) {
		c.ppOpts = append(c.ppOpts, WithIncludeExpansion(expand))
	}
}
