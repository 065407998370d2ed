// pre_processor.go implements the shader source pre-processor that runs before cross
// compilation. It handles symbol definitions and conditional blocks, substitutes valued
// macros into emitted lines, and applies the include policy: by default include directives
// are only located against the search roots and reported as diagnostics, with full textual
// expansion available as an opt-in. The locate-only default mirrors systems that treat
// includes as dependency declarations rather than source composition.
package shader

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"unicode"
)

// maxIncludeDepth bounds nested include expansion, catching include cycles.
const maxIncludeDepth = 16

// includeRegex captures the quoted or angle-bracketed path of an include directive.
var includeRegex = regexp.MustCompile(`^#include\s+(?:"([^"]+)"|<([^>]+)>)`)

// IncludeNote is the diagnostic record of one include directive encountered while
// processing. Notes are emitted for found and missing files alike so callers can audit a
// shader's dependency set without enabling expansion.
type IncludeNote struct {
	// Path is the include path as written in the directive.
	Path string
	// Resolved is the filesystem path the directive resolved to, empty when not found.
	Resolved string
	// Found reports whether the path resolved against any search root.
	Found bool
	// Line is the 1-based line of the directive within the chunk that contained it.
	Line int
	// Expanded reports whether the file's contents were substituted into the output.
	Expanded bool
}

// conditionFrame tracks one open conditional block during processing.
type conditionFrame struct {
	// active reports whether lines in the current branch are emitted. It already folds in
	// the liveness of the enclosing context.
	active bool
	// taken reports whether any branch of this conditional has been active.
	taken bool
	// parentLive records whether the enclosing context was emitting when the block opened.
	parentLive bool
}

// preProcessor is the implementation of the PreProcessor interface.
type preProcessor struct {
	// defines maps symbol names to their values; a plain flag symbol has an empty value.
	defines map[string]string
	// patterns caches the word-boundary pattern for each valued symbol.
	patterns map[string]*regexp.Regexp
	// valuedNames is the sorted list of symbols with non-empty values, kept current by
	// Define and Undefine so substitution order is deterministic.
	valuedNames []string
	// searchRoots are the directories include paths resolve against, in order.
	searchRoots []string
	// expandIncludes substitutes located include bodies into the output when true.
	expandIncludes bool
	// notes accumulates include diagnostics during a Process call.
	notes []IncludeNote
}

// PreProcessor processes raw shader source ahead of cross compilation: it strips or
// expands include directives, evaluates conditional blocks against the defined symbols,
// and substitutes valued macros into the surviving lines. Symbols defined by the source
// itself persist on the instance after Process returns.
type PreProcessor interface {
	// Process pre-processes the source and returns the text to hand to the compiler.
	// The include diagnostics list is reset at the start of each call and can be
	// retrieved via IncludeNotes after Process returns.
	//
	// Parameters:
	//   - source: the raw shader source
	//
	// Returns:
	//   - string: the processed source
	//   - error: a malformed-directive error, or nil
	Process(source string) (string, error)

	// IncludeNotes returns the include diagnostics collected during the most recent call
	// to Process, in encounter order. Returns nil if Process has not been called.
	//
	// Returns:
	//   - []IncludeNote: the collected include diagnostics
	IncludeNotes() []IncludeNote

	// Define registers a symbol. A symbol with a non-empty value is substituted into
	// emitted lines on word boundaries; a flag symbol only drives conditionals.
	//
	// Parameters:
	//   - name: the symbol name
	//   - value: the replacement text, or empty for a flag symbol
	Define(name, value string)

	// Undefine removes a symbol.
	//
	// Parameters:
	//   - name: the symbol name
	Undefine(name string)

	// Defined reports whether a symbol is currently defined.
	//
	// Parameters:
	//   - name: the symbol name
	//
	// Returns:
	//   - bool: true if the symbol is defined
	Defined(name string) bool
}

var _ PreProcessor = &preProcessor{}

// PreProcessorBuilderOption is a functional option used to configure a PreProcessor during construction.
type PreProcessorBuilderOption func(*preProcessor)

// WithDefine pre-registers a symbol before any source is processed.
//
// Parameters:
//   - name: the symbol name
//   - value: the replacement text, or empty for a flag symbol
//
// Returns:
//   - PreProcessorBuilderOption: a function that registers the symbol
func WithDefine(name, value string) PreProcessorBuilderOption {
	return func(p *preProcessor) {
		p.Define(name, value)
	}
}

// WithSearchRoots sets the directories include paths resolve against, tried in order.
//
// Parameters:
//   - roots: the search root directories
//
// Returns:
//   - PreProcessorBuilderOption: a function that sets the search roots
func WithSearchRoots(roots ...string) PreProcessorBuilderOption {
	return func(p *preProcessor) {
		p.searchRoots = roots
	}
}

// WithIncludeExpansion switches include handling from the locate-only default to full
// textual expansion. With expansion enabled a directive whose path cannot be located
// becomes a processing error instead of a diagnostic.
//
// Parameters:
//   - expand: true to substitute include bodies into the output
//
// Returns:
//   - PreProcessorBuilderOption: a function that sets the include policy
func WithIncludeExpansion(expand bool) PreProcessorBuilderOption {
	return func(p *preProcessor) {
		p.expandIncludes = expand
	}
}

// NewPreProcessor creates a new PreProcessor with the provided options.
//
// Parameters:
//   - opts: a variadic list of PreProcessorBuilderOption functions to configure the instance
//
// Returns:
//   - PreProcessor: a ready-to-use pre-processor instance
func NewPreProcessor(opts ...PreProcessorBuilderOption) PreProcessor {
	p := &preProcessor{
		defines:  make(map[string]string),
		patterns: make(map[string]*regexp.Regexp),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *preProcessor) Process(source string) (string, error) {
	p.notes = p.notes[:0]
	var out []string
	if err := p.processChunk(source, 0, &out); err != nil {
		return "", err
	}
	return strings.Join(out, "\n"), nil
}

func (p *preProcessor) IncludeNotes() []IncludeNote {
	return p.notes
}

func (p *preProcessor) Define(name, value string) {
	if name == "" {
		return
	}
	p.defines[name] = value
	if value != "" {
		p.patterns[name] = regexp.MustCompile(`\b` + regexp.QuoteMeta(name) + `\b`)
	} else {
		delete(p.patterns, name)
	}
	p.rebuildValuedNames()
}

func (p *preProcessor) Undefine(name string) {
	delete(p.defines, name)
	delete(p.patterns, name)
	p.rebuildValuedNames()
}

func (p *preProcessor) Defined(name string) bool {
	_, ok := p.defines[name]
	return ok
}

// rebuildValuedNames refreshes the sorted substitution order after a symbol change.
func (p *preProcessor) rebuildValuedNames() {
	p.valuedNames = p.valuedNames[:0]
	for name, value := range p.defines {
		if value != "" {
			p.valuedNames = append(p.valuedNames, name)
		}
	}
	sort.Strings(p.valuedNames)
}

// processChunk runs the directive scan over one source chunk, appending emitted lines to
// out. Included files re-enter here with an incremented depth.
func (p *preProcessor) processChunk(source string, depth int, out *[]string) error {
	if depth > maxIncludeDepth {
		return fmt.Errorf("include depth exceeds %d, likely an include cycle", maxIncludeDepth)
	}

	var stack []conditionFrame
	emitting := func() bool {
		return len(stack) == 0 || stack[len(stack)-1].active
	}

	lines := strings.Split(source, "\n")
	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		if !strings.HasPrefix(trimmed, "#") {
			if emitting() {
				*out = append(*out, p.expandMacros(line))
			}
			continue
		}

		directive := trimmed
		if idx := strings.IndexFunc(trimmed, unicode.IsSpace); idx >= 0 {
			directive = trimmed[:idx]
		}

		switch directive {
		case "#define":
			if !emitting() {
				continue
			}
			rest := strings.TrimSpace(trimmed[len("#define"):])
			name, value := rest, ""
			if idx := strings.IndexFunc(rest, unicode.IsSpace); idx >= 0 {
				name, value = rest[:idx], strings.TrimSpace(rest[idx:])
			}
			if name == "" {
				return fmt.Errorf("line %d: #define requires a symbol name", i+1)
			}
			p.Define(name, value)

		case "#undef":
			if !emitting() {
				continue
			}
			name := strings.TrimSpace(trimmed[len("#undef"):])
			if name == "" {
				return fmt.Errorf("line %d: #undef requires a symbol name", i+1)
			}
			p.Undefine(name)

		case "#ifdef", "#ifndef":
			name := strings.TrimSpace(trimmed[len(directive):])
			if name == "" {
				return fmt.Errorf("line %d: %s requires a symbol name", i+1, directive)
			}
			cond := p.Defined(name)
			if directive == "#ifndef" {
				cond = !cond
			}
			parentLive := emitting()
			stack = append(stack, conditionFrame{
				active:     parentLive && cond,
				taken:      cond,
				parentLive: parentLive,
			})

		case "#else":
			if len(stack) == 0 {
				return fmt.Errorf("line %d: #else without a matching #ifdef", i+1)
			}
			top := &stack[len(stack)-1]
			top.active = top.parentLive && !top.taken
			top.taken = true

		case "#endif":
			if len(stack) == 0 {
				return fmt.Errorf("line %d: #endif without a matching #ifdef", i+1)
			}
			stack = stack[:len(stack)-1]

		case "#include":
			if !emitting() {
				continue
			}
			if err := p.handleInclude(trimmed, i+1, depth, out); err != nil {
				return err
			}

		default:
			// Not one of ours; let the compiler report it in context.
			if emitting() {
				*out = append(*out, line)
			}
		}
	}

	if len(stack) != 0 {
		return fmt.Errorf("unterminated conditional, %d open #ifdef block(s) at end of source", len(stack))
	}
	return nil
}

// handleInclude applies the include policy to one directive: locate the path, record the
// diagnostic, and either expand the body or strip the line.
func (p *preProcessor) handleInclude(trimmed string, line, depth int, out *[]string) error {
	match := includeRegex.FindStringSubmatch(trimmed)
	if match == nil {
		return fmt.Errorf("line %d: malformed #include directive", line)
	}
	path := match[1]
	if path == "" {
		path = match[2]
	}

	resolved, found := p.locate(path)
	note := IncludeNote{Path: path, Resolved: resolved, Found: found, Line: line}

	if p.expandIncludes {
		if !found {
			p.notes = append(p.notes, note)
			return fmt.Errorf("line %d: include %q not found in any search root", line, path)
		}
		data, err := os.ReadFile(resolved)
		if err != nil {
			p.notes = append(p.notes, note)
			return fmt.Errorf("line %d: include %q: %v", line, path, err)
		}
		note.Expanded = true
		p.notes = append(p.notes, note)
		return p.processChunk(string(data), depth+1, out)
	}

	p.notes = append(p.notes, note)
	if found {
		log.Printf("[PreProcessor] include %q located at %q, body not expanded", path, resolved)
	} else {
		log.Printf("[PreProcessor] include %q could not be located", path)
	}
	return nil
}

// locate resolves an include path against the search roots, falling back to the working
// directory when no roots are configured.
func (p *preProcessor) locate(path string) (string, bool) {
	if filepath.IsAbs(path) {
		if _, err := os.Stat(path); err == nil {
			return path, true
		}
		return "", false
	}
	roots := p.searchRoots
	if len(roots) == 0 {
		roots = []string{"."}
	}
	for _, root := range roots {
		candidate := filepath.Join(root, path)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, true
		}
	}
	return "", false
}

// expandMacros substitutes every valued symbol into the line on word boundaries, in
// sorted symbol order.
func (p *preProcessor) expandMacros(line string) string {
	for _, name := range p.valuedNames {
		line = p.patterns[name].ReplaceAllString(line, p.defines[name])
	}
	return line
}
