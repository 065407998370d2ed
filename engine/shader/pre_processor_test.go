package shader

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// TestProcessPassesPlainSourceThrough checks that source without directives, including
// pragmas the pre-processor does not own, survives processing unchanged.
func TestProcessPassesPlainSourceThrough(t *testing.T) {
	pp := NewPreProcessor()

	source := "#version 450\n\nvoid main() {\n    gl_FragColor = vec4(1.0);\n}"
	got, err := pp.Process(source)
	if err != nil {
		t.Fatalf("Process failed: %v", err)
	}
	if got != source {
		t.Errorf("expected source unchanged:\n got %q\nwant %q", got, source)
	}
}

// TestProcessConditionals covers #ifdef, #ifndef and #else branch selection, including a
// dead outer block suppressing a live inner block.
func TestProcessConditionals(t *testing.T) {
	tests := []struct {
		name   string
		opts   []PreProcessorBuilderOption
		source string
		want   string
	}{
		{
			name:   "ifdef taken",
			opts:   []PreProcessorBuilderOption{WithDefine("USE_FOG", "")},
			source: "#ifdef USE_FOG\nfog();\n#endif\ndone();",
			want:   "fog();\ndone();",
		},
		{
			name:   "ifdef skipped",
			source: "#ifdef USE_FOG\nfog();\n#endif\ndone();",
			want:   "done();",
		},
		{
			name:   "ifndef taken",
			source: "#ifndef USE_FOG\nflat();\n#endif",
			want:   "flat();",
		},
		{
			name:   "else branch",
			source: "#ifdef USE_FOG\nfog();\n#else\nflat();\n#endif",
			want:   "flat();",
		},
		{
			name:   "else not taken when branch was live",
			opts:   []PreProcessorBuilderOption{WithDefine("USE_FOG", "")},
			source: "#ifdef USE_FOG\nfog();\n#else\nflat();\n#endif",
			want:   "fog();",
		},
		{
			name:   "dead outer suppresses live inner",
			opts:   []PreProcessorBuilderOption{WithDefine("INNER", "")},
			source: "#ifdef OUTER\n#ifdef INNER\ninner();\n#endif\nouter();\n#endif\nafter();",
			want:   "after();",
		},
		{
			name:   "else of dead outer stays dead for inner skip",
			opts:   []PreProcessorBuilderOption{WithDefine("OUTER", "")},
			source: "#ifdef OUTER\nlive();\n#else\n#ifdef OUTER\nnever();\n#endif\ndead();\n#endif",
			want:   "live();",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pp := NewPreProcessor(tt.opts...)
			got, err := pp.Process(tt.source)
			if err != nil {
				t.Fatalf("Process failed: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

// TestProcessDefineSubstitution checks valued macro substitution on word boundaries, flag
// symbols staying textually inert, and #undef ending substitution.
func TestProcessDefineSubstitution(t *testing.T) {
	pp := NewPreProcessor()

	source := strings.Join([]string{
		"#define TILE_SIZE 16",
		"#define HAS_NORMALS",
		"var tiles: array<f32, TILE_SIZE>;",
		"var retile: RETILE_SIZE;",
		"flag HAS_NORMALS;",
		"#undef TILE_SIZE",
		"var after: TILE_SIZE;",
	}, "\n")

	got, err := pp.Process(source)
	if err != nil {
		t.Fatalf("Process failed: %v", err)
	}

	want := strings.Join([]string{
		"var tiles: array<f32, 16>;",
		"var retile: RETILE_SIZE;",
		"flag HAS_NORMALS;",
		"var after: TILE_SIZE;",
	}, "\n")
	if got != want {
		t.Errorf("got:\n%q\nwant:\n%q", got, want)
	}
}

// TestProcessDefineInsideDeadBranchIgnored checks that directives inside a dead
// conditional neither register symbols nor affect later blocks.
func TestProcessDefineInsideDeadBranchIgnored(t *testing.T) {
	pp := NewPreProcessor()

	source := strings.Join([]string{
		"#ifdef NEVER",
		"#define GHOST 1",
		"#endif",
		"#ifdef GHOST",
		"haunted();",
		"#endif",
		"clear();",
	}, "\n")

	got, err := pp.Process(source)
	if err != nil {
		t.Fatalf("Process failed: %v", err)
	}
	if got != "clear();" {
		t.Errorf("got %q, want %q", got, "clear();")
	}
	if pp.Defined("GHOST") {
		t.Errorf("expected GHOST to stay undefined after a dead-branch #define")
	}
}

// TestProcessDirectiveErrors checks the malformed-directive error paths.
func TestProcessDirectiveErrors(t *testing.T) {
	tests := []struct {
		name    string
		source  string
		wantErr string
	}{
		{
			name:    "else without ifdef",
			source:  "#else",
			wantErr: "#else without a matching #ifdef",
		},
		{
			name:    "endif without ifdef",
			source:  "#endif",
			wantErr: "#endif without a matching #ifdef",
		},
		{
			name:    "unterminated conditional",
			source:  "#ifdef A\n#ifdef B\n#endif",
			wantErr: "unterminated conditional, 1 open",
		},
		{
			name:    "define without name",
			source:  "#define",
			wantErr: "#define requires a symbol name",
		},
		{
			name:    "undef without name",
			source:  "#undef",
			wantErr: "#undef requires a symbol name",
		},
		{
			name:    "ifdef without name",
			source:  "#ifdef",
			wantErr: "#ifdef requires a symbol name",
		},
		{
			name:    "malformed include",
			source:  `#include noquotes`,
			wantErr: "malformed #include directive",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pp := NewPreProcessor()
			if _, err := pp.Process(tt.source); err == nil {
				t.Fatalf("expected an error for %s", tt.name)
			} else if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("expected error containing %q, got %q", tt.wantErr, err.Error())
			}
		})
	}
}

// TestProcessIncludeLocateOnly checks the default include policy: directives are stripped
// from the output and reported as notes whether or not the path resolves, and a missing
// include is not an error.
func TestProcessIncludeLocateOnly(t *testing.T) {
	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, "lighting.glsl"), []byte("vec3 lit();"), 0o644); err != nil {
		t.Fatalf("writing include file: %v", err)
	}

	pp := NewPreProcessor(WithSearchRoots(root))
	source := strings.Join([]string{
		`#include "lighting.glsl"`,
		`#include <missing/common.glsl>`,
		"void main() {}",
	}, "\n")

	got, err := pp.Process(source)
	if err != nil {
		t.Fatalf("Process failed: %v", err)
	}
	if got != "void main() {}" {
		t.Errorf("expected include lines stripped, got %q", got)
	}

	notes := pp.IncludeNotes()
	if len(notes) != 2 {
		t.Fatalf("expected 2 include notes, got %d: %+v", len(notes), notes)
	}

	found := notes[0]
	if !found.Found || found.Expanded || found.Path != "lighting.glsl" || found.Line != 1 {
		t.Errorf("unexpected note for located include: %+v", found)
	}
	if found.Resolved != filepath.Join(root, "lighting.glsl") {
		t.Errorf("expected resolved path under the search root, got %q", found.Resolved)
	}

	missing := notes[1]
	if missing.Found || missing.Expanded || missing.Resolved != "" || missing.Line != 2 {
		t.Errorf("unexpected note for missing include: %+v", missing)
	}
}

// TestProcessIncludeExpansion checks opt-in textual expansion: bodies are substituted
// recursively, symbols defined by an include affect the including file, a missing path
// becomes an error, and include cycles are cut off by the depth limit.
func TestProcessIncludeExpansion(t *testing.T) {
	root := t.TempDir()
	writeFile := func(name, body string) {
		t.Helper()
		if err := os.WriteFile(filepath.Join(root, name), []byte(body), 0o644); err != nil {
			t.Fatalf("writing %s: %v", name, err)
		}
	}
	writeFile("constants.glsl", "#define MAX_LIGHTS 4")
	writeFile("lighting.glsl", "#include \"constants.glsl\"\nvec3 lights[MAX_LIGHTS];")
	writeFile("cycle.glsl", "#include \"cycle.glsl\"")

	t.Run("recursive expansion", func(t *testing.T) {
		pp := NewPreProcessor(WithSearchRoots(root), WithIncludeExpansion(true))
		got, err := pp.Process("#include \"lighting.glsl\"\nvoid shade(lights[MAX_LIGHTS - 1]);")
		if err != nil {
			t.Fatalf("Process failed: %v", err)
		}
		want := "vec3 lights[4];\nvoid shade(lights[4 - 1]);"
		if got != want {
			t.Errorf("got %q, want %q", got, want)
		}

		notes := pp.IncludeNotes()
		if len(notes) != 2 {
			t.Fatalf("expected 2 include notes, got %d: %+v", len(notes), notes)
		}
		for _, note := range notes {
			if !note.Expanded {
				t.Errorf("expected note marked expanded: %+v", note)
			}
		}
	})

	t.Run("missing include is an error", func(t *testing.T) {
		pp := NewPreProcessor(WithSearchRoots(root), WithIncludeExpansion(true))
		_, err := pp.Process("#include \"nope.glsl\"")
		if err == nil || !strings.Contains(err.Error(), "not found in any search root") {
			t.Fatalf("expected a not-found error, got %v", err)
		}
	})

	t.Run("cycle hits depth limit", func(t *testing.T) {
		pp := NewPreProcessor(WithSearchRoots(root), WithIncludeExpansion(true))
		_, err := pp.Process("#include \"cycle.glsl\"")
		if err == nil || !strings.Contains(err.Error(), "include depth exceeds") {
			t.Fatalf("expected a depth error, got %v", err)
		}
	})
}

// TestDefinePersistence checks the symbol API directly and that symbols defined by one
// Process call are visible to the next, while include notes are reset per call.
func TestDefinePersistence(t *testing.T) {
	pp := NewPreProcessor()

	pp.Define("LOD_BIAS", "0.5")
	if !pp.Defined("LOD_BIAS") {
		t.Fatalf("expected LOD_BIAS defined")
	}
	pp.Undefine("LOD_BIAS")
	if pp.Defined("LOD_BIAS") {
		t.Fatalf("expected LOD_BIAS undefined after Undefine")
	}

	if _, err := pp.Process("#define PASS_TWO"); err != nil {
		t.Fatalf("Process failed: %v", err)
	}
	got, err := pp.Process("#ifdef PASS_TWO\nsecond();\n#endif")
	if err != nil {
		t.Fatalf("Process failed: %v", err)
	}
	if got != "second();" {
		t.Errorf("expected symbol from the first pass to persist, got %q", got)
	}
	if notes := pp.IncludeNotes(); len(notes) != 0 {
		t.Errorf("expected no include notes, got %+v", notes)
	}
}
