package shader

import "testing"

// TestParseEntryPoint checks entry point extraction per shader type, including sources
// where stage annotations only appear inside comments.
func TestParseEntryPoint(t *testing.T) {
	tests := []struct {
		name       string
		source     string
		shaderType ShaderType
		want       string
	}{
		{
			name:       "vertex entry",
			source:     "@vertex\nfn vs_main() -> @builtin(position) vec4<f32> {}",
			shaderType: ShaderTypeVertex,
			want:       "vs_main",
		},
		{
			name:       "fragment entry",
			source:     "@fragment\nfn fs_main() -> @location(0) vec4<f32> {}",
			shaderType: ShaderTypeFragment,
			want:       "fs_main",
		},
		{
			name:       "compute entry with workgroup attribute between marker and fn",
			source:     "@compute @workgroup_size(8, 8, 1)\nfn cs_main() {}",
			shaderType: ShaderTypeCompute,
			want:       "cs_main",
		},
		{
			name:       "annotation in a line comment is ignored",
			source:     "// @compute fn fake()\n@compute @workgroup_size(1)\nfn real() {}",
			shaderType: ShaderTypeCompute,
			want:       "real",
		},
		{
			name:       "annotation in a nested block comment is ignored",
			source:     "/* @vertex /* nested */ fn hidden() */\n@vertex\nfn visible() {}",
			shaderType: ShaderTypeVertex,
			want:       "visible",
		},
		{
			name:       "missing annotation",
			source:     "@fragment\nfn fs_main() {}",
			shaderType: ShaderTypeVertex,
			want:       "",
		},
		{
			name:       "unknown shader type",
			source:     "@vertex\nfn vs_main() {}",
			shaderType: ShaderType(99),
			want:       "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := parseEntryPoint(tt.source, tt.shaderType); got != tt.want {
				t.Errorf("parseEntryPoint() = %q, want %q", got, tt.want)
			}
		})
	}
}

// TestParseWorkgroupSize checks dimension extraction with the unspecified trailing
// dimensions defaulting to 1.
func TestParseWorkgroupSize(t *testing.T) {
	tests := []struct {
		name   string
		source string
		want   [3]uint32
	}{
		{
			name:   "one dimension",
			source: "@compute @workgroup_size(64)\nfn main() {}",
			want:   [3]uint32{64, 1, 1},
		},
		{
			name:   "two dimensions",
			source: "@compute @workgroup_size(8, 8)\nfn main() {}",
			want:   [3]uint32{8, 8, 1},
		},
		{
			name:   "three dimensions with spacing",
			source: "@compute @workgroup_size( 4 , 2 , 1 )\nfn main() {}",
			want:   [3]uint32{4, 2, 1},
		},
		{
			name:   "no annotation",
			source: "@compute\nfn main() {}",
			want:   [3]uint32{1, 1, 1},
		},
		{
			name:   "annotation only in a comment",
			source: "// @workgroup_size(32)\n@compute @workgroup_size(2)\nfn main() {}",
			want:   [3]uint32{2, 1, 1},
		},
		{
			name:   "named constant dimensions are not parsed",
			source: "@compute @workgroup_size(TILE)\nfn main() {}",
			want:   [3]uint32{1, 1, 1},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := parseWorkgroupSize(tt.source); got != tt.want {
				t.Errorf("parseWorkgroupSize() = %v, want %v", got, tt.want)
			}
		})
	}
}
