package lang

import "testing"

func TestForExtension(t *testing.T) {
	tests := []struct {
		ext  string
		lang Language
	}{
		{".py", Python},
		{".go", Go},
		{".js", JavaScript},
		{".mjs", JavaScript},
		{".ts", TypeScript},
		{".tsx", TSX},
		{".rs", Rust},
		{".java", Java},
		{".c", C},
		{".h", C},
		{".cpp", CPP},
		{".hpp", CPP},
		{".rb", Ruby},
	}
	for _, tt := range tests {
		spec := ForExtension(tt.ext)
		if spec == nil {
			t.Errorf("ForExtension(%q) = nil, want %s", tt.ext, tt.lang)
			continue
		}
		if spec.Language != tt.lang {
			t.Errorf("ForExtension(%q).Language = %s, want %s", tt.ext, spec.Language, tt.lang)
		}
	}
}

func TestForLanguage(t *testing.T) {
	for _, lang := range AllLanguages() {
		spec := ForLanguage(lang)
		if spec == nil {
			t.Errorf("ForLanguage(%s) = nil", lang)
		}
	}
}

func TestUnknownExtension(t *testing.T) {
	if spec := ForExtension(".xyz"); spec != nil {
		t.Errorf("ForExtension(.xyz) should be nil, got %v", spec)
	}
}

func TestGoSpec(t *testing.T) {
	spec := ForLanguage(Go)
	if spec == nil {
		t.Fatal("Go spec not registered")
	}
	found := map[string]bool{}
	for _, nt := range spec.FunctionNodeTypes {
		found[nt] = true
	}
	if !found["function_declaration"] || !found["method_declaration"] {
		t.Errorf("Go FunctionNodeTypes missing expected types: %v", spec.FunctionNodeTypes)
	}
	if !spec.IsBuiltin("append") {
		t.Error("Go spec should treat append as builtin")
	}
	if spec.IsBuiltin("Process") {
		t.Error("Go spec should not treat Process as builtin")
	}
}

func TestRootBases(t *testing.T) {
	if got := ForLanguage(Python).RootBase; got != "object" {
		t.Errorf("Python RootBase = %q, want object", got)
	}
	if got := ForLanguage(Java).RootBase; got != "Object" {
		t.Errorf("Java RootBase = %q, want Object", got)
	}
	if got := ForLanguage(Go).RootBase; got != "" {
		t.Errorf("Go RootBase = %q, want empty", got)
	}
}

func TestTypeKinds(t *testing.T) {
	tests := []struct {
		lang Language
		node string
		want string
	}{
		{Python, "class_definition", "Class"},
		{Rust, "trait_item", "Trait"},
		{Rust, "union_item", "Union"},
		{Go, "struct_type", "Struct"},
		{Go, "interface_type", "Interface"},
		{CPP, "class_specifier", "Class"},
		{Java, "enum_declaration", "Enum"},
		{Ruby, "module", "Class"},
	}
	for _, tt := range tests {
		spec := ForLanguage(tt.lang)
		if spec == nil {
			t.Fatalf("ForLanguage(%s) = nil", tt.lang)
		}
		if got := spec.TypeNodeKinds[tt.node]; got != tt.want {
			t.Errorf("%s TypeNodeKinds[%q] = %q, want %q", tt.lang, tt.node, got, tt.want)
		}
	}
}
