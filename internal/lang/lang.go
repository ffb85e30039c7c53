// Package lang holds the per-language extraction profiles: which tree-sitter
// node kinds declare functions, types, variables, macros, imports and calls,
// which identifiers are builtins, and which base class is the universal root.
// Profiles register themselves by file extension at init time; dispatch is a
// single registry lookup, never runtime branching on language names.
package lang

// Language represents a supported programming language.
type Language string

const (
	Python     Language = "python"
	JavaScript Language = "javascript"
	TypeScript Language = "typescript"
	TSX        Language = "tsx"
	Go         Language = "go"
	Rust       Language = "rust"
	C          Language = "c"
	CPP        Language = "cpp"
	Java       Language = "java"
	Ruby       Language = "ruby"
)

// AllLanguages returns all supported languages.
func AllLanguages() []Language {
	return []Language{Python, JavaScript, TypeScript, TSX, Go, Rust, C, CPP, Java, Ruby}
}

// LanguageSpec defines the extraction profile for a language.
type LanguageSpec struct {
	Language       Language
	FileExtensions []string

	// FunctionNodeTypes lists node kinds declaring functions and methods.
	FunctionNodeTypes []string
	// TypeNodeKinds maps class-like node kinds to their node label
	// (Class, Struct, Enum, Union, Trait, Interface).
	TypeNodeKinds map[string]string
	// VariableNodeTypes lists file-level variable declaration node kinds.
	VariableNodeTypes []string
	// MacroNodeTypes lists macro definition node kinds.
	MacroNodeTypes []string
	// CallNodeTypes lists call-site node kinds.
	CallNodeTypes []string
	// ImportNodeTypes lists import statement node kinds.
	ImportNodeTypes []string

	// BranchingNodeTypes lists node kinds counted for cyclomatic complexity.
	BranchingNodeTypes []string

	// Builtins are called names that are never call-resolution targets.
	Builtins map[string]struct{}

	// RootBase is the implicit universal base class skipped during
	// inheritance resolution ("object" for Python). Empty when the language
	// has none.
	RootBase string
}

// IsBuiltin reports whether a called name is in the language's builtin set.
func (s *LanguageSpec) IsBuiltin(name string) bool {
	_, ok := s.Builtins[name]
	return ok
}

// IsFunctionNode reports whether a node kind declares a function.
func (s *LanguageSpec) IsFunctionNode(kind string) bool {
	return contains(s.FunctionNodeTypes, kind)
}

// IsBranchingNode reports whether a node kind counts toward complexity.
func (s *LanguageSpec) IsBranchingNode(kind string) bool {
	return contains(s.BranchingNodeTypes, kind)
}

// registry maps file extensions to language specs.
var registry = map[string]*LanguageSpec{}

// Register adds a LanguageSpec to the global registry.
func Register(spec *LanguageSpec) {
	for _, ext := range spec.FileExtensions {
		registry[ext] = spec
	}
}

// ForExtension returns the LanguageSpec for a file extension (e.g. ".go").
func ForExtension(ext string) *LanguageSpec {
	return registry[ext]
}

// ForLanguage returns the LanguageSpec for a language.
func ForLanguage(lang Language) *LanguageSpec {
	for _, spec := range registry {
		if spec.Language == lang {
			return spec
		}
	}
	return nil
}

// LanguageForExtension returns the Language for a file extension.
func LanguageForExtension(ext string) (Language, bool) {
	spec := registry[ext]
	if spec == nil {
		return "", false
	}
	return spec.Language, true
}

// Extensions returns every registered file extension.
func Extensions() []string {
	exts := make([]string, 0, len(registry))
	for ext := range registry {
		exts = append(exts, ext)
	}
	return exts
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// builtins builds a membership set from identifier names.
func builtins(names ...string) map[string]struct{} {
	set := make(map[string]struct{}, len(names))
	for _, n := range names {
		set[n] = struct{}{}
	}
	return set
}
