// Package ir defines the canonical per-file intermediate representation
// emitted by language adapters and consumed by the graph builder passes.
package ir

import "github.com/lumenforge/codegraph-mcp/internal/lang"

// TypeKind distinguishes class-like declarations. The structural pass maps
// each kind to its own node label.
type TypeKind string

const (
	KindClass     TypeKind = "Class"
	KindStruct    TypeKind = "Struct"
	KindEnum      TypeKind = "Enum"
	KindUnion     TypeKind = "Union"
	KindTrait     TypeKind = "Trait"
	KindInterface TypeKind = "Interface"
)

// FileIR is the full extraction result for one source file. It is the
// hand-off value between the structural pass and the relationship pass: the
// orchestrator accumulates one FileIR per parsed file and the linker runs
// over the accumulated slice only after every file has been written.
type FileIR struct {
	Path         string // absolute path
	Lang         lang.Language
	IsDependency bool

	Functions []Function
	Types     []Type
	Variables []Variable
	Macros    []Macro
	Imports   []Import
	Calls     []Call
}

// Function is a function, method, or nested function declaration.
type Function struct {
	Name      string
	Line      int
	EndLine   int
	Args      []string
	Source    string
	Docstring string

	// Context names the enclosing scope, when any: the outer function for a
	// nested function, or the surrounding class/type declaration.
	Context     string
	ContextType string // node kind of the enclosing scope
	ContextLine int

	// ClassContext is the owning class name for methods.
	ClassContext string

	// Complexity is the branching-based cyclomatic complexity. Zero means
	// the adapter did not compute it; the writer stores 1 in that case.
	Complexity int
}

// Type is a class-like declaration (class, struct, enum, union, trait,
// interface).
type Type struct {
	Name        string
	Kind        TypeKind
	Line        int
	EndLine     int
	Source      string
	Docstring   string
	Context     string
	ContextType string

	// Bases holds superclass tokens as written, possibly dotted
	// ("base.BaseModel").
	Bases []string
}

// Variable is a file-level or class-level variable declaration.
type Variable struct {
	Name   string
	Line   int
	Source string
}

// Macro is a preprocessor macro definition (C/C++) or macro-like declaration
// (Rust macro_rules!).
type Macro struct {
	Name   string
	Line   int
	Source string
}

// Import is one normalized import: Module is the name the Module node is
// merged under, Symbol the imported member for from-style imports, Alias the
// local rebinding when present.
type Import struct {
	Module string
	Symbol string
	Alias  string
	Line   int
}

// Call is one raw call site. Resolution happens in the relationship pass;
// the adapter only records what the file says.
type Call struct {
	// Name is the bare called name ("get"); FullName the dotted form as
	// written ("requests.get"). FullName equals Name for undotted calls.
	Name     string
	FullName string
	Line     int
	Args     []string

	// InferredObjType is a locally inferred receiver type for instance
	// method calls (obj = Foo(); obj.run() infers "Foo"). Empty when the
	// adapter could not infer one.
	InferredObjType string

	// Caller context: the enclosing function at the call site, or zero
	// values for file-level calls.
	CallerName string
	CallerType string
	CallerLine int
}

// LocalImports derives the alias→module map used by the resolver: each
// import is addressable by its alias when present, else by the last dotted
// segment of the module name.
func (f *FileIR) LocalImports() map[string]string {
	if len(f.Imports) == 0 {
		return nil
	}
	m := make(map[string]string, len(f.Imports))
	for _, imp := range f.Imports {
		local := imp.Alias
		if local == "" {
			local = lastSegment(imp.Module)
		}
		if local != "" {
			m[local] = imp.Module
		}
	}
	return m
}

// FunctionNames returns the set of function names declared in the file,
// used for same-file shadowing during call resolution.
func (f *FileIR) FunctionNames() map[string]struct{} {
	set := make(map[string]struct{}, len(f.Functions))
	for _, fn := range f.Functions {
		set[fn.Name] = struct{}{}
	}
	return set
}

// TypeNames returns the set of class-like names declared in the file.
func (f *FileIR) TypeNames() map[string]struct{} {
	set := make(map[string]struct{}, len(f.Types))
	for _, t := range f.Types {
		set[t.Name] = struct{}{}
	}
	return set
}

func lastSegment(name string) string {
	for i := len(name) - 1; i >= 0; i-- {
		if name[i] == '.' || name[i] == '/' {
			return name[i+1:]
		}
	}
	return name
}
