package lang

// tsTypeKinds is shared between the TypeScript and TSX profiles; the two
// differ only in grammar, not in extraction shape.
var tsTypeKinds = map[string]string{
	"class_declaration":          "Class",
	"abstract_class_declaration": "Class",
	"interface_declaration":      "Interface",
	"enum_declaration":           "Enum",
}

var tsBuiltins = builtins(
	"console", "require", "parseInt", "parseFloat", "isNaN", "isFinite",
	"encodeURIComponent", "decodeURIComponent", "encodeURI", "decodeURI",
	"setTimeout", "setInterval", "clearTimeout", "clearInterval",
	"fetch", "alert", "structuredClone",
	"Array", "Object", "String", "Number", "Boolean", "Symbol",
	"Promise", "Error", "TypeError", "RangeError", "SyntaxError",
	"Map", "Set", "WeakMap", "WeakSet", "Proxy", "Reflect", "JSON",
	"Math", "Date", "RegExp", "BigInt",
)

func init() {
	Register(&LanguageSpec{
		Language:          TypeScript,
		FileExtensions:    []string{".ts", ".mts", ".cts"},
		FunctionNodeTypes: []string{"function_declaration", "function_expression", "arrow_function", "method_definition", "generator_function_declaration"},
		TypeNodeKinds:     tsTypeKinds,
		VariableNodeTypes: []string{"lexical_declaration", "variable_declaration"},
		CallNodeTypes:     []string{"call_expression", "new_expression"},
		ImportNodeTypes:   []string{"import_statement", "call_expression"},

		BranchingNodeTypes: []string{"if_statement", "for_statement", "for_in_statement", "while_statement", "do_statement", "switch_case", "catch_clause", "ternary_expression"},

		Builtins: tsBuiltins,
		RootBase: "Object",
	})

	Register(&LanguageSpec{
		Language:          TSX,
		FileExtensions:    []string{".tsx"},
		FunctionNodeTypes: []string{"function_declaration", "function_expression", "arrow_function", "method_definition", "generator_function_declaration"},
		TypeNodeKinds:     tsTypeKinds,
		VariableNodeTypes: []string{"lexical_declaration", "variable_declaration"},
		CallNodeTypes:     []string{"call_expression", "new_expression"},
		ImportNodeTypes:   []string{"import_statement", "call_expression"},

		BranchingNodeTypes: []string{"if_statement", "for_statement", "for_in_statement", "while_statement", "do_statement", "switch_case", "catch_clause", "ternary_expression"},

		Builtins: tsBuiltins,
		RootBase: "Object",
	})
}
