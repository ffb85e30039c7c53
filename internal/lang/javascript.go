package lang

func init() {
	Register(&LanguageSpec{
		Language:          JavaScript,
		FileExtensions:    []string{".js", ".jsx", ".mjs", ".cjs"},
		FunctionNodeTypes: []string{"function_declaration", "function_expression", "arrow_function", "method_definition", "generator_function_declaration"},
		TypeNodeKinds: map[string]string{
			"class_declaration": "Class",
		},
		VariableNodeTypes: []string{"lexical_declaration", "variable_declaration"},
		CallNodeTypes:     []string{"call_expression", "new_expression"},
		// call_expression covers CommonJS require().
		ImportNodeTypes: []string{"import_statement", "call_expression"},

		BranchingNodeTypes: []string{"if_statement", "for_statement", "for_in_statement", "while_statement", "do_statement", "switch_case", "catch_clause", "ternary_expression"},

		Builtins: builtins(
			"console", "require", "parseInt", "parseFloat", "isNaN", "isFinite",
			"encodeURIComponent", "decodeURIComponent", "encodeURI", "decodeURI",
			"setTimeout", "setInterval", "clearTimeout", "clearInterval",
			"fetch", "alert", "structuredClone",
			"Array", "Object", "String", "Number", "Boolean", "Symbol",
			"Promise", "Error", "TypeError", "RangeError", "SyntaxError",
			"Map", "Set", "WeakMap", "WeakSet", "Proxy", "Reflect", "JSON",
			"Math", "Date", "RegExp", "BigInt",
		),
		RootBase: "Object",
	})
}
