package lang

func init() {
	Register(&LanguageSpec{
		Language:          Go,
		FileExtensions:    []string{".go"},
		FunctionNodeTypes: []string{"function_declaration", "method_declaration"},
		// Go type declarations carry their shape in the type_spec's type
		// child, so the kinds here are the inner type nodes.
		TypeNodeKinds: map[string]string{
			"struct_type":    "Struct",
			"interface_type": "Interface",
		},
		VariableNodeTypes: []string{"var_declaration", "const_declaration"},
		CallNodeTypes:     []string{"call_expression"},
		ImportNodeTypes:   []string{"import_declaration"},

		BranchingNodeTypes: []string{"if_statement", "for_statement", "expression_case", "type_case", "communication_case"},

		Builtins: builtins(
			"append", "cap", "clear", "close", "complex", "copy", "delete",
			"imag", "len", "make", "max", "min", "new", "panic", "print",
			"println", "real", "recover",
		),
	})
}
