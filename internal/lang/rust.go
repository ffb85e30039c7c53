package lang

func init() {
	Register(&LanguageSpec{
		Language:          Rust,
		FileExtensions:    []string{".rs"},
		FunctionNodeTypes: []string{"function_item"},
		TypeNodeKinds: map[string]string{
			"struct_item": "Struct",
			"enum_item":   "Enum",
			"union_item":  "Union",
			"trait_item":  "Trait",
		},
		VariableNodeTypes: []string{"const_item", "static_item"},
		MacroNodeTypes:    []string{"macro_definition"},
		CallNodeTypes:     []string{"call_expression", "macro_invocation"},
		ImportNodeTypes:   []string{"use_declaration"},

		BranchingNodeTypes: []string{"if_expression", "match_arm", "while_expression", "loop_expression", "for_expression"},

		Builtins: builtins(
			"println", "print", "eprintln", "eprint", "format", "write",
			"writeln", "vec", "panic", "assert", "assert_eq", "assert_ne",
			"debug_assert", "dbg", "todo", "unimplemented", "unreachable",
			"matches", "include_str", "include_bytes", "env", "concat",
			"stringify", "Some", "None", "Ok", "Err", "Box", "String", "Vec",
			"drop", "clone",
		),
	})
}
