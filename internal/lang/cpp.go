package lang

func init() {
	Register(&LanguageSpec{
		Language:          CPP,
		FileExtensions:    []string{".cpp", ".cc", ".cxx", ".hpp", ".hh", ".hxx"},
		FunctionNodeTypes: []string{"function_definition"},
		TypeNodeKinds: map[string]string{
			"class_specifier":  "Class",
			"struct_specifier": "Struct",
			"union_specifier":  "Union",
			"enum_specifier":   "Enum",
		},
		VariableNodeTypes: []string{"declaration"},
		MacroNodeTypes:    []string{"preproc_def", "preproc_function_def"},
		CallNodeTypes:     []string{"call_expression", "new_expression"},
		ImportNodeTypes:   []string{"preproc_include"},

		BranchingNodeTypes: []string{"if_statement", "for_statement", "for_range_loop", "while_statement", "do_statement", "case_statement", "try_statement", "catch_clause", "conditional_expression"},

		Builtins: builtins(
			"printf", "fprintf", "sprintf", "snprintf",
			"malloc", "calloc", "realloc", "free",
			"memcpy", "memmove", "memset", "memcmp", "strlen", "strcmp",
			"cout", "cin", "cerr", "clog", "endl", "std",
			"static_cast", "dynamic_cast", "const_cast", "reinterpret_cast",
			"sizeof", "move", "forward", "swap", "make_shared", "make_unique",
			"make_pair", "get", "push_back", "emplace_back", "size", "begin",
			"end", "exit", "abort", "assert",
		),
	})
}
