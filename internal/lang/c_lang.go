package lang

func init() {
	Register(&LanguageSpec{
		Language:          C,
		FileExtensions:    []string{".c", ".h"},
		FunctionNodeTypes: []string{"function_definition"},
		TypeNodeKinds: map[string]string{
			"struct_specifier": "Struct",
			"union_specifier":  "Union",
			"enum_specifier":   "Enum",
		},
		VariableNodeTypes: []string{"declaration"},
		MacroNodeTypes:    []string{"preproc_def", "preproc_function_def"},
		CallNodeTypes:     []string{"call_expression"},
		ImportNodeTypes:   []string{"preproc_include"},

		BranchingNodeTypes: []string{"if_statement", "for_statement", "while_statement", "do_statement", "case_statement", "conditional_expression"},

		Builtins: builtins(
			"printf", "fprintf", "sprintf", "snprintf", "scanf", "fscanf",
			"sscanf", "puts", "putchar", "getchar", "fgets", "fputs",
			"malloc", "calloc", "realloc", "free",
			"memcpy", "memmove", "memset", "memcmp",
			"strcpy", "strncpy", "strcat", "strncat", "strcmp", "strncmp",
			"strlen", "strchr", "strrchr", "strstr", "strtok", "strdup",
			"fopen", "fclose", "fread", "fwrite", "fseek", "ftell", "rewind",
			"exit", "abort", "atoi", "atof", "atol", "strtol", "strtod",
			"qsort", "bsearch", "assert", "sizeof",
		),
	})
}
