package lang

func init() {
	Register(&LanguageSpec{
		Language:          Python,
		FileExtensions:    []string{".py"},
		FunctionNodeTypes: []string{"function_definition"},
		TypeNodeKinds: map[string]string{
			"class_definition": "Class",
		},
		VariableNodeTypes: []string{"assignment", "augmented_assignment"},
		CallNodeTypes:     []string{"call"},
		ImportNodeTypes:   []string{"import_statement", "import_from_statement"},

		BranchingNodeTypes: []string{"if_statement", "for_statement", "while_statement", "try_statement", "except_clause", "with_statement", "elif_clause"},

		Builtins: builtins(
			"abs", "all", "any", "ascii", "bin", "bool", "bytearray", "bytes",
			"callable", "chr", "classmethod", "compile", "complex", "delattr",
			"dict", "dir", "divmod", "enumerate", "eval", "exec", "filter",
			"float", "format", "frozenset", "getattr", "globals", "hasattr",
			"hash", "help", "hex", "id", "input", "int", "isinstance",
			"issubclass", "iter", "len", "list", "locals", "map", "max",
			"memoryview", "min", "next", "object", "oct", "open", "ord", "pow",
			"print", "property", "range", "repr", "reversed", "round", "set",
			"setattr", "slice", "sorted", "staticmethod", "str", "sum", "super",
			"tuple", "type", "vars", "zip",
			"Exception", "ValueError", "TypeError", "KeyError", "IndexError",
			"AttributeError", "RuntimeError", "NotImplementedError",
			"StopIteration", "OSError", "IOError", "FileNotFoundError",
		),
		RootBase: "object",
	})
}
