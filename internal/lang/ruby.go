package lang

func init() {
	Register(&LanguageSpec{
		Language:          Ruby,
		FileExtensions:    []string{".rb"},
		FunctionNodeTypes: []string{"method", "singleton_method"},
		// Ruby modules are containers of methods like classes are; both map
		// to the Class label.
		TypeNodeKinds: map[string]string{
			"class":  "Class",
			"module": "Class",
		},
		VariableNodeTypes: []string{"assignment"},
		CallNodeTypes:     []string{"call"},
		ImportNodeTypes:   []string{"call"},

		BranchingNodeTypes: []string{"if", "elsif", "unless", "while", "until", "for", "when", "rescue", "conditional"},

		Builtins: builtins(
			"puts", "print", "p", "pp", "gets", "require", "require_relative",
			"load", "raise", "fail", "lambda", "proc", "loop", "catch",
			"throw", "attr_accessor", "attr_reader", "attr_writer", "include",
			"extend", "prepend", "module_function", "define_method", "send",
			"public_send", "respond_to?", "freeze", "dup", "clone", "new",
			"each", "map", "select", "reject", "reduce", "inject", "times",
			"to_s", "to_i", "to_f", "to_a", "to_sym", "to_h", "push", "pop",
			"shift", "unshift", "join", "split", "length", "size", "empty?",
			"nil?", "is_a?", "kind_of?", "instance_of?", "sleep", "rand",
			"format", "sprintf", "printf", "exit", "abort",
		),
		RootBase: "Object",
	})
}
