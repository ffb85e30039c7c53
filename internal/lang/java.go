package lang

func init() {
	Register(&LanguageSpec{
		Language:          Java,
		FileExtensions:    []string{".java"},
		FunctionNodeTypes: []string{"method_declaration", "constructor_declaration"},
		TypeNodeKinds: map[string]string{
			"class_declaration":           "Class",
			"record_declaration":          "Class",
			"interface_declaration":       "Interface",
			"annotation_type_declaration": "Interface",
			"enum_declaration":            "Enum",
		},
		VariableNodeTypes: []string{"field_declaration"},
		CallNodeTypes:     []string{"method_invocation", "object_creation_expression"},
		ImportNodeTypes:   []string{"import_declaration"},

		BranchingNodeTypes: []string{"if_statement", "for_statement", "enhanced_for_statement", "while_statement", "do_statement", "switch_block_statement_group", "catch_clause", "ternary_expression"},

		Builtins: builtins(
			"println", "print", "printf", "format", "valueOf", "toString",
			"equals", "hashCode", "getClass", "length", "charAt", "substring",
			"indexOf", "split", "trim", "parseInt", "parseLong", "parseDouble",
			"append", "add", "get", "put", "remove", "contains", "containsKey",
			"iterator", "hasNext", "next", "close", "isEmpty", "stream",
			"collect", "forEach",
			"System", "String", "Integer", "Long", "Double", "Boolean",
			"Object", "Math", "Arrays", "Collections", "Objects", "List",
			"Map", "Set", "Optional",
		),
		RootBase: "Object",
	})
}
