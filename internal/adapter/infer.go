package adapter

import (
	"strings"
	"unicode"
	"unicode/utf8"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/lumenforge/codegraph-mcp/internal/lang"
	"github.com/lumenforge/codegraph-mcp/internal/parser"
)

// inferReceiverTypes builds a variable → type-name map from local
// constructor-style assignments, so calls like obj.run() can carry the type
// the object was built from. The map holds bare type names; resolving them
// to files is the relationship pass's job.
func inferReceiverTypes(root *tree_sitter.Node, src []byte, language lang.Language) map[string]string {
	types := make(map[string]string)
	switch language {
	case lang.Python:
		inferPythonTypes(root, src, types)
	case lang.Go:
		inferGoTypes(root, src, types)
	case lang.JavaScript, lang.TypeScript, lang.TSX:
		inferJSTypes(root, src, types)
	case lang.Java:
		inferJavaTypes(root, src, types)
	case lang.Ruby:
		inferRubyTypes(root, src, types)
	case lang.Rust:
		inferRustTypes(root, src, types)
	}
	return types
}

// inferPythonTypes handles x = ClassName(...) and x = mod.ClassName(...).
// Only capitalized callees count as constructors.
func inferPythonTypes(root *tree_sitter.Node, src []byte, types map[string]string) {
	parser.Walk(root, func(node *tree_sitter.Node) bool {
		if node.Kind() != "assignment" {
			return true
		}
		left := node.ChildByFieldName("left")
		right := node.ChildByFieldName("right")
		if left == nil || right == nil || left.Kind() != "identifier" || right.Kind() != "call" {
			return true
		}
		fn := right.ChildByFieldName("function")
		if fn == nil {
			return true
		}
		switch fn.Kind() {
		case "identifier", "attribute":
			if t := constructorName(parser.NodeText(fn, src)); t != "" {
				types[parser.NodeText(left, src)] = t
			}
		}
		return true
	})
}

// inferGoTypes handles x := StructName{...}, x := &StructName{...}, and
// var x StructName.
func inferGoTypes(root *tree_sitter.Node, src []byte, types map[string]string) {
	parser.Walk(root, func(node *tree_sitter.Node) bool {
		switch node.Kind() {
		case "short_var_declaration":
			left := node.ChildByFieldName("left")
			right := node.ChildByFieldName("right")
			if left == nil || right == nil {
				return true
			}
			varName := firstIdentifier(left, src)
			typeName := compositeLiteralType(right, src)
			if varName != "" && typeName != "" {
				types[varName] = typeName
			}
		case "var_spec":
			nameNode := node.ChildByFieldName("name")
			typeNode := node.ChildByFieldName("type")
			if nameNode != nil && typeNode != nil {
				typeName := strings.TrimPrefix(parser.NodeText(typeNode, src), "*")
				types[parser.NodeText(nameNode, src)] = lastDotted(typeName)
			}
		}
		return true
	})
}

// inferJSTypes handles const x = new ClassName(...).
func inferJSTypes(root *tree_sitter.Node, src []byte, types map[string]string) {
	parser.Walk(root, func(node *tree_sitter.Node) bool {
		if node.Kind() != "variable_declarator" {
			return true
		}
		nameNode := node.ChildByFieldName("name")
		value := node.ChildByFieldName("value")
		if nameNode == nil || value == nil || nameNode.Kind() != "identifier" {
			return true
		}
		if value.Kind() != "new_expression" {
			return true
		}
		if ctor := value.ChildByFieldName("constructor"); ctor != nil {
			types[parser.NodeText(nameNode, src)] = lastDotted(parser.NodeText(ctor, src))
		}
		return true
	})
}

// inferJavaTypes handles Foo x = new Foo(...) and Foo x declarations.
func inferJavaTypes(root *tree_sitter.Node, src []byte, types map[string]string) {
	parser.Walk(root, func(node *tree_sitter.Node) bool {
		if node.Kind() != "local_variable_declaration" && node.Kind() != "field_declaration" {
			return true
		}
		typeNode := node.ChildByFieldName("type")
		if typeNode == nil {
			return true
		}
		typeName := constructorName(stripGenerics(parser.NodeText(typeNode, src)))
		if typeName == "" {
			return true
		}
		for _, decl := range fieldChildren(node, "declarator") {
			if nameNode := decl.ChildByFieldName("name"); nameNode != nil {
				types[parser.NodeText(nameNode, src)] = typeName
			}
		}
		return true
	})
}

// inferRubyTypes handles x = ClassName.new(...).
func inferRubyTypes(root *tree_sitter.Node, src []byte, types map[string]string) {
	parser.Walk(root, func(node *tree_sitter.Node) bool {
		if node.Kind() != "assignment" {
			return true
		}
		left := node.ChildByFieldName("left")
		right := node.ChildByFieldName("right")
		if left == nil || right == nil || left.Kind() != "identifier" || right.Kind() != "call" {
			return true
		}
		methodNode := right.ChildByFieldName("method")
		receiver := right.ChildByFieldName("receiver")
		if methodNode == nil || receiver == nil || receiver.Kind() != "constant" {
			return true
		}
		if parser.NodeText(methodNode, src) == "new" {
			types[parser.NodeText(left, src)] = parser.NodeText(receiver, src)
		}
		return true
	})
}

// inferRustTypes handles let x = Type::new(...) and let x: Type = ....
func inferRustTypes(root *tree_sitter.Node, src []byte, types map[string]string) {
	parser.Walk(root, func(node *tree_sitter.Node) bool {
		if node.Kind() != "let_declaration" {
			return true
		}
		pattern := node.ChildByFieldName("pattern")
		if pattern == nil || pattern.Kind() != "identifier" {
			return true
		}
		varName := parser.NodeText(pattern, src)

		if typeNode := node.ChildByFieldName("type"); typeNode != nil {
			types[varName] = lastDotted(stripGenerics(rustPath(parser.NodeText(typeNode, src))))
			return true
		}

		value := node.ChildByFieldName("value")
		if value == nil || value.Kind() != "call_expression" {
			return true
		}
		fn := value.ChildByFieldName("function")
		if fn == nil || fn.Kind() != "scoped_identifier" {
			return true
		}
		path := rustPath(parser.NodeText(fn, src))
		// Type::new → Type
		if idx := strings.LastIndex(path, "."); idx > 0 {
			if t := constructorName(path[:idx]); t != "" {
				types[varName] = lastDotted(t)
			}
		}
		return true
	})
}

// constructorName keeps a callee only when its final segment looks like a
// type name (initial uppercase).
func constructorName(s string) string {
	name := lastDotted(s)
	r, _ := utf8.DecodeRuneInString(name)
	if r == utf8.RuneError || !unicode.IsUpper(r) {
		return ""
	}
	return name
}

func firstIdentifier(node *tree_sitter.Node, src []byte) string {
	if node.Kind() == "identifier" {
		return parser.NodeText(node, src)
	}
	if node.Kind() == "expression_list" && node.NamedChildCount() > 0 {
		first := node.NamedChild(0)
		if first != nil && first.Kind() == "identifier" {
			return parser.NodeText(first, src)
		}
	}
	return ""
}

// compositeLiteralType extracts the type name from StructName{...} or
// &StructName{...} on the right side of a declaration.
func compositeLiteralType(node *tree_sitter.Node, src []byte) string {
	if node.Kind() == "expression_list" && node.NamedChildCount() > 0 {
		node = node.NamedChild(0)
		if node == nil {
			return ""
		}
	}
	if node.Kind() == "unary_expression" {
		if op := node.ChildByFieldName("operand"); op != nil {
			node = op
		}
	}
	if node.Kind() != "composite_literal" {
		return ""
	}
	typeNode := node.ChildByFieldName("type")
	if typeNode == nil {
		return ""
	}
	typeName := parser.NodeText(typeNode, src)
	typeName = strings.TrimPrefix(typeName, "&")
	typeName = strings.TrimPrefix(typeName, "*")
	return lastDotted(typeName)
}
