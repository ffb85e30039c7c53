package adapter

import (
	"strings"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/lumenforge/codegraph-mcp/internal/ir"
	"github.com/lumenforge/codegraph-mcp/internal/lang"
	"github.com/lumenforge/codegraph-mcp/internal/parser"
)

// functionName resolves the declared name of a function node. Most grammars
// expose a "name" field; C/C++ bury the name in a declarator chain, and
// JS/TS arrow and function expressions take their name from the variable or
// property they are assigned to.
func functionName(node *tree_sitter.Node, src []byte, language lang.Language) string {
	if nameNode := node.ChildByFieldName("name"); nameNode != nil {
		return parser.NodeText(nameNode, src)
	}

	switch language {
	case lang.C, lang.CPP:
		return cDeclaratorName(node, src)
	case lang.JavaScript, lang.TypeScript, lang.TSX:
		return jsAssignedName(node, src)
	}
	return ""
}

// cDeclaratorName walks the declarator chain of a C/C++ function_definition
// down to the identifier. Qualified C++ names (Foo::bar) resolve to the bare
// method name; the class part surfaces via classContext.
func cDeclaratorName(node *tree_sitter.Node, src []byte) string {
	decl := node.ChildByFieldName("declarator")
	for decl != nil {
		switch decl.Kind() {
		case "identifier", "field_identifier", "operator_name", "destructor_name":
			return parser.NodeText(decl, src)
		case "qualified_identifier":
			if nameNode := decl.ChildByFieldName("name"); nameNode != nil {
				return parser.NodeText(nameNode, src)
			}
			return parser.NodeText(decl, src)
		}
		next := decl.ChildByFieldName("declarator")
		if next == nil {
			if id := findChildByKind(decl, "identifier"); id != nil {
				return parser.NodeText(id, src)
			}
			return ""
		}
		decl = next
	}
	return ""
}

// jsAssignedName names an arrow_function or function_expression from its
// binding site: const f = () => {}, obj.f = function () {}, { f: () => {} }.
func jsAssignedName(node *tree_sitter.Node, src []byte) string {
	parent := node.Parent()
	if parent == nil {
		return ""
	}
	switch parent.Kind() {
	case "variable_declarator":
		if nameNode := parent.ChildByFieldName("name"); nameNode != nil && nameNode.Kind() == "identifier" {
			return parser.NodeText(nameNode, src)
		}
	case "assignment_expression":
		if left := parent.ChildByFieldName("left"); left != nil {
			text := parser.NodeText(left, src)
			if idx := strings.LastIndex(text, "."); idx >= 0 {
				return text[idx+1:]
			}
			return text
		}
	case "pair":
		if key := parent.ChildByFieldName("key"); key != nil {
			return strings.Trim(parser.NodeText(key, src), `"'`)
		}
	}
	return ""
}

// functionArgs extracts the declared parameter names, in declaration order.
func functionArgs(node *tree_sitter.Node, src []byte, language lang.Language) []string {
	switch language {
	case lang.Python:
		return pythonArgs(node, src)
	case lang.Go:
		return goArgs(node, src)
	case lang.JavaScript, lang.TypeScript, lang.TSX:
		return jsArgs(node, src)
	case lang.Rust:
		return rustArgs(node, src)
	case lang.C, lang.CPP:
		return cArgs(node, src)
	case lang.Java:
		return javaArgs(node, src)
	case lang.Ruby:
		return rubyArgs(node, src)
	}
	return nil
}

func pythonArgs(node *tree_sitter.Node, src []byte) []string {
	params := node.ChildByFieldName("parameters")
	if params == nil {
		return nil
	}
	var args []string
	for i := uint(0); i < params.NamedChildCount(); i++ {
		child := params.NamedChild(i)
		if child == nil {
			continue
		}
		switch child.Kind() {
		case "identifier":
			args = append(args, parser.NodeText(child, src))
		case "typed_parameter":
			if id := findChildByKind(child, "identifier"); id != nil {
				args = append(args, parser.NodeText(id, src))
			}
		case "default_parameter", "typed_default_parameter":
			if nameNode := child.ChildByFieldName("name"); nameNode != nil {
				args = append(args, parser.NodeText(nameNode, src))
			}
		case "list_splat_pattern", "dictionary_splat_pattern":
			args = append(args, parser.NodeText(child, src))
		}
	}
	return args
}

func goArgs(node *tree_sitter.Node, src []byte) []string {
	params := node.ChildByFieldName("parameters")
	if params == nil {
		return nil
	}
	var args []string
	for i := uint(0); i < params.NamedChildCount(); i++ {
		child := params.NamedChild(i)
		if child == nil {
			continue
		}
		switch child.Kind() {
		case "parameter_declaration":
			// One declaration can bind several names: (a, b int).
			for _, nameNode := range fieldChildren(child, "name") {
				args = append(args, parser.NodeText(nameNode, src))
			}
		case "variadic_parameter_declaration":
			if nameNode := child.ChildByFieldName("name"); nameNode != nil {
				args = append(args, "..."+parser.NodeText(nameNode, src))
			}
		}
	}
	return args
}

func jsArgs(node *tree_sitter.Node, src []byte) []string {
	params := node.ChildByFieldName("parameters")
	if params == nil {
		// Single-parameter arrow functions omit the parens.
		if p := node.ChildByFieldName("parameter"); p != nil {
			return []string{parser.NodeText(p, src)}
		}
		return nil
	}
	var args []string
	for i := uint(0); i < params.NamedChildCount(); i++ {
		child := params.NamedChild(i)
		if child == nil {
			continue
		}
		switch child.Kind() {
		case "identifier", "rest_pattern", "object_pattern", "array_pattern":
			args = append(args, parser.NodeText(child, src))
		case "assignment_pattern":
			if left := child.ChildByFieldName("left"); left != nil {
				args = append(args, parser.NodeText(left, src))
			}
		case "required_parameter", "optional_parameter":
			if pattern := child.ChildByFieldName("pattern"); pattern != nil {
				args = append(args, parser.NodeText(pattern, src))
			}
		}
	}
	return args
}

func rustArgs(node *tree_sitter.Node, src []byte) []string {
	params := node.ChildByFieldName("parameters")
	if params == nil {
		return nil
	}
	var args []string
	for i := uint(0); i < params.NamedChildCount(); i++ {
		child := params.NamedChild(i)
		if child == nil {
			continue
		}
		switch child.Kind() {
		case "parameter":
			if pattern := child.ChildByFieldName("pattern"); pattern != nil {
				args = append(args, parser.NodeText(pattern, src))
			}
		case "self_parameter":
			args = append(args, "self")
		}
	}
	return args
}

func cArgs(node *tree_sitter.Node, src []byte) []string {
	decl := node.ChildByFieldName("declarator")
	for decl != nil && decl.Kind() != "function_declarator" {
		decl = decl.ChildByFieldName("declarator")
	}
	if decl == nil {
		return nil
	}
	params := decl.ChildByFieldName("parameters")
	if params == nil {
		return nil
	}
	var args []string
	for i := uint(0); i < params.NamedChildCount(); i++ {
		child := params.NamedChild(i)
		if child == nil || child.Kind() != "parameter_declaration" {
			continue
		}
		inner := child.ChildByFieldName("declarator")
		for inner != nil {
			if inner.Kind() == "identifier" {
				args = append(args, parser.NodeText(inner, src))
				break
			}
			next := inner.ChildByFieldName("declarator")
			if next == nil {
				if id := findChildByKind(inner, "identifier"); id != nil {
					args = append(args, parser.NodeText(id, src))
				}
				break
			}
			inner = next
		}
	}
	return args
}

func javaArgs(node *tree_sitter.Node, src []byte) []string {
	params := node.ChildByFieldName("parameters")
	if params == nil {
		return nil
	}
	var args []string
	for i := uint(0); i < params.NamedChildCount(); i++ {
		child := params.NamedChild(i)
		if child == nil {
			continue
		}
		switch child.Kind() {
		case "formal_parameter":
			if nameNode := child.ChildByFieldName("name"); nameNode != nil {
				args = append(args, parser.NodeText(nameNode, src))
			}
		case "spread_parameter":
			if id := findChildByKind(child, "variable_declarator"); id != nil {
				args = append(args, parser.NodeText(id, src))
			}
		}
	}
	return args
}

func rubyArgs(node *tree_sitter.Node, src []byte) []string {
	params := node.ChildByFieldName("parameters")
	if params == nil {
		return nil
	}
	var args []string
	for i := uint(0); i < params.NamedChildCount(); i++ {
		child := params.NamedChild(i)
		if child == nil {
			continue
		}
		switch child.Kind() {
		case "identifier":
			args = append(args, parser.NodeText(child, src))
		case "optional_parameter", "keyword_parameter":
			if nameNode := child.ChildByFieldName("name"); nameNode != nil {
				args = append(args, parser.NodeText(nameNode, src))
			}
		case "splat_parameter", "hash_splat_parameter", "block_parameter":
			args = append(args, parser.NodeText(child, src))
		}
	}
	return args
}

// enclosingScope climbs to the nearest scope ancestor (a function or a
// class-like declaration) and returns its name, node kind, and line.
func (e *engine) enclosingScope(node *tree_sitter.Node, src []byte) (string, string, int) {
	for cur := node.Parent(); cur != nil; cur = cur.Parent() {
		kind := cur.Kind()
		if e.spec.IsFunctionNode(kind) {
			name := functionName(cur, src, e.spec.Language)
			if name == "" {
				continue
			}
			return name, kind, lineOf(cur)
		}
		if name, ok := e.scopeTypeName(cur, src); ok {
			return name, kind, lineOf(cur)
		}
	}
	return "", "", 0
}

// scopeTypeName names a class-like scope ancestor. Rust impl blocks count as
// a scope even though they declare nothing themselves.
func (e *engine) scopeTypeName(node *tree_sitter.Node, src []byte) (string, bool) {
	kind := node.Kind()
	if e.spec.Language == lang.Rust && kind == "impl_item" {
		if typeNode := node.ChildByFieldName("type"); typeNode != nil {
			return stripGenerics(parser.NodeText(typeNode, src)), true
		}
		return "", false
	}
	if _, ok := e.spec.TypeNodeKinds[kind]; !ok {
		return "", false
	}
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		return "", false
	}
	return parser.NodeText(nameNode, src), true
}

// classContext resolves the owning class of a method: the Go receiver type,
// the Rust impl target, the C++ qualifier, or the nearest class-like
// ancestor elsewhere.
func (e *engine) classContext(node *tree_sitter.Node, src []byte) string {
	switch e.spec.Language {
	case lang.Go:
		_, typeName := goReceiver(node, src)
		return typeName
	case lang.Rust:
		if impl := ancestorOfKind(node, "impl_item", 4); impl != nil {
			if typeNode := impl.ChildByFieldName("type"); typeNode != nil {
				return stripGenerics(parser.NodeText(typeNode, src))
			}
		}
		return ""
	case lang.CPP:
		if scope := cppQualifierScope(node, src); scope != "" {
			return scope
		}
	case lang.C:
		return ""
	}
	for cur := node.Parent(); cur != nil; cur = cur.Parent() {
		if name, ok := e.scopeTypeName(cur, src); ok {
			return name
		}
	}
	return ""
}

// goReceiver parses the receiver of a Go method_declaration: "(s *Server)"
// yields ("s", "Server").
func goReceiver(node *tree_sitter.Node, src []byte) (varName, typeName string) {
	recv := node.ChildByFieldName("receiver")
	if recv == nil {
		return "", ""
	}
	text := strings.TrimSpace(parser.NodeText(recv, src))
	text = strings.TrimPrefix(text, "(")
	text = strings.TrimSuffix(text, ")")
	parts := strings.Fields(strings.TrimSpace(text))
	switch len(parts) {
	case 1:
		return "", strings.TrimPrefix(parts[0], "*")
	case 2:
		return parts[0], strings.TrimPrefix(parts[1], "*")
	}
	return "", ""
}

// cppQualifierScope returns the class part of an out-of-line C++ method
// definition (void Foo::bar() → "Foo").
func cppQualifierScope(node *tree_sitter.Node, src []byte) string {
	decl := node.ChildByFieldName("declarator")
	for decl != nil {
		if decl.Kind() == "qualified_identifier" {
			if scope := decl.ChildByFieldName("scope"); scope != nil {
				return parser.NodeText(scope, src)
			}
			return ""
		}
		decl = decl.ChildByFieldName("declarator")
	}
	return ""
}

// extractVariables records module-level variable declarations. Class fields
// (Java) are the one non-top-level case the profiles admit.
func (e *engine) extractVariables(node *tree_sitter.Node, src []byte, file *ir.FileIR) {
	if e.spec.Language != lang.Java && !moduleLevel(node, e.spec.Language) {
		return
	}
	for _, name := range variableNames(node, src, e.spec.Language) {
		if name == "" || name == "_" || strings.HasPrefix(name, "__") {
			continue
		}
		file.Variables = append(file.Variables, ir.Variable{
			Name:   name,
			Line:   lineOf(node),
			Source: parser.NodeText(node, src),
		})
	}
}

// moduleLevel reports whether a declaration sits at the file's top level,
// looking through the wrapper statements each grammar inserts.
func moduleLevel(node *tree_sitter.Node, language lang.Language) bool {
	parent := node.Parent()
	if parent == nil {
		return false
	}
	parentKind := parent.Kind()

	switch language {
	case lang.Go, lang.Rust:
		return parentKind == "source_file"
	case lang.C, lang.CPP:
		return parentKind == "translation_unit"
	case lang.Ruby:
		return parentKind == "program"
	case lang.Python:
		if parentKind == "module" {
			return true
		}
		// module → expression_statement → assignment
		if parentKind == "expression_statement" {
			if gp := parent.Parent(); gp != nil {
				return gp.Kind() == "module"
			}
		}
	case lang.JavaScript, lang.TypeScript, lang.TSX:
		if parentKind == "program" {
			return true
		}
		// program → export_statement → declaration
		if parentKind == "export_statement" {
			if gp := parent.Parent(); gp != nil {
				return gp.Kind() == "program"
			}
		}
	}
	return false
}

func variableNames(node *tree_sitter.Node, src []byte, language lang.Language) []string {
	switch language {
	case lang.Python, lang.Ruby:
		left := node.ChildByFieldName("left")
		if left == nil {
			return nil
		}
		switch left.Kind() {
		case "identifier", "constant":
			return []string{parser.NodeText(left, src)}
		}
		return nil
	case lang.Go:
		var names []string
		parser.Walk(node, func(child *tree_sitter.Node) bool {
			if child.Kind() == "var_spec" || child.Kind() == "const_spec" {
				for _, nameNode := range fieldChildren(child, "name") {
					names = append(names, parser.NodeText(nameNode, src))
				}
				return false
			}
			return true
		})
		return names
	case lang.JavaScript, lang.TypeScript, lang.TSX:
		var names []string
		for i := uint(0); i < node.NamedChildCount(); i++ {
			decl := node.NamedChild(i)
			if decl == nil || decl.Kind() != "variable_declarator" {
				continue
			}
			// Function-valued bindings were already recorded as functions.
			if value := decl.ChildByFieldName("value"); value != nil {
				switch value.Kind() {
				case "arrow_function", "function_expression", "function", "generator_function":
					continue
				}
			}
			if nameNode := decl.ChildByFieldName("name"); nameNode != nil && nameNode.Kind() == "identifier" {
				names = append(names, parser.NodeText(nameNode, src))
			}
		}
		return names
	case lang.Rust:
		if nameNode := node.ChildByFieldName("name"); nameNode != nil {
			return []string{parser.NodeText(nameNode, src)}
		}
		return nil
	case lang.C, lang.CPP:
		return cDeclarationNames(node, src)
	case lang.Java:
		var names []string
		for _, decl := range fieldChildren(node, "declarator") {
			if nameNode := decl.ChildByFieldName("name"); nameNode != nil {
				names = append(names, parser.NodeText(nameNode, src))
			}
		}
		return names
	}
	return nil
}

// cDeclarationNames pulls declared identifiers out of a C/C++ declaration,
// skipping function prototypes.
func cDeclarationNames(node *tree_sitter.Node, src []byte) []string {
	if findChildByKind(node, "function_declarator") != nil {
		return nil
	}
	var names []string
	for _, decl := range fieldChildren(node, "declarator") {
		cur := decl
		for cur != nil {
			if cur.Kind() == "identifier" {
				names = append(names, parser.NodeText(cur, src))
				break
			}
			if cur.Kind() == "init_declarator" {
				cur = cur.ChildByFieldName("declarator")
				continue
			}
			next := cur.ChildByFieldName("declarator")
			if next == nil {
				break
			}
			cur = next
		}
	}
	return names
}

// extractBases collects superclass tokens as written in the declaration.
func extractBases(node *tree_sitter.Node, src []byte, language lang.Language) []string {
	switch language {
	case lang.Python:
		return pythonBases(node, src)
	case lang.Java:
		return javaBases(node, src)
	case lang.JavaScript, lang.TypeScript, lang.TSX:
		return jsBases(node, src)
	case lang.CPP:
		return cppBases(node, src)
	case lang.Ruby:
		return rubyBases(node, src)
	}
	return nil
}

func pythonBases(node *tree_sitter.Node, src []byte) []string {
	super := node.ChildByFieldName("superclasses")
	if super == nil {
		return nil
	}
	var bases []string
	for i := uint(0); i < super.NamedChildCount(); i++ {
		child := super.NamedChild(i)
		if child == nil || child.Kind() == "keyword_argument" {
			continue
		}
		if name := parser.NodeText(child, src); name != "" {
			bases = append(bases, name)
		}
	}
	return bases
}

func javaBases(node *tree_sitter.Node, src []byte) []string {
	var bases []string
	if super := node.ChildByFieldName("superclass"); super != nil {
		// The raw text includes the "extends" keyword.
		if typeID := findChildByKind(super, "type_identifier"); typeID != nil {
			bases = append(bases, parser.NodeText(typeID, src))
		}
	}
	if ifaces := node.ChildByFieldName("interfaces"); ifaces != nil {
		parser.Walk(ifaces, func(n *tree_sitter.Node) bool {
			if n.Kind() == "type_identifier" {
				bases = append(bases, parser.NodeText(n, src))
				return false
			}
			return true
		})
	}
	return bases
}

func jsBases(node *tree_sitter.Node, src []byte) []string {
	var bases []string
	for i := uint(0); i < node.ChildCount(); i++ {
		child := node.Child(i)
		if child == nil || child.Kind() != "class_heritage" {
			continue
		}
		for j := uint(0); j < child.ChildCount(); j++ {
			hc := child.Child(j)
			if hc == nil {
				continue
			}
			switch hc.Kind() {
			case "extends_clause":
				for k := uint(0); k < hc.NamedChildCount(); k++ {
					val := hc.NamedChild(k)
					if val == nil {
						continue
					}
					switch val.Kind() {
					case "identifier", "member_expression":
						bases = append(bases, parser.NodeText(val, src))
					}
				}
			case "identifier", "member_expression":
				// JS heritage holds bare identifiers without a clause node.
				bases = append(bases, parser.NodeText(hc, src))
			}
		}
	}
	return bases
}

func cppBases(node *tree_sitter.Node, src []byte) []string {
	var bases []string
	for i := uint(0); i < node.ChildCount(); i++ {
		child := node.Child(i)
		if child == nil || child.Kind() != "base_class_clause" {
			continue
		}
		for j := uint(0); j < child.NamedChildCount(); j++ {
			base := child.NamedChild(j)
			if base != nil && base.Kind() == "type_identifier" {
				bases = append(bases, parser.NodeText(base, src))
			}
		}
	}
	return bases
}

func rubyBases(node *tree_sitter.Node, src []byte) []string {
	super := node.ChildByFieldName("superclass")
	if super == nil {
		return nil
	}
	for i := uint(0); i < super.NamedChildCount(); i++ {
		child := super.NamedChild(i)
		if child == nil {
			continue
		}
		switch child.Kind() {
		case "constant", "scope_resolution":
			return []string{parser.NodeText(child, src)}
		}
	}
	return nil
}

// stripGenerics drops a trailing type-parameter list: "Stack<T>" → "Stack".
func stripGenerics(s string) string {
	if idx := strings.Index(s, "<"); idx > 0 {
		return strings.TrimSpace(s[:idx])
	}
	return strings.TrimSpace(s)
}

func findChildByKind(node *tree_sitter.Node, kind string) *tree_sitter.Node {
	for i := uint(0); i < node.ChildCount(); i++ {
		child := node.Child(i)
		if child != nil && child.Kind() == kind {
			return child
		}
	}
	return nil
}

// fieldChildren returns every child bound to the given field name, not just
// the first.
func fieldChildren(node *tree_sitter.Node, field string) []*tree_sitter.Node {
	var out []*tree_sitter.Node
	for i := uint(0); i < node.ChildCount(); i++ {
		child := node.Child(i)
		if child == nil {
			continue
		}
		if node.FieldNameForChild(uint32(i)) == field {
			out = append(out, child)
		}
	}
	return out
}

// ancestorOfKind climbs at most maxDepth parents looking for a node kind.
func ancestorOfKind(node *tree_sitter.Node, kind string, maxDepth int) *tree_sitter.Node {
	cur := node.Parent()
	for i := 0; i < maxDepth && cur != nil; i++ {
		if cur.Kind() == kind {
			return cur
		}
		cur = cur.Parent()
	}
	return nil
}
