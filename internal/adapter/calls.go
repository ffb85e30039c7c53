package adapter

import (
	"strings"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/lumenforge/codegraph-mcp/internal/ir"
	"github.com/lumenforge/codegraph-mcp/internal/lang"
	"github.com/lumenforge/codegraph-mcp/internal/parser"
)

// extractCalls records every call site with its bare name, dotted full name,
// argument texts, caller context, and any locally inferred receiver type.
// No resolution happens here; the relationship pass owns that.
func (e *engine) extractCalls(root *tree_sitter.Node, src []byte, recv map[string]string, file *ir.FileIR) {
	kinds := toSet(e.spec.CallNodeTypes)
	parser.Walk(root, func(node *tree_sitter.Node) bool {
		if !kinds[node.Kind()] {
			return true
		}
		fullName := calleeName(node, src, e.spec.Language)
		if fullName == "" {
			return true
		}

		call := ir.Call{
			Name:     lastDotted(fullName),
			FullName: fullName,
			Line:     lineOf(node),
			Args:     callArgs(node, src),
		}

		// x.method() where x was constructed from a known type locally.
		if idx := strings.Index(fullName, "."); idx > 0 {
			if t, ok := recv[fullName[:idx]]; ok {
				call.InferredObjType = t
			}
		}

		if name, kind, line := e.enclosingFunction(node, src); name != "" {
			call.CallerName = name
			call.CallerType = kind
			call.CallerLine = line
		}

		file.Calls = append(file.Calls, call)
		return true
	})
}

// calleeName extracts the called name in dotted form. Most grammars hang the
// callee off a "function" field; Java and Ruby use name/method fields, and
// constructor expressions name the instantiated type.
func calleeName(node *tree_sitter.Node, src []byte, language lang.Language) string {
	if fn := node.ChildByFieldName("function"); fn != nil {
		switch fn.Kind() {
		case "identifier", "selector_expression", "attribute", "member_expression",
			"field_expression", "scoped_identifier":
			return normalizeCallee(parser.NodeText(fn, src))
		}
		return ""
	}

	switch node.Kind() {
	case "method_invocation":
		nameNode := node.ChildByFieldName("name")
		if nameNode == nil {
			return ""
		}
		name := parser.NodeText(nameNode, src)
		if obj := node.ChildByFieldName("object"); obj != nil {
			return parser.NodeText(obj, src) + "." + name
		}
		return name
	case "object_creation_expression":
		if typeNode := node.ChildByFieldName("type"); typeNode != nil {
			return stripGenerics(parser.NodeText(typeNode, src))
		}
	case "new_expression":
		if ctor := node.ChildByFieldName("constructor"); ctor != nil {
			return parser.NodeText(ctor, src)
		}
		if language == lang.CPP {
			if typeNode := node.ChildByFieldName("type"); typeNode != nil {
				return stripGenerics(parser.NodeText(typeNode, src))
			}
		}
	case "macro_invocation":
		if m := node.ChildByFieldName("macro"); m != nil {
			return normalizeCallee(parser.NodeText(m, src))
		}
	case "call":
		// Ruby: method field plus optional receiver.
		methodNode := node.ChildByFieldName("method")
		if methodNode == nil {
			return ""
		}
		name := parser.NodeText(methodNode, src)
		if receiver := node.ChildByFieldName("receiver"); receiver != nil {
			return parser.NodeText(receiver, src) + "." + name
		}
		return name
	}
	return ""
}

// normalizeCallee maps Rust paths onto the dotted form the resolver speaks.
func normalizeCallee(s string) string {
	return strings.ReplaceAll(s, "::", ".")
}

// callArgs returns the argument expression texts at the call site.
func callArgs(node *tree_sitter.Node, src []byte) []string {
	argsNode := node.ChildByFieldName("arguments")
	if argsNode == nil {
		return nil
	}
	var args []string
	for i := uint(0); i < argsNode.NamedChildCount(); i++ {
		child := argsNode.NamedChild(i)
		if child == nil {
			continue
		}
		args = append(args, parser.NodeText(child, src))
	}
	return args
}

// enclosingFunction climbs to the nearest named function ancestor of a call
// site. File-level calls return zero values.
func (e *engine) enclosingFunction(node *tree_sitter.Node, src []byte) (string, string, int) {
	for cur := node.Parent(); cur != nil; cur = cur.Parent() {
		kind := cur.Kind()
		if !e.spec.IsFunctionNode(kind) {
			continue
		}
		name := functionName(cur, src, e.spec.Language)
		if name == "" {
			continue
		}
		return name, kind, lineOf(cur)
	}
	return "", "", 0
}
