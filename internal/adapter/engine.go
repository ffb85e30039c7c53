package adapter

import (
	tree_sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/lumenforge/codegraph-mcp/internal/ir"
	"github.com/lumenforge/codegraph-mcp/internal/lang"
	"github.com/lumenforge/codegraph-mcp/internal/parser"
)

// engine is the generic tree-sitter extraction engine. All language
// differences flow from the LanguageSpec profile plus the per-language
// helpers in this package; the traversal itself is shared.
type engine struct {
	spec *lang.LanguageSpec
}

func (e *engine) Language() lang.Language {
	return e.spec.Language
}

func (e *engine) Parse(path string, src []byte, isDependency bool) (*ir.FileIR, error) {
	tree, err := parser.Parse(e.spec.Language, src)
	if err != nil {
		return nil, &ParseError{Path: path, Msg: err.Error()}
	}
	defer tree.Close()

	root := tree.RootNode()
	if root == nil {
		return nil, &ParseError{Path: path, Msg: "empty syntax tree"}
	}

	file := &ir.FileIR{
		Path:         path,
		Lang:         e.spec.Language,
		IsDependency: isDependency,
	}

	e.extractDecls(root, src, file)
	e.extractImports(root, src, file)

	// Receiver types are inferred before call extraction so method calls on
	// locally constructed objects carry their type hint.
	recv := inferReceiverTypes(root, src, e.spec.Language)
	e.extractCalls(root, src, recv, file)

	return file, nil
}

func (e *engine) ScanNames(path string, src []byte) ([]string, error) {
	tree, err := parser.Parse(e.spec.Language, src)
	if err != nil {
		return nil, &ParseError{Path: path, Msg: err.Error()}
	}
	defer tree.Close()

	root := tree.RootNode()
	if root == nil {
		return nil, &ParseError{Path: path, Msg: "empty syntax tree"}
	}

	var names []string
	seen := make(map[string]struct{})
	add := func(name string) {
		if name == "" {
			return
		}
		if _, dup := seen[name]; dup {
			return
		}
		seen[name] = struct{}{}
		names = append(names, name)
	}

	macroKinds := toSet(e.spec.MacroNodeTypes)
	parser.Walk(root, func(node *tree_sitter.Node) bool {
		kind := node.Kind()
		switch {
		case e.spec.IsFunctionNode(kind):
			add(functionName(node, src, e.spec.Language))
		case macroKinds[kind]:
			add(macroName(node, src))
		default:
			if name, _, ok := e.typeDecl(node, src); ok {
				add(name)
			}
		}
		return true
	})
	return names, nil
}

// extractDecls walks the tree once, collecting functions, class-like types,
// module-level variables, and macros.
func (e *engine) extractDecls(root *tree_sitter.Node, src []byte, file *ir.FileIR) {
	varKinds := toSet(e.spec.VariableNodeTypes)
	macroKinds := toSet(e.spec.MacroNodeTypes)

	parser.Walk(root, func(node *tree_sitter.Node) bool {
		kind := node.Kind()
		switch {
		case e.spec.IsFunctionNode(kind):
			e.extractFunction(node, src, file)
		case macroKinds[kind]:
			e.extractMacro(node, src, file)
		case varKinds[kind]:
			e.extractVariables(node, src, file)
		default:
			e.extractType(node, src, file)
		}
		// Descend regardless: nested functions and inner classes are
		// first-class entities with their own context.
		return true
	})
}

// extractFunction records one function or method declaration. Anonymous
// function nodes that cannot be named from their surroundings are skipped.
func (e *engine) extractFunction(node *tree_sitter.Node, src []byte, file *ir.FileIR) {
	name := functionName(node, src, e.spec.Language)
	if name == "" {
		return
	}

	ctxName, ctxType, ctxLine := e.enclosingScope(node, src)

	fn := ir.Function{
		Name:         name,
		Line:         lineOf(node),
		EndLine:      endLineOf(node),
		Args:         functionArgs(node, src, e.spec.Language),
		Source:       parser.NodeText(node, src),
		Docstring:    extractDocstring(node, src, e.spec.Language),
		Context:      ctxName,
		ContextType:  ctxType,
		ContextLine:  ctxLine,
		ClassContext: e.classContext(node, src),
		Complexity:   e.complexity(node),
	}
	file.Functions = append(file.Functions, fn)
}

// extractType records a class-like declaration when the node kind is in the
// profile's type map. Go hangs the shape off the type_spec's inner type node
// and C/C++ reuse specifier kinds for bare type references, so both get
// guards here.
func (e *engine) extractType(node *tree_sitter.Node, src []byte, file *ir.FileIR) {
	name, kind, ok := e.typeDecl(node, src)
	if !ok {
		return
	}

	// For Go the declaration spans the enclosing type_declaration.
	span := node
	if e.spec.Language == lang.Go {
		if decl := ancestorOfKind(node, "type_declaration", 2); decl != nil {
			span = decl
		}
	}

	ctxName, ctxType, _ := e.enclosingScope(span, src)

	file.Types = append(file.Types, ir.Type{
		Name:        name,
		Kind:        ir.TypeKind(kind),
		Line:        lineOf(span),
		EndLine:     endLineOf(span),
		Source:      parser.NodeText(span, src),
		Docstring:   extractDocstring(span, src, e.spec.Language),
		Context:     ctxName,
		ContextType: ctxType,
		Bases:       extractBases(span, src, e.spec.Language),
	})
}

// typeDecl resolves a node to a (name, kind label) pair when it declares a
// class-like type, applying the per-language guards.
func (e *engine) typeDecl(node *tree_sitter.Node, src []byte) (string, string, bool) {
	kind := node.Kind()

	if e.spec.Language == lang.Go {
		if kind != "type_spec" {
			return "", "", false
		}
		typeNode := node.ChildByFieldName("type")
		if typeNode == nil {
			return "", "", false
		}
		label, ok := e.spec.TypeNodeKinds[typeNode.Kind()]
		if !ok {
			return "", "", false
		}
		nameNode := node.ChildByFieldName("name")
		if nameNode == nil {
			return "", "", false
		}
		return parser.NodeText(nameNode, src), label, true
	}

	label, ok := e.spec.TypeNodeKinds[kind]
	if !ok {
		return "", "", false
	}

	// C/C++ specifier nodes double as type references; only a specifier with
	// a body declares anything.
	if e.spec.Language == lang.C || e.spec.Language == lang.CPP {
		if node.ChildByFieldName("body") == nil {
			return "", "", false
		}
	}

	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		return "", "", false
	}
	return parser.NodeText(nameNode, src), label, true
}

func (e *engine) extractMacro(node *tree_sitter.Node, src []byte, file *ir.FileIR) {
	name := macroName(node, src)
	if name == "" {
		return
	}
	file.Macros = append(file.Macros, ir.Macro{
		Name:   name,
		Line:   lineOf(node),
		Source: parser.NodeText(node, src),
	})
}

func macroName(node *tree_sitter.Node, src []byte) string {
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		return ""
	}
	return parser.NodeText(nameNode, src)
}

// complexity counts branching nodes inside the function body plus one. The
// named-node check matters for Ruby, whose branching kinds share names with
// the bare keyword tokens.
func (e *engine) complexity(funcNode *tree_sitter.Node) int {
	if len(e.spec.BranchingNodeTypes) == 0 {
		return 1
	}
	count := 1
	parser.Walk(funcNode, func(node *tree_sitter.Node) bool {
		if node.Id() == funcNode.Id() {
			return true
		}
		if node.IsNamed() && e.spec.IsBranchingNode(node.Kind()) {
			count++
		}
		return true
	})
	return count
}

func lineOf(node *tree_sitter.Node) int {
	return safeRowToLine(node.StartPosition().Row)
}

func endLineOf(node *tree_sitter.Node) int {
	return safeRowToLine(node.EndPosition().Row)
}

func safeRowToLine(row uint) int {
	line := int(row) + 1
	if line < 1 {
		return 1
	}
	return line
}

func toSet(list []string) map[string]bool {
	set := make(map[string]bool, len(list))
	for _, s := range list {
		set[s] = true
	}
	return set
}
