package adapter

import (
	"strings"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/lumenforge/codegraph-mcp/internal/ir"
	"github.com/lumenforge/codegraph-mcp/internal/lang"
	"github.com/lumenforge/codegraph-mcp/internal/parser"
)

// extractImports walks the profile's import node kinds and normalizes each
// statement into ir.Import records: Module is the name the Module node is
// merged under (dotted or path form as written), Symbol the imported member
// for from-style imports, Alias the local rebinding.
func (e *engine) extractImports(root *tree_sitter.Node, src []byte, file *ir.FileIR) {
	kinds := toSet(e.spec.ImportNodeTypes)
	parser.Walk(root, func(node *tree_sitter.Node) bool {
		if !kinds[node.Kind()] {
			return true
		}
		switch e.spec.Language {
		case lang.Python:
			pythonImports(node, src, file)
		case lang.Go:
			goImports(node, src, file)
		case lang.JavaScript, lang.TypeScript, lang.TSX:
			jsImports(node, src, file)
		case lang.Rust:
			rustImports(node, src, file)
		case lang.C, lang.CPP:
			cImports(node, src, file)
		case lang.Java:
			javaImports(node, src, file)
		case lang.Ruby:
			rubyImports(node, src, file)
		}
		return true
	})
}

func pythonImports(node *tree_sitter.Node, src []byte, file *ir.FileIR) {
	line := lineOf(node)
	switch node.Kind() {
	case "import_statement":
		// import a.b, a.c as d
		for i := uint(0); i < node.NamedChildCount(); i++ {
			child := node.NamedChild(i)
			if child == nil {
				continue
			}
			switch child.Kind() {
			case "dotted_name":
				file.Imports = append(file.Imports, ir.Import{
					Module: parser.NodeText(child, src),
					Line:   line,
				})
			case "aliased_import":
				nameNode := child.ChildByFieldName("name")
				aliasNode := child.ChildByFieldName("alias")
				if nameNode == nil {
					continue
				}
				imp := ir.Import{Module: parser.NodeText(nameNode, src), Line: line}
				if aliasNode != nil {
					imp.Alias = parser.NodeText(aliasNode, src)
				}
				file.Imports = append(file.Imports, imp)
			}
		}
	case "import_from_statement":
		moduleNode := node.ChildByFieldName("module_name")
		if moduleNode == nil {
			return
		}
		base := parser.NodeText(moduleNode, src)
		for i := uint(0); i < node.NamedChildCount(); i++ {
			child := node.NamedChild(i)
			if child == nil || child.Id() == moduleNode.Id() {
				continue
			}
			switch child.Kind() {
			case "dotted_name":
				symbol := parser.NodeText(child, src)
				file.Imports = append(file.Imports, ir.Import{
					Module: joinPyModule(base, symbol),
					Symbol: symbol,
					Line:   line,
				})
			case "aliased_import":
				nameNode := child.ChildByFieldName("name")
				aliasNode := child.ChildByFieldName("alias")
				if nameNode == nil {
					continue
				}
				symbol := parser.NodeText(nameNode, src)
				imp := ir.Import{
					Module: joinPyModule(base, symbol),
					Symbol: symbol,
					Line:   line,
				}
				if aliasNode != nil {
					imp.Alias = parser.NodeText(aliasNode, src)
				}
				file.Imports = append(file.Imports, imp)
			case "wildcard_import":
				file.Imports = append(file.Imports, ir.Import{
					Module: base,
					Symbol: "*",
					Line:   line,
				})
			}
		}
	}
}

// joinPyModule joins "from base import symbol" into the canonical dotted
// module name so alias lookups and path translation see the full chain.
func joinPyModule(base, symbol string) string {
	if strings.HasSuffix(base, ".") {
		return base + symbol
	}
	return base + "." + symbol
}

func goImports(node *tree_sitter.Node, src []byte, file *ir.FileIR) {
	parser.Walk(node, func(child *tree_sitter.Node) bool {
		if child.Kind() != "import_spec" {
			return true
		}
		pathNode := child.ChildByFieldName("path")
		if pathNode == nil {
			return false
		}
		imp := ir.Import{
			Module: strings.Trim(parser.NodeText(pathNode, src), `"`),
			Line:   lineOf(child),
		}
		if nameNode := child.ChildByFieldName("name"); nameNode != nil {
			imp.Alias = parser.NodeText(nameNode, src)
		}
		file.Imports = append(file.Imports, imp)
		return false
	})
}

func jsImports(node *tree_sitter.Node, src []byte, file *ir.FileIR) {
	if node.Kind() == "call_expression" {
		jsRequire(node, src, file)
		return
	}

	sourceNode := node.ChildByFieldName("source")
	if sourceNode == nil {
		return
	}
	module := strings.Trim(parser.NodeText(sourceNode, src), `'"`)
	line := lineOf(node)

	clause := findChildByKind(node, "import_clause")
	if clause == nil {
		// Side-effect import: import "./polyfill".
		file.Imports = append(file.Imports, ir.Import{Module: module, Line: line})
		return
	}

	for i := uint(0); i < clause.NamedChildCount(); i++ {
		child := clause.NamedChild(i)
		if child == nil {
			continue
		}
		switch child.Kind() {
		case "identifier":
			// Default import binds the module's default export locally.
			file.Imports = append(file.Imports, ir.Import{
				Module: module,
				Symbol: "default",
				Alias:  parser.NodeText(child, src),
				Line:   line,
			})
		case "namespace_import":
			alias := ""
			if id := findChildByKind(child, "identifier"); id != nil {
				alias = parser.NodeText(id, src)
			}
			file.Imports = append(file.Imports, ir.Import{
				Module: module,
				Symbol: "*",
				Alias:  alias,
				Line:   line,
			})
		case "named_imports":
			for j := uint(0); j < child.NamedChildCount(); j++ {
				spec := child.NamedChild(j)
				if spec == nil || spec.Kind() != "import_specifier" {
					continue
				}
				nameNode := spec.ChildByFieldName("name")
				if nameNode == nil {
					continue
				}
				symbol := parser.NodeText(nameNode, src)
				alias := symbol
				if aliasNode := spec.ChildByFieldName("alias"); aliasNode != nil {
					alias = parser.NodeText(aliasNode, src)
				}
				file.Imports = append(file.Imports, ir.Import{
					Module: module,
					Symbol: symbol,
					Alias:  alias,
					Line:   line,
				})
			}
		}
	}
}

// jsRequire records CommonJS require("mod") calls bound to a variable.
func jsRequire(node *tree_sitter.Node, src []byte, file *ir.FileIR) {
	fn := node.ChildByFieldName("function")
	if fn == nil || fn.Kind() != "identifier" || parser.NodeText(fn, src) != "require" {
		return
	}
	argsNode := node.ChildByFieldName("arguments")
	if argsNode == nil || argsNode.NamedChildCount() == 0 {
		return
	}
	first := argsNode.NamedChild(0)
	if first == nil || first.Kind() != "string" {
		return
	}
	imp := ir.Import{
		Module: strings.Trim(parser.NodeText(first, src), `'"`),
		Line:   lineOf(node),
	}
	if parent := node.Parent(); parent != nil && parent.Kind() == "variable_declarator" {
		if nameNode := parent.ChildByFieldName("name"); nameNode != nil && nameNode.Kind() == "identifier" {
			imp.Alias = parser.NodeText(nameNode, src)
		}
	}
	file.Imports = append(file.Imports, imp)
}

func rustImports(node *tree_sitter.Node, src []byte, file *ir.FileIR) {
	arg := node.ChildByFieldName("argument")
	if arg == nil {
		return
	}
	rustUse(arg, src, "", lineOf(node), file)
}

// rustUse flattens a use tree into one record per imported leaf, normalizing
// "::" to "." so the dotted-name machinery applies.
func rustUse(node *tree_sitter.Node, src []byte, prefix string, line int, file *ir.FileIR) {
	join := func(p, s string) string {
		if p == "" {
			return s
		}
		return p + "." + s
	}
	switch node.Kind() {
	case "identifier", "scoped_identifier", "crate", "self", "super":
		path := rustPath(parser.NodeText(node, src))
		file.Imports = append(file.Imports, ir.Import{
			Module: join(prefix, path),
			Symbol: lastDotted(path),
			Line:   line,
		})
	case "use_as_clause":
		pathNode := node.ChildByFieldName("path")
		aliasNode := node.ChildByFieldName("alias")
		if pathNode == nil {
			return
		}
		path := rustPath(parser.NodeText(pathNode, src))
		imp := ir.Import{
			Module: join(prefix, path),
			Symbol: lastDotted(path),
			Line:   line,
		}
		if aliasNode != nil {
			imp.Alias = parser.NodeText(aliasNode, src)
		}
		file.Imports = append(file.Imports, imp)
	case "scoped_use_list":
		pathNode := node.ChildByFieldName("path")
		listNode := node.ChildByFieldName("list")
		inner := prefix
		if pathNode != nil {
			inner = join(prefix, rustPath(parser.NodeText(pathNode, src)))
		}
		if listNode == nil {
			return
		}
		for i := uint(0); i < listNode.NamedChildCount(); i++ {
			child := listNode.NamedChild(i)
			if child != nil {
				rustUse(child, src, inner, line, file)
			}
		}
	case "use_list":
		for i := uint(0); i < node.NamedChildCount(); i++ {
			child := node.NamedChild(i)
			if child != nil {
				rustUse(child, src, prefix, line, file)
			}
		}
	case "use_wildcard":
		path := rustPath(strings.TrimSuffix(parser.NodeText(node, src), "*"))
		path = strings.TrimSuffix(path, ".")
		file.Imports = append(file.Imports, ir.Import{
			Module: join(prefix, path),
			Symbol: "*",
			Line:   line,
		})
	}
}

func rustPath(s string) string {
	return strings.ReplaceAll(strings.TrimSpace(s), "::", ".")
}

func lastDotted(s string) string {
	if idx := strings.LastIndex(s, "."); idx >= 0 {
		return s[idx+1:]
	}
	return s
}

func cImports(node *tree_sitter.Node, src []byte, file *ir.FileIR) {
	pathNode := node.ChildByFieldName("path")
	if pathNode == nil {
		return
	}
	module := strings.Trim(parser.NodeText(pathNode, src), `"<>`)
	if module == "" {
		return
	}
	file.Imports = append(file.Imports, ir.Import{
		Module: module,
		Line:   lineOf(node),
	})
}

func javaImports(node *tree_sitter.Node, src []byte, file *ir.FileIR) {
	scoped := findChildByKind(node, "scoped_identifier")
	if scoped == nil {
		if id := findChildByKind(node, "identifier"); id != nil {
			scoped = id
		} else {
			return
		}
	}
	imp := ir.Import{
		Module: parser.NodeText(scoped, src),
		Line:   lineOf(node),
	}
	if findChildByKind(node, "asterisk") != nil {
		imp.Symbol = "*"
	}
	file.Imports = append(file.Imports, imp)
}

// rubyImports records require / require_relative / load calls with a literal
// string argument.
func rubyImports(node *tree_sitter.Node, src []byte, file *ir.FileIR) {
	methodNode := node.ChildByFieldName("method")
	if methodNode == nil {
		return
	}
	switch parser.NodeText(methodNode, src) {
	case "require", "require_relative", "load":
	default:
		return
	}
	argsNode := node.ChildByFieldName("arguments")
	if argsNode == nil || argsNode.NamedChildCount() == 0 {
		return
	}
	first := argsNode.NamedChild(0)
	if first == nil || first.Kind() != "string" {
		return
	}
	module := strings.Trim(parser.NodeText(first, src), `'"`)
	if module == "" {
		return
	}
	file.Imports = append(file.Imports, ir.Import{
		Module: module,
		Line:   lineOf(node),
	})
}
