// ast_debug prints the tree-sitter AST of source files. It exists to answer
// "what does the grammar call this node" questions when extending the
// language adapters.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/lumenforge/codegraph-mcp/internal/lang"
	"github.com/lumenforge/codegraph-mcp/internal/parser"
)

func printAST(node *tree_sitter.Node, source []byte, indent int) {
	if node == nil {
		return
	}
	prefix := strings.Repeat("  ", indent)
	parentKind := "nil"
	if node.Parent() != nil {
		parentKind = node.Parent().Kind()
	}
	text := string(source[node.StartByte():node.EndByte()])
	if len(text) > 60 {
		text = text[:60] + "..."
	}
	fmt.Printf("%s%s (parent=%s) %q\n", prefix, node.Kind(), parentKind, text)
	for i := uint(0); i < node.ChildCount(); i++ {
		printAST(node.Child(i), source, indent+1)
	}
}

func dumpFile(path string) error {
	source, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	ext := filepath.Ext(path)
	language, ok := lang.LanguageForExtension(ext)
	if !ok {
		return fmt.Errorf("unsupported extension %q", ext)
	}

	tree, err := parser.Parse(language, source)
	if err != nil {
		return err
	}
	defer tree.Close()

	fmt.Printf("=== %s (%s) ===\n", path, language)
	printAST(tree.RootNode(), source, 0)
	return nil
}

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "usage: ast_debug <file>...")
		os.Exit(2)
	}

	exitCode := 0
	for _, path := range os.Args[1:] {
		if err := dumpFile(path); err != nil {
			fmt.Fprintf(os.Stderr, "%s: %v\n", path, err)
			exitCode = 1
		}
	}
	os.Exit(exitCode)
}
