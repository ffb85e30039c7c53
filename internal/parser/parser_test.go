package parser

import (
	"testing"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/lumenforge/codegraph-mcp/internal/lang"
)

func TestParseGo(t *testing.T) {
	source := []byte(`package main

func Hello() string {
	return "hello"
}

func Add(a, b int) int {
	return a + b
}
`)
	tree, err := Parse(lang.Go, source)
	if err != nil {
		t.Fatalf("Parse Go: %v", err)
	}
	defer tree.Close()

	root := tree.RootNode()
	if root == nil {
		t.Fatal("root node is nil")
	}

	var funcCount int
	Walk(root, func(n *tree_sitter.Node) bool {
		if n.Kind() == "function_declaration" {
			funcCount++
		}
		return true
	})
	if funcCount != 2 {
		t.Errorf("expected 2 function_declarations, got %d", funcCount)
	}
}

func TestParsePython(t *testing.T) {
	source := []byte(`def greet(name):
    return f"Hello, {name}"

class MyClass:
    def method(self):
        pass
`)
	tree, err := Parse(lang.Python, source)
	if err != nil {
		t.Fatalf("Parse Python: %v", err)
	}
	defer tree.Close()

	root := tree.RootNode()
	var funcCount, classCount int
	Walk(root, func(n *tree_sitter.Node) bool {
		switch n.Kind() {
		case "function_definition":
			funcCount++
		case "class_definition":
			classCount++
		}
		return true
	})
	if funcCount != 2 {
		t.Errorf("expected 2 function_definitions, got %d", funcCount)
	}
	if classCount != 1 {
		t.Errorf("expected 1 class_definition, got %d", classCount)
	}
}

func TestParseRust(t *testing.T) {
	source := []byte(`struct Point {
    x: i64,
    y: i64,
}

trait Shape {
    fn area(&self) -> f64;
}

fn origin() -> Point {
    Point { x: 0, y: 0 }
}
`)
	tree, err := Parse(lang.Rust, source)
	if err != nil {
		t.Fatalf("Parse Rust: %v", err)
	}
	defer tree.Close()

	root := tree.RootNode()
	var structCount, traitCount, funcCount int
	Walk(root, func(n *tree_sitter.Node) bool {
		switch n.Kind() {
		case "struct_item":
			structCount++
		case "trait_item":
			traitCount++
		case "function_item":
			funcCount++
		}
		return true
	})
	if structCount != 1 {
		t.Errorf("expected 1 struct_item, got %d", structCount)
	}
	if traitCount != 1 {
		t.Errorf("expected 1 trait_item, got %d", traitCount)
	}
	// The bodiless trait method is a function_signature_item, not a
	// function_item; only origin counts.
	if funcCount != 1 {
		t.Errorf("expected 1 function_item, got %d", funcCount)
	}
}

func TestParseC(t *testing.T) {
	source := []byte(`#include <stdio.h>
#define MAX_LEN 64

struct config {
    int verbose;
};

int run(struct config *c) {
    return c->verbose;
}
`)
	tree, err := Parse(lang.C, source)
	if err != nil {
		t.Fatalf("Parse C: %v", err)
	}
	defer tree.Close()

	root := tree.RootNode()
	var funcCount, structCount, macroCount int
	Walk(root, func(n *tree_sitter.Node) bool {
		switch n.Kind() {
		case "function_definition":
			funcCount++
		case "struct_specifier":
			structCount++
		case "preproc_def":
			macroCount++
		}
		return true
	})
	if funcCount != 1 {
		t.Errorf("expected 1 function_definition, got %d", funcCount)
	}
	if structCount < 1 {
		t.Errorf("expected at least 1 struct_specifier, got %d", structCount)
	}
	if macroCount != 1 {
		t.Errorf("expected 1 preproc_def, got %d", macroCount)
	}
}

func TestParseRuby(t *testing.T) {
	source := []byte(`class Greeter
  def greet(name)
	"Hello, #{name}"
  end
end
`)
	tree, err := Parse(lang.Ruby, source)
	if err != nil {
		t.Fatalf("Parse Ruby: %v", err)
	}
	defer tree.Close()

	root := tree.RootNode()
	if root == nil {
		t.Fatal("root node is nil")
	}

	var classCount, methodCount int
	Walk(root, func(n *tree_sitter.Node) bool {
		switch n.Kind() {
		case "class":
			if n.NamedChildCount() > 0 {
				classCount++
			}
		case "method":
			methodCount++
		}
		return true
	})
	if classCount != 1 {
		t.Errorf("expected 1 class, got %d", classCount)
	}
	if methodCount != 1 {
		t.Errorf("expected 1 method, got %d", methodCount)
	}
}

func TestAllLanguagesLoad(t *testing.T) {
	for _, l := range lang.AllLanguages() {
		_, err := GetLanguage(l)
		if err != nil {
			t.Errorf("GetLanguage(%s): %v", l, err)
		}
	}
}

func TestUnsupportedLanguage(t *testing.T) {
	if _, err := Parse(lang.Language("fortran"), []byte("x")); err == nil {
		t.Error("Parse with unsupported language should fail")
	}
}
