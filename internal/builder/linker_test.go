package builder

import (
	"context"
	"slices"
	"testing"

	"github.com/lumenforge/codegraph-mcp/internal/graph"
	"github.com/lumenforge/codegraph-mcp/internal/ir"
	"github.com/lumenforge/codegraph-mcp/internal/lang"
)

// linkerFixture structurally writes two files and returns the store, the
// hand-built symbol index, and the IR slice in write order.
func linkerFixture(t *testing.T) (graph.Store, SymbolIndex, []*ir.FileIR) {
	t.Helper()
	ctx := context.Background()
	store := graph.NewMemory()

	a := &ir.FileIR{
		Path: "/repo/a.py",
		Lang: lang.Python,
		Types: []ir.Type{
			{Name: "Child", Kind: ir.KindClass, Line: 10, Bases: []string{"object", "Base", "missing.Thing"}},
		},
		Functions: []ir.Function{{Name: "caller", Line: 5}},
		Calls: []ir.Call{
			{Name: "helper", FullName: "helper", Line: 11, Args: []string{"1"}, CallerName: "caller", CallerType: "function_definition", CallerLine: 5},
			{Name: "print", FullName: "print", Line: 12, CallerName: "caller", CallerType: "function_definition", CallerLine: 5},
			{Name: "boot", FullName: "boot", Line: 1},
			{Name: "ghost", FullName: "ghost", Line: 2, CallerName: "caller", CallerType: "function_definition", CallerLine: 5},
		},
	}
	b := &ir.FileIR{
		Path: "/repo/b.py",
		Lang: lang.Python,
		Types: []ir.Type{
			{Name: "Base", Kind: ir.KindClass, Line: 1},
		},
		Functions: []ir.Function{
			{Name: "helper", Line: 3},
			{Name: "boot", Line: 6},
			{Name: "print", Line: 9},
		},
	}

	w := NewStructuralWriter(store)
	for _, f := range []*ir.FileIR{a, b} {
		if err := w.WriteFile(ctx, f, "/repo", ""); err != nil {
			t.Fatalf("WriteFile %s: %v", f.Path, err)
		}
	}

	index := SymbolIndex{
		"Child":  {"/repo/a.py"},
		"Base":   {"/repo/b.py"},
		"caller": {"/repo/a.py"},
		"helper": {"/repo/b.py"},
		"boot":   {"/repo/b.py"},
		"print":  {"/repo/b.py"},
	}
	return store, index, []*ir.FileIR{a, b}
}

func TestLinkInheritance(t *testing.T) {
	ctx := context.Background()
	store, index, files := linkerFixture(t)

	if err := NewLinker(store, index).LinkInheritance(ctx, files); err != nil {
		t.Fatalf("LinkInheritance: %v", err)
	}

	edges, err := store.CountEdgesByType(ctx)
	if err != nil {
		t.Fatal(err)
	}
	// "object" is the root base, "missing.Thing" has no imported prefix;
	// only "Base" resolves.
	if edges[graph.EdgeInherits] != 1 {
		t.Fatalf("INHERITS count = %d, want 1", edges[graph.EdgeInherits])
	}

	child, err := store.FindNode(ctx, graph.NodeRef{Label: graph.LabelClass, Name: "Child", Path: "/repo/a.py"})
	if err != nil || child == nil {
		t.Fatalf("Child node: %v, %v", child, err)
	}
	parent, err := store.FindNode(ctx, graph.NodeRef{Label: graph.LabelClass, Name: "Base", Path: "/repo/b.py"})
	if err != nil || parent == nil {
		t.Fatalf("Base node: %v, %v", parent, err)
	}
	out, err := store.EdgesFrom(ctx, child.ID, graph.EdgeInherits)
	if err != nil {
		t.Fatal(err)
	}
	if len(out) != 1 || out[0].TargetID != parent.ID {
		t.Errorf("INHERITS edges from Child = %+v, want one to %d", out, parent.ID)
	}
}

func TestLinkCalls(t *testing.T) {
	ctx := context.Background()
	store, index, files := linkerFixture(t)

	if err := NewLinker(store, index).LinkCalls(ctx, files); err != nil {
		t.Fatalf("LinkCalls: %v", err)
	}

	edges, err := store.CountEdgesByType(ctx)
	if err != nil {
		t.Fatal(err)
	}
	// helper and boot land; print is a builtin, ghost resolves to a file
	// that declares no such function.
	if edges[graph.EdgeCalls] != 2 {
		t.Fatalf("CALLS count = %d, want 2", edges[graph.EdgeCalls])
	}

	caller, err := store.FindNode(ctx, graph.NodeRef{Label: graph.LabelFunction, Name: "caller", Path: "/repo/a.py"})
	if err != nil || caller == nil {
		t.Fatalf("caller node: %v, %v", caller, err)
	}
	helper, err := store.FindNode(ctx, graph.NodeRef{Label: graph.LabelFunction, Name: "helper", Path: "/repo/b.py"})
	if err != nil || helper == nil {
		t.Fatalf("helper node: %v, %v", helper, err)
	}
	out, err := store.EdgesFrom(ctx, caller.ID, graph.EdgeCalls)
	if err != nil {
		t.Fatal(err)
	}
	if len(out) != 1 || out[0].TargetID != helper.ID {
		t.Fatalf("CALLS from caller = %+v, want one to %d", out, helper.ID)
	}
	props := out[0].Properties
	if props["line"] != 11 || props["full_name"] != "helper" {
		t.Errorf("call props = %v", props)
	}
	if args, ok := props["args"].([]string); !ok || !slices.Equal(args, []string{"1"}) {
		t.Errorf("call args = %v", props["args"])
	}

	// A call outside any function hangs off the File node.
	file, err := store.FindNode(ctx, graph.NodeRef{Label: graph.LabelFile, Path: "/repo/a.py"})
	if err != nil || file == nil {
		t.Fatalf("file node: %v, %v", file, err)
	}
	boot, err := store.FindNode(ctx, graph.NodeRef{Label: graph.LabelFunction, Name: "boot", Path: "/repo/b.py"})
	if err != nil || boot == nil {
		t.Fatalf("boot node: %v, %v", boot, err)
	}
	fromFile, err := store.EdgesFrom(ctx, file.ID, graph.EdgeCalls)
	if err != nil {
		t.Fatal(err)
	}
	if len(fromFile) != 1 || fromFile[0].TargetID != boot.ID {
		t.Errorf("CALLS from file = %+v, want one to %d", fromFile, boot.ID)
	}
}

func TestLinkInheritanceCrossKind(t *testing.T) {
	ctx := context.Background()
	store := graph.NewMemory()

	iface := &ir.FileIR{
		Path:  "/repo/shape.ts",
		Lang:  lang.TypeScript,
		Types: []ir.Type{{Name: "Shape", Kind: ir.KindInterface, Line: 1}},
	}
	impl := &ir.FileIR{
		Path:  "/repo/circle.ts",
		Lang:  lang.TypeScript,
		Types: []ir.Type{{Name: "Circle", Kind: ir.KindClass, Line: 1, Bases: []string{"Shape"}}},
	}
	w := NewStructuralWriter(store)
	for _, f := range []*ir.FileIR{iface, impl} {
		if err := w.WriteFile(ctx, f, "/repo", ""); err != nil {
			t.Fatalf("WriteFile %s: %v", f.Path, err)
		}
	}

	index := SymbolIndex{
		"Shape":  {"/repo/shape.ts"},
		"Circle": {"/repo/circle.ts"},
	}
	if err := NewLinker(store, index).LinkInheritance(ctx, []*ir.FileIR{iface, impl}); err != nil {
		t.Fatalf("LinkInheritance: %v", err)
	}

	circle, err := store.FindNode(ctx, graph.NodeRef{Label: graph.LabelClass, Name: "Circle"})
	if err != nil || circle == nil {
		t.Fatalf("Circle node: %v, %v", circle, err)
	}
	shape, err := store.FindNode(ctx, graph.NodeRef{Label: graph.LabelInterface, Name: "Shape"})
	if err != nil || shape == nil {
		t.Fatalf("Shape node: %v, %v", shape, err)
	}
	out, err := store.EdgesFrom(ctx, circle.ID, graph.EdgeInherits)
	if err != nil {
		t.Fatal(err)
	}
	if len(out) != 1 || out[0].TargetID != shape.ID {
		t.Errorf("INHERITS from Circle = %+v, want one to %d", out, shape.ID)
	}
}
