package builder

import (
	"context"
	"maps"
	"testing"

	"github.com/lumenforge/codegraph-mcp/internal/graph"
	"github.com/lumenforge/codegraph-mcp/internal/ir"
	"github.com/lumenforge/codegraph-mcp/internal/lang"
	"github.com/lumenforge/codegraph-mcp/internal/vcs"
)

func fixtureFile() *ir.FileIR {
	return &ir.FileIR{
		Path: "/repo/src/app.py",
		Lang: lang.Python,
		Functions: []ir.Function{
			{Name: "top", Line: 3, EndLine: 12, Args: []string{"a", "b"}, Complexity: 3, Source: "def top(a, b): ...", Docstring: "Top level."},
			{Name: "inner", Line: 5, EndLine: 7, Context: "top", ContextType: "function_definition", ContextLine: 3},
			{Name: "save", Line: 20, EndLine: 24, Args: []string{"self"}, ClassContext: "Repo"},
			{Name: "plain", Line: 30, EndLine: 31},
			{Name: "detached", Line: 40, EndLine: 41, ClassContext: "Remote"},
		},
		Types: []ir.Type{
			{Name: "Repo", Kind: ir.KindClass, Line: 15, EndLine: 25, Bases: []string{"Base"}},
		},
		Variables: []ir.Variable{{Name: "LIMIT", Line: 1, Source: "LIMIT = 10"}},
		Imports:   []ir.Import{{Module: "pkg.db.session", Symbol: "Session", Alias: "S", Line: 1}},
	}
}

func writeFixture(t *testing.T, store graph.Store) {
	t.Helper()
	ctx := context.Background()
	w := NewStructuralWriter(store)
	if err := w.WriteRepository(ctx, "/repo", false, &vcs.Info{Commit: "abc123", Origin: "git@example.com:demo.git"}); err != nil {
		t.Fatalf("WriteRepository: %v", err)
	}
	if err := w.WriteFile(ctx, fixtureFile(), "/repo", "f00d"); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
}

func TestWriteFile(t *testing.T) {
	ctx := context.Background()
	store := graph.NewMemory()
	writeFixture(t, store)

	nodes, err := store.CountNodesByLabel(ctx)
	if err != nil {
		t.Fatal(err)
	}
	wantNodes := map[string]int{
		graph.LabelRepository: 1,
		graph.LabelDirectory:  1,
		graph.LabelFile:       1,
		graph.LabelFunction:   5,
		graph.LabelClass:      1,
		graph.LabelVariable:   1,
		graph.LabelParameter:  3,
		graph.LabelModule:     1,
	}
	if !maps.Equal(nodes, wantNodes) {
		t.Errorf("node counts = %v, want %v", nodes, wantNodes)
	}

	edges, err := store.CountEdgesByType(ctx)
	if err != nil {
		t.Fatal(err)
	}
	wantEdges := map[string]int{
		graph.EdgeContains:     11,
		graph.EdgeHasParameter: 3,
		graph.EdgeImports:      1,
	}
	if !maps.Equal(edges, wantEdges) {
		t.Errorf("edge counts = %v, want %v", edges, wantEdges)
	}
}

func TestWriteRepositoryGitMetadata(t *testing.T) {
	ctx := context.Background()
	store := graph.NewMemory()
	writeFixture(t, store)

	repo, err := store.FindNode(ctx, graph.NodeRef{Label: graph.LabelRepository, Path: "/repo"})
	if err != nil || repo == nil {
		t.Fatalf("repository node: %v, %v", repo, err)
	}
	if got := repo.Properties["commit"]; got != "abc123" {
		t.Errorf("commit = %v", got)
	}
	if got := repo.Properties["origin"]; got != "git@example.com:demo.git" {
		t.Errorf("origin = %v", got)
	}
}

func TestWriteFileProperties(t *testing.T) {
	ctx := context.Background()
	store := graph.NewMemory()
	writeFixture(t, store)

	file, err := store.FindNode(ctx, graph.NodeRef{Label: graph.LabelFile, Path: "/repo/src/app.py"})
	if err != nil || file == nil {
		t.Fatalf("file node: %v, %v", file, err)
	}
	if got := file.Properties["relative_path"]; got != "src/app.py" {
		t.Errorf("relative_path = %v", got)
	}
	if got := file.Properties["hash"]; got != "f00d" {
		t.Errorf("hash = %v", got)
	}
	if got := file.Properties["lang"]; got != "python" {
		t.Errorf("lang = %v", got)
	}

	top, err := store.FindNode(ctx, graph.NodeRef{Label: graph.LabelFunction, Name: "top", Path: "/repo/src/app.py"})
	if err != nil || top == nil {
		t.Fatalf("top node: %v, %v", top, err)
	}
	if got := top.Properties["cyclomatic_complexity"]; got != 3 {
		t.Errorf("top complexity = %v", got)
	}

	plain, err := store.FindNode(ctx, graph.NodeRef{Label: graph.LabelFunction, Name: "plain", Path: "/repo/src/app.py"})
	if err != nil || plain == nil {
		t.Fatalf("plain node: %v, %v", plain, err)
	}
	if got := plain.Properties["cyclomatic_complexity"]; got != 1 {
		t.Errorf("unset complexity stored as %v, want 1", got)
	}

	save, err := store.FindNode(ctx, graph.NodeRef{Label: graph.LabelFunction, Name: "save", Path: "/repo/src/app.py"})
	if err != nil || save == nil {
		t.Fatalf("save node: %v, %v", save, err)
	}
	if got := save.Properties["class_context"]; got != "Repo" {
		t.Errorf("class_context = %v", got)
	}
}

func TestWriteFileScopeEdges(t *testing.T) {
	ctx := context.Background()
	store := graph.NewMemory()
	writeFixture(t, store)

	assertContains := func(fromLabel, fromName, toName string) {
		t.Helper()
		from, err := store.FindNode(ctx, graph.NodeRef{Label: fromLabel, Name: fromName, Path: "/repo/src/app.py"})
		if err != nil || from == nil {
			t.Fatalf("%s %s: %v, %v", fromLabel, fromName, from, err)
		}
		edges, err := store.EdgesFrom(ctx, from.ID, graph.EdgeContains)
		if err != nil {
			t.Fatal(err)
		}
		for _, e := range edges {
			target, err := store.FindNodes(ctx, graph.NodeRef{Label: graph.LabelFunction, Name: toName, Path: "/repo/src/app.py"})
			if err != nil {
				t.Fatal(err)
			}
			for _, n := range target {
				if n.ID == e.TargetID {
					return
				}
			}
		}
		t.Errorf("no CONTAINS edge %s(%s) -> %s", fromLabel, fromName, toName)
	}

	assertContains(graph.LabelFunction, "top", "inner")
	assertContains(graph.LabelClass, "Repo", "save")

	// A class context naming no type in the file leaves the method without a
	// scope edge.
	remote, err := store.FindNode(ctx, graph.NodeRef{Label: graph.LabelClass, Name: "Remote"})
	if err != nil {
		t.Fatal(err)
	}
	if remote != nil {
		t.Errorf("unexpected Remote class node %+v", remote)
	}
}

func TestWriteFileImportEdge(t *testing.T) {
	ctx := context.Background()
	store := graph.NewMemory()
	writeFixture(t, store)

	file, err := store.FindNode(ctx, graph.NodeRef{Label: graph.LabelFile, Path: "/repo/src/app.py"})
	if err != nil || file == nil {
		t.Fatalf("file node: %v, %v", file, err)
	}
	edges, err := store.EdgesFrom(ctx, file.ID, graph.EdgeImports)
	if err != nil {
		t.Fatal(err)
	}
	if len(edges) != 1 {
		t.Fatalf("IMPORTS edges = %d, want 1", len(edges))
	}
	props := edges[0].Properties
	if props["alias"] != "S" || props["symbol"] != "Session" || props["line"] != 1 {
		t.Errorf("import props = %v", props)
	}

	mod, err := store.FindNode(ctx, graph.NodeRef{Label: graph.LabelModule, Name: "pkg.db.session"})
	if err != nil || mod == nil {
		t.Fatalf("module node: %v, %v", mod, err)
	}
	if edges[0].TargetID != mod.ID {
		t.Errorf("import edge targets node %d, module is %d", edges[0].TargetID, mod.ID)
	}
}

func TestWriteFileIdempotent(t *testing.T) {
	ctx := context.Background()
	store := graph.NewMemory()
	writeFixture(t, store)

	nodesBefore, _ := store.CountNodesByLabel(ctx)
	edgesBefore, _ := store.CountEdgesByType(ctx)

	writeFixture(t, store)

	nodesAfter, _ := store.CountNodesByLabel(ctx)
	edgesAfter, _ := store.CountEdgesByType(ctx)
	if !maps.Equal(nodesBefore, nodesAfter) {
		t.Errorf("node counts drifted: %v -> %v", nodesBefore, nodesAfter)
	}
	if !maps.Equal(edgesBefore, edgesAfter) {
		t.Errorf("edge counts drifted: %v -> %v", edgesBefore, edgesAfter)
	}
}

func TestWriteFileOutsideRoot(t *testing.T) {
	ctx := context.Background()
	store := graph.NewMemory()
	w := NewStructuralWriter(store)

	f := &ir.FileIR{Path: "/elsewhere/lib.py", Lang: lang.Python}
	if err := w.WriteFile(ctx, f, "/repo", ""); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	nodes, err := store.CountNodesByLabel(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if !maps.Equal(nodes, map[string]int{graph.LabelFile: 1}) {
		t.Errorf("node counts = %v, want a lone File", nodes)
	}

	file, err := store.FindNode(ctx, graph.NodeRef{Label: graph.LabelFile, Path: "/elsewhere/lib.py"})
	if err != nil || file == nil {
		t.Fatalf("file node: %v, %v", file, err)
	}
	if got := file.Properties["relative_path"]; got != "lib.py" {
		t.Errorf("relative_path = %v", got)
	}
	if _, ok := file.Properties["hash"]; ok {
		t.Errorf("empty hash stored: %v", file.Properties)
	}
}
