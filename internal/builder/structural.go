package builder

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/lumenforge/codegraph-mcp/internal/graph"
	"github.com/lumenforge/codegraph-mcp/internal/ir"
	"github.com/lumenforge/codegraph-mcp/internal/lang"
	"github.com/lumenforge/codegraph-mcp/internal/vcs"
)

// StructuralWriter is the first pass: it writes the containment hierarchy
// and every declared entity of one file. No CALLS or INHERITS edges are
// written here; those depend on the global index and on every file in the
// build being structurally present.
type StructuralWriter struct {
	store graph.Store
}

// NewStructuralWriter creates a writer over the given store.
func NewStructuralWriter(store graph.Store) *StructuralWriter {
	return &StructuralWriter{store: store}
}

// WriteRepository upserts the Repository node for root, carrying git
// metadata when available.
func (w *StructuralWriter) WriteRepository(ctx context.Context, root string, isDependency bool, git *vcs.Info) error {
	props := map[string]any{
		"is_dependency": isDependency,
	}
	if git != nil {
		if git.Commit != "" {
			props["commit"] = git.Commit
		}
		if git.Origin != "" {
			props["origin"] = git.Origin
		}
	}
	ref := graph.NodeRef{Label: graph.LabelRepository, Name: filepath.Base(root), Path: root}
	if _, err := w.store.UpsertNode(ctx, ref, props); err != nil {
		return fmt.Errorf("repository node %s: %w", root, err)
	}
	return nil
}

// WriteFile writes one parsed file: the File node, its containment chain up
// to the repository root, every declared entity with parameters and scope
// edges, and the IMPORTS edges. Every write is an upsert, so re-running
// over identical input changes nothing beyond a property refresh.
func (w *StructuralWriter) WriteFile(ctx context.Context, f *ir.FileIR, repoRoot, hash string) error {
	fileRef := graph.NodeRef{Label: graph.LabelFile, Name: filepath.Base(f.Path), Path: f.Path}
	props := map[string]any{
		"relative_path": relativePath(f.Path, repoRoot),
		"lang":          string(f.Lang),
		"is_dependency": f.IsDependency,
	}
	if hash != "" {
		props["hash"] = hash
	}
	if _, err := w.store.UpsertNode(ctx, fileRef, props); err != nil {
		return fmt.Errorf("file node %s: %w", f.Path, err)
	}
	if err := w.linkChain(ctx, f.Path, repoRoot); err != nil {
		return err
	}

	// Types go in before functions so method containment edges find their
	// owning type.
	if err := w.writeTypes(ctx, f, fileRef); err != nil {
		return err
	}
	if err := w.writeFunctions(ctx, f, fileRef); err != nil {
		return err
	}
	if err := w.writeVariables(ctx, f, fileRef); err != nil {
		return err
	}
	if err := w.writeMacros(ctx, f, fileRef); err != nil {
		return err
	}
	return w.writeImports(ctx, f, fileRef)
}

// linkChain merges the Repository → Directory → … → File CONTAINS chain for
// every component between the repository root and the file. Files outside
// the root get no chain.
func (w *StructuralWriter) linkChain(ctx context.Context, filePath, repoRoot string) error {
	rel, err := filepath.Rel(repoRoot, filePath)
	if err != nil || strings.HasPrefix(rel, "..") {
		return nil
	}

	// A minimal Repository upsert keeps single-file updates rooted even on
	// a store the full build has not touched yet.
	parent := graph.NodeRef{Label: graph.LabelRepository, Name: filepath.Base(repoRoot), Path: repoRoot}
	if _, err := w.store.UpsertNode(ctx, parent, nil); err != nil {
		return fmt.Errorf("repository node %s: %w", repoRoot, err)
	}

	components := strings.Split(filepath.ToSlash(rel), "/")
	dir := repoRoot
	for _, comp := range components[:len(components)-1] {
		dir = filepath.Join(dir, comp)
		ref := graph.NodeRef{Label: graph.LabelDirectory, Name: comp, Path: dir}
		if _, err := w.store.UpsertNode(ctx, ref, nil); err != nil {
			return fmt.Errorf("directory node %s: %w", dir, err)
		}
		if err := w.store.UpsertEdge(ctx, parent, ref, graph.EdgeContains, nil); err != nil {
			return fmt.Errorf("contains %s: %w", dir, err)
		}
		parent = ref
	}

	fileRef := graph.NodeRef{Label: graph.LabelFile, Name: filepath.Base(filePath), Path: filePath}
	if err := w.store.UpsertEdge(ctx, parent, fileRef, graph.EdgeContains, nil); err != nil {
		return fmt.Errorf("contains %s: %w", filePath, err)
	}
	return nil
}

func (w *StructuralWriter) writeTypes(ctx context.Context, f *ir.FileIR, fileRef graph.NodeRef) error {
	for _, t := range f.Types {
		ref := graph.NodeRef{Label: labelForKind(t.Kind), Name: t.Name, Path: f.Path, Line: t.Line}
		props := map[string]any{
			"source":        t.Source,
			"docstring":     t.Docstring,
			"end_line":      t.EndLine,
			"lang":          string(f.Lang),
			"is_dependency": f.IsDependency,
		}
		if len(t.Bases) > 0 {
			props["bases"] = t.Bases
		}
		if t.Context != "" {
			props["context"] = t.Context
			props["context_type"] = t.ContextType
		}
		if _, err := w.store.UpsertNode(ctx, ref, props); err != nil {
			return fmt.Errorf("type %s: %w", t.Name, err)
		}
		if err := w.store.UpsertEdge(ctx, fileRef, ref, graph.EdgeContains, nil); err != nil {
			return fmt.Errorf("contains %s: %w", t.Name, err)
		}
	}
	return nil
}

func (w *StructuralWriter) writeFunctions(ctx context.Context, f *ir.FileIR, fileRef graph.NodeRef) error {
	spec := lang.ForLanguage(f.Lang)
	for _, fn := range f.Functions {
		ref := graph.NodeRef{Label: graph.LabelFunction, Name: fn.Name, Path: f.Path, Line: fn.Line}
		complexity := fn.Complexity
		if complexity == 0 {
			complexity = 1
		}
		props := map[string]any{
			"source":                fn.Source,
			"docstring":             fn.Docstring,
			"args":                  fn.Args,
			"end_line":              fn.EndLine,
			"cyclomatic_complexity": complexity,
			"lang":                  string(f.Lang),
			"is_dependency":         f.IsDependency,
		}
		if fn.Context != "" {
			props["context"] = fn.Context
			props["context_type"] = fn.ContextType
		}
		if fn.ClassContext != "" {
			props["class_context"] = fn.ClassContext
		}
		if _, err := w.store.UpsertNode(ctx, ref, props); err != nil {
			return fmt.Errorf("function %s: %w", fn.Name, err)
		}
		if err := w.store.UpsertEdge(ctx, fileRef, ref, graph.EdgeContains, nil); err != nil {
			return fmt.Errorf("contains %s: %w", fn.Name, err)
		}

		// Parameters share the owning function's line in their key.
		for _, arg := range fn.Args {
			paramRef := graph.NodeRef{Label: graph.LabelParameter, Name: arg, Path: f.Path, Line: fn.Line}
			if _, err := w.store.UpsertNode(ctx, paramRef, nil); err != nil {
				return fmt.Errorf("parameter %s: %w", arg, err)
			}
			if err := w.store.UpsertEdge(ctx, ref, paramRef, graph.EdgeHasParameter, nil); err != nil {
				return fmt.Errorf("has_parameter %s: %w", arg, err)
			}
		}

		// Nested functions hang off their enclosing function.
		if fn.Context != "" && spec != nil && spec.IsFunctionNode(fn.ContextType) {
			outer := graph.NodeRef{Label: graph.LabelFunction, Name: fn.Context, Path: f.Path, Line: fn.ContextLine}
			if err := w.store.UpsertEdge(ctx, outer, ref, graph.EdgeContains, nil); err != nil {
				return fmt.Errorf("contains nested %s: %w", fn.Name, err)
			}
		}

		// Methods hang off their owning type when it is declared in the
		// same file; the declared kind picks the owner label.
		if fn.ClassContext != "" {
			if ownerLabel, ok := typeLabel(f, fn.ClassContext); ok {
				owner := graph.NodeRef{Label: ownerLabel, Name: fn.ClassContext, Path: f.Path}
				if err := w.store.UpsertEdge(ctx, owner, ref, graph.EdgeContains, nil); err != nil {
					return fmt.Errorf("contains method %s: %w", fn.Name, err)
				}
			}
		}
	}
	return nil
}

func (w *StructuralWriter) writeVariables(ctx context.Context, f *ir.FileIR, fileRef graph.NodeRef) error {
	for _, v := range f.Variables {
		ref := graph.NodeRef{Label: graph.LabelVariable, Name: v.Name, Path: f.Path, Line: v.Line}
		props := map[string]any{
			"source":        v.Source,
			"lang":          string(f.Lang),
			"is_dependency": f.IsDependency,
		}
		if _, err := w.store.UpsertNode(ctx, ref, props); err != nil {
			return fmt.Errorf("variable %s: %w", v.Name, err)
		}
		if err := w.store.UpsertEdge(ctx, fileRef, ref, graph.EdgeContains, nil); err != nil {
			return fmt.Errorf("contains %s: %w", v.Name, err)
		}
	}
	return nil
}

func (w *StructuralWriter) writeMacros(ctx context.Context, f *ir.FileIR, fileRef graph.NodeRef) error {
	for _, m := range f.Macros {
		ref := graph.NodeRef{Label: graph.LabelMacro, Name: m.Name, Path: f.Path, Line: m.Line}
		props := map[string]any{
			"source":        m.Source,
			"lang":          string(f.Lang),
			"is_dependency": f.IsDependency,
		}
		if _, err := w.store.UpsertNode(ctx, ref, props); err != nil {
			return fmt.Errorf("macro %s: %w", m.Name, err)
		}
		if err := w.store.UpsertEdge(ctx, fileRef, ref, graph.EdgeContains, nil); err != nil {
			return fmt.Errorf("contains %s: %w", m.Name, err)
		}
	}
	return nil
}

func (w *StructuralWriter) writeImports(ctx context.Context, f *ir.FileIR, fileRef graph.NodeRef) error {
	for _, imp := range f.Imports {
		if imp.Module == "" {
			continue
		}
		modRef := graph.NodeRef{Label: graph.LabelModule, Name: imp.Module}
		if _, err := w.store.UpsertNode(ctx, modRef, nil); err != nil {
			return fmt.Errorf("module %s: %w", imp.Module, err)
		}
		props := map[string]any{}
		if imp.Alias != "" {
			props["alias"] = imp.Alias
		}
		if imp.Symbol != "" {
			props["symbol"] = imp.Symbol
		}
		if imp.Line > 0 {
			props["line"] = imp.Line
		}
		if err := w.store.UpsertEdge(ctx, fileRef, modRef, graph.EdgeImports, props); err != nil {
			return fmt.Errorf("imports %s: %w", imp.Module, err)
		}
	}
	return nil
}

// relativePath computes the File node's relative_path attribute: relative
// to the repository root, degenerating to the bare file name outside any
// root.
func relativePath(filePath, repoRoot string) string {
	rel, err := filepath.Rel(repoRoot, filePath)
	if err != nil || strings.HasPrefix(rel, "..") {
		return filepath.Base(filePath)
	}
	return filepath.ToSlash(rel)
}

// labelForKind maps an IR type kind onto its store label. The two sets
// share their spelling.
func labelForKind(k ir.TypeKind) string {
	return string(k)
}

// typeLabel finds the declared kind of a named type in this file, for the
// owner side of method containment. Methods of types declared elsewhere get
// no scope edge.
func typeLabel(f *ir.FileIR, name string) (string, bool) {
	for _, t := range f.Types {
		if t.Name == name {
			return labelForKind(t.Kind), true
		}
	}
	return "", false
}
