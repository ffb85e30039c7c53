package builder

import (
	"context"
	"fmt"

	"github.com/lumenforge/codegraph-mcp/internal/graph"
	"github.com/lumenforge/codegraph-mcp/internal/ir"
	"github.com/lumenforge/codegraph-mcp/internal/lang"
)

// classLikeLabels orders the labels a resolved parent type may carry.
var classLikeLabels = []string{
	graph.LabelClass, graph.LabelStruct, graph.LabelInterface,
	graph.LabelTrait, graph.LabelEnum, graph.LabelUnion,
}

// Linker is the second pass: it resolves INHERITS and CALLS edges over the
// accumulated file IRs. It must only run after the structural pass wrote
// every file in the build; resolution targets nodes that already exist and
// missing endpoints make the edge write a silent no-op.
type Linker struct {
	store graph.Store
	index SymbolIndex
}

// NewLinker creates a linker over the store and the pre-scan index.
func NewLinker(store graph.Store, index SymbolIndex) *Linker {
	return &Linker{store: store, index: index}
}

// LinkInheritance writes INHERITS edges for every class-like declaration
// with base tokens. Unresolved and ambiguous bases are skipped silently.
func (l *Linker) LinkInheritance(ctx context.Context, files []*ir.FileIR) error {
	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return err
		}
		spec := lang.ForLanguage(f.Lang)
		res := NewResolver(l.index, f)
		for _, t := range f.Types {
			for _, base := range t.Bases {
				if spec != nil && spec.RootBase != "" && base == spec.RootBase {
					continue
				}
				target, r := res.ResolveBase(base)
				if r.State != Resolved {
					continue
				}
				parent, ok, err := l.findClassLike(ctx, target, r.Path)
				if err != nil {
					return fmt.Errorf("inherits %s: %w", base, err)
				}
				if !ok {
					continue
				}
				child := graph.NodeRef{Label: labelForKind(t.Kind), Name: t.Name, Path: f.Path}
				if err := l.store.UpsertEdge(ctx, child, parent, graph.EdgeInherits, nil); err != nil {
					return fmt.Errorf("inherits %s: %w", base, err)
				}
			}
		}
	}
	return nil
}

// LinkCalls writes CALLS edges for every recorded call site. Builtin names
// never resolve; everything else gets a target from the priority chain plus
// its fallback, and a missing callee node leaves no edge.
func (l *Linker) LinkCalls(ctx context.Context, files []*ir.FileIR) error {
	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return err
		}
		spec := lang.ForLanguage(f.Lang)
		res := NewResolver(l.index, f)
		for _, call := range f.Calls {
			if spec != nil && spec.IsBuiltin(call.Name) {
				continue
			}
			target := res.CallTarget(call)

			caller := graph.NodeRef{Label: graph.LabelFile, Path: f.Path}
			if call.CallerName != "" {
				caller = graph.NodeRef{
					Label: graph.LabelFunction,
					Name:  call.CallerName,
					Path:  f.Path,
					Line:  call.CallerLine,
				}
			}
			callee := graph.NodeRef{Label: graph.LabelFunction, Name: call.Name, Path: target}
			props := map[string]any{
				"line":      call.Line,
				"args":      call.Args,
				"full_name": call.FullName,
			}
			if err := l.store.UpsertEdge(ctx, caller, callee, graph.EdgeCalls, props); err != nil {
				return fmt.Errorf("calls %s: %w", call.FullName, err)
			}
		}
	}
	return nil
}

// findClassLike locates the parent node for an inheritance edge: the first
// class-like label with a node of that name in the resolved file.
func (l *Linker) findClassLike(ctx context.Context, name, path string) (graph.NodeRef, bool, error) {
	for _, label := range classLikeLabels {
		ref := graph.NodeRef{Label: label, Name: name, Path: path}
		node, err := l.store.FindNode(ctx, ref)
		if err != nil {
			return graph.NodeRef{}, false, err
		}
		if node != nil {
			return ref, true, nil
		}
	}
	return graph.NodeRef{}, false, nil
}
