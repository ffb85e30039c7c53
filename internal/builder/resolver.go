package builder

import (
	"slices"
	"strings"

	"github.com/lumenforge/codegraph-mcp/internal/ir"
)

// ResolutionState tags the outcome of one resolution attempt.
type ResolutionState int

const (
	// Unresolved means no candidate file was found.
	Unresolved ResolutionState = iota
	// Ambiguous means several candidates remained and no rule picked one.
	Ambiguous
	// Resolved means exactly one file was chosen.
	Resolved
)

// Resolution is the tagged result of the priority chain. Path is set when
// Resolved; Candidates when Ambiguous.
type Resolution struct {
	State      ResolutionState
	Path       string
	Candidates []string
}

func resolved(path string) Resolution {
	return Resolution{State: Resolved, Path: path}
}

func ambiguous(candidates []string) Resolution {
	return Resolution{State: Ambiguous, Candidates: slices.Clone(candidates)}
}

// Resolver resolves call and inheritance targets for one file against the
// global symbol index. The per-file lookup sets are computed once at
// construction.
type Resolver struct {
	index     SymbolIndex
	path      string
	functions map[string]struct{}
	types     map[string]struct{}
	imports   map[string]string
}

// NewResolver creates the resolver for one file.
func NewResolver(index SymbolIndex, f *ir.FileIR) *Resolver {
	return &Resolver{
		index:     index,
		path:      f.Path,
		functions: f.FunctionNames(),
		types:     f.TypeNames(),
		imports:   f.LocalImports(),
	}
}

// ResolveCall runs the call-site priority chain:
//  1. an inferred receiver type with exactly one declaring file wins; zero
//     or several candidates end the chain (the caller falls back, never
//     consulting the name rules);
//  2. otherwise the lookup name (first dotted segment of the full name, or
//     the bare name) resolves to the caller's own file when a local
//     function shadows it, to the single candidate when only one file
//     declares it, or, among several, to the candidate whose path contains
//     the imported module path for a matching local import alias.
//
// The final fallback (first bare-name candidate, then the caller's file)
// is CallTarget's concern; keeping it out of the chain makes the priority
// order directly testable.
func (r *Resolver) ResolveCall(call ir.Call) Resolution {
	if call.InferredObjType != "" {
		candidates := r.index.Candidates(call.InferredObjType)
		switch {
		case len(candidates) == 1:
			return resolved(candidates[0])
		case len(candidates) > 1:
			return ambiguous(candidates)
		}
		return Resolution{State: Unresolved}
	}

	lookup := call.Name
	if i := strings.Index(call.FullName, "."); i >= 0 {
		lookup = call.FullName[:i]
	}

	if _, ok := r.functions[lookup]; ok {
		return resolved(r.path)
	}

	candidates := r.index.Candidates(lookup)
	switch {
	case len(candidates) == 1:
		return resolved(candidates[0])
	case len(candidates) > 1:
		if module, ok := r.imports[lookup]; ok {
			if path, ok := matchModulePath(candidates, module); ok {
				return resolved(path)
			}
		}
		return ambiguous(candidates)
	}
	return Resolution{State: Unresolved}
}

// CallTarget returns the file the call resolves to, applying the fallback
// after the chain: the first file declaring the bare called name, else the
// caller's own file. It never comes back empty.
func (r *Resolver) CallTarget(call ir.Call) string {
	if res := r.ResolveCall(call); res.State == Resolved {
		return res.Path
	}
	if candidates := r.index.Candidates(call.Name); len(candidates) > 0 {
		return candidates[0]
	}
	return r.path
}

// ResolveBase resolves one inheritance base token. The returned target is
// the parent's simple name (final dotted segment).
//
// Dotted tokens resolve only through a local import alias: the candidate
// files for the target name are filtered by the alias's module path.
// Undotted tokens prefer a same-file type, then an imported name resolved
// the same way, then a globally unique candidate. Anything else stays
// unresolved and the base is skipped.
func (r *Resolver) ResolveBase(base string) (string, Resolution) {
	target := base
	if i := strings.LastIndex(base, "."); i >= 0 {
		target = base[i+1:]
	}

	if i := strings.Index(base, "."); i >= 0 {
		prefix := base[:i]
		module, ok := r.imports[prefix]
		if !ok {
			return target, Resolution{State: Unresolved}
		}
		candidates := r.index.Candidates(target)
		if path, ok := matchModulePath(candidates, module); ok {
			return target, resolved(path)
		}
		if len(candidates) > 1 {
			return target, ambiguous(candidates)
		}
		return target, Resolution{State: Unresolved}
	}

	if _, ok := r.types[base]; ok {
		return target, resolved(r.path)
	}
	if module, ok := r.imports[base]; ok {
		candidates := r.index.Candidates(target)
		if path, ok := matchModulePath(candidates, module); ok {
			return target, resolved(path)
		}
		if len(candidates) > 1 {
			return target, ambiguous(candidates)
		}
		return target, Resolution{State: Unresolved}
	}

	candidates := r.index.Candidates(base)
	switch {
	case len(candidates) == 1:
		return target, resolved(candidates[0])
	case len(candidates) > 1:
		return target, ambiguous(candidates)
	}
	return target, Resolution{State: Unresolved}
}

// matchModulePath picks the first candidate whose path contains the dotted
// module name rewritten with path separators ("pkg.db" matches
// ".../pkg/db.py").
func matchModulePath(candidates []string, module string) (string, bool) {
	fragment := strings.ReplaceAll(module, ".", "/")
	for _, c := range candidates {
		if strings.Contains(c, fragment) {
			return c, true
		}
	}
	return "", false
}
