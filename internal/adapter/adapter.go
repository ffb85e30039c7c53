// Package adapter turns source files into the per-file IR consumed by the
// graph builder. One generic tree-sitter extraction engine serves every
// language; the per-language node-kind profiles live in internal/lang.
package adapter

import (
	"fmt"
	"path/filepath"
	"sort"

	"github.com/lumenforge/codegraph-mcp/internal/ir"
	"github.com/lumenforge/codegraph-mcp/internal/lang"
)

// Adapter parses source files of one language.
type Adapter interface {
	// Language returns the language this adapter handles.
	Language() lang.Language

	// Parse extracts the full IR for one file.
	Parse(path string, src []byte, isDependency bool) (*ir.FileIR, error)

	// ScanNames extracts only the declared symbol names (functions, types,
	// macros). The pre-scan pass uses this reduced mode to build the global
	// symbol map without paying for full extraction.
	ScanNames(path string, src []byte) ([]string, error)
}

// ParseError reports a per-file parse failure. The build skips the file and
// continues.
type ParseError struct {
	Path string
	Msg  string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse %s: %s", e.Path, e.Msg)
}

// Registry maps file extensions to adapters. It is built once at startup
// from the language profiles registered in internal/lang.
type Registry struct {
	byExt map[string]Adapter
}

// NewRegistry builds the extension-keyed adapter registry covering every
// registered language profile.
func NewRegistry() *Registry {
	r := &Registry{byExt: make(map[string]Adapter)}
	seen := make(map[lang.Language]Adapter)
	for _, ext := range lang.Extensions() {
		spec := lang.ForExtension(ext)
		if spec == nil {
			continue
		}
		a, ok := seen[spec.Language]
		if !ok {
			a = &engine{spec: spec}
			seen[spec.Language] = a
		}
		r.byExt[ext] = a
	}
	return r
}

// ForFile returns the adapter for a file path, keyed by extension.
func (r *Registry) ForFile(path string) (Adapter, bool) {
	a, ok := r.byExt[filepath.Ext(path)]
	return a, ok
}

// Supported reports whether any adapter handles the file.
func (r *Registry) Supported(path string) bool {
	_, ok := r.byExt[filepath.Ext(path)]
	return ok
}

// Extensions returns the supported extensions in sorted order.
func (r *Registry) Extensions() []string {
	exts := make([]string, 0, len(r.byExt))
	for ext := range r.byExt {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}
