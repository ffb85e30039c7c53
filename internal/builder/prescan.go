// Package builder is the graph construction engine: a pre-scan symbol
// index, a structural pass that writes the containment hierarchy, and a
// relationship pass that resolves call and inheritance edges across files.
// The orchestrator drives all three as one cancellable, progress-tracked
// job.
package builder

import (
	"context"
	"log/slog"
	"os"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/lumenforge/codegraph-mcp/internal/adapter"
	"github.com/lumenforge/codegraph-mcp/internal/discover"
)

// SymbolIndex maps a declared symbol name to the files declaring it, in
// discovery order. Cross-file resolution consults it for candidates;
// "first candidate" tie-breaks rely on that order being stable across runs.
type SymbolIndex map[string][]string

// Candidates returns the files declaring name, nil when unknown.
func (ix SymbolIndex) Candidates(name string) []string {
	return ix[name]
}

// PreScan builds the symbol index for the given files before any
// relationship inference. Files are scanned in parallel under a bounded
// group; the merge runs in enumeration order so candidate lists are
// deterministic. A file that fails to scan logs a warning and contributes
// nothing.
func PreScan(ctx context.Context, reg *adapter.Registry, files []discover.FileInfo) (SymbolIndex, error) {
	names := make([][]string, len(files))

	workers := runtime.NumCPU()
	if workers > len(files) {
		workers = len(files)
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, f := range files {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			a, ok := reg.ForFile(f.Path)
			if !ok {
				return nil
			}
			src, err := os.ReadFile(f.Path)
			if err != nil {
				slog.Warn("prescan.file.err", "path", f.Path, "err", err)
				return nil
			}
			scanned, err := a.ScanNames(f.Path, src)
			if err != nil {
				slog.Warn("prescan.file.err", "path", f.Path, "err", err)
				return nil
			}
			names[i] = scanned
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	index := make(SymbolIndex)
	for i, f := range files {
		for _, name := range names[i] {
			index[name] = append(index[name], f.Path)
		}
	}
	return index, nil
}
