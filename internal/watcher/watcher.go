// Package watcher polls indexed repositories for file changes and feeds
// every changed file into the incremental update path.
package watcher

import (
	"context"
	"log/slog"
	"os"
	"sort"
	"time"

	"github.com/lumenforge/codegraph-mcp/internal/config"
	"github.com/lumenforge/codegraph-mcp/internal/discover"
	"github.com/lumenforge/codegraph-mcp/internal/graph"
)

const (
	tickInterval = 1 * time.Second
	maxInterval  = 60 * time.Second
)

type fileSnapshot struct {
	modTime time.Time
	size    int64
}

type repoState struct {
	snapshot map[string]fileSnapshot
	interval time.Duration
	nextPoll time.Time
	floor    time.Duration
	opts     *discover.Options
}

// UpdateFunc applies one changed file to the graph. Deleted paths are passed
// like any other; the update path turns them into subtree removals.
type UpdateFunc func(ctx context.Context, filePath, repoPath string) error

// Watcher polls every indexed repository for file changes. No OS event APIs:
// it snapshots mod time and size over the discovered tree and diffs
// snapshots on an adaptive interval.
type Watcher struct {
	store    graph.Store
	updateFn UpdateFunc
	repos    map[string]*repoState
}

// New creates a Watcher. updateFn is called once per changed file.
func New(store graph.Store, updateFn UpdateFunc) *Watcher {
	return &Watcher{
		store:    store,
		updateFn: updateFn,
		repos:    make(map[string]*repoState),
	}
}

// Run blocks until ctx is cancelled. Ticks at tickInterval, polling each
// repository only when its adaptive interval has elapsed.
func (w *Watcher) Run(ctx context.Context) {
	ticker := time.NewTicker(tickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.pollAll(ctx)
		}
	}
}

// pollAll lists the indexed repositories and polls each that is due.
func (w *Watcher) pollAll(ctx context.Context) {
	repos, err := w.store.ListRepositories(ctx)
	if err != nil {
		slog.Warn("watcher.repos.err", "err", err)
		return
	}

	now := time.Now()
	for _, repo := range repos {
		state, ok := w.repos[repo.Path]
		if !ok {
			state = &repoState{}
			w.repos[repo.Path] = state
		} else if now.Before(state.nextPoll) {
			continue
		}
		w.poll(ctx, repo.Path, state)
	}
}

// poll diffs the current tree snapshot against the previous one. The first
// poll captures a baseline without touching the graph; later polls push
// every created, modified, or deleted file through the update callback.
func (w *Watcher) poll(ctx context.Context, root string, state *repoState) {
	if _, err := os.Stat(root); err != nil {
		slog.Warn("watcher.root.gone", "path", root)
		state.nextPoll = time.Now().Add(maxInterval)
		return
	}

	// The repository config is read once per tracked root.
	if state.opts == nil {
		cfg, err := config.Load(root)
		if err != nil {
			slog.Warn("watcher.config.err", "path", root, "err", err)
			cfg = &config.Config{}
		}
		state.floor = cfg.EffectivePollFloor()
		state.opts = &discover.Options{
			IgnoreFile: cfg.EffectiveIgnoreFile(),
			Languages:  cfg.Languages,
		}
	}

	snap, err := captureSnapshot(ctx, root, state.opts)
	if err != nil {
		slog.Warn("watcher.snapshot.err", "path", root, "err", err)
		state.nextPoll = time.Now().Add(state.interval)
		return
	}
	interval := pollInterval(len(snap), state.floor)

	if state.snapshot == nil {
		slog.Debug("watcher.baseline", "path", root, "files", len(snap))
		state.snapshot = snap
		state.interval = interval
		state.nextPoll = time.Now().Add(interval)
		return
	}

	changed := changedPaths(state.snapshot, snap)
	if len(changed) == 0 {
		state.interval = interval
		state.nextPoll = time.Now().Add(interval)
		return
	}

	slog.Info("watcher.changed", "path", root, "files", len(changed))
	ok := true
	for _, file := range changed {
		if err := w.updateFn(ctx, file, root); err != nil {
			slog.Warn("watcher.update.err", "file", file, "err", err)
			ok = false
		}
	}
	if !ok {
		// Keep the old snapshot so failed files retry next cycle.
		state.nextPoll = time.Now().Add(interval)
		return
	}

	state.snapshot = snap
	state.interval = interval
	state.nextPoll = time.Now().Add(interval)
}

// captureSnapshot records mod time and size for every discovered file,
// keyed by absolute path.
func captureSnapshot(ctx context.Context, root string, opts *discover.Options) (map[string]fileSnapshot, error) {
	files, err := discover.Files(ctx, root, opts)
	if err != nil {
		return nil, err
	}

	snap := make(map[string]fileSnapshot, len(files))
	for _, f := range files {
		info, statErr := os.Stat(f.Path)
		if statErr != nil {
			continue
		}
		snap[f.Path] = fileSnapshot{
			modTime: info.ModTime(),
			size:    info.Size(),
		}
	}
	return snap, nil
}

// changedPaths lists the files created, modified, or deleted between two
// snapshots, sorted.
func changedPaths(old, cur map[string]fileSnapshot) []string {
	var changed []string
	for path, prev := range old {
		next, ok := cur[path]
		if !ok {
			changed = append(changed, path)
			continue
		}
		if !prev.modTime.Equal(next.modTime) || prev.size != next.size {
			changed = append(changed, path)
		}
	}
	for path := range cur {
		if _, ok := old[path]; !ok {
			changed = append(changed, path)
		}
	}
	sort.Strings(changed)
	return changed
}

// pollInterval computes the adaptive interval from tree size: 1s base plus
// 1s per 500 files, capped at 60s and never below the configured floor.
func pollInterval(fileCount int, floor time.Duration) time.Duration {
	ms := 1000 + (fileCount/500)*1000
	if ms > 60000 {
		ms = 60000
	}
	interval := time.Duration(ms) * time.Millisecond
	if interval < floor {
		return floor
	}
	return interval
}
