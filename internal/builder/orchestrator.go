package builder

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/zeebo/xxh3"

	"github.com/lumenforge/codegraph-mcp/internal/adapter"
	"github.com/lumenforge/codegraph-mcp/internal/config"
	"github.com/lumenforge/codegraph-mcp/internal/discover"
	"github.com/lumenforge/codegraph-mcp/internal/graph"
	"github.com/lumenforge/codegraph-mcp/internal/ir"
	"github.com/lumenforge/codegraph-mcp/internal/jobs"
	"github.com/lumenforge/codegraph-mcp/internal/lang"
	"github.com/lumenforge/codegraph-mcp/internal/vcs"
)

// Orchestrator drives builds: discovery, pre-scan, the structural pass per
// file, the barrier, and the two relationship passes, all reported through
// the job manager. One build or update mutates the store at a time.
type Orchestrator struct {
	store    graph.Store
	registry *adapter.Registry
	manager  *jobs.Manager

	ctx    context.Context
	cancel context.CancelFunc

	buildMu sync.Mutex
}

// New creates an orchestrator. Builds it spawns stop when Close is called.
func New(store graph.Store, registry *adapter.Registry, manager *jobs.Manager) *Orchestrator {
	ctx, cancel := context.WithCancel(context.Background())
	return &Orchestrator{
		store:    store,
		registry: registry,
		manager:  manager,
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Close cancels any running build.
func (o *Orchestrator) Close() {
	o.cancel()
}

// StartBuild validates the target, registers a pending job, and runs the
// build in the background. The returned snapshot carries the job ID and the
// duration estimate. Configuration and enumeration faults surface here,
// before any job exists.
func (o *Orchestrator) StartBuild(ctx context.Context, path string, isDependency bool) (jobs.Job, error) {
	root, err := filepath.Abs(path)
	if err != nil {
		return jobs.Job{}, err
	}
	if _, err := os.Stat(root); err != nil {
		return jobs.Job{}, fmt.Errorf("target %s: %w", root, err)
	}
	cfg, err := config.Load(root)
	if err != nil {
		return jobs.Job{}, err
	}
	files, err := discover.Files(ctx, root, discoverOptions(cfg))
	if err != nil {
		return jobs.Job{}, err
	}

	estimate := time.Duration(len(files)) * cfg.EffectiveFileCost()
	job := o.manager.Create(jobs.KindBuild, root, estimate)
	slog.Info("build.queued", "job", job.ID, "path", root, "files", len(files), "estimate", estimate)

	go o.run(job.ID, root, isDependency, cfg)
	return job, nil
}

// run owns one build from RUNNING to its terminal status.
func (o *Orchestrator) run(jobID, root string, isDependency bool, cfg *config.Config) {
	o.buildMu.Lock()
	defer o.buildMu.Unlock()

	o.manager.Start(jobID)
	slog.Info("build.start", "job", jobID, "path", root)

	if err := o.build(jobID, root, isDependency, cfg); err != nil {
		o.finish(jobID, err)
		return
	}
	o.manager.Complete(jobID)
	slog.Info("build.done", "job", jobID, "path", root)
}

func (o *Orchestrator) build(jobID, root string, isDependency bool, cfg *config.Config) error {
	ctx := o.ctx

	git, err := vcs.Inspect(root)
	if err != nil {
		slog.Warn("build.git.err", "path", root, "err", err)
		git = nil
	}
	writer := NewStructuralWriter(o.store)
	if err := writer.WriteRepository(ctx, root, isDependency, git); err != nil {
		return err
	}

	files, err := discover.Files(ctx, root, discoverOptions(cfg))
	if err != nil {
		return err
	}
	o.manager.SetTotal(jobID, len(files))

	index, err := PreScan(ctx, o.registry, files)
	if err != nil {
		return err
	}
	slog.Info("build.prescan.done", "job", jobID, "symbols", len(index))

	irs := make([]*ir.FileIR, 0, len(files))
	for i, fi := range files {
		if err := ctx.Err(); err != nil {
			return err
		}
		o.manager.SetCurrentFile(jobID, fi.Path)

		src, err := os.ReadFile(fi.Path)
		if err != nil {
			// A single unreadable file is a skip; the whole target tree
			// disappearing means the build lost its subject.
			if _, statErr := os.Stat(root); errors.Is(statErr, fs.ErrNotExist) {
				return &discover.VanishedTargetError{Path: root}
			}
			slog.Warn("build.file.skip", "path", fi.Path, "err", err)
			o.manager.AddWarning(jobID)
			o.manager.SetProcessed(jobID, i+1)
			continue
		}
		a, ok := o.registry.ForFile(fi.Path)
		if !ok {
			o.manager.SetProcessed(jobID, i+1)
			continue
		}
		fir, err := a.Parse(fi.Path, src, isDependency)
		if err != nil {
			slog.Warn("build.file.skip", "path", fi.Path, "err", err)
			o.manager.AddWarning(jobID)
			o.manager.SetProcessed(jobID, i+1)
			continue
		}
		if err := writer.WriteFile(ctx, fir, root, sourceHash(src)); err != nil {
			return fmt.Errorf("write %s: %w", fi.Path, err)
		}
		irs = append(irs, fir)
		o.manager.SetProcessed(jobID, i+1)
	}
	slog.Info("pass.structure.done", "job", jobID, "files", len(irs))

	// Hard barrier: every file is structurally written before any
	// relationship resolution starts.
	if err := ctx.Err(); err != nil {
		return err
	}
	linker := NewLinker(o.store, index)
	if err := linker.LinkInheritance(ctx, irs); err != nil {
		return fmt.Errorf("inheritance pass: %w", err)
	}
	slog.Info("pass.inherits.done", "job", jobID)
	if err := linker.LinkCalls(ctx, irs); err != nil {
		return fmt.Errorf("calls pass: %w", err)
	}
	slog.Info("pass.calls.done", "job", jobID)
	return nil
}

// finish classifies a build error into the terminal status: a vanished
// target or a cancelled context means CANCELLED, anything else FAILED.
func (o *Orchestrator) finish(jobID string, err error) {
	var vanished *discover.VanishedTargetError
	if errors.As(err, &vanished) || errors.Is(err, context.Canceled) {
		o.manager.Cancel(jobID, err.Error())
		slog.Info("build.cancelled", "job", jobID, "err", err)
		return
	}
	o.manager.Fail(jobID, err.Error())
	slog.Error("build.failed", "job", jobID, "err", err)
}

// Update re-indexes a single file: its old subtree is deleted, then the
// structural pass re-runs when the file still exists. The bool result
// reports deletion. Relationship edges are not re-derived here; a stale
// CALLS edge into a rewritten file persists until the next full build.
// The repository config is honored the same way a full build honors it.
func (o *Orchestrator) Update(ctx context.Context, filePath, repoPath string) (*ir.FileIR, bool, error) {
	o.buildMu.Lock()
	defer o.buildMu.Unlock()

	file, err := filepath.Abs(filePath)
	if err != nil {
		return nil, false, err
	}
	root, err := filepath.Abs(repoPath)
	if err != nil {
		return nil, false, err
	}

	cfg, err := config.Load(root)
	if err != nil {
		return nil, false, err
	}
	if l, ok := lang.LanguageForExtension(filepath.Ext(file)); ok && !cfg.AllowsLanguage(l) {
		return nil, false, fmt.Errorf("language %s disabled by repository config: %s", l, file)
	}

	if err := o.store.DeleteFileSubtree(ctx, file); err != nil {
		return nil, false, fmt.Errorf("delete subtree %s: %w", file, err)
	}

	src, err := os.ReadFile(file)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			slog.Info("update.deleted", "file", file)
			return nil, true, nil
		}
		return nil, false, err
	}

	a, ok := o.registry.ForFile(file)
	if !ok {
		return nil, false, fmt.Errorf("unsupported file type: %s", file)
	}
	fir, err := a.Parse(file, src, false)
	if err != nil {
		return nil, false, err
	}

	writer := NewStructuralWriter(o.store)
	if err := writer.WriteFile(ctx, fir, root, sourceHash(src)); err != nil {
		return nil, false, err
	}
	slog.Info("update.done", "file", file)
	return fir, false, nil
}

func discoverOptions(cfg *config.Config) *discover.Options {
	return &discover.Options{
		IgnoreFile: cfg.EffectiveIgnoreFile(),
		Languages:  cfg.Languages,
	}
}

func sourceHash(src []byte) string {
	h := xxh3.New()
	h.Write(src)
	return hex.EncodeToString(h.Sum(nil))
}
