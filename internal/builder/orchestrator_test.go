package builder

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/lumenforge/codegraph-mcp/internal/adapter"
	"github.com/lumenforge/codegraph-mcp/internal/config"
	"github.com/lumenforge/codegraph-mcp/internal/discover"
	"github.com/lumenforge/codegraph-mcp/internal/graph"
	"github.com/lumenforge/codegraph-mcp/internal/jobs"
)

func newTestOrchestrator(t *testing.T) (*Orchestrator, graph.Store, *jobs.Manager) {
	t.Helper()
	store := graph.NewMemory()
	manager := jobs.NewManager()
	o := New(store, adapter.NewRegistry(), manager)
	t.Cleanup(o.Close)
	return o, store, manager
}

func writeSource(t *testing.T, dir, name, src string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(src), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func waitForJob(t *testing.T, m *jobs.Manager, id string) jobs.Job {
	t.Helper()
	deadline := time.Now().Add(10 * time.Second)
	for time.Now().Before(deadline) {
		job, ok := m.Get(id)
		if !ok {
			t.Fatalf("job %s disappeared", id)
		}
		if job.Status.Terminal() {
			return job
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("job %s never reached a terminal state", id)
	return jobs.Job{}
}

func TestBuildLifecycle(t *testing.T) {
	o, store, manager := newTestOrchestrator(t)
	ctx := context.Background()

	dir := t.TempDir()
	writeSource(t, dir, "lib.py", `def helper(x):
    return x

class Base:
    pass
`)
	writeSource(t, dir, "app.py", `import lib

class Child(lib.Base):
    pass

def local_util():
    pass

def main():
    lib.helper(1)
    local_util()
`)

	job, err := o.StartBuild(ctx, dir, false)
	if err != nil {
		t.Fatalf("StartBuild: %v", err)
	}
	if job.Kind != jobs.KindBuild || job.Path != dir {
		t.Errorf("job = %+v", job)
	}
	if job.Estimated != 100*time.Millisecond {
		t.Errorf("estimate = %v, want 100ms", job.Estimated)
	}

	done := waitForJob(t, manager, job.ID)
	if done.Status != jobs.StatusCompleted {
		t.Fatalf("status = %s, errors = %v", done.Status, done.Errors)
	}
	if done.TotalFiles != 2 || done.ProcessedFiles != 2 {
		t.Errorf("progress = %d/%d, want 2/2", done.ProcessedFiles, done.TotalFiles)
	}

	edges, err := store.CountEdgesByType(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if edges[graph.EdgeInherits] != 1 {
		t.Errorf("INHERITS = %d, want 1", edges[graph.EdgeInherits])
	}
	if edges[graph.EdgeCalls] != 2 {
		t.Errorf("CALLS = %d, want 2", edges[graph.EdgeCalls])
	}

	repo, err := store.FindNode(ctx, graph.NodeRef{Label: graph.LabelRepository, Path: dir})
	if err != nil || repo == nil {
		t.Fatalf("repository node: %v, %v", repo, err)
	}
	if repo.Properties["is_dependency"] != false {
		t.Errorf("is_dependency = %v", repo.Properties["is_dependency"])
	}
	mod, err := store.FindNode(ctx, graph.NodeRef{Label: graph.LabelModule, Name: "lib"})
	if err != nil || mod == nil {
		t.Errorf("module node: %v, %v", mod, err)
	}

	// A second build over the same tree settles into the same graph.
	nodesBefore, _ := store.CountNodesByLabel(ctx)
	edgesBefore, _ := store.CountEdgesByType(ctx)
	again, err := o.StartBuild(ctx, dir, false)
	if err != nil {
		t.Fatalf("StartBuild again: %v", err)
	}
	if done := waitForJob(t, manager, again.ID); done.Status != jobs.StatusCompleted {
		t.Fatalf("rebuild status = %s, errors = %v", done.Status, done.Errors)
	}
	nodesAfter, _ := store.CountNodesByLabel(ctx)
	edgesAfter, _ := store.CountEdgesByType(ctx)
	if !maps.Equal(nodesBefore, nodesAfter) {
		t.Errorf("node counts drifted: %v -> %v", nodesBefore, nodesAfter)
	}
	if !maps.Equal(edgesBefore, edgesAfter) {
		t.Errorf("edge counts drifted: %v -> %v", edgesBefore, edgesAfter)
	}
}

func TestBuildLinksAcrossWriteOrder(t *testing.T) {
	o, store, manager := newTestOrchestrator(t)
	ctx := context.Background()

	// a.py is walked before z.py, so the callee node does not exist yet
	// when a.py is written. The link pass runs after every file landed.
	dir := t.TempDir()
	writeSource(t, dir, "a.py", `def caller():
    zfunc()
`)
	writeSource(t, dir, "z.py", `def zfunc():
    pass
`)

	job, err := o.StartBuild(ctx, dir, false)
	if err != nil {
		t.Fatalf("StartBuild: %v", err)
	}
	if done := waitForJob(t, manager, job.ID); done.Status != jobs.StatusCompleted {
		t.Fatalf("status = %s, errors = %v", done.Status, done.Errors)
	}

	caller, err := store.FindNode(ctx, graph.NodeRef{Label: graph.LabelFunction, Name: "caller", Path: filepath.Join(dir, "a.py")})
	if err != nil || caller == nil {
		t.Fatalf("caller node: %v, %v", caller, err)
	}
	callee, err := store.FindNode(ctx, graph.NodeRef{Label: graph.LabelFunction, Name: "zfunc", Path: filepath.Join(dir, "z.py")})
	if err != nil || callee == nil {
		t.Fatalf("zfunc node: %v, %v", callee, err)
	}
	out, err := store.EdgesFrom(ctx, caller.ID, graph.EdgeCalls)
	if err != nil {
		t.Fatal(err)
	}
	if len(out) != 1 || out[0].TargetID != callee.ID {
		t.Errorf("CALLS from caller = %+v, want one to %d", out, callee.ID)
	}
}

func TestBuildLocalShadowing(t *testing.T) {
	o, store, manager := newTestOrchestrator(t)
	ctx := context.Background()

	dir := t.TempDir()
	writeSource(t, dir, "x.py", `def helper():
    pass

def main():
    helper()
`)
	writeSource(t, dir, "y.py", `def helper():
    pass
`)

	job, err := o.StartBuild(ctx, dir, false)
	if err != nil {
		t.Fatalf("StartBuild: %v", err)
	}
	if done := waitForJob(t, manager, job.ID); done.Status != jobs.StatusCompleted {
		t.Fatalf("status = %s, errors = %v", done.Status, done.Errors)
	}

	main, err := store.FindNode(ctx, graph.NodeRef{Label: graph.LabelFunction, Name: "main", Path: filepath.Join(dir, "x.py")})
	if err != nil || main == nil {
		t.Fatalf("main node: %v, %v", main, err)
	}
	out, err := store.EdgesFrom(ctx, main.ID, graph.EdgeCalls)
	if err != nil {
		t.Fatal(err)
	}
	if len(out) != 1 {
		t.Fatalf("CALLS from main = %d, want 1", len(out))
	}
	local, err := store.FindNode(ctx, graph.NodeRef{Label: graph.LabelFunction, Name: "helper", Path: filepath.Join(dir, "x.py")})
	if err != nil || local == nil {
		t.Fatalf("local helper node: %v, %v", local, err)
	}
	if out[0].TargetID != local.ID {
		t.Errorf("call resolved to node %d, want the same-file helper %d", out[0].TargetID, local.ID)
	}
}

func TestStartBuildValidation(t *testing.T) {
	o, _, manager := newTestOrchestrator(t)
	ctx := context.Background()

	if _, err := o.StartBuild(ctx, filepath.Join(t.TempDir(), "nope"), false); err == nil {
		t.Error("expected an error for a missing path")
	}
	if got := manager.List(); len(got) != 0 {
		t.Errorf("jobs created for a failed start: %+v", got)
	}

	dir := t.TempDir()
	writeSource(t, dir, config.FileName, "languages: [unterminated\n")
	_, err := o.StartBuild(ctx, dir, false)
	var cfgErr *config.ConfigError
	if !errors.As(err, &cfgErr) {
		t.Errorf("err = %v, want a config error", err)
	}
}

func TestCloseCancelsRunningBuild(t *testing.T) {
	store := graph.NewMemory()
	manager := jobs.NewManager()
	o := New(store, adapter.NewRegistry(), manager)

	dir := t.TempDir()
	writeSource(t, dir, "a.py", "def f():\n    pass\n")

	o.Close()
	job, err := o.StartBuild(context.Background(), dir, false)
	if err != nil {
		t.Fatalf("StartBuild: %v", err)
	}
	done := waitForJob(t, manager, job.ID)
	if done.Status != jobs.StatusCancelled {
		t.Errorf("status = %s, want cancelled", done.Status)
	}
	if len(done.Errors) == 0 {
		t.Error("cancelled job carries no error")
	}
}

func TestFinishClassification(t *testing.T) {
	o, _, manager := newTestOrchestrator(t)

	vanished := manager.Create(jobs.KindBuild, "/gone", 0)
	o.finish(vanished.ID, fmt.Errorf("discover: %w", &discover.VanishedTargetError{Path: "/gone"}))
	if got, _ := manager.Get(vanished.ID); got.Status != jobs.StatusCancelled {
		t.Errorf("vanished target: status = %s, want cancelled", got.Status)
	}

	cancelled := manager.Create(jobs.KindBuild, "/c", 0)
	o.finish(cancelled.ID, fmt.Errorf("walk: %w", context.Canceled))
	if got, _ := manager.Get(cancelled.ID); got.Status != jobs.StatusCancelled {
		t.Errorf("context cancel: status = %s, want cancelled", got.Status)
	}

	failed := manager.Create(jobs.KindBuild, "/f", 0)
	o.finish(failed.ID, errors.New("boom"))
	got, _ := manager.Get(failed.ID)
	if got.Status != jobs.StatusFailed {
		t.Errorf("status = %s, want failed", got.Status)
	}
	if len(got.Errors) != 1 || got.Errors[0] != "boom" {
		t.Errorf("errors = %v", got.Errors)
	}
}

func TestUpdateFile(t *testing.T) {
	o, store, _ := newTestOrchestrator(t)
	ctx := context.Background()

	dir := t.TempDir()
	path := writeSource(t, dir, "mod.py", "def old():\n    pass\n")

	fir, deleted, err := o.Update(ctx, path, dir)
	if err != nil || deleted {
		t.Fatalf("Update: %v, deleted=%v", err, deleted)
	}
	if fir == nil || len(fir.Functions) != 1 || fir.Functions[0].Name != "old" {
		t.Fatalf("fir = %+v", fir)
	}
	old, err := store.FindNode(ctx, graph.NodeRef{Label: graph.LabelFunction, Name: "old", Path: path})
	if err != nil || old == nil {
		t.Fatalf("old node: %v, %v", old, err)
	}

	// Rewriting the file swaps its entities.
	writeSource(t, dir, "mod.py", "def new():\n    pass\n")
	if _, deleted, err = o.Update(ctx, path, dir); err != nil || deleted {
		t.Fatalf("Update after edit: %v, deleted=%v", err, deleted)
	}
	old, err = store.FindNode(ctx, graph.NodeRef{Label: graph.LabelFunction, Name: "old", Path: path})
	if err != nil {
		t.Fatal(err)
	}
	if old != nil {
		t.Errorf("stale function survived the update: %+v", old)
	}
	fresh, err := store.FindNode(ctx, graph.NodeRef{Label: graph.LabelFunction, Name: "new", Path: path})
	if err != nil || fresh == nil {
		t.Fatalf("new node: %v, %v", fresh, err)
	}
	file, err := store.FindNode(ctx, graph.NodeRef{Label: graph.LabelFile, Path: path})
	if err != nil || file == nil {
		t.Fatalf("file node: %v, %v", file, err)
	}
	if h, _ := file.Properties["hash"].(string); h == "" {
		t.Errorf("file hash missing: %v", file.Properties)
	}

	// Removing the file turns the update into a subtree delete.
	if err := os.Remove(path); err != nil {
		t.Fatal(err)
	}
	fir, deleted, err = o.Update(ctx, path, dir)
	if err != nil || !deleted || fir != nil {
		t.Fatalf("Update after remove: fir=%+v deleted=%v err=%v", fir, deleted, err)
	}
	leftover, err := store.NodesByFile(ctx, path)
	if err != nil {
		t.Fatal(err)
	}
	if len(leftover) != 0 {
		t.Errorf("nodes survived the delete: %+v", leftover)
	}
}

func TestUpdateUnsupportedFile(t *testing.T) {
	o, _, _ := newTestOrchestrator(t)
	dir := t.TempDir()
	path := writeSource(t, dir, "notes.txt", "hello\n")

	_, _, err := o.Update(context.Background(), path, dir)
	if err == nil || !strings.Contains(err.Error(), "unsupported") {
		t.Errorf("err = %v, want unsupported file type", err)
	}
}

func TestUpdateDisabledLanguage(t *testing.T) {
	o, store, _ := newTestOrchestrator(t)
	dir := t.TempDir()
	writeSource(t, dir, config.FileName, "languages:\n  - python\n")
	path := writeSource(t, dir, "app.js", "function run() {}\n")

	_, _, err := o.Update(context.Background(), path, dir)
	if err == nil || !strings.Contains(err.Error(), "disabled") {
		t.Errorf("err = %v, want language disabled", err)
	}
	nodes, err := store.NodesByFile(context.Background(), path)
	if err != nil {
		t.Fatal(err)
	}
	if len(nodes) != 0 {
		t.Errorf("disabled-language update wrote nodes: %+v", nodes)
	}
}
