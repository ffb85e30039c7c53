package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/fatih/color"

	"github.com/lumenforge/codegraph-mcp/internal/adapter"
	"github.com/lumenforge/codegraph-mcp/internal/builder"
	"github.com/lumenforge/codegraph-mcp/internal/graph"
	"github.com/lumenforge/codegraph-mcp/internal/jobs"
)

type indexCmd struct {
	Path       string `arg:"" help:"Repository path to index."`
	Dependency bool   `help:"Record the repository as a dependency of other indexed code."`
}

func (c *indexCmd) Run(env *runEnv) error {
	ctx := context.Background()

	store, err := env.openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	manager := jobs.NewManager()
	orch := builder.New(store, adapter.NewRegistry(), manager)
	defer orch.Close()

	// Ctrl+C cancels the running build; the job then reports cancelled.
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sig)
	go func() {
		<-sig
		orch.Close()
	}()

	job, err := orch.StartBuild(ctx, c.Path, c.Dependency)
	if err != nil {
		return err
	}

	color.Green("Indexing %s", job.Path)
	fmt.Printf("Estimated %s\n", job.Estimated.Round(time.Millisecond))

	final := awaitBuild(manager, job.ID)
	fmt.Print("\r\033[K")

	switch final.Status {
	case jobs.StatusCompleted:
		return printBuildSummary(ctx, store, final)
	case jobs.StatusCancelled:
		return fmt.Errorf("build cancelled: %s", strings.Join(final.Errors, "; "))
	default:
		return fmt.Errorf("build failed: %s", strings.Join(final.Errors, "; "))
	}
}

// awaitBuild polls the job until it reaches a terminal status, redrawing a
// one-line progress indicator in place.
func awaitBuild(manager *jobs.Manager, jobID string) jobs.Job {
	for {
		job, ok := manager.Get(jobID)
		if !ok || job.Status.Terminal() {
			return job
		}
		if job.TotalFiles > 0 {
			fmt.Printf("\r\033[K%d/%d %s", job.ProcessedFiles, job.TotalFiles, job.CurrentFile)
		}
		time.Sleep(100 * time.Millisecond)
	}
}

func printBuildSummary(ctx context.Context, store graph.Store, job jobs.Job) error {
	count, err := store.RepositoryNodeCount(ctx, job.Path)
	if err != nil {
		return err
	}

	color.Green("✓ Indexed %s", job.Path)
	fmt.Printf("  Files:       %d\n", job.ProcessedFiles)
	fmt.Printf("  Graph nodes: %d\n", count+1)
	fmt.Printf("  Duration:    %s\n", job.EndedAt.Sub(job.StartedAt).Round(time.Millisecond))
	if job.Warnings > 0 {
		color.Yellow("  Warnings:    %d (skipped files are logged on stderr)", job.Warnings)
	}
	return nil
}
