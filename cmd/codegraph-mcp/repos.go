package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/fatih/color"

	"github.com/lumenforge/codegraph-mcp/internal/adapter"
	"github.com/lumenforge/codegraph-mcp/internal/builder"
	"github.com/lumenforge/codegraph-mcp/internal/graph"
	"github.com/lumenforge/codegraph-mcp/internal/jobs"
)

type updateCmd struct {
	File string `arg:"" help:"Source file to re-index."`
	Repo string `required:"" help:"Root of the indexed repository containing the file."`
}

func (c *updateCmd) Run(env *runEnv) error {
	store, err := env.openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	manager := jobs.NewManager()
	orch := builder.New(store, adapter.NewRegistry(), manager)
	defer orch.Close()

	fileIR, deleted, err := orch.Update(context.Background(), c.File, c.Repo)
	if err != nil {
		return err
	}
	if deleted {
		color.Yellow("Removed %s from the graph", c.File)
		return nil
	}
	color.Green("✓ Updated %s", c.File)
	fmt.Printf("  Functions: %d  Types: %d  Variables: %d  Imports: %d\n",
		len(fileIR.Functions), len(fileIR.Types), len(fileIR.Variables), len(fileIR.Imports))
	return nil
}

type removeCmd struct {
	Path string `arg:"" help:"Repository path to remove from the graph."`
}

func (c *removeCmd) Run(env *runEnv) error {
	ctx := context.Background()

	store, err := env.openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	abs, err := filepath.Abs(c.Path)
	if err != nil {
		return err
	}
	repo, err := store.FindNode(ctx, graph.NodeRef{Label: graph.LabelRepository, Path: abs})
	if err != nil {
		return err
	}
	if repo == nil {
		return fmt.Errorf("repository not indexed: %s", abs)
	}

	count, err := store.RepositoryNodeCount(ctx, abs)
	if err != nil {
		return err
	}
	if err := store.DeleteRepository(ctx, abs); err != nil {
		return err
	}
	color.Green("✓ Removed %s (%d nodes)", abs, count+1)
	return nil
}

type listCmd struct{}

func (c *listCmd) Run(env *runEnv) error {
	ctx := context.Background()

	store, err := env.openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	repos, err := store.ListRepositories(ctx)
	if err != nil {
		return err
	}
	if len(repos) == 0 {
		fmt.Println("No indexed repositories")
		return nil
	}

	for _, repo := range repos {
		count, err := store.RepositoryNodeCount(ctx, repo.Path)
		if err != nil {
			return err
		}
		marker := ""
		if dep, _ := repo.Properties["is_dependency"].(bool); dep {
			marker = " (dependency)"
		}
		fmt.Printf("%s%s\n", color.CyanString("%s", repo.Name), marker)
		fmt.Printf("  Path:  %s\n", repo.Path)
		fmt.Printf("  Nodes: %d\n", count+1)
	}
	return nil
}

type statusCmd struct{}

func (c *statusCmd) Run(env *runEnv) error {
	ctx := context.Background()

	dbPath, err := env.databasePath()
	if err != nil {
		return err
	}
	store, err := env.openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	repos, err := store.ListRepositories(ctx)
	if err != nil {
		return err
	}
	nodes, err := store.CountNodesByLabel(ctx)
	if err != nil {
		return err
	}
	edges, err := store.CountEdgesByType(ctx)
	if err != nil {
		return err
	}

	fmt.Printf("Database:     %s", dbPath)
	if info, statErr := os.Stat(dbPath); statErr == nil {
		fmt.Printf(" (%.1f MB)", float64(info.Size())/(1<<20))
	}
	fmt.Println()
	fmt.Printf("Repositories: %d\n", len(repos))

	var totalNodes, totalEdges int
	fmt.Println("Nodes:")
	for _, label := range sortedKeys(nodes) {
		fmt.Printf("  %-13s %d\n", label, nodes[label])
		totalNodes += nodes[label]
	}
	fmt.Println("Edges:")
	for _, typ := range sortedKeys(edges) {
		fmt.Printf("  %-13s %d\n", typ, edges[typ])
		totalEdges += edges[typ]
	}
	fmt.Printf("Total: %d nodes, %d edges\n", totalNodes, totalEdges)
	return nil
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
