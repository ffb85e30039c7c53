package main

import (
	"context"
	"log/slog"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/lumenforge/codegraph-mcp/internal/adapter"
	"github.com/lumenforge/codegraph-mcp/internal/builder"
	"github.com/lumenforge/codegraph-mcp/internal/jobs"
	"github.com/lumenforge/codegraph-mcp/internal/tools"
	"github.com/lumenforge/codegraph-mcp/internal/watcher"
)

type serveCmd struct {
	Watch bool `short:"w" help:"Re-index files when they change on disk."`
}

// Run serves MCP over stdio. Stdout carries JSON-RPC frames only; all
// logging goes to stderr.
func (c *serveCmd) Run(env *runEnv) error {
	store, err := env.openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	manager := jobs.NewManager()
	orch := builder.New(store, adapter.NewRegistry(), manager)
	defer orch.Close()

	srv := tools.NewServer(store, orch, manager)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if c.Watch {
		w := watcher.New(store, func(ctx context.Context, filePath, repoPath string) error {
			_, _, err := orch.Update(ctx, filePath, repoPath)
			return err
		})
		go w.Run(ctx)
	}

	slog.Info("mcp.serve", "watch", c.Watch)
	return srv.MCPServer().Run(ctx, &mcp.StdioTransport{})
}
