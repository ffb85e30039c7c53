package main

import (
	"log/slog"
	"os"

	"github.com/alecthomas/kong"

	"github.com/lumenforge/codegraph-mcp/internal/graph"
)

// version is set at build time via ldflags.
var version = "dev"

type cli struct {
	Version kong.VersionFlag `help:"Print version and exit."`
	DB      string           `help:"Graph database path (default: ~/.cache/codegraph-mcp/graph.db)." placeholder:"FILE" env:"CODEGRAPH_DB"`
	Verbose bool             `short:"v" help:"Enable debug logging."`

	Index     indexCmd     `cmd:"" help:"Index a repository into the code graph."`
	Serve     serveCmd     `cmd:"" help:"Run the MCP server on stdio."`
	Update    updateCmd    `cmd:"" help:"Re-index a single file."`
	Remove    removeCmd    `cmd:"" help:"Delete an indexed repository from the graph."`
	List      listCmd      `cmd:"" help:"List indexed repositories."`
	Status    statusCmd    `cmd:"" help:"Show graph database statistics."`
	Install   installCmd   `cmd:"" help:"Register the MCP server with installed coding agents."`
	Uninstall uninstallCmd `cmd:"" help:"Remove coding agent registrations."`
	Upgrade   upgradeCmd   `cmd:"" help:"Replace this binary with the latest release."`
}

// runEnv carries resolved global flags into command Run methods.
type runEnv struct {
	dbPath string
}

func (e *runEnv) databasePath() (string, error) {
	if e.dbPath != "" {
		return e.dbPath, nil
	}
	return graph.DefaultPath()
}

func (e *runEnv) openStore() (*graph.SQLite, error) {
	path, err := e.databasePath()
	if err != nil {
		return nil, err
	}
	return graph.OpenPath(path)
}

func main() {
	c := &cli{}
	kctx := kong.Parse(c,
		kong.Name("codegraph-mcp"),
		kong.Description("Code graph builder and MCP server for multi-language repositories."),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{Compact: true}),
		kong.Vars{"version": "codegraph-mcp " + version},
	)

	level := slog.LevelInfo
	if c.Verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	kctx.FatalIfErrorf(kctx.Run(&runEnv{dbPath: c.DB}))
}
