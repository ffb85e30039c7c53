package tools

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/lumenforge/codegraph-mcp/internal/graph"
)

func (s *Server) handleDeleteRepository(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, err := parseArgs(req)
	if err != nil {
		return errResult(err.Error()), nil
	}
	repoPath := getStringArg(args, "repo_path")
	if repoPath == "" {
		return errResult("repo_path is required"), nil
	}
	abs, err := filepath.Abs(repoPath)
	if err != nil {
		return errResult(fmt.Sprintf("invalid path: %v", err)), nil
	}

	repo, err := s.store.FindNode(ctx, graph.NodeRef{Label: graph.LabelRepository, Path: abs})
	if err != nil {
		return errResult(fmt.Sprintf("lookup repository: %v", err)), nil
	}
	if repo == nil {
		return errResult(fmt.Sprintf("repository not indexed: %s", abs)), nil
	}

	count, err := s.store.RepositoryNodeCount(ctx, abs)
	if err != nil {
		return errResult(fmt.Sprintf("count nodes: %v", err)), nil
	}
	if err := s.store.DeleteRepository(ctx, abs); err != nil {
		return errResult(fmt.Sprintf("delete repository: %v", err)), nil
	}
	return jsonResult(map[string]any{
		"path":          abs,
		"deleted":       true,
		"nodes_removed": count + 1,
	}), nil
}

func (s *Server) handleListRepositories(ctx context.Context, _ *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	repos, err := s.store.ListRepositories(ctx)
	if err != nil {
		return errResult(fmt.Sprintf("list repositories: %v", err)), nil
	}

	out := make([]map[string]any, 0, len(repos))
	for _, repo := range repos {
		count, err := s.store.RepositoryNodeCount(ctx, repo.Path)
		if err != nil {
			return errResult(fmt.Sprintf("count nodes for %s: %v", repo.Path, err)), nil
		}
		entry := map[string]any{
			"name":  repo.Name,
			"path":  repo.Path,
			"nodes": count,
		}
		if dep, ok := repo.Properties["is_dependency"]; ok {
			entry["is_dependency"] = dep
		}
		out = append(out, entry)
	}
	return jsonResult(map[string]any{
		"count":        len(out),
		"repositories": out,
	}), nil
}
