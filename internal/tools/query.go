package tools

import (
	"context"
	"errors"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/lumenforge/codegraph-mcp/internal/graph"
)

// findCodeLimit caps find_code result sets.
const findCodeLimit = 50

func (s *Server) handleFindCode(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, err := parseArgs(req)
	if err != nil {
		return errResult(err.Error()), nil
	}
	query := getStringArg(args, "query")
	if query == "" {
		return errResult("query is required"), nil
	}

	nodes, err := s.store.SearchEntities(ctx, query, findCodeLimit)
	if err != nil {
		return errResult(fmt.Sprintf("search: %v", err)), nil
	}

	matches := make([]map[string]any, 0, len(nodes))
	for _, n := range nodes {
		match := map[string]any{
			"label": n.Label,
			"name":  n.Name,
			"file":  n.Path,
			"line":  n.Line,
		}
		if doc, ok := n.Properties["docstring"].(string); ok && doc != "" {
			match["docstring"] = doc
		}
		matches = append(matches, match)
	}
	return jsonResult(map[string]any{
		"query":   query,
		"count":   len(matches),
		"matches": matches,
	}), nil
}

func (s *Server) handleExecuteQuery(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, err := parseArgs(req)
	if err != nil {
		return errResult(err.Error()), nil
	}
	stmt := getStringArg(args, "sql")
	if stmt == "" {
		return errResult("sql is required"), nil
	}

	rows, err := s.store.RawQuery(ctx, stmt)
	switch {
	case errors.Is(err, graph.ErrReadOnly):
		return errResult("only SELECT statements are allowed"), nil
	case errors.Is(err, graph.ErrRawUnsupported):
		return errResult("raw queries are not supported by this store backend"), nil
	case err != nil:
		return errResult(fmt.Sprintf("query: %v", err)), nil
	}
	return jsonResult(map[string]any{
		"count": len(rows),
		"rows":  rows,
	}), nil
}

func (s *Server) handleGraphStats(ctx context.Context, _ *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	nodes, err := s.store.CountNodesByLabel(ctx)
	if err != nil {
		return errResult(fmt.Sprintf("count nodes: %v", err)), nil
	}
	edges, err := s.store.CountEdgesByType(ctx)
	if err != nil {
		return errResult(fmt.Sprintf("count edges: %v", err)), nil
	}

	totalNodes, totalEdges := 0, 0
	for _, c := range nodes {
		totalNodes += c
	}
	for _, c := range edges {
		totalEdges += c
	}
	return jsonResult(map[string]any{
		"nodes":       nodes,
		"edges":       edges,
		"total_nodes": totalNodes,
		"total_edges": totalEdges,
	}), nil
}
