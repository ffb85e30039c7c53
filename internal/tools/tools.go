// Package tools exposes the graph engine over MCP: build and update
// operations, job polling, and read-only graph queries.
package tools

import (
	"encoding/json"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/lumenforge/codegraph-mcp/internal/builder"
	"github.com/lumenforge/codegraph-mcp/internal/graph"
	"github.com/lumenforge/codegraph-mcp/internal/jobs"
)

// Server wraps the MCP server with tool handlers.
type Server struct {
	mcp   *mcp.Server
	store graph.Store
	orch  *builder.Orchestrator
	jobs  *jobs.Manager
}

// NewServer creates an MCP server with all tools registered.
func NewServer(store graph.Store, orch *builder.Orchestrator, manager *jobs.Manager) *Server {
	srv := &Server{
		store: store,
		orch:  orch,
		jobs:  manager,
		mcp: mcp.NewServer(
			&mcp.Implementation{
				Name:    "codegraph-mcp",
				Version: "0.1.0",
			},
			nil,
		),
	}
	srv.registerTools()
	return srv
}

// MCPServer returns the underlying MCP server.
func (s *Server) MCPServer() *mcp.Server {
	return s.mcp
}

func (s *Server) registerTools() {
	// 1. add_code_to_graph
	s.mcp.AddTool(&mcp.Tool{
		Name:        "add_code_to_graph",
		Description: "Index a directory into the code graph as a background job. Parses every supported source file, writes files/functions/classes/variables with their containment hierarchy, then links CALLS and INHERITS relationships. Returns a job ID and a duration estimate; poll with check_job_status.",
		InputSchema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"path": {
					"type": "string",
					"description": "Absolute path of the directory to index"
				},
				"is_dependency": {
					"type": "boolean",
					"description": "Mark the tree as third-party dependency code (default: false)"
				}
			},
			"required": ["path"]
		}`),
	}, s.handleAddCode)

	// 2. check_job_status
	s.mcp.AddTool(&mcp.Tool{
		Name:        "check_job_status",
		Description: "Check a background build job: status (pending/running/completed/failed/cancelled), per-file progress, current file, warnings, errors, and the duration estimate.",
		InputSchema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"job_id": {
					"type": "string",
					"description": "Job ID returned by add_code_to_graph"
				}
			},
			"required": ["job_id"]
		}`),
	}, s.handleCheckJobStatus)

	// 3. list_jobs
	s.mcp.AddTool(&mcp.Tool{
		Name:        "list_jobs",
		Description: "List all background jobs, newest first, with their status and progress.",
		InputSchema: json.RawMessage(`{"type": "object"}`),
	}, s.handleListJobs)

	// 4. update_file
	s.mcp.AddTool(&mcp.Tool{
		Name:        "update_file",
		Description: "Incrementally re-index one file: its previous nodes are removed and the file is re-parsed and re-written. A file deleted on disk is removed from the graph entirely.",
		InputSchema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"file_path": {
					"type": "string",
					"description": "Absolute path of the changed file"
				},
				"repo_path": {
					"type": "string",
					"description": "Absolute path of the repository root containing the file"
				}
			},
			"required": ["file_path", "repo_path"]
		}`),
	}, s.handleUpdateFile)

	// 5. delete_repository
	s.mcp.AddTool(&mcp.Tool{
		Name:        "delete_repository",
		Description: "Delete an indexed repository and everything it contains (directories, files, entities, parameters). This action is irreversible.",
		InputSchema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"repo_path": {
					"type": "string",
					"description": "Absolute path of the indexed repository"
				}
			},
			"required": ["repo_path"]
		}`),
	}, s.handleDeleteRepository)

	// 6. list_indexed_repositories
	s.mcp.AddTool(&mcp.Tool{
		Name:        "list_indexed_repositories",
		Description: "List indexed repositories with their path, dependency flag, and contained node count.",
		InputSchema: json.RawMessage(`{"type": "object"}`),
	}, s.handleListRepositories)

	// 7. find_code
	s.mcp.AddTool(&mcp.Tool{
		Name:        "find_code",
		Description: "Find code entities (functions, classes, variables) whose name or source contains the query string. Returns label, name, file, and line per match.",
		InputSchema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"query": {
					"type": "string",
					"description": "Substring to search for in entity names and source text"
				}
			},
			"required": ["query"]
		}`),
	}, s.handleFindCode)

	// 8. execute_query
	s.mcp.AddTool(&mcp.Tool{
		Name:        "execute_query",
		Description: "Run a read-only SQL SELECT against the graph database (tables: nodes, edges). Anything but SELECT is rejected. Node properties are a JSON column; use json_extract.",
		InputSchema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"sql": {
					"type": "string",
					"description": "SELECT statement, e.g. SELECT name, path FROM nodes WHERE label = 'Function' LIMIT 20"
				}
			},
			"required": ["sql"]
		}`),
	}, s.handleExecuteQuery)

	// 9. graph_stats
	s.mcp.AddTool(&mcp.Tool{
		Name:        "graph_stats",
		Description: "Return node counts by label and edge counts by relationship type for the whole graph.",
		InputSchema: json.RawMessage(`{"type": "object"}`),
	}, s.handleGraphStats)
}

// jsonResult marshals data to JSON and returns it as a tool result.
func jsonResult(data any) *mcp.CallToolResult {
	b, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return errResult("json marshal err=" + err.Error())
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: string(b)},
		},
	}
}

// errResult returns a tool result indicating an error.
func errResult(msg string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: msg},
		},
		IsError: true,
	}
}

// parseArgs unmarshals the raw JSON arguments into a map.
func parseArgs(req *mcp.CallToolRequest) (map[string]any, error) {
	if len(req.Params.Arguments) == 0 {
		return map[string]any{}, nil
	}
	var m map[string]any
	if err := json.Unmarshal(req.Params.Arguments, &m); err != nil {
		return nil, fmt.Errorf("invalid arguments: %w", err)
	}
	return m, nil
}

// getStringArg extracts a string argument from parsed args.
func getStringArg(args map[string]any, key string) string {
	v, ok := args[key]
	if !ok {
		return ""
	}
	s, ok := v.(string)
	if !ok {
		return ""
	}
	return s
}

// getBoolArg extracts a boolean argument from parsed args.
func getBoolArg(args map[string]any, key string) bool {
	v, ok := args[key]
	if !ok {
		return false
	}
	b, ok := v.(bool)
	if !ok {
		return false
	}
	return b
}
