package tools

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"testing"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/lumenforge/codegraph-mcp/internal/adapter"
	"github.com/lumenforge/codegraph-mcp/internal/builder"
	"github.com/lumenforge/codegraph-mcp/internal/graph"
	"github.com/lumenforge/codegraph-mcp/internal/jobs"
)

// setupSession wires the tool server to a client over in-memory transports.
func setupSession(t *testing.T, store graph.Store) *mcp.ClientSession {
	t.Helper()
	manager := jobs.NewManager()
	orch := builder.New(store, adapter.NewRegistry(), manager)
	t.Cleanup(orch.Close)

	srv := NewServer(store, orch, manager)
	st, ct := mcp.NewInMemoryTransports()
	ctx := context.Background()

	if _, err := srv.MCPServer().Connect(ctx, st, nil); err != nil {
		t.Fatalf("server connect: %v", err)
	}
	client := mcp.NewClient(&mcp.Implementation{Name: "test-client", Version: "0.0.0"}, nil)
	session, err := client.Connect(ctx, ct, nil)
	if err != nil {
		t.Fatalf("client connect: %v", err)
	}
	t.Cleanup(func() { session.Close() })
	return session
}

// callTool invokes one tool and decodes its JSON text payload.
func callTool(t *testing.T, session *mcp.ClientSession, name string, args map[string]any) (map[string]any, bool) {
	t.Helper()
	result, err := session.CallTool(context.Background(), &mcp.CallToolParams{
		Name:      name,
		Arguments: args,
	})
	if err != nil {
		t.Fatalf("call %s: %v", name, err)
	}
	if len(result.Content) == 0 {
		t.Fatalf("call %s: empty content", name)
	}
	text, ok := result.Content[0].(*mcp.TextContent)
	if !ok {
		t.Fatalf("call %s: content %T", name, result.Content[0])
	}
	if result.IsError {
		return map[string]any{"error": text.Text}, true
	}
	var payload map[string]any
	if err := json.Unmarshal([]byte(text.Text), &payload); err != nil {
		t.Fatalf("call %s: decode %q: %v", name, text.Text, err)
	}
	return payload, false
}

// awaitJob polls check_job_status until the job reaches a terminal state.
func awaitJob(t *testing.T, session *mcp.ClientSession, jobID string) map[string]any {
	t.Helper()
	deadline := time.Now().Add(10 * time.Second)
	for time.Now().Before(deadline) {
		status, isErr := callTool(t, session, "check_job_status", map[string]any{"job_id": jobID})
		if isErr {
			t.Fatalf("check_job_status: %v", status["error"])
		}
		switch status["status"] {
		case "completed", "failed", "cancelled":
			return status
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("job %s never finished", jobID)
	return nil
}

func writePython(t *testing.T, dir, name, src string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(src), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestToolRegistration(t *testing.T) {
	session := setupSession(t, graph.NewMemory())

	result, err := session.ListTools(context.Background(), &mcp.ListToolsParams{})
	if err != nil {
		t.Fatal(err)
	}
	names := make([]string, 0, len(result.Tools))
	for _, tool := range result.Tools {
		names = append(names, tool.Name)
	}
	sort.Strings(names)

	want := []string{
		"add_code_to_graph",
		"check_job_status",
		"delete_repository",
		"execute_query",
		"find_code",
		"graph_stats",
		"list_indexed_repositories",
		"list_jobs",
		"update_file",
	}
	if !slices.Equal(names, want) {
		t.Errorf("tools = %v, want %v", names, want)
	}
}

func TestAddCodeToGraph(t *testing.T) {
	store := graph.NewMemory()
	session := setupSession(t, store)

	dir := t.TempDir()
	writePython(t, dir, "lib.py", "def helper():\n    pass\n")
	writePython(t, dir, "app.py", "import lib\n\ndef main():\n    lib.helper()\n")

	started, isErr := callTool(t, session, "add_code_to_graph", map[string]any{"path": dir})
	if isErr {
		t.Fatalf("add_code_to_graph: %v", started["error"])
	}
	jobID, _ := started["job_id"].(string)
	if jobID == "" {
		t.Fatalf("no job_id in %v", started)
	}
	if started["estimated"] == "" {
		t.Errorf("no estimate in %v", started)
	}

	status := awaitJob(t, session, jobID)
	if status["status"] != "completed" {
		t.Fatalf("status = %v, errors = %v", status["status"], status["errors"])
	}
	if status["total_files"] != float64(2) || status["processed_files"] != float64(2) {
		t.Errorf("progress = %v/%v, want 2/2", status["processed_files"], status["total_files"])
	}

	listed, isErr := callTool(t, session, "list_jobs", nil)
	if isErr {
		t.Fatalf("list_jobs: %v", listed["error"])
	}
	if listed["count"] != float64(1) {
		t.Errorf("job count = %v, want 1", listed["count"])
	}
}

func TestAddCodeValidation(t *testing.T) {
	session := setupSession(t, graph.NewMemory())

	if _, isErr := callTool(t, session, "add_code_to_graph", map[string]any{}); !isErr {
		t.Error("missing path accepted")
	}
	if _, isErr := callTool(t, session, "check_job_status", map[string]any{"job_id": "nope"}); !isErr {
		t.Error("unknown job accepted")
	}
}

func TestFindCodeAndStats(t *testing.T) {
	store := graph.NewMemory()
	session := setupSession(t, store)

	dir := t.TempDir()
	writePython(t, dir, "lib.py", "def helper():\n    pass\n\nclass Widget:\n    pass\n")
	started, _ := callTool(t, session, "add_code_to_graph", map[string]any{"path": dir})
	awaitJob(t, session, started["job_id"].(string))

	found, isErr := callTool(t, session, "find_code", map[string]any{"query": "helper"})
	if isErr {
		t.Fatalf("find_code: %v", found["error"])
	}
	matches, _ := found["matches"].([]any)
	if len(matches) != 1 {
		t.Fatalf("matches = %v", found)
	}
	match := matches[0].(map[string]any)
	if match["name"] != "helper" || match["label"] != "Function" {
		t.Errorf("match = %v", match)
	}

	stats, isErr := callTool(t, session, "graph_stats", nil)
	if isErr {
		t.Fatalf("graph_stats: %v", stats["error"])
	}
	nodes, _ := stats["nodes"].(map[string]any)
	if nodes["Function"] != float64(1) || nodes["Class"] != float64(1) {
		t.Errorf("node counts = %v", nodes)
	}
	if total, _ := stats["total_nodes"].(float64); total < 4 {
		t.Errorf("total_nodes = %v", total)
	}
}

func TestListAndDeleteRepository(t *testing.T) {
	store := graph.NewMemory()
	session := setupSession(t, store)

	dir := t.TempDir()
	writePython(t, dir, "a.py", "def f():\n    pass\n")
	started, _ := callTool(t, session, "add_code_to_graph", map[string]any{"path": dir})
	awaitJob(t, session, started["job_id"].(string))

	listed, isErr := callTool(t, session, "list_indexed_repositories", nil)
	if isErr {
		t.Fatalf("list_indexed_repositories: %v", listed["error"])
	}
	if listed["count"] != float64(1) {
		t.Fatalf("repositories = %v", listed)
	}
	repo := listed["repositories"].([]any)[0].(map[string]any)
	if repo["path"] != dir {
		t.Errorf("repo path = %v, want %s", repo["path"], dir)
	}
	if nodes, _ := repo["nodes"].(float64); nodes < 2 {
		t.Errorf("repo nodes = %v", repo["nodes"])
	}

	removed, isErr := callTool(t, session, "delete_repository", map[string]any{"repo_path": dir})
	if isErr {
		t.Fatalf("delete_repository: %v", removed["error"])
	}
	if removed["deleted"] != true {
		t.Errorf("delete result = %v", removed)
	}

	listed, _ = callTool(t, session, "list_indexed_repositories", nil)
	if listed["count"] != float64(0) {
		t.Errorf("repositories after delete = %v", listed)
	}

	if _, isErr := callTool(t, session, "delete_repository", map[string]any{"repo_path": dir}); !isErr {
		t.Error("deleting an unindexed repository succeeded")
	}
}

func TestUpdateFileTool(t *testing.T) {
	store := graph.NewMemory()
	session := setupSession(t, store)

	dir := t.TempDir()
	path := writePython(t, dir, "mod.py", "def old():\n    pass\n")

	updated, isErr := callTool(t, session, "update_file", map[string]any{"file_path": path, "repo_path": dir})
	if isErr {
		t.Fatalf("update_file: %v", updated["error"])
	}
	if updated["deleted"] != false || updated["functions"] != float64(1) {
		t.Errorf("update result = %v", updated)
	}

	if err := os.Remove(path); err != nil {
		t.Fatal(err)
	}
	updated, isErr = callTool(t, session, "update_file", map[string]any{"file_path": path, "repo_path": dir})
	if isErr {
		t.Fatalf("update_file after remove: %v", updated["error"])
	}
	if updated["deleted"] != true {
		t.Errorf("update result after remove = %v", updated)
	}
}

func TestExecuteQuery(t *testing.T) {
	store, err := graph.OpenMemory()
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { store.Close() })
	session := setupSession(t, store)

	dir := t.TempDir()
	writePython(t, dir, "a.py", "def f():\n    pass\n")
	started, _ := callTool(t, session, "add_code_to_graph", map[string]any{"path": dir})
	awaitJob(t, session, started["job_id"].(string))

	rows, isErr := callTool(t, session, "execute_query", map[string]any{
		"sql": "SELECT name FROM nodes WHERE label = 'Function'",
	})
	if isErr {
		t.Fatalf("execute_query: %v", rows["error"])
	}
	if rows["count"] != float64(1) {
		t.Fatalf("rows = %v", rows)
	}
	row := rows["rows"].([]any)[0].(map[string]any)
	if row["name"] != "f" {
		t.Errorf("row = %v", row)
	}

	if _, isErr := callTool(t, session, "execute_query", map[string]any{"sql": "DELETE FROM nodes"}); !isErr {
		t.Error("write statement accepted")
	}
}

func TestExecuteQueryUnsupportedBackend(t *testing.T) {
	session := setupSession(t, graph.NewMemory())

	result, isErr := callTool(t, session, "execute_query", map[string]any{"sql": "SELECT 1"})
	if !isErr {
		t.Errorf("memory backend accepted raw query: %v", result)
	}
}
