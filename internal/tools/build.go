package tools

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/lumenforge/codegraph-mcp/internal/jobs"
)

func (s *Server) handleAddCode(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, err := parseArgs(req)
	if err != nil {
		return errResult(err.Error()), nil
	}
	path := getStringArg(args, "path")
	if path == "" {
		return errResult("path is required"), nil
	}

	job, err := s.orch.StartBuild(ctx, path, getBoolArg(args, "is_dependency"))
	if err != nil {
		return errResult(fmt.Sprintf("start build: %v", err)), nil
	}
	return jsonResult(map[string]any{
		"job_id":    job.ID,
		"path":      job.Path,
		"status":    job.Status,
		"estimated": job.Estimated.String(),
		"message":   "indexing started in the background; poll with check_job_status",
	}), nil
}

func (s *Server) handleCheckJobStatus(_ context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, err := parseArgs(req)
	if err != nil {
		return errResult(err.Error()), nil
	}
	jobID := getStringArg(args, "job_id")
	if jobID == "" {
		return errResult("job_id is required"), nil
	}

	job, ok := s.jobs.Get(jobID)
	if !ok {
		return errResult(fmt.Sprintf("job not found: %s", jobID)), nil
	}
	return jsonResult(jobStatus(job)), nil
}

func (s *Server) handleListJobs(_ context.Context, _ *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	list := s.jobs.List()
	statuses := make([]map[string]any, 0, len(list))
	for _, job := range list {
		statuses = append(statuses, jobStatus(job))
	}
	return jsonResult(map[string]any{
		"count": len(statuses),
		"jobs":  statuses,
	}), nil
}

func (s *Server) handleUpdateFile(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, err := parseArgs(req)
	if err != nil {
		return errResult(err.Error()), nil
	}
	filePath := getStringArg(args, "file_path")
	repoPath := getStringArg(args, "repo_path")
	if filePath == "" || repoPath == "" {
		return errResult("file_path and repo_path are required"), nil
	}

	fir, deleted, err := s.orch.Update(ctx, filePath, repoPath)
	if err != nil {
		return errResult(fmt.Sprintf("update: %v", err)), nil
	}
	if deleted {
		return jsonResult(map[string]any{
			"file":    filePath,
			"deleted": true,
		}), nil
	}
	return jsonResult(map[string]any{
		"file":      filePath,
		"deleted":   false,
		"functions": len(fir.Functions),
		"types":     len(fir.Types),
		"variables": len(fir.Variables),
		"imports":   len(fir.Imports),
	}), nil
}

// jobStatus renders one job snapshot for tool output.
func jobStatus(job jobs.Job) map[string]any {
	status := map[string]any{
		"job_id":          job.ID,
		"kind":            job.Kind,
		"path":            job.Path,
		"status":          job.Status,
		"total_files":     job.TotalFiles,
		"processed_files": job.ProcessedFiles,
		"current_file":    job.CurrentFile,
		"warnings":        job.Warnings,
		"errors":          job.Errors,
		"started_at":      job.StartedAt,
		"estimated":       job.Estimated.String(),
	}
	if !job.EndedAt.IsZero() {
		status["ended_at"] = job.EndedAt
	}
	return status
}
