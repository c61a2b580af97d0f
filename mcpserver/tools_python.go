package mcpserver

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
	"go.uber.org/zap"

	"github.com/isdmx/querybox/sandbox"
)

const pythonDescription = `Execute Python analysis code in an isolated sandbox.

Optionally bind a read-only SQL query: its result is available to the code
as 'rows' (list of dicts) and 'columns' (list of names).

Example:
    query: "SELECT name, status FROM teamwork.tasks LIMIT 100"
    code:  "from collections import Counter\nprint(Counter(r['status'] for r in rows))"

The sandbox has no network and no database access beyond the bound rows;
print() output is captured and returned, and the value of a final
expression is returned as 'result'.`

// registerPythonTool registers the run_python tool
func (s *MCPServer) registerPythonTool() {
	tool := mcp.Tool{
		Name:        "run_python",
		Description: pythonDescription,
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]any{
				"code": map[string]any{
					"type":        "string",
					"description": "Python code to execute",
				},
				"query": map[string]any{
					"type":        "string",
					"description": "Optional read-only SQL whose result is bound into the run as 'rows'",
				},
			},
			Required: []string{"code"},
		},
	}

	s.mcpServer.AddTool(tool, s.handleRunPython)
}

// handleRunPython handles the run_python tool
func (s *MCPServer) handleRunPython(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	code, err := request.RequireString("code")
	if err != nil {
		return s.errorResult(err), nil
	}
	query := request.GetString("query", "")

	s.logger.Info("run_python",
		zap.Int("code_len", len(code)),
		zap.Bool("has_query", query != ""))

	req := sandbox.RunRequest{Code: code}
	if query != "" {
		result, queryErr := s.exec.Execute(ctx, query)
		if queryErr != nil {
			return s.errorResult(queryErr), nil
		}
		req.Rows = &sandbox.BoundRows{Columns: result.Columns, Rows: result.Rows}
	}

	result, err := s.runner.Run(ctx, req)
	if err != nil {
		s.logger.Error("sandboxed run failed", zap.Error(err))
		return s.errorResult(err), nil
	}

	s.logger.Info("run_python completed",
		zap.Bool("has_result", result.Value != nil),
		zap.Int("stdout_len", len(result.Stdout)))

	return s.jsonResult(map[string]any{
		"stdout":           result.Stdout,
		"stderr":           result.Stderr,
		"result":           result.Value,
		"stdout_truncated": result.StdoutTruncated,
	})
}
