package mcpserver

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
	"go.uber.org/zap"
)

const queryDescription = `Execute a READ-ONLY SQL query against the database.

Returns rows (format depends on 'format' param) plus execution metadata
(row counts, truncation info).

Query tips:
- Use ILIKE for case-insensitive search
- Filter by indexed columns: id, *_id foreign keys, created_at, email
- Use LIMIT to avoid large result sets
- Complex JOINs, CTEs, and subqueries all work`

// registerQueryTool registers the query_database tool
func (s *MCPServer) registerQueryTool() {
	tool := mcp.Tool{
		Name:        "query_database",
		Description: queryDescription,
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]any{
				"query": map[string]any{
					"type":        "string",
					"description": "SQL SELECT query. Only SELECT/WITH statements allowed.",
				},
				"format": map[string]any{
					"type":        "string",
					"description": "Output format, 'toon' (compact tabular, default) or 'json'.",
					"enum":        []string{"toon", "json"},
				},
				"include_stats": map[string]any{
					"type":        "boolean",
					"description": "Include column statistics (unique counts, min/max, etc.)",
				},
				"limit": map[string]any{
					"type":        "integer",
					"description": "Cap the number of returned rows below the configured maximum.",
				},
				"full_output": map[string]any{
					"type":        "boolean",
					"description": "If true, disable response-size truncation. Use carefully!",
				},
			},
			Required: []string{"query"},
		},
	}

	s.mcpServer.AddTool(tool, s.handleQueryDatabase)
}

// handleQueryDatabase handles the query_database tool
func (s *MCPServer) handleQueryDatabase(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := request.RequireString("query")
	if err != nil {
		return s.errorResult(err), nil
	}

	format := request.GetString("format", "toon")
	if format != "toon" && format != "json" {
		return mcp.NewToolResultError("invalid format: must be 'toon' or 'json'"), nil
	}
	includeStats := request.GetBool("include_stats", false)
	limit := request.GetInt("limit", 0)
	fullOutput := request.GetBool("full_output", false)

	s.logger.Info("query_database",
		zap.String("format", format),
		zap.Int("limit", limit),
		zap.Bool("full_output", fullOutput))

	result, err := s.exec.ExecuteCapped(ctx, limit, query)
	if err != nil {
		return s.errorResult(err), nil
	}

	return s.queryResponse(result, format, includeStats, fullOutput)
}
