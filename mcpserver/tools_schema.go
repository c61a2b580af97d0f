package mcpserver

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"go.uber.org/zap"

	"github.com/isdmx/querybox/database"
)

const schemaDescription = `Get database schema in a compact, LLM-friendly format.

Returns columns, abbreviated types, primary keys, and foreign key references,
one line per table:

    **tasks**: id int pk, project_id int (→projects.id), name text`

// registerSchemaTools registers get_schema and describe_table
func (s *MCPServer) registerSchemaTools() {
	getSchema := mcp.Tool{
		Name:        "get_schema",
		Description: schemaDescription,
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]any{
				"schema": map[string]any{
					"type":        "string",
					"description": "Filter by schema name. Omit for all configured schemas.",
				},
				"table": map[string]any{
					"type":        "string",
					"description": "Filter by specific table.",
				},
			},
		},
	}
	s.mcpServer.AddTool(getSchema, s.handleGetSchema)

	describeTable := mcp.Tool{
		Name:        "describe_table",
		Description: "Get table overview: columns, sample rows, column statistics, and row count. Great for exploring unfamiliar tables.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]any{
				"schema": map[string]any{
					"type":        "string",
					"description": "Schema name",
				},
				"table": map[string]any{
					"type":        "string",
					"description": "Table name",
				},
				"sample_rows": map[string]any{
					"type":        "integer",
					"description": "Number of sample rows to show (default 3, max 10)",
				},
			},
			Required: []string{"schema", "table"},
		},
	}
	s.mcpServer.AddTool(describeTable, s.handleDescribeTable)
}

// handleGetSchema handles the get_schema tool
func (s *MCPServer) handleGetSchema(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	schema := request.GetString("schema", "")
	table := request.GetString("table", "")

	s.logger.Info("get_schema", zap.String("schema", schema), zap.String("table", table))

	info, err := s.exec.DescribeSchema(ctx, schema, table)
	if err != nil {
		return s.errorResult(err), nil
	}

	return s.jsonResult(map[string]any{
		"schema": info.Text,
		"meta": map[string]any{
			"tables":  info.Tables,
			"columns": info.Columns,
		},
	})
}

// handleDescribeTable handles the describe_table tool
func (s *MCPServer) handleDescribeTable(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	schema, err := request.RequireString("schema")
	if err != nil {
		return s.errorResult(err), nil
	}
	table, err := request.RequireString("table")
	if err != nil {
		return s.errorResult(err), nil
	}
	sampleRows := request.GetInt("sample_rows", 3)
	if sampleRows < 1 {
		sampleRows = 1
	}
	if sampleRows > 10 {
		sampleRows = 10
	}

	s.logger.Info("describe_table",
		zap.String("schema", schema),
		zap.String("table", table),
		zap.Int("sample_rows", sampleRows))

	// DescribeSchema validates the schema against the allowlist and the
	// table as a bare identifier, so both are safe to splice below.
	info, err := s.exec.DescribeSchema(ctx, schema, table)
	if err != nil {
		return s.errorResult(err), nil
	}

	sample, err := s.exec.ExecuteCapped(ctx, sampleRows,
		fmt.Sprintf("SELECT * FROM %s.%s LIMIT %d", schema, table, sampleRows))
	if err != nil {
		return s.errorResult(err), nil
	}

	var totalRows any = "?"
	if count, countErr := s.exec.Execute(ctx,
		fmt.Sprintf("SELECT COUNT(*) AS total FROM %s.%s", schema, table)); countErr == nil &&
		len(count.Rows) == 1 && len(count.Rows[0]) == 1 {
		totalRows = count.Rows[0][0]
	}

	return s.jsonResult(map[string]any{
		"table":        schema + "." + table,
		"total_rows":   totalRows,
		"columns":      info.Text,
		"sample":       rowsAsMaps(sample.Columns, sample.Rows),
		"column_stats": database.ComputeStats(sample),
		"query_tips":   queryTips(info.Text),
	})
}

// queryTips suggests query patterns based on the column names present
func queryTips(schemaText string) []string {
	var tips []string
	if strings.Contains(schemaText, "created_at") {
		tips = append(tips, "ORDER BY created_at DESC for recent records")
	}
	if strings.Contains(schemaText, "_id") {
		tips = append(tips, "JOIN on *_id columns for related data")
	}
	if strings.Contains(schemaText, "email") {
		tips = append(tips, "Filter by email with ILIKE for case-insensitive match")
	}
	if len(tips) == 0 {
		tips = []string{"Use LIMIT to preview data", "Use ILIKE for text search"}
	}
	if len(tips) > 3 {
		tips = tips[:3]
	}
	return tips
}
