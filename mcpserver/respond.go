package mcpserver

import (
	"encoding/json"
	"errors"
	"sort"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"go.uber.org/zap"

	"github.com/isdmx/querybox/database"
	"github.com/isdmx/querybox/faults"
	"github.com/isdmx/querybox/toon"
)

// errorResult renders a failure as an MCP tool error. Typed faults expose
// their sanitized rendering; anything else passes through as-is.
func (s *MCPServer) errorResult(err error) *mcp.CallToolResult {
	var e *faults.E
	if errors.As(err, &e) {
		return mcp.NewToolResultError(e.Public())
	}
	s.logger.Warn("untyped tool error", zap.Error(err))
	return mcp.NewToolResultError(err.Error())
}

// jsonResult marshals v into the text content of a successful tool result
func (s *MCPServer) jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return s.errorResult(faults.Wrap(faults.EncodingOverflow, "failed to encode response", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

// queryResponse compacts a result set into the tool response shape shared by
// every data-returning tool. format is "toon" or "json"; fullOutput disables
// the byte budget but never the executor row cap.
func (s *MCPServer) queryResponse(result *database.QueryResult, format string, includeStats, fullOutput bool) (*mcp.CallToolResult, error) {
	rows := result.Rows
	cellsTruncated := false
	if !fullOutput {
		rows, cellsTruncated = toon.Rows(rows, s.config.Response.MaxCellChars, s.config.Response.CellPreviewChars)
	}

	byteCap := s.config.Response.MaxBytes
	if fullOutput {
		byteCap = 0
	}

	meta := map[string]any{
		"row_count":       len(result.Rows),
		"more_rows":       result.MoreRows,
		"cells_truncated": cellsTruncated,
		"elapsed_ms":      result.Elapsed.Milliseconds(),
		"format":          format,
	}
	if includeStats {
		meta["columns"] = database.ComputeStats(result)
	}

	if format == "json" {
		shown, omitted := jsonRowsWithin(result.Columns, rows, byteCap)
		meta["rows_shown"] = len(shown)
		if omitted > 0 {
			meta["truncated"] = true
			meta["rows_omitted"] = omitted
		} else {
			meta["truncated"] = false
		}
		return s.jsonResult(map[string]any{"rows": shown, "meta": meta})
	}

	enc, err := toon.Encode(result.Columns, rows, byteCap)
	if err != nil {
		return s.errorResult(err), nil
	}
	meta["rows_shown"] = enc.RowsShown
	meta["truncated"] = enc.Truncated
	if enc.RowsOmitted > 0 {
		meta["rows_omitted"] = enc.RowsOmitted
	}
	return s.jsonResult(map[string]any{"data": enc.Text, "meta": meta})
}

// rowsAsMaps converts a positional result into the row-object shape used by
// JSON responses and dashboard sections.
func rowsAsMaps(columns []string, rows [][]any) []map[string]any {
	out := make([]map[string]any, len(rows))
	for i, row := range rows {
		m := make(map[string]any, len(columns))
		for j, col := range columns {
			if j >= len(row) {
				break
			}
			m[col] = jsonValue(row[j])
		}
		out[i] = m
	}
	return out
}

func jsonValue(v any) any {
	if t, ok := v.(time.Time); ok {
		return t.Format(time.RFC3339)
	}
	return v
}

// jsonRowsWithin keeps the longest earliest prefix of rows whose marshaled
// size fits the byte budget, returning the converted prefix and how many
// trailing rows were dropped.
func jsonRowsWithin(columns []string, rows [][]any, byteCap int) ([]map[string]any, int) {
	all := rowsAsMaps(columns, rows)
	if byteCap <= 0 {
		return all, 0
	}

	size := func(n int) int {
		data, err := json.Marshal(all[:n])
		if err != nil {
			return byteCap + 1
		}
		return len(data)
	}
	if size(len(all)) <= byteCap {
		return all, 0
	}

	// Largest n with size(n) within budget. sort.Search finds the first n
	// that overflows.
	n := sort.Search(len(all), func(n int) bool { return size(n+1) > byteCap })
	return all[:n], len(all) - n
}
