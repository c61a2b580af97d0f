package mcpserver

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"go.uber.org/zap"

	"github.com/isdmx/querybox/database"
	"github.com/isdmx/querybox/toon"
)

const projectSummarySQL = `
SELECT p.id, p.name, p.description, p.status, p.start_date, p.end_date, p.created_at,
       COUNT(t.id) AS total_tasks,
       COUNT(CASE WHEN t.status = 'completed' THEN 1 END) AS completed,
       COUNT(CASE WHEN t.status = 'new' THEN 1 END) AS new_tasks,
       COUNT(CASE WHEN t.status NOT IN ('completed', 'new') THEN 1 END) AS in_progress,
       COUNT(CASE WHEN t.due_date < NOW() AND t.status != 'completed' THEN 1 END) AS overdue,
       MAX(t.updated_at) AS last_activity
FROM teamwork.projects p
LEFT JOIN teamwork.tasks t ON p.id = t.project_id
WHERE %s
GROUP BY p.id ORDER BY p.name LIMIT 10`

const projectTaskStatsSQL = `
SELECT COUNT(*) AS total,
       COUNT(CASE WHEN status = 'completed' THEN 1 END) AS completed,
       COUNT(CASE WHEN status = 'new' THEN 1 END) AS new,
       COUNT(CASE WHEN status NOT IN ('completed', 'new') THEN 1 END) AS in_progress,
       COUNT(CASE WHEN due_date < NOW() AND status != 'completed' THEN 1 END) AS overdue
FROM teamwork.tasks WHERE project_id = $1`

const recentTasksSQL = `
SELECT id, name, status, priority, due_date, updated_at
FROM teamwork.tasks
WHERE project_id = $1 AND status != 'completed'
ORDER BY updated_at DESC LIMIT 5`

const recentEmailsSQL = `
SELECT m.id, m.subject, m.preview, m.delivered_at, c.name AS from_name
FROM missive.messages m
JOIN public.project_conversations pc ON m.conversation_id = pc.m_conversation_id
LEFT JOIN missive.contacts c ON m.from_contact_id = c.id
WHERE pc.tw_project_id = $1
ORDER BY m.delivered_at DESC LIMIT 5`

const recentFilesSQL = `
SELECT f.id, f.full_path, fc.storage_path, f.db_created_at
FROM public.files f
JOIN public.file_contents fc ON f.content_hash = fc.content_hash
WHERE f.project_id = $1 AND f.deleted_at IS NULL
ORDER BY f.db_created_at DESC LIMIT 5`

const keyContactsSQL = `
SELECT c.name, c.email, COUNT(*) AS msg_count
FROM missive.messages m
JOIN public.project_conversations pc ON m.conversation_id = pc.m_conversation_id
JOIN missive.contacts c ON m.from_contact_id = c.id
WHERE pc.tw_project_id = $1
GROUP BY c.name, c.email
ORDER BY msg_count DESC LIMIT 5`

const recentActivitySQL = `
WITH combined AS (
    SELECT 'task' AS type, name AS title, updated_at AS ts
    FROM teamwork.tasks WHERE project_id = $1
    UNION ALL
    SELECT 'email', m.subject, m.delivered_at
    FROM missive.messages m
    JOIN public.project_conversations pc ON m.conversation_id = pc.m_conversation_id
    WHERE pc.tw_project_id = $1
    UNION ALL
    SELECT 'file', f.full_path, f.db_created_at
    FROM public.files f
    WHERE f.project_id = $1 AND f.deleted_at IS NULL
)
SELECT DISTINCT ON (DATE_TRUNC('hour', ts), type, LEFT(title, 50))
       type, title, ts
FROM combined WHERE ts IS NOT NULL
ORDER BY DATE_TRUNC('hour', ts) DESC, type, LEFT(title, 50), ts DESC
LIMIT 10`

// registerProjectTools registers get_project_summary and get_project_dashboard
func (s *MCPServer) registerProjectTools() {
	projectParams := map[string]any{
		"project_id": map[string]any{
			"type":        "integer",
			"description": "Project ID",
		},
		"project_name": map[string]any{
			"type":        "string",
			"description": "Project name (case-insensitive partial match)",
		},
	}

	summary := mcp.Tool{
		Name:        "get_project_summary",
		Description: "Get project summary with task statistics: counts by status, overdue count, and recent activity.",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: projectParams,
		},
	}
	s.mcpServer.AddTool(summary, s.handleProjectSummary)

	dashboard := mcp.Tool{
		Name:        "get_project_dashboard",
		Description: "Get comprehensive project dashboard: task counts, recent tasks, emails, and files, key contacts, and combined recent activity.",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: projectParams,
		},
	}
	s.mcpServer.AddTool(dashboard, s.handleProjectDashboard)
}

// handleProjectSummary handles the get_project_summary tool
func (s *MCPServer) handleProjectSummary(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	projectID := request.GetInt("project_id", 0)
	projectName := request.GetString("project_name", "")
	if projectID == 0 && projectName == "" {
		return mcp.NewToolResultError("provide either project_id or project_name"), nil
	}

	s.logger.Info("get_project_summary",
		zap.Int("project_id", projectID),
		zap.String("project_name", projectName))

	var result *database.QueryResult
	var err error
	if projectID != 0 {
		result, err = s.exec.Execute(ctx, fmt.Sprintf(projectSummarySQL, "p.id = $1"), projectID)
	} else {
		result, err = s.exec.Execute(ctx, fmt.Sprintf(projectSummarySQL, "p.name ILIKE $1"), "%"+projectName+"%")
	}
	if err != nil {
		return s.errorResult(err), nil
	}

	return s.queryResponse(result, "toon", false, false)
}

// handleProjectDashboard handles the get_project_dashboard tool
func (s *MCPServer) handleProjectDashboard(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	projectID := request.GetInt("project_id", 0)
	projectName := request.GetString("project_name", "")
	if projectID == 0 && projectName == "" {
		return mcp.NewToolResultError("provide either project_id or project_name"), nil
	}

	s.logger.Info("get_project_dashboard",
		zap.Int("project_id", projectID),
		zap.String("project_name", projectName))

	var proj *database.QueryResult
	var err error
	if projectID != 0 {
		proj, err = s.exec.Execute(ctx, "SELECT id, name FROM teamwork.projects WHERE id = $1", projectID)
	} else {
		proj, err = s.exec.Execute(ctx,
			"SELECT id, name FROM teamwork.projects WHERE name ILIKE $1 LIMIT 1", "%"+projectName+"%")
	}
	if err != nil {
		return s.errorResult(err), nil
	}
	if len(proj.Rows) == 0 {
		if projectName != "" {
			return mcp.NewToolResultError("project not found: " + projectName), nil
		}
		return mcp.NewToolResultError("project not found"), nil
	}
	pid := proj.Rows[0][0]
	pname := proj.Rows[0][1]

	sections := []struct {
		key   string
		query string
	}{
		{"recent_activity", recentActivitySQL},
		{"recent_tasks", recentTasksSQL},
		{"recent_emails", recentEmailsSQL},
		{"recent_files", recentFilesSQL},
		{"key_contacts", keyContactsSQL},
	}

	stats, err := s.exec.Execute(ctx, projectTaskStatsSQL, pid)
	if err != nil {
		return s.errorResult(err), nil
	}
	taskStats := map[string]any{}
	if len(stats.Rows) == 1 {
		taskStats = rowsAsMaps(stats.Columns, stats.Rows)[0]
	}

	response := map[string]any{
		"project": map[string]any{"id": pid, "name": pname, "tasks": taskStats},
	}
	for _, section := range sections {
		result, sectionErr := s.exec.Execute(ctx, section.query, pid)
		if sectionErr != nil {
			return s.errorResult(sectionErr), nil
		}
		response[section.key] = s.sectionRows(result)
	}

	return s.jsonResult(response)
}

// sectionRows applies cell truncation and converts a section result to row
// objects for the dashboard response.
func (s *MCPServer) sectionRows(result *database.QueryResult) []map[string]any {
	rows, _ := toon.Rows(result.Rows, s.config.Response.MaxCellChars, s.config.Response.CellPreviewChars)
	return rowsAsMaps(result.Columns, rows)
}
