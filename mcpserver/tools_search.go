package mcpserver

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"go.uber.org/zap"
)

const searchLimitMax = 200
const searchLimitDefault = 50

// EmailSearch holds the filters of the search_emails tool
type EmailSearch struct {
	Subject           string
	FromEmail         string
	HasAttachment     *bool
	MinAttachmentSize int
	MinAttachments    int
	AttachmentType    string
	Label             string
	SearchText        string
	Limit             int
}

// TaskSearch holds the filters of the search_tasks tool
type TaskSearch struct {
	ProjectName   string
	Status        string
	AssigneeEmail string
	SearchText    string
	Tag           string
	OverdueOnly   bool
	Limit         int
}

// registerSearchTools registers search_emails and search_tasks
func (s *MCPServer) registerSearchTools() {
	searchEmails := mcp.Tool{
		Name:        "search_emails",
		Description: "Search email messages with attachment filtering. Examples: emails with attachments over 40MB (min_attachment_size=40000000), at least 3 PDFs (min_attachments=3, attachment_type='pdf').",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]any{
				"subject": map[string]any{
					"type":        "string",
					"description": "Filter by subject (case-insensitive partial match)",
				},
				"from_email": map[string]any{
					"type":        "string",
					"description": "Filter by sender email (exact match)",
				},
				"has_attachment": map[string]any{
					"type":        "boolean",
					"description": "Filter for messages with/without attachments",
				},
				"min_attachment_size": map[string]any{
					"type":        "integer",
					"description": "Minimum total attachment size in bytes",
				},
				"min_attachments": map[string]any{
					"type":        "integer",
					"description": "Minimum number of attachments",
				},
				"attachment_type": map[string]any{
					"type":        "string",
					"description": "Filter by attachment type (e.g., 'pdf', 'image', 'xlsx')",
				},
				"label": map[string]any{
					"type":        "string",
					"description": "Filter by label name",
				},
				"search_text": map[string]any{
					"type":        "string",
					"description": "Search in subject and body",
				},
				"limit": map[string]any{
					"type":        "integer",
					"description": "Maximum results (default 50, max 200)",
				},
			},
		},
	}
	s.mcpServer.AddTool(searchEmails, s.handleSearchEmails)

	searchTasks := mcp.Tool{
		Name:        "search_tasks",
		Description: "Search tasks by project, status, assignee, tag, or free text.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]any{
				"project_name": map[string]any{
					"type":        "string",
					"description": "Filter by project name (case-insensitive partial match)",
				},
				"status": map[string]any{
					"type":        "string",
					"description": "Filter by status (e.g., 'completed', 'new', 'in progress')",
				},
				"assignee_email": map[string]any{
					"type":        "string",
					"description": "Filter by assignee email",
				},
				"search_text": map[string]any{
					"type":        "string",
					"description": "Search in task name and description",
				},
				"tag": map[string]any{
					"type":        "string",
					"description": "Filter by tag name",
				},
				"overdue_only": map[string]any{
					"type":        "boolean",
					"description": "Only show overdue incomplete tasks",
				},
				"limit": map[string]any{
					"type":        "integer",
					"description": "Maximum results (default 50, max 200)",
				},
			},
		},
	}
	s.mcpServer.AddTool(searchTasks, s.handleSearchTasks)
}

// handleSearchEmails handles the search_emails tool
func (s *MCPServer) handleSearchEmails(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	p := EmailSearch{
		Subject:           request.GetString("subject", ""),
		FromEmail:         request.GetString("from_email", ""),
		MinAttachmentSize: request.GetInt("min_attachment_size", 0),
		MinAttachments:    request.GetInt("min_attachments", 0),
		AttachmentType:    request.GetString("attachment_type", ""),
		Label:             request.GetString("label", ""),
		SearchText:        request.GetString("search_text", ""),
		Limit:             request.GetInt("limit", searchLimitDefault),
	}
	if v, ok := request.GetArguments()["has_attachment"].(bool); ok {
		p.HasAttachment = &v
	}

	s.logger.Info("search_emails",
		zap.String("subject", p.Subject),
		zap.String("from", p.FromEmail),
		zap.String("text", p.SearchText),
		zap.Int("limit", p.Limit))

	query, args := buildEmailSearchSQL(p)
	result, err := s.exec.Execute(ctx, query, args...)
	if err != nil {
		return s.errorResult(err), nil
	}
	return s.queryResponse(result, "toon", false, false)
}

// handleSearchTasks handles the search_tasks tool
func (s *MCPServer) handleSearchTasks(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	p := TaskSearch{
		ProjectName:   request.GetString("project_name", ""),
		Status:        request.GetString("status", ""),
		AssigneeEmail: request.GetString("assignee_email", ""),
		SearchText:    request.GetString("search_text", ""),
		Tag:           request.GetString("tag", ""),
		OverdueOnly:   request.GetBool("overdue_only", false),
		Limit:         request.GetInt("limit", searchLimitDefault),
	}

	s.logger.Info("search_tasks",
		zap.String("project", p.ProjectName),
		zap.String("status", p.Status),
		zap.String("text", p.SearchText),
		zap.Int("limit", p.Limit))

	query, args := buildTaskSearchSQL(p)
	result, err := s.exec.Execute(ctx, query, args...)
	if err != nil {
		return s.errorResult(err), nil
	}
	return s.queryResponse(result, "toon", false, false)
}

// argList accumulates positional query arguments
type argList []any

func (a *argList) add(v any) string {
	*a = append(*a, v)
	return fmt.Sprintf("$%d", len(*a))
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return searchLimitDefault
	}
	if limit > searchLimitMax {
		return searchLimitMax
	}
	return limit
}

// buildEmailSearchSQL assembles the email search statement. Every filter
// value travels as a positional argument, never spliced into the text.
func buildEmailSearchSQL(p EmailSearch) (string, []any) {
	var args argList
	selectCols := []string{"m.id", "m.subject", "m.preview", "m.delivered_at", "c.name AS from_name"}
	joins := []string{
		"FROM missive.messages m",
		"LEFT JOIN missive.contacts c ON m.from_contact_id = c.id",
	}
	var conditions, having []string

	needsAttachments := p.HasAttachment != nil || p.MinAttachmentSize > 0 ||
		p.MinAttachments > 0 || p.AttachmentType != ""
	if needsAttachments {
		joins = append(joins, "LEFT JOIN missive.attachments a ON m.id = a.message_id")
		selectCols = append(selectCols, "COUNT(a.id) AS attachment_count", "SUM(a.size) AS total_size")
		if p.HasAttachment != nil {
			if *p.HasAttachment {
				conditions = append(conditions, "a.id IS NOT NULL")
			} else {
				conditions = append(conditions, "a.id IS NULL")
			}
		}
		if p.AttachmentType != "" {
			ext := args.add(p.AttachmentType)
			media := args.add("%" + p.AttachmentType + "%")
			conditions = append(conditions, fmt.Sprintf("(a.extension ILIKE %s OR a.media_type ILIKE %s)", ext, media))
		}
		if p.MinAttachmentSize > 0 {
			having = append(having, fmt.Sprintf("SUM(a.size) >= %s", args.add(p.MinAttachmentSize)))
		}
		if p.MinAttachments > 0 {
			having = append(having, fmt.Sprintf("COUNT(a.id) >= %s", args.add(p.MinAttachments)))
		}
	}

	if p.Label != "" {
		joins = append(joins,
			"JOIN missive.conversation_labels cl ON m.conversation_id = cl.conversation_id",
			"JOIN missive.shared_labels sl ON cl.label_id = sl.id")
		conditions = append(conditions, fmt.Sprintf("sl.name ILIKE %s", args.add("%"+p.Label+"%")))
	}
	if p.Subject != "" {
		conditions = append(conditions, fmt.Sprintf("m.subject ILIKE %s", args.add("%"+p.Subject+"%")))
	}
	if p.FromEmail != "" {
		conditions = append(conditions, fmt.Sprintf("c.email = %s", args.add(p.FromEmail)))
	}
	if p.SearchText != "" {
		subj := args.add("%" + p.SearchText + "%")
		body := args.add("%" + p.SearchText + "%")
		conditions = append(conditions, fmt.Sprintf("(m.subject ILIKE %s OR m.body_plain_text ILIKE %s)", subj, body))
	}

	where := "TRUE"
	if len(conditions) > 0 {
		where = strings.Join(conditions, " AND ")
	}
	havingClause := ""
	if len(having) > 0 {
		havingClause = " HAVING " + strings.Join(having, " AND ")
	}

	query := fmt.Sprintf(
		"SELECT %s %s WHERE %s GROUP BY m.id, m.subject, m.preview, m.delivered_at, c.name%s ORDER BY m.delivered_at DESC LIMIT %s",
		strings.Join(selectCols, ", "),
		strings.Join(joins, " "),
		where,
		havingClause,
		args.add(clampLimit(p.Limit)))
	return query, args
}

// buildTaskSearchSQL assembles the task search statement
func buildTaskSearchSQL(p TaskSearch) (string, []any) {
	var args argList
	joins := []string{
		"FROM teamwork.tasks t",
		"LEFT JOIN teamwork.projects p ON t.project_id = p.id",
		"LEFT JOIN teamwork.task_assignees ta ON t.id = ta.task_id",
		"LEFT JOIN teamwork.users u ON ta.user_id = u.id",
	}
	var conditions []string

	if p.ProjectName != "" {
		conditions = append(conditions, fmt.Sprintf("p.name ILIKE %s", args.add("%"+p.ProjectName+"%")))
	}
	if p.Status != "" {
		conditions = append(conditions, fmt.Sprintf("t.status = %s", args.add(p.Status)))
	}
	if p.AssigneeEmail != "" {
		conditions = append(conditions, fmt.Sprintf("u.email = %s", args.add(p.AssigneeEmail)))
	}
	if p.SearchText != "" {
		name := args.add("%" + p.SearchText + "%")
		desc := args.add("%" + p.SearchText + "%")
		conditions = append(conditions, fmt.Sprintf("(t.name ILIKE %s OR t.description ILIKE %s)", name, desc))
	}
	if p.Tag != "" {
		joins = append(joins,
			"JOIN teamwork.task_tags tt ON t.id = tt.task_id",
			"JOIN teamwork.tags tg ON tt.tag_id = tg.id")
		conditions = append(conditions, fmt.Sprintf("tg.name ILIKE %s", args.add("%"+p.Tag+"%")))
	}
	if p.OverdueOnly {
		conditions = append(conditions, "t.due_date < NOW()", "t.status != 'completed'")
	}

	where := "TRUE"
	if len(conditions) > 0 {
		where = strings.Join(conditions, " AND ")
	}

	query := fmt.Sprintf(
		"SELECT DISTINCT t.id, t.name AS task_name, t.description, t.status, t.priority, t.due_date, t.created_at, p.name AS project_name, u.email AS assignee_email %s WHERE %s ORDER BY t.created_at DESC LIMIT %s",
		strings.Join(joins, " "),
		where,
		args.add(clampLimit(p.Limit)))
	return query, args
}
