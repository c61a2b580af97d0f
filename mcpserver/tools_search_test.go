package mcpserver

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/isdmx/querybox/sqlguard"
)

func TestBuildEmailSearchSQL(t *testing.T) {
	t.Run("no filters", func(t *testing.T) {
		query, args := buildEmailSearchSQL(EmailSearch{})
		assert.Contains(t, query, "WHERE TRUE")
		assert.NotContains(t, query, "missive.attachments")
		require.Len(t, args, 1)
		assert.Equal(t, searchLimitDefault, args[0])
		assert.NoError(t, sqlguard.Validate(query))
	})

	t.Run("subject and sender", func(t *testing.T) {
		query, args := buildEmailSearchSQL(EmailSearch{
			Subject:   "invoice",
			FromEmail: "a@example.com",
			Limit:     10,
		})
		assert.Contains(t, query, "m.subject ILIKE $1")
		assert.Contains(t, query, "c.email = $2")
		assert.Contains(t, query, "LIMIT $3")
		assert.Equal(t, []any{"%invoice%", "a@example.com", 10}, args)
		assert.NoError(t, sqlguard.Validate(query))
	})

	t.Run("attachment filters add join and having", func(t *testing.T) {
		hasAtt := true
		query, args := buildEmailSearchSQL(EmailSearch{
			HasAttachment:     &hasAtt,
			MinAttachmentSize: 40000000,
			MinAttachments:    3,
			AttachmentType:    "pdf",
		})
		assert.Contains(t, query, "LEFT JOIN missive.attachments a")
		assert.Contains(t, query, "a.id IS NOT NULL")
		assert.Contains(t, query, "COUNT(a.id) AS attachment_count")
		assert.Contains(t, query, "HAVING")
		assert.Contains(t, args, "pdf")
		assert.Contains(t, args, 40000000)
		assert.Contains(t, args, 3)
		assert.NoError(t, sqlguard.Validate(query))
	})

	t.Run("no attachment", func(t *testing.T) {
		hasAtt := false
		query, _ := buildEmailSearchSQL(EmailSearch{HasAttachment: &hasAtt})
		assert.Contains(t, query, "a.id IS NULL")
	})

	t.Run("label joins label tables", func(t *testing.T) {
		query, args := buildEmailSearchSQL(EmailSearch{Label: "urgent"})
		assert.Contains(t, query, "missive.conversation_labels")
		assert.Contains(t, query, "missive.shared_labels")
		assert.Contains(t, args, "%urgent%")
	})

	t.Run("search text covers subject and body", func(t *testing.T) {
		query, args := buildEmailSearchSQL(EmailSearch{SearchText: "quarterly"})
		assert.Contains(t, query, "m.body_plain_text ILIKE")
		assert.Equal(t, []any{"%quarterly%", "%quarterly%", searchLimitDefault}, args)
	})

	t.Run("hostile input stays in args", func(t *testing.T) {
		query, args := buildEmailSearchSQL(EmailSearch{Subject: "'; DROP TABLE x --"})
		assert.NotContains(t, query, "DROP")
		assert.Contains(t, args, "%'; DROP TABLE x --%")
		assert.NoError(t, sqlguard.Validate(query))
	})

	t.Run("limit clamped", func(t *testing.T) {
		_, args := buildEmailSearchSQL(EmailSearch{Limit: 5000})
		assert.Equal(t, searchLimitMax, args[len(args)-1])
	})
}

func TestBuildTaskSearchSQL(t *testing.T) {
	t.Run("no filters", func(t *testing.T) {
		query, args := buildTaskSearchSQL(TaskSearch{})
		assert.True(t, strings.HasPrefix(query, "SELECT DISTINCT"))
		assert.Contains(t, query, "WHERE TRUE")
		require.Len(t, args, 1)
		assert.NoError(t, sqlguard.Validate(query))
	})

	t.Run("all filters", func(t *testing.T) {
		query, args := buildTaskSearchSQL(TaskSearch{
			ProjectName:   "alpha",
			Status:        "new",
			AssigneeEmail: "b@example.com",
			SearchText:    "roof",
			Tag:           "site",
			OverdueOnly:   true,
			Limit:         25,
		})
		assert.Contains(t, query, "p.name ILIKE $1")
		assert.Contains(t, query, "t.status = $2")
		assert.Contains(t, query, "u.email = $3")
		assert.Contains(t, query, "teamwork.task_tags")
		assert.Contains(t, query, "t.due_date < NOW()")
		assert.Contains(t, query, "t.status != 'completed'")
		assert.Equal(t, []any{"%alpha%", "new", "b@example.com", "%roof%", "%roof%", "%site%", 25}, args)
		assert.NoError(t, sqlguard.Validate(query))
	})
}

func TestClampLimit(t *testing.T) {
	assert.Equal(t, searchLimitDefault, clampLimit(0))
	assert.Equal(t, searchLimitDefault, clampLimit(-5))
	assert.Equal(t, 25, clampLimit(25))
	assert.Equal(t, searchLimitMax, clampLimit(10000))
}
