package sqlguard

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/isdmx/querybox/faults"
)

func TestValidateAccepts(t *testing.T) {
	statements := []string{
		"SELECT id, name FROM projects",
		"select * from teamwork.tasks limit 10",
		"  SELECT 1  ",
		"SELECT 1;",
		"WITH recent AS (SELECT * FROM missive.messages) SELECT * FROM recent",
		"SELECT count(*) FROM files WHERE deleted_at IS NULL",
		"SELECT name, updated_at FROM tasks ORDER BY updated_at DESC",
		"SELECT 1 -- trailing comment",
		"/* leading comment */ SELECT 1",
		"SELECT * FROM items OFFSET 10",
	}
	for _, stmt := range statements {
		t.Run(stmt, func(t *testing.T) {
			assert.NoError(t, Validate(stmt))
		})
	}
}

func TestValidateRejects(t *testing.T) {
	tests := []struct {
		name   string
		stmt   string
		reason string
	}{
		{"Insert", "INSERT INTO t VALUES (1)", "INSERT"},
		{"Update", "UPDATE t SET x = 1", "UPDATE"},
		{"Delete", "DELETE FROM t", "DELETE"},
		{"Drop", "DROP TABLE projects", "DROP"},
		{"ChainedDrop", "DROP TABLE projects; SELECT 1", "DROP"},
		{"ChainedAfterSelect", "SELECT 1; DROP TABLE projects", "DROP"},
		{"ChainedSelects", "SELECT 1; SELECT 2", "chaining"},
		{"SubqueryMutation", "SELECT * FROM (INSERT INTO t VALUES (1) RETURNING *) x", "INSERT"},
		{"CTEMutation", "WITH d AS (DELETE FROM t RETURNING *) SELECT * FROM d", "DELETE"},
		{"CommentSplicedVerb", "SELECT * FROM t WHERE x = 1 UNION SELECT * FROM (DR/**/OP TABLE t) y", "DROP"},
		{"LiteralAmbiguity", "SELECT 'please DROP this'", "DROP"},
		{"Truncate", "TRUNCATE t", "TRUNCATE"},
		{"Grant", "GRANT ALL ON t TO public", "GRANT"},
		{"Copy", "COPY t TO '/tmp/out'", "COPY"},
		{"SelectInto", "SELECT * INTO backup FROM t", "INTO"},
		{"NotAQuery", "EXPLAIN ANALYZE SELECT 1", "only SELECT"},
		{"SetConfig", "SELECT set_config('x', 'y', false)", "set_config"},
		{"PgSleep", "SELECT pg_sleep(60)", "pg_sleep"},
		{"Empty", "   ", "empty"},
		{"OnlyComment", "-- nothing here", "empty"},
		{"UnterminatedComment", "SELECT 1 /* hidden", "unterminated"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.stmt)
			require.Error(t, err)
			assert.Equal(t, faults.ValidationRejected, faults.KindOf(err))
			assert.Contains(t, err.Error(), tt.reason)
		})
	}
}

func TestStripComments(t *testing.T) {
	t.Run("LineComment", func(t *testing.T) {
		out, err := stripComments("SELECT 1 -- DROP TABLE t")
		require.NoError(t, err)
		assert.NotContains(t, out, "DROP")
	})

	t.Run("BlockComment", func(t *testing.T) {
		out, err := stripComments("SELECT /* DROP TABLE t */ 1")
		require.NoError(t, err)
		assert.NotContains(t, out, "DROP")
	})

	t.Run("Unterminated", func(t *testing.T) {
		_, err := stripComments("SELECT 1 /*")
		assert.Error(t, err)
	})
}
