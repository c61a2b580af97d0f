package database

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/isdmx/querybox/faults"
)

func TestValidIdent(t *testing.T) {
	assert.True(t, ValidIdent("projects"))
	assert.True(t, ValidIdent("task_lists"))
	assert.True(t, ValidIdent("_private"))
	assert.False(t, ValidIdent(""))
	assert.False(t, ValidIdent("1table"))
	assert.False(t, ValidIdent("projects; DROP"))
	assert.False(t, ValidIdent("pro-jects"))
}

func TestSchemaAllowed(t *testing.T) {
	exec := testExecutor(t, &fakeQuerier{}, 100)
	assert.True(t, exec.SchemaAllowed("public"))
	assert.True(t, exec.SchemaAllowed("teamwork"))
	assert.False(t, exec.SchemaAllowed("pg_catalog"))
}

func TestDescribeSchemaRejectsUnknownSchema(t *testing.T) {
	db := &fakeQuerier{}
	exec := testExecutor(t, db, 100)

	_, err := exec.DescribeSchema(context.Background(), "pg_catalog", "")
	require.Error(t, err)
	assert.Equal(t, faults.ExecutionError, faults.KindOf(err))
	assert.Contains(t, err.Error(), "valid schemas")
	assert.Empty(t, db.statements)
}

func TestDescribeSchemaRejectsBadTableName(t *testing.T) {
	db := &fakeQuerier{}
	exec := testExecutor(t, db, 100)

	_, err := exec.DescribeSchema(context.Background(), "", "tasks; DROP TABLE x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid table name")
	assert.Empty(t, db.statements)
}

func TestDescribeSchemaRendersTables(t *testing.T) {
	columnRows := &fakeRows{
		columns: []string{"table_schema", "table_name", "column_name", "data_type", "udt_name", "max_len"},
		data: [][]any{
			{"public", "projects", "id", "integer", "int4", 0},
			{"public", "projects", "name", "character varying", "varchar", 120},
			{"public", "tasks", "id", "integer", "int4", 0},
			{"public", "tasks", "project_id", "integer", "int4", 0},
			{"teamwork", "people", "id", "uuid", "uuid", 0},
		},
	}
	keyRows := &fakeRows{
		columns: []string{"table_schema", "table_name", "column_name", "constraint_type", "ref_table", "ref_column"},
		data: [][]any{
			{"public", "projects", "id", "PRIMARY KEY", "", ""},
			{"public", "tasks", "id", "PRIMARY KEY", "", ""},
			{"public", "tasks", "project_id", "FOREIGN KEY", "projects", "id"},
		},
	}
	db := &fakeQuerier{results: []*fakeRows{columnRows, keyRows}}
	exec := testExecutor(t, db, 100)

	info, err := exec.DescribeSchema(context.Background(), "", "")
	require.NoError(t, err)
	assert.Equal(t, 3, info.Tables)
	assert.Equal(t, 5, info.Columns)
	assert.Contains(t, info.Text, "# public")
	assert.Contains(t, info.Text, "# teamwork")
	assert.Contains(t, info.Text, "**projects**: id int pk, name varchar(120)")
	assert.Contains(t, info.Text, "**tasks**: id int pk, project_id int (→projects.id)")
	assert.Contains(t, info.Text, "**people**: id uuid")

	require.Len(t, db.args, 2)
	assert.Equal(t, []string{"public", "teamwork", "missive"}, db.args[0][0])
}

func TestDescribeSchemaPassesFilters(t *testing.T) {
	db := &fakeQuerier{results: []*fakeRows{
		{columns: []string{"s", "t", "c", "dt", "u", "l"}},
		{columns: []string{"s", "t", "c", "k", "rt", "rc"}},
	}}
	exec := testExecutor(t, db, 100)

	_, err := exec.DescribeSchema(context.Background(), "teamwork", "tasks")
	require.NoError(t, err)
	require.Len(t, db.args, 2)
	assert.Equal(t, "teamwork", db.args[0][1])
	assert.Equal(t, "tasks", db.args[0][2])
}

func TestAbbrevType(t *testing.T) {
	tests := []struct {
		dataType string
		udtName  string
		want     string
	}{
		{"integer", "int4", "int"},
		{"timestamp with time zone", "timestamptz", "tstz"},
		{"character varying", "varchar", "varchar"},
		{"ARRAY", "_text", "text[]"},
		{"USER-DEFINED", "task_status", "task_status"},
		{"interval", "interval", "interval"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, abbrevType(tt.dataType, tt.udtName), tt.dataType)
	}
}
