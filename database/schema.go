package database

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/isdmx/querybox/faults"
)

// SchemaInfo is the compact rendering of part of the database schema.
type SchemaInfo struct {
	Text    string
	Tables  int
	Columns int
}

var identRe = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// ValidIdent reports whether s is safe to splice into a statement as a
// schema or table name.
func ValidIdent(s string) bool { return identRe.MatchString(s) }

// SchemaAllowed reports whether schema is on the configured allowlist.
func (e *Executor) SchemaAllowed(schema string) bool {
	for _, s := range e.schemas {
		if s == schema {
			return true
		}
	}
	return false
}

const columnsQuery = `
SELECT t.table_schema, t.table_name, c.column_name, c.data_type, c.udt_name,
       COALESCE(c.character_maximum_length, 0)
FROM information_schema.tables t
JOIN information_schema.columns c
  ON t.table_schema = c.table_schema AND t.table_name = c.table_name
WHERE t.table_schema = ANY($1)
  AND ($2 = '' OR t.table_schema = $2)
  AND ($3 = '' OR t.table_name = $3)
  AND t.table_type IN ('BASE TABLE', 'VIEW')
ORDER BY t.table_schema, t.table_name, c.ordinal_position`

const keysQuery = `
SELECT tc.table_schema, tc.table_name, kcu.column_name, tc.constraint_type,
       COALESCE(ccu.table_name, ''), COALESCE(ccu.column_name, '')
FROM information_schema.table_constraints tc
JOIN information_schema.key_column_usage kcu
  ON tc.constraint_name = kcu.constraint_name AND tc.table_schema = kcu.table_schema
LEFT JOIN information_schema.constraint_column_usage ccu
  ON tc.constraint_name = ccu.constraint_name AND tc.constraint_type = 'FOREIGN KEY'
WHERE tc.table_schema = ANY($1)
  AND ($2 = '' OR tc.table_schema = $2)
  AND ($3 = '' OR tc.table_name = $3)
  AND tc.constraint_type IN ('PRIMARY KEY', 'FOREIGN KEY')
ORDER BY tc.table_schema, tc.table_name, kcu.ordinal_position`

type columnDef struct {
	schema, table, name, typ string
	pk                       bool
	fkRef                    string
}

// DescribeSchema renders the schema of the allowlisted namespaces, filtered
// down to one schema or one table when the filters are non-empty. Output is
// one line per table:
//
//	**tasks**: id int pk, project_id int (→projects.id), name text
func (e *Executor) DescribeSchema(ctx context.Context, schemaFilter, tableFilter string) (*SchemaInfo, error) {
	if schemaFilter != "" && !e.SchemaAllowed(schemaFilter) {
		return nil, faults.Newf(faults.ExecutionError,
			"unknown schema %q; valid schemas: %s", schemaFilter, strings.Join(e.schemas, ", "))
	}
	if tableFilter != "" && !ValidIdent(tableFilter) {
		return nil, faults.Newf(faults.ExecutionError,
			"invalid table name %q: only letters, digits, and underscores are allowed", tableFilter)
	}

	ctxQ, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	cols, err := e.fetchColumns(ctxQ, schemaFilter, tableFilter)
	if err != nil {
		return nil, err
	}
	if err := e.fetchKeys(ctxQ, schemaFilter, tableFilter, cols); err != nil {
		return nil, err
	}

	return renderSchema(cols), nil
}

func (e *Executor) fetchColumns(ctx context.Context, schemaFilter, tableFilter string) ([]*columnDef, error) {
	rows, err := e.db.Query(ctx, columnsQuery, e.schemas, schemaFilter, tableFilter)
	if err != nil {
		return nil, e.dbError(ctx, err)
	}
	defer rows.Close()

	var cols []*columnDef
	for rows.Next() {
		var c columnDef
		var dataType, udtName string
		var maxLen int
		if err := rows.Scan(&c.schema, &c.table, &c.name, &dataType, &udtName, &maxLen); err != nil {
			return nil, e.dbError(ctx, err)
		}
		c.typ = abbrevType(dataType, udtName)
		if maxLen > 0 {
			c.typ = fmt.Sprintf("%s(%d)", c.typ, maxLen)
		}
		cols = append(cols, &c)
	}
	if err := rows.Err(); err != nil {
		return nil, e.dbError(ctx, err)
	}
	return cols, nil
}

func (e *Executor) fetchKeys(ctx context.Context, schemaFilter, tableFilter string, cols []*columnDef) error {
	byName := make(map[string]*columnDef, len(cols))
	for _, c := range cols {
		byName[c.schema+"."+c.table+"."+c.name] = c
	}

	rows, err := e.db.Query(ctx, keysQuery, e.schemas, schemaFilter, tableFilter)
	if err != nil {
		return e.dbError(ctx, err)
	}
	defer rows.Close()

	for rows.Next() {
		var schema, table, column, kind, refTable, refColumn string
		if err := rows.Scan(&schema, &table, &column, &kind, &refTable, &refColumn); err != nil {
			return e.dbError(ctx, err)
		}
		c, ok := byName[schema+"."+table+"."+column]
		if !ok {
			continue
		}
		switch kind {
		case "PRIMARY KEY":
			c.pk = true
		case "FOREIGN KEY":
			if refTable != "" {
				c.fkRef = refTable + "." + refColumn
			}
		}
	}
	return rows.Err()
}

func renderSchema(cols []*columnDef) *SchemaInfo {
	var out []string
	var tableCols []string
	currentSchema, currentTable := "", ""
	tables := 0

	flush := func() {
		if currentTable != "" && len(tableCols) > 0 {
			out = append(out, fmt.Sprintf("**%s**: %s", currentTable, strings.Join(tableCols, ", ")))
			tables++
		}
		tableCols = nil
	}

	for _, c := range cols {
		if c.schema != currentSchema {
			flush()
			if currentSchema != "" {
				out = append(out, "")
			}
			out = append(out, "# "+c.schema, "")
			currentSchema, currentTable = c.schema, ""
		}
		if c.table != currentTable {
			flush()
			currentTable = c.table
		}
		col := c.name + " " + c.typ
		if c.pk {
			col += " pk"
		}
		if c.fkRef != "" {
			col += " (→" + c.fkRef + ")"
		}
		tableCols = append(tableCols, col)
	}
	flush()

	return &SchemaInfo{
		Text:    strings.Join(out, "\n"),
		Tables:  tables,
		Columns: len(cols),
	}
}

// typeAbbrev maps verbose PostgreSQL type names to short forms.
var typeAbbrev = map[string]string{
	"integer":                     "int",
	"bigint":                      "bigint",
	"smallint":                    "smallint",
	"numeric":                     "decimal",
	"real":                        "float",
	"double precision":            "double",
	"boolean":                     "bool",
	"character varying":           "varchar",
	"character":                   "char",
	"text":                        "text",
	"uuid":                        "uuid",
	"date":                        "date",
	"timestamp without time zone": "ts",
	"timestamp with time zone":    "tstz",
	"json":                        "json",
	"jsonb":                       "jsonb",
	"bytea":                       "bytes",
}

func abbrevType(pgType, udtName string) string {
	switch pgType {
	case "ARRAY":
		base := strings.TrimPrefix(udtName, "_")
		if short, ok := typeAbbrev[base]; ok {
			return short + "[]"
		}
		return base + "[]"
	case "USER-DEFINED":
		if udtName != "" {
			return udtName
		}
		return "enum"
	}
	if short, ok := typeAbbrev[pgType]; ok {
		return short
	}
	return pgType
}
