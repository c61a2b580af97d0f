package database

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/isdmx/querybox/config"
	"github.com/isdmx/querybox/faults"
	"github.com/isdmx/querybox/sqlguard"
)

// Querier is the query surface of pgxpool.Pool needed by the executor.
type Querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// QueryResult is an ordered result set. Every row has one typed scalar per
// column, in column order. MoreRows reports that the underlying result had
// rows beyond the cap.
type QueryResult struct {
	Columns  []string
	Rows     [][]any
	MoreRows bool
	Elapsed  time.Duration
}

// Executor runs validated read-only statements under resource limits.
type Executor struct {
	db      Querier
	timeout time.Duration
	rowCap  int
	schemas []string
	logger  *zap.Logger
}

// NewExecutor creates an Executor backed by the shared pool.
func NewExecutor(pool *pgxpool.Pool, cfg *config.Config, logger *zap.Logger) *Executor {
	return newExecutor(pool, cfg.StatementTimeout(), cfg.Database.RowCap, cfg.Database.Schemas, logger)
}

func newExecutor(db Querier, timeout time.Duration, rowCap int, schemas []string, logger *zap.Logger) *Executor {
	return &Executor{db: db, timeout: timeout, rowCap: rowCap, schemas: schemas, logger: logger}
}

// RowCap returns the configured row limit.
func (e *Executor) RowCap() int { return e.rowCap }

// Schemas returns the configured schema allowlist.
func (e *Executor) Schemas() []string { return e.schemas }

// Execute validates statement and runs it with the configured timeout and
// row cap. A statement rejected by sqlguard never touches a connection.
func (e *Executor) Execute(ctx context.Context, statement string, args ...any) (*QueryResult, error) {
	if err := sqlguard.Validate(statement); err != nil {
		e.logger.Warn("statement rejected", zap.String("reason", err.Error()))
		return nil, err
	}
	return e.run(ctx, statement, args...)
}

// ExecuteCapped behaves like Execute with a tighter row cap for callers
// that want fewer rows than the configured maximum.
func (e *Executor) ExecuteCapped(ctx context.Context, rowCap int, statement string, args ...any) (*QueryResult, error) {
	if rowCap <= 0 || rowCap > e.rowCap {
		rowCap = e.rowCap
	}
	capped := *e
	capped.rowCap = rowCap
	return capped.Execute(ctx, statement, args...)
}

func (e *Executor) run(ctx context.Context, statement string, args ...any) (*QueryResult, error) {
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	start := time.Now()
	rows, err := e.db.Query(ctx, statement, args...)
	if err != nil {
		return nil, e.dbError(ctx, err)
	}
	defer rows.Close()

	flds := rows.FieldDescriptions()
	columns := make([]string, len(flds))
	for i, f := range flds {
		columns[i] = f.Name
	}

	result := &QueryResult{Columns: columns}
	for rows.Next() {
		if len(result.Rows) == e.rowCap {
			result.MoreRows = true
			break
		}
		vals, valErr := rows.Values()
		if valErr != nil {
			return nil, e.dbError(ctx, valErr)
		}
		result.Rows = append(result.Rows, normalizeRow(vals))
	}
	// rows.Err is meaningless once iteration was abandoned at the cap.
	if !result.MoreRows {
		if rowsErr := rows.Err(); rowsErr != nil {
			return nil, e.dbError(ctx, rowsErr)
		}
	}

	result.Elapsed = time.Since(start)
	e.logger.Info("query executed",
		zap.Int("rows", len(result.Rows)),
		zap.Bool("more_rows", result.MoreRows),
		zap.Duration("elapsed", result.Elapsed))
	return result, nil
}

// dbError converts a driver failure into a typed fault, preserving the
// underlying message and appending a usage hint where one is known.
func (e *Executor) dbError(ctx context.Context, err error) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) || errors.Is(err, context.DeadlineExceeded) {
		return faults.Wrap(faults.ExecutionError,
			fmt.Sprintf("query timeout (%s limit); add more specific WHERE conditions or LIMIT", e.timeout), err)
	}
	e.logger.Error("query failed", zap.Error(err))
	return faults.Wrap(faults.ExecutionError, enhanceError(err.Error()), err)
}

// Hints appended to database error messages, keyed by a substring of the
// driver message.
var errorHints = []struct{ needle, hint string }{
	{"relation", "Table not found. Use get_schema to see available tables."},
	{"column", "Column not found. Use get_schema to see table columns."},
	{"permission denied", "Permission denied. This is a read-only connection."},
	{"syntax error", "SQL syntax error. Check your query syntax."},
	{"canceling statement", "Query timeout. Add more specific WHERE conditions or LIMIT."},
}

func enhanceError(msg string) string {
	lower := strings.ToLower(msg)
	for _, h := range errorHints {
		if strings.Contains(lower, h.needle) {
			return msg + " (hint: " + h.hint + ")"
		}
	}
	return msg
}

// normalizeRow converts driver values into the scalar set the compactor and
// JSON encoding understand.
func normalizeRow(vals []any) []any {
	out := make([]any, len(vals))
	for i, v := range vals {
		out[i] = normalizeValue(v)
	}
	return out
}

func normalizeValue(v any) any {
	switch x := v.(type) {
	case []byte:
		if len(x) == 16 {
			return uuidString(x)
		}
		return fmt.Sprintf("<%d bytes>", len(x))
	case [16]byte:
		return uuidString(x[:])
	case time.Time:
		return x
	default:
		return v
	}
}

func uuidString(b []byte) string {
	return fmt.Sprintf("%02x%02x%02x%02x-%02x%02x-%02x%02x-%02x%02x-%02x%02x%02x%02x%02x%02x",
		b[0], b[1], b[2], b[3], b[4], b[5], b[6], b[7],
		b[8], b[9], b[10], b[11], b[12], b[13], b[14], b[15])
}
