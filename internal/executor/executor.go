// Package executor runs generated SQL against the target relational store.
// Execution failures never propagate as panics or wrapped-away diagnostics:
// the driver's literal error text is what the repair loop feeds back to the
// model, so it is preserved as-is.
package executor

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/marcboeker/go-duckdb/v2"
	_ "github.com/mattn/go-sqlite3"
)

// Table is a fully materialized query result. Rows is non-nil even when
// empty; a zero-row Table is a valid answer, not an error.
type Table struct {
	Columns []string `json:"columns"`
	Rows    [][]any  `json:"rows"`
}

func (t Table) Empty() bool {
	return len(t.Rows) == 0
}

type Executor interface {
	Execute(ctx context.Context, sqlText string) (Table, error)
}

// DB executes against any database/sql driver. Supported driver names are
// sqlite3 (default), duckdb, and pgx.
type DB struct {
	db *sql.DB
}

func Open(driver, dsn string) (*DB, error) {
	handle, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s database: %w", driver, err)
	}
	return &DB{db: handle}, nil
}

// NewDB wraps an existing handle; used by tests and the ingest tooling.
func NewDB(handle *sql.DB) *DB {
	return &DB{db: handle}
}

func (e *DB) Close() error {
	return e.db.Close()
}

func (e *DB) Ping(ctx context.Context) error {
	return e.db.PingContext(ctx)
}

func (e *DB) Execute(ctx context.Context, sqlText string) (Table, error) {
	trimmed := stripTrailingSemicolons(sqlText)
	if trimmed == "" {
		return Table{}, fmt.Errorf("sql is required")
	}

	rows, err := e.db.QueryContext(ctx, trimmed)
	if err != nil {
		return Table{}, err
	}
	defer func() { _ = rows.Close() }()

	columns, err := rows.Columns()
	if err != nil {
		return Table{}, err
	}

	resultRows := make([][]any, 0)
	for rows.Next() {
		values := make([]any, len(columns))
		scanTargets := make([]any, len(columns))
		for i := range values {
			scanTargets[i] = &values[i]
		}
		if err := rows.Scan(scanTargets...); err != nil {
			return Table{}, err
		}
		resultRows = append(resultRows, normalizeValues(values))
	}
	if err := rows.Err(); err != nil {
		return Table{}, err
	}

	return Table{Columns: columns, Rows: resultRows}, nil
}

func normalizeValues(values []any) []any {
	normalized := make([]any, len(values))
	for i, value := range values {
		switch typed := value.(type) {
		case []byte:
			normalized[i] = string(typed)
		default:
			normalized[i] = typed
		}
	}
	return normalized
}

func stripTrailingSemicolons(sqlText string) string {
	trimmed := strings.TrimSpace(sqlText)
	for strings.HasSuffix(trimmed, ";") {
		trimmed = strings.TrimSpace(strings.TrimSuffix(trimmed, ";"))
	}
	return trimmed
}
