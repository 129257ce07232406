package executor

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	_ "github.com/mattn/go-sqlite3"
)

func TestExecutePreservesDriverErrorText(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	defer func() { _ = db.Close() }()

	driverErr := errors.New("no such column: patients.AGE")
	mock.ExpectQuery("SELECT").WillReturnError(driverErr)

	_, execErr := NewDB(db).Execute(context.Background(), "SELECT AGE FROM patients;")
	if execErr == nil {
		t.Fatal("Execute() expected error")
	}
	if execErr.Error() != driverErr.Error() {
		t.Fatalf("Execute() error = %q, want the driver text %q verbatim", execErr, driverErr)
	}
}

func TestExecuteReturnsEmptyNonNilTable(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	defer func() { _ = db.Close() }()

	mock.ExpectQuery("SELECT").WillReturnRows(sqlmock.NewRows([]string{"FIRST", "LAST"}))

	table, execErr := NewDB(db).Execute(context.Background(), "SELECT FIRST, LAST FROM patients WHERE 1=0")
	if execErr != nil {
		t.Fatalf("Execute() error = %v", execErr)
	}
	if !table.Empty() {
		t.Fatalf("table.Empty() = false, rows = %v", table.Rows)
	}
	if table.Rows == nil {
		t.Fatal("table.Rows is nil, want empty slice")
	}
	if len(table.Columns) != 2 {
		t.Fatalf("Columns = %v", table.Columns)
	}
}

func TestExecuteRejectsBlankSQL(t *testing.T) {
	db, _, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	defer func() { _ = db.Close() }()

	if _, execErr := NewDB(db).Execute(context.Background(), " ;; "); execErr == nil {
		t.Fatal("Execute() expected error for blank sql")
	}
}

func TestExecuteAgainstSQLite(t *testing.T) {
	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	defer func() { _ = db.Close() }()

	if _, err := db.Exec("CREATE TABLE patients (Id TEXT, FIRST TEXT)"); err != nil {
		t.Fatalf("create table: %v", err)
	}
	if _, err := db.Exec("INSERT INTO patients VALUES ('p1', 'Alice'), ('p2', 'Bob')"); err != nil {
		t.Fatalf("insert: %v", err)
	}

	table, execErr := NewDB(db).Execute(context.Background(), "SELECT FIRST FROM patients ORDER BY FIRST;")
	if execErr != nil {
		t.Fatalf("Execute() error = %v", execErr)
	}
	if len(table.Rows) != 2 {
		t.Fatalf("rows = %d, want 2", len(table.Rows))
	}
	first, ok := table.Rows[0][0].(string)
	if !ok || first != "Alice" {
		t.Fatalf("rows[0][0] = %#v, want normalized string Alice", table.Rows[0][0])
	}

	_, execErr = NewDB(db).Execute(context.Background(), "SELECT missing_col FROM patients")
	if execErr == nil {
		t.Fatal("Execute() expected error for missing column")
	}
	if !strings.Contains(execErr.Error(), "missing_col") {
		t.Fatalf("error %q does not name the missing column", execErr)
	}
}
