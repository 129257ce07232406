// Package demo seeds a small synthetic patient database. The demo binary
// uses it to produce a target database and the integration tests use it as
// a known fixture.
package demo

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

var tableDDL = []string{
	`CREATE TABLE IF NOT EXISTS patients (
		Id TEXT PRIMARY KEY,
		FIRST TEXT,
		LAST TEXT,
		BIRTHDATE TEXT,
		ETHNICITY TEXT
	)`,
	`CREATE TABLE IF NOT EXISTS conditions (
		Id TEXT PRIMARY KEY,
		PATIENT TEXT,
		DESCRIPTION TEXT,
		START TEXT,
		STOP TEXT,
		FOREIGN KEY(PATIENT) REFERENCES patients(Id)
	)`,
	`CREATE TABLE IF NOT EXISTS medications (
		Id TEXT PRIMARY KEY,
		PATIENT TEXT,
		DESCRIPTION TEXT,
		BASE_COST REAL,
		PAYER_COVERAGE REAL,
		FOREIGN KEY(PATIENT) REFERENCES patients(Id)
	)`,
	`CREATE TABLE IF NOT EXISTS careplans (
		Id TEXT PRIMARY KEY,
		PATIENT TEXT,
		DESCRIPTION TEXT,
		START TEXT,
		STOP TEXT,
		FOREIGN KEY(PATIENT) REFERENCES patients(Id)
	)`,
	`CREATE TABLE IF NOT EXISTS allergies (
		Id TEXT PRIMARY KEY,
		PATIENT TEXT,
		DESCRIPTION TEXT,
		START TEXT,
		STOP TEXT,
		FOREIGN KEY(PATIENT) REFERENCES patients(Id)
	)`,
	`CREATE TABLE IF NOT EXISTS devices (
		Id TEXT PRIMARY KEY,
		PATIENT TEXT,
		DESCRIPTION TEXT,
		START TEXT,
		STOP TEXT,
		FOREIGN KEY(PATIENT) REFERENCES patients(Id)
	)`,
	`CREATE TABLE IF NOT EXISTS immunizations (
		Id TEXT PRIMARY KEY,
		PATIENT TEXT,
		DESCRIPTION TEXT,
		START TEXT,
		FOREIGN KEY(PATIENT) REFERENCES patients(Id)
	)`,
}

type seed struct {
	insert string
	rows   [][]any
}

var seeds = []seed{
	{
		insert: "INSERT OR IGNORE INTO patients VALUES (?,?,?,?,?)",
		rows: [][]any{
			{"p1", "Alice", "Smith", "1985-06-12", "Hispanic"},
			{"p2", "Bob", "Jones", "1972-11-03", "White"},
			{"p3", "Charlie", "Nguyen", "2008-02-20", "Asian"},
		},
	},
	{
		insert: "INSERT OR IGNORE INTO conditions VALUES (?,?,?,?,?)",
		rows: [][]any{
			{"c1", "p1", "asthma", "2010-05-01", nil},
			{"c2", "p2", "hypertension", "2015-08-15", nil},
			{"c3", "p3", "flu", "2023-01-10", "2023-01-20"},
			{"c4", "p1", "diabetes", "2019-03-01", nil},
		},
	},
	{
		insert: "INSERT OR IGNORE INTO medications VALUES (?,?,?,?,?)",
		rows: [][]any{
			{"m1", "p1", "albuterol", 25.0, 20.0},
			{"m2", "p2", "lisinopril", 15.0, 10.0},
		},
	},
	{
		insert: "INSERT OR IGNORE INTO careplans VALUES (?,?,?,?,?)",
		rows: [][]any{
			{"cp1", "p1", "Asthma management plan", "2022-01-01", "2023-01-01"},
		},
	},
	{
		insert: "INSERT OR IGNORE INTO allergies VALUES (?,?,?,?,?)",
		rows: [][]any{
			{"a1", "p2", "Penicillin", "2000-01-01", nil},
		},
	},
	{
		insert: "INSERT OR IGNORE INTO devices VALUES (?,?,?,?,?)",
		rows: [][]any{
			{"d1", "p3", "Glucose monitor", "2021-06-01", nil},
		},
	},
	{
		insert: "INSERT OR IGNORE INTO immunizations VALUES (?,?,?,?)",
		rows: [][]any{
			{"i1", "p3", "flu vaccine", "2023-10-10"},
		},
	},
}

// Seed creates the sample tables and inserts the sample rows. Safe to run
// against an already seeded database.
func Seed(ctx context.Context, db *sql.DB) error {
	for _, ddl := range tableDDL {
		if _, err := db.ExecContext(ctx, ddl); err != nil {
			return fmt.Errorf("create sample table: %w", err)
		}
	}
	for _, s := range seeds {
		for _, row := range s.rows {
			if _, err := db.ExecContext(ctx, s.insert, row...); err != nil {
				return fmt.Errorf("seed sample row: %w", err)
			}
		}
	}
	return nil
}

// Open opens (or creates) a sample database at path and seeds it.
func Open(ctx context.Context, path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open sample database: %w", err)
	}
	if err := Seed(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}
