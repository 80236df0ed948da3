// Package storage owns the SQLite database shared by the governance tables.
//
// A single file carries the three append-only chain tables (audit_event,
// config_snapshot, risk_event) and the two mutable tables (policy_rule,
// breach_log). Any durable keyed store would do; SQLite keeps the whole
// governance record in one portable file.
package storage

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

// Open opens (creating if necessary) the governance database at path and
// ensures the schema exists.
func Open(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	if _, err := db.Exec(Schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	return db, nil
}
