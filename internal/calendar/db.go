// Package calendar keeps each user's calendar events in a local SQLite file.
// Events never reach the persistence gateway.
package calendar

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// DB is the on-device event database shared by every user's Store.
type DB struct {
	sql *sql.DB
}

// Open opens or creates the SQLite file at path and applies the schema.
func Open(path string) (*DB, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create calendar dir: %w", err)
		}
	}
	conn, err := sql.Open("sqlite", path+"?_pragma=journal_mode(wal)&_pragma=foreign_keys(on)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open calendar db: %w", err)
	}
	conn.SetMaxOpenConns(1)

	db := &DB{sql: conn}
	if err := db.migrate(context.Background()); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("migrate calendar db: %w", err)
	}
	return db, nil
}

func (db *DB) Close() error {
	return db.sql.Close()
}

func (db *DB) migrate(ctx context.Context) error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS calendar_events (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			application_id TEXT,
			company_name TEXT NOT NULL,
			title TEXT NOT NULL,
			type TEXT NOT NULL,
			date TEXT NOT NULL,
			time TEXT,
			notes TEXT,
			completed INTEGER NOT NULL DEFAULT 0,
			position INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_calendar_events_user ON calendar_events(user_id, position)`,
	}
	for _, m := range migrations {
		if _, err := db.sql.ExecContext(ctx, m); err != nil {
			return fmt.Errorf("exec migration: %w", err)
		}
	}
	return nil
}

// isConstraint reports whether err is a SQLite constraint violation,
// whatever the extended code.
func isConstraint(err error) bool {
	var se *sqlite.Error
	return errors.As(err, &se) && se.Code()&0xff == sqlite3.SQLITE_CONSTRAINT
}
