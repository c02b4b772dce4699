package ledger

import (
	"database/sql"
	"fmt"
)

// All contains the ordered list of migrations to apply.
var All = []string{
	`CREATE TABLE conversions (
		id           INTEGER PRIMARY KEY,
		source_path  TEXT UNIQUE NOT NULL,
		source_hash  TEXT NOT NULL,
		output_path  TEXT NOT NULL DEFAULT '',
		class_name   TEXT NOT NULL DEFAULT '',
		status       TEXT NOT NULL,
		tests        INTEGER NOT NULL DEFAULT 0,
		leaks        INTEGER NOT NULL DEFAULT 0,
		error        TEXT NOT NULL DEFAULT '',
		converted_at DATETIME NOT NULL DEFAULT (datetime('now'))
	)`,
	`CREATE TABLE markers (
		id            INTEGER PRIMARY KEY,
		conversion_id INTEGER NOT NULL REFERENCES conversions(id) ON DELETE CASCADE,
		line          INTEGER NOT NULL,
		method        TEXT NOT NULL DEFAULT '',
		message       TEXT NOT NULL
	)`,
	`CREATE INDEX markers_conversion ON markers(conversion_id)`,
}

// Migrate brings the database schema up to date. Applied migrations are
// counted in the schema_version table; each pending one runs in its own
// transaction.
func Migrate(db *sql.DB) error {
	_, err := db.Exec(`CREATE TABLE IF NOT EXISTS schema_version (version INTEGER NOT NULL)`)
	if err != nil {
		return fmt.Errorf("creating schema_version table: %w", err)
	}

	var count int
	if err := db.QueryRow(`SELECT COUNT(*) FROM schema_version`).Scan(&count); err != nil {
		return fmt.Errorf("checking schema_version: %w", err)
	}
	if count == 0 {
		if _, err := db.Exec(`INSERT INTO schema_version (version) VALUES (0)`); err != nil {
			return fmt.Errorf("initializing schema version: %w", err)
		}
	}

	var current int
	if err := db.QueryRow(`SELECT version FROM schema_version`).Scan(&current); err != nil {
		return fmt.Errorf("reading schema version: %w", err)
	}

	for i := current; i < len(All); i++ {
		tx, err := db.Begin()
		if err != nil {
			return fmt.Errorf("beginning migration %d: %w", i+1, err)
		}

		if _, err := tx.Exec(All[i]); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("migration %d failed: %w", i+1, err)
		}

		if _, err := tx.Exec(`UPDATE schema_version SET version = ?`, i+1); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("updating schema version to %d: %w", i+1, err)
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("committing migration %d: %w", i+1, err)
		}
	}

	return nil
}
