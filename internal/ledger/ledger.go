// Package ledger records conversion outcomes in a SQLite database so
// that repeated runs can skip unchanged files and report progress.
package ledger

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/unbound-force/pest2phpunit/internal/convert"
)

// Status is the outcome of the last conversion of a file.
type Status string

const (
	// StatusClean means the file converted without markers or leaks.
	StatusClean Status = "clean"

	// StatusReview means the output needs manual follow-up.
	StatusReview Status = "review"

	// StatusSkipped means the file holds no Pest constructs.
	StatusSkipped Status = "skipped"

	// StatusFailed means the file could not be parsed or written.
	StatusFailed Status = "failed"
)

// Entry is one file's row in the ledger.
type Entry struct {
	SourcePath  string    `json:"source_path"`
	SourceHash  string    `json:"source_hash"`
	OutputPath  string    `json:"output_path,omitempty"`
	Class       string    `json:"class,omitempty"`
	Status      Status    `json:"status"`
	Tests       int       `json:"tests"`
	Markers     int       `json:"markers"`
	Leaks       int       `json:"leaks"`
	Error       string    `json:"error,omitempty"`
	ConvertedAt time.Time `json:"converted_at"`
}

// Ledger is an open conversion ledger.
type Ledger struct {
	db *sql.DB
}

// Open opens or creates the ledger at path and migrates it.
func Open(path string) (*Ledger, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening ledger %s: %w", path, err)
	}
	// One connection keeps writes serialized.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(`PRAGMA foreign_keys = ON`); err != nil {
		db.Close()
		return nil, fmt.Errorf("opening ledger %s: %w", path, err)
	}
	if err := Migrate(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrating ledger %s: %w", path, err)
	}
	return &Ledger{db: db}, nil
}

// Close closes the database.
func (l *Ledger) Close() error {
	return l.db.Close()
}

// Hash fingerprints a source file.
func Hash(src []byte) string {
	sum := sha256.Sum256(src)
	return hex.EncodeToString(sum[:])
}

// StatusOf classifies a conversion result.
func StatusOf(res *convert.Result) Status {
	switch {
	case !res.Converted:
		return StatusSkipped
	case res.Clean():
		return StatusClean
	}
	return StatusReview
}

// Record stores the outcome of converting the file at sourcePath,
// replacing any earlier entry and its markers.
func (l *Ledger) Record(ctx context.Context, sourcePath, hash, outputPath string, res *convert.Result) error {
	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("recording %s: %w", sourcePath, err)
	}
	defer func() { _ = tx.Rollback() }()

	var id int64
	err = tx.QueryRowContext(ctx, `
		INSERT INTO conversions (source_path, source_hash, output_path, class_name, status, tests, leaks, error, converted_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, '', datetime('now'))
		ON CONFLICT(source_path) DO UPDATE SET
			source_hash = excluded.source_hash,
			output_path = excluded.output_path,
			class_name = excluded.class_name,
			status = excluded.status,
			tests = excluded.tests,
			leaks = excluded.leaks,
			error = '',
			converted_at = excluded.converted_at
		RETURNING id`,
		sourcePath, hash, outputPath, res.Class, string(StatusOf(res)), len(res.Tests), len(res.Leaks),
	).Scan(&id)
	if err != nil {
		return fmt.Errorf("recording %s: %w", sourcePath, err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM markers WHERE conversion_id = ?`, id); err != nil {
		return fmt.Errorf("recording %s: %w", sourcePath, err)
	}
	for _, m := range res.Markers {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO markers (conversion_id, line, method, message) VALUES (?, ?, ?, ?)`,
			id, m.Line, m.Method, m.Message); err != nil {
			return fmt.Errorf("recording %s: %w", sourcePath, err)
		}
	}
	return tx.Commit()
}

// RecordFailure stores a failed conversion. Failed files are never
// considered unchanged.
func (l *Ledger) RecordFailure(ctx context.Context, sourcePath string, cause error) error {
	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("recording %s: %w", sourcePath, err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `
		DELETE FROM markers WHERE conversion_id IN (SELECT id FROM conversions WHERE source_path = ?)`,
		sourcePath); err != nil {
		return fmt.Errorf("recording %s: %w", sourcePath, err)
	}
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO conversions (source_path, source_hash, status, error, converted_at)
		VALUES (?, '', ?, ?, datetime('now'))
		ON CONFLICT(source_path) DO UPDATE SET
			source_hash = '',
			output_path = '',
			class_name = '',
			status = excluded.status,
			tests = 0,
			leaks = 0,
			error = excluded.error,
			converted_at = excluded.converted_at`,
		sourcePath, string(StatusFailed), cause.Error()); err != nil {
		return fmt.Errorf("recording %s: %w", sourcePath, err)
	}
	return tx.Commit()
}

// Unchanged reports whether sourcePath was last converted from content
// with the given hash.
func (l *Ledger) Unchanged(ctx context.Context, sourcePath, hash string) (bool, error) {
	var stored string
	err := l.db.QueryRowContext(ctx,
		`SELECT source_hash FROM conversions WHERE source_path = ? AND status != ?`,
		sourcePath, string(StatusFailed)).Scan(&stored)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("looking up %s: %w", sourcePath, err)
	}
	return stored == hash, nil
}

const selectEntries = `
	SELECT c.source_path, c.source_hash, c.output_path, c.class_name, c.status,
	       c.tests, (SELECT COUNT(*) FROM markers m WHERE m.conversion_id = c.id),
	       c.leaks, c.error, c.converted_at
	FROM conversions c`

// Entries returns every entry, ordered by source path.
func (l *Ledger) Entries(ctx context.Context) ([]Entry, error) {
	rows, err := l.db.QueryContext(ctx, selectEntries+` ORDER BY c.source_path`)
	if err != nil {
		return nil, fmt.Errorf("listing ledger: %w", err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// Lookup returns the entry for sourcePath.
func (l *Ledger) Lookup(ctx context.Context, sourcePath string) (Entry, bool, error) {
	row := l.db.QueryRowContext(ctx, selectEntries+` WHERE c.source_path = ?`, sourcePath)
	e, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Entry{}, false, nil
	}
	if err != nil {
		return Entry{}, false, err
	}
	return e, true, nil
}

// Markers returns the markers recorded for sourcePath in line order.
func (l *Ledger) Markers(ctx context.Context, sourcePath string) ([]convert.Marker, error) {
	rows, err := l.db.QueryContext(ctx, `
		SELECT m.line, m.method, m.message
		FROM markers m JOIN conversions c ON c.id = m.conversion_id
		WHERE c.source_path = ?
		ORDER BY m.line, m.id`, sourcePath)
	if err != nil {
		return nil, fmt.Errorf("listing markers of %s: %w", sourcePath, err)
	}
	defer rows.Close()

	var out []convert.Marker
	for rows.Next() {
		var m convert.Marker
		if err := rows.Scan(&m.Line, &m.Method, &m.Message); err != nil {
			return nil, fmt.Errorf("listing markers of %s: %w", sourcePath, err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(s scanner) (Entry, error) {
	var e Entry
	var status string
	if err := s.Scan(&e.SourcePath, &e.SourceHash, &e.OutputPath, &e.Class, &status,
		&e.Tests, &e.Markers, &e.Leaks, &e.Error, &e.ConvertedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Entry{}, err
		}
		return Entry{}, fmt.Errorf("reading ledger entry: %w", err)
	}
	e.Status = Status(status)
	return e, nil
}
