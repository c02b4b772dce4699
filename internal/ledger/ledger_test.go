package ledger

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unbound-force/pest2phpunit/internal/convert"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	db, err := sql.Open("sqlite", dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func openTestLedger(t *testing.T) *Ledger {
	t.Helper()
	l, err := Open(filepath.Join(t.TempDir(), "ledger.db"))
	require.NoError(t, err)
	t.Cleanup(func() { l.Close() })
	return l
}

func TestMigrate_InitializesVersionToZero(t *testing.T) {
	origAll := All
	defer func() { All = origAll }()
	All = nil

	db := openTestDB(t)
	require.NoError(t, Migrate(db))

	var version int
	require.NoError(t, db.QueryRow(`SELECT version FROM schema_version`).Scan(&version))
	assert.Equal(t, 0, version)
}

func TestMigrate_AppliesAllAndIsRepeatable(t *testing.T) {
	db := openTestDB(t)
	require.NoError(t, Migrate(db))
	require.NoError(t, Migrate(db))

	var version int
	require.NoError(t, db.QueryRow(`SELECT version FROM schema_version`).Scan(&version))
	assert.Equal(t, len(All), version)

	for _, table := range []string{"conversions", "markers"} {
		var name string
		err := db.QueryRow(`SELECT name FROM sqlite_master WHERE type='table' AND name=?`, table).Scan(&name)
		require.NoError(t, err, table)
	}
}

func TestMigrate_RollsBackOnFailure(t *testing.T) {
	origAll := All
	defer func() { All = origAll }()
	All = []string{
		`CREATE TABLE ok_table (id INTEGER PRIMARY KEY)`,
		`THIS IS NOT SQL`,
	}

	db := openTestDB(t)
	err := Migrate(db)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "migration 2 failed")

	var version int
	require.NoError(t, db.QueryRow(`SELECT version FROM schema_version`).Scan(&version))
	assert.Equal(t, 1, version)
}

func sampleResult() *convert.Result {
	return &convert.Result{
		Path:      "tests/Unit/MoneyTest.php",
		Converted: true,
		Class:     "MoneyTest",
		Tests:     []convert.Test{{Description: "adds", Method: "test_adds", Line: 3}},
		Markers: []convert.Marker{
			{Line: 20, Method: "test_adds", Message: "second"},
			{Line: 12, Method: "test_adds", Message: "first"},
		},
		Leaks: []convert.Leak{},
	}
}

func TestLedger_RecordAndLookup(t *testing.T) {
	ctx := context.Background()
	l := openTestLedger(t)

	hash := Hash([]byte("<?php test('adds', fn () => 1);"))
	require.NoError(t, l.Record(ctx, "tests/Unit/MoneyTest.php", hash, "out/MoneyTest.php", sampleResult()))

	e, ok, err := l.Lookup(ctx, "tests/Unit/MoneyTest.php")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "MoneyTest", e.Class)
	assert.Equal(t, StatusReview, e.Status)
	assert.Equal(t, 1, e.Tests)
	assert.Equal(t, 2, e.Markers)
	assert.Equal(t, "out/MoneyTest.php", e.OutputPath)
	assert.False(t, e.ConvertedAt.IsZero())

	markers, err := l.Markers(ctx, "tests/Unit/MoneyTest.php")
	require.NoError(t, err)
	require.Len(t, markers, 2)
	assert.Equal(t, "first", markers[0].Message)

	_, ok, err = l.Lookup(ctx, "missing.php")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestLedger_RecordReplacesMarkers(t *testing.T) {
	ctx := context.Background()
	l := openTestLedger(t)

	require.NoError(t, l.Record(ctx, "a.php", "h1", "", sampleResult()))
	clean := sampleResult()
	clean.Markers = nil
	require.NoError(t, l.Record(ctx, "a.php", "h2", "", clean))

	entries, err := l.Entries(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, StatusClean, entries[0].Status)
	assert.Equal(t, 0, entries[0].Markers)
	assert.Equal(t, "h2", entries[0].SourceHash)
}

func TestLedger_Unchanged(t *testing.T) {
	ctx := context.Background()
	l := openTestLedger(t)

	unchanged, err := l.Unchanged(ctx, "a.php", "h1")
	require.NoError(t, err)
	assert.False(t, unchanged, "unknown files are changed")

	require.NoError(t, l.Record(ctx, "a.php", "h1", "", sampleResult()))
	unchanged, err = l.Unchanged(ctx, "a.php", "h1")
	require.NoError(t, err)
	assert.True(t, unchanged)

	unchanged, err = l.Unchanged(ctx, "a.php", "h2")
	require.NoError(t, err)
	assert.False(t, unchanged)

	require.NoError(t, l.RecordFailure(ctx, "a.php", errors.New("syntax error")))
	unchanged, err = l.Unchanged(ctx, "a.php", "h1")
	require.NoError(t, err)
	assert.False(t, unchanged, "failed files are always retried")

	e, _, err := l.Lookup(ctx, "a.php")
	require.NoError(t, err)
	assert.Equal(t, StatusFailed, e.Status)
	assert.Equal(t, "syntax error", e.Error)
	assert.Equal(t, 0, e.Markers)
}

func TestLedger_EntriesAreSorted(t *testing.T) {
	ctx := context.Background()
	l := openTestLedger(t)
	for _, p := range []string{"c.php", "a.php", "b.php"} {
		require.NoError(t, l.Record(ctx, p, "h", "", sampleResult()))
	}
	entries, err := l.Entries(ctx)
	require.NoError(t, err)
	var paths []string
	for _, e := range entries {
		paths = append(paths, e.SourcePath)
	}
	assert.Equal(t, []string{"a.php", "b.php", "c.php"}, paths)
}

func TestStatusOf(t *testing.T) {
	res := sampleResult()
	assert.Equal(t, StatusReview, StatusOf(res))
	res.Markers = nil
	assert.Equal(t, StatusClean, StatusOf(res))
	res.Leaks = []convert.Leak{{Call: "expect"}}
	assert.Equal(t, StatusReview, StatusOf(res))
	assert.Equal(t, StatusSkipped, StatusOf(&convert.Result{}))
}

func TestHash(t *testing.T) {
	assert.Equal(t, Hash([]byte("a")), Hash([]byte("a")))
	assert.NotEqual(t, Hash([]byte("a")), Hash([]byte("b")))
	assert.Len(t, Hash(nil), 64)
}
