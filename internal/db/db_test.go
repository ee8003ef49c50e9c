package db

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()

	database, err := Open(filepath.Join(t.TempDir(), "db-test.db"))
	if err != nil {
		t.Fatalf("open sqlite database: %v", err)
	}
	t.Cleanup(func() { _ = database.Close() })

	if _, err := database.Exec(`CREATE TABLE items (id INTEGER PRIMARY KEY, name TEXT NOT NULL)`); err != nil {
		t.Fatalf("create table: %v", err)
	}
	return database
}

func countItems(t *testing.T, database *sql.DB) int {
	t.Helper()

	var n int
	if err := database.QueryRow(`SELECT COUNT(*) FROM items`).Scan(&n); err != nil {
		t.Fatalf("count items: %v", err)
	}
	return n
}

func TestOpenEnablesForeignKeys(t *testing.T) {
	database := openTestDB(t)

	var enabled int
	if err := database.QueryRow(`PRAGMA foreign_keys`).Scan(&enabled); err != nil {
		t.Fatalf("query pragma: %v", err)
	}
	if enabled != 1 {
		t.Fatalf("expected foreign_keys=1, got %d", enabled)
	}
}

func TestWithTxCommitsOnSuccess(t *testing.T) {
	database := openTestDB(t)

	err := WithTx(context.Background(), database, func(tx *sql.Tx) error {
		_, err := tx.Exec(`INSERT INTO items (name) VALUES ('a'), ('b')`)
		return err
	})
	if err != nil {
		t.Fatalf("WithTx returned error: %v", err)
	}
	if got := countItems(t, database); got != 2 {
		t.Fatalf("expected 2 items, got %d", got)
	}
}

func TestWithTxRollsBackOnError(t *testing.T) {
	database := openTestDB(t)
	boom := errors.New("boom")

	err := WithTx(context.Background(), database, func(tx *sql.Tx) error {
		if _, err := tx.Exec(`INSERT INTO items (name) VALUES ('a')`); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	if got := countItems(t, database); got != 0 {
		t.Fatalf("expected rollback to leave 0 items, got %d", got)
	}
}
