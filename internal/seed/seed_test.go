package seed

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"github.com/Simplici0/movequote/internal/db"
	"github.com/Simplici0/movequote/internal/migrations"
)

// 6 staff rates, 8 vehicle rates, tax rate and the admin user.
const expectedInserts = 16

func TestRunIsIdempotent(t *testing.T) {
	t.Parallel()

	dbPath := filepath.Join(t.TempDir(), "seed-test.db")
	database, err := db.Open(dbPath)
	if err != nil {
		t.Fatalf("open sqlite database: %v", err)
	}
	defer database.Close()

	ctx := context.Background()
	if err := migrations.Up(ctx, database); err != nil {
		t.Fatalf("run migrations: %v", err)
	}

	cfg := Config{
		AdminEmail:    "admin@movequote.local",
		AdminPassword: "12345",
	}

	for i := 0; i < 5; i++ {
		stats, err := Run(ctx, database, cfg)
		if err != nil {
			t.Fatalf("run seed (iteration=%d): %v", i, err)
		}
		if i == 0 {
			if stats.Inserts != expectedInserts {
				t.Fatalf("expected %d inserts in first run, got %d", expectedInserts, stats.Inserts)
			}
			continue
		}
		if stats.Inserts != 0 || stats.Skipped != expectedInserts {
			t.Fatalf("expected only skips in iteration %d, got %+v", i, stats)
		}
	}

	assertCount(t, database, `SELECT COUNT(*) FROM users WHERE email = ?`, "admin@movequote.local", 1)
	assertCount(t, database, `SELECT COUNT(*) FROM master_settings WHERE category = 'rates' AND subcategory = 'staff'`, nil, 6)
	assertCount(t, database, `SELECT COUNT(*) FROM master_settings WHERE key = ?`, "2t車_full_day_A", 1)
	assertCount(t, database, `SELECT COUNT(*) FROM master_settings WHERE key = 'tax_rate' AND value = '0.1'`, nil, 1)

	var hash string
	if err := database.QueryRow(`SELECT password_hash FROM users WHERE email = ?`, "admin@movequote.local").Scan(&hash); err != nil {
		t.Fatalf("query admin hash: %v", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte("12345")); err != nil {
		t.Fatalf("expected admin hash to match password: %v", err)
	}
}

func TestRunKeepsEditedRates(t *testing.T) {
	t.Parallel()

	database, err := db.Open(filepath.Join(t.TempDir(), "seed-edit.db"))
	if err != nil {
		t.Fatalf("open sqlite database: %v", err)
	}
	defer database.Close()

	ctx := context.Background()
	if err := migrations.Up(ctx, database); err != nil {
		t.Fatalf("run migrations: %v", err)
	}
	if _, err := Run(ctx, database, Config{}); err != nil {
		t.Fatalf("first seed: %v", err)
	}
	if _, err := database.Exec(`UPDATE master_settings SET value = '22000' WHERE key = 'leader_rate'`); err != nil {
		t.Fatalf("edit rate: %v", err)
	}
	if _, err := Run(ctx, database, Config{}); err != nil {
		t.Fatalf("second seed: %v", err)
	}

	assertCount(t, database, `SELECT COUNT(*) FROM master_settings WHERE key = 'leader_rate' AND value = '22000'`, nil, 1)
	assertCount(t, database, `SELECT COUNT(*) FROM users`, nil, 0)
}

func assertCount(t *testing.T, database *sql.DB, query string, args any, expected int) {
	t.Helper()

	var count int
	var err error
	switch v := args.(type) {
	case nil:
		err = database.QueryRow(query).Scan(&count)
	case []any:
		err = database.QueryRow(query, v...).Scan(&count)
	default:
		err = database.QueryRow(query, v).Scan(&count)
	}
	if err != nil {
		t.Fatalf("count query failed: %v", err)
	}
	if count != expected {
		t.Fatalf("expected count %d, got %d", expected, count)
	}
}
