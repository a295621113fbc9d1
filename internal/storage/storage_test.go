package storage

import (
	"context"
	"os"
	"testing"
)

// setupTestDB connects to the database named by TEST_DATABASE_URL, applies
// migrations and truncates all tables. Tests that need a database skip when
// the variable is unset.
func setupTestDB(t *testing.T) *DB {
	t.Helper()

	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set, skipping database test")
	}

	cfg := DefaultDBConfig()
	cfg.DSN = dsn

	db, err := NewDB(cfg)
	if err != nil {
		t.Fatalf("failed to connect to test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := db.RunMigrations(); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}

	truncateAll(t, db)
	return db
}

func truncateAll(t *testing.T, db *DB) {
	t.Helper()
	_, err := db.conn.Exec(`
		TRUNCATE api_keys, tyres_and_wheels, steering, suspension, brakes,
		         dimension_and_weight, engine, transmission, general
	`)
	if err != nil {
		t.Fatalf("failed to truncate tables: %v", err)
	}
}

func TestDBHealth(t *testing.T) {
	db := setupTestDB(t)

	if err := db.Health(context.Background()); err != nil {
		t.Errorf("Health() error: %v", err)
	}
}
