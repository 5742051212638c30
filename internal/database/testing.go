package database

import (
	"context"
	"os"
	"testing"
	"time"
)

// TestDSNEnv names the variable holding the integration test database URL
const TestDSNEnv = "AURUM_TEST_DATABASE_DSN"

// SetupTestDB connects to the integration database and applies the schema.
// The test is skipped when no database is configured.
func SetupTestDB(t *testing.T) *DB {
	t.Helper()

	dsn := os.Getenv(TestDSNEnv)
	if dsn == "" {
		t.Skipf("%s not set, skipping database test", TestDSNEnv)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	db, err := NewDBFromDSN(ctx, dsn)
	if err != nil {
		t.Fatalf("failed to create test database connection: %v", err)
	}

	if err := db.EnsureSchema(ctx); err != nil {
		db.Close()
		t.Fatalf("failed to apply schema: %v", err)
	}

	t.Cleanup(db.Close)
	return db
}

// TruncateTables empties every table owned by the schema
func TruncateTables(t *testing.T, db *DB) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := db.pool.Exec(ctx, "TRUNCATE price_bars, indicator_rows, backtest_results"); err != nil {
		t.Fatalf("failed to truncate tables: %v", err)
	}
}
