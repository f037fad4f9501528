// Package pgtest opens a migrated Postgres database for integration tests.
// Tests are skipped unless POSTGRES_TEST_DSN points at a disposable database.
// Every package truncates the same tables, so run them with go test -p 1.
package pgtest

import (
	"context"
	"os"
	"testing"
	"time"

	postgresmigration "fitstudio/internal/migrations/postgres"
	"fitstudio/pkg/db/postgres"
	"fitstudio/pkg/logger"

	"github.com/jackc/pgx/v5/pgxpool"
)

const EnvDSN = "POSTGRES_TEST_DSN"

// Open connects, migrates to the latest schema and empties every table.
func Open(t *testing.T) (*postgres.DB, *pgxpool.Pool) {
	t.Helper()

	dsn := os.Getenv(EnvDSN)
	if dsn == "" {
		t.Skipf("%s not set, skipping postgres integration test", EnvDSN)
	}
	if testing.Short() {
		t.Skip("skipping postgres integration test in short mode")
	}

	ctx := context.Background()
	pool, err := postgres.Connect(ctx, dsn, 5*time.Second)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	t.Cleanup(pool.Close)

	migrator, err := postgresmigration.NewMigrator(pool, logger.Discard())
	if err != nil {
		t.Fatalf("migrator: %v", err)
	}
	if err := migrator.Up(ctx); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	if _, err := pool.Exec(ctx, `TRUNCATE bookings, fitness_classes RESTART IDENTITY CASCADE`); err != nil {
		t.Fatalf("truncate: %v", err)
	}

	return postgres.NewDB(pool), pool
}

// InsertClass adds a class row directly and returns its id.
func InsertClass(t *testing.T, pool *pgxpool.Pool, maxSlots, booked int, active bool) int64 {
	t.Helper()

	var id int64
	err := pool.QueryRow(context.Background(), `
		INSERT INTO fitness_classes (name, instructor, class_datetime, duration_minutes, max_slots, booked_slots, is_active)
		VALUES ('Morning Yoga', 'Noa', NOW() + INTERVAL '1 day', 60, $1, $2, $3)
		RETURNING id`, maxSlots, booked, active).Scan(&id)
	if err != nil {
		t.Fatalf("insert class: %v", err)
	}
	return id
}
