package db

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/marinarosell/dora-bot/migrations"
)

// Advisory lock key so concurrent instances don't race on migration.
const migrationLockID int64 = 0x444f52415f4d4947 // "DORA_MIG"

// Migrate applies all embedded migrations in order, tracked in the
// schema_migrations table. Safe to call on every startup.
func Migrate(ctx context.Context, pool *Pool, logger *slog.Logger) error {
	conn, err := pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire migration connection: %w", err)
	}
	defer conn.Release()

	if _, err := conn.Exec(ctx, "SELECT pg_advisory_lock($1)", migrationLockID); err != nil {
		return fmt.Errorf("acquire migration lock: %w", err)
	}
	defer conn.Exec(context.Background(), "SELECT pg_advisory_unlock($1)", migrationLockID)

	if _, err := conn.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			name       text PRIMARY KEY,
			applied_at timestamptz NOT NULL DEFAULT now()
		)`); err != nil {
		return fmt.Errorf("create schema_migrations: %w", err)
	}

	files, err := migrations.Ordered()
	if err != nil {
		return fmt.Errorf("read embedded migrations: %w", err)
	}

	for _, f := range files {
		var exists bool
		if err := conn.QueryRow(ctx,
			"SELECT EXISTS (SELECT 1 FROM schema_migrations WHERE name = $1)", f.Name,
		).Scan(&exists); err != nil {
			return fmt.Errorf("check migration %s: %w", f.Name, err)
		}
		if exists {
			continue
		}

		tx, err := conn.Begin(ctx)
		if err != nil {
			return fmt.Errorf("begin migration %s: %w", f.Name, err)
		}
		if _, err := tx.Exec(ctx, f.SQL); err != nil {
			tx.Rollback(ctx)
			return fmt.Errorf("apply migration %s: %w", f.Name, err)
		}
		if _, err := tx.Exec(ctx,
			"INSERT INTO schema_migrations (name) VALUES ($1)", f.Name); err != nil {
			tx.Rollback(ctx)
			return fmt.Errorf("record migration %s: %w", f.Name, err)
		}
		if err := tx.Commit(ctx); err != nil {
			return fmt.Errorf("commit migration %s: %w", f.Name, err)
		}
		logger.Info("Applied migration", "name", f.Name)
	}
	return nil
}
