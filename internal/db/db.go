// Package db provides a pgxpool-based connection pool with prepared statement
// registration, schema migration, and health checking.
package db

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/marinarosell/dora-bot/internal/config"
)

// Pool wraps pgxpool.Pool with application-specific helpers.
type Pool struct {
	*pgxpool.Pool
}

// New creates and validates a new connection pool.
func New(ctx context.Context, cfg *config.Config) (*Pool, error) {
	return newPool(ctx, cfg.DatabaseURL, cfg.DBPoolMinConns, cfg.DBPoolMaxConns, cfg.DBPoolMaxLife)
}

// NewWithURL creates a pool with default sizing. Used by tests and walkctl.
func NewWithURL(ctx context.Context, url string) (*Pool, error) {
	return newPool(ctx, url, 1, 5, 30*time.Minute)
}

func newPool(ctx context.Context, url string, minConns, maxConns int, maxLife time.Duration) (*Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(url)
	if err != nil {
		return nil, fmt.Errorf("parse database URL: %w", err)
	}

	poolCfg.MinConns = int32(minConns)
	poolCfg.MaxConns = int32(maxConns)
	poolCfg.MaxConnLifetime = maxLife
	poolCfg.MaxConnIdleTime = 5 * time.Minute

	// Register prepared statements on every new connection.
	poolCfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		return registerPreparedStatements(ctx, conn)
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	// Verify connectivity
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return &Pool{Pool: pool}, nil
}

// HealthCheck runs a trivial query to verify the database is reachable.
func (p *Pool) HealthCheck(ctx context.Context) error {
	var n int
	return p.QueryRow(ctx, "health_check").Scan(&n)
}

// registerPreparedStatements registers all statements the store uses.
// Prepared statements eliminate parse overhead on every query.
func registerPreparedStatements(ctx context.Context, conn *pgx.Conn) error {
	stmts := map[string]string{
		// Health
		"health_check": "SELECT 1",

		// Chats: create-if-absent; an existing non-empty title wins.
		"ensure_chat": `
			INSERT INTO chats (chat_id, title)
			VALUES ($1, $2)
			ON CONFLICT (chat_id) DO UPDATE
			SET title = COALESCE(NULLIF(chats.title, ''), EXCLUDED.title)`,

		"list_chats": "SELECT chat_id FROM chats ORDER BY chat_id",

		// Walks
		"insert_walk": `
			INSERT INTO walks (chat_id, user_id, user_name, walked_at)
			VALUES ($1, $2, $3, $4)
			RETURNING id`,

		// Latest walk: timestamp order, insertion order breaks ties.
		"latest_walk_time": `
			SELECT walked_at FROM walks
			WHERE chat_id = $1
			ORDER BY walked_at DESC, id DESC
			LIMIT 1`,

		"list_walks": `
			SELECT id, chat_id, user_id, user_name, walked_at, COALESCE(outcome, '')
			FROM walks
			WHERE chat_id = $1
			ORDER BY walked_at ASC, id ASC`,

		// Outcome goes to the reporter's most recent walk only.
		"attach_outcome": `
			UPDATE walks SET outcome = $3
			WHERE id = (
				SELECT id FROM walks
				WHERE chat_id = $1 AND user_id = $2
				ORDER BY walked_at DESC, id DESC
				LIMIT 1
			)`,

		// Alert bookkeeping
		"last_alert": "SELECT last_alert_at FROM chats WHERE chat_id = $1",
		"set_last_alert": `
			INSERT INTO chats (chat_id, title, last_alert_at)
			VALUES ($1, '', $2)
			ON CONFLICT (chat_id) DO UPDATE
			SET last_alert_at = EXCLUDED.last_alert_at`,
	}

	for name, sql := range stmts {
		if _, err := conn.Prepare(ctx, name, sql); err != nil {
			return fmt.Errorf("prepare %q: %w", name, err)
		}
	}
	return nil
}
