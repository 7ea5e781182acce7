package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/marinarosell/dora-bot/internal/domain"
)

// Postgres implements Store on a pgxpool with prepared statements
// registered by the db package.
type Postgres struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

func NewPostgres(pool *pgxpool.Pool, logger *slog.Logger) *Postgres {
	if logger == nil {
		logger = slog.Default()
	}
	return &Postgres{pool: pool, logger: logger}
}

func (s *Postgres) EnsureGroup(ctx context.Context, groupID int64, title string) error {
	if _, err := s.pool.Exec(ctx, "ensure_chat", groupID, title); err != nil {
		return fmt.Errorf("ensure chat %d: %w", groupID, err)
	}
	return nil
}

func (s *Postgres) RecordWalk(ctx context.Context, walk domain.Walk) (int64, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("begin record walk: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, "ensure_chat", walk.GroupID, ""); err != nil {
		return 0, fmt.Errorf("ensure chat %d: %w", walk.GroupID, err)
	}

	var id int64
	err = tx.QueryRow(ctx, "insert_walk",
		walk.GroupID, walk.ReporterID, walk.ReporterName, walk.WalkedAt,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert walk: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("commit record walk: %w", err)
	}
	return id, nil
}

func (s *Postgres) AttachOutcome(ctx context.Context, groupID, reporterID int64, outcome domain.Outcome) error {
	tag, err := s.pool.Exec(ctx, "attach_outcome", groupID, reporterID, string(outcome))
	if err != nil {
		return fmt.Errorf("attach outcome: %w", err)
	}
	if tag.RowsAffected() == 0 {
		// No walk for this reporter yet; not an error.
		s.logger.Debug("attach outcome matched no walk",
			"chat_id", groupID, "user_id", reporterID)
	}
	return nil
}

func (s *Postgres) LatestWalkTime(ctx context.Context, groupID int64) (time.Time, bool, error) {
	var t time.Time
	err := s.pool.QueryRow(ctx, "latest_walk_time", groupID).Scan(&t)
	if errors.Is(err, pgx.ErrNoRows) {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, fmt.Errorf("latest walk time: %w", err)
	}
	return t.UTC(), true, nil
}

func (s *Postgres) Walks(ctx context.Context, groupID int64) ([]domain.Walk, error) {
	rows, err := s.pool.Query(ctx, "list_walks", groupID)
	if err != nil {
		return nil, fmt.Errorf("list walks: %w", err)
	}
	defer rows.Close()

	var out []domain.Walk
	for rows.Next() {
		var w domain.Walk
		var outcome string
		if err := rows.Scan(&w.ID, &w.GroupID, &w.ReporterID, &w.ReporterName, &w.WalkedAt, &outcome); err != nil {
			return nil, fmt.Errorf("scan walk: %w", err)
		}
		w.WalkedAt = w.WalkedAt.UTC()
		w.Outcome = domain.Outcome(outcome)
		out = append(out, w)
	}
	return out, rows.Err()
}

func (s *Postgres) Groups(ctx context.Context) ([]int64, error) {
	rows, err := s.pool.Query(ctx, "list_chats")
	if err != nil {
		return nil, fmt.Errorf("list chats: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan chat id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (s *Postgres) LastAlert(ctx context.Context, groupID int64) (time.Time, bool, error) {
	var t *time.Time
	err := s.pool.QueryRow(ctx, "last_alert", groupID).Scan(&t)
	if errors.Is(err, pgx.ErrNoRows) {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, fmt.Errorf("last alert: %w", err)
	}
	if t == nil {
		return time.Time{}, false, nil
	}
	return t.UTC(), true, nil
}

func (s *Postgres) SetLastAlert(ctx context.Context, groupID int64, t time.Time) error {
	if _, err := s.pool.Exec(ctx, "set_last_alert", groupID, t); err != nil {
		return fmt.Errorf("set last alert: %w", err)
	}
	return nil
}
