//go:build integration

package store

import (
	"context"
	"io"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/marinarosell/dora-bot/internal/db"
	"github.com/marinarosell/dora-bot/internal/domain"
)

func integrationStore(t *testing.T, ctx context.Context) *Postgres {
	t.Helper()

	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	pool, err := db.NewWithURL(ctx, url)
	if err != nil {
		t.Skipf("database not reachable: %v", err)
	}
	t.Cleanup(pool.Close)

	if err := db.Migrate(ctx, pool, slog.New(slog.NewTextHandler(io.Discard, nil))); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	if _, err := pool.Exec(ctx, "TRUNCATE walks, chats"); err != nil {
		t.Fatalf("truncate: %v", err)
	}

	return NewPostgres(pool.Pool, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestPostgresStoreIntegration(t *testing.T) {
	ctx := context.Background()
	s := integrationStore(t, ctx)

	ts := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	id, err := s.RecordWalk(ctx, domain.Walk{GroupID: 1, ReporterID: 7, ReporterName: "Marina", WalkedAt: ts})
	if err != nil {
		t.Fatalf("RecordWalk: %v", err)
	}
	if id == 0 {
		t.Fatal("expected non-zero walk id")
	}

	got, ok, err := s.LatestWalkTime(ctx, 1)
	if err != nil || !ok || !got.Equal(ts) {
		t.Fatalf("LatestWalkTime = (%v, %v, %v), want (%v, true, nil)", got, ok, err, ts)
	}

	if _, err := s.RecordWalk(ctx, domain.Walk{GroupID: 1, ReporterID: 7, ReporterName: "Marina", WalkedAt: ts.Add(time.Hour)}); err != nil {
		t.Fatalf("RecordWalk: %v", err)
	}
	if err := s.AttachOutcome(ctx, 1, 7, domain.OutcomeNormal); err != nil {
		t.Fatalf("AttachOutcome: %v", err)
	}

	walks, err := s.Walks(ctx, 1)
	if err != nil {
		t.Fatalf("Walks: %v", err)
	}
	if len(walks) != 2 {
		t.Fatalf("expected 2 walks, got %d", len(walks))
	}
	if walks[0].Outcome != "" || walks[1].Outcome != domain.OutcomeNormal {
		t.Fatalf("outcome attached to wrong walk: %q / %q", walks[0].Outcome, walks[1].Outcome)
	}

	if _, ok, _ := s.LastAlert(ctx, 1); ok {
		t.Fatal("expected no last alert yet")
	}
	alertAt := ts.Add(8 * time.Hour)
	if err := s.SetLastAlert(ctx, 1, alertAt); err != nil {
		t.Fatalf("SetLastAlert: %v", err)
	}
	la, ok, err := s.LastAlert(ctx, 1)
	if err != nil || !ok || !la.Equal(alertAt) {
		t.Fatalf("LastAlert = (%v, %v, %v), want (%v, true, nil)", la, ok, err, alertAt)
	}

	groups, err := s.Groups(ctx)
	if err != nil {
		t.Fatalf("Groups: %v", err)
	}
	if len(groups) != 1 || groups[0] != 1 {
		t.Fatalf("expected groups [1], got %v", groups)
	}
}
