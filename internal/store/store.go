// Package store persists the walk log and per-group alert bookkeeping.
//
// Two relations: walks (append-only log, one row per reported walk) and
// chats (one row per group, holding the title and the last reminder
// timestamp). Postgres is the production backend; Memory backs tests.
package store

import (
	"context"
	"time"

	"github.com/marinarosell/dora-bot/internal/domain"
)

// Store is the persistence contract consumed by the bot handlers, the
// alert engine, and the export/stats surfaces.
type Store interface {
	// EnsureGroup creates the group record if absent. Idempotent; an
	// existing title is never overwritten.
	EnsureGroup(ctx context.Context, groupID int64, title string) error

	// RecordWalk inserts a walk with no outcome and ensures the group
	// record exists. Both writes happen atomically. Returns the walk id.
	RecordWalk(ctx context.Context, walk domain.Walk) (int64, error)

	// AttachOutcome sets the outcome on the most recent walk for the
	// (group, reporter) pair. No-op when the pair has no walks.
	AttachOutcome(ctx context.Context, groupID, reporterID int64, outcome domain.Outcome) error

	// LatestWalkTime returns the newest walk timestamp for the group,
	// or ok=false when the group has no walks.
	LatestWalkTime(ctx context.Context, groupID int64) (time.Time, bool, error)

	// Walks returns the group's full walk log ascending by timestamp,
	// ties broken by insertion order.
	Walks(ctx context.Context, groupID int64) ([]domain.Walk, error)

	// Groups returns every group id the store has ever seen.
	Groups(ctx context.Context) ([]int64, error)

	// LastAlert returns when the last reminder fired for the group, or
	// ok=false if none ever did.
	LastAlert(ctx context.Context, groupID int64) (time.Time, bool, error)

	// SetLastAlert records that a reminder fired at t.
	SetLastAlert(ctx context.Context, groupID int64, t time.Time) error
}
