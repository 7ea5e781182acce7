package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/marinarosell/dora-bot/internal/domain"
)

// Memory is an in-memory Store used by tests and local development
// without a database. Safe for concurrent use.
type Memory struct {
	mu     sync.Mutex
	nextID int64
	walks  map[int64][]domain.Walk // by group, insertion order
	groups map[int64]*domain.Group
}

func NewMemory() *Memory {
	return &Memory{
		nextID: 1,
		walks:  make(map[int64][]domain.Walk),
		groups: make(map[int64]*domain.Group),
	}
}

func (m *Memory) EnsureGroup(ctx context.Context, groupID int64, title string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ensureGroupLocked(groupID, title)
	return nil
}

func (m *Memory) ensureGroupLocked(groupID int64, title string) {
	if g, ok := m.groups[groupID]; ok {
		if g.Title == "" && title != "" {
			g.Title = title
		}
		return
	}
	m.groups[groupID] = &domain.Group{ID: groupID, Title: title}
}

func (m *Memory) RecordWalk(ctx context.Context, walk domain.Walk) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.ensureGroupLocked(walk.GroupID, "")
	walk.ID = m.nextID
	m.nextID++
	m.walks[walk.GroupID] = append(m.walks[walk.GroupID], walk)
	return walk.ID, nil
}

func (m *Memory) AttachOutcome(ctx context.Context, groupID, reporterID int64, outcome domain.Outcome) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	walks := m.walks[groupID]
	best := -1
	for i, w := range walks {
		if w.ReporterID != reporterID {
			continue
		}
		if best < 0 || w.WalkedAt.After(walks[best].WalkedAt) ||
			(w.WalkedAt.Equal(walks[best].WalkedAt) && w.ID > walks[best].ID) {
			best = i
		}
	}
	if best >= 0 {
		walks[best].Outcome = outcome
	}
	return nil
}

func (m *Memory) LatestWalkTime(ctx context.Context, groupID int64) (time.Time, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var latest time.Time
	var latestID int64
	found := false
	for _, w := range m.walks[groupID] {
		if !found || w.WalkedAt.After(latest) || (w.WalkedAt.Equal(latest) && w.ID > latestID) {
			latest, latestID, found = w.WalkedAt, w.ID, true
		}
	}
	return latest, found, nil
}

func (m *Memory) Walks(ctx context.Context, groupID int64) ([]domain.Walk, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]domain.Walk, len(m.walks[groupID]))
	copy(out, m.walks[groupID])
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].WalkedAt.Equal(out[j].WalkedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].WalkedAt.Before(out[j].WalkedAt)
	})
	return out, nil
}

func (m *Memory) Groups(ctx context.Context) ([]int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	ids := make([]int64, 0, len(m.groups))
	for id := range m.groups {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

func (m *Memory) LastAlert(ctx context.Context, groupID int64) (time.Time, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	g, ok := m.groups[groupID]
	if !ok || g.LastAlertAt == nil {
		return time.Time{}, false, nil
	}
	return *g.LastAlertAt, true, nil
}

func (m *Memory) SetLastAlert(ctx context.Context, groupID int64, t time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.ensureGroupLocked(groupID, "")
	ts := t
	m.groups[groupID].LastAlertAt = &ts
	return nil
}
