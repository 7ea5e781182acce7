// Package grouplock serializes all state-changing operations for a single
// group: walk inserts, outcome attachment, and alert evaluation must not
// interleave for the same chat, or the throttle and latest-walk invariants
// can be violated by a read-then-write race.
package grouplock

import "sync"

// Set is a keyed mutex. The zero value is not usable; call New.
type Set struct {
	mu    sync.Mutex
	locks map[int64]*sync.Mutex
}

func New() *Set {
	return &Set{locks: make(map[int64]*sync.Mutex)}
}

// Lock acquires the mutex for a group, creating it on first use.
// Locks are never released from the map; group count is small and bounded.
func (s *Set) Lock(groupID int64) {
	s.mu.Lock()
	l, ok := s.locks[groupID]
	if !ok {
		l = &sync.Mutex{}
		s.locks[groupID] = l
	}
	s.mu.Unlock()
	l.Lock()
}

// Unlock releases the mutex for a group. Panics if Lock was never called
// for this group, same as unlocking an unlocked sync.Mutex.
func (s *Set) Unlock(groupID int64) {
	s.mu.Lock()
	l := s.locks[groupID]
	s.mu.Unlock()
	l.Unlock()
}
