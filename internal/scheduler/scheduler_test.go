package scheduler

import (
	"testing"
	"time"

	"github.com/marinarosell/dora-bot/internal/config"
)

func TestNextDigestAfterSameDay(t *testing.T) {
	loc, _ := time.LoadLocation("Europe/Madrid")
	now := time.Date(2025, 3, 1, 6, 0, 0, 0, loc)

	next := nextDigestAfter(now, config.ClockTime{Hour: 9}, loc)
	want := time.Date(2025, 3, 1, 9, 0, 0, 0, loc)
	if !next.Equal(want) {
		t.Fatalf("next = %v, want %v", next, want)
	}
}

func TestNextDigestAfterRollsToTomorrow(t *testing.T) {
	loc, _ := time.LoadLocation("Europe/Madrid")
	now := time.Date(2025, 3, 1, 9, 30, 0, 0, loc)

	next := nextDigestAfter(now, config.ClockTime{Hour: 9}, loc)
	want := time.Date(2025, 3, 2, 9, 0, 0, 0, loc)
	if !next.Equal(want) {
		t.Fatalf("next = %v, want %v", next, want)
	}
}

func TestNextDigestAtExactTriggerRollsOver(t *testing.T) {
	loc, _ := time.LoadLocation("Europe/Madrid")
	now := time.Date(2025, 3, 1, 9, 0, 0, 0, loc)

	// Exactly at the trigger: next run is tomorrow, not now.
	next := nextDigestAfter(now, config.ClockTime{Hour: 9}, loc)
	want := time.Date(2025, 3, 2, 9, 0, 0, 0, loc)
	if !next.Equal(want) {
		t.Fatalf("next = %v, want %v", next, want)
	}
}

func TestNextDigestConvertsFromUTC(t *testing.T) {
	loc, _ := time.LoadLocation("Europe/Madrid")
	// 07:30 UTC on a CET day is 08:30 local, so 09:00 local is still ahead.
	now := time.Date(2025, 3, 1, 7, 30, 0, 0, time.UTC)

	next := nextDigestAfter(now, config.ClockTime{Hour: 9}, loc)
	want := time.Date(2025, 3, 1, 9, 0, 0, 0, loc)
	if !next.Equal(want) {
		t.Fatalf("next = %v, want %v", next, want)
	}
}
