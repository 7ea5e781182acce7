package alert

import (
	"time"

	"github.com/marinarosell/dora-bot/internal/config"
)

// inQuietWindow reports whether local falls inside the quiet window.
// Bounds are inclusive, compared at minute granularity. A window whose
// start is after its end wraps midnight (23:00–07:30 means quiet from
// 23:00 through 07:30 the next morning). The caller must already have
// converted local to the configured timezone.
func inQuietWindow(local time.Time, start, end config.ClockTime) bool {
	minute := local.Hour()*60 + local.Minute()
	s, e := start.MinuteOfDay(), end.MinuteOfDay()

	if s <= e {
		return s <= minute && minute <= e
	}
	return minute >= s || minute <= e
}
