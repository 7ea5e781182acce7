// Package stats computes aggregate walk statistics from the raw walk log.
// All functions are pure: the result depends only on the input slice.
package stats

import (
	"time"

	"github.com/marinarosell/dora-bot/internal/domain"
)

// Stats summarizes a group's walk history.
type Stats struct {
	Count       int
	First       time.Time // zero when Count == 0
	Last        time.Time // zero when Count == 0
	AvgGapHours float64   // mean of consecutive gaps; 0.0 with fewer than 2 walks
	Outcomes    map[domain.Outcome]int
}

// Compute aggregates walks ordered ascending by timestamp. The outcome
// tally always sums to Count, with unset outcomes counted as "unknown".
func Compute(walks []domain.Walk) Stats {
	s := Stats{Outcomes: make(map[domain.Outcome]int)}
	if len(walks) == 0 {
		return s
	}

	s.Count = len(walks)
	s.First = walks[0].WalkedAt
	s.Last = walks[len(walks)-1].WalkedAt

	if len(walks) > 1 {
		var total float64
		for i := 1; i < len(walks); i++ {
			total += walks[i].WalkedAt.Sub(walks[i-1].WalkedAt).Hours()
		}
		s.AvgGapHours = total / float64(len(walks)-1)
	}

	for _, w := range walks {
		s.Outcomes[w.TallyOutcome()]++
	}
	return s
}
