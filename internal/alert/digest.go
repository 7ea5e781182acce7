package alert

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/marinarosell/dora-bot/internal/domain"
	"github.com/marinarosell/dora-bot/internal/metrics"
	"github.com/marinarosell/dora-bot/internal/stats"
)

// tallyOrder fixes the outcome ordering in digests and stats replies so
// the output is deterministic.
var tallyOrder = []domain.Outcome{
	domain.OutcomeNormal,
	domain.OutcomeSoft,
	domain.OutcomeDiarrhea,
	domain.OutcomeNone,
	domain.OutcomeUnknown,
}

// FormatTally renders an outcome tally as "Normal: 3, Blanda: 1".
func FormatTally(outcomes map[domain.Outcome]int) string {
	parts := make([]string, 0, len(outcomes))
	for _, o := range tallyOrder {
		if n, ok := outcomes[o]; ok {
			parts = append(parts, fmt.Sprintf("%s: %d", o, n))
		}
	}
	return strings.Join(parts, ", ")
}

// BuildDigest formats the daily summary for one chat. Returns ok=false
// when the chat has no walk history; such chats get no digest.
func BuildDigest(s stats.Stats, loc *time.Location) (string, bool) {
	if s.Count == 0 {
		return "", false
	}

	lastLocal := s.Last.In(loc).Format("15:04 02-01")
	msg := fmt.Sprintf("☀️ Resumen diario de ayer\n"+
		"Paseos: %d | Último: %s\n"+
		"Tiempo medio entre paseos: %.1f h\n"+
		"Cacas: %s",
		s.Count, lastLocal, s.AvgGapHours, FormatTally(s.Outcomes))
	return msg, true
}

// RunDigests sends the daily digest to every chat with walk history.
// Digests never touch alert bookkeeping; a failed chat is skipped.
func (e *Engine) RunDigests(ctx context.Context) {
	groups, err := e.store.Groups(ctx)
	if err != nil {
		e.logger.Error("Digest: list chats failed", "error", err)
		return
	}

	for _, groupID := range groups {
		if ctx.Err() != nil {
			return
		}

		walks, err := e.store.Walks(ctx, groupID)
		if err != nil {
			e.logger.Warn("Digest: load walks failed", "chat_id", groupID, "error", err)
			continue
		}

		msg, ok := BuildDigest(stats.Compute(walks), e.cfg.Location)
		if !ok {
			continue
		}

		if err := e.sender.SendMessage(ctx, groupID, msg); err != nil {
			metrics.IncDeliveryFailure()
			e.logger.Warn("Digest: send failed", "chat_id", groupID, "error", err)
			continue
		}
		metrics.IncDigestSent()
	}
}
