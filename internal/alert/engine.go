package alert

import (
	"context"
	"fmt"
	"time"

	"github.com/marinarosell/dora-bot/internal/metrics"
)

// Evaluate decides whether chat groupID needs a reminder at now (UTC) and
// sends it. Returns whether a reminder was emitted. The last-alert
// timestamp is only advanced after the send succeeds; a delivery failure
// is returned so the caller can log it, and the next tick retries.
func (e *Engine) Evaluate(ctx context.Context, groupID int64, now time.Time) (bool, error) {
	e.locks.Lock(groupID)
	defer e.locks.Unlock(groupID)

	// Nothing ever reported: the chat cannot be overdue.
	latest, ok, err := e.store.LatestWalkTime(ctx, groupID)
	if err != nil {
		return false, fmt.Errorf("latest walk time: %w", err)
	}
	if !ok {
		return false, nil
	}

	elapsed := now.Sub(latest).Hours()
	if elapsed < e.cfg.MaxHours {
		return false, nil
	}

	// Overdue but quiet: wait silently, the next tick re-evaluates.
	if inQuietWindow(now.In(e.cfg.Location), e.cfg.QuietStart, e.cfg.QuietEnd) {
		return false, nil
	}

	lastAlert, ok, err := e.store.LastAlert(ctx, groupID)
	if err != nil {
		return false, fmt.Errorf("last alert: %w", err)
	}
	if ok && now.Sub(lastAlert) < throttleWindow {
		return false, nil
	}

	text := fmt.Sprintf("⏰ Han pasado %.1fh desde la última salida de Dora. Alguien la puede sacar?", elapsed)
	if err := e.sender.SendMessage(ctx, groupID, text); err != nil {
		metrics.IncDeliveryFailure()
		return false, fmt.Errorf("send reminder: %w", err)
	}

	if err := e.store.SetLastAlert(ctx, groupID, now); err != nil {
		return true, fmt.Errorf("set last alert: %w", err)
	}

	metrics.IncAlertEmitted()
	e.logger.Info("Reminder sent", "chat_id", groupID, "hours_since_walk", fmt.Sprintf("%.1f", elapsed))
	return true, nil
}

// Sweep evaluates every known chat. One chat's failure is logged and
// skipped so it never blocks the rest of the tick.
func (e *Engine) Sweep(ctx context.Context, now time.Time) {
	start := time.Now()
	defer func() { metrics.ObserveSweepDuration(time.Since(start)) }()

	groups, err := e.store.Groups(ctx)
	if err != nil {
		e.logger.Error("Sweep: list chats failed", "error", err)
		return
	}

	for _, groupID := range groups {
		if ctx.Err() != nil {
			return
		}
		if _, err := e.Evaluate(ctx, groupID, now); err != nil {
			e.logger.Warn("Sweep: chat evaluation failed", "chat_id", groupID, "error", err)
		}
	}
}
