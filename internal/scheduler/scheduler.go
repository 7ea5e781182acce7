// Package scheduler drives the periodic work as Go tickers: the overdue
// sweep on a fixed cadence and the digest once a day at a fixed local
// time. The two timers are independent and may overlap; per-group locks
// inside the engine keep overlapping work safe.
package scheduler

import (
	"context"
	"log/slog"
	"time"

	"github.com/marinarosell/dora-bot/internal/alert"
	"github.com/marinarosell/dora-bot/internal/config"
)

// Start launches the sweep and digest loops. Blocks until ctx is
// cancelled. Intended to be called with `go`.
func Start(ctx context.Context, engine *alert.Engine, cfg *config.Config, logger *slog.Logger) {
	logger.Info("Scheduler started",
		"sweep_interval", cfg.SweepInterval,
		"digest_time", cfg.DigestTime.String(),
		"timezone", cfg.Timezone)

	go sweepLoop(ctx, engine, cfg.SweepInterval)
	go digestLoop(ctx, engine, cfg, logger)

	<-ctx.Done()
	logger.Info("Scheduler stopped")
}

func sweepLoop(ctx context.Context, engine *alert.Engine, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			engine.Sweep(ctx, time.Now().UTC())
		case <-ctx.Done():
			return
		}
	}
}

func digestLoop(ctx context.Context, engine *alert.Engine, cfg *config.Config, logger *slog.Logger) {
	for {
		next := nextDigestAfter(time.Now(), cfg.DigestTime, cfg.Location)
		logger.Info("Next digest scheduled", "at", next.Format(time.RFC3339))

		timer := time.NewTimer(time.Until(next))
		select {
		case <-timer.C:
			engine.RunDigests(ctx)
		case <-ctx.Done():
			timer.Stop()
			return
		}
	}
}

// nextDigestAfter returns the first instant strictly after now whose
// local wall clock reads the digest time.
func nextDigestAfter(now time.Time, at config.ClockTime, loc *time.Location) time.Time {
	local := now.In(loc)
	next := time.Date(local.Year(), local.Month(), local.Day(), at.Hour, at.Minute, 0, 0, loc)
	if !next.After(local) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}
