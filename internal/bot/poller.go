package bot

import (
	"context"
	"time"
)

const pollRetryBackoff = 5 * time.Second

// Run long-polls Telegram for updates until ctx is cancelled. Each update
// is handled in its own goroutine; the per-group locks serialize store
// access, so concurrent updates for the same chat stay ordered at the
// store boundary. Intended to be called with `go`.
func (b *Bot) Run(ctx context.Context) {
	b.logger.Info("Telegram poller started")
	var offset int64

	for {
		if ctx.Err() != nil {
			b.logger.Info("Telegram poller stopped")
			return
		}

		updates, err := b.transport.GetUpdates(ctx, offset)
		if err != nil {
			if ctx.Err() != nil {
				b.logger.Info("Telegram poller stopped")
				return
			}
			b.logger.Warn("get updates failed, retrying", "error", err, "backoff", pollRetryBackoff)
			select {
			case <-time.After(pollRetryBackoff):
			case <-ctx.Done():
			}
			continue
		}

		for _, u := range updates {
			if u.UpdateID >= offset {
				offset = u.UpdateID + 1
			}
			go b.HandleUpdate(ctx, u)
		}
	}
}
