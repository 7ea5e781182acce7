// Package alert decides, per chat, whether an overdue-walk reminder should
// fire right now, and builds the daily digest.
//
// Decision order for a reminder: walk history → overdue threshold → quiet
// window → throttle. Each check short-circuits; only a successfully
// delivered reminder updates the last-alert timestamp, so a failed send
// is retried on the next sweep tick.
package alert

import (
	"context"
	"log/slog"
	"time"

	"github.com/marinarosell/dora-bot/internal/config"
	"github.com/marinarosell/dora-bot/internal/grouplock"
	"github.com/marinarosell/dora-bot/internal/store"
)

// --------------------------------------------------------------------------
// Constants
// --------------------------------------------------------------------------

// throttleWindow is the minimum interval between two reminders for the
// same chat. Deliberately independent of MAX_HOURS_WITHOUT_WALK.
const throttleWindow = 6 * time.Hour

// --------------------------------------------------------------------------
// Types
// --------------------------------------------------------------------------

// Sender delivers outbound messages. Implemented by the Telegram client.
type Sender interface {
	SendMessage(ctx context.Context, chatID int64, text string) error
}

// Engine evaluates reminder decisions and generates digests for all
// known chats.
type Engine struct {
	store  store.Store
	sender Sender
	locks  *grouplock.Set
	cfg    *config.Config
	logger *slog.Logger
}

func NewEngine(st store.Store, sender Sender, locks *grouplock.Set, cfg *config.Config, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		store:  st,
		sender: sender,
		locks:  locks,
		cfg:    cfg,
		logger: logger,
	}
}
