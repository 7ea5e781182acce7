// Package bot routes inbound Telegram updates to the walk tracker:
// commands, free-text triggers, and outcome button presses.
package bot

import (
	"context"
	"io"
	"log/slog"

	"github.com/marinarosell/dora-bot/internal/config"
	"github.com/marinarosell/dora-bot/internal/grouplock"
	"github.com/marinarosell/dora-bot/internal/store"
	"github.com/marinarosell/dora-bot/internal/telegram"
)

// Transport is the outbound/polling surface the bot needs from the
// Telegram client.
type Transport interface {
	GetUpdates(ctx context.Context, offset int64) ([]telegram.Update, error)
	SendMessage(ctx context.Context, chatID int64, text string) error
	SendChoicePrompt(ctx context.Context, chatID int64, text string, choices []telegram.Choice) error
	AnswerCallbackQuery(ctx context.Context, callbackID string) error
	EditMessageText(ctx context.Context, chatID, messageID int64, text string) error
	SendDocument(ctx context.Context, chatID int64, filename string, content io.Reader) error
}

// Bot consumes inbound updates and applies them to the store.
type Bot struct {
	transport Transport
	store     store.Store
	locks     *grouplock.Set
	cfg       *config.Config
	logger    *slog.Logger
}

func New(transport Transport, st store.Store, locks *grouplock.Set, cfg *config.Config, logger *slog.Logger) *Bot {
	if logger == nil {
		logger = slog.Default()
	}
	return &Bot{
		transport: transport,
		store:     st,
		locks:     locks,
		cfg:       cfg,
		logger:    logger,
	}
}
