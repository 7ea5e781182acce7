package bot

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/marinarosell/dora-bot/internal/alert"
	"github.com/marinarosell/dora-bot/internal/domain"
	"github.com/marinarosell/dora-bot/internal/export"
	"github.com/marinarosell/dora-bot/internal/metrics"
	"github.com/marinarosell/dora-bot/internal/stats"
	"github.com/marinarosell/dora-bot/internal/telegram"
)

// Free-text phrases that count as a walk report when they appear in a
// message (privacy mode off).
var walkTriggers = []string{
	"walk", "out", "paseo", "salida",
	"he salido con dora", "sacado a dora",
}

// outcomeChoices is the poop poll keyboard shown after every logged walk.
var outcomeChoices = []telegram.Choice{
	{Label: "👍 Normal", Token: "poop_ok"},
	{Label: "😕 Blanda", Token: "poop_soft"},
	{Label: "💧 Diarrea", Token: "poop_diarrhea"},
	{Label: "❌ No caca", Token: "poop_none"},
}

// HandleUpdate routes one inbound update. Errors are logged, not
// returned: one bad update must not stop the polling loop.
func (b *Bot) HandleUpdate(ctx context.Context, u telegram.Update) {
	switch {
	case u.CallbackQuery != nil:
		b.handleOutcomeVote(ctx, *u.CallbackQuery)
	case u.Message != nil:
		b.handleMessage(ctx, *u.Message)
	}
}

func (b *Bot) handleMessage(ctx context.Context, msg telegram.Message) {
	if msg.From == nil {
		return
	}

	switch command(msg.Text) {
	case "/start":
		b.cmdStart(ctx, msg)
	case "/paseo":
		b.logWalk(ctx, msg)
	case "/stats":
		b.cmdStats(ctx, msg)
	case "/csv":
		b.cmdCSV(ctx, msg)
	case "":
		if hasWalkTrigger(msg.Text) {
			b.logWalk(ctx, msg)
		}
	}
}

// command extracts the leading bot command, stripping any @botname
// suffix. Returns "" for non-command text.
func command(text string) string {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "/") {
		return ""
	}
	cmd := strings.Fields(text)[0]
	if at := strings.IndexByte(cmd, '@'); at >= 0 {
		cmd = cmd[:at]
	}
	return cmd
}

func hasWalkTrigger(text string) bool {
	lower := strings.ToLower(strings.TrimSpace(text))
	if lower == "" {
		return false
	}
	for _, trigger := range walkTriggers {
		if strings.Contains(lower, trigger) {
			return true
		}
	}
	return false
}

// --------------------------------------------------------------------------
// Command handlers
// --------------------------------------------------------------------------

func (b *Bot) cmdStart(ctx context.Context, msg telegram.Message) {
	// Explicit registration: the chat becomes a sweep target even
	// before its first walk.
	b.locks.Lock(msg.Chat.ID)
	err := b.store.EnsureGroup(ctx, msg.Chat.ID, msg.Chat.Title)
	b.locks.Unlock(msg.Chat.ID)
	if err != nil {
		b.logger.Error("start: ensure chat failed", "chat_id", msg.Chat.ID, "error", err)
		return
	}

	b.reply(ctx, msg.Chat.ID,
		"Hola! Envía /paseo cuando saques a Dora, y luego selecciona cómo ha hecho la caca.")
}

func (b *Bot) logWalk(ctx context.Context, msg telegram.Message) {
	walk := domain.Walk{
		GroupID:      msg.Chat.ID,
		ReporterID:   msg.From.ID,
		ReporterName: msg.From.FullName(),
		WalkedAt:     time.Now().UTC(),
	}

	b.locks.Lock(msg.Chat.ID)
	_, err := b.store.RecordWalk(ctx, walk)
	b.locks.Unlock(msg.Chat.ID)
	if err != nil {
		b.logger.Error("record walk failed", "chat_id", msg.Chat.ID, "error", err)
		b.reply(ctx, msg.Chat.ID, "⚠️ No se ha podido guardar el paseo. Inténtalo de nuevo.")
		return
	}
	metrics.IncWalkRecorded()

	b.reply(ctx, msg.Chat.ID, fmt.Sprintf("✅ Paseo por %s guardado. Gracias!", msg.From.FirstName))

	if err := b.transport.SendChoicePrompt(ctx, msg.Chat.ID, "¿Cómo ha hecho la caca?", outcomeChoices); err != nil {
		b.logger.Warn("send outcome prompt failed", "chat_id", msg.Chat.ID, "error", err)
	}
}

func (b *Bot) cmdStats(ctx context.Context, msg telegram.Message) {
	walks, err := b.store.Walks(ctx, msg.Chat.ID)
	if err != nil {
		b.logger.Error("stats: load walks failed", "chat_id", msg.Chat.ID, "error", err)
		return
	}

	s := stats.Compute(walks)
	if s.Count == 0 {
		b.reply(ctx, msg.Chat.ID, "No hay ningún paseo registrado aún.")
		return
	}

	b.reply(ctx, msg.Chat.ID, fmt.Sprintf(
		"📊 Paseos: %d\n"+
			"Primero: %s\n"+
			"Último: %s\n"+
			"Tiempo medio entre paseos: %.1f h\n"+
			"Cacas: %s",
		s.Count,
		s.First.In(b.cfg.Location).Format("2006-01-02 15:04"),
		s.Last.In(b.cfg.Location).Format("2006-01-02 15:04"),
		s.AvgGapHours,
		alert.FormatTally(s.Outcomes),
	))
}

func (b *Bot) cmdCSV(ctx context.Context, msg telegram.Message) {
	walks, err := b.store.Walks(ctx, msg.Chat.ID)
	if err != nil {
		b.logger.Error("csv: load walks failed", "chat_id", msg.Chat.ID, "error", err)
		return
	}
	if len(walks) == 0 {
		b.reply(ctx, msg.Chat.ID, "No data to export.")
		return
	}

	var buf bytes.Buffer
	if err := export.Write(&buf, walks, b.cfg.Location); err != nil {
		b.logger.Error("csv: build failed", "chat_id", msg.Chat.ID, "error", err)
		return
	}
	if err := b.transport.SendDocument(ctx, msg.Chat.ID, export.Filename, &buf); err != nil {
		metrics.IncDeliveryFailure()
		b.logger.Warn("csv: send failed", "chat_id", msg.Chat.ID, "error", err)
	}
}

// --------------------------------------------------------------------------
// Outcome votes
// --------------------------------------------------------------------------

func (b *Bot) handleOutcomeVote(ctx context.Context, q telegram.CallbackQuery) {
	if err := b.transport.AnswerCallbackQuery(ctx, q.ID); err != nil {
		b.logger.Debug("answer callback failed", "callback_id", q.ID, "error", err)
	}

	outcome, err := domain.ParseOutcomeToken(q.Data)
	if errors.Is(err, domain.ErrUnknownOutcome) {
		return
	}
	if q.Message == nil {
		return
	}
	chatID := q.Message.Chat.ID

	b.locks.Lock(chatID)
	err = b.store.AttachOutcome(ctx, chatID, q.From.ID, outcome)
	b.locks.Unlock(chatID)
	if err != nil {
		b.logger.Error("attach outcome failed", "chat_id", chatID, "user_id", q.From.ID, "error", err)
		return
	}

	confirm := fmt.Sprintf("✅ Caca %s guardada", outcome)
	if err := b.transport.EditMessageText(ctx, chatID, q.Message.MessageID, confirm); err != nil {
		b.logger.Warn("edit outcome message failed", "chat_id", chatID, "error", err)
	}
}

func (b *Bot) reply(ctx context.Context, chatID int64, text string) {
	if err := b.transport.SendMessage(ctx, chatID, text); err != nil {
		metrics.IncDeliveryFailure()
		b.logger.Warn("send reply failed", "chat_id", chatID, "error", err)
	}
}
