package alert

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/marinarosell/dora-bot/internal/config"
	"github.com/marinarosell/dora-bot/internal/domain"
	"github.com/marinarosell/dora-bot/internal/grouplock"
	"github.com/marinarosell/dora-bot/internal/stats"
	"github.com/marinarosell/dora-bot/internal/store"
)

type fakeSender struct {
	sent []string
	fail bool
}

func (f *fakeSender) SendMessage(ctx context.Context, chatID int64, text string) error {
	if f.fail {
		return errors.New("telegram unavailable")
	}
	f.sent = append(f.sent, text)
	return nil
}

func testConfig() *config.Config {
	return &config.Config{
		Location:   time.UTC,
		MaxHours:   6,
		QuietStart: config.ClockTime{Hour: 23},
		QuietEnd:   config.ClockTime{Hour: 7, Minute: 30},
	}
}

func testEngine(st store.Store, sender Sender) *Engine {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewEngine(st, sender, grouplock.New(), testConfig(), logger)
}

// 14:00 UTC, outside the 23:00–07:30 quiet window.
var afternoon = time.Date(2025, 3, 1, 14, 0, 0, 0, time.UTC)

func TestEvaluateNoWalksNoAction(t *testing.T) {
	sender := &fakeSender{}
	e := testEngine(store.NewMemory(), sender)

	emitted, err := e.Evaluate(context.Background(), 1, afternoon)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if emitted {
		t.Fatal("expected no reminder for a chat with no walks")
	}
}

func TestEvaluateNotOverdueNoAction(t *testing.T) {
	ctx := context.Background()
	m := store.NewMemory()
	m.RecordWalk(ctx, domain.Walk{GroupID: 1, WalkedAt: afternoon.Add(-5 * time.Hour)})
	sender := &fakeSender{}
	e := testEngine(m, sender)

	emitted, err := e.Evaluate(ctx, 1, afternoon)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if emitted || len(sender.sent) != 0 {
		t.Fatal("expected no reminder below the overdue threshold")
	}
}

func TestEvaluateOverdueEmits(t *testing.T) {
	ctx := context.Background()
	m := store.NewMemory()
	m.RecordWalk(ctx, domain.Walk{GroupID: 1, WalkedAt: afternoon.Add(-7 * time.Hour)})
	sender := &fakeSender{}
	e := testEngine(m, sender)

	emitted, err := e.Evaluate(ctx, 1, afternoon)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if !emitted {
		t.Fatal("expected a reminder: 7h since last walk, threshold 6h")
	}
	if len(sender.sent) != 1 {
		t.Fatalf("expected 1 message, got %d", len(sender.sent))
	}
	if want := "7.0h"; !strings.Contains(sender.sent[0], want) {
		t.Fatalf("message %q does not mention %q", sender.sent[0], want)
	}

	// The emission must record the alert timestamp.
	last, ok, err := m.LastAlert(ctx, 1)
	if err != nil || !ok || !last.Equal(afternoon) {
		t.Fatalf("last alert = (%v, %v, %v), want (%v, true, nil)", last, ok, err, afternoon)
	}
}

func TestEvaluateQuietWindowSuppresses(t *testing.T) {
	ctx := context.Background()
	// 23:30 UTC: inside the wrapping quiet window.
	night := time.Date(2025, 3, 1, 23, 30, 0, 0, time.UTC)
	m := store.NewMemory()
	m.RecordWalk(ctx, domain.Walk{GroupID: 1, WalkedAt: night.Add(-7 * time.Hour)})
	sender := &fakeSender{}
	e := testEngine(m, sender)

	emitted, err := e.Evaluate(ctx, 1, night)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if emitted || len(sender.sent) != 0 {
		t.Fatal("expected suppression inside the quiet window")
	}
	// Quiet suppression must not burn the throttle.
	if _, ok, _ := m.LastAlert(ctx, 1); ok {
		t.Fatal("quiet suppression must not record an alert")
	}
}

func TestEvaluateThrottleWindow(t *testing.T) {
	ctx := context.Background()
	m := store.NewMemory()
	m.RecordWalk(ctx, domain.Walk{GroupID: 1, WalkedAt: afternoon.Add(-24 * time.Hour)})
	sender := &fakeSender{}
	e := testEngine(m, sender)

	alertAt := afternoon.Add(-time.Hour)
	m.SetLastAlert(ctx, 1, alertAt)

	// 1h after the previous alert: throttled.
	emitted, err := e.Evaluate(ctx, 1, afternoon)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if emitted {
		t.Fatal("expected throttle to suppress a reminder 1h after the previous one")
	}

	// Just under 6h after the previous alert: still throttled.
	justUnder := alertAt.Add(6*time.Hour - time.Minute)
	if emitted, _ := e.Evaluate(ctx, 1, justUnder); emitted {
		t.Fatal("expected throttle at T+5h59m")
	}

	// Past 6h: the reminder fires again.
	past := alertAt.Add(6*time.Hour + time.Minute)
	emitted, err = e.Evaluate(ctx, 1, past)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if !emitted {
		t.Fatal("expected a reminder once the throttle window elapsed")
	}
}

func TestEvaluateDeliveryFailureKeepsBookkeeping(t *testing.T) {
	ctx := context.Background()
	m := store.NewMemory()
	m.RecordWalk(ctx, domain.Walk{GroupID: 1, WalkedAt: afternoon.Add(-7 * time.Hour)})
	sender := &fakeSender{fail: true}
	e := testEngine(m, sender)

	emitted, err := e.Evaluate(ctx, 1, afternoon)
	if err == nil {
		t.Fatal("expected delivery error to surface")
	}
	if emitted {
		t.Fatal("failed delivery must not count as emitted")
	}
	// No bookkeeping update means the next tick retries.
	if _, ok, _ := m.LastAlert(ctx, 1); ok {
		t.Fatal("failed delivery must not record an alert")
	}

	sender.fail = false
	emitted, err = e.Evaluate(ctx, 1, afternoon.Add(time.Minute))
	if err != nil {
		t.Fatalf("retry Evaluate: %v", err)
	}
	if !emitted {
		t.Fatal("expected the retry to emit")
	}
}

func TestSweepContinuesPastFailingChat(t *testing.T) {
	ctx := context.Background()
	m := store.NewMemory()
	// Chat 1 is overdue but delivery fails for it; chat 2 is overdue too.
	m.RecordWalk(ctx, domain.Walk{GroupID: 1, WalkedAt: afternoon.Add(-8 * time.Hour)})
	m.RecordWalk(ctx, domain.Walk{GroupID: 2, WalkedAt: afternoon.Add(-8 * time.Hour)})

	sender := &selectiveSender{failFor: 1}
	e := testEngine(m, sender)

	e.Sweep(ctx, afternoon)

	if _, ok, _ := m.LastAlert(ctx, 1); ok {
		t.Fatal("chat 1's failed delivery must not record an alert")
	}
	if _, ok, _ := m.LastAlert(ctx, 2); !ok {
		t.Fatal("chat 2 should have been alerted despite chat 1 failing")
	}
}

type selectiveSender struct {
	failFor int64
	sent    []int64
}

func (s *selectiveSender) SendMessage(ctx context.Context, chatID int64, text string) error {
	if chatID == s.failFor {
		return errors.New("telegram unavailable")
	}
	s.sent = append(s.sent, chatID)
	return nil
}

func TestRunDigestsSkipsEmptyChats(t *testing.T) {
	ctx := context.Background()
	m := store.NewMemory()
	m.EnsureGroup(ctx, 1, "vacío")
	m.RecordWalk(ctx, domain.Walk{GroupID: 2, WalkedAt: afternoon.Add(-3 * time.Hour), Outcome: domain.OutcomeNormal})
	sender := &fakeSender{}
	e := testEngine(m, sender)

	e.RunDigests(ctx)

	if len(sender.sent) != 1 {
		t.Fatalf("expected 1 digest (empty chat skipped), got %d", len(sender.sent))
	}
	if !strings.Contains(sender.sent[0], "Resumen diario") {
		t.Fatalf("unexpected digest text %q", sender.sent[0])
	}
	// Digests never touch alert bookkeeping.
	if _, ok, _ := m.LastAlert(ctx, 2); ok {
		t.Fatal("digest must not record an alert")
	}
}

func TestBuildDigestFormatting(t *testing.T) {
	loc, err := time.LoadLocation("Europe/Madrid")
	if err != nil {
		t.Fatalf("load location: %v", err)
	}

	s := stats.Stats{
		Count:       3,
		Last:        time.Date(2025, 3, 1, 17, 45, 0, 0, time.UTC), // 18:45 CET
		AvgGapHours: 2.5,
		Outcomes: map[domain.Outcome]int{
			domain.OutcomeNormal:  2,
			domain.OutcomeUnknown: 1,
		},
	}
	msg, ok := BuildDigest(s, loc)
	if !ok {
		t.Fatal("expected a digest")
	}
	for _, want := range []string{"Paseos: 3", "18:45 01-03", "2.5 h", "Normal: 2", "unknown: 1"} {
		if !strings.Contains(msg, want) {
			t.Fatalf("digest %q missing %q", msg, want)
		}
	}

	if _, ok := BuildDigest(stats.Stats{}, loc); ok {
		t.Fatal("expected no digest for empty stats")
	}
}
