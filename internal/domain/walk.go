// Package domain holds the core types shared across the bot: walks,
// groups, and outcome categories.
package domain

import "time"

// Outcome is the poop classification attached to a walk after the fact.
type Outcome string

const (
	OutcomeNormal   Outcome = "Normal"
	OutcomeSoft     Outcome = "Blanda"
	OutcomeDiarrhea Outcome = "Diarrea"
	OutcomeNone     Outcome = "none"

	// OutcomeUnknown is the synthetic category for walks whose outcome
	// was never reported. Never stored, only used in tallies.
	OutcomeUnknown Outcome = "unknown"
)

// ParseOutcomeToken maps a callback token (poop_ok, poop_soft, ...) to an
// outcome. Returns ErrUnknownOutcome for anything else.
func ParseOutcomeToken(token string) (Outcome, error) {
	switch token {
	case "poop_ok":
		return OutcomeNormal, nil
	case "poop_soft":
		return OutcomeSoft, nil
	case "poop_diarrhea":
		return OutcomeDiarrhea, nil
	case "poop_none":
		return OutcomeNone, nil
	default:
		return "", ErrUnknownOutcome
	}
}

// Walk is one reported walk. Immutable after insert except for the
// one-time best-effort outcome attachment.
type Walk struct {
	ID           int64
	GroupID      int64
	ReporterID   int64
	ReporterName string
	WalkedAt     time.Time // UTC
	Outcome      Outcome   // empty until attached
}

// TallyOutcome returns the outcome as it should appear in statistics,
// folding the unset case into OutcomeUnknown.
func (w Walk) TallyOutcome() Outcome {
	if w.Outcome == "" {
		return OutcomeUnknown
	}
	return w.Outcome
}

// Group is one tracked chat. Created the first time the chat is seen,
// never deleted.
type Group struct {
	ID          int64
	Title       string
	LastAlertAt *time.Time // nil until the first reminder fired
}
