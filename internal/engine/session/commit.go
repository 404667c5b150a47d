package session

import (
	"log/slog"
	"time"

	"github.com/KirkDiggler/rpg-combat/internal/entities/combat"
	"github.com/KirkDiggler/rpg-combat/internal/errors"
)

// eventLog collects the events of one step before they are sequenced
type eventLog struct {
	now    time.Time
	events []combat.Event
}

func (l *eventLog) add(w *combat.Session, e combat.Event) {
	e.Round = w.Round
	e.Timestamp = l.now
	l.events = append(l.events, e)
}

// commit runs fn against a clone of s and replaces s with the clone only if fn
// and the invariant check both succeed. It returns the appended events.
func commit(s *combat.Session, now time.Time, fn func(w *combat.Session, log *eventLog) error) ([]combat.Event, error) {
	if s == nil {
		return nil, errors.InvalidArgument("session is required")
	}

	work := s.Clone()
	log := &eventLog{now: now}

	if err := fn(work, log); err != nil {
		return nil, err
	}

	if err := checkInvariants(work); err != nil {
		slog.Error("combat invariant violated",
			"session_id", s.ID,
			"status", work.Status,
			"round", work.Round,
			"error", err)
		return nil, err
	}

	appended := work.AppendEvents(log.events...)
	work.LastActivityAt = now
	*s = *work

	out := make([]combat.Event, len(appended))
	for i := range appended {
		out[i] = appended[i].Clone()
	}
	return out, nil
}

// checkInvariants verifies the properties every committed session must hold
func checkInvariants(s *combat.Session) error {
	for _, p := range s.Participants() {
		if p.HP < 0 || p.HP > p.MaxHP {
			return violation("participant %s hp %d outside [0, %d]", p.ID, p.HP, p.MaxHP)
		}
		if p.Alive != (p.HP > 0) {
			return violation("participant %s alive=%t with hp %d", p.ID, p.Alive, p.HP)
		}
		if p.AP < 0 {
			return violation("participant %s has negative ap %d", p.ID, p.AP)
		}
	}

	switch s.Status {
	case combat.StatusActive, combat.StatusAwaitingSurrenderVote:
		if s.CurrentTurn < 0 || s.CurrentTurn >= len(s.TurnOrder) {
			return violation("turn index %d outside order of %d", s.CurrentTurn, len(s.TurnOrder))
		}
		p, ok := s.Participant(s.CurrentParticipantID())
		if !ok || !p.InCombat() {
			return violation("current participant %q cannot act", s.CurrentParticipantID())
		}
		if s.Status == combat.StatusAwaitingSurrenderVote && s.Surrender == nil {
			return violation("awaiting surrender vote without a vote")
		}
	case combat.StatusEnded:
		if !s.Outcome.Valid() {
			return violation("ended session has outcome %q", s.Outcome)
		}
	}

	return nil
}

func violation(format string, args ...interface{}) error {
	return errors.Internalf(format, args...).WithReason(combat.ReasonInvariantViolation)
}
