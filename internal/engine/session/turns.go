package session

import (
	"github.com/KirkDiggler/rpg-combat/internal/engine/effects"
	"github.com/KirkDiggler/rpg-combat/internal/entities/combat"
	"github.com/KirkDiggler/rpg-combat/internal/errors"
)

// maxSkippedRounds bounds how many full rounds may pass without anyone
// getting to act before the turn loop is treated as a bug
const maxSkippedRounds = 64

// beginTurn starts the turn at the current index. Participants out of combat
// are passed over; stunned ones tick and skip. It returns once a participant
// can act or the session ended.
func (m *Machine) beginTurn(w *combat.Session, log *eventLog) error {
	limit := len(w.TurnOrder)*maxSkippedRounds + 1

	for step := 0; step < limit; step++ {
		id := w.CurrentParticipantID()
		p, ok := w.Participant(id)
		if !ok {
			return errors.Internalf("turn order references unknown participant %q", id).
				WithReason(combat.ReasonInvariantViolation)
		}

		if !p.InCombat() {
			advance(w, log)
			continue
		}

		regen := p.APRegen
		if p.AP+regen > p.MaxAP {
			regen = p.MaxAP - p.AP
		}
		if regen < 0 {
			regen = 0
		}
		p.AP += regen
		log.add(w, combat.Event{Kind: combat.EventTurnStarted, ActorID: p.ID, TargetID: p.ID, ResourceDelta: regen})

		// Stun is read before the tick so a one-turn stun costs a turn
		stunned := effects.Has(p, combat.CategoryStun)

		tick := m.tracker.Tick(p)
		for _, t := range tick.Ticked {
			log.add(w, combat.Event{
				Kind:       combat.EventEffectTicked,
				ActorID:    t.Effect.SourceID,
				TargetID:   p.ID,
				EffectType: t.Effect.Type,
				HPDelta:    t.HPDelta,
			})
		}
		for _, e := range tick.Expired {
			log.add(w, combat.Event{Kind: combat.EventEffectExpired, TargetID: p.ID, EffectType: e.Type})
		}

		if tick.Defeated {
			log.add(w, combat.Event{Kind: combat.EventParticipantDefeated, TargetID: p.ID, TeamID: p.TeamID})
			if checkTermination(w, log) {
				return nil
			}
			advance(w, log)
			continue
		}

		if stunned {
			log.add(w, combat.Event{Kind: combat.EventTurnSkipped, ActorID: p.ID, TargetID: p.ID, Detail: "stunned"})
			advance(w, log)
			continue
		}

		return nil
	}

	return errors.Internalf("no participant could act after %d turn steps", limit).
		WithReason(combat.ReasonInvariantViolation)
}

// advance moves the index to the next slot, wrapping into a new round
func advance(w *combat.Session, log *eventLog) {
	w.CurrentTurn++
	if w.CurrentTurn >= len(w.TurnOrder) {
		w.CurrentTurn = 0
		w.Round++
		log.add(w, combat.Event{Kind: combat.EventRoundStarted})
	}
}

// checkTermination ends the session when at most one team can still fight
func checkTermination(w *combat.Session, log *eventLog) bool {
	if w.IsEnded() {
		return true
	}

	remaining := w.TeamsInCombat()
	switch len(remaining) {
	case 0:
		endSession(w, log, combat.OutcomeDraw, "", "")
	case 1:
		endSession(w, log, combat.OutcomeVictory, remaining[0].ID, "")
	default:
		return false
	}
	return true
}

func endSession(w *combat.Session, log *eventLog, outcome combat.Outcome, winner, loser string) {
	w.Status = combat.StatusEnded
	w.Outcome = outcome
	w.WinningTeamID = winner
	w.LosingTeamID = loser
	w.EndedAt = log.now
	w.Surrender = nil

	teamID := winner
	if teamID == "" {
		teamID = loser
	}
	log.add(w, combat.Event{Kind: combat.EventSessionEnded, Outcome: outcome, TeamID: teamID})
}
