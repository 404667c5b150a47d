package session

import (
	"time"

	"github.com/KirkDiggler/rpg-combat/internal/entities/combat"
	"github.com/KirkDiggler/rpg-combat/internal/errors"
)

// Surrender vote results recorded on surrender_resolved
const (
	SurrenderPassed = "passed"
	SurrenderFailed = "failed"
)

// RequestSurrender opens a vote for the requester's team to concede. The
// requester's YES is recorded immediately.
func (m *Machine) RequestSurrender(s *combat.Session, participantID string, now time.Time) ([]combat.Event, error) {
	return commit(s, now, func(w *combat.Session, log *eventLog) error {
		if w.Status != combat.StatusActive {
			return errors.FailedPreconditionf("cannot request surrender while %s", w.Status).
				WithReason(combat.ReasonSessionNotActive)
		}

		p, ok := w.Participant(participantID)
		if !ok {
			return errors.NotFoundf("participant %s not found", participantID).
				WithReason(combat.ReasonActorNotFound).
				WithMeta("participant_id", participantID)
		}
		if !p.InCombat() {
			return errors.InvalidArgumentf("participant %s is out of combat", participantID).
				WithReason(combat.ReasonActorDefeated).
				WithMeta("participant_id", participantID)
		}

		w.Surrender = &combat.SurrenderState{
			TeamID:      p.TeamID,
			RequestedBy: p.ID,
			RequestedAt: now,
			Electorate:  m.electorateFor(w, p.TeamID),
			Votes:       map[string]combat.Ballot{p.ID: combat.BallotYes},
		}
		w.Status = combat.StatusAwaitingSurrenderVote

		log.add(w, combat.Event{Kind: combat.EventSurrenderRequested, ActorID: p.ID, TeamID: p.TeamID})
		log.add(w, combat.Event{Kind: combat.EventSurrenderVoteCast, ActorID: p.ID, TeamID: p.TeamID, Ballot: combat.BallotYes})

		if w.Surrender.Complete() {
			resolveSurrender(w, log)
		}
		return nil
	})
}

// CastVote records one ballot and resolves the vote once everyone has voted
func (m *Machine) CastVote(s *combat.Session, participantID string, ballot combat.Ballot, now time.Time) ([]combat.Event, error) {
	return commit(s, now, func(w *combat.Session, log *eventLog) error {
		if w.Status != combat.StatusAwaitingSurrenderVote || w.Surrender == nil {
			return errors.FailedPrecondition("no surrender vote in progress").
				WithReason(combat.ReasonNoVoteInProgress)
		}
		if !ballot.Valid() {
			return errors.InvalidArgumentf("invalid ballot %q", ballot).
				WithReason(combat.ReasonInvalidBallot)
		}

		p, ok := w.Participant(participantID)
		if !ok {
			return errors.NotFoundf("participant %s not found", participantID).
				WithReason(combat.ReasonActorNotFound).
				WithMeta("participant_id", participantID)
		}
		if !w.Surrender.Eligible(p.ID) {
			return errors.InvalidArgumentf("participant %s may not vote", p.ID).
				WithReason(combat.ReasonNotEligibleVoter).
				WithMeta("participant_id", p.ID)
		}
		if _, voted := w.Surrender.Votes[p.ID]; voted {
			return errors.InvalidArgumentf("participant %s already voted", p.ID).
				WithReason(combat.ReasonAlreadyVoted).
				WithMeta("participant_id", p.ID)
		}

		w.Surrender.Votes[p.ID] = ballot
		log.add(w, combat.Event{Kind: combat.EventSurrenderVoteCast, ActorID: p.ID, TeamID: p.TeamID, Ballot: ballot})

		if w.Surrender.Complete() {
			resolveSurrender(w, log)
		}
		return nil
	})
}

func (m *Machine) electorateFor(w *combat.Session, teamID string) []string {
	var ids []string
	for _, p := range w.Participants() {
		if !p.InCombat() {
			continue
		}
		if m.electorate == combat.ElectorateTeam && p.TeamID != teamID {
			continue
		}
		ids = append(ids, p.ID)
	}
	return ids
}

// resolveSurrender ends the session with DEFEAT for the surrendering team when
// the vote passed, and resumes play otherwise
func resolveSurrender(w *combat.Session, log *eventLog) {
	vote := w.Surrender
	passed := vote.Passed()

	detail := SurrenderFailed
	if passed {
		detail = SurrenderPassed
	}
	log.add(w, combat.Event{Kind: combat.EventSurrenderResolved, TeamID: vote.TeamID, Detail: detail})

	if !passed {
		w.Surrender = nil
		w.Status = combat.StatusActive
		return
	}

	var winner string
	var others []*combat.Team
	for _, t := range w.TeamsInCombat() {
		if t.ID != vote.TeamID {
			others = append(others, t)
		}
	}
	if len(others) == 1 {
		winner = others[0].ID
	}

	endSession(w, log, combat.OutcomeDefeat, winner, vote.TeamID)
}
