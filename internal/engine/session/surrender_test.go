package session_test

import (
	"github.com/KirkDiggler/rpg-combat/internal/engine/session"
	"github.com/KirkDiggler/rpg-combat/internal/entities/combat"
	"github.com/KirkDiggler/rpg-combat/internal/errors"
	"github.com/KirkDiggler/rpg-combat/internal/testutils"
)

func (s *MachineTestSuite) TestSurrenderPassesWithAbstention() {
	sess := s.started(testutils.SkirmishTeams())

	events, err := s.machine.RequestSurrender(sess, "knight", s.now)
	s.Require().NoError(err)
	s.Equal([]combat.EventKind{combat.EventSurrenderRequested, combat.EventSurrenderVoteCast}, kinds(events))
	s.Equal(combat.StatusAwaitingSurrenderVote, sess.Status)
	s.Equal([]string{"knight", "rogue", "troll"}, sess.Surrender.Electorate)

	_, err = s.machine.CastVote(sess, "rogue", combat.BallotYes, s.now)
	s.Require().NoError(err)
	s.Equal(combat.StatusAwaitingSurrenderVote, sess.Status)

	events, err = s.machine.CastVote(sess, "troll", combat.BallotAbstain, s.now)
	s.Require().NoError(err)
	s.Equal([]combat.EventKind{
		combat.EventSurrenderVoteCast,
		combat.EventSurrenderResolved,
		combat.EventSessionEnded,
	}, kinds(events))
	s.Equal(session.SurrenderPassed, events[1].Detail)

	s.Equal(combat.StatusEnded, sess.Status)
	s.Equal(combat.OutcomeDefeat, sess.Outcome)
	s.Equal("red", sess.LosingTeamID)
	s.Equal("blue", sess.WinningTeamID)
	s.Nil(sess.Surrender)
}

func (s *MachineTestSuite) TestSurrenderFailsAndPlayResumes() {
	sess := s.started(testutils.SkirmishTeams())

	_, err := s.machine.RequestSurrender(sess, "rogue", s.now)
	s.Require().NoError(err)

	_, err = s.machine.SubmitAction(sess, attack("knight", 1, "troll"), testutils.NewScriptedRoller(), s.now)
	s.Equal(combat.ReasonSessionNotActive, errors.GetReason(err), "no actions while a vote is open")

	_, err = s.machine.CastVote(sess, "knight", combat.BallotNo, s.now)
	s.Require().NoError(err)
	events, err := s.machine.CastVote(sess, "troll", combat.BallotNo, s.now)
	s.Require().NoError(err)

	s.Equal(session.SurrenderFailed, events[len(events)-1].Detail)
	s.Equal(combat.StatusActive, sess.Status)
	s.Nil(sess.Surrender)
	s.Equal("knight", sess.CurrentParticipantID(), "the turn is unchanged by a failed vote")

	s.act(sess, attack("knight", 1, "troll"))
}

func (s *MachineTestSuite) TestAllAbstainFails() {
	m := newMachine(s.T(), combat.ElectorateTeam)
	sess, err := session.New("s1", testutils.SkirmishTeams(), s.now, 1)
	s.Require().NoError(err)
	_, err = m.Start(sess, s.now)
	s.Require().NoError(err)

	_, err = m.RequestSurrender(sess, "troll", s.now)
	s.Require().NoError(err)
	s.Equal(combat.StatusEnded, sess.Status, "a lone voter decides immediately")
	s.Equal("blue", sess.LosingTeamID)

	sess, err = session.New("s2", testutils.SkirmishTeams(), s.now, 1)
	s.Require().NoError(err)
	_, err = m.Start(sess, s.now)
	s.Require().NoError(err)

	_, err = m.RequestSurrender(sess, "knight", s.now)
	s.Require().NoError(err)
	sess.Surrender.Votes["knight"] = combat.BallotAbstain
	_, err = m.CastVote(sess, "rogue", combat.BallotAbstain, s.now)
	s.Require().NoError(err)
	s.Equal(combat.StatusActive, sess.Status)
}

func (s *MachineTestSuite) TestVoteErrors() {
	m := newMachine(s.T(), combat.ElectorateTeam)
	sess, err := session.New("s1", testutils.SkirmishTeams(), s.now, 1)
	s.Require().NoError(err)

	_, err = m.RequestSurrender(sess, "knight", s.now)
	s.Equal(combat.ReasonSessionNotActive, errors.GetReason(err))

	_, err = m.Start(sess, s.now)
	s.Require().NoError(err)

	_, err = m.CastVote(sess, "rogue", combat.BallotYes, s.now)
	s.True(errors.IsFailedPrecondition(err))
	s.Equal(combat.ReasonNoVoteInProgress, errors.GetReason(err))

	_, err = m.RequestSurrender(sess, "nobody", s.now)
	s.True(errors.IsNotFound(err))

	_, err = m.RequestSurrender(sess, "knight", s.now)
	s.Require().NoError(err)
	s.Equal([]string{"knight", "rogue"}, sess.Surrender.Electorate)

	testCases := []struct {
		name   string
		voter  string
		ballot combat.Ballot
		reason string
	}{
		{name: "bad ballot", voter: "rogue", ballot: "MAYBE", reason: combat.ReasonInvalidBallot},
		{name: "unknown voter", voter: "nobody", ballot: combat.BallotYes, reason: combat.ReasonActorNotFound},
		{name: "other team", voter: "troll", ballot: combat.BallotYes, reason: combat.ReasonNotEligibleVoter},
		{name: "double vote", voter: "knight", ballot: combat.BallotNo, reason: combat.ReasonAlreadyVoted},
	}

	for _, tc := range testCases {
		s.Run(tc.name, func() {
			before := sess.Clone()
			_, err := m.CastVote(sess, tc.voter, tc.ballot, s.now)
			s.Require().Error(err)
			s.Equal(tc.reason, errors.GetReason(err))
			s.Equal(before, sess)
		})
	}
}
