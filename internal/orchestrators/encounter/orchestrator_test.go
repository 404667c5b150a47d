package encounter_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/KirkDiggler/rpg-toolkit/events"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"github.com/KirkDiggler/rpg-combat/internal/engine/actions"
	"github.com/KirkDiggler/rpg-combat/internal/engine/effects"
	"github.com/KirkDiggler/rpg-combat/internal/engine/registry"
	"github.com/KirkDiggler/rpg-combat/internal/engine/session"
	"github.com/KirkDiggler/rpg-combat/internal/entities/combat"
	"github.com/KirkDiggler/rpg-combat/internal/errors"
	"github.com/KirkDiggler/rpg-combat/internal/orchestrators/encounter"
	"github.com/KirkDiggler/rpg-combat/internal/pkg/clock"
	"github.com/KirkDiggler/rpg-combat/internal/pkg/idgen"
	"github.com/KirkDiggler/rpg-combat/internal/repositories/encounters"
	encountermock "github.com/KirkDiggler/rpg-combat/internal/repositories/encounters/mock"
	"github.com/KirkDiggler/rpg-combat/internal/testutils"
)

const (
	inactivity = 10 * time.Minute
	grace      = time.Minute
)

// recordingBus captures published event types and runs onPublish, when set,
// for every event
type recordingBus struct {
	mu        sync.Mutex
	types     []string
	onPublish func()
}

func (b *recordingBus) Publish(_ context.Context, e events.Event) error {
	b.mu.Lock()
	b.types = append(b.types, e.Type())
	hook := b.onPublish
	b.mu.Unlock()

	if hook != nil {
		hook()
	}
	return nil
}
func (b *recordingBus) Subscribe(_ string, _ events.Handler) string { return "sub-id" }
func (b *recordingBus) SubscribeFunc(_ string, _ int, _ events.HandlerFunc) string {
	return "sub-id"
}
func (b *recordingBus) Unsubscribe(_ string) error { return nil }
func (b *recordingBus) Clear(_ string)             {}
func (b *recordingBus) ClearAll()                  {}

func (b *recordingBus) published() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.types...)
}

type OrchestratorTestSuite struct {
	suite.Suite
	clock        *clock.Manual
	bus          *recordingBus
	repo         *encounters.InMemoryRepository
	orchestrator encounter.Service
	ctx          context.Context
}

func TestOrchestratorSuite(t *testing.T) {
	suite.Run(t, new(OrchestratorTestSuite))
}

func (s *OrchestratorTestSuite) SetupTest() {
	s.ctx = context.Background()
	s.clock = clock.NewManual(time.Date(2026, 8, 9, 10, 0, 0, 0, time.UTC))
	s.bus = &recordingBus{}
	s.repo = encounters.NewInMemory(s.clock, time.Hour)
	s.orchestrator = s.newOrchestrator(s.repo)
}

func (s *OrchestratorTestSuite) newOrchestrator(repo encounters.Repository) encounter.Service {
	reg, err := registry.New(&registry.Config{
		LockTimeout:       time.Second,
		InactivityTimeout: inactivity,
		ResultGrace:       grace,
	})
	s.Require().NoError(err)

	tracker := effects.NewTracker(nil)
	resolver, err := actions.NewResolver(&actions.Config{Tracker: tracker})
	s.Require().NoError(err)
	machine, err := session.NewMachine(&session.Config{Resolver: resolver, Tracker: tracker})
	s.Require().NoError(err)

	svc, err := encounter.NewOrchestrator(&encounter.Config{
		IDGenerator: idgen.NewSequential("session"),
		Clock:       s.clock,
		Registry:    reg,
		Machine:     machine,
		Repository:  repo,
		EventBus:    s.bus,
		NewSeed:     func() (uint64, error) { return 4242, nil },
	})
	s.Require().NoError(err)
	return svc
}

func (s *OrchestratorTestSuite) startDuel() string {
	created, err := s.orchestrator.CreateSession(s.ctx, &encounter.CreateSessionInput{Teams: testutils.DuelTeams(), Seed: 7})
	s.Require().NoError(err)

	_, err = s.orchestrator.StartSession(s.ctx, &encounter.StartSessionInput{SessionID: created.Session.ID})
	s.Require().NoError(err)
	return created.Session.ID
}

func (s *OrchestratorTestSuite) TestNewOrchestratorValidatesConfig() {
	_, err := encounter.NewOrchestrator(&encounter.Config{})
	s.True(errors.IsInvalidArgument(err))

	_, err = encounter.NewOrchestrator(nil)
	s.Error(err)
}

func (s *OrchestratorTestSuite) TestCreateSession() {
	out, err := s.orchestrator.CreateSession(s.ctx, &encounter.CreateSessionInput{Teams: testutils.DuelTeams()})
	s.Require().NoError(err)

	s.Equal("session_1", out.Session.ID)
	s.Equal(combat.StatusForming, out.Session.Status)
	s.Equal(uint64(4242), out.Session.Seed, "zero seed asks the seed source")
	s.Len(out.Session.Teams, 2)

	_, err = s.orchestrator.CreateSession(s.ctx, &encounter.CreateSessionInput{
		Teams: []combat.TeamSetup{testutils.Team("red")},
	})
	s.Equal(combat.ReasonInvalidSetup, errors.GetReason(err))

	_, err = s.orchestrator.CreateSession(s.ctx, nil)
	s.True(errors.IsInvalidArgument(err))
}

func (s *OrchestratorTestSuite) TestAddTeamThenStart() {
	created, err := s.orchestrator.CreateSession(s.ctx, &encounter.CreateSessionInput{
		Teams: []combat.TeamSetup{testutils.Team("red", testutils.Combatant("hero", 10))},
	})
	s.Require().NoError(err)
	id := created.Session.ID

	_, err = s.orchestrator.StartSession(s.ctx, &encounter.StartSessionInput{SessionID: id})
	s.Equal(combat.ReasonNotEnoughTeams, errors.GetReason(err))

	added, err := s.orchestrator.AddTeam(s.ctx, &encounter.AddTeamInput{
		SessionID: id,
		Team:      testutils.Team("blue", testutils.Combatant("ogre", 20)),
	})
	s.Require().NoError(err)
	s.Len(added.Session.Teams, 2)

	started, err := s.orchestrator.StartSession(s.ctx, &encounter.StartSessionInput{SessionID: id})
	s.Require().NoError(err)
	s.Equal("ogre", started.Session.CurrentParticipantID())
	s.Len(started.Events, 3)
	s.Equal([]string{"combat.session_started", "combat.round_started", "combat.turn_started"}, s.bus.published())
}

func (s *OrchestratorTestSuite) TestEventsArePublishedWhileSessionIsLocked() {
	id := s.startDuel()

	var readErrs []error
	s.bus.onPublish = func() {
		ctx, cancel := context.WithTimeout(s.ctx, 10*time.Millisecond)
		defer cancel()
		_, err := s.orchestrator.GetSession(ctx, &encounter.GetSessionInput{SessionID: id})
		readErrs = append(readErrs, err)
	}

	out, err := s.orchestrator.SubmitAction(s.ctx, &encounter.SubmitActionInput{
		SessionID: id,
		Action:    &combat.Action{ActorID: "hero", Payload: &combat.Defend{}},
	})
	s.Require().NoError(err)
	s.bus.onPublish = nil

	s.Require().NotEmpty(out.Events)
	s.Require().Len(readErrs, len(out.Events))
	for _, err := range readErrs {
		s.Error(err, "readers wait until every event is on the bus")
	}

	_, err = s.orchestrator.GetSession(s.ctx, &encounter.GetSessionInput{SessionID: id})
	s.NoError(err)
}

func (s *OrchestratorTestSuite) TestDuelToVictoryIsArchived() {
	id := s.startDuel()

	out, err := s.orchestrator.SubmitAction(s.ctx, &encounter.SubmitActionInput{
		SessionID: id,
		Action: &combat.Action{
			ActorID:   "hero",
			TargetIDs: []string{"ogre"},
			Payload:   &combat.Attack{Damage: testutils.FlatDamage(12)},
		},
	})
	s.Require().NoError(err)
	s.Equal(combat.StatusEnded, out.Session.Status)
	s.Equal(combat.OutcomeVictory, out.Session.Outcome)
	s.Equal("red", out.Session.WinningTeamID)
	s.Contains(s.bus.published(), "combat.session_ended")

	archived, err := s.repo.Get(s.ctx, &encounters.GetInput{SessionID: id})
	s.Require().NoError(err)
	s.Equal(combat.OutcomeVictory, archived.Session.Outcome)

	live, err := s.orchestrator.GetSession(s.ctx, &encounter.GetSessionInput{SessionID: id})
	s.Require().NoError(err)
	s.False(live.Archived)

	s.clock.Advance(grace)
	swept, err := s.orchestrator.SweepExpired(s.ctx, &encounter.SweepExpiredInput{})
	s.Require().NoError(err)
	s.Equal([]string{id}, swept.Removed)

	fromArchive, err := s.orchestrator.GetSession(s.ctx, &encounter.GetSessionInput{SessionID: id})
	s.Require().NoError(err)
	s.True(fromArchive.Archived)
	s.Equal(combat.OutcomeVictory, fromArchive.Session.Outcome)

	list, err := s.orchestrator.ListArchived(s.ctx, &encounter.ListArchivedInput{})
	s.Require().NoError(err)
	s.Equal([]string{id}, list.SessionIDs)
}

func (s *OrchestratorTestSuite) TestRejectedActionReturnsReason() {
	id := s.startDuel()

	_, err := s.orchestrator.SubmitAction(s.ctx, &encounter.SubmitActionInput{
		SessionID: id,
		Action: &combat.Action{
			ActorID:   "ogre",
			TargetIDs: []string{"hero"},
			Payload:   &combat.Attack{Damage: testutils.FlatDamage(1)},
		},
	})
	s.True(errors.IsInvalidArgument(err))
	s.Equal(combat.ReasonNotActorTurn, errors.GetReason(err))

	_, err = s.orchestrator.SubmitAction(s.ctx, &encounter.SubmitActionInput{SessionID: id})
	s.Equal(combat.ReasonInvalidAction, errors.GetReason(err))

	_, err = s.orchestrator.SubmitAction(s.ctx, &encounter.SubmitActionInput{
		SessionID: "missing",
		Action:    &combat.Action{ActorID: "hero", Payload: &combat.Defend{}},
	})
	s.True(errors.IsNotFound(err))
	s.Equal(combat.ReasonSessionNotFound, errors.GetReason(err))
}

func (s *OrchestratorTestSuite) TestSurrenderFlow() {
	created, err := s.orchestrator.CreateSession(s.ctx, &encounter.CreateSessionInput{Teams: testutils.SkirmishTeams(), Seed: 1})
	s.Require().NoError(err)
	id := created.Session.ID
	_, err = s.orchestrator.StartSession(s.ctx, &encounter.StartSessionInput{SessionID: id})
	s.Require().NoError(err)

	req, err := s.orchestrator.RequestSurrender(s.ctx, &encounter.RequestSurrenderInput{SessionID: id, ParticipantID: "troll"})
	s.Require().NoError(err)
	s.Equal(combat.StatusAwaitingSurrenderVote, req.Session.Status)

	for _, voter := range []string{"knight", "rogue"} {
		_, err = s.orchestrator.CastSurrenderVote(s.ctx, &encounter.CastSurrenderVoteInput{
			SessionID: id, ParticipantID: voter, Ballot: combat.BallotYes,
		})
		s.Require().NoError(err)
	}

	got, err := s.orchestrator.GetSession(s.ctx, &encounter.GetSessionInput{SessionID: id})
	s.Require().NoError(err)
	s.Equal(combat.OutcomeDefeat, got.Session.Outcome)
	s.Equal("blue", got.Session.LosingTeamID)
	s.Equal("red", got.Session.WinningTeamID)
}

func (s *OrchestratorTestSuite) TestEndSession() {
	id := s.startDuel()

	_, err := s.orchestrator.EndSession(s.ctx, &encounter.EndSessionInput{SessionID: id, Outcome: "NOPE"})
	s.Equal(combat.ReasonInvalidOutcome, errors.GetReason(err))

	out, err := s.orchestrator.EndSession(s.ctx, &encounter.EndSessionInput{SessionID: id, Outcome: combat.OutcomeDraw})
	s.Require().NoError(err)
	s.Equal(combat.OutcomeDraw, out.Session.Outcome)
	s.Len(out.Events, 1)

	_, err = s.orchestrator.EndSession(s.ctx, &encounter.EndSessionInput{SessionID: id, Outcome: combat.OutcomeDraw})
	s.Equal(combat.ReasonSessionEnded, errors.GetReason(err))
}

func (s *OrchestratorTestSuite) TestListEventsPages() {
	id := s.startDuel()

	all, err := s.orchestrator.ListEvents(s.ctx, &encounter.ListEventsInput{SessionID: id})
	s.Require().NoError(err)
	s.Len(all.Events, 3)
	s.Equal(3, all.LastSequence)

	page, err := s.orchestrator.ListEvents(s.ctx, &encounter.ListEventsInput{SessionID: id, AfterSequence: 1, Limit: 1})
	s.Require().NoError(err)
	s.Require().Len(page.Events, 1)
	s.Equal(2, page.Events[0].Sequence)

	_, err = s.orchestrator.ListEvents(s.ctx, &encounter.ListEventsInput{SessionID: id, AfterSequence: -1})
	s.True(errors.IsInvalidArgument(err))
}

func (s *OrchestratorTestSuite) TestSweepTimesOutIdleSessions() {
	id := s.startDuel()

	s.clock.Advance(inactivity)
	out, err := s.orchestrator.SweepExpired(s.ctx, &encounter.SweepExpiredInput{})
	s.Require().NoError(err)
	s.Equal([]string{id}, out.TimedOut)
	s.Contains(s.bus.published(), "combat.session_ended")

	archived, err := s.repo.Get(s.ctx, &encounters.GetInput{SessionID: id})
	s.Require().NoError(err)
	s.Equal(combat.OutcomeTimeout, archived.Session.Outcome)
}

func (s *OrchestratorTestSuite) TestRunSweeperStopsWithContext() {
	ctx, cancel := context.WithCancel(s.ctx)
	done := make(chan error, 1)
	go func() {
		done <- s.orchestrator.RunSweeper(ctx, 5*time.Millisecond)
	}()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		s.NoError(err)
	case <-time.After(time.Second):
		s.Fail("sweeper did not stop")
	}

	s.Error(s.orchestrator.RunSweeper(s.ctx, 0))
}

func (s *OrchestratorTestSuite) TestArchiveFailureDoesNotFailTheAction() {
	ctrl := gomock.NewController(s.T())
	repo := encountermock.NewMockRepository(ctrl)
	svc := s.newOrchestrator(repo)

	repo.EXPECT().
		Save(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, input *encounters.SaveInput) (*encounters.SaveOutput, error) {
			s.Equal(combat.OutcomeVictory, input.Session.Outcome)
			return nil, errors.Unavailable("redis down")
		})

	created, err := svc.CreateSession(s.ctx, &encounter.CreateSessionInput{Teams: testutils.DuelTeams(), Seed: 3})
	s.Require().NoError(err)
	_, err = svc.StartSession(s.ctx, &encounter.StartSessionInput{SessionID: created.Session.ID})
	s.Require().NoError(err)

	out, err := svc.SubmitAction(s.ctx, &encounter.SubmitActionInput{
		SessionID: created.Session.ID,
		Action: &combat.Action{
			ActorID:   "hero",
			TargetIDs: []string{"ogre"},
			Payload:   &combat.Attack{Damage: testutils.FlatDamage(20)},
		},
	})
	s.Require().NoError(err)
	s.True(out.Session.IsEnded())
}
