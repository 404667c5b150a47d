package v1alpha1_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/KirkDiggler/rpg-combat/internal/entities/combat"
	"github.com/KirkDiggler/rpg-combat/internal/errors"
	"github.com/KirkDiggler/rpg-combat/internal/handlers/combat/v1alpha1"
	"github.com/KirkDiggler/rpg-combat/internal/orchestrators/encounter"
	encountermock "github.com/KirkDiggler/rpg-combat/internal/orchestrators/encounter/mock"
	"github.com/KirkDiggler/rpg-combat/internal/testutils"
)

type HandlerTestSuite struct {
	suite.Suite
	ctrl        *gomock.Controller
	mockService *encountermock.MockService
	handler     *v1alpha1.Handler
	ctx         context.Context

	testSessionID string
	now           time.Time
}

func TestHandlerSuite(t *testing.T) {
	suite.Run(t, new(HandlerTestSuite))
}

func (s *HandlerTestSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.mockService = encountermock.NewMockService(s.ctrl)

	handler, err := v1alpha1.NewHandler(&v1alpha1.HandlerConfig{
		EncounterService: s.mockService,
	})
	s.Require().NoError(err)
	s.handler = handler

	s.ctx = context.Background()
	s.testSessionID = "session-123"
	s.now = time.Date(2026, 8, 9, 10, 0, 0, 0, time.UTC)
}

func (s *HandlerTestSuite) TearDownTest() {
	s.ctrl.Finish()
}

func (s *HandlerTestSuite) encode(v any) *structpb.Struct {
	out, err := v1alpha1.Encode(v)
	s.Require().NoError(err)
	return out
}

func (s *HandlerTestSuite) decodeSession(in *structpb.Struct) *v1alpha1.SessionResponse {
	var resp v1alpha1.SessionResponse
	s.Require().NoError(v1alpha1.Decode(in, &resp))
	s.Require().NotNil(resp.Session)
	return &resp
}

func (s *HandlerTestSuite) session(status combat.Status) *combat.Session {
	sess := &combat.Session{
		ID:             s.testSessionID,
		Status:         status,
		Seed:           18446744073709551615,
		CreatedAt:      s.now,
		LastActivityAt: s.now,
	}
	for _, ts := range testutils.DuelTeams() {
		sess.Teams = append(sess.Teams, ts.Build())
	}
	return sess
}

func (s *HandlerTestSuite) TestNewHandlerRequiresService() {
	_, err := v1alpha1.NewHandler(&v1alpha1.HandlerConfig{})
	s.True(errors.IsInvalidArgument(err))
}

func (s *HandlerTestSuite) TestCreateSession() {
	s.mockService.EXPECT().
		CreateSession(s.ctx, &encounter.CreateSessionInput{Teams: testutils.DuelTeams(), Seed: 99}).
		Return(&encounter.CreateSessionOutput{Session: s.session(combat.StatusForming)}, nil)

	out, err := s.handler.CreateSession(s.ctx, s.encode(&v1alpha1.CreateSessionRequest{
		Teams: testutils.DuelTeams(),
		Seed:  "99",
	}))
	s.Require().NoError(err)

	resp := s.decodeSession(out)
	s.Equal(s.testSessionID, resp.Session.ID)
	s.Equal(combat.StatusForming, resp.Session.Status)
	s.Equal("18446744073709551615", resp.Session.Seed, "seed survives as a string")
	s.Require().Len(resp.Session.Teams, 2)
	s.Equal("hero", resp.Session.Teams[0].Participants[0].ID)
	s.Nil(resp.Session.EndedAt)
	s.True(s.now.Equal(resp.Session.CreatedAt))
}

func (s *HandlerTestSuite) TestCreateSessionRejectsBadSeed() {
	_, err := s.handler.CreateSession(s.ctx, s.encode(&v1alpha1.CreateSessionRequest{
		Teams: testutils.DuelTeams(),
		Seed:  "-1",
	}))
	s.Equal(codes.InvalidArgument, status.Code(err))
}

func (s *HandlerTestSuite) TestRequiresSessionID() {
	_, err := s.handler.StartSession(s.ctx, s.encode(&v1alpha1.SessionRequest{}))
	s.Equal(codes.InvalidArgument, status.Code(err))

	_, err = s.handler.GetSession(s.ctx, nil)
	s.Equal(codes.InvalidArgument, status.Code(err))
}

func (s *HandlerTestSuite) TestSubmitActionConvertsPayload() {
	expected := &combat.Action{
		ActorID:   "hero",
		TargetIDs: []string{"ogre"},
		Payload:   &combat.Attack{Damage: testutils.FlatDamage(4)},
	}
	events := []combat.Event{
		{ID: s.testSessionID + "-000004", Sequence: 4, Kind: combat.EventHit, ActorID: "hero", TargetID: "ogre"},
		{ID: s.testSessionID + "-000005", Sequence: 5, Kind: combat.EventDamage, ActorID: "hero", TargetID: "ogre", HPDelta: -4},
	}
	s.mockService.EXPECT().
		SubmitAction(s.ctx, &encounter.SubmitActionInput{SessionID: s.testSessionID, Action: expected}).
		Return(&encounter.SubmitActionOutput{Session: s.session(combat.StatusActive), Events: events}, nil)

	out, err := s.handler.SubmitAction(s.ctx, s.encode(&v1alpha1.SubmitActionRequest{
		SessionID: s.testSessionID,
		Action:    v1alpha1.NewActionDTO(expected),
	}))
	s.Require().NoError(err)

	resp := s.decodeSession(out)
	s.Require().Len(resp.Events, 2)
	s.Equal(combat.EventDamage, resp.Events[1].Kind)
	s.Equal(-4, resp.Events[1].HPDelta)
}

func (s *HandlerTestSuite) TestSubmitActionCarriesReason() {
	s.mockService.EXPECT().
		SubmitAction(s.ctx, gomock.Any()).
		Return(nil, errors.InvalidArgument("it is ogre's turn").WithReason(combat.ReasonNotActorTurn))

	_, err := s.handler.SubmitAction(s.ctx, s.encode(&v1alpha1.SubmitActionRequest{
		SessionID: s.testSessionID,
		Action:    v1alpha1.ActionDTO{Type: combat.ActionDefend, ActorID: "hero"},
	}))
	s.Equal(codes.InvalidArgument, status.Code(err))

	converted := errors.FromGRPCError(err)
	s.Equal(combat.ReasonNotActorTurn, errors.GetReason(converted))
}

func (s *HandlerTestSuite) TestSubmitActionRejectsUnknownType() {
	_, err := s.handler.SubmitAction(s.ctx, s.encode(&v1alpha1.SubmitActionRequest{
		SessionID: s.testSessionID,
		Action:    v1alpha1.ActionDTO{Type: "dance", ActorID: "hero"},
	}))
	s.Equal(codes.InvalidArgument, status.Code(err))
	s.Equal(combat.ReasonInvalidAction, errors.GetReason(errors.FromGRPCError(err)))

	_, err = s.handler.SubmitAction(s.ctx, s.encode(&v1alpha1.SubmitActionRequest{
		SessionID: s.testSessionID,
		Action:    v1alpha1.ActionDTO{Type: combat.ActionAttack, ActorID: "hero"},
	}))
	s.Equal(codes.InvalidArgument, status.Code(err), "attack without payload")
}

func (s *HandlerTestSuite) TestCastSurrenderVote() {
	s.mockService.EXPECT().
		CastSurrenderVote(s.ctx, &encounter.CastSurrenderVoteInput{
			SessionID:     s.testSessionID,
			ParticipantID: "ogre",
			Ballot:        combat.BallotNo,
		}).
		Return(&encounter.CastSurrenderVoteOutput{Session: s.session(combat.StatusActive)}, nil)

	_, err := s.handler.CastSurrenderVote(s.ctx, s.encode(&v1alpha1.VoteRequest{
		SessionID:     s.testSessionID,
		ParticipantID: "ogre",
		Ballot:        combat.BallotNo,
	}))
	s.NoError(err)
}

func (s *HandlerTestSuite) TestEndSessionReportsEndedAt() {
	ended := s.session(combat.StatusEnded)
	ended.Outcome = combat.OutcomeDraw
	ended.EndedAt = s.now.Add(time.Minute)

	s.mockService.EXPECT().
		EndSession(s.ctx, &encounter.EndSessionInput{SessionID: s.testSessionID, Outcome: combat.OutcomeDraw}).
		Return(&encounter.EndSessionOutput{Session: ended}, nil)

	out, err := s.handler.EndSession(s.ctx, s.encode(&v1alpha1.EndSessionRequest{
		SessionID: s.testSessionID,
		Outcome:   combat.OutcomeDraw,
	}))
	s.Require().NoError(err)

	resp := s.decodeSession(out)
	s.Equal(combat.OutcomeDraw, resp.Session.Outcome)
	s.Require().NotNil(resp.Session.EndedAt)
	s.True(ended.EndedAt.Equal(*resp.Session.EndedAt))
}

func (s *HandlerTestSuite) TestListEvents() {
	s.mockService.EXPECT().
		ListEvents(s.ctx, &encounter.ListEventsInput{SessionID: s.testSessionID, AfterSequence: 2, Limit: 1}).
		Return(&encounter.ListEventsOutput{
			Events:       []combat.Event{{Sequence: 3, Kind: combat.EventTurnStarted}},
			LastSequence: 9,
		}, nil)

	out, err := s.handler.ListEvents(s.ctx, s.encode(&v1alpha1.ListEventsRequest{
		SessionID:     s.testSessionID,
		AfterSequence: 2,
		Limit:         1,
	}))
	s.Require().NoError(err)

	var resp v1alpha1.ListEventsResponse
	s.Require().NoError(v1alpha1.Decode(out, &resp))
	s.Equal(9, resp.LastSequence)
	s.Require().Len(resp.Events, 1)
	s.Equal(3, resp.Events[0].Sequence)
}

func (s *HandlerTestSuite) TestGetSessionNotFound() {
	s.mockService.EXPECT().
		GetSession(s.ctx, &encounter.GetSessionInput{SessionID: "missing"}).
		Return(nil, errors.NotFound("session missing not found").WithReason(combat.ReasonSessionNotFound))

	_, err := s.handler.GetSession(s.ctx, s.encode(&v1alpha1.SessionRequest{SessionID: "missing"}))
	s.Equal(codes.NotFound, status.Code(err))
}

func (s *HandlerTestSuite) TestListArchived() {
	s.mockService.EXPECT().
		ListArchived(s.ctx, &encounter.ListArchivedInput{Limit: 5}).
		Return(&encounter.ListArchivedOutput{SessionIDs: []string{"b", "a"}}, nil)

	out, err := s.handler.ListArchived(s.ctx, s.encode(&v1alpha1.ListArchivedRequest{Limit: 5}))
	s.Require().NoError(err)

	var resp v1alpha1.ListArchivedResponse
	s.Require().NoError(v1alpha1.Decode(out, &resp))
	s.Equal([]string{"b", "a"}, resp.SessionIDs)
}
