// Package v1alpha1 handles the grpc service interface
package v1alpha1

import (
	"context"

	"google.golang.org/protobuf/types/known/structpb"

	"github.com/KirkDiggler/rpg-combat/internal/errors"
	"github.com/KirkDiggler/rpg-combat/internal/orchestrators/encounter"
)

// HandlerConfig holds dependencies for the handler
type HandlerConfig struct {
	EncounterService encounter.Service
}

// Validate ensures all required dependencies are present
func (c *HandlerConfig) Validate() error {
	if c.EncounterService == nil {
		return errors.InvalidArgument("encounter service is required")
	}
	return nil
}

// Handler implements the combat gRPC service
type Handler struct {
	encounterService encounter.Service
}

var _ CombatServiceServer = (*Handler)(nil)

// NewHandler creates a new handler with the given configuration
func NewHandler(cfg *HandlerConfig) (*Handler, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &Handler{
		encounterService: cfg.EncounterService,
	}, nil
}

// CreateSession forms a new session from the given teams
func (h *Handler) CreateSession(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	var in CreateSessionRequest
	if err := Decode(req, &in); err != nil {
		return nil, errors.ToGRPCError(err)
	}
	seed, err := ParseSeed(in.Seed)
	if err != nil {
		return nil, errors.ToGRPCError(err)
	}

	output, err := h.encounterService.CreateSession(ctx, &encounter.CreateSessionInput{
		Teams: in.Teams,
		Seed:  seed,
	})
	if err != nil {
		return nil, errors.ToGRPCError(err)
	}

	return respond(&SessionResponse{Session: NewSessionView(output.Session)})
}

// AddTeam adds a team to a forming session
func (h *Handler) AddTeam(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	var in AddTeamRequest
	if err := Decode(req, &in); err != nil {
		return nil, errors.ToGRPCError(err)
	}
	if err := requireSession(in.SessionID); err != nil {
		return nil, errors.ToGRPCError(err)
	}

	output, err := h.encounterService.AddTeam(ctx, &encounter.AddTeamInput{
		SessionID: in.SessionID,
		Team:      in.Team,
	})
	if err != nil {
		return nil, errors.ToGRPCError(err)
	}

	return respond(&SessionResponse{Session: NewSessionView(output.Session)})
}

// StartSession rolls initiative and begins the first turn
func (h *Handler) StartSession(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	var in SessionRequest
	if err := Decode(req, &in); err != nil {
		return nil, errors.ToGRPCError(err)
	}
	if err := requireSession(in.SessionID); err != nil {
		return nil, errors.ToGRPCError(err)
	}

	output, err := h.encounterService.StartSession(ctx, &encounter.StartSessionInput{SessionID: in.SessionID})
	if err != nil {
		return nil, errors.ToGRPCError(err)
	}

	return respond(&SessionResponse{
		Session: NewSessionView(output.Session),
		Events:  output.Events,
	})
}

// GetSession reads a live or archived session
func (h *Handler) GetSession(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	var in SessionRequest
	if err := Decode(req, &in); err != nil {
		return nil, errors.ToGRPCError(err)
	}
	if err := requireSession(in.SessionID); err != nil {
		return nil, errors.ToGRPCError(err)
	}

	output, err := h.encounterService.GetSession(ctx, &encounter.GetSessionInput{SessionID: in.SessionID})
	if err != nil {
		return nil, errors.ToGRPCError(err)
	}

	return respond(&SessionResponse{
		Session:  NewSessionView(output.Session),
		Archived: output.Archived,
	})
}

// SubmitAction resolves the acting participant's action
func (h *Handler) SubmitAction(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	var in SubmitActionRequest
	if err := Decode(req, &in); err != nil {
		return nil, errors.ToGRPCError(err)
	}
	if err := requireSession(in.SessionID); err != nil {
		return nil, errors.ToGRPCError(err)
	}
	action, err := in.Action.ToAction()
	if err != nil {
		return nil, errors.ToGRPCError(err)
	}

	output, err := h.encounterService.SubmitAction(ctx, &encounter.SubmitActionInput{
		SessionID: in.SessionID,
		Action:    action,
	})
	if err != nil {
		return nil, errors.ToGRPCError(err)
	}

	return respond(&SessionResponse{
		Session: NewSessionView(output.Session),
		Events:  output.Events,
	})
}

// RequestSurrender opens a surrender vote
func (h *Handler) RequestSurrender(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	var in SurrenderRequest
	if err := Decode(req, &in); err != nil {
		return nil, errors.ToGRPCError(err)
	}
	if err := requireSession(in.SessionID); err != nil {
		return nil, errors.ToGRPCError(err)
	}

	output, err := h.encounterService.RequestSurrender(ctx, &encounter.RequestSurrenderInput{
		SessionID:     in.SessionID,
		ParticipantID: in.ParticipantID,
	})
	if err != nil {
		return nil, errors.ToGRPCError(err)
	}

	return respond(&SessionResponse{
		Session: NewSessionView(output.Session),
		Events:  output.Events,
	})
}

// CastSurrenderVote records one ballot
func (h *Handler) CastSurrenderVote(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	var in VoteRequest
	if err := Decode(req, &in); err != nil {
		return nil, errors.ToGRPCError(err)
	}
	if err := requireSession(in.SessionID); err != nil {
		return nil, errors.ToGRPCError(err)
	}

	output, err := h.encounterService.CastSurrenderVote(ctx, &encounter.CastSurrenderVoteInput{
		SessionID:     in.SessionID,
		ParticipantID: in.ParticipantID,
		Ballot:        in.Ballot,
	})
	if err != nil {
		return nil, errors.ToGRPCError(err)
	}

	return respond(&SessionResponse{
		Session: NewSessionView(output.Session),
		Events:  output.Events,
	})
}

// EndSession force ends a session with an explicit outcome
func (h *Handler) EndSession(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	var in EndSessionRequest
	if err := Decode(req, &in); err != nil {
		return nil, errors.ToGRPCError(err)
	}
	if err := requireSession(in.SessionID); err != nil {
		return nil, errors.ToGRPCError(err)
	}

	output, err := h.encounterService.EndSession(ctx, &encounter.EndSessionInput{
		SessionID: in.SessionID,
		Outcome:   in.Outcome,
		TeamID:    in.TeamID,
	})
	if err != nil {
		return nil, errors.ToGRPCError(err)
	}

	return respond(&SessionResponse{
		Session: NewSessionView(output.Session),
		Events:  output.Events,
	})
}

// ListEvents pages through a session's event log
func (h *Handler) ListEvents(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	var in ListEventsRequest
	if err := Decode(req, &in); err != nil {
		return nil, errors.ToGRPCError(err)
	}
	if err := requireSession(in.SessionID); err != nil {
		return nil, errors.ToGRPCError(err)
	}

	output, err := h.encounterService.ListEvents(ctx, &encounter.ListEventsInput{
		SessionID:     in.SessionID,
		AfterSequence: in.AfterSequence,
		Limit:         in.Limit,
	})
	if err != nil {
		return nil, errors.ToGRPCError(err)
	}

	return respond(&ListEventsResponse{
		Events:       output.Events,
		LastSequence: output.LastSequence,
	})
}

// ListArchived lists the ids of archived sessions
func (h *Handler) ListArchived(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	var in ListArchivedRequest
	if err := Decode(req, &in); err != nil {
		return nil, errors.ToGRPCError(err)
	}

	output, err := h.encounterService.ListArchived(ctx, &encounter.ListArchivedInput{Limit: in.Limit})
	if err != nil {
		return nil, errors.ToGRPCError(err)
	}

	return respond(&ListArchivedResponse{SessionIDs: output.SessionIDs})
}

func requireSession(id string) error {
	if id == "" {
		return errors.InvalidArgument("session_id is required")
	}
	return nil
}

func respond(v any) (*structpb.Struct, error) {
	out, err := Encode(v)
	if err != nil {
		return nil, errors.ToGRPCError(err)
	}
	return out, nil
}
