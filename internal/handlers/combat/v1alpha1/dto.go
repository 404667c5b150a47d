package v1alpha1

import (
	"encoding/json"
	"strconv"
	"time"

	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/KirkDiggler/rpg-combat/internal/entities/combat"
	"github.com/KirkDiggler/rpg-combat/internal/errors"
)

// CreateSessionRequest forms a new session. Seed is a decimal string because
// google.protobuf.Value numbers are doubles.
type CreateSessionRequest struct {
	Teams []combat.TeamSetup `json:"teams"`
	Seed  string             `json:"seed,omitempty"`
}

// AddTeamRequest adds a team to a forming session
type AddTeamRequest struct {
	SessionID string           `json:"session_id"`
	Team      combat.TeamSetup `json:"team"`
}

// SessionRequest names one session
type SessionRequest struct {
	SessionID string `json:"session_id"`
}

// SubmitActionRequest submits the acting participant's action
type SubmitActionRequest struct {
	SessionID string    `json:"session_id"`
	Action    ActionDTO `json:"action"`
}

// ActionDTO is the wire form of combat.Action. Type selects which of the
// payload fields is read.
type ActionDTO struct {
	Type       combat.ActionType             `json:"type"`
	ActorID    string                        `json:"actor_id"`
	TargetIDs  []string                      `json:"target_ids,omitempty"`
	SkillCheck *combat.SkillCheckRequirement `json:"skill_check,omitempty"`

	Attack  *combat.Attack  `json:"attack,omitempty"`
	Ability *combat.Ability `json:"ability,omitempty"`
	Item    *combat.Item    `json:"item,omitempty"`
	Flee    *combat.Flee    `json:"flee,omitempty"`
}

// SurrenderRequest opens a surrender vote for the participant's team
type SurrenderRequest struct {
	SessionID     string `json:"session_id"`
	ParticipantID string `json:"participant_id"`
}

// VoteRequest casts one surrender ballot
type VoteRequest struct {
	SessionID     string        `json:"session_id"`
	ParticipantID string        `json:"participant_id"`
	Ballot        combat.Ballot `json:"ballot"`
}

// EndSessionRequest force ends a session
type EndSessionRequest struct {
	SessionID string         `json:"session_id"`
	Outcome   combat.Outcome `json:"outcome"`
	TeamID    string         `json:"team_id,omitempty"`
}

// ListEventsRequest pages through a session's log
type ListEventsRequest struct {
	SessionID     string `json:"session_id"`
	AfterSequence int    `json:"after_sequence,omitempty"`
	Limit         int    `json:"limit,omitempty"`
}

// ListArchivedRequest lists archived session ids
type ListArchivedRequest struct {
	Limit int `json:"limit,omitempty"`
}

// SessionView is the wire form of a session without its event log
type SessionView struct {
	ID                   string                 `json:"id"`
	Status               combat.Status          `json:"status"`
	Teams                []*combat.Team         `json:"teams"`
	TurnOrder            []string               `json:"turn_order,omitempty"`
	CurrentParticipantID string                 `json:"current_participant_id,omitempty"`
	Round                int                    `json:"round"`
	Seed                 string                 `json:"seed"`
	CreatedAt            time.Time              `json:"created_at"`
	LastActivityAt       time.Time              `json:"last_activity_at"`
	EndedAt              *time.Time             `json:"ended_at,omitempty"`
	Outcome              combat.Outcome         `json:"outcome,omitempty"`
	WinningTeamID        string                 `json:"winning_team_id,omitempty"`
	LosingTeamID         string                 `json:"losing_team_id,omitempty"`
	Surrender            *combat.SurrenderState `json:"surrender,omitempty"`
	EventCount           int                    `json:"event_count"`
}

// SessionResponse carries a session and the events produced by the call
type SessionResponse struct {
	Session  *SessionView   `json:"session"`
	Events   []combat.Event `json:"events,omitempty"`
	Archived bool           `json:"archived,omitempty"`
}

// ListEventsResponse carries one page of events
type ListEventsResponse struct {
	Events       []combat.Event `json:"events"`
	LastSequence int            `json:"last_sequence"`
}

// ListArchivedResponse lists archived session ids, newest first
type ListArchivedResponse struct {
	SessionIDs []string `json:"session_ids"`
}

// NewSessionView converts a session to its wire form
func NewSessionView(s *combat.Session) *SessionView {
	if s == nil {
		return nil
	}

	view := &SessionView{
		ID:                   s.ID,
		Status:               s.Status,
		Teams:                s.Teams,
		TurnOrder:            s.TurnOrder,
		CurrentParticipantID: s.CurrentParticipantID(),
		Round:                s.Round,
		Seed:                 strconv.FormatUint(s.Seed, 10),
		CreatedAt:            s.CreatedAt,
		LastActivityAt:       s.LastActivityAt,
		Outcome:              s.Outcome,
		WinningTeamID:        s.WinningTeamID,
		LosingTeamID:         s.LosingTeamID,
		Surrender:            s.Surrender,
		EventCount:           len(s.Events),
	}
	if !s.EndedAt.IsZero() {
		ended := s.EndedAt
		view.EndedAt = &ended
	}
	return view
}

// ParseSeed reads a decimal seed, "" meaning random
func ParseSeed(seed string) (uint64, error) {
	if seed == "" {
		return 0, nil
	}
	v, err := strconv.ParseUint(seed, 10, 64)
	if err != nil {
		return 0, errors.InvalidArgumentf("seed must be an unsigned integer, got %q", seed)
	}
	return v, nil
}

// ToAction converts the DTO to an engine action
func (a *ActionDTO) ToAction() (*combat.Action, error) {
	action := &combat.Action{
		ActorID:    a.ActorID,
		TargetIDs:  a.TargetIDs,
		SkillCheck: a.SkillCheck,
	}

	switch a.Type {
	case combat.ActionAttack:
		if a.Attack == nil {
			return nil, missingPayload(a.Type)
		}
		action.Payload = a.Attack
	case combat.ActionAbility:
		if a.Ability == nil {
			return nil, missingPayload(a.Type)
		}
		action.Payload = a.Ability
	case combat.ActionItem:
		if a.Item == nil {
			return nil, missingPayload(a.Type)
		}
		action.Payload = a.Item
	case combat.ActionDefend:
		action.Payload = &combat.Defend{}
	case combat.ActionFlee:
		flee := a.Flee
		if flee == nil {
			flee = &combat.Flee{}
		}
		action.Payload = flee
	default:
		return nil, errors.InvalidArgumentf("unknown action type %q", a.Type).
			WithReason(combat.ReasonInvalidAction)
	}

	return action, nil
}

// NewActionDTO converts an engine action to its wire form
func NewActionDTO(action *combat.Action) ActionDTO {
	dto := ActionDTO{
		Type:       action.Type(),
		ActorID:    action.ActorID,
		TargetIDs:  action.TargetIDs,
		SkillCheck: action.SkillCheck,
	}
	switch p := action.Payload.(type) {
	case *combat.Attack:
		dto.Attack = p
	case *combat.Ability:
		dto.Ability = p
	case *combat.Item:
		dto.Item = p
	case *combat.Flee:
		dto.Flee = p
	}
	return dto
}

func missingPayload(t combat.ActionType) error {
	return errors.InvalidArgumentf("action of type %s needs a %s payload", t, t).
		WithReason(combat.ReasonInvalidAction)
}

// Encode converts a DTO to a google.protobuf.Struct
func Encode(v any) (*structpb.Struct, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, errors.Wrap(err, "failed to encode response")
	}
	out := &structpb.Struct{}
	if err := protojson.Unmarshal(raw, out); err != nil {
		return nil, errors.Wrap(err, "failed to encode response")
	}
	return out, nil
}

// Decode fills v from a google.protobuf.Struct
func Decode(in *structpb.Struct, v any) error {
	if in == nil {
		return errors.InvalidArgument("request body is required")
	}
	raw, err := protojson.Marshal(in)
	if err != nil {
		return errors.WrapWithCode(err, errors.CodeInvalidArgument, "failed to read request")
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return errors.WrapWithCode(err, errors.CodeInvalidArgument, "malformed request")
	}
	return nil
}
