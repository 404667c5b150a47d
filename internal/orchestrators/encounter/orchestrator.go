// Package encounter orchestrates combat sessions: it owns the registry of live
// sessions, drives the state machine under each session's lock, publishes
// committed events and archives finished sessions.
package encounter

//go:generate mockgen -destination=mock/mock_service.go -package=encountermock github.com/KirkDiggler/rpg-combat/internal/orchestrators/encounter Service

import (
	"context"
	"log/slog"
	"time"

	"github.com/KirkDiggler/rpg-toolkit/core"
	"github.com/KirkDiggler/rpg-toolkit/dice"
	"github.com/KirkDiggler/rpg-toolkit/events"

	"github.com/KirkDiggler/rpg-combat/internal/engine/registry"
	"github.com/KirkDiggler/rpg-combat/internal/engine/session"
	"github.com/KirkDiggler/rpg-combat/internal/engine/skillcheck"
	"github.com/KirkDiggler/rpg-combat/internal/entities/combat"
	"github.com/KirkDiggler/rpg-combat/internal/errors"
	"github.com/KirkDiggler/rpg-combat/internal/pkg/clock"
	"github.com/KirkDiggler/rpg-combat/internal/pkg/idgen"
	"github.com/KirkDiggler/rpg-combat/internal/repositories/encounters"
)

// EventTypePrefix prefixes the bus event type of every published combat event
const EventTypePrefix = "combat."

// Service defines the interface for combat session operations
type Service interface {
	// Session lifecycle
	CreateSession(ctx context.Context, input *CreateSessionInput) (*CreateSessionOutput, error)
	AddTeam(ctx context.Context, input *AddTeamInput) (*AddTeamOutput, error)
	StartSession(ctx context.Context, input *StartSessionInput) (*StartSessionOutput, error)
	GetSession(ctx context.Context, input *GetSessionInput) (*GetSessionOutput, error)
	EndSession(ctx context.Context, input *EndSessionInput) (*EndSessionOutput, error)

	// Turn play
	SubmitAction(ctx context.Context, input *SubmitActionInput) (*SubmitActionOutput, error)
	RequestSurrender(ctx context.Context, input *RequestSurrenderInput) (*RequestSurrenderOutput, error)
	CastSurrenderVote(ctx context.Context, input *CastSurrenderVoteInput) (*CastSurrenderVoteOutput, error)

	// History
	ListEvents(ctx context.Context, input *ListEventsInput) (*ListEventsOutput, error)
	ListArchived(ctx context.Context, input *ListArchivedInput) (*ListArchivedOutput, error)

	// Expiry
	SweepExpired(ctx context.Context, input *SweepExpiredInput) (*SweepExpiredOutput, error)
	RunSweeper(ctx context.Context, interval time.Duration) error
}

// Config holds the dependencies for the encounter orchestrator
type Config struct {
	IDGenerator idgen.Generator
	Clock       clock.Clock
	Registry    *registry.Registry
	Machine     *session.Machine
	// Repository archives ended sessions; optional
	Repository encounters.Repository
	// EventBus receives every committed event; optional
	EventBus events.EventBus
	// NewSeed defaults to a crypto/rand seed
	NewSeed func() (uint64, error)
}

// Validate ensures all required dependencies are provided
func (c *Config) Validate() error {
	vb := errors.NewValidationBuilder()

	if c.IDGenerator == nil {
		vb.RequiredField("IDGenerator")
	}
	if c.Clock == nil {
		vb.RequiredField("Clock")
	}
	if c.Registry == nil {
		vb.RequiredField("Registry")
	}
	if c.Machine == nil {
		vb.RequiredField("Machine")
	}

	return vb.Build()
}

type orchestrator struct {
	idGen    idgen.Generator
	clock    clock.Clock
	registry *registry.Registry
	machine  *session.Machine
	repo     encounters.Repository
	bus      events.EventBus
	newSeed  func() (uint64, error)
}

// NewOrchestrator creates a new encounter orchestrator with the provided dependencies
func NewOrchestrator(cfg *Config) (Service, error) {
	if cfg == nil {
		return nil, errors.InvalidArgument("config is required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid config")
	}

	newSeed := cfg.NewSeed
	if newSeed == nil {
		newSeed = skillcheck.NewSeed
	}

	return &orchestrator{
		idGen:    cfg.IDGenerator,
		clock:    cfg.Clock,
		registry: cfg.Registry,
		machine:  cfg.Machine,
		repo:     cfg.Repository,
		bus:      cfg.EventBus,
		newSeed:  newSeed,
	}, nil
}

// CreateSession builds a forming session and registers it
func (o *orchestrator) CreateSession(ctx context.Context, input *CreateSessionInput) (*CreateSessionOutput, error) {
	if input == nil {
		return nil, errors.InvalidArgument("input is required")
	}
	if err := ctx.Err(); err != nil {
		return nil, errors.FromContext(err, "create session canceled")
	}

	seed := input.Seed
	if seed == 0 {
		var err error
		if seed, err = o.newSeed(); err != nil {
			return nil, errors.Wrap(err, "failed to seed session dice")
		}
	}

	s, err := session.New(o.idGen.Generate(), input.Teams, o.clock.Now(), seed)
	if err != nil {
		return nil, err
	}

	snapshot := s.Clone()
	if err := o.registry.Create(s); err != nil {
		return nil, errors.Wrap(err, "failed to register session")
	}

	slog.Info("Combat session created",
		"session_id", snapshot.ID,
		"team_count", len(snapshot.Teams),
		"participant_count", len(snapshot.Participants()),
	)

	return &CreateSessionOutput{Session: snapshot}, nil
}

// AddTeam adds a team while the session is forming
func (o *orchestrator) AddTeam(ctx context.Context, input *AddTeamInput) (*AddTeamOutput, error) {
	if input == nil || input.SessionID == "" {
		return nil, errors.InvalidArgument("session ID is required")
	}

	snapshot, _, err := o.mutate(ctx, input.SessionID, func(s *combat.Session, _ dice.Roller, now time.Time) ([]combat.Event, error) {
		return nil, session.AddTeam(s, input.Team, now)
	})
	if err != nil {
		return nil, err
	}

	return &AddTeamOutput{Session: snapshot}, nil
}

// StartSession rolls the session into its first round
func (o *orchestrator) StartSession(ctx context.Context, input *StartSessionInput) (*StartSessionOutput, error) {
	if input == nil || input.SessionID == "" {
		return nil, errors.InvalidArgument("session ID is required")
	}

	snapshot, evs, err := o.mutate(ctx, input.SessionID, func(s *combat.Session, _ dice.Roller, now time.Time) ([]combat.Event, error) {
		return o.machine.Start(s, now)
	})
	if err != nil {
		return nil, err
	}

	slog.Info("Combat session started",
		"session_id", snapshot.ID,
		"first_actor", snapshot.CurrentParticipantID(),
	)

	return &StartSessionOutput{Session: snapshot, Events: evs}, nil
}

// GetSession returns a live session, falling back to the archive
func (o *orchestrator) GetSession(ctx context.Context, input *GetSessionInput) (*GetSessionOutput, error) {
	if input == nil || input.SessionID == "" {
		return nil, errors.InvalidArgument("session ID is required")
	}

	s, archived, err := o.load(ctx, input.SessionID)
	if err != nil {
		return nil, err
	}

	return &GetSessionOutput{Session: s, Archived: archived}, nil
}

// SubmitAction resolves one action for the participant whose turn it is
func (o *orchestrator) SubmitAction(ctx context.Context, input *SubmitActionInput) (*SubmitActionOutput, error) {
	if input == nil || input.SessionID == "" {
		return nil, errors.InvalidArgument("session ID is required")
	}
	if input.Action == nil {
		return nil, errors.InvalidArgument("action is required").WithReason(combat.ReasonInvalidAction)
	}

	snapshot, evs, err := o.mutate(ctx, input.SessionID, func(s *combat.Session, r dice.Roller, now time.Time) ([]combat.Event, error) {
		return o.machine.SubmitAction(s, input.Action, r, now)
	})
	if err != nil {
		slog.Debug("Action rejected",
			"session_id", input.SessionID,
			"actor_id", input.Action.ActorID,
			"action_type", input.Action.Type(),
			"reason", errors.GetReason(err),
		)
		return nil, err
	}

	slog.Debug("Action resolved",
		"session_id", snapshot.ID,
		"actor_id", input.Action.ActorID,
		"action_type", input.Action.Type(),
		"event_count", len(evs),
	)

	return &SubmitActionOutput{Session: snapshot, Events: evs}, nil
}

// RequestSurrender opens a surrender vote for the requester's team
func (o *orchestrator) RequestSurrender(ctx context.Context, input *RequestSurrenderInput) (*RequestSurrenderOutput, error) {
	if input == nil || input.SessionID == "" {
		return nil, errors.InvalidArgument("session ID is required")
	}

	snapshot, evs, err := o.mutate(ctx, input.SessionID, func(s *combat.Session, _ dice.Roller, now time.Time) ([]combat.Event, error) {
		return o.machine.RequestSurrender(s, input.ParticipantID, now)
	})
	if err != nil {
		return nil, err
	}

	slog.Info("Surrender requested",
		"session_id", snapshot.ID,
		"participant_id", input.ParticipantID,
	)

	return &RequestSurrenderOutput{Session: snapshot, Events: evs}, nil
}

// CastSurrenderVote records one ballot in the open vote
func (o *orchestrator) CastSurrenderVote(ctx context.Context, input *CastSurrenderVoteInput) (*CastSurrenderVoteOutput, error) {
	if input == nil || input.SessionID == "" {
		return nil, errors.InvalidArgument("session ID is required")
	}

	snapshot, evs, err := o.mutate(ctx, input.SessionID, func(s *combat.Session, _ dice.Roller, now time.Time) ([]combat.Event, error) {
		return o.machine.CastVote(s, input.ParticipantID, input.Ballot, now)
	})
	if err != nil {
		return nil, err
	}

	return &CastSurrenderVoteOutput{Session: snapshot, Events: evs}, nil
}

// EndSession force ends a session
func (o *orchestrator) EndSession(ctx context.Context, input *EndSessionInput) (*EndSessionOutput, error) {
	if input == nil || input.SessionID == "" {
		return nil, errors.InvalidArgument("session ID is required")
	}

	snapshot, evs, err := o.mutate(ctx, input.SessionID, func(s *combat.Session, _ dice.Roller, now time.Time) ([]combat.Event, error) {
		return session.End(s, input.Outcome, input.TeamID, now)
	})
	if err != nil {
		return nil, err
	}

	return &EndSessionOutput{Session: snapshot, Events: evs}, nil
}

// ListEvents pages through a session's event log
func (o *orchestrator) ListEvents(ctx context.Context, input *ListEventsInput) (*ListEventsOutput, error) {
	if input == nil || input.SessionID == "" {
		return nil, errors.InvalidArgument("session ID is required")
	}
	if input.AfterSequence < 0 || input.Limit < 0 {
		return nil, errors.InvalidArgument("after_sequence and limit must not be negative")
	}

	s, _, err := o.load(ctx, input.SessionID)
	if err != nil {
		return nil, err
	}

	out := &ListEventsOutput{LastSequence: len(s.Events)}
	for _, e := range s.Events {
		if e.Sequence <= input.AfterSequence {
			continue
		}
		if input.Limit > 0 && len(out.Events) >= input.Limit {
			break
		}
		out.Events = append(out.Events, e)
	}

	return out, nil
}

// ListArchived lists archived session ids, newest first
func (o *orchestrator) ListArchived(ctx context.Context, input *ListArchivedInput) (*ListArchivedOutput, error) {
	if o.repo == nil {
		return &ListArchivedOutput{}, nil
	}

	limit := 0
	if input != nil {
		limit = input.Limit
	}

	out, err := o.repo.List(ctx, &encounters.ListInput{Limit: limit})
	if err != nil {
		return nil, errors.Wrap(err, "failed to list archived sessions")
	}

	return &ListArchivedOutput{SessionIDs: out.SessionIDs}, nil
}

// mutate runs fn under the session lock and publishes the committed events
// before releasing it, so the bus sees each session's events in commit order.
// Bus handlers must not call back into the same session. Archiving runs after
// the lock is released.
func (o *orchestrator) mutate(
	ctx context.Context,
	sessionID string,
	fn func(s *combat.Session, r dice.Roller, now time.Time) ([]combat.Event, error),
) (*combat.Session, []combat.Event, error) {
	var snapshot *combat.Session
	var committed []combat.Event

	err := o.registry.WithSession(ctx, sessionID, func(s *combat.Session, r dice.Roller) error {
		evs, err := fn(s, r, o.clock.Now())
		if err != nil {
			return err
		}
		committed = evs
		snapshot = s.Clone()
		o.publish(ctx, snapshot, committed)
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	if snapshot.IsEnded() && endedNow(committed) {
		o.archive(ctx, snapshot)
	}

	return snapshot, committed, nil
}

// load reads a live session, then the archive
func (o *orchestrator) load(ctx context.Context, sessionID string) (*combat.Session, bool, error) {
	s, err := o.registry.Get(ctx, sessionID)
	if err == nil {
		return s, false, nil
	}
	if !errors.IsNotFound(err) || o.repo == nil {
		return nil, false, err
	}

	out, repoErr := o.repo.Get(ctx, &encounters.GetInput{SessionID: sessionID})
	if repoErr != nil {
		if errors.IsNotFound(repoErr) {
			return nil, false, err
		}
		return nil, false, errors.Wrap(repoErr, "failed to read archived session")
	}

	return out.Session, true, nil
}

func (o *orchestrator) archive(ctx context.Context, s *combat.Session) {
	slog.Info("Combat session ended",
		"session_id", s.ID,
		"outcome", s.Outcome,
		"winning_team_id", s.WinningTeamID,
		"losing_team_id", s.LosingTeamID,
		"rounds", s.Round,
	)

	if o.repo == nil {
		return
	}
	if _, err := o.repo.Save(ctx, &encounters.SaveInput{Session: s}); err != nil {
		slog.Warn("Failed to archive combat session",
			"session_id", s.ID,
			"error", err,
		)
	}
}

func (o *orchestrator) publish(ctx context.Context, s *combat.Session, evs []combat.Event) {
	if o.bus == nil {
		return
	}

	for _, e := range evs {
		ge := events.NewGameEvent(EventTypePrefix+string(e.Kind), entity(s, e.ActorID), entity(s, e.TargetID))
		if err := o.bus.Publish(ctx, ge); err != nil {
			slog.Warn("Failed to publish combat event",
				"session_id", s.ID,
				"event_id", e.ID,
				"kind", e.Kind,
				"error", err,
			)
		}
	}
}

// entity returns the participant as a core.Entity, or a nil interface
func entity(s *combat.Session, id string) core.Entity {
	if id == "" {
		return nil
	}
	p, ok := s.Participant(id)
	if !ok {
		return nil
	}
	return p
}

func endedNow(evs []combat.Event) bool {
	for _, e := range evs {
		if e.Kind == combat.EventSessionEnded {
			return true
		}
	}
	return false
}
