// Package session implements the lifecycle of one combat encounter.
//
//	FORMING -> ACTIVE -> AWAITING_SURRENDER_VOTE -> ACTIVE | ENDED
//	                  -> ENDED
//
// Every mutating call works on a clone of the session and swaps it in only
// when the whole step succeeded, so a failed call leaves no trace. Callers
// must hold the session's lock; the registry provides it.
package session

import (
	"cmp"
	"slices"
	"time"

	"github.com/KirkDiggler/rpg-toolkit/dice"

	"github.com/KirkDiggler/rpg-combat/internal/engine/actions"
	"github.com/KirkDiggler/rpg-combat/internal/engine/effects"
	"github.com/KirkDiggler/rpg-combat/internal/entities/combat"
	"github.com/KirkDiggler/rpg-combat/internal/errors"
)

// Config holds the dependencies of a Machine
type Config struct {
	Resolver *actions.Resolver
	Tracker  *effects.Tracker
	// Electorate selects surrender voters. Defaults to ElectorateAll.
	Electorate combat.Electorate
}

// Validate ensures all required dependencies are provided
func (c *Config) Validate() error {
	vb := errors.NewValidationBuilder()

	if c.Resolver == nil {
		vb.RequiredField("Resolver")
	}
	if c.Tracker == nil {
		vb.RequiredField("Tracker")
	}
	if c.Electorate != "" {
		errors.ValidateEnum("Electorate", string(c.Electorate),
			[]string{string(combat.ElectorateAll), string(combat.ElectorateTeam)}, vb)
	}

	return vb.Build()
}

// Machine drives sessions through their states
type Machine struct {
	resolver   *actions.Resolver
	tracker    *effects.Tracker
	electorate combat.Electorate
}

// NewMachine creates a state machine with the provided dependencies
func NewMachine(cfg *Config) (*Machine, error) {
	if cfg == nil {
		return nil, errors.InvalidArgument("config is required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid config")
	}

	electorate := cfg.Electorate
	if electorate == "" {
		electorate = combat.ElectorateAll
	}

	return &Machine{
		resolver:   cfg.Resolver,
		tracker:    cfg.Tracker,
		electorate: electorate,
	}, nil
}

// New builds a FORMING session from the initial team setups
func New(id string, teams []combat.TeamSetup, now time.Time, seed uint64) (*combat.Session, error) {
	if id == "" {
		return nil, errors.InvalidArgument("session id is required")
	}

	s := &combat.Session{
		ID:             id,
		Status:         combat.StatusForming,
		Teams:          make([]*combat.Team, 0, len(teams)),
		Seed:           seed,
		CreatedAt:      now,
		LastActivityAt: now,
	}

	for _, setup := range teams {
		team, err := buildTeam(s, setup)
		if err != nil {
			return nil, err
		}
		s.Teams = append(s.Teams, team)
	}

	return s, nil
}

// AddTeam adds a team while the session is still forming
func AddTeam(s *combat.Session, setup combat.TeamSetup, now time.Time) error {
	_, err := commit(s, now, func(w *combat.Session, _ *eventLog) error {
		if w.Status != combat.StatusForming {
			return errors.FailedPreconditionf("teams are fixed once the session is %s", w.Status).
				WithReason(combat.ReasonSessionNotForming)
		}

		team, err := buildTeam(w, setup)
		if err != nil {
			return err
		}
		w.Teams = append(w.Teams, team)
		return nil
	})
	return err
}

// Start computes initiative order and begins round 1
func (m *Machine) Start(s *combat.Session, now time.Time) ([]combat.Event, error) {
	return commit(s, now, func(w *combat.Session, log *eventLog) error {
		if w.Status != combat.StatusForming {
			return errors.FailedPreconditionf("session is %s", w.Status).
				WithReason(combat.ReasonSessionNotForming)
		}
		if len(w.Teams) < 2 {
			return errors.FailedPreconditionf("need at least 2 teams, have %d", len(w.Teams)).
				WithReason(combat.ReasonNotEnoughTeams)
		}
		for _, t := range w.Teams {
			if len(t.Participants) == 0 {
				return errors.FailedPreconditionf("team %s has no participants", t.ID).
					WithReason(combat.ReasonNotEnoughTeams).
					WithMeta("team_id", t.ID)
			}
		}

		w.TurnOrder = InitiativeOrder(w)
		w.CurrentTurn = 0
		w.Round = 1
		w.Status = combat.StatusActive

		log.add(w, combat.Event{Kind: combat.EventSessionStarted})
		log.add(w, combat.Event{Kind: combat.EventRoundStarted})

		return m.beginTurn(w, log)
	})
}

// InitiativeOrder sorts participants by initiative, highest first. Ties keep
// team order then member order.
func InitiativeOrder(s *combat.Session) []string {
	ps := s.Participants()
	slices.SortStableFunc(ps, func(a, b *combat.Participant) int {
		return cmp.Compare(b.Initiative, a.Initiative)
	})

	order := make([]string, len(ps))
	for i, p := range ps {
		order[i] = p.ID
	}
	return order
}

// SubmitAction resolves one action from the current participant, checks for
// termination and advances the turn
func (m *Machine) SubmitAction(
	s *combat.Session,
	action *combat.Action,
	roller dice.Roller,
	now time.Time,
) ([]combat.Event, error) {
	return commit(s, now, func(w *combat.Session, log *eventLog) error {
		out, err := m.resolver.Resolve(&actions.ResolveInput{
			Session: w,
			Action:  action,
			Roller:  roller,
			Now:     now,
		})
		if err != nil {
			return err
		}
		log.events = append(log.events, out.Events...)

		if checkTermination(w, log) {
			return nil
		}

		advance(w, log)
		return m.beginTurn(w, log)
	})
}

// CheckTimeout reports whether the session has been idle for at least window
func CheckTimeout(s *combat.Session, now time.Time, window time.Duration) bool {
	if s == nil || s.IsEnded() || window <= 0 {
		return false
	}
	return now.Sub(s.LastActivityAt) >= window
}

// Timeout ends an idle session with TIMEOUT
func Timeout(s *combat.Session, now time.Time) ([]combat.Event, error) {
	return End(s, combat.OutcomeTimeout, "", now)
}

// End forces the session to ENDED from any non-terminal state. teamID
// optionally names the winning team for VICTORY or the losing team for DEFEAT.
func End(s *combat.Session, outcome combat.Outcome, teamID string, now time.Time) ([]combat.Event, error) {
	if !outcome.Valid() {
		return nil, errors.InvalidArgumentf("invalid outcome %q", outcome).
			WithReason(combat.ReasonInvalidOutcome)
	}

	return commit(s, now, func(w *combat.Session, log *eventLog) error {
		if w.IsEnded() {
			return errors.FailedPrecondition("session already ended").
				WithReason(combat.ReasonSessionEnded)
		}

		var winner, loser string
		if teamID != "" {
			if _, ok := w.Team(teamID); !ok {
				return errors.NotFoundf("team %s not found", teamID).
					WithMeta("team_id", teamID)
			}
			switch outcome {
			case combat.OutcomeVictory:
				winner = teamID
			case combat.OutcomeDefeat:
				loser = teamID
			}
		}

		endSession(w, log, outcome, winner, loser)
		return nil
	})
}
