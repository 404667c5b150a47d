// Package combat holds the data model of a combat session.
//
// These are data-only structs plus lookup and copy helpers. Rules live in
// internal/engine; nothing here rolls dice or changes HP.
package combat

import "time"

// Status is the lifecycle state of a session
type Status string

// Session states
const (
	StatusForming               Status = "FORMING"
	StatusActive                Status = "ACTIVE"
	StatusAwaitingSurrenderVote Status = "AWAITING_SURRENDER_VOTE"
	StatusEnded                 Status = "ENDED"
)

// Outcome is the terminal result of a session. The zero value means unset.
type Outcome string

// Session outcomes
const (
	OutcomeUnset   Outcome = ""
	OutcomeVictory Outcome = "VICTORY"
	OutcomeDefeat  Outcome = "DEFEAT"
	OutcomeDraw    Outcome = "DRAW"
	OutcomeTimeout Outcome = "TIMEOUT"
)

// Valid reports whether o is one of the terminal outcomes
func (o Outcome) Valid() bool {
	switch o {
	case OutcomeVictory, OutcomeDefeat, OutcomeDraw, OutcomeTimeout:
		return true
	default:
		return false
	}
}

// Session is one combat encounter between two or more teams
type Session struct {
	ID          string   `json:"id"`
	Status      Status   `json:"status"`
	Teams       []*Team  `json:"teams"`
	TurnOrder   []string `json:"turn_order"`
	CurrentTurn int      `json:"current_turn"`
	Round       int      `json:"round"`

	// Seed is the roller seed, recorded so an encounter can be replayed
	Seed uint64 `json:"seed"`

	CreatedAt      time.Time `json:"created_at"`
	LastActivityAt time.Time `json:"last_activity_at"`
	EndedAt        time.Time `json:"ended_at"`

	Outcome       Outcome `json:"outcome,omitempty"`
	WinningTeamID string  `json:"winning_team_id,omitempty"`
	LosingTeamID  string  `json:"losing_team_id,omitempty"`

	Surrender *SurrenderState `json:"surrender,omitempty"`
	Events    []Event         `json:"events"`
}

// Team is an ordered group of participants fighting on the same side
type Team struct {
	ID           string         `json:"id"`
	Name         string         `json:"name"`
	Participants []*Participant `json:"participants"`
}

// IsEnded reports whether the session reached its terminal state
func (s *Session) IsEnded() bool {
	return s.Status == StatusEnded
}

// Team returns the team with the given id
func (s *Session) Team(id string) (*Team, bool) {
	for _, t := range s.Teams {
		if t.ID == id {
			return t, true
		}
	}
	return nil, false
}

// Participant returns the participant with the given id from any team
func (s *Session) Participant(id string) (*Participant, bool) {
	for _, t := range s.Teams {
		for _, p := range t.Participants {
			if p.ID == id {
				return p, true
			}
		}
	}
	return nil, false
}

// Participants returns every participant in team order
func (s *Session) Participants() []*Participant {
	var out []*Participant
	for _, t := range s.Teams {
		out = append(out, t.Participants...)
	}
	return out
}

// CurrentParticipantID returns the id of the participant whose turn it is,
// or "" when no turn order exists yet
func (s *Session) CurrentParticipantID() string {
	if s.CurrentTurn < 0 || s.CurrentTurn >= len(s.TurnOrder) {
		return ""
	}
	return s.TurnOrder[s.CurrentTurn]
}

// TeamsInCombat returns the teams that still have at least one participant
// able to fight
func (s *Session) TeamsInCombat() []*Team {
	var out []*Team
	for _, t := range s.Teams {
		if t.InCombat() {
			out = append(out, t)
		}
	}
	return out
}

// InCombat reports whether any member of the team can still act
func (t *Team) InCombat() bool {
	for _, p := range t.Participants {
		if p.InCombat() {
			return true
		}
	}
	return false
}

// AppendEvents stamps the events with the next sequence numbers and ids and
// appends them to the log
func (s *Session) AppendEvents(events ...Event) []Event {
	start := len(s.Events)
	for i := range events {
		seq := start + i + 1
		events[i].Sequence = seq
		events[i].ID = EventID(s.ID, seq)
		s.Events = append(s.Events, events[i])
	}
	return s.Events[start:]
}

// Clone returns a deep copy of the session
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}

	out := *s
	if s.Teams != nil {
		out.Teams = make([]*Team, len(s.Teams))
		for i, t := range s.Teams {
			out.Teams[i] = t.Clone()
		}
	}
	if s.TurnOrder != nil {
		out.TurnOrder = make([]string, len(s.TurnOrder))
		copy(out.TurnOrder, s.TurnOrder)
	}
	out.Surrender = s.Surrender.Clone()

	if s.Events != nil {
		out.Events = make([]Event, len(s.Events))
		for i := range s.Events {
			out.Events[i] = s.Events[i].Clone()
		}
	}

	return &out
}

// Clone returns a deep copy of the team
func (t *Team) Clone() *Team {
	out := *t
	out.Participants = make([]*Participant, len(t.Participants))
	for i, p := range t.Participants {
		out.Participants[i] = p.Clone()
	}
	return &out
}
