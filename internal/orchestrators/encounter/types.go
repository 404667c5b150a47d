package encounter

import (
	"github.com/KirkDiggler/rpg-combat/internal/entities/combat"
)

// CreateSessionInput defines the request for creating a combat session
type CreateSessionInput struct {
	Teams []combat.TeamSetup
	// Seed fixes the dice of the session; 0 picks a random seed
	Seed uint64
}

// CreateSessionOutput defines the response for creating a combat session
type CreateSessionOutput struct {
	Session *combat.Session
}

// AddTeamInput defines the request for adding a team to a forming session
type AddTeamInput struct {
	SessionID string
	Team      combat.TeamSetup
}

// AddTeamOutput defines the response for adding a team
type AddTeamOutput struct {
	Session *combat.Session
}

// StartSessionInput defines the request for starting a session
type StartSessionInput struct {
	SessionID string
}

// StartSessionOutput defines the response for starting a session
type StartSessionOutput struct {
	Session *combat.Session
	Events  []combat.Event
}

// GetSessionInput defines the request for reading a session
type GetSessionInput struct {
	SessionID string
}

// GetSessionOutput defines the response for reading a session
type GetSessionOutput struct {
	Session *combat.Session
	// Archived is true when the session was served from the archive
	Archived bool
}

// SubmitActionInput defines the request for submitting an action
type SubmitActionInput struct {
	SessionID string
	Action    *combat.Action
}

// SubmitActionOutput defines the response for submitting an action
type SubmitActionOutput struct {
	Session *combat.Session
	Events  []combat.Event
}

// RequestSurrenderInput defines the request for opening a surrender vote
type RequestSurrenderInput struct {
	SessionID     string
	ParticipantID string
}

// RequestSurrenderOutput defines the response for opening a surrender vote
type RequestSurrenderOutput struct {
	Session *combat.Session
	Events  []combat.Event
}

// CastSurrenderVoteInput defines the request for casting a surrender ballot
type CastSurrenderVoteInput struct {
	SessionID     string
	ParticipantID string
	Ballot        combat.Ballot
}

// CastSurrenderVoteOutput defines the response for casting a ballot
type CastSurrenderVoteOutput struct {
	Session *combat.Session
	Events  []combat.Event
}

// EndSessionInput defines the request for force ending a session
type EndSessionInput struct {
	SessionID string
	Outcome   combat.Outcome
	// TeamID optionally names the winner of a VICTORY or loser of a DEFEAT
	TeamID string
}

// EndSessionOutput defines the response for force ending a session
type EndSessionOutput struct {
	Session *combat.Session
	Events  []combat.Event
}

// ListEventsInput defines the request for reading a session's event log
type ListEventsInput struct {
	SessionID string
	// AfterSequence skips events up to and including this sequence number
	AfterSequence int
	// Limit caps the events returned; 0 returns all
	Limit int
}

// ListEventsOutput defines the response for reading an event log
type ListEventsOutput struct {
	Events []combat.Event
	// LastSequence is the highest sequence number in the session log
	LastSequence int
}

// ListArchivedInput defines the request for listing archived sessions
type ListArchivedInput struct {
	Limit int
}

// ListArchivedOutput defines the response for listing archived sessions
type ListArchivedOutput struct {
	SessionIDs []string
}

// SweepExpiredInput defines the request for one expiry sweep
type SweepExpiredInput struct{}

// SweepExpiredOutput reports what the sweep did
type SweepExpiredOutput struct {
	TimedOut []string
	Removed  []string
	Busy     []string
}
