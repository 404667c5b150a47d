package combat

import (
	"fmt"
	"time"
)

// EventKind is the outcome recorded by a combat event
type EventKind string

// Event kinds
const (
	EventHit                 EventKind = "hit"
	EventMiss                EventKind = "miss"
	EventCritical            EventKind = "critical"
	EventDamage              EventKind = "damage"
	EventHeal                EventKind = "heal"
	EventEffectApplied       EventKind = "effect_applied"
	EventEffectTicked        EventKind = "effect_ticked"
	EventEffectExpired       EventKind = "effect_expired"
	EventEffectRemoved       EventKind = "effect_removed"
	EventParticipantDefeated EventKind = "participant_defeated"
	EventParticipantRevived  EventKind = "participant_revived"
	EventParticipantFled     EventKind = "participant_fled"
	EventTurnStarted         EventKind = "turn_started"
	EventTurnSkipped         EventKind = "turn_skipped"
	EventRoundStarted        EventKind = "round_started"
	EventResourcesSpent      EventKind = "resources_spent"
	EventSkillCheck          EventKind = "skill_check"
	EventSurrenderRequested  EventKind = "surrender_requested"
	EventSurrenderVoteCast   EventKind = "surrender_vote_cast"
	EventSurrenderResolved   EventKind = "surrender_resolved"
	EventSessionStarted      EventKind = "session_started"
	EventSessionEnded        EventKind = "session_ended"
)

// AllEventKinds lists every kind in declaration order
var AllEventKinds = []EventKind{
	EventHit, EventMiss, EventCritical, EventDamage, EventHeal,
	EventEffectApplied, EventEffectTicked, EventEffectExpired, EventEffectRemoved,
	EventParticipantDefeated, EventParticipantRevived, EventParticipantFled,
	EventTurnStarted, EventTurnSkipped, EventRoundStarted, EventResourcesSpent,
	EventSkillCheck, EventSurrenderRequested, EventSurrenderVoteCast,
	EventSurrenderResolved, EventSessionStarted, EventSessionEnded,
}

// Event is one immutable entry of a session's log
type Event struct {
	ID         string     `json:"id"`
	Sequence   int        `json:"sequence"`
	Timestamp  time.Time  `json:"timestamp"`
	Round      int        `json:"round"`
	Kind       EventKind  `json:"kind"`
	ActorID    string     `json:"actor_id,omitempty"`
	ActionType ActionType `json:"action_type,omitempty"`
	TargetID   string     `json:"target_id,omitempty"`
	TeamID     string     `json:"team_id,omitempty"`

	HPDelta       int `json:"hp_delta,omitempty"`
	ResourceDelta int `json:"resource_delta,omitempty"`

	EffectType string      `json:"effect_type,omitempty"`
	Roll       *RollDetail `json:"roll,omitempty"`
	Ballot     Ballot      `json:"ballot,omitempty"`
	Outcome    Outcome     `json:"outcome,omitempty"`
	// Detail is a short machine readable qualifier, e.g. "passed"
	Detail string `json:"detail,omitempty"`
}

// RollDetail records a skill check as it was resolved
type RollDetail struct {
	Rolls           []int `json:"rolls"`
	Natural         int   `json:"natural"`
	Modifier        int   `json:"modifier"`
	Total           int   `json:"total"`
	Difficulty      int   `json:"difficulty"`
	Margin          int   `json:"margin"`
	Advantage       bool  `json:"advantage,omitempty"`
	Success         bool  `json:"success"`
	Critical        bool  `json:"critical,omitempty"`
	CriticalFailure bool  `json:"critical_failure,omitempty"`
}

// Clone returns a deep copy of the event
func (e Event) Clone() Event {
	if e.Roll != nil {
		roll := *e.Roll
		roll.Rolls = append([]int(nil), e.Roll.Rolls...)
		e.Roll = &roll
	}
	return e
}

// EventID derives the id of the event at seq within a session
func EventID(sessionID string, seq int) string {
	return fmt.Sprintf("%s-%06d", sessionID, seq)
}
