package combat

// Reasons tag engine errors so callers can branch on the exact precondition
// that failed. They travel as errdetails.ErrorInfo reasons over gRPC.
const (
	ReasonSessionNotFound      = "session_not_found"
	ReasonSessionBusy          = "session_busy"
	ReasonSessionNotActive     = "session_not_active"
	ReasonSessionNotForming    = "session_not_forming"
	ReasonSessionEnded         = "session_ended"
	ReasonNotEnoughTeams       = "not_enough_teams"
	ReasonInvalidSetup         = "invalid_setup"
	ReasonActorNotFound        = "actor_not_found"
	ReasonNotActorTurn         = "not_actor_turn"
	ReasonActorDefeated        = "actor_defeated"
	ReasonInsufficientResource = "insufficient_resources"
	ReasonInvalidAction        = "invalid_action"
	ReasonMissingTarget        = "missing_target"
	ReasonTargetNotFound       = "target_not_found"
	ReasonTargetDefeated       = "target_defeated"
	ReasonTargetNotDefeated    = "target_not_defeated"
	ReasonInvalidTarget        = "invalid_target"
	ReasonInvalidEffect        = "invalid_effect"
	ReasonNoVoteInProgress     = "no_vote_in_progress"
	ReasonNotEligibleVoter     = "not_eligible_voter"
	ReasonAlreadyVoted         = "already_voted"
	ReasonInvalidBallot        = "invalid_ballot"
	ReasonInvalidOutcome       = "invalid_outcome"
	ReasonInvariantViolation   = "invariant_violation"
)
