package session

import (
	"github.com/KirkDiggler/rpg-combat/internal/entities/combat"
	"github.com/KirkDiggler/rpg-combat/internal/errors"
)

// buildTeam validates a team setup against the session it joins
func buildTeam(s *combat.Session, setup combat.TeamSetup) (*combat.Team, error) {
	vb := errors.NewValidationBuilder()

	errors.ValidateRequired("team.id", setup.ID, vb)
	if _, exists := s.Team(setup.ID); exists && setup.ID != "" {
		vb.Fieldf("team.id", "%s already in session", setup.ID)
	}
	if len(setup.Participants) == 0 {
		vb.Field("team.participants", "at least one participant is required")
	}

	seen := make(map[string]bool, len(setup.Participants))
	for i, ps := range setup.Participants {
		field := func(name string) string {
			if ps.ID != "" {
				return "participant[" + ps.ID + "]." + name
			}
			return "participant." + name
		}

		if ps.ID == "" {
			vb.Fieldf("participant.id", "is required at index %d", i)
		} else {
			if _, exists := s.Participant(ps.ID); exists || seen[ps.ID] {
				vb.Field(field("id"), "is not unique")
			}
			seen[ps.ID] = true
		}

		if ps.MaxHP < 1 {
			vb.Field(field("max_hp"), "must be at least 1")
		}
		if ps.HP < 0 || ps.HP > ps.MaxHP {
			vb.Field(field("hp"), "must be between 0 and max_hp")
		}
		if ps.MaxAP < 0 {
			vb.Field(field("max_ap"), "must not be negative")
		}
		if ps.AP < 0 || ps.AP > ps.MaxAP {
			vb.Field(field("ap"), "must be between 0 and max_ap")
		}
		if ps.APRegen < 0 {
			vb.Field(field("ap_regen"), "must not be negative")
		}
		if ps.Armor < 0 {
			vb.Field(field("armor"), "must not be negative")
		}
		if ps.Kind != "" && ps.Kind != combat.KindPlayer && ps.Kind != combat.KindNPC {
			vb.Fieldf(field("kind"), "unknown kind %q", ps.Kind)
		}
	}

	if err := vb.Build(); err != nil {
		return nil, errors.Wrap(err, "invalid team setup").
			WithReason(combat.ReasonInvalidSetup).
			WithMeta("team_id", setup.ID)
	}

	return setup.Build(), nil
}
