package testutils

import (
	"github.com/KirkDiggler/rpg-combat/internal/entities/combat"
)

// Default stats for fixture participants
const (
	DefaultHP      = 10
	DefaultAP      = 3
	DefaultAPRegen = 2
)

// Combatant returns a participant setup with fixture defaults
func Combatant(id string, initiative int) combat.ParticipantSetup {
	return combat.ParticipantSetup{
		ID:         id,
		ActorRef:   "actor-" + id,
		Kind:       combat.KindPlayer,
		MaxHP:      DefaultHP,
		MaxAP:      DefaultAP,
		APRegen:    DefaultAPRegen,
		Initiative: initiative,
	}
}

// Team returns a team setup named after its id
func Team(id string, participants ...combat.ParticipantSetup) combat.TeamSetup {
	return combat.TeamSetup{
		ID:           id,
		Name:         "Team " + id,
		Participants: participants,
	}
}

// DuelTeams returns two single-member teams; "hero" on team "red" acts first
func DuelTeams() []combat.TeamSetup {
	return []combat.TeamSetup{
		Team("red", Combatant("hero", 15)),
		Team("blue", Combatant("ogre", 5)),
	}
}

// SkirmishTeams returns a 2v1 with turn order knight, rogue, troll
func SkirmishTeams() []combat.TeamSetup {
	return []combat.TeamSetup{
		Team("red", Combatant("knight", 18), Combatant("rogue", 12)),
		Team("blue", Combatant("troll", 8)),
	}
}

// FlatDamage is a dice expression that always deals n
func FlatDamage(n int) combat.DiceExpr {
	return combat.DiceExpr{Bonus: n}
}
