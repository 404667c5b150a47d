package effects

import "github.com/KirkDiggler/rpg-combat/internal/entities/combat"

// ApplyDamage lowers HP by amount, clamped at zero, and returns the damage
// actually dealt. Reaching zero marks the participant defeated.
func ApplyDamage(p *combat.Participant, amount int) int {
	if amount <= 0 || !p.Alive {
		return 0
	}
	if amount > p.HP {
		amount = p.HP
	}
	p.HP -= amount
	if p.HP == 0 {
		p.Alive = false
	}
	return amount
}

// ApplyHealing raises HP by amount, clamped at MaxHP, and returns the
// healing actually done. Dead participants are not healed.
func ApplyHealing(p *combat.Participant, amount int) int {
	if amount <= 0 || !p.Alive {
		return 0
	}
	if room := p.MaxHP - p.HP; amount > room {
		amount = room
	}
	p.HP += amount
	return amount
}

// Revive brings a defeated participant back with hp, clamped to [1, MaxHP].
// Effects are cleared. It returns false if the participant was not defeated.
func Revive(p *combat.Participant, hp int) bool {
	if p.Alive || p.Fled {
		return false
	}
	if hp < 1 {
		hp = 1
	}
	if hp > p.MaxHP {
		hp = p.MaxHP
	}
	p.HP = hp
	p.Alive = true
	p.Effects = nil
	return true
}
