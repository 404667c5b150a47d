package actions

import (
	"math"

	"github.com/KirkDiggler/rpg-toolkit/dice"

	"github.com/KirkDiggler/rpg-combat/internal/engine/effects"
	"github.com/KirkDiggler/rpg-combat/internal/engine/skillcheck"
	"github.com/KirkDiggler/rpg-combat/internal/entities/combat"
	"github.com/KirkDiggler/rpg-combat/internal/errors"
)

// CriticalMultiplier scales damage and healing on a natural 20
const CriticalMultiplier = 2

// MaxDamageReduction caps the summed damage_reduction percent
const MaxDamageReduction = 100

// impact is the numeric part of an action, shared by every variant
type impact struct {
	damage      combat.DiceExpr
	healing     combat.DiceExpr
	penetration float64
	effect      *combat.StatusEffect
	revive      bool
	offensive   bool
}

func (r *Resolver) applyImpact(
	rec *recorder,
	roller dice.Roller,
	actor *combat.Participant,
	targets []*combat.Participant,
	check *combat.SkillCheckRequirement,
	im impact,
) error {
	critical := false
	if check != nil {
		res, err := skillcheck.Resolve(roller, skillcheck.Input{
			Modifier:   check.Modifier,
			Difficulty: check.Difficulty,
			Advantage:  check.Advantage,
		})
		if err != nil {
			return errors.Wrap(err, "failed to resolve skill check")
		}
		rec.add(combat.Event{Kind: combat.EventSkillCheck, Roll: res.Detail()})

		if !res.Success {
			for _, t := range targets {
				rec.add(combat.Event{Kind: combat.EventMiss, TargetID: t.ID})
			}
			return nil
		}
		critical = res.Critical
	}

	damage, err := RollDice(roller, im.damage)
	if err != nil {
		return errors.Wrap(err, "failed to roll damage")
	}
	healing, err := RollDice(roller, im.healing)
	if err != nil {
		return errors.Wrap(err, "failed to roll healing")
	}
	if critical {
		damage *= CriticalMultiplier
		healing *= CriticalMultiplier
	}
	if damage > 0 {
		damage = OutgoingDamage(actor, damage)
	}

	for _, t := range targets {
		if im.offensive {
			kind := combat.EventHit
			if critical {
				kind = combat.EventCritical
			}
			rec.add(combat.Event{Kind: kind, TargetID: t.ID})
		}

		if im.revive {
			if effects.Revive(t, healing) {
				rec.add(combat.Event{Kind: combat.EventParticipantRevived, TargetID: t.ID, HPDelta: t.HP})
			}
		} else if healing > 0 {
			applied := effects.ApplyHealing(t, healing)
			rec.add(combat.Event{Kind: combat.EventHeal, TargetID: t.ID, HPDelta: applied})
		}

		if damage > 0 && t.Alive {
			applied := effects.ApplyDamage(t, Mitigate(t, damage, im.penetration))
			rec.add(combat.Event{Kind: combat.EventDamage, TargetID: t.ID, HPDelta: -applied})
			if !t.Alive {
				rec.add(combat.Event{Kind: combat.EventParticipantDefeated, TargetID: t.ID, TeamID: t.TeamID})
			}
		}

		if im.effect != nil && t.InCombat() {
			effect := *im.effect
			effect.ID = ""
			effect.SourceID = actor.ID
			res, err := r.tracker.Apply(t, effect)
			if err != nil {
				return err
			}
			e := combat.Event{Kind: combat.EventEffectApplied, TargetID: t.ID, EffectType: res.Effect.Type}
			if res.Refreshed {
				e.Detail = "refreshed"
			}
			rec.add(e)
		}
	}

	return nil
}

// RollDice evaluates a dice expression with the roller
func RollDice(roller dice.Roller, expr combat.DiceExpr) (int, error) {
	total := expr.Bonus
	if expr.Count > 0 && expr.Sides > 0 {
		rolls, err := roller.RollN(expr.Count, expr.Sides)
		if err != nil {
			return 0, err
		}
		for _, v := range rolls {
			total += v
		}
	}
	if total < 0 {
		total = 0
	}
	return total, nil
}

// OutgoingDamage applies the attacker's damage_bonus and weaken effects
func OutgoingDamage(attacker *combat.Participant, base int) int {
	dmg := base + effects.Sum(attacker, combat.CategoryDamageBonus) - effects.Sum(attacker, combat.CategoryWeaken)
	if dmg < 0 {
		return 0
	}
	return dmg
}

// Mitigate applies the target's armor and damage_reduction effects. Armor
// absorbs armor/(armor+100) of the hit, scaled down by penetration.
func Mitigate(target *combat.Participant, dmg int, penetration float64) int {
	if dmg <= 0 {
		return 0
	}

	if target.Armor > 0 {
		pen := math.Min(math.Max(penetration, 0), 1)
		armor := float64(target.Armor)
		absorbed := armor / (armor + 100) * (1 - pen)
		dmg = int(math.Round(float64(dmg) * (1 - absorbed)))
	}

	reduction := effects.Sum(target, combat.CategoryDamageReduction)
	if reduction > MaxDamageReduction {
		reduction = MaxDamageReduction
	}
	dmg = dmg * (100 - reduction) / 100

	if dmg < 0 {
		return 0
	}
	return dmg
}
