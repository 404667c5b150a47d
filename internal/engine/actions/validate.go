package actions

import (
	"github.com/KirkDiggler/rpg-combat/internal/engine/effects"
	"github.com/KirkDiggler/rpg-combat/internal/entities/combat"
	"github.com/KirkDiggler/rpg-combat/internal/errors"
)

// Bounds on dice expressions. maxBonus keeps a doubled critical far from
// integer overflow.
const (
	maxDice  = 100
	maxBonus = 10000
)

// Validate checks every precondition of an action in order and returns the
// participants it will affect. It never mutates the session.
//
// Order: payload present, session ACTIVE, actor's turn, actor alive, payload
// shape, resources, then targets.
func (r *Resolver) Validate(s *combat.Session, action *combat.Action) ([]*combat.Participant, error) {
	if s == nil {
		return nil, errors.InvalidArgument("session is required")
	}
	if action == nil || action.Payload == nil {
		return nil, errors.InvalidArgument("action payload is required").WithReason(combat.ReasonInvalidAction)
	}

	if s.Status != combat.StatusActive {
		return nil, errors.FailedPreconditionf("session is %s, actions require %s", s.Status, combat.StatusActive).
			WithReason(combat.ReasonSessionNotActive).
			WithMeta("session_id", s.ID)
	}

	actor, ok := s.Participant(action.ActorID)
	if !ok {
		return nil, errors.NotFoundf("participant %s not found", action.ActorID).
			WithReason(combat.ReasonActorNotFound).
			WithMeta("actor_id", action.ActorID)
	}

	if current := s.CurrentParticipantID(); current != actor.ID {
		return nil, errors.InvalidArgumentf("it is %s's turn", current).
			WithReason(combat.ReasonNotActorTurn).
			WithMeta("actor_id", actor.ID).
			WithMeta("current_turn", current)
	}

	if !actor.InCombat() {
		return nil, errors.InvalidArgument("actor is defeated").
			WithReason(combat.ReasonActorDefeated).
			WithMeta("actor_id", actor.ID)
	}

	if err := validateShape(action); err != nil {
		return nil, err
	}

	if cost := Cost(action); cost > actor.AP {
		return nil, errors.InvalidArgumentf("action costs %d, actor has %d", cost, actor.AP).
			WithReason(combat.ReasonInsufficientResource).
			WithMeta("cost", cost).
			WithMeta("available", actor.AP)
	}

	return selectTargets(s, actor, action)
}

func validateShape(action *combat.Action) error {
	vb := errors.NewValidationBuilder()
	errors.ValidateRequired("actor_id", action.ActorID, vb)

	if c := action.SkillCheck; c != nil && c.Difficulty < 0 {
		vb.Field("skill_check.difficulty", "must not be negative")
	}

	switch p := action.Payload.(type) {
	case *combat.Attack:
		validateDice("damage", p.Damage, vb)
		validatePenetration(p.Penetration, vb)
	case *combat.Ability:
		if p.Cost < 0 {
			vb.Field("cost", "must not be negative")
		}
		validateDice("damage", p.Damage, vb)
		validateDice("healing", p.Healing, vb)
		validatePenetration(p.Penetration, vb)
		validatePayloadEffect(p.Effect, vb)
		if p.Revive && !p.TargetsAllies {
			vb.Field("revive", "requires targets_allies")
		}
	case *combat.Item:
		validateDice("damage", p.Damage, vb)
		validateDice("healing", p.Healing, vb)
		validatePayloadEffect(p.Effect, vb)
		if p.Revive && p.Offensive {
			vb.Field("revive", "cannot be offensive")
		}
	case *combat.Defend:
	case *combat.Flee:
		if p.Difficulty < 0 {
			vb.Field("difficulty", "must not be negative")
		}
	}

	if err := vb.Build(); err != nil {
		return errors.Wrap(err, "invalid action").WithReason(combat.ReasonInvalidAction)
	}
	return nil
}

func validateDice(field string, d combat.DiceExpr, vb *errors.ValidationBuilder) {
	if d.Count < 0 || d.Sides < 0 || d.Bonus < 0 {
		vb.Field(field, "must not be negative")
	}
	if d.Count > maxDice {
		vb.Fieldf(field, "at most %d dice", maxDice)
	}
	if d.Sides > maxBonus || d.Bonus > maxBonus {
		vb.Fieldf(field, "sides and bonus must be at most %d", maxBonus)
	}
	if d.Count > 0 && d.Sides == 0 {
		vb.Field(field, "dice need sides")
	}
}

func validatePenetration(pen float64, vb *errors.ValidationBuilder) {
	if pen < 0 || pen > 1 {
		vb.Field("penetration", "must be between 0 and 1")
	}
}

func validatePayloadEffect(e *combat.StatusEffect, vb *errors.ValidationBuilder) {
	if e == nil {
		return
	}
	if err := effects.Validate(*e); err != nil {
		vb.Field("effect", errors.GetMessage(err))
	}
}

// targetRule describes who an action may affect
type targetRule struct {
	none        bool
	allies      bool
	anySide     bool
	allowSelf   bool
	revive      bool
	area        bool
	defaultSelf bool
}

func ruleFor(action *combat.Action) targetRule {
	switch p := action.Payload.(type) {
	case *combat.Attack:
		return targetRule{anySide: p.FriendlyFire}
	case *combat.Ability:
		return targetRule{
			allies:    p.TargetsAllies,
			anySide:   p.FriendlyFire,
			allowSelf: p.TargetsAllies,
			revive:    p.Revive,
			area:      p.Area,
		}
	case *combat.Item:
		return targetRule{
			allies:      !p.Offensive,
			allowSelf:   !p.Offensive,
			revive:      p.Revive,
			defaultSelf: !p.Offensive && !p.Revive,
		}
	default:
		return targetRule{none: true}
	}
}

func selectTargets(s *combat.Session, actor *combat.Participant, action *combat.Action) ([]*combat.Participant, error) {
	rule := ruleFor(action)

	if rule.none {
		if len(action.TargetIDs) > 0 {
			return nil, errors.InvalidArgumentf("%s takes no targets", action.Type()).
				WithReason(combat.ReasonInvalidTarget)
		}
		return nil, nil
	}

	if len(action.TargetIDs) == 0 {
		switch {
		case rule.area:
			return areaTargets(s, actor, rule)
		case rule.defaultSelf:
			return []*combat.Participant{actor}, nil
		default:
			return nil, errors.InvalidArgumentf("%s requires a target", action.Type()).
				WithReason(combat.ReasonMissingTarget)
		}
	}

	seen := make(map[string]bool, len(action.TargetIDs))
	targets := make([]*combat.Participant, 0, len(action.TargetIDs))
	for _, id := range action.TargetIDs {
		if seen[id] {
			return nil, errors.InvalidArgumentf("target %s listed twice", id).
				WithReason(combat.ReasonInvalidTarget).
				WithMeta("target_id", id)
		}
		seen[id] = true

		t, ok := s.Participant(id)
		if !ok {
			return nil, errors.NotFoundf("target %s not found", id).
				WithReason(combat.ReasonTargetNotFound).
				WithMeta("target_id", id)
		}
		if err := checkTarget(actor, t, rule); err != nil {
			return nil, err
		}
		targets = append(targets, t)
	}

	return targets, nil
}

func checkTarget(actor, t *combat.Participant, rule targetRule) error {
	if t.Fled {
		return errors.InvalidArgumentf("target %s has left combat", t.ID).
			WithReason(combat.ReasonInvalidTarget).
			WithMeta("target_id", t.ID)
	}

	if rule.revive && t.Alive {
		return errors.InvalidArgumentf("target %s is not defeated", t.ID).
			WithReason(combat.ReasonTargetNotDefeated).
			WithMeta("target_id", t.ID)
	}
	if !rule.revive && !t.Alive {
		return errors.InvalidArgumentf("target %s is defeated", t.ID).
			WithReason(combat.ReasonTargetDefeated).
			WithMeta("target_id", t.ID)
	}

	if t.ID == actor.ID && !rule.allowSelf {
		return errors.InvalidArgument("actor cannot target itself").
			WithReason(combat.ReasonInvalidTarget).
			WithMeta("target_id", t.ID)
	}

	if rule.anySide {
		return nil
	}

	ally := t.TeamID == actor.TeamID
	if rule.allies && !ally {
		return errors.InvalidArgumentf("target %s is not an ally", t.ID).
			WithReason(combat.ReasonInvalidTarget).
			WithMeta("target_id", t.ID)
	}
	if !rule.allies && ally {
		return errors.InvalidArgumentf("target %s is an ally", t.ID).
			WithReason(combat.ReasonInvalidTarget).
			WithMeta("target_id", t.ID)
	}

	return nil
}

// areaTargets picks every eligible participant: allies or enemies still in
// combat, or defeated allies for a revive
func areaTargets(s *combat.Session, actor *combat.Participant, rule targetRule) ([]*combat.Participant, error) {
	var out []*combat.Participant
	for _, p := range s.Participants() {
		if p.Fled {
			continue
		}
		ally := p.TeamID == actor.TeamID
		if rule.allies != ally && !rule.anySide {
			continue
		}
		if p.ID == actor.ID && !rule.allowSelf {
			continue
		}
		if rule.revive == p.Alive {
			continue
		}
		out = append(out, p)
	}

	if len(out) == 0 {
		return nil, errors.InvalidArgument("no eligible targets in area").
			WithReason(combat.ReasonMissingTarget)
	}
	return out, nil
}
