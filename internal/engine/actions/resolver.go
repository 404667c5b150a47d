// Package actions validates and resolves combat actions against a session.
//
// Resolve mutates the session it is given. Callers that need all-or-nothing
// semantics resolve against a clone and keep it only on success.
package actions

import (
	"time"

	"github.com/KirkDiggler/rpg-toolkit/dice"

	"github.com/KirkDiggler/rpg-combat/internal/engine/effects"
	"github.com/KirkDiggler/rpg-combat/internal/engine/skillcheck"
	"github.com/KirkDiggler/rpg-combat/internal/entities/combat"
	"github.com/KirkDiggler/rpg-combat/internal/errors"
)

// Config holds the dependencies of a Resolver
type Config struct {
	Tracker *effects.Tracker
}

// Validate ensures all required dependencies are provided
func (c *Config) Validate() error {
	vb := errors.NewValidationBuilder()

	if c.Tracker == nil {
		vb.RequiredField("Tracker")
	}

	return vb.Build()
}

// Resolver turns a validated action into state changes and events
type Resolver struct {
	tracker *effects.Tracker
}

// NewResolver creates a resolver with the provided dependencies
func NewResolver(cfg *Config) (*Resolver, error) {
	if cfg == nil {
		return nil, errors.InvalidArgument("config is required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid config")
	}

	return &Resolver{tracker: cfg.Tracker}, nil
}

// ResolveInput is one action to resolve
type ResolveInput struct {
	Session *combat.Session
	Action  *combat.Action
	Roller  dice.Roller
	Now     time.Time
}

// ResolveOutput holds the events produced, not yet sequenced
type ResolveOutput struct {
	Events []combat.Event
}

// Resolve validates the action and applies it. On error the session may have
// been partially changed and must be discarded.
func (r *Resolver) Resolve(input *ResolveInput) (*ResolveOutput, error) {
	if input == nil {
		return nil, errors.InvalidArgument("input is required")
	}
	if input.Roller == nil {
		return nil, errors.InvalidArgument("roller is required")
	}

	targets, err := r.Validate(input.Session, input.Action)
	if err != nil {
		return nil, err
	}

	s := input.Session
	action := input.Action
	actor, _ := s.Participant(action.ActorID)

	rec := &recorder{
		round:      s.Round,
		now:        input.Now,
		actorID:    actor.ID,
		actionType: action.Type(),
	}

	if cost := Cost(action); cost > 0 {
		actor.AP -= cost
		rec.add(combat.Event{Kind: combat.EventResourcesSpent, TargetID: actor.ID, ResourceDelta: -cost})
	}

	switch p := action.Payload.(type) {
	case *combat.Attack:
		err = r.applyImpact(rec, input.Roller, actor, targets, action.SkillCheck, impact{
			damage:      p.Damage,
			penetration: p.Penetration,
			offensive:   true,
		})
	case *combat.Ability:
		err = r.applyImpact(rec, input.Roller, actor, targets, action.SkillCheck, impact{
			damage:      p.Damage,
			healing:     p.Healing,
			penetration: p.Penetration,
			effect:      p.Effect,
			revive:      p.Revive,
			offensive:   !p.TargetsAllies && !p.Revive,
		})
	case *combat.Item:
		err = r.applyImpact(rec, input.Roller, actor, targets, action.SkillCheck, impact{
			damage:    p.Damage,
			healing:   p.Healing,
			effect:    p.Effect,
			revive:    p.Revive,
			offensive: p.Offensive,
		})
	case *combat.Defend:
		err = r.applyImpact(rec, input.Roller, actor, []*combat.Participant{actor}, action.SkillCheck, impact{
			effect: &combat.StatusEffect{
				Type:      combat.EffectDefending,
				Category:  combat.CategoryDamageReduction,
				Magnitude: combat.DefendingReduction,
				Duration:  1,
			},
		})
	case *combat.Flee:
		err = resolveFlee(rec, input.Roller, actor, action.SkillCheck, p)
	default:
		err = errors.InvalidArgumentf("unsupported action payload %T", p).WithReason(combat.ReasonInvalidAction)
	}
	if err != nil {
		return nil, err
	}

	return &ResolveOutput{Events: rec.events}, nil
}

// Cost returns the action point cost of an action
func Cost(action *combat.Action) int {
	if action == nil {
		return 0
	}

	switch p := action.Payload.(type) {
	case *combat.Attack:
		return combat.CostAttack
	case *combat.Ability:
		if p.Cost > 0 {
			return p.Cost
		}
		return combat.CostAbilityDefault
	case *combat.Item:
		return combat.CostItem
	case *combat.Defend:
		return combat.CostDefend
	case *combat.Flee:
		return combat.CostFlee
	default:
		return 0
	}
}

// recorder accumulates events sharing the action's round, time and actor
type recorder struct {
	round      int
	now        time.Time
	actorID    string
	actionType combat.ActionType
	events     []combat.Event
}

func (r *recorder) add(e combat.Event) {
	e.Round = r.round
	e.Timestamp = r.now
	e.ActorID = r.actorID
	e.ActionType = r.actionType
	r.events = append(r.events, e)
}

func resolveFlee(
	rec *recorder,
	roller dice.Roller,
	actor *combat.Participant,
	check *combat.SkillCheckRequirement,
	flee *combat.Flee,
) error {
	in := skillcheck.Input{Difficulty: flee.Difficulty}
	if in.Difficulty == 0 {
		in.Difficulty = combat.DefaultFleeDifficulty
	}
	if check != nil {
		in = skillcheck.Input{Modifier: check.Modifier, Difficulty: check.Difficulty, Advantage: check.Advantage}
	}

	res, err := skillcheck.Resolve(roller, in)
	if err != nil {
		return errors.Wrap(err, "failed to resolve flee check")
	}
	rec.add(combat.Event{Kind: combat.EventSkillCheck, TargetID: actor.ID, Roll: res.Detail()})

	if !res.Success {
		rec.add(combat.Event{Kind: combat.EventMiss, TargetID: actor.ID, Detail: "flee_failed"})
		return nil
	}

	actor.Fled = true
	rec.add(combat.Event{Kind: combat.EventParticipantFled, TargetID: actor.ID, TeamID: actor.TeamID})
	return nil
}
