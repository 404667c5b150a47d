// Package effects tracks timed status effects on participants.
//
// A Tracker holds only stacking policy; effect state lives on the
// participant, so every call operates on the participant passed in.
package effects

import (
	"github.com/KirkDiggler/rpg-combat/internal/entities/combat"
	"github.com/KirkDiggler/rpg-combat/internal/errors"
	"github.com/KirkDiggler/rpg-combat/internal/pkg/idgen"
)

// Policy decides what happens when an effect type is applied twice
type Policy int

const (
	// PolicyRefresh resets the existing instance's duration and source and
	// keeps its magnitude
	PolicyRefresh Policy = iota
	// PolicyStack adds another independent instance
	PolicyStack
	// PolicyKeepStronger resets the duration and keeps the larger magnitude
	PolicyKeepStronger
)

func (p Policy) String() string {
	switch p {
	case PolicyRefresh:
		return "refresh"
	case PolicyStack:
		return "stack"
	case PolicyKeepStronger:
		return "keep_stronger"
	default:
		return "unknown"
	}
}

// Config configures a Tracker
type Config struct {
	// IDGenerator assigns ids to new effect instances. Defaults to a
	// sequential generator.
	IDGenerator idgen.Generator
	// Policies overrides the stacking policy per effect type
	Policies map[string]Policy
}

// Tracker applies, ticks and removes status effects
type Tracker struct {
	idGen    idgen.Generator
	policies map[string]Policy
}

// NewTracker creates a tracker. A nil config yields default policies.
func NewTracker(cfg *Config) *Tracker {
	if cfg == nil {
		cfg = &Config{}
	}

	idGen := cfg.IDGenerator
	if idGen == nil {
		idGen = idgen.NewSequential("effect")
	}

	policies := make(map[string]Policy, len(cfg.Policies))
	for k, v := range cfg.Policies {
		policies[k] = v
	}

	return &Tracker{
		idGen:    idGen,
		policies: policies,
	}
}

// PolicyFor returns the stacking policy of an effect type
func (t *Tracker) PolicyFor(effectType string) Policy {
	if p, ok := t.policies[effectType]; ok {
		return p
	}
	return PolicyRefresh
}

// ApplyResult describes what Apply did
type ApplyResult struct {
	// Effect is the instance now active on the participant
	Effect combat.StatusEffect
	// Refreshed is true when an existing instance was updated in place
	Refreshed bool
}

// Apply attaches an effect to the participant following the type's policy
func (t *Tracker) Apply(p *combat.Participant, effect combat.StatusEffect) (*ApplyResult, error) {
	if p == nil {
		return nil, errors.InvalidArgument("participant is required")
	}
	if err := Validate(effect); err != nil {
		return nil, err
	}

	policy := t.PolicyFor(effect.Type)
	if policy != PolicyStack {
		for i := range p.Effects {
			existing := &p.Effects[i]
			if existing.Type != effect.Type {
				continue
			}

			existing.Duration = effect.Duration
			existing.SourceID = effect.SourceID
			if policy == PolicyKeepStronger && effect.Magnitude > existing.Magnitude {
				existing.Magnitude = effect.Magnitude
			}

			return &ApplyResult{Effect: *existing, Refreshed: true}, nil
		}
	}

	if effect.ID == "" {
		effect.ID = t.idGen.Generate()
	}
	p.Effects = append(p.Effects, effect)

	return &ApplyResult{Effect: effect}, nil
}

// Validate checks an effect's shape before it is applied
func Validate(effect combat.StatusEffect) error {
	vb := errors.NewValidationBuilder()
	errors.ValidateRequired("type", effect.Type, vb)
	if !effect.Category.Valid() {
		vb.InvalidField("category", string(effect.Category))
	}
	if effect.Duration < 0 {
		vb.Field("duration", "must not be negative")
	}
	if effect.Magnitude < 0 {
		vb.Field("magnitude", "must not be negative")
	}

	if err := vb.Build(); err != nil {
		return errors.Wrap(err, "invalid status effect").WithReason(combat.ReasonInvalidEffect)
	}
	return nil
}

// TickEntry records one effect's periodic application
type TickEntry struct {
	Effect combat.StatusEffect
	// HPDelta is the HP actually changed, negative for damage
	HPDelta int
}

// TickResult reports everything a tick did to the participant
type TickResult struct {
	Ticked   []TickEntry
	Expired  []combat.StatusEffect
	Defeated bool
}

// Tick runs once at the start of the owner's turn. Every effect with time
// left applies its periodic magnitude, then all durations drop by one and
// effects at zero are removed. Dead participants never tick.
func (t *Tracker) Tick(p *combat.Participant) *TickResult {
	res := &TickResult{}
	if p == nil || !p.Alive {
		return res
	}

	for _, e := range p.Effects {
		if e.Duration <= 0 || !p.Alive {
			continue
		}

		var delta int
		switch e.Category {
		case combat.CategoryDamageOverTime:
			delta = -ApplyDamage(p, e.Magnitude)
		case combat.CategoryHealOverTime:
			delta = ApplyHealing(p, e.Magnitude)
		default:
			continue
		}

		res.Ticked = append(res.Ticked, TickEntry{Effect: e, HPDelta: delta})
		if !p.Alive {
			res.Defeated = true
		}
	}

	kept := p.Effects[:0]
	for _, e := range p.Effects {
		if e.Duration > 0 {
			e.Duration--
		}
		if e.Duration == 0 {
			res.Expired = append(res.Expired, e)
			continue
		}
		kept = append(kept, e)
	}
	p.Effects = kept

	return res
}

// Active returns a snapshot of the participant's effects in apply order
func Active(p *combat.Participant) []combat.StatusEffect {
	if p == nil || len(p.Effects) == 0 {
		return nil
	}
	return append([]combat.StatusEffect(nil), p.Effects...)
}

// Remove dispels every instance of the effect type and returns them
func Remove(p *combat.Participant, effectType string) []combat.StatusEffect {
	if p == nil {
		return nil
	}

	var removed []combat.StatusEffect
	kept := p.Effects[:0]
	for _, e := range p.Effects {
		if e.Type == effectType {
			removed = append(removed, e)
			continue
		}
		kept = append(kept, e)
	}
	p.Effects = kept

	return removed
}

// Has reports whether any active effect belongs to the category
func Has(p *combat.Participant, category combat.EffectCategory) bool {
	for _, e := range p.Effects {
		if e.Category == category && e.Duration > 0 {
			return true
		}
	}
	return false
}

// Sum adds up the magnitudes of active effects in the category
func Sum(p *combat.Participant, category combat.EffectCategory) int {
	total := 0
	for _, e := range p.Effects {
		if e.Category == category && e.Duration > 0 {
			total += e.Magnitude
		}
	}
	return total
}
