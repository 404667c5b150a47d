package combat

// EffectCategory determines how an effect changes combat math
type EffectCategory string

// Effect categories
const (
	// CategoryDamageOverTime deals Magnitude damage on each tick
	CategoryDamageOverTime EffectCategory = "damage_over_time"
	// CategoryHealOverTime heals Magnitude on each tick
	CategoryHealOverTime EffectCategory = "heal_over_time"
	// CategoryStun makes the owner skip their turn
	CategoryStun EffectCategory = "stun"
	// CategoryDamageReduction reduces incoming damage by Magnitude percent
	CategoryDamageReduction EffectCategory = "damage_reduction"
	// CategoryDamageBonus adds Magnitude to outgoing damage
	CategoryDamageBonus EffectCategory = "damage_bonus"
	// CategoryWeaken subtracts Magnitude from outgoing damage
	CategoryWeaken EffectCategory = "weaken"
)

// Valid reports whether c is a known category
func (c EffectCategory) Valid() bool {
	switch c {
	case CategoryDamageOverTime, CategoryHealOverTime, CategoryStun,
		CategoryDamageReduction, CategoryDamageBonus, CategoryWeaken:
		return true
	default:
		return false
	}
}

// StatusEffect is a timed modifier attached to a participant
type StatusEffect struct {
	ID        string         `json:"id"`
	Type      string         `json:"type"`
	Category  EffectCategory `json:"category"`
	Magnitude int            `json:"magnitude"`
	// Duration is the number of owner turns left, never negative
	Duration int    `json:"duration"`
	SourceID string `json:"source_id,omitempty"`
}

// EffectDefending is applied by the defend action
const EffectDefending = "defending"

// DefendingReduction is the damage reduction percent granted by defending
const DefendingReduction = 50
