package combat

// ActionType tags the variant of a combat action
type ActionType string

// Action types
const (
	ActionAttack  ActionType = "attack"
	ActionAbility ActionType = "ability"
	ActionItem    ActionType = "item"
	ActionDefend  ActionType = "defend"
	ActionFlee    ActionType = "flee"
)

// Default action costs in action points
const (
	CostAttack         = 1
	CostAbilityDefault = 2
	CostItem           = 1
	CostDefend         = 0
	CostFlee           = 1
)

// DefaultFleeDifficulty is used when a flee action names no difficulty
const DefaultFleeDifficulty = 10

// SkillCheckRequirement gates an action behind a d20 check
type SkillCheckRequirement struct {
	Modifier   int  `json:"modifier"`
	Difficulty int  `json:"difficulty"`
	Advantage  bool `json:"advantage,omitempty"`
}

// Action is a request by a participant to act on their turn
type Action struct {
	ActorID    string
	TargetIDs  []string
	SkillCheck *SkillCheckRequirement
	Payload    Payload
}

// Type returns the variant tag, or "" when no payload is set
func (a *Action) Type() ActionType {
	if a == nil || a.Payload == nil {
		return ""
	}
	return a.Payload.ActionType()
}

// Payload is the variant specific part of an action. The set of
// implementations is closed to this package.
type Payload interface {
	ActionType() ActionType
	isPayload()
}

// DiceExpr is a damage or healing expression such as 2d6+3
type DiceExpr struct {
	Count int `json:"count,omitempty"`
	Sides int `json:"sides,omitempty"`
	Bonus int `json:"bonus,omitempty"`
}

// IsZero reports whether the expression produces nothing
func (d DiceExpr) IsZero() bool {
	return d.Bonus == 0 && (d.Count == 0 || d.Sides == 0)
}

// Attack is a basic weapon attack against enemies
type Attack struct {
	Damage DiceExpr `json:"damage"`
	// Penetration is the fraction of target armor ignored, 0 to 1
	Penetration  float64 `json:"penetration,omitempty"`
	FriendlyFire bool    `json:"friendly_fire,omitempty"`
}

// Ability is a special move with an explicit cost. A zero Cost means
// CostAbilityDefault.
type Ability struct {
	Name          string        `json:"name"`
	Cost          int           `json:"cost,omitempty"`
	Damage        DiceExpr      `json:"damage,omitempty"`
	Healing       DiceExpr      `json:"healing,omitempty"`
	Penetration   float64       `json:"penetration,omitempty"`
	Effect        *StatusEffect `json:"effect,omitempty"`
	TargetsAllies bool          `json:"targets_allies,omitempty"`
	FriendlyFire  bool          `json:"friendly_fire,omitempty"`
	Revive        bool          `json:"revive,omitempty"`
	// Area hits every eligible participant when no targets are named
	Area bool `json:"area,omitempty"`
}

// Item is a consumable. Items target allies, the actor included, unless
// Offensive is set.
type Item struct {
	Name      string        `json:"name"`
	Damage    DiceExpr      `json:"damage,omitempty"`
	Healing   DiceExpr      `json:"healing,omitempty"`
	Effect    *StatusEffect `json:"effect,omitempty"`
	Revive    bool          `json:"revive,omitempty"`
	Offensive bool          `json:"offensive,omitempty"`
}

// Defend halves incoming damage until the actor's next turn
type Defend struct{}

// Flee attempts to leave combat. A zero Difficulty means DefaultFleeDifficulty.
type Flee struct {
	Difficulty int `json:"difficulty,omitempty"`
}

// ActionType implements Payload
func (*Attack) ActionType() ActionType { return ActionAttack }

// ActionType implements Payload
func (*Ability) ActionType() ActionType { return ActionAbility }

// ActionType implements Payload
func (*Item) ActionType() ActionType { return ActionItem }

// ActionType implements Payload
func (*Defend) ActionType() ActionType { return ActionDefend }

// ActionType implements Payload
func (*Flee) ActionType() ActionType { return ActionFlee }

func (*Attack) isPayload()  {}
func (*Ability) isPayload() {}
func (*Item) isPayload()    {}
func (*Defend) isPayload()  {}
func (*Flee) isPayload()    {}
