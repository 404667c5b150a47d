package actions_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KirkDiggler/rpg-combat/internal/engine/actions"
	"github.com/KirkDiggler/rpg-combat/internal/entities/combat"
	"github.com/KirkDiggler/rpg-combat/internal/testutils"
)

func TestMitigate(t *testing.T) {
	testCases := []struct {
		name        string
		armor       int
		effects     []combat.StatusEffect
		damage      int
		penetration float64
		expected    int
	}{
		{name: "no armor", damage: 10, expected: 10},
		{name: "armor 100 absorbs half", armor: 100, damage: 10, expected: 5},
		{name: "penetration reduces absorption", armor: 100, damage: 10, penetration: 0.5, expected: 8},
		{name: "full penetration ignores armor", armor: 100, damage: 10, penetration: 1, expected: 10},
		{
			name:   "damage reduction effect",
			damage: 9,
			effects: []combat.StatusEffect{
				{Type: "defending", Category: combat.CategoryDamageReduction, Magnitude: 50, Duration: 1},
			},
			expected: 4,
		},
		{
			name:   "reduction capped at 100 percent",
			damage: 9,
			effects: []combat.StatusEffect{
				{Type: "a", Category: combat.CategoryDamageReduction, Magnitude: 80, Duration: 1},
				{Type: "b", Category: combat.CategoryDamageReduction, Magnitude: 80, Duration: 1},
			},
			expected: 0,
		},
		{name: "zero damage", damage: 0, armor: 10, expected: 0},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			target := &combat.Participant{Armor: tc.armor, Effects: tc.effects}
			assert.Equal(t, tc.expected, actions.Mitigate(target, tc.damage, tc.penetration))
		})
	}
}

func TestOutgoingDamage(t *testing.T) {
	attacker := &combat.Participant{Effects: []combat.StatusEffect{
		{Type: "rage", Category: combat.CategoryDamageBonus, Magnitude: 3, Duration: 2},
	}}
	assert.Equal(t, 8, actions.OutgoingDamage(attacker, 5))

	weakened := &combat.Participant{Effects: []combat.StatusEffect{
		{Type: "hex", Category: combat.CategoryWeaken, Magnitude: 10, Duration: 2},
	}}
	assert.Equal(t, 0, actions.OutgoingDamage(weakened, 5))
}

func TestRollDice(t *testing.T) {
	roller := testutils.NewScriptedRoller(2, 5, 6)

	total, err := actions.RollDice(roller, combat.DiceExpr{Count: 3, Sides: 6, Bonus: 1})
	require.NoError(t, err)
	assert.Equal(t, 14, total)

	flat, err := actions.RollDice(roller, combat.DiceExpr{Bonus: 7})
	require.NoError(t, err)
	assert.Equal(t, 7, flat)
	assert.Equal(t, 0, roller.Remaining())
}
