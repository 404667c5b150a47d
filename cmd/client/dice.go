package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/KirkDiggler/rpg-combat/internal/entities/combat"
)

// parseDice reads NdS, NdS+B or a flat number. "" is the zero expression.
// Negative bonuses are rejected.
func parseDice(s string) (combat.DiceExpr, error) {
	s = strings.ToLower(strings.ReplaceAll(s, " ", ""))
	if s == "" {
		return combat.DiceExpr{}, nil
	}

	var expr combat.DiceExpr
	body := s
	if i := strings.LastIndexAny(s, "+-"); i > 0 {
		bonus, err := strconv.Atoi(s[i:])
		if err != nil {
			return expr, fmt.Errorf("invalid dice bonus in %q", s)
		}
		expr.Bonus = bonus
		body = s[:i]
	}

	count, sides, found := strings.Cut(body, "d")
	if !found {
		flat, err := strconv.Atoi(body)
		if err != nil {
			return expr, fmt.Errorf("invalid dice expression %q", s)
		}
		expr.Bonus += flat
		return expr, checkBonus(expr, s)
	}

	expr.Count = 1
	if count != "" {
		n, err := strconv.Atoi(count)
		if err != nil || n < 1 {
			return expr, fmt.Errorf("invalid dice count in %q", s)
		}
		expr.Count = n
	}
	n, err := strconv.Atoi(sides)
	if err != nil || n < 1 {
		return expr, fmt.Errorf("invalid dice sides in %q", s)
	}
	expr.Sides = n
	return expr, checkBonus(expr, s)
}

func checkBonus(expr combat.DiceExpr, s string) error {
	if expr.Bonus < 0 {
		return fmt.Errorf("dice bonus must not be negative in %q", s)
	}
	return nil
}
