// Package skillcheck resolves d20 skill checks against a difficulty class.
//
// Resolution is pure: the only state is the dice.Roller passed in, so the
// package needs no locking of its own.
package skillcheck

import (
	"github.com/KirkDiggler/rpg-toolkit/dice"

	"github.com/KirkDiggler/rpg-combat/internal/entities/combat"
	"github.com/KirkDiggler/rpg-combat/internal/errors"
)

// Die is the size of the check die
const Die = 20

const (
	naturalCritical = 20
	naturalFumble   = 1
)

// Input describes one check
type Input struct {
	Modifier   int
	Difficulty int
	Advantage  bool
}

// Result is a resolved check
type Result struct {
	// Rolls holds every d20 drawn, in draw order
	Rolls []int
	// Natural is the kept die
	Natural         int
	Modifier        int
	Total           int
	Difficulty      int
	Margin          int
	Advantage       bool
	Success         bool
	Critical        bool
	CriticalFailure bool
}

// Resolve rolls a check. With advantage two independent draws are taken
// from the roller and the higher is kept.
func Resolve(roller dice.Roller, input Input) (*Result, error) {
	if roller == nil {
		return nil, errors.InvalidArgument("roller is required")
	}

	draws := 1
	if input.Advantage {
		draws = 2
	}

	rolls := make([]int, 0, draws)
	for i := 0; i < draws; i++ {
		r, err := roller.Roll(Die)
		if err != nil {
			return nil, errors.Wrap(err, "failed to roll d20")
		}
		if r < 1 || r > Die {
			return nil, errors.Internalf("roller returned %d for a d%d", r, Die)
		}
		rolls = append(rolls, r)
	}

	return Evaluate(rolls, input), nil
}

// Evaluate scores already drawn dice. The first roll is used without
// advantage; with advantage the highest is kept.
func Evaluate(rolls []int, input Input) *Result {
	natural := 0
	if len(rolls) > 0 {
		natural = rolls[0]
	}
	if input.Advantage && len(rolls) > 1 {
		for _, r := range rolls[1:] {
			if r > natural {
				natural = r
			}
		}
	}

	total := natural + input.Modifier
	res := &Result{
		Rolls:      append([]int(nil), rolls...),
		Natural:    natural,
		Modifier:   input.Modifier,
		Total:      total,
		Difficulty: input.Difficulty,
		Margin:     Margin(total, input.Difficulty),
		Advantage:  input.Advantage,
		Success:    total >= input.Difficulty,
	}

	// Natural rolls override the comparison
	switch natural {
	case naturalCritical:
		res.Success = true
		res.Critical = true
	case naturalFumble:
		res.Success = false
		res.CriticalFailure = true
	}

	return res
}

// Margin is how far the total landed above (positive) or below the difficulty
func Margin(total, difficulty int) int {
	return total - difficulty
}

// Detail converts the result to its event form
func (r *Result) Detail() *combat.RollDetail {
	return &combat.RollDetail{
		Rolls:           append([]int(nil), r.Rolls...),
		Natural:         r.Natural,
		Modifier:        r.Modifier,
		Total:           r.Total,
		Difficulty:      r.Difficulty,
		Margin:          r.Margin,
		Advantage:       r.Advantage,
		Success:         r.Success,
		Critical:        r.Critical,
		CriticalFailure: r.CriticalFailure,
	}
}
