package skillcheck

import (
	"crypto/rand"
	"encoding/binary"
	"fmt"
	mrand "math/rand/v2"

	"github.com/KirkDiggler/rpg-toolkit/dice"
)

// SeededRoller is a deterministic dice.Roller. It is not safe for concurrent
// use; each session owns one and only touches it under the session lock.
type SeededRoller struct {
	seed uint64
	rng  *mrand.Rand
}

var _ dice.Roller = (*SeededRoller)(nil)

// NewSeededRoller returns a roller whose sequence is fully determined by seed
func NewSeededRoller(seed uint64) *SeededRoller {
	return &SeededRoller{
		seed: seed,
		rng:  mrand.New(mrand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
	}
}

// Seed returns the seed the roller was created with
func (r *SeededRoller) Seed() uint64 {
	return r.seed
}

// Roll returns a value in [1, size]
func (r *SeededRoller) Roll(size int) (int, error) {
	if size < 1 {
		return 0, fmt.Errorf("dice: invalid die size %d", size)
	}
	return r.rng.IntN(size) + 1, nil
}

// RollN rolls count dice of the given size
func (r *SeededRoller) RollN(count, size int) ([]int, error) {
	if count < 0 {
		return nil, fmt.Errorf("dice: invalid die count %d", count)
	}
	out := make([]int, count)
	for i := range out {
		v, err := r.Roll(size)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

// NewSeed returns a fresh random seed for a session
func NewSeed() (uint64, error) {
	var buf [8]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return 0, fmt.Errorf("failed to read seed: %w", err)
	}
	return binary.LittleEndian.Uint64(buf[:]), nil
}
