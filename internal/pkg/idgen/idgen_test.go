package idgen_test

import (
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KirkDiggler/rpg-combat/internal/pkg/idgen"
)

func TestSequentialGenerator(t *testing.T) {
	gen := idgen.NewSequential("effect")

	assert.Equal(t, "effect_1", gen.Generate())
	assert.Equal(t, "effect_2", gen.Generate())

	bare := idgen.NewSequential("")
	assert.Equal(t, "1", bare.Generate())
}

func TestSequentialGeneratorConcurrent(t *testing.T) {
	gen := idgen.NewSequential("s")

	var (
		mu   sync.Mutex
		seen = make(map[string]bool)
		wg   sync.WaitGroup
	)
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			id := gen.Generate()
			mu.Lock()
			seen[id] = true
			mu.Unlock()
		}()
	}
	wg.Wait()

	assert.Len(t, seen, 50)
}

func TestUUIDGenerator(t *testing.T) {
	gen := idgen.NewUUID("cs")
	id := gen.Generate()

	require.True(t, strings.HasPrefix(id, "cs_"))
	_, err := uuid.Parse(strings.TrimPrefix(id, "cs_"))
	assert.NoError(t, err)

	assert.NotEqual(t, id, gen.Generate())
}
