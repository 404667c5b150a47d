package encounters

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/KirkDiggler/rpg-combat/internal/entities/combat"
	"github.com/KirkDiggler/rpg-combat/internal/errors"
	"github.com/KirkDiggler/rpg-combat/internal/pkg/clock"
)

type archived struct {
	session   *combat.Session
	endedAt   time.Time
	expiresAt time.Time
}

// InMemoryRepository implements Repository using in-memory storage
type InMemoryRepository struct {
	clock clock.Clock
	ttl   time.Duration

	mu    sync.RWMutex
	store map[string]*archived
}

// NewInMemory creates a new in-memory repository. A zero ttl uses DefaultTTL.
func NewInMemory(c clock.Clock, ttl time.Duration) *InMemoryRepository {
	if c == nil {
		c = clock.New()
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &InMemoryRepository{
		clock: c,
		ttl:   ttl,
		store: make(map[string]*archived),
	}
}

var _ Repository = (*InMemoryRepository)(nil)

// Save stores a copy of the session
func (r *InMemoryRepository) Save(_ context.Context, input *SaveInput) (*SaveOutput, error) {
	if err := validateSave(input); err != nil {
		return nil, err
	}

	now := r.clock.Now()
	endedAt := input.Session.EndedAt
	if endedAt.IsZero() {
		endedAt = now
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.store[input.Session.ID] = &archived{
		session:   input.Session.Clone(),
		endedAt:   endedAt,
		expiresAt: now.Add(r.ttl),
	}

	return &SaveOutput{Success: true}, nil
}

// Get retrieves a copy of an archived session
func (r *InMemoryRepository) Get(_ context.Context, input *GetInput) (*GetOutput, error) {
	if input == nil || input.SessionID == "" {
		return nil, errors.InvalidArgument(errSessionIDEmpty)
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	a, ok := r.store[input.SessionID]
	if !ok || !r.clock.Now().Before(a.expiresAt) {
		return nil, errors.NotFoundf("archived session %s not found", input.SessionID).
			WithReason(combat.ReasonSessionNotFound)
	}

	return &GetOutput{Session: a.session.Clone()}, nil
}

// List returns live archive ids, most recently ended first
func (r *InMemoryRepository) List(_ context.Context, input *ListInput) (*ListOutput, error) {
	limit := 0
	if input != nil {
		limit = input.Limit
	}
	now := r.clock.Now()

	r.mu.Lock()
	defer r.mu.Unlock()

	live := make([]*archived, 0, len(r.store))
	for id, a := range r.store {
		if !now.Before(a.expiresAt) {
			delete(r.store, id)
			continue
		}
		live = append(live, a)
	}

	sort.Slice(live, func(i, j int) bool {
		if live[i].endedAt.Equal(live[j].endedAt) {
			return live[i].session.ID > live[j].session.ID
		}
		return live[i].endedAt.After(live[j].endedAt)
	})

	n := listLimit(limit)
	if n > len(live) {
		n = len(live)
	}
	ids := make([]string, n)
	for i := 0; i < n; i++ {
		ids[i] = live[i].session.ID
	}

	return &ListOutput{SessionIDs: ids}, nil
}

// Delete removes an archived session
func (r *InMemoryRepository) Delete(_ context.Context, input *DeleteInput) (*DeleteOutput, error) {
	if input == nil || input.SessionID == "" {
		return nil, errors.InvalidArgument(errSessionIDEmpty)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.store[input.SessionID]; !ok {
		return nil, errors.NotFoundf("archived session %s not found", input.SessionID).
			WithReason(combat.ReasonSessionNotFound)
	}
	delete(r.store, input.SessionID)

	return &DeleteOutput{Success: true}, nil
}
