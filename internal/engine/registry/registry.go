// Package registry holds the live combat sessions of one process and
// serializes every mutation of a session behind its own lock.
package registry

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/KirkDiggler/rpg-toolkit/dice"
	"golang.org/x/sync/semaphore"

	"github.com/KirkDiggler/rpg-combat/internal/engine/session"
	"github.com/KirkDiggler/rpg-combat/internal/engine/skillcheck"
	"github.com/KirkDiggler/rpg-combat/internal/entities/combat"
	"github.com/KirkDiggler/rpg-combat/internal/errors"
)

// RollerFactory creates the dice source of a session from its seed
type RollerFactory func(seed uint64) dice.Roller

// Config configures a Registry
type Config struct {
	// LockTimeout bounds how long a caller waits for a busy session
	LockTimeout time.Duration
	// InactivityTimeout ends sessions idle for this long
	InactivityTimeout time.Duration
	// ResultGrace keeps ended sessions readable for this long
	ResultGrace time.Duration
	// NewRoller defaults to a seeded PCG roller
	NewRoller RollerFactory
}

// Validate ensures all required settings are provided
func (c *Config) Validate() error {
	vb := errors.NewValidationBuilder()

	errors.ValidatePositiveDuration("LockTimeout", c.LockTimeout, vb)
	errors.ValidatePositiveDuration("InactivityTimeout", c.InactivityTimeout, vb)
	if c.ResultGrace < 0 {
		vb.Field("ResultGrace", "must not be negative")
	}

	return vb.Build()
}

type entry struct {
	sem     *semaphore.Weighted
	session *combat.Session
	roller  dice.Roller
	// removed is set under sem once the entry left the map
	removed bool
}

// Registry maps session ids to live sessions
type Registry struct {
	lockTimeout       time.Duration
	inactivityTimeout time.Duration
	resultGrace       time.Duration
	newRoller         RollerFactory

	mu      sync.RWMutex
	entries map[string]*entry
}

// New creates an empty registry
func New(cfg *Config) (*Registry, error) {
	if cfg == nil {
		return nil, errors.InvalidArgument("config is required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid config")
	}

	newRoller := cfg.NewRoller
	if newRoller == nil {
		newRoller = func(seed uint64) dice.Roller {
			return skillcheck.NewSeededRoller(seed)
		}
	}

	return &Registry{
		lockTimeout:       cfg.LockTimeout,
		inactivityTimeout: cfg.InactivityTimeout,
		resultGrace:       cfg.ResultGrace,
		newRoller:         newRoller,
		entries:           make(map[string]*entry),
	}, nil
}

// Create registers a new session. The registry owns s afterwards.
func (r *Registry) Create(s *combat.Session) error {
	if s == nil || s.ID == "" {
		return errors.InvalidArgument("session with id is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.entries[s.ID]; exists {
		return errors.AlreadyExists("session already exists").WithMeta("session_id", s.ID)
	}

	r.entries[s.ID] = &entry{
		sem:     semaphore.NewWeighted(1),
		session: s,
		roller:  r.newRoller(s.Seed),
	}
	return nil
}

// Get returns a snapshot of the session
func (r *Registry) Get(ctx context.Context, id string) (*combat.Session, error) {
	var out *combat.Session
	err := r.WithSession(ctx, id, func(s *combat.Session, _ dice.Roller) error {
		out = s.Clone()
		return nil
	})
	return out, err
}

// WithSession runs fn while holding the session's lock. fn may mutate the
// session; the registry never copies it back.
func (r *Registry) WithSession(ctx context.Context, id string, fn func(*combat.Session, dice.Roller) error) error {
	e, err := r.acquire(ctx, id)
	if err != nil {
		return err
	}
	defer e.sem.Release(1)

	return fn(e.session, e.roller)
}

func (r *Registry) lookup(id string) (*entry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[id]
	return e, ok
}

func (r *Registry) acquire(ctx context.Context, id string) (*entry, error) {
	e, ok := r.lookup(id)
	if !ok {
		return nil, notFound(id)
	}

	lockCtx, cancel := context.WithTimeout(ctx, r.lockTimeout)
	defer cancel()

	if err := e.sem.Acquire(lockCtx, 1); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, errors.FromContext(ctxErr, "gave up waiting for session").WithMeta("session_id", id)
		}
		return nil, errors.Aborted("session is busy, retry").
			WithReason(combat.ReasonSessionBusy).
			WithMeta("session_id", id)
	}

	if e.removed {
		e.sem.Release(1)
		return nil, notFound(id)
	}
	return e, nil
}

// Remove drops a session, waiting for its current holder to finish
func (r *Registry) Remove(ctx context.Context, id string) error {
	e, err := r.acquire(ctx, id)
	if err != nil {
		return err
	}
	defer e.sem.Release(1)

	r.drop(id, e)
	return nil
}

func (r *Registry) drop(id string, e *entry) {
	e.removed = true

	r.mu.Lock()
	delete(r.entries, id)
	r.mu.Unlock()
}

// Len returns the number of registered sessions
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

// IDs returns the registered session ids in sorted order
func (r *Registry) IDs() []string {
	r.mu.RLock()
	ids := make([]string, 0, len(r.entries))
	for id := range r.entries {
		ids = append(ids, id)
	}
	r.mu.RUnlock()

	sort.Strings(ids)
	return ids
}

// Expired is a session the sweep ended for inactivity
type Expired struct {
	Session *combat.Session
	Events  []combat.Event
}

// SweepResult reports what one sweep did
type SweepResult struct {
	TimedOut []Expired
	// Removed lists ended sessions past their grace period
	Removed []string
	// Busy lists sessions skipped because someone held the lock
	Busy []string
}

// SweepExpired times out idle sessions and drops ended ones past their grace
// period. Busy sessions are skipped rather than waited on.
func (r *Registry) SweepExpired(ctx context.Context, now time.Time) (*SweepResult, error) {
	res := &SweepResult{}

	for _, id := range r.IDs() {
		if err := ctx.Err(); err != nil {
			return res, errors.FromContext(err, "sweep interrupted")
		}

		e, ok := r.lookup(id)
		if !ok {
			continue
		}
		if !e.sem.TryAcquire(1) {
			res.Busy = append(res.Busy, id)
			continue
		}

		r.sweepOne(id, e, now, res)
		e.sem.Release(1)
	}

	return res, nil
}

func (r *Registry) sweepOne(id string, e *entry, now time.Time, res *SweepResult) {
	if e.removed {
		return
	}
	s := e.session

	if session.CheckTimeout(s, now, r.inactivityTimeout) {
		events, err := session.Timeout(s, now)
		if err != nil {
			slog.Error("failed to time out session",
				"session_id", id,
				"error", err)
			return
		}
		res.TimedOut = append(res.TimedOut, Expired{Session: s.Clone(), Events: events})
		return
	}

	if s.IsEnded() && !now.Before(s.EndedAt.Add(r.resultGrace)) {
		r.drop(id, e)
		res.Removed = append(res.Removed, id)
	}
}

func notFound(id string) error {
	return errors.NotFound("session not found").
		WithReason(combat.ReasonSessionNotFound).
		WithMeta("session_id", id)
}
