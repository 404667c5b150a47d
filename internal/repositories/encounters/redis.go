package encounters

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	redis "github.com/redis/go-redis/v9"

	"github.com/KirkDiggler/rpg-combat/internal/entities/combat"
	"github.com/KirkDiggler/rpg-combat/internal/errors"
	"github.com/KirkDiggler/rpg-combat/internal/pkg/clock"
	redisclient "github.com/KirkDiggler/rpg-combat/internal/redis"
)

const (
	// Key pattern: combat:encounter:{session_id}
	encounterKeyPrefix = "combat:encounter:"
	// Sorted set of archived ids scored by end time
	endedIndexKey = "combat:encounters:ended"

	// DefaultTTL is how long archived sessions are kept
	DefaultTTL = 24 * time.Hour

	errSessionNil     = "session cannot be nil"
	errSessionIDEmpty = "session ID cannot be empty"
)

func errInvalid(msg string) error {
	return errors.InvalidArgument(msg)
}

// Config holds the configuration for the Redis repository
type Config struct {
	Client redisclient.Client
	Clock  clock.Clock
	// TTL defaults to DefaultTTL
	TTL time.Duration
}

// Validate ensures all required dependencies are provided
func (c *Config) Validate() error {
	if c == nil {
		return errors.InvalidArgument("config cannot be nil")
	}
	if c.Client == nil {
		return errors.InvalidArgument("redis client is required")
	}
	if c.TTL < 0 {
		return errors.InvalidArgument("ttl must not be negative")
	}
	return nil
}

type redisRepository struct {
	client redisclient.Client
	clock  clock.Clock
	ttl    time.Duration
}

// NewRedisRepository creates a Redis backed archive
func NewRedisRepository(cfg *Config) (Repository, error) {
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid config")
	}

	c := cfg.Clock
	if c == nil {
		c = clock.New()
	}
	ttl := cfg.TTL
	if ttl == 0 {
		ttl = DefaultTTL
	}

	return &redisRepository{
		client: cfg.Client,
		clock:  c,
		ttl:    ttl,
	}, nil
}

var _ Repository = (*redisRepository)(nil)

func (r *redisRepository) Save(ctx context.Context, input *SaveInput) (*SaveOutput, error) {
	if err := validateSave(input); err != nil {
		return nil, err
	}
	s := input.Session

	data, err := json.Marshal(s)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to marshal session %s", s.ID)
	}

	endedAt := s.EndedAt
	if endedAt.IsZero() {
		endedAt = r.clock.Now()
	}

	pipe := r.client.TxPipeline()
	pipe.Set(ctx, encounterKeyPrefix+s.ID, data, r.ttl)
	pipe.ZAdd(ctx, endedIndexKey, redis.Z{Score: float64(endedAt.UnixMilli()), Member: s.ID})

	if _, err := pipe.Exec(ctx); err != nil {
		return nil, errors.Wrapf(err, "failed to archive session %s", s.ID)
	}

	return &SaveOutput{Success: true}, nil
}

func (r *redisRepository) Get(ctx context.Context, input *GetInput) (*GetOutput, error) {
	if input == nil || input.SessionID == "" {
		return nil, errors.InvalidArgument(errSessionIDEmpty)
	}

	raw, err := r.client.Get(ctx, encounterKeyPrefix+input.SessionID).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, errors.NotFoundf("archived session %s not found", input.SessionID).
				WithReason(combat.ReasonSessionNotFound)
		}
		return nil, errors.Wrapf(err, "failed to get session %s", input.SessionID)
	}

	var s combat.Session
	if err := json.Unmarshal([]byte(raw), &s); err != nil {
		return nil, errors.Wrapf(err, "failed to unmarshal session %s", input.SessionID)
	}

	return &GetOutput{Session: &s}, nil
}

func (r *redisRepository) List(ctx context.Context, input *ListInput) (*ListOutput, error) {
	limit := 0
	if input != nil {
		limit = input.Limit
	}

	// Index members whose keys already expired are pruned first
	cutoff := r.clock.Now().Add(-r.ttl).UnixMilli()
	if err := r.client.ZRemRangeByScore(ctx, endedIndexKey, "-inf", formatScore(cutoff)).Err(); err != nil {
		return nil, errors.Wrap(err, "failed to prune archive index")
	}

	ids, err := r.client.ZRevRange(ctx, endedIndexKey, 0, int64(listLimit(limit)-1)).Result()
	if err != nil {
		return nil, errors.Wrap(err, "failed to list archived sessions")
	}

	return &ListOutput{SessionIDs: ids}, nil
}

func (r *redisRepository) Delete(ctx context.Context, input *DeleteInput) (*DeleteOutput, error) {
	if input == nil || input.SessionID == "" {
		return nil, errors.InvalidArgument(errSessionIDEmpty)
	}

	pipe := r.client.TxPipeline()
	del := pipe.Del(ctx, encounterKeyPrefix+input.SessionID)
	pipe.ZRem(ctx, endedIndexKey, input.SessionID)

	if _, err := pipe.Exec(ctx); err != nil {
		return nil, errors.Wrapf(err, "failed to delete session %s", input.SessionID)
	}
	if del.Val() == 0 {
		return nil, errors.NotFoundf("archived session %s not found", input.SessionID).
			WithReason(combat.ReasonSessionNotFound)
	}

	return &DeleteOutput{Success: true}, nil
}

func formatScore(ms int64) string {
	return "(" + strconv.FormatInt(ms, 10)
}
