package strikes

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"
)

const defaultRedisPrefix = "moderate:strikes:"

// RedisStore keeps strike counts in Redis so they survive restarts and are
// shared across replicas. INCR gives the per-actor atomicity the contract
// requires.
type RedisStore struct {
	client *redis.Client
	prefix string
	limit  int
	window time.Duration
}

// RedisOptions configures the store.
type RedisOptions struct {
	Client *redis.Client
	Prefix string
	Limit  int
	// Window, when positive, is set as the key TTL on every strike, so the
	// decay window runs from an actor's most recent strike. Zero disables
	// decay.
	Window time.Duration
}

// NewRedisStore creates a Redis strike store.
func NewRedisStore(opt RedisOptions) (*RedisStore, error) {
	if opt.Client == nil {
		return nil, errors.New("strikes: redis client is nil")
	}
	if strings.TrimSpace(opt.Prefix) == "" {
		opt.Prefix = defaultRedisPrefix
	}
	if opt.Limit <= 0 {
		opt.Limit = DefaultLimit
	}
	return &RedisStore{
		client: opt.Client,
		prefix: opt.Prefix,
		limit:  opt.Limit,
		window: opt.Window,
	}, nil
}

func (s *RedisStore) key(actor string) string {
	return s.prefix + actor
}

// Increment records one strike and removes the key when the count reaches
// the limit. INCR and EXPIRE travel in one pipeline so a crash between them
// cannot leave a key that never decays.
func (s *RedisStore) Increment(ctx context.Context, actor string) (int, bool, error) {
	key := s.key(actor)
	pipe := s.client.TxPipeline()
	incr := pipe.Incr(ctx, key)
	if s.window > 0 {
		pipe.Expire(ctx, key, s.window)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, false, err
	}
	count := int(incr.Val())
	if count >= s.limit {
		// Strikes racing past the limit can each see a count at or above
		// it and all report banned; DEL and the transport's ban are
		// idempotent, so the duplicate report is harmless.
		if err := s.client.Del(ctx, key).Err(); err != nil {
			return count, true, err
		}
		return count, true, nil
	}
	return count, false, nil
}

// Reset removes an actor's record.
func (s *RedisStore) Reset(ctx context.Context, actor string) error {
	return s.client.Del(ctx, s.key(actor)).Err()
}
