package httpx

import (
	"context"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

// RedisWindowStore shares counters between replicas. Each key expires with
// its window, so no sweep is needed.
type RedisWindowStore struct {
	client goredis.UniversalClient
	prefix string
}

var _ WindowStore = (*RedisWindowStore)(nil)

func NewRedisWindowStore(client goredis.UniversalClient, prefix string) *RedisWindowStore {
	return &RedisWindowStore{client: client, prefix: prefix}
}

func (s *RedisWindowStore) Increment(ctx context.Context, key string, window time.Duration, now time.Time) (int64, time.Time, error) {
	if s.client == nil {
		return 0, time.Time{}, errors.New("redis client is nil")
	}
	if key == "" || window <= 0 {
		return 0, time.Time{}, errors.New("invalid rate window payload")
	}
	key = s.prefix + key

	count, err := s.client.Incr(ctx, key).Result()
	if err != nil {
		return 0, time.Time{}, fmt.Errorf("increment rate key: %w", err)
	}
	if count == 1 {
		if err := s.client.PExpire(ctx, key, window).Err(); err != nil {
			return 0, time.Time{}, fmt.Errorf("set rate key ttl: %w", err)
		}
		return count, now.Add(window), nil
	}

	ttl, err := s.client.PTTL(ctx, key).Result()
	if err != nil {
		return 0, time.Time{}, fmt.Errorf("read rate key ttl: %w", err)
	}
	if ttl < 0 {
		// The key lost its expiry (a failed PEXPIRE); start the window over.
		if err := s.client.Set(ctx, key, 1, window).Err(); err != nil {
			return 0, time.Time{}, fmt.Errorf("reset rate key: %w", err)
		}
		return 1, now.Add(window), nil
	}
	return count, now.Add(ttl), nil
}
