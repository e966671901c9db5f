package stores

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore implements Store on Redis so attempt counters and challenges
// are shared across instances. Expiry is delegated to Redis key TTLs.
type RedisStore struct {
	redis  redis.UniversalClient
	prefix string
}

// NewRedisStore namespaces every key under prefix ("vms" when empty).
func NewRedisStore(redisClient redis.UniversalClient, prefix string) *RedisStore {
	if prefix == "" {
		prefix = "vms"
	}
	return &RedisStore{
		redis:  redisClient,
		prefix: prefix,
	}
}

func (s *RedisStore) key(k string) string {
	return s.prefix + ":" + k
}

func (s *RedisStore) Get(ctx context.Context, key string) (string, bool, error) {
	v, err := s.redis.Get(ctx, s.key(key)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return v, true, nil
}

func (s *RedisStore) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	if err := s.redis.Set(ctx, s.key(key), value, ttl).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

// Incr uses INCR and sets the TTL only when the counter was just created,
// which anchors the window at the first hit.
func (s *RedisStore) Incr(ctx context.Context, key string, ttl time.Duration) (int64, error) {
	k := s.key(key)
	count, err := s.redis.Incr(ctx, k).Result()
	if err != nil {
		if isNotInteger(err) {
			return 0, ErrNotInteger
		}
		return 0, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if count == 1 {
		if err := s.redis.Expire(ctx, k, ttl).Err(); err != nil {
			return 0, fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
	}
	return count, nil
}

// Take relies on GETDEL so two concurrent callers cannot both observe the value.
func (s *RedisStore) Take(ctx context.Context, key string) (string, bool, error) {
	v, err := s.redis.GetDel(ctx, s.key(key)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return v, true, nil
}

func (s *RedisStore) Delete(ctx context.Context, key string) error {
	if err := s.redis.Del(ctx, s.key(key)).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

func isNotInteger(err error) bool {
	var rerr redis.Error
	return errors.As(err, &rerr) && strings.Contains(rerr.Error(), "not an integer")
}
