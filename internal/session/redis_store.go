package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore keeps each session as a hash with a sliding expiry.
type RedisStore struct {
	client redis.UniversalClient
	prefix string
	ttl    time.Duration
}

var _ Store = (*RedisStore)(nil)

// NewRedisStore constructs a Redis-backed store.
func NewRedisStore(client redis.UniversalClient, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, prefix: "portal:session:", ttl: ttl}
}

func (s *RedisStore) key(sid string) string {
	return s.prefix + sid
}

func (s *RedisStore) Get(ctx context.Context, sid, key string) (string, bool, error) {
	value, err := s.client.HGet(ctx, s.key(sid), key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("load session value: %w", err)
	}
	if s.ttl > 0 {
		s.client.Expire(ctx, s.key(sid), s.ttl)
	}
	return value, true, nil
}

func (s *RedisStore) Set(ctx context.Context, sid, key, value string) error {
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, s.key(sid), key, value)
		if s.ttl > 0 {
			pipe.Expire(ctx, s.key(sid), s.ttl)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("persist session value: %w", err)
	}
	return nil
}

func (s *RedisStore) Clear(ctx context.Context, sid string, keys ...string) error {
	var err error
	if len(keys) == 0 {
		err = s.client.Del(ctx, s.key(sid)).Err()
	} else {
		err = s.client.HDel(ctx, s.key(sid), keys...).Err()
	}
	if err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}
