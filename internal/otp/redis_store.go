package otp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

const (
	challengePrefix = "otp_challenge:"
	counterPrefix   = "otp_counter:"
)

// RedisStore keeps challenges in Redis so every instance behind a load
// balancer sees the same codes and counters.
type RedisStore struct {
	client *redis.Client
	nowF   func() time.Time
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client, nowF: time.Now}
}

func (s *RedisStore) Save(ctx context.Context, c *Challenge) error {
	ttl := c.ExpiresAt.Sub(s.nowF())
	if ttl <= 0 {
		return fmt.Errorf("save challenge: already expired")
	}
	raw, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("encode challenge: %w", err)
	}
	return s.client.Set(ctx, challengePrefix+c.Phone, raw, ttl).Err()
}

func (s *RedisStore) Get(ctx context.Context, phone string) (*Challenge, error) {
	raw, err := s.client.Get(ctx, challengePrefix+phone).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	var c Challenge
	if err := json.Unmarshal(raw, &c); err != nil {
		return nil, fmt.Errorf("decode challenge: %w", err)
	}
	if c.Expired(s.nowF()) {
		return nil, ErrNotFound
	}
	return &c, nil
}

func (s *RedisStore) Delete(ctx context.Context, phone string) error {
	return s.client.Del(ctx, challengePrefix+phone).Err()
}

func (s *RedisStore) Incr(ctx context.Context, key string, window time.Duration) (int64, error) {
	k := counterPrefix + key
	n, err := s.client.Incr(ctx, k).Result()
	if err != nil {
		return 0, err
	}
	if n == 1 {
		if err := s.client.Expire(ctx, k, window).Err(); err != nil {
			return 0, err
		}
	}
	return n, nil
}
