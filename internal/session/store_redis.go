package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisPrefix = "session:"

// RedisStore keeps sessions as JSON strings with a TTL
type RedisStore struct {
	c   *redis.Client
	ttl time.Duration
}

func NewRedisStore(ctx context.Context, url string, ttl time.Duration) (*RedisStore, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis url, %w", err)
	}

	c := redis.NewClient(opts)
	if err := c.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis, %w", err)
	}

	if ttl <= 0 {
		ttl = DefaultTTL
	}

	return &RedisStore{c: c, ttl: ttl}, nil
}

func (s *RedisStore) Load(ctx context.Context, id string) (*Session, error) {
	b, err := s.c.Get(ctx, redisPrefix+id).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}

		return nil, fmt.Errorf("failed to load session, %w", err)
	}

	return Unmarshal(id, b)
}

func (s *RedisStore) Save(ctx context.Context, sess *Session) error {
	b, err := Marshal(sess)
	if err != nil {
		return fmt.Errorf("failed to encode session, %w", err)
	}

	return s.c.Set(ctx, redisPrefix+sess.ID, b, s.ttl).Err()
}

func (s *RedisStore) Delete(ctx context.Context, id string) error {
	return s.c.Del(ctx, redisPrefix+id).Err()
}

func (s *RedisStore) Close() error {
	return s.c.Close()
}
